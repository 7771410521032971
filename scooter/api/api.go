/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package api exposes the operator HTTP control plane: four POST
endpoints delegating to the gateway orchestrator.
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/intelcon-group/scootergw/scooter/gateway"
	"github.com/intelcon-group/scootergw/scooter/protocol"
)

// Request is the JSON body of every operator call. Gear is required by
// /change-gear, State by /toggle-headlight.
type Request struct {
	IMEI  string `json:"imei"`
	Gear  *uint8 `json:"gear,omitempty"`
	State *bool  `json:"state,omitempty"`
}

// Response is the JSON body of every operator reply
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	IMEI    string `json:"imei"`
}

// Server serves the operator API
type Server struct {
	addr  string
	flows *gateway.Orchestrator
}

// NewServer returns an operator API server bound to addr
func NewServer(addr string, flows *gateway.Orchestrator) *Server {
	return &Server{addr: addr, flows: flows}
}

// Handler returns the routed http handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/unlock", s.handleUnlock)
	mux.HandleFunc("/lock", s.handleLock)
	mux.HandleFunc("/change-gear", s.handleChangeGear)
	mux.HandleFunc("/toggle-headlight", s.handleToggleHeadlight)
	// older deployments use the change- name for the same operation
	mux.HandleFunc("/change-headlight", s.handleToggleHeadlight)
	return mux
}

// Start serves the operator API until the listener fails
func (s *Server) Start() error {
	log.Infof("Operator API on %s", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

// decode reads the request body, replying 400/405 itself on failure
func decode(w http.ResponseWriter, r *http.Request) (*Request, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	req := &Request{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		reply(w, http.StatusBadRequest, &Response{Message: "invalid request body: " + err.Error()})
		return nil, false
	}
	return req, true
}

func reply(w http.ResponseWriter, status int, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Errorf("Failed to reply: %v", err)
	}
}

// replyOutcome maps a workflow error to the HTTP status contract
func replyOutcome(w http.ResponseWriter, imei, successMessage string, err error) {
	switch {
	case err == nil:
		reply(w, http.StatusOK, &Response{Success: true, Message: successMessage, IMEI: imei})
	case errors.Is(err, gateway.ErrClientNotFound):
		reply(w, http.StatusNotFound, &Response{Message: err.Error(), IMEI: imei})
	case errors.Is(err, gateway.ErrInvalidParameter):
		reply(w, http.StatusBadRequest, &Response{Message: err.Error(), IMEI: imei})
	default:
		reply(w, http.StatusInternalServerError, &Response{Message: err.Error(), IMEI: imei})
	}
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	err := s.flows.Unlock(r.Context(), req.IMEI)
	replyOutcome(w, req.IMEI, "Unlock operation completed successfully", err)
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	err := s.flows.Lock(r.Context(), req.IMEI)
	replyOutcome(w, req.IMEI, "Lock operation completed successfully", err)
}

func (s *Server) handleChangeGear(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	if req.Gear == nil {
		reply(w, http.StatusBadRequest, &Response{Message: "missing gear", IMEI: req.IMEI})
		return
	}
	err := s.flows.ChangeGear(r.Context(), req.IMEI, protocol.SpeedMode(*req.Gear))
	replyOutcome(w, req.IMEI, "Gear changed", err)
}

func (s *Server) handleToggleHeadlight(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	if req.State == nil {
		reply(w, http.StatusBadRequest, &Response{Message: "missing state", IMEI: req.IMEI})
		return
	}
	err := s.flows.ToggleHeadlight(r.Context(), req.IMEI, *req.State)
	replyOutcome(w, req.IMEI, "Headlight toggled successfully", err)
}
