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

package stats

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/intelcon-group/scootergw/scooter/protocol"
	log "github.com/sirupsen/logrus"
)

// JSONStats is what we want to report as stats via http
type JSONStats struct {
	report counters

	counters
}

// NewJSONStats returns a new JSONStats
func NewJSONStats() *JSONStats {
	s := &JSONStats{}

	s.init()
	s.report.init()

	return s
}

// Start runs the http server reporting the current snapshot
func (s *JSONStats) Start(monitoringport int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)
	addr := fmt.Sprintf(":%d", monitoringport)
	log.Infof("Starting http json server on %s", addr)
	err := http.ListenAndServe(addr, mux)
	if err != nil {
		log.Fatalf("Failed to start listener: %v", err)
	}
}

// Snapshot the values so they can be reported atomically
func (s *JSONStats) Snapshot() {
	s.report.connections = atomic.LoadInt64(&s.connections)
	s.report.registrations = atomic.LoadInt64(&s.registrations)
	s.report.decodeErrors = atomic.LoadInt64(&s.decodeErrors)
	s.report.ignored = atomic.LoadInt64(&s.ignored)
	s.report.sessions = atomic.LoadInt64(&s.sessions)
	s.telemetry.copy(&s.report.telemetry)
	s.workflowOK.copy(&s.report.workflowOK)
	s.workflowFail.copy(&s.report.workflowFail)
}

// handleRequest is a handler used for all http monitoring requests
func (s *JSONStats) handleRequest(w http.ResponseWriter, _ *http.Request) {
	js, err := json.Marshal(s.report.toMap())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(js); err != nil {
		log.Errorf("Failed to reply: %v", err)
	}
}

// Reset atomically sets all the counters to 0
func (s *JSONStats) Reset() {
	atomic.StoreInt64(&s.connections, 0)
	atomic.StoreInt64(&s.registrations, 0)
	atomic.StoreInt64(&s.decodeErrors, 0)
	atomic.StoreInt64(&s.ignored, 0)
	atomic.StoreInt64(&s.sessions, 0)
	s.counters.reset()
}

// IncConnections atomically adds 1 to the accepted connections counter
func (s *JSONStats) IncConnections() {
	atomic.AddInt64(&s.connections, 1)
}

// IncRegistrations atomically adds 1 to the registrations counter
func (s *JSONStats) IncRegistrations() {
	atomic.AddInt64(&s.registrations, 1)
}

// IncTelemetry atomically adds 1 to the telemetry counter of a command code
func (s *JSONStats) IncTelemetry(c protocol.Code) {
	s.telemetry.inc(string(c))
}

// IncDecodeErrors atomically adds 1 to the decode errors counter
func (s *JSONStats) IncDecodeErrors() {
	atomic.AddInt64(&s.decodeErrors, 1)
}

// IncIgnored atomically adds 1 to the ignored frames counter
func (s *JSONStats) IncIgnored() {
	atomic.AddInt64(&s.ignored, 1)
}

// IncWorkflowSuccess atomically adds 1 to the success counter of a workflow
func (s *JSONStats) IncWorkflowSuccess(name string) {
	s.workflowOK.inc(name)
}

// IncWorkflowFailure atomically adds 1 to the failure counter of a workflow
func (s *JSONStats) IncWorkflowFailure(name string) {
	s.workflowFail.inc(name)
}

// SetSessions atomically sets the number of registered sessions
func (s *JSONStats) SetSessions(n int64) {
	atomic.StoreInt64(&s.sessions, n)
}
