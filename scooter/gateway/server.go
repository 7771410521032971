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
Package gateway implements the scooter fleet gateway: the TCP acceptor
devices connect to, the session registry keyed by IMEI, and the
orchestrator driving the multi-step unlock/lock/setting exchanges on
behalf of the operator API.
*/
package gateway

import (
	"errors"
	"net"
	"regexp"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/intelcon-group/scootergw/scooter/protocol"
	"github.com/intelcon-group/scootergw/scooter/stats"
)

var imeiRe = regexp.MustCompile(`^\d{15}$`)

const (
	// registrationTimeout bounds the wait for the initial Q0
	registrationTimeout = 30 * time.Second
	// readPollInterval is how long the per-device reader blocks before
	// yielding the session lock to a pending workflow
	readPollInterval = 200 * time.Millisecond
)

// Server accepts device connections and routes their frames
type Server struct {
	Config    *Config
	Stats     stats.Stats
	Registry  *Registry
	Telemetry TelemetryHandler

	mux      sync.Mutex
	listener net.Listener
}

// Start binds the device listener and serves until the listener closes
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.Config.DeviceAddr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve accepts device connections on the listener
func (s *Server) Serve(l net.Listener) error {
	s.mux.Lock()
	s.listener = l
	s.mux.Unlock()
	log.Infof("Device listener on %s", l.Addr())
	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		log.Debugf("Accepted connection from %s", conn.RemoteAddr())
		s.Stats.IncConnections()
		go s.handleConnection(conn)
	}
}

// Addr returns the bound device listener address
func (s *Server) Addr() net.Addr {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the device listener
func (s *Server) Stop() {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

// handleConnection performs the Q0 registration handshake and then
// routes the device's frames until it disconnects
func (s *Server) handleConnection(conn net.Conn) {
	sess := newSession(conn, s.Config.ReadBufferSize)

	sess.mux.Lock()
	frame, err := sess.readFrame(time.Now().Add(registrationTimeout))
	sess.mux.Unlock()
	if err != nil {
		log.Debugf("Closing %s before registration: %v", conn.RemoteAddr(), err)
		_ = conn.Close()
		return
	}

	cmd, err := protocol.Decode(frame, s.Config.Vendor)
	if err != nil {
		log.Debugf("Invalid initial frame from %s: %v", conn.RemoteAddr(), err)
		_ = conn.Close()
		return
	}
	signIn, ok := cmd.(*protocol.SignIn)
	if !ok || !imeiRe.MatchString(signIn.IMEI) {
		log.Debugf("Initial frame from %s is not a Q0 sign-in", conn.RemoteAddr())
		_ = conn.Close()
		return
	}

	if displaced := s.Registry.Register(signIn.IMEI, sess); displaced != nil {
		log.Warningf("Replacing session for %s, closing the previous connection", signIn.IMEI)
		_ = displaced.Close()
	}
	s.Stats.IncRegistrations()
	s.Stats.SetSessions(int64(s.Registry.Count()))
	log.Infof("Registered scooter %s from %s (battery %.2fV, power %d%%, signal %d)",
		signIn.IMEI, conn.RemoteAddr(), signIn.Voltage, signIn.Power, signIn.Signal)

	s.readLoop(sess)
}

// readLoop owns the socket between workflows. It reads in short slices
// so that a workflow checkout can take the session lock in between.
func (s *Server) readLoop(sess *Session) {
	for {
		sess.mux.Lock()
		frame, err := sess.readFrame(time.Now().Add(readPollInterval))
		sess.mux.Unlock()
		if err != nil {
			if isTimeout(err) {
				continue
			}
			s.Registry.Unregister(sess)
			_ = sess.Close()
			s.Stats.SetSessions(int64(s.Registry.Count()))
			log.Infof("Scooter %s disconnected: %v", sess.IMEI(), err)
			return
		}
		s.dispatch(sess.IMEI(), frame)
	}
}

// dispatch decodes a frame read outside of any workflow. Telemetry goes
// to the handler, stray workflow responses are discarded.
func (s *Server) dispatch(imei, frame string) {
	cmd, err := protocol.Decode(frame, s.Config.Vendor)
	if err != nil {
		log.Warningf("Dropping undecodable frame from %s: %v", imei, err)
		s.Stats.IncDecodeErrors()
		return
	}
	switch cmd.(type) {
	case *protocol.SignIn, *protocol.Heartbeat, *protocol.Positioning, *protocol.Alarm, *protocol.Beep:
		s.Stats.IncTelemetry(cmd.CommandCode())
		if s.Telemetry != nil {
			s.Telemetry.Handle(cmd)
		}
	default:
		log.Debugf("Ignoring unsolicited %s response from %s", cmd.CommandCode(), imei)
		s.Stats.IncIgnored()
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
