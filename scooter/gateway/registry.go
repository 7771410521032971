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

package gateway

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// ErrClientNotFound is returned by Checkout for an unknown IMEI
var ErrClientNotFound = errors.New("client not found")

// maxPendingBytes bounds the partial-line buffer of a session. A peer
// that streams this much without a newline is not speaking the protocol.
const maxPendingBytes = 4096

// Session binds an IMEI to one TCP connection. The connection is only
// ever touched by the holder of the session lock: either the per-device
// reader or a checked-out operator workflow.
type Session struct {
	imei         string
	registeredAt time.Time

	mux     sync.Mutex
	conn    net.Conn
	reader  *bufio.Reader
	pending []byte
}

func newSession(conn net.Conn, bufSize int) *Session {
	return &Session{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, bufSize),
	}
}

// IMEI returns the device identifier, empty until registered
func (s *Session) IMEI() string {
	return s.imei
}

// RegisteredAt returns the registration timestamp
func (s *Session) RegisteredAt() time.Time {
	return s.registeredAt
}

// Close terminates the underlying connection
func (s *Session) Close() error {
	return s.conn.Close()
}

// readFrame reads one `\n`-terminated frame, preserving a partial line
// across deadline expirations. The pending buffer is capped after every
// read so a peer streaming terminator-free bytes is cut off at the cap.
// Must be called with the session lock held.
func (s *Session) readFrame(deadline time.Time) (string, error) {
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return "", err
	}
	for {
		chunk, err := s.reader.ReadSlice('\n')
		s.pending = append(s.pending, chunk...)
		if len(s.pending) > maxPendingBytes {
			return "", fmt.Errorf("unterminated frame exceeds %d bytes", maxPendingBytes)
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			return "", err
		}
		frame := string(s.pending)
		s.pending = s.pending[:0]
		return frame, nil
	}
}

// send writes one frame. Must be called with the session lock held.
func (s *Session) send(frame string, timeout time.Duration) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	if _, err := s.conn.Write([]byte(frame)); err != nil {
		return fmt.Errorf("failed to send command %q: %w", frame, err)
	}
	return nil
}

// Handle grants exclusive send/receive access to a session until released
type Handle struct {
	s        *Session
	released bool
}

// IMEI returns the device identifier of the held session
func (h *Handle) IMEI() string {
	return h.s.imei
}

// Send writes one frame to the device
func (h *Handle) Send(frame string, timeout time.Duration) error {
	return h.s.send(frame, timeout)
}

// ReadFrame reads one frame, failing once the deadline passes
func (h *Handle) ReadFrame(deadline time.Time) (string, error) {
	return h.s.readFrame(deadline)
}

// Release returns exclusive access to the session. Safe to call twice.
func (h *Handle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.s.mux.Unlock()
}

// Registry is the process-wide IMEI to session mapping. The registry
// lock only guards the map structure and is never held while a session
// is in exclusive use.
type Registry struct {
	mux      sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns an empty Registry
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Register inserts the session under the IMEI, replacing any previous
// entry. The displaced session, if any, is returned for the caller to
// close.
func (r *Registry) Register(imei string, s *Session) *Session {
	s.imei = imei
	s.registeredAt = time.Now()
	r.mux.Lock()
	defer r.mux.Unlock()
	displaced := r.sessions[imei]
	r.sessions[imei] = s
	return displaced
}

// Unregister removes the session if it is still the current entry for
// its IMEI. A session displaced by a newer registration leaves the
// newcomer untouched.
func (r *Registry) Unregister(s *Session) {
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.sessions[s.imei] == s {
		delete(r.sessions, s.imei)
	}
}

// Checkout acquires exclusive access to the session registered under
// the IMEI. The registry lock is released before the per-session lock
// is awaited, so long workflows on one scooter never block the map.
func (r *Registry) Checkout(imei string) (*Handle, error) {
	r.mux.Lock()
	s, ok := r.sessions[imei]
	r.mux.Unlock()
	if !ok {
		return nil, fmt.Errorf("client with IMEI %s: %w", imei, ErrClientNotFound)
	}
	s.mux.Lock()
	return &Handle{s: s}, nil
}

// Count returns the number of registered sessions
func (r *Registry) Count() int {
	r.mux.Lock()
	defer r.mux.Unlock()
	return len(r.sessions)
}
