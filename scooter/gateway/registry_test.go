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
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/intelcon-group/scootergw/scooter/protocol"
)

const testIMEI = "123456789012345"

func testSession(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return newSession(server, protocol.MaxFrameSize), client
}

func TestRegistryCheckout(t *testing.T) {
	r := NewRegistry()
	s, _ := testSession(t)

	require.Equal(t, 0, r.Count())
	displaced := r.Register(testIMEI, s)
	require.Nil(t, displaced)
	require.Equal(t, 1, r.Count())
	require.Equal(t, testIMEI, s.IMEI())
	require.False(t, s.RegisteredAt().IsZero())

	h, err := r.Checkout(testIMEI)
	require.NoError(t, err)
	require.Equal(t, testIMEI, h.IMEI())
	h.Release()
	// releasing twice is a no-op
	h.Release()

	r.Unregister(s)
	require.Equal(t, 0, r.Count())
	_, err = r.Checkout(testIMEI)
	require.ErrorIs(t, err, ErrClientNotFound)
}

func TestRegistryCheckoutUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Checkout("000000000000000")
	require.ErrorIs(t, err, ErrClientNotFound)
	require.ErrorContains(t, err, "000000000000000")
}

func TestRegistryReplace(t *testing.T) {
	r := NewRegistry()
	s1, _ := testSession(t)
	s2, _ := testSession(t)

	require.Nil(t, r.Register(testIMEI, s1))
	displaced := r.Register(testIMEI, s2)
	require.Same(t, s1, displaced)
	require.Equal(t, 1, r.Count())

	h, err := r.Checkout(testIMEI)
	require.NoError(t, err)
	require.Same(t, s2, h.s)
	h.Release()
}

// a reader noticing its displaced session died must not unregister the
// replacement
func TestRegistryUnregisterStale(t *testing.T) {
	r := NewRegistry()
	s1, _ := testSession(t)
	s2, _ := testSession(t)

	r.Register(testIMEI, s1)
	r.Register(testIMEI, s2)

	r.Unregister(s1)
	require.Equal(t, 1, r.Count())
	h, err := r.Checkout(testIMEI)
	require.NoError(t, err)
	require.Same(t, s2, h.s)
	h.Release()

	r.Unregister(s2)
	require.Equal(t, 0, r.Count())
}

func TestRegistryCheckoutExclusive(t *testing.T) {
	r := NewRegistry()
	s, _ := testSession(t)
	r.Register(testIMEI, s)

	h1, err := r.Checkout(testIMEI)
	require.NoError(t, err)

	acquired := make(chan *Handle)
	go func() {
		h2, err := r.Checkout(testIMEI)
		if err == nil {
			acquired <- h2
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second checkout succeeded while the session was held")
	case <-time.After(100 * time.Millisecond):
	}

	h1.Release()
	select {
	case h2 := <-acquired:
		h2.Release()
	case <-time.After(time.Second):
		t.Fatal("second checkout did not proceed after release")
	}
}

func TestSessionReadFramePreservesPartialLines(t *testing.T) {
	s, client := testSession(t)

	go func() {
		// frame arrives in two chunks with a pause in between
		client.Write([]byte("*SCOR,LZ,1234567890"))
		time.Sleep(50 * time.Millisecond)
		client.Write([]byte("12345,H0,0,3780,22,78,0#\n"))
	}()

	s.mux.Lock()
	defer s.mux.Unlock()

	// first poll expires mid-frame
	_, err := s.readFrame(time.Now().Add(20 * time.Millisecond))
	require.Error(t, err)
	require.True(t, isTimeout(err))

	frame, err := s.readFrame(time.Now().Add(time.Second))
	require.NoError(t, err)
	require.Equal(t, "*SCOR,LZ,123456789012345,H0,0,3780,22,78,0#\n", frame)
}

// a peer streaming terminator-free bytes is cut off at the pending cap,
// well before the read deadline
func TestSessionReadFrameOverflow(t *testing.T) {
	s, client := testSession(t)

	go func() {
		junk := bytes.Repeat([]byte("a"), 2*maxPendingBytes)
		_, _ = client.Write(junk)
	}()

	s.mux.Lock()
	defer s.mux.Unlock()

	start := time.Now()
	_, err := s.readFrame(time.Now().Add(30 * time.Second))
	require.ErrorContains(t, err, "unterminated frame")
	require.Less(t, time.Since(start), 10*time.Second)
}
