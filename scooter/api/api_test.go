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

package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/intelcon-group/scootergw/scooter/gateway"
	"github.com/intelcon-group/scootergw/scooter/simulator"
	"github.com/intelcon-group/scootergw/scooter/stats"
)

const testIMEI = "123456789012345"

// newAPIFixture starts a gateway with one simulated scooter attached
// and returns an httptest server over the operator API
func newAPIFixture(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := gateway.DefaultConfig()
	cfg.StepTimeout = 2 * time.Second
	reg := gateway.NewRegistry()
	st := stats.NewJSONStats()
	gw := &gateway.Server{
		Config:    cfg,
		Stats:     st,
		Registry:  reg,
		Telemetry: &gateway.TelemetryLogger{},
	}
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = gw.Serve(l) }()
	t.Cleanup(gw.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	sim := simulator.New(simulator.Config{
		Addr:              l.Addr().String(),
		Vendor:            "LZ",
		IMEI:              testIMEI,
		HeartbeatInterval: time.Minute,
		Key:               99,
	})
	go func() { _ = sim.Run(ctx) }()
	require.Eventually(t, func() bool { return reg.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	s := NewServer(cfg.HTTPAddr, gateway.NewOrchestrator(cfg, reg, st))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) (int, *Response) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	out := &Response{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode, out
}

func TestOperatorAPI(t *testing.T) {
	ts := newAPIFixture(t)

	t.Run("unlock", func(t *testing.T) {
		status, resp := post(t, ts, "/unlock", `{"imei":"123456789012345"}`)
		require.Equal(t, http.StatusOK, status)
		require.True(t, resp.Success)
		require.Equal(t, "Unlock operation completed successfully", resp.Message)
		require.Equal(t, testIMEI, resp.IMEI)
	})

	t.Run("lock", func(t *testing.T) {
		status, resp := post(t, ts, "/lock", `{"imei":"123456789012345"}`)
		require.Equal(t, http.StatusOK, status)
		require.True(t, resp.Success)
		require.Equal(t, "Lock operation completed successfully", resp.Message)
	})

	t.Run("change gear", func(t *testing.T) {
		status, resp := post(t, ts, "/change-gear", `{"imei":"123456789012345","gear":2}`)
		require.Equal(t, http.StatusOK, status)
		require.True(t, resp.Success)
		require.Equal(t, "Gear changed", resp.Message)
	})

	t.Run("missing gear", func(t *testing.T) {
		status, resp := post(t, ts, "/change-gear", `{"imei":"123456789012345"}`)
		require.Equal(t, http.StatusBadRequest, status)
		require.False(t, resp.Success)
		require.Contains(t, resp.Message, "missing gear")
	})

	t.Run("gear out of range", func(t *testing.T) {
		status, resp := post(t, ts, "/change-gear", `{"imei":"123456789012345","gear":9}`)
		require.Equal(t, http.StatusBadRequest, status)
		require.Contains(t, resp.Message, "gear out of range")
	})

	t.Run("toggle headlight", func(t *testing.T) {
		status, resp := post(t, ts, "/toggle-headlight", `{"imei":"123456789012345","state":true}`)
		require.Equal(t, http.StatusOK, status)
		require.True(t, resp.Success)
		require.Equal(t, "Headlight toggled successfully", resp.Message)
	})

	t.Run("change-headlight alias", func(t *testing.T) {
		status, resp := post(t, ts, "/change-headlight", `{"imei":"123456789012345","state":false}`)
		require.Equal(t, http.StatusOK, status)
		require.True(t, resp.Success)
	})

	t.Run("missing state", func(t *testing.T) {
		status, resp := post(t, ts, "/toggle-headlight", `{"imei":"123456789012345"}`)
		require.Equal(t, http.StatusBadRequest, status)
		require.Contains(t, resp.Message, "missing state")
	})

	t.Run("unknown scooter", func(t *testing.T) {
		status, resp := post(t, ts, "/unlock", `{"imei":"000000000000000"}`)
		require.Equal(t, http.StatusNotFound, status)
		require.False(t, resp.Success)
		require.Contains(t, resp.Message, "not found")
	})

	t.Run("bad body", func(t *testing.T) {
		status, resp := post(t, ts, "/unlock", `{"imei":`)
		require.Equal(t, http.StatusBadRequest, status)
		require.Contains(t, resp.Message, "invalid request body")
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/unlock")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}
