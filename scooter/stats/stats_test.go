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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/intelcon-group/scootergw/scooter/protocol"
)

func populate(s Stats) {
	s.IncConnections()
	s.IncConnections()
	s.IncRegistrations()
	s.IncTelemetry(protocol.CodeHeartbeat)
	s.IncTelemetry(protocol.CodeHeartbeat)
	s.IncTelemetry(protocol.CodePositioning)
	s.IncDecodeErrors()
	s.IncIgnored()
	s.IncWorkflowSuccess(WorkflowUnlock)
	s.IncWorkflowFailure(WorkflowLock)
	s.SetSessions(3)
}

func TestJSONStatsReport(t *testing.T) {
	s := NewJSONStats()
	populate(s)
	s.Snapshot()

	require.Equal(t, map[string]int64{
		"connections":             2,
		"registrations":           1,
		"decode_errors":           1,
		"ignored":                 1,
		"sessions":                3,
		"telemetry.H0":            2,
		"telemetry.D0":            1,
		"workflow.unlock.success": 1,
		"workflow.lock.failure":   1,
	}, s.report.toMap())
}

func TestJSONStatsReset(t *testing.T) {
	s := NewJSONStats()
	populate(s)
	s.Reset()
	s.Snapshot()

	for k, v := range s.report.toMap() {
		require.Zero(t, v, "counter %s must reset to 0", k)
	}
}

func TestJSONStatsHandler(t *testing.T) {
	s := NewJSONStats()
	populate(s)
	s.Snapshot()

	rec := httptest.NewRecorder()
	s.handleRequest(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	got := map[string]int64{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, int64(2), got["connections"])
	require.Equal(t, int64(2), got["telemetry.H0"])
	require.Equal(t, int64(1), got["workflow.unlock.success"])
}

func TestPrometheusStats(t *testing.T) {
	s := NewPrometheusStats()
	populate(s)

	require.InDelta(t, 2, testutil.ToFloat64(s.connections), 0.001)
	require.InDelta(t, 1, testutil.ToFloat64(s.registrations), 0.001)
	require.InDelta(t, 1, testutil.ToFloat64(s.decodeErrors), 0.001)
	require.InDelta(t, 1, testutil.ToFloat64(s.ignored), 0.001)
	require.InDelta(t, 3, testutil.ToFloat64(s.sessions), 0.001)
	require.InDelta(t, 2, testutil.ToFloat64(s.telemetry.WithLabelValues("H0")), 0.001)
	require.InDelta(t, 1, testutil.ToFloat64(s.workflows.WithLabelValues(WorkflowUnlock, "success")), 0.001)
	require.InDelta(t, 1, testutil.ToFloat64(s.workflows.WithLabelValues(WorkflowLock, "failure")), 0.001)
	require.Zero(t, testutil.ToFloat64(s.workflows.WithLabelValues(WorkflowChangeGear, "success")))
}
