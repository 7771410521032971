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
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/intelcon-group/scootergw/scooter/protocol"
)

// PrometheusStats exposes the gateway counters via a prometheus registry
type PrometheusStats struct {
	registry *prometheus.Registry

	connections   prometheus.Counter
	registrations prometheus.Counter
	decodeErrors  prometheus.Counter
	ignored       prometheus.Counter
	sessions      prometheus.Gauge
	telemetry     *prometheus.CounterVec
	workflows     *prometheus.CounterVec
}

// NewPrometheusStats creates a new PrometheusStats with all collectors
// registered
func NewPrometheusStats() *PrometheusStats {
	s := &PrometheusStats{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scootergw_connections_total",
			Help: "Accepted device TCP connections",
		}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scootergw_registrations_total",
			Help: "Successful Q0 registrations",
		}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scootergw_decode_errors_total",
			Help: "Frames dropped due to decode errors",
		}),
		ignored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scootergw_ignored_frames_total",
			Help: "Well-formed frames discarded by workflows or the reader",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scootergw_sessions",
			Help: "Currently registered device sessions",
		}),
		telemetry: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scootergw_telemetry_total",
			Help: "Telemetry frames by command code",
		}, []string{"code"}),
		workflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scootergw_workflows_total",
			Help: "Operator workflow outcomes",
		}, []string{"workflow", "result"}),
	}
	s.registry.MustRegister(s.connections, s.registrations, s.decodeErrors, s.ignored, s.sessions, s.telemetry, s.workflows)
	return s
}

// Start runs the http server exposing the prometheus registry
func (s *PrometheusStats) Start(monitoringport int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	addr := fmt.Sprintf(":%d", monitoringport)
	log.Infof("Starting prometheus exporter on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Failed to start listener: %v", err)
	}
}

// Snapshot is a no-op, prometheus scrapes live values
func (s *PrometheusStats) Snapshot() {}

// Reset is a no-op, prometheus counters are cumulative
func (s *PrometheusStats) Reset() {}

// IncConnections atomically adds 1 to the accepted connections counter
func (s *PrometheusStats) IncConnections() {
	s.connections.Inc()
}

// IncRegistrations atomically adds 1 to the registrations counter
func (s *PrometheusStats) IncRegistrations() {
	s.registrations.Inc()
}

// IncTelemetry atomically adds 1 to the telemetry counter of a command code
func (s *PrometheusStats) IncTelemetry(c protocol.Code) {
	s.telemetry.WithLabelValues(string(c)).Inc()
}

// IncDecodeErrors atomically adds 1 to the decode errors counter
func (s *PrometheusStats) IncDecodeErrors() {
	s.decodeErrors.Inc()
}

// IncIgnored atomically adds 1 to the ignored frames counter
func (s *PrometheusStats) IncIgnored() {
	s.ignored.Inc()
}

// IncWorkflowSuccess atomically adds 1 to the success counter of a workflow
func (s *PrometheusStats) IncWorkflowSuccess(name string) {
	s.workflows.WithLabelValues(name, "success").Inc()
}

// IncWorkflowFailure atomically adds 1 to the failure counter of a workflow
func (s *PrometheusStats) IncWorkflowFailure(name string) {
	s.workflows.WithLabelValues(name, "failure").Inc()
}

// SetSessions atomically sets the number of registered sessions
func (s *PrometheusStats) SetSessions(n int64) {
	s.sessions.Set(float64(n))
}
