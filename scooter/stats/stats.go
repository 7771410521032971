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
Package stats implements statistics collection and reporting.
It is used by the gateway to report internal statistics, such as the
number of connections, registrations, telemetry frames and workflow
outcomes.
*/
package stats

import (
	"sync"

	"github.com/intelcon-group/scootergw/scooter/protocol"
)

// Workflow names used as counter keys
const (
	WorkflowUnlock          = "unlock"
	WorkflowLock            = "lock"
	WorkflowChangeGear      = "change_gear"
	WorkflowToggleHeadlight = "toggle_headlight"
)

// Stats is a metric collection interface
type Stats interface {
	// Start starts a stat reporter on the monitoring port.
	// Use this for passive reporters
	Start(monitoringport int)

	// Snapshot the values so they can be reported atomically
	Snapshot()

	// Reset atomically sets all the counters to 0
	Reset()

	// IncConnections atomically adds 1 to the accepted connections counter
	IncConnections()

	// IncRegistrations atomically adds 1 to the registrations counter
	IncRegistrations()

	// IncTelemetry atomically adds 1 to the telemetry counter of a command code
	IncTelemetry(c protocol.Code)

	// IncDecodeErrors atomically adds 1 to the decode errors counter
	IncDecodeErrors()

	// IncIgnored atomically adds 1 to the ignored frames counter
	IncIgnored()

	// IncWorkflowSuccess atomically adds 1 to the success counter of a workflow
	IncWorkflowSuccess(name string)

	// IncWorkflowFailure atomically adds 1 to the failure counter of a workflow
	IncWorkflowFailure(name string)

	// SetSessions atomically sets the number of registered sessions
	SetSessions(n int64)
}

// syncMapInt64 sync map of string counters
type syncMapInt64 struct {
	sync.Mutex
	m map[string]int64
}

// init initializes the underlying map
func (s *syncMapInt64) init() {
	s.m = make(map[string]int64)
}

// keys returns slice of keys of the underlying map
func (s *syncMapInt64) keys() []string {
	s.Lock()
	defer s.Unlock()
	keys := make([]string, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	return keys
}

// load gets the value by the key
func (s *syncMapInt64) load(key string) int64 {
	s.Lock()
	defer s.Unlock()
	return s.m[key]
}

// inc increments the counter for the given key
func (s *syncMapInt64) inc(key string) {
	s.Lock()
	s.m[key]++
	s.Unlock()
}

// store saves the value with the key
func (s *syncMapInt64) store(key string, value int64) {
	s.Lock()
	s.m[key] = value
	s.Unlock()
}

// copy all key-values between maps
func (s *syncMapInt64) copy(dst *syncMapInt64) {
	for _, t := range s.keys() {
		dst.store(t, s.load(t))
	}
}

// reset stats to 0
func (s *syncMapInt64) reset() {
	s.Lock()
	for t := range s.m {
		s.m[t] = 0
	}
	s.Unlock()
}

type counters struct {
	connections   int64
	registrations int64
	decodeErrors  int64
	ignored       int64
	sessions      int64
	telemetry     syncMapInt64
	workflowOK    syncMapInt64
	workflowFail  syncMapInt64
}

func (c *counters) init() {
	c.telemetry.init()
	c.workflowOK.init()
	c.workflowFail.init()
}

func (c *counters) reset() {
	c.telemetry.reset()
	c.workflowOK.reset()
	c.workflowFail.reset()
}

// toMap converts counters to a flat map
func (c *counters) toMap() map[string]int64 {
	res := map[string]int64{
		"connections":   c.connections,
		"registrations": c.registrations,
		"decode_errors": c.decodeErrors,
		"ignored":       c.ignored,
		"sessions":      c.sessions,
	}
	for _, k := range c.telemetry.keys() {
		res["telemetry."+k] = c.telemetry.load(k)
	}
	for _, k := range c.workflowOK.keys() {
		res["workflow."+k+".success"] = c.workflowOK.load(k)
	}
	for _, k := range c.workflowFail.keys() {
		res["workflow."+k+".failure"] = c.workflowFail.load(k)
	}
	return res
}
