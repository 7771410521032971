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
	log "github.com/sirupsen/logrus"

	"github.com/intelcon-group/scootergw/scooter/protocol"
)

// TelemetryHandler consumes decoded telemetry frames
type TelemetryHandler interface {
	Handle(cmd protocol.Command)
}

// TelemetryLogger logs every telemetry frame. Restarts drop device
// state, so this is the only downstream consumer the gateway ships.
type TelemetryLogger struct{}

// Handle implements TelemetryHandler
func (t *TelemetryLogger) Handle(cmd protocol.Command) {
	switch c := cmd.(type) {
	case *protocol.SignIn:
		log.Infof("Sign-in from %s: battery %.2fV, power %d%%, signal %d", c.IMEI, c.Voltage, c.Power, c.Signal)
	case *protocol.Heartbeat:
		log.Infof("Heartbeat from %s: %s, battery %.2fV, power %d%%, signal %d, %s",
			c.IMEI, c.Status, c.Voltage, c.Power, c.Signal, c.Charging)
	case *protocol.Positioning:
		log.Infof("Position report: %s", c.Summary())
	case *protocol.Alarm:
		log.Warningf("Alarm from %s: %s", c.IMEI, c.Type)
	case *protocol.Beep:
		log.Infof("Beep playback from %s: %s", c.IMEI, c.Content)
	default:
		log.Debugf("Unhandled telemetry %s", cmd.CommandCode())
	}
}
