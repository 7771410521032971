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

package protocol

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Command is a decoded device-to-gateway frame. Handlers switch on the
// concrete variant; decoding is all-or-nothing, a frame either produces
// a fully populated variant or an error.
type Command interface {
	CommandCode() Code
}

// SignIn is the Q0 registration heartbeat, the first frame on every
// connection
type SignIn struct {
	IMEI    string
	Voltage float64 // volts
	Power   uint8   // percent
	Signal  uint8
}

// CommandCode implements Command
func (*SignIn) CommandCode() Code { return CodeSignIn }

// Heartbeat is the periodic H0 status report
type Heartbeat struct {
	IMEI     string
	Status   LockState
	Voltage  float64 // volts
	Signal   uint8
	Power    uint8 // percent
	Charging ChargingState
}

// CommandCode implements Command
func (*Heartbeat) CommandCode() Code { return CodeHeartbeat }

// Positioning is the D0 GPS report. Latitude and Longitude are WGS84
// decimal degrees, negative for the southern and western hemispheres.
type Positioning struct {
	IMEI                string
	Identifier          PositioningIdentifier
	Timestamp           time.Time
	Status              PositioningStatus
	Latitude            float64
	LatitudeHemisphere  Hemisphere
	Longitude           float64
	LongitudeHemisphere Hemisphere
	Satellites          uint8
	Accuracy            float64
	Altitude            float64 // meters
	Mode                GPSMode
}

// CommandCode implements Command
func (*Positioning) CommandCode() Code { return CodePositioning }

// Summary renders a one-line human readable position report
func (p *Positioning) Summary() string {
	return fmt.Sprintf("IMEI: %s, WGS84 coordinates: (lat: %.5f, lon: %.5f), altitude: %.1fm, status: %s, mode: %s",
		p.IMEI, p.Latitude, p.Longitude, p.Altitude, p.Status, p.Mode)
}

// Alarm is the W0 alarm report
type Alarm struct {
	IMEI string
	Type AlarmType
}

// CommandCode implements Command
func (*Alarm) CommandCode() Code { return CodeAlarm }

// Beep is the V0 playback report
type Beep struct {
	IMEI    string
	Content BeepContent
}

// CommandCode implements Command
func (*Beep) CommandCode() Code { return CodeBeep }

// KeyExchange is the inbound R0 challenge response carrying the
// one-time key
type KeyExchange struct {
	IMEI      string
	Operation Operation
	Key       uint8
	UserID    string
	Timestamp string
}

// CommandCode implements Command
func (*KeyExchange) CommandCode() Code { return CodeKeyExchange }

// UnlockAck is the inbound L0 unlock confirmation
type UnlockAck struct {
	IMEI      string
	Status    Status
	UserID    string
	Timestamp string
}

// CommandCode implements Command
func (*UnlockAck) CommandCode() Code { return CodeUnlockAck }

// LockAck is the inbound L1 lock confirmation
type LockAck struct {
	IMEI        string
	Status      Status
	UserID      string
	Timestamp   string
	CyclingTime uint32 // seconds
}

// CommandCode implements Command
func (*LockAck) CommandCode() Code { return CodeLockAck }

// Setting is the inbound S7 setting echo
type Setting struct {
	IMEI       string
	Headlight  Toggle
	Mode       SpeedMode
	Throttle   Toggle
	Taillights Toggle
}

// CommandCode implements Command
func (*Setting) CommandCode() Code { return CodeSetting }

// DecodeCommand interprets split frame fields (header included) as a
// typed command
func DecodeCommand(parts []string) (Command, error) {
	if len(parts) < 5 {
		return nil, fmt.Errorf("invalid command format: insufficient fields")
	}
	imei := parts[2]
	code := Code(parts[3])

	switch code {
	case CodeSignIn:
		return decodeSignIn(imei, parts)
	case CodeHeartbeat:
		return decodeHeartbeat(imei, parts)
	case CodePositioning:
		return decodePositioning(imei, parts)
	case CodeAlarm:
		alarmType, err := ParseAlarmType(parts[4])
		if err != nil {
			return nil, err
		}
		return &Alarm{IMEI: imei, Type: alarmType}, nil
	case CodeBeep:
		content, err := ParseBeepContent(parts[4])
		if err != nil {
			return nil, err
		}
		return &Beep{IMEI: imei, Content: content}, nil
	case CodeKeyExchange:
		return decodeKeyExchange(imei, parts)
	case CodeUnlockAck:
		return decodeUnlockAck(imei, parts)
	case CodeLockAck:
		return decodeLockAck(imei, parts)
	case CodeSetting:
		return decodeSetting(imei, parts)
	default:
		return nil, fmt.Errorf("unknown command: %q", parts[3])
	}
}

func decodeSignIn(imei string, parts []string) (*SignIn, error) {
	if len(parts) != 7 {
		return nil, fmt.Errorf("invalid Q0 command: expected 7 fields, got %d", len(parts))
	}
	rawVoltage, err := strconv.ParseFloat(parts[4], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid voltage %q", parts[4])
	}
	power, err := parseUint8Field("power", parts[5])
	if err != nil {
		return nil, err
	}
	signal, err := parseUint8Field("signal", parts[6])
	if err != nil {
		return nil, err
	}
	return &SignIn{IMEI: imei, Voltage: rawVoltage / 100, Power: power, Signal: signal}, nil
}

func decodeHeartbeat(imei string, parts []string) (*Heartbeat, error) {
	if len(parts) != 9 {
		return nil, fmt.Errorf("invalid H0 command: expected 9 fields, got %d", len(parts))
	}
	status, err := ParseLockState(parts[4])
	if err != nil {
		return nil, err
	}
	rawVoltage, err := strconv.ParseFloat(parts[5], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid voltage %q", parts[5])
	}
	signal, err := parseUint8Field("signal", parts[6])
	if err != nil {
		return nil, err
	}
	power, err := parseUint8Field("power", parts[7])
	if err != nil {
		return nil, err
	}
	charging, err := ParseChargingState(parts[8])
	if err != nil {
		return nil, err
	}
	return &Heartbeat{
		IMEI:     imei,
		Status:   status,
		Voltage:  rawVoltage / 100,
		Signal:   signal,
		Power:    power,
		Charging: charging,
	}, nil
}

func decodePositioning(imei string, parts []string) (*Positioning, error) {
	if len(parts) < 17 {
		return nil, fmt.Errorf("invalid D0 command: expected 17 fields, got %d", len(parts))
	}
	identifier, err := ParsePositioningIdentifier(parts[4])
	if err != nil {
		return nil, err
	}
	// UTC time and date may carry a fractional tail
	utcTime, _, _ := strings.Cut(parts[5], ".")
	status, err := ParsePositioningStatus(parts[6])
	if err != nil {
		return nil, err
	}
	latHemisphere, err := ParseHemisphere(parts[8])
	if err != nil {
		return nil, err
	}
	if !latHemisphere.Latitudinal() {
		return nil, fmt.Errorf("invalid hemisphere %q for latitude", parts[8])
	}
	latitude, err := ParseCoordinate(parts[7], parts[8])
	if err != nil {
		return nil, err
	}
	lonHemisphere, err := ParseHemisphere(parts[10])
	if err != nil {
		return nil, err
	}
	if !lonHemisphere.Longitudinal() {
		return nil, fmt.Errorf("invalid hemisphere %q for longitude", parts[10])
	}
	longitude, err := ParseCoordinate(parts[9], parts[10])
	if err != nil {
		return nil, err
	}
	satellites, err := parseUint8Field("satellites number", parts[11])
	if err != nil {
		return nil, err
	}
	accuracy, err := strconv.ParseFloat(parts[12], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid positioning accuracy %q", parts[12])
	}
	utcDate, _, _ := strings.Cut(parts[13], ".")
	timestamp, err := ParseDateTime(utcTime, utcDate)
	if err != nil {
		return nil, err
	}
	altitude, err := strconv.ParseFloat(parts[14], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid altitude %q", parts[14])
	}
	if parts[15] != "M" {
		return nil, fmt.Errorf("invalid height unit: %q", parts[15])
	}
	mode, err := ParseGPSMode(parts[16])
	if err != nil {
		return nil, err
	}
	return &Positioning{
		IMEI:                imei,
		Identifier:          identifier,
		Timestamp:           timestamp,
		Status:              status,
		Latitude:            latitude,
		LatitudeHemisphere:  latHemisphere,
		Longitude:           longitude,
		LongitudeHemisphere: lonHemisphere,
		Satellites:          satellites,
		Accuracy:            accuracy,
		Altitude:            altitude,
		Mode:                mode,
	}, nil
}

func decodeKeyExchange(imei string, parts []string) (*KeyExchange, error) {
	if len(parts) < 8 {
		return nil, fmt.Errorf("invalid R0 command: expected 8 fields, got %d", len(parts))
	}
	op, err := ParseOperation(parts[4])
	if err != nil {
		return nil, err
	}
	key, err := parseUint8Field("key", parts[5])
	if err != nil {
		return nil, err
	}
	return &KeyExchange{
		IMEI:      imei,
		Operation: op,
		Key:       key,
		UserID:    parts[6],
		Timestamp: parts[7],
	}, nil
}

func decodeUnlockAck(imei string, parts []string) (*UnlockAck, error) {
	if len(parts) < 7 {
		return nil, fmt.Errorf("invalid L0 command: expected 7 fields, got %d", len(parts))
	}
	status, err := ParseStatus(parts[4])
	if err != nil {
		return nil, err
	}
	return &UnlockAck{IMEI: imei, Status: status, UserID: parts[5], Timestamp: parts[6]}, nil
}

func decodeLockAck(imei string, parts []string) (*LockAck, error) {
	if len(parts) < 8 {
		return nil, fmt.Errorf("invalid L1 command: expected 8 fields, got %d", len(parts))
	}
	status, err := ParseStatus(parts[4])
	if err != nil {
		return nil, err
	}
	cyclingTime, err := strconv.ParseUint(parts[7], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid cycling time %q", parts[7])
	}
	return &LockAck{
		IMEI:        imei,
		Status:      status,
		UserID:      parts[5],
		Timestamp:   parts[6],
		CyclingTime: uint32(cyclingTime),
	}, nil
}

func decodeSetting(imei string, parts []string) (*Setting, error) {
	if len(parts) < 8 {
		return nil, fmt.Errorf("invalid S7 command: expected 8 fields, got %d", len(parts))
	}
	headlight, err := ParseToggle(parts[4])
	if err != nil {
		return nil, err
	}
	mode, err := ParseSpeedMode(parts[5])
	if err != nil {
		return nil, err
	}
	throttle, err := ParseToggle(parts[6])
	if err != nil {
		return nil, err
	}
	taillights, err := ParseToggle(parts[7])
	if err != nil {
		return nil, err
	}
	return &Setting{
		IMEI:       imei,
		Headlight:  headlight,
		Mode:       mode,
		Throttle:   throttle,
		Taillights: taillights,
	}, nil
}
