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
)

// Code is a command code carried in the fourth field of every frame
type Code string

// Command codes carried by scooter frames
const (
	CodeSignIn      Code = "Q0"
	CodeHeartbeat   Code = "H0"
	CodePositioning Code = "D0"
	CodeAlarm       Code = "W0"
	CodeBeep        Code = "V0"
	CodeKeyExchange Code = "R0"
	CodeUnlockAck   Code = "L0"
	CodeLockAck     Code = "L1"
	CodeSetting     Code = "S7"
)

func parseUint8Field(name, s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid %s field %q", name, s)
	}
	return uint8(v), nil
}

// Operation is the R0 key exchange operation
type Operation uint8

// R0 operations
const (
	OperationUnlock         Operation = 0
	OperationLock           Operation = 1
	OperationRFIDCardUnlock Operation = 2
	OperationRFIDCardLock   Operation = 3
)

// OperationToString is a map from Operation to string
var OperationToString = map[Operation]string{
	OperationUnlock:         "UNLOCK",
	OperationLock:           "LOCK",
	OperationRFIDCardUnlock: "RFID_CARD_UNLOCK",
	OperationRFIDCardLock:   "RFID_CARD_LOCK",
}

func (o Operation) String() string {
	return OperationToString[o]
}

// Wire returns the decimal form used on the wire
func (o Operation) Wire() string {
	return strconv.Itoa(int(o))
}

// ParseOperation decodes an R0 operation wire field
func ParseOperation(s string) (Operation, error) {
	v, err := parseUint8Field("operation", s)
	if err != nil {
		return 0, err
	}
	op := Operation(v)
	if _, ok := OperationToString[op]; !ok {
		return 0, fmt.Errorf("invalid operation %d", v)
	}
	return op, nil
}

// Status is the result code of unlock/lock confirmations
type Status uint8

// Confirmation statuses
const (
	StatusSuccess  Status = 0
	StatusFailure  Status = 1
	StatusKeyError Status = 2
)

// StatusToString is a map from Status to string
var StatusToString = map[Status]string{
	StatusSuccess:  "SUCCESS",
	StatusFailure:  "FAILURE",
	StatusKeyError: "KEY_ERROR",
}

func (s Status) String() string {
	return StatusToString[s]
}

// ParseStatus decodes a status wire field
func ParseStatus(s string) (Status, error) {
	v, err := parseUint8Field("status", s)
	if err != nil {
		return 0, err
	}
	st := Status(v)
	if _, ok := StatusToString[st]; !ok {
		return 0, fmt.Errorf("invalid status %d", v)
	}
	return st, nil
}

// LockState is the scooter lock status reported in heartbeats
type LockState uint8

// Lock states
const (
	LockStateUnlocked LockState = 0
	LockStateLocked   LockState = 1
)

// LockStateToString is a map from LockState to string
var LockStateToString = map[LockState]string{
	LockStateUnlocked: "UNLOCKED",
	LockStateLocked:   "LOCKED",
}

func (l LockState) String() string {
	return LockStateToString[l]
}

// ParseLockState decodes a scooter status wire field
func ParseLockState(s string) (LockState, error) {
	v, err := parseUint8Field("scooter status", s)
	if err != nil {
		return 0, err
	}
	l := LockState(v)
	if _, ok := LockStateToString[l]; !ok {
		return 0, fmt.Errorf("invalid scooter status %d", v)
	}
	return l, nil
}

// ChargingState is the charging indicator reported in heartbeats
type ChargingState uint8

// Charging states
const (
	ChargingStateUncharged ChargingState = 0
	ChargingStateCharging  ChargingState = 1
)

// ChargingStateToString is a map from ChargingState to string
var ChargingStateToString = map[ChargingState]string{
	ChargingStateUncharged: "UNCHARGED",
	ChargingStateCharging:  "CHARGING",
}

func (c ChargingState) String() string {
	return ChargingStateToString[c]
}

// ParseChargingState decodes a charging wire field
func ParseChargingState(s string) (ChargingState, error) {
	v, err := parseUint8Field("charging status", s)
	if err != nil {
		return 0, err
	}
	c := ChargingState(v)
	if _, ok := ChargingStateToString[c]; !ok {
		return 0, fmt.Errorf("invalid charging status %d", v)
	}
	return c, nil
}

// AlarmType is the W0 alarm code.
// Code 5 is absent from the vendor protocol, the gap is deliberate.
type AlarmType uint8

// Alarm types
const (
	AlarmIllegalMovement   AlarmType = 1
	AlarmFalling           AlarmType = 2
	AlarmIllegalRemoval    AlarmType = 3
	AlarmLowPower          AlarmType = 4
	AlarmLiftedUp          AlarmType = 6
	AlarmIllegalDemolition AlarmType = 7
)

// AlarmTypeToString is a map from AlarmType to string
var AlarmTypeToString = map[AlarmType]string{
	AlarmIllegalMovement:   "ILLEGAL_MOVEMENT",
	AlarmFalling:           "FALLING",
	AlarmIllegalRemoval:    "ILLEGAL_REMOVAL",
	AlarmLowPower:          "LOW_POWER",
	AlarmLiftedUp:          "LIFTED_UP",
	AlarmIllegalDemolition: "ILLEGAL_DEMOLITION",
}

func (a AlarmType) String() string {
	return AlarmTypeToString[a]
}

// ParseAlarmType decodes a W0 alarm type wire field
func ParseAlarmType(s string) (AlarmType, error) {
	v, err := parseUint8Field("alarm type", s)
	if err != nil {
		return 0, err
	}
	a := AlarmType(v)
	if _, ok := AlarmTypeToString[a]; !ok {
		return 0, fmt.Errorf("invalid alarm type %d", v)
	}
	return a, nil
}

// BeepContent is the V0 playback content
type BeepContent uint8

// Beep playback contents
const (
	BeepHold             BeepContent = 1
	BeepFindScooterAlert BeepContent = 2
	BeepTurnOffVoice     BeepContent = 80
	BeepTurnOnVoice      BeepContent = 81
)

// BeepContentToString is a map from BeepContent to string
var BeepContentToString = map[BeepContent]string{
	BeepHold:             "HOLD",
	BeepFindScooterAlert: "FIND_SCOOTER_ALERT",
	BeepTurnOffVoice:     "TURN_OFF_VOICE",
	BeepTurnOnVoice:      "TURN_ON_VOICE",
}

func (b BeepContent) String() string {
	return BeepContentToString[b]
}

// ParseBeepContent decodes a V0 play content wire field
func ParseBeepContent(s string) (BeepContent, error) {
	v, err := parseUint8Field("play content", s)
	if err != nil {
		return 0, err
	}
	b := BeepContent(v)
	if _, ok := BeepContentToString[b]; !ok {
		return 0, fmt.Errorf("invalid play content %d", v)
	}
	return b, nil
}

// SpeedMode is the S7 speed gear setting
type SpeedMode uint8

// Speed modes
const (
	SpeedModeDontSet SpeedMode = 0
	SpeedModeLow     SpeedMode = 1
	SpeedModeMedium  SpeedMode = 2
	SpeedModeHigh    SpeedMode = 3
)

// SpeedModeToString is a map from SpeedMode to string
var SpeedModeToString = map[SpeedMode]string{
	SpeedModeDontSet: "DONT_SET",
	SpeedModeLow:     "LOW",
	SpeedModeMedium:  "MEDIUM",
	SpeedModeHigh:    "HIGH",
}

func (m SpeedMode) String() string {
	return SpeedModeToString[m]
}

// Wire returns the decimal form used on the wire
func (m SpeedMode) Wire() string {
	return strconv.Itoa(int(m))
}

// Valid reports whether the value is a known speed mode
func (m SpeedMode) Valid() bool {
	_, ok := SpeedModeToString[m]
	return ok
}

// ParseSpeedMode decodes an S7 mode setting wire field
func ParseSpeedMode(s string) (SpeedMode, error) {
	v, err := parseUint8Field("mode setting", s)
	if err != nil {
		return 0, err
	}
	m := SpeedMode(v)
	if !m.Valid() {
		return 0, fmt.Errorf("invalid mode setting %d", v)
	}
	return m, nil
}

// Toggle is the three-state switch used by S7 for headlight,
// throttle and taillights
type Toggle uint8

// Toggle states
const (
	ToggleDontSet Toggle = 0
	ToggleOff     Toggle = 1
	ToggleOn      Toggle = 2
)

// ToggleToString is a map from Toggle to string
var ToggleToString = map[Toggle]string{
	ToggleDontSet: "DONT_SET",
	ToggleOff:     "OFF",
	ToggleOn:      "ON",
}

func (t Toggle) String() string {
	return ToggleToString[t]
}

// Wire returns the decimal form used on the wire
func (t Toggle) Wire() string {
	return strconv.Itoa(int(t))
}

// Valid reports whether the value is a known toggle state
func (t Toggle) Valid() bool {
	_, ok := ToggleToString[t]
	return ok
}

// ParseToggle decodes an S7 switch wire field
func ParseToggle(s string) (Toggle, error) {
	v, err := parseUint8Field("switch", s)
	if err != nil {
		return 0, err
	}
	t := Toggle(v)
	if !t.Valid() {
		return 0, fmt.Errorf("invalid switch value %d", v)
	}
	return t, nil
}

// PositioningIdentifier tells whether a D0 frame is a one-off fix or
// part of continuous tracking
type PositioningIdentifier uint8

// Positioning identifiers
const (
	ObtainPositioning PositioningIdentifier = 0
	PositionTracking  PositioningIdentifier = 1
)

// PositioningIdentifierToString is a map from PositioningIdentifier to string
var PositioningIdentifierToString = map[PositioningIdentifier]string{
	ObtainPositioning: "OBTAIN_POSITIONING",
	PositionTracking:  "POSITION_TRACKING",
}

func (p PositioningIdentifier) String() string {
	return PositioningIdentifierToString[p]
}

// ParsePositioningIdentifier decodes a D0 identifier wire field
func ParsePositioningIdentifier(s string) (PositioningIdentifier, error) {
	v, err := parseUint8Field("positioning identifier", s)
	if err != nil {
		return 0, err
	}
	p := PositioningIdentifier(v)
	if _, ok := PositioningIdentifierToString[p]; !ok {
		return 0, fmt.Errorf("invalid positioning identifier %d", v)
	}
	return p, nil
}

// PositioningStatus is the GPS fix validity flag of a D0 frame
type PositioningStatus byte

// Positioning statuses
const (
	PositioningEffective PositioningStatus = 'A'
	PositioningInvalid   PositioningStatus = 'V'
)

// PositioningStatusToString is a map from PositioningStatus to string
var PositioningStatusToString = map[PositioningStatus]string{
	PositioningEffective: "EFFECTIVE",
	PositioningInvalid:   "INVALID",
}

func (p PositioningStatus) String() string {
	return PositioningStatusToString[p]
}

// ParsePositioningStatus decodes a D0 status wire field
func ParsePositioningStatus(s string) (PositioningStatus, error) {
	if len(s) != 1 {
		return 0, fmt.Errorf("invalid positioning status %q", s)
	}
	p := PositioningStatus(s[0])
	if _, ok := PositioningStatusToString[p]; !ok {
		return 0, fmt.Errorf("invalid positioning status %q", s)
	}
	return p, nil
}

// Hemisphere is the N/S/E/W indicator adjacent to a coordinate
type Hemisphere byte

// Hemispheres
const (
	HemisphereNorth Hemisphere = 'N'
	HemisphereSouth Hemisphere = 'S'
	HemisphereEast  Hemisphere = 'E'
	HemisphereWest  Hemisphere = 'W'
)

// HemisphereToString is a map from Hemisphere to string
var HemisphereToString = map[Hemisphere]string{
	HemisphereNorth: "N",
	HemisphereSouth: "S",
	HemisphereEast:  "E",
	HemisphereWest:  "W",
}

func (h Hemisphere) String() string {
	return HemisphereToString[h]
}

// Latitudinal reports whether the hemisphere may qualify a latitude
func (h Hemisphere) Latitudinal() bool {
	return h == HemisphereNorth || h == HemisphereSouth
}

// Longitudinal reports whether the hemisphere may qualify a longitude
func (h Hemisphere) Longitudinal() bool {
	return h == HemisphereEast || h == HemisphereWest
}

// ParseHemisphere decodes a hemisphere wire field
func ParseHemisphere(s string) (Hemisphere, error) {
	if len(s) != 1 {
		return 0, fmt.Errorf("invalid hemisphere %q, expected one of: N, S, E, W", s)
	}
	h := Hemisphere(s[0])
	if _, ok := HemisphereToString[h]; !ok {
		return 0, fmt.Errorf("invalid hemisphere %q, expected one of: N, S, E, W", s)
	}
	return h, nil
}

// GPSMode is the GPS receiver operating mode of a D0 frame
type GPSMode byte

// GPS modes
const (
	GPSModeAutonomous   GPSMode = 'A'
	GPSModeDifferential GPSMode = 'D'
	GPSModeEstimate     GPSMode = 'E'
	GPSModeInvalidData  GPSMode = 'N'
)

// GPSModeToString is a map from GPSMode to string
var GPSModeToString = map[GPSMode]string{
	GPSModeAutonomous:   "AUTONOMOUS",
	GPSModeDifferential: "DIFFERENTIAL",
	GPSModeEstimate:     "ESTIMATE",
	GPSModeInvalidData:  "INVALID_DATA",
}

func (m GPSMode) String() string {
	return GPSModeToString[m]
}

// ParseGPSMode decodes a D0 mode wire field
func ParseGPSMode(s string) (GPSMode, error) {
	if len(s) != 1 {
		return 0, fmt.Errorf("invalid mode %q", s)
	}
	m := GPSMode(s[0])
	if _, ok := GPSModeToString[m]; !ok {
		return 0, fmt.Errorf("invalid mode %q", s)
	}
	return m, nil
}
