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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testIMEI = "123456789012345"

func TestDecodeSignIn(t *testing.T) {
	cmd, err := Decode("*SCOR,LZ,123456789012345,Q0,3987,98,31#\n", "LZ")
	require.NoError(t, err)
	require.Equal(t, &SignIn{
		IMEI:    testIMEI,
		Voltage: 39.87,
		Power:   98,
		Signal:  31,
	}, cmd)
	require.Equal(t, CodeSignIn, cmd.CommandCode())

	// field count is strict
	_, err = Decode("*SCOR,LZ,123456789012345,Q0,3987,98#\n", "LZ")
	require.ErrorContains(t, err, "expected 7 fields")
	_, err = Decode("*SCOR,LZ,123456789012345,Q0,3987,98,31,0#\n", "LZ")
	require.ErrorContains(t, err, "expected 7 fields")

	_, err = Decode("*SCOR,LZ,123456789012345,Q0,volts,98,31#\n", "LZ")
	require.ErrorContains(t, err, "invalid voltage")
}

func TestDecodeHeartbeat(t *testing.T) {
	cmd, err := Decode("*SCOR,LZ,123456789012345,H0,0,3780,22,78,1#\n", "LZ")
	require.NoError(t, err)
	require.Equal(t, &Heartbeat{
		IMEI:     testIMEI,
		Status:   LockStateUnlocked,
		Voltage:  37.80,
		Signal:   22,
		Power:    78,
		Charging: ChargingStateCharging,
	}, cmd)

	_, err = Decode("*SCOR,LZ,123456789012345,H0,2,3780,22,78,1#\n", "LZ")
	require.ErrorContains(t, err, "invalid scooter status")

	_, err = Decode("*SCOR,LZ,123456789012345,H0,0,3780,22,78#\n", "LZ")
	require.ErrorContains(t, err, "expected 9 fields")
}

func TestDecodePositioning(t *testing.T) {
	raw := "*SCOR,LZ,123456789012345,D0,1,123045.00,A,2237.7514,N,11408.6214,E,06,2.5,151216.00,75.0,M,A#\n"
	cmd, err := Decode(raw, "LZ")
	require.NoError(t, err)
	p, ok := cmd.(*Positioning)
	require.True(t, ok)

	require.Equal(t, testIMEI, p.IMEI)
	require.Equal(t, PositionTracking, p.Identifier)
	require.Equal(t, time.Date(2016, time.December, 15, 12, 30, 45, 0, time.UTC), p.Timestamp)
	require.Equal(t, PositioningEffective, p.Status)
	require.InDelta(t, 22.62919, p.Latitude, 1e-5)
	require.Equal(t, HemisphereNorth, p.LatitudeHemisphere)
	require.InDelta(t, 114.14369, p.Longitude, 1e-5)
	require.Equal(t, HemisphereEast, p.LongitudeHemisphere)
	require.Equal(t, uint8(6), p.Satellites)
	require.InDelta(t, 2.5, p.Accuracy, 1e-9)
	require.InDelta(t, 75.0, p.Altitude, 1e-9)
	require.Equal(t, GPSModeAutonomous, p.Mode)
	require.Contains(t, p.Summary(), testIMEI)
}

func TestDecodePositioningErrors(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "swapped hemispheres",
			raw:  "*SCOR,LZ,123456789012345,D0,1,123045.00,A,2237.7514,E,11408.6214,N,06,2.5,151216.00,75.0,M,A#\n",
			want: "for latitude",
		},
		{
			name: "west latitude",
			raw:  "*SCOR,LZ,123456789012345,D0,1,123045.00,A,2237.7514,W,11408.6214,E,06,2.5,151216.00,75.0,M,A#\n",
			want: "for latitude",
		},
		{
			name: "north longitude",
			raw:  "*SCOR,LZ,123456789012345,D0,1,123045.00,A,2237.7514,N,11408.6214,S,06,2.5,151216.00,75.0,M,A#\n",
			want: "for longitude",
		},
		{
			name: "truncated date",
			raw:  "*SCOR,LZ,123456789012345,D0,1,123045.00,A,2237.7514,N,11408.6214,E,06,2.5,1512,75.0,M,A#\n",
			want: "invalid date format",
		},
		{
			name: "time out of range",
			raw:  "*SCOR,LZ,123456789012345,D0,1,250045.00,A,2237.7514,N,11408.6214,E,06,2.5,151216.00,75.0,M,A#\n",
			want: "out of range",
		},
		{
			name: "bad height unit",
			raw:  "*SCOR,LZ,123456789012345,D0,1,123045.00,A,2237.7514,N,11408.6214,E,06,2.5,151216.00,75.0,F,A#\n",
			want: "invalid height unit",
		},
		{
			name: "bad fix status",
			raw:  "*SCOR,LZ,123456789012345,D0,1,123045.00,X,2237.7514,N,11408.6214,E,06,2.5,151216.00,75.0,M,A#\n",
			want: "invalid positioning status",
		},
		{
			name: "too few fields",
			raw:  "*SCOR,LZ,123456789012345,D0,1,123045.00,A,2237.7514,N#\n",
			want: "expected 17 fields",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.raw, "LZ")
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestDecodeAlarm(t *testing.T) {
	cmd, err := Decode("*SCOR,LZ,123456789012345,W0,4#\n", "LZ")
	require.NoError(t, err)
	require.Equal(t, &Alarm{IMEI: testIMEI, Type: AlarmLowPower}, cmd)

	// code 5 is a hole in the alarm table
	_, err = Decode("*SCOR,LZ,123456789012345,W0,5#\n", "LZ")
	require.ErrorContains(t, err, "invalid alarm type")

	_, err = Decode("*SCOR,LZ,123456789012345,W0,0#\n", "LZ")
	require.ErrorContains(t, err, "invalid alarm type")

	cmd, err = Decode("*SCOR,LZ,123456789012345,W0,7#\n", "LZ")
	require.NoError(t, err)
	require.Equal(t, &Alarm{IMEI: testIMEI, Type: AlarmIllegalDemolition}, cmd)
}

func TestDecodeBeep(t *testing.T) {
	cmd, err := Decode("*SCOR,LZ,123456789012345,V0,80#\n", "LZ")
	require.NoError(t, err)
	require.Equal(t, &Beep{IMEI: testIMEI, Content: BeepTurnOffVoice}, cmd)

	_, err = Decode("*SCOR,LZ,123456789012345,V0,3#\n", "LZ")
	require.ErrorContains(t, err, "invalid play content")
}

func TestDecodeKeyExchange(t *testing.T) {
	cmd, err := Decode("*SCOR,LZ,123456789012345,R0,0,55,1234,1497689816#\n", "LZ")
	require.NoError(t, err)
	require.Equal(t, &KeyExchange{
		IMEI:      testIMEI,
		Operation: OperationUnlock,
		Key:       55,
		UserID:    "1234",
		Timestamp: "1497689816",
	}, cmd)

	_, err = Decode("*SCOR,LZ,123456789012345,R0,9,55,1234,1497689816#\n", "LZ")
	require.ErrorContains(t, err, "invalid operation")

	_, err = Decode("*SCOR,LZ,123456789012345,R0,0,300,1234,1497689816#\n", "LZ")
	require.ErrorContains(t, err, "invalid key")
}

func TestDecodeUnlockAck(t *testing.T) {
	cmd, err := Decode("*SCOR,LZ,123456789012345,L0,0,1234,1497689819#\n", "LZ")
	require.NoError(t, err)
	require.Equal(t, &UnlockAck{
		IMEI:      testIMEI,
		Status:    StatusSuccess,
		UserID:    "1234",
		Timestamp: "1497689819",
	}, cmd)

	_, err = Decode("*SCOR,LZ,123456789012345,L0,3,1234,1497689819#\n", "LZ")
	require.ErrorContains(t, err, "invalid status")
}

func TestDecodeLockAck(t *testing.T) {
	cmd, err := Decode("*SCOR,LZ,123456789012345,L1,0,1234,1497690222,87#\n", "LZ")
	require.NoError(t, err)
	require.Equal(t, &LockAck{
		IMEI:        testIMEI,
		Status:      StatusSuccess,
		UserID:      "1234",
		Timestamp:   "1497690222",
		CyclingTime: 87,
	}, cmd)

	_, err = Decode("*SCOR,LZ,123456789012345,L1,0,1234,1497690222,forever#\n", "LZ")
	require.ErrorContains(t, err, "invalid cycling time")
}

func TestDecodeSetting(t *testing.T) {
	cmd, err := Decode("*SCOR,LZ,123456789012345,S7,2,1,0,0#\n", "LZ")
	require.NoError(t, err)
	require.Equal(t, &Setting{
		IMEI:       testIMEI,
		Headlight:  ToggleOn,
		Mode:       SpeedModeLow,
		Throttle:   ToggleDontSet,
		Taillights: ToggleDontSet,
	}, cmd)

	_, err = Decode("*SCOR,LZ,123456789012345,S7,5,1,0,0#\n", "LZ")
	require.ErrorContains(t, err, "invalid switch")

	_, err = Decode("*SCOR,LZ,123456789012345,S7,2,4,0,0#\n", "LZ")
	require.ErrorContains(t, err, "invalid mode setting")
}

func TestDecodeUnknownCode(t *testing.T) {
	_, err := Decode("*SCOR,LZ,123456789012345,Z9,1#\n", "LZ")
	require.ErrorContains(t, err, "unknown command")
}

func TestDecodeCommandInsufficientFields(t *testing.T) {
	_, err := DecodeCommand([]string{"*SCOR", "LZ", testIMEI, "W0"})
	require.ErrorContains(t, err, "insufficient fields")
}
