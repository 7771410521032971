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
Package simulator implements a scripted scooter: it signs in with Q0,
emits heartbeats, and answers the gateway's R0/L0/L1/S7 exchanges the
way the real firmware does. The scootsim command and the end-to-end
tests run fleets of these against a gateway.
*/
package simulator

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/intelcon-group/scootergw/scooter/protocol"
)

// Config describes one simulated scooter
type Config struct {
	// Addr is the gateway device listener to dial
	Addr string
	// Vendor tag to stamp on every frame
	Vendor string
	// IMEI of the simulated device
	IMEI string
	// HeartbeatInterval between H0 frames, 0 disables heartbeats
	HeartbeatInterval time.Duration
	// Key returned in R0 exchanges, 0 picks a random one per exchange
	Key uint8
	// TelemetryBurst is the number of H0 frames injected before every
	// R0 reply, to exercise the gateway's discard path
	TelemetryBurst int
	// EmitPositions makes every heartbeat carry a D0 position report
	EmitPositions bool
}

// Simulator is a scripted scooter endpoint
type Simulator struct {
	cfg Config

	locked     bool
	key        string
	userID     string
	unlockedAt int64
}

// New returns a locked scooter with the config
func New(cfg Config) *Simulator {
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	return &Simulator{cfg: cfg, locked: true}
}

// Run dials the gateway and drives the device side of the protocol
// until the context is done or the connection drops
func (s *Simulator) Run(ctx context.Context) error {
	conn, err := net.Dial("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	return s.RunConn(ctx, conn)
}

// RunConn drives the device side of the protocol over an established
// connection. Split out so tests can run a simulator over a pipe.
func (s *Simulator) RunConn(ctx context.Context, conn net.Conn) error {
	if err := s.send(conn, protocol.EncodeUplink(s.cfg.Vendor, s.cfg.IMEI, protocol.CodeSignIn, "3987", "98", "31")); err != nil {
		return err
	}
	log.Infof("Scooter %s signed in", s.cfg.IMEI)

	r := bufio.NewReaderSize(conn, protocol.MaxFrameSize)
	var pending []byte
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.HeartbeatInterval)); err != nil {
			return err
		}
		line, err := r.ReadString('\n')
		pending = append(pending, line...)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				if err := s.sendHeartbeat(conn); err != nil {
					return err
				}
				if s.cfg.EmitPositions {
					if err := s.sendPosition(conn); err != nil {
						return err
					}
				}
				continue
			}
			return err
		}
		frame := string(pending)
		pending = pending[:0]
		if err := s.handle(conn, frame); err != nil {
			return err
		}
	}
}

func (s *Simulator) send(conn net.Conn, frame string) error {
	if err := conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return err
	}
	_, err := conn.Write([]byte(frame))
	return err
}

func (s *Simulator) sendHeartbeat(conn net.Conn) error {
	status := "0"
	if s.locked {
		status = "1"
	}
	return s.send(conn, protocol.EncodeUplink(s.cfg.Vendor, s.cfg.IMEI, protocol.CodeHeartbeat, status, "3780", "22", "78", "0"))
}

// sendPosition reports a fixed GPS fix stamped with the current UTC time
func (s *Simulator) sendPosition(conn net.Conn) error {
	now := time.Now().UTC()
	return s.send(conn, protocol.EncodeUplink(s.cfg.Vendor, s.cfg.IMEI, protocol.CodePositioning,
		"1", now.Format("150405")+".00", "A",
		"2237.7514", "N", "11408.6214", "E",
		"06", "2.5", now.Format("020106"), "75.0", "M", "A"))
}

// handle answers one gateway frame
func (s *Simulator) handle(conn net.Conn, raw string) error {
	imei, code, fields, err := protocol.DecodeDownlink(raw, s.cfg.Vendor)
	if err != nil {
		log.Debugf("Scooter %s ignoring frame %q: %v", s.cfg.IMEI, raw, err)
		return nil
	}
	if imei != s.cfg.IMEI {
		log.Debugf("Scooter %s ignoring frame for %s", s.cfg.IMEI, imei)
		return nil
	}

	switch code {
	case protocol.CodeKeyExchange:
		return s.handleKeyExchange(conn, fields)
	case protocol.CodeUnlockAck:
		return s.handleUnlockAck(conn, fields)
	case protocol.CodeLockAck:
		return s.handleLockAck(conn, fields)
	case protocol.CodeSetting:
		// firmware echoes the requested settings verbatim
		return s.send(conn, protocol.EncodeUplink(s.cfg.Vendor, s.cfg.IMEI, protocol.CodeSetting, fields...))
	default:
		log.Debugf("Scooter %s ignoring %s frame", s.cfg.IMEI, code)
		return nil
	}
}

// handleKeyExchange answers R0 with a freshly issued one-time key
func (s *Simulator) handleKeyExchange(conn net.Conn, fields []string) error {
	if len(fields) != 4 {
		return nil
	}
	for i := 0; i < s.cfg.TelemetryBurst; i++ {
		if err := s.sendHeartbeat(conn); err != nil {
			return err
		}
	}
	key := s.cfg.Key
	if key == 0 {
		key = uint8(1 + rand.Intn(255))
	}
	s.key = strconv.Itoa(int(key))
	s.userID = fields[2]
	return s.send(conn, protocol.EncodeUplink(s.cfg.Vendor, s.cfg.IMEI, protocol.CodeKeyExchange,
		fields[0], s.key, fields[2], fields[3]))
}

// handleUnlockAck answers the L0 round; the content-less terminal ack
// releases the exchange without a reply
func (s *Simulator) handleUnlockAck(conn net.Conn, fields []string) error {
	if len(fields) == 0 {
		log.Infof("Scooter %s unlock exchange complete", s.cfg.IMEI)
		return nil
	}
	if len(fields) != 3 {
		return nil
	}
	status := "0"
	if fields[0] != s.key {
		status = "2"
	} else {
		s.locked = false
		s.unlockedAt = time.Now().Unix()
	}
	return s.send(conn, protocol.EncodeUplink(s.cfg.Vendor, s.cfg.IMEI, protocol.CodeUnlockAck,
		status, fields[1], fields[2]))
}

// handleLockAck answers the L1 round with the unlock timestamp and the
// cycling time
func (s *Simulator) handleLockAck(conn net.Conn, fields []string) error {
	if len(fields) == 0 {
		log.Infof("Scooter %s lock exchange complete", s.cfg.IMEI)
		return nil
	}
	if len(fields) != 1 {
		return nil
	}
	if s.userID == "" {
		return fmt.Errorf("lock requested before any key exchange")
	}
	status := "0"
	cycling := int64(0)
	if fields[0] != s.key {
		status = "2"
	} else {
		s.locked = true
		if s.unlockedAt > 0 {
			cycling = time.Now().Unix() - s.unlockedAt
		}
	}
	return s.send(conn, protocol.EncodeUplink(s.cfg.Vendor, s.cfg.IMEI, protocol.CodeLockAck,
		status, s.userID, strconv.FormatInt(s.unlockedAt, 10), strconv.FormatInt(cycling, 10)))
}
