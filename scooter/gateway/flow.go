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
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/intelcon-group/scootergw/scooter/protocol"
	"github.com/intelcon-group/scootergw/scooter/stats"
)

// ErrInvalidParameter is returned for operator parameters outside the
// protocol's value ranges
var ErrInvalidParameter = errors.New("invalid parameter")

// keyDelay separates the two timestamps stamped on an unlock exchange
const keyDelay = 3 * time.Second

// Orchestrator drives the multi-step operator workflows. Each workflow
// checks the session out of the registry, holds it exclusively for the
// whole exchange and discards any interleaved frame that does not match
// the awaited step.
type Orchestrator struct {
	cfg   *Config
	reg   *Registry
	stats stats.Stats
}

// NewOrchestrator returns an Orchestrator over the registry
func NewOrchestrator(cfg *Config, reg *Registry, st stats.Stats) *Orchestrator {
	return &Orchestrator{cfg: cfg, reg: reg, stats: st}
}

func (o *Orchestrator) userID() string {
	return strconv.FormatUint(uint64(o.cfg.UserID), 10)
}

// send writes one frame on the held session
func (o *Orchestrator) send(h *Handle, frame string) error {
	log.Debugf("-> %s: %q", h.IMEI(), frame)
	return h.Send(frame, o.cfg.StepTimeout)
}

// await reads frames until one matches the expectation or the step
// timeout expires. Non-matching frames are discarded.
func (o *Orchestrator) await(ctx context.Context, h *Handle, exp *protocol.Expectation) (string, error) {
	deadline := time.Now().Add(o.cfg.StepTimeout)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		frame, err := h.ReadFrame(deadline)
		if err != nil {
			if isTimeout(err) {
				return "", fmt.Errorf("timed out waiting for %s response", exp.Code())
			}
			return "", fmt.Errorf("failed to read %s response: %w", exp.Code(), err)
		}
		if err := exp.Match(frame); err != nil {
			log.Debugf("Ignored invalid %s response from %s: %v", exp.Code(), h.IMEI(), err)
			o.stats.IncIgnored()
			continue
		}
		log.Debugf("<- %s: %q", h.IMEI(), frame)
		return frame, nil
	}
}

// requestKey performs the R0 round: it asks the device for a one-time
// key and returns the key exactly as the device spelled it.
func (o *Orchestrator) requestKey(ctx context.Context, h *Handle, op protocol.Operation, ts string) (string, error) {
	imei := h.IMEI()
	frame := protocol.Encode(o.cfg.Vendor, imei, protocol.CodeKeyExchange,
		op.Wire(), strconv.Itoa(int(o.cfg.KeyDuration)), o.userID(), ts)
	if err := o.send(h, frame); err != nil {
		return "", err
	}
	exp, err := protocol.NewExpectation(o.cfg.Vendor, imei, protocol.CodeKeyExchange,
		op.Wire(), `\d+`, o.userID(), ts)
	if err != nil {
		return "", err
	}
	response, err := o.await(ctx, h, exp)
	if err != nil {
		return "", err
	}
	key, err := protocol.Field(response, 5)
	if err != nil {
		return "", fmt.Errorf("failed to extract key from response: %w", err)
	}
	if _, err := strconv.ParseUint(key, 10, 8); err != nil {
		return "", fmt.Errorf("key %q out of range", key)
	}
	return key, nil
}

func (o *Orchestrator) outcome(workflow string, err error) error {
	if err != nil {
		o.stats.IncWorkflowFailure(workflow)
		return err
	}
	o.stats.IncWorkflowSuccess(workflow)
	return nil
}

// Unlock drives the three-round unlock exchange
func (o *Orchestrator) Unlock(ctx context.Context, imei string) error {
	return o.outcome(stats.WorkflowUnlock, o.unlock(ctx, imei))
}

func (o *Orchestrator) unlock(ctx context.Context, imei string) error {
	h, err := o.reg.Checkout(imei)
	if err != nil {
		return err
	}
	defer h.Release()

	t1 := time.Now()
	ts1 := strconv.FormatInt(t1.Unix(), 10)
	ts2 := strconv.FormatInt(t1.Add(keyDelay).Unix(), 10)

	key, err := o.requestKey(ctx, h, protocol.OperationUnlock, ts1)
	if err != nil {
		return err
	}

	if err := o.send(h, protocol.Encode(o.cfg.Vendor, imei, protocol.CodeUnlockAck, key, o.userID(), ts2)); err != nil {
		return err
	}
	exp, err := protocol.NewExpectation(o.cfg.Vendor, imei, protocol.CodeUnlockAck, "0", o.userID(), ts2)
	if err != nil {
		return err
	}
	if _, err := o.await(ctx, h, exp); err != nil {
		return err
	}

	// content-less terminal ack, no device response expected
	if err := o.send(h, protocol.Encode(o.cfg.Vendor, imei, protocol.CodeUnlockAck)); err != nil {
		return err
	}
	log.Infof("Unlocked scooter %s", imei)
	return nil
}

// Lock drives the three-round lock exchange
func (o *Orchestrator) Lock(ctx context.Context, imei string) error {
	return o.outcome(stats.WorkflowLock, o.lock(ctx, imei))
}

func (o *Orchestrator) lock(ctx context.Context, imei string) error {
	h, err := o.reg.Checkout(imei)
	if err != nil {
		return err
	}
	defer h.Release()

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	key, err := o.requestKey(ctx, h, protocol.OperationLock, ts)
	if err != nil {
		return err
	}

	if err := o.send(h, protocol.Encode(o.cfg.Vendor, imei, protocol.CodeLockAck, key)); err != nil {
		return err
	}
	// success status, unlock timestamp, cycling time
	exp, err := protocol.NewExpectation(o.cfg.Vendor, imei, protocol.CodeLockAck, "0", o.userID(), `\d+`, `\d+`)
	if err != nil {
		return err
	}
	if _, err := o.await(ctx, h, exp); err != nil {
		return err
	}

	if err := o.send(h, protocol.Encode(o.cfg.Vendor, imei, protocol.CodeLockAck)); err != nil {
		return err
	}
	log.Infof("Locked scooter %s", imei)
	return nil
}

// applySetting drives the single-round S7 exchange and awaits the echo
func (o *Orchestrator) applySetting(ctx context.Context, imei string, headlight protocol.Toggle, mode protocol.SpeedMode, throttle, taillights protocol.Toggle) error {
	h, err := o.reg.Checkout(imei)
	if err != nil {
		return err
	}
	defer h.Release()

	fields := []string{headlight.Wire(), mode.Wire(), throttle.Wire(), taillights.Wire()}
	if err := o.send(h, protocol.Encode(o.cfg.Vendor, imei, protocol.CodeSetting, fields...)); err != nil {
		return err
	}
	exp, err := protocol.NewExpectation(o.cfg.Vendor, imei, protocol.CodeSetting, fields...)
	if err != nil {
		return err
	}
	_, err = o.await(ctx, h, exp)
	return err
}

// ChangeGear sets the speed mode, leaving the other settings untouched
func (o *Orchestrator) ChangeGear(ctx context.Context, imei string, mode protocol.SpeedMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: gear out of range 0, 1, 2, 3", ErrInvalidParameter)
	}
	err := o.applySetting(ctx, imei, protocol.ToggleDontSet, mode, protocol.ToggleDontSet, protocol.ToggleDontSet)
	if err == nil {
		log.Infof("Changed gear of scooter %s to %s", imei, mode)
	}
	return o.outcome(stats.WorkflowChangeGear, err)
}

// ToggleHeadlight switches the headlight, leaving the other settings
// untouched
func (o *Orchestrator) ToggleHeadlight(ctx context.Context, imei string, on bool) error {
	headlight := protocol.ToggleOff
	if on {
		headlight = protocol.ToggleOn
	}
	err := o.applySetting(ctx, imei, headlight, protocol.SpeedModeDontSet, protocol.ToggleDontSet, protocol.ToggleDontSet)
	if err == nil {
		log.Infof("Set headlight of scooter %s to %s", imei, headlight)
	}
	return o.outcome(stats.WorkflowToggleHeadlight, err)
}
