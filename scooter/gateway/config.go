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
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/intelcon-group/scootergw/scooter/protocol"
)

var vendorRe = regexp.MustCompile(`^[A-Za-z]{1,4}$`)

// Config carries the gateway process configuration
type Config struct {
	// DeviceAddr is the host:port the device TCP listener binds to
	DeviceAddr string `yaml:"device_addr"`
	// HTTPAddr is the host:port the operator HTTP API binds to
	HTTPAddr string `yaml:"http_addr"`
	// MonitoringPort is the port the stats reporter binds to, 0 disables it
	MonitoringPort int `yaml:"monitoring_port"`
	// Vendor is the short alphabetic tag present in every frame
	Vendor string `yaml:"vendor"`
	// UserID identifies the operator in R0/L0 exchanges
	UserID uint32 `yaml:"user_id"`
	// KeyDuration is the validity window requested for one-time keys, seconds
	KeyDuration uint8 `yaml:"key_duration"`
	// StepTimeout bounds every send and every await of a workflow step
	StepTimeout time.Duration `yaml:"step_timeout"`
	// ReadBufferSize is the per-connection read buffer, at least one frame
	ReadBufferSize int `yaml:"read_buffer_size"`
}

// DefaultConfig returns a config with the documented defaults
func DefaultConfig() *Config {
	return &Config{
		DeviceAddr:     ":8400",
		HTTPAddr:       ":4000",
		MonitoringPort: 8888,
		Vendor:         "LZ",
		UserID:         1234,
		KeyDuration:    20,
		StepTimeout:    5 * time.Second,
		ReadBufferSize: protocol.MaxFrameSize,
	}
}

// ReadConfig loads the yaml config from the path over the defaults
func ReadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate the config is sane
func (c *Config) Validate() error {
	if c.DeviceAddr == "" {
		return fmt.Errorf("device_addr must be set")
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr must be set")
	}
	if !vendorRe.MatchString(c.Vendor) {
		return fmt.Errorf("vendor must be a short alphabetic tag, got %q", c.Vendor)
	}
	if c.KeyDuration == 0 {
		return fmt.Errorf("key_duration must be positive")
	}
	if c.StepTimeout <= 0 {
		return fmt.Errorf("step_timeout must be positive")
	}
	if c.ReadBufferSize < protocol.MaxFrameSize {
		return fmt.Errorf("read_buffer_size must be at least %d", protocol.MaxFrameSize)
	}
	return nil
}
