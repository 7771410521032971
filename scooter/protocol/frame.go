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
Package protocol implements the ASCII comma-delimited wire protocol
spoken by the scooter fleet. Frames are single `#\n`-terminated lines.
Device-to-gateway (uplink) frames start with `*SCOR`, gateway-to-device
(downlink) frames carry a 6-character `0xFFFF` preamble followed by
`*SCOS`. The package is pure: it encodes, splits, decodes and validates
frames but performs no I/O.
*/
package protocol

import (
	"fmt"
	"regexp"
	"strings"
)

// Frame format constants
const (
	HeaderUplink     = "*SCOR"
	HeaderDownlink   = "*SCOS"
	DownlinkPreamble = "0xFFFF"
	Terminator       = "#\n"
	// MaxFrameSize is the read buffer size sufficient for any single frame
	MaxFrameSize = 1024
)

func encode(preamble, header, vendor, imei string, code Code, fields []string) string {
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString(header)
	b.WriteByte(',')
	b.WriteString(vendor)
	b.WriteByte(',')
	b.WriteString(imei)
	b.WriteByte(',')
	b.WriteString(string(code))
	for _, f := range fields {
		b.WriteByte(',')
		b.WriteString(f)
	}
	b.WriteString(Terminator)
	return b.String()
}

// Encode builds a gateway-to-device frame. Fields are joined verbatim,
// the codec does not escape commas.
func Encode(vendor, imei string, code Code, fields ...string) string {
	return encode(DownlinkPreamble, HeaderDownlink, vendor, imei, code, fields)
}

// EncodeUplink builds a device-to-gateway frame. The gateway never sends
// these, the simulator does.
func EncodeUplink(vendor, imei string, code Code, fields ...string) string {
	return encode("", HeaderUplink, vendor, imei, code, fields)
}

// Split strips the terminator off an uplink frame and splits it into
// comma-separated fields, verifying the `*SCOR` header and the vendor tag.
// The returned slice includes the header fields.
func Split(raw, vendor string) ([]string, error) {
	if !strings.HasSuffix(raw, Terminator) {
		return nil, fmt.Errorf("frame is not terminated with %q", Terminator)
	}
	parts := strings.Split(strings.TrimSuffix(raw, Terminator), ",")
	if parts[0] != HeaderUplink {
		return nil, fmt.Errorf("invalid header: %q", parts[0])
	}
	if len(parts) < 2 || parts[1] != vendor {
		vendorField := ""
		if len(parts) >= 2 {
			vendorField = parts[1]
		}
		return nil, fmt.Errorf("unsupported vendor code: %q", vendorField)
	}
	return parts, nil
}

// Decode parses an uplink frame into its typed Command variant
func Decode(raw, vendor string) (Command, error) {
	parts, err := Split(raw, vendor)
	if err != nil {
		return nil, err
	}
	return DecodeCommand(parts)
}

// DecodeDownlink parses a gateway-to-device frame into IMEI, command code
// and content fields. The receiving side of the simulator uses it.
func DecodeDownlink(raw, vendor string) (imei string, code Code, fields []string, err error) {
	if !strings.HasSuffix(raw, Terminator) {
		return "", "", nil, fmt.Errorf("frame is not terminated with %q", Terminator)
	}
	raw = strings.TrimSuffix(raw, Terminator)
	parts := strings.Split(raw, ",")
	if parts[0] != DownlinkPreamble+HeaderDownlink {
		return "", "", nil, fmt.Errorf("invalid header: %q", parts[0])
	}
	if len(parts) < 4 {
		return "", "", nil, fmt.Errorf("insufficient fields in frame %q", raw)
	}
	if parts[1] != vendor {
		return "", "", nil, fmt.Errorf("unsupported vendor code: %q", parts[1])
	}
	return parts[2], Code(parts[3]), parts[4:], nil
}

// Literal quotes a value so that it only matches byte-exact in an
// Expectation content slot
func Literal(s string) string {
	return regexp.QuoteMeta(s)
}

// Field returns the nth comma-separated field of a raw frame,
// the header counts as field 0
func Field(frame string, n int) (string, error) {
	parts := strings.Split(strings.TrimSuffix(frame, Terminator), ",")
	if n < 0 || n >= len(parts) {
		return "", fmt.Errorf("frame has no field %d", n)
	}
	return parts[n], nil
}

// Expectation is a compiled matcher for one awaited device response.
// Content slots are either literals (see Literal) or regex fragments
// such as `\d+`. It is the sole validator the command workflows use.
type Expectation struct {
	code    Code
	pattern string
	re      *regexp.Regexp
}

// NewExpectation compiles the matcher for a response with the given
// vendor tag, IMEI, command code and content slots
func NewExpectation(vendor, imei string, code Code, content ...string) (*Expectation, error) {
	pattern := `^\` + HeaderUplink + "," + regexp.QuoteMeta(vendor) + "," + imei + "," + string(code)
	if len(content) > 0 {
		pattern += "," + strings.Join(content, ",")
	}
	pattern += "#\n$"
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile response pattern %q: %w", pattern, err)
	}
	return &Expectation{code: code, pattern: pattern, re: re}, nil
}

// Code returns the awaited command code
func (e *Expectation) Code() Code {
	return e.code
}

// Match checks a raw response against the expected shape
func (e *Expectation) Match(response string) error {
	if !e.re.MatchString(response) {
		return fmt.Errorf("invalid response format: expected pattern %q, got %q", e.pattern, response)
	}
	return nil
}

// Validate is a one-shot convenience over NewExpectation and Match
func Validate(response, vendor, imei string, code Code, content ...string) error {
	e, err := NewExpectation(vendor, imei, code, content...)
	if err != nil {
		return err
	}
	return e.Match(response)
}
