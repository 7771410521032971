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
	"math"
	"regexp"
	"strconv"
	"time"
)

// coordinates come as ddmm.mmmm (latitude) or dddmm.mmmm (longitude)
var coordinateRe = regexp.MustCompile(`^\d{4,5}\.\d{4}$`)

// ParseCoordinate converts a degrees-and-minutes coordinate with its
// hemisphere indicator into WGS84 decimal degrees. South and West are
// negative. Minutes outside [0, 60) are rejected.
func ParseCoordinate(value, hemisphere string) (float64, error) {
	if !coordinateRe.MatchString(value) {
		return 0, fmt.Errorf("invalid coordinate format %q, expected ddmm.mmmm or dddmm.mmmm", value)
	}
	raw, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate %q: %w", value, err)
	}
	degrees := math.Floor(raw / 100)
	minutes := math.Mod(raw, 100)
	if minutes >= 60 {
		return 0, fmt.Errorf("coordinate minutes out of range: %v", minutes)
	}
	coordinate := degrees + minutes/60
	h, err := ParseHemisphere(hemisphere)
	if err != nil {
		return 0, err
	}
	switch h {
	case HemisphereSouth, HemisphereWest:
		return -coordinate, nil
	default:
		return coordinate, nil
	}
}

func parseTwoDigits(name, s string) (int, error) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), nil
}

// ParseTime parses an hhmmss wire field into clock components,
// rejecting out of range values
func ParseTime(hhmmss string) (hour, minute, second int, err error) {
	if len(hhmmss) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid time format %q, expected hhmmss", hhmmss)
	}
	if hour, err = parseTwoDigits("hours", hhmmss[0:2]); err != nil {
		return 0, 0, 0, err
	}
	if minute, err = parseTwoDigits("minutes", hhmmss[2:4]); err != nil {
		return 0, 0, 0, err
	}
	if second, err = parseTwoDigits("seconds", hhmmss[4:6]); err != nil {
		return 0, 0, 0, err
	}
	if hour > 23 || minute > 59 || second > 59 {
		return 0, 0, 0, fmt.Errorf("time %q out of range", hhmmss)
	}
	return hour, minute, second, nil
}

// ParseDate parses a ddmmyy wire field into a UTC midnight date.
// The century is assumed to be 2000+. Invalid calendar dates,
// including Feb 29 outside leap years, are rejected.
func ParseDate(ddmmyy string) (time.Time, error) {
	if len(ddmmyy) != 6 {
		return time.Time{}, fmt.Errorf("invalid date format %q, expected ddmmyy", ddmmyy)
	}
	day, err := parseTwoDigits("day", ddmmyy[0:2])
	if err != nil {
		return time.Time{}, err
	}
	month, err := parseTwoDigits("month", ddmmyy[2:4])
	if err != nil {
		return time.Time{}, err
	}
	year, err := parseTwoDigits("year", ddmmyy[4:6])
	if err != nil {
		return time.Time{}, err
	}
	year += 2000
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes, e.g. Feb 30 becomes Mar 2
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, fmt.Errorf("date %q out of range", ddmmyy)
	}
	return d, nil
}

// ParseDateTime combines hhmmss and ddmmyy wire fields into a UTC timestamp
func ParseDateTime(hhmmss, ddmmyy string) (time.Time, error) {
	hour, minute, second, err := ParseTime(hhmmss)
	if err != nil {
		return time.Time{}, err
	}
	d, err := ParseDate(ddmmyy)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, second, 0, time.UTC), nil
}
