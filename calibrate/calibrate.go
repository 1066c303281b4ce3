// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package calibrate converts raw sample magnitudes into physical units using
// the constants of the detected hardware.
package calibrate

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrUnknownSensorMode = errors.New("unknown sensor mode")
)

// xo1Open is reported by the XO-1 curve when the input reads as an open
// circuit.
const xo1Open = 420000000.0

// The reciprocal curves of the later variants saturate at these values when
// the input is pinned at the bottom of the range.
const (
	xo175Open = 180000000.0
	xo4Open   = 160000000.0
)

// SensorMode tells what the attached sensor measures.
type SensorMode int

const (
	Sound SensorMode = iota
	Voltage
	Resistance
)

var sensorModeNames = map[SensorMode]string{
	Sound:      "sound",
	Voltage:    "voltage",
	Resistance: "resistance",
}

// ParseSensorMode returns the sensor mode named by s.
func ParseSensorMode(s string) (SensorMode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for mode, name := range sensorModeNames {
		if name == key {
			return mode, nil
		}
	}

	return Sound, fmt.Errorf("%w: '%s'", ErrUnknownSensorMode, s)
}

func (m SensorMode) String() string {
	if name, ok := sensorModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("SensorMode(%d)", int(m))
}

// AverageMagnitude returns the arithmetic mean of the samples, or of their
// absolute values when useAbsolute is set.  An empty input averages to 0.
func AverageMagnitude(samples []int16, useAbsolute bool) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	var sum int64
	for _, s := range samples {
		v := int64(s)
		if useAbsolute && v < 0 {
			v = -v
		}
		sum += v
	}

	return float64(sum) / float64(len(samples))
}

// ToVoltage converts an averaged raw reading into volts.
func (p HardwareProfile) ToVoltage(avg float64) float64 {
	return avg*p.Gain + p.Bias
}

// ToResistance converts an averaged raw reading into ohms using the curve of
// the hardware variant.
func (p HardwareProfile) ToResistance(avg float64) float64 {
	switch p.Resistance {
	case FormulaXO15:
		return math.Exp(9.31 - avg*0.000068)
	case FormulaXO175:
		if avg+32768.0 <= 0 {
			return xo175Open
		}
		return 180000000.0/(avg+32768.0) - 2000.0
	case FormulaXO4:
		if avg+40000.0 <= 0 {
			return xo4Open
		}
		return 160000000.0/(avg+40000.0) - 1500.0
	default:
		if avg <= 0 {
			return xo1Open
		}
		return xo1Open/avg - 13500.0
	}
}

// Calibrate reduces a buffer into the value shown for the sensor mode: the
// mean absolute amplitude for sound, volts or ohms otherwise.
func (p HardwareProfile) Calibrate(mode SensorMode, samples []int16) float64 {
	switch mode {
	case Voltage:
		return p.ToVoltage(AverageMagnitude(samples, false))
	case Resistance:
		return p.ToResistance(AverageMagnitude(samples, false))
	default:
		return AverageMagnitude(samples, true)
	}
}
