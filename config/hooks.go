// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/schmidtw/labscope/units"
	"periph.io/x/conn/v3/physic"
)

// frequencyHook decodes "48kHz" style strings.  Bare numbers are hertz.
func frequencyHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(physic.Frequency(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			var f physic.Frequency
			if err := f.Set(v); err != nil {
				return nil, fmt.Errorf("%w: frequency '%s': %v", ErrInvalidConfig, v, err)
			}
			return f, nil
		case int:
			return physic.Frequency(v) * physic.Hertz, nil
		case float64:
			return physic.Frequency(v * float64(physic.Hertz)), nil
		}

		return data, nil
	}
}

// voltageHook decodes "4.096V" style strings.  Bare numbers are volts.
func voltageHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(units.Voltage(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			volts, err := units.ParseVoltage(v)
			if err != nil {
				return nil, fmt.Errorf("%w: voltage '%s': %v", ErrInvalidConfig, v, err)
			}
			return volts, nil
		case int:
			return units.Voltage(v), nil
		case float64:
			return units.Voltage(v), nil
		}

		return data, nil
	}
}
