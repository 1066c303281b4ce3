// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"strings"

	"github.com/schmidtw/labscope/calibrate"
	"github.com/schmidtw/labscope/capture"
	"github.com/schmidtw/labscope/pipeline"
	"github.com/schmidtw/labscope/trigger"
)

// Sources names the capture sources that can be configured.
var Sources = []string{"synth", "soundcard", "ads1115"}

// Validate checks the configuration for values the components would reject.
func (c *Config) Validate() error {
	profile := strings.ToLower(strings.TrimSpace(c.Hardware.Profile))
	if profile != "" && profile != "auto" {
		if _, ok := calibrate.Lookup(profile); !ok {
			return fmt.Errorf("%w: unknown hardware profile '%s'", ErrInvalidConfig, c.Hardware.Profile)
		}
	}

	a := c.Acquisition
	if !contains(Sources, a.Source) {
		return fmt.Errorf("%w: unknown source '%s', expected one of %s",
			ErrInvalidConfig, a.Source, strings.Join(Sources, ", "))
	}
	if a.Channels < 0 {
		return fmt.Errorf("%w: channels %d", ErrInvalidConfig, a.Channels)
	}
	if a.SampleRate <= 0 {
		return fmt.Errorf("%w: sample_rate must be positive", ErrInvalidConfig)
	}
	if a.BufferSize < 1 {
		return fmt.Errorf("%w: buffer_size %d", ErrInvalidConfig, a.BufferSize)
	}
	if a.TimeCapacity < 1 || a.FrequencyCapacity < 1 {
		return fmt.Errorf("%w: capacities must be at least 1", ErrInvalidConfig)
	}
	if a.DutyCycle < 0 {
		return fmt.Errorf("%w: duty_cycle %d", ErrInvalidConfig, a.DutyCycle)
	}
	for i, w := range a.Synth {
		if _, err := capture.ParseShape(w.Shape); err != nil {
			return fmt.Errorf("%w: synth[%d]: %v", ErrInvalidConfig, i, err)
		}
	}

	d := c.Display
	if _, err := calibrate.ParseSensorMode(d.SensorMode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := pipeline.ParseDisplayMode(d.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := trigger.ParseMode(d.Trigger.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if d.Trigger.X < 0 || d.Trigger.X > 1 || d.Trigger.Y < 0 || d.Trigger.Y > 1 {
		return fmt.Errorf("%w: trigger x and y must be within 0 and 1", ErrInvalidConfig)
	}

	l := c.Logging
	if l.TickPeriod <= 0 {
		return fmt.Errorf("%w: tick_period must be positive", ErrInvalidConfig)
	}
	if l.Interval < 0 || l.MaxEntries < 1 {
		return fmt.Errorf("%w: logging interval %d, max_entries %d",
			ErrInvalidConfig, l.Interval, l.MaxEntries)
	}

	if c.HTTP.Address == "" {
		return fmt.Errorf("%w: http address is required", ErrInvalidConfig)
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
