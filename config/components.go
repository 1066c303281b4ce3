// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"io/fs"
	"strings"

	"github.com/schmidtw/labscope/adc"
	"github.com/schmidtw/labscope/calibrate"
	"github.com/schmidtw/labscope/capture"
	"github.com/schmidtw/labscope/pipeline"
	"github.com/schmidtw/labscope/trigger"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/physic"
)

// Log configures the application logger.
type Log struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Logger builds the zap logger described by the configuration.
func (l Log) Logger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}

	if l.Level != "" {
		level, err := zap.ParseAtomicLevel(l.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = level
	}

	return zc.Build()
}

// Profile returns the calibration profile, detecting it from fsys when the
// configuration asks for auto detection.
func (c *Config) Profile(fsys fs.FS) calibrate.HardwareProfile {
	var p calibrate.HardwareProfile

	name := strings.ToLower(strings.TrimSpace(c.Hardware.Profile))
	if name == "" || name == "auto" {
		p = calibrate.Detect(fsys)
	} else {
		p, _ = calibrate.Lookup(name)
	}

	if c.Hardware.Gain != nil {
		p.Gain = *c.Hardware.Gain
	}
	if c.Hardware.Bias != nil {
		p.Bias = float64(*c.Hardware.Bias)
	}

	return p
}

// Channels returns the number of channels to capture.
func (c *Config) Channels(p calibrate.HardwareProfile) int {
	if c.Acquisition.Channels > 0 {
		return c.Acquisition.Channels
	}
	return p.Channels
}

// Pipeline returns the pipeline configuration.  The configuration must have
// been validated.
func (c *Config) Pipeline(p calibrate.HardwareProfile) pipeline.Config {
	sensor, _ := calibrate.ParseSensorMode(c.Display.SensorMode)
	display, _ := pipeline.ParseDisplayMode(c.Display.Mode)
	mode, _ := trigger.ParseMode(c.Display.Trigger.Mode)

	return pipeline.Config{
		Channels:          c.Channels(p),
		SampleRate:        c.Acquisition.SampleRate,
		TimeCapacity:      c.Acquisition.TimeCapacity,
		FrequencyCapacity: c.Acquisition.FrequencyCapacity,
		DutyCycle:         c.Acquisition.DutyCycle,
		TickPeriod:        c.Logging.TickPeriod,
		Profile:           p,
		SensorMode:        sensor,
		DisplayMode:       display,
		TriggerMode:       mode,
		TriggerX:          c.Display.Trigger.X,
		TriggerY:          c.Display.Trigger.Y,
		Geometry: trigger.Geometry{
			Width:  c.Display.Trigger.Width,
			Scale:  c.Display.Trigger.Scale,
			Window: c.Display.Trigger.Window,
		},
	}
}

// Synth returns the synthetic source configuration.  Channels without a
// configured wave get a sine whose frequency grows with the channel number.
func (c *Config) Synth(channels int) capture.SynthConfig {
	waves := make([]capture.Wave, channels)
	for i := range waves {
		if i < len(c.Acquisition.Synth) {
			w := c.Acquisition.Synth[i]
			shape, _ := capture.ParseShape(w.Shape)
			waves[i] = capture.Wave{
				Shape:     shape,
				Frequency: w.Frequency,
				Amplitude: int16(w.Amplitude),
				Offset:    int16(w.Offset),
			}
			continue
		}

		waves[i] = capture.Wave{
			Shape:     capture.Sine,
			Frequency: physic.Frequency(440*(i+1)) * physic.Hertz,
			Amplitude: 8000,
		}
	}

	return capture.SynthConfig{
		SampleRate: c.Acquisition.SampleRate,
		BufferSize: c.Acquisition.BufferSize,
		Waves:      waves,
	}
}

// SoundCard returns the sound card source configuration.
func (c *Config) SoundCard(channels int) capture.SoundCardConfig {
	return capture.SoundCardConfig{
		Channels:   channels,
		SampleRate: c.Acquisition.SampleRate,
		BufferSize: c.Acquisition.BufferSize,
	}
}

// ADC returns the ads1115 source configuration.
func (c *Config) ADC(channels int) adc.Config {
	inputs := c.Acquisition.ADC.Inputs
	if len(inputs) > channels {
		inputs = inputs[:channels]
	}

	return adc.Config{
		I2cFile:    c.Acquisition.ADC.I2cFile,
		I2CAddress: c.Acquisition.ADC.Address,
		Inputs:     inputs,
		MaxVoltage: c.Acquisition.ADC.MaxVoltage,
		SampleRate: c.Acquisition.SampleRate,
		BufferSize: c.Acquisition.BufferSize,
	}
}
