// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package config loads the labscope configuration from an optional YAML file
// and LABSCOPE_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/schmidtw/labscope/httpserver"
	"github.com/schmidtw/labscope/journal"
	"github.com/schmidtw/labscope/units"
	"github.com/spf13/viper"
	"periph.io/x/conn/v3/physic"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

const envPrefix = "LABSCOPE"

// Config is the whole application configuration.
type Config struct {
	Hardware    Hardware          `mapstructure:"hardware"`
	Acquisition Acquisition       `mapstructure:"acquisition"`
	Display     Display           `mapstructure:"display"`
	Logging     Logging           `mapstructure:"logging"`
	Journal     journal.Config    `mapstructure:"journal"`
	HTTP        httpserver.Config `mapstructure:"http"`
	Log         Log               `mapstructure:"log"`
}

// Hardware selects the calibration profile.
type Hardware struct {
	// Profile is a profile name, or auto to detect it.
	Profile string `mapstructure:"profile"`

	// Gain and Bias replace the voltage constants of the profile when set.
	Gain *float64       `mapstructure:"gain"`
	Bias *units.Voltage `mapstructure:"bias"`
}

// Acquisition configures the capture source.
type Acquisition struct {
	// Source is one of synth, soundcard or ads1115.
	Source string `mapstructure:"source"`

	// Channels defaults to the channel count of the profile.
	Channels          int              `mapstructure:"channels"`
	SampleRate        physic.Frequency `mapstructure:"sample_rate"`
	BufferSize        int              `mapstructure:"buffer_size"`
	DutyCycle         int              `mapstructure:"duty_cycle"`
	TimeCapacity      int              `mapstructure:"time_capacity"`
	FrequencyCapacity int              `mapstructure:"frequency_capacity"`
	Synth             []Wave           `mapstructure:"synth"`
	ADC               ADC              `mapstructure:"adc"`
}

// Wave is one synthetic channel.
type Wave struct {
	Shape     string           `mapstructure:"shape"`
	Frequency physic.Frequency `mapstructure:"frequency"`
	Amplitude int              `mapstructure:"amplitude"`
	Offset    int              `mapstructure:"offset"`
}

// ADC configures the ads1115 source.
type ADC struct {
	I2cFile    string        `mapstructure:"i2c_file"`
	Address    int           `mapstructure:"address"`
	Inputs     []int         `mapstructure:"inputs"`
	MaxVoltage units.Voltage `mapstructure:"max_voltage"`
}

// Display holds the initial display settings.
type Display struct {
	SensorMode string  `mapstructure:"sensor_mode"`
	Mode       string  `mapstructure:"mode"`
	Trigger    Trigger `mapstructure:"trigger"`
}

// Trigger holds the initial trigger settings and the display geometry.
type Trigger struct {
	Mode   string  `mapstructure:"mode"`
	X      float64 `mapstructure:"x"`
	Y      float64 `mapstructure:"y"`
	Width  int     `mapstructure:"width"`
	Scale  float64 `mapstructure:"scale"`
	Window int     `mapstructure:"window"`
}

// Logging configures the logging scheduler.
type Logging struct {
	TickPeriod time.Duration `mapstructure:"tick_period"`
	Interval   int           `mapstructure:"interval"`
	MaxEntries int           `mapstructure:"max_entries"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("hardware.profile", "auto")
	// The overrides have no default so that an unset one stays nil; binding
	// them keeps the environment variables working.
	_ = v.BindEnv("hardware.gain")
	_ = v.BindEnv("hardware.bias")

	v.SetDefault("acquisition.source", "synth")
	v.SetDefault("acquisition.channels", 0)
	v.SetDefault("acquisition.sample_rate", "48kHz")
	v.SetDefault("acquisition.buffer_size", 1024)
	v.SetDefault("acquisition.duty_cycle", 4)
	v.SetDefault("acquisition.time_capacity", 4096)
	v.SetDefault("acquisition.frequency_capacity", 16384)
	v.SetDefault("acquisition.adc.i2c_file", "")
	v.SetDefault("acquisition.adc.address", 0x48)
	v.SetDefault("acquisition.adc.inputs", []int{0, 1})
	v.SetDefault("acquisition.adc.max_voltage", "4.096V")

	v.SetDefault("display.sensor_mode", "sound")
	v.SetDefault("display.mode", "time")
	v.SetDefault("display.trigger.mode", "none")
	v.SetDefault("display.trigger.x", 0.5)
	v.SetDefault("display.trigger.y", 0.5)
	v.SetDefault("display.trigger.width", 1024)
	v.SetDefault("display.trigger.scale", 65536.0)
	v.SetDefault("display.trigger.window", 0)

	v.SetDefault("logging.tick_period", "1s")
	v.SetDefault("logging.interval", 1)
	v.SetDefault("logging.max_entries", 100)

	v.SetDefault("journal.max_entries", 1000)
	v.SetDefault("journal.max_sessions", 10)

	v.SetDefault("http.address", ":8080")
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.read_header_timeout", "5s")
	v.SetDefault("http.write_timeout", "10s")
	v.SetDefault("http.idle_timeout", "60s")
	v.SetDefault("http.keep_alive", "30s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads the configuration.  When file is empty the usual locations are
// searched and a missing file is not an error.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("labscope")
		v.AddConfigPath("/etc/labscope")
		v.AddConfigPath("$HOME/.labscope")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var c Config
	err := v.Unmarshal(&c, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			frequencyHook(),
			voltageHook(),
		),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}
