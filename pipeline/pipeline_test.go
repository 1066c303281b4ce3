// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/schmidtw/labscope/calibrate"
	"github.com/schmidtw/labscope/display"
	"github.com/schmidtw/labscope/journal"
	"github.com/schmidtw/labscope/scheduler"
	"github.com/schmidtw/labscope/trigger"
	"github.com/schmidtw/labscope/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

type displayRecorder struct {
	m        sync.Mutex
	readings []display.Reading
}

func (d *displayRecorder) PublishSampleValue(r display.Reading) {
	d.m.Lock()
	defer d.m.Unlock()
	d.readings = append(d.readings, r)
}

func (d *displayRecorder) get() []display.Reading {
	d.m.Lock()
	defer d.m.Unlock()
	return append([]display.Reading(nil), d.readings...)
}

type sessionRecorder struct {
	m         sync.Mutex
	entries   []journal.Entry
	summaries []scheduler.Summary

	// When set, writes signal entered and wait on release.
	entered chan struct{}
	release chan struct{}
}

func (s *sessionRecorder) WriteLoggedValue(e journal.Entry) {
	if s.entered != nil {
		s.entered <- struct{}{}
		<-s.release
	}

	s.m.Lock()
	defer s.m.Unlock()
	s.entries = append(s.entries, e)
}

func (s *sessionRecorder) SessionFinalized(sum scheduler.Summary) {
	s.m.Lock()
	defer s.m.Unlock()
	s.summaries = append(s.summaries, sum)
}

func (s *sessionRecorder) get() ([]journal.Entry, []scheduler.Summary) {
	s.m.Lock()
	defer s.m.Unlock()
	return append([]journal.Entry(nil), s.entries...),
		append([]scheduler.Summary(nil), s.summaries...)
}

func testConfig() Config {
	return Config{
		Channels:          2,
		SampleRate:        48 * physic.KiloHertz,
		TimeCapacity:      64,
		FrequencyCapacity: 4096,
		DutyCycle:         1,
		TickPeriod:        time.Second,
		Profile:           calibrate.XO1,
		SensorMode:        calibrate.Sound,
		DisplayMode:       TimeMode,
		TriggerMode:       trigger.None,
		TriggerX:          0.5,
		TriggerY:          0.5,
		Geometry:          trigger.Geometry{Width: 20, Scale: 20000},
	}
}

func constant(n int, v int16) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func sine(freq, rate float64, n int, amplitude float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(amplitude * math.Sin(2*math.Pi*freq*float64(i)/rate))
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		description string
		modify      func(*Config)
		noSinks     bool
		channels    int
		expectedErr error
	}{
		{
			description: "valid",
			channels:    2,
		}, {
			description: "channels from the profile",
			modify: func(c *Config) {
				c.Channels = 0
				c.Profile = calibrate.XO15
			},
			channels: 1,
		}, {
			description: "missing sinks",
			noSinks:     true,
			expectedErr: ErrInvalidConfig,
		}, {
			description: "negative channels",
			modify: func(c *Config) {
				c.Channels = -1
			},
			expectedErr: ErrInvalidConfig,
		}, {
			description: "no sample rate",
			modify: func(c *Config) {
				c.SampleRate = 0
			},
			expectedErr: ErrInvalidConfig,
		}, {
			description: "no capacity",
			modify: func(c *Config) {
				c.FrequencyCapacity = 0
			},
			expectedErr: ErrInvalidConfig,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)

			cfg := testConfig()
			if tc.modify != nil {
				tc.modify(&cfg)
			}

			var (
				p   *Pipeline
				err error
			)
			if tc.noSinks {
				p, err = New(cfg, nil, nil)
			} else {
				p, err = New(cfg, &displayRecorder{}, &sessionRecorder{})
			}

			if tc.expectedErr != nil {
				assert.ErrorIs(err, tc.expectedErr)
				assert.Nil(p)
				return
			}

			require.NoError(t, err)
			assert.Equal(tc.channels, p.Channels())
		})
	}
}

func TestWaveformAndFreeze(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	var d displayRecorder

	p, err := New(testConfig(), &d, &sessionRecorder{})
	require.NoError(err)

	p.OnBuffer(0, []int16{1, 2, 3})
	p.OnBuffer(1, []int16{9})

	got, err := p.Waveform(0, 1)
	require.NoError(err)
	assert.Equal([]int16{1, 2, 3}, got)

	p.SetFreezeDisplay(true)
	assert.True(p.Frozen())
	p.OnBuffer(0, []int16{4, 5})

	got, err = p.Waveform(0, 1)
	require.NoError(err)
	assert.Equal([]int16{1, 2, 3}, got)

	// Display values keep flowing while frozen.
	assert.Len(d.get(), 3)

	p.SetFreezeDisplay(false)
	p.OnBuffer(0, []int16{6})
	got, err = p.Waveform(0, 2)
	require.NoError(err)
	assert.Equal([]int16{1, 3}, got)

	_, err = p.Waveform(5, 1)
	assert.ErrorIs(err, ErrInvalidChannel)
	_, err = p.Waveform(0, 0)
	assert.Error(err)
}

func TestIgnoredChannel(t *testing.T) {
	var d displayRecorder

	p, err := New(testConfig(), &d, &sessionRecorder{})
	require.NoError(t, err)

	p.OnBuffer(-1, []int16{1})
	p.OnBuffer(2, []int16{1})

	assert.Empty(t, d.get())
	assert.Equal(t, 2.0, testutil.ToFloat64(p.metrics.ignored))
}

func TestDutyCycle(t *testing.T) {
	tests := []struct {
		description string
		duty        int
		buffers     int
		expect      int
	}{
		{description: "every buffer", duty: 1, buffers: 5, expect: 5},
		{description: "every third", duty: 3, buffers: 9, expect: 3},
		{description: "not reached", duty: 10, buffers: 9, expect: 0},
		{description: "zero means every buffer", duty: 0, buffers: 4, expect: 4},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			var d displayRecorder
			cfg := testConfig()
			cfg.DutyCycle = tc.duty

			p, err := New(cfg, &d, &sessionRecorder{})
			require.NoError(t, err)

			for i := 0; i < tc.buffers; i++ {
				p.OnBuffer(0, []int16{100})
			}

			assert.Len(t, d.get(), tc.expect)
		})
	}
}

func TestDisplayValues(t *testing.T) {
	tests := []struct {
		description string
		sensor      calibrate.SensorMode
		display     DisplayMode
		samples     []int16
		quantity    units.Quantity
		text        string
		hz          float64
	}{
		{
			description: "sound amplitude",
			sensor:      calibrate.Sound,
			samples:     []int16{-300, 300, -300, 300},
			quantity:    units.AmplitudeQuantity,
			text:        "300",
		}, {
			description: "voltage",
			sensor:      calibrate.Voltage,
			samples:     constant(16, 4000),
			quantity:    units.VoltageQuantity,
			text:        "1.229V",
		}, {
			description: "resistance",
			sensor:      calibrate.Resistance,
			samples:     constant(16, 10000),
			quantity:    units.ResistanceQuantity,
			text:        "28500Ω",
		}, {
			description: "empty buffer",
			sensor:      calibrate.Voltage,
			quantity:    units.VoltageQuantity,
			text:        "1.140V",
		}, {
			description: "frequency",
			sensor:      calibrate.Sound,
			display:     FrequencyMode,
			samples:     sine(1171.875, 48000, 4096, 10000),
			quantity:    units.FrequencyQuantity,
			hz:          1171.875,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)
			var d displayRecorder

			p, err := New(testConfig(), &d, &sessionRecorder{})
			require.NoError(t, err)

			p.SetSensorMode(tc.sensor)
			require.NoError(t, p.SetDisplayMode(tc.display))

			p.OnBuffer(1, tc.samples)

			readings := d.get()
			require.Len(t, readings, 1)
			assert.Equal(1, readings[0].Channel)
			assert.Equal(tc.quantity, readings[0].Quantity)
			if tc.hz > 0 {
				assert.InEpsilon(tc.hz, readings[0].Value, 0.01)
				assert.Equal(tc.quantity.Format(readings[0].Value), readings[0].Text)
				return
			}
			assert.Equal(tc.text, readings[0].Text)
		})
	}
}

func TestSetDisplayModeResizes(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	p, err := New(testConfig(), &displayRecorder{}, &sessionRecorder{})
	require.NoError(err)

	p.OnBuffer(0, constant(100, 7))
	got, err := p.Waveform(0, 1)
	require.NoError(err)
	assert.Len(got, 64)

	require.NoError(p.SetDisplayMode(FrequencyMode))
	p.OnBuffer(0, constant(100, 8))
	got, err = p.Waveform(0, 1)
	require.NoError(err)
	assert.Len(got, 164)

	require.NoError(p.SetDisplayMode(TimeMode))
	got, err = p.Waveform(0, 1)
	require.NoError(err)
	assert.Len(got, 64)
	assert.Equal(constant(64, 8), got)

	_, dm, _ := p.Modes()
	assert.Equal(TimeMode, dm)
}

func TestTrigger(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	p, err := New(testConfig(), &displayRecorder{}, &sessionRecorder{})
	require.NoError(err)

	ramp := make([]int16, 64)
	for i := range ramp {
		ramp[i] = int16(-3200 + 100*i)
	}
	p.OnBuffer(0, ramp)

	_, res, err := p.Trigger(0, 1)
	require.NoError(err)
	assert.False(res.Found)

	p.SetTriggerMode(trigger.Rising)
	snapshot, res, err := p.Trigger(0, 1)
	require.NoError(err)
	assert.Len(snapshot, 64)
	assert.True(res.Found)
	assert.Equal(32, res.Position)

	p.SetTriggerLevel(0.5, 0.5625)
	_, res, err = p.Trigger(0, 1)
	require.NoError(err)
	assert.True(res.Found)
	assert.Equal(44, res.Position)
	assert.InDelta(0.5, res.Offset, 1e-9)

	_, _, err = p.Trigger(3, 1)
	assert.ErrorIs(err, ErrInvalidChannel)
}

func TestSingleShotLogging(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	var s sessionRecorder

	p, err := New(testConfig(), &displayRecorder{}, &s)
	require.NoError(err)

	session, err := p.StartLogging(0, 0)
	require.NoError(err)

	p.OnBuffer(1, constant(8, 50))
	p.OnBuffer(0, constant(8, 10))
	p.OnBuffer(0, constant(8, 20))
	p.OnBuffer(1, constant(8, 30))
	p.OnBuffer(1, constant(8, 40))

	entries, summaries := s.get()
	require.Len(entries, 2)
	assert.Equal(0, entries[0].Channel)
	assert.Equal(10.0, entries[0].Value)
	assert.Equal(1, entries[1].Channel)
	assert.Equal(30.0, entries[1].Value)
	assert.Equal(session.ID, entries[1].Session)

	require.Len(summaries, 1)
	assert.Equal(scheduler.Completed, summaries[0].Reason)

	state, _ := p.Logging()
	assert.Equal(scheduler.Idle, state)
}

func TestLoggingIgnoresDisplayMode(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	var d displayRecorder
	var s sessionRecorder

	p, err := New(testConfig(), &d, &s)
	require.NoError(err)

	p.SetSensorMode(calibrate.Voltage)
	require.NoError(p.SetDisplayMode(FrequencyMode))

	_, err = p.StartLogging(0, 0)
	require.NoError(err)

	p.OnBuffer(0, constant(16, 4000))
	p.OnBuffer(1, constant(16, 4000))

	entries, _ := s.get()
	require.Len(entries, 2)
	for _, e := range entries {
		assert.Equal(units.VoltageQuantity, e.Quantity)
		assert.Equal(calibrate.XO1.ToVoltage(4000), e.Value)
		assert.Equal("1.229V", e.Text)
	}

	readings := d.get()
	require.Len(readings, 2)
	assert.Equal(units.FrequencyQuantity, readings[0].Quantity)
}

func TestPeriodicLogging(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	mock := clock.NewMock()
	var s sessionRecorder

	const (
		interval = 2
		entries  = 3
	)

	p, err := New(testConfig(), &displayRecorder{}, &s, UseClock(mock))
	require.NoError(err)

	_, err = p.StartLogging(interval, entries)
	require.NoError(err)

	for tick := 0; tick < entries; tick++ {
		// Buffers before the timer fires are not logged.
		p.OnBuffer(0, constant(4, 1))
		p.OnBuffer(1, constant(4, 1))

		for i := 0; i < interval; i++ {
			mock.Add(time.Second)
		}
		require.Eventually(p.sched.SampleDue, time.Second, time.Millisecond)

		p.OnBuffer(1, constant(4, 5))
		p.OnBuffer(0, constant(4, int16(100+tick)))
		p.OnBuffer(1, constant(4, int16(200+tick)))
	}

	got, summaries := s.get()
	require.Len(got, 2*entries)
	for tick := 0; tick < entries; tick++ {
		assert.Equal(tick, got[2*tick].Tick)
		assert.Equal(0, got[2*tick].Channel)
		assert.Equal(float64(100+tick), got[2*tick].Value)
		assert.Equal(1, got[2*tick+1].Channel)
		assert.Equal(float64(200+tick), got[2*tick+1].Value)
	}

	require.Len(summaries, 1)
	assert.Equal(entries, summaries[0].Session.Count)
	assert.Equal(float64(2*entries), testutil.ToFloat64(p.metrics.logged))
}

func TestStopLogging(t *testing.T) {
	assert := assert.New(t)
	var s sessionRecorder

	p, err := New(testConfig(), &displayRecorder{}, &s)
	require.NoError(t, err)

	_, err = p.StartLogging(5, 5)
	require.NoError(t, err)

	_, err = p.StartLogging(1, 1)
	assert.ErrorIs(err, scheduler.ErrSessionActive)

	p.StopLogging()
	p.StopLogging()

	_, summaries := s.get()
	require.Len(t, summaries, 1)
	assert.Equal(scheduler.Stopped, summaries[0].Reason)
}

func TestBusyDropsOverlappingEmit(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	s := sessionRecorder{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}

	p, err := New(testConfig(), &displayRecorder{}, &s)
	require.NoError(err)

	_, err = p.StartLogging(0, 0)
	require.NoError(err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.OnBuffer(0, constant(4, 10))
	}()

	<-s.entered

	// Channel 1 arrives while channel 0 is still being written.  It must
	// return right away without logging.
	p.OnBuffer(1, constant(4, 20))
	assert.Equal(1.0, testutil.ToFloat64(p.metrics.busyDrops))

	go func() {
		<-s.entered
		s.release <- struct{}{}
	}()
	s.release <- struct{}{}
	<-done

	p.OnBuffer(1, constant(4, 30))

	entries, summaries := s.get()
	require.Len(entries, 2)
	assert.Equal(10.0, entries[0].Value)
	assert.Equal(30.0, entries[1].Value)
	assert.Len(summaries, 1)
}

func TestParseDisplayMode(t *testing.T) {
	for _, m := range []DisplayMode{TimeMode, FrequencyMode} {
		got, err := ParseDisplayMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	_, err := ParseDisplayMode("polar")
	assert.ErrorIs(t, err, ErrUnknownDisplayMode)
}
