// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package pipeline routes every captured buffer to the waveform history, the
// display and the logging scheduler.
package pipeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schmidtw/labscope/calibrate"
	"github.com/schmidtw/labscope/display"
	"github.com/schmidtw/labscope/journal"
	"github.com/schmidtw/labscope/ring"
	"github.com/schmidtw/labscope/scheduler"
	"github.com/schmidtw/labscope/spectrum"
	"github.com/schmidtw/labscope/trigger"
	"github.com/schmidtw/labscope/units"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/physic"
)

var (
	ErrInvalidConfig      = errors.New("invalid pipeline configuration")
	ErrInvalidChannel     = errors.New("invalid channel")
	ErrUnknownDisplayMode = errors.New("unknown display mode")
)

// DisplayMode selects what the display shows.
type DisplayMode int

const (
	// TimeMode shows the waveform and the calibrated value.
	TimeMode DisplayMode = iota

	// FrequencyMode shows the dominant frequency.
	FrequencyMode
)

// ParseDisplayMode returns the display mode named by s.
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "time":
		return TimeMode, nil
	case "frequency":
		return FrequencyMode, nil
	}
	return TimeMode, fmt.Errorf("%w: '%s'", ErrUnknownDisplayMode, s)
}

func (d DisplayMode) String() string {
	if d == FrequencyMode {
		return "frequency"
	}
	return "time"
}

// DisplaySink receives the throttled calibrated values.
type DisplaySink interface {
	PublishSampleValue(display.Reading)
}

// SessionSink receives logged values and session summaries.
type SessionSink interface {
	WriteLoggedValue(journal.Entry)
	SessionFinalized(scheduler.Summary)
}

// Config is the pipeline configuration.
type Config struct {
	// Channels defaults to the channel count of the profile.
	Channels   int
	SampleRate physic.Frequency

	// TimeCapacity and FrequencyCapacity are the ring sizes, in samples, used
	// by each display mode.
	TimeCapacity      int
	FrequencyCapacity int

	// DutyCycle publishes a display value every DutyCycle buffers per channel.
	DutyCycle int

	// TickPeriod is the duration of one logging interval unit.
	TickPeriod time.Duration

	Profile     calibrate.HardwareProfile
	SensorMode  calibrate.SensorMode
	DisplayMode DisplayMode
	TriggerMode trigger.Mode
	TriggerX    float64
	TriggerY    float64
	Geometry    trigger.Geometry
}

type channel struct {
	history *ring.Buffer
	count   atomic.Uint64

	// m guards the estimator, which keeps scratch buffers.
	m   sync.Mutex
	est *spectrum.Estimator
}

// Pipeline is the entry point for captured buffers.
type Pipeline struct {
	cfg      Config
	rateHz   float64
	clock    clock.Clock
	logger   *zap.Logger
	reg      prometheus.Registerer
	metrics  metrics
	display  DisplaySink
	sink     SessionSink
	sched    *scheduler.Scheduler
	channels []*channel

	busy        atomic.Bool
	frozen      atomic.Bool
	sensorMode  atomic.Int32
	displayMode atomic.Int32
	triggerMode atomic.Int32

	m        sync.RWMutex
	triggerX float64
	triggerY float64
}

// New creates a pipeline publishing to the display sink and logging to the
// session sink.
func New(cfg Config, d DisplaySink, s SessionSink, opts ...Option) (*Pipeline, error) {
	if d == nil || s == nil {
		return nil, fmt.Errorf("%w: a display and session sink are required", ErrInvalidConfig)
	}
	if cfg.Channels == 0 {
		cfg.Channels = cfg.Profile.Channels
	}
	if cfg.Channels < 1 {
		return nil, fmt.Errorf("%w: channels %d", ErrInvalidConfig, cfg.Channels)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %s", ErrInvalidConfig, cfg.SampleRate)
	}
	if cfg.TimeCapacity < 1 || cfg.FrequencyCapacity < 1 {
		return nil, fmt.Errorf("%w: capacities %d/%d", ErrInvalidConfig,
			cfg.TimeCapacity, cfg.FrequencyCapacity)
	}
	if cfg.DutyCycle < 1 {
		cfg.DutyCycle = 1
	}

	p := Pipeline{
		cfg:      cfg,
		rateHz:   float64(cfg.SampleRate) / float64(physic.Hertz),
		clock:    clock.New(),
		logger:   zap.NewNop(),
		display:  d,
		sink:     s,
		triggerX: cfg.TriggerX,
		triggerY: cfg.TriggerY,
	}

	for _, opt := range opts {
		opt.apply(&p)
	}

	p.sensorMode.Store(int32(cfg.SensorMode))
	p.displayMode.Store(int32(cfg.DisplayMode))
	p.triggerMode.Store(int32(cfg.TriggerMode))

	capacity := p.capacityFor(cfg.DisplayMode)
	for i := 0; i < cfg.Channels; i++ {
		history, err := ring.New(capacity)
		if err != nil {
			return nil, err
		}
		p.channels = append(p.channels, &channel{
			history: history,
			est:     spectrum.New(),
		})
	}

	sopts := []scheduler.Option{
		scheduler.UseClock(p.clock),
		scheduler.OnFinalize(s.SessionFinalized),
		scheduler.WithLogger(p.logger),
		scheduler.WithRegisterer(p.reg),
	}
	if cfg.TickPeriod > 0 {
		sopts = append(sopts, scheduler.TickPeriod(cfg.TickPeriod))
	}

	sched, err := scheduler.New(cfg.Channels, sopts...)
	if err != nil {
		return nil, err
	}
	p.sched = sched
	p.metrics = newMetrics(p.reg)

	return &p, nil
}

// OnBuffer handles one buffer of samples captured on a channel.  It never
// blocks on logging or display work done for another buffer.
func (p *Pipeline) OnBuffer(ch int, samples []int16) {
	if ch < 0 || ch >= len(p.channels) {
		p.metrics.ignored.Inc()
		return
	}
	c := p.channels[ch]
	p.metrics.buffers.WithLabelValues(strconv.Itoa(ch)).Inc()

	if !p.frozen.Load() {
		c.history.Append(samples...)
	}

	if p.sched.Active() {
		p.log(ch, samples)
	}

	if c.count.Add(1)%uint64(p.cfg.DutyCycle) == 0 {
		q, v := p.measure(ch, samples)
		p.display.PublishSampleValue(display.Reading{
			Channel:  ch,
			Quantity: q,
			Value:    v,
			Text:     q.Format(v),
			Time:     p.clock.Now(),
		})
		p.metrics.published.Inc()
	}
}

// log offers the buffer to the scheduler and writes the value when it is
// accepted.  A buffer that arrives while another emit is running is dropped.
func (p *Pipeline) log(ch int, samples []int16) {
	if !p.busy.CompareAndSwap(false, true) {
		p.metrics.busyDrops.Inc()
		p.logger.Debug("logging busy, buffer dropped", zap.Int("channel", ch))
		return
	}
	defer p.busy.Store(false)

	ticket, ok := p.sched.Offer(ch)
	if !ok {
		return
	}

	q, v := p.calibrated(samples)
	p.sink.WriteLoggedValue(journal.Entry{
		Session:  ticket.Session,
		Channel:  ticket.Channel,
		Tick:     ticket.Tick,
		Quantity: q,
		Value:    v,
		Text:     q.Format(v),
		Time:     p.clock.Now(),
	})
	p.metrics.logged.Inc()

	p.sched.Complete(ticket)
}

// measure computes the value shown for samples under the current modes.  In
// frequency mode the estimate covers the channel history, which the mode
// switch sized for it.
func (p *Pipeline) measure(ch int, samples []int16) (units.Quantity, float64) {
	if DisplayMode(p.displayMode.Load()) == FrequencyMode {
		c := p.channels[ch]
		history, _ := c.history.Read(1)
		if len(history) == 0 {
			history = samples
		}

		c.m.Lock()
		hz := c.est.DominantHz(history, p.rateHz)
		c.m.Unlock()
		return units.FrequencyQuantity, hz
	}

	return p.calibrated(samples)
}

// calibrated converts samples into the quantity of the current sensor mode.
// Logged values always come from here, whatever the display shows.
func (p *Pipeline) calibrated(samples []int16) (units.Quantity, float64) {
	mode := calibrate.SensorMode(p.sensorMode.Load())
	v := p.cfg.Profile.Calibrate(mode, samples)

	switch mode {
	case calibrate.Voltage:
		return units.VoltageQuantity, v
	case calibrate.Resistance:
		return units.ResistanceQuantity, v
	}
	return units.AmplitudeQuantity, v
}

func (p *Pipeline) capacityFor(mode DisplayMode) int {
	if mode == FrequencyMode {
		return p.cfg.FrequencyCapacity
	}
	return p.cfg.TimeCapacity
}

// SetFreezeDisplay pauses or resumes waveform history updates.  Logging and
// display values continue while frozen.
func (p *Pipeline) SetFreezeDisplay(on bool) {
	p.frozen.Store(on)
	if on {
		p.metrics.frozen.Set(1)
	} else {
		p.metrics.frozen.Set(0)
	}
}

// Frozen reports whether the waveform display is frozen.
func (p *Pipeline) Frozen() bool {
	return p.frozen.Load()
}

// StartLogging begins a logging session.
func (p *Pipeline) StartLogging(interval, maxEntries int) (scheduler.Session, error) {
	return p.sched.Start(interval, maxEntries)
}

// StopLogging ends the logging session, if any.
func (p *Pipeline) StopLogging() {
	p.sched.Stop()
}

// Logging returns the scheduler state and the running or most recent session.
func (p *Pipeline) Logging() (scheduler.State, scheduler.Session) {
	return p.sched.State(), p.sched.Session()
}

// SampleDue reports whether the next channel 0 buffer begins a logging tick.
func (p *Pipeline) SampleDue() bool {
	return p.sched.SampleDue()
}

// SetTriggerMode changes the trigger edge.
func (p *Pipeline) SetTriggerMode(m trigger.Mode) {
	p.triggerMode.Store(int32(m))
}

// SetTriggerLevel moves the trigger point.  Both values are fractions of the
// display, 0.5 being the centre.
func (p *Pipeline) SetTriggerLevel(x, y float64) {
	p.m.Lock()
	defer p.m.Unlock()

	p.triggerX = x
	p.triggerY = y
}

// SetDisplayMode switches between the waveform and frequency views, resizing
// the history of every channel to suit.
func (p *Pipeline) SetDisplayMode(m DisplayMode) error {
	capacity := p.capacityFor(m)
	for _, c := range p.channels {
		if err := c.history.Resize(capacity); err != nil {
			return err
		}
	}
	p.displayMode.Store(int32(m))
	return nil
}

// SetSensorMode changes what the attached sensor is taken to measure.
func (p *Pipeline) SetSensorMode(m calibrate.SensorMode) {
	p.sensorMode.Store(int32(m))
}

// Modes returns the current sensor, display and trigger modes.
func (p *Pipeline) Modes() (calibrate.SensorMode, DisplayMode, trigger.Mode) {
	return calibrate.SensorMode(p.sensorMode.Load()),
		DisplayMode(p.displayMode.Load()),
		trigger.Mode(p.triggerMode.Load())
}

// Channels returns the number of channels.
func (p *Pipeline) Channels() int {
	return len(p.channels)
}

// Waveform returns every stride-th sample of a channel's history, oldest
// first.
func (p *Pipeline) Waveform(ch, stride int) ([]int16, error) {
	if ch < 0 || ch >= len(p.channels) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
	}
	return p.channels[ch].history.Read(stride)
}

// Trigger returns the waveform of a channel along with where the trigger
// aligns it.
func (p *Pipeline) Trigger(ch, stride int) ([]int16, trigger.Result, error) {
	snapshot, err := p.Waveform(ch, stride)
	if err != nil {
		return nil, trigger.Result{}, err
	}

	p.m.RLock()
	x, y := p.triggerX, p.triggerY
	p.m.RUnlock()

	mode := trigger.Mode(p.triggerMode.Load())
	return snapshot, trigger.Locate(mode, snapshot, x, y, p.cfg.Geometry), nil
}
