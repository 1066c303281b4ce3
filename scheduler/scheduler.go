// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package scheduler decides which captured buffers become logged values.
//
// A logging session produces one entry per channel every interval.  When the
// interval timer fires the scheduler waits for the next buffer on channel 0,
// then for channel 1 and so on, so that the channels of one tick are logged
// in order.  A tick that is still waiting for channels when the timer fires
// again is not restarted; the new fire is counted as an overrun and dropped.
package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	ErrInvalidChannels   = errors.New("channel count must be at least 1")
	ErrInvalidInterval   = errors.New("interval must not be negative")
	ErrInvalidMaxEntries = errors.New("max entries must be at least 1")
	ErrSessionActive     = errors.New("a logging session is already active")
)

// State is where the scheduler is in a session.
type State int

const (
	// Idle means no session is running.
	Idle State = iota

	// Armed means a session is running and waiting for the next tick.
	Armed

	// Sampling means a tick has begun and not every channel has been logged.
	Sampling

	// Done means the last tick completed and the session is being finalized.
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Sampling:
		return "sampling"
	case Done:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Reason is why a session ended.
type Reason int

const (
	Completed Reason = iota
	Stopped
)

func (r Reason) String() string {
	if r == Stopped {
		return "stopped"
	}
	return "completed"
}

func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Session describes a logging run.
type Session struct {
	ID         uint64    `json:"id"`
	Started    time.Time `json:"started"`
	Channels   int       `json:"channels"`
	Interval   int       `json:"interval"`
	MaxEntries int       `json:"max_entries"`

	// Count is the number of ticks fully logged so far.
	Count int `json:"count"`
}

// Summary is handed to the finalizer when a session ends.
type Summary struct {
	Session  Session   `json:"session"`
	Reason   Reason    `json:"reason"`
	Finished time.Time `json:"finished"`
}

// Ticket reserves the right to log one channel of one tick.  It is handed
// back to Complete once the value has been written.
type Ticket struct {
	Session uint64
	Channel int
	Tick    int
}

// Scheduler owns the logging state machine.  All methods are safe to call
// from the capture goroutines and the control surface at the same time.
type Scheduler struct {
	clock    clock.Clock
	period   time.Duration
	channels int
	finalize func(Summary)
	logger   *zap.Logger
	reg      prometheus.Registerer
	metrics  metrics

	m         sync.Mutex
	nextID    uint64
	state     State
	session   Session
	mask      []bool
	marked    int
	written   int
	sampleNow bool
	task      *task
}

// New creates a scheduler for the given number of channels.
func New(channels int, opts ...Option) (*Scheduler, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannels, channels)
	}

	s := Scheduler{
		clock:    clock.New(),
		period:   time.Second,
		channels: channels,
		finalize: func(Summary) {},
		logger:   zap.NewNop(),
		mask:     make([]bool, channels),
	}

	for _, opt := range opts {
		opt.apply(&s)
	}

	if s.finalize == nil {
		s.finalize = func(Summary) {}
	}
	s.metrics = newMetrics(s.reg)

	return &s, nil
}

// Start begins a logging session.  An interval of zero logs a single tick
// right away; otherwise one tick is logged every interval periods until
// maxEntries ticks have been logged.
func (s *Scheduler) Start(interval, maxEntries int) (Session, error) {
	if interval < 0 {
		return Session{}, fmt.Errorf("%w: %d", ErrInvalidInterval, interval)
	}
	if interval > 0 && maxEntries < 1 {
		return Session{}, fmt.Errorf("%w: %d", ErrInvalidMaxEntries, maxEntries)
	}

	s.m.Lock()
	defer s.m.Unlock()

	if s.state != Idle {
		return Session{}, fmt.Errorf("%w: session %d", ErrSessionActive, s.session.ID)
	}

	s.nextID++
	s.session = Session{
		ID:         s.nextID,
		Started:    s.clock.Now(),
		Channels:   s.channels,
		Interval:   interval,
		MaxEntries: maxEntries,
	}
	s.resetTick()

	if interval == 0 {
		s.session.MaxEntries = 1
		s.sampleNow = true
	} else {
		id := s.session.ID
		s.task = startTask(s.clock, time.Duration(interval)*s.period, func() {
			s.fire(id)
		})
	}

	s.setState(Armed)
	s.metrics.sessions.Inc()
	s.logger.Info("logging session started",
		zap.Uint64("session", s.session.ID),
		zap.Int("interval", interval),
		zap.Int("max_entries", s.session.MaxEntries),
	)

	return s.session, nil
}

// Stop ends the running session early.  Stopping an idle scheduler does
// nothing.  Tickets handed out before Stop are ignored by Complete.
func (s *Scheduler) Stop() {
	s.m.Lock()
	if s.state == Idle || s.state == Done {
		s.m.Unlock()
		return
	}

	t := s.task
	s.task = nil
	summary := Summary{
		Session:  s.session,
		Reason:   Stopped,
		Finished: s.clock.Now(),
	}
	s.resetTick()
	s.setState(Idle)
	s.m.Unlock()

	t.stop()
	s.logger.Info("logging session stopped",
		zap.Uint64("session", summary.Session.ID),
		zap.Int("entries", summary.Session.Count),
	)
	s.finalize(summary)
}

// Offer asks whether a buffer that just arrived on channel should be logged.
// When it should, the returned ticket must be passed to Complete after the
// value has been written.
func (s *Scheduler) Offer(channel int) (Ticket, bool) {
	if channel < 0 || channel >= s.channels {
		return Ticket{}, false
	}

	s.m.Lock()
	defer s.m.Unlock()

	switch s.state {
	case Armed:
		if !s.sampleNow || channel != 0 {
			return Ticket{}, false
		}
		s.sampleNow = false
		s.resetTick()
		s.setState(Sampling)
	case Sampling:
		if s.mask[channel] || channel != s.marked {
			s.metrics.outOfOrder.Inc()
			return Ticket{}, false
		}
	default:
		return Ticket{}, false
	}

	s.mask[channel] = true
	s.marked++

	return Ticket{
		Session: s.session.ID,
		Channel: channel,
		Tick:    s.session.Count,
	}, true
}

// Complete records that the value for t has been written.  When every
// channel of the tick is written the session either re-arms for the next
// tick or finishes.
func (s *Scheduler) Complete(t Ticket) {
	s.m.Lock()
	if s.state != Sampling || t.Session != s.session.ID || t.Tick != s.session.Count {
		s.m.Unlock()
		return
	}

	s.written++
	if s.written < s.channels {
		s.m.Unlock()
		return
	}

	s.session.Count++
	s.metrics.ticks.Inc()
	s.resetTick()

	if s.session.Count < s.session.MaxEntries {
		s.setState(Armed)
		s.m.Unlock()
		return
	}

	s.setState(Done)
	running := s.task
	s.task = nil
	summary := Summary{
		Session:  s.session,
		Reason:   Completed,
		Finished: s.clock.Now(),
	}
	s.m.Unlock()

	running.stop()
	s.logger.Info("logging session complete",
		zap.Uint64("session", summary.Session.ID),
		zap.Int("entries", summary.Session.Count),
	)
	s.finalize(summary)

	s.m.Lock()
	if s.state == Done && s.session.ID == summary.Session.ID {
		s.setState(Idle)
	}
	s.m.Unlock()
}

// fire is called by the periodic task.  It only raises the flag; the
// buffer path does the sampling.
func (s *Scheduler) fire(id uint64) {
	s.m.Lock()
	defer s.m.Unlock()

	if s.session.ID != id {
		return
	}

	switch s.state {
	case Armed:
		if s.sampleNow {
			s.overrun("no buffer arrived on channel 0 since the last fire")
		}
		s.sampleNow = true
	case Sampling:
		s.overrun("previous tick still sampling")
	}
}

func (s *Scheduler) overrun(why string) {
	s.metrics.overruns.Inc()
	s.logger.Debug("logging timer overrun",
		zap.Uint64("session", s.session.ID),
		zap.Int("tick", s.session.Count),
		zap.String("reason", why),
	)
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.m.Lock()
	defer s.m.Unlock()
	return s.state
}

// Active reports whether a session is running.
func (s *Scheduler) Active() bool {
	st := s.State()
	return st == Armed || st == Sampling
}

// Session returns the running or most recent session.
func (s *Scheduler) Session() Session {
	s.m.Lock()
	defer s.m.Unlock()
	return s.session
}

// SampleDue reports whether the next channel 0 buffer will begin a tick.
func (s *Scheduler) SampleDue() bool {
	s.m.Lock()
	defer s.m.Unlock()
	return s.state == Armed && s.sampleNow
}

// Channels returns the number of channels the scheduler was created for.
func (s *Scheduler) Channels() int {
	return s.channels
}

// resetTick clears the per tick bookkeeping.  s.m must be held.
func (s *Scheduler) resetTick() {
	for i := range s.mask {
		s.mask[i] = false
	}
	s.marked = 0
	s.written = 0
}

// setState changes the state.  s.m must be held.
func (s *Scheduler) setState(st State) {
	if st == Idle {
		s.sampleNow = false
	}
	s.state = st
	s.metrics.state.Set(float64(st))
}
