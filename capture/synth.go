// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"periph.io/x/conn/v3/physic"
)

// Shape is the waveform a synthetic channel produces.
type Shape int

const (
	Sine Shape = iota
	Square
	Ramp
)

// ParseShape returns the shape named by s.
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sine", "":
		return Sine, nil
	case "square":
		return Square, nil
	case "ramp":
		return Ramp, nil
	}
	return Sine, fmt.Errorf("%w: unknown shape '%s'", ErrInvalidConfig, s)
}

// Wave describes one synthetic channel.
type Wave struct {
	Shape     Shape
	Frequency physic.Frequency
	Amplitude int16
	Offset    int16
}

// SynthConfig configures the synthetic source.
type SynthConfig struct {
	SampleRate physic.Frequency
	BufferSize int
	Waves      []Wave
}

type SynthOption interface {
	apply(s *Synth)
}

type synthOptionFunc func(*Synth)

func (f synthOptionFunc) apply(s *Synth) {
	f(s)
}

// UseClock provides a way to set the clock used.  This is used for testing.
func UseClock(c clock.Clock) SynthOption {
	return synthOptionFunc(func(s *Synth) {
		s.clock = c
	})
}

// Synth generates waveforms at the pace a real capture device would.
type Synth struct {
	m      sync.Mutex
	config SynthConfig
	clock  clock.Clock
	cancel context.CancelFunc
	wg     sync.WaitGroup

	phase []float64
	bufs  [][]int16
}

// NewSynth validates the configuration and creates the source.
func NewSynth(c SynthConfig, opts ...SynthOption) (*Synth, error) {
	if c.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %s", ErrInvalidConfig, c.SampleRate)
	}
	if c.BufferSize < 1 {
		return nil, fmt.Errorf("%w: buffer size %d", ErrInvalidConfig, c.BufferSize)
	}
	if len(c.Waves) == 0 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidConfig)
	}

	s := Synth{
		config: c,
		clock:  clock.New(),
		phase:  make([]float64, len(c.Waves)),
		bufs:   make([][]int16, len(c.Waves)),
	}
	for i := range s.bufs {
		s.bufs[i] = make([]int16, c.BufferSize)
	}

	for _, opt := range opts {
		opt.apply(&s)
	}

	return &s, nil
}

// Period is the time covered by one buffer.
func (s *Synth) Period() time.Duration {
	return time.Duration(s.config.BufferSize) * s.config.SampleRate.Period()
}

func (s *Synth) Start(ctx context.Context, h Handler) error {
	s.m.Lock()
	defer s.m.Unlock()

	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, s.cancel = context.WithCancel(ctx)
	ticker := s.clock.Ticker(s.Period())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for ch := range s.config.Waves {
					h.OnBuffer(ch, s.fill(ch))
				}
			}
		}
	}()

	return nil
}

func (s *Synth) Stop(ctx context.Context) {
	s.m.Lock()
	defer s.m.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.wg.Wait()
		s.cancel = nil
	}
}

// fill writes the next buffer of a channel, carrying the phase forward so
// consecutive buffers join up.
func (s *Synth) fill(ch int) []int16 {
	w := s.config.Waves[ch]
	step := float64(w.Frequency) / float64(s.config.SampleRate)
	buf := s.bufs[ch]

	phase := s.phase[ch]
	for i := range buf {
		buf[i] = sampleAt(w, phase)
		phase += step
		phase -= math.Floor(phase)
	}
	s.phase[ch] = phase

	return buf
}

// sampleAt returns the value of the wave at phase, a fraction of a cycle.
func sampleAt(w Wave, phase float64) int16 {
	var v float64
	switch w.Shape {
	case Square:
		v = 1.0
		if phase >= 0.5 {
			v = -1.0
		}
	case Ramp:
		v = 2.0*phase - 1.0
	default:
		v = math.Sin(2.0 * math.Pi * phase)
	}

	out := float64(w.Offset) + v*float64(w.Amplitude)
	return int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(out))))
}
