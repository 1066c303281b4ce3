// SPDX-FileCopyrightText: 2022 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package adc captures voltage and resistance readings from an ADS1115
// converter on an I2C bus.
package adc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/schmidtw/labscope/capture"
	"github.com/schmidtw/labscope/units"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
)

var (
	errSampleRateTooFast = errors.New("sample rate too fast")
	errInvalidInput      = errors.New("invalid input")
	errNoInputs          = errors.New("no inputs configured")
)

// The ADS1115 converts at most 860 samples per second, shared by every
// input that is read.
const maxConversionRate = 860 * physic.Hertz

var (
	// Single ended inputs of the converter.
	inputToChannel = map[int]ads1x15.Channel{
		0: ads1x15.Channel0,
		1: ads1x15.Channel1,
		2: ads1x15.Channel2,
		3: ads1x15.Channel3,
	}
)

type Config struct {
	I2cFile string

	I2CAddress int
	Inputs     []int
	MaxVoltage units.Voltage
	SampleRate physic.Frequency
	BufferSize int
}

type Option interface {
	apply(a *ADC)
}

type optionFunc func(*ADC)

func (f optionFunc) apply(a *ADC) {
	f(a)
}

// UseClock provides a way to set the clock used.  This is used for testing.
func UseClock(c clock.Clock) Option {
	return optionFunc(func(a *ADC) {
		a.clock = c
	})
}

// ADC polls the configured inputs and delivers one buffer per input each
// time BufferSize readings have been collected.
type ADC struct {
	m      sync.Mutex
	config Config
	clock  clock.Clock
	cancel context.CancelFunc

	ioWrapper adcWrapper
	pins      []reader
	wg        sync.WaitGroup
}

type reader interface {
	Read() (analog.Sample, error)
	Halt() error
}

type adcWrapper interface {
	Open(string) error
	Close() error
	Connect(addr int, ch ads1x15.Channel, maxV physic.ElectricPotential, f physic.Frequency) (reader, error)
}

func New(c Config, opts ...Option) (*ADC, error) {
	if len(c.Inputs) == 0 {
		return nil, errNoInputs
	}
	for _, in := range c.Inputs {
		if _, ok := inputToChannel[in]; !ok {
			return nil, fmt.Errorf("%w: %d", errInvalidInput, in)
		}
	}
	if c.SampleRate <= 0 || c.SampleRate*physic.Frequency(len(c.Inputs)) > maxConversionRate {
		return nil, fmt.Errorf("%w: %s for %d inputs", errSampleRateTooFast, c.SampleRate, len(c.Inputs))
	}
	if c.BufferSize < 1 {
		c.BufferSize = 32
	}
	if c.MaxVoltage <= 0 {
		c.MaxVoltage = 4.096
	}
	if c.I2CAddress == 0 {
		c.I2CAddress = int(ads1x15.DefaultOpts.I2cAddress)
	}

	a := ADC{
		config:    c,
		clock:     clock.New(),
		ioWrapper: &hwWrapper{},
	}

	for _, opt := range opts {
		opt.apply(&a)
	}

	return &a, nil
}

func (a *ADC) Start(ctx context.Context, h capture.Handler) (err error) {
	a.m.Lock()
	defer a.m.Unlock()

	if a.cancel != nil {
		return capture.ErrAlreadyStarted
	}

	if err := a.ioWrapper.Open(a.config.I2cFile); err != nil {
		return err
	}

	a.pins = a.pins[:0]
	for _, in := range a.config.Inputs {
		pin, err := a.ioWrapper.Connect(a.config.I2CAddress, inputToChannel[in],
			a.config.MaxVoltage.Potential(), a.config.SampleRate)
		if err != nil {
			_ = a.ioWrapper.Close()
			return err
		}
		a.pins = append(a.pins, pin)
	}

	ctx, a.cancel = context.WithCancel(ctx)
	sampleTicker := a.clock.Ticker(a.config.SampleRate.Period())

	a.wg.Add(1)
	go a.loop(ctx, sampleTicker, h)

	return nil
}

func (a *ADC) Stop(ctx context.Context) {
	a.m.Lock()
	defer a.m.Unlock()

	if a.cancel != nil {
		a.cancel()
		a.wg.Wait()
		a.cancel = nil
	}

	for _, pin := range a.pins {
		_ = pin.Halt()
	}
	a.pins = a.pins[:0]

	_ = a.ioWrapper.Close()
}

func (a *ADC) loop(ctx context.Context, sampleTicker *clock.Ticker, h capture.Handler) {
	defer a.wg.Done()
	defer sampleTicker.Stop()

	bufs := make([][]int16, len(a.pins))
	for i := range bufs {
		bufs[i] = make([]int16, 0, a.config.BufferSize)
	}

	for {
		select {
		case <-sampleTicker.C:
			if !a.readAll(bufs) {
				continue
			}
			if len(bufs[0]) < a.config.BufferSize {
				continue
			}
			for ch := range bufs {
				h.OnBuffer(ch, bufs[ch])
				bufs[ch] = bufs[ch][:0]
			}
		case <-ctx.Done():
			return
		}
	}
}

// readAll reads one sample from every pin.  A failed read discards the whole
// frame so the channels stay in step.
func (a *ADC) readAll(bufs [][]int16) bool {
	frame := make([]int16, len(a.pins))
	for i, pin := range a.pins {
		s, err := pin.Read()
		if err != nil {
			return false
		}
		frame[i] = clampRaw(s.Raw)
	}

	for i := range bufs {
		bufs[i] = append(bufs[i], frame[i])
	}
	return true
}

func clampRaw(raw int32) int16 {
	if raw > math.MaxInt16 {
		return math.MaxInt16
	}
	if raw < math.MinInt16 {
		return math.MinInt16
	}
	return int16(raw)
}
