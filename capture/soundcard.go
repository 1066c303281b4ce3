// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
)

// SoundCardConfig configures capture from the default input device.
type SoundCardConfig struct {
	Channels   int
	SampleRate physic.Frequency
	BufferSize int
}

// stream is the part of a portaudio stream the sound card uses.
type stream interface {
	Start() error
	Stop() error
	Close() error
}

// SoundCard captures interleaved 16 bit frames and hands each channel to the
// handler separately.
type SoundCard struct {
	m      sync.Mutex
	config SoundCardConfig
	stream stream
	bufs   [][]int16

	// open is replaced in tests.
	open func(c SoundCardConfig, cb func([]int16)) (stream, error)
}

// NewSoundCard validates the configuration and creates the source.
func NewSoundCard(c SoundCardConfig) (*SoundCard, error) {
	if c.Channels < 1 {
		return nil, fmt.Errorf("%w: channels %d", ErrInvalidConfig, c.Channels)
	}
	if c.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %s", ErrInvalidConfig, c.SampleRate)
	}
	if c.BufferSize < 1 {
		return nil, fmt.Errorf("%w: buffer size %d", ErrInvalidConfig, c.BufferSize)
	}

	return &SoundCard{
		config: c,
		open:   openDefaultStream,
	}, nil
}

func (s *SoundCard) Start(ctx context.Context, h Handler) error {
	s.m.Lock()
	defer s.m.Unlock()

	if s.stream != nil {
		return ErrAlreadyStarted
	}

	// The callback runs on the portaudio thread, one call at a time.
	cb := func(in []int16) {
		s.bufs = Deinterleave(in, s.config.Channels, s.bufs)
		for ch, buf := range s.bufs {
			h.OnBuffer(ch, buf)
		}
	}

	st, err := s.open(s.config, cb)
	if err != nil {
		return err
	}

	if err := st.Start(); err != nil {
		_ = st.Close()
		return err
	}

	s.stream = st
	return nil
}

func (s *SoundCard) Stop(ctx context.Context) {
	s.m.Lock()
	defer s.m.Unlock()

	if s.stream == nil {
		return
	}

	_ = s.stream.Stop()
	_ = s.stream.Close()
	s.stream = nil
}
