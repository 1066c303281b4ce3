// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package capture provides the sources that deliver sample buffers.
package capture

import (
	"context"
	"errors"
)

var (
	ErrInvalidConfig  = errors.New("invalid capture configuration")
	ErrAlreadyStarted = errors.New("already started")
	ErrNoSoundCard    = errors.New("built without sound card support, rebuild with -tags portaudio")
)

// Handler receives every captured buffer.  The samples are only valid for
// the duration of the call.
type Handler interface {
	OnBuffer(channel int, samples []int16)
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(channel int, samples []int16)

func (f HandlerFunc) OnBuffer(channel int, samples []int16) {
	f(channel, samples)
}

// Source is something that captures buffers until it is stopped.
type Source interface {
	Start(ctx context.Context, h Handler) error
	Stop(ctx context.Context)
}

// Deinterleave splits frames of interleaved samples into one slice per
// channel, reusing out when it is large enough.
func Deinterleave(in []int16, channels int, out [][]int16) [][]int16 {
	if channels < 1 {
		return nil
	}

	frames := len(in) / channels
	if cap(out) < channels {
		out = make([][]int16, channels)
	}
	out = out[:channels]

	for ch := range out {
		if out[ch] == nil || cap(out[ch]) < frames {
			out[ch] = make([]int16, frames)
		}
		out[ch] = out[ch][:frames]
	}

	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			out[ch][f] = in[f*channels+ch]
		}
	}

	return out
}
