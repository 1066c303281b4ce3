// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

//go:build portaudio

package capture

import (
	"github.com/gordonklaus/portaudio"
	"periph.io/x/conn/v3/physic"
)

func openDefaultStream(c SoundCardConfig, cb func([]int16)) (stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}

	rate := float64(c.SampleRate) / float64(physic.Hertz)
	s, err := portaudio.OpenDefaultStream(c.Channels, 0, rate, c.BufferSize, cb)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}

	return &terminating{Stream: s}, nil
}

// terminating releases portaudio along with the stream.
type terminating struct {
	*portaudio.Stream
}

func (t *terminating) Close() error {
	err := t.Stream.Close()
	if e := portaudio.Terminate(); e != nil && err == nil {
		err = e
	}
	return err
}
