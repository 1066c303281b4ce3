// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

//go:build !portaudio

package capture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func TestSoundCardNotBuilt(t *testing.T) {
	sc, err := NewSoundCard(SoundCardConfig{
		Channels:   2,
		SampleRate: 48 * physic.KiloHertz,
		BufferSize: 256,
	})
	require.NoError(t, err)

	err = sc.Start(context.Background(), HandlerFunc(func(int, []int16) {}))
	assert.ErrorIs(t, err, ErrNoSoundCard)

	// Stopping a source that never started is harmless.
	sc.Stop(context.Background())
}
