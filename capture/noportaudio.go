// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

//go:build !portaudio

package capture

// Without the portaudio tag the binary carries no cgo sound card support.
func openDefaultStream(SoundCardConfig, func([]int16)) (stream, error) {
	return nil, ErrNoSoundCard
}
