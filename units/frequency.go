// SPDX-FileCopyrightText: 2022 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package units

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// Frequency is a frequency stored as a float64 in hertz.
type Frequency float64

// FromFrequency converts a periph frequency into a Frequency.
func FromFrequency(f physic.Frequency) Frequency {
	return Frequency(float64(f) / float64(physic.Hertz))
}

// Hertz returns the frequency as a float64 in hertz.
func (f Frequency) Hertz() float64 {
	return float64(f)
}

// String returns the frequency formatted as a string in Hz.
func (f Frequency) String() string {
	return fmt.Sprintf("%.2fHz", float64(f))
}

// Amplitude is the mean magnitude of a sound buffer in raw sample units.
type Amplitude float64

// String returns the amplitude truncated to a whole number of sample units.
func (a Amplitude) String() string {
	return fmt.Sprintf("%d", int64(a))
}
