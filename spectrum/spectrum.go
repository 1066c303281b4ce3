// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package spectrum estimates the dominant frequency of a buffer of samples.
package spectrum

import (
	"math/cmplx"

	"github.com/andrepxx/go-dsp-guitar/fft"
)

// minSamples is the shortest input that still has a peak with two neighbours.
const minSamples = 3

// Estimator computes dominant frequencies and keeps its transform buffers
// between calls.  An Estimator must not be shared between goroutines.
type Estimator struct {
	ft  fft.FourierTransform
	in  []float64
	out []complex128
	mag []float64
}

// New creates an Estimator.
func New() *Estimator {
	return &Estimator{
		ft: fft.CreateFourierTransform(),
	}
}

// DominantHz returns the frequency in hertz of the strongest spectral
// component of samples taken at rateHz.  A peak at DC, silence and inputs
// too short to interpolate all yield 0.
func (e *Estimator) DominantHz(samples []int16, rateHz float64) float64 {
	n := len(samples)
	if n < minSamples || rateHz <= 0 {
		return 0.0
	}

	size, _ := fft.NextPowerOfTwo(uint64(n))
	if uint64(len(e.in)) != size {
		e.in = make([]float64, size)
		e.out = make([]complex128, size)
		e.mag = make([]float64, size/2+1)
	}

	for i, s := range samples {
		e.in[i] = float64(s)
	}
	fft.ZeroFloat(e.in[n:])

	if err := e.ft.RealFourier(e.in, e.out, fft.SCALING_DEFAULT); err != nil {
		return 0.0
	}

	// Bins 0 .. size/2-1 are searched; the Nyquist bin only serves as the
	// right hand neighbour of the last one.
	bins := len(e.mag) - 1
	peak := 0
	for k := range e.mag {
		e.mag[k] = cmplx.Abs(e.out[k])
		if k < bins && e.mag[k] > e.mag[peak] {
			peak = k
		}
	}

	if peak == 0 {
		return 0.0
	}

	a := e.mag[peak-1]
	b := e.mag[peak]
	c := e.mag[peak+1]

	sum := a + b + c
	if sum == 0 {
		return 0.0
	}

	delta := c/sum - a/sum

	return (float64(peak) + delta) * rateHz / (2.0 * float64(bins))
}
