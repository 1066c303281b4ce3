// SPDX-FileCopyrightText: 2022 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package units

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3/physic"
)

// Voltage is an electric potential stored as a float64 in volts.
type Voltage float64

// ParseVoltage sets the voltage based on the string provided.  Both a number
// and units are required.
func ParseVoltage(s string) (Voltage, error) {
	v, err := parse(s, []suffix{
		{chompS: true, suffix: "millivolt", scale: 0.001},
		{chompS: true, suffix: "microvolt", scale: 0.000001},
		{chompS: true, suffix: "volt", scale: 1.0},
		{chompS: false, suffix: "mv", scale: 0.001},
		{chompS: false, suffix: "uv", scale: 0.000001},
		{chompS: false, suffix: "v", scale: 1.0},
	})
	return Voltage(v), err
}

// Potential converts the voltage into the periph representation, rounded to
// the nearest nanovolt.
func (v Voltage) Potential() physic.ElectricPotential {
	return physic.ElectricPotential(math.Round(float64(v) * float64(physic.Volt)))
}

// FromPotential converts a periph electric potential into a Voltage.
func FromPotential(p physic.ElectricPotential) Voltage {
	return Voltage(float64(p) / float64(physic.Volt))
}

// String returns the voltage formatted as a string in V.
func (v Voltage) String() string {
	return fmt.Sprintf("%.3fV", float64(v))
}
