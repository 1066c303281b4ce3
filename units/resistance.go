// SPDX-FileCopyrightText: 2022 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package units

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3/physic"
)

// Resistance is an electric resistance stored as a float64 in ohms.
type Resistance float64

// ParseResistance sets the resistance based on the string provided.  Both a
// number and units are required.
func ParseResistance(s string) (Resistance, error) {
	r, err := parse(s, []suffix{
		{chompS: true, suffix: "megaohm", scale: 1000000.0},
		{chompS: true, suffix: "kiloohm", scale: 1000.0},
		{chompS: true, suffix: "ohm", scale: 1.0},
		{chompS: false, suffix: "mω", scale: 1000000.0},
		{chompS: false, suffix: "kω", scale: 1000.0},
		{chompS: false, suffix: "ω", scale: 1.0},
		{chompS: false, suffix: "m", scale: 1000000.0},
		{chompS: false, suffix: "k", scale: 1000.0},
	})
	return Resistance(r), err
}

// Ohms converts the resistance into the periph representation, rounded to the
// nearest nano ohm.
func (r Resistance) Ohms() physic.ElectricResistance {
	return physic.ElectricResistance(math.Round(float64(r) * float64(physic.Ohm)))
}

// String returns the resistance formatted as a string in Ω.
func (r Resistance) String() string {
	return fmt.Sprintf("%.0fΩ", float64(r))
}
