// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package units

import "fmt"

// Quantity names what a published value measures.
type Quantity int

const (
	AmplitudeQuantity Quantity = iota
	VoltageQuantity
	ResistanceQuantity
	FrequencyQuantity
)

var quantityNames = map[Quantity]string{
	AmplitudeQuantity:  "amplitude",
	VoltageQuantity:    "voltage",
	ResistanceQuantity: "resistance",
	FrequencyQuantity:  "frequency",
}

func (q Quantity) String() string {
	if name, ok := quantityNames[q]; ok {
		return name
	}
	return fmt.Sprintf("Quantity(%d)", int(q))
}

// MarshalText lets the quantity appear by name in JSON.
func (q Quantity) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// Format renders v in the units of the quantity.
func (q Quantity) Format(v float64) string {
	switch q {
	case VoltageQuantity:
		return Voltage(v).String()
	case ResistanceQuantity:
		return Resistance(v).String()
	case FrequencyQuantity:
		return Frequency(v).String()
	}
	return Amplitude(v).String()
}
