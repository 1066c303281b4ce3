// SPDX-FileCopyrightText: 2022 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package units

import (
	"fmt"
	"strconv"
	"strings"
)

// suffix maps a unit suffix to the multiplier into the base unit.  Longer
// suffixes must be listed before the shorter suffixes they end with.
type suffix struct {
	chompS bool
	suffix string
	scale  float64
}

func parse(s string, list []suffix) (float64, error) {
	known := make([]string, 0, len(list))
	lower := strings.ToLower(strings.TrimSpace(s))

	for _, unit := range list {
		hasSuffix := strings.HasSuffix(lower, unit.suffix)
		hasS := strings.HasSuffix(lower, unit.suffix+"s")
		if hasSuffix || unit.chompS && hasS {
			num := lower
			if hasSuffix {
				num = num[:len(num)-len(unit.suffix)]
			} else {
				num = num[:len(num)-len(unit.suffix+"s")]
			}

			n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
			if err != nil {
				return 0.0, fmt.Errorf("%w: '%s' %v", ErrInvalidUnit, s, err)
			}
			return n * unit.scale, nil
		}
		known = append(known, unit.suffix)
	}

	return 0.0, fmt.Errorf("%w: unknown unit for '%s' valid: %s",
		ErrInvalidUnit, s, strings.Join(known, ", "))
}
