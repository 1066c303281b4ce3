// SPDX-FileCopyrightText: 2022 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package units holds the calibrated physical quantities published for each
// channel along with their textual forms.
package units

import "errors"

var (
	ErrInvalidUnit = errors.New("invalid unit")
)
