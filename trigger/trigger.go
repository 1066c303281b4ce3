// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package trigger finds the edge crossing that keeps a repeating waveform
// still across display frames.
package trigger

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrUnknownMode = errors.New("unknown trigger mode")
)

// Mode is the edge direction the trigger waits for.
type Mode int

const (
	None Mode = iota
	Rising
	Falling
)

var modeNames = map[Mode]string{
	None:    "none",
	Rising:  "rising",
	Falling: "falling",
}

// ParseMode returns the trigger mode named by s.
func ParseMode(s string) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == key {
			return m, nil
		}
	}
	return None, fmt.Errorf("%w: '%s'", ErrUnknownMode, s)
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Geometry describes the display the snapshot is aligned for.
type Geometry struct {
	// Width is the number of samples shown across the display.
	Width int

	// Scale is the raw sample span covering the full display height.
	Scale float64

	// Window is the number of samples searched for a crossing, going back
	// from the newest usable sample.  Zero searches the whole snapshot.
	Window int
}

// Result is the alignment found for a snapshot.
type Result struct {
	// Position is the index of the sample the display is aligned to.
	Position int

	// Tail is the number of samples drawn after the trigger point.
	Tail int

	// Offset is the fraction of a sample between Position and Position+1
	// where the level is crossed.
	Offset float64

	// Found reports whether a crossing was located.  When false Position is
	// the unaligned tail fallback.
	Found bool
}

// Locate finds the newest crossing of the trigger level in snapshot.  x is
// the horizontal trigger position as a fraction of the display width and y
// the trigger level as a fraction of the display height, 0.5 being the
// centre.  The snapshot is not modified.
func Locate(mode Mode, snapshot []int16, x, y float64, g Geometry) Result {
	level := (y - 0.5) * g.Scale
	tail := int(math.Round((1.0 - clamp01(x)) * float64(g.Width)))
	if tail < 0 {
		tail = 0
	}

	start := len(snapshot) - tail - 2
	fallback := Result{
		Position: start,
		Tail:     tail,
	}
	if fallback.Position < 0 {
		fallback.Position = 0
	}

	if mode == None || start < 0 {
		return fallback
	}

	stop := 0
	if g.Window > 0 && start-g.Window+1 > 0 {
		stop = start - g.Window + 1
	}

	for i := start; i >= stop; i-- {
		a := float64(snapshot[i])
		b := float64(snapshot[i+1])

		crossed := false
		switch mode {
		case Rising:
			crossed = a <= level && b > level
		case Falling:
			crossed = a >= level && b < level
		}

		if crossed {
			return Result{
				Position: i,
				Tail:     tail,
				Offset:   (level - a) / (b - a),
				Found:    true,
			}
		}
	}

	return fallback
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
