// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package display keeps the most recent reading of every channel so that a
// renderer can show it.
package display

import (
	"sort"
	"sync"
	"time"

	"github.com/schmidtw/labscope/units"
)

// Reading is one value published for a channel.
type Reading struct {
	Channel  int            `json:"channel"`
	Quantity units.Quantity `json:"quantity"`
	Value    float64        `json:"value"`
	Text     string         `json:"text"`
	Time     time.Time      `json:"time"`
}

// Board holds the latest reading per channel.
type Board struct {
	m         sync.RWMutex
	latest    map[int]Reading
	nextID    uint64
	listeners map[uint64]func(Reading)
}

// NewBoard creates an empty board.  Each listener is called after a reading is
// stored.
func NewBoard(listeners ...func(Reading)) *Board {
	b := Board{
		latest:    make(map[int]Reading),
		listeners: make(map[uint64]func(Reading)),
	}
	for _, fn := range listeners {
		b.Subscribe(fn)
	}
	return &b
}

// Subscribe adds a listener called with every reading published from now on.
// Listeners run on the capture path and must not block.  The returned
// function removes the listener.
func (b *Board) Subscribe(fn func(Reading)) func() {
	b.m.Lock()
	defer b.m.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners[id] = fn

	return func() {
		b.m.Lock()
		defer b.m.Unlock()
		delete(b.listeners, id)
	}
}

// Subscribers returns the number of listeners.
func (b *Board) Subscribers() int {
	b.m.RLock()
	defer b.m.RUnlock()
	return len(b.listeners)
}

// PublishSampleValue stores r as the current reading of its channel.
func (b *Board) PublishSampleValue(r Reading) {
	if r.Text == "" {
		r.Text = r.Quantity.Format(r.Value)
	}

	b.m.Lock()
	b.latest[r.Channel] = r
	listeners := make([]func(Reading), 0, len(b.listeners))
	for _, fn := range b.listeners {
		listeners = append(listeners, fn)
	}
	b.m.Unlock()

	for _, fn := range listeners {
		fn(r)
	}
}

// Readings returns the latest reading of every channel ordered by channel.
func (b *Board) Readings() []Reading {
	b.m.RLock()
	out := make([]Reading, 0, len(b.latest))
	for _, r := range b.latest {
		out = append(out, r)
	}
	b.m.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Channel < out[j].Channel
	})
	return out
}
