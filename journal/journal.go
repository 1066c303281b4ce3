// SPDX-FileCopyrightText: 2022 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package journal keeps the values logged by recent sessions in memory.
package journal

import (
	"container/list"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/schmidtw/labscope/scheduler"
	"github.com/schmidtw/labscope/units"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Config provides the journal configuration options.
type Config struct {
	MaxEntries  int `mapstructure:"max_entries"`
	MaxSessions int `mapstructure:"max_sessions"`
}

type Option interface {
	apply(j *Journal)
}

// Entry is one logged value.
type Entry struct {
	Session  uint64         `json:"session"`
	Channel  int            `json:"channel"`
	Tick     int            `json:"tick"`
	Quantity units.Quantity `json:"quantity"`
	Value    float64        `json:"value"`
	Text     string         `json:"text"`
	Time     time.Time      `json:"time"`
}

// Journal is a bounded log of entries, newest first.
type Journal struct {
	mutex       sync.Mutex
	clock       clock.Clock
	maxEntries  int
	maxSessions int
	entries     list.List
	sessions    list.List
}

// New makes a new journal.
func New(cfg Config, opts ...Option) (*Journal, error) {
	if cfg.MaxEntries < 0 || cfg.MaxSessions < 0 {
		return nil, ErrInvalidParameter
	}
	if cfg.MaxEntries == 0 {
		cfg.MaxEntries = 1000
	}
	if cfg.MaxSessions == 0 {
		cfg.MaxSessions = 10
	}

	j := Journal{
		clock:       clock.New(),
		maxEntries:  cfg.MaxEntries,
		maxSessions: cfg.MaxSessions,
	}

	j.entries.Init()
	j.sessions.Init()

	for _, opt := range opts {
		opt.apply(&j)
	}

	return &j, nil
}

// WriteLoggedValue records e.  A zero time is replaced with the current time.
func (j *Journal) WriteLoggedValue(e Entry) {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if e.Time.IsZero() {
		e.Time = j.clock.Now()
	}
	if e.Text == "" {
		e.Text = e.Quantity.Format(e.Value)
	}

	j.entries.PushFront(e)

	for j.entries.Len() > j.maxEntries {
		j.entries.Remove(j.entries.Back())
	}
}

// SessionFinalized records the summary of a finished session.
func (j *Journal) SessionFinalized(s scheduler.Summary) {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	j.sessions.PushFront(s)

	for j.sessions.Len() > j.maxSessions {
		j.sessions.Remove(j.sessions.Back())
	}
}

// Entries returns the entries of a session, oldest first.
func (j *Journal) Entries(session uint64) []Entry {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	var out []Entry
	for e := j.entries.Back(); e != nil; e = e.Prev() {
		entry := e.Value.(Entry)
		if entry.Session == session {
			out = append(out, entry)
		}
	}
	return out
}

// Sessions returns the summaries of finished sessions, newest first.
func (j *Journal) Sessions() []scheduler.Summary {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	out := make([]scheduler.Summary, 0, j.sessions.Len())
	for e := j.sessions.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(scheduler.Summary))
	}
	return out
}

// Rate returns the number of entries per minute written over the duration.
func (j *Journal) Rate(over time.Duration) float64 {
	if over <= 0 {
		return 0.0
	}

	j.mutex.Lock()
	defer j.mutex.Unlock()

	until := j.clock.Now().Add(-1 * over)

	var count int
	for e := j.entries.Front(); e != nil; e = e.Next() {
		if !until.Before(e.Value.(Entry).Time) {
			break
		}
		count++
	}

	return float64(count) / over.Minutes()
}

// Len returns the number of entries held.
func (j *Journal) Len() int {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	return j.entries.Len()
}

// UseClock provides a way to set the clock used.  This is used for testing.
func UseClock(c clock.Clock) Option {
	return &clockOption{clk: c}
}

type clockOption struct {
	clk clock.Clock
}

func (c clockOption) apply(j *Journal) {
	j.clock = c.clk
}
