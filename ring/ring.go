// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package ring provides the fixed capacity sample store that backs the live
// waveform display of each channel.
package ring

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrInvalidCapacity = errors.New("invalid capacity")
	ErrInvalidStride   = errors.New("invalid stride")
)

// Buffer holds the most recent samples of one channel.  Appends evict the
// oldest samples once the capacity is reached.  A single writer and any
// number of readers may use a Buffer concurrently.
type Buffer struct {
	m      sync.RWMutex
	values []int16

	// next is the index the next sample is written to; it also points at the
	// oldest sample once the buffer is full.
	next  int
	count int
}

// New creates an empty Buffer able to hold capacity samples.
func New(capacity int) (*Buffer, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	return &Buffer{
		values: make([]int16, capacity),
	}, nil
}

// Append adds the samples to the buffer, discarding the oldest samples when
// the capacity is exceeded.
func (b *Buffer) Append(samples ...int16) {
	if len(samples) == 0 {
		return
	}

	b.m.Lock()
	defer b.m.Unlock()

	n := len(b.values)

	// Only the tail of an oversized append can survive.
	if len(samples) >= n {
		copy(b.values, samples[len(samples)-n:])
		b.next = 0
		b.count = n
		return
	}

	end := b.next + len(samples)
	if end <= n {
		copy(b.values[b.next:end], samples)
	} else {
		tail := n - b.next
		copy(b.values[b.next:], samples[:tail])
		copy(b.values, samples[tail:])
	}
	b.next = end % n

	b.count += len(samples)
	if b.count > n {
		b.count = n
	}
}

// Read returns a copy of the buffered samples in chronological order, taking
// every stride-th sample starting with the oldest one.  Reading does not
// change the buffer.
func (b *Buffer) Read(stride int) ([]int16, error) {
	if stride < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStride, stride)
	}

	b.m.RLock()
	defer b.m.RUnlock()

	out := make([]int16, 0, (b.count+stride-1)/stride)
	for i := 0; i < b.count; i += stride {
		out = append(out, b.values[b.index(i)])
	}

	return out, nil
}

// Resize changes the capacity, keeping as many of the most recent samples as
// fit into the new capacity.
func (b *Buffer) Resize(capacity int) error {
	if capacity < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	b.m.Lock()
	defer b.m.Unlock()

	keep := b.count
	if keep > capacity {
		keep = capacity
	}

	values := make([]int16, capacity)
	skip := b.count - keep
	for i := 0; i < keep; i++ {
		values[i] = b.values[b.index(skip+i)]
	}

	b.values = values
	b.count = keep
	b.next = keep % capacity

	return nil
}

// Len returns the number of samples held.
func (b *Buffer) Len() int {
	b.m.RLock()
	defer b.m.RUnlock()

	return b.count
}

// Cap returns the capacity of the buffer.
func (b *Buffer) Cap() int {
	b.m.RLock()
	defer b.m.RUnlock()

	return len(b.values)
}

// index maps the i-th oldest sample to its slot.  The caller holds the lock.
func (b *Buffer) index(i int) int {
	n := len(b.values)
	oldest := b.next
	if b.count < n {
		oldest = 0
	}
	return (oldest + i) % n
}
