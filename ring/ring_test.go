// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package ring

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(from, to int) []int16 {
	out := make([]int16, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, int16(i))
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		description string
		capacity    int
		expectErr   error
	}{
		{
			description: "basic test",
			capacity:    10,
		}, {
			description: "single sample",
			capacity:    1,
		}, {
			description: "zero capacity",
			capacity:    0,
			expectErr:   ErrInvalidCapacity,
		}, {
			description: "negative capacity",
			capacity:    -3,
			expectErr:   ErrInvalidCapacity,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)

			b, err := New(tc.capacity)

			if tc.expectErr == nil {
				assert.NoError(err)
				require.NotNil(t, b)
				assert.Equal(tc.capacity, b.Cap())
				assert.Equal(0, b.Len())
				return
			}

			assert.ErrorIs(err, tc.expectErr)
			assert.Nil(b)
		})
	}
}

func TestAppendEviction(t *testing.T) {
	tests := []struct {
		description string
		capacity    int
		appends     [][]int16
		expect      []int16
	}{
		{
			description: "empty",
			capacity:    4,
			expect:      []int16{},
		}, {
			description: "partially filled",
			capacity:    4,
			appends:     [][]int16{{1, 2}},
			expect:      []int16{1, 2},
		}, {
			description: "exactly full",
			capacity:    4,
			appends:     [][]int16{{1, 2}, {3, 4}},
			expect:      []int16{1, 2, 3, 4},
		}, {
			description: "wraps around",
			capacity:    4,
			appends:     [][]int16{{1, 2}, {3}, {4, 5, 6}},
			expect:      []int16{3, 4, 5, 6},
		}, {
			description: "single append larger than capacity",
			capacity:    3,
			appends:     [][]int16{{1}, seq(10, 20)},
			expect:      []int16{17, 18, 19},
		}, {
			description: "capacity of one",
			capacity:    1,
			appends:     [][]int16{{1}, {2}, {3}},
			expect:      []int16{3},
		}, {
			description: "empty append is ignored",
			capacity:    2,
			appends:     [][]int16{{1}, {}, {2}},
			expect:      []int16{1, 2},
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			b, err := New(tc.capacity)
			require.NoError(err)

			for _, a := range tc.appends {
				b.Append(a...)
			}

			got, err := b.Read(1)
			require.NoError(err)
			assert.Equal(tc.expect, got)
			assert.Equal(len(tc.expect), b.Len())
		})
	}
}

// Whatever the append pattern, the buffer holds exactly the most recent
// capacity samples in their original order.
func TestFIFOLaw(t *testing.T) {
	for capacity := 1; capacity <= 9; capacity++ {
		for chunk := 1; chunk <= 11; chunk++ {
			b, err := New(capacity)
			require.NoError(t, err)

			all := seq(0, 50)
			for i := 0; i < len(all); i += chunk {
				end := i + chunk
				if end > len(all) {
					end = len(all)
				}
				b.Append(all[i:end]...)

				got, err := b.Read(1)
				require.NoError(t, err)

				start := end - capacity
				if start < 0 {
					start = 0
				}
				assert.Equal(t, all[start:end], got, "capacity %d chunk %d end %d", capacity, chunk, end)
			}
		}
	}
}

func TestReadStride(t *testing.T) {
	b, err := New(10)
	require.NoError(t, err)
	b.Append(seq(0, 13)...)

	full, err := b.Read(1)
	require.NoError(t, err)
	assert.Equal(t, seq(3, 13), full)

	for stride := 1; stride <= 12; stride++ {
		got, err := b.Read(stride)
		require.NoError(t, err)

		var expect []int16
		for i := 0; i < len(full); i += stride {
			expect = append(expect, full[i])
		}
		assert.Equal(t, expect, got, "stride %d", stride)
	}

	// Reads are repeatable.
	again, err := b.Read(1)
	require.NoError(t, err)
	assert.Equal(t, full, again)
}

func TestReadInvalidStride(t *testing.T) {
	b, err := New(4)
	require.NoError(t, err)

	for _, stride := range []int{0, -1} {
		got, err := b.Read(stride)
		assert.ErrorIs(t, err, ErrInvalidStride)
		assert.Nil(t, got)
	}
}

func TestResize(t *testing.T) {
	tests := []struct {
		description string
		capacity    int
		fill        []int16
		resize      int
		then        []int16
		expect      []int16
		expectErr   error
	}{
		{
			description: "shrink keeps the newest",
			capacity:    6,
			fill:        seq(0, 9),
			resize:      3,
			expect:      []int16{6, 7, 8},
		}, {
			description: "grow keeps everything",
			capacity:    4,
			fill:        seq(0, 6),
			resize:      8,
			expect:      []int16{2, 3, 4, 5},
		}, {
			description: "grow then keep appending",
			capacity:    3,
			fill:        seq(0, 5),
			resize:      5,
			then:        []int16{100, 101, 102},
			expect:      []int16{3, 4, 100, 101, 102},
		}, {
			description: "shrink a partially filled buffer",
			capacity:    10,
			fill:        seq(0, 2),
			resize:      5,
			then:        []int16{7},
			expect:      []int16{0, 1, 7},
		}, {
			description: "shrink to full then wrap",
			capacity:    5,
			fill:        seq(0, 5),
			resize:      2,
			then:        []int16{9},
			expect:      []int16{4, 9},
		}, {
			description: "invalid capacity",
			capacity:    3,
			fill:        seq(0, 3),
			resize:      0,
			expect:      []int16{0, 1, 2},
			expectErr:   ErrInvalidCapacity,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			b, err := New(tc.capacity)
			require.NoError(err)
			b.Append(tc.fill...)

			err = b.Resize(tc.resize)
			if tc.expectErr != nil {
				assert.ErrorIs(err, tc.expectErr)
				assert.Equal(tc.capacity, b.Cap())
			} else {
				assert.NoError(err)
				assert.Equal(tc.resize, b.Cap())
			}

			b.Append(tc.then...)

			got, err := b.Read(1)
			require.NoError(err)
			assert.Equal(tc.expect, got)
		})
	}
}

// Each append writes a run of identical values; a reader must never see a
// snapshot that mixes two runs in the wrong order.
func TestConcurrentReadWrite(t *testing.T) {
	b, err := New(64)
	require.NoError(t, err)

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		chunk := make([]int16, 16)
		for v := int16(0); v < 2000; v++ {
			for i := range chunk {
				chunk[i] = v
			}
			b.Append(chunk...)
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				got, err := b.Read(1)
				if !assert.NoError(t, err) {
					return
				}
				for i := 1; i < len(got); i++ {
					if !assert.LessOrEqual(t, got[i-1], got[i]) {
						return
					}
				}
				if len(got) > 0 {
					assert.Equal(t, 0, len(got)%16)
				}
			}
		}()
	}

	wg.Wait()
}
