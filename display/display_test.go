// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package display

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/schmidtw/labscope/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var seen []Reading
	b := NewBoard(func(r Reading) {
		seen = append(seen, r)
	})

	assert.Empty(b.Readings())

	when := time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)
	b.PublishSampleValue(Reading{Channel: 1, Quantity: units.VoltageQuantity, Value: 1.5, Time: when})
	b.PublishSampleValue(Reading{Channel: 0, Quantity: units.FrequencyQuantity, Value: 440, Time: when})
	b.PublishSampleValue(Reading{Channel: 1, Quantity: units.VoltageQuantity, Value: 2.25, Time: when})

	readings := b.Readings()
	require.Len(readings, 2)
	assert.Equal(0, readings[0].Channel)
	assert.Equal("440.00Hz", readings[0].Text)
	assert.Equal(1, readings[1].Channel)
	assert.Equal(2.25, readings[1].Value)
	assert.Equal("2.250V", readings[1].Text)
	assert.Len(seen, 3)

	data, err := json.Marshal(b.Readings())
	require.NoError(err)

	var decoded []map[string]any
	require.NoError(json.Unmarshal(data, &decoded))
	require.Len(decoded, 2)
	assert.Equal("frequency", decoded[0]["quantity"])
	assert.Equal("voltage", decoded[1]["quantity"])
}

func TestBoardKeepsText(t *testing.T) {
	b := NewBoard()
	b.PublishSampleValue(Reading{Channel: 0, Value: 3, Text: "custom"})

	readings := b.Readings()
	require.Len(t, readings, 1)
	assert.Equal(t, "custom", readings[0].Text)
}

func TestSubscribe(t *testing.T) {
	assert := assert.New(t)
	b := NewBoard()

	var a, c int
	stopA := b.Subscribe(func(Reading) { a++ })
	b.Subscribe(func(Reading) { c++ })
	assert.Equal(2, b.Subscribers())

	b.PublishSampleValue(Reading{})
	stopA()
	stopA()
	b.PublishSampleValue(Reading{})

	assert.Equal(1, a)
	assert.Equal(2, c)
	assert.Equal(1, b.Subscribers())
}
