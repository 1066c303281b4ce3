// SPDX-FileCopyrightText: 2022 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package adc

import (
	"github.com/stretchr/testify/mock"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
)

type mockWrapper struct {
	mock.Mock
}

func (m *mockWrapper) Open(file string) (err error) {
	a := m.Called(file)
	return a.Error(0)
}

func (m *mockWrapper) Close() (err error) {
	a := m.Called()
	return a.Error(0)
}

func (m *mockWrapper) Connect(addr int, ch ads1x15.Channel, maxV physic.ElectricPotential, f physic.Frequency) (reader, error) {
	a := m.Called(addr, ch, maxV, f)
	r, _ := a.Get(0).(reader)
	return r, a.Error(1)
}

// Mocking an analog pin

type mockPin struct {
	mock.Mock
}

func (m *mockPin) Read() (analog.Sample, error) {
	a := m.Called()
	return a.Get(0).(analog.Sample), a.Error(1)
}

func (m *mockPin) Halt() error {
	a := m.Called()
	return a.Error(0)
}
