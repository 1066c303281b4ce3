// SPDX-FileCopyrightText: 2022 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package adc

import (
	"fmt"
	"sync"

	"github.com/schmidtw/labscope/capture"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
)

type hwWrapper struct {
	m    sync.Mutex
	bus  i2c.BusCloser
	devs map[int]*ads1x15.Dev
}

func (h *hwWrapper) Open(file string) (err error) {
	h.m.Lock()
	defer h.m.Unlock()

	if h.bus != nil {
		return capture.ErrAlreadyStarted
	}

	h.bus, err = i2creg.Open(file)
	return err
}

func (h *hwWrapper) Close() (err error) {
	h.m.Lock()
	defer h.m.Unlock()

	for addr, dev := range h.devs {
		e := dev.Halt()
		if e != nil && err == nil {
			err = e
		}
		delete(h.devs, addr)
	}

	if h.bus != nil {
		e := h.bus.Close()
		if e != nil && err == nil {
			err = e
		}
		h.bus = nil
	}

	return err
}

func (h *hwWrapper) Connect(addr int, ch ads1x15.Channel, maxV physic.ElectricPotential, f physic.Frequency) (reader, error) {
	h.m.Lock()
	defer h.m.Unlock()

	if h.bus == nil {
		return nil, fmt.Errorf("invalid state")
	}

	if h.devs == nil {
		h.devs = make(map[int]*ads1x15.Dev)
	}

	dev, ok := h.devs[addr]
	if !ok {
		opts := ads1x15.DefaultOpts
		opts.I2cAddress = uint16(addr)

		var err error
		dev, err = ads1x15.NewADS1115(h.bus, &opts)
		if err != nil {
			return nil, err
		}
		h.devs[addr] = dev
	}

	return dev.PinForChannel(ch, maxV, f, ads1x15.BestQuality)
}
