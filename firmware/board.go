//
// Copyright (c) 2014-2019 Cesanta Software Limited
// All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Package firmware is the boot sequence of the ECC sniper and its two
// terminal contexts: the exception handler and the panic handler.
//
// A boot reads the search state from backup registers, erases the target
// page, arms the independent watchdog with its shortest period, burns a
// calibrated delay and starts programming the target. If the watchdog
// fires in the middle of a program operation, the double word is left with
// an uncorrectable ECC error, which the next boot trips over when it reads
// the target and which the exception handler then recognizes.
package firmware

import (
	"time"

	"github.com/juju/errors"

	"github.com/mongoose-os/eccsnipe/calib"
	"github.com/mongoose-os/eccsnipe/common/mmio"
	"github.com/mongoose-os/eccsnipe/hal"
	"github.com/mongoose-os/eccsnipe/stm32l4/flash"
)

// Config lists the capabilities of the board and the experiment settings.
type Config struct {
	Bus      mmio.Bus
	Memory   hal.Memory
	Backup   hal.Backup
	LEDs     hal.Indicators
	Watchdog hal.Watchdog
	Delay    hal.Delay
	Halt     hal.Halter
	// Console may be nil.
	Console hal.Console

	Target Target
	// FlashSize defaults to 512 KiB.
	FlashSize uint32
	// WatchdogTimeout zero selects the shortest watchdog period.
	WatchdogTimeout time.Duration
}

// Board is the one handle to the hardware. It is created once per boot and
// passed to Main and Fault; nothing else reaches the peripherals.
type Board struct {
	mem    hal.Memory
	leds   hal.Indicators
	wd     hal.Watchdog
	delay  hal.Delay
	halt   hal.Halter
	con    hal.Console
	flash  *flash.Flash
	store  *calib.Store
	target Target
	wdTime time.Duration
}

type discard struct{}

func (discard) Printf(string, ...interface{}) {}

func NewBoard(c Config) (*Board, error) {
	switch {
	case c.Bus == nil, c.Memory == nil, c.Backup == nil, c.LEDs == nil,
		c.Watchdog == nil, c.Delay == nil, c.Halt == nil:
		return nil, errors.Errorf("board is missing a capability")
	}
	if c.FlashSize == 0 {
		c.FlashSize = 512 * 1024
	}
	if err := c.Target.Validate(c.FlashSize); err != nil {
		return nil, errors.Annotatef(err, "invalid target")
	}
	b := &Board{
		mem:    c.Memory,
		leds:   c.LEDs,
		wd:     c.Watchdog,
		delay:  c.Delay,
		halt:   c.Halt,
		con:    c.Console,
		flash:  flash.New(c.Bus),
		store:  calib.Open(c.Backup),
		target: c.Target,
		wdTime: c.WatchdogTimeout,
	}
	if b.con == nil {
		b.con = discard{}
	}
	return b, nil
}
