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
// Package sim is a tick-level model of the parts of an STM32L4 board the
// firmware touches: the FLASH controller, the independent watchdog, RTC
// backup registers, three LEDs and a debug console.
//
// One tick passes per register access, memory read or delay loop
// iteration. Flash operations keep BSY set for a configured number of
// ticks; a watchdog reset that lands inside the vulnerable part of a
// double-word program leaves that double word with an uncorrectable ECC
// error.
package sim

import (
	"time"

	"github.com/juju/errors"
)

const NumBackup = 32

type Config struct {
	FlashSize uint32 `yaml:"flash_size"`

	EraseTicks   uint32 `yaml:"erase_ticks"`
	ProgramTicks uint32 `yaml:"program_ticks"`
	// A reset VulnerableFrom..VulnerableTo ticks into a program corrupts
	// the double word. Earlier leaves it erased, later leaves it written.
	VulnerableFrom uint32 `yaml:"vulnerable_from"`
	VulnerableTo   uint32 `yaml:"vulnerable_to"`

	TicksPerMillisecond uint32 `yaml:"ticks_per_ms"`
	MinWatchdogTicks    uint32 `yaml:"min_watchdog_ticks"`

	// MaxTicks stops a boot that runs away; 0 disables the limit.
	MaxTicks uint64 `yaml:"max_ticks"`
}

// DefaultConfig is a 512 KiB part at roughly 1 tick per microsecond.
func DefaultConfig() Config {
	return Config{
		FlashSize:           512 * 1024,
		EraseTicks:          2000,
		ProgramTicks:        40,
		VulnerableFrom:      8,
		VulnerableTo:        32,
		TicksPerMillisecond: 1000,
		MinWatchdogTicks:    125,
		MaxTicks:            50000000,
	}
}

func (c *Config) Validate() error {
	switch {
	case c.FlashSize == 0 || c.FlashSize%0x800 != 0:
		return errors.Errorf("flash size %d is not a multiple of the page size", c.FlashSize)
	case c.ProgramTicks == 0 || c.EraseTicks == 0:
		return errors.Errorf("operation durations must be positive")
	case c.VulnerableFrom > c.VulnerableTo || c.VulnerableTo > c.ProgramTicks:
		return errors.Errorf("vulnerable window [%d, %d) does not fit a %d tick program",
			c.VulnerableFrom, c.VulnerableTo, c.ProgramTicks)
	case c.TicksPerMillisecond == 0:
		return errors.Errorf("ticks_per_ms must be positive")
	}
	return nil
}

// WatchdogTicks converts a watchdog timeout to ticks, clamped to the
// shortest supported period.
func (c *Config) WatchdogTicks(timeout time.Duration) uint64 {
	t := uint64(timeout/time.Microsecond) * uint64(c.TicksPerMillisecond) / 1000
	if t < uint64(c.MinWatchdogTicks) {
		t = uint64(c.MinWatchdogTicks)
	}
	if t == 0 {
		t = 1
	}
	return t
}
