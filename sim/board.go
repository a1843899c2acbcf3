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
package sim

import (
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/mongoose-os/eccsnipe/hal"
)

// ReadBackup implements hal.Backup.
func (d *Device) ReadBackup(idx int) uint32 {
	if d.stopped || idx < 0 || idx >= NumBackup {
		return 0
	}
	d.tick()
	return d.backup[idx]
}

// WriteBackup implements hal.Backup.
func (d *Device) WriteBackup(idx int, val uint32) {
	if d.stopped || idx < 0 || idx >= NumBackup {
		return
	}
	d.tick()
	glog.V(2).Infof("sim: BKP%dR = %d", idx, val)
	d.backup[idx] = val
}

// Registers is a copy of the backup register file. It implements
// hal.Backup, so it can be inspected with the same code the firmware uses.
type Registers [NumBackup]uint32

func (r *Registers) ReadBackup(idx int) uint32 { return r[idx] }

func (r *Registers) WriteBackup(idx int, val uint32) { r[idx] = val }

// Backup returns a copy of the backup registers.
func (d *Device) Backup() Registers { return Registers(d.backup) }

// SetBackup replaces the backup registers.
func (d *Device) SetBackup(r Registers) { d.backup = r }

// SetLED implements hal.Indicators.
func (d *Device) SetLED(l hal.LED, on bool) {
	if d.stopped || l < hal.Green || l > hal.Blue {
		return
	}
	d.tick()
	d.leds[l] = on
}

func (d *Device) LED(l hal.LED) bool { return d.leds[l] }

// Start implements hal.Watchdog. Starting again reloads with the new period.
func (d *Device) Start(timeout time.Duration) {
	if d.stopped {
		return
	}
	d.tick()
	d.wdArmed = true
	d.wdPeriod = d.cfg.WatchdogTicks(timeout)
	d.wdDeadline = d.ticks + d.wdPeriod
	glog.V(1).Infof("sim: watchdog armed, %d ticks", d.wdPeriod)
}

// Feed implements hal.Watchdog. Feeding a stopped watchdog does nothing.
func (d *Device) Feed() {
	if d.stopped || !d.wdArmed {
		return
	}
	d.wdDeadline = d.ticks + d.wdPeriod
}

// WatchdogArmed reports whether the IWDG is running.
func (d *Device) WatchdogArmed() bool { return d.wdArmed }

// Spin implements hal.Delay.
func (d *Device) Spin(iterations uint32) {
	for i := uint32(0); i < iterations && !d.stopped; i++ {
		d.tick()
	}
}

// Idle implements hal.Halter. With the watchdog running it lasts until the
// watchdog resets the chip.
func (d *Device) Idle() {
	if d.stopped {
		return
	}
	for d.wdArmed {
		d.tick()
	}
	d.stop(Halted)
}

// FeedForever implements hal.Halter. The watchdog never fires, so this is
// the end of the run.
func (d *Device) FeedForever(wd hal.Watchdog) {
	if d.stopped {
		return
	}
	wd.Feed()
	d.stop(Halted)
}

// Printf implements hal.Console.
func (d *Device) Printf(format string, args ...interface{}) {
	s := fmt.Sprintf(format, args...)
	d.Console = append(d.Console, s)
	glog.Infof("console: %s", s)
}
