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
package firmware

import (
	"github.com/juju/errors"

	"github.com/mongoose-os/eccsnipe/calib"
	"github.com/mongoose-os/eccsnipe/fault"
	"github.com/mongoose-os/eccsnipe/hal"
	"github.com/mongoose-os/eccsnipe/search"
)

// Main is the reset entry point. It does not return: the boot ends in a
// reset, in an idle loop, or in one of the terminal handlers.
func Main(b *Board) {
	defer func() {
		if r := recover(); r != nil {
			b.panicked(r)
		}
	}()
	b.boot()
}

func (b *Board) boot() {
	b.con.Printf("eccsnipe: target %s", b.target)

	if b.store.Init() {
		b.con.Printf("first boot, search range [%d, %d]", calib.DefaultBottom, calib.DefaultTop)
	}
	n := b.store.CountReset()

	rec := b.store.Load()
	plan, err := search.Next(rec.Bottom, rec.Top, rec.Phase)
	if err != nil {
		// Bottom and top met without a hit; the window was missed.
		panic(err)
	}
	b.store.SetBounds(plan.Bottom, plan.Top)
	// From here on a reset means we did not get past the write.
	b.store.SetPhase(calib.BeforeWrite)
	if plan.Narrowed {
		b.con.Printf("boot %d: previous %s, narrowed to %s", n, rec.Phase, plan)
	} else {
		b.con.Printf("boot %d: previous %s, keeping %s", n, rec.Phase, plan)
	}

	b.leds.SetLED(hal.Green, false)
	b.leds.SetLED(hal.Red, false)
	b.leds.SetLED(hal.Blue, false)

	// If a previous boot succeeded, this raises the ECC NMI and we end up
	// in Fault.
	b.probe()

	b.attack(plan.Delay)

	// Too early: the write finished before the watchdog fired.
	b.leds.SetLED(hal.Blue, true)
	b.halt.Idle()
}

func (b *Board) probe() {
	for i := uint32(0); i < b.target.Range; i++ {
		b.mem.Read8(b.target.Address + i)
	}
}

// attack erases the target page, arms the watchdog and writes into the
// target after delay iterations.
func (b *Board) attack(delay uint32) {
	u, err := b.flash.Unlock()
	if err != nil {
		panic(errors.Annotatef(err, "unlock"))
	}
	defer u.Lock()

	if err := u.ErasePage(b.target.Page()); err != nil {
		panic(errors.Annotatef(err, "erase page %d", b.target.Page()))
	}

	b.wd.Start(b.wdTime)
	b.delay.Spin(delay)

	// Erased cells are all ones, so zeroes program every bit.
	if err := u.WriteDoubleWords(b.target.Address, make([]uint64, b.target.Words())); err != nil {
		panic(errors.Annotatef(err, "write 0x%x", b.target.Address))
	}
	b.store.SetPhase(calib.AfterWrite)
}

// Fault is the HardFault, NMI and default exception handler. It does not
// return.
func Fault(b *Board) {
	b.con.Printf("exception occurred")
	ecc := b.flash.ReadECC()
	o := fault.Classify(ecc, b.target.Bounds())
	b.con.Printf("%s (eccr=0x%08x, address 0x%x)", o, ecc.Raw, ecc.Address)
	fault.Report(o, b.leds)

	if o == fault.Success {
		b.store.Invalidate()
		b.halt.FeedForever(b.wd)
	}
	b.halt.Idle()
}

// panicked is the panic handler: flag the failure, drop the search state so
// a manual reset starts over, and keep the watchdog quiet.
func (b *Board) panicked(r interface{}) {
	b.con.Printf("panic: %v", r)
	b.leds.SetLED(hal.Red, true)
	b.store.Invalidate()
	b.halt.FeedForever(b.wd)
}
