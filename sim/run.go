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

	"github.com/golang/glog"

	"github.com/mongoose-os/eccsnipe/hal"
)

// Result describes how one boot ended.
type Result struct {
	Reason Stop
	// Exception is set if the exception entry ran during this boot.
	Exception bool
	// NMI is set if that exception was the ECC NMI.
	NMI   bool
	Ticks uint64
	Green bool
	Red   bool
	Blue  bool
	// Corrupted lists double words corrupted by this boot's reset.
	Corrupted []uint32
	// Panic holds the value of an escaped Go panic (Lockup only).
	Panic interface{}
}

func (r Result) String() string {
	s := fmt.Sprintf("%s after %d ticks", r.Reason, r.Ticks)
	if r.Exception {
		s += " (in exception handler)"
	}
	return s
}

// Run executes one boot on the device: entry runs on a fresh goroutine and
// exceptions it raises are dispatched to handler, again on a fresh
// goroutine, like a hardware exception entry that never returns to the
// interrupted code. The device must have been reset before.
func (d *Device) Run(entry, handler func()) Result {
	d.newlyCorrupted = nil
	d.exec(entry)
	res := Result{}
	if d.reason == Exception {
		res.Exception = true
		res.NMI = d.excNMI
		d.stopped = false
		d.reason = Running
		d.exec(handler)
		if d.reason == Exception {
			glog.Errorf("sim: fault inside the exception handler")
			d.reason = Lockup
		}
	}
	res.Reason = d.reason
	res.Ticks = d.ticks
	res.Green = d.leds[hal.Green]
	res.Red = d.leds[hal.Red]
	res.Blue = d.leds[hal.Blue]
	res.Corrupted = d.newlyCorrupted
	res.Panic = d.panicVal
	glog.V(1).Infof("sim: boot ended: %s", res)
	return res
}

func (d *Device) exec(f func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				glog.Errorf("sim: panic escaped: %v", r)
				d.panicVal = r
				d.stopped = true
				d.reason = Lockup
			}
		}()
		f()
		if !d.stopped {
			d.stopped = true
			d.reason = Returned
		}
	}()
	<-done
}
