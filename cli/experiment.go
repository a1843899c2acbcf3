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
package main

import (
	"github.com/juju/errors"
	flock "github.com/theckman/go-flock"

	"github.com/mongoose-os/eccsnipe/calib"
	"github.com/mongoose-os/eccsnipe/cli/config"
	"github.com/mongoose-os/eccsnipe/firmware"
	"github.com/mongoose-os/eccsnipe/sim"
)

// verdict is what the harness makes of one boot.
type verdict int

const (
	// continueSearch: the watchdog reset the board, boot again.
	continueSearch verdict = iota
	// succeeded: the firmware found its own corruption and latched green.
	succeeded
	// gaveUp: the firmware halted without success (search exhausted, a
	// flash error, or a fault it cannot recover from on its own).
	gaveUp
	// broken: the board ended up somewhere real firmware never leaves it.
	broken
)

func (v verdict) String() string {
	switch v {
	case continueSearch:
		return "reset"
	case succeeded:
		return "success"
	case gaveUp:
		return "gave up"
	case broken:
		return "broken"
	}
	return "?"
}

func judge(res sim.Result) verdict {
	switch res.Reason {
	case sim.WatchdogReset:
		return continueSearch
	case sim.Halted:
		if res.Green && !res.Red {
			return succeeded
		}
		return gaveUp
	}
	return broken
}

// experiment is a simulated board with the firmware configured for it.
type experiment struct {
	cfg   *config.Config
	dev   *sim.Device
	board *firmware.Board
	lock  *flock.Flock
}

func newExperiment(cfg *config.Config, dev *sim.Device) (*experiment, error) {
	b, err := firmware.NewBoard(firmware.Config{
		Bus:             dev,
		Memory:          dev,
		Backup:          dev,
		LEDs:            dev,
		Watchdog:        dev,
		Delay:           dev,
		Halt:            dev,
		Console:         dev,
		Target:          cfg.Target,
		FlashSize:       dev.Config().FlashSize,
		WatchdogTimeout: cfg.WatchdogTimeout,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &experiment{cfg: cfg, dev: dev, board: b}, nil
}

// boot runs the firmware once from reset and returns the console lines it
// printed along with the result. The board is left as the boot ended; the
// caller resets it before the next boot.
func (e *experiment) boot() (sim.Result, []string) {
	n := len(e.dev.Console)
	res := e.dev.Run(
		func() { firmware.Main(e.board) },
		func() { firmware.Fault(e.board) },
	)
	return res, e.dev.Console[n:]
}

// record decodes the calibration record without disturbing the board.
func (e *experiment) record() calib.Record {
	r := e.dev.Backup()
	return calib.Open(&r).Load()
}

// onTarget splits corrupted double words into those inside the target and
// the rest.
func (e *experiment) onTarget() (in, out []uint32) {
	bounds := e.cfg.Target.Bounds()
	for _, dw := range e.dev.Corrupted() {
		if bounds.Contains(dw) {
			in = append(in, dw)
		} else {
			out = append(out, dw)
		}
	}
	return in, out
}
