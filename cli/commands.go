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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/juju/errors"
	flag "github.com/spf13/pflag"
	flock "github.com/theckman/go-flock"

	"github.com/mongoose-os/eccsnipe/cli/config"
	"github.com/mongoose-os/eccsnipe/cli/flags"
	"github.com/mongoose-os/eccsnipe/cli/ourutil"
	"github.com/mongoose-os/eccsnipe/sim"
)

const lockFile = ".lock"

func loadConfig() (*config.Config, error) {
	c, err := config.Load(*flags.Config)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := c.Overlay(flag.CommandLine); err != nil {
		return nil, errors.Trace(err)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &c, nil
}

// openExperiment loads the config and the board, and holds the state
// directory lock until close.
func openExperiment() (*experiment, error) {
	c, err := loadConfig()
	if err != nil {
		return nil, errors.Trace(err)
	}
	fl, err := lockStateDir(c.StateDir)
	if err != nil {
		return nil, errors.Trace(err)
	}
	dev, err := sim.Load(c.StateDir, c.Sim)
	if err != nil {
		fl.Unlock()
		return nil, errors.Annotatef(err, "failed to load board state from %s", c.StateDir)
	}
	e, err := newExperiment(c, dev)
	if err != nil {
		fl.Unlock()
		return nil, errors.Trace(err)
	}
	e.lock = fl
	glog.Infof("target %s, state in %s", c.Target, c.StateDir)
	return e, nil
}

func lockStateDir(dir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Trace(err)
	}
	fl := flock.NewFlock(filepath.Join(dir, lockFile))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, errors.Annotatef(err, "failed to lock %s", dir)
	}
	if !ok {
		return nil, errors.Errorf("%s is in use by another eccsnipe", dir)
	}
	return fl, nil
}

func (e *experiment) close() {
	if e.lock != nil {
		e.lock.Unlock()
	}
}

func (e *experiment) save() error {
	return errors.Annotatef(e.dev.Save(e.cfg.StateDir), "failed to save board state")
}

func reportBoot(n int, res sim.Result, console []string) verdict {
	v := judge(res)
	ourutil.Reportf("Boot %d: %s %s -> %s", n, ourutil.FormatLEDs(res.Green, res.Red, res.Blue), res, v)
	if *flags.Verbose || v != continueSearch {
		for _, l := range console {
			ourutil.Reportf("  | %s", strings.TrimRight(l, "\n"))
		}
	}
	if len(res.Corrupted) > 0 {
		ourutil.Reportf("  reset corrupted %d double word(s) at %s", len(res.Corrupted), hexList(res.Corrupted))
	}
	return v
}

func bootCmd() error {
	e, err := openExperiment()
	if err != nil {
		return errors.Trace(err)
	}
	defer e.close()
	res, console := e.boot()
	v := reportBoot(1, res, console)
	if err := e.save(); err != nil {
		return errors.Trace(err)
	}
	if v == broken {
		return errors.Errorf("board stopped unexpectedly: %s", res)
	}
	return nil
}

func runCmd() error {
	e, err := openExperiment()
	if err != nil {
		return errors.Trace(err)
	}
	defer e.close()
	for i := 1; i <= e.cfg.MaxBoots; i++ {
		res, console := e.boot()
		switch reportBoot(i, res, console) {
		case continueSearch:
			e.dev.Reset()
			continue
		case succeeded:
			ourutil.Reportf("Target corrupted after %d boot(s)", i)
			return errors.Trace(e.save())
		case gaveUp:
			if err := e.save(); err != nil {
				return errors.Trace(err)
			}
			return errors.Errorf("firmware gave up on boot %d, record: %s", i, e.record())
		default:
			if err := e.save(); err != nil {
				return errors.Trace(err)
			}
			return errors.Errorf("board stopped unexpectedly on boot %d: %s", i, res)
		}
	}
	if err := e.save(); err != nil {
		return errors.Trace(err)
	}
	return errors.Errorf("no success after %d boots, record: %s", e.cfg.MaxBoots, e.record())
}

func statusCmd() error {
	e, err := openExperiment()
	if err != nil {
		return errors.Trace(err)
	}
	defer e.close()
	rec := e.record()
	ourutil.Reportf("Target:  %s", e.cfg.Target)
	if rec.Valid() {
		ourutil.Reportf("Search:  [%d, %d], last phase %s, %d reset(s)", rec.Bottom, rec.Top, rec.Phase, rec.ResetCount)
	} else {
		ourutil.Reportf("Search:  not running (%s)", rec)
	}
	in, out := e.onTarget()
	ourutil.Reportf("Corrupted on target:  %s", hexList(in))
	ourutil.Reportf("Corrupted elsewhere:  %s", hexList(out))
	return nil
}

func resetCmd() error {
	e, err := openExperiment()
	if err != nil {
		return errors.Trace(err)
	}
	defer e.close()
	e.dev.PowerCycle(false)
	ourutil.Reportf("Backup registers cleared, next boot starts a new search")
	if *flags.MassErase {
		e.dev.MassErase()
		ourutil.Reportf("Flash erased")
	} else if n := len(e.dev.Corrupted()); n > 0 {
		ourutil.Reportf("%d corrupted double word(s) left in flash, use --mass-erase to clear them", n)
	}
	return errors.Trace(e.save())
}

func hexList(offs []uint32) string {
	if len(offs) == 0 {
		return "none"
	}
	parts := make([]string, len(offs))
	for i, o := range offs {
		parts[i] = fmt.Sprintf("0x%x", o)
	}
	return strings.Join(parts, ", ")
}
