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
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/mongoose-os/eccsnipe/cli/config"
	"github.com/mongoose-os/eccsnipe/sim"
)

func TestJudge(t *testing.T) {
	for _, c := range []struct {
		res  sim.Result
		want verdict
	}{
		{sim.Result{Reason: sim.WatchdogReset}, continueSearch},
		{sim.Result{Reason: sim.WatchdogReset, Exception: true, Red: true}, continueSearch},
		{sim.Result{Reason: sim.Halted, Exception: true, NMI: true, Green: true}, succeeded},
		{sim.Result{Reason: sim.Halted, Red: true}, gaveUp},
		{sim.Result{Reason: sim.Halted, Exception: true, Red: true, Blue: true}, gaveUp},
		{sim.Result{Reason: sim.Lockup}, broken},
		{sim.Result{Reason: sim.Returned}, broken},
		{sim.Result{Reason: sim.Stuck}, broken},
	} {
		if got := judge(c.res); got != c.want {
			t.Errorf("%+v: got: %s, want: %s", c.res, got, c.want)
		}
	}
}

func TestHexList(t *testing.T) {
	if got, want := hexList(nil), "none"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
	if got, want := hexList([]uint32{0x10008, 0x20000}), "0x10008, 0x20000"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
}

func TestExperimentReachesSuccess(t *testing.T) {
	c := config.Default()
	c.Sim.VulnerableFrom = 0
	c.Sim.VulnerableTo = c.Sim.ProgramTicks
	dev, err := sim.New(c.Sim)
	if err != nil {
		t.Fatal(err)
	}
	e, err := newExperiment(&c, dev)
	if err != nil {
		t.Fatal(err)
	}

	boots := 0
	for v := continueSearch; v == continueSearch; boots++ {
		if boots == c.MaxBoots {
			t.Fatalf("no success after %d boots, record: %s", boots, e.record())
		}
		if boots > 0 {
			dev.Reset()
		}
		res, console := e.boot()
		if len(console) == 0 {
			t.Errorf("boot %d printed nothing", boots+1)
		}
		v = judge(res)
		if v != continueSearch && v != succeeded {
			t.Fatalf("boot %d: %s (%s)", boots+1, v, res)
		}
	}

	if e.record().Valid() {
		t.Errorf("record still valid after success: %s", e.record())
	}
	in, out := e.onTarget()
	if len(in) != 1 || len(out) != 0 {
		t.Errorf("got: %x on target, %x elsewhere", in, out)
	}
}

func TestLockStateDir(t *testing.T) {
	dir, err := ioutil.TempDir("", "eccsnipe-cli")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	state := filepath.Join(dir, "state")

	fl, err := lockStateDir(state)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := lockStateDir(state); err == nil {
		t.Errorf("state directory locked twice")
	}
	fl.Unlock()

	fl, err = lockStateDir(state)
	if err != nil {
		t.Errorf("lock not released: %s", err)
	} else {
		fl.Unlock()
	}
}
