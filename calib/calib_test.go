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
package calib

import (
	"testing"
)

type regs struct {
	slots  [32]uint32
	writes int
}

func (r *regs) ReadBackup(idx int) uint32 { return r.slots[idx] }

func (r *regs) WriteBackup(idx int, val uint32) {
	r.slots[idx] = val
	r.writes++
}

func TestFirstBoot(t *testing.T) {
	r := &regs{}
	r.slots[SlotPhase] = uint32(AfterWrite)
	s := Open(r)
	if !s.Init() {
		t.Fatalf("first boot not detected")
	}
	rec := s.Load()
	if got, want := rec, (Record{Magic: Magic, Bottom: 1, Top: 1000, Phase: NotStarted}); got != want {
		t.Errorf("got: %s, want: %s", got, want)
	}
	if !rec.Valid() {
		t.Errorf("record not valid after Init")
	}
}

func TestResume(t *testing.T) {
	r := &regs{}
	r.slots[SlotMagic] = Magic
	r.slots[SlotBottom] = 1
	r.slots[SlotTop] = 500
	r.slots[SlotPhase] = uint32(BeforeWrite)
	s := Open(r)
	if s.Init() {
		t.Errorf("resumed search treated as first boot")
	}
	if r.writes != 0 {
		t.Errorf("got %d writes on resume", r.writes)
	}
	if got, want := s.Load().Top, uint32(500); got != want {
		t.Errorf("got: %d, want: %d", got, want)
	}
}

func TestResetCount(t *testing.T) {
	r := &regs{}
	s := Open(r)
	s.Init()
	for i := uint32(1); i <= 3; i++ {
		if got := s.CountReset(); got != i {
			t.Errorf("got: %d, want: %d", got, i)
		}
	}
	// The counter is not part of the defaults and survives re-init.
	s.Invalidate()
	s.Init()
	if got, want := s.Load().ResetCount, uint32(3); got != want {
		t.Errorf("got: %d, want: %d", got, want)
	}
}

func TestSetBoundsWritesChangedOnly(t *testing.T) {
	r := &regs{}
	s := Open(r)
	s.Init()
	r.writes = 0
	s.SetBounds(1, 500)
	if got, want := r.writes, 1; got != want {
		t.Errorf("got %d writes, want %d", got, want)
	}
	if got, want := r.slots[SlotTop], uint32(500); got != want {
		t.Errorf("got: %d, want: %d", got, want)
	}
}

func TestInvalidate(t *testing.T) {
	r := &regs{}
	s := Open(r)
	s.Init()
	s.SetPhase(BeforeWrite)
	s.Invalidate()
	if s.Load().Valid() {
		t.Errorf("record still valid")
	}
	if !s.Init() {
		t.Errorf("invalidated record not re-initialized")
	}
	if got, want := s.Load().Phase, NotStarted; got != want {
		t.Errorf("got: %s, want: %s", got, want)
	}
}

func TestPhaseOf(t *testing.T) {
	for v, want := range map[uint32]Phase{
		0: NotStarted, 1: BeforeWrite, 2: AfterWrite, 3: NotStarted, 0xffffffff: NotStarted,
	} {
		if got := PhaseOf(v); got != want {
			t.Errorf("%d: got: %s, want: %s", v, got, want)
		}
	}
}
