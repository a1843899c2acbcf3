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
// Package calib keeps the timing search state in RTC backup registers so
// that it survives the watchdog resets the experiment provokes.
package calib

import (
	"fmt"

	"github.com/mongoose-os/eccsnipe/hal"
)

// Backup register slots.
const (
	SlotMagic = iota
	SlotBottom
	SlotTop
	SlotPhase
	SlotResetCount

	NumSlots
)

const (
	Magic = 0x99999999

	DefaultBottom = 1
	DefaultTop    = 1000
)

// Phase records how far the previous boot got before it was reset.
type Phase uint32

const (
	NotStarted Phase = iota
	// BeforeWrite is stored right before the watchdog is armed.
	BeforeWrite
	// AfterWrite is stored once the write returned without a reset.
	AfterWrite
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not-started"
	case BeforeWrite:
		return "before-write"
	case AfterWrite:
		return "after-write"
	}
	return fmt.Sprintf("Phase(%d)", uint32(p))
}

// PhaseOf decodes a raw slot value. Anything unknown reads as NotStarted.
func PhaseOf(v uint32) Phase {
	switch p := Phase(v); p {
	case BeforeWrite, AfterWrite:
		return p
	}
	return NotStarted
}

type Record struct {
	Magic      uint32
	Bottom     uint32
	Top        uint32
	Phase      Phase
	ResetCount uint32
}

// Valid reports whether the record carries the sentinel, i.e. a search is
// in progress.
func (r Record) Valid() bool { return r.Magic == Magic }

func (r Record) String() string {
	return fmt.Sprintf("magic=0x%08x bottom=%d top=%d phase=%s resets=%d",
		r.Magic, r.Bottom, r.Top, r.Phase, r.ResetCount)
}

// Store maps Record fields onto backup register slots.
type Store struct {
	b hal.Backup
}

func Open(b hal.Backup) *Store {
	return &Store{b: b}
}

// Init writes the default interval if the sentinel is missing and reports
// whether it did.
func (s *Store) Init() bool {
	if s.b.ReadBackup(SlotMagic) == Magic {
		return false
	}
	s.b.WriteBackup(SlotMagic, Magic)
	s.b.WriteBackup(SlotBottom, DefaultBottom)
	s.b.WriteBackup(SlotTop, DefaultTop)
	s.b.WriteBackup(SlotPhase, uint32(NotStarted))
	return true
}

// CountReset bumps the diagnostic boot counter and returns the new value.
func (s *Store) CountReset() uint32 {
	n := s.b.ReadBackup(SlotResetCount) + 1
	s.b.WriteBackup(SlotResetCount, n)
	return n
}

func (s *Store) Load() Record {
	return Record{
		Magic:      s.b.ReadBackup(SlotMagic),
		Bottom:     s.b.ReadBackup(SlotBottom),
		Top:        s.b.ReadBackup(SlotTop),
		Phase:      PhaseOf(s.b.ReadBackup(SlotPhase)),
		ResetCount: s.b.ReadBackup(SlotResetCount),
	}
}

// SetBounds stores only the bounds that changed.
func (s *Store) SetBounds(bottom, top uint32) {
	if s.b.ReadBackup(SlotBottom) != bottom {
		s.b.WriteBackup(SlotBottom, bottom)
	}
	if s.b.ReadBackup(SlotTop) != top {
		s.b.WriteBackup(SlotTop, top)
	}
}

func (s *Store) SetPhase(p Phase) {
	s.b.WriteBackup(SlotPhase, uint32(p))
}

// Invalidate clears the sentinel; the next boot starts a fresh search.
func (s *Store) Invalidate() {
	s.b.WriteBackup(SlotMagic, 0)
}
