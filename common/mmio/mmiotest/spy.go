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
// Package mmiotest provides a recording mmio.Bus for driver tests.
package mmiotest

import (
	"fmt"
	"strings"
)

type Op byte

const (
	OpLoad    Op = 'R'
	OpStore   Op = 'W'
	OpBarrier Op = 'B'
)

type Access struct {
	Op   Op
	Addr uint32
	Val  uint32
}

func (a Access) String() string {
	if a.Op == OpBarrier {
		return "DMB"
	}
	return fmt.Sprintf("%c 0x%08x 0x%08x", a.Op, a.Addr, a.Val)
}

// LoadFunc computes the value returned by a load; cur is the stored register
// value and n is the number of loads of this address so far (0-based).
type LoadFunc func(cur uint32, n int) uint32

// StoreFunc computes the new register value from the old one and the value
// being written.
type StoreFunc func(old, val uint32) uint32

// Spy is an in-memory register file that records every access.
type Spy struct {
	Regs  map[uint32]uint32
	Trace []Access

	loads      map[uint32]LoadFunc
	stores     map[uint32]StoreFunc
	loadCounts map[uint32]int
}

func New() *Spy {
	return &Spy{
		Regs:       make(map[uint32]uint32),
		loads:      make(map[uint32]LoadFunc),
		stores:     make(map[uint32]StoreFunc),
		loadCounts: make(map[uint32]int),
	}
}

// OnLoad overrides the value returned when addr is loaded.
func (s *Spy) OnLoad(addr uint32, f LoadFunc) { s.loads[addr] = f }

// OnStore overrides how a store to addr updates the register.
func (s *Spy) OnStore(addr uint32, f StoreFunc) { s.stores[addr] = f }

// W1C makes the register at addr clear the bits written as 1.
func (s *Spy) W1C(addr uint32) {
	s.OnStore(addr, func(old, val uint32) uint32 { return old &^ val })
}

func (s *Spy) Load32(addr uint32) uint32 {
	v := s.Regs[addr]
	if f := s.loads[addr]; f != nil {
		v = f(v, s.loadCounts[addr])
	}
	s.loadCounts[addr]++
	s.Trace = append(s.Trace, Access{Op: OpLoad, Addr: addr, Val: v})
	return v
}

func (s *Spy) Store32(addr, val uint32) {
	s.Trace = append(s.Trace, Access{Op: OpStore, Addr: addr, Val: val})
	if f := s.stores[addr]; f != nil {
		val = f(s.Regs[addr], val)
	}
	s.Regs[addr] = val
}

func (s *Spy) Barrier() {
	s.Trace = append(s.Trace, Access{Op: OpBarrier})
}

// Stores returns the recorded stores, optionally only those to addrs.
func (s *Spy) Stores(addrs ...uint32) []Access {
	var res []Access
	for _, a := range s.Trace {
		if a.Op != OpStore {
			continue
		}
		if len(addrs) == 0 {
			res = append(res, a)
			continue
		}
		for _, addr := range addrs {
			if a.Addr == addr {
				res = append(res, a)
				break
			}
		}
	}
	return res
}

// Writes is a trace that leaves loads out, one access per line.
func (s *Spy) Writes() string {
	var lines []string
	for _, a := range s.Trace {
		if a.Op != OpLoad {
			lines = append(lines, a.String())
		}
	}
	return strings.Join(lines, "\n")
}

// Reset forgets the trace, keeping register values and hooks.
func (s *Spy) Reset() {
	s.Trace = nil
	s.loadCounts = make(map[uint32]int)
}
