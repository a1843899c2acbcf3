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
// Package mmio describes access to memory-mapped peripheral registers.
//
// The firmware never dereferences register addresses itself; it goes through
// a Bus so that the same driver code runs against silicon, against the
// simulated board and against a recording spy in tests.
package mmio

// Bus is the register access capability.
//
// Load32 and Store32 are single, volatile, 32-bit accesses. Barrier orders
// all accesses issued before it ahead of all accesses issued after it, as
// seen by the peripheral (DMB on Cortex-M).
type Bus interface {
	Load32(addr uint32) uint32
	Store32(addr, val uint32)
	Barrier()
}

// Reg is a single 32-bit register on a Bus.
type Reg struct {
	bus  Bus
	addr uint32
}

func NewReg(bus Bus, addr uint32) Reg {
	return Reg{bus: bus, addr: addr}
}

func (r Reg) Addr() uint32 { return r.addr }

func (r Reg) Load() uint32 { return r.bus.Load32(r.addr) }

func (r Reg) Store(v uint32) { r.bus.Store32(r.addr, v) }

// HasBits reports whether any of the given bits are set.
func (r Reg) HasBits(bits uint32) bool { return r.Load()&bits != 0 }

// SetBits does a read-modify-write that sets bits.
func (r Reg) SetBits(bits uint32) { r.Store(r.Load() | bits) }

// ClearBits does a read-modify-write that clears bits.
func (r Reg) ClearBits(bits uint32) { r.Store(r.Load() &^ bits) }

// Modify does a read-modify-write that clears the clear mask, then sets set.
func (r Reg) Modify(clear, set uint32) { r.Store(r.Load()&^clear | set) }
