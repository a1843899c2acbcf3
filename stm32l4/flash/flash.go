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
// Package flash drives the STM32L4 embedded flash controller: unlock, page
// erase and standard double-word programming, following RM0394 sections
// 3.3.5 to 3.3.7.
package flash

import (
	"github.com/juju/errors"

	"github.com/mongoose-os/eccsnipe/common/mmio"
)

// WaitBudget bounds the BSY polling loop. Worst case mass erase is 25 ms;
// at the 4 MHz MSI reset clock that is 100000 cycles and every poll takes
// several, so the bound leaves ample margin.
const WaitBudget = 100000

// Flash owns the FLASH register block.
type Flash struct {
	bus  mmio.Bus
	keyr mmio.Reg
	sr   mmio.Reg
	cr   mmio.Reg
	eccr mmio.Reg

	token *Unlocked
}

func New(bus mmio.Bus) *Flash {
	return &Flash{
		bus:  bus,
		keyr: mmio.NewReg(bus, KEYR),
		sr:   mmio.NewReg(bus, SR),
		cr:   mmio.NewReg(bus, CR),
		eccr: mmio.NewReg(bus, ECCR),
	}
}

// PageNumber returns the page holding addr. Both the MemBase mapping and the
// alias at 0 are accepted.
func PageNumber(addr uint32) uint32 {
	if addr >= MemBase {
		addr -= MemBase
	}
	return addr / PageSize
}

// Status reads FLASH_SR once.
func (f *Flash) Status() Status {
	return StatusOf(f.sr.Load())
}

// Wait polls BSY for at most WaitBudget iterations, then classifies the
// status register with one more read. That read decides: if BSY clears on
// it, after WaitBudget busy polls, the result is ready, not ErrBusy.
// A nil return means the controller is ready.
func (f *Flash) Wait() error {
	for i := 0; i < WaitBudget; i++ {
		if !f.sr.HasBits(SR_BSY) {
			break
		}
	}
	return f.Status().Err()
}

// Unlock writes the key sequence to FLASH_KEYR. The returned token must be
// released with Lock, normally via defer:
//
//	u, err := f.Unlock()
//	if err != nil { ... }
//	defer u.Lock()
//
// A failed sequence leaves the controller locked until reset; do not retry.
// Unlocking while a token is still outstanding panics.
func (f *Flash) Unlock() (*Unlocked, error) {
	if f.token != nil {
		panic("flash: already unlocked")
	}
	f.keyr.Store(Key1)
	f.bus.Barrier()
	f.keyr.Store(Key2)
	f.bus.Barrier()

	if f.cr.HasBits(CR_LOCK) {
		return nil, ErrUnlockFailed
	}
	f.token = &Unlocked{f: f}
	return f.token, nil
}

// ReadECC reads FLASH_ECCR once.
func (f *Flash) ReadECC() ECC {
	return DecodeECC(f.eccr.Load())
}

// Unlocked is the capability to erase and program. It exists only between
// a successful Unlock and the matching Lock.
type Unlocked struct {
	f      *Flash
	locked bool
}

// Lock sets CR.LOCK. It is unconditional and idempotent. If an operation is
// still running the bus stalls until BSY clears, which is what we want.
func (u *Unlocked) Lock() {
	if u.locked {
		return
	}
	u.locked = true
	u.f.cr.SetBits(CR_LOCK)
	u.f.token = nil
}

func (u *Unlocked) flash() *Flash {
	if u.locked {
		panic("flash: use of a relocked token")
	}
	return u.f
}

// ClearProgrammingFlags clears all sticky programming error flags so that
// the next sequence does not start with PGSERR set.
func (u *Unlocked) ClearProgrammingFlags() {
	u.flash().sr.Store(SR_PROG_ERRORS)
}

// ErasePage erases one page of bank 1.
func (u *Unlocked) ErasePage(page uint32) error {
	f := u.flash()
	if page >= PageCount {
		return ErrInvalidPage
	}
	if err := f.Wait(); err != nil {
		return errors.Trace(err)
	}
	u.ClearProgrammingFlags()
	// BKER must stay cleared in single-bank mode.
	f.cr.Modify(CR_PNB|CR_BKER, CR_PER|page<<CR_PNB_Pos)
	f.cr.SetBits(CR_STRT)

	err := f.Wait()
	f.cr.ClearBits(CR_PER)
	return errors.Trace(err)
}

// WriteDoubleWords programs values starting at addr using standard
// programming. The target must be erased and 8-byte aligned. Each double
// word goes out as the low word, a barrier, then the high word; the
// controller starts programming once the high word lands.
func (u *Unlocked) WriteDoubleWords(addr uint32, values []uint64) error {
	f := u.flash()
	if addr == 0 {
		return ErrNullAddress
	}
	if err := f.Wait(); err != nil {
		return errors.Trace(err)
	}
	u.ClearProgrammingFlags()
	f.cr.SetBits(CR_PG)
	defer f.cr.ClearBits(CR_PG)

	for _, v := range values {
		f.bus.Store32(addr, uint32(v))
		f.bus.Barrier()
		f.bus.Store32(addr+4, uint32(v>>32))
		addr += 8

		if err := f.Wait(); err != nil {
			return errors.Annotatef(err, "programming 0x%08x", addr-8)
		}
		// EOP is only meaningful with EOPIE, which is never enabled.
		if f.sr.HasBits(SR_EOP) {
			f.sr.Store(SR_EOP)
		}
	}
	return nil
}

// ECC is a decoded FLASH_ECCR.
type ECC struct {
	Raw         uint32
	DoubleError bool
	Bank        bool
	// Address is ADDR_ECC with the bank bit folded in above it.
	Address uint32
}

func DecodeECC(v uint32) ECC {
	e := ECC{
		Raw:         v,
		DoubleError: v&ECCR_ECCD != 0,
		Bank:        v&ECCR_BK_ECC != 0,
		Address:     v & ECCR_ADDR_ECC,
	}
	if e.Bank {
		e.Address |= 1 << eccBankShift
	}
	return e
}
