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
	"runtime"

	"github.com/golang/glog"

	"github.com/mongoose-os/eccsnipe/stm32l4/flash"
)

// Stop says why the current execution context ended.
type Stop int

const (
	Running Stop = iota
	// WatchdogReset: the IWDG expired.
	WatchdogReset
	// Exception: an NMI or HardFault was raised; the handler runs next.
	Exception
	// Halted: the code settled in a loop that never resets the chip.
	Halted
	// Stuck: MaxTicks elapsed.
	Stuck
	// Lockup: a Go panic escaped, or a fault was raised inside a handler.
	Lockup
	// Returned: the entry point returned, which firmware never does.
	Returned
)

func (s Stop) String() string {
	switch s {
	case Running:
		return "running"
	case WatchdogReset:
		return "watchdog reset"
	case Exception:
		return "exception"
	case Halted:
		return "halted"
	case Stuck:
		return "stuck"
	case Lockup:
		return "lockup"
	case Returned:
		return "returned"
	}
	return fmt.Sprintf("Stop(%d)", int(s))
}

type opKind int

const (
	opErase opKind = iota
	opProgram
)

type operation struct {
	kind  opKind
	start uint64
	end   uint64
	// Flash offset of the page or double word.
	off  uint32
	data uint64
}

// Device is the simulated board. It is driven by one execution context at
// a time and is not safe for concurrent use.
type Device struct {
	cfg Config

	mem       []byte
	corrupted map[uint32]bool
	backup    [NumBackup]uint32
	leds      [3]bool

	ticks     uint64
	busWrites int

	// FLASH controller.
	cr, sr, eccr uint32
	keyStage     int
	keyBroken    bool
	latch        struct {
		valid bool
		off   uint32
		lo    uint32
	}
	op *operation

	// IWDG.
	wdArmed    bool
	wdPeriod   uint64
	wdDeadline uint64

	stopped  bool
	reason   Stop
	excNMI   bool
	panicVal interface{}

	// Offsets corrupted since the last call to Run.
	newlyCorrupted []uint32
	// Debug console output since power on.
	Console []string
}

func New(cfg Config) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Device{
		cfg:       cfg,
		mem:       make([]byte, cfg.FlashSize),
		corrupted: make(map[uint32]bool),
	}
	for i := range d.mem {
		d.mem[i] = 0xff
	}
	d.Reset()
	return d, nil
}

func (d *Device) Config() Config { return d.cfg }

// Ticks returns the ticks elapsed since the last reset.
func (d *Device) Ticks() uint64 { return d.ticks }

// BusWrites counts register and flash stores since the last reset.
func (d *Device) BusWrites() int { return d.busWrites }

// Reset models a system reset: volatile state is lost, flash contents and
// backup registers are kept. An operation still in flight is cut short.
func (d *Device) Reset() {
	if d.op != nil {
		d.interruptOp()
	}
	d.cr = flash.CR_RESET_VAL
	d.sr = 0
	d.eccr = 0
	d.keyStage = 0
	d.keyBroken = false
	d.latch.valid = false
	d.wdArmed = false
	d.leds = [3]bool{}
	d.ticks = 0
	d.busWrites = 0
	d.stopped = false
	d.reason = Running
	d.excNMI = false
	d.panicVal = nil
}

// PowerCycle is Reset plus, without a backup battery, loss of the backup
// registers.
func (d *Device) PowerCycle(vbat bool) {
	d.Reset()
	if !vbat {
		d.backup = [NumBackup]uint32{}
	}
}

// stop ends the running context. Accesses made while a stopped context
// unwinds its deferred calls are ignored.
func (d *Device) stop(why Stop) {
	if d.stopped {
		return
	}
	glog.V(1).Infof("sim: %s at tick %d", why, d.ticks)
	if why == WatchdogReset && d.op != nil {
		d.interruptOp()
	}
	d.stopped = true
	d.reason = why
	runtime.Goexit()
}

func (d *Device) tick() {
	d.ticks++
	if d.op != nil && d.ticks >= d.op.end {
		d.completeOp()
	}
	if d.wdArmed && d.ticks >= d.wdDeadline {
		d.stop(WatchdogReset)
	}
	if d.cfg.MaxTicks != 0 && d.ticks >= d.cfg.MaxTicks {
		d.stop(Stuck)
	}
}

// raise takes an exception. A fault taken while already handling one is a
// lockup.
func (d *Device) raise(nmi bool) {
	glog.V(1).Infof("sim: exception (nmi=%v) eccr=0x%08x", nmi, d.eccr)
	d.excNMI = nmi
	d.stop(Exception)
}

// flashOffset maps a bus address to a flash offset.
func (d *Device) flashOffset(addr uint32) (uint32, bool) {
	switch {
	case addr < d.cfg.FlashSize:
		return addr, true
	case addr >= flash.MemBase && addr-flash.MemBase < d.cfg.FlashSize:
		return addr - flash.MemBase, true
	}
	return 0, false
}

func (d *Device) Load32(addr uint32) uint32 {
	if d.stopped {
		return 0
	}
	d.tick()
	var v uint32
	switch addr {
	case flash.KEYR:
		v = 0
	case flash.SR:
		v = d.sr
	case flash.CR:
		v = d.cr
	case flash.ECCR:
		v = d.eccr
	default:
		off, ok := d.flashOffset(addr)
		if !ok || off%4 != 0 {
			d.raise(false)
		}
		d.checkECC(off)
		v = uint32(d.mem[off]) | uint32(d.mem[off+1])<<8 | uint32(d.mem[off+2])<<16 | uint32(d.mem[off+3])<<24
	}
	glog.V(3).Infof("sim: R 0x%08x 0x%08x", addr, v)
	return v
}

func (d *Device) Store32(addr, val uint32) {
	if d.stopped {
		return
	}
	d.tick()
	d.busWrites++
	glog.V(3).Infof("sim: W 0x%08x 0x%08x", addr, val)
	switch addr {
	case flash.KEYR:
		d.storeKey(val)
	case flash.SR:
		d.sr &^= val & (flash.SR_PROG_ERRORS | flash.SR_EOP | flash.SR_OPERR)
	case flash.CR:
		d.storeCR(val)
	case flash.ECCR:
		d.eccr &^= val & (flash.ECCR_ECCD | flash.ECCR_ECCC)
	default:
		off, ok := d.flashOffset(addr)
		if !ok {
			d.raise(false)
		}
		d.storeFlash(off, val)
	}
}

// Barrier costs nothing; the model never reorders.
func (d *Device) Barrier() {}

func (d *Device) storeKey(val uint32) {
	if d.cr&flash.CR_LOCK == 0 || d.keyBroken {
		d.keyBroken = true
		return
	}
	switch {
	case d.keyStage == 0 && val == flash.Key1:
		d.keyStage = 1
	case d.keyStage == 1 && val == flash.Key2:
		d.keyStage = 0
		d.cr &^= flash.CR_LOCK
	default:
		// A wrong sequence locks FLASH_CR until the next reset.
		d.keyBroken = true
	}
}

// stall spins while an operation is in flight, as the AHB does for CR
// writes and flash accesses with BSY set.
func (d *Device) stall() {
	for d.op != nil && !d.stopped {
		d.tick()
	}
}

func (d *Device) storeCR(val uint32) {
	if d.cr&flash.CR_LOCK != 0 {
		return
	}
	d.stall()
	if val&flash.CR_LOCK != 0 {
		d.cr |= flash.CR_LOCK
		d.keyStage = 0
		return
	}
	old := d.cr
	d.cr = val | old&flash.CR_OPTLOCK
	if val&flash.CR_STRT != 0 && old&flash.CR_STRT == 0 {
		d.startErase()
	}
}

func (d *Device) startErase() {
	if d.cr&flash.CR_PER == 0 || d.cr&flash.CR_PG != 0 {
		d.sr |= flash.SR_PGSERR
		d.cr &^= flash.CR_STRT
		return
	}
	page := (d.cr & flash.CR_PNB) >> flash.CR_PNB_Pos
	off := page * flash.PageSize
	if d.cr&flash.CR_BKER != 0 || off >= d.cfg.FlashSize {
		d.sr |= flash.SR_WRPERR
		d.cr &^= flash.CR_STRT
		return
	}
	glog.V(2).Infof("sim: erase page %d", page)
	d.begin(&operation{kind: opErase, off: off}, d.cfg.EraseTicks)
}

func (d *Device) storeFlash(off, val uint32) {
	if d.cr&flash.CR_PG == 0 {
		d.sr |= flash.SR_PGSERR
		return
	}
	d.stall()
	switch {
	case off%8 == 0:
		d.latch.valid = true
		d.latch.off = off
		d.latch.lo = val
	case off%8 == 4 && d.latch.valid && d.latch.off == off-4:
		d.latch.valid = false
		dw := off - 4
		if d.corrupted[dw] || !d.erased(dw, 8) {
			d.sr |= flash.SR_PROGERR
			return
		}
		data := uint64(d.latch.lo) | uint64(val)<<32
		glog.V(2).Infof("sim: program 0x%08x = 0x%016x", dw, data)
		d.begin(&operation{kind: opProgram, off: dw, data: data}, d.cfg.ProgramTicks)
	default:
		d.latch.valid = false
		d.sr |= flash.SR_PGAERR
	}
}

func (d *Device) begin(op *operation, ticks uint32) {
	op.start = d.ticks
	op.end = d.ticks + uint64(ticks)
	d.op = op
	d.sr |= flash.SR_BSY
}

func (d *Device) erased(off, n uint32) bool {
	for _, b := range d.mem[off : off+n] {
		if b != 0xff {
			return false
		}
	}
	return true
}

func (d *Device) completeOp() {
	op := d.op
	d.op = nil
	d.sr &^= flash.SR_BSY
	switch op.kind {
	case opErase:
		d.erasePage(op.off)
		d.cr &^= flash.CR_STRT
	case opProgram:
		d.program(op.off, op.data)
	}
	if d.cr&flash.CR_EOPIE != 0 {
		d.sr |= flash.SR_EOP
	}
}

func (d *Device) erasePage(off uint32) {
	for i := off; i < off+flash.PageSize; i++ {
		d.mem[i] = 0xff
	}
	for dw := off; dw < off+flash.PageSize; dw += 8 {
		delete(d.corrupted, dw)
	}
}

func (d *Device) program(off uint32, data uint64) {
	for i := uint32(0); i < 8; i++ {
		d.mem[off+i] = byte(data >> (8 * i))
	}
}

// interruptOp applies a reset to the operation in flight.
func (d *Device) interruptOp() {
	op := d.op
	d.op = nil
	elapsed := d.ticks - op.start
	switch op.kind {
	case opErase:
		if elapsed >= uint64(d.cfg.EraseTicks)/2 {
			d.erasePage(op.off)
		}
	case opProgram:
		switch {
		case elapsed < uint64(d.cfg.VulnerableFrom):
		case elapsed < uint64(d.cfg.VulnerableTo):
			// Half-programmed cells: the data no longer matches its ECC.
			d.program(op.off, op.data|0x5a5a5a5a5a5a5a5a)
			d.corrupted[op.off] = true
			d.newlyCorrupted = append(d.newlyCorrupted, op.off)
			glog.Infof("sim: program of 0x%08x interrupted %d ticks in, double word corrupted", op.off, elapsed)
		default:
			d.program(op.off, op.data)
		}
	}
}

// checkECC raises the NMI if off lies in a corrupted double word.
func (d *Device) checkECC(off uint32) {
	dw := off &^ 7
	if !d.corrupted[dw] {
		return
	}
	d.eccr = d.eccr&^(flash.ECCR_ADDR_ECC|flash.ECCR_BK_ECC) | flash.ECCR_ECCD | dw&flash.ECCR_ADDR_ECC
	d.raise(true)
}

// Read8 implements hal.Memory.
func (d *Device) Read8(addr uint32) uint8 {
	if d.stopped {
		return 0
	}
	d.tick()
	off, ok := d.flashOffset(addr)
	if !ok {
		d.raise(false)
	}
	d.checkECC(off)
	return d.mem[off]
}

// Corrupt marks the double word holding off as uncorrectable.
func (d *Device) Corrupt(off uint32) {
	d.corrupted[off&^7] = true
}

// Corrupted lists corrupted double-word offsets in ascending order.
func (d *Device) Corrupted() []uint32 {
	var res []uint32
	for dw := uint32(0); dw < d.cfg.FlashSize; dw += 8 {
		if d.corrupted[dw] {
			res = append(res, dw)
		}
	}
	return res
}

// Flash returns a copy of n bytes of flash at offset off.
func (d *Device) Flash(off, n uint32) []byte {
	res := make([]byte, n)
	copy(res, d.mem[off:off+n])
	return res
}

// MassErase returns every flash byte to 0xff and forgets all corruption, as
// an erase through the debug port would.
func (d *Device) MassErase() {
	for i := range d.mem {
		d.mem[i] = 0xff
	}
	d.corrupted = make(map[uint32]bool)
}

// SetECCR overwrites FLASH_ECCR, for injecting faults.
func (d *Device) SetECCR(v uint32) { d.eccr = v }
