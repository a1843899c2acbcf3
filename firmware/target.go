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
package firmware

import (
	"fmt"

	"github.com/juju/errors"

	"github.com/mongoose-os/eccsnipe/fault"
	"github.com/mongoose-os/eccsnipe/stm32l4/flash"
)

// The region to corrupt, as a flash offset (also valid through the boot
// alias at 0) and a byte length.
const (
	TargetAddress = 0x1_0000
	CorruptRange  = 0x20
)

// The firmware itself lives at the start of flash and must never erase its
// own page. In dual-bank mode pages are 4 KiB, so keep two single-bank
// pages clear.
const MinTargetAddress = 8192

// Compile-time range checks: these overflow if violated.
const (
	_ uint = TargetAddress - MinTargetAddress
	_ uint = CorruptRange - 1
)

// Target is the region under attack.
type Target struct {
	Address uint32 `yaml:"address"`
	Range   uint32 `yaml:"range"`
}

func DefaultTarget() Target {
	return Target{Address: TargetAddress, Range: CorruptRange}
}

// Offset is Address relative to the start of flash.
func (t Target) Offset() uint32 {
	if t.Address >= flash.MemBase {
		return t.Address - flash.MemBase
	}
	return t.Address
}

func (t Target) Page() uint32 {
	return flash.PageNumber(t.Address)
}

// Words is the number of double words written: one past the range, so
// that the last targeted byte is followed by more in-flight programming.
func (t Target) Words() int {
	return int(t.Range/8) + 1
}

// Bounds is the range an ECC fault address must fall into to count.
func (t Target) Bounds() fault.Range {
	return fault.Range{Start: t.Offset(), Len: t.Range}
}

func (t Target) String() string {
	return fmt.Sprintf("0x%x+0x%x (page %d)", t.Address, t.Range, t.Page())
}

// Validate checks the target against a flash of flashSize bytes.
func (t Target) Validate(flashSize uint32) error {
	if t.Range == 0 {
		return errors.Errorf("corrupt range must be positive")
	}
	if t.Range >= flash.PageSize {
		return errors.Errorf("corrupt range 0x%x does not fit a page", t.Range)
	}
	off := t.Offset()
	writeLen := uint32(t.Words()) * 8
	switch {
	case off < MinTargetAddress:
		return errors.Errorf("target 0x%x overlaps the firmware (minimum 0x%x)", t.Address, MinTargetAddress)
	case off%8 != 0:
		return errors.Errorf("target 0x%x is not double-word aligned", t.Address)
	case t.Page() >= flash.PageCount || uint64(off)+uint64(writeLen) > uint64(flashSize):
		return errors.Errorf("target 0x%x is outside of the flash", t.Address)
	case off%flash.PageSize+writeLen > flash.PageSize:
		return errors.Errorf("writing 0x%x bytes at 0x%x crosses the page boundary", writeLen, t.Address)
	}
	return nil
}
