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
// Package fault decides, from inside an exception handler, whether the
// previous attempt left an uncorrectable ECC error where we aimed.
package fault

import (
	"fmt"

	"github.com/mongoose-os/eccsnipe/hal"
	"github.com/mongoose-os/eccsnipe/stm32l4/flash"
)

type Outcome int

const (
	// Unrelated is any exception without ECCD set.
	Unrelated Outcome = iota
	// OffTarget is an ECC double error outside the target range.
	OffTarget
	// Success is an ECC double error inside the target range.
	Success
)

func (o Outcome) String() string {
	switch o {
	case Unrelated:
		return "unrelated fault"
	case OffTarget:
		return "off-target ECC error"
	case Success:
		return "success"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Range is the half-open byte range [Start, Start+Len) in flash offsets.
type Range struct {
	Start uint32
	Len   uint32
}

func (r Range) Contains(addr uint32) bool {
	return addr >= r.Start && addr-r.Start < r.Len
}

func (r Range) String() string {
	return fmt.Sprintf("[0x%x, 0x%x)", r.Start, uint64(r.Start)+uint64(r.Len))
}

// Classify maps a decoded ECCR to an outcome.
func Classify(e flash.ECC, target Range) Outcome {
	switch {
	case !e.DoubleError:
		return Unrelated
	case target.Contains(e.Address):
		return Success
	}
	return OffTarget
}

// Report shows the outcome on the indicators: green alone for success, red
// alone for an off-target error, red and blue for anything unrelated.
func Report(o Outcome, ind hal.Indicators) {
	switch o {
	case Success:
		ind.SetLED(hal.Green, true)
	case OffTarget:
		ind.SetLED(hal.Red, true)
	default:
		ind.SetLED(hal.Red, true)
		ind.SetLED(hal.Blue, true)
	}
}
