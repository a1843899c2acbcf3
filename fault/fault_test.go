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
package fault

import (
	"testing"

	"github.com/mongoose-os/eccsnipe/hal"
	"github.com/mongoose-os/eccsnipe/stm32l4/flash"
)

var target = Range{Start: 0x10000, Len: 0x20}

func TestClassify(t *testing.T) {
	for _, c := range []struct {
		eccr uint32
		want Outcome
	}{
		{flash.ECCR_ECCD | 0x10000, Success},
		{flash.ECCR_ECCD | 0x10018, Success},
		{flash.ECCR_ECCD | 0x1001f, Success},
		{flash.ECCR_ECCD | 0x10020, OffTarget},
		{flash.ECCR_ECCD | 0x0fff8, OffTarget},
		{flash.ECCR_ECCD | flash.ECCR_BK_ECC | 0x10000, OffTarget},
		{0x10000, Unrelated},
		{flash.ECCR_ECCC | 0x10008, Unrelated},
		{0, Unrelated},
		{flash.ECCR_ADDR_ECC, Unrelated},
	} {
		if got := Classify(flash.DecodeECC(c.eccr), target); got != c.want {
			t.Errorf("0x%08x: got: %s, want: %s", c.eccr, got, c.want)
		}
	}
}

func TestClassifyEveryAddress(t *testing.T) {
	for addr := uint32(0); addr < 0x20000; addr++ {
		want := OffTarget
		if addr >= target.Start && addr < target.Start+target.Len {
			want = Success
		}
		if got := Classify(flash.ECC{DoubleError: true, Address: addr}, target); got != want {
			t.Fatalf("0x%x: got: %s, want: %s", addr, got, want)
		}
		if got := Classify(flash.ECC{Address: addr}, target); got != Unrelated {
			t.Fatalf("0x%x without ECCD: got: %s", addr, got)
		}
	}
}

func TestRangeOverflow(t *testing.T) {
	r := Range{Start: 0xfffffff0, Len: 0x20}
	if !r.Contains(0xffffffff) {
		t.Errorf("end of address space not contained")
	}
	if r.Contains(0x8) {
		t.Errorf("wrapped address contained")
	}
}

type leds map[hal.LED]bool

func (l leds) SetLED(led hal.LED, on bool) { l[led] = on }

func TestReport(t *testing.T) {
	for _, c := range []struct {
		o                Outcome
		green, red, blue bool
	}{
		{Success, true, false, false},
		{OffTarget, false, true, false},
		{Unrelated, false, true, true},
	} {
		l := leds{}
		Report(c.o, l)
		if l[hal.Green] != c.green || l[hal.Red] != c.red || l[hal.Blue] != c.blue {
			t.Errorf("%s: got: %v", c.o, l)
		}
	}
}
