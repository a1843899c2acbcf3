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
// Package search is the binary search over the injected delay. It runs once
// per boot and learns from the phase the previous boot left behind.
package search

import (
	"fmt"

	"github.com/juju/errors"

	"github.com/mongoose-os/eccsnipe/calib"
)

// MinWidth is the narrowest interval still worth searching. Below it the
// window has been missed and searching on would only probe noise.
const MinWidth = 5

// ErrTooSimilar means the interval collapsed without a hit.
var ErrTooSimilar = errors.New("search interval too narrow")

// Plan is the outcome of one search step.
type Plan struct {
	Bottom uint32
	Top    uint32
	// Delay is the number of busy-loop iterations to inject this boot.
	Delay uint32
	// Narrowed is set if Bottom or Top moved.
	Narrowed bool
}

func (p Plan) String() string {
	return fmt.Sprintf("[%d, %d] delay=%d", p.Bottom, p.Top, p.Delay)
}

// Next narrows [bottom, top] according to the phase of the previous boot.
//
// BeforeWrite means the watchdog fired before the write returned: the delay
// was too long, search below the old middle. AfterWrite means the write
// completed before the watchdog fired: search above it.
func Next(bottom, top uint32, phase calib.Phase) (Plan, error) {
	if top < bottom || top-bottom < MinWidth {
		return Plan{}, errors.Annotatef(ErrTooSimilar, "[%d, %d]", bottom, top)
	}
	middle := bottom + (top-bottom)/2
	p := Plan{Bottom: bottom, Top: top}
	switch phase {
	case calib.BeforeWrite:
		p.Top = middle
	case calib.AfterWrite:
		p.Bottom = middle
	}
	p.Narrowed = p.Bottom != bottom || p.Top != top
	p.Delay = p.Bottom + (p.Top-p.Bottom)/2
	return p, nil
}
