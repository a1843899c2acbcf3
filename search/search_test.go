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
package search

import (
	"math/rand"
	"testing"

	"github.com/juju/errors"

	"github.com/mongoose-os/eccsnipe/calib"
)

func TestFirstAttempt(t *testing.T) {
	p, err := Next(calib.DefaultBottom, calib.DefaultTop, calib.NotStarted)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := p, (Plan{Bottom: 1, Top: 1000, Delay: 500}); got != want {
		t.Errorf("got: %s, want: %s", got, want)
	}
}

func TestBeforeWriteGoesDown(t *testing.T) {
	p, err := Next(1, 1000, calib.BeforeWrite)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := p, (Plan{Bottom: 1, Top: 500, Delay: 250, Narrowed: true}); got != want {
		t.Errorf("got: %s, want: %s", got, want)
	}
}

func TestAfterWriteGoesUp(t *testing.T) {
	p, err := Next(1, 1000, calib.AfterWrite)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := p, (Plan{Bottom: 500, Top: 1000, Delay: 750, Narrowed: true}); got != want {
		t.Errorf("got: %s, want: %s", got, want)
	}
}

func TestTooSimilar(t *testing.T) {
	for _, c := range []struct{ bottom, top uint32 }{
		{100, 104}, {100, 100}, {0, 4}, {10, 3},
	} {
		_, err := Next(c.bottom, c.top, calib.BeforeWrite)
		if got, want := errors.Cause(err), ErrTooSimilar; got != want {
			t.Errorf("[%d, %d]: got: %v, want: %v", c.bottom, c.top, got, want)
		}
	}
	if _, err := Next(100, 105, calib.BeforeWrite); err != nil {
		t.Errorf("width 5 rejected: %s", err)
	}
}

func TestPhaseMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		bottom := uint32(rng.Intn(100000))
		top := bottom + MinWidth + uint32(rng.Intn(100000))
		prev := bottom + (top-bottom)/2

		down, err := Next(bottom, top, calib.BeforeWrite)
		if err != nil {
			t.Fatal(err)
		}
		if down.Delay > prev {
			t.Fatalf("[%d, %d] before-write: delay %d > %d", bottom, top, down.Delay, prev)
		}
		up, err := Next(bottom, top, calib.AfterWrite)
		if err != nil {
			t.Fatal(err)
		}
		if up.Delay < prev {
			t.Fatalf("[%d, %d] after-write: delay %d < %d", bottom, top, up.Delay, prev)
		}
		for _, p := range []Plan{down, up} {
			if p.Bottom < bottom || p.Top > top || p.Bottom > p.Top {
				t.Fatalf("[%d, %d] widened to %s", bottom, top, p)
			}
		}
	}
}

// TestConverges drives the search with an oracle that resets "too early"
// whenever the delay reaches the true corruption point.
func TestConverges(t *testing.T) {
	for truth := uint32(2); truth <= calib.DefaultTop; truth++ {
		bottom, top := uint32(calib.DefaultBottom), uint32(calib.DefaultTop)
		phase := calib.NotStarted
		boots := 0
		for {
			p, err := Next(bottom, top, phase)
			if err != nil {
				if errors.Cause(err) != ErrTooSimilar {
					t.Fatal(err)
				}
				break
			}
			boots++
			if boots > 12 {
				t.Fatalf("truth %d: no convergence after %d boots, at %s", truth, boots, p)
			}
			bottom, top = p.Bottom, p.Top
			if !(bottom < truth && truth <= top) && phase != calib.NotStarted {
				t.Fatalf("truth %d: lost bracket at %s", truth, p)
			}
			if p.Delay >= truth {
				phase = calib.BeforeWrite
			} else {
				phase = calib.AfterWrite
			}
		}
		if top-bottom >= MinWidth {
			t.Errorf("truth %d: stopped at width %d", truth, top-bottom)
		}
	}
}
