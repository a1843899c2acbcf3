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
// Package hal lists the board capabilities the firmware consumes besides
// raw register access. Each is a thin wrapper over a peripheral with no
// state machine of its own.
package hal

import "time"

// Backup is the RTC backup register file. It survives system reset and,
// with VBAT present, loss of the main supply.
type Backup interface {
	ReadBackup(idx int) uint32
	WriteBackup(idx int, val uint32)
}

// LED identifies one indicator output.
type LED int

const (
	// Green means ready or success.
	Green LED = iota
	// Red means failure.
	Red
	// Blue means in progress.
	Blue
)

func (l LED) String() string {
	switch l {
	case Green:
		return "green"
	case Red:
		return "red"
	case Blue:
		return "blue"
	}
	return "?"
}

// Indicators drives the three indicator outputs.
type Indicators interface {
	SetLED(l LED, on bool)
}

// Watchdog is the independent watchdog. Once started it cannot be stopped.
// A zero timeout selects the shortest period the hardware supports.
type Watchdog interface {
	Start(timeout time.Duration)
	Feed()
}

// Memory is plain read access to the address space, used to touch flash so
// that latent ECC errors raise their exception.
type Memory interface {
	Read8(addr uint32) uint8
}

// Delay burns CPU in a loop the compiler cannot remove.
type Delay interface {
	Spin(iterations uint32)
}

// Halter ends an execution context. Neither method returns.
type Halter interface {
	// Idle spins forever without touching the watchdog.
	Idle()
	// FeedForever spins forever, feeding wd on every iteration.
	FeedForever(wd Watchdog)
}

// Console is best-effort debug text output (RTT, semihosting, UART).
type Console interface {
	Printf(format string, args ...interface{})
}
