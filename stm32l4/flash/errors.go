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
package flash

import "fmt"

// Error is a flash controller failure. Values are comparable, so callers
// check them with errors.Cause(err) == ErrBusy.
type Error int

const (
	// ErrUnlockFailed means the controller rejected the key sequence. LOCK
	// stays set until the next system reset.
	ErrUnlockFailed Error = 1
	// ErrBusy means BSY did not clear within the polling budget.
	ErrBusy Error = 2
	// ErrIllegal means a programming error flag is set in FLASH_SR.
	ErrIllegal Error = 3
	// ErrInvalidPage means the page number does not exist in single-bank mode.
	ErrInvalidPage Error = 4
	// ErrNullAddress is returned for a program request at address 0.
	ErrNullAddress Error = 5
)

func (e Error) Error() string {
	switch e {
	case ErrUnlockFailed:
		return "flash unlock failed"
	case ErrBusy:
		return "flash busy"
	case ErrIllegal:
		return "illegal flash programming sequence"
	case ErrInvalidPage:
		return "invalid flash page"
	case ErrNullAddress:
		return "flash write to address 0"
	}
	return fmt.Sprintf("flash error %d", int(e))
}

// Status is a classified read of FLASH_SR.
type Status int

const (
	Ready Status = iota
	Busy
	Illegal
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Busy:
		return "busy"
	case Illegal:
		return "illegal"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Err maps the status to nil, ErrBusy or ErrIllegal.
func (s Status) Err() error {
	switch s {
	case Busy:
		return ErrBusy
	case Illegal:
		return ErrIllegal
	}
	return nil
}

// StatusOf classifies a raw FLASH_SR value. BSY takes precedence over the
// error flags.
func StatusOf(sr uint32) Status {
	switch {
	case sr&SR_BSY != 0:
		return Busy
	case sr&SR_ILLEGAL != 0:
		return Illegal
	}
	return Ready
}
