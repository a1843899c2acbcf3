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

// FLASH register block, RM0394 section 3.7.
const (
	Base = 0x40022000

	KEYR = Base + 0x08
	SR   = Base + 0x10
	CR   = Base + 0x14
	ECCR = Base + 0x18
)

// Main memory is mapped at MemBase and, with the default boot
// configuration, aliased at address 0.
const (
	MemBase   = 0x08000000
	PageSize  = 0x800
	PageCount = 256
)

const (
	Key1 = 0x45670123
	Key2 = 0xCDEF89AB
)

// FLASH_SR bits.
const (
	SR_EOP     = 1 << 0
	SR_OPERR   = 1 << 1
	SR_PROGERR = 1 << 3
	SR_WRPERR  = 1 << 4
	SR_PGAERR  = 1 << 5
	SR_SIZERR  = 1 << 6
	SR_PGSERR  = 1 << 7
	SR_MISERR  = 1 << 8
	SR_FASTERR = 1 << 9
	SR_RDERR   = 1 << 14
	SR_OPTVERR = 1 << 15
	SR_BSY     = 1 << 16

	// Sticky programming error flags, all write-1-to-clear.
	SR_PROG_ERRORS = SR_PROGERR | SR_WRPERR | SR_PGAERR | SR_SIZERR | SR_PGSERR | SR_MISERR | SR_FASTERR

	// Flags that make Status report Illegal.
	SR_ILLEGAL = SR_PROGERR | SR_WRPERR | SR_PGAERR | SR_SIZERR | SR_PGSERR | SR_MISERR
)

// FLASH_CR bits.
const (
	CR_PG        = 1 << 0
	CR_PER       = 1 << 1
	CR_MER1      = 1 << 2
	CR_PNB_Pos   = 3
	CR_PNB       = 0xff << CR_PNB_Pos
	CR_BKER      = 1 << 11
	CR_MER2      = 1 << 15
	CR_STRT      = 1 << 16
	CR_OPTSTRT   = 1 << 17
	CR_FSTPG     = 1 << 18
	CR_EOPIE     = 1 << 24
	CR_ERRIE     = 1 << 25
	CR_OPTLOCK   = 1 << 30
	CR_LOCK      = 1 << 31
	CR_RESET_VAL = CR_LOCK | CR_OPTLOCK
)

// FLASH_ECCR bits.
const (
	ECCR_ADDR_ECC = 0x7ffff
	ECCR_BK_ECC   = 1 << 19
	ECCR_SYSF_ECC = 1 << 20
	ECCR_ECCIE    = 1 << 24
	ECCR_ECCC     = 1 << 30
	ECCR_ECCD     = 1 << 31

	// The bank bit is folded into the fault address at this position.
	eccBankShift = 20
)
