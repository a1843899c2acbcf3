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
package flags

import (
	flag "github.com/spf13/pflag"
)

// Every flag here overrides the matching field of the config file, but only
// when it is given explicitly (or through the environment).
var (
	Config   = flag.String("config", "", "YAML file with target and simulator settings")
	StateDir = flag.String("state-dir", "", "Directory holding the simulated board between invocations")
	MaxBoots = flag.Int("max-boots", 0, "Give up after this many boots")

	TargetAddress   = flag.Uint32("target-address", 0, "Flash address of the region to corrupt")
	CorruptRange    = flag.Uint32("corrupt-range", 0, "Length in bytes of the region to corrupt")
	WatchdogTimeout = flag.Duration("watchdog-timeout", 0, "Watchdog period armed before the write; 0 is the hardware minimum")

	MassErase = flag.Bool("mass-erase", false, "With reset: also erase the whole flash")
	Verbose   = flag.Bool("verbose", false, "Print the firmware console after every boot")
)
