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
package main

import (
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/juju/errors"
	flag "github.com/spf13/pflag"

	"github.com/mongoose-os/eccsnipe/common/pflagenv"
	"github.com/mongoose-os/eccsnipe/version"
)

const (
	envPrefix = "ECCSNIPE_"
	toolName  = "eccsnipe, a flash ECC corruption harness"
)

var (
	versionFlag = flag.Bool("version", false, "Print version and exit")
	helpFull    = flag.Bool("helpfull", false, "Show full help, including advanced flags")
)

var (
	experimentFlags = []string{"config", "state-dir", "target-address", "corrupt-range", "watchdog-timeout", "verbose"}

	// put all commands here
	commands = []command{
		{"boot", bootCmd, `Run one boot of the firmware on the simulated board`, nil, experimentFlags},
		{"run", runCmd, `Boot until the target is corrupted, the firmware gives up, or --max-boots is reached`, nil, append([]string{"max-boots"}, experimentFlags...)},
		{"status", statusCmd, `Show the calibration record and the corrupted flash`, nil, []string{"config", "state-dir"}},
		{"reset", resetCmd, `Power-cycle the board without backup battery, starting a new search`, nil, []string{"config", "state-dir", "mass-erase"}},
	}
)

type command struct {
	name     string
	handler  handler
	short    string
	required []string
	optional []string
}

type handler func() error

func run() error {
	for _, c := range commands {
		if c.name == flag.Arg(0) {
			// check required flags
			if err := checkFlags(c.required); err != nil {
				return errors.Trace(err)
			}
			// run the handler
			if err := c.handler(); err != nil {
				return errors.Trace(err)
			}
			return nil
		}
	}
	// not found
	usage()
	return nil
}

func main() {
	initFlags()
	flag.Parse()
	if err := pflagenv.Parse(envPrefix); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if *helpFull {
		unhideFlags()
		usage()
	} else if *versionFlag {
		fmt.Print(version.Banner(toolName))
		return
	}

	err := run()
	glog.Flush()
	if err != nil {
		glog.Infof("Error: %+v", err)
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
