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
// Package config holds the settings of one corruption experiment: what to
// corrupt, how the simulated board behaves, and where its state lives.
package config

import (
	"io/ioutil"
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"
	flag "github.com/spf13/pflag"
	yaml "gopkg.in/yaml.v2"

	"github.com/mongoose-os/eccsnipe/common/multierror"
	"github.com/mongoose-os/eccsnipe/firmware"
	"github.com/mongoose-os/eccsnipe/sim"
)

const (
	DefaultStateDir = ".eccsnipe"
	DefaultMaxBoots = 64
)

type Config struct {
	StateDir string `yaml:"state_dir"`
	MaxBoots int    `yaml:"max_boots"`
	// WatchdogTimeout is armed right before the delay loop. Zero selects
	// the shortest period the watchdog supports.
	WatchdogTimeout time.Duration   `yaml:"watchdog_timeout"`
	Target          firmware.Target `yaml:"target"`
	Sim             sim.Config      `yaml:"sim"`
}

func Default() Config {
	return Config{
		StateDir: DefaultStateDir,
		MaxBoots: DefaultMaxBoots,
		Target:   firmware.DefaultTarget(),
		Sim:      sim.DefaultConfig(),
	}
}

// Load reads a YAML config file over the defaults. Keys missing from the
// file keep their default values; unknown keys are an error. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return c, errors.Annotatef(err, "failed to read config")
	}
	if err := Parse(data, &c); err != nil {
		return c, errors.Annotatef(err, "%s", path)
	}
	glog.V(1).Infof("config from %s: %+v", path, c)
	return c, nil
}

// Parse decodes data into c, leaving fields absent from data untouched.
func Parse(data []byte, c *Config) error {
	return errors.Trace(yaml.UnmarshalStrict(data, c))
}

// Overlay copies the flags of fs that were set, on the command line or from
// the environment, into c.
func (c *Config) Overlay(fs *flag.FlagSet) error {
	var errs error
	fs.VisitAll(func(f *flag.Flag) {
		if !f.Changed {
			return
		}
		var err error
		switch f.Name {
		case "state-dir":
			c.StateDir, err = fs.GetString(f.Name)
		case "max-boots":
			c.MaxBoots, err = fs.GetInt(f.Name)
		case "target-address":
			c.Target.Address, err = fs.GetUint32(f.Name)
		case "corrupt-range":
			c.Target.Range, err = fs.GetUint32(f.Name)
		case "watchdog-timeout":
			c.WatchdogTimeout, err = fs.GetDuration(f.Name)
		default:
			return
		}
		errs = multierror.Append(errs, errors.Annotatef(err, "--%s", f.Name))
	})
	return errs
}

// Validate reports every problem with c at once.
func (c *Config) Validate() error {
	var errs error
	if c.StateDir == "" {
		errs = multierror.Append(errs, errors.New("state_dir is empty"))
	}
	if c.MaxBoots <= 0 {
		errs = multierror.Append(errs, errors.Errorf("max_boots must be positive, got %d", c.MaxBoots))
	}
	if c.WatchdogTimeout < 0 {
		errs = multierror.Append(errs, errors.Errorf("negative watchdog_timeout %s", c.WatchdogTimeout))
	}
	if err := c.Sim.Validate(); err != nil {
		errs = multierror.Append(errs, errors.Annotatef(err, "sim"))
	} else if err := c.Target.Validate(c.Sim.FlashSize); err != nil {
		errs = multierror.Append(errs, errors.Annotatef(err, "target"))
	}
	return errs
}
