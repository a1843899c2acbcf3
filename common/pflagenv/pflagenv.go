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
package pflagenv

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"github.com/spf13/pflag"
)

// ParseFlagSet iterates through all non-set flags in the given FlagSet,
// checks if there is an environment variable with the uppercased flag name
// prepended with the given envPrefix, and if so, sets flag value to the
// environment variable value. A value the flag rejects is an error naming
// the variable.
//
// It should be called after Parse is called for the given FlagSet.
func ParseFlagSet(fs *pflag.FlagSet, envPrefix string) error {
	var nonset []*pflag.Flag
	fs.VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			nonset = append(nonset, f)
		}
	})
	sort.Slice(nonset, func(i, j int) bool { return nonset[i].Name < nonset[j].Name })

	for _, f := range nonset {
		name := EnvName(f.Name, envPrefix)
		val, ok := os.LookupEnv(name)
		if !ok || val == "" {
			continue
		}
		if err := f.Value.Set(val); err != nil {
			return errors.Annotatef(err, "invalid %s", name)
		}
		f.Changed = true
		glog.V(1).Infof("--%s=%q from %s", f.Name, val, name)
	}
	return nil
}

// The same as ParseFlagSet, but operates on a default FlagSet: pflag.CommandLine
func Parse(envPrefix string) error {
	return ParseFlagSet(pflag.CommandLine, envPrefix)
}

// EnvName returns the environment variable consulted for flagName.
func EnvName(flagName, envPrefix string) string {
	flagName = strings.ToUpper(flagName)
	flagName = strings.Replace(flagName, "-", "_", -1)
	return fmt.Sprint(envPrefix, flagName)
}
