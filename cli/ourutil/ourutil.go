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
package ourutil

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/golang/glog"

	"github.com/mongoose-os/eccsnipe/hal"
)

func Reportf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	glog.Infof(f, args...)
}

func Freportf(logFile io.Writer, f string, args ...interface{}) {
	fmt.Fprintf(logFile, f+"\n", args...)
	glog.Infof(f, args...)
}

var ledColors = map[hal.LED]*color.Color{
	hal.Green: color.New(color.FgGreen, color.Bold),
	hal.Red:   color.New(color.FgRed, color.Bold),
	hal.Blue:  color.New(color.FgBlue, color.Bold),
}

// FormatLEDs renders the indicator LEDs as a short string, lit ones in
// their colour, dark ones as a dash.
func FormatLEDs(green, red, blue bool) string {
	lit := map[hal.LED]bool{hal.Green: green, hal.Red: red, hal.Blue: blue}
	var parts []string
	for _, l := range []hal.LED{hal.Green, hal.Red, hal.Blue} {
		if lit[l] {
			parts = append(parts, ledColors[l].Sprint(l))
		} else {
			parts = append(parts, strings.Repeat("-", len(l.String())))
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}
