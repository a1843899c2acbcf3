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
package version

import (
	"fmt"
	"regexp"
	"runtime"
)

const (
	LatestVersionName = "latest"
)

// Set at link time:
//   go build -ldflags "-X github.com/mongoose-os/eccsnipe/version.Version=1.2 \
//     -X github.com/mongoose-os/eccsnipe/version.BuildId=1.2+abcdef"
var (
	Version = LatestVersionName
	BuildId = ""
)

var regexpVersionNumber = regexp.MustCompile(`^\d+\.[0-9.]*$`)

// GetVersion returns this binary's version, or "latest" if it's not a release build.
func GetVersion() string {
	if LooksLikeVersionNumber(Version) {
		return Version
	}
	return LatestVersionName
}

func LooksLikeVersionNumber(s string) bool {
	return regexpVersionNumber.MatchString(s)
}

// Banner is what --version prints.
func Banner(tool string) string {
	buildID := BuildId
	if buildID == "" {
		buildID = "unknown"
	}
	return fmt.Sprintf("%s\nVersion: %s\nBuild ID: %s\nGo: %s (%s/%s)\n",
		tool, GetVersion(), buildID, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
