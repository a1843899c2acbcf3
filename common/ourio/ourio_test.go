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
package ourio

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileIfDifferent(t *testing.T) {
	dir, err := ioutil.TempDir("", "ourio")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	fn := filepath.Join(dir, "state.yaml")

	for i, c := range []struct {
		data  string
		wrote bool
	}{
		{"a: 1\n", true},
		{"a: 1\n", false},
		{"a: 2\n", true},
	} {
		wrote, err := WriteFileIfDifferent(fn, []byte(c.data), 0644)
		if err != nil {
			t.Fatal(err)
		}
		if got, want := wrote, c.wrote; got != want {
			t.Errorf("%d: got: %v, want: %v", i, got, want)
		}
		data, err := ioutil.ReadFile(fn)
		if err != nil {
			t.Fatal(err)
		}
		if got, want := string(data), c.data; got != want {
			t.Errorf("%d: got: %q, want: %q", i, got, want)
		}
	}

	files, err := ioutil.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(files), 1; got != want {
		t.Errorf("got: %d files, want: %d (temporary file left behind?)", got, want)
	}
}

func TestWriteYAMLFileIfDifferent(t *testing.T) {
	dir, err := ioutil.TempDir("", "ourio")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	fn := filepath.Join(dir, "state.yaml")

	v := struct {
		Backup []uint32 `yaml:"backup"`
	}{[]uint32{1, 2}}
	if wrote, err := WriteYAMLFileIfDifferent(fn, &v, 0644); err != nil || !wrote {
		t.Fatalf("got: %v, %v", wrote, err)
	}
	if wrote, err := WriteYAMLFileIfDifferent(fn, &v, 0644); err != nil || wrote {
		t.Errorf("got: %v, %v; unchanged data rewritten", wrote, err)
	}
}
