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
package sim

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"github.com/marcinbor85/gohex"
	yaml "gopkg.in/yaml.v2"

	"github.com/mongoose-os/eccsnipe/common/ourio"
	"github.com/mongoose-os/eccsnipe/stm32l4/flash"
)

const (
	StateFile = "state.yaml"
	FlashFile = "flash.hex"
)

// state is what survives between two invocations: everything a reset
// keeps.
type state struct {
	Config    Config   `yaml:"config"`
	Backup    []uint32 `yaml:"backup"`
	Corrupted []uint32 `yaml:"corrupted,omitempty"`
}

// Save writes the non-volatile part of the device to dir: backup registers
// and ECC state as YAML, flash contents as Intel HEX.
func (d *Device) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Trace(err)
	}
	st := state{
		Config:    d.cfg,
		Backup:    d.backup[:],
		Corrupted: d.Corrupted(),
	}
	if _, err := ourio.WriteYAMLFileIfDifferent(filepath.Join(dir, StateFile), &st, 0644); err != nil {
		return errors.Annotatef(err, "failed to write state")
	}

	mem := gohex.NewMemory()
	for off := uint32(0); off < d.cfg.FlashSize; {
		if d.mem[off] == 0xff {
			off++
			continue
		}
		end := off
		for end < d.cfg.FlashSize && d.mem[end] != 0xff {
			end++
		}
		if err := mem.AddBinary(flash.MemBase+off, d.mem[off:end]); err != nil {
			return errors.Annotatef(err, "flash segment at 0x%x", off)
		}
		off = end
	}
	buf := bytes.NewBuffer(nil)
	if err := mem.DumpIntelHex(buf, 16); err != nil {
		return errors.Annotatef(err, "failed to encode flash image")
	}
	wrote, err := ourio.WriteFileIfDifferent(filepath.Join(dir, FlashFile), buf.Bytes(), 0644)
	if err != nil {
		return errors.Annotatef(err, "failed to write flash image")
	}
	glog.V(1).Infof("%d flash segments in %s (changed: %v)", len(mem.GetDataSegments()), dir, wrote)
	return nil
}

// Load restores a device saved with Save. The result is in the state right
// after a reset. If dir holds no state, a fresh device is returned.
func Load(dir string, cfg Config) (*Device, error) {
	data, err := ioutil.ReadFile(filepath.Join(dir, StateFile))
	if os.IsNotExist(err) {
		glog.Infof("no saved state in %s, starting with a blank device", dir)
		return New(cfg)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	var st state
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, errors.Annotatef(err, "invalid %s", StateFile)
	}
	if st.Config.FlashSize != 0 && st.Config.FlashSize != cfg.FlashSize {
		return nil, errors.Errorf("saved flash size %d does not match configured %d",
			st.Config.FlashSize, cfg.FlashSize)
	}
	d, err := New(cfg)
	if err != nil {
		return nil, errors.Trace(err)
	}
	copy(d.backup[:], st.Backup)
	for _, dw := range st.Corrupted {
		if dw >= cfg.FlashSize {
			return nil, errors.Errorf("corrupted offset 0x%x out of range", dw)
		}
		d.Corrupt(dw)
	}

	f, err := os.Open(filepath.Join(dir, FlashFile))
	if os.IsNotExist(err) {
		return d, nil
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(f); err != nil {
		return nil, errors.Annotatef(err, "invalid %s", FlashFile)
	}
	for _, seg := range mem.GetDataSegments() {
		off, ok := d.flashOffset(seg.Address)
		if !ok || off+uint32(len(seg.Data)) > cfg.FlashSize {
			return nil, errors.Errorf("flash segment at 0x%08x out of range", seg.Address)
		}
		copy(d.mem[off:], seg.Data)
	}
	return d, nil
}
