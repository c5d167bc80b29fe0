// Dockhand Core
// Copyright (c) 2025 The Dockhand Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Dockhand Core.
//
// Dockhand Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Dockhand Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Dockhand Core.  If not, see <http://www.gnu.org/licenses/>.

package linux

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DockhandProject/dockhand-core/pkg/platforms"
	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog/log"
)

const (
	lsblkTimeout = 10 * time.Second
	// -b requests byte counts but older lsblk releases still emit suffixed
	// strings for some columns, so sizes stay raw here.
	lsblkColumns = "NAME,SIZE,MODEL,MOUNTPOINT,RM,LABEL,UUID,FSTYPE,FSUSED,FSAVAIL,FSSIZE"
)

// lsblkDevice mirrors one entry of lsblk's JSON output. Fields are decoded
// weakly: depending on the util-linux version, sizes arrive as numbers or
// strings and the removable flag as a bool or "1"/"0".
type lsblkDevice struct {
	Name       string        `mapstructure:"name"`
	Size       string        `mapstructure:"size"`
	Model      string        `mapstructure:"model"`
	Mountpoint string        `mapstructure:"mountpoint"`
	Label      string        `mapstructure:"label"`
	UUID       string        `mapstructure:"uuid"`
	FSType     string        `mapstructure:"fstype"`
	FSUsed     string        `mapstructure:"fsused"`
	FSAvail    string        `mapstructure:"fsavail"`
	FSSize     string        `mapstructure:"fssize"`
	Children   []lsblkDevice `mapstructure:"children"`
	Removable  bool          `mapstructure:"rm"`
}

// ListBlockDevices queries the block-device topology with lsblk.
func (p *Platform) ListBlockDevices(ctx context.Context) ([]platforms.BlockDevice, error) {
	ctx, cancel := context.WithTimeout(ctx, lsblkTimeout)
	defer cancel()

	out, err := p.executor.Output(ctx, "lsblk", "-b", "-J", "-o", lsblkColumns)
	if err != nil {
		return nil, fmt.Errorf("lsblk query failed: %w", err)
	}

	return parseLsblk(out)
}

func parseLsblk(data []byte) ([]platforms.BlockDevice, error) {
	var raw struct {
		Blockdevices []map[string]any `json:"blockdevices"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse lsblk output: %w", err)
	}

	devices := make([]platforms.BlockDevice, 0, len(raw.Blockdevices))
	for _, entry := range raw.Blockdevices {
		dev, err := decodeLsblkEntry(entry)
		if err != nil {
			// a single malformed entry never poisons the whole snapshot
			log.Warn().Err(err).Msg("skipping malformed lsblk entry")
			continue
		}
		devices = append(devices, toBlockDevice(dev))
	}
	return devices, nil
}

func decodeLsblkEntry(entry map[string]any) (lsblkDevice, error) {
	var dev lsblkDevice
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &dev,
	})
	if err != nil {
		return dev, fmt.Errorf("failed to create lsblk decoder: %w", err)
	}
	if err := decoder.Decode(entry); err != nil {
		return dev, fmt.Errorf("failed to decode lsblk entry: %w", err)
	}
	if dev.Name == "" {
		return dev, fmt.Errorf("lsblk entry has no name: %v", entry)
	}
	return dev, nil
}

func toBlockDevice(dev lsblkDevice) platforms.BlockDevice {
	out := platforms.BlockDevice{
		Name:       dev.Name,
		Size:       dev.Size,
		Model:      dev.Model,
		Mountpoint: dev.Mountpoint,
		Label:      dev.Label,
		UUID:       dev.UUID,
		FSType:     dev.FSType,
		FSUsed:     dev.FSUsed,
		FSAvail:    dev.FSAvail,
		FSSize:     dev.FSSize,
		Removable:  dev.Removable,
	}
	if len(dev.Children) > 0 {
		out.Children = make([]platforms.BlockDevice, 0, len(dev.Children))
		for _, child := range dev.Children {
			out.Children = append(out.Children, toBlockDevice(child))
		}
	}
	return out
}
