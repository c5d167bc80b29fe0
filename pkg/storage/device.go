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

// Package storage implements the removable-device domain: enumeration and
// classification of block devices, the safety filter that keeps system
// volumes out of reach, and the mount/unmount/format orchestration with its
// per-device busy guard.
package storage

import (
	"math"
	"strings"

	"github.com/DockhandProject/dockhand-core/pkg/platforms"
	"github.com/rs/zerolog/log"
)

const (
	DeviceTypeUSB      = "usb"
	DeviceTypePortable = "portable"

	// at or above this capacity a drive is assumed to be a portable disk
	// rather than a flash stick; heuristic, no better signal exists
	portableSizeThreshold = 100 * 1024 * 1024 * 1024
)

// RemovableDevice is one eligible removable drive as surfaced to clients.
// Name is only stable within a single enumeration snapshot.
type RemovableDevice struct {
	Name          string `json:"name"`
	SizeHuman     string `json:"sizeHuman"`
	Model         string `json:"model"`
	Label         string `json:"label"`
	UUID          string `json:"uuid"`
	FSType        string `json:"fsType"`
	Mountpoint    string `json:"mountpoint"`
	FSUsedHuman   string `json:"fsUsedHuman,omitempty"`
	FSAvailHuman  string `json:"fsAvailHuman,omitempty"`
	FSSizeHuman   string `json:"fsSizeHuman,omitempty"`
	DeviceType    string `json:"deviceType"`
	DisplayName   string `json:"displayName,omitempty"`
	FSUsedPercent *int   `json:"fsUsedPercent,omitempty"`
	SizeBytes     uint64 `json:"sizeBytes"`
}

// RootStorage reports capacity counters for the primary filesystem.
type RootStorage struct {
	TotalHuman     string `json:"totalHuman"`
	UsedHuman      string `json:"usedHuman"`
	AvailHuman     string `json:"availHuman"`
	TotalBytes     uint64 `json:"totalBytes"`
	UsedBytes      uint64 `json:"usedBytes"`
	AvailableBytes uint64 `json:"availableBytes"`
	UsedPercent    int    `json:"usedPercent"`
}

// normalizeDevice flattens a raw disk and its partitions into the external
// device model. Disk-level fields win; empty ones cascade to the first
// partition, which usually carries the real filesystem counters.
func normalizeDevice(disk platforms.BlockDevice) RemovableDevice {
	sizeBytes, err := ParseSize(disk.Size)
	if err != nil {
		log.Debug().Err(err).Str("device", disk.Name).Msg("unparseable disk size")
	}

	dev := RemovableDevice{
		Name:       disk.Name,
		SizeBytes:  sizeBytes,
		SizeHuman:  HumanSize(sizeBytes),
		Model:      strings.TrimSpace(disk.Model),
		Label:      disk.Label,
		UUID:       disk.UUID,
		FSType:     disk.FSType,
		Mountpoint: disk.Mountpoint,
	}

	fsUsed, fsAvail, fsSize := disk.FSUsed, disk.FSAvail, disk.FSSize
	if part := firstPartition(disk); part != nil {
		if dev.Label == "" {
			dev.Label = part.Label
		}
		if dev.UUID == "" {
			dev.UUID = part.UUID
		}
		if dev.FSType == "" {
			dev.FSType = part.FSType
		}
		if dev.Mountpoint == "" {
			dev.Mountpoint = part.Mountpoint
		}
		if fsUsed == "" {
			fsUsed = part.FSUsed
		}
		if fsAvail == "" {
			fsAvail = part.FSAvail
		}
		if fsSize == "" {
			fsSize = part.FSSize
		}
	}

	dev.DeviceType = classifyDevice(dev.Model, dev.SizeBytes)

	if dev.Mountpoint != "" {
		dev.FSUsedHuman, dev.FSAvailHuman, dev.FSSizeHuman, dev.FSUsedPercent =
			resolveUsage(disk.Name, fsUsed, fsAvail, fsSize)
	}

	return dev
}

// firstPartition returns the disk's first child partition, or nil when the
// disk has none (superfloppy drives carry the filesystem directly).
func firstPartition(disk platforms.BlockDevice) *platforms.BlockDevice {
	if len(disk.Children) == 0 {
		return nil
	}
	return &disk.Children[0]
}

// classifyDevice labels a drive usb or portable from model hints, falling
// back to the capacity threshold.
func classifyDevice(model string, sizeBytes uint64) string {
	lower := strings.ToLower(model)
	if strings.Contains(lower, "portable") || strings.Contains(lower, "external") {
		return DeviceTypePortable
	}
	if sizeBytes >= portableSizeThreshold {
		return DeviceTypePortable
	}
	return DeviceTypeUSB
}

// resolveUsage converts raw filesystem counters into human renderings and a
// clamped percentage. Counters that fail to parse stay empty.
func resolveUsage(device, rawUsed, rawAvail, rawSize string) (used, avail, size string, percent *int) {
	usedBytes, usedErr := ParseSize(rawUsed)
	availBytes, availErr := ParseSize(rawAvail)
	sizeBytes, sizeErr := ParseSize(rawSize)
	if usedErr != nil || availErr != nil || sizeErr != nil {
		log.Debug().Str("device", device).Msg("unparseable filesystem usage counters")
		return "", "", "", nil
	}

	if rawUsed != "" {
		used = HumanSize(usedBytes)
	}
	if rawAvail != "" {
		avail = HumanSize(availBytes)
	}
	if rawSize != "" {
		size = HumanSize(sizeBytes)
	}

	if sizeBytes > 0 {
		pct := int(math.Round(float64(usedBytes) / float64(sizeBytes) * 100))
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		percent = &pct
	}
	return used, avail, size, percent
}
