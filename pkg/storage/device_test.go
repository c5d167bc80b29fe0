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

package storage

import (
	"strconv"
	"testing"

	"github.com/DockhandProject/dockhand-core/pkg/platforms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNormalizeDevice_CascadesToFirstPartition(t *testing.T) {
	t.Parallel()

	disk := platforms.BlockDevice{
		Name:      "sdb",
		Size:      "15728640000",
		Model:     "Cruzer Blade   ",
		Removable: true,
		Children: []platforms.BlockDevice{
			{
				Name:       "sdb1",
				Size:       "15727591424",
				Mountpoint: "/media/sdb1",
				Label:      "SANDISK",
				UUID:       "4E21-0000",
				FSType:     "vfat",
				FSUsed:     "1073741824",
				FSAvail:    "14653849600",
				FSSize:     "15727591424",
			},
		},
	}

	dev := normalizeDevice(disk)

	assert.Equal(t, "sdb", dev.Name)
	assert.Equal(t, uint64(15728640000), dev.SizeBytes)
	assert.Equal(t, "Cruzer Blade", dev.Model, "model should be trimmed")
	assert.Equal(t, "SANDISK", dev.Label, "label cascades from first partition")
	assert.Equal(t, "4E21-0000", dev.UUID)
	assert.Equal(t, "vfat", dev.FSType)
	assert.Equal(t, "/media/sdb1", dev.Mountpoint)
	assert.Equal(t, "1G", dev.FSUsedHuman)
	assert.Equal(t, "14.6G", dev.FSSizeHuman)
	require.NotNil(t, dev.FSUsedPercent)
	assert.Equal(t, 7, *dev.FSUsedPercent)
	assert.Equal(t, DeviceTypeUSB, dev.DeviceType)
}

func TestNormalizeDevice_DiskFieldsWin(t *testing.T) {
	t.Parallel()

	// superfloppy layout: the filesystem sits on the disk itself
	disk := platforms.BlockDevice{
		Name:       "sdc",
		Size:       "32212254720",
		Mountpoint: "/media/sdc",
		Label:      "WHOLE",
		UUID:       "AAAA-BBBB",
		FSType:     "exfat",
		FSUsed:     "0",
		FSAvail:    "32212254720",
		FSSize:     "32212254720",
		Removable:  true,
		Children: []platforms.BlockDevice{
			{Name: "sdc1", Label: "IGNORED", UUID: "CCCC-DDDD"},
		},
	}

	dev := normalizeDevice(disk)

	assert.Equal(t, "WHOLE", dev.Label)
	assert.Equal(t, "AAAA-BBBB", dev.UUID)
	assert.Equal(t, "/media/sdc", dev.Mountpoint)
	require.NotNil(t, dev.FSUsedPercent)
	assert.Equal(t, 0, *dev.FSUsedPercent)
}

func TestNormalizeDevice_UnmountedHasNoUsage(t *testing.T) {
	t.Parallel()

	disk := platforms.BlockDevice{
		Name:      "sdb",
		Size:      "15728640000",
		Removable: true,
		Children: []platforms.BlockDevice{
			{Name: "sdb1", Label: "STICK", FSType: "vfat"},
		},
	}

	dev := normalizeDevice(disk)

	assert.Empty(t, dev.Mountpoint)
	assert.Empty(t, dev.FSUsedHuman)
	assert.Empty(t, dev.FSAvailHuman)
	assert.Empty(t, dev.FSSizeHuman)
	assert.Nil(t, dev.FSUsedPercent, "usage percent only present when mounted")
}

func TestNormalizeDevice_SuffixedSizes(t *testing.T) {
	t.Parallel()

	// older lsblk emits human-readable sizes even with -b
	disk := platforms.BlockDevice{
		Name:      "sdb",
		Size:      "14.5G",
		Removable: true,
	}

	dev := normalizeDevice(disk)
	assert.Equal(t, uint64(15569256448), dev.SizeBytes)
	assert.Equal(t, "14.5G", dev.SizeHuman)
}

func TestClassifyDevice(t *testing.T) {
	t.Parallel()

	const gib = uint64(1 << 30)

	tests := []struct {
		name  string
		model string
		size  uint64
		want  string
	}{
		{name: "small_flash_drive", model: "Cruzer Blade", size: 32 * gib, want: DeviceTypeUSB},
		{name: "at_threshold_is_portable", model: "Generic Drive", size: 100 * gib, want: DeviceTypePortable},
		{name: "just_below_threshold", model: "Generic Drive", size: 100*gib - 1, want: DeviceTypeUSB},
		{name: "large_disk_is_portable", model: "", size: 2 << 40, want: DeviceTypePortable},
		{name: "portable_model_hint", model: "Seagate Portable Drive", size: 32 * gib, want: DeviceTypePortable},
		{name: "external_model_hint", model: "WD External HDD", size: 32 * gib, want: DeviceTypePortable},
		{name: "no_metadata_small", model: "", size: gib, want: DeviceTypeUSB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, classifyDevice(tt.model, tt.size))
		})
	}
}

// ============================================================================
// Usage Percentage Property Tests
// ============================================================================

// TestPropertyUsagePercentAlwaysClamped verifies fsUsedPercent stays in
// [0,100] for arbitrary counter combinations, including nonsense ones where
// used exceeds size.
func TestPropertyUsagePercentAlwaysClamped(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		used := rapid.Uint64Range(0, 1<<50).Draw(t, "used")
		size := rapid.Uint64Range(1, 1<<50).Draw(t, "size")

		_, _, _, percent := resolveUsage("sdb",
			formatUint(used), "0", formatUint(size))
		if percent == nil {
			t.Fatalf("percent missing for size %d", size)
		}
		if *percent < 0 || *percent > 100 {
			t.Fatalf("percent %d out of range for used=%d size=%d", *percent, used, size)
		}
	})
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
