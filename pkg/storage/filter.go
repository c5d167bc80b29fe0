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
	"regexp"
	"strings"

	"github.com/DockhandProject/dockhand-core/pkg/helpers"
	"github.com/DockhandProject/dockhand-core/pkg/platforms"
)

// Mountpoints that must never be exposed to mount/unmount/format. Device
// metadata from firmware is unreliable, so the filter checks these in several
// partially redundant layers and excludes a device whenever in doubt.
var protectedPaths = map[string]struct{}{
	"/":              {},
	"/boot":          {},
	"/boot/efi":      {},
	"/boot/firmware": {},
	"/home":          {},
	"/var":           {},
	"/usr":           {},
	"/tmp":           {},
}

// swapMountpoint is how lsblk reports an active swap partition.
const swapMountpoint = "[SWAP]"

var (
	// sda is assumed to hold the system; later letters are secondary disks
	// that may be USB enclosures misreporting the removable flag
	secondaryDiskPattern = regexp.MustCompile(`^sd[b-z]$`)

	virtualDevicePrefixes = []string{"loop", "zram", "ram", "dm-", "sr"}
)

// Filter decides which enumerated disks may be surfaced to clients.
type Filter struct {
	extraProtected []string
}

// NewFilter creates a safety filter. extraProtected lists additional
// mountpoints to treat as untouchable, from the operator config.
func NewFilter(extraProtected []string) *Filter {
	return &Filter{extraProtected: extraProtected}
}

// IsEligible reports whether a raw disk may be surfaced. The checks run in
// layers: virtual devices are dropped, then the disk must look removable,
// then every mountpoint on it is screened against the protected set, then
// flag-only candidates get one more root/boot screen.
func (f *Filter) IsEligible(disk platforms.BlockDevice) bool {
	if isVirtualDevice(disk.Name) {
		return false
	}

	byConvention := secondaryDiskPattern.MatchString(disk.Name)
	if !disk.Removable && !byConvention {
		return false
	}

	if f.hasProtectedMount(disk) {
		return false
	}

	// a disk that is only removable-flagged gets re-screened narrowly:
	// firmware lies about the flag often enough that root and boot mounts
	// are checked once more on their own
	if disk.Removable && !byConvention && hasRootOrBootMount(disk) {
		return false
	}

	return true
}

// AllowMountpoint is the final screen on a resolved mountpoint, applied
// after normalization and auto-mount. It re-checks the protected set and
// additionally refuses vfat filesystems sitting under a boot-like path,
// which are almost certainly EFI system partitions.
func (f *Filter) AllowMountpoint(mountpoint, fsType string) bool {
	if mountpoint == "" {
		return true
	}
	if f.isProtected(mountpoint) {
		return false
	}
	if fsType == "vfat" && isBootLike(mountpoint) {
		return false
	}
	return true
}

func (f *Filter) isProtected(mountpoint string) bool {
	if mountpoint == swapMountpoint {
		return true
	}
	if _, ok := protectedPaths[mountpoint]; ok {
		return true
	}
	// package caches live under /var/cache on every major distro
	if strings.HasPrefix(mountpoint, "/var/cache") {
		return true
	}
	return mountpoint != "" && helpers.Contains(f.extraProtected, mountpoint)
}

// hasProtectedMount screens the disk's own mountpoint and every partition's.
func (f *Filter) hasProtectedMount(disk platforms.BlockDevice) bool {
	if f.isProtected(disk.Mountpoint) {
		return true
	}
	for i := range disk.Children {
		if f.isProtected(disk.Children[i].Mountpoint) {
			return true
		}
	}
	return false
}

func hasRootOrBootMount(disk platforms.BlockDevice) bool {
	if isRootOrBoot(disk.Mountpoint) {
		return true
	}
	for i := range disk.Children {
		if isRootOrBoot(disk.Children[i].Mountpoint) {
			return true
		}
	}
	return false
}

func isRootOrBoot(mountpoint string) bool {
	return mountpoint == "/" || isBootLike(mountpoint)
}

func isBootLike(mountpoint string) bool {
	return mountpoint == "/boot" ||
		strings.HasPrefix(mountpoint, "/boot/") ||
		mountpoint == "/efi" ||
		strings.HasPrefix(mountpoint, "/efi/")
}

func isVirtualDevice(name string) bool {
	for _, prefix := range virtualDevicePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
