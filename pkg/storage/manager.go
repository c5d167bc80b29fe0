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
	"context"
	"errors"
	"math"
	"path/filepath"

	"github.com/DockhandProject/dockhand-core/pkg/config"
	"github.com/DockhandProject/dockhand-core/pkg/helpers/syncutil"
	"github.com/DockhandProject/dockhand-core/pkg/platforms"
	"github.com/rs/zerolog/log"
)

var (
	// ErrDeviceBusy means another mount/unmount/format is in flight for the
	// device; the request is rejected, never queued.
	ErrDeviceBusy = errors.New("device is busy")
	// ErrDeviceNotFound means the device name is not in the current snapshot.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrNotEligible means the safety filter refused the device.
	ErrNotEligible = errors.New("device is not eligible")
	// ErrNotMounted rejects unmounting a device that is not mounted.
	ErrNotMounted = errors.New("device is not mounted")
	// ErrFormatDisabled means formatting is switched off in config.
	ErrFormatDisabled = errors.New("formatting is disabled")
)

// NameResolver looks up user-assigned display names by filesystem UUID.
type NameResolver interface {
	DeviceName(ctx context.Context, uuid string) (string, error)
}

// Manager owns the removable-device lifecycle: enumeration through the
// safety filter, root capacity reporting, and the mount/unmount/format
// operations with their per-device busy guard.
type Manager struct {
	platform platforms.Platform
	cfg      *config.Instance
	filter   *Filter
	names    NameResolver
	busy     map[string]struct{}
	busyMu   syncutil.Mutex
}

// NewManager creates a storage manager. names may be nil, in which case
// devices carry no display names.
func NewManager(platform platforms.Platform, cfg *config.Instance, names NameResolver) *Manager {
	return &Manager{
		platform: platform,
		cfg:      cfg,
		filter:   NewFilter(cfg.ExtraProtectedPaths()),
		names:    names,
		busy:     make(map[string]struct{}),
	}
}

// tryLock marks a device busy. It never blocks: a second operation for the
// same name is refused immediately so the caller learns right away.
func (m *Manager) tryLock(device string) bool {
	m.busyMu.Lock()
	defer m.busyMu.Unlock()
	if _, inFlight := m.busy[device]; inFlight {
		return false
	}
	m.busy[device] = struct{}{}
	return true
}

func (m *Manager) unlock(device string) {
	m.busyMu.Lock()
	defer m.busyMu.Unlock()
	delete(m.busy, device)
}

// List enumerates eligible removable devices. Enumeration is advisory: any
// topology-query failure yields an empty list, never an error.
func (m *Manager) List(ctx context.Context) []RemovableDevice {
	disks, err := m.platform.ListBlockDevices(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("block device enumeration failed")
		return []RemovableDevice{}
	}

	devices := make([]RemovableDevice, 0, len(disks))
	for i := range disks {
		disk := disks[i]
		if !m.filter.IsEligible(disk) {
			continue
		}

		dev := normalizeDevice(disk)
		if dev.Mountpoint == "" && m.cfg.AutoMount() {
			if mountpoint := m.autoMount(ctx, disk); mountpoint != "" {
				dev.Mountpoint = mountpoint
			}
		}

		if !m.filter.AllowMountpoint(dev.Mountpoint, dev.FSType) {
			log.Warn().Str("device", dev.Name).Str("mountpoint", dev.Mountpoint).
				Msg("dropping device with protected mountpoint")
			continue
		}

		dev.DisplayName = m.displayName(ctx, dev.UUID)
		devices = append(devices, dev)
	}
	return devices
}

// autoMount best-effort mounts an unmounted disk's first partition without
// credentials. Failures are logged and swallowed: the device simply stays
// unmounted in the listing, which is a UX convenience, never a requirement.
func (m *Manager) autoMount(ctx context.Context, disk platforms.BlockDevice) string {
	part := firstPartition(disk)
	if part == nil || part.Name == "" {
		return ""
	}

	mountpoint := filepath.Join(m.cfg.MountBase(), part.Name)
	err := m.platform.Mount(ctx, platforms.Credentials{}, devicePath(part.Name), mountpoint)
	if err != nil {
		log.Debug().Err(err).Str("device", part.Name).Msg("auto-mount skipped")
		return ""
	}

	log.Info().Str("device", part.Name).Str("mountpoint", mountpoint).Msg("auto-mounted")
	return mountpoint
}

func (m *Manager) displayName(ctx context.Context, uuid string) string {
	if m.names == nil || uuid == "" {
		return ""
	}
	name, err := m.names.DeviceName(ctx, uuid)
	if err != nil {
		log.Debug().Err(err).Str("uuid", uuid).Msg("display name lookup failed")
		return ""
	}
	return name
}

// Root reports capacity counters for the primary filesystem. A query failure
// is "unknown", not an error: the caller receives nil.
func (m *Manager) Root(ctx context.Context) *RootStorage {
	usage, err := m.platform.RootUsage(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("root storage query failed")
		return nil
	}

	return &RootStorage{
		TotalBytes:     usage.TotalBytes,
		UsedBytes:      usage.UsedBytes,
		AvailableBytes: usage.FreeBytes,
		UsedPercent:    int(math.Round(usage.UsedPercent)),
		TotalHuman:     HumanSize(usage.TotalBytes),
		UsedHuman:      HumanSize(usage.UsedBytes),
		AvailHuman:     HumanSize(usage.FreeBytes),
	}
}

// SupportedFilesystems lists the filesystem types available to Format.
func (m *Manager) SupportedFilesystems() []string {
	return m.platform.SupportedFilesystems()
}

// findDisk locates a disk by name in a fresh snapshot and verifies it is
// eligible before any operation may touch it.
func (m *Manager) findDisk(ctx context.Context, device string) (*platforms.BlockDevice, error) {
	disks, err := m.platform.ListBlockDevices(ctx)
	if err != nil {
		return nil, err
	}
	for i := range disks {
		if disks[i].Name == device {
			if !m.filter.IsEligible(disks[i]) {
				return nil, ErrNotEligible
			}
			return &disks[i], nil
		}
	}
	return nil, ErrDeviceNotFound
}

// resolveTarget picks the node an operation applies to: the first partition
// when the disk has one, the whole disk otherwise.
func resolveTarget(disk *platforms.BlockDevice) string {
	if part := firstPartition(*disk); part != nil && part.Name != "" {
		return part.Name
	}
	return disk.Name
}

// effectiveMountpoint resolves where a disk's filesystem is mounted,
// cascading to the first partition like normalization does.
func effectiveMountpoint(disk *platforms.BlockDevice) string {
	if disk.Mountpoint != "" {
		return disk.Mountpoint
	}
	if part := firstPartition(*disk); part != nil {
		return part.Mountpoint
	}
	return ""
}

func devicePath(name string) string {
	return "/dev/" + name
}
