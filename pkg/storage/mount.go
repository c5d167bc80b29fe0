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
	"fmt"
	"path/filepath"

	"github.com/DockhandProject/dockhand-core/pkg/platforms"
	"github.com/rs/zerolog/log"
)

// Mount mounts the named device and returns its mountpoint. The device must
// be in the current eligible snapshot. Mounting an already-mounted device is
// a no-op success returning the existing mountpoint. Privilege and
// authentication sentinels from the platform pass through untouched so the
// caller can drive the password retry round.
func (m *Manager) Mount(ctx context.Context, creds platforms.Credentials, device string) (string, error) {
	if !m.tryLock(device) {
		return "", ErrDeviceBusy
	}
	defer m.unlock(device)

	disk, err := m.findDisk(ctx, device)
	if err != nil {
		return "", err
	}

	if current := effectiveMountpoint(disk); current != "" {
		log.Debug().Str("device", device).Str("mountpoint", current).
			Msg("device already mounted")
		return current, nil
	}

	target := resolveTarget(disk)
	mountpoint := filepath.Join(m.cfg.MountBase(), target)
	if err := m.platform.Mount(ctx, creds, devicePath(target), mountpoint); err != nil {
		//nolint:wrapcheck // sentinel errors must stay bare for errors.Is at the API layer
		return "", err
	}

	log.Info().Str("device", device).Str("mountpoint", mountpoint).Msg("mounted")
	return mountpoint, nil
}

// Unmount unmounts the named device. Unmounting a device that is not
// mounted is rejected with ErrNotMounted rather than silently succeeding,
// so callers notice stale state and re-enumerate.
func (m *Manager) Unmount(ctx context.Context, creds platforms.Credentials, device string) error {
	if !m.tryLock(device) {
		return ErrDeviceBusy
	}
	defer m.unlock(device)

	disk, err := m.findDisk(ctx, device)
	if err != nil {
		return err
	}

	mountpoint := effectiveMountpoint(disk)
	if mountpoint == "" {
		return ErrNotMounted
	}
	if !m.filter.AllowMountpoint(mountpoint, "") {
		return fmt.Errorf("%w: mounted at %s", ErrNotEligible, mountpoint)
	}

	if err := m.platform.Unmount(ctx, creds, mountpoint); err != nil {
		//nolint:wrapcheck // sentinel errors must stay bare for errors.Is at the API layer
		return err
	}

	log.Info().Str("device", device).Str("mountpoint", mountpoint).Msg("unmounted")
	return nil
}
