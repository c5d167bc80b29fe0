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

	"github.com/DockhandProject/dockhand-core/pkg/platforms"
	"github.com/rs/zerolog/log"
)

// Format reformats the named device with the requested filesystem and an
// optional volume label. Irreversible: confirmation is the caller's problem,
// this function only enforces the safety filter. A mounted device is
// unmounted first and left unmounted afterwards; the caller re-enumerates
// to see the new filesystem.
func (m *Manager) Format(
	ctx context.Context, creds platforms.Credentials, device, fsType, label string,
) error {
	if !m.cfg.AllowFormat() {
		return ErrFormatDisabled
	}

	if !m.tryLock(device) {
		return ErrDeviceBusy
	}
	defer m.unlock(device)

	disk, err := m.findDisk(ctx, device)
	if err != nil {
		return err
	}

	if mountpoint := effectiveMountpoint(disk); mountpoint != "" {
		if !m.filter.AllowMountpoint(mountpoint, "") {
			return ErrNotEligible
		}
		if err := m.platform.Unmount(ctx, creds, mountpoint); err != nil {
			//nolint:wrapcheck // sentinel errors must stay bare for errors.Is at the API layer
			return err
		}
	}

	target := resolveTarget(disk)
	cleanLabel := SanitizeLabel(fsType, label)
	if err := m.platform.Format(ctx, creds, devicePath(target), fsType, cleanLabel); err != nil {
		//nolint:wrapcheck // sentinel errors must stay bare for errors.Is at the API layer
		return err
	}

	log.Info().Str("device", device).Str("fsType", fsType).Str("label", cleanLabel).
		Msg("formatted")
	return nil
}
