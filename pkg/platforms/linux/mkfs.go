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
	"fmt"

	"github.com/DockhandProject/dockhand-core/pkg/platforms"
)

type formatTool struct {
	tool string
	// args before the device path, label appended to labelFlag when set
	args      []string
	labelFlag string
}

var formatTools = map[string]formatTool{
	"exfat": {tool: "mkfs.exfat", labelFlag: "-n"},
	"vfat":  {tool: "mkfs.vfat", labelFlag: "-n"},
	"ext4":  {tool: "mkfs.ext4", args: []string{"-F"}, labelFlag: "-L"},
	"ntfs":  {tool: "mkfs.ntfs", args: []string{"-f"}, labelFlag: "-L"},
}

// Format creates a new filesystem on device, destroying its contents. The
// device must already be unmounted.
func (p *Platform) Format(
	ctx context.Context, creds platforms.Credentials, device, fsType, label string,
) error {
	ft, ok := formatTools[fsType]
	if !ok {
		return fmt.Errorf("%w: %s", platforms.ErrUnsupportedFilesystem, fsType)
	}

	ctx, cancel := context.WithTimeout(ctx, formatTimeout)
	defer cancel()

	args := make([]string, 0, len(ft.args)+3)
	args = append(args, ft.args...)
	if label != "" {
		args = append(args, ft.labelFlag, label)
	}
	args = append(args, device)

	return p.runPrivileged(ctx, creds, ft.tool, args...)
}
