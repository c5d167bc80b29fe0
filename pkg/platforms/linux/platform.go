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

// Package linux implements the Platform interface on top of util-linux and
// sudo. All OS access goes through a command executor so tests never touch
// real devices.
package linux

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/DockhandProject/dockhand-core/pkg/config"
	"github.com/DockhandProject/dockhand-core/pkg/helpers"
	"github.com/DockhandProject/dockhand-core/pkg/helpers/command"
	"github.com/DockhandProject/dockhand-core/pkg/platforms"
	"github.com/DockhandProject/dockhand-core/pkg/platforms/ids"
	"github.com/adrg/xdg"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/disk"
)

type Platform struct {
	executor command.Executor
	euid     func() int
}

// NewPlatform creates a Linux platform using the real command executor.
func NewPlatform() *Platform {
	return &Platform{
		executor: &command.RealExecutor{},
		euid:     os.Geteuid,
	}
}

// NewPlatformWithExecutor creates a Linux platform with a custom executor,
// used by tests to mock system commands.
func NewPlatformWithExecutor(executor command.Executor) *Platform {
	return &Platform{
		executor: executor,
		euid:     func() int { return 1000 },
	}
}

func (*Platform) ID() string {
	return ids.Linux
}

func (*Platform) StartPre(_ *config.Instance) error {
	// lsblk is required for enumeration, everything else degrades
	if _, err := exec.LookPath("lsblk"); err != nil {
		return fmt.Errorf("lsblk not found in PATH: %w", err)
	}
	if _, err := exec.LookPath("sudo"); err != nil && os.Geteuid() != 0 {
		log.Warn().Msg("sudo not found and not running as root, mount and format will fail")
	}
	return nil
}

func (*Platform) StartPost(_ *config.Instance) error {
	return nil
}

func (*Platform) Stop() error {
	return nil
}

func (*Platform) Settings() platforms.Settings {
	return platforms.Settings{
		DataDir:   filepath.Join(xdg.DataHome, config.AppName),
		ConfigDir: filepath.Join(xdg.ConfigHome, config.AppName),
		TempDir:   filepath.Join(os.TempDir(), config.AppName),
		LogDir:    filepath.Join(xdg.StateHome, config.AppName),
	}
}

// RootUsage queries capacity counters for the root filesystem.
func (*Platform) RootUsage(ctx context.Context) (*platforms.DiskUsage, error) {
	usage, err := disk.UsageWithContext(ctx, "/")
	if err != nil {
		return nil, fmt.Errorf("failed to query root filesystem usage: %w", err)
	}
	return &platforms.DiskUsage{
		TotalBytes:  usage.Total,
		UsedBytes:   usage.Used,
		FreeBytes:   usage.Free,
		UsedPercent: usage.UsedPercent,
	}, nil
}

func (*Platform) SupportedFilesystems() []string {
	return helpers.AlphaMapKeys(formatTools)
}
