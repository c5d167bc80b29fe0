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

// Package cli implements the client mode of the dockhand binary: flag
// handling and the commands that drive a running service over its API.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/DockhandProject/dockhand-core/internal/telemetry"
	"github.com/DockhandProject/dockhand-core/pkg/api/client"
	"github.com/DockhandProject/dockhand-core/pkg/config"
	"github.com/DockhandProject/dockhand-core/pkg/helpers"
	"github.com/DockhandProject/dockhand-core/pkg/platforms"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Flags struct {
	Mount   *string
	Unmount *string
	Format  *string
	FS      *string
	FSLabel *string
	SetName *string
	Name    *string
	Limit   *int
	Storage *bool
	Watch   *bool
	History *bool
	About   *bool
	Yes     *bool
	Version *bool
}

// SetupFlags defines all common CLI flags between platforms.
func SetupFlags() *Flags {
	return &Flags{
		Storage: flag.Bool(
			"storage",
			false,
			"print root storage and removable devices",
		),
		Mount: flag.String(
			"mount",
			"",
			"mount a removable device, e.g. sdb",
		),
		Unmount: flag.String(
			"unmount",
			"",
			"unmount a removable device",
		),
		Format: flag.String(
			"format",
			"",
			"format a removable device (requires -fs)",
		),
		FS: flag.String(
			"fs",
			"",
			"filesystem type for -format (exfat, vfat, ext4, ntfs)",
		),
		FSLabel: flag.String(
			"fs-label",
			"",
			"volume label for -format",
		),
		Watch: flag.Bool(
			"watch",
			false,
			"print storage change events as they happen",
		),
		History: flag.Bool(
			"history",
			false,
			"print recent mount/unmount/format operations",
		),
		Limit: flag.Int(
			"limit",
			0,
			"max entries for -history (default is the server's)",
		),
		SetName: flag.String(
			"set-name",
			"",
			"filesystem UUID to set a display name for (requires -name)",
		),
		Name: flag.String(
			"name",
			"",
			"display name for -set-name, empty clears it",
		),
		About: flag.Bool(
			"about",
			false,
			"print information about the running service",
		),
		Yes: flag.Bool(
			"yes",
			false,
			"skip confirmation prompts",
		),
		Version: flag.Bool(
			"version",
			false,
			"print version and exit",
		),
	}
}

func isFlagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// Pre runs flag parsing and actions any immediate flags that don't
// require environment setup. Add any custom flags before running this.
func (f *Flags) Pre(pl platforms.Platform) {
	flag.Parse()

	if *f.Version {
		_, _ = fmt.Printf("Dockhand v%s (%s)\n", config.AppVersion, pl.ID())
		os.Exit(0)
	}
}

// exitCmd prints a command error to stderr and exits with the right code.
func exitCmd(err error) {
	if err != nil {
		log.Error().Err(err).Msg("command failed")
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}

// Post actions all remaining common flags that require the environment to be
// set up. Logging is allowed.
func (f *Flags) Post(cfg *config.Instance, _ platforms.Platform) {
	ctx := context.Background()
	c := client.NewLocal(cfg)

	switch {
	case *f.Storage:
		exitCmd(handleStorage(ctx, c, os.Stdout))
	case isFlagPassed("mount"):
		if *f.Mount == "" {
			_, _ = fmt.Fprint(os.Stderr, "Error: mount flag requires a device\n")
			os.Exit(1)
		}
		exitCmd(handleMount(ctx, c, os.Stdout, *f.Mount, promptPassword))
	case isFlagPassed("unmount"):
		if *f.Unmount == "" {
			_, _ = fmt.Fprint(os.Stderr, "Error: unmount flag requires a device\n")
			os.Exit(1)
		}
		exitCmd(handleUnmount(ctx, c, os.Stdout, *f.Unmount, promptPassword))
	case isFlagPassed("format"):
		if *f.Format == "" {
			_, _ = fmt.Fprint(os.Stderr, "Error: format flag requires a device\n")
			os.Exit(1)
		}
		if *f.FS == "" {
			_, _ = fmt.Fprint(os.Stderr, "Error: format flag requires -fs\n")
			os.Exit(1)
		}
		exitCmd(handleFormat(ctx, c, os.Stdout, formatArgs{
			device:  *f.Format,
			fsType:  *f.FS,
			label:   *f.FSLabel,
			confirm: !*f.Yes,
		}, promptPassword))
	case isFlagPassed("set-name"):
		if *f.SetName == "" {
			_, _ = fmt.Fprint(os.Stderr, "Error: set-name flag requires a UUID\n")
			os.Exit(1)
		}
		exitCmd(handleSetName(ctx, c, os.Stdout, *f.SetName, *f.Name))
	case *f.History:
		exitCmd(handleHistory(ctx, c, os.Stdout, *f.Limit))
	case *f.About:
		exitCmd(handleAbout(ctx, c, os.Stdout))
	case *f.Watch:
		exitCmd(handleWatch(c, os.Stdout))
	}
}

// Setup initializes the user config and logging. Returns a user config object.
//
//nolint:gocritic // config struct copied for immutability
func Setup(
	pl platforms.Platform,
	defaultConfig config.Values,
	writers []io.Writer,
) *config.Instance {
	// Ensure directories exist before logging initialization
	err := helpers.EnsureDirectories(pl)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error creating directories: %v\n", err)
		os.Exit(1)
	}

	err = helpers.InitLogging(pl, writers)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.NewConfig(helpers.ConfigDir(pl), defaultConfig)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Initialize error reporting (opt-in)
	if err := telemetry.Init(
		cfg.ErrorReporting(),
		cfg.DeviceID(),
		config.AppVersion,
		pl.ID(),
	); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return cfg
}
