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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DockhandProject/dockhand-core/pkg/helpers/command"
	"github.com/DockhandProject/dockhand-core/pkg/platforms"
)

const (
	mountTimeout = 30 * time.Second
	// mkfs on large or slow media can take a while
	formatTimeout = 10 * time.Minute
)

// stderr fingerprints sudo emits when escalation fails. These are stable
// across sudo releases but matched loosely anyway.
var (
	privilegeRequiredMarkers = []string{
		"a password is required",
		"password is required",
		"a terminal is required",
	}
	authFailedMarkers = []string{
		"incorrect password",
		"try again",
		"sorry",
		"authentication failure",
	}
)

// runPrivileged executes a command that may need root. Running as root it
// executes directly; otherwise it goes through sudo, classifying the two
// escalation outcomes into the platform sentinel errors. No password means a
// strictly non-interactive attempt (sudo -n).
func (p *Platform) runPrivileged(
	ctx context.Context, creds platforms.Credentials, name string, args ...string,
) error {
	if p.euid() == 0 {
		if err := p.executor.Run(ctx, name, args...); err != nil {
			return fmt.Errorf("%s failed: %w", name, err)
		}
		return nil
	}

	if creds.Password == "" {
		sudoArgs := append([]string{"-n", name}, args...)
		err := p.executor.Run(ctx, "sudo", sudoArgs...)
		if err == nil {
			return nil
		}
		if matchesStderr(err, privilegeRequiredMarkers) {
			return platforms.ErrPrivilegeRequired
		}
		return fmt.Errorf("%s failed: %w", name, err)
	}

	// -k forces revalidation so a cached timestamp can't mask a bad password,
	// -p "" suppresses the prompt since stdin is not a terminal
	sudoArgs := append([]string{"-S", "-k", "-p", "", name}, args...)
	err := p.executor.RunWithStdin(ctx, creds.Password+"\n", "sudo", sudoArgs...)
	if err == nil {
		return nil
	}
	if matchesStderr(err, authFailedMarkers) {
		return platforms.ErrAuthFailed
	}
	return fmt.Errorf("%s failed: %w", name, err)
}

// matchesStderr reports whether the command failed with stderr output
// containing any of the given markers, case-insensitively.
func matchesStderr(err error, markers []string) bool {
	var cmdErr *command.Error
	if !errors.As(err, &cmdErr) {
		return false
	}
	stderr := strings.ToLower(cmdErr.Stderr)
	for _, marker := range markers {
		if strings.Contains(stderr, marker) {
			return true
		}
	}
	return false
}

// Mount mounts device at mountpoint, creating the directory first.
func (p *Platform) Mount(
	ctx context.Context, creds platforms.Credentials, device, mountpoint string,
) error {
	ctx, cancel := context.WithTimeout(ctx, mountTimeout)
	defer cancel()

	if err := p.runPrivileged(ctx, creds, "mkdir", "-p", mountpoint); err != nil {
		return err
	}
	if err := p.runPrivileged(ctx, creds, "mount", device, mountpoint); err != nil {
		return err
	}
	return nil
}

// Unmount unmounts the given device node or mountpoint path.
func (p *Platform) Unmount(
	ctx context.Context, creds platforms.Credentials, target string,
) error {
	ctx, cancel := context.WithTimeout(ctx, mountTimeout)
	defer cancel()

	return p.runPrivileged(ctx, creds, "umount", target)
}
