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

package platforms

import (
	"context"
	"errors"

	"github.com/DockhandProject/dockhand-core/pkg/config"
)

// Sentinel errors returned by privileged platform operations. The API layer
// maps these to the two distinct 401 responses of the escalation protocol.
var (
	// ErrPrivilegeRequired means the operation needs elevated privilege and
	// no password was supplied. Retryable with a password; nothing ran.
	ErrPrivilegeRequired = errors.New("privilege required")
	// ErrAuthFailed means a password was supplied and rejected. Reported
	// distinctly from ErrPrivilegeRequired so callers don't retry forever.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrUnsupportedFilesystem means the requested format filesystem is not
	// in the platform's supported set.
	ErrUnsupportedFilesystem = errors.New("unsupported filesystem")
)

// Settings defines all simple settings/configuration values available for a
// platform.
type Settings struct {
	// DataDir returns the root folder where things like databases are
	// permanently stored. WARNING: This value should be accessed using the
	// DataDir function in the helpers package.
	DataDir string
	// ConfigDir returns the directory where the config file is stored.
	// WARNING: This value should be accessed using the ConfigDir function in
	// the helpers package.
	ConfigDir string
	// TempDir returns a temporary directory used for inter-process
	// communication. Expect it to be deleted.
	TempDir string
	// LogDir returns the directory where rotated log files are stored.
	LogDir string
}

// BlockDevice is one node of the block-device topology as reported by the
// OS: a whole disk, with its first-level partitions in Children. Size and
// filesystem counters are carried raw as reported (byte counts or
// human-readable suffixes depending on the tool version) and resolved by the
// storage layer.
type BlockDevice struct {
	Name       string
	Size       string
	Model      string
	Mountpoint string
	Label      string
	UUID       string
	FSType     string
	FSUsed     string
	FSAvail    string
	FSSize     string
	Children   []BlockDevice
	Removable  bool
}

// DiskUsage reports capacity counters for one mounted filesystem.
type DiskUsage struct {
	TotalBytes  uint64
	UsedBytes   uint64
	FreeBytes   uint64
	UsedPercent float64
}

// Credentials carries the password used to escalate a single privileged
// operation. An empty password means the operation runs non-interactively
// and fails with ErrPrivilegeRequired if privilege is actually needed.
// Credentials are never stored; every request supplies its own.
type Credentials struct {
	Password string
}

// Platform is the central interface that defines how Core interacts with the
// operating system's storage primitives.
type Platform interface {
	// ID returns the unique ID of this platform.
	ID() string
	// StartPre runs any necessary platform setup BEFORE the main service has
	// started running.
	StartPre(*config.Instance) error
	// StartPost runs any necessary platform setup AFTER the main service has
	// started running.
	StartPost(*config.Instance) error
	// Stop runs any necessary cleanup tasks before the rest of the service
	// starts shutting down.
	Stop() error
	// Settings returns all simple platform-specific settings such as paths.
	// NOTE: Some values on the Settings struct should be accessed using
	// helper functions in the helpers package instead of directly.
	Settings() Settings
	// ListBlockDevices queries the OS block-device topology and returns all
	// whole disks with their first-level partitions. A query failure returns
	// an error; callers treat enumeration as advisory and retryable.
	ListBlockDevices(ctx context.Context) ([]BlockDevice, error)
	// Mount mounts device at mountpoint, creating the mountpoint directory
	// if needed. May return ErrPrivilegeRequired or ErrAuthFailed.
	Mount(ctx context.Context, creds Credentials, device, mountpoint string) error
	// Unmount unmounts whatever is mounted at target, which may be a device
	// node or a mountpoint path. May return ErrPrivilegeRequired or
	// ErrAuthFailed.
	Unmount(ctx context.Context, creds Credentials, target string) error
	// Format writes a new filesystem of type fsType to device with an
	// optional volume label. The device must not be mounted. May return
	// ErrPrivilegeRequired, ErrAuthFailed or ErrUnsupportedFilesystem.
	Format(ctx context.Context, creds Credentials, device, fsType, label string) error
	// RootUsage returns capacity counters for the primary (root) filesystem.
	RootUsage(ctx context.Context) (*DiskUsage, error)
	// SupportedFilesystems returns the filesystem types Format accepts,
	// sorted alphabetically.
	SupportedFilesystems() []string
}
