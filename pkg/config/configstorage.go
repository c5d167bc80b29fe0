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

package config

const DefaultMountBase = "/media"

type Storage struct {
	AutoMount      *bool    `toml:"auto_mount,omitempty"`
	AllowFormat    *bool    `toml:"allow_format,omitempty"`
	MountBase      string   `toml:"mount_base,omitempty"`
	ExtraProtected []string `toml:"extra_protected,omitempty,multiline"`
}

// MountBase returns the directory under which removable devices are mounted.
func (c *Instance) MountBase() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Storage.MountBase == "" {
		return DefaultMountBase
	}
	return c.vals.Storage.MountBase
}

func (c *Instance) SetMountBase(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Storage.MountBase = dir
}

// AutoMount returns whether unmounted removable devices are mounted
// automatically during enumeration.
func (c *Instance) AutoMount() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Storage.AutoMount == nil {
		return true
	}
	return *c.vals.Storage.AutoMount
}

func (c *Instance) SetAutoMount(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Storage.AutoMount = &enabled
}

// AllowFormat returns whether format requests are accepted at all.
// Disabling it makes the service read-only with respect to filesystems.
func (c *Instance) AllowFormat() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Storage.AllowFormat == nil {
		return true
	}
	return *c.vals.Storage.AllowFormat
}

func (c *Instance) SetAllowFormat(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Storage.AllowFormat = &enabled
}

// ExtraProtectedPaths returns user-configured mountpoints to protect in
// addition to the built-in system paths.
func (c *Instance) ExtraProtectedPaths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Storage.ExtraProtected
}
