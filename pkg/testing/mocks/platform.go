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

package mocks

import (
	"context"
	"fmt"

	"github.com/DockhandProject/dockhand-core/pkg/config"
	"github.com/DockhandProject/dockhand-core/pkg/platforms"
	"github.com/stretchr/testify/mock"
)

// MockPlatform is a mock implementation of the Platform interface using testify/mock
type MockPlatform struct {
	mock.Mock
	mountedDevices   []string // Track mounted devices for verification
	unmountedDevices []string // Track unmounted devices for verification
	formattedDevices []string // Track formatted devices for verification
}

// ID returns the unique ID of this platform
func (m *MockPlatform) ID() string {
	args := m.Called()
	return args.String(0)
}

// StartPre runs any necessary platform setup BEFORE the main service has started running
func (m *MockPlatform) StartPre(cfg *config.Instance) error {
	args := m.Called(cfg)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock platform start pre failed: %w", err)
	}
	return nil
}

// StartPost runs any necessary platform setup AFTER the main service has started running
func (m *MockPlatform) StartPost(cfg *config.Instance) error {
	args := m.Called(cfg)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock platform start post failed: %w", err)
	}
	return nil
}

// Stop runs any necessary cleanup tasks before the rest of the service starts shutting down
func (m *MockPlatform) Stop() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock platform stop failed: %w", err)
	}
	return nil
}

// Settings returns all simple platform-specific settings such as paths
func (m *MockPlatform) Settings() platforms.Settings {
	args := m.Called()
	if settings, ok := args.Get(0).(platforms.Settings); ok {
		return settings
	}
	return platforms.Settings{}
}

// ListBlockDevices returns the raw block device topology of the host
func (m *MockPlatform) ListBlockDevices(ctx context.Context) ([]platforms.BlockDevice, error) {
	args := m.Called(ctx)
	var devices []platforms.BlockDevice
	if d, ok := args.Get(0).([]platforms.BlockDevice); ok {
		devices = d
	}
	if err := args.Error(1); err != nil {
		return devices, fmt.Errorf("mock list block devices failed: %w", err)
	}
	return devices, nil
}

// Mount mounts a device at the given mountpoint
func (m *MockPlatform) Mount(
	ctx context.Context, creds platforms.Credentials, device, mountpoint string,
) error {
	args := m.Called(ctx, creds, device, mountpoint)
	if err := args.Error(0); err != nil {
		//nolint:wrapcheck // Sentinel errors must pass through unwrapped for errors.Is
		return err
	}
	m.mountedDevices = append(m.mountedDevices, device)
	return nil
}

// Unmount unmounts a device node or mountpoint
func (m *MockPlatform) Unmount(
	ctx context.Context, creds platforms.Credentials, target string,
) error {
	args := m.Called(ctx, creds, target)
	if err := args.Error(0); err != nil {
		//nolint:wrapcheck // Sentinel errors must pass through unwrapped for errors.Is
		return err
	}
	m.unmountedDevices = append(m.unmountedDevices, target)
	return nil
}

// Format creates a filesystem on a device
func (m *MockPlatform) Format(
	ctx context.Context, creds platforms.Credentials, device, fsType, label string,
) error {
	args := m.Called(ctx, creds, device, fsType, label)
	if err := args.Error(0); err != nil {
		//nolint:wrapcheck // Sentinel errors must pass through unwrapped for errors.Is
		return err
	}
	m.formattedDevices = append(m.formattedDevices, device)
	return nil
}

// RootUsage returns disk usage statistics for the root filesystem
func (m *MockPlatform) RootUsage(ctx context.Context) (*platforms.DiskUsage, error) {
	args := m.Called(ctx)
	var usage *platforms.DiskUsage
	if u, ok := args.Get(0).(*platforms.DiskUsage); ok {
		usage = u
	}
	if err := args.Error(1); err != nil {
		return usage, fmt.Errorf("mock root usage failed: %w", err)
	}
	return usage, nil
}

// SupportedFilesystems returns the filesystem types this platform can format
func (m *MockPlatform) SupportedFilesystems() []string {
	args := m.Called()
	if fs, ok := args.Get(0).([]string); ok {
		return fs
	}
	return []string{}
}

// GetMountedDevices returns the list of devices that were mounted
func (m *MockPlatform) GetMountedDevices() []string {
	return m.mountedDevices
}

// GetUnmountedDevices returns the list of targets that were unmounted
func (m *MockPlatform) GetUnmountedDevices() []string {
	return m.unmountedDevices
}

// GetFormattedDevices returns the list of devices that were formatted
func (m *MockPlatform) GetFormattedDevices() []string {
	return m.formattedDevices
}

// ClearHistory clears tracked operations
func (m *MockPlatform) ClearHistory() {
	m.mountedDevices = m.mountedDevices[:0]
	m.unmountedDevices = m.unmountedDevices[:0]
	m.formattedDevices = m.formattedDevices[:0]
}

// NewMockPlatform creates a new MockPlatform instance
func NewMockPlatform() *MockPlatform {
	return &MockPlatform{
		mountedDevices:   make([]string, 0),
		unmountedDevices: make([]string, 0),
		formattedDevices: make([]string, 0),
	}
}

// SetupBasicMock configures the mock with typical default values for basic operations
func (m *MockPlatform) SetupBasicMock() {
	m.On("ID").Return("mock-platform")
	m.On("Settings").Return(platforms.Settings{})
	m.On("SupportedFilesystems").Return([]string{"exfat", "ext4", "ntfs", "vfat"})
	m.On("ListBlockDevices", mock.Anything).Return([]platforms.BlockDevice{}, nil)
	m.On("RootUsage", mock.Anything).Return(&platforms.DiskUsage{
		TotalBytes:  500 * 1024 * 1024 * 1024,
		UsedBytes:   100 * 1024 * 1024 * 1024,
		FreeBytes:   400 * 1024 * 1024 * 1024,
		UsedPercent: 20,
	}, nil)
}
