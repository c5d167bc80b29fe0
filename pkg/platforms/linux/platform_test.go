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
	"testing"

	"github.com/DockhandProject/dockhand-core/pkg/helpers/command"
	"github.com/DockhandProject/dockhand-core/pkg/platforms"
	"github.com/DockhandProject/dockhand-core/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sudoError(stderr string) *command.Error {
	return &command.Error{
		Err:    errors.New("exit status 1"),
		Name:   "sudo",
		Stderr: stderr,
	}
}

func TestMount_DirectWhenRoot(t *testing.T) {
	t.Parallel()

	mockCmd := &mocks.MockCommandExecutor{}
	mockCmd.On("Run", mock.Anything, "mkdir", []string{"-p", "/media/usb0"}).Return(nil)
	mockCmd.On("Run", mock.Anything, "mount", []string{"/dev/sdb1", "/media/usb0"}).Return(nil)

	platform := &Platform{executor: mockCmd, euid: func() int { return 0 }}
	err := platform.Mount(context.Background(), platforms.Credentials{}, "/dev/sdb1", "/media/usb0")
	require.NoError(t, err)
	mockCmd.AssertExpectations(t)
}

func TestMount_NonInteractiveSudo(t *testing.T) {
	t.Parallel()

	t.Run("succeeds_with_cached_credentials", func(t *testing.T) {
		t.Parallel()

		mockCmd := &mocks.MockCommandExecutor{}
		mockCmd.On("Run", mock.Anything, "sudo",
			[]string{"-n", "mkdir", "-p", "/media/usb0"}).Return(nil)
		mockCmd.On("Run", mock.Anything, "sudo",
			[]string{"-n", "mount", "/dev/sdb1", "/media/usb0"}).Return(nil)

		platform := NewPlatformWithExecutor(mockCmd)
		err := platform.Mount(context.Background(), platforms.Credentials{},
			"/dev/sdb1", "/media/usb0")
		require.NoError(t, err)
		mockCmd.AssertExpectations(t)
	})

	t.Run("reports_privilege_required", func(t *testing.T) {
		t.Parallel()

		mockCmd := &mocks.MockCommandExecutor{}
		mockCmd.On("Run", mock.Anything, "sudo", mock.Anything).
			Return(sudoError("sudo: a password is required"))

		platform := NewPlatformWithExecutor(mockCmd)
		err := platform.Mount(context.Background(), platforms.Credentials{},
			"/dev/sdb1", "/media/usb0")
		require.ErrorIs(t, err, platforms.ErrPrivilegeRequired)
	})

	t.Run("wraps_other_failures", func(t *testing.T) {
		t.Parallel()

		mockCmd := &mocks.MockCommandExecutor{}
		mockCmd.On("Run", mock.Anything, "sudo", mock.Anything).
			Return(sudoError("mkdir: cannot create directory: read-only file system"))

		platform := NewPlatformWithExecutor(mockCmd)
		err := platform.Mount(context.Background(), platforms.Credentials{},
			"/dev/sdb1", "/media/usb0")
		require.Error(t, err)
		assert.NotErrorIs(t, err, platforms.ErrPrivilegeRequired)
		assert.NotErrorIs(t, err, platforms.ErrAuthFailed)
	})
}

func TestMount_WithPassword(t *testing.T) {
	t.Parallel()

	t.Run("pipes_password_to_sudo_stdin", func(t *testing.T) {
		t.Parallel()

		mockCmd := &mocks.MockCommandExecutor{}
		mockCmd.On("RunWithStdin", mock.Anything, "hunter2\n", "sudo",
			[]string{"-S", "-k", "-p", "", "mkdir", "-p", "/media/usb0"}).Return(nil)
		mockCmd.On("RunWithStdin", mock.Anything, "hunter2\n", "sudo",
			[]string{"-S", "-k", "-p", "", "mount", "/dev/sdb1", "/media/usb0"}).Return(nil)

		platform := NewPlatformWithExecutor(mockCmd)
		err := platform.Mount(context.Background(),
			platforms.Credentials{Password: "hunter2"}, "/dev/sdb1", "/media/usb0")
		require.NoError(t, err)
		mockCmd.AssertExpectations(t)
	})

	t.Run("reports_auth_failure_on_wrong_password", func(t *testing.T) {
		t.Parallel()

		mockCmd := &mocks.MockCommandExecutor{}
		mockCmd.On("RunWithStdin", mock.Anything, mock.Anything, "sudo", mock.Anything).
			Return(sudoError("Sorry, try again.\nsudo: 1 incorrect password attempt"))

		platform := NewPlatformWithExecutor(mockCmd)
		err := platform.Mount(context.Background(),
			platforms.Credentials{Password: "wrong"}, "/dev/sdb1", "/media/usb0")
		require.ErrorIs(t, err, platforms.ErrAuthFailed)
	})

	t.Run("wraps_mount_failure_after_good_password", func(t *testing.T) {
		t.Parallel()

		mockCmd := &mocks.MockCommandExecutor{}
		mockCmd.On("RunWithStdin", mock.Anything, mock.Anything, "sudo",
			[]string{"-S", "-k", "-p", "", "mkdir", "-p", "/media/usb0"}).Return(nil)
		mockCmd.On("RunWithStdin", mock.Anything, mock.Anything, "sudo",
			[]string{"-S", "-k", "-p", "", "mount", "/dev/sdb1", "/media/usb0"}).
			Return(sudoError("mount: /media/usb0: wrong fs type, bad option, bad superblock"))

		platform := NewPlatformWithExecutor(mockCmd)
		err := platform.Mount(context.Background(),
			platforms.Credentials{Password: "hunter2"}, "/dev/sdb1", "/media/usb0")
		require.Error(t, err)
		assert.NotErrorIs(t, err, platforms.ErrAuthFailed)
		assert.Contains(t, err.Error(), "mount")
	})
}

func TestUnmount(t *testing.T) {
	t.Parallel()

	t.Run("unmounts_by_device_node", func(t *testing.T) {
		t.Parallel()

		mockCmd := &mocks.MockCommandExecutor{}
		mockCmd.On("Run", mock.Anything, "sudo",
			[]string{"-n", "umount", "/dev/sdb1"}).Return(nil)

		platform := NewPlatformWithExecutor(mockCmd)
		err := platform.Unmount(context.Background(), platforms.Credentials{}, "/dev/sdb1")
		require.NoError(t, err)
		mockCmd.AssertExpectations(t)
	})

	t.Run("reports_privilege_required", func(t *testing.T) {
		t.Parallel()

		mockCmd := &mocks.MockCommandExecutor{}
		mockCmd.On("Run", mock.Anything, "sudo", mock.Anything).
			Return(sudoError("sudo: a terminal is required to read the password"))

		platform := NewPlatformWithExecutor(mockCmd)
		err := platform.Unmount(context.Background(), platforms.Credentials{}, "/dev/sdb1")
		require.ErrorIs(t, err, platforms.ErrPrivilegeRequired)
	})

	t.Run("wraps_busy_target", func(t *testing.T) {
		t.Parallel()

		mockCmd := &mocks.MockCommandExecutor{}
		mockCmd.On("Run", mock.Anything, "sudo", mock.Anything).
			Return(sudoError("umount: /media/usb0: target is busy."))

		platform := NewPlatformWithExecutor(mockCmd)
		err := platform.Unmount(context.Background(), platforms.Credentials{}, "/media/usb0")
		require.Error(t, err)
		assert.NotErrorIs(t, err, platforms.ErrPrivilegeRequired)
	})
}

func TestFormat(t *testing.T) {
	t.Parallel()

	t.Run("rejects_unsupported_filesystem", func(t *testing.T) {
		t.Parallel()

		platform := NewPlatformWithExecutor(&mocks.MockCommandExecutor{})
		err := platform.Format(context.Background(), platforms.Credentials{},
			"/dev/sdb1", "btrfs", "")
		require.ErrorIs(t, err, platforms.ErrUnsupportedFilesystem)
		assert.Contains(t, err.Error(), "btrfs")
	})

	tests := []struct {
		name     string
		fsType   string
		label    string
		wantArgs []string
	}{
		{
			name:     "ext4_with_label",
			fsType:   "ext4",
			label:    "backup",
			wantArgs: []string{"-n", "mkfs.ext4", "-F", "-L", "backup", "/dev/sdb1"},
		},
		{
			name:     "ext4_without_label",
			fsType:   "ext4",
			wantArgs: []string{"-n", "mkfs.ext4", "-F", "/dev/sdb1"},
		},
		{
			name:     "exfat_with_label",
			fsType:   "exfat",
			label:    "MEDIA",
			wantArgs: []string{"-n", "mkfs.exfat", "-n", "MEDIA", "/dev/sdb1"},
		},
		{
			name:     "vfat_with_label",
			fsType:   "vfat",
			label:    "BOOTSTICK",
			wantArgs: []string{"-n", "mkfs.vfat", "-n", "BOOTSTICK", "/dev/sdb1"},
		},
		{
			name:     "ntfs_with_label",
			fsType:   "ntfs",
			label:    "archive",
			wantArgs: []string{"-n", "mkfs.ntfs", "-f", "-L", "archive", "/dev/sdb1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockCmd := &mocks.MockCommandExecutor{}
			mockCmd.On("Run", mock.Anything, "sudo", tt.wantArgs).Return(nil)

			platform := NewPlatformWithExecutor(mockCmd)
			err := platform.Format(context.Background(), platforms.Credentials{},
				"/dev/sdb1", tt.fsType, tt.label)
			require.NoError(t, err)
			mockCmd.AssertExpectations(t)
		})
	}
}

func TestSupportedFilesystems(t *testing.T) {
	t.Parallel()

	platform := NewPlatformWithExecutor(&mocks.MockCommandExecutor{})
	assert.Equal(t, []string{"exfat", "ext4", "ntfs", "vfat"}, platform.SupportedFilesystems())
}

func TestSettings(t *testing.T) {
	t.Parallel()

	platform := NewPlatformWithExecutor(&mocks.MockCommandExecutor{})
	settings := platform.Settings()
	assert.NotEmpty(t, settings.DataDir)
	assert.NotEmpty(t, settings.ConfigDir)
	assert.NotEmpty(t, settings.TempDir)
	assert.NotEmpty(t, settings.LogDir)
	assert.Contains(t, settings.DataDir, "dockhand")
}

func TestPlatformID(t *testing.T) {
	t.Parallel()

	platform := NewPlatformWithExecutor(&mocks.MockCommandExecutor{})
	assert.Equal(t, "linux", platform.ID())
}
