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

	"github.com/DockhandProject/dockhand-core/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// sample output from util-linux 2.39, which emits native JSON types
const lsblkModernJSON = `{
   "blockdevices": [
      {
         "name": "sda",
         "size": 500107862016,
         "model": "Samsung SSD 870",
         "mountpoint": null,
         "rm": false,
         "label": null,
         "uuid": null,
         "fstype": null,
         "fsused": null,
         "fsavail": null,
         "fssize": null,
         "children": [
            {
               "name": "sda1",
               "size": 500106813440,
               "model": null,
               "mountpoint": "/",
               "rm": false,
               "label": null,
               "uuid": "c3a6e1d0-8a9b-4f6e-9f7d-1b2c3d4e5f60",
               "fstype": "ext4",
               "fsused": 105226698752,
               "fsavail": 369220804608,
               "fssize": 491134861312
            }
         ]
      },
      {
         "name": "sdb",
         "size": 15728640000,
         "model": "Cruzer Blade",
         "mountpoint": null,
         "rm": true,
         "label": null,
         "uuid": null,
         "fstype": null,
         "fsused": null,
         "fsavail": null,
         "fssize": null,
         "children": [
            {
               "name": "sdb1",
               "size": 15727591424,
               "model": null,
               "mountpoint": null,
               "rm": true,
               "label": "SANDISK",
               "uuid": "4E21-0000",
               "fstype": "vfat",
               "fsused": null,
               "fsavail": null,
               "fssize": null
            }
         ]
      }
   ]
}`

// older util-linux versions quote every value and use "1"/"0" for booleans
const lsblkLegacyJSON = `{
   "blockdevices": [
      {
         "name": "sdb",
         "size": "15728640000",
         "model": "Cruzer Blade",
         "mountpoint": null,
         "rm": "1",
         "children": [
            {
               "name": "sdb1",
               "size": "15727591424",
               "mountpoint": "/media/usb0",
               "rm": "1",
               "label": "SANDISK",
               "uuid": "4E21-0000",
               "fstype": "vfat",
               "fsused": "1048576",
               "fsavail": "15726542848",
               "fssize": "15727591424"
            }
         ]
      }
   ]
}`

func TestParseLsblk_ModernOutput(t *testing.T) {
	t.Parallel()

	devices, err := parseLsblk([]byte(lsblkModernJSON))
	require.NoError(t, err)
	require.Len(t, devices, 2)

	sda := devices[0]
	assert.Equal(t, "sda", sda.Name)
	assert.Equal(t, "500107862016", sda.Size)
	assert.Equal(t, "Samsung SSD 870", sda.Model)
	assert.False(t, sda.Removable)
	require.Len(t, sda.Children, 1)
	assert.Equal(t, "sda1", sda.Children[0].Name)
	assert.Equal(t, "/", sda.Children[0].Mountpoint)
	assert.Equal(t, "ext4", sda.Children[0].FSType)
	assert.Equal(t, "105226698752", sda.Children[0].FSUsed)

	sdb := devices[1]
	assert.Equal(t, "sdb", sdb.Name)
	assert.True(t, sdb.Removable)
	require.Len(t, sdb.Children, 1)
	assert.Equal(t, "SANDISK", sdb.Children[0].Label)
	assert.Equal(t, "4E21-0000", sdb.Children[0].UUID)
	assert.Empty(t, sdb.Children[0].Mountpoint)
}

func TestParseLsblk_LegacyOutput(t *testing.T) {
	t.Parallel()

	devices, err := parseLsblk([]byte(lsblkLegacyJSON))
	require.NoError(t, err)
	require.Len(t, devices, 1)

	sdb := devices[0]
	assert.Equal(t, "sdb", sdb.Name)
	assert.Equal(t, "15728640000", sdb.Size)
	assert.True(t, sdb.Removable, "rm as string \"1\" should decode to true")
	require.Len(t, sdb.Children, 1)
	assert.Equal(t, "/media/usb0", sdb.Children[0].Mountpoint)
	assert.Equal(t, "15727591424", sdb.Children[0].FSSize)
}

func TestParseLsblk_SkipsMalformedEntries(t *testing.T) {
	t.Parallel()

	// second entry has no name and must be dropped, not fail the whole parse
	out := `{
	   "blockdevices": [
	      {"name": "sdb", "size": 100, "rm": true},
	      {"size": 200, "rm": true},
	      {"name": "sdc", "size": 300, "rm": true}
	   ]
	}`

	devices, err := parseLsblk([]byte(out))
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "sdb", devices[0].Name)
	assert.Equal(t, "sdc", devices[1].Name)
}

func TestParseLsblk_InvalidJSON(t *testing.T) {
	t.Parallel()

	_, err := parseLsblk([]byte("not json"))
	require.Error(t, err)
}

func TestParseLsblk_EmptyList(t *testing.T) {
	t.Parallel()

	devices, err := parseLsblk([]byte(`{"blockdevices": []}`))
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestListBlockDevices(t *testing.T) {
	t.Parallel()

	t.Run("runs_lsblk_with_byte_sizes", func(t *testing.T) {
		t.Parallel()

		mockCmd := &mocks.MockCommandExecutor{}
		mockCmd.On("Output", mock.Anything, "lsblk",
			[]string{"-b", "-J", "-o", lsblkColumns}).
			Return([]byte(lsblkModernJSON), nil)

		platform := NewPlatformWithExecutor(mockCmd)
		devices, err := platform.ListBlockDevices(context.Background())
		require.NoError(t, err)
		assert.Len(t, devices, 2)
		mockCmd.AssertExpectations(t)
	})

	t.Run("propagates_command_failure", func(t *testing.T) {
		t.Parallel()

		mockCmd := &mocks.MockCommandExecutor{}
		mockCmd.On("Output", mock.Anything, "lsblk", mock.Anything).
			Return([]byte(nil), errors.New("exit status 1"))

		platform := NewPlatformWithExecutor(mockCmd)
		_, err := platform.ListBlockDevices(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lsblk")
	})
}
