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

package methods

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DockhandProject/dockhand-core/pkg/api/models"
	"github.com/DockhandProject/dockhand-core/pkg/platforms"
	"github.com/DockhandProject/dockhand-core/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestHandleStorage_FullSnapshot tests that the snapshot carries both root
// usage and the eligible device list.
func TestHandleStorage_FullSnapshot(t *testing.T) {
	t.Parallel()

	mockPlatform := mocks.NewMockPlatform()
	mockPlatform.On("RootUsage", mock.Anything).Return(&platforms.DiskUsage{
		TotalBytes:  500 * 1024 * 1024 * 1024,
		UsedBytes:   100 * 1024 * 1024 * 1024,
		FreeBytes:   400 * 1024 * 1024 * 1024,
		UsedPercent: 20,
	}, nil)
	mockPlatform.On("ListBlockDevices", mock.Anything).Return(unmountedUSBDisk(), nil)

	env, _ := newTestEnv(t, mockPlatform)
	env.Config.SetAutoMount(false)

	req := httptest.NewRequest(http.MethodGet, "/storage", http.NoBody)
	rr := httptest.NewRecorder()
	HandleStorage(env)(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.StorageResponse
	decodeBody(t, rr, &resp)

	require.NotNil(t, resp.RootStorage)
	assert.Equal(t, 20, resp.RootStorage.UsedPercent)
	assert.Equal(t, "500G", resp.RootStorage.TotalHuman)

	require.Len(t, resp.Removable, 1)
	assert.Equal(t, "sdb", resp.Removable[0].Name)
	assert.Equal(t, "usb", resp.Removable[0].DeviceType)
	assert.Empty(t, resp.Removable[0].Mountpoint)
}

// TestHandleStorage_RootFailureIsNull tests that a failed root query shows
// up as null while the device list still answers.
func TestHandleStorage_RootFailureIsNull(t *testing.T) {
	t.Parallel()

	mockPlatform := mocks.NewMockPlatform()
	mockPlatform.On("RootUsage", mock.Anything).
		Return((*platforms.DiskUsage)(nil), errors.New("statfs failed"))
	mockPlatform.On("ListBlockDevices", mock.Anything).Return(unmountedUSBDisk(), nil)

	env, _ := newTestEnv(t, mockPlatform)
	env.Config.SetAutoMount(false)

	req := httptest.NewRequest(http.MethodGet, "/storage", http.NoBody)
	rr := httptest.NewRecorder()
	HandleStorage(env)(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	assert.Contains(t, rr.Body.String(), `"rootStorage":null`)

	var resp models.StorageResponse
	decodeBody(t, rr, &resp)
	assert.Nil(t, resp.RootStorage)
	assert.Len(t, resp.Removable, 1)
}

// TestHandleStorage_EnumerationFailureIsEmptyList tests that a failed
// topology query degrades to an empty list, never an error status.
func TestHandleStorage_EnumerationFailureIsEmptyList(t *testing.T) {
	t.Parallel()

	mockPlatform := mocks.NewMockPlatform()
	mockPlatform.On("RootUsage", mock.Anything).Return(&platforms.DiskUsage{
		TotalBytes: 1024, UsedBytes: 512, FreeBytes: 512, UsedPercent: 50,
	}, nil)
	mockPlatform.On("ListBlockDevices", mock.Anything).
		Return([]platforms.BlockDevice{}, errors.New("lsblk missing"))

	env, _ := newTestEnv(t, mockPlatform)

	req := httptest.NewRequest(http.MethodGet, "/storage", http.NoBody)
	rr := httptest.NewRecorder()
	HandleStorage(env)(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.StorageResponse
	decodeBody(t, rr, &resp)
	assert.NotNil(t, resp.Removable)
	assert.Empty(t, resp.Removable)
	assert.Contains(t, rr.Body.String(), `"removable":[]`, "empty list stays a list, not null")
}

// TestHandleStorage_DisplayNameJoined tests that stored display names are
// joined into enumeration.
func TestHandleStorage_DisplayNameJoined(t *testing.T) {
	t.Parallel()

	mockPlatform := mocks.NewMockPlatform()
	mockPlatform.On("RootUsage", mock.Anything).Return(&platforms.DiskUsage{
		TotalBytes: 1024, UsedBytes: 512, FreeBytes: 512, UsedPercent: 50,
	}, nil)
	mockPlatform.On("ListBlockDevices", mock.Anything).Return(unmountedUSBDisk(), nil)

	env, _ := newTestEnv(t, mockPlatform)
	env.Config.SetAutoMount(false)

	err := env.Store.SetDeviceName(context.Background(), "4E21-0000", "Holiday Photos")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/storage", http.NoBody)
	rr := httptest.NewRecorder()
	HandleStorage(env)(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.StorageResponse
	decodeBody(t, rr, &resp)
	require.Len(t, resp.Removable, 1)
	assert.Equal(t, "Holiday Photos", resp.Removable[0].DisplayName)
}
