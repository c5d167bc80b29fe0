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

package userdb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/DockhandProject/dockhand-core/pkg/database"
	"github.com/DockhandProject/dockhand-core/pkg/platforms"
	"github.com/DockhandProject/dockhand-core/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTempUserDB(t *testing.T) *UserDB {
	t.Helper()

	mockPlatform := mocks.NewMockPlatform()
	mockPlatform.On("Settings").Return(platforms.Settings{
		DataDir: t.TempDir(),
	})

	userDB, err := OpenUserDB(mockPlatform)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = userDB.Close()
	})
	return userDB
}

func TestUserDB_OpenClose(t *testing.T) {
	t.Parallel()
	userDB := setupTempUserDB(t)

	err := userDB.Truncate(context.Background())
	require.NoError(t, err)

	err = userDB.Close()
	require.NoError(t, err)

	// Operations after close report the disconnected sentinel
	err = userDB.Truncate(context.Background())
	require.ErrorIs(t, err, ErrNullSQL)

	// Closing twice is a no-op
	require.NoError(t, userDB.Close())
}

func TestUserDB_Path(t *testing.T) {
	t.Parallel()
	userDB := setupTempUserDB(t)

	dbPath := userDB.Path()
	assert.Contains(t, dbPath, "user.db")

	_, err := os.Stat(dbPath)
	assert.NoError(t, err, "database file should exist at the returned path")
}

func TestUserDB_ReopenKeepsData(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mockPlatform := mocks.NewMockPlatform()
	mockPlatform.On("Settings").Return(platforms.Settings{
		DataDir: t.TempDir(),
	})

	userDB, err := OpenUserDB(mockPlatform)
	require.NoError(t, err)

	err = userDB.SetDeviceName(ctx, "4E21-0000", "Backups")
	require.NoError(t, err)
	require.NoError(t, userDB.Close())

	// Reopening an existing database must not re-run allocation
	reopened, err := OpenUserDB(mockPlatform)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	name, err := reopened.DeviceName(ctx, "4E21-0000")
	require.NoError(t, err)
	assert.Equal(t, "Backups", name)
}

func TestDeviceNameLifecycle(t *testing.T) {
	t.Parallel()
	userDB := setupTempUserDB(t)
	ctx := context.Background()

	// Unknown UUIDs resolve to an empty name, not an error
	name, err := userDB.DeviceName(ctx, "4E21-0000")
	require.NoError(t, err)
	assert.Empty(t, name)

	err = userDB.SetDeviceName(ctx, "4E21-0000", "Holiday Photos")
	require.NoError(t, err)

	name, err = userDB.DeviceName(ctx, "4E21-0000")
	require.NoError(t, err)
	assert.Equal(t, "Holiday Photos", name)

	// Setting again replaces rather than duplicates
	err = userDB.SetDeviceName(ctx, "4E21-0000", "Holiday Photos 2024")
	require.NoError(t, err)

	name, err = userDB.DeviceName(ctx, "4E21-0000")
	require.NoError(t, err)
	assert.Equal(t, "Holiday Photos 2024", name)

	names, err := userDB.DeviceNames(ctx)
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, "4E21-0000", names[0].UUID)
	assert.False(t, names[0].UpdatedAt.IsZero())

	// An empty name clears the stored entry
	err = userDB.SetDeviceName(ctx, "4E21-0000", "")
	require.NoError(t, err)

	name, err = userDB.DeviceName(ctx, "4E21-0000")
	require.NoError(t, err)
	assert.Empty(t, name)

	names, err = userDB.DeviceNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestDeviceNames_SortedByName(t *testing.T) {
	t.Parallel()
	userDB := setupTempUserDB(t)
	ctx := context.Background()

	require.NoError(t, userDB.SetDeviceName(ctx, "1111-1111", "Zeta Drive"))
	require.NoError(t, userDB.SetDeviceName(ctx, "2222-2222", "Alpha Stick"))
	require.NoError(t, userDB.SetDeviceName(ctx, "3333-3333", "Media"))

	names, err := userDB.DeviceNames(ctx)
	require.NoError(t, err)
	require.Len(t, names, 3)
	assert.Equal(t, "Alpha Stick", names[0].Name)
	assert.Equal(t, "Media", names[1].Name)
	assert.Equal(t, "Zeta Drive", names[2].Name)
}

func TestOpHistory_NewestFirst(t *testing.T) {
	t.Parallel()
	userDB := setupTempUserDB(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	records := []database.OpRecord{
		{Device: "sdb", Action: database.ActionMount, Success: true,
			Detail: "/media/sdb1", CreatedAt: base},
		{Device: "sdb", Action: database.ActionUnmount, Success: true,
			CreatedAt: base.Add(time.Minute)},
		{Device: "sdc", Action: database.ActionFormat, Success: false,
			Detail: "authentication failed", CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range records {
		require.NoError(t, userDB.AddOpRecord(ctx, &records[i]))
	}

	history, err := userDB.OpHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, database.ActionFormat, history[0].Action)
	assert.Equal(t, "sdc", history[0].Device)
	assert.False(t, history[0].Success)
	assert.Equal(t, database.ActionUnmount, history[1].Action)
	assert.Equal(t, database.ActionMount, history[2].Action)
	assert.Equal(t, "/media/sdb1", history[2].Detail)
}

func TestOpHistory_RespectsLimit(t *testing.T) {
	t.Parallel()
	userDB := setupTempUserDB(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := range 5 {
		record := database.OpRecord{
			Device:    "sdb",
			Action:    database.ActionMount,
			Success:   true,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, userDB.AddOpRecord(ctx, &record))
	}

	history, err := userDB.OpHistory(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestAddOpRecord_FillsDefaults(t *testing.T) {
	t.Parallel()
	userDB := setupTempUserDB(t)
	ctx := context.Background()

	record := database.OpRecord{
		Device:  "sdb",
		Action:  database.ActionMount,
		Success: true,
	}
	require.NoError(t, userDB.AddOpRecord(ctx, &record))

	assert.NotEmpty(t, record.ID)
	assert.False(t, record.CreatedAt.IsZero())

	history, err := userDB.OpHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, record.ID, history[0].ID)
}

func TestTruncate_ClearsEverything(t *testing.T) {
	t.Parallel()
	userDB := setupTempUserDB(t)
	ctx := context.Background()

	require.NoError(t, userDB.SetDeviceName(ctx, "4E21-0000", "Backups"))
	record := database.OpRecord{Device: "sdb", Action: database.ActionMount, Success: true}
	require.NoError(t, userDB.AddOpRecord(ctx, &record))

	require.NoError(t, userDB.Truncate(ctx))

	names, err := userDB.DeviceNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	history, err := userDB.OpHistory(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestVacuum(t *testing.T) {
	t.Parallel()
	userDB := setupTempUserDB(t)

	require.NoError(t, userDB.Vacuum(context.Background()))
}
