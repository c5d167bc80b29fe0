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

// Package userdb persists the small amount of user state the service keeps:
// display names for devices and the operation history.
package userdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/DockhandProject/dockhand-core/pkg/config"
	"github.com/DockhandProject/dockhand-core/pkg/database"
	"github.com/DockhandProject/dockhand-core/pkg/helpers"
	"github.com/DockhandProject/dockhand-core/pkg/platforms"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNullSQL = errors.New("UserDB is not connected")

const sqliteConnParams = "?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000"

type UserDB struct {
	sql *sql.DB
	pl  platforms.Platform
}

// OpenUserDB opens (creating and migrating if necessary) the user database
// under the platform data dir.
func OpenUserDB(pl platforms.Platform) (*UserDB, error) {
	db := &UserDB{sql: nil, pl: pl}
	err := db.Open()
	return db, err
}

func (db *UserDB) Open() error {
	exists := true
	dbPath := db.Path()
	_, err := os.Stat(dbPath)
	if err != nil {
		exists = false
		mkdirErr := os.MkdirAll(filepath.Dir(dbPath), 0o750)
		if mkdirErr != nil {
			return fmt.Errorf("failed to create directory for database: %w", mkdirErr)
		}
	}
	sqlInstance, err := sql.Open("sqlite3", dbPath+sqliteConnParams)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.sql = sqlInstance
	if !exists {
		return db.Allocate()
	}
	return nil
}

func (db *UserDB) Path() string {
	return filepath.Join(helpers.DataDir(db.pl), config.UserDbFile)
}

// UnsafeGetSQLDb exposes the raw handle for tests.
func (db *UserDB) UnsafeGetSQLDb() *sql.DB {
	return db.sql
}

func (db *UserDB) Allocate() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

func (db *UserDB) MigrateUp() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

func (db *UserDB) Vacuum(ctx context.Context) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlVacuum(ctx, db.sql)
}

func (db *UserDB) Truncate(ctx context.Context) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlTruncate(ctx, db.sql)
}

func (db *UserDB) Close() error {
	if db.sql == nil {
		return nil
	}
	if err := db.sql.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	db.sql = nil
	return nil
}

// SetDeviceName stores a display name for a filesystem UUID. An empty name
// removes the stored entry.
func (db *UserDB) SetDeviceName(ctx context.Context, uuid, name string) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	if name == "" {
		return sqlDeleteDeviceName(ctx, db.sql, uuid)
	}
	return sqlSetDeviceName(ctx, db.sql, uuid, name)
}

// DeviceName returns the stored display name for a UUID, empty when none.
func (db *UserDB) DeviceName(ctx context.Context, uuid string) (string, error) {
	if db.sql == nil {
		return "", ErrNullSQL
	}
	return sqlGetDeviceName(ctx, db.sql, uuid)
}

// DeviceNames lists every stored display name.
func (db *UserDB) DeviceNames(ctx context.Context) ([]database.DeviceName, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlListDeviceNames(ctx, db.sql)
}

// AddOpRecord appends one operation outcome to the history. A missing ID or
// timestamp is filled in before the insert.
func (db *UserDB) AddOpRecord(ctx context.Context, record *database.OpRecord) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	return sqlAddOpRecord(ctx, db.sql, record)
}

// OpHistory returns the most recent operations, newest first. A limit of
// zero or less applies the default of 50; the cap is 500.
func (db *UserDB) OpHistory(ctx context.Context, limit int) ([]database.OpRecord, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlOpHistory(ctx, db.sql, limit)
}
