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
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/DockhandProject/dockhand-core/pkg/database"
	"github.com/rs/zerolog/log"
)

// Queries go here to keep the interface clean

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

func sqlMigrateUp(db *sql.DB) error {
	if err := database.MigrateUp(db, migrationFiles, "migrations"); err != nil {
		return fmt.Errorf("failed to run user database migrations: %w", err)
	}
	return nil
}

//goland:noinspection SqlWithoutWhere
func sqlTruncate(ctx context.Context, db *sql.DB) error {
	sqlStmt := `
	delete from DeviceNames;
	delete from OpHistory;
	vacuum;
	`
	_, err := db.ExecContext(ctx, sqlStmt)
	if err != nil {
		return fmt.Errorf("failed to truncate database: %w", err)
	}
	return nil
}

func sqlVacuum(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, "vacuum;")
	if err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}

func sqlSetDeviceName(ctx context.Context, db *sql.DB, uuid, name string) error {
	stmt, err := db.PrepareContext(ctx, `
		insert into DeviceNames(UUID, Name, UpdatedAt) values (?, ?, ?)
		on conflict(UUID) do update set Name = excluded.Name, UpdatedAt = excluded.UpdatedAt;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare device name upsert: %w", err)
	}
	defer closeStatement(stmt)

	_, err = stmt.ExecContext(ctx, uuid, name, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store device name: %w", err)
	}
	return nil
}

func sqlDeleteDeviceName(ctx context.Context, db *sql.DB, uuid string) error {
	stmt, err := db.PrepareContext(ctx, `delete from DeviceNames where UUID = ?;`)
	if err != nil {
		return fmt.Errorf("failed to prepare device name delete: %w", err)
	}
	defer closeStatement(stmt)

	_, err = stmt.ExecContext(ctx, uuid)
	if err != nil {
		return fmt.Errorf("failed to delete device name: %w", err)
	}
	return nil
}

func sqlGetDeviceName(ctx context.Context, db *sql.DB, uuid string) (string, error) {
	var name string
	err := db.QueryRowContext(ctx,
		`select Name from DeviceNames where UUID = ?;`, uuid).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query device name: %w", err)
	}
	return name, nil
}

func sqlListDeviceNames(ctx context.Context, db *sql.DB) ([]database.DeviceName, error) {
	rows, err := db.QueryContext(ctx,
		`select UUID, Name, UpdatedAt from DeviceNames order by Name;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query device names: %w", err)
	}
	defer closeRows(rows)

	names := make([]database.DeviceName, 0)
	for rows.Next() {
		var entry database.DeviceName
		var updatedAt int64
		if err := rows.Scan(&entry.UUID, &entry.Name, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device name row: %w", err)
		}
		entry.UpdatedAt = time.Unix(updatedAt, 0)
		names = append(names, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read device name rows: %w", err)
	}
	return names, nil
}

func sqlAddOpRecord(ctx context.Context, db *sql.DB, record *database.OpRecord) error {
	stmt, err := db.PrepareContext(ctx, `
		insert into OpHistory(
			ID, Device, Action, Success, Detail, CreatedAt
		) values (?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare history insert: %w", err)
	}
	defer closeStatement(stmt)

	_, err = stmt.ExecContext(ctx,
		record.ID,
		record.Device,
		record.Action,
		record.Success,
		record.Detail,
		record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}

func sqlOpHistory(ctx context.Context, db *sql.DB, limit int) ([]database.OpRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := db.QueryContext(ctx, `
		select ID, Device, Action, Success, Detail, CreatedAt
		from OpHistory order by CreatedAt desc, ID desc limit ?;
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer closeRows(rows)

	records := make([]database.OpRecord, 0, limit)
	for rows.Next() {
		var record database.OpRecord
		var createdAt int64
		err := rows.Scan(&record.ID, &record.Device, &record.Action,
			&record.Success, &record.Detail, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		record.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return records, nil
}

func closeStatement(stmt *sql.Stmt) {
	if err := stmt.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close sql statement")
	}
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close sql rows")
	}
}
