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

// Package database defines the persistent record types shared between the
// stores and their consumers.
package database

import "time"

// Operation types recorded in history.
const (
	ActionMount   = "mount"
	ActionUnmount = "unmount"
	ActionFormat  = "format"
)

// DeviceName is a user-assigned display label, keyed by filesystem UUID so
// it survives device-name churn across replugs.
type DeviceName struct {
	UpdatedAt time.Time `json:"updatedAt"`
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
}

// OpRecord is one mount/unmount/format outcome.
type OpRecord struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
	Device    string    `json:"device"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	Success   bool      `json:"success"`
}
