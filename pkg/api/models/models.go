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

// Package models defines the JSON payloads exchanged over the HTTP API and
// the push channel.
package models

import (
	"github.com/DockhandProject/dockhand-core/pkg/database"
	"github.com/DockhandProject/dockhand-core/pkg/storage"
)

const (
	// NotificationChange tells clients the device topology changed in some
	// way. It carries no payload: clients re-enumerate instead of trusting a
	// pushed snapshot.
	NotificationChange = "change"
)

// Notification is one message pushed to every /usb-events subscriber.
type Notification struct {
	Type string `json:"type"`
}

// MountRequest asks for a device to be mounted or unmounted. Password is
// optional on the first round; callers resupply it after a requiresAuth
// response.
type MountRequest struct {
	Device   string `json:"device"   validate:"required,devname"`
	Password string `json:"password,omitempty"`
}

// FormatRequest asks for a device to be wiped with a new filesystem.
type FormatRequest struct {
	Device     string `json:"device"     validate:"required,devname"`
	Filesystem string `json:"filesystem" validate:"required,fsname"`
	Label      string `json:"label,omitempty"`
	Password   string `json:"password,omitempty"`
}

// DeviceNameRequest stores a display name for a filesystem UUID. An empty
// name clears the stored entry.
type DeviceNameRequest struct {
	UUID string `json:"uuid" validate:"required"`
	Name string `json:"name"`
}

// StorageResponse is the full storage snapshot: root filesystem usage plus
// every eligible removable device. RootStorage is null when the root query
// failed; Removable is always present, possibly empty.
type StorageResponse struct {
	RootStorage *storage.RootStorage      `json:"rootStorage"`
	Removable   []storage.RemovableDevice `json:"removable"`
}

// MountResponse reports a successful mount with the active mountpoint.
// Unmount responses carry no mountpoint.
type MountResponse struct {
	Mountpoint string `json:"mountpoint,omitempty"`
	OK         bool   `json:"ok"`
}

// OKResponse is the generic success acknowledgement.
type OKResponse struct {
	OK bool `json:"ok"`
}

// ErrorResponse is the uniform error payload. RequiresAuth marks the two
// 401 rounds of the privilege protocol: alone it means "retry with a
// password", combined with Error it means the supplied password was
// rejected.
type ErrorResponse struct {
	Error        string `json:"error,omitempty"`
	RequiresAuth bool   `json:"requiresAuth,omitempty"`
}

// AboutResponse describes the running service instance.
type AboutResponse struct {
	App                  string   `json:"app"`
	Version              string   `json:"version"`
	Platform             string   `json:"platform"`
	DeviceID             string   `json:"deviceId"`
	SupportedFilesystems []string `json:"supportedFilesystems"`
	UptimeSeconds        int64    `json:"uptimeSeconds"`
	SystemUptimeSeconds  int64    `json:"systemUptimeSeconds"`
}

// HistoryResponse lists recent operation outcomes, newest first.
type HistoryResponse struct {
	Operations []database.OpRecord `json:"operations"`
}

// DeviceNamesResponse lists every stored display name.
type DeviceNamesResponse struct {
	Names []database.DeviceName `json:"names"`
}
