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

package notifications

import (
	"github.com/DockhandProject/dockhand-core/pkg/api/models"
	"github.com/rs/zerolog/log"
)

// sendNotification delivers without blocking the caller. A full channel
// drops the message: change events are coalescable, clients re-enumerate on
// whichever one arrives.
func sendNotification(ns chan<- models.Notification, notifType string) {
	select {
	case ns <- models.Notification{Type: notifType}:
	default:
		log.Warn().Str("type", notifType).Msg("notification channel full, dropping")
	}
}

// Change signals subscribers that the device topology changed. Sent on
// hotplug add/removal and after every successful mount, unmount or format.
func Change(ns chan<- models.Notification) {
	sendNotification(ns, models.NotificationChange)
}
