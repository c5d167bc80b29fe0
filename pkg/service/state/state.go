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

package state

import (
	"context"
	"time"

	"github.com/DockhandProject/dockhand-core/pkg/api/models"
)

// State holds the runtime state of the Dockhand service: the lifecycle
// context every long-running goroutine watches, the notification source
// channel, and the service start time. Mutable per-device state lives in
// the storage manager, not here.
type State struct {
	ctx           context.Context
	ctxCancelFunc context.CancelFunc
	Notifications chan<- models.Notification
	startedAt     time.Time
}

// NewState creates the service state and the notification source channel
// consumed by the broker.
func NewState() (state *State, notificationCh <-chan models.Notification) {
	// Change events are tiny and coalescable, so a small buffer is enough
	// headroom for hotplug bursts.
	ns := make(chan models.Notification, 64)
	ctx, ctxCancelFunc := context.WithCancel(context.Background())
	return &State{
		Notifications: ns,
		ctx:           ctx,
		ctxCancelFunc: ctxCancelFunc,
		startedAt:     time.Now(),
	}, ns
}

// StopService cancels the lifecycle context, signalling every service
// goroutine to shut down. Safe to call more than once.
func (s *State) StopService() {
	s.ctxCancelFunc()
}

func (s *State) GetContext() context.Context {
	return s.ctx
}

// StartedAt returns when the service started.
func (s *State) StartedAt() time.Time {
	return s.startedAt
}

// Uptime returns how long the service has been running.
func (s *State) Uptime() time.Duration {
	return time.Since(s.startedAt)
}
