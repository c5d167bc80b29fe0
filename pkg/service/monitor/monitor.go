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

// Package monitor turns OS block device hotplug signals into change
// notifications. Raw signals arrive in bursts as the kernel discovers a
// drive and its partitions; the monitor coalesces each burst into one
// notification once it settles.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// settleWindow is how long a burst must be quiet before it counts as one
// topology change.
const settleWindow = 500 * time.Millisecond

// Source delivers raw hotplug signals. Implementations filter out
// non-removable noise before emitting.
type Source interface {
	// Start begins signal delivery to Events.
	Start() error
	// Stop ends delivery and releases OS resources. Events is closed.
	Stop()
	// Events yields one value per raw hotplug signal.
	Events() <-chan struct{}
}

// Monitor debounces a hotplug source into change notifications.
type Monitor struct {
	source Source
	clock  clockwork.Clock
}

// New creates a monitor on source. The clock is injectable so tests can
// step through settle windows.
func New(source Source, clock clockwork.Clock) *Monitor {
	return &Monitor{source: source, clock: clock}
}

// Run starts the source and calls onChange once per settled burst until
// ctx is cancelled. A clean shutdown returns nil; a dead source returns an
// error so the caller can decide whether to run without hotplug.
func (m *Monitor) Run(ctx context.Context, onChange func()) error {
	if err := m.source.Start(); err != nil {
		return fmt.Errorf("starting hotplug source: %w", err)
	}
	defer m.source.Stop()

	// Armed by the first signal of a burst, pushed back by each further
	// signal, fires once the burst settles.
	settle := m.clock.NewTimer(settleWindow)
	settle.Stop()

	for {
		select {
		case <-ctx.Done():
			settle.Stop()
			return nil
		case _, ok := <-m.source.Events():
			if !ok {
				return errors.New("hotplug source closed")
			}
			settle.Reset(settleWindow)
		case <-settle.Chan():
			onChange()
		}
	}
}
