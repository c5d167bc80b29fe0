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

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/DockhandProject/dockhand-core/pkg/api/models"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ReconnectDelay is how long a watcher waits before redialling a dropped
// push channel connection.
const ReconnectDelay = 10 * time.Second

// Watcher follows the service push channel across reconnects.
type Watcher struct {
	client *Client
	clock  clockwork.Clock
}

// NewWatcher creates a watcher on c. The clock is injectable so tests can
// step through reconnect delays.
func NewWatcher(c *Client, clock clockwork.Clock) *Watcher {
	return &Watcher{client: c, clock: clock}
}

// EventsURL returns the websocket URL of the push channel.
func (c *Client) EventsURL() string {
	return "ws" + strings.TrimPrefix(c.baseURL, "http") + "/usb-events"
}

// Watch delivers every push notification to onEvent until ctx is
// cancelled. Dropped connections and failed dials are retried every
// ReconnectDelay.
func (w *Watcher) Watch(ctx context.Context, onEvent func(models.Notification)) error {
	for {
		if err := w.follow(ctx, onEvent); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("push channel connection lost")
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("watch stopped: %w", ctx.Err())
		case <-w.clock.After(ReconnectDelay):
		}
	}
}

// follow runs a single connection until it fails or ctx is cancelled.
func (w *Watcher) follow(ctx context.Context, onEvent func(models.Notification)) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, w.client.EventsURL(), nil)
	if err != nil {
		return fmt.Errorf("dialling push channel: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	// Closing the connection is the only way to unblock ReadMessage when
	// the context goes away.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("reading push channel: %w", err)
		}

		var notif models.Notification
		if err := json.Unmarshal(msg, &notif); err != nil {
			log.Debug().Str("msg", string(msg)).Msg("ignoring unparseable push message")
			continue
		}
		onEvent(notif)
	}
}
