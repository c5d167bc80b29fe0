/*
Dockhand Core
Copyright (c) 2025 The Dockhand Project Contributors.
SPDX-License-Identifier: GPL-3.0-or-later

This file is part of Dockhand Core.

Dockhand Core is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Dockhand Core is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Dockhand Core.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package broker fans change notifications out from the service state
// queue to every consumer: the API push channel and any configured MQTT
// publishers. Sends never block, so one stalled consumer cannot hold up
// the rest.
package broker

import (
	"context"

	"github.com/DockhandProject/dockhand-core/pkg/api/models"
	"github.com/DockhandProject/dockhand-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

// Broker distributes notifications from a single source channel to a
// dynamic set of subscribers.
type Broker struct {
	ctx         context.Context
	source      <-chan models.Notification
	subscribers map[int]chan models.Notification
	mu          syncutil.RWMutex
	nextID      int
}

// NewBroker wires a broker to its source. Nothing runs until Start.
func NewBroker(ctx context.Context, source <-chan models.Notification) *Broker {
	return &Broker{
		ctx:         ctx,
		source:      source,
		subscribers: make(map[int]chan models.Notification),
	}
}

// Start launches the distribution loop. It drains the source until the
// source closes or the service context ends, then closes every
// subscriber channel so consumers see a clean end of stream.
func (b *Broker) Start() {
	go func() {
		defer b.closeAll()
		for {
			select {
			case notif, ok := <-b.source:
				if !ok {
					log.Debug().Msg("notification source closed, stopping broker")
					return
				}
				b.broadcast(notif)
			case <-b.ctx.Done():
				log.Debug().Msg("service context ended, stopping broker")
				return
			}
		}
	}()
}

// broadcast hands one notification to every subscriber. A full
// subscriber buffer drops the notification for that subscriber only.
func (b *Broker) broadcast(notif models.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- notif:
		default:
			log.Warn().
				Int("subscriber_id", id).
				Str("type", notif.Type).
				Msg("subscriber buffer full, notification dropped")
		}
	}
}

// Subscribe registers a consumer and returns its channel plus the id to
// pass to Unsubscribe. bufferSize bounds how far the consumer may lag
// before it starts losing notifications.
func (b *Broker) Subscribe(bufferSize int) (<-chan models.Notification, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan models.Notification, bufferSize)
	b.subscribers[id] = ch

	log.Debug().Int("subscriber_id", id).Int("buffer_size", bufferSize).
		Msg("notification subscriber registered")
	return ch, id
}

// Unsubscribe drops a subscription and closes its channel. Unknown ids
// are ignored, so calling it twice is safe.
func (b *Broker) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[id]
	if !ok {
		return
	}
	delete(b.subscribers, id)
	close(ch)
	log.Debug().Int("subscriber_id", id).Msg("notification subscriber removed")
}

// Stop closes every subscriber channel. Safe to call alongside the
// shutdown the distribution loop performs itself.
func (b *Broker) Stop() {
	b.closeAll()
}

// closeAll closes and forgets every subscriber. Resetting the map makes
// repeat invocations no-ops, which covers the overlap between Stop and
// the loop's own shutdown.
func (b *Broker) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = make(map[int]chan models.Notification)
}
