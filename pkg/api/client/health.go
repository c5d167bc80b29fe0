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
	"time"

	"github.com/DockhandProject/dockhand-core/pkg/config"
	"github.com/rs/zerolog/log"
)

const healthCheckTimeout = 2 * time.Second

// IsServiceRunning reports whether a service instance is answering on the
// configured local API port.
func IsServiceRunning(cfg *config.Instance) bool {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	_, err := NewLocal(cfg).About(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("error checking if service running")
		return false
	}
	return true
}

// WaitForAPI polls the local API until it answers or maxWait elapses. Returns
// true if the API became available.
func WaitForAPI(cfg *config.Instance, maxWait, checkInterval time.Duration) bool {
	deadline := time.Now().Add(maxWait)
	for {
		if IsServiceRunning(cfg) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(checkInterval)
	}
}
