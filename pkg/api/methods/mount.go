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

package methods

import (
	"net/http"

	"github.com/DockhandProject/dockhand-core/pkg/api/models"
	"github.com/DockhandProject/dockhand-core/pkg/api/models/requests"
	"github.com/DockhandProject/dockhand-core/pkg/database"
	"github.com/DockhandProject/dockhand-core/pkg/platforms"
	"github.com/rs/zerolog/log"
)

// HandleMount mounts a removable device. A 401 with requiresAuth asks the
// caller to retry with a password; privilege failures never reach history,
// only real outcomes do.
func HandleMount(env requests.RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info().Msg("received mount request")

		var req models.MountRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		creds := platforms.Credentials{Password: req.Password}
		mountpoint, err := env.Storage.Mount(r.Context(), creds, req.Device)
		if err != nil {
			log.Debug().Err(err).Str("device", req.Device).Msg("mount failed")
			if !isAuthRound(err) {
				recordOp(r.Context(), env, req.Device, database.ActionMount, err)
			}
			writeOpError(w, err)
			return
		}

		recordOp(r.Context(), env, req.Device, database.ActionMount, nil)
		notifyChange(env)
		writeJSON(w, http.StatusOK, models.MountResponse{
			OK:         true,
			Mountpoint: mountpoint,
		})
	}
}

// HandleUnmount unmounts a removable device. Same auth protocol as mount.
func HandleUnmount(env requests.RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info().Msg("received unmount request")

		var req models.MountRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		creds := platforms.Credentials{Password: req.Password}
		if err := env.Storage.Unmount(r.Context(), creds, req.Device); err != nil {
			log.Debug().Err(err).Str("device", req.Device).Msg("unmount failed")
			if !isAuthRound(err) {
				recordOp(r.Context(), env, req.Device, database.ActionUnmount, err)
			}
			writeOpError(w, err)
			return
		}

		recordOp(r.Context(), env, req.Device, database.ActionUnmount, nil)
		notifyChange(env)
		writeJSON(w, http.StatusOK, models.MountResponse{OK: true})
	}
}
