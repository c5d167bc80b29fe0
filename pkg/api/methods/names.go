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
	"github.com/rs/zerolog/log"
)

// HandleSetDeviceName stores a display name for a filesystem UUID. An empty
// name clears the stored entry. The name shows up in enumeration on the
// next storage request, so a change event nudges clients to refresh.
func HandleSetDeviceName(env requests.RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info().Msg("received set device name request")

		var req models.DeviceNameRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		if err := env.Store.SetDeviceName(r.Context(), req.UUID, req.Name); err != nil {
			log.Error().Err(err).Str("uuid", req.UUID).Msg("failed to store device name")
			writeError(w, http.StatusInternalServerError, "failed to store device name")
			return
		}

		notifyChange(env)
		writeJSON(w, http.StatusOK, models.OKResponse{OK: true})
	}
}

// HandleDeviceNames lists every stored display name.
func HandleDeviceNames(env requests.RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info().Msg("received device names request")

		names, err := env.Store.DeviceNames(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("failed to query device names")
			writeError(w, http.StatusInternalServerError, "failed to query device names")
			return
		}

		writeJSON(w, http.StatusOK, models.DeviceNamesResponse{Names: names})
	}
}
