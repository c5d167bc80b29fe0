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

// HandleFormat reformats a removable device. Irreversible, so the caller is
// expected to have confirmed with the user; the server only enforces the
// safety filter and the allow_format config switch.
func HandleFormat(env requests.RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info().Msg("received format request")

		var req models.FormatRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		creds := platforms.Credentials{Password: req.Password}
		err := env.Storage.Format(r.Context(), creds, req.Device, req.Filesystem, req.Label)
		if err != nil {
			log.Debug().Err(err).Str("device", req.Device).Str("filesystem", req.Filesystem).
				Msg("format failed")
			if !isAuthRound(err) {
				recordOp(r.Context(), env, req.Device, database.ActionFormat, err)
			}
			writeOpError(w, err)
			return
		}

		recordOp(r.Context(), env, req.Device, database.ActionFormat, nil)
		notifyChange(env)
		writeJSON(w, http.StatusOK, models.OKResponse{OK: true})
	}
}
