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
	"strconv"

	"github.com/DockhandProject/dockhand-core/pkg/api/models"
	"github.com/DockhandProject/dockhand-core/pkg/api/models/requests"
	"github.com/rs/zerolog/log"
)

// HandleHistory lists recent operation outcomes, newest first. The limit
// query parameter is optional; the store applies its default and cap.
func HandleHistory(env requests.RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info().Msg("received history request")

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			limit = parsed
		}

		operations, err := env.Store.OpHistory(r.Context(), limit)
		if err != nil {
			log.Error().Err(err).Msg("failed to query operation history")
			writeError(w, http.StatusInternalServerError, "failed to query history")
			return
		}

		writeJSON(w, http.StatusOK, models.HistoryResponse{Operations: operations})
	}
}
