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
	"github.com/DockhandProject/dockhand-core/pkg/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// HandleStorage reports the full storage snapshot: root filesystem usage
// plus every eligible removable device. Both queries are advisory, so the
// handler always answers 200; a failed root query shows up as null.
func HandleStorage(env requests.RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info().Msg("received storage request")

		var (
			root      *storage.RootStorage
			removable []storage.RemovableDevice
		)

		// The two queries hit independent OS surfaces, run them together.
		var g errgroup.Group
		g.Go(func() error {
			root = env.Storage.Root(r.Context())
			return nil
		})
		g.Go(func() error {
			removable = env.Storage.List(r.Context())
			return nil
		})
		_ = g.Wait()

		writeJSON(w, http.StatusOK, models.StorageResponse{
			RootStorage: root,
			Removable:   removable,
		})
	}
}
