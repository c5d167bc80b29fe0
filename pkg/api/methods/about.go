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
	"github.com/DockhandProject/dockhand-core/pkg/config"
	"github.com/mackerelio/go-osstat/uptime"
	"github.com/rs/zerolog/log"
)

// HandleAbout describes the running service instance. Host uptime is
// best-effort and reports zero when the OS query fails.
func HandleAbout(env requests.RequestEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		log.Info().Msg("received about request")

		var systemUptime int64
		if hostUptime, err := uptime.Get(); err != nil {
			log.Warn().Err(err).Msg("failed to query system uptime")
		} else {
			systemUptime = int64(hostUptime.Seconds())
		}

		writeJSON(w, http.StatusOK, models.AboutResponse{
			App:                  config.AppName,
			Version:              config.AppVersion,
			Platform:             env.Platform.ID(),
			DeviceID:             env.Config.DeviceID(),
			SupportedFilesystems: env.Storage.SupportedFilesystems(),
			UptimeSeconds:        int64(env.State.Uptime().Seconds()),
			SystemUptimeSeconds:  systemUptime,
		})
	}
}
