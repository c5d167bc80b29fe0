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

// Package methods implements the HTTP API handlers. Every handler takes its
// dependencies through requests.RequestEnv and returns an http.HandlerFunc
// for the router to mount.
package methods

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/DockhandProject/dockhand-core/pkg/api/models"
	"github.com/DockhandProject/dockhand-core/pkg/api/models/requests"
	"github.com/DockhandProject/dockhand-core/pkg/api/notifications"
	"github.com/DockhandProject/dockhand-core/pkg/api/validation"
	"github.com/DockhandProject/dockhand-core/pkg/database"
	"github.com/DockhandProject/dockhand-core/pkg/platforms"
	"github.com/DockhandProject/dockhand-core/pkg/storage"
	"github.com/rs/zerolog/log"
)

// maxRequestBodyBytes caps every request body read by decodeRequest.
const maxRequestBodyBytes = 64 * 1024

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

// writeOpError maps an operation error to its HTTP status and payload. The
// two 401 shapes drive the password retry round: bare requiresAuth asks for
// a password, requiresAuth plus error reports a rejected one.
func writeOpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, platforms.ErrPrivilegeRequired):
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{RequiresAuth: true})
	case errors.Is(err, platforms.ErrAuthFailed):
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{
			RequiresAuth: true,
			Error:        platforms.ErrAuthFailed.Error(),
		})
	case errors.Is(err, storage.ErrDeviceBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrFormatDisabled):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, storage.ErrNotEligible),
		errors.Is(err, storage.ErrNotMounted),
		errors.Is(err, platforms.ErrUnsupportedFilesystem):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeRequest reads, unmarshals and validates a JSON request body into
// dest. On failure it writes the error response itself and returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, dest any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	if err := validation.DefaultValidator.Validate(dest); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}

	return true
}

// isAuthRound reports whether err is part of the password retry protocol
// rather than an operation outcome. Auth rounds stay out of history so a
// password-driven mount is recorded once, not once per round.
func isAuthRound(err error) bool {
	return errors.Is(err, platforms.ErrPrivilegeRequired) ||
		errors.Is(err, platforms.ErrAuthFailed)
}

// recordOp appends an operation outcome to history. Best effort: a failed
// insert logs a warning and never fails the operation itself.
func recordOp(ctx context.Context, env requests.RequestEnv, device, action string, opErr error) {
	if env.Store == nil {
		return
	}

	record := database.OpRecord{
		Device:  device,
		Action:  action,
		Success: opErr == nil,
	}
	if opErr != nil {
		record.Detail = opErr.Error()
	}

	if err := env.Store.AddOpRecord(ctx, &record); err != nil {
		log.Warn().Err(err).Str("device", device).Str("action", action).
			Msg("failed to record operation history")
	}
}

// notifyChange pushes a change event so subscribers re-enumerate. Called
// after every successful mutation in addition to hotplug events.
func notifyChange(env requests.RequestEnv) {
	if env.State == nil {
		return
	}
	notifications.Change(env.State.Notifications)
}
