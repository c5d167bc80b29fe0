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
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DockhandProject/dockhand-core/pkg/api/models"
	"github.com/DockhandProject/dockhand-core/pkg/database"
	"github.com/DockhandProject/dockhand-core/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHandleHistory_Empty tests that a fresh store answers an empty list.
func TestHandleHistory_Empty(t *testing.T) {
	t.Parallel()

	env, _ := newTestEnv(t, mocks.NewMockPlatform())

	req := httptest.NewRequest(http.MethodGet, "/history", http.NoBody)
	rr := httptest.NewRecorder()
	HandleHistory(env)(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.HistoryResponse
	decodeBody(t, rr, &resp)
	assert.Empty(t, resp.Operations)
}

// TestHandleHistory_NewestFirstWithLimit tests ordering and the limit
// query parameter.
func TestHandleHistory_NewestFirstWithLimit(t *testing.T) {
	t.Parallel()

	env, _ := newTestEnv(t, mocks.NewMockPlatform())

	base := time.Now().Add(-time.Hour)
	actions := []string{database.ActionMount, database.ActionUnmount, database.ActionFormat}
	for i, action := range actions {
		record := database.OpRecord{
			Device:    "sdb",
			Action:    action,
			Success:   true,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, env.Store.AddOpRecord(context.Background(), &record))
	}

	req := httptest.NewRequest(http.MethodGet, "/history?limit=2", http.NoBody)
	rr := httptest.NewRecorder()
	HandleHistory(env)(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.HistoryResponse
	decodeBody(t, rr, &resp)
	require.Len(t, resp.Operations, 2)
	assert.Equal(t, database.ActionFormat, resp.Operations[0].Action)
	assert.Equal(t, database.ActionUnmount, resp.Operations[1].Action)
}

// TestHandleHistory_BadLimit tests that a non-numeric limit yields 400.
func TestHandleHistory_BadLimit(t *testing.T) {
	t.Parallel()

	env, _ := newTestEnv(t, mocks.NewMockPlatform())

	req := httptest.NewRequest(http.MethodGet, "/history?limit=lots", http.NoBody)
	rr := httptest.NewRecorder()
	HandleHistory(env)(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp models.ErrorResponse
	decodeBody(t, rr, &resp)
	assert.Contains(t, resp.Error, "limit must be a non-negative integer")
}

// TestHandleHistory_NegativeLimit tests that a negative limit yields 400.
func TestHandleHistory_NegativeLimit(t *testing.T) {
	t.Parallel()

	env, _ := newTestEnv(t, mocks.NewMockPlatform())

	req := httptest.NewRequest(http.MethodGet, "/history?limit=-1", http.NoBody)
	rr := httptest.NewRecorder()
	HandleHistory(env)(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}
