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

package requests

import (
	"github.com/DockhandProject/dockhand-core/pkg/config"
	"github.com/DockhandProject/dockhand-core/pkg/database/userdb"
	"github.com/DockhandProject/dockhand-core/pkg/platforms"
	"github.com/DockhandProject/dockhand-core/pkg/service/state"
	"github.com/DockhandProject/dockhand-core/pkg/storage"
)

// RequestEnv carries the shared dependencies every API handler needs.
type RequestEnv struct {
	Platform platforms.Platform
	Config   *config.Instance
	State    *state.State
	Storage  *storage.Manager
	Store    *userdb.UserDB
}
