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

// Package api serves the HTTP interface: the REST endpoints the web UI
// drives and the websocket push channel that tells clients when the device
// topology changed.
package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/DockhandProject/dockhand-core/pkg/api/methods"
	apiMiddleware "github.com/DockhandProject/dockhand-core/pkg/api/middleware"
	"github.com/DockhandProject/dockhand-core/pkg/api/models"
	"github.com/DockhandProject/dockhand-core/pkg/api/models/requests"
	"github.com/DockhandProject/dockhand-core/pkg/config"
	"github.com/DockhandProject/dockhand-core/pkg/database/userdb"
	"github.com/DockhandProject/dockhand-core/pkg/platforms"
	"github.com/DockhandProject/dockhand-core/pkg/service/state"
	"github.com/DockhandProject/dockhand-core/pkg/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

// allowedOrigins returns the configured CORS origins, defaulting to any
// http/https origin so the bundled UI works out of the box on a LAN.
func allowedOrigins(cfg *config.Instance) []string {
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		return origins
	}
	return []string{"https://*", "http://*"}
}

// broadcastNotifications forwards broker events to every connected push
// channel session until the service context is cancelled or the
// subscription closes.
func broadcastNotifications(
	st *state.State,
	session *melody.Melody,
	notifications <-chan models.Notification,
) {
	for {
		select {
		case <-st.GetContext().Done():
			log.Debug().Msg("stopping notification broadcaster")
			return
		case notif, ok := <-notifications:
			if !ok {
				log.Debug().Msg("notification subscription closed")
				return
			}

			data, err := json.Marshal(notif)
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification")
				continue
			}

			if err := session.Broadcast(data); err != nil {
				log.Error().Err(err).Msg("broadcasting notification")
			}
		}
	}
}

// handleWSMessage answers ping heartbeats on the push channel. Everything
// else inbound is ignored: the channel only flows server to client.
func handleWSMessage(session *melody.Session, msg []byte) {
	if bytes.Equal(msg, []byte("ping")) {
		if err := session.Write([]byte("pong")); err != nil {
			log.Error().Err(err).Msg("sending pong")
		}
		return
	}

	log.Debug().Str("msg", string(msg)).Msg("ignoring inbound message on push channel")
}

// newRouter assembles the chi router with the full middleware chain and
// every endpoint. Split from Start so tests can drive it with httptest.
func newRouter(env requests.RequestEnv, session *melody.Melody) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(middleware.Timeout(config.APIRequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(env.Config),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{},
	}))

	ipFilter := apiMiddleware.NewIPFilter(env.Config.AllowedIPs())
	r.Use(apiMiddleware.HTTPIPFilterMiddleware(ipFilter))

	rateLimiter := apiMiddleware.NewIPRateLimiter()
	rateLimiter.StartCleanup(env.State.GetContext())

	r.Get("/storage", methods.HandleStorage(env))
	r.Get("/about", methods.HandleAbout(env))
	r.Get("/history", methods.HandleHistory(env))
	r.Get("/devices/names", methods.HandleDeviceNames(env))

	r.Get("/usb-events", func(w http.ResponseWriter, r *http.Request) {
		if err := session.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})

	// mutating endpoints carry per-IP rate limiting
	r.Group(func(r chi.Router) {
		r.Use(apiMiddleware.HTTPRateLimitMiddleware(rateLimiter))
		r.Post("/mount", methods.HandleMount(env))
		r.Post("/unmount", methods.HandleUnmount(env))
		r.Post("/format", methods.HandleFormat(env))
		r.Put("/devices/name", methods.HandleSetDeviceName(env))
	})

	return r
}

// Start runs the HTTP server until it fails or the process exits. Callers
// run it in a goroutine; shutdown rides on process teardown like the rest
// of the daemon.
func Start(
	platform platforms.Platform,
	cfg *config.Instance,
	st *state.State,
	storageMgr *storage.Manager,
	store *userdb.UserDB,
	notifications <-chan models.Notification,
) {
	env := requests.RequestEnv{
		Platform: platform,
		Config:   cfg,
		State:    st,
		Storage:  storageMgr,
		Store:    store,
	}

	session := melody.New()
	session.Upgrader.CheckOrigin = func(_ *http.Request) bool { return true }
	session.HandleMessage(handleWSMessage)
	go broadcastNotifications(st, session, notifications)

	r := newRouter(env, session)

	log.Info().Str("addr", cfg.APIListen()).Msg("starting API server")
	if err := http.ListenAndServe(cfg.APIListen(), r); err != nil {
		log.Error().Err(err).Msg("error starting http server")
	}
}
