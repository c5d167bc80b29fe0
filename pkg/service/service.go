/*
Dockhand Core
Copyright (c) 2025 The Dockhand Project Contributors.
SPDX-License-Identifier: GPL-3.0-or-later

This file is part of Dockhand Core.

Dockhand Core is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Dockhand Core is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Dockhand Core.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package service assembles and runs the Dockhand daemon: platform hooks,
// user database, storage manager, hotplug monitor, API server, mDNS
// discovery and MQTT publishers, all tied to one lifecycle context.
package service

import (
	"fmt"
	"os"

	"github.com/DockhandProject/dockhand-core/pkg/api"
	"github.com/DockhandProject/dockhand-core/pkg/api/notifications"
	"github.com/DockhandProject/dockhand-core/pkg/config"
	"github.com/DockhandProject/dockhand-core/pkg/database/userdb"
	"github.com/DockhandProject/dockhand-core/pkg/helpers"
	"github.com/DockhandProject/dockhand-core/pkg/platforms"
	"github.com/DockhandProject/dockhand-core/pkg/service/broker"
	"github.com/DockhandProject/dockhand-core/pkg/service/discovery"
	"github.com/DockhandProject/dockhand-core/pkg/service/monitor"
	"github.com/DockhandProject/dockhand-core/pkg/service/publishers"
	"github.com/DockhandProject/dockhand-core/pkg/service/state"
	"github.com/DockhandProject/dockhand-core/pkg/storage"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

func setupEnvironment(pl platforms.Platform) error {
	if _, ok := helpers.HasUserDir(); ok {
		log.Info().Msg("using 'user' directory for storage")
	}

	log.Info().Msg("creating platform directories")
	dirs := []string{
		helpers.ConfigDir(pl),
		pl.Settings().TempDir,
		helpers.DataDir(pl),
	}
	for _, dir := range dirs {
		err := os.MkdirAll(dir, 0o750)
		if err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

func makeUserDB(pl platforms.Platform) (*userdb.UserDB, error) {
	log.Debug().Msg("opening user database")
	store, err := userdb.OpenUserDB(pl)
	if err != nil {
		return nil, fmt.Errorf("failed to open user database: %w", err)
	}

	log.Debug().Msg("running user database migrations")
	err = store.MigrateUp()
	if err != nil {
		return nil, fmt.Errorf("error migrating userdb: %w", err)
	}

	return store, nil
}

// Start brings up the full service and returns a stop function that shuts
// it down. The done channel closes once cleanup has finished, which covers
// external cancellation paths that never call stop.
func Start(
	pl platforms.Platform,
	cfg *config.Instance,
) (stop func() error, done <-chan struct{}, err error) {
	log.Info().Msgf("version: %s", config.AppVersion)

	st, ns := state.NewState() // global state, notification queue (source)

	// Create and start notification broker to broadcast to all consumers
	notifBroker := broker.NewBroker(st.GetContext(), ns)
	notifBroker.Start()

	err = setupEnvironment(pl)
	if err != nil {
		log.Error().Err(err).Msg("error setting up environment")
		return nil, nil, err
	}

	log.Info().Msg("running platform pre start")
	err = pl.StartPre(cfg)
	if err != nil {
		log.Error().Err(err).Msg("platform start pre error")
		return nil, nil, fmt.Errorf("platform start pre failed: %w", err)
	}

	log.Info().Msg("opening user database")
	store, err := makeUserDB(pl)
	if err != nil {
		log.Error().Err(err).Msg("error opening user database")
		return nil, nil, err
	}

	storageMgr := storage.NewManager(pl, cfg, store)

	log.Info().Msg("starting hotplug monitor")
	startHotplugMonitor(st)

	log.Info().Msg("starting mDNS discovery service")
	discoveryService := discovery.New(cfg, pl.ID())
	if discoveryErr := discoveryService.Start(); discoveryErr != nil {
		log.Error().Err(discoveryErr).Msg("mDNS discovery failed to start (continuing without discovery)")
	}

	log.Info().Msg("starting API service")
	apiNotifications, _ := notifBroker.Subscribe(100)
	go api.Start(pl, cfg, st, storageMgr, store, apiNotifications)

	log.Info().Msg("starting publishers")
	activePublishers := startPublishers(notifBroker, cfg)

	log.Info().Msg("running platform post start")
	err = pl.StartPost(cfg)
	if err != nil {
		log.Error().Err(err).Msg("platform post start error")
		return nil, nil, fmt.Errorf("platform start post failed: %w", err)
	}
	log.Info().Msg("platform post start completed, service fully initialized")

	doneCh := make(chan struct{})
	go func() {
		<-st.GetContext().Done()
		log.Info().Msg("service context cancelled, running cleanup")

		discoveryService.Stop()
		for _, publisher := range activePublishers {
			publisher.Stop()
		}
		if stopErr := pl.Stop(); stopErr != nil {
			log.Warn().Msgf("error stopping platform: %s", stopErr)
		}
		notifBroker.Stop()
		if closeErr := store.Close(); closeErr != nil {
			log.Warn().Msgf("error closing user database: %s", closeErr)
		}

		log.Info().Msg("service cleanup completed")
		close(doneCh)
	}()

	stop = func() error {
		st.StopService()
		<-doneCh
		return nil
	}
	done = doneCh
	return stop, done, nil
}

// startHotplugMonitor wires device hotplug events to change notifications.
// The service runs without live events if no hotplug source is available;
// clients still see fresh state on every poll.
func startHotplugMonitor(st *state.State) {
	source, err := monitor.NewSource()
	if err != nil {
		log.Warn().Err(err).Msg("hotplug monitoring unavailable, change events disabled")
		return
	}

	deviceMonitor := monitor.New(source, clockwork.NewRealClock())
	go func() {
		runErr := deviceMonitor.Run(st.GetContext(), func() {
			notifications.Change(st.Notifications)
		})
		if runErr != nil {
			log.Error().Err(runErr).Msg("hotplug monitor exited")
		}
	}()
}

// startPublishers initializes and starts all configured publishers.
// Returns the active publishers so shutdown can stop them.
func startPublishers(notifBroker *broker.Broker, cfg *config.Instance) []*publishers.MQTTPublisher {
	activePublishers := make([]*publishers.MQTTPublisher, 0)

	for _, mqttCfg := range cfg.GetMQTTPublishers() {
		// Skip if explicitly disabled (nil = enabled by default)
		if mqttCfg.Enabled != nil && !*mqttCfg.Enabled {
			continue
		}

		log.Info().Msgf("starting MQTT publisher: %s (topic: %s)", mqttCfg.Broker, mqttCfg.Topic)

		// Each publisher drains its own subscription so a slow broker
		// can't starve the others of notifications.
		notifChan, subID := notifBroker.Subscribe(100)
		publisher := publishers.NewMQTTPublisher(mqttCfg.Broker, mqttCfg.Topic, mqttCfg.Filter)
		if startErr := publisher.Start(notifChan); startErr != nil {
			log.Error().Err(startErr).Msgf("failed to start MQTT publisher for %s", mqttCfg.Broker)
			notifBroker.Unsubscribe(subID)
			continue
		}

		activePublishers = append(activePublishers, publisher)
	}

	if len(activePublishers) > 0 {
		log.Info().Msgf("started %d MQTT publisher(s)", len(activePublishers))
	}

	return activePublishers
}
