//go:build linux

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

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/DockhandProject/dockhand-core/internal/telemetry"
	"github.com/DockhandProject/dockhand-core/pkg/cli"
	"github.com/DockhandProject/dockhand-core/pkg/config"
	"github.com/DockhandProject/dockhand-core/pkg/platforms/linux"
	"github.com/DockhandProject/dockhand-core/pkg/service"
	"github.com/DockhandProject/dockhand-core/pkg/service/daemon"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	apiStartTimeout  = 10 * time.Second
	apiCheckInterval = 500 * time.Millisecond
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	defer telemetry.Close()
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %v\n%s\n", r, stack)
			log.Error().
				Interface("panic", r).
				Bytes("stack", stack).
				Msg("recovered from panic")
			telemetry.Flush()
			os.Exit(1)
		}
	}()

	pl := linux.NewPlatform()
	flags := cli.SetupFlags()

	serviceFlag := flag.String(
		"service",
		"",
		"manage the Dockhand service (start|stop|restart|status)",
	)
	daemonMode := flag.Bool(
		"daemon",
		false,
		"run the service in the foreground",
	)

	flags.Pre(pl)

	logWriters := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr}}
	if *daemonMode || *serviceFlag == "exec" {
		// structured output for journald and friends
		logWriters = []io.Writer{os.Stderr}
	}

	cfg := cli.Setup(
		pl,
		config.BaseDefaults,
		logWriters,
	)

	svc, err := daemon.NewService(daemon.ServiceArgs{
		Entry: func() (func() error, <-chan struct{}, error) {
			return service.Start(pl, cfg)
		},
		Platform: pl,
	})
	if err != nil {
		log.Error().Err(err).Msg("error creating service")
		return fmt.Errorf("error creating service: %w", err)
	}

	if *daemonMode {
		execCmd := "exec"
		serviceFlag = &execCmd
	}

	err = svc.ServiceHandler(serviceFlag)
	if err != nil {
		return err
	}

	flags.Post(cfg, pl)

	// no command given: make sure the daemon is up
	if svc.Running() {
		_, _ = fmt.Println("Dockhand service is running.")
		return nil
	}

	if startErr := svc.Start(); startErr != nil {
		log.Error().Err(startErr).Msg("could not start service")
		return fmt.Errorf("could not start service: %w", startErr)
	}
	if waitErr := svc.WaitForAPI(cfg, apiStartTimeout, apiCheckInterval); waitErr != nil {
		return fmt.Errorf("service started but API is not ready: %w", waitErr)
	}

	_, _ = fmt.Println("Dockhand service started.")
	return nil
}
