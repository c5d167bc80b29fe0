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

//go:build linux

package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

const (
	udisks2Service        = "org.freedesktop.UDisks2"
	udisks2Path           = "/org/freedesktop/UDisks2"
	udisks2BlockInterface = "org.freedesktop.UDisks2.Block"
	dbusObjectManager     = "org.freedesktop.DBus.ObjectManager"

	// loop devices appear and disappear constantly on systems using snaps
	// and are never removable media
	loopDevicePrefix = "/org/freedesktop/UDisks2/block_devices/loop"
)

// NewSource picks the best hotplug source for this host: UDisks2 over the
// system bus when available, otherwise a /dev and mount table watcher for
// minimal systems without it.
func NewSource() (Source, error) {
	if isDBusAvailable() {
		log.Debug().Msg("using UDisks2 for hotplug detection")
		return newUDisksSource(), nil
	}

	log.Debug().Msg("D-Bus unavailable, watching /dev for hotplug")
	return newDevWatchSource(), nil
}

// isDBusAvailable quickly checks whether the system bus is reachable and
// UDisks2 is registered on it.
func isDBusAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	done := make(chan bool, 1)
	go func() {
		// A private connection can be closed without affecting the shared
		// one Start uses later.
		conn, err := dbus.SystemBusPrivate()
		if err != nil {
			done <- false
			return
		}
		defer func() { _ = conn.Close() }()

		// Auth must be called after SystemBusPrivate
		if err := conn.Auth(nil); err != nil {
			done <- false
			return
		}

		// Hello must be called after Auth to complete the connection setup
		if err := conn.Hello(); err != nil {
			done <- false
			return
		}

		obj := conn.Object("org.freedesktop.DBus", "/org/freedesktop/DBus")
		call := obj.CallWithContext(ctx, "org.freedesktop.DBus.ListNames", 0)
		if call.Err != nil {
			done <- false
			return
		}

		var names []string
		if err := call.Store(&names); err != nil {
			done <- false
			return
		}

		for _, name := range names {
			if name == udisks2Service {
				done <- true
				return
			}
		}
		done <- false
	}()

	select {
	case available := <-done:
		return available
	case <-ctx.Done():
		return false
	}
}

// udisksSource subscribes to UDisks2 object lifecycle signals. Every block
// device added or removed on the bus becomes one raw signal.
type udisksSource struct {
	conn     *dbus.Conn
	events   chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func newUDisksSource() *udisksSource {
	return &udisksSource{
		events:   make(chan struct{}, 10),
		stopChan: make(chan struct{}),
	}
}

func (s *udisksSource) Events() <-chan struct{} {
	return s.events
}

func (s *udisksSource) Start() error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("failed to connect to system D-Bus: %w", err)
	}
	s.conn = conn

	if err := s.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(udisks2Path),
		dbus.WithMatchInterface(dbusObjectManager),
		dbus.WithMatchMember("InterfacesAdded"),
	); err != nil {
		_ = s.conn.Close()
		return fmt.Errorf("failed to add match for InterfacesAdded: %w", err)
	}

	if err := s.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(udisks2Path),
		dbus.WithMatchInterface(dbusObjectManager),
		dbus.WithMatchMember("InterfacesRemoved"),
	); err != nil {
		_ = s.conn.Close()
		return fmt.Errorf("failed to add match for InterfacesRemoved: %w", err)
	}

	signalChan := make(chan *dbus.Signal, 10)
	s.conn.Signal(signalChan)

	s.wg.Add(1)
	go s.listen(signalChan)

	return nil
}

func (s *udisksSource) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
		if s.conn != nil {
			_ = s.conn.Close()
		}
		close(s.events)
	})
}

func (s *udisksSource) listen(signalChan chan *dbus.Signal) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopChan:
			return
		case signal := <-signalChan:
			if signal == nil {
				return
			}
			if !isBlockDeviceSignal(signal) {
				continue
			}

			select {
			case s.events <- struct{}{}:
				log.Debug().Str("signal", signal.Name).Msg("block device hotplug signal")
			case <-s.stopChan:
				return
			}
		}
	}
}

// isBlockDeviceSignal recognizes UDisks2 lifecycle signals for real block
// devices, skipping loop devices and anything flagged HintIgnore.
func isBlockDeviceSignal(signal *dbus.Signal) bool {
	if len(signal.Body) < 2 {
		return false
	}

	objectPath, ok := signal.Body[0].(dbus.ObjectPath)
	if !ok {
		return false
	}
	if strings.HasPrefix(string(objectPath), loopDevicePrefix) {
		return false
	}

	switch signal.Name {
	case dbusObjectManager + ".InterfacesAdded":
		interfaces, ok := signal.Body[1].(map[string]map[string]dbus.Variant)
		if !ok {
			return false
		}
		blockProps, hasBlock := interfaces[udisks2BlockInterface]
		if !hasBlock {
			return false
		}
		if hintIgnore, ok := blockProps["HintIgnore"]; ok {
			if ignore, ok := hintIgnore.Value().(bool); ok && ignore {
				return false
			}
		}
		return true

	case dbusObjectManager + ".InterfacesRemoved":
		interfaces, ok := signal.Body[1].([]string)
		if !ok {
			return false
		}
		for _, iface := range interfaces {
			if iface == udisks2BlockInterface {
				return true
			}
		}
		return false

	default:
		return false
	}
}

// blockNodePattern matches the /dev names removable media shows up as:
// whole disks and partitions for sd, mmcblk and nvme devices.
var blockNodePattern = regexp.MustCompile(`^(sd[a-z]+\d*|mmcblk\d+(p\d+)?|nvme\d+n\d+(p\d+)?)$`)

func isBlockNodeName(name string) bool {
	return blockNodePattern.MatchString(name)
}

// devWatchSource watches /dev for block node create/remove and polls the
// mount table for edits. It covers hosts without UDisks2.
type devWatchSource struct {
	watcher    *fsnotify.Watcher
	mountsFile *os.File
	events     chan struct{}
	stopChan   chan struct{}
	wg         sync.WaitGroup
	stopOnce   sync.Once
}

func newDevWatchSource() *devWatchSource {
	return &devWatchSource{
		events:   make(chan struct{}, 10),
		stopChan: make(chan struct{}),
	}
}

func (s *devWatchSource) Events() <-chan struct{} {
	return s.events
}

func (s *devWatchSource) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create /dev watcher: %w", err)
	}
	if err := watcher.Add("/dev"); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch /dev: %w", err)
	}
	s.watcher = watcher

	mounts, err := os.Open("/proc/self/mounts")
	if err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to open mount table: %w", err)
	}
	s.mountsFile = mounts

	log.Debug().Msg("watching /dev and the mount table for hotplug")

	s.wg.Add(2)
	go s.watchDevNodes()
	go s.pollMountTable()

	return nil
}

func (s *devWatchSource) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		// Closing the watcher unblocks watchDevNodes; pollMountTable exits
		// on its next poll timeout. The mounts file must outlive both.
		if s.watcher != nil {
			_ = s.watcher.Close()
		}
		s.wg.Wait()
		if s.mountsFile != nil {
			_ = s.mountsFile.Close()
		}
		close(s.events)
	})
}

func (s *devWatchSource) watchDevNodes() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopChan:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Remove) {
				continue
			}
			if !isBlockNodeName(filepath.Base(event.Name)) {
				continue
			}
			s.emit()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("/dev watch error")
		}
	}
}

func (s *devWatchSource) pollMountTable() {
	defer s.wg.Done()

	pollFds := []unix.PollFd{
		{
			Fd:     int32(s.mountsFile.Fd()),
			Events: unix.POLLPRI | unix.POLLERR,
		},
	}

	for {
		select {
		case <-s.stopChan:
			return
		default:
		}

		// 1 second timeout so stopChan is checked periodically
		n, err := unix.Poll(pollFds, 1000)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			log.Warn().Err(err).Msg("poll() on mount table failed")
			return
		}

		select {
		case <-s.stopChan:
			return
		default:
		}

		if n > 0 && pollFds[0].Revents&(unix.POLLPRI|unix.POLLERR) != 0 {
			// Reading the table rearms the poll; without it the same edit
			// fires forever.
			if _, err := s.mountsFile.Seek(0, io.SeekStart); err == nil {
				_, _ = io.Copy(io.Discard, s.mountsFile)
			}
			s.emit()
		}
	}
}

func (s *devWatchSource) emit() {
	select {
	case s.events <- struct{}{}:
	case <-s.stopChan:
	}
}
