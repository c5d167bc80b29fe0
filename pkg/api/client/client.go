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

// Package client drives a running Dockhand service over its REST API. It
// backs the command line client mode and is usable by any Go program that
// wants to script the service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/DockhandProject/dockhand-core/pkg/api/models"
	"github.com/DockhandProject/dockhand-core/pkg/config"
	"github.com/DockhandProject/dockhand-core/pkg/shared/httpclient"
	"github.com/rs/zerolog/log"
)

var (
	// ErrAuthRequired means the service wants a privilege password for this
	// operation. Callers prompt for one and retry with it filled in.
	ErrAuthRequired = errors.New("authentication required")
	// ErrAuthFailed means the supplied password was rejected.
	ErrAuthFailed = errors.New("authentication failed")
)

// Client is a REST client bound to one service instance.
type Client struct {
	http    *httpclient.Client
	baseURL string
}

// New returns a client for the service at baseURL, e.g.
// "http://localhost:7497".
func New(baseURL string) *Client {
	return &Client{
		http:    httpclient.NewClientWithTimeout(config.APIRequestTimeout),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// NewLocal returns a client for the service on this machine, on the
// configured API port.
func NewLocal(cfg *config.Instance) *Client {
	return New("http://localhost:" + strconv.Itoa(cfg.APIPort()))
}

// Storage fetches the current storage snapshot.
func (c *Client) Storage(ctx context.Context) (*models.StorageResponse, error) {
	var snapshot models.StorageResponse
	if err := c.get(ctx, "/storage", &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// About fetches the service identity and uptime counters.
func (c *Client) About(ctx context.Context) (*models.AboutResponse, error) {
	var about models.AboutResponse
	if err := c.get(ctx, "/about", &about); err != nil {
		return nil, err
	}
	return &about, nil
}

// History fetches recent operation outcomes, newest first. limit <= 0 uses
// the server default.
func (c *Client) History(ctx context.Context, limit int) (*models.HistoryResponse, error) {
	path := "/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var history models.HistoryResponse
	if err := c.get(ctx, path, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

// DeviceNames fetches every stored display name.
func (c *Client) DeviceNames(ctx context.Context) (*models.DeviceNamesResponse, error) {
	var names models.DeviceNamesResponse
	if err := c.get(ctx, "/devices/names", &names); err != nil {
		return nil, err
	}
	return &names, nil
}

// Mount mounts a device and returns its mountpoint. password may be empty
// on the first round; retry with one after ErrAuthRequired.
func (c *Client) Mount(ctx context.Context, device, password string) (*models.MountResponse, error) {
	req := models.MountRequest{Device: device, Password: password}
	var resp models.MountResponse
	if err := c.post(ctx, "/mount", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Unmount unmounts a device's filesystem.
func (c *Client) Unmount(ctx context.Context, device, password string) error {
	req := models.MountRequest{Device: device, Password: password}
	return c.post(ctx, "/unmount", req, nil)
}

// Format wipes a device with a new filesystem. label may be empty.
func (c *Client) Format(ctx context.Context, device, filesystem, label, password string) error {
	req := models.FormatRequest{
		Device:     device,
		Filesystem: filesystem,
		Label:      label,
		Password:   password,
	}
	return c.post(ctx, "/format", req, nil)
}

// SetDeviceName stores a display name for a filesystem UUID. An empty name
// clears the stored entry.
func (c *Client) SetDeviceName(ctx context.Context, uuid, name string) error {
	req := models.DeviceNameRequest{UUID: uuid, Name: name}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	resp, err := c.http.Put(ctx, c.baseURL+"/devices/name", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("requesting /devices/name: %w", err)
	}
	defer closeBody(resp)

	return decodeResponse(resp, nil)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	resp, err := c.http.Get(ctx, c.baseURL+path)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer closeBody(resp)

	return decodeResponse(resp, dest)
}

func (c *Client) post(ctx context.Context, path string, payload, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	resp, err := c.http.Post(ctx, c.baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer closeBody(resp)

	return decodeResponse(resp, dest)
}

// decodeResponse fills dest from a success body and turns error bodies into
// errors. The two 401 rounds of the privilege protocol surface as
// ErrAuthRequired and ErrAuthFailed so callers can run the password prompt.
func decodeResponse(resp *http.Response, dest any) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		if dest == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	}

	var apiErr models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		return fmt.Errorf("service answered %s", resp.Status)
	}

	if apiErr.RequiresAuth {
		if apiErr.Error != "" {
			return ErrAuthFailed
		}
		return ErrAuthRequired
	}

	if apiErr.Error != "" {
		return fmt.Errorf("service answered %s: %s", resp.Status, apiErr.Error)
	}
	return fmt.Errorf("service answered %s", resp.Status)
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		log.Warn().Err(err).Msg("closing response body")
	}
}
