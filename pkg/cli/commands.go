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

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/DockhandProject/dockhand-core/pkg/api/client"
	"github.com/DockhandProject/dockhand-core/pkg/api/models"
	"github.com/jonboulle/clockwork"
	"golang.org/x/term"
)

// maxPasswordAttempts bounds the interactive retry loop for operations that
// need a privilege password.
const maxPasswordAttempts = 3

// stdin is swapped out by tests that drive confirmation prompts.
var stdin io.Reader = os.Stdin

// promptPassword asks for the privilege password on the terminal without
// echoing it. When stdin isn't a terminal it falls back to reading a line,
// which keeps piped invocations working.
func promptPassword() (string, error) {
	_, _ = fmt.Fprint(os.Stderr, "Password: ")

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(password), nil
	}

	reader := bufio.NewReader(stdin)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// withPrivileges runs an operation through the privilege protocol: first
// without a password, then prompting and retrying while the service rejects
// what was entered.
func withPrivileges(run func(password string) error, prompt func() (string, error)) error {
	err := run("")
	if !errors.Is(err, client.ErrAuthRequired) {
		return err
	}

	for range maxPasswordAttempts {
		password, promptErr := prompt()
		if promptErr != nil {
			return promptErr
		}

		err = run(password)
		if errors.Is(err, client.ErrAuthFailed) {
			_, _ = fmt.Fprintln(os.Stderr, "Incorrect password, try again.")
			continue
		}
		return err
	}

	return client.ErrAuthFailed
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func handleStorage(ctx context.Context, c *client.Client, out io.Writer) error {
	snapshot, err := c.Storage(ctx)
	if err != nil {
		return err
	}

	if root := snapshot.RootStorage; root != nil {
		_, _ = fmt.Fprintf(out, "Root filesystem: %s used / %s (%d%%), %s available\n\n",
			root.UsedHuman, root.TotalHuman, root.UsedPercent, root.AvailHuman)
	} else {
		_, _ = fmt.Fprint(out, "Root filesystem: unavailable\n\n")
	}

	if len(snapshot.Removable) == 0 {
		_, _ = fmt.Fprintln(out, "No removable devices found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DEVICE\tSIZE\tTYPE\tFS\tLABEL\tNAME\tMOUNTED AT")
	for _, dev := range snapshot.Removable {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			dev.Name,
			dev.SizeHuman,
			dev.DeviceType,
			orDash(dev.FSType),
			orDash(dev.Label),
			orDash(dev.DisplayName),
			orDash(dev.Mountpoint),
		)
	}
	return w.Flush() //nolint:wrapcheck // direct write error needs no context
}

func handleMount(
	ctx context.Context,
	c *client.Client,
	out io.Writer,
	device string,
	prompt func() (string, error),
) error {
	var resp *models.MountResponse
	err := withPrivileges(func(password string) error {
		var mountErr error
		resp, mountErr = c.Mount(ctx, device, password)
		return mountErr
	}, prompt)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Mounted %s at %s\n", device, resp.Mountpoint)
	return nil
}

func handleUnmount(
	ctx context.Context,
	c *client.Client,
	out io.Writer,
	device string,
	prompt func() (string, error),
) error {
	err := withPrivileges(func(password string) error {
		return c.Unmount(ctx, device, password)
	}, prompt)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Unmounted %s\n", device)
	return nil
}

type formatArgs struct {
	device  string
	fsType  string
	label   string
	confirm bool
}

func handleFormat(
	ctx context.Context,
	c *client.Client,
	out io.Writer,
	args formatArgs,
	prompt func() (string, error),
) error {
	if args.confirm {
		_, _ = fmt.Fprintf(out, "This will erase all data on %s. Continue? [y/N] ", args.device)
		reader := bufio.NewReader(stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			_, _ = fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	err := withPrivileges(func(password string) error {
		return c.Format(ctx, args.device, args.fsType, args.label, password)
	}, prompt)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Formatted %s as %s\n", args.device, args.fsType)
	return nil
}

func handleSetName(ctx context.Context, c *client.Client, out io.Writer, uuid, name string) error {
	if err := c.SetDeviceName(ctx, uuid, name); err != nil {
		return err
	}

	if name == "" {
		_, _ = fmt.Fprintf(out, "Cleared name for %s\n", uuid)
	} else {
		_, _ = fmt.Fprintf(out, "Named %s %q\n", uuid, name)
	}
	return nil
}

func handleHistory(ctx context.Context, c *client.Client, out io.Writer, limit int) error {
	history, err := c.History(ctx, limit)
	if err != nil {
		return err
	}

	if len(history.Operations) == 0 {
		_, _ = fmt.Fprintln(out, "No operations recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIME\tACTION\tDEVICE\tRESULT\tDETAIL")
	for _, op := range history.Operations {
		result := "ok"
		if !op.Success {
			result = "failed"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			op.CreatedAt.Local().Format(time.DateTime),
			op.Action,
			op.Device,
			result,
			orDash(op.Detail),
		)
	}
	return w.Flush() //nolint:wrapcheck // direct write error needs no context
}

func handleAbout(ctx context.Context, c *client.Client, out io.Writer) error {
	about, err := c.About(ctx)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "%s v%s (%s)\n", about.App, about.Version, about.Platform)
	_, _ = fmt.Fprintf(out, "Device ID: %s\n", about.DeviceID)
	_, _ = fmt.Fprintf(out, "Filesystems: %s\n", strings.Join(about.SupportedFilesystems, ", "))
	_, _ = fmt.Fprintf(out, "Service uptime: %s\n",
		(time.Duration(about.UptimeSeconds) * time.Second).String())
	_, _ = fmt.Fprintf(out, "System uptime: %s\n",
		(time.Duration(about.SystemUptimeSeconds) * time.Second).String())
	return nil
}

func handleWatch(c *client.Client, out io.Writer) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_, _ = fmt.Fprintln(out, "Watching for storage events (Ctrl-C to stop)...")

	watcher := client.NewWatcher(c, clockwork.NewRealClock())
	err := watcher.Watch(ctx, func(notif models.Notification) {
		_, _ = fmt.Fprintf(out, "%s %s\n", time.Now().Format(time.RFC3339), notif.Type)
	})
	if ctx.Err() != nil {
		// Stopped by the user, not a failure.
		return nil
	}
	return err
}
