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

package storage

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// binary (1024-based) multipliers, the units lsblk and friends report in
var sizeSuffixes = map[byte]uint64{
	'K': 1 << 10,
	'M': 1 << 20,
	'G': 1 << 30,
	'T': 1 << 40,
	'P': 1 << 50,
}

// ParseSize converts a size field from the topology query into bytes. Byte
// counts pass through unchanged; suffixed values ("14.5G", "512M", "1.8T")
// convert with binary multipliers. Empty input is zero, not an error.
func ParseSize(value string) (uint64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}

	if bytes, err := strconv.ParseUint(value, 10, 64); err == nil {
		return bytes, nil
	}

	suffixed := strings.ToUpper(value)
	suffixed = strings.TrimSuffix(strings.TrimSuffix(suffixed, "B"), "I")
	if len(suffixed) < 2 {
		return 0, fmt.Errorf("unparseable size value: %q", value)
	}

	last := suffixed[len(suffixed)-1]
	if last >= '0' && last <= '9' {
		// a bare "1024B" style value, no unit suffix
		bytes, err := strconv.ParseUint(suffixed, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("unparseable size value: %q", value)
		}
		return bytes, nil
	}

	multiplier, ok := sizeSuffixes[last]
	if !ok {
		return 0, fmt.Errorf("unknown size suffix in %q", value)
	}

	number, err := strconv.ParseFloat(strings.TrimSpace(suffixed[:len(suffixed)-1]), 64)
	if err != nil || number < 0 {
		return 0, fmt.Errorf("unparseable size value: %q", value)
	}

	return uint64(math.Round(number * float64(multiplier))), nil
}

// HumanSize renders a byte count the way lsblk does: the largest binary unit
// that keeps the value above one, with a single decimal when it matters.
func HumanSize(bytes uint64) string {
	if bytes < 1024 {
		return strconv.FormatUint(bytes, 10) + "B"
	}

	suffixes := []string{"K", "M", "G", "T", "P"}
	value := float64(bytes)
	suffix := ""
	for _, s := range suffixes {
		value /= 1024
		suffix = s
		if value < 1024 {
			break
		}
	}

	rendered := strconv.FormatFloat(value, 'f', 1, 64)
	rendered = strings.TrimSuffix(rendered, ".0")
	return rendered + suffix
}
