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
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// volume label length limits per filesystem
var labelMaxLen = map[string]int{
	"vfat":  11,
	"exfat": 15,
	"ext4":  16,
	"ntfs":  32,
}

// accentFold decomposes characters and strips combining marks, so "Crémant"
// becomes "Cremant" before the charset screen.
var accentFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeLabel reduces a requested volume label to what the target
// filesystem's mkfs tool reliably accepts: accent-folded ASCII letters,
// digits, space, dash and underscore, truncated to the filesystem's limit.
// vfat labels are additionally uppercased. An empty result means no label.
func SanitizeLabel(fsType, label string) string {
	folded, _, err := transform.String(accentFold, label)
	if err != nil {
		folded = label
	}

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}

	clean := strings.TrimSpace(b.String())
	if maxLen, ok := labelMaxLen[fsType]; ok && len(clean) > maxLen {
		clean = strings.TrimSpace(clean[:maxLen])
	}
	if fsType == "vfat" {
		clean = strings.ToUpper(clean)
	}
	return clean
}
