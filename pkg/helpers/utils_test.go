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

package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContains(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		xs       []string
		x        string
		expected bool
	}{
		{
			name:     "value present",
			xs:       []string{"sda", "sdb", "sdc"},
			x:        "sdb",
			expected: true,
		},
		{
			name:     "value absent",
			xs:       []string{"sda", "sdb"},
			x:        "sdz",
			expected: false,
		},
		{
			name:     "empty slice",
			xs:       []string{},
			x:        "sda",
			expected: false,
		},
		{
			name:     "nil slice",
			xs:       nil,
			x:        "sda",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, Contains(tt.xs, tt.x))
		})
	}
}

func TestMapKeys(t *testing.T) {
	t.Parallel()

	m := map[string]int{"a": 1, "b": 2, "c": 3}
	keys := MapKeys(m)

	assert.Len(t, keys, 3)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, keys)
}

func TestAlphaMapKeys(t *testing.T) {
	t.Parallel()

	m := map[string]int{"ntfs": 1, "exfat": 2, "vfat": 3, "ext4": 4}
	keys := AlphaMapKeys(m)

	assert.Equal(t, []string{"exfat", "ext4", "ntfs", "vfat"}, keys)
}
