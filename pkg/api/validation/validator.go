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

// Package validation provides validation for API request payloads using
// go-playground/validator with custom validators for device identifiers.
package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Common validation errors.
var (
	ErrMissingParams = errors.New("missing params")
	ErrInvalidParams = errors.New("invalid params")
)

// devNamePattern matches bare block device node names (sdb, nvme0n1p1,
// mmcblk0). No path separators: device paths are always built server-side.
var devNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// fsNamePattern matches filesystem type names passed to mkfs (vfat, exfat,
// ext4, ntfs).
var fsNamePattern = regexp.MustCompile(`^[a-z0-9.]+$`)

// Validator handles validation of API payloads.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new Validator with registered custom validators.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Register custom validators for types that can't use built-ins
	_ = v.RegisterValidation("devname", validateDevName)
	_ = v.RegisterValidation("fsname", validateFSName)

	return &Validator{validate: v}
}

// DefaultValidator is a shared validator instance for API use.
var DefaultValidator = NewValidator()

// Validate validates a struct and returns a formatted error if validation fails.
func (v *Validator) Validate(payload any) error {
	if err := v.validate.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewError(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// validateDevName checks a bare device node name with no path components.
// Empty values are left for the required tag to reject.
func validateDevName(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	if val == "." || val == ".." {
		return false
	}
	return devNamePattern.MatchString(val)
}

// validateFSName checks a filesystem type name.
func validateFSName(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return fsNamePattern.MatchString(val)
}
