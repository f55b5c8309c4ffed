// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Error codes returned by this package.
const (
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeInvalidUsername    = "AUTH_INVALID_USERNAME"
	CodeInvalidEmail       = "AUTH_INVALID_EMAIL"
	CodeInvalidPassword    = "AUTH_INVALID_PASSWORD"
	CodeUsernameTaken      = "AUTH_USERNAME_TAKEN"
	CodeEmailTaken         = "AUTH_EMAIL_TAKEN"
	CodeUnknownRole        = "AUTH_UNKNOWN_ROLE"
	CodeUserNotFound       = "AUTH_USER_NOT_FOUND"
)
