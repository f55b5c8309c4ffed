// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

// Package xdg resolves XDG Base Directory paths for StoryTable.
package xdg

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

const appName = "storytable"

// ConfigDir returns the XDG config directory for storytable.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns the path of the default config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ExistingConfigFile returns ConfigFile when it exists, or "".
func ExistingConfigFile() (string, error) {
	path := ConfigFile()
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	case err != nil:
		return "", err
	case info.IsDir():
		return "", nil
	}
	return path, nil
}
