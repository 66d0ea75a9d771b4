// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

//go:build !windows

package config

import (
	"io/fs"
	"log/slog"
	"os"
)

// WarnInsecurePermissions checks whether the config file is group- or
// world-readable and logs a warning if so. Best-effort: it never fails
// startup, it only alerts the operator that API keys may be exposed to
// other users on the system.
func WarnInsecurePermissions(path string) {
	if path == "" {
		// Defaults only, no file to check.
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		slog.Debug("could not stat config file for permission check", "path", path, "error", err)
		return
	}

	mode := info.Mode()
	perm := mode.Perm()

	const groupRead fs.FileMode = 0o040
	const otherRead fs.FileMode = 0o004

	if perm&(groupRead|otherRead) != 0 {
		slog.Warn(
			"config file has insecure permissions, API keys may be exposed to other users",
			"path", path,
			"mode", mode,
			"recommended", "0600",
		)
	}
}
