// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Command tastectl runs Tastegraph maintenance operations in process against
// the configured database and collaborators: sweeps, single-user refreshes,
// expiry cleanup, compatibility checks, configuration validation and
// synthetic fixture generation.
//
//	tastectl sweep --full
//	tastectl refresh 42
//	tastectl compat 42 97 --output json
//	tastectl fixture generate --users 200 --out fixture.json
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
