// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package config loads and merges the vault application configuration from
// command-line flags, environment variables, and an optional JSON file.
//
// The main entry point is [GetStructuredConfig], which applies the sources
// in priority order (flags, then env, then JSON), validates the merged
// result and fills in defaults for unset sync tunables.
package config
