// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads configuration for the boxoffice server.
//
// Configuration comes from a single file named by the --config flag or
// the BOXOFFICE_CONFIG environment variable. YAML is the primary
// format; files ending in .jsonc are read as JSON with comments and
// trailing commas. With no file at all the server runs on [Default],
// which listens on localhost:9999 with an SQLite store in cinema.db.
//
// A file may carry development, staging, and production sections.
// The section matching the top-level environment key is decoded over
// the base values, so it only needs the keys that differ.
//
// String values may reference the process environment with ${VAR} or
// ${VAR:-default}. Before expansion, a .env file next to the config
// file and one in the working directory are loaded with godotenv.
// Variables already set in the environment win over .env entries.
//
// Durations are written as Go duration strings ("30s", "5m").
package config
