// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the settle command line.
//
// # Commands
//
//   - serve: run the HTTP API until SIGINT/SIGTERM
//   - generate: run one plan generation and print or save it
//   - progress: show per-week progress for a saved plan
//   - schema: print the RelocationPlan JSON schema
//   - config init|show|path: manage the configuration file
//   - doctor: check configuration and completion service reachability
//   - version: print the version
//
// Every command except schema, version, doctor, config init and config path
// loads the configuration (--config or ~/.settlesmart/config.toml plus
// environment overrides) and builds a zap logger before running. Colors
// follow NO_COLOR, FORCE_COLOR and TTY detection.
package cli
