// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for nixenv.
//
// This package implements the Cobra command hierarchy for the nixenv CLI:
// the environment commands (enable, disable, clear, reload, select), the
// status line, the watch loop, the shell/exec/export surfaces that hand the
// collected environment to programs, and configuration management.
package cmd
