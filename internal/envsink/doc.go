// SPDX-License-Identifier: MPL-2.0

// Package envsink holds the two places evaluated variables are written to.
//
// A Sink is the environment of the running session, normally the process
// environment. A Collection is the persistent record of applied variables that
// shells and commands spawned later (nixenv shell, nixenv exec, nixenv export)
// inherit, even when they start in a different process.
package envsink
