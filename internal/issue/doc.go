// SPDX-License-Identifier: MPL-2.0

// Package issue holds the user-facing side of nixenv errors: ActionableError
// for one-line messages with suggestions, and a catalog of Markdown guides
// (nix missing, evaluation failures, broken settings) rendered with glamour.
package issue
