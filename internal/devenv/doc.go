// SPDX-License-Identifier: MPL-2.0

// Package devenv decodes the JSON document printed by `nix print-dev-env --json`.
//
// The document maps variable names to tagged values:
//
//	{"variables": {"PATH": {"type": "exported", "value": "/nix/store/...-bin"}}}
//
// Only three tags are recognized. "var" and "exported" carry a string value,
// "array" carries an arbitrary value that nixenv never applies. A document
// with any entry outside this shape is rejected as a whole, since it is the
// only gate before values are written into the process environment.
package devenv
