// SPDX-License-Identifier: MPL-2.0

// nixenv loads a Nix development environment into the current workspace.
package main

import cmd "github.com/nixenv/nixenv/cmd/nixenv"

func main() {
	cmd.Execute()
}
