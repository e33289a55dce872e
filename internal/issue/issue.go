// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	NixNotFoundId Id = iota + 1
	EvaluationFailedId
	MalformedOutputId
	NoWorkspaceId
	NoCandidatesId
	NothingToReloadId
	ConfigLoadFailedId
	SettingsLoadFailedId
	ShellNotFoundId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue with the glamour style at stylePath ("dark",
// "light", "notty", or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	nixNotFoundIssue = &Issue{
		id: NixNotFoundId,
		mdMsg: `
# nix was not found!

nixenv evaluates environment files with ` + "`nix print-dev-env`" + `, but no nix binary could be started.

## Things you can try:
- Install Nix and make sure ` + "`nix`" + ` is on your PATH
- Point nixenv at a specific binary in your config:
~~~cue
nix: binary: "/nix/var/nix/profiles/default/bin/nix"
~~~`,
		extLinks: []HttpLink{"https://nixos.org/download/"},
	}

	evaluationFailedIssue = &Issue{
		id: EvaluationFailedId,
		mdMsg: `
# nix environment evaluation finished with error

The environment file could not be evaluated. Nothing was applied; the
variables of the last successful load are kept.

## Things you can try:
- Read the nix diagnostics printed above
- Evaluate the file by hand:
~~~
$ nix --extra-experimental-features nix-command print-dev-env --impure --json -f shell.nix
~~~
- Fix the file and run:
~~~
$ nixenv reload
~~~`,
	}

	malformedOutputIssue = &Issue{
		id: MalformedOutputId,
		mdMsg: `
# nix returned output nixenv does not understand

The output of ` + "`nix print-dev-env --json`" + ` did not match the expected
` + "`{\"variables\": {...}}`" + ` shape and was rejected as a whole.

## Things you can try:
- Make sure the nix version supports ` + "`print-dev-env --json`" + `
- Check for a wrapper script around nix that writes to stdout
- Run with verbose mode for the rejected entry:
~~~
$ nixenv --verbose reload
~~~`,
	}

	noWorkspaceIssue = &Issue{
		id: NoWorkspaceId,
		mdMsg: `
# No workspace opened!

nixenv works on a single workspace folder holding your *.nix files.

## Things you can try:
- Run nixenv from inside your project
- Or name the folder explicitly:
~~~
$ nixenv --workspace /path/to/project status
~~~`,
	}

	noCandidatesIssue = &Issue{
		id: NoCandidatesId,
		mdMsg: `
# No *.nix environment file found

There are no *.nix files in the workspace root.

## Things you can try:
- Create a shell.nix:
~~~nix
{ pkgs ? import <nixpkgs> {} }:
pkgs.mkShell { packages = [ pkgs.hello ]; }
~~~
- Then run:
~~~
$ nixenv enable
~~~`,
	}

	nothingToReloadIssue = &Issue{
		id: NothingToReloadId,
		mdMsg: `
# Nothing to reload

No environment file is selected for this workspace.

## Things you can try:
- Pick one:
~~~
$ nixenv select
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The nixenv configuration file could not be loaded.

## Things you can try:
- Check the CUE syntax of your config file
- Show where nixenv looks for it:
~~~
$ nixenv config path
~~~
- Write a fresh default config:
~~~
$ nixenv config init --force
~~~`,
	}

	settingsLoadFailedIssue = &Issue{
		id: SettingsLoadFailedId,
		mdMsg: `
# Failed to load workspace settings!

The file ` + "`.nixenv/settings.toml`" + ` in your workspace could not be read.

## Things you can try:
- Check its TOML syntax; it accepts ` + "`enabled`" + ` and ` + "`environment-file`" + `
- Delete it to start over with the defaults`,
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# Shell not found!

` + "`nixenv shell`" + ` could not start your shell.

## Things you can try:
- Set the SHELL environment variable
- Run a command directly instead:
~~~
$ nixenv exec -- bash
~~~`,
	}

	issues = map[Id]*Issue{
		nixNotFoundIssue.Id():        nixNotFoundIssue,
		evaluationFailedIssue.Id():   evaluationFailedIssue,
		malformedOutputIssue.Id():    malformedOutputIssue,
		noWorkspaceIssue.Id():        noWorkspaceIssue,
		noCandidatesIssue.Id():       noCandidatesIssue,
		nothingToReloadIssue.Id():    nothingToReloadIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		settingsLoadFailedIssue.Id(): settingsLoadFailedIssue,
		shellNotFoundIssue.Id():      shellNotFoundIssue,
	}
)

// Values returns every issue ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int { return int(a.id - b.id) })
}

func Get(id Id) *Issue {
	return issues[id]
}
