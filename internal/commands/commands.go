// SPDX-License-Identifier: MPL-2.0

// Package commands implements the user-invocable nixenv commands on top of
// the loader, the candidate finder and the host capabilities.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/nixenv/nixenv/internal/candidate"
	"github.com/nixenv/nixenv/internal/envsink"
	"github.com/nixenv/nixenv/internal/host"
	"github.com/nixenv/nixenv/internal/state"
	"github.com/nixenv/nixenv/internal/workspace"

	"github.com/charmbracelet/log"
)

// Command identifiers accepted by Dispatch.
const (
	Enable                = "nixenv.enable"
	Disable               = "nixenv.disable"
	Clear                 = "nixenv.clear"
	Reload                = "nixenv.reload"
	SelectEnvironmentFile = state.SelectEnvironmentFileCommand
)

// Prompt labels.
const (
	answerYes        = "Yes"
	answerSelectFile = "Select other file"
	answerNo         = "No"
	labelClear       = "Clear"
	labelDisable     = "Disable"
	descReload       = "reload"
	selectTitle      = "Select *.nix file to use as environment file"
)

var (
	// ErrNothingToReload is returned by Reload when no environment file is
	// selected or no workspace is open.
	ErrNothingToReload = errors.New("no nix environment file selected to reload")

	// ErrUnknownCommand is returned by Dispatch for unknown identifiers.
	ErrUnknownCommand = errors.New("unknown command")
)

type (
	// Loader loads an environment file into the state.
	Loader interface {
		Load(ctx context.Context, st *state.State, filePath string, fromActivation bool) error
	}

	// Handlers runs the commands against one workspace.
	Handlers struct {
		State      *state.State
		Loader     Loader
		Finder     *candidate.Finder
		Workspace  *workspace.Folder
		Collection envsink.Collection
		UI         *host.UI
		Logger     *log.Logger
	}
)

// Dispatch runs the command with the given identifier.
func (h *Handlers) Dispatch(ctx context.Context, name string) error {
	switch name {
	case Enable:
		return h.Enable(ctx, false)
	case Disable:
		return h.Disable(ctx)
	case Clear:
		return h.Clear(ctx)
	case Reload:
		return h.Reload(ctx)
	case SelectEnvironmentFile:
		return h.SelectEnvironmentFile(ctx)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
}

// Activate runs at startup. A workspace that was disabled stays hidden;
// otherwise it is enabled without asking for a restart.
func (h *Handlers) Activate(ctx context.Context) error {
	if !h.State.Enabled() {
		h.logger().Info("extension disabled for this workspace")
		h.UI.RefreshStatus()
		return nil
	}
	return h.Enable(ctx, true)
}

// Enable enables nixenv and loads the configured environment file, or
// suggests the best candidate when none is usable.
func (h *Handlers) Enable(ctx context.Context, fromActivation bool) error {
	logger := h.logger()
	logger.Info("enabling extension")
	h.persist(h.State.SetEnabled(true))
	logger.Info("searching for nix environment file...")

	if path, ok := h.configuredFile(); ok {
		logger.Info(fmt.Sprintf("found %s in configs", path))
		return h.Loader.Load(ctx, h.State, path, fromActivation)
	}
	return h.suggestEnvironmentFile(ctx)
}

// Disable hides the status item and clears the persistent collection.
func (h *Handlers) Disable(ctx context.Context) error {
	h.logger().Info("disabling extension")
	h.persist(h.State.SetEnabled(false))
	pending := h.State.Applied() || h.State.PendingWindowReload()
	h.State.SetPendingWindowReload(pending)
	err := h.clearCollection()
	h.UI.RefreshStatus()

	if pending {
		h.UI.SuggestReload(ctx, false)
	}
	return err
}

// Clear unsets the environment file and clears the persistent collection.
func (h *Handlers) Clear(ctx context.Context) error {
	h.logger().Info("clearing environment")
	pending := h.State.Applied() || h.State.PendingWindowReload()
	h.State.SetPendingWindowReload(pending)
	h.persist(h.State.SetEnvironmentFile(""))
	err := h.clearCollection()
	h.UI.RefreshStatus()

	if pending {
		h.UI.SuggestReload(ctx, false)
	}
	return err
}

// Reload re-evaluates the configured environment file.
func (h *Handlers) Reload(ctx context.Context) error {
	h.logger().Info("reloading environment")
	file := h.State.EnvironmentFile()
	if file == "" || h.Workspace == nil {
		h.logger().Warn(ErrNothingToReload.Error())
		if _, err := h.UI.Prompter.Message(ctx, host.SeverityInfo, "There is no nix environment file to reload", nil); err != nil {
			h.logger().Warn("cannot show message", "err", err)
		}
		return ErrNothingToReload
	}
	return h.Loader.Load(ctx, h.State, h.Workspace.Abs(file), false)
}

// SelectEnvironmentFile lets the user pick an environment file, or clear or
// disable the environment.
func (h *Handlers) SelectEnvironmentFile(ctx context.Context) error {
	logger := h.logger()
	logger.Info("showing environment select quick pick")
	h.persist(h.State.SetEnabled(true))
	h.UI.RefreshStatus()

	cands, ok := h.Finder.FindAll(h.Workspace)
	if !ok {
		logger.Info("there is no *.nix files in project root")
		h.UI.RefreshStatus()
		return nil
	}

	applied := h.State.Applied()
	current := h.State.EnvironmentFile()

	items := make([]host.Item, 0, len(cands)+3)
	for _, c := range slices.Backward(cands) {
		item := host.Item{Label: c.Path}
		if applied && c.Path == current {
			item.Description = descReload
		}
		items = append(items, item)
	}
	items = append(items, host.Item{Separator: true})
	actionsAt := len(items)
	if applied {
		items = append(items, host.Item{Label: labelClear, Description: "Clear environment"})
	}
	disable := host.Item{Label: labelDisable, Description: "Hide status bar widget"}
	if applied {
		disable.Description = "Clear environment and hide status bar widget"
	}
	items = append(items, disable)

	out, err := h.UI.Prompter.Pick(ctx, selectTitle, items)
	if err != nil {
		return fmt.Errorf("select environment file: %w", err)
	}
	if out.Dismissed {
		logger.Info("user rejected quick pick")
		h.UI.RefreshStatus()
		return nil
	}

	logger.Info(fmt.Sprintf("user picked %s", out.Label))
	if out.Index >= actionsAt {
		if out.Label == labelClear {
			return h.Clear(ctx)
		}
		return h.Disable(ctx)
	}
	return h.Loader.Load(ctx, h.State, h.Workspace.Abs(out.Label), false)
}

func (h *Handlers) suggestEnvironmentFile(ctx context.Context) error {
	logger := h.logger()
	best, ok := h.Finder.FindBest(h.Workspace)
	if !ok {
		h.UI.RefreshStatus()
		return nil
	}
	h.UI.RefreshStatus()

	msg := fmt.Sprintf("There is %s, do you want to use it as environment file?", best.Path)
	out, err := h.UI.Prompter.Message(ctx, host.SeverityInfo, msg, []host.Action{
		{Title: answerYes},
		{Title: answerSelectFile},
		{Title: answerNo, IsCloseAffordance: true},
	})
	if err != nil {
		return fmt.Errorf("suggest environment file: %w", err)
	}

	switch {
	case out.Dismissed:
		logger.Info("user closed environment select dialog, do nothing")
		return nil
	case out.Label == answerYes:
		path := h.Workspace.Abs(best.Path)
		logger.Info(fmt.Sprintf("user selected %s", path))
		return h.Loader.Load(ctx, h.State, path, false)
	case out.Label == answerNo:
		logger.Info("user say no to environment select, disabling module for this workspace")
		return h.Disable(ctx)
	case out.Label == answerSelectFile:
		logger.Info("user want to select other file")
		return h.SelectEnvironmentFile(ctx)
	}
	return nil
}

// configuredFile returns the absolute path of the configured environment
// file when it exists in the open workspace.
func (h *Handlers) configuredFile() (string, bool) {
	file := h.State.EnvironmentFile()
	if file == "" {
		return "", false
	}
	if h.Workspace == nil {
		h.logger().Info(fmt.Sprintf("found %s in configs, but no workspace opened", file))
		return "", false
	}
	path := h.Workspace.Abs(file)
	if !h.Workspace.Exists(file) {
		h.logger().Info(fmt.Sprintf("found %s in configs, but file %s does not exist", file, path))
		return "", false
	}
	return path, true
}

func (h *Handlers) clearCollection() error {
	if h.Collection == nil {
		return nil
	}
	h.Collection.Clear()
	if err := h.Collection.Save(); err != nil {
		return fmt.Errorf("clear environment collection: %w", err)
	}
	return nil
}

func (h *Handlers) persist(err error) {
	if err != nil {
		h.logger().Warn("cannot persist workspace settings", "err", err)
	}
}

func (h *Handlers) logger() *log.Logger {
	if h.Logger == nil {
		h.Logger = log.New(io.Discard)
	}
	return h.Logger
}
