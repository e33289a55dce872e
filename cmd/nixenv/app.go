// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nixenv/nixenv/internal/candidate"
	"github.com/nixenv/nixenv/internal/commands"
	"github.com/nixenv/nixenv/internal/config"
	"github.com/nixenv/nixenv/internal/devenv"
	"github.com/nixenv/nixenv/internal/envsink"
	"github.com/nixenv/nixenv/internal/host"
	"github.com/nixenv/nixenv/internal/issue"
	"github.com/nixenv/nixenv/internal/loader"
	"github.com/nixenv/nixenv/internal/nix"
	"github.com/nixenv/nixenv/internal/settings"
	"github.com/nixenv/nixenv/internal/state"
	"github.com/nixenv/nixenv/internal/tui"
	"github.com/nixenv/nixenv/internal/workspace"

	"github.com/charmbracelet/log"
)

const (
	// ActiveVar is set to the workspace root in programs started by
	// `nixenv shell` and `nixenv exec`.
	ActiveVar = "NIXENV_ACTIVE"
	// OriginalPathVar carries the PATH from before composition into child
	// programs, so a reload from inside them composes from the same base.
	OriginalPathVar = "NIXENV_ORIGINAL_PATH"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer: all Cobra command handlers receive an App reference and open a
	// session through it.
	App struct {
		Config    config.Resolver
		Evaluator nix.Evaluator
		Prompter  host.Prompter
		Env       envsink.Sink
		Getwd     func() (string, error)
		stdin     io.Reader
		stdout    io.Writer
		stderr    io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp; a nil Evaluator or Prompter is
	// built per session from the loaded configuration.
	Dependencies struct {
		Config    config.Resolver
		Evaluator nix.Evaluator
		Prompter  host.Prompter
		Env       envsink.Sink
		Getwd     func() (string, error)
		Stdin     io.Reader
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// session is everything one invocation works with: the configuration, the
	// resolved workspace and its state, and the handlers running against it.
	session struct {
		cfg        *config.Config
		cfgPath    string
		verbose    bool
		logger     *log.Logger
		workspace  *workspace.Folder
		state      *state.State
		collection envsink.Collection
		loader     *loader.Loader
		handlers   *commands.Handlers
		ui         *host.UI
		bar        *statusLine
	}

	// originalPathSink reports the PATH from before composition when the
	// process runs inside a nixenv child program.
	originalPathSink struct {
		envsink.Sink
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Env == nil {
		deps.Env = originalPathSink{Sink: envsink.ProcessSink{}}
	}
	if deps.Getwd == nil {
		deps.Getwd = os.Getwd
	}

	return &App{
		Config:    deps.Config,
		Evaluator: deps.Evaluator,
		Prompter:  deps.Prompter,
		Env:       deps.Env,
		Getwd:     deps.Getwd,
		stdin:     deps.Stdin,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}, nil
}

// Get implements envsink.Sink.
func (s originalPathSink) Get(name string) (string, bool) {
	if name == loader.PathVar {
		if v, ok := s.Sink.Get(OriginalPathVar); ok {
			return v, true
		}
	}
	return s.Sink.Get(name)
}

// open resolves configuration and the workspace and wires a session.
func (a *App) open(ctx context.Context, flags *rootFlagValues) (*session, error) {
	cfg, cfgPath, err := a.loadConfig(ctx, flags)
	if err != nil {
		return nil, err
	}

	verbose := flags.verbose || cfg.UI.Verbose
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: "nixenv", Level: level})

	ws, err := a.resolveWorkspace(flags)
	if err != nil {
		return nil, err
	}

	var (
		stored     settings.Configuration = settings.NewMemory(settings.Default())
		collection envsink.Collection     = envsink.NewMemoryCollection()
	)
	if ws != nil {
		warnUnignoredMetaDir(logger, ws)
		stored = settings.NewFile(ws)
		fileColl, collErr := envsink.OpenFileCollection(filepath.Join(ws.MetaDir(), envsink.CollectionFileName))
		if collErr != nil {
			return nil, issue.NewErrorContext().
				WithOperation("open environment collection").
				WithResource(ws.MetaDir()).
				WithSuggestion("Remove the file to start from an empty environment").
				WithIssue(issue.SettingsLoadFailedId).
				Wrap(collErr).
				BuildError()
		}
		collection = fileColl
	} else {
		logger.Warn(workspace.ErrNoWorkspace.Error())
	}

	st, err := state.New(stored, a.Env)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load workspace settings").
			WithResource(filepath.Join(ws.MetaDir(), settings.FileName)).
			WithSuggestions(
				"Check the syntax of "+settings.FileName,
				"Remove the file to start from default settings",
			).
			WithIssue(issue.SettingsLoadFailedId).
			Wrap(err).
			BuildError()
	}
	st.Restore(collection, ws != nil && a.carriesCollection(ws.Root, collection))

	bar := &statusLine{}
	ui := &host.UI{
		Prompter:  a.prompter(cfg, flags),
		Window:    &terminalWindow{w: a.stderr, env: a.Env},
		Output:    &outputPane{w: a.stderr},
		StatusBar: bar,
		State:     st,
		Logger:    logger,
	}

	ld := loader.New(loader.Options{
		Evaluator:  a.evaluator(cfg, ws),
		Env:        a.Env,
		Collection: collection,
		Feedback:   ui,
		Workspace:  ws,
		Logger:     logger,
		ExtraDeny:  cfg.Env.Deny,
	})

	return &session{
		cfg:        cfg,
		cfgPath:    cfgPath,
		verbose:    verbose,
		logger:     logger,
		workspace:  ws,
		state:      st,
		collection: collection,
		loader:     ld,
		ui:         ui,
		bar:        bar,
		handlers: &commands.Handlers{
			State:      st,
			Loader:     ld,
			Finder:     candidate.NewFinder(nil, logger),
			Workspace:  ws,
			Collection: collection,
			UI:         ui,
			Logger:     logger,
		},
	}, nil
}

// carriesCollection reports whether this process was started by nixenv for
// root with every collected variable already in its environment.
func (a *App) carriesCollection(root string, c envsink.Collection) bool {
	env := a.Env
	if s, ok := env.(originalPathSink); ok {
		env = s.Sink
	}
	if active, ok := env.Get(ActiveVar); !ok || active != root {
		return false
	}
	for name, value := range c.Entries() {
		if got, ok := env.Get(name); !ok || got != value {
			return false
		}
	}
	return true
}

// loadConfig loads the global configuration. A broken default config file
// falls back to defaults with a warning; an explicit --config must load.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, string, error) {
	cfg, path, err := a.Config.LoadResolved(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err == nil {
		return cfg, path, nil
	}

	loadErr := issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(flags.configPath).
		WithSuggestion("Run 'nixenv config path' to see which file is read").
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(err).
		Build()
	if flags.configPath != "" {
		return nil, "", loadErr
	}
	fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+loadErr.Format(flags.verbose))
	return config.DefaultConfig(), "", nil
}

func (a *App) resolveWorkspace(flags *rootFlagValues) (*workspace.Folder, error) {
	if flags.workspace != "" {
		ws := workspace.Open(flags.workspace)
		if ws == nil {
			return nil, issue.NewErrorContext().
				WithOperation("open workspace").
				WithResource(flags.workspace).
				WithSuggestion("Pass an existing directory to --workspace").
				WithIssue(issue.NoWorkspaceId).
				Wrap(workspace.ErrNoWorkspace).
				BuildError()
		}
		return ws, nil
	}
	wd, err := a.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return workspace.Resolve("", wd), nil
}

// prompter returns the injected Prompter, a scripted one for --answer, or a
// terminal one.
func (a *App) prompter(cfg *config.Config, flags *rootFlagValues) host.Prompter {
	if a.Prompter != nil {
		return a.Prompter
	}
	if len(flags.answers) > 0 {
		return &scriptedPrompter{answers: host.NewAnswers(flags.answers...), w: a.stderr}
	}
	tcfg := tui.DefaultConfig()
	tcfg.Theme = tui.ParseTheme(cfg.UI.Theme)
	tcfg.Accessible = tcfg.Accessible || cfg.UI.Accessible
	tcfg.Input = a.stdin
	tcfg.Output = a.stderr
	return tui.NewPrompter(tcfg)
}

func (a *App) evaluator(cfg *config.Config, ws *workspace.Folder) nix.Evaluator {
	if a.Evaluator != nil {
		return a.Evaluator
	}
	ev := nix.Command{Binary: cfg.Nix.Binary, ExtraArgs: cfg.Nix.ExtraArgs}
	if ws != nil {
		ev.Dir = ws.Root
	}
	return ev
}

// finish prints the status item after an environment command and maps err
// to what the user sees.
func (a *App) finish(s *session, err error) error {
	s.ui.RefreshStatus()
	if line := state.NewRenderer(a.stdout).Render(s.bar.Last()); line != "" {
		fmt.Fprintln(a.stdout, line)
	}
	return a.classify(s, err)
}

// classify turns handler errors into exit errors. Failures the UI already
// reported exit silently; the rest carry an issue when one applies.
func (a *App) classify(s *session, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, nix.ErrNotFound):
		a.renderIssue(s, issue.NixNotFoundId)
		return &ExitError{Code: exitFailure}
	case errors.Is(err, loader.ErrSuperseded), errors.Is(err, context.Canceled):
		return &ExitError{Code: exitInterrupted}
	case errors.As(err, new(*nix.EvaluationError)):
		if s.verbose {
			a.renderIssue(s, issue.EvaluationFailedId)
		}
		return &ExitError{Code: exitFailure}
	case errors.Is(err, devenv.ErrMalformedDocument):
		a.renderIssue(s, issue.MalformedOutputId)
		return &ExitError{Code: exitFailure}
	case errors.Is(err, commands.ErrNothingToReload):
		return &ExitError{Code: exitFailure}
	}
	return err
}

func (a *App) renderIssue(s *session, id issue.Id) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, err := entry.Render(glamourStyle(a.stderr, s.cfg.UI.ColorScheme))
	if err != nil {
		s.logger.Warn("failed to render issue catalog entry", "issueID", id, "error", err)
		return
	}
	fmt.Fprint(a.stderr, rendered)
}

// environment returns the collected variables with the nixenv markers for
// a child program.
func (s *session) environment() map[string]string {
	vars := s.collection.Entries()
	if s.workspace != nil {
		vars[ActiveVar] = s.workspace.Root
	}
	if _, ok := vars[loader.PathVar]; ok {
		vars[OriginalPathVar] = s.state.OriginalPath()
	}
	return vars
}

// warnUnignoredMetaDir asks once, before .nixenv is first created, to keep
// it out of the repository.
func warnUnignoredMetaDir(logger *log.Logger, ws *workspace.Folder) {
	if _, err := os.Stat(ws.MetaDir()); err == nil {
		return
	}
	ignored, err := ws.MetaDirIgnored()
	if err != nil {
		logger.Debug("cannot check .gitignore", "err", err)
		return
	}
	if !ignored {
		logger.Warn("add "+workspace.MetaDirName+"/ to .gitignore to keep nixenv state out of commits", "workspace", ws.Root)
	}
}
