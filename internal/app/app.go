// Package app wires configuration, logging and the review session together
// for the command-line entry points.
package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/codex-router/codex.gerrit/cli"
	"github.com/codex-router/codex.gerrit/internal/patcher"
	"github.com/codex-router/codex.gerrit/internal/paths"
	"github.com/codex-router/codex.gerrit/internal/state"
	"github.com/codex-router/codex.gerrit/model"
	"github.com/codex-router/codex.gerrit/panel"
)

// DetailedError enhances a standard error with a stack trace.
type DetailedError = panel.DetailedError

// App orchestrates reply processing for one command invocation.
type App struct {
	cfg          *cli.Config
	logger       *zap.Logger
	session      *panel.Session
	contextFiles []string
}

// Report is the machine-readable form of a review.
type Report struct {
	Records []model.FileChangeRecord `json:"records"`
	Summary model.Summary            `json:"summary"`
}

// New creates a new App instance.
func New(cfg *cli.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	stateDir := cfg.StateDir
	if stateDir == cli.StateDirRepo {
		dir, err := state.DefaultDir()
		if err != nil {
			return nil, err
		}
		stateDir = dir
	}

	history, err := state.New(stateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize decision history: %w", err)
	}

	session := panel.New(
		panel.WithLogger(logger),
		panel.WithHistory(history),
		panel.WithIDPrefix(cfg.IDPrefix),
	)

	return &App{
		cfg:          cfg,
		logger:       logger,
		session:      session,
		contextFiles: cfg.ResolveContextFiles(),
	}, nil
}

// Session returns the review session owned by the App.
func (a *App) Session() *panel.Session {
	return a.session
}

// ContextFiles returns the files the reply is reviewed against.
func (a *App) ContextFiles() []string {
	return a.contextFiles
}

// Execute processes a reply, replacing the current review.
func (a *App) Execute(reply string) (res panel.Result, err error) {
	// Centralized panic recovery to provide stack traces for unexpected errors.
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	res = a.session.ProcessReply(reply, a.contextFiles)
	a.logger.Info("reply reviewed",
		zap.Int("records", len(res.Records)),
		zap.Strings("context_files", a.contextFiles))
	return res, nil
}

// Report returns the current records and their decision counts.
func (a *App) Report() Report {
	records := a.session.Records()
	if records == nil {
		records = []model.FileChangeRecord{}
	}
	return Report{Records: records, Summary: a.session.Summary()}
}

// WriteReport writes the current review as indented JSON to path.
func (a *App) WriteReport(path string) error {
	data, err := json.MarshalIndent(a.Report(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode review: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write review: %w", err)
	}
	return nil
}

// FixedDiff is a record's diff with recomputed hunk headers. Err is set when
// the record could not be corrected.
type FixedDiff struct {
	Record model.FileChangeRecord
	Diff   string
	Err    error
}

// FixDiffs processes a reply and recomputes the hunk headers of every
// record. Files found in the lookup directories are used to relocate hunks.
func (a *App) FixDiffs(reply string) ([]FixedDiff, error) {
	resolver, err := paths.NewPathResolver(a.cfg.LookupDirs)
	if err != nil {
		return nil, err
	}

	res, err := a.Execute(reply)
	if err != nil {
		return nil, err
	}

	fixed := make([]FixedDiff, 0, len(res.Records))
	for _, r := range res.Records {
		item := FixedDiff{Record: r}
		lines, err := resolver.ReadLines(r.FilePath)
		if err != nil {
			item.Err = err
			fixed = append(fixed, item)
			continue
		}
		fragment := model.FileDiffFragment{FilePath: r.FilePath, DiffText: r.DiffText}
		item.Diff, item.Err = patcher.Recount(fragment, lines)
		if item.Err != nil {
			a.logger.Warn("could not fix diff", zap.String("path", r.FilePath), zap.Error(item.Err))
		}
		fixed = append(fixed, item)
	}
	return fixed, nil
}
