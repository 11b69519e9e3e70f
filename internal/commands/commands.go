// Package commands defines the codexpanel command tree.
package commands

import (
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codex-router/codex.gerrit/cli"
	"github.com/codex-router/codex.gerrit/internal/app"
	"github.com/codex-router/codex.gerrit/internal/highlight"
	"github.com/codex-router/codex.gerrit/internal/logging"
	"github.com/codex-router/codex.gerrit/internal/source"
	"github.com/codex-router/codex.gerrit/internal/tui"
	"github.com/codex-router/codex.gerrit/internal/ui"
	"github.com/codex-router/codex.gerrit/internal/watch"
)

// runner carries the state shared by the commands of one invocation.
type runner struct {
	src        *source.Provider
	flags      *cli.Config
	configPath string

	cfg    *cli.Config
	logger *zap.Logger
}

// NewRootCommand builds the command tree reading replies from src.
func NewRootCommand(src *source.Provider) *cobra.Command {
	r := &runner{src: src, flags: cli.DefaultConfig(), logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "codexpanel",
		Short: "Review the file changes proposed in an assistant reply",
		Long: `codexpanel renders an assistant reply for a chat transcript and extracts
the unified diffs it proposes, one reviewable record per file.

The reply is read from the file argument, else from piped stdin, else from
the clipboard.`,
		SilenceUsage:      true,
		PersistentPreRunE: r.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if r.logger != nil {
				_ = r.logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&r.configPath, "config", "", "config file (default is $HOME/.config/codexpanel/config.yaml)")
	r.flags.BindFlags(rootCmd.PersistentFlags())

	renderCmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Print the reply as transcript HTML",
		Args:  cobra.MaximumNArgs(1),
		RunE:  r.runRender,
	}

	changesCmd := &cobra.Command{
		Use:   "changes [file]",
		Short: "List the file changes extracted from the reply",
		Args:  cobra.MaximumNArgs(1),
		RunE:  r.runChanges,
	}
	changesCmd.Flags().BoolVar(&r.flags.JSON, "json", false, "Print the records as JSON.")
	changesCmd.Flags().BoolVar(&r.flags.ShowDiff, "diff", false, "Show the highlighted diff of each record.")

	fixCmd := &cobra.Command{
		Use:   "fix [file]",
		Short: "Print the extracted diffs with corrected hunk headers",
		Long: `Prints every extracted diff with its hunk header line counts recomputed.
Files found in the lookup directories are used to correct start lines.`,
		Args: cobra.MaximumNArgs(1),
		RunE: r.runFix,
	}
	fixCmd.Flags().StringSliceVarP(&r.flags.LookupDirs, "lookup-dir", "l", nil, "Directory to look for files in (default: current directory).")

	reviewCmd := &cobra.Command{
		Use:   "review [file]",
		Short: "Open the terminal review panel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  r.runReview,
	}
	reviewCmd.Flags().StringVarP(&r.flags.Output, "out", "o", "", "Write the final records as JSON to this file.")
	reviewCmd.Flags().BoolVarP(&r.flags.Watch, "watch", "w", false, "Reprocess the reply whenever the file changes.")

	rootCmd.AddCommand(renderCmd, changesCmd, fixCmd, reviewCmd)
	return rootCmd
}

func (r *runner) setup(cmd *cobra.Command, args []string) error {
	cfg, err := cli.Load(r.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Overlay(cmd.Flags(), r.flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return err
	}
	r.cfg = cfg
	r.logger = logger
	return nil
}

func (r *runner) newApp() (*app.App, error) {
	a, err := app.New(r.cfg, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return a, nil
}

func (r *runner) readReply(args []string) (string, string, source.Kind, error) {
	var path string
	if len(args) > 0 {
		path = args[0]
	}
	content, kind, err := r.src.Read(path)
	if err != nil {
		return "", path, kind, err
	}
	r.logger.Debug("reply loaded", zap.String("source", string(kind)), zap.Int("bytes", len(content)))
	return content, path, kind, nil
}

func (r *runner) runRender(cmd *cobra.Command, args []string) error {
	reply, _, _, err := r.readReply(args)
	if err != nil {
		return err
	}
	a, err := r.newApp()
	if err != nil {
		return err
	}
	res, err := a.Execute(reply)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Markup)
	return nil
}

func (r *runner) runChanges(cmd *cobra.Command, args []string) error {
	reply, _, _, err := r.readReply(args)
	if err != nil {
		return err
	}
	a, err := r.newApp()
	if err != nil {
		return err
	}
	if _, err := a.Execute(reply); err != nil {
		return err
	}

	if r.cfg.JSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(a.Report())
	}
	printer := ui.NewPrinter(cmd.OutOrStdout(), highlight.New(r.cfg.Theme))
	printer.PrintRecords(a.Session().Records(), r.cfg.ShowDiff)
	return nil
}

func (r *runner) runFix(cmd *cobra.Command, args []string) error {
	reply, _, _, err := r.readReply(args)
	if err != nil {
		return err
	}
	a, err := r.newApp()
	if err != nil {
		return err
	}
	fixed, err := a.FixDiffs(reply)
	if err != nil {
		return err
	}

	warnings := ui.NewPrinter(cmd.ErrOrStderr(), nil)
	for _, f := range fixed {
		if f.Err != nil {
			warnings.Warning("Skipping diff block for '%s': %v", f.Record.FilePath, f.Err)
			continue
		}
		if f.Diff != "" {
			fmt.Fprint(cmd.OutOrStdout(), f.Diff)
		}
	}
	return nil
}

func (r *runner) runReview(cmd *cobra.Command, args []string) error {
	reply, path, kind, err := r.readReply(args)
	if err != nil {
		return err
	}
	a, err := r.newApp()
	if err != nil {
		return err
	}

	model := tui.New(a, reply, tui.Options{
		Theme:           r.cfg.Theme,
		TranscriptStyle: r.cfg.TranscriptStyle,
		NoAnimation:     r.cfg.NoAnimation,
	})
	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithOutput(cmd.OutOrStdout())}
	if kind == source.KindStdin {
		// stdin carried the reply; keys come from the terminal.
		opts = append(opts, tea.WithInputTTY())
	}
	p := tea.NewProgram(model, opts...)

	if r.cfg.Watch && path != "" {
		watcher, err := watch.New(path, func(content string) {
			p.Send(tui.ReplyMsg{Content: content})
		}, watch.Config{Logger: r.logger})
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running review panel: %w", err)
	}
	if m, ok := final.(tui.Model); ok && m.Err() != nil {
		return m.Err()
	}

	if r.cfg.Output != "" {
		if err := a.WriteReport(r.cfg.Output); err != nil {
			return err
		}
	}
	ui.NewPrinter(cmd.ErrOrStderr(), nil).PrintSummary(a.Session().Summary())
	return nil
}
