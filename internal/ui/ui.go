// Package ui prints review records and status lines for the non-interactive
// commands.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/codex-router/codex.gerrit/internal/highlight"
	"github.com/codex-router/codex.gerrit/internal/patcher"
	"github.com/codex-router/codex.gerrit/model"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
	PathColor    = color.New(color.FgYellow)
	FaintColor   = color.New(color.Faint)
)

// Printer writes colored output to a writer.
type Printer struct {
	out         io.Writer
	highlighter *highlight.Highlighter
}

// NewPrinter creates a Printer. A nil highlighter prints diffs uncolored.
func NewPrinter(out io.Writer, h *highlight.Highlighter) *Printer {
	return &Printer{out: out, highlighter: h}
}

func (p *Printer) Header(format string, a ...interface{}) {
	HeaderColor.Fprintf(p.out, format+"\n", a...)
}

func (p *Printer) Info(format string, a ...interface{}) {
	InfoColor.Fprintf(p.out, format+"\n", a...)
}

func (p *Printer) Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(p.out, format+"\n", a...)
}

func (p *Printer) Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(p.out, format+"\n", a...)
}

// DecisionColor returns the color used for a decision tag.
func DecisionColor(d model.Decision) *color.Color {
	switch d {
	case model.DecisionKept:
		return SuccessColor
	case model.DecisionUndone:
		return ErrorColor
	default:
		return FaintColor
	}
}

// PrintRecords lists records with their line stats. With showDiff the diff
// text of each record follows its line.
func (p *Printer) PrintRecords(records []model.FileChangeRecord, showDiff bool) {
	if len(records) == 0 {
		p.Info("No file changes found.")
		return
	}

	p.Header("--- File changes (%d) ---", len(records))
	for _, r := range records {
		added, removed := patcher.Stats(r.DiffText)
		fmt.Fprintf(p.out, "  %s %s %s %s\n",
			FaintColor.Sprintf("%-6s", r.ID),
			PathColor.Sprint(r.FilePath),
			SuccessColor.Sprintf("+%d", added),
			ErrorColor.Sprintf("-%d", removed),
		)
		if showDiff {
			p.printDiff(r.DiffText)
		}
	}
}

func (p *Printer) printDiff(diff string) {
	text := diff
	if p.highlighter != nil {
		text = p.highlighter.Diff(diff)
	}
	fmt.Fprintln(p.out, strings.TrimRight(text, "\n"))
	fmt.Fprintln(p.out)
}

// PrintSummary prints the decision counts.
func (p *Printer) PrintSummary(s model.Summary) {
	p.Header("\n--- Review Summary ---")
	if s.Total() == 0 {
		p.Info("No file changes were reviewed.")
		return
	}
	fmt.Fprintf(p.out, "  %s · %s · %s\n",
		SuccessColor.Sprintf("%d kept", s.Kept),
		ErrorColor.Sprintf("%d undone", s.Undone),
		FaintColor.Sprintf("%d pending", s.Pending),
	)
}
