// Package highlight colors diff text for terminal output.
package highlight

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "monokai"

// Highlighter renders diffs with chroma and word-level emphasis.
type Highlighter struct {
	style     string
	formatter chroma.Formatter
}

// New creates a Highlighter using the named chroma style.
func New(style string) *Highlighter {
	if style == "" {
		style = DefaultStyle
	}
	return &Highlighter{
		style:     style,
		formatter: formatters.Get("terminal256"),
	}
}

// Diff applies chroma's diff lexer to a unified diff. On any failure the
// text is returned unchanged.
func (h *Highlighter) Diff(diff string) string {
	lexer := lexers.Get("diff")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(h.style)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, diff)
	if err != nil {
		return diff
	}

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, style, iterator); err != nil {
		return diff
	}
	return buf.String()
}

var (
	addedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	removedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true)
	hunkStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))
	contextStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	addedSpanStyle   = lipgloss.NewStyle().Background(lipgloss.Color("#064E3B")).Foreground(lipgloss.Color("#6EE7B7"))
	removedSpanStyle = lipgloss.NewStyle().Background(lipgloss.Color("#7F1D1D")).Foreground(lipgloss.Color("#FCA5A5"))
)

// WordDiff styles a unified diff line by line. A run of removed lines
// followed by the same number of added lines is treated as pairs, and the
// words that changed within each pair are emphasized.
func (h *Highlighter) WordDiff(diff string) string {
	lines := strings.Split(diff, "\n")
	out := make([]string, 0, len(lines))

	for i := 0; i < len(lines); {
		if !isRemoved(lines[i]) {
			out = append(out, styleLine(lines[i]))
			i++
			continue
		}

		removed := takeRun(lines[i:], isRemoved)
		added := takeRun(lines[i+len(removed):], isAdded)
		if len(added) == len(removed) {
			newLines := make([]string, len(added))
			for k := range removed {
				oldLine, newLine := emphasize(removed[k][1:], added[k][1:])
				out = append(out, removedStyle.Render("-")+oldLine)
				newLines[k] = addedStyle.Render("+") + newLine
			}
			out = append(out, newLines...)
		} else {
			for _, l := range removed {
				out = append(out, removedStyle.Render(l))
			}
			for _, l := range added {
				out = append(out, addedStyle.Render(l))
			}
		}
		i += len(removed) + len(added)
	}
	return strings.Join(out, "\n")
}

func isRemoved(line string) bool {
	return strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---")
}

func isAdded(line string) bool {
	return strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++")
}

func takeRun(lines []string, match func(string) bool) []string {
	n := 0
	for n < len(lines) && match(lines[n]) {
		n++
	}
	return lines[:n]
}

func styleLine(line string) string {
	switch {
	case strings.HasPrefix(line, "diff --git"), strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return headerStyle.Render(line)
	case strings.HasPrefix(line, "@@"):
		return hunkStyle.Render(line)
	case strings.HasPrefix(line, "+"):
		return addedStyle.Render(line)
	case strings.HasPrefix(line, "-"):
		return removedStyle.Render(line)
	default:
		return contextStyle.Render(line)
	}
}

// emphasize highlights the spans that differ between an old and a new line.
func emphasize(oldLine, newLine string) (string, string) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldLine, newLine, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var oldBuf, newBuf strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			oldBuf.WriteString(removedStyle.Render(d.Text))
			newBuf.WriteString(addedStyle.Render(d.Text))
		case diffmatchpatch.DiffDelete:
			oldBuf.WriteString(removedSpanStyle.Render(d.Text))
		case diffmatchpatch.DiffInsert:
			newBuf.WriteString(addedSpanStyle.Render(d.Text))
		}
	}
	return oldBuf.String(), newBuf.String()
}
