package parser

import (
	"strings"

	"github.com/codex-router/codex.gerrit/internal/model"
	"github.com/codex-router/codex.gerrit/internal/paths"
	pub "github.com/codex-router/codex.gerrit/model"
)

const devNull = "/dev/null"

// blockParser splits one diff candidate into per-file fragments.
type blockParser struct {
	path      string
	lines     []string
	hasHunk   bool
	fragments []pub.FileDiffFragment
}

// ParseBlock splits a diff candidate into per-file fragments in a single
// forward pass. Text that merely resembles a diff yields no fragments.
func ParseBlock(block model.DiffCandidateBlock) []pub.FileDiffFragment {
	p := &blockParser{}
	content := strings.ReplaceAll(block.Content, "\r\n", "\n")

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			p.flush()
			p.path = gitHeaderPath(line)
		case strings.HasPrefix(line, "+++ "):
			if path := markerPath(line[4:]); path != "" {
				p.path = path
			}
		case strings.HasPrefix(line, "--- "):
			if p.hasHunk {
				p.flush()
			}
			if p.path == "" {
				p.path = markerPath(line[4:])
			}
		case strings.HasPrefix(line, "@@"):
			p.hasHunk = true
		}
		p.lines = append(p.lines, line)
	}
	p.flush()

	return p.fragments
}

// flush emits the buffered lines as a fragment when they form a real diff,
// then resets the buffer and the current path.
func (p *blockParser) flush() {
	defer func() {
		p.path = ""
		p.lines = nil
		p.hasHunk = false
	}()

	if p.path == "" || !hasDiffLine(p.lines) {
		return
	}
	text := strings.TrimSpace(strings.Join(p.lines, "\n"))
	if text == "" {
		return
	}
	p.fragments = append(p.fragments, pub.FileDiffFragment{
		FilePath: p.path,
		DiffText: text,
	})
}

// hasDiffLine reports whether lines hold a file header, a hunk header or an
// added or removed line.
func hasDiffLine(lines []string) bool {
	for _, line := range lines {
		if strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "@@") {
			return true
		}
	}
	return false
}

// gitHeaderPath returns the new-side path of a "diff --git a/x b/y" line.
func gitHeaderPath(line string) string {
	rest := strings.TrimPrefix(line, "diff --git ")
	if idx := strings.LastIndex(rest, " b/"); idx >= 0 {
		return paths.Normalize(rest[idx+1:])
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return paths.Normalize(fields[len(fields)-1])
}

// markerPath returns the path named by a ---/+++ header, or "" for /dev/null.
func markerPath(marker string) string {
	marker = strings.TrimSpace(marker)
	var token string
	if strings.HasPrefix(marker, `"`) {
		if end := strings.Index(marker[1:], `"`); end >= 0 {
			token = marker[:end+2]
		}
	}
	if token == "" {
		fields := strings.Fields(marker)
		if len(fields) == 0 {
			return ""
		}
		token = fields[0]
	}
	if token == devNull {
		return ""
	}
	return paths.Normalize(token)
}
