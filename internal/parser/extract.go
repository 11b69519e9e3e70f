package parser

import (
	"strings"

	"github.com/codex-router/codex.gerrit/internal/model"
)

// diffLinePrefixes are the line starts that mark text as a likely unified diff.
var diffLinePrefixes = []string{"diff --git ", "--- ", "+++ "}

// ExtractCandidates returns the regions of text that look like unified diffs.
//
// Fenced blocks tagged diff or patch, or containing a diff marker line,
// qualify and are returned in document order. When no fence qualifies the
// whole text is returned as one candidate if it carries a marker itself.
func ExtractCandidates(text string) []model.DiffCandidateBlock {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var candidates []model.DiffCandidateBlock
	for _, block := range ExtractCodeBlocks([]byte(text)) {
		lang := strings.ToLower(block.Lang)
		if isDiffLang(lang) || LooksLikeDiff(block.Content) {
			candidates = append(candidates, model.DiffCandidateBlock{
				Content: block.Content,
				Lang:    lang,
			})
		}
	}
	if len(candidates) > 0 {
		return candidates
	}

	if LooksLikeDiff(text) {
		return []model.DiffCandidateBlock{{Content: text}}
	}
	return nil
}

// LooksLikeDiff reports whether any line of text starts with a unified diff
// marker. Over-matching is acceptable; ParseBlock rejects non-diff content.
func LooksLikeDiff(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if isMarkerLine(line) {
			return true
		}
	}
	return false
}

func isMarkerLine(line string) bool {
	for _, prefix := range diffLinePrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return isHunkHeader(line)
}

// isHunkHeader reports whether line is "@@" followed by whitespace.
func isHunkHeader(line string) bool {
	if !strings.HasPrefix(line, "@@") || len(line) < 3 {
		return false
	}
	switch line[2] {
	case ' ', '\t':
		return true
	}
	return false
}

func isDiffLang(lang string) bool {
	return lang == "diff" || lang == "patch"
}
