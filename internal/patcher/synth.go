package patcher

import (
	"fmt"
	"strings"

	"github.com/codex-router/codex.gerrit/internal/parser"
)

// Synthesize turns the first non-diff fenced code block of a reply into a
// pure-addition unified diff for path. It returns "" when the reply has no
// usable code block.
func Synthesize(text, path string) string {
	if path == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	for _, block := range parser.ExtractCodeBlocks([]byte(text)) {
		lang := strings.ToLower(block.Lang)
		if lang == "diff" || lang == "patch" {
			continue
		}
		if strings.TrimSpace(block.Content) == "" {
			continue
		}
		return additionDiff(path, trimTrailingBlankLines(strings.Split(block.Content, "\n")))
	}
	return ""
}

func additionDiff(path string, lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	out := make([]string, 0, len(lines)+4)
	out = append(out,
		fmt.Sprintf("diff --git a/%s b/%s", path, path),
		"--- a/"+path,
		"+++ b/"+path,
		buildHunkHeader(1, 0, 1, len(lines)),
	)
	for _, line := range lines {
		out = append(out, "+"+line)
	}
	return strings.Join(out, "\n")
}

func trimTrailingBlankLines(lines []string) []string {
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[:end]
}
