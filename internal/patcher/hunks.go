package patcher

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/codex-router/codex.gerrit/model"
)

// ErrHunkNotFound is returned by Recount when a hunk's context cannot be
// located in the source file.
var ErrHunkNotFound = errors.New("could not find matching block for a hunk")

var hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// hunk is one "@@" section of a diff with the old-side start it declared.
type hunk struct {
	oldStart int
	lines    []string
}

// Stats counts the added and removed lines of a diff, ignoring file headers.
func Stats(diffText string) (added, removed int) {
	for _, line := range strings.Split(diffText, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}

// getTargetBlock creates a search pattern from a hunk. It uses only lines
// present in the original file (context and removed lines) and ignores
// empty ones so matching survives whitespace-only changes.
func getTargetBlock(lines []string) []string {
	var block []string
	for _, line := range lines {
		if !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, " ") {
			continue
		}
		if content := line[1:]; strings.TrimSpace(content) != "" {
			block = append(block, content)
		}
	}
	return block
}

// normalizeLineForMatching collapses all whitespace runs to a single space.
func normalizeLineForMatching(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

// matchBlock returns the 1-based line in source where block starts, or -1.
// Empty source lines are skipped and whitespace is normalized on both sides.
func matchBlock(source, block []string) int {
	if len(block) == 0 {
		return -1
	}

	normalizedBlock := make([]string, len(block))
	for i, line := range block {
		normalizedBlock[i] = normalizeLineForMatching(line)
	}

	var filteredSource []string
	var originalLineNumbers []int
	for i, line := range source {
		if normalized := normalizeLineForMatching(line); normalized != "" {
			filteredSource = append(filteredSource, normalized)
			originalLineNumbers = append(originalLineNumbers, i+1)
		}
	}

	for i := 0; i <= len(filteredSource)-len(normalizedBlock); i++ {
		match := true
		for j := range normalizedBlock {
			if filteredSource[i+j] != normalizedBlock[j] {
				match = false
				break
			}
		}
		if match {
			return originalLineNumbers[i]
		}
	}
	return -1
}

func buildHunkHeader(oldStart, oldLines, newStart, newLines int) string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", oldStart, oldLines, newStart, newLines)
}

// parseHunks splits diff lines into hunks. File headers and lines that are
// not part of a hunk body are dropped.
func parseHunks(diffLines []string) []hunk {
	var hunks []hunk
	var current *hunk

	for _, line := range diffLines {
		if strings.HasPrefix(line, "---") || strings.HasPrefix(line, "+++") {
			continue
		}
		if strings.HasPrefix(line, "@@") {
			if current != nil && len(current.lines) > 0 {
				hunks = append(hunks, *current)
			}
			current = &hunk{oldStart: declaredOldStart(line)}
			continue
		}
		if current == nil {
			continue
		}
		if strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-") || strings.HasPrefix(line, " ") {
			current.lines = append(current.lines, line)
		}
	}
	if current != nil && len(current.lines) > 0 {
		hunks = append(hunks, *current)
	}
	return hunks
}

func declaredOldStart(header string) int {
	m := hunkHeaderRegex.FindStringSubmatch(header)
	if m == nil {
		return 1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 1
	}
	return n
}

// Recount rewrites a fragment's hunk headers so that their line counts match
// the hunk bodies. When source holds the current file content, each hunk is
// relocated to where its context actually occurs; otherwise the start line
// the hunk declared is kept.
func Recount(fragment model.FileDiffFragment, source []string) (string, error) {
	hunks := parseHunks(strings.Split(fragment.DiffText, "\n"))
	if len(hunks) == 0 {
		return "", nil
	}

	var parts []string
	parts = append(parts,
		fmt.Sprintf("--- a/%s\n", fragment.FilePath),
		fmt.Sprintf("+++ b/%s\n", fragment.FilePath),
	)

	lineDiffOffset := 0
	for _, h := range hunks {
		oldStart := h.oldStart
		if source != nil {
			if target := getTargetBlock(h.lines); len(target) > 0 {
				oldStart = matchBlock(source, target)
				if oldStart == -1 {
					return "", fmt.Errorf("%s: %w", fragment.FilePath, ErrHunkNotFound)
				}
			}
		}

		addCount, removeCount := 0, 0
		for _, line := range h.lines {
			if strings.HasPrefix(line, "+") {
				addCount++
			} else if strings.HasPrefix(line, "-") {
				removeCount++
			}
		}
		contextCount := len(h.lines) - addCount - removeCount

		oldLines := contextCount + removeCount
		newLines := contextCount + addCount
		newStart := oldStart + lineDiffOffset
		if oldStart == 0 {
			newStart = 1 + lineDiffOffset
		}

		parts = append(parts, buildHunkHeader(oldStart, oldLines, newStart, newLines)+"\n")
		for _, line := range h.lines {
			parts = append(parts, line+"\n")
		}

		lineDiffOffset += newLines - oldLines
	}

	return strings.Join(parts, ""), nil
}
