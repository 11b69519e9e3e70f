package parser

import (
	"strings"

	"github.com/codex-router/codex.gerrit/model"
)

// fragmentSeparator joins fragments that target the same file.
const fragmentSeparator = "\n\n"

// MergeFragments combines fragments sharing a file path, concatenating their
// diff text in encounter order. The result is ordered by first appearance.
func MergeFragments(fragments []model.FileDiffFragment) []model.FileDiffFragment {
	var order []string
	texts := make(map[string][]string)
	for _, f := range fragments {
		if _, seen := texts[f.FilePath]; !seen {
			order = append(order, f.FilePath)
		}
		texts[f.FilePath] = append(texts[f.FilePath], f.DiffText)
	}

	merged := make([]model.FileDiffFragment, 0, len(order))
	for _, path := range order {
		merged = append(merged, model.FileDiffFragment{
			FilePath: path,
			DiffText: strings.Join(texts[path], fragmentSeparator),
		})
	}
	return merged
}
