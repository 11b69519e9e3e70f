package parser

import (
	"github.com/codex-router/codex.gerrit/internal/model"
	pub "github.com/codex-router/codex.gerrit/model"
)

// Plan is the result of scanning one reply for file changes.
type Plan struct {
	// Candidates are the regions that looked like diffs.
	Candidates []model.DiffCandidateBlock
	// Fragments are the per-file diffs, one per path, in discovery order.
	Fragments []pub.FileDiffFragment
}

// Empty reports whether the plan produced no file changes.
func (p *Plan) Empty() bool {
	return len(p.Fragments) == 0
}

// CreatePlan extracts diff candidates from a reply, parses each of them and
// merges the resulting fragments by file path.
func CreatePlan(reply string) *Plan {
	candidates := ExtractCandidates(reply)

	var fragments []pub.FileDiffFragment
	for _, c := range candidates {
		fragments = append(fragments, ParseBlock(c)...)
	}

	return &Plan{
		Candidates: candidates,
		Fragments:  MergeFragments(fragments),
	}
}
