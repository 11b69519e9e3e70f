// Package ledger holds the reviewable file changes extracted from one reply.
//
// A Ledger is an immutable snapshot: every update returns a new Ledger and
// leaves the receiver untouched, so readers may keep old snapshots around.
package ledger

import (
	"fmt"
	"sync/atomic"

	"github.com/codex-router/codex.gerrit/internal/parser"
	"github.com/codex-router/codex.gerrit/internal/patcher"
	"github.com/codex-router/codex.gerrit/internal/paths"
	"github.com/codex-router/codex.gerrit/model"
)

// DefaultIDPrefix is the prefix of record ids when none is configured.
const DefaultIDPrefix = "fc"

// IDAllocator hands out monotonically increasing record ids. It is safe for
// concurrent use.
type IDAllocator struct {
	prefix string
	next   atomic.Uint64
}

// NewIDAllocator creates an allocator producing ids "<prefix>-1", "<prefix>-2", ...
func NewIDAllocator(prefix string) *IDAllocator {
	if prefix == "" {
		prefix = DefaultIDPrefix
	}
	return &IDAllocator{prefix: prefix}
}

// Next returns a fresh id.
func (a *IDAllocator) Next() string {
	return fmt.Sprintf("%s-%d", a.prefix, a.next.Add(1))
}

// Ledger is an ordered set of file change records, at most one per path.
type Ledger struct {
	records []model.FileChangeRecord
}

// Origin tells how the records of a built ledger were obtained.
type Origin int

const (
	// OriginNone means the reply produced no file changes.
	OriginNone Origin = iota
	// OriginDiff means the records came from diffs in the reply.
	OriginDiff
	// OriginSynthesized means a code block was turned into an addition diff.
	OriginSynthesized
)

func (o Origin) String() string {
	switch o {
	case OriginDiff:
		return "diff"
	case OriginSynthesized:
		return "synthesized"
	default:
		return "none"
	}
}

// BuildResult is a built ledger plus how it was obtained.
type BuildResult struct {
	Ledger     Ledger
	Origin     Origin
	Candidates int
}

// Build extracts the file changes of a reply. Diff blocks are parsed and
// merged by path; when that yields nothing, the first plain code block is
// synthesized into an addition diff for the single file the reply is about.
// Every record starts pending with a fresh id from ids.
func Build(reply string, contextFiles []string, ids *IDAllocator) Ledger {
	return BuildDetailed(reply, contextFiles, ids).Ledger
}

// BuildDetailed is Build with extraction details for logging.
func BuildDetailed(reply string, contextFiles []string, ids *IDAllocator) BuildResult {
	if ids == nil {
		ids = NewIDAllocator("")
	}
	plan := parser.CreatePlan(reply)
	res := BuildResult{Candidates: len(plan.Candidates)}

	fragments := plan.Fragments
	if len(fragments) > 0 {
		res.Origin = OriginDiff
	} else if path, ok := paths.Candidate(reply, contextFiles); ok {
		if diff := patcher.Synthesize(reply, path); diff != "" {
			fragments = []model.FileDiffFragment{{FilePath: path, DiffText: diff}}
			res.Origin = OriginSynthesized
		}
	}

	records := make([]model.FileChangeRecord, 0, len(fragments))
	for _, f := range fragments {
		records = append(records, model.FileChangeRecord{
			ID:       ids.Next(),
			FilePath: f.FilePath,
			DiffText: f.DiffText,
			Decision: model.DecisionPending,
		})
	}
	res.Ledger = Ledger{records: records}
	return res
}

// Len returns the number of records.
func (l Ledger) Len() int {
	return len(l.records)
}

// Records returns a copy of the records in discovery order.
func (l Ledger) Records() []model.FileChangeRecord {
	out := make([]model.FileChangeRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Find returns the record with the given id.
func (l Ledger) Find(id string) (model.FileChangeRecord, bool) {
	for _, r := range l.records {
		if r.ID == id {
			return r, true
		}
	}
	return model.FileChangeRecord{}, false
}

// UpdateDecision returns a ledger where the record with the given id carries
// decision d. Unknown ids and invalid decisions leave the ledger unchanged.
func UpdateDecision(l Ledger, id string, d model.Decision) Ledger {
	if !d.Valid() {
		return l
	}
	for i, r := range l.records {
		if r.ID != id {
			continue
		}
		if r.Decision == d {
			return l
		}
		records := l.Records()
		records[i].Decision = d
		return Ledger{records: records}
	}
	return l
}

// Summarize counts the records per decision.
func Summarize(l Ledger) model.Summary {
	var s model.Summary
	for _, r := range l.records {
		switch r.Decision {
		case model.DecisionKept:
			s.Kept++
		case model.DecisionUndone:
			s.Undone++
		default:
			s.Pending++
		}
	}
	return s
}
