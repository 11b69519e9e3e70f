// Package panel is the library entry point for processing assistant replies
// in a review panel: it renders the reply for the transcript and tracks the
// user's keep/undo decisions on the file changes extracted from it.
package panel

import (
	"fmt"
	"html"
	"runtime/debug"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/codex-router/codex.gerrit/internal/ledger"
	"github.com/codex-router/codex.gerrit/internal/markdown"
	"github.com/codex-router/codex.gerrit/internal/state"
	"github.com/codex-router/codex.gerrit/model"
)

// Result is the outcome of processing one reply.
type Result struct {
	// Markup is the rendered transcript HTML.
	Markup string
	// Records are the reviewable file changes, all pending.
	Records []model.FileChangeRecord
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for reply processing diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHistory sets the decision history manager, for example one that
// persists to disk.
func WithHistory(history *state.Manager) Option {
	return func(s *Session) {
		if history != nil {
			s.history = history
		}
	}
}

// WithIDPrefix sets the prefix of record ids.
func WithIDPrefix(prefix string) Option {
	return func(s *Session) {
		s.ids = ledger.NewIDAllocator(prefix)
	}
}

// Session owns the review ledger of the current reply. It is the only
// writer of the ledger; readers receive copies. A Session is safe for
// concurrent use.
type Session struct {
	mu      sync.RWMutex
	ledger  ledger.Ledger
	markup  string
	ids     *ledger.IDAllocator
	history *state.Manager
	logger  *zap.Logger
}

// New creates an empty Session.
func New(opts ...Option) *Session {
	s := &Session{
		ids:    ledger.NewIDAllocator(""),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.history == nil {
		// A memory-only manager cannot fail to initialize.
		s.history, _ = state.New("")
	}
	return s
}

// ProcessReply renders a reply and replaces the current review with the
// file changes extracted from it. contextFiles are the files the user
// referenced in the prompt that produced the reply.
func (s *Session) ProcessReply(reply string, contextFiles []string) Result {
	markup, built := s.process(reply, contextFiles)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = built
	s.markup = markup
	if err := s.history.Reset(); err != nil {
		s.logger.Warn("failed to reset decision history", zap.Error(err))
	}

	return Result{Markup: markup, Records: built.Records()}
}

// process runs the pipeline with panic recovery so that a malformed reply
// never interrupts the conversation.
func (s *Session) process(reply string, contextFiles []string) (markup string, built ledger.Ledger) {
	defer func() {
		if r := recover(); r != nil {
			err := &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
			s.logger.Error("reply processing failed",
				zap.Error(err),
				zap.ByteString("stack", err.Stack))
			markup = fallbackMarkup(reply)
			built = ledger.Ledger{}
		}
	}()

	markup = markdown.Render(reply)
	res := ledger.BuildDetailed(reply, contextFiles, s.ids)
	s.logger.Debug("reply processed",
		zap.Int("bytes", len(reply)),
		zap.Int("candidates", res.Candidates),
		zap.Int("records", res.Ledger.Len()),
		zap.Stringer("origin", res.Origin),
		zap.Strings("context_files", contextFiles))
	return markup, res.Ledger
}

// fallbackMarkup renders text as escaped paragraphs without any formatting.
func fallbackMarkup(text string) string {
	var out []string
	for _, para := range strings.Split(strings.TrimSpace(text), "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			out = append(out, "<p>"+html.EscapeString(para)+"</p>")
		}
	}
	return strings.Join(out, "\n")
}

// Markup returns the rendered transcript of the current reply.
func (s *Session) Markup() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.markup
}

// Records returns a snapshot of the current records.
func (s *Session) Records() []model.FileChangeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Records()
}

// Record returns the record with the given id.
func (s *Session) Record(id string) (model.FileChangeRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Find(id)
}

// Summary returns the decision counts of the current records.
func (s *Session) Summary() model.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ledger.Summarize(s.ledger)
}

// Decide sets the decision of a record. It reports whether the record's
// decision changed; unknown ids and invalid decisions are ignored.
func (s *Session) Decide(id string, d model.Decision) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	before, ok := s.ledger.Find(id)
	if !ok || !d.Valid() || before.Decision == d {
		return false
	}
	s.ledger = ledger.UpdateDecision(s.ledger, id, d)

	op := state.Operation{RecordID: id, Path: before.FilePath, From: before.Decision, To: d}
	if err := s.history.Write([]state.Operation{op}); err != nil {
		s.logger.Warn("failed to record decision", zap.String("id", id), zap.Error(err))
	}
	s.logger.Debug("decision updated",
		zap.String("id", id),
		zap.String("path", before.FilePath),
		zap.String("from", string(before.Decision)),
		zap.String("to", string(d)))
	return true
}

// DecideAll sets the decision of every record as a single undoable step.
func (s *Session) DecideAll(d model.Decision) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !d.Valid() {
		return 0
	}
	var ops []state.Operation
	for _, r := range s.ledger.Records() {
		if r.Decision == d {
			continue
		}
		s.ledger = ledger.UpdateDecision(s.ledger, r.ID, d)
		ops = append(ops, state.Operation{RecordID: r.ID, Path: r.FilePath, From: r.Decision, To: d})
	}
	if err := s.history.Write(ops); err != nil {
		s.logger.Warn("failed to record decisions", zap.Error(err))
	}
	return len(ops)
}

// Undo reverts the most recent decision change. It reports whether there
// was anything to revert.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ops, err := s.history.GetOperationsToUndo()
	if err != nil {
		s.logger.Warn("failed to update decision history", zap.Error(err))
	}
	for i := len(ops) - 1; i >= 0; i-- {
		s.apply(ops[i].Inverse())
	}
	return len(ops) > 0
}

// Redo reapplies the most recently reverted decision change.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ops, err := s.history.GetOperationsToRedo()
	if err != nil {
		s.logger.Warn("failed to update decision history", zap.Error(err))
	}
	for _, op := range ops {
		s.apply(op)
	}
	return len(ops) > 0
}

func (s *Session) apply(op state.Operation) {
	s.ledger = ledger.UpdateDecision(s.ledger, op.RecordID, op.To)
}

// Clear drops the current review, as when the conversation is cleared.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = ledger.Ledger{}
	s.markup = ""
	if err := s.history.Reset(); err != nil {
		s.logger.Warn("failed to reset decision history", zap.Error(err))
	}
}

// KeptPatch joins the diff text of all kept records, separated by blank
// lines, for hand-off to whatever applies the changes.
func (s *Session) KeptPatch() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var parts []string
	for _, r := range s.ledger.Records() {
		if r.Decision == model.DecisionKept {
			parts = append(parts, r.DiffText)
		}
	}
	return strings.Join(parts, "\n\n")
}
