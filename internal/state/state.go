// Package state keeps the undo/redo history of review decisions.
package state

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codex-router/codex.gerrit/model"
)

const (
	stateDirName  = ".codexpanel"
	stateFileName = "review.state"
)

// Operation is one decision change on a file change record.
type Operation struct {
	RecordID string
	Path     string
	From     model.Decision
	To       model.Decision
}

// Inverse returns the operation that reverts o.
func (o Operation) Inverse() Operation {
	return Operation{RecordID: o.RecordID, Path: o.Path, From: o.To, To: o.From}
}

// HistoryEntry is one user action, possibly touching several records.
type HistoryEntry struct {
	ID         uuid.UUID
	Timestamp  int64
	Operations []Operation
}

// State is the whole history with a pointer to the last applied entry.
type State struct {
	History      []HistoryEntry
	CurrentIndex int
}

// Manager owns the decision history. When created with a directory it
// mirrors the history to a state file there after every change.
type Manager struct {
	statePath string
	state     *State
	StateDir  string
}

// findGitRoot finds the root of the git repository.
func findGitRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// DefaultDir returns the state directory at the root of the current git
// repository, or under the working directory outside of one.
func DefaultDir() (string, error) {
	rootDir, err := findGitRoot()
	if err != nil {
		rootDir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
	}
	return filepath.Join(rootDir, stateDirName), nil
}

// New creates a state manager. An empty dir keeps the history in memory
// only; otherwise an existing state file in dir is loaded.
func New(dir string) (*Manager, error) {
	m := &Manager{state: emptyState()}
	if dir == "" {
		return m, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create state directory: %w", err)
	}
	m.StateDir = dir
	m.statePath = filepath.Join(dir, stateFileName)
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func emptyState() *State {
	return &State{CurrentIndex: -1, History: []HistoryEntry{}}
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = emptyState()
			return nil
		}
		return fmt.Errorf("could not read state file: %w", err)
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	blocks := strings.Split(content, "\n\n")
	if len(blocks) == 0 || strings.TrimSpace(blocks[0]) == "" {
		m.state = emptyState()
		return nil
	}

	// First block is the current index.
	index, err := strconv.Atoi(strings.TrimSpace(blocks[0]))
	if err != nil {
		return fmt.Errorf("invalid state file: could not parse current index: %w", err)
	}

	st := &State{CurrentIndex: index, History: []HistoryEntry{}}
	for _, block := range blocks[1:] {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		entry, err := parseEntry(strings.Split(block, "\n"))
		if err != nil {
			return fmt.Errorf("invalid state file: %w", err)
		}
		st.History = append(st.History, entry)
	}

	if st.CurrentIndex < -1 || st.CurrentIndex >= len(st.History) {
		return fmt.Errorf("invalid state file: index %d out of range", st.CurrentIndex)
	}
	m.state = st
	return nil
}

func parseEntry(lines []string) (HistoryEntry, error) {
	header := strings.Fields(lines[0])
	if len(header) != 2 {
		return HistoryEntry{}, fmt.Errorf("malformed entry header %q", lines[0])
	}
	ts, err := strconv.ParseInt(header[0], 10, 64)
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("could not parse timestamp from %q: %w", header[0], err)
	}
	id, err := uuid.Parse(header[1])
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("could not parse entry id %q: %w", header[1], err)
	}

	entry := HistoryEntry{ID: id, Timestamp: ts}
	for _, line := range lines[1:] {
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			return HistoryEntry{}, fmt.Errorf("incomplete operation record %q", line)
		}
		for i, f := range fields {
			fields[i] = unquoteField(f)
		}
		op := Operation{
			RecordID: fields[0],
			Path:     fields[1],
			From:     model.Decision(fields[2]),
			To:       model.Decision(fields[3]),
		}
		if !op.From.Valid() || !op.To.Valid() {
			return HistoryEntry{}, fmt.Errorf("unknown decision in %q", line)
		}
		entry.Operations = append(entry.Operations, op)
	}
	return entry, nil
}

// unquoteField decodes a quoted operation field. Unquoted fields are taken
// as is.
func unquoteField(f string) string {
	if v, err := strconv.Unquote(f); err == nil {
		return v
	}
	return f
}

func (m *Manager) save() error {
	if m.statePath == "" {
		return nil
	}

	blocks := []string{strconv.Itoa(m.state.CurrentIndex)}
	for _, entry := range m.state.History {
		var b strings.Builder
		fmt.Fprintf(&b, "%d %s", entry.Timestamp, entry.ID)
		for _, op := range entry.Operations {
			fmt.Fprintf(&b, "\n%s\t%s\t%s\t%s",
				strconv.Quote(op.RecordID),
				strconv.Quote(op.Path),
				strconv.Quote(string(op.From)),
				strconv.Quote(string(op.To)))
		}
		blocks = append(blocks, b.String())
	}

	content := strings.Join(blocks, "\n\n") + "\n"
	if err := os.WriteFile(m.statePath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("could not write state file: %w", err)
	}
	return nil
}

// Write adds a new set of operations to the history, discarding any
// entries that were undone before.
func (m *Manager) Write(operations []Operation) error {
	if len(operations) == 0 {
		return nil
	}
	if m.state.CurrentIndex < len(m.state.History)-1 {
		m.state.History = m.state.History[:m.state.CurrentIndex+1]
	}

	m.state.History = append(m.state.History, HistoryEntry{
		ID:         uuid.New(),
		Timestamp:  time.Now().UTC().Unix(),
		Operations: operations,
	})
	m.state.CurrentIndex++
	return m.save()
}

// GetOperationsToUndo returns the last applied operations and moves the
// history pointer back. It returns nil when there is nothing to undo.
func (m *Manager) GetOperationsToUndo() ([]Operation, error) {
	if m.state.CurrentIndex < 0 {
		return nil, nil
	}
	ops := m.state.History[m.state.CurrentIndex].Operations
	m.state.CurrentIndex--
	return ops, m.save()
}

// GetOperationsToRedo returns the next undone operations and moves the
// history pointer forward. It returns nil when there is nothing to redo.
func (m *Manager) GetOperationsToRedo() ([]Operation, error) {
	nextIndex := m.state.CurrentIndex + 1
	if nextIndex >= len(m.state.History) {
		return nil, nil
	}
	m.state.CurrentIndex = nextIndex
	return m.state.History[nextIndex].Operations, m.save()
}

// CanUndo reports whether an entry is available to undo.
func (m *Manager) CanUndo() bool {
	return m.state.CurrentIndex >= 0
}

// CanRedo reports whether an undone entry is available to redo.
func (m *Manager) CanRedo() bool {
	return m.state.CurrentIndex+1 < len(m.state.History)
}

// Reset clears the whole history.
func (m *Manager) Reset() error {
	m.state = emptyState()
	return m.save()
}

// Entries returns the applied history entries, oldest first.
func (m *Manager) Entries() []HistoryEntry {
	out := make([]HistoryEntry, m.state.CurrentIndex+1)
	copy(out, m.state.History[:m.state.CurrentIndex+1])
	return out
}
