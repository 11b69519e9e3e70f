package panel

import (
	"github.com/codex-router/codex.gerrit/internal/ledger"
	"github.com/codex-router/codex.gerrit/internal/markdown"
	"github.com/codex-router/codex.gerrit/model"
)

// Render converts reply text into escaped HTML markup for a transcript.
func Render(text string) string {
	return markdown.Render(text)
}

// Extract returns the file changes of a single reply, all pending, with ids
// local to this call.
func Extract(reply string, contextFiles []string) []model.FileChangeRecord {
	return ledger.Build(reply, contextFiles, ledger.NewIDAllocator("")).Records()
}
