// Package source determines and reads the assistant reply to process.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

// ErrEmpty is returned when the selected source holds no text.
var ErrEmpty = errors.New("reply source is empty")

// Kind names where a reply was read from.
type Kind string

const (
	KindFile      Kind = "file"
	KindStdin     Kind = "stdin"
	KindClipboard Kind = "clipboard"
)

// Provider reads a reply from a file, piped stdin or the clipboard, in that
// order of preference.
type Provider struct {
	Stdin io.Reader
	// Piped reports whether Stdin is a pipe rather than a terminal.
	Piped     func() bool
	Clipboard func() (string, error)
}

// New creates a Provider over the process stdin and the system clipboard.
func New() *Provider {
	return &Provider{
		Stdin:     os.Stdin,
		Piped:     stdinPiped,
		Clipboard: clipboard.ReadAll,
	}
}

func stdinPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// Read returns the reply text and where it came from. A non-empty path is
// always read as a file.
func (p *Provider) Read(path string) (string, Kind, error) {
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", KindFile, fmt.Errorf("failed to read reply file: %w", err)
		}
		return nonEmpty(string(content), KindFile)
	}

	if p.Piped != nil && p.Piped() {
		content, err := io.ReadAll(p.Stdin)
		if err != nil {
			return "", KindStdin, fmt.Errorf("failed to read from stdin: %w", err)
		}
		return nonEmpty(string(content), KindStdin)
	}

	if p.Clipboard == nil {
		return "", KindClipboard, ErrEmpty
	}
	content, err := p.Clipboard()
	if err != nil {
		return "", KindClipboard, fmt.Errorf("failed to read from clipboard: %w", err)
	}
	return nonEmpty(content, KindClipboard)
}

func nonEmpty(content string, kind Kind) (string, Kind, error) {
	if strings.TrimSpace(content) == "" {
		return "", kind, fmt.Errorf("%s: %w", kind, ErrEmpty)
	}
	return content, kind, nil
}
