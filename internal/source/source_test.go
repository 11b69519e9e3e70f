package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeProvider(stdin string, piped bool, clip string, clipErr error) *Provider {
	return &Provider{
		Stdin:     strings.NewReader(stdin),
		Piped:     func() bool { return piped },
		Clipboard: func() (string, error) { return clip, clipErr },
	}
}

func TestReadPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reply.md")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o644))

	content, kind, err := fakeProvider("from stdin", true, "from clipboard", nil).Read(path)
	require.NoError(t, err)
	assert.Equal(t, "from file", content)
	assert.Equal(t, KindFile, kind)
}

func TestReadMissingFile(t *testing.T) {
	_, _, err := fakeProvider("", false, "", nil).Read(filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmpty))
}

func TestReadStdinWhenPiped(t *testing.T) {
	content, kind, err := fakeProvider("piped reply", true, "clip", nil).Read("")
	require.NoError(t, err)
	assert.Equal(t, "piped reply", content)
	assert.Equal(t, KindStdin, kind)
}

func TestReadClipboard(t *testing.T) {
	content, kind, err := fakeProvider("ignored", false, "clip reply", nil).Read("")
	require.NoError(t, err)
	assert.Equal(t, "clip reply", content)
	assert.Equal(t, KindClipboard, kind)
}

func TestReadEmptySources(t *testing.T) {
	_, _, err := fakeProvider("  \n", true, "", nil).Read("")
	assert.ErrorIs(t, err, ErrEmpty)

	_, _, err = fakeProvider("", false, "\t", nil).Read("")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestReadClipboardError(t *testing.T) {
	boom := errors.New("no clipboard utility")
	_, kind, err := fakeProvider("", false, "", boom).Read("")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, KindClipboard, kind)
}
