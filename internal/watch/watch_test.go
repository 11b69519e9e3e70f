package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatcherReloadsChangedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reply.md")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0o644))

	got := make(chan string, 4)
	w, err := New(path, func(content string) { got <- content }, Config{Debounce: 40 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer func() { require.NoError(t, w.Stop()) }()

	require.NoError(t, os.WriteFile(path, []byte("second"), 0o644))

	select {
	case content := <-got:
		require.Equal(t, "second", content)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reply.md")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	got := make(chan string, 1)
	w, err := New(path, func(content string) { got <- content }, Config{Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, w.Start())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.md"), []byte("y"), 0o644))

	select {
	case content := <-got:
		t.Fatalf("unexpected reload with %q", content)
	case <-time.After(200 * time.Millisecond):
	}
	require.NoError(t, w.Stop())
}

func TestStopWithoutStart(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "reply.md"), nil, Config{})
	require.NoError(t, err)
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
