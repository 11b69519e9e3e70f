package ledger

import (
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-router/codex.gerrit/model"
)

const xDiff = "diff --git a/x.txt b/x.txt\n--- a/x.txt\n+++ b/x.txt\n@@ -1,1 +1,2 @@\n-old\n+new1\n+new2"

func fenced(lang, body string) string {
	return "```" + lang + "\n" + body + "\n```\n"
}

func TestBuildSingleDiff(t *testing.T) {
	l := Build("Here you go:\n\n"+fenced("diff", xDiff), nil, NewIDAllocator(""))

	want := []model.FileChangeRecord{{
		ID:       "fc-1",
		FilePath: "x.txt",
		DiffText: xDiff,
		Decision: model.DecisionPending,
	}}
	if diff := cmp.Diff(want, l.Records()); diff != "" {
		t.Errorf("Records() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDiffFenceInListItem(t *testing.T) {
	reply := "1. Edit foo:\n   ```diff\n--- a/foo.go\n+++ b/foo.go\n@@ -1 +1 @@\n-a\n+b\n   ```\n"
	l := Build(reply, nil, NewIDAllocator(""))

	require.Equal(t, 1, l.Len())
	rec := l.Records()[0]
	assert.Equal(t, "foo.go", rec.FilePath)
	assert.Equal(t, "--- a/foo.go\n+++ b/foo.go\n@@ -1 +1 @@\n-a\n+b", rec.DiffText)
}

func TestBuildMergesSameFile(t *testing.T) {
	first := "diff --git a/y.txt b/y.txt\n--- a/y.txt\n+++ b/y.txt\n@@ -1 +1 @@\n-a\n+b"
	second := "diff --git a/y.txt b/y.txt\n--- a/y.txt\n+++ b/y.txt\n@@ -7 +7 @@\n-c\n+d"
	l := Build(fenced("diff", first)+"\nand\n\n"+fenced("diff", second), nil, NewIDAllocator(""))

	require.Equal(t, 1, l.Len())
	rec := l.Records()[0]
	assert.Equal(t, "y.txt", rec.FilePath)
	assert.Equal(t, first+"\n\n"+second, rec.DiffText)
	assert.Less(t, strings.Index(rec.DiffText, "-a"), strings.Index(rec.DiffText, "-c"))
}

func TestBuildFallbackSynthesis(t *testing.T) {
	reply := "You can write it like this:\n\n" + fenced("python", "def f():\n    return 1")
	l := Build(reply, []string{"a/b.py"}, NewIDAllocator(""))

	require.Equal(t, 1, l.Len())
	rec := l.Records()[0]
	assert.Equal(t, "a/b.py", rec.FilePath)
	assert.Equal(t, model.DecisionPending, rec.Decision)

	lines := strings.Split(rec.DiffText, "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, []string{
		"diff --git a/a/b.py b/a/b.py",
		"--- a/a/b.py",
		"+++ b/a/b.py",
		"@@ -1,0 +1,2 @@",
	}, lines[:4])
	for _, line := range lines[4:] {
		assert.True(t, strings.HasPrefix(line, "+"), "line %q should be an addition", line)
	}
}

func TestBuildFallbackNeedsUnambiguousFile(t *testing.T) {
	reply := fenced("go", "package main")
	ids := NewIDAllocator("")

	assert.Zero(t, Build(reply, nil, ids).Len())
	assert.Zero(t, Build(reply, []string{"a.go", "b.go"}, ids).Len())

	l := Build("Update `b.go`:\n\n"+reply, []string{"a.go", "b.go"}, ids)
	require.Equal(t, 1, l.Len())
	assert.Equal(t, "b.go", l.Records()[0].FilePath)
}

func TestBuildRealDiffSkipsFallback(t *testing.T) {
	reply := fenced("go", "package main") + "\n" + fenced("diff", xDiff)
	res := BuildDetailed(reply, []string{"main.go"}, NewIDAllocator(""))

	assert.Equal(t, OriginDiff, res.Origin)
	assert.Equal(t, 1, res.Candidates)
	require.Equal(t, 1, res.Ledger.Len())
	assert.Equal(t, "x.txt", res.Ledger.Records()[0].FilePath)
}

func TestBuildProseOnly(t *testing.T) {
	res := BuildDetailed("Looks good to me.\n- nothing to change\n+ ship it", []string{"a.go"}, nil)
	assert.Equal(t, OriginNone, res.Origin)
	assert.Zero(t, res.Ledger.Len())
	assert.Equal(t, "none", res.Origin.String())
}

func TestIDsAreUniqueAcrossBuilds(t *testing.T) {
	ids := NewIDAllocator("turn")
	a := Build(fenced("diff", xDiff), nil, ids)
	b := Build(fenced("diff", xDiff), nil, ids)
	assert.Equal(t, "turn-1", a.Records()[0].ID)
	assert.Equal(t, "turn-2", b.Records()[0].ID)
}

func TestIDAllocatorConcurrent(t *testing.T) {
	ids := NewIDAllocator("")
	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := ids.Next()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 800)
}

func TestUpdateDecision(t *testing.T) {
	reply := fenced("diff", xDiff) + "\n" + fenced("diff", strings.ReplaceAll(xDiff, "x.txt", "z.txt"))
	l := Build(reply, nil, NewIDAllocator(""))
	require.Equal(t, 2, l.Len())

	t.Run("copy on write", func(t *testing.T) {
		updated := UpdateDecision(l, "fc-1", model.DecisionKept)
		rec, ok := updated.Find("fc-1")
		require.True(t, ok)
		assert.Equal(t, model.DecisionKept, rec.Decision)

		orig, _ := l.Find("fc-1")
		assert.Equal(t, model.DecisionPending, orig.Decision)

		other, _ := updated.Find("fc-2")
		assert.Equal(t, model.DecisionPending, other.Decision)
	})

	t.Run("idempotent", func(t *testing.T) {
		once := UpdateDecision(l, "fc-2", model.DecisionUndone)
		twice := UpdateDecision(once, "fc-2", model.DecisionUndone)
		if diff := cmp.Diff(once.Records(), twice.Records()); diff != "" {
			t.Errorf("second update changed the ledger (-once +twice):\n%s", diff)
		}
	})

	t.Run("revisable", func(t *testing.T) {
		l2 := UpdateDecision(l, "fc-1", model.DecisionKept)
		l2 = UpdateDecision(l2, "fc-1", model.DecisionPending)
		rec, _ := l2.Find("fc-1")
		assert.Equal(t, model.DecisionPending, rec.Decision)
	})

	t.Run("unknown id and invalid decision are no-ops", func(t *testing.T) {
		assert.Equal(t, l.Records(), UpdateDecision(l, "fc-99", model.DecisionKept).Records())
		assert.Equal(t, l.Records(), UpdateDecision(l, "fc-1", model.Decision("maybe")).Records())
	})
}

func TestSummarizePartition(t *testing.T) {
	var body strings.Builder
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		body.WriteString(fenced("diff", strings.ReplaceAll(xDiff, "x.txt", name+".txt")))
		body.WriteString("\n")
	}
	l := Build(body.String(), nil, NewIDAllocator(""))
	require.Equal(t, 5, l.Len())

	decisions := []model.Decision{model.DecisionPending, model.DecisionKept, model.DecisionUndone, "bogus"}
	rng := rand.New(rand.NewSource(7))
	records := l.Records()
	for i := 0; i < 200; i++ {
		id := records[rng.Intn(len(records))].ID
		if rng.Intn(10) == 0 {
			id = "missing"
		}
		l = UpdateDecision(l, id, decisions[rng.Intn(len(decisions))])

		s := Summarize(l)
		require.Equal(t, l.Len(), s.Total(), "summary %+v does not partition %d records", s, l.Len())
	}
}

func TestRecordsReturnsCopy(t *testing.T) {
	l := Build(fenced("diff", xDiff), nil, NewIDAllocator(""))
	recs := l.Records()
	recs[0].Decision = model.DecisionKept

	rec, _ := l.Find(recs[0].ID)
	assert.Equal(t, model.DecisionPending, rec.Decision)
}
