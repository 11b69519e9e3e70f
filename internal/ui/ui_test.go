package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/codex-router/codex.gerrit/model"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestPrintRecords(t *testing.T) {
	records := []model.FileChangeRecord{
		{ID: "fc-1", FilePath: "src/a.go", DiffText: "--- a/src/a.go\n+++ b/src/a.go\n@@ -1 +1 @@\n-x\n+y\n+z", Decision: model.DecisionPending},
	}

	var buf bytes.Buffer
	NewPrinter(&buf, nil).PrintRecords(records, true)
	out := buf.String()

	for _, want := range []string{"File changes (1)", "fc-1", "src/a.go", "+2", "-1", "@@ -1 +1 @@"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintRecordsEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, nil).PrintRecords(nil, false)
	if got := buf.String(); !strings.Contains(got, "No file changes found.") {
		t.Errorf("unexpected output %q", got)
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, nil).PrintSummary(model.Summary{Kept: 2, Undone: 1, Pending: 3})
	if got := buf.String(); !strings.Contains(got, "2 kept · 1 undone · 3 pending") {
		t.Errorf("unexpected summary %q", got)
	}
}
