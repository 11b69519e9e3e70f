package model

// Decision is the review tag a user assigns to a file change.
type Decision string

const (
	DecisionPending Decision = "pending"
	DecisionKept    Decision = "kept"
	DecisionUndone  Decision = "undone"
)

// Valid reports whether d is one of the known decisions.
func (d Decision) Valid() bool {
	switch d {
	case DecisionPending, DecisionKept, DecisionUndone:
		return true
	}
	return false
}

// FileDiffFragment is the diff text extracted for one file.
type FileDiffFragment struct {
	FilePath string
	DiffText string
}

// FileChangeRecord is one reviewable entry of a reply's file changes.
type FileChangeRecord struct {
	ID       string   `json:"id"`
	FilePath string   `json:"filePath"`
	DiffText string   `json:"diffText"`
	Decision Decision `json:"decision"`
}

// Summary holds the decision counts of a review for display.
type Summary struct {
	Kept    int `json:"kept"`
	Undone  int `json:"undone"`
	Pending int `json:"pending"`
}

// Total returns the number of records the summary was computed over.
func (s Summary) Total() int {
	return s.Kept + s.Undone + s.Pending
}
