package model

// DiffCandidateBlock is a region of a reply believed to hold unified diffs.
type DiffCandidateBlock struct {
	Content string
	// Lang is the language tag of the enclosing fence, if any.
	Lang string
}
