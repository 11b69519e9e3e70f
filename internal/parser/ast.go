package parser

import (
	"bytes"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// CodeBlock represents a parsed fenced code block from markdown content.
type CodeBlock struct {
	// Lang is the language identifier of the code block (e.g., "go", "diff").
	Lang string
	// Content is the raw text inside the code block.
	Content string
}

// ExtractCodeBlocks uses a markdown AST to find all fenced code blocks in
// document order. Fences nested in lists or blockquotes are included.
//
// The body of a fence is taken from the source lines between its opening
// and closing fence lines when both can be found. A fence opened inside a
// list item keeps its unindented body this way, where container rules
// would end the block early.
func ExtractCodeBlocks(source []byte) []CodeBlock {
	var blocks []CodeBlock
	root := goldmark.DefaultParser().Parse(text.NewReader(source))
	idx := newLineIndex(source)
	consumed := -1

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		fenced, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		open := idx.openingLine(fenced)
		if open >= 0 && open <= consumed {
			// Already part of an earlier fence, e.g. its closing line.
			return ast.WalkSkipChildren, nil
		}

		var block CodeBlock
		if fenced.Info != nil {
			block.Lang = string(fenced.Language(source))
		}

		if body, closing, ok := idx.rawBody(open); ok {
			block.Content = body
			consumed = closing
		} else {
			var content bytes.Buffer
			lines := fenced.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				content.Write(line.Value(source))
			}
			block.Content = content.String()
		}

		blocks = append(blocks, block)
		return ast.WalkSkipChildren, nil
	}

	// The walker never returns an error.
	_ = ast.Walk(root, walker)
	return blocks
}

// lineIndex maps byte offsets of a source to its lines.
type lineIndex struct {
	lines  []string
	starts []int
}

func newLineIndex(source []byte) lineIndex {
	lines := strings.Split(string(source), "\n")
	starts := make([]int, len(lines))
	offset := 0
	for i, line := range lines {
		starts[i] = offset
		offset += len(line) + 1
	}
	return lineIndex{lines: lines, starts: starts}
}

func (idx lineIndex) lineOf(offset int) int {
	return sort.Search(len(idx.starts), func(i int) bool { return idx.starts[i] > offset }) - 1
}

// openingLine returns the line holding the fence's opening delimiter, or -1.
func (idx lineIndex) openingLine(fenced *ast.FencedCodeBlock) int {
	if fenced.Info != nil {
		return idx.lineOf(fenced.Info.Segment.Start)
	}
	if fenced.Lines().Len() > 0 {
		return idx.lineOf(fenced.Lines().At(0).Start) - 1
	}
	return -1
}

// rawBody returns the lines after the opening fence at line open up to the
// matching closing fence, with the opening fence's indentation removed.
func (idx lineIndex) rawBody(open int) (string, int, bool) {
	if open < 0 || open >= len(idx.lines) {
		return "", 0, false
	}
	opening := idx.lines[open]
	trimmed := strings.TrimLeft(opening, " ")
	marker := fenceMarker(trimmed)
	if marker == "" {
		return "", 0, false
	}
	indent := len(opening) - len(trimmed)

	for i := open + 1; i < len(idx.lines); i++ {
		if !isClosingFence(idx.lines[i], marker) {
			continue
		}
		var b strings.Builder
		for _, line := range idx.lines[open+1 : i] {
			b.WriteString(stripIndent(line, indent))
			b.WriteString("\n")
		}
		return b.String(), i, true
	}
	return "", 0, false
}

// fenceMarker returns the run of three or more backticks or tildes that
// starts line, or "".
func fenceMarker(line string) string {
	if line == "" || (line[0] != '`' && line[0] != '~') {
		return ""
	}
	n := 0
	for n < len(line) && line[n] == line[0] {
		n++
	}
	if n < 3 {
		return ""
	}
	return line[:n]
}

func isClosingFence(line, marker string) bool {
	t := strings.TrimSpace(line)
	return len(t) >= len(marker) && strings.Trim(t, marker[:1]) == ""
}

func stripIndent(line string, indent int) string {
	n := 0
	for n < indent && n < len(line) && line[n] == ' ' {
		n++
	}
	return line[n:]
}
