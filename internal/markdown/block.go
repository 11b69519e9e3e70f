package markdown

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

type blockKind int

const (
	kindParagraph blockKind = iota
	kindHeading
	kindCode
	kindQuote
	kindRule
	kindList
	kindTable
)

// block is one block-level token produced by the line scanner.
type block struct {
	kind    blockKind
	level   int
	lang    string
	text    string
	ordered bool
	start   int
	items   []string
	table   *table
}

var (
	headingRegex   = regexp.MustCompile(`^(#{1,6}) (.*)$`)
	unorderedRegex = regexp.MustCompile(`^\s*[-*+] (.*)$`)
	orderedRegex   = regexp.MustCompile(`^\s*(\d+)\. (.*)$`)
	quoteRegex     = regexp.MustCompile(`^\s*> ?(.*)$`)
	ruleCharsRegex = regexp.MustCompile(`^(?:-{3,}|\*{3,}|_{3,})$`)
)

const (
	fenceMarker      = "```"
	maxOrderedNumber = 1_000_000_000
)

// scanner accumulates block tokens while walking the lines of a reply.
type scanner struct {
	blocks []block
	para   []string
	quote  []string
	list   *block

	inCode    bool
	codeLang  string
	codeLines []string
}

func scanBlocks(lines []string) []block {
	s := &scanner{}
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if s.inCode {
			if strings.HasPrefix(trimmed, fenceMarker) {
				s.closeFence()
				continue
			}
			s.codeLines = append(s.codeLines, line)
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, fenceMarker):
			s.flush()
			s.openFence(trimmed)
		case trimmed == "":
			s.flush()
		default:
			if i+1 < len(lines) {
				if t, rows := detectTable(lines[i:]); t != nil {
					s.flush()
					s.blocks = append(s.blocks, block{kind: kindTable, table: t})
					i += rows - 1
					continue
				}
			}
			s.classify(line, trimmed)
		}
	}

	if s.inCode {
		s.closeFence()
	}
	s.flush()
	return s.blocks
}

func (s *scanner) classify(line, trimmed string) {
	if m := headingRegex.FindStringSubmatch(trimmed); m != nil {
		s.flush()
		s.blocks = append(s.blocks, block{
			kind:  kindHeading,
			level: len(m[1]),
			text:  strings.TrimSpace(m[2]),
		})
		return
	}

	if isRule(trimmed) {
		s.flush()
		s.blocks = append(s.blocks, block{kind: kindRule})
		return
	}

	if m := quoteRegex.FindStringSubmatch(line); m != nil {
		s.flushParagraph()
		s.flushList()
		s.quote = append(s.quote, strings.TrimSpace(m[1]))
		return
	}

	if m := unorderedRegex.FindStringSubmatch(line); m != nil {
		s.addItem(false, 1, m[1])
		return
	}

	if m := orderedRegex.FindStringSubmatch(line); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n > maxOrderedNumber {
			n = 1
		}
		s.addItem(true, n, m[2])
		return
	}

	s.flushList()
	s.flushQuote()
	s.para = append(s.para, trimmed)
}

func (s *scanner) addItem(ordered bool, n int, text string) {
	s.flushParagraph()
	s.flushQuote()
	if s.list != nil && s.list.ordered != ordered {
		s.flushList()
	}
	if s.list == nil {
		s.list = &block{kind: kindList, ordered: ordered, start: n}
	}
	s.list.items = append(s.list.items, strings.TrimSpace(text))
}

func (s *scanner) openFence(trimmed string) {
	s.inCode = true
	s.codeLines = nil
	s.codeLang = ""
	if fields := strings.Fields(strings.TrimPrefix(trimmed, fenceMarker)); len(fields) > 0 {
		s.codeLang = strings.Trim(fields[0], "`")
	}
}

func (s *scanner) closeFence() {
	s.blocks = append(s.blocks, block{
		kind: kindCode,
		lang: s.codeLang,
		text: strings.Join(s.codeLines, "\n"),
	})
	s.inCode = false
	s.codeLines = nil
	s.codeLang = ""
}

func (s *scanner) flush() {
	s.flushParagraph()
	s.flushQuote()
	s.flushList()
}

func (s *scanner) flushParagraph() {
	if len(s.para) == 0 {
		return
	}
	s.blocks = append(s.blocks, block{kind: kindParagraph, text: strings.Join(s.para, " ")})
	s.para = nil
}

func (s *scanner) flushQuote() {
	if len(s.quote) == 0 {
		return
	}
	s.blocks = append(s.blocks, block{kind: kindQuote, text: strings.TrimSpace(strings.Join(s.quote, " "))})
	s.quote = nil
}

func (s *scanner) flushList() {
	if s.list == nil {
		return
	}
	s.blocks = append(s.blocks, *s.list)
	s.list = nil
}

// isRule reports whether a line is three or more of the same rule
// character, optionally separated by spaces.
func isRule(trimmed string) bool {
	return ruleCharsRegex.MatchString(strings.ReplaceAll(trimmed, " ", ""))
}

func (b block) html() string {
	switch b.kind {
	case kindHeading:
		return fmt.Sprintf("<h%d>%s</h%d>", b.level, renderInline(b.text), b.level)
	case kindCode:
		if b.lang == "" {
			return "<pre><code>" + html.EscapeString(b.text) + "</code></pre>"
		}
		return fmt.Sprintf(`<pre><code class="language-%s">%s</code></pre>`,
			html.EscapeString(b.lang), html.EscapeString(b.text))
	case kindQuote:
		return "<blockquote>" + renderInline(b.text) + "</blockquote>"
	case kindRule:
		return "<hr>"
	case kindList:
		return b.listHTML()
	case kindTable:
		return b.table.html()
	default:
		if b.text == "" {
			return ""
		}
		return "<p>" + renderInline(b.text) + "</p>"
	}
}

func (b block) listHTML() string {
	var sb strings.Builder
	tag := "ul"
	if b.ordered {
		tag = "ol"
		if b.start != 1 {
			fmt.Fprintf(&sb, `<ol start="%d">`, b.start)
		} else {
			sb.WriteString("<ol>")
		}
	} else {
		sb.WriteString("<ul>")
	}
	for _, item := range b.items {
		sb.WriteString("<li>")
		sb.WriteString(renderInline(item))
		sb.WriteString("</li>")
	}
	sb.WriteString("</" + tag + ">")
	return sb.String()
}
