package markdown

import (
	"html"
	"regexp"
	"strconv"
)

var (
	codeSpanRegex    = regexp.MustCompile("`([^`]+)`")
	linkRegex        = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\s)\x00]+)\)`)
	boldStarRegex    = regexp.MustCompile(`\*\*(\S(?:.*?\S)?)\*\*`)
	boldUnderRegex   = regexp.MustCompile(`(^|[^A-Za-z0-9_])__(\S(?:.*?\S)?)__($|[^A-Za-z0-9_])`)
	italStarRegex    = regexp.MustCompile(`\*(\S(?:[^*]*?\S)?)\*`)
	italUnderRegex   = regexp.MustCompile(`(^|[^A-Za-z0-9_])_(\S(?:[^_]*?\S)?)_($|[^A-Za-z0-9_])`)
	strikeRegex      = regexp.MustCompile(`~~(\S(?:.*?\S)?)~~`)
	placeholderRegex = regexp.MustCompile("\x00([0-9]+)\x00")
)

// protector stashes finished markup behind opaque tokens so that later
// inline passes cannot rewrite it. Input never contains NUL after
// normalization, so the tokens cannot collide with reply text.
type protector struct {
	stash []string
}

func (p *protector) protect(markup string) string {
	p.stash = append(p.stash, markup)
	return "\x00" + strconv.Itoa(len(p.stash)-1) + "\x00"
}

func (p *protector) restore(s string) string {
	// Link tokens are created after code tokens and never contain them, so
	// a single pass restores everything.
	return placeholderRegex.ReplaceAllStringFunc(s, func(tok string) string {
		idx, err := strconv.Atoi(tok[1 : len(tok)-1])
		if err != nil || idx < 0 || idx >= len(p.stash) {
			return ""
		}
		return p.stash[idx]
	})
}

// renderInline escapes text and applies the inline markdown subset.
func renderInline(text string) string {
	s := html.EscapeString(text)
	p := &protector{}

	s = codeSpanRegex.ReplaceAllStringFunc(s, func(m string) string {
		inner := codeSpanRegex.FindStringSubmatch(m)[1]
		return p.protect("<code>" + inner + "</code>")
	})

	s = linkRegex.ReplaceAllStringFunc(s, func(m string) string {
		sub := linkRegex.FindStringSubmatch(m)
		open := p.protect(`<a href="` + sub[2] + `" target="_blank" rel="noopener noreferrer">`)
		return open + sub[1] + p.protect("</a>")
	})

	s = boldStarRegex.ReplaceAllString(s, "<strong>$1</strong>")
	s = boldUnderRegex.ReplaceAllString(s, "$1<strong>$2</strong>$3")
	s = italStarRegex.ReplaceAllString(s, "<em>$1</em>")
	// Boundary characters are consumed by each match, so adjacent
	// emphasis needs a second pass.
	for i := 0; i < 2; i++ {
		s = italUnderRegex.ReplaceAllString(s, "$1<em>$2</em>$3")
	}
	s = strikeRegex.ReplaceAllString(s, "<del>$1</del>")

	return p.restore(s)
}
