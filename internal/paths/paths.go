// Package paths normalizes file paths found in replies and resolves which
// file a reply is about.
package paths

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize cleans a path taken from a diff header or a reply: surrounding
// whitespace and double quotes are dropped, as is one leading "a/" or "b/"
// prefix and any leading "./".
func Normalize(p string) string {
	p = strings.TrimSpace(p)
	if len(p) >= 2 && strings.HasPrefix(p, `"`) && strings.HasSuffix(p, `"`) {
		p = p[1 : len(p)-1]
	}
	if strings.HasPrefix(p, "a/") || strings.HasPrefix(p, "b/") {
		p = p[2:]
	}
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}

// Dedupe trims the given paths, drops empty entries and removes duplicates
// while keeping the first occurrence of each.
func Dedupe(files []string) []string {
	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

var inlineCodeRegex = regexp.MustCompile("`([^`\n]+)`")

// Candidate picks the single file a reply is about from the files the user
// referenced. With one context file that file is returned. With several,
// the first one (in the given order) that appears in the reply as a literal
// path or as an inline code span is returned. A literal path only counts
// when it is not part of a longer path or file name. It reports false when no
// unambiguous file can be chosen.
func Candidate(reply string, contextFiles []string) (string, bool) {
	files := Dedupe(contextFiles)
	switch len(files) {
	case 0:
		return "", false
	case 1:
		return files[0], true
	}

	var spans []string
	for _, m := range inlineCodeRegex.FindAllStringSubmatch(reply, -1) {
		spans = append(spans, Normalize(m[1]))
	}

	for _, f := range files {
		if containsPath(reply, f) {
			return f, true
		}
		for _, span := range spans {
			if span == Normalize(f) {
				return f, true
			}
		}
	}
	return "", false
}

// containsPath reports whether path occurs in text delimited by non-path
// characters on both sides. A dot ends a path only when no path character
// follows it.
func containsPath(text, path string) bool {
	if path == "" {
		return false
	}
	for start := 0; start < len(text); {
		i := strings.Index(text[start:], path)
		if i < 0 {
			return false
		}
		i += start
		if boundaryBefore(text, i) && boundaryAfter(text, i+len(path)) {
			return true
		}
		start = i + 1
	}
	return false
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isPathRune(r) && r != '.'
}

func boundaryAfter(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	r, size := utf8.DecodeRuneInString(text[end:])
	if r == '.' {
		return !isPathRune(nextRune(text, end+size))
	}
	return !isPathRune(r)
}

func nextRune(text string, i int) rune {
	if i >= len(text) {
		return ' '
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return r
}

func isPathRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_-/\\", r)
}
