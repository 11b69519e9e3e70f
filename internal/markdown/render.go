// Package markdown renders assistant replies into a fixed, escaped subset
// of HTML for the conversation transcript.
package markdown

import (
	"strings"
)

// Render converts raw reply text into HTML markup.
//
// Render never fails. Every character of the input is escaped before any
// tag is introduced, so the output can be displayed without further
// sanitization. Identical input always yields identical output.
func Render(text string) string {
	text = normalize(text)
	if text == "" {
		return ""
	}

	blocks := scanBlocks(strings.Split(text, "\n"))
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if html := b.html(); html != "" {
			out = append(out, html)
		}
	}
	return strings.Join(out, "\n")
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\x00", "\uFFFD")
	return strings.TrimSpace(text)
}
