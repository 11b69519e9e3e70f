package paths

import (
	"regexp"
	"strings"
)

const (
	mentionPrefix = "@"
	mentionAll    = "all"
)

var mentionTrailRegex = regexp.MustCompile(`[\]\[(){}.,!?;:]+$`)

// Mentions returns the files referenced in a prompt with "@path" syntax,
// restricted to the available files and in order of first mention.
// "@all" selects every available file. Magic entries such as
// "/COMMIT_MSG" are never selectable.
func Mentions(prompt string, available []string) []string {
	avail := availableFiles(available)
	allowed := make(map[string]struct{}, len(avail))
	for _, f := range avail {
		allowed[f] = struct{}{}
	}

	var mentioned []string
	seen := make(map[string]struct{})
	for _, token := range strings.Fields(prompt) {
		if !strings.HasPrefix(token, mentionPrefix) {
			continue
		}
		name := mentionTrailRegex.ReplaceAllString(token[len(mentionPrefix):], "")
		if name == "" {
			continue
		}
		if strings.EqualFold(name, mentionAll) {
			return avail
		}
		if _, ok := allowed[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		mentioned = append(mentioned, name)
	}
	return mentioned
}

func availableFiles(files []string) []string {
	var out []string
	for _, f := range Dedupe(files) {
		if strings.HasPrefix(f, "/") {
			continue
		}
		out = append(out, f)
	}
	return out
}
