package domain

import (
	"regexp"
	"strings"
)

// PhraseMatcher is the compiled, read-only artifact derived from the
// banned-phrase list. It is rebuilt as a whole whenever the list changes
// and swapped atomically by the settings usecase, so a reader never pairs
// an old matcher with a new phrase set.
type PhraseMatcher struct {
	re *regexp.Regexp
}

// CompilePhrases builds one case-insensitive matcher from the phrase list.
// Single-token phrases match at word boundaries; phrases containing
// whitespace or a hyphen match as literal substrings.
func CompilePhrases(phrases []string) *PhraseMatcher {
	parts := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.ContainsAny(p, " \t-") {
			parts = append(parts, regexp.QuoteMeta(p))
		} else {
			parts = append(parts, `\b`+regexp.QuoteMeta(p)+`\b`)
		}
	}
	if len(parts) == 0 {
		return &PhraseMatcher{}
	}
	return &PhraseMatcher{
		re: regexp.MustCompile(`(?i)(` + strings.Join(parts, "|") + `)`),
	}
}

// Match reports whether the text contains any banned phrase.
func (m *PhraseMatcher) Match(text string) bool {
	if m == nil || m.re == nil || text == "" {
		return false
	}
	return m.re.MatchString(text)
}

// Empty reports whether the matcher was built from an empty phrase list.
func (m *PhraseMatcher) Empty() bool {
	return m == nil || m.re == nil
}
