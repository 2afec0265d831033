// Package extract provides the generic text-extraction machinery for
// driver-history documents: ordered-candidate field matching, anchored
// section location, recurring-marker record splitting, and the claim detail
// index used for cross-reference enrichment.
package extract

import (
	"regexp"
	"strings"
)

// Field is one logical field with its ordered candidate patterns. Patterns
// run in order and the first match wins; ordering encodes precedence, most
// specific pattern first, generic fallback last.
type Field struct {
	Name string

	// Group is the capture group holding the value. Zero selects the whole
	// match, for patterns like bare e-mail addresses with no label anchor.
	Group int

	Patterns []*regexp.Regexp
}

// First evaluates the candidate patterns in order against text and returns
// the first match's selected group, trimmed. The second return is false when
// no pattern matched; the caller leaves the field unset in that case.
func (f Field) First(text string) (string, bool) {
	for _, re := range f.Patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if f.Group >= len(m) {
			continue
		}
		return strings.TrimSpace(m[f.Group]), true
	}
	return "", false
}
