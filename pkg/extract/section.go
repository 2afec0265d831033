package extract

import "regexp"

// Section isolates a bounded region of the document between a start anchor
// and the first of several end anchors. Multi-page text is concatenated
// before this stage runs, so anchors are matched across page boundaries.
type Section struct {
	Name  string
	Start *regexp.Regexp
	Ends  []*regexp.Regexp
}

// Locate returns the substring between the start anchor (exclusive) and the
// earliest end anchor (exclusive). When no end anchor matches, the section
// runs to end of document. When the start anchor is absent the section is
// absent: the second return is false and dependent extraction is skipped.
func (s Section) Locate(text string) (string, bool) {
	loc := s.Start.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	body := text[loc[1]:]
	cut := len(body)
	for _, end := range s.Ends {
		if m := end.FindStringIndex(body); m != nil && m[0] < cut {
			cut = m[0]
		}
	}
	return body[:cut], true
}
