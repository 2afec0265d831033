package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Record markers and claim-detail anchors share the #<n> shape; the
	// alternation leaves the capture group empty for detail anchors so
	// they never seed chunks.
	markerRe    = regexp.MustCompile(`(?i)Claim\s*#\d+|#(\d+)`)
	dateTokenRe = regexp.MustCompile(`\d{4}-\d{1,2}-\d{1,2}|\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
	faultRe     = regexp.MustCompile(`(?i)At-Fault\s*:\s*(\d+)\s*%`)
	// Inline annotations such as *THIRD PARTY* inside the company span.
	annotationRe = regexp.MustCompile(`\*[^*\n]*\*`)
)

// Chunk is one recurring-marker-delimited sub-span within a section: the
// marker number plus everything up to the next marker or end of section.
type Chunk struct {
	Number int
	Body   string
}

// SplitMarkers splits a section into contiguous chunks, one per #<n> marker.
// Splitting by marker occurrence rather than matching one global pattern
// keeps multi-line company/notes spans from being misread as record
// boundaries when the layout drifts.
func SplitMarkers(section string) []Chunk {
	locs := recordMarkers(section)
	if locs == nil {
		return nil
	}
	chunks := make([]Chunk, 0, len(locs))
	for i, loc := range locs {
		end := len(section)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		num, err := strconv.Atoi(section[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		chunks = append(chunks, Chunk{
			Number: num,
			Body:   strings.TrimSpace(section[loc[1]:end]),
		})
	}
	return chunks
}

// Summary is the per-chunk record shape shared by claim-style entries: the
// marker number, the first date-shaped token, the company/notes span, and
// the at-fault percentage.
type Summary struct {
	Number   int
	Date     string
	Company  string
	FaultPct string
}

// Summary derives the summary record from a chunk. The at-fault percentage
// defaults to "0" when its anchor is absent; the company span is everything
// between the date token and the at-fault anchor, first line only, with
// inline annotations stripped. The second return is false when the chunk
// holds no date-shaped token at all.
func (c Chunk) Summary() (Summary, bool) {
	dloc := dateTokenRe.FindStringIndex(c.Body)
	if dloc == nil {
		return Summary{}, false
	}
	s := Summary{
		Number:   c.Number,
		Date:     c.Body[dloc[0]:dloc[1]],
		FaultPct: "0",
	}

	rest := c.Body[dloc[1]:]
	end := len(rest)
	if floc := faultRe.FindStringSubmatchIndex(rest); floc != nil {
		s.FaultPct = rest[floc[2]:floc[3]]
		end = floc[0]
	}

	company := rest[:end]
	if i := strings.IndexByte(company, '\n'); i >= 0 {
		company = company[:i]
	}
	company = annotationRe.ReplaceAllString(company, "")
	s.Company = strings.TrimSpace(company)
	return s, true
}

// CountMarkers reports how many #<n> markers occur in the section. The
// pipelines compare this against the number of chunks that actually parsed
// and emit a soft warning on disagreement; counts exposed on the record are
// always computed from the parsed list.
func CountMarkers(section string) int {
	return len(recordMarkers(section))
}

// recordMarkers locates the #<n> record markers in a section, dropping
// Claim #<n> detail anchors so an enrichment block inside the section
// cannot masquerade as an extra record.
func recordMarkers(section string) [][]int {
	var out [][]int
	for _, loc := range markerRe.FindAllStringSubmatchIndex(section, -1) {
		if loc[2] >= 0 {
			out = append(out, loc)
		}
	}
	return out
}
