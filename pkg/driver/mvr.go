package driver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/insurelab/driverabstract/pkg/dates"
	"github.com/insurelab/driverabstract/pkg/pattern"
	"github.com/insurelab/driverabstract/pkg/report"
	"github.com/insurelab/driverabstract/pkg/trace"
)

// conditionPlaceholders are values the source prints when no real condition
// applies; they must not populate the conditions field.
var conditionPlaceholders = map[string]bool{
	"*/N": true, "*": true, "N": true, "None": true, "NONE": true,
}

// parseMVR runs the MVR pipeline over the full document text.
func (p *Parser) parseMVR(lib *pattern.Library, text string) *report.Record {
	rec := report.NewRecord()

	p.setField(lib, rec, text, "license_number")
	p.setField(lib, rec, text, "expiry_date")
	p.setField(lib, rec, text, "dob")
	p.setField(lib, rec, text, "issue_date")

	if v, ok := p.lookup(lib, text, "license_status"); ok {
		rec.Set("license_status", normalizeStatus(v))
	}
	if v, ok := p.lookup(lib, text, "license_class"); ok {
		rec.Set("license_class", strings.ReplaceAll(v, "*", ""))
	}

	p.setField(lib, rec, text, "demerit_points")

	if v, ok := p.lookup(lib, text, "conditions"); ok && !conditionPlaceholders[v] {
		rec.Set("conditions", v)
	}

	p.extractConvictions(lib, rec, text)

	return rec
}

// normalizeStatus maps the jurisdictions' licensing vocabulary onto the
// display vocabulary: any flavor of "licensed" or "active" means Valid,
// everything else is title-cased as found.
func normalizeStatus(v string) string {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "LICENCED", "LICENSED", "ACTIVE":
		return "Valid"
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	return strings.ToUpper(v[:1]) + strings.ToLower(v[1:])
}

// extractConvictions reads the declared conviction count and, when positive,
// tries the library's increasingly permissive sub-patterns until the count
// is met or the patterns are exhausted. Exact repeats are deduplicated. The
// exposed convictions_count always reflects the entries actually extracted;
// a disagreeing declared total is retained separately for comparison.
func (p *Parser) extractConvictions(lib *pattern.Library, rec *report.Record, text string) {
	declaredStr, _ := p.setField(lib, rec, text, "convictions_count")
	declared, err := strconv.Atoi(declaredStr)
	if err != nil || declared <= 0 {
		return
	}

	seen := make(map[report.ConvictionEntry]bool)
	var convictions []report.ConvictionEntry
	for _, rule := range lib.Convictions {
		for _, m := range rule.FindAll(text) {
			entry := report.ConvictionEntry{
				Date:        dates.Normalize(m.Date),
				Description: m.Description,
			}
			if seen[entry] {
				continue
			}
			seen[entry] = true
			convictions = append(convictions, entry)
			if len(convictions) == declared {
				break
			}
		}
		if len(convictions) == declared {
			break
		}
	}

	rec.SetConvictions(convictions)
	if len(convictions) != declared {
		rec.Set("convictions_reported", strconv.Itoa(declared))
		p.sink.Emit(trace.Event{
			Level: trace.LevelWarning, Stage: "convictions",
			Message: fmt.Sprintf("document declares %d convictions but %d extracted", declared, len(convictions)),
		})
	}
}
