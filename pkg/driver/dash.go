package driver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/insurelab/driverabstract/pkg/dates"
	"github.com/insurelab/driverabstract/pkg/extract"
	"github.com/insurelab/driverabstract/pkg/pattern"
	"github.com/insurelab/driverabstract/pkg/report"
	"github.com/insurelab/driverabstract/pkg/trace"
)

var (
	// Vehicle line layout: "Vehicle #1: 2012  TOYOTA - SIENNA  LE V6 AWD - 5TDJK3DC8CS035732"
	vehicleRe = regexp.MustCompile(`Vehicle #1:\s*(\d{4})\s+([A-Z]+)\s*-\s*([^-]+?)\s*-\s*[A-HJ-NPR-Z0-9]{17}`)
	policyRe  = regexp.MustCompile(`(\d{4}-\d{1,2}-\d{1,2})\s+to\s+(\d{4}-\d{1,2}-\d{1,2})`)
)

// parseDASH runs the DASH pipeline over the full document text.
func (p *Parser) parseDASH(lib *pattern.Library, text string) *report.Record {
	rec := report.NewRecord()

	// The report date doubles as the issue date until a more specific
	// issue/renewal anchor matches further down.
	if v, ok := p.setField(lib, rec, text, "report_date"); ok {
		rec.Set("issue_date", v)
	}

	p.setField(lib, rec, text, "name")
	p.setField(lib, rec, text, "address")
	p.setField(lib, rec, text, "license_number")
	p.setField(lib, rec, text, "dob")
	p.setField(lib, rec, text, "expiry_date")
	p.setField(lib, rec, text, "issue_date")
	p.setField(lib, rec, text, "license_class")

	if vin, ok := p.lookup(lib, text, "vin"); ok {
		rec.Set("vin", strings.ToUpper(vin))
	}
	if m := vehicleRe.FindStringSubmatch(text); m != nil {
		rec.Set("vehicle_year_make_model", fmt.Sprintf("%s %s %s", m[1], m[2], strings.TrimSpace(m[3])))
	}
	p.setField(lib, rec, text, "years_continuous_insurance")

	p.extractPolicies(lib, rec, text)

	p.setField(lib, rec, text, "license_status")
	p.setField(lib, rec, text, "demerit_points")
	p.setField(lib, rec, text, "conditions")

	p.extractClaims(lib, rec, text)

	p.setField(lib, rec, text, "email")
	p.setField(lib, rec, text, "phone")

	return rec
}

// extractPolicies populates the policy list and the four dates derived from
// it. Policy #1 is the current term; the highest number is the oldest, so
// first_insurance_date comes from the oldest policy's start.
func (p *Parser) extractPolicies(lib *pattern.Library, rec *report.Record, text string) {
	sec, ok := lib.Section("policies")
	if !ok {
		return
	}
	body, located := sec.Locate(text)
	if !located {
		p.sink.Emit(trace.Event{
			Level: trace.LevelInfo, Stage: "section", Field: sec.Name,
			Message: "section absent; using fallback term anchors",
		})
		p.policyDateFallback(lib, rec, text)
		return
	}

	var policies []report.PolicyEntry
	chunks := extract.SplitMarkers(body)
	for _, c := range chunks {
		m := policyRe.FindStringSubmatch(c.Body)
		if m == nil {
			p.sink.Emit(trace.Event{
				Level: trace.LevelWarning, Stage: "policies",
				Message: fmt.Sprintf("policy #%d did not parse", c.Number),
			})
			continue
		}
		policies = append(policies, report.PolicyEntry{
			Number:    c.Number,
			StartDate: dates.Normalize(strings.ReplaceAll(m[1], " ", "")),
			EndDate:   dates.Normalize(strings.ReplaceAll(m[2], " ", "")),
		})
	}

	if len(policies) == 0 {
		p.policyDateFallback(lib, rec, text)
		return
	}

	report.SortPolicies(policies)
	rec.Policies = policies

	if current := report.CurrentPolicy(policies); current != nil {
		rec.Set("policy_start_date", current.StartDate)
		rec.Set("policy_end_date", current.EndDate)
		rec.Set("renewal_date", current.EndDate)
	}
	if oldest := report.OldestPolicy(policies); oldest != nil {
		rec.Set("first_insurance_date", oldest.StartDate)
	}

	if n := extract.CountMarkers(body); n != len(policies) {
		p.sink.Emit(trace.Event{
			Level: trace.LevelWarning, Stage: "policies",
			Message: fmt.Sprintf("section shows %d markers but %d policies parsed", n, len(policies)),
		})
	}
}

// policyDateFallback pulls policy term dates from the detail section when
// the Policies section gave nothing.
func (p *Parser) policyDateFallback(lib *pattern.Library, rec *report.Record, text string) {
	if !rec.Has("policy_start_date") {
		if v, ok := p.lookup(lib, text, "policy_start_fallback"); ok {
			rec.Set("policy_start_date", v)
		}
	}
	if !rec.Has("policy_end_date") {
		if v, ok := p.lookup(lib, text, "policy_end_fallback"); ok {
			rec.Set("policy_end_date", v)
		}
	}
}

// extractClaims populates the claim list from the Claims section, enriching
// each entry with financial detail indexed from the whole document. The
// claims list and claims_count are always present, empty when no section or
// entries were found.
func (p *Parser) extractClaims(lib *pattern.Library, rec *report.Record, text string) {
	claims := []report.ClaimEntry{}
	defer func() { rec.SetClaims(claims) }()

	sec, ok := lib.Section("claims")
	if !ok {
		return
	}
	body, located := sec.Locate(text)
	if !located {
		p.sink.Emit(trace.Event{
			Level: trace.LevelInfo, Stage: "section", Field: sec.Name,
			Message: "section absent; no claims extracted",
		})
		return
	}

	details := extract.IndexClaimDetails(text)
	chunks := extract.SplitMarkers(body)
	for _, c := range chunks {
		sum, ok := c.Summary()
		if !ok {
			p.sink.Emit(trace.Event{
				Level: trace.LevelWarning, Stage: "claims",
				Message: fmt.Sprintf("claim #%d chunk did not parse", c.Number),
			})
			continue
		}

		entry := report.ClaimEntry{
			Number:  sum.Number,
			Date:    dates.Normalize(sum.Date),
			Company: sum.Company,
			Fault:   report.FaultLabel(sum.FaultPct),
			Status:  "Closed",
		}
		if d, found := details.Lookup(sum.Number); found {
			entry.Loss = d.Loss
			entry.Expense = d.Expense
			if d.Status != "" {
				entry.Status = d.Status
			}
			if total, ok := report.ClaimTotal(d.Loss, d.Expense); ok {
				entry.Total = total
			}
		} else {
			p.sink.Emit(trace.Event{
				Level: trace.LevelInfo, Stage: "claims",
				Message: fmt.Sprintf("no detail block for claim #%d", sum.Number),
			})
		}
		claims = append(claims, entry)
	}

	if n := extract.CountMarkers(body); n != len(claims) {
		p.sink.Emit(trace.Event{
			Level: trace.LevelWarning, Stage: "claims",
			Message: fmt.Sprintf("section shows %d markers but %d claims parsed", n, len(claims)),
		})
	}
}
