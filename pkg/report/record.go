// Package report defines the normalized record produced by driver-history
// document extraction.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// ParsedDocument is the overall result of one parse call.
type ParsedDocument struct {
	Success bool    `json:"success"`
	Data    *Record `json:"data,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Record is an open mapping from field name to scalar string, plus the nested
// entry lists. An absent key means "not found", not "empty": fields are only
// populated when a pattern matched (or the field has a documented default).
type Record struct {
	Fields      map[string]string
	Claims      []ClaimEntry
	Policies    []PolicyEntry
	Convictions []ConvictionEntry
}

// NewRecord returns an empty record ready for population.
func NewRecord() *Record {
	return &Record{Fields: make(map[string]string)}
}

// Set stores a scalar field. Empty values are ignored so that a pattern whose
// capture group matched nothing does not manufacture an empty key.
func (r *Record) Set(name, value string) {
	if value == "" {
		return
	}
	r.Fields[name] = value
}

// Get returns a scalar field and whether it is present.
func (r *Record) Get(name string) (string, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Has reports whether a scalar field is populated.
func (r *Record) Has(name string) bool {
	_, ok := r.Fields[name]
	return ok
}

// SetClaims stores the claim list and its derived count. The list is always
// present on the record afterwards, even when empty.
func (r *Record) SetClaims(claims []ClaimEntry) {
	if claims == nil {
		claims = []ClaimEntry{}
	}
	r.Claims = claims
	r.Fields["claims_count"] = strconv.Itoa(len(claims))
}

// SetConvictions stores the conviction list and sets convictions_count to the
// length actually extracted.
func (r *Record) SetConvictions(convictions []ConvictionEntry) {
	r.Convictions = convictions
	r.Fields["convictions_count"] = strconv.Itoa(len(convictions))
}

// MarshalJSON flattens the record into a single JSON object: scalar fields at
// the top level with the entry lists alongside them. Key order is sorted, so
// identical records serialize byte-identically.
func (r *Record) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Fields)+3)
	for k, v := range r.Fields {
		m[k] = v
	}
	if r.Claims != nil {
		m["claims"] = r.Claims
	}
	if len(r.Policies) > 0 {
		m["policies"] = r.Policies
	}
	if len(r.Convictions) > 0 {
		m["convictions"] = r.Convictions
	}
	return json.Marshal(m)
}

// ClaimEntry is one claim from the Claims section, optionally enriched with
// financial detail found elsewhere in the document.
type ClaimEntry struct {
	Number  int    `json:"number"`
	Date    string `json:"date,omitempty"`
	Company string `json:"company,omitempty"`
	Fault   string `json:"fault,omitempty"`
	Loss    string `json:"loss,omitempty"`
	Expense string `json:"expense,omitempty"`
	Total   string `json:"total,omitempty"`
	Status  string `json:"status,omitempty"`
}

// PolicyEntry is one insurance policy line from the Policies section.
type PolicyEntry struct {
	Number    int    `json:"number"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ConvictionEntry is one conviction from an MVR document.
type ConvictionEntry struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

// FaultLabel converts a source at-fault percentage into the display label:
// "No" for 0, "Yes" for 100, otherwise the literal percentage.
func FaultLabel(pct string) string {
	switch pct {
	case "0":
		return "No"
	case "100":
		return "Yes"
	default:
		return pct + "%"
	}
}

// ClaimTotal sums loss and expense formatted to two decimal places. The
// second return is false when either amount does not parse as a number, in
// which case the total is omitted from the entry.
func ClaimTotal(loss, expense string) (string, bool) {
	l, err := strconv.ParseFloat(strings.ReplaceAll(loss, ",", ""), 64)
	if err != nil {
		return "", false
	}
	e, err := strconv.ParseFloat(strings.ReplaceAll(expense, ",", ""), 64)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%.2f", l+e), true
}

// SortPolicies orders policies by ascending number, matching their order of
// appearance in the source layout (#1 is the current policy, the highest
// number the oldest).
func SortPolicies(policies []PolicyEntry) {
	sort.Slice(policies, func(i, j int) bool {
		return policies[i].Number < policies[j].Number
	})
}

// CurrentPolicy returns the lowest-numbered policy, or nil when the list is
// empty. Policies must already be sorted.
func CurrentPolicy(policies []PolicyEntry) *PolicyEntry {
	if len(policies) == 0 {
		return nil
	}
	return &policies[0]
}

// OldestPolicy returns the highest-numbered policy, or nil when the list is
// empty. Policies must already be sorted.
func OldestPolicy(policies []PolicyEntry) *PolicyEntry {
	if len(policies) == 0 {
		return nil
	}
	return &policies[len(policies)-1]
}
