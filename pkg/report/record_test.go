package report_test

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insurelab/driverabstract/pkg/report"
)

func TestFaultLabel(t *testing.T) {
	assert.Equal(t, "No", report.FaultLabel("0"))
	assert.Equal(t, "Yes", report.FaultLabel("100"))
	assert.Equal(t, "50%", report.FaultLabel("50"))
	assert.Equal(t, "25%", report.FaultLabel("25"))
}

func TestClaimTotal(t *testing.T) {
	total, ok := report.ClaimTotal("1200.00", "300.00")
	require.True(t, ok)
	assert.Equal(t, "1500.00", total)

	total, ok = report.ClaimTotal("1,200.00", "300")
	require.True(t, ok)
	assert.Equal(t, "1500.00", total)

	_, ok = report.ClaimTotal("n/a", "300.00")
	assert.False(t, ok)

	_, ok = report.ClaimTotal("1200.00", "")
	assert.False(t, ok)
}

func TestSetUnpopulated(t *testing.T) {
	r := report.NewRecord()
	r.Set("name", "")
	assert.False(t, r.Has("name"), "empty values must not create keys")

	r.Set("name", "Garnica, Ivan")
	v, ok := r.Get("name")
	require.True(t, ok)
	assert.Equal(t, "Garnica, Ivan", v)
}

func TestSetClaimsAlwaysPresent(t *testing.T) {
	r := report.NewRecord()
	r.SetClaims(nil)

	count, ok := r.Get("claims_count")
	require.True(t, ok)
	assert.Equal(t, "0", count)
	assert.NotNil(t, r.Claims)
	assert.Len(t, r.Claims, 0)
}

func TestPolicyOrdering(t *testing.T) {
	policies := []report.PolicyEntry{
		{Number: 2, StartDate: "12/16/2019", EndDate: "12/16/2020"},
		{Number: 1, StartDate: "08/08/2025", EndDate: "08/08/2026"},
	}
	report.SortPolicies(policies)

	current := report.CurrentPolicy(policies)
	require.NotNil(t, current)
	assert.Equal(t, 1, current.Number)
	assert.Equal(t, "08/08/2025", current.StartDate)

	oldest := report.OldestPolicy(policies)
	require.NotNil(t, oldest)
	assert.Equal(t, 2, oldest.Number)
	assert.Equal(t, "12/16/2019", oldest.StartDate)

	assert.Nil(t, report.CurrentPolicy(nil))
	assert.Nil(t, report.OldestPolicy(nil))
}

func TestRecordMarshalDeterministic(t *testing.T) {
	build := func() *report.Record {
		r := report.NewRecord()
		r.Set("license_number", "G6043-37788-80203")
		r.Set("dob", "02/03/1980")
		r.SetClaims([]report.ClaimEntry{{Number: 1, Date: "12/01/2020", Fault: "No", Status: "Closed"}})
		r.Policies = []report.PolicyEntry{{Number: 1, StartDate: "08/08/2025", EndDate: "08/08/2026"}}
		return r
	}

	a, err := json.Marshal(build())
	require.NoError(t, err)
	b, err := json.Marshal(build())
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Contains(t, string(a), `"claims_count":"1"`)
	assert.Contains(t, string(a), `"claims":[`)
}

func TestRecordMarshalOmitsAbsentLists(t *testing.T) {
	r := report.NewRecord()
	r.Set("license_status", "Valid")

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.NotContains(t, string(out), `"claims"`)
	assert.NotContains(t, string(out), `"policies"`)
	assert.NotContains(t, string(out), `"convictions"`)
}
