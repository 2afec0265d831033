package driver

import (
	"bytes"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/insurelab/driverabstract/pkg/trace"
)

const sampleDASH = `DRIVER REPORT
Garnica, Ivan
Report Date: 2025-11-05 10:43:31 EST
Address: 201-1480 Eglinton Ave W ,Toronto,ON M6C2G5 Number of Vehicles: 1
DLN: G6043-37788-80203
Date of Birth: 1980-02-03
Expiry Date: 03/02/2030
Class: G
Status: Valid
Demerit Points: 2
Conditions: Corrective lenses
Vehicle #1: 2012  TOYOTA - SIENNA  LE V6 AWD - 5TDJK3DC8CS035732
Years of Continuous Insurance: 8
Policies
#1 2025-08-08 to 2026-08-08 Aviva Insurance
#2 2019-12-16 to 2020-12-16 Intact Insurance
Claims
#1 Date of Loss 2020-12-01 Aviva Insurance Company of Canada  At-Fault : 0%
Previous Inquiries
2024-03-01 Broker inquiry
Claim #1 Date of Loss 2020-12-01
Total Loss: $1,200.00
Total Expense: $300.00
Phone: 416-555-0187
ivan.garnica@example.com
`

func newTestParser(t *testing.T, opts ...Option) *Parser {
	t.Helper()
	p, err := NewParser(opts...)
	if err != nil {
		t.Fatalf("NewParser() failed: %v", err)
	}
	return p
}

func mustField(t *testing.T, doc map[string]string, name, want string) {
	t.Helper()
	got, ok := doc[name]
	if !ok {
		t.Fatalf("field %q unset, want %q", name, want)
	}
	if got != want {
		t.Errorf("field %q = %q, want %q", name, got, want)
	}
}

func TestParseDASH(t *testing.T) {
	p := newTestParser(t)
	doc := p.Parse(KindDASH, sampleDASH)
	if !doc.Success {
		t.Fatalf("Parse() failed: %s", doc.Error)
	}
	rec := doc.Data

	mustField(t, rec.Fields, "report_date", "11/05/2025")
	mustField(t, rec.Fields, "issue_date", "11/05/2025")
	mustField(t, rec.Fields, "name", "Garnica, Ivan")
	mustField(t, rec.Fields, "address", "201-1480 Eglinton Ave W ,Toronto,ON M6C2G5")
	mustField(t, rec.Fields, "license_number", "G6043-37788-80203")
	mustField(t, rec.Fields, "dob", "02/03/1980")
	mustField(t, rec.Fields, "expiry_date", "03/02/2030")
	mustField(t, rec.Fields, "license_class", "G")
	mustField(t, rec.Fields, "vin", "5TDJK3DC8CS035732")
	mustField(t, rec.Fields, "vehicle_year_make_model", "2012 TOYOTA SIENNA  LE V6 AWD")
	mustField(t, rec.Fields, "years_continuous_insurance", "8")
	mustField(t, rec.Fields, "license_status", "Valid")
	mustField(t, rec.Fields, "demerit_points", "2")
	mustField(t, rec.Fields, "conditions", "Corrective lenses")
	mustField(t, rec.Fields, "email", "ivan.garnica@example.com")
	mustField(t, rec.Fields, "phone", "416-555-0187")
}

func TestParseDASHPolicyDerivedDates(t *testing.T) {
	p := newTestParser(t)
	doc := p.Parse(KindDASH, sampleDASH)
	if !doc.Success {
		t.Fatalf("Parse() failed: %s", doc.Error)
	}
	rec := doc.Data

	if len(rec.Policies) != 2 {
		t.Fatalf("got %d policies, want 2", len(rec.Policies))
	}
	if rec.Policies[0].Number != 1 || rec.Policies[1].Number != 2 {
		t.Errorf("policies not ordered by number: %+v", rec.Policies)
	}

	mustField(t, rec.Fields, "policy_start_date", "08/08/2025")
	mustField(t, rec.Fields, "policy_end_date", "08/08/2026")
	mustField(t, rec.Fields, "renewal_date", "08/08/2026")
	mustField(t, rec.Fields, "first_insurance_date", "12/16/2019")
}

func TestParseDASHClaimEnrichment(t *testing.T) {
	p := newTestParser(t)
	doc := p.Parse(KindDASH, sampleDASH)
	if !doc.Success {
		t.Fatalf("Parse() failed: %s", doc.Error)
	}
	rec := doc.Data

	mustField(t, rec.Fields, "claims_count", "1")
	if len(rec.Claims) != 1 {
		t.Fatalf("got %d claims, want 1", len(rec.Claims))
	}

	claim := rec.Claims[0]
	if claim.Number != 1 {
		t.Errorf("Number = %d", claim.Number)
	}
	if claim.Date != "12/01/2020" {
		t.Errorf("Date = %q, want 12/01/2020", claim.Date)
	}
	if claim.Company != "Aviva Insurance Company of Canada" {
		t.Errorf("Company = %q", claim.Company)
	}
	if claim.Fault != "No" {
		t.Errorf("Fault = %q, want No", claim.Fault)
	}
	if claim.Loss != "1200.00" || claim.Expense != "300.00" {
		t.Errorf("Loss/Expense = %q/%q", claim.Loss, claim.Expense)
	}
	if claim.Total != "1500.00" {
		t.Errorf("Total = %q, want 1500.00", claim.Total)
	}
	if claim.Status != "Closed" {
		t.Errorf("Status = %q, want Closed default", claim.Status)
	}
}

// Some layouts place the claim detail block inside the Claims region
// itself, before Previous Inquiries. The Claim #<n> anchor must enrich the
// existing entry, not spawn a second one.
func TestParseDASHDetailBlockInsideClaimsSection(t *testing.T) {
	text := `DRIVER REPORT
Garnica, Ivan
DLN: G6043-37788-80203
Claims
#1 Date of Loss 2020-12-01 Aviva Insurance Company of Canada  At-Fault : 0%
Claim #1 Date of Loss 2020-12-01
Total Loss: $1,200.00
Total Expense: $300.00
Previous Inquiries
2024-03-01 Broker inquiry
`

	p := newTestParser(t)
	doc := p.Parse(KindDASH, text)
	if !doc.Success {
		t.Fatalf("Parse() failed: %s", doc.Error)
	}
	rec := doc.Data

	mustField(t, rec.Fields, "claims_count", "1")
	if len(rec.Claims) != 1 {
		t.Fatalf("got %d claims, want 1: %+v", len(rec.Claims), rec.Claims)
	}
	claim := rec.Claims[0]
	if claim.Company != "Aviva Insurance Company of Canada" {
		t.Errorf("Company = %q", claim.Company)
	}
	if claim.Loss != "1200.00" || claim.Expense != "300.00" || claim.Total != "1500.00" {
		t.Errorf("Loss/Expense/Total = %q/%q/%q", claim.Loss, claim.Expense, claim.Total)
	}
}

func TestParseDASHNoClaimsSection(t *testing.T) {
	text := "DRIVER REPORT\nNobody, Jane\nDLN: A1111-22222-33333\n"

	p := newTestParser(t)
	doc := p.Parse(KindDASH, text)
	if !doc.Success {
		t.Fatalf("Parse() failed: %s", doc.Error)
	}
	rec := doc.Data

	mustField(t, rec.Fields, "claims_count", "0")
	if rec.Claims == nil || len(rec.Claims) != 0 {
		t.Errorf("Claims = %v, want present and empty", rec.Claims)
	}
}

func TestParseDASHPolicyFallbackDates(t *testing.T) {
	text := `DRIVER REPORT
Nobody, Jane
Start of the Earliest Term: 2018-01-01
End of the Latest Term: 2024-06-30
`

	p := newTestParser(t)
	doc := p.Parse(KindDASH, text)
	if !doc.Success {
		t.Fatalf("Parse() failed: %s", doc.Error)
	}
	rec := doc.Data

	mustField(t, rec.Fields, "policy_start_date", "01/01/2018")
	mustField(t, rec.Fields, "policy_end_date", "06/30/2024")
	if rec.Has("first_insurance_date") {
		t.Error("first_insurance_date should stay unset without a Policies section")
	}
}

func TestParseEmptyText(t *testing.T) {
	p := newTestParser(t)
	for _, kind := range []Kind{KindDASH, KindMVR} {
		doc := p.Parse(kind, "  \n ")
		if doc.Success {
			t.Errorf("Parse(%s) on empty text should fail", kind)
		}
		if doc.Error == "" {
			t.Errorf("Parse(%s) should carry a descriptive error", kind)
		}
		if doc.Data != nil {
			t.Errorf("Parse(%s) must not return a partial record on failure", kind)
		}
	}
}

func TestParseDeterministic(t *testing.T) {
	p := newTestParser(t)

	run := func() []byte {
		doc := p.Parse(KindDASH, sampleDASH)
		if !doc.Success {
			t.Fatalf("Parse() failed: %s", doc.Error)
		}
		out, err := json.Marshal(doc.Data)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		return out
	}

	first := run()
	second := run()
	if !bytes.Equal(first, second) {
		t.Errorf("records differ across runs:\n%s\n%s", first, second)
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"dash": KindDASH, "MVR": KindMVR, " Dash ": KindDASH} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseKind("pdf"); err == nil {
		t.Error("ParseKind should reject unknown kinds")
	}
}

func TestParseDASHEmitsTraceEvents(t *testing.T) {
	c := &trace.Collector{}
	p := newTestParser(t, WithSink(c))

	if doc := p.Parse(KindDASH, sampleDASH); !doc.Success {
		t.Fatalf("Parse() failed: %s", doc.Error)
	}

	events := c.Events()
	if len(events) == 0 {
		t.Fatal("expected trace events during extraction")
	}
	var sawFieldStage bool
	for _, e := range events {
		if e.Stage == "field" && e.Field == "license_number" {
			sawFieldStage = true
		}
	}
	if !sawFieldStage {
		t.Error("expected a field event for license_number")
	}
}
