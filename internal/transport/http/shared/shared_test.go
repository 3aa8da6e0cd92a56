package shared

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestValidatorSortsIssues(t *testing.T) {
	v := NewValidator()
	v.Required("plantillaId", " ", "is required")
	v.Year("year", 12)
	v.Enum("mode", "some", "all", "selected")

	issues := v.Issues()
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %+v", issues)
	}
	if issues[0].Field != "mode" || issues[1].Field != "plantillaId" || issues[2].Field != "year" {
		t.Fatalf("unexpected order: %+v", issues)
	}
}

func TestEnumReturnsCanonicalValue(t *testing.T) {
	v := NewValidator()
	if got := v.Enum("status", " FAILED ", "running", "completed", "failed"); got != "failed" {
		t.Fatalf("expected failed, got %q", got)
	}
	if got := v.Enum("status", "", "running"); got != "" || v.HasIssues() {
		t.Fatalf("empty value should pass untouched, got %q %+v", got, v.Issues())
	}
	if got := v.Enum("status", "done", "running"); got != "" || !v.HasIssues() {
		t.Fatalf("expected rejection, got %q", got)
	}
}

func TestPeriodAndDateOrder(t *testing.T) {
	v := NewValidator()
	p, ok := v.Period("periodo", "q2", 2025)
	if !ok || p.String() != "2025Q2" {
		t.Fatalf("unexpected period %v %v", p, ok)
	}
	if _, ok := v.Period("periodo", "M+6", 2025); ok {
		t.Fatal("expected signed month to be rejected")
	}
	v.DateOrder("from", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), "to", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	issues := v.Issues()
	if len(issues) != 2 || issues[0].Field != "from" || issues[1].Field != "periodo" {
		t.Fatalf("unexpected issues %+v", issues)
	}
}

func TestQueryYear(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	year, ok := QueryYear(httptest.NewRequest("GET", "/x", nil), now)
	if !ok || year != 2025 {
		t.Fatalf("default year = %d, %v", year, ok)
	}
	year, ok = QueryYear(httptest.NewRequest("GET", "/x?year=2024", nil), now)
	if !ok || year != 2024 {
		t.Fatalf("explicit year = %d, %v", year, ok)
	}
	if _, ok := QueryYear(httptest.NewRequest("GET", "/x?year=abc", nil), now); ok {
		t.Fatal("expected invalid year")
	}
}

func TestParsePagination(t *testing.T) {
	p := ParsePagination(httptest.NewRequest("GET", "/x?limit=500&offset=-1", nil), 50, 200)
	if p.Limit != 200 || p.Offset != 0 {
		t.Fatalf("unexpected pagination %+v", p)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-31")
	if err != nil || d.Month() != time.March || d.Day() != 31 {
		t.Fatalf("unexpected %v %v", d, err)
	}
	if _, err := ParseDate("31/03/2025"); err == nil {
		t.Fatal("expected error")
	}
}
