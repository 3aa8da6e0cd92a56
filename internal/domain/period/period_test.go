package period

import (
	"errors"
	"testing"
	"time"
)

func TestParseAcceptsBareAndQualifiedTokens(t *testing.T) {
	cases := map[string]Period{
		"2025M06":   Month(2025, 6),
		"m06":       Month(2024, 6),
		"2025Q2":    Quarter(2025, 2),
		"Q1":        Quarter(2024, 1),
		"FINAL":     Final(2024),
		"2025FINAL": Final(2025),
		" 2023q4 ":  Quarter(2023, 4),
	}
	for token, want := range cases {
		got, err := Parse(token, 2024)
		if err != nil {
			t.Fatalf("parse %q: unexpected error %v", token, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %+v, got %+v", token, want, got)
		}
	}
}

func TestParseRejectsMalformedTokens(t *testing.T) {
	for _, token := range []string{"", "Q5", "Q0", "M13", "M6", "2025", "25Q1", "2025X1", "Q", "QQ", "M+6", "2025M+6", "M-1", "Q+1", "2025Q-2"} {
		if _, err := Parse(token, 2025); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("expected ErrInvalidPeriod for %q, got %v", token, err)
		}
	}
	if _, err := Parse("Q1", 0); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected bare token without year to fail, got %v", err)
	}
}

func TestStringRoundTripsCanonicalForm(t *testing.T) {
	for _, token := range []string{"2025M06", "2025Q2", "2025FINAL"} {
		if got := MustParse(token, 0).String(); got != token {
			t.Fatalf("expected %s, got %s", token, got)
		}
	}
}

func TestCompareOrdersWindows(t *testing.T) {
	ordered := []Period{Month(2024, 12), Month(2025, 1), Month(2025, 3), Quarter(2025, 1), Month(2025, 4), Quarter(2025, 4), Final(2025), Month(2026, 1)}
	for i := 1; i < len(ordered); i++ {
		if !ordered[i-1].Before(ordered[i]) {
			t.Fatalf("expected %s before %s", ordered[i-1], ordered[i])
		}
	}
}

func TestQuarterAndEnd(t *testing.T) {
	if got := Month(2025, 5).Quarter(); got != Quarter(2025, 2) {
		t.Fatalf("expected Q2, got %s", got)
	}
	if got := Quarter(2025, 1).End(); !got.Equal(time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected quarter end %v", got)
	}
	if got := Final(2025).End(); !got.Equal(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected final end %v", got)
	}
}

func TestContains(t *testing.T) {
	q2 := Quarter(2025, 2)
	if !q2.Contains(Month(2025, 4)) || !q2.Contains(Month(2025, 6)) {
		t.Fatalf("expected Q2 to contain April and June")
	}
	if q2.Contains(Month(2025, 7)) || q2.Contains(Month(2024, 5)) {
		t.Fatalf("expected Q2 to exclude July and other years")
	}
	if !Final(2025).Contains(Quarter(2025, 4)) {
		t.Fatalf("expected FINAL to contain Q4")
	}
}
