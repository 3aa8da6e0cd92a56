// Package period parses and orders the reporting-window tokens used by
// evaluations and milestones: monthly (2025M06), quarterly (2025Q2) and the
// yearly closing window (FINAL / 2025FINAL).
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Kind int

const (
	KindMonth Kind = iota + 1
	KindQuarter
	KindFinal
)

func (k Kind) String() string {
	switch k {
	case KindMonth:
		return "month"
	case KindQuarter:
		return "quarter"
	case KindFinal:
		return "final"
	}
	return "unknown"
}

const finalToken = "FINAL"

var ErrInvalidPeriod = errors.New("invalid period token")

type Period struct {
	Year  int
	Kind  Kind
	Index int
}

// Parse accepts bare (Q1, M06, FINAL) and year-qualified (2025Q1, 2025M06,
// 2025FINAL) tokens. Bare tokens take the supplied year.
func Parse(token string, year int) (Period, error) {
	raw := strings.ToUpper(strings.TrimSpace(token))
	if raw == "" {
		return Period{}, fmt.Errorf("%w: empty", ErrInvalidPeriod)
	}

	digits := 0
	for digits < len(raw) && raw[digits] >= '0' && raw[digits] <= '9' {
		digits++
	}
	if digits > 0 {
		if digits != 4 {
			return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, token)
		}
		parsed, err := strconv.Atoi(raw[:4])
		if err != nil {
			return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, token)
		}
		year = parsed
		raw = raw[4:]
	}
	if year < 1900 || year > 9999 {
		return Period{}, fmt.Errorf("%w: year required for %q", ErrInvalidPeriod, token)
	}

	if raw == finalToken {
		return Period{Year: year, Kind: KindFinal}, nil
	}
	if len(raw) < 2 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, token)
	}

	if !allDigits(raw[1:]) {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, token)
	}
	index, err := strconv.Atoi(raw[1:])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, token)
	}
	switch raw[0] {
	case 'M':
		if len(raw) != 3 || index < 1 || index > 12 {
			return Period{}, fmt.Errorf("%w: month out of range in %q", ErrInvalidPeriod, token)
		}
		return Period{Year: year, Kind: KindMonth, Index: index}, nil
	case 'Q':
		if len(raw) != 2 || index < 1 || index > 4 {
			return Period{}, fmt.Errorf("%w: quarter out of range in %q", ErrInvalidPeriod, token)
		}
		return Period{Year: year, Kind: KindQuarter, Index: index}, nil
	}
	return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, token)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// MustParse is Parse for literals in tests and defaults.
func MustParse(token string, year int) Period {
	p, err := Parse(token, year)
	if err != nil {
		panic(err)
	}
	return p
}

func Month(year, month int) Period {
	return Period{Year: year, Kind: KindMonth, Index: month}
}

func Quarter(year, quarter int) Period {
	return Period{Year: year, Kind: KindQuarter, Index: quarter}
}

func Final(year int) Period {
	return Period{Year: year, Kind: KindFinal}
}

func (p Period) String() string {
	switch p.Kind {
	case KindMonth:
		return fmt.Sprintf("%04dM%02d", p.Year, p.Index)
	case KindQuarter:
		return fmt.Sprintf("%04dQ%d", p.Year, p.Index)
	case KindFinal:
		return fmt.Sprintf("%04d%s", p.Year, finalToken)
	}
	return ""
}

func (p Period) IsZero() bool {
	return p.Kind == 0
}

func (p Period) IsFinal() bool {
	return p.Kind == KindFinal
}

// endMonth is the last calendar month covered by the window; FINAL sorts
// after December.
func (p Period) endMonth() int {
	switch p.Kind {
	case KindMonth:
		return p.Index
	case KindQuarter:
		return p.Index * 3
	case KindFinal:
		return 13
	}
	return 0
}

// Compare orders periods by year, then by the month their window ends in.
// A month sorts before the quarter that ends with it.
func (p Period) Compare(other Period) int {
	if p.Year != other.Year {
		return cmpInt(p.Year, other.Year)
	}
	if c := cmpInt(p.endMonth(), other.endMonth()); c != 0 {
		return c
	}
	return cmpInt(int(p.Kind), int(other.Kind))
}

func (p Period) Before(other Period) bool {
	return p.Compare(other) < 0
}

func (p Period) Equal(other Period) bool {
	return p == other
}

// Quarter returns the quarter containing a monthly period, the period itself
// for quarters, and the zero value for FINAL.
func (p Period) Quarter() Period {
	switch p.Kind {
	case KindMonth:
		return Quarter(p.Year, (p.Index-1)/3+1)
	case KindQuarter:
		return p
	}
	return Period{}
}

// End returns the last calendar day covered by the period.
func (p Period) End() time.Time {
	month := p.endMonth()
	if month > 12 {
		month = 12
	}
	return time.Date(p.Year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText only accepts year-qualified tokens; bare tokens need a year
// from context and go through Parse. Empty text is the zero Period.
func (p *Period) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*p = Period{}
		return nil
	}
	parsed, err := Parse(string(text), 0)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Contains reports whether other lies inside p's window. FINAL contains every
// month and quarter of its year.
func (p Period) Contains(other Period) bool {
	if p.Year != other.Year || other.IsZero() {
		return false
	}
	switch p.Kind {
	case KindFinal:
		return true
	case KindQuarter:
		return other.Quarter() == p
	case KindMonth:
		return other == p
	}
	return false
}
