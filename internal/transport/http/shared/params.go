package shared

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// QueryYear reads ?year, falling back to the current year when absent.
// ok is false when the value is present but not a valid year.
func QueryYear(r *http.Request, now time.Time) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("year"))
	if raw == "" {
		return now.Year(), true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 9999 {
		return 0, false
	}
	return year, true
}

func (v *Validator) Year(field string, year int) {
	if year < 1900 || year > 9999 {
		v.Add(field, "must be a four digit year")
	}
}
