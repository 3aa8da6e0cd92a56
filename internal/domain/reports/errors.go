package reports

import "errors"

var (
	ErrInvalidYear = errors.New("year is required")
	ErrNotFound    = errors.New("job run not found")
)
