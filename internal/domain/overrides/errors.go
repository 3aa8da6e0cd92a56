package overrides

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound      = errors.New("override not found")
	ErrInvalidWeight = errors.New("weight must be between 0 and 100")
	ErrInvalidTarget = errors.New("target must not be negative")
	ErrInvalidKey    = errors.New("employee, template and year are required")
)

func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidWeight), errors.Is(err, ErrInvalidTarget), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
