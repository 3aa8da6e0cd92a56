package templates

import "errors"

var (
	ErrNotFound     = errors.New("template not found")
	ErrInvalidScope = errors.New("invalid scope type")
)
