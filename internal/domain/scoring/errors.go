package scoring

import "errors"

var (
	ErrUnknownOperator = errors.New("unknown comparison operator")
	ErrUnknownUnit     = errors.New("unknown goal unit")
	ErrUnknownClosing  = errors.New("unknown closing rule")
	ErrUnknownMode     = errors.New("unknown accumulation mode")
)
