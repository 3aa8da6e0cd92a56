package scoring

import (
	"fmt"
	"strings"

	"hrperf/internal/domain/templates"
)

// Compliance is the outcome of checking one measurement against its goal.
// Unmeasured is distinct from NotMet: the goal simply has no value yet.
type Compliance int

const (
	ComplianceUnmeasured Compliance = iota
	ComplianceMet
	ComplianceNotMet
)

func (c Compliance) Met() bool {
	return c == ComplianceMet
}

func (c Compliance) MarshalJSON() ([]byte, error) {
	switch c {
	case ComplianceMet:
		return []byte("true"), nil
	case ComplianceNotMet:
		return []byte("false"), nil
	}
	return []byte("null"), nil
}

func (c *Compliance) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case "true":
		*c = ComplianceMet
	case "false":
		*c = ComplianceNotMet
	case "null", "":
		*c = ComplianceUnmeasured
	default:
		return fmt.Errorf("invalid compliance value %s", data)
	}
	return nil
}

// ParseOperator normalizes the operator spellings found in templates.
func ParseOperator(raw string) (templates.Operator, error) {
	switch strings.TrimSpace(raw) {
	case ">=", "≥", "=>":
		return templates.OpGTE, nil
	case "<=", "≤", "=<":
		return templates.OpLTE, nil
	case "=", "==":
		return templates.OpEQ, nil
	case ">":
		return templates.OpGT, nil
	case "<":
		return templates.OpLT, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperator, raw)
}

// EvaluateCompliance decides whether result satisfies expected under op.
// Boolean-compliance goals ignore expected and op and use the result itself.
func EvaluateCompliance(result *float64, expected float64, op templates.Operator, unit templates.Unit) (Compliance, error) {
	switch unit {
	case templates.UnitBoolean:
		if result != nil && *result != 0 {
			return ComplianceMet, nil
		}
		return ComplianceNotMet, nil
	case templates.UnitPercentage, templates.UnitNumeric, "":
	default:
		return ComplianceUnmeasured, fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
	}

	normalized, err := ParseOperator(string(op))
	if err != nil {
		return ComplianceUnmeasured, err
	}
	if result == nil {
		return ComplianceUnmeasured, nil
	}

	value := *result
	var ok bool
	switch normalized {
	case templates.OpGTE:
		ok = value >= expected
	case templates.OpLTE:
		ok = value <= expected
	case templates.OpEQ:
		ok = value == expected
	case templates.OpGT:
		ok = value > expected
	case templates.OpLT:
		ok = value < expected
	}
	if ok {
		return ComplianceMet, nil
	}
	return ComplianceNotMet, nil
}
