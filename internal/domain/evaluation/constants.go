package evaluation

import (
	"fmt"
	"strings"
)

// State is the workflow position of an evaluation. The zero value is not a
// valid state; ParseState maps a missing state to StateManagerDraft.
type State string

const (
	StateManagerDraft    State = "MANAGER_DRAFT"
	StatePendingEmployee State = "PENDING_EMPLOYEE"
	StatePendingHR       State = "PENDING_HR"
	StateClosed          State = "CLOSED"
)

func ParseState(raw string) (State, error) {
	switch s := State(strings.ToUpper(strings.TrimSpace(raw))); s {
	case "":
		return StateManagerDraft, nil
	case StateManagerDraft, StatePendingEmployee, StatePendingHR, StateClosed:
		return s, nil
	}
	return "", fmt.Errorf("unknown evaluation state %q", raw)
}

// AckState is the evaluated employee's response while PENDING_EMPLOYEE.
type AckState string

const (
	AckAcknowledged AckState = "ACK"
	AckContested    AckState = "CONTEST"
)

func ParseAckState(raw string) (AckState, error) {
	switch a := AckState(strings.ToUpper(strings.TrimSpace(raw))); a {
	case AckAcknowledged, AckContested:
		return a, nil
	}
	return "", fmt.Errorf("unknown acknowledgement state %q", raw)
}

type Action string

const (
	ActionSaveDraft        Action = "save_draft"
	ActionSubmitToEmployee Action = "submit_to_employee"
	ActionEmployeeAck      Action = "employee_ack"
	ActionEmployeeContest  Action = "employee_contest"
	ActionSubmitToHR       Action = "submit_to_hr"
	ActionClose            Action = "close"
	ActionReopen           Action = "reopen"
)

type SelectionMode string

const (
	SelectionAll      SelectionMode = "all"
	SelectionSelected SelectionMode = "selected"
)

const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)
