package evaluation

import (
	"fmt"
	"strings"
	"time"

	"hrperf/internal/domain/scoring"
	"hrperf/internal/domain/templates"
)

type transition struct {
	from []State
	to   State
}

// transitions maps each action to the states it may start from and the state
// it leaves behind. Acknowledge and contest record a response without moving.
var transitions = map[Action]transition{
	ActionSaveDraft:        {from: []State{StateManagerDraft}, to: StateManagerDraft},
	ActionSubmitToEmployee: {from: []State{StateManagerDraft}, to: StatePendingEmployee},
	ActionEmployeeAck:      {from: []State{StatePendingEmployee}, to: StatePendingEmployee},
	ActionEmployeeContest:  {from: []State{StatePendingEmployee}, to: StatePendingEmployee},
	ActionSubmitToHR:       {from: []State{StatePendingEmployee, StateManagerDraft}, to: StatePendingHR},
	ActionClose:            {from: []State{StatePendingHR}, to: StateClosed},
	ActionReopen:           {from: []State{StateClosed}, to: StatePendingHR},
}

// Allowed reports whether action may start from state.
func Allowed(state State, action Action) bool {
	t, ok := transitions[action]
	if !ok {
		return false
	}
	for _, s := range t.from {
		if s == state {
			return true
		}
	}
	return false
}

// Apply runs action against ev and returns the updated copy. It has no side
// effects; persisting the result is the caller's job.
func Apply(ev Evaluation, action Action, actor Actor, in Input) (Evaluation, error) {
	t, ok := transitions[action]
	if !ok {
		return ev, fmt.Errorf("unknown action %q", action)
	}
	if ev.State == "" {
		ev.State = StateManagerDraft
	}
	if !Allowed(ev.State, action) {
		current := ev
		return ev, &TransitionError{Action: action, From: ev.State, Current: &current, Err: ErrInvalidTransition}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	out := ev
	switch action {
	case ActionSaveDraft:
		if in.Draft != nil {
			if err := applyDraft(&out, *in.Draft); err != nil {
				return ev, err
			}
		}
	case ActionSubmitToEmployee:
		if in.Draft != nil {
			if err := applyDraft(&out, *in.Draft); err != nil {
				return ev, err
			}
		}
		if err := readyForEmployee(out); err != nil {
			return ev, err
		}
		out.EmployeeAck = nil
	case ActionEmployeeAck, ActionEmployeeContest:
		if actor.EmployeeID == "" || actor.EmployeeID != ev.EmployeeID {
			return ev, fmt.Errorf("%w: only the evaluated employee may respond", ErrForbiddenActor)
		}
		comment := strings.TrimSpace(in.Comment)
		ack := &EmployeeAck{State: AckAcknowledged, Comment: comment, At: &now}
		if action == ActionEmployeeContest {
			if comment == "" {
				return ev, invalid(CodeContestCommentRequired, "comentario", "a comment is required to contest an evaluation")
			}
			ack.State = AckContested
		}
		out.EmployeeAck = ack
		if comment != "" {
			out.EmployeeComment = comment
		}
	case ActionReopen:
		if !actor.IsHR() {
			return ev, fmt.Errorf("%w: only HR may reopen a closed evaluation", ErrForbiddenActor)
		}
		out.ReopenNote = strings.TrimSpace(in.Comment)
		out.ReopenedAt = &now
	}

	out.State = t.to
	return out, nil
}

// readyForEmployee checks that there is a result to show the employee.
func readyForEmployee(ev Evaluation) error {
	if ev.Kind == templates.KindCompetency {
		if ev.Scale == nil || *ev.Scale < 1 || *ev.Scale > 5 {
			return invalid(CodeMissingEscala, "escala", "choose a scale value from 1 to 5 before sending", ev.EmployeeID)
		}
		return nil
	}
	if ev.Actual == nil {
		return invalid(CodeMissingActual, "actual", "the objective result has not been computed yet", ev.EmployeeID)
	}
	return nil
}

func applyDraft(ev *Evaluation, d Draft) error {
	if d.State != "" {
		state, err := ParseState(d.State)
		if err != nil {
			return invalid(CodeInvalidState, "estado", err.Error())
		}
		if state != ev.State {
			current := *ev
			return &TransitionError{Action: ActionSaveDraft, From: ev.State, Current: &current, Err: ErrInvalidTransition}
		}
	}
	if d.Scale != nil && (*d.Scale < 1 || *d.Scale > 5) {
		return invalid(CodeInvalidPayload, "escala", "escala must be between 1 and 5")
	}
	if d.Actual != nil && *d.Actual < 0 {
		return invalid(CodeInvalidPayload, "actual", "actual must not be negative")
	}

	if d.Actual != nil {
		v := *d.Actual
		ev.Actual = &v
	}
	if d.Scale != nil {
		v := *d.Scale
		ev.Scale = &v
	}
	if d.GoalResults != nil {
		ev.GoalResults = append([]scoring.GoalResult(nil), d.GoalResults...)
	}
	if d.Comment != nil {
		ev.Comment = *d.Comment
	}
	if d.ManagerComment != nil {
		ev.ManagerComment = *d.ManagerComment
	}
	return nil
}
