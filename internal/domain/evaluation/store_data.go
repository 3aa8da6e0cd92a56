package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hrperf/internal/domain/period"
	"hrperf/internal/domain/templates"
)

const evaluationColumns = `id, employee_id, template_id, kind, year, period, actual, scale, goal_results,
    comment, manager_comment, employee_comment, state, ack_state, ack_comment, ack_at,
    reopen_note, reopened_at, version, created_at, updated_at`

func (s *Store) FindOrCreate(ctx context.Context, key Key, kind templates.Kind) (Evaluation, bool, error) {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO evaluations (employee_id, template_id, kind, year, period, state)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (employee_id, template_id, year, period) DO NOTHING
  `, key.EmployeeID, key.TemplateID, string(kind), key.Year, key.Period.String(), string(StateManagerDraft))
	if err != nil {
		return Evaluation{}, false, wrapStoreErr("insert evaluation", err)
	}
	ev, err := s.GetByKey(ctx, key)
	if err != nil {
		return Evaluation{}, false, err
	}
	return ev, tag.RowsAffected() == 1, nil
}

func (s *Store) Get(ctx context.Context, id string) (Evaluation, error) {
	ev, err := scanEvaluation(s.DB.QueryRow(ctx, `SELECT `+evaluationColumns+` FROM evaluations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Evaluation{}, ErrNotFound
	}
	if err != nil {
		return Evaluation{}, wrapStoreErr("get evaluation", err)
	}
	return ev, nil
}

func (s *Store) GetByKey(ctx context.Context, key Key) (Evaluation, error) {
	ev, err := scanEvaluation(s.DB.QueryRow(ctx, `
    SELECT `+evaluationColumns+` FROM evaluations
    WHERE employee_id = $1 AND template_id = $2 AND year = $3 AND period = $4
  `, key.EmployeeID, key.TemplateID, key.Year, key.Period.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return Evaluation{}, ErrNotFound
	}
	if err != nil {
		return Evaluation{}, wrapStoreErr("get evaluation by key", err)
	}
	return ev, nil
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE 1 = 1`
	args := []any{}
	if filter.TemplateID != "" {
		args = append(args, filter.TemplateID)
		query += fmt.Sprintf(" AND template_id = $%d", len(args))
	}
	if filter.Year != 0 {
		args = append(args, filter.Year)
		query += fmt.Sprintf(" AND year = $%d", len(args))
	}
	if !filter.Period.IsZero() {
		args = append(args, filter.Period.String())
		query += fmt.Sprintf(" AND period = $%d", len(args))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		query += fmt.Sprintf(" AND employee_id = $%d", len(args))
	}
	if filter.State != "" {
		args = append(args, string(filter.State))
		query += fmt.Sprintf(" AND state = $%d", len(args))
	}
	if filter.Ack != "" {
		args = append(args, string(filter.Ack))
		query += fmt.Sprintf(" AND ack_state = $%d", len(args))
	}
	query += " ORDER BY employee_id, template_id, period"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapStoreErr("list evaluations", err)
	}
	defer rows.Close()

	var out []Evaluation
	for rows.Next() {
		ev, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("list evaluations", err)
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, ev Evaluation, cond Condition) (Evaluation, error) {
	goals, err := json.Marshal(ev.GoalResults)
	if err != nil {
		return Evaluation{}, err
	}
	var ackState, ackComment any
	var ackAt any
	if ev.EmployeeAck != nil {
		ackState = string(ev.EmployeeAck.State)
		ackComment = ev.EmployeeAck.Comment
		ackAt = ev.EmployeeAck.At
	}

	args := []any{
		ev.ID, ev.Actual, ev.Scale, goals, ev.Comment, ev.ManagerComment, ev.EmployeeComment,
		string(ev.State), ackState, ackComment, ackAt, ev.ReopenNote, ev.ReopenedAt,
		string(cond.State),
	}
	query := `
    UPDATE evaluations
    SET actual = $2, scale = $3, goal_results = $4, comment = $5, manager_comment = $6,
        employee_comment = $7, state = $8, ack_state = $9, ack_comment = $10, ack_at = $11,
        reopen_note = $12, reopened_at = $13, version = version + 1, updated_at = now()
    WHERE id = $1 AND state = $14`
	if cond.Version != 0 {
		args = append(args, cond.Version)
		query += fmt.Sprintf(" AND version = $%d", len(args))
	}
	query += ` RETURNING ` + evaluationColumns

	updated, err := scanEvaluation(s.DB.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Evaluation{}, ErrConflict
	}
	if err != nil {
		return Evaluation{}, wrapStoreErr("update evaluation", err)
	}
	return updated, nil
}

func scanEvaluation(row pgx.Row) (Evaluation, error) {
	var ev Evaluation
	var kind, periodToken, state string
	var goals []byte
	var ackState, ackComment *string
	var ack EmployeeAck
	if err := row.Scan(
		&ev.ID, &ev.EmployeeID, &ev.TemplateID, &kind, &ev.Year, &periodToken, &ev.Actual, &ev.Scale, &goals,
		&ev.Comment, &ev.ManagerComment, &ev.EmployeeComment, &state, &ackState, &ackComment, &ack.At,
		&ev.ReopenNote, &ev.ReopenedAt, &ev.Version, &ev.CreatedAt, &ev.UpdatedAt,
	); err != nil {
		return Evaluation{}, err
	}

	ev.Kind = templates.Kind(kind)
	p, err := period.Parse(periodToken, ev.Year)
	if err != nil {
		return Evaluation{}, fmt.Errorf("evaluation %s: %w", ev.ID, err)
	}
	ev.Period = p
	if ev.State, err = ParseState(state); err != nil {
		return Evaluation{}, err
	}
	if len(goals) > 0 && string(goals) != "null" {
		if err := json.Unmarshal(goals, &ev.GoalResults); err != nil {
			return Evaluation{}, fmt.Errorf("evaluation %s goal results: %w", ev.ID, err)
		}
	}
	if ackState != nil && *ackState != "" {
		ack.State = AckState(*ackState)
		if ackComment != nil {
			ack.Comment = *ackComment
		}
		ev.EmployeeAck = &ack
	}
	return ev, nil
}

// wrapStoreErr marks connectivity failures as ErrUnavailable so callers can
// tell "could not reach storage" apart from a rejected request.
func wrapStoreErr(op string, err error) error {
	var connectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connectErr) || errors.As(err, &netErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
