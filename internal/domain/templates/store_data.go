package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
)

const templateColumns = `t.id, t.kind, t.name, t.base_weight, t.base_target, t.scope_type, t.scope_id, t.year, t.goals_json`

func (s *Store) ListTemplates(ctx context.Context, filter Filter) ([]Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates t WHERE 1 = 1`
	args := []any{}
	if filter.Year != 0 {
		args = append(args, filter.Year)
		query += fmt.Sprintf(" AND t.year = $%d", len(args))
	}
	if filter.ScopeType != "" {
		args = append(args, string(filter.ScopeType))
		query += fmt.Sprintf(" AND t.scope_type = $%d", len(args))
	}
	if filter.ScopeID != "" {
		args = append(args, filter.ScopeID)
		query += fmt.Sprintf(" AND t.scope_id = $%d", len(args))
	}
	query += " ORDER BY t.kind, t.name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachMilestones(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetTemplate(ctx context.Context, templateID string) (Template, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+templateColumns+` FROM templates t WHERE t.id = $1`, templateID)
	tmpl, err := scanTemplate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Template{}, ErrNotFound
	}
	if err != nil {
		return Template{}, err
	}
	list := []Template{tmpl}
	if err := s.attachMilestones(ctx, list); err != nil {
		return Template{}, err
	}
	return list[0], nil
}

func (s *Store) attachMilestones(ctx context.Context, list []Template) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, 0, len(list))
	index := make(map[string]int, len(list))
	for i, tmpl := range list {
		ids = append(ids, tmpl.ID)
		index[tmpl.ID] = i
	}

	rows, err := s.DB.Query(ctx, `
    SELECT template_id, period, due_date
    FROM template_milestones
    WHERE template_id = ANY($1)
    ORDER BY due_date
  `, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var templateID string
		var m Milestone
		if err := rows.Scan(&templateID, &m.Period, &m.DueDate); err != nil {
			return err
		}
		if i, ok := index[templateID]; ok {
			list[i].Milestones = append(list[i].Milestones, m)
		}
	}
	return rows.Err()
}

func scanTemplate(row pgx.Row) (Template, error) {
	var tmpl Template
	var kind, scopeType string
	var goalsJSON []byte
	if err := row.Scan(&tmpl.ID, &kind, &tmpl.Name, &tmpl.BaseWeight, &tmpl.BaseTarget, &scopeType, &tmpl.ScopeID, &tmpl.Year, &goalsJSON); err != nil {
		return Template{}, err
	}
	tmpl.Kind = Kind(kind)
	tmpl.ScopeType = ScopeType(scopeType)
	if len(goalsJSON) > 0 {
		if err := json.Unmarshal(goalsJSON, &tmpl.Goals); err != nil {
			slog.Warn("template goals decode failed", "templateId", tmpl.ID, "err", err)
			tmpl.Goals = nil
		}
	}
	return tmpl, nil
}
