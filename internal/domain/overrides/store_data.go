package overrides

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const overrideColumns = `employee_id, template_id, year, excluded, weight, target, updated_at`

func (s *Store) ListOverrides(ctx context.Context, filter Filter) ([]Override, error) {
	query := `SELECT ` + overrideColumns + ` FROM overrides WHERE year = $1`
	args := []any{filter.Year}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		query += fmt.Sprintf(" AND employee_id = $%d", len(args))
	}
	query += " ORDER BY employee_id, template_id"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Override
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) GetOverride(ctx context.Context, key Key) (Override, error) {
	o, err := scanOverride(s.DB.QueryRow(ctx, `
    SELECT `+overrideColumns+` FROM overrides
    WHERE employee_id = $1 AND template_id = $2 AND year = $3
  `, key.EmployeeID, key.TemplateID, key.Year))
	if errors.Is(err, pgx.ErrNoRows) {
		return Override{}, ErrNotFound
	}
	return o, err
}

func (s *Store) UpsertOverride(ctx context.Context, o Override) (Override, error) {
	return scanOverride(s.DB.QueryRow(ctx, `
    INSERT INTO overrides (employee_id, template_id, year, excluded, weight, target)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (employee_id, template_id, year) DO UPDATE
      SET excluded = EXCLUDED.excluded,
          weight = EXCLUDED.weight,
          target = EXCLUDED.target,
          updated_at = now()
    RETURNING `+overrideColumns,
		o.EmployeeID, o.TemplateID, o.Year, o.Excluded, o.Weight, o.Target))
}

func (s *Store) DeleteOverride(ctx context.Context, key Key) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM overrides WHERE employee_id = $1 AND template_id = $2 AND year = $3
  `, key.EmployeeID, key.TemplateID, key.Year)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanOverride(row pgx.Row) (Override, error) {
	var o Override
	err := row.Scan(&o.EmployeeID, &o.TemplateID, &o.Year, &o.Excluded, &o.Weight, &o.Target, &o.UpdatedAt)
	return o, err
}
