package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hrperf/internal/domain/templates"
)

const employeeSelect = `
    SELECT e.id, COALESCE(e.user_id::text, ''), e.first_name || ' ' || e.last_name,
           s.id, s.name, a.id, a.name,
           COALESCE(e.manager_id::text, ''), COALESCE(m.user_id::text, ''),
           e.status = 'active'
    FROM employees e
    JOIN sectors s ON s.id = e.sector_id
    JOIN areas a ON a.id = s.area_id
    LEFT JOIN employees m ON m.id = e.manager_id
`

func (s *Store) Get(ctx context.Context, employeeID string) (Employee, error) {
	emp, err := scanEmployee(s.DB.QueryRow(ctx, employeeSelect+" WHERE e.id = $1", employeeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return emp, err
}

func (s *Store) EmployeeIDByUserID(ctx context.Context, userID string) (string, error) {
	var employeeID string
	err := s.DB.QueryRow(ctx, "SELECT id FROM employees WHERE user_id = $1", userID).Scan(&employeeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return employeeID, err
}

// InScope lists the active employees a template scoped to (scopeType, scopeID)
// applies to.
func (s *Store) InScope(ctx context.Context, scopeType templates.ScopeType, scopeID string) ([]Employee, error) {
	var where string
	switch scopeType {
	case templates.ScopeEmployee:
		where = "e.id = $1"
	case templates.ScopeSector:
		where = "s.id = $1"
	case templates.ScopeArea:
		where = "a.id = $1"
	default:
		return nil, fmt.Errorf("unknown scope type %q", scopeType)
	}
	return s.query(ctx, employeeSelect+" WHERE e.status = 'active' AND "+where+" ORDER BY e.last_name, e.first_name", scopeID)
}

func (s *Store) List(ctx context.Context, filter Filter) ([]Employee, error) {
	query := employeeSelect + " WHERE e.status = 'active'"
	args := []any{}
	if filter.AreaID != "" {
		args = append(args, filter.AreaID)
		query += fmt.Sprintf(" AND a.id = $%d", len(args))
	}
	if filter.SectorID != "" {
		args = append(args, filter.SectorID)
		query += fmt.Sprintf(" AND s.id = $%d", len(args))
	}
	if len(filter.IDs) > 0 {
		args = append(args, filter.IDs)
		query += fmt.Sprintf(" AND e.id = ANY($%d)", len(args))
	}
	query += " ORDER BY a.name, s.name, e.last_name, e.first_name"
	return s.query(ctx, query, args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.SectorID, &e.SectorName, &e.AreaID, &e.AreaName, &e.ManagerID, &e.ManagerUserID, &e.Active)
	return e, err
}
