package directory

import "hrperf/internal/domain/templates"

// Employee is the directory view the scoring core needs: who the person is,
// where they sit in the org tree and who manages them.
type Employee struct {
	ID            string `json:"id"`
	UserID        string `json:"userId,omitempty"`
	Name          string `json:"nombre"`
	SectorID      string `json:"sectorId"`
	SectorName    string `json:"sector"`
	AreaID        string `json:"areaId"`
	AreaName      string `json:"area"`
	ManagerID     string `json:"managerId,omitempty"`
	ManagerUserID string `json:"-"`
	Active        bool   `json:"activo"`
}

// Scopes returns the scope ids a template can be attached to for this employee.
func (e Employee) Scopes() map[templates.ScopeType]string {
	return map[templates.ScopeType]string{
		templates.ScopeEmployee: e.ID,
		templates.ScopeSector:   e.SectorID,
		templates.ScopeArea:     e.AreaID,
	}
}

type Filter struct {
	AreaID   string
	SectorID string
	IDs      []string
}
