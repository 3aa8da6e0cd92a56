package reportshandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"hrperf/internal/domain/auth"
	"hrperf/internal/domain/directory"
	"hrperf/internal/domain/reports"
	"hrperf/internal/transport/http/middleware"
)

type fakeService struct {
	employee string
	year     int
	filter   reports.JobRunFilter
}

func (f *fakeService) EmployeeScore(_ context.Context, employeeID string, year int) (reports.ScoreReport, error) {
	f.employee, f.year = employeeID, year
	if employeeID == "missing" {
		return reports.ScoreReport{}, directory.ErrNotFound
	}
	return reports.ScoreReport{Year: year}, nil
}

func (f *fakeService) EmployeeScorePDF(_ context.Context, employeeID string, year int) ([]byte, reports.ScoreReport, error) {
	f.employee, f.year = employeeID, year
	return []byte("%PDF-1.3 fake"), reports.ScoreReport{Year: year}, nil
}

func (f *fakeService) JobRuns(_ context.Context, filter reports.JobRunFilter, _, _ int) ([]reports.JobRun, int, error) {
	f.filter = filter
	return []reports.JobRun{{ID: "r1"}}, 7, nil
}

func (f *fakeService) JobRun(_ context.Context, runID string) (reports.JobRun, error) {
	if runID != "r1" {
		return reports.JobRun{}, reports.ErrNotFound
	}
	return reports.JobRun{ID: "r1"}, nil
}

type fakeJobs struct {
	today time.Time
	err   error
}

func (f *fakeJobs) RunReminders(_ context.Context, today time.Time) (any, error) {
	f.today = today
	return map[string]int{"notified": 2}, f.err
}

func serve(svc Service, jobs Jobs, user auth.UserContext, method, target string) *httptest.ResponseRecorder {
	h := NewHandler(svc, jobs, auth.NewStaticPermissions(auth.RolePermissions))
	h.Now = func() time.Time { return time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), user)))
		})
	})
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

var hr = auth.UserContext{UserID: "u-hr", RoleName: auth.RoleHR}

func TestScoreDefaultsYear(t *testing.T) {
	svc := &fakeService{}
	rec := serve(svc, &fakeJobs{}, hr, http.MethodGet, "/reports/employees/e-1/score")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.employee != "e-1" || svc.year != 2025 {
		t.Fatalf("unexpected call %q %d", svc.employee, svc.year)
	}
}

func TestScoreEmployeeScope(t *testing.T) {
	employee := auth.UserContext{UserID: "u-1", EmployeeID: "e-1", RoleName: auth.RoleEmployee}

	if rec := serve(&fakeService{}, &fakeJobs{}, employee, http.MethodGet, "/reports/employees/e-2/score"); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	svc := &fakeService{}
	if rec := serve(svc, &fakeJobs{}, employee, http.MethodGet, "/reports/employees/me/score?year=2024"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.employee != "e-1" || svc.year != 2024 {
		t.Fatalf("unexpected call %q %d", svc.employee, svc.year)
	}
}

func TestScoreUnknownEmployee(t *testing.T) {
	if rec := serve(&fakeService{}, &fakeJobs{}, hr, http.MethodGet, "/reports/employees/missing/score"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestScorePDF(t *testing.T) {
	rec := serve(&fakeService{}, &fakeJobs{}, hr, http.MethodGet, "/reports/employees/e-1/score.pdf?year=2025")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/pdf" || !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Fatalf("unexpected pdf response %q %q", rec.Header().Get("Content-Type"), rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "e-1-2025.pdf") {
		t.Fatalf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
}

func TestJobRuns(t *testing.T) {
	svc := &fakeService{}
	rec := serve(svc, &fakeJobs{}, hr, http.MethodGet, "/reports/jobs?jobType=evaluation_reminders&startedFrom=2025-01-01")
	if rec.Code != http.StatusOK || rec.Header().Get("X-Total-Count") != "7" {
		t.Fatalf("unexpected response %d total=%q", rec.Code, rec.Header().Get("X-Total-Count"))
	}
	if svc.filter.JobType != "evaluation_reminders" || svc.filter.StartedFrom == nil {
		t.Fatalf("unexpected filter %+v", svc.filter)
	}

	rec = serve(svc, &fakeJobs{}, hr, http.MethodGet, "/reports/jobs?startedFrom=2025-02-01&startedTo=2025-01-01")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", rec.Code)
	}

	rec = serve(svc, &fakeJobs{}, hr, http.MethodGet, "/reports/jobs?status=Failed")
	if rec.Code != http.StatusOK || svc.filter.Status != "failed" {
		t.Fatalf("expected canonical status filter, got %d %+v", rec.Code, svc.filter)
	}
	rec = serve(svc, &fakeJobs{}, hr, http.MethodGet, "/reports/jobs?status=exploded")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "validation_error") {
		t.Fatalf("expected 400 for unknown status, got %d %s", rec.Code, rec.Body.String())
	}

	if rec := serve(svc, &fakeJobs{}, hr, http.MethodGet, "/reports/jobs/r9"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestJobsRequireHR(t *testing.T) {
	manager := auth.UserContext{UserID: "u-m", RoleName: auth.RoleManager}
	if rec := serve(&fakeService{}, &fakeJobs{}, manager, http.MethodPost, "/reports/jobs/reminders"); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRunReminders(t *testing.T) {
	jobs := &fakeJobs{}
	rec := serve(&fakeService{}, jobs, hr, http.MethodPost, "/reports/jobs/reminders?today=2025-03-31")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"notified":2`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if jobs.today.Month() != time.March || jobs.today.Day() != 31 {
		t.Fatalf("unexpected today %s", jobs.today)
	}

	jobs.err = errors.New("boom")
	if rec := serve(&fakeService{}, jobs, hr, http.MethodPost, "/reports/jobs/reminders"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
