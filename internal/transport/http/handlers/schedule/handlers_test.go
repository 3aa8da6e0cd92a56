package schedulehandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"hrperf/internal/domain/auth"
	"hrperf/internal/domain/schedule"
	"hrperf/internal/transport/http/middleware"
)

type fakeService struct {
	year   int
	today  time.Time
	filter schedule.Filter
}

func (f *fakeService) Timeline(_ context.Context, year int, today time.Time, filter schedule.Filter) (schedule.Timeline, error) {
	f.year, f.today, f.filter = year, today, filter
	return schedule.Timeline{Year: year, Today: today.Format("2006-01-02")}, nil
}

func serve(svc Service, role, target string) *httptest.ResponseRecorder {
	h := NewHandler(svc, auth.NewStaticPermissions(auth.RolePermissions))
	h.Now = func() time.Time { return time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u-1", RoleName: role})))
		})
	})
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestTimelineDefaults(t *testing.T) {
	svc := &fakeService{}
	rec := serve(svc, auth.RoleHR, "/schedule/timeline?area=a1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.year != 2025 || svc.today.Day() != 15 || svc.filter.AreaID != "a1" {
		t.Fatalf("unexpected call year=%d today=%s filter=%+v", svc.year, svc.today, svc.filter)
	}
}

func TestTimelinePinnedToday(t *testing.T) {
	svc := &fakeService{}
	rec := serve(svc, auth.RoleManager, "/schedule/timeline?year=2024&today=2024-11-02&sector=s1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.year != 2024 || svc.today.Month() != time.November || svc.filter.SectorID != "s1" {
		t.Fatalf("unexpected call year=%d today=%s filter=%+v", svc.year, svc.today, svc.filter)
	}
}

func TestTimelineValidation(t *testing.T) {
	rec := serve(&fakeService{}, auth.RoleHR, "/schedule/timeline?year=abc&today=yesterday")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTimelineForbiddenForEmployees(t *testing.T) {
	rec := serve(&fakeService{}, auth.RoleEmployee, "/schedule/timeline")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
