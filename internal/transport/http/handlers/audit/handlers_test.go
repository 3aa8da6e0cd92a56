package audithandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"hrperf/internal/domain/audit"
	"hrperf/internal/domain/auth"
	"hrperf/internal/transport/http/middleware"
)

type fakeService struct {
	filter audit.Filter
	limit  int
}

func (f *fakeService) List(_ context.Context, filter audit.Filter, limit, _ int) ([]audit.Event, error) {
	f.filter, f.limit = filter, limit
	return []audit.Event{{
		ID:         "a1",
		ActorID:    "u-hr",
		Action:     "evaluation.close",
		EntityType: audit.EntityEvaluation,
		EntityID:   "ev-1",
		CreatedAt:  time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC),
	}}, nil
}

func (f *fakeService) Count(context.Context, audit.Filter) (int, error) {
	return 42, nil
}

func serve(svc Service, role, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u-1", RoleName: role})))
		})
	})
	NewHandler(svc, auth.NewStaticPermissions(auth.RolePermissions)).RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestListEvents(t *testing.T) {
	svc := &fakeService{}
	rec := serve(svc, auth.RoleHR, "/audit/events?entityType=evaluation&entityId=ev-1&limit=10")
	if rec.Code != http.StatusOK || rec.Header().Get("X-Total-Count") != "42" {
		t.Fatalf("unexpected response %d total=%q", rec.Code, rec.Header().Get("X-Total-Count"))
	}
	if svc.filter.EntityID != "ev-1" || svc.limit != 10 {
		t.Fatalf("unexpected filter %+v limit %d", svc.filter, svc.limit)
	}
}

func TestExportEvents(t *testing.T) {
	rec := serve(&fakeService{}, auth.RoleAdmin, "/audit/events/export")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "text/csv" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "a1,u-hr,evaluation.close,evaluation,ev-1,,2025-04-02T10:00:00Z") {
		t.Fatalf("unexpected csv %q", rec.Body.String())
	}
}

func TestAuditRequiresPermission(t *testing.T) {
	if rec := serve(&fakeService{}, auth.RoleManager, "/audit/events"); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
