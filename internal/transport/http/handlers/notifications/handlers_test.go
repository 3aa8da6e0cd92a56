package notificationshandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"hrperf/internal/domain/auth"
	"hrperf/internal/domain/notifications"
	"hrperf/internal/transport/http/middleware"
)

type fakeService struct {
	user   string
	marked string
}

func (f *fakeService) List(_ context.Context, userID string, _, _ int) ([]notifications.Notification, error) {
	f.user = userID
	return []notifications.Notification{{ID: "n1", Title: "3 evaluaciones vencidas"}}, nil
}

func (f *fakeService) CountUnread(context.Context, string) (int, error) {
	return 3, nil
}

func (f *fakeService) MarkRead(_ context.Context, _, id string) error {
	if id == "bad" {
		return errors.New("no row")
	}
	f.marked = id
	return nil
}

func serve(svc Service, withUser bool, method, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	if withUser {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u-7", RoleName: auth.RoleManager})))
			})
		})
	}
	NewHandler(svc).RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestListNotifications(t *testing.T) {
	svc := &fakeService{}
	rec := serve(svc, true, http.MethodGet, "/notifications")
	if rec.Code != http.StatusOK || rec.Header().Get("X-Unread-Count") != "3" {
		t.Fatalf("unexpected response %d unread=%q", rec.Code, rec.Header().Get("X-Unread-Count"))
	}
	if svc.user != "u-7" {
		t.Fatalf("expected notifications of u-7, got %q", svc.user)
	}
}

func TestUnreadCount(t *testing.T) {
	rec := serve(&fakeService{}, true, http.MethodGet, "/notifications/unread-count")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"unread":3`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestMarkRead(t *testing.T) {
	svc := &fakeService{}
	if rec := serve(svc, true, http.MethodPost, "/notifications/n1/read"); rec.Code != http.StatusOK || svc.marked != "n1" {
		t.Fatalf("unexpected response %d marked=%q", rec.Code, svc.marked)
	}
	if rec := serve(svc, true, http.MethodPost, "/notifications/bad/read"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestNotificationsNeedUser(t *testing.T) {
	if rec := serve(&fakeService{}, false, http.MethodGet, "/notifications"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
