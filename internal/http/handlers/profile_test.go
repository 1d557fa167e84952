package handlers_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/docaidkit/medkit/internal/auth"
	"github.com/docaidkit/medkit/internal/domain/account"
	"github.com/docaidkit/medkit/internal/http/handlers"
	"github.com/docaidkit/medkit/internal/http/middlewares"
	"github.com/docaidkit/medkit/internal/storage"
	"github.com/docaidkit/medkit/internal/store"
	"github.com/gin-gonic/gin"
)

func newProfileTestRouter(t *testing.T) (*gin.Engine, *auth.Service, *store.UsersStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := storage.NewMemoryStorage()
	users := store.NewUsersStore(st, nil)
	sessions := store.NewSessionsStore(st, nil)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := auth.NewService(users, sessions, log)

	h := handlers.NewProfileHandler(svc)
	gate := middlewares.NewSessionGate(svc)

	r := gin.New()
	group := r.Group("/profile", gate.RequireAuth(""))
	group.GET("", h.Get)
	group.PUT("/name", h.UpdateName)
	group.PUT("/password", h.UpdatePassword)

	return r, svc, users
}

func loginAs(t *testing.T, svc *auth.Service, users *store.UsersStore, email string) account.Account {
	t.Helper()

	created := seedUser(t, users, email, "123456789", account.RoleDoctor, account.StatusActive)

	if _, err := svc.Login(context.Background(), email, "123456789"); err != nil {
		t.Fatalf("login: %v", err)
	}

	return created
}

func TestProfileRequiresSession(t *testing.T) {
	r, _, _ := newProfileTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/profile", "")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if got := errorCode(t, w); got != "redirect_login" {
		t.Fatalf("error code = %q, want redirect_login", got)
	}
}

func TestProfileGet(t *testing.T) {
	r, svc, users := newProfileTestRouter(t)
	loginAs(t, svc, users, "try@hotmail.com")

	w := doJSON(t, r, http.MethodGet, "/profile", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", w.Code, w.Body.String())
	}
	if !jsonHas(t, w.Body.Bytes(), "profile") {
		t.Fatalf("response missing profile: %s", w.Body.String())
	}
}

func TestProfileUpdateName(t *testing.T) {
	r, svc, users := newProfileTestRouter(t)
	created := loginAs(t, svc, users, "try@hotmail.com")

	w := doJSON(t, r, http.MethodPut, "/profile/name", `{"name":"Dr. Renamed"}`)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body=%s", w.Code, w.Body.String())
	}

	got, err := users.GetByID(context.Background(), created.ID)

	if err != nil {
		t.Fatalf("GetByID(): %v", err)
	}
	if got.Name != "Dr. Renamed" {
		t.Fatalf("stored name = %q", got.Name)
	}

	// the session snapshot was re-synced too
	sess, err := svc.Session(context.Background())

	if err != nil {
		t.Fatalf("Session(): %v", err)
	}
	if sess.Name != "Dr. Renamed" {
		t.Fatalf("session name = %q, want the new name", sess.Name)
	}
}

func TestProfileUpdatePassword(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "happy path",
			body:       `{"currentPassword":"123456789","newPassword":"new-password-1","confirmPassword":"new-password-1"}`,
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "confirmation mismatch",
			body:       `{"currentPassword":"123456789","newPassword":"new-password-1","confirmPassword":"different-pass"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "password_mismatch",
		},
		{
			name:       "wrong current password",
			body:       `{"currentPassword":"not-the-password","newPassword":"new-password-1","confirmPassword":"new-password-1"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "incorrect_current_password",
		},
		{
			name:       "new password too short",
			body:       `{"currentPassword":"123456789","newPassword":"short","confirmPassword":"short"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, svc, users := newProfileTestRouter(t)
			loginAs(t, svc, users, "try@hotmail.com")

			w := doJSON(t, r, http.MethodPut, "/profile/password", tc.body)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tc.wantStatus, w.Body.String())
			}
			if tc.wantCode != "" {
				if got := errorCode(t, w); got != tc.wantCode {
					t.Fatalf("error code = %q, want %q", got, tc.wantCode)
				}
			}

			// the session always survives the attempt
			if _, err := svc.Session(context.Background()); err != nil {
				t.Fatalf("session gone after password attempt: %v", err)
			}
		})
	}
}
