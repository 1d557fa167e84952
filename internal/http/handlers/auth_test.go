package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docaidkit/medkit/internal/auth"
	"github.com/docaidkit/medkit/internal/domain/account"
	"github.com/docaidkit/medkit/internal/http/handlers"
	"github.com/docaidkit/medkit/internal/security"
	"github.com/docaidkit/medkit/internal/storage"
	"github.com/docaidkit/medkit/internal/store"
	"github.com/gin-gonic/gin"
)

func newAuthTestRouter(t *testing.T) (*gin.Engine, *store.UsersStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := storage.NewMemoryStorage()
	users := store.NewUsersStore(st, nil)
	sessions := store.NewSessionsStore(st, nil)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := auth.NewService(users, sessions, log)

	h := handlers.NewAuthHandler(svc)

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.GET("/auth/session", h.Session)

	return r, users
}

func seedUser(t *testing.T, users *store.UsersStore, email, password, role, status string) account.Account {
	t.Helper()

	hash, err := security.HashPassword(password)

	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	created, err := users.Create(context.Background(), account.CreateParams{
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       status,
	})

	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return created
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error response: %v body=%s", err, w.Body.String())
	}

	return resp.Error.Code
}

func jsonHas(t *testing.T, body []byte, key string) bool {
	t.Helper()

	var resp map[string]json.RawMessage

	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal response: %v body=%s", err, body)
	}

	_, ok := resp[key]
	return ok
}

func TestLoginEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantRole   string
	}{
		{
			name:       "valid doctor login",
			body:       `{"email":"try@hotmail.com","password":"123456789"}`,
			wantStatus: http.StatusOK,
			wantRole:   account.RoleDoctor,
		},
		{
			name:       "valid admin login",
			body:       `{"email":"kkshuraim@hotmail.com","password":"123456789"}`,
			wantStatus: http.StatusOK,
			wantRole:   account.RoleAdmin,
		},
		{
			name:       "wrong password",
			body:       `{"email":"try@hotmail.com","password":"nope-nope"}`,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "invalid_credentials",
		},
		{
			name:       "unknown email",
			body:       `{"email":"ghost@hotmail.com","password":"123456789"}`,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "invalid_credentials",
		},
		{
			name:       "suspended account",
			body:       `{"email":"frozen@hotmail.com","password":"123456789"}`,
			wantStatus: http.StatusForbidden,
			wantCode:   "account_suspended",
		},
		{
			name:       "malformed email fails validation",
			body:       `{"email":"not-an-email","password":"123456789"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "missing password fails validation",
			body:       `{"email":"try@hotmail.com"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, users := newAuthTestRouter(t)
			seedUser(t, users, "try@hotmail.com", "123456789", account.RoleDoctor, account.StatusActive)
			seedUser(t, users, "kkshuraim@hotmail.com", "123456789", account.RoleAdmin, account.StatusActive)
			seedUser(t, users, "frozen@hotmail.com", "123456789", account.RoleDoctor, account.StatusSuspended)

			w := doJSON(t, r, http.MethodPost, "/auth/login", tc.body)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tc.wantStatus, w.Body.String())
			}

			if tc.wantCode != "" {
				if got := errorCode(t, w); got != tc.wantCode {
					t.Fatalf("error code = %q, want %q", got, tc.wantCode)
				}
				return
			}

			var resp struct {
				Role string `json:"role"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if resp.Role != tc.wantRole {
				t.Fatalf("role = %q, want %q", resp.Role, tc.wantRole)
			}
		})
	}
}

func TestSessionEndpoint(t *testing.T) {
	r, users := newAuthTestRouter(t)
	seedUser(t, users, "try@hotmail.com", "123456789", account.RoleDoctor, account.StatusActive)

	// no session yet
	w := doJSON(t, r, http.MethodGet, "/auth/session", "")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if got := errorCode(t, w); got != "no_session" {
		t.Fatalf("error code = %q, want no_session", got)
	}

	// log in, then the snapshot is visible
	w = doJSON(t, r, http.MethodPost, "/auth/login", `{"email":"try@hotmail.com","password":"123456789"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/auth/session", "")

	if w.Code != http.StatusOK {
		t.Fatalf("session status = %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Session struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"session"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Session.Email != "try@hotmail.com" || resp.Session.Role != account.RoleDoctor {
		t.Fatalf("unexpected session: %+v", resp.Session)
	}
}

func TestLogoutEndpoint(t *testing.T) {
	r, users := newAuthTestRouter(t)
	seedUser(t, users, "try@hotmail.com", "123456789", account.RoleDoctor, account.StatusActive)

	doJSON(t, r, http.MethodPost, "/auth/login", `{"email":"try@hotmail.com","password":"123456789"}`)

	w := doJSON(t, r, http.MethodPost, "/auth/logout", "")

	if w.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d, want 204", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/auth/session", "")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("session after logout status = %d, want 401", w.Code)
	}

	// logout is idempotent
	w = doJSON(t, r, http.MethodPost, "/auth/logout", "")

	if w.Code != http.StatusNoContent {
		t.Fatalf("second logout status = %d, want 204", w.Code)
	}
}
