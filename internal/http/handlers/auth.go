package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/docaidkit/medkit/internal/auth"
	"github.com/docaidkit/medkit/internal/config"
	"github.com/docaidkit/medkit/internal/store"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for the store lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	role, err := h.svc.Login(cctx, req.Email, req.Password)

	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		case errors.Is(err, auth.ErrAccountSuspended):
			RespondForbidden(ctx, "account_suspended", "Account is suspended. Please contact support.")
		default:
			RespondInternal(ctx, "Could not log in")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"role": role,
	})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if err := h.svc.Logout(cctx); err != nil {
		RespondInternal(ctx, "Could not log out")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// Session reports the active session snapshot, or 401 when none exists.
func (h *AuthHandler) Session(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	sess, err := h.svc.Session(cctx)

	if err != nil {
		if errors.Is(err, store.ErrNoSession) {
			RespondUnAuthorized(ctx, "no_session", "Not authenticated")
			return
		}

		RespondInternal(ctx, "Could not read session")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"session": sess})
}
