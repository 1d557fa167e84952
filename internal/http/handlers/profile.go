package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/docaidkit/medkit/internal/auth"
	"github.com/docaidkit/medkit/internal/config"
	"github.com/docaidkit/medkit/internal/http/middlewares"
	"github.com/docaidkit/medkit/internal/store"
	"github.com/gin-gonic/gin"
)

// ProfileHandler exposes self-service operations on the logged-in account.
// The routes sit behind the session gate, so the snapshot is always on the
// gin context here.
type ProfileHandler struct {
	svc *auth.Service
}

func NewProfileHandler(svc *auth.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

func (h *ProfileHandler) Get(ctx *gin.Context) {
	sess, ok := middlewares.SessionFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "redirect_login", "Authentication required")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"profile": sess})
}

type UpdateNameRequest struct {
	Name string `json:"name" binding:"required,min=1"`
}

func (h *ProfileHandler) UpdateName(ctx *gin.Context) {
	var req UpdateNameRequest

	if !BindJSON(ctx, &req) {
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.svc.UpdateProfile(cctx, userID, req.Name)

	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not update profile")
		return
	}

	ctx.Status(http.StatusNoContent)
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

func (h *ProfileHandler) UpdatePassword(ctx *gin.Context) {
	var req UpdatePasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// confirmation mismatch never reaches the store
	if req.NewPassword != req.ConfirmPassword {
		RespondError(ctx, http.StatusBadRequest, "password_mismatch", "New password and confirmation do not match.", nil)
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.svc.UpdatePassword(cctx, userID, req.CurrentPassword, req.NewPassword)

	if err != nil {
		switch {
		case errors.Is(err, store.ErrUserNotFound):
			RespondNotFound(ctx, "User not found")
		case errors.Is(err, auth.ErrIncorrectPassword):
			RespondError(ctx, http.StatusBadRequest, "incorrect_current_password", "Current password is incorrect.", nil)
		default:
			RespondInternal(ctx, "Could not update password")
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}
