package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/docaidkit/medkit/internal/config"
	"github.com/docaidkit/medkit/internal/domain/account"
	"github.com/docaidkit/medkit/internal/security"
	"github.com/docaidkit/medkit/internal/store"
	"github.com/gin-gonic/gin"
)

// UserAdmin is the slice of the users store the admin handler needs.
type UserAdmin interface {
	List(ctx context.Context) ([]account.Account, error)
	Create(ctx context.Context, params account.CreateParams) (account.Account, error)
	Update(ctx context.Context, id string, params account.UpdateParams) error
	Delete(ctx context.Context, id string) error
}

// AdminUsersHandler wraps the store primitives one-to-one. Role gating is
// the route layer's job; nothing here re-checks it.
type AdminUsersHandler struct {
	users UserAdmin
}

func NewAdminUsersHandler(users UserAdmin) *AdminUsersHandler {
	return &AdminUsersHandler{users: users}
}

func (h *AdminUsersHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	accounts, err := h.users.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"users": accounts})
}

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,min=1"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=doctor admin"`
}

func (h *AdminUsersHandler) Create(ctx *gin.Context) {
	var req CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	created, err := h.users.Create(cctx, account.CreateParams{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Status:       account.StatusActive,
	})

	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"user": created})
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active suspended"`
}

// UpdateStatus covers both suspend and activate. A missing id is a silent
// no-op at the store layer, so the response is 204 either way.
func (h *AdminUsersHandler) UpdateStatus(ctx *gin.Context) {
	var req UpdateStatusRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.users.Update(cctx, ctx.Param("id"), account.UpdateParams{Status: &req.Status})

	if err != nil {
		RespondInternal(ctx, "Could not update user status")
		return
	}

	ctx.Status(http.StatusNoContent)
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

// ResetPassword overwrites the stored password without asking for the
// current one; that is the administrative variant of the profile flow.
func (h *AdminUsersHandler) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not reset password")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err = h.users.Update(cctx, ctx.Param("id"), account.UpdateParams{PasswordHash: &hash})

	if err != nil {
		RespondInternal(ctx, "Could not reset password")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *AdminUsersHandler) Delete(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.users.Delete(cctx, ctx.Param("id")); err != nil {
		RespondInternal(ctx, "Could not delete user")
		return
	}

	ctx.Status(http.StatusNoContent)
}
