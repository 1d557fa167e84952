package handlers

import (
	"net/http"
	"time"

	"github.com/docaidkit/medkit/internal/config"
	"github.com/docaidkit/medkit/internal/prefs"
	"github.com/gin-gonic/gin"
)

type PrefsHandler struct {
	store *prefs.Store
}

func NewPrefsHandler(store *prefs.Store) *PrefsHandler {
	return &PrefsHandler{store: store}
}

func (h *PrefsHandler) Get(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.store.Get(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not read preferences")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"preferences": p})
}

type UpdatePrefsRequest struct {
	Language string `json:"language" binding:"required,oneof=en ar"`
	Theme    string `json:"theme" binding:"required,oneof=light dark"`
}

// Update persists the preferences; subscribers get the change pushed
// instead of polling the stored value.
func (h *PrefsHandler) Update(ctx *gin.Context) {
	var req UpdatePrefsRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p := prefs.Preferences{Language: req.Language, Theme: req.Theme}

	if err := h.store.Set(cctx, p); err != nil {
		RespondInternal(ctx, "Could not save preferences")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"preferences": p})
}
