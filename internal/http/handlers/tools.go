package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/docaidkit/medkit/internal/cache"
	"github.com/docaidkit/medkit/internal/config"
	"github.com/docaidkit/medkit/internal/proxy"
	"github.com/gin-gonic/gin"
)

// maxImageBytes caps a single diagnostic upload.
const maxImageBytes = 10 << 20

type ToolsHandler struct {
	chat      *proxy.ChatRelay
	drugs     *proxy.DrugsClient
	imaging   proxy.Predictor
	descCache *cache.Cache
}

func NewToolsHandler(chat *proxy.ChatRelay, drugs *proxy.DrugsClient, imaging proxy.Predictor) *ToolsHandler {
	return &ToolsHandler{
		chat:      chat,
		drugs:     drugs,
		imaging:   imaging,
		descCache: cache.New(10 * time.Minute),
	}
}

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// Chat forwards the message and mirrors the upstream answer, JSON or
// wrapped raw text.
func (h *ToolsHandler) Chat(ctx *gin.Context) {
	var req ChatRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(30 * time.Second)
	defer cancel()

	status, body, err := h.chat.Send(cctx, req.Message)

	if err != nil {
		if errors.Is(err, proxy.ErrChatNotConfigured) {
			RespondUnavailable(ctx, "Chat assistant is not configured")
			return
		}

		RespondBadGateway(ctx, "Chat assistant is unavailable")
		return
	}

	ctx.Data(status, "application/json", body)
}

type DrugSearchRequest struct {
	DrugName string `json:"drugName" binding:"required"`
}

func (h *ToolsHandler) DrugSearch(ctx *gin.Context) {
	var req DrugSearchRequest

	if !BindJSON(ctx, &req) {
		return
	}

	name, err := proxy.ValidateDrugName(req.DrugName)

	if err != nil {
		RespondError(ctx, http.StatusBadRequest, "invalid_drug_name", err.Error(), nil)
		return
	}

	cctx, cancel := config.WithTimeout(15 * time.Second)
	defer cancel()

	result, err := h.drugs.Search(cctx, name)

	if err != nil {
		RespondBadGateway(ctx, "Drug service is unavailable")
		return
	}

	ctx.JSON(http.StatusOK, result)
}

type DrugInteractionRequest struct {
	Drug1 string `json:"drug1" binding:"required"`
	Drug2 string `json:"drug2" binding:"required"`
}

func (h *ToolsHandler) DrugInteraction(ctx *gin.Context) {
	var req DrugInteractionRequest

	if !BindJSON(ctx, &req) {
		return
	}

	drug1, err := proxy.ValidateDrugName(req.Drug1)

	if err != nil {
		RespondError(ctx, http.StatusBadRequest, "invalid_drug_name", err.Error(), gin.H{"field": "drug1"})
		return
	}

	drug2, err := proxy.ValidateDrugName(req.Drug2)

	if err != nil {
		RespondError(ctx, http.StatusBadRequest, "invalid_drug_name", err.Error(), gin.H{"field": "drug2"})
		return
	}

	cctx, cancel := config.WithTimeout(15 * time.Second)
	defer cancel()

	result, err := h.drugs.CheckInteraction(cctx, drug1, drug2)

	if err != nil {
		RespondBadGateway(ctx, "Drug service is unavailable")
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// DrugDescription proxies the description lookup; answers are cached for
// a few minutes since the upstream dataset barely changes.
func (h *ToolsHandler) DrugDescription(ctx *gin.Context) {
	name, err := proxy.ValidateDrugName(ctx.Query("name"))

	if err != nil {
		RespondError(ctx, http.StatusBadRequest, "invalid_drug_name", err.Error(), nil)
		return
	}

	language := ctx.DefaultQuery("language", "english")

	cacheKey := "desc:" + language + ":" + name

	if cached, ok := h.descCache.Get(cacheKey); ok {
		if result, ok := cached.(proxy.DescriptionResult); ok {
			ctx.JSON(http.StatusOK, result)
			return
		}
	}

	cctx, cancel := config.WithTimeout(15 * time.Second)
	defer cancel()

	result, err := h.drugs.Describe(cctx, name, language)

	if err != nil {
		RespondBadGateway(ctx, "Drug service is unavailable")
		return
	}

	h.descCache.Set(cacheKey, result)

	ctx.JSON(http.StatusOK, result)
}

// ImagingPredict accepts a multipart image and forwards it to the
// configured inference endpoint for the named tool.
func (h *ToolsHandler) ImagingPredict(ctx *gin.Context) {
	tool := ctx.Param("tool")

	fileHeader, err := ctx.FormFile("file")

	if err != nil {
		RespondBadRequest(ctx, "Missing image file", gin.H{"field": "file"})
		return
	}

	if fileHeader.Size > maxImageBytes {
		RespondError(ctx, http.StatusRequestEntityTooLarge, "file_too_large", "Image exceeds the upload limit", nil)
		return
	}

	f, err := fileHeader.Open()

	if err != nil {
		RespondBadRequest(ctx, "Unreadable image file", nil)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)

	if err != nil {
		RespondBadRequest(ctx, "Unreadable image file", nil)
		return
	}

	cctx, cancel := config.WithTimeout(60 * time.Second)
	defer cancel()

	pred, err := h.imaging.Predict(cctx, tool, fileHeader.Filename, data)

	if err != nil {
		switch {
		case errors.Is(err, proxy.ErrUnknownTool):
			RespondNotFound(ctx, "Unknown imaging tool")
		case errors.Is(err, proxy.ErrCircuitOpen):
			RespondUnavailable(ctx, "Imaging service is cooling down, try again shortly")
		default:
			RespondBadGateway(ctx, "Imaging service is unavailable")
		}
		return
	}

	ctx.JSON(http.StatusOK, pred)
}
