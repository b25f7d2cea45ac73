package vision

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

type analyzeRequest struct {
	ImageBase64 string `json:"image_base64"`
}

// Analyze extracts launch data from a receipt image.
func (h *Handler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request", "request body must be valid JSON")
		return
	}
	if req.ImageBase64 == "" {
		writeError(c, http.StatusBadRequest, "missing required fields", "image_base64 is required")
		return
	}

	extraction, err := h.service.Analyze(c.Request.Context(), req.ImageBase64)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotConfigured):
			writeError(c, http.StatusServiceUnavailable, "vision unavailable", "receipt analysis is not configured on this server")
		case errors.Is(err, ErrInvalidImage):
			writeError(c, http.StatusBadRequest, "invalid image", "image_base64 must be a jpg, png or webp image")
		case errors.Is(err, ErrImageTooLarge):
			writeError(c, http.StatusRequestEntityTooLarge, "image too large", "image exceeds the analysis size limit")
		case errors.Is(err, ErrUnparsableScan):
			writeError(c, http.StatusBadGateway, "unreadable receipt", "the provider reply could not be parsed")
		case errors.Is(err, ErrUpstream):
			h.log.Error("vision provider call failed", zap.Error(err))
			writeError(c, http.StatusBadGateway, "provider error", "the vision provider rejected the request")
		default:
			h.log.Error("receipt analysis failed", zap.Error(err))
			writeError(c, http.StatusInternalServerError, "internal error", "failed to analyze receipt")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "receipt analyzed",
		"data":    extraction,
	})
}

func writeError(c *gin.Context, status int, kind, message string) {
	c.JSON(status, gin.H{"error": kind, "message": message})
}
