package storage

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	store *Store
	log   *zap.Logger
}

func NewHandler(store *Store, log *zap.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log,
	}
}

type uploadRequest struct {
	FileBase64 string `json:"file_base64"`
	FileName   string `json:"file_name"`
}

// Upload accepts a multipart form or a base64 JSON payload and stores the
// receipt image.
func (h *Handler) Upload(c *gin.Context) {
	fileName, data, ok := readUpload(c)
	if !ok {
		return
	}

	saved, err := h.store.Save(fileName, data)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedFormat):
			writeError(c, http.StatusUnsupportedMediaType, "unsupported format", "only jpg, png and webp receipts are accepted")
		case errors.Is(err, ErrFileTooLarge):
			writeError(c, http.StatusRequestEntityTooLarge, "file too large", "receipt exceeds the upload size limit")
		case errors.Is(err, ErrEmptyFile):
			writeError(c, http.StatusBadRequest, "empty file", "receipt payload is empty")
		default:
			h.log.Error("failed to store receipt", zap.Error(err))
			writeError(c, http.StatusInternalServerError, "internal error", "failed to store receipt")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "receipt stored",
		"data":    saved,
	})
}

// readUpload pulls the receipt bytes out of either a multipart "file" field
// or a {file_base64, file_name} JSON body. On failure it writes the error
// response itself.
func readUpload(c *gin.Context) (string, []byte, bool) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		header, err := c.FormFile("file")
		if err != nil {
			writeError(c, http.StatusBadRequest, "missing required fields", "a 'file' form field is required")
			return "", nil, false
		}
		f, err := header.Open()
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid upload", "could not read the uploaded file")
			return "", nil, false
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid upload", "could not read the uploaded file")
			return "", nil, false
		}
		return header.Filename, data, true
	}

	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request", "request body must be valid JSON")
		return "", nil, false
	}
	if req.FileBase64 == "" || req.FileName == "" {
		writeError(c, http.StatusBadRequest, "missing required fields", "file_base64 and file_name are required")
		return "", nil, false
	}

	data, err := base64.StdEncoding.DecodeString(stripDataURL(req.FileBase64))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid encoding", "file_base64 must be valid base64")
		return "", nil, false
	}
	return req.FileName, data, true
}

// stripDataURL drops a "data:image/png;base64," prefix when present.
func stripDataURL(raw string) string {
	if i := strings.Index(raw, ";base64,"); i >= 0 && strings.HasPrefix(raw, "data:") {
		return raw[i+len(";base64,"):]
	}
	return raw
}

func writeError(c *gin.Context, status int, kind, message string) {
	c.JSON(status, gin.H{"error": kind, "message": message})
}
