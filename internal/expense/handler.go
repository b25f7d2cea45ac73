package expense

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ndexpress/nd-express/internal/auth"
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

type openReportRequest struct {
	Description string `json:"description"`
}

type closeReportRequest struct {
	Description string `json:"description"`
}

type setAdvanceRequest struct {
	Amount float64 `json:"amount"`
}

type addLaunchRequest struct {
	Date          string  `json:"date"`
	Value         float64 `json:"value"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	Establishment string  `json:"establishment"`
	ReceiptURL    string  `json:"receipt_url"`
	Confidence    int     `json:"confidence"`
}

func (h *Handler) OpenReport(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req openReportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid request", "request body must be valid JSON")
			return
		}
	}

	report, err := h.service.OpenReport(user.ID, req.Description)
	if err != nil {
		if errors.Is(err, ErrOpenReportExists) {
			writeError(c, http.StatusConflict, "open report exists", "close the current report before opening a new one")
			return
		}
		h.log.Error("failed to open report", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "internal error", "failed to open report")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "report opened",
		"data":    report,
	})
}

// CurrentReport returns the caller's open report, if any.
func (h *Handler) CurrentReport(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	report, err := h.service.OpenReportFor(user.ID)
	if err != nil {
		if errors.Is(err, ErrReportNotFound) {
			writeError(c, http.StatusNotFound, "no open report", "no report is currently open")
			return
		}
		h.log.Error("failed to fetch open report", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "internal error", "failed to fetch open report")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": report})
}

func (h *Handler) CloseReport(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	reportID, ok := pathID(c)
	if !ok {
		return
	}

	var req closeReportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid request", "request body must be valid JSON")
			return
		}
	}

	report, err := h.service.CloseReport(user.ID, reportID, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, ErrReportNotFound):
			writeError(c, http.StatusNotFound, "report not found", "report does not exist")
		case errors.Is(err, ErrReportClosed):
			writeError(c, http.StatusConflict, "report closed", "report is already closed")
		default:
			h.log.Error("failed to close report", zap.Error(err))
			writeError(c, http.StatusInternalServerError, "internal error", "failed to close report")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "report closed",
		"data":    report,
	})
}

func (h *Handler) SetAdvance(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	reportID, ok := pathID(c)
	if !ok {
		return
	}

	var req setAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request", "request body must be valid JSON")
		return
	}

	report, err := h.service.SetAdvance(user.ID, reportID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrReportNotFound):
			writeError(c, http.StatusNotFound, "report not found", "report does not exist")
		case errors.Is(err, ErrInvalidLaunch):
			writeError(c, http.StatusBadRequest, "invalid amount", err.Error())
		default:
			h.log.Error("failed to set advance", zap.Error(err))
			writeError(c, http.StatusInternalServerError, "internal error", "failed to set advance")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "advance recorded",
		"data":    report,
	})
}

func (h *Handler) AddLaunch(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	reportID, ok := pathID(c)
	if !ok {
		return
	}

	var req addLaunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request", "request body must be valid JSON")
		return
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := parseExpenseDate(req.Date)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid date", "date must be RFC 3339 or YYYY-MM-DD")
			return
		}
		date = parsed
	}

	expense, err := h.service.AddLaunch(user.ID, reportID, LaunchInput{
		Date:          date,
		Value:         req.Value,
		Description:   req.Description,
		Category:      req.Category,
		Establishment: req.Establishment,
		ReceiptURL:    req.ReceiptURL,
		Confidence:    req.Confidence,
	})
	if err != nil {
		var capErr *CategoryCapError
		switch {
		case errors.Is(err, ErrReportNotFound):
			writeError(c, http.StatusNotFound, "report not found", "report does not exist")
		case errors.Is(err, ErrReportClosed):
			writeError(c, http.StatusConflict, "report closed", "cannot add launches to a closed report")
		case errors.As(err, &capErr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "value exceeds category cap",
				"message": capErr.Error(),
				"cap":     capErr.Cap,
			})
		case errors.Is(err, ErrInvalidLaunch):
			writeError(c, http.StatusBadRequest, "invalid launch", err.Error())
		default:
			h.log.Error("failed to add launch", zap.Error(err))
			writeError(c, http.StatusInternalServerError, "internal error", "failed to add launch")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "launch recorded",
		"data":    expense,
	})
}

func (h *Handler) ListLaunches(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	reportID, ok := pathID(c)
	if !ok {
		return
	}

	launches, err := h.service.ListLaunches(user.ID, reportID)
	if err != nil {
		if errors.Is(err, ErrReportNotFound) {
			writeError(c, http.StatusNotFound, "report not found", "report does not exist")
			return
		}
		h.log.Error("failed to list launches", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "internal error", "failed to list launches")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"expenses": launches,
			"count":    len(launches),
		},
	})
}

func (h *Handler) DeleteLaunch(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	expenseID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteLaunch(user.ID, expenseID); err != nil {
		switch {
		case errors.Is(err, ErrExpenseNotFound):
			writeError(c, http.StatusNotFound, "expense not found", "expense does not exist")
		case errors.Is(err, ErrReportNotFound):
			writeError(c, http.StatusNotFound, "expense not found", "expense does not exist")
		default:
			h.log.Error("failed to delete launch", zap.Error(err))
			writeError(c, http.StatusInternalServerError, "internal error", "failed to delete launch")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "launch deleted",
	})
}

func (h *Handler) Summary(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	reportID, ok := pathID(c)
	if !ok {
		return
	}

	summary, err := h.service.Summarize(user.ID, reportID)
	if err != nil {
		if errors.Is(err, ErrReportNotFound) {
			writeError(c, http.StatusNotFound, "report not found", "report does not exist")
			return
		}
		h.log.Error("failed to summarize report", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "internal error", "failed to summarize report")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": summary})
}

func parseExpenseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func writeError(c *gin.Context, status int, kind, message string) {
	c.JSON(status, gin.H{"error": kind, "message": message})
}
