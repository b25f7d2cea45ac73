package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

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

type registerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	CPF   string `json:"cpf"`
	Senha string `json:"senha"`
}

type loginRequest struct {
	Email string `json:"email"`
	Senha string `json:"senha"`
}

type updateProfileRequest struct {
	Name            string `json:"name"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request", "request body must be valid JSON")
		return
	}

	if msg := validateRegisterRequest(&req); msg != "" {
		h.log.Warn("invalid register request", zap.String("reason", msg))
		writeError(c, http.StatusBadRequest, "invalid request", msg)
		return
	}

	user, err := h.service.Register(RegisterInput{
		Name:     strings.TrimSpace(req.Name),
		Email:    req.Email,
		CPF:      req.CPF,
		Password: req.Senha,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			writeError(c, http.StatusConflict, "email already registered", "this email is already in use")
		case errors.Is(err, ErrCPFTaken):
			writeError(c, http.StatusConflict, "cpf already registered", "this CPF is already in use")
		default:
			h.log.Error("failed to register user", zap.Error(err))
			writeError(c, http.StatusInternalServerError, "internal error", "failed to create user")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "user created, awaiting activation by an administrator",
		"data":    user.Public(),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request", "request body must be valid JSON")
		return
	}
	if req.Email == "" || req.Senha == "" {
		writeError(c, http.StatusBadRequest, "missing required fields", "email and senha are required")
		return
	}

	result, err := h.service.Login(req.Email, req.Senha, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		var locked *AccountLockedError
		var badCreds *InvalidCredentialsError
		switch {
		case errors.As(err, &locked):
			c.JSON(http.StatusLocked, gin.H{
				"error":               "account locked",
				"message":             locked.Error(),
				"retry_after_minutes": locked.RetryAfterMinutes(),
			})
		case errors.As(err, &badCreds):
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":                "invalid credentials",
				"message":              "email or senha incorrect",
				"tentativas_restantes": badCreds.AttemptsRemaining,
			})
		case errors.Is(err, ErrInvalidCredentials):
			writeError(c, http.StatusUnauthorized, "invalid credentials", "email or senha incorrect")
		case errors.Is(err, ErrAccountInactive):
			writeError(c, http.StatusForbidden, "account inactive", "your account has not been activated by an administrator yet")
		default:
			h.log.Error("login failed", zap.Error(err))
			writeError(c, http.StatusInternalServerError, "internal error", "unexpected error during login")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "login successful",
		"data": gin.H{
			"token":      result.Token,
			"user":       result.User.Public(),
			"expires_in": result.ExpiresIn,
		},
	})
}

func (h *Handler) Logout(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "token missing", "a Bearer token is required for logout")
		return
	}

	invalidated, err := h.service.Logout(token)
	if err != nil {
		h.log.Error("logout failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "internal error", "unexpected error during logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "logout successful",
		"data": gin.H{
			"session_invalidated": invalidated,
			"timestamp":           time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (h *Handler) Verify(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "token missing", "an authentication token is required")
		return
	}

	result, err := h.service.Verify(token)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenExpired):
			writeError(c, http.StatusUnauthorized, "token expired", "authentication token expired")
		case errors.Is(err, ErrTokenInvalid):
			writeError(c, http.StatusUnauthorized, "token invalid", "authentication token invalid")
		case errors.Is(err, ErrSessionExpired):
			writeError(c, http.StatusUnauthorized, "session expired", "authentication session expired")
		case errors.Is(err, ErrSessionInvalid):
			writeError(c, http.StatusUnauthorized, "session invalid", "session not found or inactive")
		case errors.Is(err, ErrUserNotFound):
			writeError(c, http.StatusUnauthorized, "user not found", "user no longer exists")
		case errors.Is(err, ErrAccountInactive):
			writeError(c, http.StatusForbidden, "account inactive", "account was deactivated by an administrator")
		default:
			h.log.Error("verify failed", zap.Error(err))
			writeError(c, http.StatusInternalServerError, "internal error", "unexpected error during verification")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "token valid",
		"data": gin.H{
			"user": result.User.Public(),
			"session": gin.H{
				"id":         result.SessionID,
				"expires_at": result.ExpiresAt,
			},
			"token_info": result.TokenInfo,
		},
	})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	user, ok := UserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request", "request body must be valid JSON")
		return
	}
	if req.Name == "" && req.NewPassword == "" {
		writeError(c, http.StatusBadRequest, "nothing to update", "provide name or new_password")
		return
	}
	if req.NewPassword != "" && len(req.NewPassword) < 6 {
		writeError(c, http.StatusBadRequest, "senha too weak", "senha must be at least 6 characters")
		return
	}

	updated, err := h.service.UpdateProfile(user.ID, ProfileUpdate{
		Name:            strings.TrimSpace(req.Name),
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(c, http.StatusUnauthorized, "invalid credentials", "current password is incorrect")
			return
		}
		h.log.Error("profile update failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "internal error", "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "profile updated",
		"data":    updated.Public(),
	})
}

func validateRegisterRequest(req *registerRequest) string {
	if req.Name == "" || req.Email == "" || req.CPF == "" || req.Senha == "" {
		return "name, email, cpf and senha are required"
	}
	if !ValidEmail(req.Email) {
		return "invalid email format"
	}
	if len(stripCPF(req.CPF)) != 11 {
		return "cpf must have 11 digits"
	}
	if !ValidCPF(req.CPF) {
		return "invalid cpf"
	}
	if len(req.Senha) < 6 {
		return "senha must be at least 6 characters"
	}
	return ""
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

func writeError(c *gin.Context, status int, kind, message string) {
	c.JSON(status, gin.H{"error": kind, "message": message})
}
