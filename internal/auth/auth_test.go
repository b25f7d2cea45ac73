package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/ndexpress/nd-express/internal/config"
)

func newTestLogger(t *testing.T) *zap.Logger {
	logger, err := zap.NewDevelopment()
	assert.NoError(t, err)
	return logger
}

func newTestConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:        "test-secret-key",
		TokenExpiration:  24 * time.Hour,
		BcryptCost:       4, // minimum cost keeps the suite fast
		MaxLoginAttempts: 5,
		LockoutDuration:  30 * time.Minute,
	}
}

func newTestService(t *testing.T) *Service {
	return NewService(
		newTestConfig(),
		newTestLogger(t),
		newMockRepository(),
	)
}

func newTestServiceWithRepo(t *testing.T, repo Repository) *Service {
	return NewService(
		newTestConfig(),
		newTestLogger(t),
		repo,
	)
}

func newTestHandler(t *testing.T) *Handler {
	return NewHandler(newTestService(t), newTestLogger(t))
}

// registerActive creates an account and flips it active, the way an
// administrator would.
func registerActive(t *testing.T, svc *Service, email, password string) *User {
	t.Helper()

	user, err := svc.Register(RegisterInput{
		Name:     "Test User",
		Email:    email,
		CPF:      "123.456.789-09",
		Password: password,
	})
	assert.NoError(t, err)

	assert.NoError(t, svc.repository.SetUserActive(user.ID, true))
	user.Active = true
	return user
}
