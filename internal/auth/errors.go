package auth

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrCPFTaken           = errors.New("cpf already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account has not been activated")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrSessionInvalid     = errors.New("session not found or inactive")
	ErrSessionExpired     = errors.New("session expired")
)

// InvalidCredentialsError is returned on a password mismatch and carries how
// many attempts remain before the account locks.
type InvalidCredentialsError struct {
	AttemptsRemaining int
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials (%d attempts remaining)", e.AttemptsRemaining)
}

func (e *InvalidCredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

// AccountLockedError is returned while a lockout window is in effect.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, try again in %d minutes", e.RetryAfterMinutes())
}

// RetryAfterMinutes returns the remaining lockout time rounded up to whole
// minutes, never less than 1 while the lock is in effect.
func (e *AccountLockedError) RetryAfterMinutes() int {
	remaining := time.Until(e.Until)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Minutes()))
}
