package auth

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ndexpress/nd-express/internal/config"
)

type Service struct {
	config     *config.AuthConfig
	log        *zap.Logger
	repository Repository
}

func NewService(config *config.AuthConfig, log *zap.Logger, repo Repository) *Service {
	return &Service{
		config:     config,
		log:        log,
		repository: repo,
	}
}

func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	return string(bytes), err
}

func (s *Service) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

type RegisterInput struct {
	Name     string
	Email    string
	CPF      string
	Password string
}

// Register stores a new, inactive account. Format validation happens at the
// handler boundary; uniqueness is checked here.
func (s *Service) Register(in RegisterInput) (*User, error) {
	email := normalizeEmail(in.Email)
	cpf := FormatCPF(in.CPF)

	if _, err := s.repository.GetUserByEmail(email); err == nil {
		return nil, ErrEmailTaken
	}
	if _, err := s.repository.GetUserByCPF(cpf); err == nil {
		return nil, ErrCPFTaken
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Name:         in.Name,
		Email:        email,
		CPF:          cpf,
		PasswordHash: hash,
		Active:       false,
	}
	if err := s.repository.CreateUser(user); err != nil {
		return nil, err
	}

	s.log.Info("user registered, pending activation",
		zap.String("email", user.Email),
		zap.String("user_id", user.ID.String()))
	return user, nil
}

type LoginResult struct {
	Token     string
	User      *User
	Session   *Session
	ExpiresIn int64
}

// Login runs the per-account state machine: inactive accounts are refused,
// locked accounts report remaining minutes, mismatches count toward the
// lockout threshold, and a match issues a token plus a session row keyed by
// the token digest.
func (s *Service) Login(email, password, clientIP, userAgent string) (*LoginResult, error) {
	user, err := s.repository.GetUserByEmail(normalizeEmail(email))
	if err != nil {
		if err == ErrUserNotFound {
			s.HashPassword("dummy") // keep timing comparable to the found-user path
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Active {
		return nil, ErrAccountInactive
	}

	now := time.Now()
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, &AccountLockedError{Until: *user.LockedUntil}
	}

	if !s.CheckPasswordHash(password, user.PasswordHash) {
		count, err := s.repository.RecordLoginFailure(
			user.ID, s.config.MaxLoginAttempts, now.Add(s.config.LockoutDuration))
		if err != nil {
			s.log.Error("failed to record login failure", zap.Error(err))
			return nil, ErrInvalidCredentials
		}

		remaining := s.config.MaxLoginAttempts - count
		if remaining < 0 {
			remaining = 0
		}
		s.log.Warn("login failed",
			zap.String("email", user.Email),
			zap.Int("failed_attempts", count))
		return nil, &InvalidCredentialsError{AttemptsRemaining: remaining}
	}

	if err := s.repository.RecordLoginSuccess(user.ID, now); err != nil {
		s.log.Error("failed to reset login counters", zap.Error(err))
	}
	user.FailedLoginCount = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	session := &Session{
		UserID:    user.ID,
		TokenHash: TokenDigest(token),
		IPAddress: clientIP,
		UserAgent: userAgent,
		Active:    true,
		ExpiresAt: now.Add(s.config.TokenExpiration),
	}
	if err := s.repository.CreateSession(session); err != nil {
		return nil, err
	}

	// Best effort cleanup; never fails the login.
	if err := s.repository.DeleteExpiredSessions(user.ID, now); err != nil {
		s.log.Warn("failed to purge expired sessions", zap.Error(err))
	}

	s.log.Info("login successful",
		zap.String("email", user.Email),
		zap.String("user_id", user.ID.String()))

	return &LoginResult{
		Token:     token,
		User:      user,
		Session:   session,
		ExpiresIn: int64(s.config.TokenExpiration.Seconds()),
	}, nil
}

// Logout kills the server-side session for the given raw token. It must
// succeed even when the token no longer verifies, so the digest lookup runs
// unconditionally; decoded claims only enable the expired-session purge.
func (s *Service) Logout(rawToken string) (bool, error) {
	invalidated, err := s.repository.DeactivateSessionByTokenHash(TokenDigest(rawToken))
	if err != nil {
		return false, err
	}

	if claims, err := s.ParseToken(rawToken); err == nil {
		if err := s.repository.DeleteExpiredSessions(claims.UserID, time.Now()); err != nil {
			s.log.Warn("failed to purge expired sessions", zap.Error(err))
		}
		s.log.Info("logout", zap.String("user_id", claims.UserID.String()))
	}

	return invalidated, nil
}

type TokenInfo struct {
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	TimeRemaining int64     `json:"time_remaining"`
}

type VerifyResult struct {
	User      *User
	SessionID uuid.UUID
	ExpiresAt time.Time
	TokenInfo TokenInfo
}

// Verify checks the token's own signature/expiry, then the server-side
// session, then the live user record. The session expiry is independent of
// the token's exp: a revoked session invalidates a still-valid token.
func (s *Service) Verify(rawToken string) (*VerifyResult, error) {
	claims, err := s.ParseToken(rawToken)
	if err != nil {
		return nil, err
	}

	session, err := s.repository.GetSessionByTokenHash(TokenDigest(rawToken))
	if err != nil {
		return nil, err
	}
	if !session.Active {
		return nil, ErrSessionInvalid
	}

	now := time.Now()
	if now.After(session.ExpiresAt) {
		if err := s.repository.DeactivateSession(session.ID); err != nil {
			s.log.Warn("failed to deactivate expired session", zap.Error(err))
		}
		return nil, ErrSessionExpired
	}

	user, err := s.repository.GetUserByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		// A deactivated account must not keep using an already-issued token.
		if err := s.repository.DeactivateSession(session.ID); err != nil {
			s.log.Warn("failed to deactivate session of inactive user", zap.Error(err))
		}
		return nil, ErrAccountInactive
	}

	return &VerifyResult{
		User:      user,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
		TokenInfo: TokenInfo{
			IssuedAt:      claims.IssuedAt.Time,
			ExpiresAt:     claims.ExpiresAt.Time,
			TimeRemaining: claims.ExpiresAt.Unix() - now.Unix(),
		},
	}, nil
}

type ProfileUpdate struct {
	Name            string
	CurrentPassword string
	NewPassword     string
}

// UpdateProfile changes the display name and, when a new password is given
// along with the correct current one, rotates the password hash.
func (s *Service) UpdateProfile(userID uuid.UUID, upd ProfileUpdate) (*User, error) {
	user, err := s.repository.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if upd.Name != "" {
		user.Name = upd.Name
	}
	if upd.NewPassword != "" {
		if !s.CheckPasswordHash(upd.CurrentPassword, user.PasswordHash) {
			return nil, ErrInvalidCredentials
		}
		hash, err := s.HashPassword(upd.NewPassword)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.repository.UpdateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}
