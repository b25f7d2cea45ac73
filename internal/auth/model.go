package auth

import (
	"time"

	"github.com/google/uuid"
)

// User is a credential-store row. Accounts start inactive and are activated
// out of band by an administrator.
type User struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name             string     `gorm:"not null"`
	Email            string     `gorm:"uniqueIndex;not null"`
	CPF              string     `gorm:"uniqueIndex;not null"`
	PasswordHash     string     `gorm:"not null"`
	Active           bool       `gorm:"not null;default:false"`
	FailedLoginCount int        `gorm:"not null;default:0"`
	LockedUntil      *time.Time `gorm:"index"`
	LastLoginAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (User) TableName() string {
	return "users"
}

// Session is a server-side, revocable grant tied to one issued token. Only a
// sha256 digest of the token is stored, never the token itself.
type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	TokenHash string    `gorm:"size:64;uniqueIndex;not null"`
	IPAddress string
	UserAgent string
	Active    bool      `gorm:"not null;default:true"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

func (Session) TableName() string {
	return "sessions"
}

// Valid reports whether the session can still authorize requests.
func (s *Session) Valid(now time.Time) bool {
	return s.Active && now.Before(s.ExpiresAt)
}

// PublicUser is the wire representation of a user, without secret fields.
type PublicUser struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	CPF         string     `json:"cpf"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		CPF:         u.CPF,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
