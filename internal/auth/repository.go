package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateUser(user *User) error
	GetUserByID(id uuid.UUID) (*User, error)
	GetUserByEmail(email string) (*User, error)
	GetUserByCPF(cpf string) (*User, error)
	SetUserActive(id uuid.UUID, active bool) error
	UpdateUser(user *User) error
	// ListInactiveUsers returns accounts still waiting for activation,
	// oldest first.
	ListInactiveUsers() ([]User, error)
	// ClearLock resets the failure counter and lifts a lockout.
	ClearLock(id uuid.UUID) error

	// RecordLoginFailure increments the failure counter in one conditional
	// UPDATE and sets locked_until when the counter reaches threshold. It
	// returns the counter value after the increment.
	RecordLoginFailure(id uuid.UUID, threshold int, lockUntil time.Time) (int, error)
	// RecordLoginSuccess resets the counter, clears the lock and stamps
	// last_login_at.
	RecordLoginSuccess(id uuid.UUID, at time.Time) error

	CreateSession(session *Session) error
	GetSessionByTokenHash(hash string) (*Session, error)
	DeactivateSession(id uuid.UUID) error
	// DeactivateSessionByTokenHash flips active=false on the matching session
	// and reports whether one was found still active.
	DeactivateSessionByTokenHash(hash string) (bool, error)
	DeleteExpiredSessions(userID uuid.UUID, before time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateUser(user *User) error {
	return r.db.Create(user).Error
}

func (r *repository) GetUserByID(id uuid.UUID) (*User, error) {
	var user User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetUserByEmail(email string) (*User, error) {
	var user User
	if err := r.db.Where("lower(email) = lower(?)", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetUserByCPF(cpf string) (*User, error) {
	var user User
	if err := r.db.Where("cpf = ?", cpf).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) SetUserActive(id uuid.UUID, active bool) error {
	return r.db.Model(&User{}).Where("id = ?", id).Update("active", active).Error
}

func (r *repository) UpdateUser(user *User) error {
	return r.db.Save(user).Error
}

func (r *repository) ListInactiveUsers() ([]User, error) {
	var users []User
	err := r.db.Where("active = false").Order("created_at asc").Find(&users).Error
	return users, err
}

func (r *repository) ClearLock(id uuid.UUID) error {
	return r.db.Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"failed_login_count": 0,
		"locked_until":       nil,
	}).Error
}

func (r *repository) RecordLoginFailure(id uuid.UUID, threshold int, lockUntil time.Time) (int, error) {
	// Single conditional UPDATE so two concurrent failures cannot under-count
	// toward the lockout threshold.
	err := r.db.Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"failed_login_count": gorm.Expr("failed_login_count + 1"),
		"locked_until": gorm.Expr(
			"CASE WHEN failed_login_count + 1 >= ? THEN ?::timestamptz ELSE locked_until END",
			threshold, lockUntil,
		),
	}).Error
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.Model(&User{}).Where("id = ?", id).
		Select("failed_login_count").Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) RecordLoginSuccess(id uuid.UUID, at time.Time) error {
	return r.db.Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"failed_login_count": 0,
		"locked_until":       nil,
		"last_login_at":      at,
	}).Error
}

func (r *repository) CreateSession(session *Session) error {
	return r.db.Create(session).Error
}

func (r *repository) GetSessionByTokenHash(hash string) (*Session, error) {
	var session Session
	if err := r.db.Where("token_hash = ?", hash).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	return &session, nil
}

func (r *repository) DeactivateSession(id uuid.UUID) error {
	return r.db.Model(&Session{}).Where("id = ?", id).Update("active", false).Error
}

func (r *repository) DeactivateSessionByTokenHash(hash string) (bool, error) {
	res := r.db.Model(&Session{}).
		Where("token_hash = ? AND active = true", hash).
		Update("active", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) DeleteExpiredSessions(userID uuid.UUID, before time.Time) error {
	return r.db.Where("user_id = ? AND expires_at < ?", userID, before).
		Delete(&Session{}).Error
}
