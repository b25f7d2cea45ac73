package auth

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type mockRepository struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*User
	sessions map[uuid.UUID]*Session
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:    make(map[uuid.UUID]*User),
		sessions: make(map[uuid.UUID]*Session),
	}
}

func (r *mockRepository) CreateUser(user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrEmailTaken
		}
		if u.CPF == user.CPF {
			return ErrCPFTaken
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *mockRepository) GetUserByID(id uuid.UUID) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *mockRepository) GetUserByEmail(email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *mockRepository) GetUserByCPF(cpf string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.CPF == cpf {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *mockRepository) SetUserActive(id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return ErrUserNotFound
	}
	user.Active = active
	return nil
}

func (r *mockRepository) UpdateUser(user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.ID]; !exists {
		return ErrUserNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *mockRepository) ListInactiveUsers() ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []User
	for _, u := range r.users {
		if !u.Active {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *mockRepository) ClearLock(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return ErrUserNotFound
	}
	user.FailedLoginCount = 0
	user.LockedUntil = nil
	return nil
}

func (r *mockRepository) RecordLoginFailure(id uuid.UUID, threshold int, lockUntil time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return 0, ErrUserNotFound
	}
	user.FailedLoginCount++
	if user.FailedLoginCount >= threshold {
		until := lockUntil
		user.LockedUntil = &until
	}
	return user.FailedLoginCount, nil
}

func (r *mockRepository) RecordLoginSuccess(id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return ErrUserNotFound
	}
	user.FailedLoginCount = 0
	user.LockedUntil = nil
	stamp := at
	user.LastLoginAt = &stamp
	return nil
}

func (r *mockRepository) CreateSession(session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = time.Now()
	clone := *session
	r.sessions[session.ID] = &clone
	return nil
}

func (r *mockRepository) GetSessionByTokenHash(hash string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		if s.TokenHash == hash {
			clone := *s
			return &clone, nil
		}
	}
	return nil, ErrSessionInvalid
}

func (r *mockRepository) DeactivateSession(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[id]
	if !exists {
		return ErrSessionInvalid
	}
	session.Active = false
	return nil
}

func (r *mockRepository) DeactivateSessionByTokenHash(hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		if s.TokenHash == hash && s.Active {
			s.Active = false
			return true, nil
		}
	}
	return false, nil
}

func (r *mockRepository) DeleteExpiredSessions(userID uuid.UUID, before time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		if s.UserID == userID && s.ExpiresAt.Before(before) {
			delete(r.sessions, id)
		}
	}
	return nil
}

// test helpers

func (r *mockRepository) sessionCount(userID uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, s := range r.sessions {
		if s.UserID == userID {
			n++
		}
	}
	return n
}
