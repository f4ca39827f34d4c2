// Package auth implements the admin session: bcrypt password check, admin
// role gate and an in-memory session store with sliding expiry.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dineadmin/internal/cache"
	"dineadmin/internal/core"
	"dineadmin/internal/log"
	"dineadmin/internal/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const maxSessions = 1000

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccessDenied       = errors.New("Access denied. Admin only.")
)

type Session struct {
	ID        string
	ProfileID string
	Name      string
	Email     string
	Role      core.Role
	CreatedAt time.Time
}

type Service struct {
	staff    store.StaffReader
	sessions *cache.LRUCache[Session]
	logger   *log.Logger
}

func NewService(staff store.StaffReader, ttl time.Duration, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		staff:    staff,
		sessions: cache.NewLRUCache[Session](maxSessions, ttl),
		logger:   logger.WithComponent(log.ComponentAuth),
	}
}

// Login checks the password and opens a session. Only admins may log in.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	p, err := s.staff.GetProfileByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.WarnContext(ctx, "Login for unknown account", log.FieldEmail, email)
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("look up account: %w", err)
	}

	if p.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		s.logger.WarnContext(ctx, "Login with wrong password", log.FieldProfileID, p.ID)
		return Session{}, ErrInvalidCredentials
	}
	if p.Role != core.RoleAdmin {
		s.logger.WarnContext(ctx, "Login denied for non-admin", log.FieldProfileID, p.ID, "role", p.Role)
		return Session{}, ErrAccessDenied
	}

	sess := Session{
		ID:        uuid.NewString(),
		ProfileID: p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Role:      p.Role,
		CreatedAt: time.Now(),
	}
	s.sessions.Set(sess.ID, sess)
	s.logger.InfoContext(ctx, "Admin logged in",
		log.FieldOperation, log.OpLogin,
		log.FieldProfileID, p.ID)
	return sess, nil
}

// Authenticate returns the live session for id and extends its expiry.
func (s *Service) Authenticate(id string) (Session, bool) {
	if id == "" {
		return Session{}, false
	}
	sess, ok := s.sessions.Get(id)
	if !ok {
		return Session{}, false
	}
	s.sessions.Touch(id)
	return sess, true
}

func (s *Service) Logout(id string) {
	s.sessions.Delete(id)
}

// Sessions exposes the store for periodic cleanup.
func (s *Service) Sessions() cache.Cleaner {
	return s.sessions
}
