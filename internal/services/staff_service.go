package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dineadmin/internal/core"
	"dineadmin/internal/log"
	"dineadmin/internal/store"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

var (
	ErrWeakPassword   = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrEmailTaken     = errors.New("email already registered")
	ErrMissingEmail   = errors.New("email is required")
	ErrUnknownAccount = errors.New("no account with that email")
)

// StaffAccounts is the subset of the store the staff service needs.
type StaffAccounts interface {
	store.StaffReader
	store.StaffWriter
}

// StaffService provisions staff accounts. Passwords are stored as bcrypt hashes.
type StaffService struct {
	staff  StaffAccounts
	cost   int
	logger *log.Logger
}

func NewStaffService(staff StaffAccounts, logger *log.Logger) *StaffService {
	if logger == nil {
		logger = log.Default()
	}
	return &StaffService{
		staff:  staff,
		cost:   bcrypt.DefaultCost,
		logger: logger.WithComponent(log.ComponentAuth),
	}
}

// CreateWaiter registers a waiter account.
func (s *StaffService) CreateWaiter(ctx context.Context, name, email, password string) (string, error) {
	return s.CreateStaff(ctx, name, email, password, core.RoleWaiter)
}

// CreateStaff registers an account with the given role. Emails are unique,
// compared case-insensitively.
func (s *StaffService) CreateStaff(ctx context.Context, name, email, password string, role core.Role) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrMissingEmail
	}
	if _, err := s.staff.GetProfileByEmail(ctx, email); err == nil {
		return "", fmt.Errorf("%s: %w", email, ErrEmailTaken)
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("look up %s: %w", email, err)
	}

	hash, err := s.hash(password)
	if err != nil {
		return "", err
	}
	p := core.Profile{
		Name:         strings.TrimSpace(name),
		Email:        email,
		Role:         role,
		Status:       core.StaffOffline,
		PasswordHash: hash,
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	id, err := s.staff.CreateProfile(ctx, p)
	if err != nil {
		return "", fmt.Errorf("create profile: %w", err)
	}
	s.logger.InfoContext(ctx, "Created staff account",
		log.FieldProfileID, id,
		log.FieldEmail, email,
		"role", role)
	return id, nil
}

// ResetPassword replaces the password of the account with email.
func (s *StaffService) ResetPassword(ctx context.Context, email, password string) error {
	p, err := s.staff.GetProfileByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", email, ErrUnknownAccount)
	}
	if err != nil {
		return fmt.Errorf("look up %s: %w", email, err)
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	if err := s.staff.SetPassword(ctx, p.ID, hash); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	s.logger.InfoContext(ctx, "Password reset", log.FieldProfileID, p.ID)
	return nil
}

func (s *StaffService) hash(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}
