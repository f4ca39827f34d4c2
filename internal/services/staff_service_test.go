package services

import (
	"context"
	"errors"
	"testing"

	"dineadmin/internal/core"
	"dineadmin/internal/log"
	"dineadmin/internal/store/memory"

	"golang.org/x/crypto/bcrypt"
)

func newStaffService(st *memory.Store) *StaffService {
	s := NewStaffService(st, log.Discard())
	s.cost = bcrypt.MinCost
	return s
}

func TestStaffService_CreateWaiter(t *testing.T) {
	ctx := context.Background()
	st := memory.New(nil)
	s := newStaffService(st)

	id, err := s.CreateWaiter(ctx, "Ravi", " Ravi@Example.com ", "secret1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	p, err := st.GetProfileByEmail(ctx, "ravi@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if p.ID != id || p.Role != core.RoleWaiter || p.Status != core.StaffOffline {
		t.Errorf("unexpected profile %+v", p)
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte("secret1")) != nil {
		t.Error("stored hash does not match password")
	}

	if _, err := s.CreateWaiter(ctx, "Other", "RAVI@example.com", "secret2"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestStaffService_CreateStaffValidation(t *testing.T) {
	s := newStaffService(memory.New(nil))
	tests := []struct {
		name     string
		email    string
		password string
		role     core.Role
		want     error
	}{
		{"missing email", "", "secret1", core.RoleWaiter, ErrMissingEmail},
		{"short password", "a@b.c", "123", core.RoleWaiter, ErrWeakPassword},
		{"bad email", "nope", "secret1", core.RoleWaiter, core.ErrInvalidEmail},
		{"bad role", "a@b.c", "secret1", core.Role("chef"), core.ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateStaff(context.Background(), "Name", tt.email, tt.password, tt.role)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStaffService_ResetPassword(t *testing.T) {
	ctx := context.Background()
	st := memory.New(nil)
	s := newStaffService(st)
	if _, err := s.CreateStaff(ctx, "Owner", "owner@example.com", "first-pass", core.RoleAdmin); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.ResetPassword(ctx, "owner@example.com", "second-pass"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	p, _ := st.GetProfileByEmail(ctx, "owner@example.com")
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte("second-pass")) != nil {
		t.Error("password was not replaced")
	}

	if err := s.ResetPassword(ctx, "ghost@example.com", "whatever"); !errors.Is(err, ErrUnknownAccount) {
		t.Errorf("expected ErrUnknownAccount, got %v", err)
	}
	if err := s.ResetPassword(ctx, "owner@example.com", "x"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}
}
