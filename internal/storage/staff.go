package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dineadmin/internal/core"
	"dineadmin/internal/store"

	"github.com/google/uuid"
)

// ListWaiters implements store.StaffReader
func (r *Repository) ListWaiters(ctx context.Context) ([]core.Profile, error) {
	rows, err := r.query(ctx, `
		SELECT p.id, p.name, COALESCE(p.email, ''), p.role, p.status,
		       COALESCE(p.active_table_id, ''), COALESCE(t.table_number, 0), p.last_active_at
		FROM profiles p
		LEFT JOIN tables t ON t.id = p.active_table_id
		WHERE p.role = ?
		ORDER BY p.name, p.id`, string(core.RoleWaiter))
	if err != nil {
		return nil, fmt.Errorf("list waiters: %w", err)
	}
	defer rows.Close()

	var out []core.Profile
	for rows.Next() {
		var (
			p            core.Profile
			role, status string
			last         scanTime
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &role, &status, &p.ActiveTableID, &p.ActiveTableNumber, &last); err != nil {
			return nil, fmt.Errorf("scan waiter: %w", err)
		}
		p.Role = core.Role(role)
		p.Status = core.StaffStatus(status)
		if !last.Time.IsZero() {
			p.LastActiveAt = last.Time.In(r.loc)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate waiters: %w", err)
	}
	return out, nil
}

// CountOnlineWaiters implements store.StaffReader
func (r *Repository) CountOnlineWaiters(ctx context.Context) (int, error) {
	var n int
	err := r.queryRow(ctx, "SELECT COUNT(*) FROM profiles WHERE role = ? AND status = ?",
		string(core.RoleWaiter), string(core.StaffOnline)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count online waiters: %w", err)
	}
	return n, nil
}

// GetProfileByEmail implements store.StaffReader. The match is case-insensitive.
func (r *Repository) GetProfileByEmail(ctx context.Context, email string) (core.Profile, error) {
	var (
		p            core.Profile
		role, status string
		last         scanTime
	)
	err := r.queryRow(ctx, `
		SELECT id, name, COALESCE(email, ''), role, status, COALESCE(active_table_id, ''), last_active_at, password_hash
		FROM profiles
		WHERE LOWER(email) = ?`, strings.ToLower(strings.TrimSpace(email))).
		Scan(&p.ID, &p.Name, &p.Email, &role, &status, &p.ActiveTableID, &last, &p.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, store.ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile by email: %w", err)
	}
	p.Role = core.Role(role)
	p.Status = core.StaffStatus(status)
	if !last.Time.IsZero() {
		p.LastActiveAt = last.Time.In(r.loc)
	}
	return p, nil
}

// CreateProfile implements store.StaffWriter
func (r *Repository) CreateProfile(ctx context.Context, p core.Profile) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = core.StaffOffline
	}
	_, err := r.exec(ctx, `
		INSERT INTO profiles (id, name, email, role, status, active_table_id, last_active_at, password_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, nullString(strings.ToLower(strings.TrimSpace(p.Email))), string(p.Role), string(p.Status),
		nullString(p.ActiveTableID), r.dialect.nullTimeArg(p.LastActiveAt), p.PasswordHash,
	)
	if err != nil {
		return "", fmt.Errorf("create profile: %w", err)
	}
	return p.ID, nil
}

// SetPassword implements store.StaffWriter
func (r *Repository) SetPassword(ctx context.Context, profileID, passwordHash string) error {
	res, err := r.exec(ctx, "UPDATE profiles SET password_hash = ? WHERE id = ?", passwordHash, profileID)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return expectOne(res, "profile "+profileID)
}

// CountOccupiedTables implements store.TableReader
func (r *Repository) CountOccupiedTables(ctx context.Context) (int, error) {
	var n int
	if err := r.queryRow(ctx, "SELECT COUNT(*) FROM tables WHERE status = ?", string(core.TableOccupied)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count occupied tables: %w", err)
	}
	return n, nil
}

// CreateTable implements store.TableWriter
func (r *Repository) CreateTable(ctx context.Context, t core.Table) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = core.TableFree
	}
	_, err := r.exec(ctx, "INSERT INTO tables (id, table_number, status) VALUES (?, ?, ?)",
		t.ID, t.Number, string(t.Status))
	if err != nil {
		return "", fmt.Errorf("create table %d: %w", t.Number, err)
	}
	return t.ID, nil
}
