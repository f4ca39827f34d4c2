package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dineadmin/internal/core"
	"dineadmin/internal/store"

	"github.com/google/uuid"
)

const menuColumns = "id, name, category, price_cents, tax_rate, is_active"

func scanMenuItem(row rowScanner) (core.MenuItem, error) {
	var m core.MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.Category, &m.Price.Cents, &m.TaxRate, &m.IsActive)
	return m, err
}

// ListMenu implements store.MenuStore
func (r *Repository) ListMenu(ctx context.Context) ([]core.MenuItem, error) {
	rows, err := r.query(ctx, "SELECT "+menuColumns+" FROM menu_items ORDER BY category, name")
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	defer rows.Close()

	var out []core.MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu: %w", err)
	}
	return out, nil
}

// GetMenuItem implements store.MenuStore
func (r *Repository) GetMenuItem(ctx context.Context, id string) (core.MenuItem, error) {
	m, err := scanMenuItem(r.queryRow(ctx, "SELECT "+menuColumns+" FROM menu_items WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.MenuItem{}, fmt.Errorf("menu item %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.MenuItem{}, fmt.Errorf("get menu item: %w", err)
	}
	return m, nil
}

// CreateMenuItem implements store.MenuStore
func (r *Repository) CreateMenuItem(ctx context.Context, m core.MenuItem) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := r.exec(ctx,
		"INSERT INTO menu_items ("+menuColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		m.ID, m.Name, m.Category, m.Price.Cents, m.TaxRate, m.IsActive)
	if err != nil {
		return "", fmt.Errorf("create menu item: %w", err)
	}
	return m.ID, nil
}

// UpdateMenuItem implements store.MenuStore
func (r *Repository) UpdateMenuItem(ctx context.Context, m core.MenuItem) error {
	if err := m.Validate(); err != nil {
		return err
	}
	res, err := r.exec(ctx, `
		UPDATE menu_items
		SET name = ?, category = ?, price_cents = ?, tax_rate = ?, is_active = ?
		WHERE id = ?`,
		m.Name, m.Category, m.Price.Cents, m.TaxRate, m.IsActive, m.ID)
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	return expectOne(res, "menu item "+m.ID)
}

// GetSettings implements store.SettingsStore
func (r *Repository) GetSettings(ctx context.Context) (core.Settings, error) {
	var s core.Settings
	err := r.queryRow(ctx,
		"SELECT res_name, res_address, res_gstin, res_upi, tax_rate FROM settings WHERE id = 1").
		Scan(&s.Name, &s.Address, &s.GSTIN, &s.UPI, &s.TaxRate)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DefaultSettings(), nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

// SaveSettings implements store.SettingsStore
func (r *Repository) SaveSettings(ctx context.Context, s core.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	_, err := r.exec(ctx, `
		INSERT INTO settings (id, res_name, res_address, res_gstin, res_upi, tax_rate)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			res_name = excluded.res_name,
			res_address = excluded.res_address,
			res_gstin = excluded.res_gstin,
			res_upi = excluded.res_upi,
			tax_rate = excluded.tax_rate`,
		s.Name, s.Address, s.GSTIN, s.UPI, s.TaxRate)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
