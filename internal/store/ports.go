// Package store declares the persistence ports used by the report builders,
// the admin services and the sync worker. Adapters live in store/memory and
// in the storage package.
package store

import (
	"context"
	"errors"

	"dineadmin/internal/core"
)

var ErrNotFound = errors.New("not found")

// OrderFilter narrows ListOrders. Zero values mean "no filter".
type OrderFilter struct {
	Window      core.Window
	Status      core.OrderStatus
	PaymentMode string
	WaiterID    string
	Limit       int
}

// Matches applies the filter to a single order. Adapters that cannot push the
// filter down to a query use it directly.
func (f OrderFilter) Matches(o core.Order) bool {
	if !f.Window.IsZero() && !f.Window.Contains(o.CreatedAt) {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.PaymentMode != "" && o.PaymentMode != f.PaymentMode {
		return false
	}
	if f.WaiterID != "" && o.WaiterID != f.WaiterID {
		return false
	}
	return true
}

// Ports for persistence adapters.
type (
	// OrderReader lists orders newest first, with waiter name and table number
	// joined in. CreatedAt is returned in the adapter's configured location.
	OrderReader interface {
		ListOrders(ctx context.Context, f OrderFilter) ([]core.Order, error)
	}

	// OrderDetailReader loads a single order with its line items.
	OrderDetailReader interface {
		GetOrder(ctx context.Context, id string) (core.Order, error)
	}

	OrderWriter interface {
		InsertOrder(ctx context.Context, o core.Order) (string, error)
	}

	StaffReader interface {
		ListWaiters(ctx context.Context) ([]core.Profile, error)
		CountOnlineWaiters(ctx context.Context) (int, error)
		GetProfileByEmail(ctx context.Context, email string) (core.Profile, error)
	}

	StaffWriter interface {
		CreateProfile(ctx context.Context, p core.Profile) (string, error)
		SetPassword(ctx context.Context, profileID, passwordHash string) error
	}

	TableReader interface {
		CountOccupiedTables(ctx context.Context) (int, error)
	}

	TableWriter interface {
		CreateTable(ctx context.Context, t core.Table) (string, error)
	}

	MenuStore interface {
		ListMenu(ctx context.Context) ([]core.MenuItem, error)
		GetMenuItem(ctx context.Context, id string) (core.MenuItem, error)
		CreateMenuItem(ctx context.Context, m core.MenuItem) (string, error)
		UpdateMenuItem(ctx context.Context, m core.MenuItem) error
	}

	// SettingsStore keeps the single restaurant settings row. GetSettings
	// returns core.DefaultSettings when nothing was saved yet.
	SettingsStore interface {
		GetSettings(ctx context.Context) (core.Settings, error)
		SaveSettings(ctx context.Context, s core.Settings) error
	}

	// OrderExportTracker records which orders were already pushed to the
	// sales sheet.
	OrderExportTracker interface {
		MarkExported(ctx context.Context, orderID string) error
		IsExported(ctx context.Context, orderID string) (bool, error)
	}

	// Store is everything the admin binaries need from one backend.
	Store interface {
		OrderReader
		OrderDetailReader
		OrderWriter
		StaffReader
		StaffWriter
		TableReader
		TableWriter
		MenuStore
		SettingsStore
		OrderExportTracker
		Close() error
	}
)
