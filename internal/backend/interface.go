package backend

import (
	"context"
	"time"

	"dineadmin/internal/realtime"
	"dineadmin/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store and what the caller must run or release
// alongside it.
type BackendResult struct {
	Store   store.Store
	Cleanup CleanupFunc

	// Feed is set for postgres, where row changes arrive through NOTIFY and
	// the listener has to be run by the caller. Other backends publish their
	// own writes to the hub.
	Feed *realtime.PQListener
}

// Factory creates stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string

	// Location is the restaurant time zone order times are returned in.
	Location *time.Location
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
