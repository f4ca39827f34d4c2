// Package adapters wraps store implementations with extra behaviour.
package adapters

import (
	"context"

	"dineadmin/internal/core"
	"dineadmin/internal/realtime"
	"dineadmin/internal/store"
)

// NotifyingStore publishes a change event after each successful write that a
// postgres trigger would have reported. Menu and settings changes are
// published by the admin service and are not repeated here.
type NotifyingStore struct {
	store.Store
	hub *realtime.Hub
}

// WithNotify returns st unchanged when hub is nil.
func WithNotify(st store.Store, hub *realtime.Hub) store.Store {
	if hub == nil {
		return st
	}
	return &NotifyingStore{Store: st, hub: hub}
}

func (s *NotifyingStore) InsertOrder(ctx context.Context, o core.Order) (string, error) {
	id, err := s.Store.InsertOrder(ctx, o)
	if err == nil {
		s.hub.Publish(realtime.Event{Table: realtime.TableOrders, Op: realtime.OpInsert, ID: id})
	}
	return id, err
}

func (s *NotifyingStore) CreateProfile(ctx context.Context, p core.Profile) (string, error) {
	id, err := s.Store.CreateProfile(ctx, p)
	if err == nil {
		s.hub.Publish(realtime.Event{Table: realtime.TableProfiles, Op: realtime.OpInsert, ID: id})
	}
	return id, err
}

func (s *NotifyingStore) SetPassword(ctx context.Context, profileID, passwordHash string) error {
	err := s.Store.SetPassword(ctx, profileID, passwordHash)
	if err == nil {
		s.hub.Publish(realtime.Event{Table: realtime.TableProfiles, Op: realtime.OpUpdate, ID: profileID})
	}
	return err
}

func (s *NotifyingStore) CreateTable(ctx context.Context, t core.Table) (string, error) {
	id, err := s.Store.CreateTable(ctx, t)
	if err == nil {
		s.hub.Publish(realtime.Event{Table: realtime.TableTables, Op: realtime.OpInsert, ID: id})
	}
	return id, err
}
