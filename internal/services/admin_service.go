package services

import (
	"context"
	"fmt"
	"strings"

	"dineadmin/internal/core"
	"dineadmin/internal/log"
	"dineadmin/internal/realtime"
	"dineadmin/internal/store"
)

// AdminService handles the writes the admin panel performs: menu items and
// restaurant settings. Every successful write is published on the hub.
type AdminService struct {
	menu     store.MenuStore
	settings store.SettingsStore
	hub      *realtime.Hub
	logger   *log.Logger
}

func NewAdminService(menu store.MenuStore, settings store.SettingsStore, hub *realtime.Hub, logger *log.Logger) *AdminService {
	if logger == nil {
		logger = log.Default()
	}
	return &AdminService{
		menu:     menu,
		settings: settings,
		hub:      hub,
		logger:   logger.WithComponent(log.ComponentAdmin),
	}
}

func (s *AdminService) Menu(ctx context.Context) ([]core.MenuItem, error) {
	items, err := s.menu.ListMenu(ctx)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	return items, nil
}

// SaveMenuItem creates the item when it has no ID, otherwise updates it.
func (s *AdminService) SaveMenuItem(ctx context.Context, m core.MenuItem) (core.MenuItem, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.Category = strings.TrimSpace(m.Category)
	if err := m.Validate(); err != nil {
		return core.MenuItem{}, err
	}

	op := realtime.OpUpdate
	if m.ID == "" {
		id, err := s.menu.CreateMenuItem(ctx, m)
		if err != nil {
			return core.MenuItem{}, fmt.Errorf("create menu item: %w", err)
		}
		m.ID = id
		op = realtime.OpInsert
	} else if err := s.menu.UpdateMenuItem(ctx, m); err != nil {
		return core.MenuItem{}, fmt.Errorf("update menu item %s: %w", m.ID, err)
	}

	s.logger.InfoContext(ctx, "Saved menu item",
		log.FieldMenuItemID, m.ID,
		log.FieldOperation, strings.ToLower(op),
		"category", m.Category)
	s.publish(realtime.Event{Table: realtime.TableMenuItems, Op: op, ID: m.ID})
	return m, nil
}

func (s *AdminService) Settings(ctx context.Context) (core.Settings, error) {
	set, err := s.settings.GetSettings(ctx)
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return set, nil
}

func (s *AdminService) SaveSettings(ctx context.Context, set core.Settings) (core.Settings, error) {
	set.Name = strings.TrimSpace(set.Name)
	set.GSTIN = strings.ToUpper(strings.TrimSpace(set.GSTIN))
	set.Address = strings.TrimSpace(set.Address)
	set.UPI = strings.TrimSpace(set.UPI)
	if err := set.Validate(); err != nil {
		return core.Settings{}, err
	}
	if err := s.settings.SaveSettings(ctx, set); err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.logger.InfoContext(ctx, "Saved restaurant settings", "tax_rate", set.TaxRate)
	s.publish(realtime.Event{Table: realtime.TableSettings, Op: realtime.OpUpdate})
	return set, nil
}

func (s *AdminService) publish(ev realtime.Event) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(ev)
}
