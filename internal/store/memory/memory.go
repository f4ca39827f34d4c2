// Package memory is a mutex-guarded in-memory store for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"dineadmin/internal/core"
	"dineadmin/internal/store"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.RWMutex
	loc      *time.Location
	orders   map[string]core.Order
	profiles map[string]core.Profile
	tables   map[string]core.Table
	menu     map[string]core.MenuItem
	settings *core.Settings
	exported map[string]time.Time
}

var _ store.Store = (*Store)(nil)

// New returns an empty store. Order times are returned in loc; nil means UTC.
func New(loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		loc:      loc,
		orders:   map[string]core.Order{},
		profiles: map[string]core.Profile{},
		tables:   map[string]core.Table{},
		menu:     map[string]core.MenuItem{},
		exported: map[string]time.Time{},
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) InsertOrder(_ context.Context, o core.Order) (string, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if !o.Status.Valid() {
		o.Status = core.StatusOpen
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	for i := range o.Items {
		if o.Items[i].ID == "" {
			o.Items[i].ID = uuid.NewString()
		}
		o.Items[i].OrderID = o.ID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
	return o.ID, nil
}

func (s *Store) ListOrders(_ context.Context, f store.OrderFilter) ([]core.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if !f.Matches(o) {
			continue
		}
		out = append(out, s.decorate(o, false))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) GetOrder(_ context.Context, id string) (core.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return core.Order{}, store.ErrNotFound
	}
	return s.decorate(o, true), nil
}

// decorate joins waiter and table data the way the SQL adapter does.
// Caller holds the lock.
func (s *Store) decorate(o core.Order, withItems bool) core.Order {
	o.CreatedAt = o.CreatedAt.In(s.loc)
	if p, ok := s.profiles[o.WaiterID]; ok {
		o.WaiterName = p.Name
	}
	if t, ok := s.tables[o.TableID]; ok {
		o.TableNumber = t.Number
	}
	if withItems {
		items := make([]core.OrderItem, len(o.Items))
		for i, it := range o.Items {
			if m, ok := s.menu[it.MenuItemID]; ok && it.Name == "" {
				it.Name = m.Name
			}
			items[i] = it
		}
		o.Items = items
	} else {
		o.Items = nil
	}
	return o
}

func (s *Store) ListWaiters(_ context.Context) ([]core.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Profile
	for _, p := range s.profiles {
		if p.Role != core.RoleWaiter {
			continue
		}
		if t, ok := s.tables[p.ActiveTableID]; ok {
			p.ActiveTableNumber = t.Number
		}
		p.PasswordHash = ""
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CountOnlineWaiters(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.profiles {
		if p.Role == core.RoleWaiter && p.Status == core.StaffOnline {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetProfileByEmail(_ context.Context, email string) (core.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if strings.ToLower(p.Email) == email {
			return p, nil
		}
	}
	return core.Profile{}, store.ErrNotFound
}

func (s *Store) CreateProfile(_ context.Context, p core.Profile) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = core.StaffOffline
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
	return p.ID, nil
}

func (s *Store) SetPassword(_ context.Context, profileID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[profileID]
	if !ok {
		return store.ErrNotFound
	}
	p.PasswordHash = passwordHash
	s.profiles[profileID] = p
	return nil
}

func (s *Store) CountOccupiedTables(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.tables {
		if t.Status == core.TableOccupied {
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateTable(_ context.Context, t core.Table) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = core.TableFree
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.ID] = t
	return t.ID, nil
}

func (s *Store) ListMenu(_ context.Context) ([]core.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.MenuItem, 0, len(s.menu))
	for _, m := range s.menu {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) GetMenuItem(_ context.Context, id string) (core.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.menu[id]
	if !ok {
		return core.MenuItem{}, store.ErrNotFound
	}
	return m, nil
}

func (s *Store) CreateMenuItem(_ context.Context, m core.MenuItem) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu[m.ID] = m
	return m.ID, nil
}

func (s *Store) UpdateMenuItem(_ context.Context, m core.MenuItem) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.menu[m.ID]; !ok {
		return store.ErrNotFound
	}
	s.menu[m.ID] = m
	return nil
}

func (s *Store) GetSettings(_ context.Context) (core.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return core.DefaultSettings(), nil
	}
	return *s.settings, nil
}

func (s *Store) SaveSettings(_ context.Context, st core.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &st
	return nil
}

func (s *Store) MarkExported(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exported[orderID]; !ok {
		s.exported[orderID] = time.Now()
	}
	return nil
}

func (s *Store) IsExported(_ context.Context, orderID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.exported[orderID]
	return ok, nil
}
