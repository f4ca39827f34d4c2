// Package realtime fans out row-change notifications to the parts of the
// admin that must refresh: report caches, websocket clients and the order
// sync publisher.
package realtime

import (
	"strings"
	"sync"

	"dineadmin/internal/log"
)

const (
	TableOrders    = "orders"
	TableProfiles  = "profiles"
	TableMenuItems = "menu_items"
	TableTables    = "tables"
	TableSettings  = "settings"

	// TableAny marks a resync event, sent after the change feed reconnects.
	TableAny = "*"

	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
	OpResync = "RESYNC"
)

// Event describes one changed row.
type Event struct {
	Table string `json:"table"`
	Op    string `json:"op"`
	ID    string `json:"id,omitempty"`
}

// Touches reports whether the event concerns table. Resync events touch
// every table.
func (e Event) Touches(table string) bool {
	return e.Table == TableAny || strings.EqualFold(e.Table, table)
}

const defaultBuffer = 64

// Hub is a non-blocking fan-out. A subscriber whose buffer is full misses
// the event; the drop is logged.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	next   int
	buffer int
	logger *log.Logger
}

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		subs:   make(map[int]chan Event),
		buffer: defaultBuffer,
		logger: logger.WithComponent(log.ComponentRealtime),
	}
}

// Subscribe returns a channel of events and a cancel func that closes it.
// Cancel is idempotent.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.Warn("Subscriber buffer full, dropping event",
				"subscriber", id, log.FieldTable, ev.Table, log.FieldEventOp, ev.Op)
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
