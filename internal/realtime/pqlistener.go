package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dineadmin/internal/log"

	"github.com/lib/pq"
)

// Channel is the LISTEN channel the postgres triggers notify on.
const Channel = "table_changes"

const (
	minReconnect = 10 * time.Second
	maxReconnect = time.Minute
	pingInterval = 90 * time.Second
)

// PQListener forwards postgres NOTIFY payloads to a Hub.
type PQListener struct {
	dsn    string
	hub    *Hub
	logger *log.Logger
}

func NewPQListener(dsn string, hub *Hub, logger *log.Logger) *PQListener {
	if logger == nil {
		logger = log.Default()
	}
	return &PQListener{dsn: dsn, hub: hub, logger: logger.WithComponent(log.ComponentRealtime)}
}

// DecodeNotification parses a trigger payload.
func DecodeNotification(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("decode notification: %w", err)
	}
	if ev.Table == "" || ev.Op == "" {
		return Event{}, fmt.Errorf("decode notification: missing table or op in %q", payload)
	}
	return ev, nil
}

// Run listens until ctx is cancelled. pq reconnects on its own; after a
// reconnect a resync event is published since notifications may have been lost.
func (l *PQListener) Run(ctx context.Context) error {
	listener := pq.NewListener(l.dsn, minReconnect, maxReconnect, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			l.logger.Info("Change feed connected", "channel", Channel)
		case pq.ListenerEventDisconnected:
			l.logger.Warn("Change feed disconnected", log.FieldError, err)
		case pq.ListenerEventReconnected:
			l.logger.Info("Change feed reconnected", "channel", Channel)
		case pq.ListenerEventConnectionAttemptFailed:
			l.logger.Warn("Change feed connection attempt failed", log.FieldError, err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(Channel); err != nil {
		return fmt.Errorf("listen %s: %w", Channel, err)
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			if n == nil {
				l.hub.Publish(Event{Table: TableAny, Op: OpResync})
				continue
			}
			ev, err := DecodeNotification(n.Extra)
			if err != nil {
				l.logger.Warn("Ignoring malformed notification", log.FieldError, err)
				continue
			}
			l.hub.Publish(ev)
		case <-ticker.C:
			go func() {
				if err := listener.Ping(); err != nil {
					l.logger.Warn("Change feed ping failed", log.FieldError, err)
				}
			}()
		}
	}
}
