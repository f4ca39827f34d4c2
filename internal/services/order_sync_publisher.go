package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"dineadmin/internal/log"
	"dineadmin/internal/realtime"
	"dineadmin/internal/store"
)

// SyncPublisher is satisfied by the AMQP client.
type SyncPublisher interface {
	PublishOrderSync(ctx context.Context, orderID string) error
}

// OrderSyncPublisher turns order change events into AMQP sync messages for
// the orders that are paid. The worker sweep covers anything missed here.
type OrderSyncPublisher struct {
	hub       *realtime.Hub
	orders    store.OrderDetailReader
	publisher SyncPublisher
	logger    *log.Logger

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewOrderSyncPublisher(hub *realtime.Hub, orders store.OrderDetailReader, publisher SyncPublisher, logger *log.Logger) *OrderSyncPublisher {
	if logger == nil {
		logger = log.Default()
	}
	return &OrderSyncPublisher{
		hub:       hub,
		orders:    orders,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentAMQP),
	}
}

// Start subscribes to the hub. Returns an error if already running.
func (p *OrderSyncPublisher) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("order sync publisher is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	events, cancel := p.hub.Subscribe()
	p.mu.Unlock()

	go p.runLoop(ctx, events, cancel)

	p.logger.InfoContext(ctx, "Order sync publisher started")
	return nil
}

// Stop unsubscribes and waits for the loop to finish.
func (p *OrderSyncPublisher) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		p.logger.InfoContext(ctx, "Order sync publisher stopped gracefully")
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Order sync publisher stop timed out")
		return ctx.Err()
	}
}

func (p *OrderSyncPublisher) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *OrderSyncPublisher) runLoop(ctx context.Context, events <-chan realtime.Event, cancel func()) {
	defer close(p.doneCh)
	defer cancel()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := p.HandleEvent(ctx, ev); err != nil {
				p.logger.ErrorContext(ctx, "Failed to publish order sync",
					log.FieldOrderID, ev.ID,
					log.FieldError, err)
			}
		}
	}
}

// HandleEvent publishes a sync message when ev is an insert or update of a
// paid order.
func (p *OrderSyncPublisher) HandleEvent(ctx context.Context, ev realtime.Event) error {
	if ev.Table != realtime.TableOrders || ev.ID == "" {
		return nil
	}
	if ev.Op != realtime.OpInsert && ev.Op != realtime.OpUpdate {
		return nil
	}

	o, err := p.orders.GetOrder(ctx, ev.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get order %s: %w", ev.ID, err)
	}
	if !o.IsPaid() {
		return nil
	}

	if err := p.publisher.PublishOrderSync(ctx, o.ID); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}
