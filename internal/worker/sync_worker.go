package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dineadmin/internal/amqp"
	"dineadmin/internal/core"
	"dineadmin/internal/log"
	"dineadmin/internal/sheets"
	"dineadmin/internal/store"
)

const DefaultBatchSize = 50

// OrderSource is what the worker needs from the backend.
type OrderSource interface {
	store.OrderReader
	store.OrderDetailReader
	store.OrderExportTracker
}

// SyncWorker pushes paid orders to the sales sheet, once per order.
type SyncWorker struct {
	orders    OrderSource
	sales     sheets.SalesWriter
	loc       *time.Location
	batchSize int
	logger    *log.Logger
	events    *log.StructuredLogger
}

func NewSyncWorker(orders OrderSource, sales sheets.SalesWriter, loc *time.Location, batchSize int, logger *log.Logger) *SyncWorker {
	if loc == nil {
		loc = time.UTC
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SyncWorker{
		orders:    orders,
		sales:     sales,
		loc:       loc,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
		events:    log.NewStructuredLogger(logger),
	}
}

// HandleOrderSync processes a single order sync message from AMQP. Orders that
// are gone, unpaid or already exported are acknowledged without a sheet write.
func (w *SyncWorker) HandleOrderSync(ctx context.Context, msg *amqp.OrderSyncMessage) error {
	w.logger.InfoContext(ctx, "Processing order sync message",
		log.FieldOrderID, msg.OrderID,
		"published_at", msg.Timestamp)

	o, err := w.orders.GetOrder(ctx, msg.OrderID)
	if errors.Is(err, store.ErrNotFound) {
		w.logger.WarnContext(ctx, "Order no longer exists, dropping sync", log.FieldOrderID, msg.OrderID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get order from storage: %w", err)
	}

	if _, err := w.syncOrder(ctx, o); err != nil {
		return fmt.Errorf("sync order to sheets: %w", err)
	}
	return nil
}

// ProcessPending exports today's paid orders that were not exported yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPending(ctx context.Context, now time.Time) (int, error) {
	paid, err := w.orders.ListOrders(ctx, store.OrderFilter{
		Window: core.DayWindow(now, w.loc),
		Status: core.StatusPaid,
	})
	if err != nil {
		return 0, fmt.Errorf("list paid orders: %w", err)
	}

	synced, failed := 0, 0
	for _, o := range paid {
		if synced >= w.batchSize {
			break
		}
		ok, err := w.syncOrder(ctx, o)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync order", log.FieldOrderID, o.ID, log.FieldError, err)
			failed++
			continue
		}
		if ok {
			synced++
		}
	}

	if synced > 0 || failed > 0 {
		w.logger.InfoContext(ctx, "Pending order sweep completed",
			"paid", len(paid),
			"synced", synced,
			"errors", failed)
	}
	return synced, nil
}

// StartupSyncCheck runs one sweep when the worker starts, to recover from
// downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	n, err := w.ProcessPending(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup sync completed", "synced", n)
	return nil
}

// syncOrder reports whether a row was appended.
func (w *SyncWorker) syncOrder(ctx context.Context, o core.Order) (bool, error) {
	if !o.IsPaid() {
		w.logger.DebugContext(ctx, "Skipping unpaid order", log.FieldOrderID, o.ID, "status", o.Status)
		return false, nil
	}
	done, err := w.orders.IsExported(ctx, o.ID)
	if err != nil {
		return false, fmt.Errorf("check export state: %w", err)
	}
	if done {
		return false, nil
	}

	ref, err := w.sales.AppendSale(ctx, o)
	if err != nil {
		return false, fmt.Errorf("append to sheets: %w", err)
	}

	// The row is written; a failed mark only risks a duplicate on the next sweep.
	if err := w.orders.MarkExported(ctx, o.ID); err != nil {
		w.events.LogError(ctx, "Failed to mark order exported", err, log.ComponentWorker, log.OpUpdate,
			log.NewFields().WithOrder(o.ID, 0))
	}

	w.events.LogOrderExported(ctx, o.ID, o.GrandTotal.OrZero().Cents, ref)
	return true, nil
}
