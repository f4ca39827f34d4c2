package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dineadmin/internal/core"
	"dineadmin/internal/store"

	"github.com/google/uuid"
)

const orderColumns = `
	o.id, o.created_at, o.status,
	o.grand_total_cents, o.tax_cents, o.subtotal_cents, o.discount_cents,
	COALESCE(o.payment_mode, ''), COALESCE(o.waiter_id, ''), COALESCE(p.name, ''),
	COALESCE(o.table_id, ''), COALESCE(t.table_number, 0),
	COALESCE(o.bill_number, ''), COALESCE(o.invoice_number, 0),
	COALESCE(o.customer_name, ''), COALESCE(o.customer_mobile, ''), COALESCE(o.customer_email, '')
FROM orders o
LEFT JOIN profiles p ON p.id = o.waiter_id
LEFT JOIN tables t ON t.id = o.table_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanOrder(row rowScanner) (core.Order, error) {
	var (
		o                              core.Order
		created                        scanTime
		status                         string
		grand, tax, subtotal, discount sql.NullInt64
	)
	err := row.Scan(
		&o.ID, &created, &status,
		&grand, &tax, &subtotal, &discount,
		&o.PaymentMode, &o.WaiterID, &o.WaiterName,
		&o.TableID, &o.TableNumber,
		&o.BillNumber, &o.InvoiceNumber,
		&o.CustomerName, &o.CustomerMobile, &o.CustomerEmail,
	)
	if err != nil {
		return core.Order{}, err
	}
	o.CreatedAt = created.Time.In(r.loc)
	o.Status = core.OrderStatus(status)
	o.GrandTotal = nullMoney(grand)
	o.Tax = nullMoney(tax)
	o.Subtotal = nullMoney(subtotal)
	o.Discount = nullMoney(discount)
	return o, nil
}

// ListOrders implements store.OrderReader
func (r *Repository) ListOrders(ctx context.Context, f store.OrderFilter) ([]core.Order, error) {
	var (
		where []string
		args  []any
	)
	if !f.Window.From.IsZero() {
		where = append(where, "o.created_at >= ?")
		args = append(args, r.dialect.timeArg(f.Window.From))
	}
	if !f.Window.To.IsZero() {
		where = append(where, "o.created_at < ?")
		args = append(args, r.dialect.timeArg(f.Window.To))
	}
	if f.Status != "" {
		where = append(where, "o.status = ?")
		args = append(args, string(f.Status))
	}
	if f.PaymentMode != "" {
		where = append(where, "o.payment_mode = ?")
		args = append(args, f.PaymentMode)
	}
	if f.WaiterID != "" {
		where = append(where, "o.waiter_id = ?")
		args = append(args, f.WaiterID)
	}

	var q strings.Builder
	q.WriteString("SELECT ")
	q.WriteString(orderColumns)
	if len(where) > 0 {
		q.WriteString("\nWHERE ")
		q.WriteString(strings.Join(where, " AND "))
	}
	q.WriteString("\nORDER BY o.created_at DESC, o.id DESC")
	if f.Limit > 0 {
		q.WriteString("\nLIMIT ?")
		args = append(args, f.Limit)
	}

	rows, err := r.query(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []core.Order
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return out, nil
}

// GetOrder implements store.OrderDetailReader
func (r *Repository) GetOrder(ctx context.Context, id string) (core.Order, error) {
	o, err := r.scanOrder(r.queryRow(ctx, "SELECT "+orderColumns+"\nWHERE o.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Order{}, fmt.Errorf("order %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.Order{}, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.query(ctx, `
		SELECT i.id, i.order_id, COALESCE(i.menu_item_id, ''),
		       COALESCE(NULLIF(i.name, ''), m.name, ''), i.quantity, i.price_at_time_cents
		FROM order_items i
		LEFT JOIN menu_items m ON m.id = i.menu_item_id
		WHERE i.order_id = ?
		ORDER BY i.position, i.id`, id)
	if err != nil {
		return core.Order{}, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			it    core.OrderItem
			price sql.NullInt64
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.Quantity, &price); err != nil {
			return core.Order{}, fmt.Errorf("scan order item: %w", err)
		}
		it.PriceAtTime = nullMoney(price)
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return core.Order{}, fmt.Errorf("iterate order items: %w", err)
	}
	return o, nil
}

// InsertOrder implements store.OrderWriter. A missing invoice number is
// assigned as the next in sequence.
func (r *Repository) InsertOrder(ctx context.Context, o core.Order) (string, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if !o.Status.Valid() {
		o.Status = core.StatusOpen
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	for _, it := range o.Items {
		if it.Quantity <= 0 {
			return "", core.ErrInvalidQuantity
		}
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if o.InvoiceNumber == 0 {
			row := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(invoice_number), 0) + 1 FROM orders")
			if err := row.Scan(&o.InvoiceNumber); err != nil {
				return fmt.Errorf("next invoice number: %w", err)
			}
		}
		_, err := tx.ExecContext(ctx, r.dialect.rebind(`
			INSERT INTO orders (
				id, created_at, status, grand_total_cents, tax_cents, subtotal_cents, discount_cents,
				payment_mode, waiter_id, table_id, bill_number, invoice_number,
				customer_name, customer_mobile, customer_email
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			o.ID, r.dialect.timeArg(o.CreatedAt), string(o.Status),
			nullMoneyArg(o.GrandTotal), nullMoneyArg(o.Tax), nullMoneyArg(o.Subtotal), nullMoneyArg(o.Discount),
			nullString(o.PaymentMode), nullString(o.WaiterID), nullString(o.TableID),
			nullString(o.BillNumber), o.InvoiceNumber,
			nullString(o.CustomerName), nullString(o.CustomerMobile), nullString(o.CustomerEmail),
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for i, it := range o.Items {
			if it.ID == "" {
				it.ID = uuid.NewString()
			}
			_, err := tx.ExecContext(ctx, r.dialect.rebind(`
				INSERT INTO order_items (id, order_id, position, menu_item_id, name, quantity, price_at_time_cents)
				VALUES (?, ?, ?, ?, ?, ?, ?)`),
				it.ID, o.ID, i, nullString(it.MenuItemID), nullString(it.Name), it.Quantity, nullMoneyArg(it.PriceAtTime),
			)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return o.ID, nil
}

// MarkExported implements store.OrderExportTracker. Marking twice is a no-op.
func (r *Repository) MarkExported(ctx context.Context, orderID string) error {
	_, err := r.exec(ctx,
		"INSERT INTO order_exports (order_id, exported_at) VALUES (?, ?) ON CONFLICT (order_id) DO NOTHING",
		orderID, r.dialect.timeArg(time.Now()))
	if err != nil {
		return fmt.Errorf("mark order %s exported: %w", orderID, err)
	}
	return nil
}

// IsExported implements store.OrderExportTracker
func (r *Repository) IsExported(ctx context.Context, orderID string) (bool, error) {
	var n int
	if err := r.queryRow(ctx, "SELECT COUNT(*) FROM order_exports WHERE order_id = ?", orderID).Scan(&n); err != nil {
		return false, fmt.Errorf("check order %s exported: %w", orderID, err)
	}
	return n > 0, nil
}
