package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"dineadmin/internal/amqp"
	"dineadmin/internal/core"
	"dineadmin/internal/log"
	"dineadmin/internal/report"
	sheetsmem "dineadmin/internal/sheets/memory"
	"dineadmin/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type flakySales struct {
	fail  bool
	calls int
}

func (f *flakySales) AppendSale(_ context.Context, o core.Order) (string, error) {
	f.calls++
	if f.fail {
		return "", errors.New("quota exceeded")
	}
	return "row:" + o.ID, nil
}

func addOrder(t *testing.T, st *memory.Store, at time.Time, status core.OrderStatus, total int64) string {
	t.Helper()
	id, err := st.InsertOrder(context.Background(), core.Order{
		CreatedAt:  at,
		Status:     status,
		GrandTotal: core.NewNullMoney(total),
		Tax:        core.NewNullMoney(total / 20),
	})
	require.NoError(t, err)
	return id
}

func TestHandleOrderSyncExportsOnce(t *testing.T) {
	ctx := context.Background()
	st := memory.New(ist)
	sales := sheetsmem.New()
	w := NewSyncWorker(st, sales, ist, 0, log.Discard())

	id := addOrder(t, st, time.Date(2024, 3, 10, 20, 0, 0, 0, ist), core.StatusPaid, 50000)

	require.NoError(t, w.HandleOrderSync(ctx, amqp.NewOrderSyncMessage(id)))
	require.NoError(t, w.HandleOrderSync(ctx, amqp.NewOrderSyncMessage(id)))

	assert.Len(t, sales.Sales(), 1)
	exported, err := st.IsExported(ctx, id)
	require.NoError(t, err)
	assert.True(t, exported)
}

func TestHandleOrderSyncSkips(t *testing.T) {
	ctx := context.Background()
	st := memory.New(ist)
	sales := sheetsmem.New()
	w := NewSyncWorker(st, sales, ist, 0, log.Discard())

	open := addOrder(t, st, time.Now(), core.StatusOpen, 1000)
	require.NoError(t, w.HandleOrderSync(ctx, amqp.NewOrderSyncMessage(open)))
	require.NoError(t, w.HandleOrderSync(ctx, amqp.NewOrderSyncMessage("missing")), "unknown orders are acked")
	assert.Empty(t, sales.Sales())
}

func TestHandleOrderSyncSheetErrorRequeues(t *testing.T) {
	ctx := context.Background()
	st := memory.New(ist)
	sales := &flakySales{fail: true}
	w := NewSyncWorker(st, sales, ist, 0, log.Discard())

	id := addOrder(t, st, time.Now(), core.StatusPaid, 1000)
	err := w.HandleOrderSync(ctx, amqp.NewOrderSyncMessage(id))
	require.Error(t, err)

	exported, err := st.IsExported(ctx, id)
	require.NoError(t, err)
	assert.False(t, exported, "failed append must not mark the order")
}

func TestProcessPending(t *testing.T) {
	ctx := context.Background()
	st := memory.New(ist)
	sales := sheetsmem.New()
	w := NewSyncWorker(st, sales, ist, 2, log.Discard())

	now := time.Date(2024, 3, 10, 22, 0, 0, 0, ist)
	a := addOrder(t, st, now.Add(-3*time.Hour), core.StatusPaid, 1000)
	addOrder(t, st, now.Add(-2*time.Hour), core.StatusPaid, 2000)
	addOrder(t, st, now.Add(-time.Hour), core.StatusPaid, 3000)
	addOrder(t, st, now.Add(-time.Hour), core.StatusOpen, 4000)
	addOrder(t, st, now.Add(-24*time.Hour), core.StatusPaid, 5000)
	require.NoError(t, st.MarkExported(ctx, a))

	n, err := w.ProcessPending(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, sales.Sales(), 2)

	n, err = w.ProcessPending(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n, "everything from today is exported")
}

func TestProcessPendingContinuesOnError(t *testing.T) {
	ctx := context.Background()
	st := memory.New(ist)
	sales := &flakySales{fail: true}
	w := NewSyncWorker(st, sales, ist, 10, log.Discard())

	now := time.Date(2024, 3, 10, 22, 0, 0, 0, ist)
	addOrder(t, st, now.Add(-time.Hour), core.StatusPaid, 1000)
	addOrder(t, st, now.Add(-2*time.Hour), core.StatusPaid, 2000)

	n, err := w.ProcessPending(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 2, sales.calls)
}

func TestDayCloseJob(t *testing.T) {
	ctx := context.Background()
	st := memory.New(ist)
	now := time.Date(2024, 3, 10, 23, 55, 0, 0, ist)
	addOrder(t, st, now.Add(-time.Hour), core.StatusPaid, 40000)
	addOrder(t, st, now.Add(-2*time.Hour), core.StatusOpen, 0)

	svc := report.NewService(report.Sources{Orders: st, Details: st, Staff: st, Tables: st, Settings: st}, ist, log.Discard())
	summary := sheetsmem.New()

	job := DayCloseJob(svc, summary, func() time.Time { return now })
	require.NoError(t, job(ctx))

	rows := summary.Summaries()
	require.Len(t, rows, 1)
	assert.Equal(t, "10/03/2024", rows[0][0])
	assert.Equal(t, 2, rows[0][1])
	assert.Equal(t, 400.0, rows[0][2])
}
