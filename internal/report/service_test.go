package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"dineadmin/internal/core"
	"dineadmin/internal/log"
	"dineadmin/internal/store"
	"dineadmin/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type fixture struct {
	store  *memory.Store
	svc    *Service
	waiter string
	table  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New(ist)
	svc := NewService(Sources{Orders: st, Details: st, Staff: st, Tables: st, Settings: st}, ist, log.Discard())

	tableID, err := st.CreateTable(ctx, core.Table{Number: 4, Status: core.TableOccupied})
	require.NoError(t, err)
	_, err = st.CreateTable(ctx, core.Table{Number: 5, Status: core.TableFree})
	require.NoError(t, err)
	waiterID, err := st.CreateProfile(ctx, core.Profile{
		Name: "Ravi", Role: core.RoleWaiter, Status: core.StaffOnline, ActiveTableID: tableID,
		LastActiveAt: time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = st.CreateProfile(ctx, core.Profile{Name: "Anil", Role: core.RoleWaiter, Status: core.StaffOffline})
	require.NoError(t, err)
	return fixture{store: st, svc: svc, waiter: waiterID, table: tableID}
}

func (f fixture) add(t *testing.T, at time.Time, status core.OrderStatus, total, tax int64) string {
	t.Helper()
	id, err := f.store.InsertOrder(context.Background(), core.Order{
		CreatedAt:  at,
		Status:     status,
		GrandTotal: core.NewNullMoney(total),
		Tax:        core.NewNullMoney(tax),
		WaiterID:   f.waiter,
		TableID:    f.table,
	})
	require.NoError(t, err)
	return id
}

func TestDashboardCountsAllOrdersOfTheDay(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, ist)
	f.add(t, day.Add(9*time.Hour+15*time.Minute), core.StatusPaid, 50000, 2500)
	f.add(t, day.Add(9*time.Hour+45*time.Minute), core.StatusPaid, 30000, 1500)
	f.add(t, day.Add(14*time.Hour), core.StatusOpen, 100000, 5000)
	f.add(t, day.Add(-time.Minute), core.StatusPaid, 99900, 0) // yesterday

	rep, err := f.svc.Dashboard(context.Background(), day.Add(20*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, int64(80000), rep.Sales.Cents)
	assert.Equal(t, int64(4000), rep.Tax.Cents)
	assert.Equal(t, 3, rep.Bills)
	assert.Equal(t, "266.67", rep.AverageBill.StringFixed(2))
	assert.Equal(t, int64(80000), rep.Hourly[9].Value.Cents)
	assert.Zero(t, rep.Hourly[14].Value.Cents)
	assert.Equal(t, 1, rep.ActiveTables)
	assert.Equal(t, 1, rep.OnlineWaiters)
	require.Len(t, rep.Recent, 3)
	assert.Equal(t, core.StatusOpen, rep.Recent[0].Status)
	assert.True(t, rep.Date.Equal(day))
}

func TestDashboardRecentIsCapped(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, ist)
	for i := 0; i < RecentLimit+5; i++ {
		f.add(t, day.Add(time.Duration(i)*time.Minute), core.StatusPaid, 100, 5)
	}
	rep, err := f.svc.Dashboard(context.Background(), day.Add(23*time.Hour))
	require.NoError(t, err)
	assert.Len(t, rep.Recent, RecentLimit)
	assert.Equal(t, RecentLimit+5, rep.Bills)
}

func TestDailyMatchesDashboardFigures(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, ist)
	f.add(t, day.Add(13*time.Hour), core.StatusPaid, 12000, 600)
	f.add(t, day.Add(13*time.Hour+time.Minute), core.StatusCancelled, 5000, 250)

	rep, err := f.svc.Daily(context.Background(), day.Add(22*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(12000), rep.Sales.Cents)
	assert.Equal(t, 2, rep.Bills)
	assert.Equal(t, "60", rep.AverageBill.String())
	assert.Equal(t, int64(12000), rep.Hourly[13].Value.Cents)
}

func TestMonthlyCountsPaidOrdersOnly(t *testing.T) {
	f := newFixture(t)
	f.add(t, time.Date(2024, 2, 1, 0, 5, 0, 0, ist), core.StatusPaid, 10000, 500)
	f.add(t, time.Date(2024, 2, 29, 23, 55, 0, 0, ist), core.StatusPaid, 20000, 1000)
	f.add(t, time.Date(2024, 2, 15, 12, 0, 0, 0, ist), core.StatusOpen, 70000, 0)
	f.add(t, time.Date(2024, 3, 1, 0, 0, 0, 0, ist), core.StatusPaid, 50000, 0)

	rep, err := f.svc.Monthly(context.Background(), 2024, 2)
	require.NoError(t, err)
	assert.Equal(t, DayOfMonth, rep.Granularity)
	assert.Equal(t, 2, rep.Bills, "open orders are not bills in period reports")
	assert.Equal(t, int64(30000), rep.Sales.Cents)
	require.Len(t, rep.Series, 29)
	assert.Equal(t, int64(10000), rep.Series[0].Value.Cents)
	assert.Equal(t, int64(20000), rep.Series[28].Value.Cents)
	assert.Len(t, rep.Orders, 2)
	assert.Equal(t, "150", rep.AverageBill.String())
}

func TestYearlyScenario(t *testing.T) {
	f := newFixture(t)
	f.add(t, time.Date(2024, 3, 2, 10, 0, 0, 0, ist), core.StatusPaid, 70000, 0)
	f.add(t, time.Date(2024, 3, 28, 10, 0, 0, 0, ist), core.StatusPaid, 50000, 0)
	f.add(t, time.Date(2024, 12, 31, 23, 0, 0, 0, ist), core.StatusPaid, 40000, 0)

	rep, err := f.svc.Yearly(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(120000), rep.Series[2].Value.Cents)
	assert.Equal(t, int64(40000), rep.Series[11].Value.Cents)
	assert.Equal(t, int64(160000), rep.Sales.Cents)
	assert.Equal(t, 3, rep.Bills)
}

func TestInvalidPeriods(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Monthly(context.Background(), 2024, 13)
	assert.ErrorIs(t, err, core.ErrInvalidPeriod)
	_, err = f.svc.Monthly(context.Background(), 1999, 1)
	assert.ErrorIs(t, err, core.ErrInvalidPeriod)
	_, err = f.svc.Yearly(context.Background(), 0)
	assert.ErrorIs(t, err, core.ErrInvalidPeriod)
}

func TestWaiterStatus(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.add(t, now, core.StatusOpen, 100, 0)
	f.add(t, now, core.StatusOpen, 100, 0)
	f.add(t, now, core.StatusPaid, 100, 0)

	got, err := f.svc.WaiterStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Anil", got[0].Name)
	assert.Zero(t, got[0].OpenOrders)
	assert.Equal(t, "Ravi", got[1].Name)
	assert.Equal(t, 2, got[1].OpenOrders)
	assert.Equal(t, 4, got[1].ActiveTable)
	assert.Equal(t, ist, got[1].LastActiveAt.Location())
}

func TestCustomersDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.InsertOrder(ctx, core.Order{
		CreatedAt: time.Date(2024, 3, 10, 12, 0, 0, 0, ist), Status: core.StatusPaid,
		InvoiceNumber: 42, GrandTotal: core.NewNullMoney(1500),
	})
	require.NoError(t, err)
	_, err = f.store.InsertOrder(ctx, core.Order{
		CreatedAt: time.Date(2024, 3, 10, 13, 0, 0, 0, ist), Status: core.StatusPaid,
		BillNumber: "B-7", CustomerName: "Meera", CustomerMobile: "98450", CustomerEmail: "m@x.in",
	})
	require.NoError(t, err)

	got, err := f.svc.Customers(ctx, store.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, CustomerContact{
		OrderID: got[0].OrderID, BillNumber: "B-7", Date: got[0].Date,
		Name: "Meera", Mobile: "98450", Email: "m@x.in",
	}, got[0])
	assert.Equal(t, "#42", got[1].BillNumber)
	assert.Equal(t, "Guest", got[1].Name)
	assert.Equal(t, "NA", got[1].Mobile)
	assert.Equal(t, "NA", got[1].Email)
	assert.Equal(t, int64(1500), got[1].Total.Cents)
}

func TestOrderDetailSplitsTax(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SaveSettings(ctx, core.Settings{Name: "Spice Route", TaxRate: 5, UPI: "spice@upi"}))
	id, err := f.store.InsertOrder(ctx, core.Order{
		Status:     core.StatusPaid,
		Subtotal:   core.NewNullMoney(20000),
		Tax:        core.NewNullMoney(1001),
		GrandTotal: core.NewNullMoney(21001),
		WaiterID:   f.waiter,
		TableID:    f.table,
		Items: []core.OrderItem{
			{Name: "Dal Makhani", Quantity: 2, PriceAtTime: core.NewNullMoney(10000)},
			{Quantity: 1},
		},
	})
	require.NoError(t, err)

	bill, err := f.svc.OrderDetail(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Spice Route", bill.Restaurant.Name)
	assert.Equal(t, int64(501), bill.SGST.Cents)
	assert.Equal(t, int64(500), bill.CGST.Cents)
	assert.Equal(t, 2.5, bill.HalfRate)
	assert.Equal(t, "Ravi", bill.Order.WaiterName)
	assert.Equal(t, 4, bill.Order.TableNumber)
	require.Len(t, bill.Lines, 2)
	assert.Equal(t, int64(20000), bill.Lines[0].Total.Cents)
	assert.Equal(t, "Item", bill.Lines[1].Name)
	assert.Zero(t, bill.Lines[1].Total.Cents)

	_, err = f.svc.OrderDetail(ctx, "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

type failingOrders struct{ store.OrderReader }

func (failingOrders) ListOrders(context.Context, store.OrderFilter) ([]core.Order, error) {
	return nil, errors.New("db down")
}

func TestDashboardPropagatesStoreErrors(t *testing.T) {
	f := newFixture(t)
	svc := NewService(Sources{Orders: failingOrders{}, Staff: f.store, Tables: f.store}, ist, nil)
	_, err := svc.Dashboard(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}
