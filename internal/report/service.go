package report

import (
	"context"
	"fmt"
	"time"

	"dineadmin/internal/core"
	"dineadmin/internal/log"
	"dineadmin/internal/store"

	"golang.org/x/sync/errgroup"
)

// Sources groups the store ports the report builders read from.
type Sources struct {
	Orders   store.OrderReader
	Details  store.OrderDetailReader
	Staff    store.StaffReader
	Tables   store.TableReader
	Settings store.SettingsStore
}

// Service builds reports from a fresh store snapshot on every call.
type Service struct {
	src    Sources
	loc    *time.Location
	logger *log.Logger
}

// NewService creates a report service. Day, month and year boundaries are
// computed in loc.
func NewService(src Sources, loc *time.Location, logger *log.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{src: src, loc: loc, logger: logger.WithComponent(log.ComponentReport)}
}

func (s *Service) Location() *time.Location { return s.loc }

// Dashboard aggregates every order of the day containing now. Orders, online
// waiters and occupied tables are read concurrently.
func (s *Service) Dashboard(ctx context.Context, now time.Time) (DashboardReport, error) {
	day := core.DayWindow(now, s.loc)

	var (
		orders  []core.Order
		waiters int
		tables  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.src.Orders.ListOrders(gctx, store.OrderFilter{Window: day})
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		waiters, err = s.src.Staff.CountOnlineWaiters(gctx)
		if err != nil {
			return fmt.Errorf("count online waiters: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tables, err = s.src.Tables.CountOccupiedTables(gctx)
		if err != nil {
			return fmt.Errorf("count occupied tables: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return DashboardReport{}, err
	}

	// All orders of the day: open tables count as bills here.
	res, err := Aggregate(inLocation(orders, s.loc), Hourly, 24)
	if err != nil {
		return DashboardReport{}, err
	}

	recent := orders
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	s.logger.DebugContext(ctx, "Dashboard built",
		log.FieldOrderCount, len(orders),
		log.FieldSalesCents, res.TotalSales.Cents)

	return DashboardReport{
		Date:          day.From,
		Sales:         res.TotalSales,
		Tax:           res.TotalTax,
		Bills:         res.BillCount,
		AverageBill:   res.AverageBill,
		Hourly:        res.Series,
		ActiveTables:  tables,
		OnlineWaiters: waiters,
		Recent:        recent,
	}, nil
}

// Daily aggregates every order of the day containing now, like Dashboard but
// without the staff and table counters.
func (s *Service) Daily(ctx context.Context, now time.Time) (DailyReport, error) {
	day := core.DayWindow(now, s.loc)
	orders, err := s.src.Orders.ListOrders(ctx, store.OrderFilter{Window: day})
	if err != nil {
		return DailyReport{}, fmt.Errorf("list orders: %w", err)
	}
	res, err := Aggregate(inLocation(orders, s.loc), Hourly, 24)
	if err != nil {
		return DailyReport{}, err
	}
	return DailyReport{
		Date:        day.From,
		Sales:       res.TotalSales,
		Tax:         res.TotalTax,
		Bills:       res.BillCount,
		AverageBill: res.AverageBill,
		Hourly:      res.Series,
	}, nil
}

// Monthly aggregates the paid orders of a calendar month by day.
func (s *Service) Monthly(ctx context.Context, year, month int) (PeriodReport, error) {
	w, err := core.MonthWindow(year, month, s.loc)
	if err != nil {
		return PeriodReport{}, err
	}
	n, err := BucketCount(DayOfMonth, year, month)
	if err != nil {
		return PeriodReport{}, err
	}
	rep, err := s.period(ctx, w, DayOfMonth, n)
	if err != nil {
		return PeriodReport{}, err
	}
	rep.Year, rep.Month = year, month
	return rep, nil
}

// Yearly aggregates the paid orders of a calendar year by month.
func (s *Service) Yearly(ctx context.Context, year int) (PeriodReport, error) {
	w, err := core.YearWindow(year, s.loc)
	if err != nil {
		return PeriodReport{}, err
	}
	rep, err := s.period(ctx, w, MonthOfYear, 12)
	if err != nil {
		return PeriodReport{}, err
	}
	rep.Year = year
	return rep, nil
}

func (s *Service) period(ctx context.Context, w core.Window, g Granularity, buckets int) (PeriodReport, error) {
	// Paid orders only: Bills counts settled bills in period reports.
	orders, err := s.src.Orders.ListOrders(ctx, store.OrderFilter{Window: w, Status: core.StatusPaid})
	if err != nil {
		return PeriodReport{}, fmt.Errorf("list orders: %w", err)
	}
	orders = inLocation(orders, s.loc)
	res, err := Aggregate(orders, g, buckets)
	if err != nil {
		return PeriodReport{}, err
	}
	s.logger.DebugContext(ctx, "Period report built",
		log.FieldGranularity, string(g),
		log.FieldOrderCount, len(orders),
		log.FieldSalesCents, res.TotalSales.Cents)
	return PeriodReport{
		Granularity: g,
		Window:      w,
		Sales:       res.TotalSales,
		Tax:         res.TotalTax,
		Bills:       res.BillCount,
		AverageBill: res.AverageBill,
		Series:      res.Series,
		Orders:      orders,
	}, nil
}

// WaiterStatus lists every waiter with the number of open orders they hold.
func (s *Service) WaiterStatus(ctx context.Context) ([]WaiterStatus, error) {
	var (
		waiters []core.Profile
		open    []core.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		waiters, err = s.src.Staff.ListWaiters(gctx)
		if err != nil {
			return fmt.Errorf("list waiters: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		open, err = s.src.Orders.ListOrders(gctx, store.OrderFilter{Status: core.StatusOpen})
		if err != nil {
			return fmt.Errorf("list open orders: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	perWaiter := make(map[string]int, len(waiters))
	for _, o := range open {
		if o.WaiterID != "" {
			perWaiter[o.WaiterID]++
		}
	}
	out := make([]WaiterStatus, 0, len(waiters))
	for _, w := range waiters {
		last := w.LastActiveAt
		if !last.IsZero() {
			last = last.In(s.loc)
		}
		out = append(out, WaiterStatus{
			ID:           w.ID,
			Name:         w.Name,
			Status:       w.Status,
			ActiveTable:  w.ActiveTableNumber,
			LastActiveAt: last,
			OpenOrders:   perWaiter[w.ID],
		})
	}
	return out, nil
}

// Customers returns the contact columns of the orders matching f.
func (s *Service) Customers(ctx context.Context, f store.OrderFilter) ([]CustomerContact, error) {
	orders, err := s.src.Orders.ListOrders(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out := make([]CustomerContact, 0, len(orders))
	for _, o := range orders {
		name, mobile, email := ContactOf(o)
		out = append(out, CustomerContact{
			OrderID:    o.ID,
			BillNumber: o.BillLabel(),
			Date:       o.CreatedAt.In(s.loc),
			Name:       name,
			Mobile:     mobile,
			Email:      email,
			Total:      o.GrandTotal.OrZero(),
		})
	}
	return out, nil
}

// Orders lists orders for the orders tab.
func (s *Service) Orders(ctx context.Context, f store.OrderFilter) ([]core.Order, error) {
	orders, err := s.src.Orders.ListOrders(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return inLocation(orders, s.loc), nil
}

// OrderDetail lays out a single order as a printable bill.
func (s *Service) OrderDetail(ctx context.Context, id string) (Bill, error) {
	var (
		o   core.Order
		set core.Settings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		o, err = s.src.Details.GetOrder(gctx, id)
		if err != nil {
			return fmt.Errorf("get order %s: %w", id, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		set, err = s.src.Settings.GetSettings(gctx)
		if err != nil {
			return fmt.Errorf("get settings: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Bill{}, err
	}
	o.CreatedAt = o.CreatedAt.In(s.loc)
	return NewBill(o, set), nil
}

// NewBill splits the order tax into SGST and CGST halves.
func NewBill(o core.Order, set core.Settings) Bill {
	lines := make([]BillLine, 0, len(o.Items))
	for _, it := range o.Items {
		name := it.Name
		if name == "" {
			name = "Item"
		}
		lines = append(lines, BillLine{
			Name:     name,
			Quantity: it.Quantity,
			Price:    it.PriceAtTime.OrZero(),
			Total:    it.Total(),
		})
	}
	sgst, cgst := o.Tax.OrZero().Half()
	return Bill{
		Restaurant: set,
		Order:      o,
		Lines:      lines,
		Subtotal:   o.Subtotal.OrZero(),
		Discount:   o.Discount.OrZero(),
		SGST:       sgst,
		CGST:       cgst,
		HalfRate:   set.TaxRate / 2,
		Total:      o.GrandTotal.OrZero(),
	}
}

func inLocation(orders []core.Order, loc *time.Location) []core.Order {
	for i := range orders {
		orders[i].CreatedAt = orders[i].CreatedAt.In(loc)
	}
	return orders
}
