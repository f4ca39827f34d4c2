package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dineadmin/internal/core"
	"dineadmin/internal/services"
	"dineadmin/internal/store"
)

const (
	defaultDemoPassword = "test1234"
	demoTables          = 8
	ordersPerDay        = 6
	demoTaxRate         = 5
)

var demoWaiters = []struct{ name, email string }{
	{"Rahul", "rahul@test.com"},
	{"Amit", "amit@test.com"},
	{"Priya", "priya@test.com"},
}

var demoMenu = []core.MenuItem{
	{Name: "Masala Dosa", Category: "South Indian", Price: core.Money{Cents: 12000}, TaxRate: demoTaxRate, IsActive: true},
	{Name: "Idli Sambar", Category: "South Indian", Price: core.Money{Cents: 8000}, TaxRate: demoTaxRate, IsActive: true},
	{Name: "Paneer Butter Masala", Category: "Main Course", Price: core.Money{Cents: 26000}, TaxRate: demoTaxRate, IsActive: true},
	{Name: "Butter Naan", Category: "Breads", Price: core.Money{Cents: 4500}, TaxRate: demoTaxRate, IsActive: true},
	{Name: "Veg Biryani", Category: "Rice", Price: core.Money{Cents: 22000}, TaxRate: demoTaxRate, IsActive: true},
	{Name: "Sweet Lassi", Category: "Drinks", Price: core.Money{Cents: 6000}, TaxRate: demoTaxRate, IsActive: true},
}

var errNoDays = errors.New("days must be at least 1")

var demoPayments = []string{"cash", "upi", "card"}

type seedSummary struct {
	Waiters   int
	Tables    int
	MenuItems int
	Orders    int
}

// demoSeeder fills an empty store with enough data to exercise every report.
type demoSeeder struct {
	store store.Store
	staff *services.StaffService
	loc   *time.Location
}

// Seed creates the demo waiters (skipping existing emails), tables, menu and
// days of paid orders ending at now. Order times fall between noon and 22:00
// in the restaurant time zone.
func (s *demoSeeder) Seed(ctx context.Context, password string, days int, now time.Time) (seedSummary, error) {
	var sum seedSummary
	if days < 1 {
		return sum, errNoDays
	}
	loc := s.loc
	if loc == nil {
		loc = time.UTC
	}

	waiters := make([]core.Profile, 0, len(demoWaiters))
	for _, w := range demoWaiters {
		id, err := s.staff.CreateWaiter(ctx, w.name, w.email, password)
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			p, err := s.store.GetProfileByEmail(ctx, w.email)
			if err != nil {
				return sum, fmt.Errorf("load waiter %s: %w", w.email, err)
			}
			id = p.ID
		case err != nil:
			return sum, fmt.Errorf("create waiter %s: %w", w.email, err)
		default:
			sum.Waiters++
		}
		waiters = append(waiters, core.Profile{ID: id, Name: w.name})
	}

	tables := make([]core.Table, 0, demoTables)
	for n := 1; n <= demoTables; n++ {
		id, err := s.store.CreateTable(ctx, core.Table{Number: n, Status: core.TableFree})
		if err != nil {
			return sum, fmt.Errorf("create table %d: %w", n, err)
		}
		tables = append(tables, core.Table{ID: id, Number: n})
		sum.Tables++
	}

	menu := make([]core.MenuItem, 0, len(demoMenu))
	for _, m := range demoMenu {
		id, err := s.store.CreateMenuItem(ctx, m)
		if err != nil {
			return sum, fmt.Errorf("create menu item %s: %w", m.Name, err)
		}
		m.ID = id
		menu = append(menu, m)
		sum.MenuItems++
	}

	today := now.In(loc)
	day0 := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	invoice := int64(1)
	for d := days - 1; d >= 0; d-- {
		day := day0.AddDate(0, 0, -d)
		for i := 0; i < ordersPerDay; i++ {
			at := day.Add(time.Duration(12+i*2) * time.Hour).Add(time.Duration(i*7) * time.Minute)
			if at.After(today) {
				break
			}
			o := demoOrder(invoice, at, waiters[i%len(waiters)], tables[(i+d)%len(tables)], menu, i)
			if _, err := s.store.InsertOrder(ctx, o); err != nil {
				return sum, fmt.Errorf("insert order %d: %w", invoice, err)
			}
			invoice++
			sum.Orders++
		}
	}
	return sum, nil
}

// demoOrder builds a paid order of two menu lines with tax on top.
func demoOrder(invoice int64, at time.Time, waiter core.Profile, table core.Table, menu []core.MenuItem, i int) core.Order {
	first, second := menu[i%len(menu)], menu[(i+2)%len(menu)]
	items := []core.OrderItem{
		{MenuItemID: first.ID, Name: first.Name, Quantity: 1 + i%2, PriceAtTime: core.NewNullMoney(first.Price.Cents)},
		{MenuItemID: second.ID, Name: second.Name, Quantity: 1, PriceAtTime: core.NewNullMoney(second.Price.Cents)},
	}
	var subtotal int64
	for _, it := range items {
		subtotal += it.PriceAtTime.Cents * int64(it.Quantity)
	}
	tax := subtotal * demoTaxRate / 100

	return core.Order{
		CreatedAt:     at,
		Status:        core.StatusPaid,
		Subtotal:      core.NewNullMoney(subtotal),
		Tax:           core.NewNullMoney(tax),
		Discount:      core.NewNullMoney(0),
		GrandTotal:    core.NewNullMoney(subtotal + tax),
		PaymentMode:   demoPayments[int(invoice)%len(demoPayments)],
		WaiterID:      waiter.ID,
		WaiterName:    waiter.Name,
		TableID:       table.ID,
		TableNumber:   table.Number,
		BillNumber:    fmt.Sprintf("B-%05d", invoice),
		InvoiceNumber: invoice,
		Items:         items,
	}
}
