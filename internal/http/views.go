package http

import (
	"time"

	"dineadmin/internal/core"
	"dineadmin/internal/report"

	"github.com/shopspring/decimal"
)

// amount is how every monetary value goes over the wire: exact paise plus
// the en-IN display string.
type amount struct {
	Paise     int64  `json:"paise"`
	Formatted string `json:"formatted"`
}

func amountOf(m core.Money) amount {
	return amount{Paise: m.Cents, Formatted: rupeesOf(m)}
}

// averageView keeps the unrounded mean next to its rounded display.
type averageView struct {
	Rupees    decimal.Decimal `json:"rupees"`
	Formatted string          `json:"formatted"`
}

func averageOf(d decimal.Decimal) averageView {
	return averageView{Rupees: d, Formatted: formatRupeesDecimal(d)}
}

type bucketView struct {
	Label string `json:"label"`
	Value amount `json:"value"`
}

func bucketsOf(series []report.Bucket) []bucketView {
	out := make([]bucketView, len(series))
	for i, b := range series {
		out[i] = bucketView{Label: b.Label, Value: amountOf(b.Value)}
	}
	return out
}

type customerView struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
	Email  string `json:"email"`
}

type orderView struct {
	ID          string       `json:"id"`
	BillNumber  string       `json:"bill_number"`
	CreatedAt   time.Time    `json:"created_at"`
	Status      string       `json:"status"`
	Total       amount       `json:"total"`
	Tax         amount       `json:"tax"`
	PaymentMode string       `json:"payment_mode,omitempty"`
	WaiterID    string       `json:"waiter_id,omitempty"`
	WaiterName  string       `json:"waiter_name,omitempty"`
	TableNumber int          `json:"table_number,omitempty"`
	Customer    customerView `json:"customer"`
}

func orderOf(o core.Order) orderView {
	name, mobile, email := report.ContactOf(o)
	return orderView{
		ID:          o.ID,
		BillNumber:  o.BillLabel(),
		CreatedAt:   o.CreatedAt,
		Status:      string(o.Status),
		Total:       amountOf(o.GrandTotal.OrZero()),
		Tax:         amountOf(o.Tax.OrZero()),
		PaymentMode: o.PaymentMode,
		WaiterID:    o.WaiterID,
		WaiterName:  o.WaiterName,
		TableNumber: o.TableNumber,
		Customer:    customerView{Name: name, Mobile: mobile, Email: email},
	}
}

func ordersOf(orders []core.Order) []orderView {
	out := make([]orderView, len(orders))
	for i, o := range orders {
		out[i] = orderOf(o)
	}
	return out
}

type dashboardView struct {
	Date          string       `json:"date"`
	Sales         amount       `json:"sales"`
	Tax           amount       `json:"tax"`
	Bills         int          `json:"bills"`
	AverageBill   averageView  `json:"average_bill"`
	Hourly        []bucketView `json:"hourly"`
	ActiveTables  int          `json:"active_tables"`
	OnlineWaiters int          `json:"online_waiters"`
	Recent        []orderView  `json:"recent"`
}

func dashboardOf(d report.DashboardReport) dashboardView {
	return dashboardView{
		Date:          d.Date.Format(time.DateOnly),
		Sales:         amountOf(d.Sales),
		Tax:           amountOf(d.Tax),
		Bills:         d.Bills,
		AverageBill:   averageOf(d.AverageBill),
		Hourly:        bucketsOf(d.Hourly),
		ActiveTables:  d.ActiveTables,
		OnlineWaiters: d.OnlineWaiters,
		Recent:        ordersOf(d.Recent),
	}
}

type dailyView struct {
	Date        string       `json:"date"`
	Sales       amount       `json:"sales"`
	Tax         amount       `json:"tax"`
	Bills       int          `json:"bills"`
	AverageBill averageView  `json:"average_bill"`
	Hourly      []bucketView `json:"hourly"`
}

func dailyOf(d report.DailyReport) dailyView {
	return dailyView{
		Date:        d.Date.Format(time.DateOnly),
		Sales:       amountOf(d.Sales),
		Tax:         amountOf(d.Tax),
		Bills:       d.Bills,
		AverageBill: averageOf(d.AverageBill),
		Hourly:      bucketsOf(d.Hourly),
	}
}

type periodView struct {
	Granularity string       `json:"granularity"`
	Year        int          `json:"year"`
	Month       int          `json:"month,omitempty"`
	Sales       amount       `json:"sales"`
	Tax         amount       `json:"tax"`
	Bills       int          `json:"bills"`
	AverageBill averageView  `json:"average_bill"`
	Series      []bucketView `json:"series"`
}

func periodOf(p report.PeriodReport) periodView {
	return periodView{
		Granularity: string(p.Granularity),
		Year:        p.Year,
		Month:       p.Month,
		Sales:       amountOf(p.Sales),
		Tax:         amountOf(p.Tax),
		Bills:       p.Bills,
		AverageBill: averageOf(p.AverageBill),
		Series:      bucketsOf(p.Series),
	}
}

type waiterView struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	ActiveTable  int        `json:"active_table,omitempty"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
	OpenOrders   int        `json:"open_orders"`
}

func waitersOf(ws []report.WaiterStatus) []waiterView {
	out := make([]waiterView, len(ws))
	for i, w := range ws {
		v := waiterView{
			ID:          w.ID,
			Name:        w.Name,
			Status:      string(w.Status),
			ActiveTable: w.ActiveTable,
			OpenOrders:  w.OpenOrders,
		}
		if !w.LastActiveAt.IsZero() {
			last := w.LastActiveAt
			v.LastActiveAt = &last
		}
		out[i] = v
	}
	return out
}

type contactView struct {
	OrderID    string    `json:"order_id"`
	BillNumber string    `json:"bill_number"`
	Date       time.Time `json:"date"`
	Name       string    `json:"name"`
	Mobile     string    `json:"mobile"`
	Email      string    `json:"email"`
	Total      amount    `json:"total"`
}

func contactsOf(cs []report.CustomerContact) []contactView {
	out := make([]contactView, len(cs))
	for i, c := range cs {
		out[i] = contactView{
			OrderID:    c.OrderID,
			BillNumber: c.BillNumber,
			Date:       c.Date,
			Name:       c.Name,
			Mobile:     c.Mobile,
			Email:      c.Email,
			Total:      amountOf(c.Total),
		}
	}
	return out
}

type billLineView struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    amount `json:"price"`
	Total    amount `json:"total"`
}

type billView struct {
	Restaurant settingsView   `json:"restaurant"`
	Order      orderView      `json:"order"`
	Lines      []billLineView `json:"lines"`
	Subtotal   amount         `json:"subtotal"`
	Discount   amount         `json:"discount"`
	SGST       amount         `json:"sgst"`
	CGST       amount         `json:"cgst"`
	HalfRate   float64        `json:"half_rate"`
	Total      amount         `json:"total"`
}

func billOf(b report.Bill) billView {
	lines := make([]billLineView, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = billLineView{
			Name:     l.Name,
			Quantity: l.Quantity,
			Price:    amountOf(l.Price),
			Total:    amountOf(l.Total),
		}
	}
	return billView{
		Restaurant: settingsOf(b.Restaurant),
		Order:      orderOf(b.Order),
		Lines:      lines,
		Subtotal:   amountOf(b.Subtotal),
		Discount:   amountOf(b.Discount),
		SGST:       amountOf(b.SGST),
		CGST:       amountOf(b.CGST),
		HalfRate:   b.HalfRate,
		Total:      amountOf(b.Total),
	}
}

type menuItemView struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    amount  `json:"price"`
	TaxRate  float64 `json:"tax_rate"`
	IsActive bool    `json:"is_active"`
}

func menuItemOf(m core.MenuItem) menuItemView {
	return menuItemView{
		ID:       m.ID,
		Name:     m.Name,
		Category: m.Category,
		Price:    amountOf(m.Price),
		TaxRate:  m.TaxRate,
		IsActive: m.IsActive,
	}
}

type settingsView struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	GSTIN   string  `json:"gstin"`
	UPI     string  `json:"upi"`
	TaxRate float64 `json:"tax_rate"`
}

func settingsOf(s core.Settings) settingsView {
	return settingsView{
		Name:    s.Name,
		Address: s.Address,
		GSTIN:   s.GSTIN,
		UPI:     s.UPI,
		TaxRate: s.TaxRate,
	}
}

type sessionView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
