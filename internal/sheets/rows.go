package sheets

import (
	"errors"
	"strings"

	"dineadmin/internal/core"
	"dineadmin/internal/report"
)

const (
	DateLayout = "02/01/2006"
	notAvail   = "N/A"
)

var ErrNotPaid = errors.New("only paid orders are exported")

var (
	SalesHeader   = []any{"Bill No", "Date", "Month", "Payment Mode", "Total Amount", "Tax (SGST+CGST)", "Waiter"}
	SummaryHeader = []any{"Date", "Bills", "Total Sales", "Total Tax", "Average Bill"}
)

// SaleRow is the sales sheet row for a paid order. CreatedAt is expected in
// the restaurant time zone.
func SaleRow(o core.Order) ([]any, error) {
	if !o.IsPaid() {
		return nil, ErrNotPaid
	}
	return []any{
		o.BillLabel(),
		o.CreatedAt.Format(DateLayout),
		o.CreatedAt.Month().String(),
		orNA(o.PaymentMode),
		o.GrandTotal.OrZero().Rupees(),
		o.Tax.OrZero().Rupees(),
		orNA(o.WaiterName),
	}, nil
}

func SummaryRow(r report.DailyReport) []any {
	avg, _ := r.AverageBill.Round(2).Float64()
	return []any{
		r.Date.Format(DateLayout),
		r.Bills,
		r.Sales.Rupees(),
		r.Tax.Rupees(),
		avg,
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvail
	}
	return s
}
