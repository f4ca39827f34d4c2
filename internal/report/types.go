package report

import (
	"time"

	"dineadmin/internal/core"

	"github.com/shopspring/decimal"
)

// RecentLimit is how many orders the dashboard activity feed shows.
const RecentLimit = 10

// DashboardReport is the overview of the current business day. Bills counts
// every order of the day, settled or not.
type DashboardReport struct {
	Date          time.Time
	Sales         core.Money
	Tax           core.Money
	Bills         int
	AverageBill   decimal.Decimal
	Hourly        []Bucket
	ActiveTables  int
	OnlineWaiters int
	Recent        []core.Order
}

// DailyReport is the daily sales tab. Bills counts every order of the day.
type DailyReport struct {
	Date        time.Time
	Sales       core.Money
	Tax         core.Money
	Bills       int
	AverageBill decimal.Decimal
	Hourly      []Bucket
}

// PeriodReport covers a month or a year. Only paid orders are fed to the
// aggregator, so Bills counts settled bills. Orders is kept for exports.
type PeriodReport struct {
	Granularity Granularity
	Year        int
	Month       int // zero for yearly reports
	Window      core.Window
	Sales       core.Money
	Tax         core.Money
	Bills       int
	AverageBill decimal.Decimal
	Series      []Bucket
	Orders      []core.Order
}

type WaiterStatus struct {
	ID           string
	Name         string
	Status       core.StaffStatus
	ActiveTable  int
	LastActiveAt time.Time
	OpenOrders   int
}

type CustomerContact struct {
	OrderID    string
	BillNumber string
	Date       time.Time
	Name       string
	Mobile     string
	Email      string
	Total      core.Money
}

// BillLine is one printed line of a bill.
type BillLine struct {
	Name     string
	Quantity int
	Price    core.Money
	Total    core.Money
}

// Bill is an order laid out for printing, tax split into SGST and CGST.
type Bill struct {
	Restaurant core.Settings
	Order      core.Order
	Lines      []BillLine
	Subtotal   core.Money
	Discount   core.Money
	SGST       core.Money
	CGST       core.Money
	HalfRate   float64 // percent applied for each of SGST and CGST
	Total      core.Money
}

const (
	guestName    = "Guest"
	notAvailable = "NA"
)

// ContactOf returns the customer columns with the defaults used on bills and exports.
func ContactOf(o core.Order) (name, mobile, email string) {
	name, mobile, email = o.CustomerName, o.CustomerMobile, o.CustomerEmail
	if name == "" {
		name = guestName
	}
	if mobile == "" {
		mobile = notAvailable
	}
	if email == "" {
		email = notAvailable
	}
	return name, mobile, email
}
