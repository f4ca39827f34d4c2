// Package report turns raw order rows into the sales figures shown on the
// admin dashboard.
//
// Aggregate is the only computation in here; the report builders in
// service.go decide which orders to feed it and how many buckets to ask for.
package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"dineadmin/internal/core"

	"github.com/shopspring/decimal"
)

const (
	Hourly      Granularity = "hourly"
	DayOfMonth  Granularity = "day_of_month"
	MonthOfYear Granularity = "month_of_year"
)

type Granularity string

var (
	ErrInvalidGranularity    = errors.New("invalid granularity")
	ErrBucketIndexOutOfRange = errors.New("bucket index out of range")
	ErrInvalidBucketCount    = errors.New("bucket count must be positive")
)

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Bucket is one slot of a time series.
type Bucket struct {
	Label string
	Value core.Money
}

// Result holds the figures for one batch of orders.
type Result struct {
	TotalSales  core.Money
	TotalTax    core.Money
	BillCount   int
	AverageBill decimal.Decimal // rupees, unrounded
	Series      []Bucket
}

// SeriesTotal sums every bucket of the series.
func (r Result) SeriesTotal() core.Money {
	var total core.Money
	for _, b := range r.Series {
		total = total.Add(b.Value)
	}
	return total
}

// ParseGranularity accepts the wire names of the granularities.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
	}
	return g, nil
}

func (g Granularity) Valid() bool {
	switch g {
	case Hourly, DayOfMonth, MonthOfYear:
		return true
	}
	return false
}

// BucketCount returns the full range of buckets for g. year and month only
// matter for DayOfMonth.
func BucketCount(g Granularity, year, month int) (int, error) {
	switch g {
	case Hourly:
		return 24, nil
	case DayOfMonth:
		if month < 1 || month > 12 {
			return 0, fmt.Errorf("%w: month %d", core.ErrInvalidPeriod, month)
		}
		return core.DaysIn(year, month), nil
	case MonthOfYear:
		return 12, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGranularity, g)
}

// Label returns the chart label of bucket i.
func (g Granularity) Label(i int) string {
	switch g {
	case Hourly:
		return strconv.Itoa(i) + ":00"
	case DayOfMonth:
		return strconv.Itoa(i + 1)
	case MonthOfYear:
		if i >= 0 && i < len(monthLabels) {
			return monthLabels[i]
		}
	}
	return strconv.Itoa(i)
}

func (g Granularity) index(o core.Order) int {
	switch g {
	case Hourly:
		return o.CreatedAt.Hour()
	case DayOfMonth:
		return o.CreatedAt.Day() - 1
	default:
		return int(o.CreatedAt.Month()) - 1
	}
}

// Aggregate sums paid orders into totals and a bucketed series.
//
// BillCount is len(orders): callers decide whether unpaid orders count as
// bills by choosing what to pass. Only paid orders contribute money, and NULL
// amounts count as zero. Buckets are taken in the location of CreatedAt.
// An order falling outside [0, bucketCount) fails the whole call.
func Aggregate(orders []core.Order, g Granularity, bucketCount int) (Result, error) {
	if !g.Valid() {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidGranularity, g)
	}
	if bucketCount <= 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidBucketCount, bucketCount)
	}

	res := Result{
		BillCount:   len(orders),
		AverageBill: decimal.Zero,
		Series:      make([]Bucket, bucketCount),
	}
	for i := range res.Series {
		res.Series[i].Label = g.Label(i)
	}

	for _, o := range orders {
		if !o.IsPaid() {
			continue
		}
		idx := g.index(o)
		if idx < 0 || idx >= bucketCount {
			return Result{}, fmt.Errorf("%w: order %s at %s maps to bucket %d of %d",
				ErrBucketIndexOutOfRange, o.ID, o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), idx, bucketCount)
		}
		total := o.GrandTotal.OrZero()
		res.TotalSales = res.TotalSales.Add(total)
		res.TotalTax = res.TotalTax.Add(o.Tax.OrZero())
		res.Series[idx].Value = res.Series[idx].Value.Add(total)
	}

	if res.BillCount > 0 {
		res.AverageBill = res.TotalSales.Decimal().Div(decimal.NewFromInt(int64(res.BillCount)))
	}
	return res, nil
}
