package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dineadmin/internal/core"

	"github.com/shopspring/decimal"
)

var errBadParam = errors.New("invalid query parameter")

// parseMonthParam reads month=YYYY-MM, defaulting to the month of now.
func parseMonthParam(r *http.Request, now time.Time) (year, month int, err error) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return now.Year(), int(now.Month()), nil
	}
	t, err := time.Parse("2006-01", v)
	if err != nil {
		return 0, 0, errBadParam
	}
	return t.Year(), int(t.Month()), nil
}

// parseYearParam reads year=YYYY, defaulting to the year of now.
func parseYearParam(r *http.Request, now time.Time) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("year"))
	if v == "" {
		return now.Year(), nil
	}
	y, err := strconv.Atoi(v)
	if err != nil || len(v) != 4 {
		return 0, errBadParam
	}
	return y, nil
}

// parseDateParam reads date=YYYY-MM-DD as a day in loc. ok is false when the
// parameter is absent.
func parseDateParam(r *http.Request, loc *time.Location) (day time.Time, ok bool, err error) {
	v := strings.TrimSpace(r.URL.Query().Get("date"))
	if v == "" {
		return time.Time{}, false, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, loc)
	if err != nil {
		return time.Time{}, false, errBadParam
	}
	return t, true, nil
}

// formatRupees formats paise the way en-IN does: ₹1,23,456.78.
func formatRupees(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	frac := cents % 100
	return sign + "₹" + groupIndian(whole) + "." + twoDigits(frac)
}

// formatRupeesDecimal rounds a rupee amount half away from zero to paise
// before formatting.
func formatRupeesDecimal(d decimal.Decimal) string {
	return formatRupees(d.Shift(2).Round(0).IntPart())
}

// groupIndian puts the first separator after three digits from the right and
// every following one after two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}

func twoDigits(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}

// sanitizeInput removes control characters, trims whitespace and caps the
// length of free text.
func sanitizeInput(s string) string {
	const maxLen = 200
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	if r := []rune(s); len(r) > maxLen {
		s = string(r[:maxLen])
	}
	return s
}

// wantsCustomer reports whether an export should carry the customer columns.
func wantsCustomer(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("customer"), "with")
}

func rupeesOf(m core.Money) string {
	return formatRupees(m.Cents)
}
