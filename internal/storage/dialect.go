package storage

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dineadmin/internal/core"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

var ErrUnknownDialect = errors.New("unknown SQL dialect")

// sqliteTimeLayout is fixed width and always UTC so that stored values sort
// and compare lexicographically.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000"

// ParseDialect maps a DATA_BACKEND value to a dialect.
func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(s))); d {
	case SQLite, Postgres:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDialect, s)
}

func (d Dialect) driverName() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// rebind rewrites ? placeholders to $1..$n for postgres. Queries in this
// package never contain a literal question mark.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// timeArg encodes t as a query argument.
func (d Dialect) timeArg(t time.Time) any {
	if d == Postgres {
		return t.UTC()
	}
	return t.UTC().Format(sqliteTimeLayout)
}

// nullTimeArg is timeArg with the zero time stored as NULL.
func (d Dialect) nullTimeArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return d.timeArg(t)
}

// scanTime reads timestamps written by either dialect. NULL leaves Time zero.
type scanTime struct {
	Time time.Time
}

var sqliteReadLayouts = []string{
	sqliteTimeLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

func (s *scanTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		s.Time = time.Time{}
		return nil
	case time.Time:
		s.Time = v
		return nil
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	}
	return fmt.Errorf("cannot scan %T into time", src)
}

func (s *scanTime) parse(v string) error {
	for _, layout := range sqliteReadLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			s.Time = t
			return nil
		}
	}
	return fmt.Errorf("cannot parse time %q", v)
}

var _ sql.Scanner = (*scanTime)(nil)

func nullMoney(v sql.NullInt64) core.NullMoney {
	if !v.Valid {
		return core.NullMoney{}
	}
	return core.NewNullMoney(v.Int64)
}

func nullMoneyArg(m core.NullMoney) any {
	if !m.Valid {
		return nil
	}
	return m.Cents
}

// nullString stores the empty string as NULL, for optional references and
// unique columns.
func nullString(s string) driver.Value {
	if s == "" {
		return nil
	}
	return s
}
