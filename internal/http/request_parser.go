// Package http provides the admin JSON API.
//
// This file implements utilities for parsing request bodies and query
// filters shared by the handlers.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dineadmin/internal/core"
	"dineadmin/internal/store"
)

const maxBodyBytes = 64 << 10

var errBadBody = errors.New("invalid request body")

// RequestBodyParser reads a JSON or form-encoded body once and exposes its
// fields as sanitized strings.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads at most maxBodyBytes of the request body.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBadBody
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = errBadBody
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	if p.err != nil {
		p.err = errBadBody
	}
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// GetSecret returns a field untouched, for passwords.
func (p *RequestBodyParser) GetSecret(key string) string {
	if p.jsonData != nil {
		return stringValue(p.jsonData[key])
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

// Has reports whether the field was sent at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// GetFloat parses a numeric field. Absent fields yield def.
func (p *RequestBodyParser) GetFloat(key string, def float64) (float64, error) {
	v := p.Get(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
	if err != nil {
		return 0, errBadBody
	}
	return f, nil
}

// GetBool parses a boolean field. Absent fields yield def.
func (p *RequestBodyParser) GetBool(key string, def bool) (bool, error) {
	v := p.Get(key)
	if v == "" {
		return def, nil
	}
	switch strings.ToLower(v) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errBadBody
	}
	return b, nil
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseMenuItem builds a menu item from a POST /api/menu body. A new item is
// active unless the body says otherwise.
func parseMenuItem(p *RequestBodyParser) (core.MenuItem, error) {
	m := core.MenuItem{
		ID:       p.Get("id"),
		Name:     p.Get("name"),
		Category: p.Get("category"),
	}
	cents, err := core.ParseDecimalToCents(p.Get("price"))
	if err != nil {
		return core.MenuItem{}, err
	}
	m.Price = core.Money{Cents: cents}
	if m.TaxRate, err = p.GetFloat("tax_rate", 0); err != nil {
		return core.MenuItem{}, err
	}
	if m.IsActive, err = p.GetBool("is_active", true); err != nil {
		return core.MenuItem{}, err
	}
	return m, nil
}

// parseSettings builds the settings row from a POST /api/settings body.
// Fields that are not sent keep their current value.
func parseSettings(p *RequestBodyParser, current core.Settings) (core.Settings, error) {
	set := current
	if p.Has("name") {
		set.Name = p.Get("name")
	}
	if p.Has("address") {
		set.Address = p.Get("address")
	}
	if p.Has("gstin") {
		set.GSTIN = p.Get("gstin")
	}
	if p.Has("upi") {
		set.UPI = p.Get("upi")
	}
	rate, err := p.GetFloat("tax_rate", current.TaxRate)
	if err != nil {
		return core.Settings{}, err
	}
	set.TaxRate = rate
	return set, nil
}

// parseOrderFilter reads the orders tab filters: date, payment and waiter.
// Without a date every order is listed, up to maxListedOrders.
func parseOrderFilter(r *http.Request, loc *time.Location) (store.OrderFilter, error) {
	q := r.URL.Query()
	f := store.OrderFilter{
		PaymentMode: sanitizeInput(q.Get("payment")),
		WaiterID:    sanitizeInput(q.Get("waiter")),
	}
	if strings.EqualFold(f.PaymentMode, "all") {
		f.PaymentMode = ""
	}
	if strings.EqualFold(f.WaiterID, "all") {
		f.WaiterID = ""
	}
	if st := sanitizeInput(q.Get("status")); st != "" && !strings.EqualFold(st, "all") {
		f.Status = core.OrderStatus(strings.ToLower(st))
		if !f.Status.Valid() {
			return store.OrderFilter{}, errBadParam
		}
	}

	day, ok, err := parseDateParam(r, loc)
	if err != nil {
		return store.OrderFilter{}, err
	}
	if ok {
		f.Window = core.DayWindow(day, loc)
	} else {
		f.Limit = maxListedOrders
	}
	return f, nil
}
