package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusOpen      OrderStatus = "open"
	StatusPaid      OrderStatus = "paid"
	StatusCancelled OrderStatus = "cancelled"

	RoleAdmin  Role = "admin"
	RoleWaiter Role = "waiter"

	StaffOnline  StaffStatus = "online"
	StaffOffline StaffStatus = "offline"
	StaffBusy    StaffStatus = "busy"

	TableFree     TableStatus = "free"
	TableOccupied TableStatus = "occupied"
)

type (
	OrderStatus string
	Role        string
	StaffStatus string
	TableStatus string

	Money struct {
		Cents int64
	}

	// NullMoney is a monetary column that may be NULL upstream.
	NullMoney struct {
		Money
		Valid bool
	}

	Order struct {
		ID             string
		CreatedAt      time.Time
		Status         OrderStatus
		GrandTotal     NullMoney
		Tax            NullMoney
		Subtotal       NullMoney
		Discount       NullMoney
		PaymentMode    string
		WaiterID       string
		WaiterName     string
		TableID        string
		TableNumber    int
		BillNumber     string
		InvoiceNumber  int64
		CustomerName   string
		CustomerMobile string
		CustomerEmail  string
		Items          []OrderItem
	}

	OrderItem struct {
		ID          string
		OrderID     string
		MenuItemID  string
		Name        string
		Quantity    int
		PriceAtTime NullMoney
	}

	MenuItem struct {
		ID       string
		Name     string
		Category string
		Price    Money
		TaxRate  float64 // percent
		IsActive bool
	}

	Profile struct {
		ID                string
		Name              string
		Email             string
		Role              Role
		Status            StaffStatus
		ActiveTableID     string
		ActiveTableNumber int
		LastActiveAt      time.Time
		PasswordHash      string
	}

	Table struct {
		ID     string
		Number int
		Status TableStatus
	}

	Settings struct {
		Name    string
		Address string
		GSTIN   string
		UPI     string
		TaxRate float64 // percent
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyName       = errors.New("empty name")
	ErrNameTooLong     = errors.New("name too long (max 120 characters)")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidTaxRate  = errors.New("tax rate must be between 0 and 100")
	ErrInvalidGSTIN    = errors.New("GSTIN must be 15 characters")
	ErrInvalidPeriod   = errors.New("invalid report period")
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// DefaultSettings is what the dashboard shows before the first save.
func DefaultSettings() Settings {
	return Settings{
		Name:    "Book My Dine",
		TaxRate: 5,
	}
}

// IsPaid reports whether the bill was settled.
func (o Order) IsPaid() bool {
	return o.Status == StatusPaid
}

// BillLabel returns the bill number, or "#<invoice>" when no bill number was assigned.
func (o Order) BillLabel() string {
	if strings.TrimSpace(o.BillNumber) != "" {
		return o.BillNumber
	}
	return "#" + itoa(o.InvoiceNumber)
}

// Total returns the line total for an order item.
func (i OrderItem) Total() Money {
	return Money{Cents: i.PriceAtTime.OrZero().Cents * int64(i.Quantity)}
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleWaiter
}

func (m MenuItem) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if len(m.Name) > 120 {
		return ErrNameTooLong
	}
	if strings.TrimSpace(m.Category) == "" {
		return ErrEmptyCategory
	}
	if m.Price.Cents <= 0 {
		return ErrInvalidAmount
	}
	if m.TaxRate < 0 || m.TaxRate > 100 {
		return ErrInvalidTaxRate
	}
	return nil
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if s.TaxRate < 0 || s.TaxRate > 100 {
		return ErrInvalidTaxRate
	}
	if g := strings.TrimSpace(s.GSTIN); g != "" && len(g) != 15 {
		return ErrInvalidGSTIN
	}
	return nil
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if !p.Role.Valid() {
		return ErrInvalidRole
	}
	if p.Email != "" && !strings.Contains(p.Email, "@") {
		return ErrInvalidEmail
	}
	return nil
}
