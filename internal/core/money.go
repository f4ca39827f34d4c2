// Package core provides the restaurant domain types and money handling.
//
// Amounts are kept as integer paise so that sums are exact; conversion to
// rupees only happens for display and export.
package core

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseDecimalToCents converts a decimal string to paise with half-up rounding
// on the third decimal place. Zero and negative values are rejected; use it for
// prices typed by an operator.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.346") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	cents, err := ParseAmountToCents(s)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseAmountToCents is ParseDecimalToCents without the positivity rule, for
// stored amounts where zero is legitimate (discounts, tax on exempt bills).
func ParseAmountToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// Rupees returns the amount as a float for display and spreadsheet cells.
// Use Cents for arithmetic.
func (m Money) Rupees() float64 {
	return float64(m.Cents) / 100.0
}

// Decimal returns the amount in rupees as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Half splits an amount in two, used for the SGST/CGST presentation of tax.
// The odd paisa goes to the first half.
func (m Money) Half() (Money, Money) {
	second := m.Cents / 2
	return Money{Cents: m.Cents - second}, Money{Cents: second}
}

// NewNullMoney wraps a known amount.
func NewNullMoney(cents int64) NullMoney {
	return NullMoney{Money: Money{Cents: cents}, Valid: true}
}

// OrZero returns the amount, or zero when the value is NULL.
func (n NullMoney) OrZero() Money {
	if !n.Valid {
		return Money{}
	}
	return n.Money
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
