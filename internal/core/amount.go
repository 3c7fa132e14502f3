// Package core defines the domain types shared by every layer: transactions,
// recurring transactions, bank accounts, categories and the sentinel errors
// the services classify failures with.
//
// This file contains amount parsing. Amounts arrive as free-form strings from
// clients and are stored as raw numbers; currency formatting is a rendering
// concern and never enters this package.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts a decimal string to a non-negative amount.
// Returns ErrInvalidAmount for anything that is not a finite number >= 0.
//
// Examples:
//
//	ParseAmount("50")     -> 50, nil
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("-5")     -> 0, ErrInvalidAmount
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// ParsePositiveAmount is ParseAmount restricted to strictly positive values,
// the rule for transaction creation.
func ParsePositiveAmount(s string) (float64, error) {
	v, err := ParseAmount(s)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}
