package service

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmountMinor converts a decimal amount to minor units (x100), rounding
// half away from zero on the third decimal: "12.345" is 1235, "12.344" is
// 1234. Plain decimals are rounded on their digits; exponent and hex forms go
// through float64.
func ParseAmountMinor(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, invalid("amount is required")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, invalid("amount must be a finite number")
	}
	if f < 0 {
		return 0, invalid("amount must not be negative")
	}

	if cents, ok := decimalToMinor(s); ok {
		return cents, nil
	}

	scaled := math.Round(f * 100)
	if scaled >= math.MaxInt64 {
		return 0, invalid("amount is too large")
	}
	return int64(scaled), nil
}

// decimalToMinor handles [+]digits[.digits] exactly. ok is false for any
// other shape, or when the value overflows.
func decimalToMinor(s string) (int64, bool) {
	s = strings.TrimPrefix(s, "+")
	intPart, frac, _ := strings.Cut(s, ".")
	if intPart == "" && frac == "" {
		return 0, false
	}
	for _, part := range []string{intPart, frac} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return 0, false
			}
		}
	}

	var units int64
	if intPart != "" {
		n, err := strconv.ParseInt(intPart, 10, 64)
		if err != nil || n > math.MaxInt64/100-1 {
			return 0, false
		}
		units = n
	}

	frac += "000"
	cents, _ := strconv.ParseInt(frac[:2], 10, 64)
	total := units*100 + cents
	if frac[2] >= '5' {
		total++
	}
	return total, true
}
