// Package core holds the domain types shared by the statement and analysis
// pipelines.
//
// This file contains money parsing and formatting. Amounts are stored as
// int64 cents to keep aggregation exact; statement documents print amounts
// as signed, comma-grouped decimals with two places (e.g. "-1,250.00").
package core

import (
	"strconv"
	"strings"
)

// Money is an amount in cents (KES * 100).
type Money struct {
	Cents int64
}

// Shillings builds a Money from whole shillings.
func Shillings(units int64) Money {
	return Money{Cents: units * 100}
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns the difference of two amounts.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// Units returns the value in shillings as a float64 for display and ratio
// math. Use cents for sums.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// Whole returns the amount rounded half-up to the nearest whole shilling.
// Recurring-pattern grouping keys on this.
func (m Money) Whole() int64 {
	c := m.Cents
	neg := c < 0
	if neg {
		c = -c
	}
	w := (c + 50) / 100
	if neg {
		return -w
	}
	return w
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// ParseStatementAmount parses a statement numeric token into signed cents.
//
// The accepted format is the one M-Pesa statements print: an optional minus
// sign, comma-grouped integer digits and exactly two decimal places
// ("1,000.00", "-35.00"). Anything else is rejected.
func ParseStatementAmount(s string) (Money, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, false
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	dot := strings.IndexByte(s, '.')
	if dot < 0 || len(s)-dot-1 != 2 {
		return Money{}, false
	}
	intPart := strings.ReplaceAll(s[:dot], ",", "")
	fracPart := s[dot+1:]
	if intPart == "" {
		return Money{}, false
	}
	for _, r := range intPart {
		if r < '0' || r > '9' {
			return Money{}, false
		}
	}
	for _, r := range fracPart {
		if r < '0' || r > '9' {
			return Money{}, false
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, false
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return Money{}, false
	}
	cents := iv*100 + int64(fracPart[0]-'0')*10 + int64(fracPart[1]-'0')
	if neg {
		cents = -cents
	}
	return Money{Cents: cents}, true
}

// FormatKES renders an amount as "KES 1,250" (whole shillings, comma
// grouped). Cents are shown only when nonzero.
func FormatKES(m Money) string {
	c := m.Cents
	neg := c < 0
	if neg {
		c = -c
	}
	units := c / 100
	rem := c % 100

	s := strconv.FormatInt(units, 10)
	// Insert thousands separators right to left.
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if rem != 0 {
		s += "." + twoDigits(rem)
	}
	if neg {
		return "-KES " + s
	}
	return "KES " + s
}

func twoDigits(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}
