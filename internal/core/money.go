// Package core holds the transaction domain types shared by the engine,
// the stores and the HTTP layer.
//
// This file contains amount parsing and currency formatting.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string into a signed amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading sign. Thousands separators are not accepted.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("-12,34") -> -12.34, nil
//	ParseAmount("1.2.3")  -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, Invalid("amount", "empty amount")
	}
	s = strings.ReplaceAll(s, ",", ".")

	digits := strings.TrimLeft(s, "+-")
	if len(s)-len(digits) > 1 {
		return decimal.Zero, Invalid("amount", "invalid sign")
	}
	if strings.Count(digits, ".") > 1 || digits == "" || digits == "." {
		return decimal.Zero, Invalid("amount", "invalid format")
	}
	for _, r := range digits {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, Invalid("amount", "invalid format")
		}
	}

	d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return decimal.Zero, Invalid("amount", "invalid format")
	}
	return d, nil
}

// ParseOptionalAmount returns nil for an empty string.
func ParseOptionalAmount(s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := ParseAmount(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FormatUSD renders |d| as US currency with thousands separators, e.g. $1,500.00.
func FormatUSD(d decimal.Decimal) string {
	return "$" + groupThousands(d.Abs().StringFixed(2))
}

// FormatSigned renders d the way transaction lists show it: "+$5000.00" for
// inflows and "$1500.00" for outflows, without grouping.
func FormatSigned(d decimal.Decimal) string {
	s := "$" + d.Abs().StringFixed(2)
	if !d.IsNegative() {
		return "+" + s
	}
	return s
}

func groupThousands(fixed string) string {
	intPart, frac, _ := strings.Cut(fixed, ".")
	if len(intPart) <= 3 {
		return fixed
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
