// Package core holds the domain types shared by the storage, service and
// HTTP layers: dates, money, orders, stock, purchases, recipes and the
// bookkeeping records (expenses, mileage).
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToPence converts a decimal string to pence with half-up
// rounding on the third decimal place. Accepts both dot (12.34) and comma
// (12,34) separators. Only positive amounts are accepted.
func ParseDecimalToPence(s string) (int64, error) {
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
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
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
	var fracPence int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracPence = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracPence += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracPence++
			}
		}
	}
	pence := iv*100 + fracPence
	if pence <= 0 {
		return 0, ErrInvalidAmount
	}
	return pence, nil
}

// Pounds returns the pound value as a float64. Display and the pure finance
// calculations use pounds; storage keeps pence to avoid drift in sums.
func (m Money) Pounds() float64 {
	return float64(m.Pence) / 100.0
}

// FormatGBP formats pence as a pound string, e.g. "£12.34" or "-£0.05".
func FormatGBP(pence int64) string {
	neg := pence < 0
	if neg {
		pence = -pence
	}
	s := strconv.FormatInt(pence/100, 10) + "." + fmt.Sprintf("%02d", pence%100)
	if neg {
		return "-£" + s
	}
	return "£" + s
}
