package domain

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencyPrefix is the display prefix used across receipts and cart views.
const CurrencyPrefix = "RF"

var moneyPrinter = message.NewPrinter(language.English)

// ParsePrice normalises heterogeneous menu price representations into integer
// minor currency units. Menu data arrives from markup attributes with
// inconsistent formatting, so unparseable input degrades to zero instead of
// failing: a bad price must never block the cart.
func ParsePrice(raw any) int64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case int:
		return clampNonNegative(int64(v))
	case int32:
		return clampNonNegative(int64(v))
	case int64:
		return clampNonNegative(v)
	case float32:
		return roundNonNegative(float64(v))
	case float64:
		return roundNonNegative(v)
	case string:
		return parsePriceString(v)
	default:
		return 0
	}
}

func parsePriceString(raw string) int64 {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0
	}

	var b strings.Builder
	for _, r := range cleaned {
		if unicode.IsDigit(r) || r == '.' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return 0
	}

	// Thousands separators were stripped above; a remaining dot is a decimal
	// point and the value rounds to the nearest whole minor unit.
	if strings.Contains(digits, ".") {
		parts := strings.SplitN(digits, ".", 2)
		whole := parts[0]
		frac := parts[1]
		value, err := strconv.ParseFloat(whole+"."+strings.ReplaceAll(frac, ".", ""), 64)
		if err != nil {
			return 0
		}
		return roundNonNegative(value)
	}

	value, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return clampNonNegative(value)
}

// FormatAmount renders an amount with thousands separators for display, e.g.
// 2500 -> "2,500".
func FormatAmount(n int64) string {
	return moneyPrinter.Sprintf("%d", n)
}

// FormatMoney renders an amount with the currency prefix, e.g. "RF 2,500".
func FormatMoney(n int64) string {
	return CurrencyPrefix + " " + FormatAmount(n)
}

func clampNonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

func roundNonNegative(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return int64(math.Round(v))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
