package money

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ToAmount coerces raw buyer or backend input into a decimal amount. It is the
// single choke point for numeric input: parse failures, NaN and infinities all
// come back as zero so invalid numbers never propagate into totals.
func ToAmount(raw any) decimal.Decimal {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case string:
		return parseAmountString(v)
	case json.Number:
		return parseAmountString(v.String())
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(v)
	case float32:
		return ToAmount(float64(v))
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	default:
		return decimal.Zero
	}
}

// ParseAmount reports whether raw held a usable number alongside the parsed
// value. Callers that must keep a prior value on bad input use this instead of
// ToAmount.
func ParseAmount(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, true
	case string:
		cleaned := cleanAmountString(v)
		if cleaned == "" {
			return decimal.Zero, false
		}
		parsed, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero, false
		}
		return parsed, true
	case json.Number:
		return ParseAmount(v.String())
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case float32:
		return ParseAmount(float64(v))
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	default:
		return decimal.Zero, false
	}
}

// DisplayAmount clamps an amount for presentation. Totals shown to buyers are
// always finite and non-negative even when the underlying math is not.
func DisplayAmount(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// FormatCurrency renders an amount as a dollar string, e.g. $1,234.50.
func FormatCurrency(d decimal.Decimal) string {
	negative := d.IsNegative()
	fixed := d.Abs().StringFixed(2)

	parts := strings.SplitN(fixed, ".", 2)
	whole := parts[0]

	var grouped []string
	for len(whole) > 3 {
		grouped = append([]string{whole[len(whole)-3:]}, grouped...)
		whole = whole[:len(whole)-3]
	}
	grouped = append([]string{whole}, grouped...)

	out := "$" + strings.Join(grouped, ",") + "." + parts[1]
	if negative {
		return "-" + out
	}
	return out
}

func parseAmountString(raw string) decimal.Decimal {
	parsed, ok := ParseAmount(raw)
	if !ok {
		return decimal.Zero
	}
	return parsed
}

func cleanAmountString(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	return cleaned
}
