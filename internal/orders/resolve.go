package orders

import (
	"fmt"
	"math"
	"strings"
)

// Identifier fields checked, in order. The backend contract is inconsistent:
// some deployments return order_id, older ones only order_number.
var orderIDFields = []string{"order_id", "order_number"}

// ResolveOrderID normalizes the order identifier out of a raw order object.
// It is the single place the field-name fallback lives; callers treat a false
// return as an ambiguous success and fail the submission rather than guess.
func ResolveOrderID(order map[string]any) (string, bool) {
	if order == nil {
		return "", false
	}
	for _, field := range orderIDFields {
		value, ok := order[field]
		if !ok {
			continue
		}
		if id := stringifyID(value); id != "" {
			return id, true
		}
	}
	return "", false
}

func stringifyID(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		// JSON numbers decode as float64; identifiers are whole numbers.
		if v != math.Trunc(v) {
			return ""
		}
		return fmt.Sprintf("%.0f", v)
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	default:
		return ""
	}
}
