package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vendorhall/checkout/internal/cart"
	"github.com/vendorhall/checkout/pkg/money"
)

// Quote is the derived pricing view of a cart plus bundle discount. FinalTotal
// is deliberately unclamped: a discount larger than the negotiated total shows
// up as a negative final total here, and submission is where that gets
// rejected.
type Quote struct {
	OriginalTotal   decimal.Decimal `json:"original_total"`
	NegotiatedTotal decimal.Decimal `json:"negotiated_total"`
	BundleDiscount  decimal.Decimal `json:"bundle_discount"`
	FinalTotal      decimal.Decimal `json:"final_total"`
	TotalSavings    decimal.Decimal `json:"total_savings"`
}

// DisplayFinalTotal is the presentation form of FinalTotal, clamped through
// the money utilities so the buyer never sees a negative number.
func (q Quote) DisplayFinalTotal() string {
	return money.FormatCurrency(money.DisplayAmount(q.FinalTotal))
}

// BuildQuote derives totals from the cart and bundle discount. It never
// mutates the cart.
func BuildQuote(items []cart.LineItem, bundleDiscount decimal.Decimal) Quote {
	original := OriginalTotal(items)
	negotiated := NegotiatedTotal(items)
	final := negotiated.Sub(bundleDiscount)
	return Quote{
		OriginalTotal:   original,
		NegotiatedTotal: negotiated,
		BundleDiscount:  bundleDiscount,
		FinalTotal:      final,
		TotalSavings:    original.Sub(final),
	}
}

// OriginalTotal sums asking prices, untouched by negotiated edits.
func OriginalTotal(items []cart.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.AskingPrice)
	}
	return total
}

// NegotiatedTotal sums negotiated prices.
func NegotiatedTotal(items []cart.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.NegotiatedPrice)
	}
	return total
}

// QuickDiscount computes a bundle discount as a percentage of the negotiated
// total at the moment of invocation. The amount is a snapshot, not a live
// formula: later price edits never recompute it.
func QuickDiscount(items []cart.LineItem, percent int64) (decimal.Decimal, string) {
	amount := NegotiatedTotal(items).
		Mul(decimal.NewFromInt(percent)).
		Div(decimal.NewFromInt(100))
	return amount, QuickDiscountReason(percent)
}

// QuickDiscountReason is the human-readable reason recorded for a
// quick-select discount.
func QuickDiscountReason(percent int64) string {
	return fmt.Sprintf("%d%% bundle discount", percent)
}
