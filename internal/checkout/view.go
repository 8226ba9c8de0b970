package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/vendorhall/checkout/internal/cart"
	"github.com/vendorhall/checkout/internal/paymentmethods"
	"github.com/vendorhall/checkout/internal/pricing"
	"github.com/vendorhall/checkout/pkg/money"
)

// View is the API-facing projection of a session: the cart plus the quote
// derived from it. Totals carry both the exact decimal and a display string
// clamped at zero.
type View struct {
	SessionID      string                 `json:"session_id"`
	VendorID       string                 `json:"vendor_id"`
	Items          []ItemView             `json:"items"`
	BundleDiscount decimal.Decimal        `json:"bundle_discount"`
	DiscountReason string                 `json:"discount_reason,omitempty"`
	SelectedMethod *paymentmethods.Method `json:"selected_method,omitempty"`
	Contact        cart.Contact           `json:"contact"`
	Quote          pricing.Quote          `json:"quote"`
	DisplayTotal   string                 `json:"display_total"`
}

type ItemView struct {
	ItemID          string          `json:"item_id"`
	Name            string          `json:"name"`
	Category        string          `json:"category,omitempty"`
	AskingPrice     decimal.Decimal `json:"asking_price"`
	NegotiatedPrice decimal.Decimal `json:"negotiated_price"`
	Discount        decimal.Decimal `json:"discount"`
	DisplayPrice    string          `json:"display_price"`
}

// NewView derives the projection from a session.
func NewView(session *cart.Session) *View {
	if session == nil {
		return nil
	}
	items := make([]ItemView, 0, len(session.Items))
	for _, item := range session.Items {
		items = append(items, ItemView{
			ItemID:          item.ItemID,
			Name:            item.Name,
			Category:        item.Category,
			AskingPrice:     item.AskingPrice,
			NegotiatedPrice: item.NegotiatedPrice,
			Discount:        item.Discount(),
			DisplayPrice:    money.FormatCurrency(money.DisplayAmount(item.NegotiatedPrice)),
		})
	}
	quote := pricing.BuildQuote(session.Items, session.BundleDiscount)
	return &View{
		SessionID:      session.ID,
		VendorID:       session.VendorID,
		Items:          items,
		BundleDiscount: session.BundleDiscount,
		DiscountReason: session.DiscountReason,
		SelectedMethod: session.SelectedMethod,
		Contact:        session.Contact,
		Quote:          quote,
		DisplayTotal:   quote.DisplayFinalTotal(),
	}
}
