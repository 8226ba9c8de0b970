package cart

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendorhall/checkout/internal/paymentmethods"
	pkgerrors "github.com/vendorhall/checkout/pkg/errors"
	"github.com/vendorhall/checkout/pkg/money"
)

// LineItem is one cart entry. AskingPrice is set by the seller and immutable
// once the cart is loaded; NegotiatedPrice starts at the asking price and is
// the only buyer-editable number.
type LineItem struct {
	ItemID          string          `json:"item_id"`
	Name            string          `json:"name"`
	Category        string          `json:"category,omitempty"`
	AskingPrice     decimal.Decimal `json:"asking_price"`
	NegotiatedPrice decimal.Decimal `json:"negotiated_price"`
	Attributes      map[string]any  `json:"attributes,omitempty"`
}

// Discount is the per-item delta against the asking price. Negative means the
// buyer agreed to pay above asking, which is allowed.
func (li LineItem) Discount() decimal.Decimal {
	return li.AskingPrice.Sub(li.NegotiatedPrice)
}

// ItemSnapshot is the externally supplied form of a line item. The negotiated
// price is optional and defaults to the asking price.
type ItemSnapshot struct {
	ItemID          string           `json:"item_id"`
	Name            string           `json:"name"`
	Category        string           `json:"category,omitempty"`
	AskingPrice     decimal.Decimal  `json:"asking_price"`
	NegotiatedPrice *decimal.Decimal `json:"negotiated_price,omitempty"`
	Attributes      map[string]any   `json:"attributes,omitempty"`
}

// Contact is optional buyer contact info, passed through verbatim.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Session is one guest checkout session: the cart, the negotiated state and
// the single selected payment method. It is the unit persisted for cart
// continuity and cleared on successful submission.
type Session struct {
	ID               string                 `json:"id"`
	VendorID         string                 `json:"vendor_id"`
	Items            []LineItem             `json:"items"`
	BundleDiscount   decimal.Decimal        `json:"bundle_discount"`
	DiscountReason   string                 `json:"discount_reason,omitempty"`
	SelectedMethod   *paymentmethods.Method `json:"selected_method,omitempty"`
	Contact          Contact                `json:"contact"`
	IdempotencyToken string                 `json:"idempotency_token"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// NewSession builds a session from a cart snapshot. Items are deduplicated by
// id (first occurrence wins) and negotiated prices default to asking prices.
// An empty snapshot is a valid session, not an error.
func NewSession(vendorID string, snapshot []ItemSnapshot) (*Session, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}

	now := time.Now().UTC()
	session := &Session{
		ID:               uuid.NewString(),
		VendorID:         vendorID,
		Items:            make([]LineItem, 0, len(snapshot)),
		BundleDiscount:   decimal.Zero,
		IdempotencyToken: uuid.NewString(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	session.Load(snapshot)
	return session, nil
}

// Load replaces the cart with a snapshot.
func (s *Session) Load(snapshot []ItemSnapshot) {
	seen := make(map[string]struct{}, len(snapshot))
	items := make([]LineItem, 0, len(snapshot))
	for _, item := range snapshot {
		id := strings.TrimSpace(item.ItemID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		asking := item.AskingPrice
		if asking.IsNegative() {
			asking = decimal.Zero
		}
		negotiated := asking
		if item.NegotiatedPrice != nil && !item.NegotiatedPrice.IsNegative() {
			negotiated = *item.NegotiatedPrice
		}
		items = append(items, LineItem{
			ItemID:          id,
			Name:            item.Name,
			Category:        item.Category,
			AskingPrice:     asking,
			NegotiatedPrice: negotiated,
			Attributes:      item.Attributes,
		})
	}
	s.Items = items
	s.touch()
}

// SetPrice updates an item's negotiated price from raw input. Unparseable or
// negative values leave the item at its last good value; the edit is silently
// ignored. Returns whether the price changed.
func (s *Session) SetPrice(itemID string, raw any) bool {
	parsed, ok := money.ParseAmount(raw)
	if !ok || parsed.IsNegative() {
		return false
	}
	for i := range s.Items {
		if s.Items[i].ItemID != itemID {
			continue
		}
		if s.Items[i].NegotiatedPrice.Equal(parsed) {
			return false
		}
		s.Items[i].NegotiatedPrice = parsed
		s.touch()
		return true
	}
	return false
}

// Remove deletes an item. Removing an absent id is a no-op.
func (s *Session) Remove(itemID string) {
	for i := range s.Items {
		if s.Items[i].ItemID == itemID {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			s.touch()
			return
		}
	}
}

// Find returns the item with the given id.
func (s *Session) Find(itemID string) (LineItem, bool) {
	for _, item := range s.Items {
		if item.ItemID == itemID {
			return item, true
		}
	}
	return LineItem{}, false
}

// IsEmpty reports whether the cart holds no items. An empty cart is a valid,
// displayable terminal state.
func (s *Session) IsEmpty() bool {
	return len(s.Items) == 0
}

// SetDiscount applies an absolute bundle discount with an optional reason.
func (s *Session) SetDiscount(amount decimal.Decimal, reason string) error {
	if amount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "bundle discount cannot be negative")
	}
	s.BundleDiscount = amount
	s.DiscountReason = strings.TrimSpace(reason)
	s.touch()
	return nil
}

// SelectMethod records the single selected payment method, replacing any
// prior selection.
func (s *Session) SelectMethod(method paymentmethods.Method) {
	chosen := method
	s.SelectedMethod = &chosen
	s.touch()
}

// SetContact stores optional buyer contact info verbatim.
func (s *Session) SetContact(contact Contact) {
	s.Contact = contact
	s.touch()
}

// RotateToken mints a fresh idempotency token. Called after a successful
// submission so a future checkout in the same session cannot collide with the
// completed order.
func (s *Session) RotateToken() {
	s.IdempotencyToken = uuid.NewString()
	s.touch()
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}
