package confirmation

import (
	"encoding/json"
	"time"

	"github.com/vendorhall/checkout/internal/paymentmethods"
)

// TransferEnvelope carries everything the confirmation page needs across the
// submit boundary: the raw order payload as the backend returned it, the
// payment method the buyer picked, and the vendor's handoff details. It is
// written exactly once per order and read exactly once.
type TransferEnvelope struct {
	OrderID       string                    `json:"order_id"`
	Order         json.RawMessage           `json:"order"`
	PaymentMethod *paymentmethods.Method    `json:"payment_method,omitempty"`
	Vendor        paymentmethods.VendorInfo `json:"vendor"`
	CreatedAt     time.Time                 `json:"created_at"`
}
