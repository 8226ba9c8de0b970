package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"

	"github.com/vendorhall/checkout/pkg/config"
	pkgerrors "github.com/vendorhall/checkout/pkg/errors"
)

// User-facing failure messages for the submission flow.
const (
	MsgConnectionFailed = "Connection failed. Please try again."
	MsgCreateFailed     = "Unable to create order. Please try again."
)

// OrderItem is one line of the guest order payload. FinalPrice is the
// effective price: the negotiated price, falling back to asking.
type OrderItem struct {
	ItemID      string          `json:"item_id"`
	Name        string          `json:"name"`
	Category    string          `json:"category,omitempty"`
	AskingPrice decimal.Decimal `json:"asking_price"`
	FinalPrice  decimal.Decimal `json:"final_price"`
}

// CreateOrderInput is the guest order payload sent to the order creation
// service. No auth header goes with it.
type CreateOrderInput struct {
	VendorID         string          `json:"vendor_id"`
	Items            []OrderItem     `json:"items"`
	BundleDiscount   decimal.Decimal `json:"bundle_discount"`
	DiscountReason   string          `json:"discount_reason"`
	PaymentMethod    string          `json:"payment_method"`
	CustomerName     string          `json:"customer_name,omitempty"`
	CustomerEmail    string          `json:"customer_email,omitempty"`
	CustomerPhone    string          `json:"customer_phone,omitempty"`
	IdempotencyToken string          `json:"idempotency_token"`
}

// CreateOrderResult is the classified 2xx response. Success mirrors the
// server's success flag; Order is the raw order object for identifier
// resolution; Raw is the untouched payload carried into the transfer
// envelope.
type CreateOrderResult struct {
	Success bool
	Order   map[string]any
	Raw     json.RawMessage
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the guest order creation service.
type Client struct {
	baseURL string
	http    httpDoer
	breaker *gobreaker.CircuitBreaker[*CreateOrderResult]
}

// NewClient builds an order creation client with a circuit breaker.
func NewClient(cfg config.OrderServiceConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("order service base url required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[*CreateOrderResult](gobreaker.Settings{
			Name:    "guest-order-creation",
			Timeout: 30 * time.Second,
		}),
	}, nil
}

type createOrderResponse struct {
	Success bool           `json:"success"`
	Order   map[string]any `json:"order"`
	Error   string         `json:"error"`
}

// CreateGuestOrder issues exactly one create request and classifies the
// response. Transport failures and service rejections come back as dependency
// errors with user-facing messages; a 2xx response is returned for the caller
// to resolve an identifier from.
func (c *Client) CreateGuestOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	return c.breaker.Execute(func() (*CreateOrderResult, error) {
		body, err := json.Marshal(input)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order payload")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/guest-orders", bytes.NewReader(body))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build order request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, MsgConnectionFailed)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, MsgConnectionFailed)
		}

		var parsed createOrderResponse
		// A malformed body is treated the same as a missing success flag.
		_ = json.Unmarshal(raw, &parsed)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			message := strings.TrimSpace(parsed.Error)
			if message == "" {
				message = MsgCreateFailed
			}
			return nil, pkgerrors.New(pkgerrors.CodeDependency, message)
		}

		return &CreateOrderResult{
			Success: parsed.Success,
			Order:   parsed.Order,
			Raw:     json.RawMessage(raw),
		}, nil
	})
}
