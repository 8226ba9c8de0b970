package paymentmethods

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/vendorhall/checkout/pkg/config"
	pkgerrors "github.com/vendorhall/checkout/pkg/errors"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the vendor payment configuration service.
type Client struct {
	baseURL string
	http    httpDoer
	breaker *gobreaker.CircuitBreaker[*Settings]
}

// NewClient builds a payment settings client with a circuit breaker around
// the vendor configuration service.
func NewClient(cfg config.VendorServiceConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("vendor service base url required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[*Settings](gobreaker.Settings{
			Name:    "vendor-payment-settings",
			Timeout: 30 * time.Second,
		}),
	}, nil
}

type settingsResponse struct {
	PaymentMethods      []Method `json:"payment_methods"`
	VendorName          string   `json:"vendor_name"`
	BusinessName        string   `json:"business_name"`
	BoothNumber         string   `json:"booth_number"`
	PaymentInstructions string   `json:"payment_instructions"`
}

// FetchSettings loads the accepted payment methods and vendor metadata for a
// vendor. Failures come back as dependency errors; there is no retry here.
func (c *Client) FetchSettings(ctx context.Context, vendorID string) (*Settings, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}

	return c.breaker.Execute(func() (*Settings, error) {
		endpoint := fmt.Sprintf("%s/vendors/%s/payment-settings", c.baseURL, url.PathEscape(vendorID))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build payment settings request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reach vendor payment settings")
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read payment settings response")
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("vendor payment settings returned %d", resp.StatusCode))
		}

		var parsed settingsResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment settings response")
		}

		return &Settings{
			Methods: parsed.PaymentMethods,
			Vendor: VendorInfo{
				VendorName:          parsed.VendorName,
				BusinessName:        parsed.BusinessName,
				BoothNumber:         parsed.BoothNumber,
				PaymentInstructions: parsed.PaymentInstructions,
			},
		}, nil
	})
}
