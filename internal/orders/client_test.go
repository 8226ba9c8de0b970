package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vendorhall/checkout/pkg/config"
	pkgerrors "github.com/vendorhall/checkout/pkg/errors"
)

func testInput() CreateOrderInput {
	return CreateOrderInput{
		VendorID: "vendor-1",
		Items: []OrderItem{
			{ItemID: "1", Name: "Lamp", AskingPrice: decimal.RequireFromString("100"), FinalPrice: decimal.RequireFromString("80")},
		},
		BundleDiscount:   decimal.RequireFromString("8"),
		DiscountReason:   "10% bundle discount",
		PaymentMethod:    "venmo",
		IdempotencyToken: "tok-1",
	}
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(config.OrderServiceConfig{BaseURL: baseURL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("setup error: %v", err)
	}
	return client
}

func TestCreateGuestOrderSuccess(t *testing.T) {
	var gotPath string
	var gotBody CreateOrderInput
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"order":{"order_number":"A-42"}}`))
	}))
	defer server.Close()

	result, err := newTestClient(t, server.URL).CreateGuestOrder(context.Background(), testInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/guest-orders" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotBody.IdempotencyToken != "tok-1" || gotBody.PaymentMethod != "venmo" {
		t.Fatalf("payload fields lost: %+v", gotBody)
	}
	if !result.Success {
		t.Fatal("expected success flag")
	}
	if id, ok := ResolveOrderID(result.Order); !ok || id != "A-42" {
		t.Fatalf("identifier not resolvable from %v", result.Order)
	}
}

func TestCreateGuestOrderSuccessWithoutIdentifier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"order":{}}`))
	}))
	defer server.Close()

	result, err := newTestClient(t, server.URL).CreateGuestOrder(context.Background(), testInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success flag")
	}
	if _, ok := ResolveOrderID(result.Order); ok {
		t.Fatal("expected no resolvable identifier")
	}
}

func TestCreateGuestOrderServerRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"vendor is not accepting orders"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).CreateGuestOrder(context.Background(), testInput())
	if err == nil {
		t.Fatal("expected error")
	}
	appErr := pkgerrors.As(err)
	if appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", appErr.Code())
	}
	if appErr.Message() != "vendor is not accepting orders" {
		t.Fatalf("server message lost: %q", appErr.Message())
	}
}

func TestCreateGuestOrderServerErrorWithoutMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).CreateGuestOrder(context.Background(), testInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if pkgerrors.As(err).Message() != MsgCreateFailed {
		t.Fatalf("expected fallback message, got %q", pkgerrors.As(err).Message())
	}
}

func TestCreateGuestOrderTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := newTestClient(t, server.URL).CreateGuestOrder(context.Background(), testInput())
	if err == nil {
		t.Fatal("expected error")
	}
	appErr := pkgerrors.As(err)
	if appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", appErr.Code())
	}
	if appErr.Message() != MsgConnectionFailed {
		t.Fatalf("expected connection message, got %q", appErr.Message())
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(config.OrderServiceConfig{}); err == nil {
		t.Fatal("expected error")
	}
}
