package submission

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vendorhall/checkout/internal/cart"
	"github.com/vendorhall/checkout/internal/confirmation"
	"github.com/vendorhall/checkout/internal/orders"
	"github.com/vendorhall/checkout/internal/paymentmethods"
	pkgerrors "github.com/vendorhall/checkout/pkg/errors"
	"github.com/vendorhall/checkout/pkg/logger"
)

type fixture struct {
	svc      Service
	sessions *stubSessions
	creator  *stubCreator
	handoff  *stubHandoff
	locks    *stubLocks
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sessions: &stubSessions{data: map[string]*cart.Session{}},
		creator:  &stubCreator{},
		handoff:  &stubHandoff{},
		locks:    &stubLocks{held: map[string]bool{}},
	}
	directory := &stubDirectory{settings: &paymentmethods.Settings{
		Methods: []paymentmethods.Method{{Type: "venmo", Label: "Venmo", Handle: "@booth-12"}},
		Vendor:  paymentmethods.VendorInfo{VendorName: "Rosa", BoothNumber: "12"},
	}}
	svc, err := NewService(f.sessions, directory, f.creator, f.handoff, f.locks, nil, testLogger(), time.Minute)
	if err != nil {
		t.Fatalf("setup error: %v", err)
	}
	f.svc = svc
	return f
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: discard{}})
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func dec(raw string) decimal.Decimal {
	return decimal.RequireFromString(raw)
}

func readySession(t *testing.T) *cart.Session {
	t.Helper()
	session, err := cart.NewSession("vendor-1", []cart.ItemSnapshot{
		{ItemID: "1", Name: "Lamp", AskingPrice: dec("100")},
		{ItemID: "2", Name: "Rug", AskingPrice: dec("50")},
	})
	if err != nil {
		t.Fatalf("setup error: %v", err)
	}
	session.SelectMethod(paymentmethods.Method{Type: "venmo", Label: "Venmo", Handle: "@booth-12"})
	return session
}

func (f *fixture) seed(session *cart.Session) {
	f.sessions.data[session.ID] = session
}

func TestSubmitSuccessResolvesOrderNumber(t *testing.T) {
	f := newFixture(t)
	session := readySession(t)
	session.SetPrice("1", "80")
	session.SetDiscount(dec("13"), "10% bundle discount")
	token := session.IdempotencyToken
	f.seed(session)
	f.creator.respond(`{"success":true,"order":{"order_number":"A-42"}}`)

	result, err := f.svc.Submit(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.OrderID != "A-42" {
		t.Fatalf("unexpected order id %q", result.OrderID)
	}
	if result.ConfirmationPath != "/checkout/confirmation/A-42" {
		t.Fatalf("unexpected path %q", result.ConfirmationPath)
	}
	if !result.FinalTotal.Equal(dec("117")) {
		t.Fatalf("unexpected final total %s", result.FinalTotal)
	}
	if f.handoff.writes != 1 {
		t.Fatalf("expected exactly one envelope write, got %d", f.handoff.writes)
	}
	if f.creator.input.IdempotencyToken != token {
		t.Fatal("order payload carried the wrong idempotency token")
	}
	if f.creator.input.BundleDiscount.String() != "13" || f.creator.input.DiscountReason != "10% bundle discount" {
		t.Fatalf("discount lost: %+v", f.creator.input)
	}
	if _, ok := f.sessions.data[session.ID]; ok {
		t.Fatal("session must be cleared after success")
	}
	if !f.locks.released {
		t.Fatal("submit lock must be released")
	}
}

func TestSubmitAmbiguousSuccessWritesNothing(t *testing.T) {
	f := newFixture(t)
	session := readySession(t)
	token := session.IdempotencyToken
	f.seed(session)
	f.creator.respond(`{"success":true,"order":{}}`)

	_, err := f.svc.Submit(context.Background(), session.ID)
	if err == nil {
		t.Fatal("expected error")
	}
	if pkgerrors.As(err).Message() != MsgAmbiguousOrder {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
	if f.handoff.writes != 0 {
		t.Fatalf("expected zero envelope writes, got %d", f.handoff.writes)
	}
	kept, ok := f.sessions.data[session.ID]
	if !ok {
		t.Fatal("session must survive an ambiguous success")
	}
	if kept.IdempotencyToken != token {
		t.Fatal("idempotency token must not rotate on ambiguous success")
	}
}

func TestSubmitServerRejection(t *testing.T) {
	f := newFixture(t)
	session := readySession(t)
	f.seed(session)
	f.creator.respond(`{"success":false}`)

	_, err := f.svc.Submit(context.Background(), session.ID)
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if f.handoff.writes != 0 {
		t.Fatal("no envelope on rejection")
	}
	if _, ok := f.sessions.data[session.ID]; !ok {
		t.Fatal("session must survive a rejection")
	}
}

func TestSubmitTransportFailureKeepsToken(t *testing.T) {
	f := newFixture(t)
	session := readySession(t)
	token := session.IdempotencyToken
	f.seed(session)
	f.creator.fail(pkgerrors.New(pkgerrors.CodeDependency, orders.MsgConnectionFailed))

	_, err := f.svc.Submit(context.Background(), session.ID)
	if pkgerrors.As(err).Message() != orders.MsgConnectionFailed {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
	if f.sessions.data[session.ID].IdempotencyToken != token {
		t.Fatal("token must be stable across transport failures")
	}
}

func TestSubmitValidationBeforeNetwork(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*cart.Session)
		message string
	}{
		{
			name:    "empty cart",
			mutate:  func(s *cart.Session) { s.Load(nil) },
			message: MsgEmptyCart,
		},
		{
			name:    "no payment method",
			mutate:  func(s *cart.Session) { s.SelectedMethod = nil },
			message: MsgNoPaymentMethod,
		},
		{
			name:    "discount exceeds total",
			mutate:  func(s *cart.Session) { s.SetDiscount(dec("200"), "") },
			message: MsgDiscountTooLarge,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			session := readySession(t)
			tc.mutate(session)
			f.seed(session)

			_, err := f.svc.Submit(context.Background(), session.ID)
			appErr := pkgerrors.As(err)
			if appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if appErr.Message() != tc.message {
				t.Fatalf("unexpected message %q", appErr.Message())
			}
			if f.creator.calls != 0 {
				t.Fatal("validation failures must not reach the network")
			}
		})
	}
}

func TestSubmitLockBlocksConcurrentAttempt(t *testing.T) {
	f := newFixture(t)
	session := readySession(t)
	f.seed(session)
	f.locks.held[f.locks.SubmitLockKey(session.ID)] = true

	_, err := f.svc.Submit(context.Background(), session.ID)
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if f.creator.calls != 0 {
		t.Fatal("locked submission must not create an order")
	}
}

func TestSubmitUnknownSessionIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), "nope")
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSubmitDefaultsDiscountReason(t *testing.T) {
	f := newFixture(t)
	session := readySession(t)
	session.SetDiscount(dec("10"), "")
	f.seed(session)
	f.creator.respond(`{"success":true,"order":{"order_id":"ord-9"}}`)

	if _, err := f.svc.Submit(context.Background(), session.ID); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if f.creator.input.DiscountReason != defaultDiscountReason {
		t.Fatalf("unexpected reason %q", f.creator.input.DiscountReason)
	}
}

func TestSubmitReplayAfterPartialSuccess(t *testing.T) {
	f := newFixture(t)
	session := readySession(t)
	f.seed(session)
	f.creator.respond(`{"success":true,"order":{"order_id":"ord-9"}}`)
	f.handoff.err = pkgerrors.New(pkgerrors.CodeStateConflict, "confirmation already recorded for this order")

	result, err := f.svc.Submit(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("replay must succeed: %v", err)
	}
	if result.ConfirmationPath != "/checkout/confirmation/ord-9" {
		t.Fatalf("unexpected path %q", result.ConfirmationPath)
	}
	if f.handoff.writes != 0 {
		t.Fatal("no second envelope write on replay")
	}
}

type stubSessions struct {
	data map[string]*cart.Session
}

func (s *stubSessions) Find(ctx context.Context, sessionID string) (*cart.Session, error) {
	session, ok := s.data[sessionID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}
	copied := *session
	return &copied, nil
}

func (s *stubSessions) Save(ctx context.Context, session *cart.Session) error {
	copied := *session
	s.data[session.ID] = &copied
	return nil
}

func (s *stubSessions) Delete(ctx context.Context, sessionID string) error {
	delete(s.data, sessionID)
	return nil
}

type stubDirectory struct {
	settings *paymentmethods.Settings
}

func (s *stubDirectory) Load(ctx context.Context, vendorID string) (*paymentmethods.Settings, error) {
	return s.settings, nil
}

type stubCreator struct {
	raw   string
	err   error
	calls int
	input orders.CreateOrderInput
}

func (s *stubCreator) respond(raw string) { s.raw = raw }
func (s *stubCreator) fail(err error)     { s.err = err }

func (s *stubCreator) CreateGuestOrder(ctx context.Context, input orders.CreateOrderInput) (*orders.CreateOrderResult, error) {
	s.calls++
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	var parsed struct {
		Success bool           `json:"success"`
		Order   map[string]any `json:"order"`
	}
	_ = json.Unmarshal([]byte(s.raw), &parsed)
	return &orders.CreateOrderResult{
		Success: parsed.Success,
		Order:   parsed.Order,
		Raw:     json.RawMessage(s.raw),
	}, nil
}

type stubHandoff struct {
	writes int
	err    error
	last   confirmation.TransferEnvelope
}

func (s *stubHandoff) Handoff(ctx context.Context, envelope confirmation.TransferEnvelope) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.writes++
	s.last = envelope
	return "/checkout/confirmation/" + envelope.OrderID, nil
}

type stubLocks struct {
	held     map[string]bool
	released bool
}

func (s *stubLocks) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.held[key] {
		return false, nil
	}
	s.held[key] = true
	return true, nil
}

func (s *stubLocks) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.held, key)
	}
	s.released = true
	return nil
}

func (s *stubLocks) SubmitLockKey(sessionID string) string {
	return "test:submit_lock:" + sessionID
}
