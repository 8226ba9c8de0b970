package submission

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vendorhall/checkout/internal/cart"
	"github.com/vendorhall/checkout/internal/confirmation"
	"github.com/vendorhall/checkout/internal/orders"
	"github.com/vendorhall/checkout/internal/paymentmethods"
	"github.com/vendorhall/checkout/internal/pricing"
	pkgerrors "github.com/vendorhall/checkout/pkg/errors"
	"github.com/vendorhall/checkout/pkg/logger"
	"github.com/vendorhall/checkout/pkg/metrics"
)

const defaultLockTTL = 30 * time.Second

// User-facing validation messages for the submit flow.
const (
	MsgEmptyCart        = "Your cart is empty"
	MsgNoPaymentMethod  = "Please select a payment method"
	MsgDiscountTooLarge = "Bundle discount exceeds the order total"
	MsgSubmitInFlight   = "A submission is already in progress for this session"
	MsgAmbiguousOrder   = "We could not confirm your order. Please check with the vendor before trying again."
)

const defaultDiscountReason = "Bundle discount"

const (
	outcomeSuccess       = "success"
	outcomeValidation    = "validation_failed"
	outcomeLocked        = "locked"
	outcomeOrderFailed   = "order_failed"
	outcomeRejected      = "rejected"
	outcomeAmbiguous     = "ambiguous"
	outcomeHandoffFailed = "handoff_failed"
)

// Result is what a successful submission hands back: the resolved order
// identifier and the confirmation path the buyer should be sent to.
type Result struct {
	OrderID          string          `json:"order_id"`
	ConfirmationPath string          `json:"confirmation_path"`
	FinalTotal       decimal.Decimal `json:"final_total"`
}

// Service runs the order submission protocol end to end.
type Service interface {
	Submit(ctx context.Context, sessionID string) (*Result, error)
}

type sessionRepository interface {
	Find(ctx context.Context, sessionID string) (*cart.Session, error)
	Save(ctx context.Context, session *cart.Session) error
	Delete(ctx context.Context, sessionID string) error
}

type orderCreator interface {
	CreateGuestOrder(ctx context.Context, input orders.CreateOrderInput) (*orders.CreateOrderResult, error)
}

type settingsLoader interface {
	Load(ctx context.Context, vendorID string) (*paymentmethods.Settings, error)
}

type envelopeWriter interface {
	Handoff(ctx context.Context, envelope confirmation.TransferEnvelope) (string, error)
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	SubmitLockKey(sessionID string) string
}

type service struct {
	sessions  sessionRepository
	directory settingsLoader
	creator   orderCreator
	handoff   envelopeWriter
	locks     lockStore
	checkout  *metrics.CheckoutMetrics
	logg      *logger.Logger
	lockTTL   time.Duration
}

// NewService wires the submission protocol. Metrics may be nil.
func NewService(
	sessions sessionRepository,
	directory settingsLoader,
	creator orderCreator,
	handoff envelopeWriter,
	locks lockStore,
	checkout *metrics.CheckoutMetrics,
	logg *logger.Logger,
	lockTTL time.Duration,
) (Service, error) {
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "submission: session repository required")
	}
	if directory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "submission: settings loader required")
	}
	if creator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "submission: order creator required")
	}
	if handoff == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "submission: envelope writer required")
	}
	if locks == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "submission: lock store required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "submission: logger required")
	}
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &service{
		sessions:  sessions,
		directory: directory,
		creator:   creator,
		handoff:   handoff,
		locks:     locks,
		checkout:  checkout,
		logg:      logg,
		lockTTL:   lockTTL,
	}, nil
}

// Submit validates the session, serializes the attempt under a lock, creates
// the guest order and, only once an order identifier is in hand, writes the
// confirmation envelope and clears the session. A success response without a
// resolvable identifier is treated as a failure: no envelope is written and
// the session's idempotency token is preserved so a retry reaches the backend
// with the same token.
func (s *service) Submit(ctx context.Context, sessionID string) (*Result, error) {
	start := time.Now()
	observe := func(outcome string) {
		s.checkout.ObserveSubmission(outcome, time.Since(start))
	}

	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithSessionID(ctx, session.ID)
	ctx = s.logg.WithVendorID(ctx, session.VendorID)

	quote := pricing.BuildQuote(session.Items, session.BundleDiscount)
	if err := validate(session, quote); err != nil {
		observe(outcomeValidation)
		return nil, err
	}

	lockKey := s.locks.SubmitLockKey(session.ID)
	held, err := s.locks.SetNX(ctx, lockKey, session.IdempotencyToken, s.lockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire submit lock")
	}
	if !held {
		observe(outcomeLocked)
		return nil, pkgerrors.New(pkgerrors.CodeConflict, MsgSubmitInFlight)
	}
	defer func() {
		if err := s.locks.Del(ctx, lockKey); err != nil {
			s.logg.Warn(ctx, "failed to release submit lock")
		}
	}()

	settings, err := s.directory.Load(ctx, session.VendorID)
	if err != nil {
		observe(outcomeOrderFailed)
		return nil, err
	}

	result, err := s.creator.CreateGuestOrder(ctx, buildInput(session, quote))
	if err != nil {
		observe(outcomeOrderFailed)
		return nil, err
	}
	if !result.Success {
		observe(outcomeRejected)
		return nil, pkgerrors.New(pkgerrors.CodeDependency, orders.MsgCreateFailed)
	}

	orderID, ok := orders.ResolveOrderID(result.Order)
	if !ok {
		observe(outcomeAmbiguous)
		s.logg.Warn(ctx, "order creation reported success without a resolvable identifier")
		return nil, pkgerrors.New(pkgerrors.CodeDependency, MsgAmbiguousOrder)
	}
	ctx = s.logg.WithOrderID(ctx, orderID)

	path, err := s.handoff.Handoff(ctx, confirmation.TransferEnvelope{
		OrderID:       orderID,
		Order:         result.Raw,
		PaymentMethod: session.SelectedMethod,
		Vendor:        settings.Vendor,
	})
	if err != nil {
		// A retry after a partial success lands here: the backend deduped the
		// order via the idempotency token and the envelope already exists.
		if pkgerrors.As(err).Code() == pkgerrors.CodeStateConflict {
			path = "/checkout/confirmation/" + orderID
		} else {
			observe(outcomeHandoffFailed)
			s.logg.Error(ctx, "confirmation handoff failed", err)
			return nil, err
		}
	} else {
		s.checkout.IncHandoff()
	}

	session.RotateToken()
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		s.logg.Warn(ctx, "failed to clear session after submission")
		if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
			s.logg.Warn(ctx, "failed to rotate idempotency token on surviving session")
		}
	}

	observe(outcomeSuccess)
	s.logg.Info(ctx, "guest order submitted")
	return &Result{
		OrderID:          orderID,
		ConfirmationPath: path,
		FinalTotal:       quote.FinalTotal,
	}, nil
}

// validate runs the pre-flight checks. No network call happens until all of
// them pass.
func validate(session *cart.Session, quote pricing.Quote) error {
	if session.IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeValidation, MsgEmptyCart)
	}
	if session.SelectedMethod == nil || session.SelectedMethod.Type == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, MsgNoPaymentMethod)
	}
	if quote.FinalTotal.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, MsgDiscountTooLarge)
	}
	return nil
}

func buildInput(session *cart.Session, quote pricing.Quote) orders.CreateOrderInput {
	items := make([]orders.OrderItem, 0, len(session.Items))
	for _, item := range session.Items {
		items = append(items, orders.OrderItem{
			ItemID:      item.ItemID,
			Name:        item.Name,
			Category:    item.Category,
			AskingPrice: item.AskingPrice,
			FinalPrice:  item.NegotiatedPrice,
		})
	}

	reason := session.DiscountReason
	if reason == "" && quote.BundleDiscount.IsPositive() {
		reason = defaultDiscountReason
	}

	return orders.CreateOrderInput{
		VendorID:         session.VendorID,
		Items:            items,
		BundleDiscount:   quote.BundleDiscount,
		DiscountReason:   reason,
		PaymentMethod:    session.SelectedMethod.Type,
		CustomerName:     session.Contact.Name,
		CustomerEmail:    session.Contact.Email,
		CustomerPhone:    session.Contact.Phone,
		IdempotencyToken: session.IdempotencyToken,
	}
}
