package checkout

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vendorhall/checkout/internal/cart"
	"github.com/vendorhall/checkout/internal/paymentmethods"
	"github.com/vendorhall/checkout/internal/pricing"
	pkgerrors "github.com/vendorhall/checkout/pkg/errors"
	"github.com/vendorhall/checkout/pkg/logger"
)

// Service orchestrates a guest checkout session: cart edits, discounts and
// payment method selection, with a fresh quote derived on every change.
type Service interface {
	Start(ctx context.Context, vendorID string, items []cart.ItemSnapshot) (*View, error)
	Get(ctx context.Context, sessionID string) (*View, error)
	SetItemPrice(ctx context.Context, sessionID, itemID string, raw any) (*View, error)
	RemoveItem(ctx context.Context, sessionID, itemID string) (*View, error)
	SetDiscount(ctx context.Context, sessionID string, amount decimal.Decimal, reason string) (*View, error)
	QuickDiscount(ctx context.Context, sessionID string, percent int64) (*View, error)
	Methods(ctx context.Context, sessionID string) (*paymentmethods.Settings, error)
	SelectPaymentMethod(ctx context.Context, sessionID, methodType string) (*View, error)
	SetContact(ctx context.Context, sessionID string, contact cart.Contact) (*View, error)
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	sessions  cart.Repository
	directory paymentmethods.Service
	logg      *logger.Logger
}

// NewService wires the checkout session service.
func NewService(sessions cart.Repository, directory paymentmethods.Service, logg *logger.Logger) (Service, error) {
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout: session repository required")
	}
	if directory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout: payment method directory required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout: logger required")
	}
	return &service{sessions: sessions, directory: directory, logg: logg}, nil
}

func (s *service) Start(ctx context.Context, vendorID string, items []cart.ItemSnapshot) (*View, error) {
	session, err := cart.NewSession(vendorID, items)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	ctx = s.logg.WithSessionID(ctx, session.ID)
	s.logg.Info(ctx, "checkout session started")
	return NewView(session), nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*View, error) {
	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return NewView(session), nil
}

// SetItemPrice applies a negotiated price edit. Unparseable or negative input
// leaves the item at its last good value and still returns the current view.
func (s *service) SetItemPrice(ctx context.Context, sessionID, itemID string, raw any) (*View, error) {
	return s.mutate(ctx, sessionID, func(session *cart.Session) (bool, error) {
		if _, ok := session.Find(itemID); !ok {
			return false, pkgerrors.New(pkgerrors.CodeNotFound, "item not found in cart")
		}
		return session.SetPrice(itemID, raw), nil
	})
}

func (s *service) RemoveItem(ctx context.Context, sessionID, itemID string) (*View, error) {
	return s.mutate(ctx, sessionID, func(session *cart.Session) (bool, error) {
		session.Remove(itemID)
		return true, nil
	})
}

func (s *service) SetDiscount(ctx context.Context, sessionID string, amount decimal.Decimal, reason string) (*View, error) {
	return s.mutate(ctx, sessionID, func(session *cart.Session) (bool, error) {
		if err := session.SetDiscount(amount, reason); err != nil {
			return false, err
		}
		return true, nil
	})
}

// QuickDiscount snapshots a percentage of the current negotiated total as an
// absolute discount. Later price edits do not recompute it.
func (s *service) QuickDiscount(ctx context.Context, sessionID string, percent int64) (*View, error) {
	if percent < 1 || percent > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 1 and 100")
	}
	return s.mutate(ctx, sessionID, func(session *cart.Session) (bool, error) {
		amount, reason := pricing.QuickDiscount(session.Items, percent)
		if err := session.SetDiscount(amount, reason); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (s *service) Methods(ctx context.Context, sessionID string) (*paymentmethods.Settings, error) {
	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.directory.Load(ctx, session.VendorID)
}

func (s *service) SelectPaymentMethod(ctx context.Context, sessionID, methodType string) (*View, error) {
	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	method, _, err := s.directory.Resolve(ctx, session.VendorID, methodType)
	if err != nil {
		return nil, err
	}
	session.SelectMethod(method)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return NewView(session), nil
}

func (s *service) SetContact(ctx context.Context, sessionID string, contact cart.Contact) (*View, error) {
	return s.mutate(ctx, sessionID, func(session *cart.Session) (bool, error) {
		session.SetContact(contact)
		return true, nil
	})
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// mutate loads, applies and persists a session change, skipping the write
// when the change was a no-op.
func (s *service) mutate(ctx context.Context, sessionID string, apply func(*cart.Session) (bool, error)) (*View, error) {
	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	changed, err := apply(session)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.sessions.Save(ctx, session); err != nil {
			return nil, err
		}
	}
	return NewView(session), nil
}
