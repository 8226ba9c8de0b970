package paymentmethods

import (
	"context"
	"strings"

	pkgerrors "github.com/vendorhall/checkout/pkg/errors"
)

// SettingsFetcher is the client-side surface this service consumes.
type SettingsFetcher interface {
	FetchSettings(ctx context.Context, vendorID string) (*Settings, error)
}

// Service loads and exposes the payment method directory for a vendor.
type Service interface {
	Load(ctx context.Context, vendorID string) (*Settings, error)
	Resolve(ctx context.Context, vendorID, methodType string) (Method, *Settings, error)
}

type service struct {
	fetcher SettingsFetcher
}

// NewService builds the payment method directory service.
func NewService(fetcher SettingsFetcher) (Service, error) {
	if fetcher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settings fetcher required")
	}
	return &service{fetcher: fetcher}, nil
}

// Load fetches the vendor's directory. An empty method list is a valid state
// (the vendor hasn't configured payment methods yet); fetch failures surface
// as-is and the caller gets no list to select from.
func (s *service) Load(ctx context.Context, vendorID string) (*Settings, error) {
	settings, err := s.fetcher.FetchSettings(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = &Settings{}
	}
	if settings.Methods == nil {
		settings.Methods = []Method{}
	}
	return settings, nil
}

// Resolve validates a selection against the vendor's current directory and
// returns the full method record for it.
func (s *service) Resolve(ctx context.Context, vendorID, methodType string) (Method, *Settings, error) {
	if strings.TrimSpace(methodType) == "" {
		return Method{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "Please select a payment method")
	}
	settings, err := s.Load(ctx, vendorID)
	if err != nil {
		return Method{}, nil, err
	}
	method, ok := settings.FindByType(methodType)
	if !ok {
		return Method{}, settings, pkgerrors.New(pkgerrors.CodeValidation, "selected payment method is not offered by this vendor")
	}
	return method, settings, nil
}
