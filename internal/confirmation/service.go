package confirmation

import (
	"context"
	"encoding/json"
	"time"

	pkgerrors "github.com/vendorhall/checkout/pkg/errors"
	"github.com/vendorhall/checkout/pkg/redis"
)

const defaultEnvelopeTTL = 24 * time.Hour

type envelopeStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	GetDel(ctx context.Context, key string) (string, error)
	EnvelopeKey(orderID string) string
}

// Service hands confirmation envelopes across the submit boundary. Handoff
// writes an envelope exactly once per order; Consume destroys it on first
// read so a refresh of the confirmation page cannot replay it.
type Service interface {
	Handoff(ctx context.Context, envelope TransferEnvelope) (string, error)
	Consume(ctx context.Context, orderID string) (*TransferEnvelope, error)
}

type service struct {
	store envelopeStore
	ttl   time.Duration
}

// NewService builds the confirmation handoff service.
func NewService(store envelopeStore, ttl time.Duration) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "confirmation: store is required")
	}
	if ttl <= 0 {
		ttl = defaultEnvelopeTTL
	}
	return &service{store: store, ttl: ttl}, nil
}

// Handoff stores the envelope under its order identifier and returns the
// confirmation path the buyer should be sent to. A second write for the same
// order is a state conflict, never a silent overwrite.
func (s *service) Handoff(ctx context.Context, envelope TransferEnvelope) (string, error) {
	if envelope.OrderID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if envelope.CreatedAt.IsZero() {
		envelope.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode confirmation envelope")
	}

	stored, err := s.store.SetNX(ctx, s.store.EnvelopeKey(envelope.OrderID), string(payload), s.ttl)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store confirmation envelope")
	}
	if !stored {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "confirmation already recorded for this order")
	}
	return "/checkout/confirmation/" + envelope.OrderID, nil
}

// Consume atomically reads and deletes the envelope. The second call for the
// same order returns not found.
func (s *service) Consume(ctx context.Context, orderID string) (*TransferEnvelope, error) {
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	payload, err := s.store.GetDel(ctx, s.store.EnvelopeKey(orderID))
	if err != nil {
		if redis.IsNil(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "confirmation not found or already viewed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read confirmation envelope")
	}

	var envelope TransferEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode confirmation envelope")
	}
	return &envelope, nil
}
