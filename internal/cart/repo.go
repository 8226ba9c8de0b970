package cart

import (
	"context"
	"encoding/json"
	"time"

	pkgerrors "github.com/vendorhall/checkout/pkg/errors"
	pkgredis "github.com/vendorhall/checkout/pkg/redis"
)

// Repository persists checkout sessions for cart continuity.
type Repository interface {
	Save(ctx context.Context, session *Session) error
	Find(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SessionKey(sessionID string) string
}

type repository struct {
	store sessionStore
	ttl   time.Duration
}

// NewRepository builds a redis-backed session repository. Sessions expire
// after the configured TTL unless cleared earlier by a successful submission.
func NewRepository(store sessionStore, ttl time.Duration) (Repository, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session store required")
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &repository{store: store, ttl: ttl}, nil
}

func (r *repository) Save(ctx context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return pkgerrors.New(pkgerrors.CodeInternal, "session id required")
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode checkout session")
	}
	if err := r.store.Set(ctx, r.store.SessionKey(session.ID), string(payload), r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist checkout session")
	}
	return nil
}

func (r *repository) Find(ctx context.Context, sessionID string) (*Session, error) {
	raw, err := r.store.Get(ctx, r.store.SessionKey(sessionID))
	if err != nil {
		if pkgredis.IsNil(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
	}
	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode checkout session")
	}
	return &session, nil
}

func (r *repository) Delete(ctx context.Context, sessionID string) error {
	if err := r.store.Del(ctx, r.store.SessionKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete checkout session")
	}
	return nil
}
