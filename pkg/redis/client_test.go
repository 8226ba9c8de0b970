package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestGetDelConsumesValueOnce(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.EnvelopeKey("A-42")
	if err := client.Set(ctx, key, "envelope-json", time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	value, err := client.GetDel(ctx, key)
	if err != nil {
		t.Fatalf("getdel failed: %v", err)
	}
	if value != "envelope-json" {
		t.Fatalf("expected stored envelope, got %q", value)
	}

	if _, err := client.GetDel(ctx, key); !IsNil(err) {
		t.Fatalf("expected redis.Nil on second read, got %v", err)
	}
}

func TestSetNXHoldsLock(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.SubmitLockKey("sess-1")
	ok, err := client.SetNX(ctx, key, "1", 30*time.Second)
	if err != nil {
		t.Fatalf("setnx failed: %v", err)
	}
	if !ok {
		t.Fatal("expected first lock acquisition to succeed")
	}

	ok, err = client.SetNX(ctx, key, "1", 30*time.Second)
	if err != nil {
		t.Fatalf("setnx failed: %v", err)
	}
	if ok {
		t.Fatal("expected second lock acquisition to fail")
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	ok, _ = client.SetNX(ctx, key, "1", 30*time.Second)
	if !ok {
		t.Fatal("expected lock reacquisition after release")
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.SessionKey("sess-1"); got != "vh:checkout_session:sess-1" {
		t.Fatalf("unexpected session key %s", got)
	}
	if got := client.EnvelopeKey("A-42"); got != "vh:pending_confirmation:A-42" {
		t.Fatalf("unexpected envelope key %s", got)
	}
	if got := client.SubmitLockKey("sess-1"); got != "vh:submit_lock:sess-1" {
		t.Fatalf("unexpected submit lock key %s", got)
	}
	if got := client.IdempotencyKey("scope", "id"); got != "vh:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
}

type mockCmdable struct {
	data map[string]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	value, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (m *mockCmdable) GetDel(ctx context.Context, key string) *redis.StringCmd {
	value, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	delete(m.data, key)
	return redis.NewStringResult(value, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			delete(m.data, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}
