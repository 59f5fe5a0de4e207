package game

import (
	"context"
	"sync"
	"time"
)

// Binding ties a client token to a participant of one game.
type Binding struct {
	Token         string
	Code          string
	ParticipantID string
	DisplayName   string
	ExpiresAt     time.Time
}

func (b Binding) Expired(now time.Time) bool {
	return !b.ExpiresAt.IsZero() && !now.Before(b.ExpiresAt)
}

// Binder stores bindings scoped per (token, code). Resolve evaluates expiry
// lazily: an expired binding is deleted and reported as absent.
type Binder interface {
	Bind(ctx context.Context, binding Binding) error
	Resolve(ctx context.Context, token, code string) (Binding, bool, error)
}

type bindingKey struct {
	token string
	code  string
}

type MemoryBinder struct {
	mu       sync.Mutex
	now      func() time.Time
	bindings map[bindingKey]Binding
}

func NewMemoryBinder() *MemoryBinder {
	return &MemoryBinder{
		now:      func() time.Time { return time.Now().UTC() },
		bindings: make(map[bindingKey]Binding),
	}
}

func (b *MemoryBinder) Bind(_ context.Context, binding Binding) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bindings[bindingKey{token: binding.Token, code: binding.Code}] = binding
	return nil
}

func (b *MemoryBinder) Resolve(_ context.Context, token, code string) (Binding, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := bindingKey{token: token, code: code}
	binding, ok := b.bindings[key]
	if !ok {
		return Binding{}, false, nil
	}
	if binding.Expired(b.now()) {
		delete(b.bindings, key)
		return Binding{}, false, nil
	}
	return binding, true, nil
}
