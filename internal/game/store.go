package game

import (
	"context"
	"sort"
	"sync"
)

// Store is the durable record of games keyed by code.
//
// Update hands fn a private copy of the full record. When fn returns nil the
// store commits the whole record atomically and increments Version; when fn
// returns an error nothing is written and that error is returned unchanged.
// Optimistic implementations report a lost race as ErrConflict.
type Store interface {
	Create(ctx context.Context, game *Game) error
	Get(ctx context.Context, code string) (*Game, error)
	Update(ctx context.Context, code string, fn func(game *Game) error) (*Game, error)
}

// MemoryStore linearizes every mutation behind one mutex.
type MemoryStore struct {
	mu    sync.Mutex
	games map[string]*Game
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[string]*Game),
	}
}

func (s *MemoryStore) Create(_ context.Context, game *Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[game.Code]; exists {
		return ErrCodeTaken
	}
	stored := game.Clone()
	if stored.Version == 0 {
		stored.Version = 1
	}
	s.games[game.Code] = stored
	game.Version = stored.Version
	return nil
}

func (s *MemoryStore) Get(_ context.Context, code string) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[code]
	if !ok {
		return nil, ErrNotFound
	}
	return game.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, code string, fn func(game *Game) error) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.games[code]
	if !ok {
		return nil, ErrNotFound
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.Code = current.Code
	next.Version = current.Version + 1
	s.games[code] = next
	return next.Clone(), nil
}

// Codes lists stored game codes in sorted order.
func (s *MemoryStore) Codes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := make([]string, 0, len(s.games))
	for code := range s.games {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
