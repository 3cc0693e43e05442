// Package memory implements the signal store in process memory. It backs
// tests and local development where no Redis is running.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"bullsignals/internal/model"
)

// Store is an in-memory model.SignalStore. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	open   map[string]map[string]*model.Signal // symbol → id → record
	closed map[string]map[string]*model.Signal
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		open:   make(map[string]map[string]*model.Signal),
		closed: make(map[string]map[string]*model.Signal),
	}
}

func (s *Store) Append(ctx context.Context, symbol string, sig *model.Signal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	if s.open[symbol] == nil {
		s.open[symbol] = make(map[string]*model.Signal)
	}
	cp := *sig
	s.open[symbol][id] = &cp
	return id, nil
}

func (s *Store) ListOpen(ctx context.Context, symbol string) (map[string]*model.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyNamespace(s.open[symbol]), nil
}

func (s *Store) ListClosed(ctx context.Context, symbol string) (map[string]*model.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyNamespace(s.closed[symbol]), nil
}

func (s *Store) UpdateLastPrice(ctx context.Context, symbol, id string, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sig, ok := s.open[symbol][id]; ok {
		sig.LastPrice = price
	}
	return nil
}

func (s *Store) WriteClosed(ctx context.Context, symbol, id string, sig *model.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed[symbol] == nil {
		s.closed[symbol] = make(map[string]*model.Signal)
	}
	cp := *sig
	s.closed[symbol][id] = &cp
	return nil
}

func (s *Store) RemoveOpen(ctx context.Context, symbol, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.open[symbol], id)
	return nil
}

func (s *Store) ClosedExists(ctx context.Context, symbol, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.closed[symbol][id]
	return ok, nil
}

func copyNamespace(ns map[string]*model.Signal) map[string]*model.Signal {
	out := make(map[string]*model.Signal, len(ns))
	for id, sig := range ns {
		cp := *sig
		out[id] = &cp
	}
	return out
}
