// Package memory is an in-memory remote store used for local development
// and tests. It supports failure injection so reconciler fallback paths can
// be exercised without a network.
package memory

import (
	"context"
	"sync"

	"wealthwise/internal/core"
)

type Store struct {
	mu           sync.Mutex
	transactions map[string][]core.Transaction // keyed by user id
	budgets      map[string][]core.Budget
	sessions     map[string]string // access token -> user id
	failWith     error
}

func New() *Store {
	return &Store{
		transactions: make(map[string][]core.Transaction),
		budgets:      make(map[string][]core.Budget),
		sessions:     make(map[string]string),
	}
}

// FailWith makes every subsequent store operation return err. Pass nil to
// restore normal behavior.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// AddSession registers an access token for a user id.
func (s *Store) AddSession(token, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = userID
}

func (s *Store) ListTransactions(_ context.Context, identity core.Identity) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	return append([]core.Transaction(nil), s.transactions[identity.UserID()]...), nil
}

func (s *Store) InsertTransaction(_ context.Context, identity core.Identity, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	key := identity.UserID()
	s.transactions[key] = append([]core.Transaction{t}, s.transactions[key]...)
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, identity core.Identity, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	key := identity.UserID()
	kept := s.transactions[key][:0]
	for _, t := range s.transactions[key] {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.transactions[key] = kept
	return nil
}

func (s *Store) ListBudgets(_ context.Context, identity core.Identity) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	return append([]core.Budget(nil), s.budgets[identity.UserID()]...), nil
}

func (s *Store) UpsertBudget(_ context.Context, identity core.Identity, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	key := identity.UserID()
	for i, existing := range s.budgets[key] {
		if existing.Category == b.Category {
			s.budgets[key][i] = b
			return nil
		}
	}
	s.budgets[key] = append(s.budgets[key], b)
	return nil
}

// Resolve implements remote.SessionProvider.
func (s *Store) Resolve(_ context.Context, accessToken string) (core.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return core.Anonymous(), s.failWith
	}
	if userID, ok := s.sessions[accessToken]; ok {
		return core.Authenticated(userID), nil
	}
	return core.Anonymous(), nil
}
