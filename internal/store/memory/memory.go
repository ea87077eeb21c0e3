// Package memory provides an in-process Store used by tests and the
// "memory" backend. Nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"expenses/internal/core"
	"expenses/internal/store"
)

type Store struct {
	mu     sync.Mutex
	items  map[int64]core.Expense
	nextID int64
}

func New() *Store {
	return &Store{items: make(map[int64]core.Expense), nextID: 1}
}

func (s *Store) Create(_ context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// nextID only ever grows, so ids are never reused after deletion.
	e.ID = s.nextID
	s.nextID++
	s.items[e.ID] = e
	return e.ID, nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return core.Expense{}, store.ErrNotFound
	}
	return e, nil
}

func (s *Store) Update(_ context.Context, id int64, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	e.ID = id
	s.items[id] = e
	return nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) List(_ context.Context, f core.Filter, order store.Order) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.items))
	for _, e := range s.items {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if order == store.NewestFirst {
			a, b = b, a
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *Store) SumByCategory(ctx context.Context, f core.Filter) ([]core.CategoryAmount, error) {
	items, err := s.List(ctx, f, store.OldestFirst)
	if err != nil {
		return nil, err
	}
	return core.SumByCategory(items), nil
}

func (s *Store) SumByDay(ctx context.Context, f core.Filter) ([]core.DayAmount, error) {
	items, err := s.List(ctx, f, store.OldestFirst)
	if err != nil {
		return nil, err
	}
	return core.SumByDay(items), nil
}

func (s *Store) Close() error { return nil }

// Len reports the number of stored expenses. Test helper.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
