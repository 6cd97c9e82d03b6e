package main

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Service implements the item operations on top of a Store. Writers hold mu
// exclusively for their whole lookup-check-persist sequence, so no reader
// observes a half-applied update or delete.
type Service struct {
	mu    sync.RWMutex
	store Store
	now   func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service backed by store.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Whoami returns the caller identity.
func (s *Service) Whoami(ctx context.Context) string {
	return CallerFromContext(ctx)
}

// ListAll returns every stored item in ascending id order.
func (s *Service) ListAll(ctx context.Context) ([]Item, error) {
	return s.list(ctx, func(Item) bool { return true })
}

// ListMine returns the items owned by the caller.
func (s *Service) ListMine(ctx context.Context) ([]Item, error) {
	caller := CallerFromContext(ctx)
	return s.list(ctx, func(item Item) bool { return item.Owner == caller })
}

func (s *Service) list(ctx context.Context, keep func(Item) bool) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []Item{}
	for item, err := range s.store.Iterate(ctx) {
		if err != nil {
			return nil, integrityError("list items", err)
		}
		if keep(item) {
			items = append(items, item)
		}
	}
	return items, nil
}

// Get returns the item with the given id. Any caller may read any item.
func (s *Service) Get(ctx context.Context, id uint64) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return Item{}, integrityError(fmt.Sprintf("get item %d", id), err)
	}
	if !ok {
		return Item{}, &ItemError{Op: "get", ID: id, Err: ErrNotFound}
	}
	return item, nil
}

// Create stores a new item owned by the caller.
func (s *Service) Create(ctx context.Context, req CreateItemRequest) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.store.AllocateID(ctx)
	if err != nil {
		return Item{}, integrityError("allocate item id", err)
	}
	now := s.now()
	item := Item{
		ID:          id,
		Owner:       CallerFromContext(ctx),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Put(ctx, item); err != nil {
		return Item{}, integrityError(fmt.Sprintf("create item %d", id), err)
	}
	return item, nil
}

// Update replaces name and description of an item owned by the caller.
func (s *Service) Update(ctx context.Context, req UpdateItemRequest) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.owned(ctx, "update", req.ID)
	if err != nil {
		return Item{}, err
	}

	updated := existing
	updated.Name = req.Name
	updated.Description = req.Description
	updated.UpdatedAt = s.now()
	// a wall clock stepping backwards must not break updated_at >= created_at
	if updated.UpdatedAt.Before(existing.UpdatedAt) {
		updated.UpdatedAt = existing.UpdatedAt
	}

	if err := s.store.Put(ctx, updated); err != nil {
		return Item{}, integrityError(fmt.Sprintf("update item %d", req.ID), err)
	}
	return updated, nil
}

// Delete removes an item owned by the caller and returns a confirmation message.
func (s *Service) Delete(ctx context.Context, id uint64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.owned(ctx, "delete", id); err != nil {
		return "", err
	}
	if _, _, err := s.store.Remove(ctx, id); err != nil {
		return "", integrityError(fmt.Sprintf("delete item %d", id), err)
	}
	return fmt.Sprintf("item %d deleted successfully", id), nil
}

// owned loads id and checks the caller owns it. Existence is checked first:
// a missing item is NotFound for every caller. Callers must hold mu.
func (s *Service) owned(ctx context.Context, op string, id uint64) (Item, error) {
	item, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return Item{}, integrityError(fmt.Sprintf("%s item %d", op, id), err)
	}
	if !ok {
		return Item{}, &ItemError{Op: op, ID: id, Err: ErrNotFound}
	}
	if item.Owner != CallerFromContext(ctx) {
		return Item{}, &ItemError{Op: op, ID: id, Err: ErrForbidden}
	}
	return item, nil
}
