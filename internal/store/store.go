// Package store holds the in-memory list of one entity type, kept in sync
// with the backend by patching locally after each successful mutation
// instead of re-fetching. One generic ListStore replaces the per-entity
// copies of this pattern; entity specifics live in an Adapter.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/hgdelgado/timedeck/internal/api"
)

// Adapter wires a ListStore to one entity's endpoints. Fetch functions are
// optional: a nil FetchPage means the entity is not paginated, a nil
// FetchByUser/FetchPageByUser means it cannot be scoped to a user.
type Adapter[T, D, U any] struct {
	ID              func(*T) string
	FetchAll        func(ctx context.Context) ([]T, int, error)
	FetchByUser     func(ctx context.Context, userID string) ([]T, int, error)
	FetchPage       func(ctx context.Context, page, pageSize int) ([]T, int, error)
	FetchPageByUser func(ctx context.Context, userID string, page, pageSize int) ([]T, int, error)
	Create          func(ctx context.Context, draft D) (*T, error)
	Update          func(ctx context.Context, update U) (*T, error)
	// Merge folds the server's update response into the previous entry,
	// preserving nested fields the response omits. nil keeps next wholesale.
	Merge  func(prev, next *T) T
	Delete func(ctx context.Context, id string) error
}

type ListStore[T, D, U any] struct {
	mu      sync.RWMutex
	adapter Adapter[T, D, U]

	items      []T
	totalCount int
	page       int
	pageSize   int
	loading    bool
	userID     string // non-empty scopes fetches to this user
}

func NewListStore[T, D, U any](adapter Adapter[T, D, U], pageSize int) *ListStore[T, D, U] {
	return &ListStore[T, D, U]{
		adapter:  adapter,
		page:     1,
		pageSize: pageSize,
	}
}

// ScopeToUser restricts fetches to records visible to the given user.
func (s *ListStore[T, D, U]) ScopeToUser(userID string) {
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()
}

func (s *ListStore[T, D, U]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]T, len(s.items))
	copy(items, s.items)
	return items
}

func (s *ListStore[T, D, U]) TotalCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalCount
}

func (s *ListStore[T, D, U]) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

func (s *ListStore[T, D, U]) PageSize() int {
	return s.pageSize
}

func (s *ListStore[T, D, U]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// SetPage moves to the given page (clamped to 1). The caller re-fetches.
func (s *ListStore[T, D, U]) SetPage(page int) {
	s.mu.Lock()
	if page < 1 {
		page = 1
	}
	s.page = page
	s.mu.Unlock()
}

func (s *ListStore[T, D, U]) paginated() bool {
	return s.adapter.FetchPage != nil || s.adapter.FetchPageByUser != nil
}

// Fetch loads the list: all records, the current user's records, or a page
// of either, depending on the adapter and scope. It is the only operation
// that gates the loading flag; mutations leave the table visible. A
// canceled fetch and a malformed response both leave prior state unchanged.
func (s *ListStore[T, D, U]) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	fetch := s.pickFetch()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	if fetch == nil {
		return errors.New("store: no fetch operation configured")
	}

	items, total, err := fetch(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.items = items
	s.totalCount = total
	s.mu.Unlock()
	return nil
}

func (s *ListStore[T, D, U]) pickFetch() func(context.Context) ([]T, int, error) {
	a := s.adapter
	page, size, userID := s.page, s.pageSize, s.userID

	switch {
	case userID != "" && a.FetchPageByUser != nil:
		return func(ctx context.Context) ([]T, int, error) {
			return a.FetchPageByUser(ctx, userID, page, size)
		}
	case userID != "" && a.FetchByUser != nil:
		return func(ctx context.Context) ([]T, int, error) {
			return a.FetchByUser(ctx, userID)
		}
	case a.FetchPage != nil:
		return func(ctx context.Context) ([]T, int, error) {
			return a.FetchPage(ctx, page, size)
		}
	case a.FetchAll != nil:
		return a.FetchAll
	}
	return nil
}

// Create posts the draft and, on success, appends the server-returned
// record and bumps totalCount. The list is untouched on failure.
func (s *ListStore[T, D, U]) Create(ctx context.Context, draft D) error {
	created, err := s.adapter.Create(ctx, draft)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.items = append(s.items, *created)
	s.totalCount++
	s.mu.Unlock()
	return nil
}

// Update puts the full record and replaces the matching entry, merging with
// the previous value so nested fields absent from the response survive.
func (s *ListStore[T, D, U]) Update(ctx context.Context, update U) error {
	updated, err := s.adapter.Update(ctx, update)
	if err != nil {
		return err
	}

	id := s.adapter.ID(updated)
	s.mu.Lock()
	for i := range s.items {
		if s.adapter.ID(&s.items[i]) != id {
			continue
		}
		if s.adapter.Merge != nil {
			s.items[i] = s.adapter.Merge(&s.items[i], updated)
		} else {
			s.items[i] = *updated
		}
		break
	}
	s.mu.Unlock()
	return nil
}

// Remove deletes by id and filters it out locally. If the current page
// empties and is not the first, the store steps back one page; the caller
// re-fetches to fill it.
func (s *ListStore[T, D, U]) Remove(ctx context.Context, id string) error {
	if err := s.adapter.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	kept := s.items[:0]
	for i := range s.items {
		if s.adapter.ID(&s.items[i]) != id {
			kept = append(kept, s.items[i])
		}
	}
	s.items = kept
	if s.totalCount > 0 {
		s.totalCount--
	}
	if s.paginated() && len(s.items) == 0 && s.page > 1 {
		s.page--
	}
	s.mu.Unlock()
	return nil
}

// Find returns a copy of the record with the given id.
func (s *ListStore[T, D, U]) Find(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.items {
		if s.adapter.ID(&s.items[i]) == id {
			return s.items[i], true
		}
	}
	var zero T
	return zero, false
}

// patchByID applies fn to the entry with the given id, in place.
func (s *ListStore[T, D, U]) patchByID(id string, fn func(*T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.adapter.ID(&s.items[i]) == id {
			fn(&s.items[i])
			return
		}
	}
}

// RelationAdapter wires join-entity operations to the parent store: Attach
// pushes the created join record into the parent's nested list, Detach
// filters it out by join-record id.
type RelationAdapter[T, RD, R any] struct {
	Add      func(ctx context.Context, draft RD) (*R, error)
	Remove   func(ctx context.Context, relationID string) (*R, error)
	ParentID func(*R) string
	Attach   func(parent *T, rel R)
	Detach   func(parent *T, relationID string)
}

// AddRelation creates the join record and patches the owning parent's
// nested list in place, without refetching the parent.
func AddRelation[T, D, U, RD, R any](ctx context.Context, s *ListStore[T, D, U], ra RelationAdapter[T, RD, R], draft RD) error {
	rel, err := ra.Add(ctx, draft)
	if err != nil {
		return err
	}

	s.patchByID(ra.ParentID(rel), func(parent *T) {
		ra.Attach(parent, *rel)
	})
	return nil
}

// RemoveRelation deletes the join record and filters it out of the owning
// parent's nested list.
func RemoveRelation[T, D, U, RD, R any](ctx context.Context, s *ListStore[T, D, U], ra RelationAdapter[T, RD, R], relationID string) error {
	rel, err := ra.Remove(ctx, relationID)
	if err != nil {
		return err
	}

	s.patchByID(ra.ParentID(rel), func(parent *T) {
		ra.Detach(parent, relationID)
	})
	return nil
}

// Canceled reports whether err is the abort of a superseded request, which
// callers treat as a non-error.
func Canceled(err error) bool {
	return errors.Is(err, api.ErrCanceled) || errors.Is(err, context.Canceled)
}
