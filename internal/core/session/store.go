package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
)

const DefaultTTL = 30 * time.Minute

// Store is a TTL registry of viewers. Every access slides the expiry;
// expired and deleted viewers are closed.
type Store struct {
	items   *cache.Cache
	deps    Dependencies
	ttl     time.Duration
	onCount func(int)
}

type StoreOption func(*Store)

// WithCountHook is called with the number of live sessions after every change.
func WithCountHook(fn func(int)) StoreOption {
	return func(s *Store) { s.onCount = fn }
}

func NewStore(deps Dependencies, ttl time.Duration, opts ...StoreOption) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		items: cache.New(ttl, ttl/2),
		deps:  deps,
		ttl:   ttl,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.items.OnEvicted(func(_ string, v any) {
		if viewer, ok := v.(*Viewer); ok {
			viewer.Close()
		}
		s.reportCount()
	})
	return s
}

func (s *Store) Create() *Viewer {
	v := NewViewer(uuid.NewString(), s.deps)
	s.items.Set(v.ID(), v, cache.DefaultExpiration)
	s.reportCount()
	return v
}

func (s *Store) Get(id string) (*Viewer, error) {
	raw, ok := s.items.Get(id)
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "get session", errors.New(id))
	}
	v := raw.(*Viewer)
	s.items.Set(id, v, cache.DefaultExpiration)
	return v, nil
}

func (s *Store) Delete(id string) error {
	if _, ok := s.items.Get(id); !ok {
		return domain.WrapError(domain.ErrSessionNotFound, "delete session", errors.New(id))
	}
	s.items.Delete(id)
	return nil
}

func (s *Store) Len() int { return s.items.ItemCount() }

// Close closes every viewer.
func (s *Store) Close() {
	for id := range s.items.Items() {
		s.items.Delete(id)
	}
}

func (s *Store) reportCount() {
	if s.onCount != nil {
		s.onCount(s.items.ItemCount())
	}
}
