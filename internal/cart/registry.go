package cart

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/jcmexdev/necs-cart/internal/pkg/kv"
)

// DefaultCapacity is how many visitor stores a registry keeps in memory.
const DefaultCapacity = 10000

const hydrateTimeout = 5 * time.Second

// Registry hands out one hydrated Store per visitor. Each visitor's cart is
// kept under the same fixed key inside their own namespace of the shared
// storage.
//
// Stores are held in an LRU; an evicted visitor is hydrated again from
// storage on their next request. Two stores writing the same visitor's cart
// (two service replicas, two browser tabs in the original page, or a request
// still holding an evicted store) are last-writer-wins.
type Registry struct {
	storage kv.Store
	opts    []Option

	stores *lru.Cache[string, *Store]
	group  singleflight.Group
}

// NewRegistry returns a registry of DefaultCapacity whose stores are built
// with opts.
func NewRegistry(storage kv.Store, opts ...Option) *Registry {
	return NewRegistryWithCapacity(storage, DefaultCapacity, opts...)
}

// NewRegistryWithCapacity is NewRegistry keeping at most capacity stores.
// A non-positive capacity means DefaultCapacity.
func NewRegistryWithCapacity(storage kv.Store, capacity int, opts ...Option) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	// lru.New only fails on a non-positive size.
	stores, _ := lru.New[string, *Store](capacity)
	return &Registry{
		storage: storage,
		opts:    opts,
		stores:  stores,
	}
}

// Open returns the visitor's store, creating and hydrating it on first use.
// Concurrent first requests for one visitor share a single hydration, and
// other visitors are never blocked by it.
//
// When storage cannot be read the store is not cached and Open fails, so a
// transient outage never stands in for the visitor's saved cart.
func (r *Registry) Open(ctx context.Context, visitorID string) (*Store, error) {
	if s, ok := r.stores.Get(visitorID); ok {
		return s, nil
	}

	v, err, _ := r.group.Do(visitorID, func() (any, error) {
		if s, ok := r.stores.Get(visitorID); ok {
			return s, nil
		}

		// Hydration outlives a cancelled request so the shared result is
		// not poisoned by whichever caller arrived first.
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hydrateTimeout)
		defer cancel()

		opts := append([]Option{WithScope(visitorID)}, r.opts...)
		s := NewStore(kv.Scoped(r.storage, visitorID), opts...)
		if err := s.hydrate(hctx); err != nil {
			return nil, fmt.Errorf("cart: open %q: %w", visitorID, err)
		}
		r.stores.Add(visitorID, s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

// Len reports how many stores are held in memory.
func (r *Registry) Len() int {
	return r.stores.Len()
}
