// Package cart holds the merch cart store: the authoritative in-memory cart
// for one visitor, persisted after every change and hydrated on startup.
package cart

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/necs-cart/internal/cart/domain"
)

// DefaultKey is the storage key the cart lives under.
const DefaultKey = "necs_cart"

var tracer = otel.Tracer("github.com/jcmexdev/necs-cart/internal/cart")

// Storage is the durable key-value store the cart is persisted to. Get
// returns "" for a missing key. Set must replace the value in one write.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type ChangeKind string

const (
	ChangeHydrated         ChangeKind = "hydrated"
	ChangeItemAdded        ChangeKind = "item_added"
	ChangeQuantityAdjusted ChangeKind = "quantity_adjusted"
)

// Snapshot is a read-only view of the cart and its aggregates.
type Snapshot struct {
	Lines      []domain.Line
	TotalCount int
	TotalPrice decimal.Decimal
}

func (s Snapshot) IsEmpty() bool { return len(s.Lines) == 0 }

// Change is delivered to listeners after hydration and after every mutation
// that reached storage. OpenDrawer asks the UI to show the cart.
type Change struct {
	Kind       ChangeKind
	Scope      string
	Snapshot   Snapshot
	OpenDrawer bool
}

type Listener func(ctx context.Context, change Change)

type Option func(*Store)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithScope labels the changes this store emits, typically with a visitor id.
func WithScope(scope string) Option {
	return func(s *Store) { s.scope = scope }
}

func WithListener(l Listener) Option {
	return func(s *Store) { s.listeners = append(s.listeners, l) }
}

// Store owns one cart. All methods are safe for concurrent use; each runs to
// completion, including its storage write, before the next one starts.
type Store struct {
	mu        sync.Mutex
	storage   Storage
	key       string
	scope     string
	cart      *domain.Cart
	listeners []Listener
}

// NewStore returns a store holding an empty cart. Call Hydrate before use to
// load what was persisted.
func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		key:     DefaultKey,
		cart:    domain.NewCart(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate replaces the in-memory cart with the persisted one. A missing,
// unreadable or malformed value leaves an empty cart; it never fails.
func (s *Store) Hydrate(ctx context.Context) {
	_ = s.hydrate(ctx)
}

// hydrate is Hydrate that also reports a failed storage read, which callers
// caching the store must not mistake for an empty cart.
func (s *Store) hydrate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "cart.Hydrate", trace.WithAttributes(attribute.String("cart.key", s.key)))
	defer span.End()

	c, err := s.load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage unreadable")
	}

	s.mu.Lock()
	s.cart = c
	snap := snapshotOf(s.cart)
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("cart.lines", len(snap.Lines)))
	s.notify(ctx, Change{Kind: ChangeHydrated, Scope: s.scope, Snapshot: snap})
	return err
}

// load always returns a usable cart. The error is set only when storage
// could not be read; malformed data is logged and yields an empty cart.
func (s *Store) load(ctx context.Context) (*domain.Cart, error) {
	raw, err := s.storage.Get(ctx, s.key)
	if err != nil {
		slog.WarnContext(ctx, "cart storage unreadable, starting empty", "key", s.key, "scope", s.scope, "error", err)
		return domain.NewCart(), err
	}
	c, err := decodeCart(raw)
	if err != nil {
		slog.WarnContext(ctx, "discarding malformed cart", "key", s.key, "scope", s.scope, "error", err)
		return domain.NewCart(), nil
	}
	return c, nil
}

// AddItem adds one unit of name. A new line records unitPrice; an existing
// line keeps the price it was first added with. The returned snapshot is the
// cart as this call left it. The only error is a failed storage write, in
// which case the cart is unchanged.
func (s *Store) AddItem(ctx context.Context, name string, unitPrice decimal.Decimal) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "cart.AddItem", trace.WithAttributes(
		attribute.String("cart.item", name),
		attribute.String("cart.unit_price", unitPrice.String()),
	))
	defer span.End()

	return s.mutate(ctx, span, ChangeItemAdded, true, func(c *domain.Cart) bool {
		c.Add(name, unitPrice)
		return true
	})
}

// AdjustQuantity adds delta to the line at index, removing it at zero. An
// out-of-range index is ignored and nothing is written.
func (s *Store) AdjustQuantity(ctx context.Context, index, delta int) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "cart.AdjustQuantity", trace.WithAttributes(
		attribute.Int("cart.index", index),
		attribute.Int("cart.delta", delta),
	))
	defer span.End()

	return s.mutate(ctx, span, ChangeQuantityAdjusted, false, func(c *domain.Cart) bool {
		return c.Adjust(index, delta)
	})
}

// AdjustQuantityByName is AdjustQuantity keyed by line name, which stays
// valid when the list is re-rendered between the click and the request.
func (s *Store) AdjustQuantityByName(ctx context.Context, name string, delta int) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "cart.AdjustQuantityByName", trace.WithAttributes(
		attribute.String("cart.item", name),
		attribute.Int("cart.delta", delta),
	))
	defer span.End()

	return s.mutate(ctx, span, ChangeQuantityAdjusted, false, func(c *domain.Cart) bool {
		return c.AdjustByName(name, delta)
	})
}

// mutate applies fn to a copy of the cart, persists the copy and only then
// makes it current. It returns the snapshot taken under the lock.
func (s *Store) mutate(ctx context.Context, span trace.Span, kind ChangeKind, openDrawer bool, fn func(*domain.Cart) bool) (Snapshot, error) {
	s.mu.Lock()
	next := s.cart.Clone()
	if !fn(next) {
		snap := snapshotOf(s.cart)
		s.mu.Unlock()
		span.SetAttributes(attribute.Bool("cart.noop", true))
		return snap, nil
	}
	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		slog.ErrorContext(ctx, "cart not saved", "key", s.key, "scope", s.scope, "change", kind, "error", err)
		return Snapshot{}, err
	}
	s.cart = next
	snap := snapshotOf(next)
	s.mu.Unlock()

	s.notify(ctx, Change{Kind: kind, Scope: s.scope, Snapshot: snap, OpenDrawer: openDrawer})
	return snap, nil
}

func (s *Store) persist(ctx context.Context, c *domain.Cart) error {
	raw, err := encodeCart(c)
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, s.key, raw)
}

func (s *Store) notify(ctx context.Context, change Change) {
	for _, l := range s.listeners {
		l(ctx, change)
	}
}

func (s *Store) TotalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalCount()
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalPrice()
}

// Lines returns a copy of the lines in display order.
func (s *Store) Lines() []domain.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotOf(s.cart)
}

// Checkout is a stub: it reports what the checkout button should tell the
// visitor and never changes the cart.
func (s *Store) Checkout(ctx context.Context) domain.Notice {
	s.mu.Lock()
	notice := domain.CheckoutNotice(s.cart)
	count := s.cart.TotalCount()
	s.mu.Unlock()

	slog.InfoContext(ctx, "checkout requested", "scope", s.scope, "items", count, "notice", string(notice))
	return notice
}

func snapshotOf(c *domain.Cart) Snapshot {
	return Snapshot{
		Lines:      c.Lines(),
		TotalCount: c.TotalCount(),
		TotalPrice: c.TotalPrice(),
	}
}
