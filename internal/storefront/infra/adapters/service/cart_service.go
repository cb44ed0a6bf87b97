package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/necs-cart/internal/cart"
	"github.com/jcmexdev/necs-cart/internal/cart/domain"
	"github.com/jcmexdev/necs-cart/internal/storefront/core/ports"
)

// Ensure registryCartService implements the port at compile time.
var _ ports.CartService = (*registryCartService)(nil)

// registryCartService serves each visitor from their own cart.Store.
type registryCartService struct {
	registry *cart.Registry
}

func NewCartService(registry *cart.Registry) ports.CartService {
	return &registryCartService{registry: registry}
}

func (s *registryCartService) View(ctx context.Context, visitorID string) (cart.Snapshot, error) {
	store, err := s.registry.Open(ctx, visitorID)
	if err != nil {
		return cart.Snapshot{}, err
	}
	return store.Snapshot(), nil
}

func (s *registryCartService) AddItem(ctx context.Context, visitorID, name string, unitPrice decimal.Decimal) (cart.Snapshot, error) {
	store, err := s.registry.Open(ctx, visitorID)
	if err != nil {
		return cart.Snapshot{}, err
	}
	return store.AddItem(ctx, name, unitPrice)
}

func (s *registryCartService) AdjustLine(ctx context.Context, visitorID string, index, delta int) (cart.Snapshot, error) {
	store, err := s.registry.Open(ctx, visitorID)
	if err != nil {
		return cart.Snapshot{}, err
	}
	return store.AdjustQuantity(ctx, index, delta)
}

func (s *registryCartService) AdjustItem(ctx context.Context, visitorID, name string, delta int) (cart.Snapshot, error) {
	store, err := s.registry.Open(ctx, visitorID)
	if err != nil {
		return cart.Snapshot{}, err
	}
	return store.AdjustQuantityByName(ctx, name, delta)
}

func (s *registryCartService) Checkout(ctx context.Context, visitorID string) (domain.Notice, error) {
	store, err := s.registry.Open(ctx, visitorID)
	if err != nil {
		return "", err
	}
	return store.Checkout(ctx), nil
}
