package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/necs-cart/internal/cart"
	"github.com/jcmexdev/necs-cart/internal/cart/domain"
)

// CartService is what the storefront handlers need from the cart, addressed
// by visitor id. Mutations return the cart as their own call left it. Every
// method fails when the visitor's cart cannot be loaded from storage.
type CartService interface {
	View(ctx context.Context, visitorID string) (cart.Snapshot, error)
	AddItem(ctx context.Context, visitorID, name string, unitPrice decimal.Decimal) (cart.Snapshot, error)
	AdjustLine(ctx context.Context, visitorID string, index, delta int) (cart.Snapshot, error)
	AdjustItem(ctx context.Context, visitorID, name string, delta int) (cart.Snapshot, error)
	Checkout(ctx context.Context, visitorID string) (domain.Notice, error)
}
