package services

import (
	"context"

	domain "github.com/lechic-cafe/api/internal/domain"
)

// AddItemCommand describes a request to add a menu item to a cart. Price
// accepts the raw value supplied by the caller and is parsed leniently.
// A zero Quantity adds a single unit.
type AddItemCommand struct {
	CartID   string
	ItemID   string
	Name     string
	Price    any
	Quantity int
}

// AdjustItemCommand targets a single cart line for increment or decrement.
type AdjustItemCommand struct {
	CartID string
	ItemID string
}

// ReplaceCartCommand swaps the entire cart contents with a single line.
// Used by the buy-now flow where an item bypasses the regular cart.
type ReplaceCartCommand struct {
	CartID string
	ItemID string
	Name   string
	Price  any
}

// PlaceOrderCommand carries everything needed to submit an order.
type PlaceOrderCommand struct {
	CartID   string
	Customer domain.CustomerInfo
}

// PlaceOrderResult reports the outcome of an order submission.
type PlaceOrderResult struct {
	Order        domain.Order
	WhatsAppLink string
	MailtoLink   string
	CartCleared  bool
}

// CartService manages cart contents keyed by a caller supplied session id.
type CartService interface {
	GetOrCreateCart(ctx context.Context, cartID string) (domain.Cart, error)
	AddItem(ctx context.Context, cmd AddItemCommand) (domain.Cart, error)
	IncrementItem(ctx context.Context, cmd AdjustItemCommand) (domain.Cart, error)
	DecrementItem(ctx context.Context, cmd AdjustItemCommand) (domain.Cart, error)
	ReplaceCart(ctx context.Context, cmd ReplaceCartCommand) (domain.Cart, error)
	ClearCart(ctx context.Context, cartID string) error
}

// OrderService validates, locates, submits and finalises orders.
type OrderService interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (PlaceOrderResult, error)
}
