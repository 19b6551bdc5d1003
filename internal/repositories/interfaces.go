package repositories

import (
	"context"

	domain "github.com/lechic-cafe/api/internal/domain"
)

// CartRepository owns durable cart snapshot persistence. Every mutating cart
// operation writes the full snapshot immediately; loads deserialize it back.
type CartRepository interface {
	// Load returns the snapshot stored for the cart. A missing snapshot yields
	// a RepositoryError with IsNotFound; a snapshot that cannot be decoded
	// yields one with IsCorrupt so callers can degrade to an empty cart.
	Load(ctx context.Context, cartID string) (domain.Cart, error)
	// Save serializes and stores the full cart snapshot.
	Save(ctx context.Context, cart domain.Cart) error
	// Delete removes the stored snapshot. Deleting an absent snapshot succeeds.
	Delete(ctx context.Context, cartID string) error
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsCorrupt() bool
	IsUnavailable() bool
}
