// Package kv implements cart snapshot persistence on top of the SQLite-backed
// key-value store.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	domain "github.com/lechic-cafe/api/internal/domain"
	"github.com/lechic-cafe/api/internal/platform/kvstore"
	"github.com/lechic-cafe/api/internal/repositories"
)

// DefaultSnapshotPrefix matches the storage key the original cart widget used,
// so existing snapshots keep loading across the migration.
const DefaultSnapshotPrefix = "leChicCart_v1"

// CartRepository serializes carts to JSON snapshots under a fixed key prefix.
type CartRepository struct {
	store  *kvstore.Store
	prefix string
}

// NewCartRepository constructs a key-value backed cart repository.
func NewCartRepository(store *kvstore.Store, prefix string) (*CartRepository, error) {
	if store == nil {
		return nil, errors.New("cart repository requires a key-value store")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultSnapshotPrefix
	}
	return &CartRepository{store: store, prefix: prefix}, nil
}

type cartSnapshot struct {
	ID        string         `json:"id"`
	Currency  string         `json:"currency"`
	Lines     []lineSnapshot `json:"lines"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type lineSnapshot struct {
	ItemID    string     `json:"item_id"`
	Name      string     `json:"name"`
	Price     int64      `json:"price"`
	Qty       int        `json:"qty"`
	AddedAt   time.Time  `json:"added_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Load deserializes the snapshot stored for cartID.
func (r *CartRepository) Load(ctx context.Context, cartID string) (domain.Cart, error) {
	if r == nil || r.store == nil {
		return domain.Cart{}, repositories.NewCartError("cart.load", repositories.CartErrorUnavailable, "repository not initialised", nil)
	}
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		return domain.Cart{}, repositories.NewCartError("cart.load", repositories.CartErrorUnknown, "cart id is required", nil)
	}

	raw, ok, err := r.store.Get(ctx, r.key(cartID))
	if err != nil {
		return domain.Cart{}, repositories.NewCartError("cart.load", repositories.CartErrorUnavailable, "snapshot read failed", err)
	}
	if !ok {
		return domain.Cart{}, repositories.NewCartError("cart.load", repositories.CartErrorNotFound, "no snapshot for cart", nil)
	}

	var snap cartSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.Cart{}, repositories.NewCartError("cart.load", repositories.CartErrorCorrupt, "snapshot decode failed", err)
	}

	cart := domain.Cart{
		ID:        cartID,
		Currency:  strings.ToUpper(strings.TrimSpace(snap.Currency)),
		Lines:     make([]domain.CartLine, 0, len(snap.Lines)),
		CreatedAt: snap.CreatedAt,
		UpdatedAt: snap.UpdatedAt,
	}
	for _, line := range snap.Lines {
		// Snapshots written by older versions may contain zero-quantity
		// lines; they never re-enter the cart.
		if strings.TrimSpace(line.ItemID) == "" || line.Qty <= 0 {
			continue
		}
		cart.Lines = append(cart.Lines, domain.CartLine{
			ItemID:    strings.TrimSpace(line.ItemID),
			Name:      line.Name,
			UnitPrice: line.Price,
			Quantity:  line.Qty,
			AddedAt:   line.AddedAt,
			UpdatedAt: line.UpdatedAt,
		})
	}
	return cart, nil
}

// Save serializes cart and stores the full snapshot.
func (r *CartRepository) Save(ctx context.Context, cart domain.Cart) error {
	if r == nil || r.store == nil {
		return repositories.NewCartError("cart.save", repositories.CartErrorUnavailable, "repository not initialised", nil)
	}
	cartID := strings.TrimSpace(cart.ID)
	if cartID == "" {
		return repositories.NewCartError("cart.save", repositories.CartErrorUnknown, "cart id is required", nil)
	}

	snap := cartSnapshot{
		ID:        cartID,
		Currency:  strings.ToUpper(strings.TrimSpace(cart.Currency)),
		Lines:     make([]lineSnapshot, 0, len(cart.Lines)),
		CreatedAt: cart.CreatedAt.UTC(),
		UpdatedAt: cart.UpdatedAt.UTC(),
	}
	for _, line := range cart.Lines {
		if line.Quantity <= 0 {
			continue
		}
		snap.Lines = append(snap.Lines, lineSnapshot{
			ItemID:    line.ItemID,
			Name:      line.Name,
			Price:     line.UnitPrice,
			Qty:       line.Quantity,
			AddedAt:   line.AddedAt.UTC(),
			UpdatedAt: line.UpdatedAt,
		})
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return repositories.NewCartError("cart.save", repositories.CartErrorUnknown, "snapshot encode failed", err)
	}
	if err := r.store.Put(ctx, r.key(cartID), raw); err != nil {
		return repositories.NewCartError("cart.save", repositories.CartErrorUnavailable, "snapshot write failed", err)
	}
	return nil
}

// Delete removes the stored snapshot for cartID.
func (r *CartRepository) Delete(ctx context.Context, cartID string) error {
	if r == nil || r.store == nil {
		return repositories.NewCartError("cart.delete", repositories.CartErrorUnavailable, "repository not initialised", nil)
	}
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		return repositories.NewCartError("cart.delete", repositories.CartErrorUnknown, "cart id is required", nil)
	}
	if err := r.store.Delete(ctx, r.key(cartID)); err != nil {
		return repositories.NewCartError("cart.delete", repositories.CartErrorUnavailable, "snapshot delete failed", err)
	}
	return nil
}

func (r *CartRepository) key(cartID string) string {
	return r.prefix + ":" + cartID
}
