package services

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/lechic-cafe/api/internal/domain"
	"github.com/lechic-cafe/api/internal/repositories"
)

var (
	errCartRepositoryRequired = errors.New("cart service: repository is required")
	errCartClockRequired      = errors.New("cart service: clock is required")
)

const (
	maxItemNameLength = 200
	maxLineQuantity   = 99
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartUnavailable indicates the cart service cannot fulfil the request due to missing dependencies or backend issues.
var ErrCartUnavailable = errors.New("cart service: unavailable")

// ErrCartItemNotFound indicates the targeted line is not present in the cart.
var ErrCartItemNotFound = errors.New("cart service: item not found")

// CartServiceDeps wires the repository and ambient dependencies for cart operations.
type CartServiceDeps struct {
	Repository repositories.CartRepository
	Clock      func() time.Time
	Currency   string
	Logger     func(context.Context, string, map[string]any)
}

type cartService struct {
	repo     repositories.CartRepository
	now      func() time.Time
	currency string
	logger   func(context.Context, string, map[string]any)
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Repository == nil {
		return nil, errCartRepositoryRequired
	}
	if deps.Clock == nil {
		return nil, errCartClockRequired
	}

	currency := strings.ToUpper(strings.TrimSpace(deps.Currency))
	if currency == "" {
		currency = "RWF"
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &cartService{
		repo:     deps.Repository,
		now:      func() time.Time { return deps.Clock().UTC() },
		currency: currency,
		logger:   logger,
	}, nil
}

// GetOrCreateCart loads the cart for the session, returning a fresh empty
// cart when none is stored. Corrupt snapshots are discarded rather than
// surfaced to the caller.
func (s *cartService) GetOrCreateCart(ctx context.Context, cartID string) (domain.Cart, error) {
	if s == nil || s.repo == nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	id := strings.TrimSpace(cartID)
	if id == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}
	return s.loadOrNew(ctx, id)
}

// AddItem appends a menu item to the cart, incrementing the quantity when a
// line with the same item id already exists.
func (s *cartService) AddItem(ctx context.Context, cmd AddItemCommand) (domain.Cart, error) {
	if s == nil || s.repo == nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	id := strings.TrimSpace(cmd.CartID)
	itemID := strings.TrimSpace(cmd.ItemID)
	name := strings.TrimSpace(cmd.Name)
	if id == "" || itemID == "" || name == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}
	qty := cmd.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 || qty > maxLineQuantity {
		return domain.Cart{}, ErrCartInvalidInput
	}
	if len(name) > maxItemNameLength {
		name = name[:maxItemNameLength]
	}

	cart, err := s.loadOrNew(ctx, id)
	if err != nil {
		return domain.Cart{}, err
	}

	now := s.now()
	found := false
	for i := range cart.Lines {
		if cart.Lines[i].ItemID == itemID {
			cart.Lines[i].Quantity += qty
			if cart.Lines[i].Quantity > maxLineQuantity {
				cart.Lines[i].Quantity = maxLineQuantity
			}
			cart.Lines[i].UpdatedAt = &now
			found = true
			break
		}
	}
	if !found {
		cart.Lines = append(cart.Lines, domain.CartLine{
			ItemID:    itemID,
			Name:      name,
			UnitPrice: domain.ParsePrice(cmd.Price),
			Quantity:  qty,
			AddedAt:   now,
		})
	}
	cart.UpdatedAt = now

	if err := s.repo.Save(ctx, cart); err != nil {
		return domain.Cart{}, s.translateRepoError(err)
	}
	s.logger(ctx, "cart.item_added", map[string]any{
		"cartID": id,
		"itemID": itemID,
		"lines":  len(cart.Lines),
	})
	return cart, nil
}

// IncrementItem raises the quantity of an existing line by one.
func (s *cartService) IncrementItem(ctx context.Context, cmd AdjustItemCommand) (domain.Cart, error) {
	return s.adjustItem(ctx, cmd, 1)
}

// DecrementItem lowers the quantity of an existing line by one, removing the
// line entirely when the quantity reaches zero.
func (s *cartService) DecrementItem(ctx context.Context, cmd AdjustItemCommand) (domain.Cart, error) {
	return s.adjustItem(ctx, cmd, -1)
}

func (s *cartService) adjustItem(ctx context.Context, cmd AdjustItemCommand, delta int) (domain.Cart, error) {
	if s == nil || s.repo == nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	id := strings.TrimSpace(cmd.CartID)
	itemID := strings.TrimSpace(cmd.ItemID)
	if id == "" || itemID == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}

	cart, err := s.loadOrNew(ctx, id)
	if err != nil {
		return domain.Cart{}, err
	}

	idx := -1
	for i := range cart.Lines {
		if cart.Lines[i].ItemID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Cart{}, ErrCartItemNotFound
	}

	now := s.now()
	cart.Lines[idx].Quantity += delta
	cart.Lines[idx].UpdatedAt = &now
	if cart.Lines[idx].Quantity <= 0 {
		cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
	}
	cart.UpdatedAt = now

	if err := s.repo.Save(ctx, cart); err != nil {
		return domain.Cart{}, s.translateRepoError(err)
	}
	return cart, nil
}

// ReplaceCart discards the current contents and installs a single line with
// quantity one. Backs the buy-now flow.
func (s *cartService) ReplaceCart(ctx context.Context, cmd ReplaceCartCommand) (domain.Cart, error) {
	if s == nil || s.repo == nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	id := strings.TrimSpace(cmd.CartID)
	itemID := strings.TrimSpace(cmd.ItemID)
	name := strings.TrimSpace(cmd.Name)
	if id == "" || itemID == "" || name == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}
	if len(name) > maxItemNameLength {
		name = name[:maxItemNameLength]
	}

	now := s.now()
	cart := s.newCart(id)
	cart.Lines = []domain.CartLine{{
		ItemID:    itemID,
		Name:      name,
		UnitPrice: domain.ParsePrice(cmd.Price),
		Quantity:  1,
		AddedAt:   now,
	}}
	cart.UpdatedAt = now

	if err := s.repo.Save(ctx, cart); err != nil {
		return domain.Cart{}, s.translateRepoError(err)
	}
	s.logger(ctx, "cart.replaced", map[string]any{
		"cartID": id,
		"itemID": itemID,
	})
	return cart, nil
}

// ClearCart removes the stored cart. Clearing an absent cart is not an error.
func (s *cartService) ClearCart(ctx context.Context, cartID string) error {
	if s == nil || s.repo == nil {
		return ErrCartUnavailable
	}
	id := strings.TrimSpace(cartID)
	if id == "" {
		return ErrCartInvalidInput
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if isRepoNotFound(err) {
			return nil
		}
		return s.translateRepoError(err)
	}
	s.logger(ctx, "cart.cleared", map[string]any{"cartID": id})
	return nil
}

func (s *cartService) loadOrNew(ctx context.Context, cartID string) (domain.Cart, error) {
	cart, err := s.repo.Load(ctx, cartID)
	if err != nil {
		if isRepoNotFound(err) {
			return s.newCart(cartID), nil
		}
		if isRepoCorrupt(err) {
			s.logger(ctx, "cart.snapshot_corrupt", map[string]any{"cartID": cartID})
			return s.newCart(cartID), nil
		}
		return domain.Cart{}, s.translateRepoError(err)
	}
	if cart.Currency == "" {
		cart.Currency = s.currency
	}
	return cart, nil
}

func (s *cartService) newCart(cartID string) domain.Cart {
	now := s.now()
	return domain.Cart{
		ID:        cartID,
		Currency:  s.currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *cartService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrCartItemNotFound
		default:
			return ErrCartUnavailable
		}
	}
	return ErrCartUnavailable
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func isRepoCorrupt(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsCorrupt()
}
