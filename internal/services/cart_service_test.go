package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/lechic-cafe/api/internal/domain"
	"github.com/lechic-cafe/api/internal/repositories"
)

type stubCartRepository struct {
	carts   map[string]domain.Cart
	loadErr error
	saveErr error
}

func newStubCartRepository() *stubCartRepository {
	return &stubCartRepository{carts: make(map[string]domain.Cart)}
}

func (s *stubCartRepository) Load(_ context.Context, cartID string) (domain.Cart, error) {
	if s.loadErr != nil {
		return domain.Cart{}, s.loadErr
	}
	cart, ok := s.carts[cartID]
	if !ok {
		return domain.Cart{}, repositories.NewCartError("load", repositories.CartErrorNotFound, "cart not found", nil)
	}
	return cart, nil
}

func (s *stubCartRepository) Save(_ context.Context, cart domain.Cart) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.carts[cart.ID] = cart
	return nil
}

func (s *stubCartRepository) Delete(_ context.Context, cartID string) error {
	if _, ok := s.carts[cartID]; !ok {
		return repositories.NewCartError("delete", repositories.CartErrorNotFound, "cart not found", nil)
	}
	delete(s.carts, cartID)
	return nil
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	}
}

func newTestCartService(t *testing.T, repo repositories.CartRepository) CartService {
	t.Helper()
	svc, err := NewCartService(CartServiceDeps{
		Repository: repo,
		Clock:      fixedClock(),
		Currency:   "RWF",
	})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	return svc
}

func TestNewCartServiceValidation(t *testing.T) {
	if _, err := NewCartService(CartServiceDeps{Clock: fixedClock()}); !errors.Is(err, errCartRepositoryRequired) {
		t.Fatalf("err = %v, want repository required", err)
	}
	if _, err := NewCartService(CartServiceDeps{Repository: newStubCartRepository()}); !errors.Is(err, errCartClockRequired) {
		t.Fatalf("err = %v, want clock required", err)
	}
}

func TestGetOrCreateCartReturnsEmptyCartWhenAbsent(t *testing.T) {
	svc := newTestCartService(t, newStubCartRepository())

	cart, err := svc.GetOrCreateCart(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("GetOrCreateCart: %v", err)
	}
	if cart.ID != "sess-1" || !cart.IsEmpty() || cart.Currency != "RWF" {
		t.Fatalf("unexpected cart: %+v", cart)
	}
}

func TestGetOrCreateCartDiscardsCorruptSnapshot(t *testing.T) {
	repo := newStubCartRepository()
	repo.loadErr = repositories.NewCartError("load", repositories.CartErrorCorrupt, "bad snapshot", nil)
	svc := newTestCartService(t, repo)

	cart, err := svc.GetOrCreateCart(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("GetOrCreateCart: %v", err)
	}
	if !cart.IsEmpty() {
		t.Fatalf("expected empty cart, got %+v", cart)
	}
}

func TestAddItemCreatesThenIncrements(t *testing.T) {
	repo := newStubCartRepository()
	svc := newTestCartService(t, repo)

	cart, err := svc.AddItem(context.Background(), AddItemCommand{
		CartID: "sess-1",
		ItemID: "espresso",
		Name:   "  Espresso ",
		Price:  "RF 1,500",
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(cart.Lines))
	}
	line := cart.Lines[0]
	if line.Name != "Espresso" || line.UnitPrice != 1500 || line.Quantity != 1 {
		t.Fatalf("unexpected line: %+v", line)
	}

	cart, err = svc.AddItem(context.Background(), AddItemCommand{
		CartID: "sess-1",
		ItemID: "espresso",
		Name:   "Espresso",
		Price:  1500,
	})
	if err != nil {
		t.Fatalf("AddItem again: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2 on one line, got %+v", cart.Lines)
	}
	if cart.Total() != 3000 {
		t.Fatalf("total = %d, want 3000", cart.Total())
	}

	if stored, ok := repo.carts["sess-1"]; !ok || stored.Total() != 3000 {
		t.Fatalf("expected persisted cart, got %+v", stored)
	}
}

func TestAddItemHonoursQuantity(t *testing.T) {
	svc := newTestCartService(t, newStubCartRepository())
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, AddItemCommand{CartID: "sess-1", ItemID: "latte", Name: "Latte", Price: 2500, Quantity: 3})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if cart.Lines[0].Quantity != 3 || cart.Total() != 7500 {
		t.Fatalf("unexpected cart: qty=%d total=%d", cart.Lines[0].Quantity, cart.Total())
	}

	cart, err = svc.AddItem(ctx, AddItemCommand{CartID: "sess-1", ItemID: "latte", Name: "Latte", Price: 2500, Quantity: 2})
	if err != nil {
		t.Fatalf("AddItem again: %v", err)
	}
	if cart.Lines[0].Quantity != 5 {
		t.Fatalf("quantity = %d, want 5", cart.Lines[0].Quantity)
	}
}

func TestAddItemRejectsInvalidInput(t *testing.T) {
	svc := newTestCartService(t, newStubCartRepository())

	cases := []AddItemCommand{
		{ItemID: "espresso", Name: "Espresso"},
		{CartID: "sess-1", Name: "Espresso"},
		{CartID: "sess-1", ItemID: "espresso"},
		{CartID: "  ", ItemID: "espresso", Name: "Espresso"},
		{CartID: "sess-1", ItemID: "espresso", Name: "Espresso", Quantity: -1},
		{CartID: "sess-1", ItemID: "espresso", Name: "Espresso", Quantity: 500},
	}
	for _, cmd := range cases {
		if _, err := svc.AddItem(context.Background(), cmd); !errors.Is(err, ErrCartInvalidInput) {
			t.Fatalf("cmd %+v: err = %v, want ErrCartInvalidInput", cmd, err)
		}
	}
}

func TestIncrementItem(t *testing.T) {
	svc := newTestCartService(t, newStubCartRepository())
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, AddItemCommand{CartID: "sess-1", ItemID: "latte", Name: "Latte", Price: 2500}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cart, err := svc.IncrementItem(ctx, AdjustItemCommand{CartID: "sess-1", ItemID: "latte"})
	if err != nil {
		t.Fatalf("IncrementItem: %v", err)
	}
	if cart.Lines[0].Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", cart.Lines[0].Quantity)
	}
}

func TestIncrementItemMissingLine(t *testing.T) {
	svc := newTestCartService(t, newStubCartRepository())

	_, err := svc.IncrementItem(context.Background(), AdjustItemCommand{CartID: "sess-1", ItemID: "ghost"})
	if !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("err = %v, want ErrCartItemNotFound", err)
	}
}

func TestDecrementItemRemovesLineAtZero(t *testing.T) {
	svc := newTestCartService(t, newStubCartRepository())
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, AddItemCommand{CartID: "sess-1", ItemID: "latte", Name: "Latte", Price: 2500}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cart, err := svc.DecrementItem(ctx, AdjustItemCommand{CartID: "sess-1", ItemID: "latte"})
	if err != nil {
		t.Fatalf("DecrementItem: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Fatalf("expected line removed, got %+v", cart.Lines)
	}
}

func TestReplaceCartInstallsSingleLine(t *testing.T) {
	repo := newStubCartRepository()
	svc := newTestCartService(t, repo)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, AddItemCommand{CartID: "sess-1", ItemID: "latte", Name: "Latte", Price: 2500}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cart, err := svc.ReplaceCart(ctx, ReplaceCartCommand{CartID: "sess-1", ItemID: "cake", Name: "Cake", Price: "4000"})
	if err != nil {
		t.Fatalf("ReplaceCart: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].ItemID != "cake" || cart.Lines[0].Quantity != 1 {
		t.Fatalf("unexpected cart: %+v", cart.Lines)
	}
	if cart.Total() != 4000 {
		t.Fatalf("total = %d, want 4000", cart.Total())
	}
}

func TestClearCart(t *testing.T) {
	repo := newStubCartRepository()
	svc := newTestCartService(t, repo)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, AddItemCommand{CartID: "sess-1", ItemID: "latte", Name: "Latte", Price: 2500}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := svc.ClearCart(ctx, "sess-1"); err != nil {
		t.Fatalf("ClearCart: %v", err)
	}
	if _, ok := repo.carts["sess-1"]; ok {
		t.Fatal("expected cart deleted from repository")
	}
	// Clearing again is a no-op.
	if err := svc.ClearCart(ctx, "sess-1"); err != nil {
		t.Fatalf("ClearCart on absent cart: %v", err)
	}
}

func TestCartServiceTranslatesRepositoryFailures(t *testing.T) {
	repo := newStubCartRepository()
	repo.saveErr = repositories.NewCartError("save", repositories.CartErrorUnavailable, "db down", errors.New("io"))
	svc := newTestCartService(t, repo)

	_, err := svc.AddItem(context.Background(), AddItemCommand{CartID: "sess-1", ItemID: "latte", Name: "Latte", Price: 2500})
	if !errors.Is(err, ErrCartUnavailable) {
		t.Fatalf("err = %v, want ErrCartUnavailable", err)
	}
}
