package services

import (
	"strings"
	"testing"
	"time"

	domain "github.com/lechic-cafe/api/internal/domain"
)

func TestMessageBuilderBuild(t *testing.T) {
	builder := MessageBuilder{
		CafeName:      "Le Chic Café",
		PickupAddress: "KN 4 Ave, Kigali",
	}
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	cart := domain.Cart{
		ID:       "sess-1",
		Currency: "RWF",
		Lines: []domain.CartLine{
			{ItemID: "espresso", Name: "Espresso", UnitPrice: 1500, Quantity: 2, AddedAt: now},
			{ItemID: "croissant", Name: "Croissant", UnitPrice: 3000, Quantity: 1, AddedAt: now},
		},
	}
	customer := domain.CustomerInfo{
		Name:  "Aline",
		Phone: "+250 788 123 456",
		Notes: "No sugar",
	}

	got := builder.Build(cart, customer)
	want := strings.Join([]string{
		"*Order — Le Chic Café*",
		"Customer: Aline",
		"Phone: +250 788 123 456",
		"Notes: No sugar",
		"----------------",
		"2 × Espresso — RF 3,000",
		"1 × Croissant — RF 3,000",
		"----------------",
		"Total: RF 6,000",
		"Pickup: KN 4 Ave, Kigali",
	}, "\n")
	if got != want {
		t.Fatalf("message mismatch:\n got: %q\nwant: %q", got, want)
	}
}

func TestMessageBuilderOmitsEmptyNotes(t *testing.T) {
	builder := MessageBuilder{CafeName: "Le Chic Café", PickupAddress: "KN 4 Ave"}
	cart := domain.Cart{ID: "sess-1", Lines: []domain.CartLine{
		{ItemID: "latte", Name: "Latte", UnitPrice: 2500, Quantity: 1},
	}}
	got := builder.Build(cart, domain.CustomerInfo{Name: "Eric", Phone: "0788"})
	if strings.Contains(got, "Notes:") {
		t.Fatalf("expected Notes line to be omitted, got:\n%s", got)
	}
}

func TestMessageBuilderIncludesLocationLink(t *testing.T) {
	builder := MessageBuilder{CafeName: "Le Chic Café"}
	cart := domain.Cart{ID: "sess-1", Lines: []domain.CartLine{
		{ItemID: "latte", Name: "Latte", UnitPrice: 2500, Quantity: 1},
	}}
	customer := domain.CustomerInfo{
		Name:     "Eric",
		Phone:    "0788",
		Location: &domain.Location{Lat: -1.970579, Lng: 30.104429},
	}
	got := builder.Build(cart, customer)
	if !strings.Contains(got, "Location: https://maps.google.com/?q=-1.970579,30.104429") {
		t.Fatalf("expected location link, got:\n%s", got)
	}
}

func TestMessageBuilderSkipsZeroQuantityLines(t *testing.T) {
	builder := MessageBuilder{CafeName: "Le Chic Café"}
	cart := domain.Cart{ID: "sess-1", Lines: []domain.CartLine{
		{ItemID: "latte", Name: "Latte", UnitPrice: 2500, Quantity: 1},
		{ItemID: "ghost", Name: "Ghost", UnitPrice: 9000, Quantity: 0},
	}}
	got := builder.Build(cart, domain.CustomerInfo{Name: "Eric", Phone: "0788"})
	if strings.Contains(got, "Ghost") {
		t.Fatalf("expected zero quantity line to be skipped, got:\n%s", got)
	}
	if !strings.Contains(got, "Total: RF 2,500") {
		t.Fatalf("unexpected total:\n%s", got)
	}
}

func TestMessageBuilderSubject(t *testing.T) {
	builder := MessageBuilder{CafeName: "Le Chic Café"}
	if got := builder.Subject(domain.CustomerInfo{Name: "Aline"}); got != "New order from Aline" {
		t.Fatalf("subject = %q", got)
	}
	if got := builder.Subject(domain.CustomerInfo{}); got != "New order — Le Chic Café" {
		t.Fatalf("fallback subject = %q", got)
	}
}
