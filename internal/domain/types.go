package domain

import (
	"time"
)

// Cart aggregates the mutable shopping cart state for one ordering session.
// Lines keep insertion order so the rendered cart and the order message list
// items in the order the customer added them.
type Cart struct {
	ID        string
	Currency  string
	Lines     []CartLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLine stores a single menu item entry within a cart. A line with
// Quantity <= 0 must never be persisted; mutations remove it instead.
type CartLine struct {
	ItemID    string
	Name      string
	UnitPrice int64
	Quantity  int
	AddedAt   time.Time
	UpdatedAt *time.Time
}

// Total recomputes the cart total from its lines. Totals are derived on every
// call rather than cached alongside the cart.
func (c Cart) Total() int64 {
	var total int64
	for _, line := range c.Lines {
		if line.Quantity <= 0 || line.UnitPrice < 0 {
			continue
		}
		total += line.UnitPrice * int64(line.Quantity)
	}
	return total
}

// ItemCount sums the quantities across all lines.
func (c Cart) ItemCount() int {
	var count int
	for _, line := range c.Lines {
		if line.Quantity > 0 {
			count += line.Quantity
		}
	}
	return count
}

// IsEmpty reports whether the cart holds no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// CustomerInfo carries the customer-supplied fields collected at order
// submission. It is transient and never persisted.
type CustomerInfo struct {
	Name     string
	Phone    string
	Notes    string
	Location *Location
}

// Location is an optional device position attached to an order.
type Location struct {
	Lat float64
	Lng float64
}

// MapLink renders the shareable maps URL for the location.
func (l Location) MapLink() string {
	// %.6f keeps roughly 10cm precision, enough for a pickup pin.
	return "https://maps.google.com/?q=" + formatCoord(l.Lat) + "," + formatCoord(l.Lng)
}

// Order captures the immutable receipt of a dispatched order.
type Order struct {
	ID        string
	CartID    string
	Customer  CustomerInfo
	Lines     []CartLine
	Total     int64
	Message   string
	Status    OrderStatus
	CreatedAt time.Time
}

// OrderStatus enumerates the terminal states of the dispatch flow.
type OrderStatus string

const (
	// OrderStatusSent indicates the relay accepted the order.
	OrderStatusSent OrderStatus = "sent"
	// OrderStatusFallback indicates the relay failed and the order must be
	// completed via the pre-filled mail compose link.
	OrderStatusFallback OrderStatus = "fallback"
)
