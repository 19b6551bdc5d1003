package services

import (
	"fmt"
	"strings"

	domain "github.com/lechic-cafe/api/internal/domain"
)

// MessageBuilder renders the plain text order summary shared with the cafe
// over the relay and WhatsApp.
type MessageBuilder struct {
	CafeName      string
	PickupAddress string
}

// Build produces the order text. Lines follow the agreed notation the cafe
// staff read on their phones, so the layout is load bearing.
func (b MessageBuilder) Build(cart domain.Cart, customer domain.CustomerInfo) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "*Order — %s*\n", strings.TrimSpace(b.CafeName))
	fmt.Fprintf(&sb, "Customer: %s\n", strings.TrimSpace(customer.Name))
	fmt.Fprintf(&sb, "Phone: %s\n", strings.TrimSpace(customer.Phone))
	if notes := strings.TrimSpace(customer.Notes); notes != "" {
		fmt.Fprintf(&sb, "Notes: %s\n", notes)
	}
	if customer.Location != nil {
		fmt.Fprintf(&sb, "Location: %s\n", customer.Location.MapLink())
	}
	sb.WriteString("----------------\n")
	for _, line := range cart.Lines {
		if line.Quantity <= 0 {
			continue
		}
		subtotal := int64(line.Quantity) * line.UnitPrice
		fmt.Fprintf(&sb, "%d × %s — %s\n", line.Quantity, line.Name, domain.FormatMoney(subtotal))
	}
	sb.WriteString("----------------\n")
	fmt.Fprintf(&sb, "Total: %s\n", domain.FormatMoney(cart.Total()))
	if addr := strings.TrimSpace(b.PickupAddress); addr != "" {
		fmt.Fprintf(&sb, "Pickup: %s", addr)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Subject derives the relay email subject from the customer name.
func (b MessageBuilder) Subject(customer domain.CustomerInfo) string {
	name := strings.TrimSpace(customer.Name)
	if name == "" {
		return fmt.Sprintf("New order — %s", strings.TrimSpace(b.CafeName))
	}
	return fmt.Sprintf("New order from %s", name)
}
