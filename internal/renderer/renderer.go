package renderer

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	domain "github.com/lechic-cafe/api/internal/domain"
)

// cartTemplate projects a cart snapshot into the fragment embedded by the
// storefront. Quantity controls carry the item id so the page script can call
// the matching cart endpoints and swap the fragment back in.
const cartTemplate = `<div class="cart" data-count="{{.ItemCount}}">
{{- if .Empty}}
  <p class="cart-empty">Your cart is empty.</p>
{{- else}}
  <ul class="cart-lines">
{{- range .Lines}}
    <li class="cart-line" data-item-id="{{.ItemID}}">
      <span class="cart-line-name">{{.Name}}</span>
      <span class="cart-line-qty">
        <button type="button" class="qty-dec" data-item-id="{{.ItemID}}">−</button>
        {{.Quantity}} × {{.UnitPrice}}
        <button type="button" class="qty-inc" data-item-id="{{.ItemID}}">+</button>
      </span>
      <span class="cart-line-subtotal">{{.Subtotal}}</span>
    </li>
{{- end}}
  </ul>
{{- end}}
{{- if .Notes}}
  <p class="cart-notes">{{.Notes}}</p>
{{- end}}
  <p class="cart-total">Total: <strong>{{.Total}}</strong></p>
</div>`

type lineView struct {
	ItemID    string
	Name      string
	Quantity  int
	UnitPrice string
	Subtotal  string
}

type cartView struct {
	Empty     bool
	Lines     []lineView
	ItemCount int
	Total     string
	Notes     string
}

// Renderer produces the HTML cart fragment served by the cart view endpoint.
type Renderer struct {
	tmpl   *template.Template
	policy *bluemonday.Policy
}

// New constructs a Renderer with the strict sanitisation policy for notes.
func New() *Renderer {
	return &Renderer{
		tmpl:   template.Must(template.New("cart").Parse(cartTemplate)),
		policy: bluemonday.StrictPolicy(),
	}
}

// Render projects the cart into an HTML fragment. Notes is optional customer
// text echoed back on the view; it is stripped of any markup before escaping.
func (r *Renderer) Render(cart domain.Cart, notes string) (string, error) {
	view := cartView{
		Empty:     cart.IsEmpty(),
		ItemCount: cart.ItemCount(),
		Total:     domain.FormatMoney(cart.Total()),
		Notes:     strings.TrimSpace(r.policy.Sanitize(notes)),
	}
	for _, line := range cart.Lines {
		if line.Quantity <= 0 {
			continue
		}
		view.Lines = append(view.Lines, lineView{
			ItemID:    line.ItemID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: domain.FormatMoney(line.UnitPrice),
			Subtotal:  domain.FormatMoney(int64(line.Quantity) * line.UnitPrice),
		})
	}

	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, view); err != nil {
		return "", fmt.Errorf("renderer: execute template: %w", err)
	}
	return sb.String(), nil
}
