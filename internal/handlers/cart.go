package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/lechic-cafe/api/internal/domain"
	"github.com/lechic-cafe/api/internal/platform/httpx"
	"github.com/lechic-cafe/api/internal/renderer"
	"github.com/lechic-cafe/api/internal/services"
)

const maxCartBodySize = 16 * 1024

var (
	errEmptyBody    = errors.New("request body is empty")
	errBodyTooLarge = errors.New("request body exceeds allowed size")
)

// CartHandlers exposes the session scoped cart endpoints.
type CartHandlers struct {
	carts services.CartService
	view  *renderer.Renderer
}

// NewCartHandlers constructs handlers backed by the cart service and renderer.
func NewCartHandlers(carts services.CartService, view *renderer.Renderer) *CartHandlers {
	return &CartHandlers{
		carts: carts,
		view:  view,
	}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Get("/view", h.getCartView)
	r.Post("/items", h.addItem)
	r.Post("/items/{itemId}/increment", h.incrementItem)
	r.Post("/items/{itemId}/decrement", h.decrementItem)
	r.Post("/buy-now", h.buyNow)
	r.Delete("/", h.clearCart)
}

type cartLinePayload struct {
	ItemID    string `json:"itemId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

type cartPayload struct {
	ID           string            `json:"id"`
	Currency     string            `json:"currency"`
	Lines        []cartLinePayload `json:"lines"`
	ItemCount    int               `json:"itemCount"`
	Total        int64             `json:"total"`
	TotalDisplay string            `json:"totalDisplay"`
	UpdatedAt    string            `json:"updatedAt,omitempty"`
}

type cartResponse struct {
	Cart cartPayload `json:"cart"`
}

type cartItemRequest struct {
	ItemID   string          `json:"itemId"`
	Name     string          `json:"name"`
	Price    json.RawMessage `json:"price"`
	Quantity int             `json:"quantity"`
}

func buildCartPayload(cart domain.Cart) cartPayload {
	payload := cartPayload{
		ID:           cart.ID,
		Currency:     cart.Currency,
		Lines:        []cartLinePayload{},
		ItemCount:    cart.ItemCount(),
		Total:        cart.Total(),
		TotalDisplay: domain.FormatMoney(cart.Total()),
	}
	if !cart.UpdatedAt.IsZero() {
		payload.UpdatedAt = cart.UpdatedAt.UTC().Format(time.RFC3339)
	}
	for _, line := range cart.Lines {
		if line.Quantity <= 0 {
			continue
		}
		payload.Lines = append(payload.Lines, cartLinePayload{
			ItemID:    line.ItemID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Subtotal:  int64(line.Quantity) * line.UnitPrice,
		})
	}
	return payload
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := cartSessionFromRequest(r)
	if !ok {
		writeMissingSession(w, r)
		return
	}

	cart, err := h.carts.GetOrCreateCart(ctx, session)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) getCartView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := cartSessionFromRequest(r)
	if !ok {
		writeMissingSession(w, r)
		return
	}
	if h.view == nil {
		httpx.WriteError(ctx, w, httpx.NewError("renderer_unavailable", "cart view is unavailable", http.StatusServiceUnavailable))
		return
	}

	cart, err := h.carts.GetOrCreateCart(ctx, session)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	fragment, err := h.view.Render(cart, r.URL.Query().Get("notes"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("render_failed", "failed to render cart", http.StatusInternalServerError))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, fragment)
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := cartSessionFromRequest(r)
	if !ok {
		writeMissingSession(w, r)
		return
	}

	req, err := decodeCartItemRequest(r)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	cart, err := h.carts.AddItem(ctx, services.AddItemCommand{
		CartID:   session,
		ItemID:   req.ItemID,
		Name:     req.Name,
		Price:    rawPriceValue(req.Price),
		Quantity: req.Quantity,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) incrementItem(w http.ResponseWriter, r *http.Request) {
	h.adjustItem(w, r, h.carts.IncrementItem)
}

func (h *CartHandlers) decrementItem(w http.ResponseWriter, r *http.Request) {
	h.adjustItem(w, r, h.carts.DecrementItem)
}

func (h *CartHandlers) adjustItem(w http.ResponseWriter, r *http.Request, op func(context.Context, services.AdjustItemCommand) (domain.Cart, error)) {
	ctx := r.Context()
	session, ok := cartSessionFromRequest(r)
	if !ok {
		writeMissingSession(w, r)
		return
	}

	itemID := strings.TrimSpace(chi.URLParam(r, "itemId"))
	if itemID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "item id is required", http.StatusBadRequest))
		return
	}

	cart, err := op(ctx, services.AdjustItemCommand{CartID: session, ItemID: itemID})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) buyNow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := cartSessionFromRequest(r)
	if !ok {
		writeMissingSession(w, r)
		return
	}

	req, err := decodeCartItemRequest(r)
	if errors.Is(err, errEmptyBody) {
		req, err = buyNowRequestFromQuery(r)
	}
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	cart, err := h.carts.ReplaceCart(ctx, services.ReplaceCartCommand{
		CartID: session,
		ItemID: req.ItemID,
		Name:   req.Name,
		Price:  rawPriceValue(req.Price),
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := cartSessionFromRequest(r)
	if !ok {
		writeMissingSession(w, r)
		return
	}

	if err := h.carts.ClearCart(ctx, session); err != nil {
		writeCartError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeCartItemRequest(r *http.Request) (cartItemRequest, error) {
	var req cartItemRequest
	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("invalid JSON payload: %w", err)
	}
	return req, nil
}

// buyNowRequestFromQuery accepts the link-style buy-now form where the item
// rides in the query string instead of a JSON body.
func buyNowRequestFromQuery(r *http.Request) (cartItemRequest, error) {
	q := r.URL.Query()
	item := strings.TrimSpace(q.Get("item"))
	if item == "" {
		return cartItemRequest{}, errEmptyBody
	}
	name := strings.TrimSpace(q.Get("name"))
	if name == "" {
		name = item
	}
	return cartItemRequest{
		ItemID: item,
		Name:   name,
		Price:  json.RawMessage(strconv.Quote(q.Get("price"))),
	}, nil
}

// rawPriceValue surfaces the price field as whatever JSON type the client
// sent; the price parser owns leniency.
func rawPriceValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return strings.Trim(string(raw), `"`)
	}
	return value
}

func writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartItemNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("cart_item_not_found", "item not found in cart", http.StatusNotFound))
	case errors.Is(err, services.ErrCartUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "failed to process cart request", http.StatusInternalServerError))
	}
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = maxCartBodySize
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	httpx.WriteJSON(w, status, payload)
}
