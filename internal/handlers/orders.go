package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/lechic-cafe/api/internal/domain"
	"github.com/lechic-cafe/api/internal/platform/httpx"
	"github.com/lechic-cafe/api/internal/services"
)

const maxOrderBodySize = 32 * 1024

// OrderHandlers exposes order submission for the current cart session.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers constructs handlers backed by the order service.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes wires the /orders endpoints onto the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.placeOrder)
}

type placeOrderRequest struct {
	Name     string           `json:"name"`
	Phone    string           `json:"phone"`
	Notes    string           `json:"notes"`
	Location *locationPayload `json:"location"`
}

type locationPayload struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type orderPayload struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Total     int64  `json:"total"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

type placeOrderResponse struct {
	Order        orderPayload `json:"order"`
	WhatsAppLink string       `json:"whatsappLink,omitempty"`
	MailtoLink   string       `json:"mailtoLink,omitempty"`
	CartCleared  bool         `json:"cartCleared"`
}

func (h *OrderHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}
	session, ok := cartSessionFromRequest(r)
	if !ok {
		writeMissingSession(w, r)
		return
	}

	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req placeOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest))
		return
	}

	customer := domain.CustomerInfo{
		Name:  req.Name,
		Phone: req.Phone,
		Notes: req.Notes,
	}
	if req.Location != nil {
		customer.Location = &domain.Location{Lat: req.Location.Lat, Lng: req.Location.Lng}
	}

	result, err := h.orders.PlaceOrder(ctx, services.PlaceOrderCommand{
		CartID:   session,
		Customer: customer,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	// Fallback is still a 200: the order content is preserved and the client
	// is handed the compose links to finish delivery.
	writeJSONResponse(w, http.StatusOK, placeOrderResponse{
		Order: orderPayload{
			ID:        result.Order.ID,
			Status:    string(result.Order.Status),
			Total:     result.Order.Total,
			Message:   result.Order.Message,
			CreatedAt: result.Order.CreatedAt.UTC().Format(time.RFC3339),
		},
		WhatsAppLink: result.WhatsAppLink,
		MailtoLink:   result.MailtoLink,
		CartCleared:  result.CartCleared,
	})
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "customer name and phone are required", http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderCartEmpty):
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cart is empty", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrOrderInFlight):
		httpx.WriteError(ctx, w, httpx.NewError("order_in_flight", "an order for this cart is already being submitted", http.StatusConflict))
	case errors.Is(err, services.ErrCartUnavailable), errors.Is(err, services.ErrOrderUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to place order", http.StatusInternalServerError))
	}
}
