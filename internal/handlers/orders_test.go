package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/lechic-cafe/api/internal/domain"
	"github.com/lechic-cafe/api/internal/services"
)

type stubOrderService struct {
	placeOrderFunc func(ctx context.Context, cmd services.PlaceOrderCommand) (services.PlaceOrderResult, error)
}

func (s *stubOrderService) PlaceOrder(ctx context.Context, cmd services.PlaceOrderCommand) (services.PlaceOrderResult, error) {
	if s.placeOrderFunc == nil {
		return services.PlaceOrderResult{}, nil
	}
	return s.placeOrderFunc(ctx, cmd)
}

func newOrderRouter(service services.OrderService) chi.Router {
	handler := NewOrderHandlers(service)
	router := chi.NewRouter()
	router.Route("/orders", handler.Routes)
	return router
}

func TestOrderHandlersPlaceOrder(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	var captured services.PlaceOrderCommand
	service := &stubOrderService{
		placeOrderFunc: func(_ context.Context, cmd services.PlaceOrderCommand) (services.PlaceOrderResult, error) {
			captured = cmd
			return services.PlaceOrderResult{
				Order: domain.Order{
					ID:        "ORDER-1",
					Status:    domain.OrderStatusSent,
					Total:     3000,
					Message:   "*Order — Le Chic Café*",
					CreatedAt: now,
				},
				WhatsAppLink: "https://wa.me/250788000111?text=hi",
				CartCleared:  true,
			}, nil
		},
	}
	router := newOrderRouter(service)

	body := strings.NewReader(`{"name":"Aline","phone":"0788123456","notes":"No sugar","location":{"lat":-1.9,"lng":30.1}}`)
	req := withSession(httptest.NewRequest(http.MethodPost, "/orders", body), "sess-7")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if captured.CartID != "sess-7" || captured.Customer.Name != "Aline" {
		t.Fatalf("unexpected command: %+v", captured)
	}
	if captured.Customer.Location == nil || captured.Customer.Location.Lat != -1.9 {
		t.Fatalf("location not forwarded: %+v", captured.Customer.Location)
	}

	var payload placeOrderResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Order.ID != "ORDER-1" || payload.Order.Status != "sent" {
		t.Fatalf("unexpected order payload: %+v", payload.Order)
	}
	if !payload.CartCleared || payload.WhatsAppLink == "" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestOrderHandlersFallbackStillSucceeds(t *testing.T) {
	service := &stubOrderService{
		placeOrderFunc: func(_ context.Context, _ services.PlaceOrderCommand) (services.PlaceOrderResult, error) {
			return services.PlaceOrderResult{
				Order:      domain.Order{ID: "ORDER-1", Status: domain.OrderStatusFallback},
				MailtoLink: "mailto:orders@lechic.example?subject=x",
			}, nil
		},
	}
	router := newOrderRouter(service)

	body := strings.NewReader(`{"name":"Aline","phone":"0788123456"}`)
	req := withSession(httptest.NewRequest(http.MethodPost, "/orders", body), "sess-7")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var payload placeOrderResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Order.Status != "fallback" || payload.MailtoLink == "" || payload.CartCleared {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestOrderHandlersErrorTranslation(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid", services.ErrOrderInvalidInput, http.StatusBadRequest, "invalid_request"},
		{"empty", services.ErrOrderCartEmpty, http.StatusUnprocessableEntity, "cart_empty"},
		{"inflight", services.ErrOrderInFlight, http.StatusConflict, "order_in_flight"},
		{"unavailable", services.ErrOrderUnavailable, http.StatusServiceUnavailable, "order_service_unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := &stubOrderService{
				placeOrderFunc: func(_ context.Context, _ services.PlaceOrderCommand) (services.PlaceOrderResult, error) {
					return services.PlaceOrderResult{}, tc.err
				},
			}
			router := newOrderRouter(service)

			body := strings.NewReader(`{"name":"Aline","phone":"0788"}`)
			req := withSession(httptest.NewRequest(http.MethodPost, "/orders", body), "sess-7")
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			if !strings.Contains(rr.Body.String(), tc.wantCode) {
				t.Fatalf("body = %s, want code %q", rr.Body.String(), tc.wantCode)
			}
		})
	}
}

func TestOrderHandlersMissingSession(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})

	body := strings.NewReader(`{"name":"Aline","phone":"0788"}`)
	req := httptest.NewRequest(http.MethodPost, "/orders", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestOrderHandlersInvalidBody(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})

	req := withSession(httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("{oops")), "sess-7")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}
