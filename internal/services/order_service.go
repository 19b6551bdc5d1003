package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/lechic-cafe/api/internal/domain"
	"github.com/lechic-cafe/api/internal/relay"
)

var (
	errOrderCartsRequired = errors.New("order service: cart service is required")
	errOrderRelayRequired = errors.New("order service: relay is required")
	errOrderClockRequired = errors.New("order service: clock is required")
)

// ErrOrderInvalidInput indicates the customer details failed validation.
var ErrOrderInvalidInput = errors.New("order service: invalid input")

// ErrOrderCartEmpty indicates there is nothing in the cart to order.
var ErrOrderCartEmpty = errors.New("order service: cart is empty")

// ErrOrderInFlight indicates a submission for the same cart is already running.
var ErrOrderInFlight = errors.New("order service: submission in flight")

// ErrOrderUnavailable indicates the order service cannot fulfil the request.
var ErrOrderUnavailable = errors.New("order service: unavailable")

// OrderRelay submits the order text and customer fields to the email relay.
type OrderRelay interface {
	Submit(ctx context.Context, sub relay.Submission) error
}

// Locator resolves a device position for the order. Implementations are
// expected to respect the context deadline.
type Locator interface {
	Locate(ctx context.Context) (domain.Location, error)
}

// OrderServiceDeps wires collaborators for order submission.
type OrderServiceDeps struct {
	Carts            CartService
	Relay            OrderRelay
	Builder          MessageBuilder
	Locator          Locator
	LocateTimeout    time.Duration
	WhatsAppNumber   string
	RelayEmail       string
	FallbackWhatsApp bool
	Clock            func() time.Time
	Logger           func(context.Context, string, map[string]any)
	IDGenerator      func() string
}

type orderService struct {
	carts            CartService
	relay            OrderRelay
	builder          MessageBuilder
	locator          Locator
	locateTimeout    time.Duration
	whatsAppNumber   string
	relayEmail       string
	fallbackWhatsApp bool
	now              func() time.Time
	newID            func() string
	logger           func(context.Context, string, map[string]any)

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewOrderService constructs an OrderService enforcing dependency validation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Carts == nil {
		return nil, errOrderCartsRequired
	}
	if deps.Relay == nil {
		return nil, errOrderRelayRequired
	}
	if deps.Clock == nil {
		return nil, errOrderClockRequired
	}

	locateTimeout := deps.LocateTimeout
	if locateTimeout <= 0 {
		locateTimeout = 8 * time.Second
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	return &orderService{
		carts:            deps.Carts,
		relay:            deps.Relay,
		builder:          deps.Builder,
		locator:          deps.Locator,
		locateTimeout:    locateTimeout,
		whatsAppNumber:   strings.TrimSpace(deps.WhatsAppNumber),
		relayEmail:       strings.TrimSpace(deps.RelayEmail),
		fallbackWhatsApp: deps.FallbackWhatsApp,
		now:              func() time.Time { return deps.Clock().UTC() },
		newID:            idGen,
		logger:           logger,
		inFlight:         make(map[string]struct{}),
	}, nil
}

// PlaceOrder runs validation, optional device location, relay submission and
// finalisation. A successful submission clears the cart; a failed one keeps
// the cart and returns fallback links instead of an error.
func (s *orderService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (PlaceOrderResult, error) {
	if s == nil || s.carts == nil || s.relay == nil {
		return PlaceOrderResult{}, ErrOrderUnavailable
	}

	cartID := strings.TrimSpace(cmd.CartID)
	customer := normaliseCustomer(cmd.Customer)
	if cartID == "" || customer.Name == "" || customer.Phone == "" {
		return PlaceOrderResult{}, ErrOrderInvalidInput
	}

	if !s.acquire(cartID) {
		return PlaceOrderResult{}, ErrOrderInFlight
	}
	defer s.release(cartID)

	cart, err := s.carts.GetOrCreateCart(ctx, cartID)
	if err != nil {
		return PlaceOrderResult{}, err
	}
	if cart.IsEmpty() {
		return PlaceOrderResult{}, ErrOrderCartEmpty
	}

	if customer.Location == nil && s.locator != nil {
		customer.Location = s.locate(ctx)
	}

	message := s.builder.Build(cart, customer)
	subject := s.builder.Subject(customer)

	order := domain.Order{
		ID:        s.newID(),
		CartID:    cartID,
		Customer:  customer,
		Lines:     cart.Lines,
		Total:     cart.Total(),
		Message:   message,
		CreatedAt: s.now(),
	}

	submitErr := s.relay.Submit(ctx, relay.Submission{
		Subject: subject,
		Name:    customer.Name,
		Phone:   customer.Phone,
		Notes:   customer.Notes,
		Message: message,
	})
	if submitErr != nil {
		order.Status = domain.OrderStatusFallback
		s.logger(ctx, "order.relay_failed", map[string]any{
			"orderID": order.ID,
			"cartID":  cartID,
			"error":   submitErr.Error(),
		})
		result := PlaceOrderResult{
			Order:      order,
			MailtoLink: MailtoLink(s.relayEmail, subject, message),
		}
		if s.fallbackWhatsApp {
			result.WhatsAppLink = WhatsAppLink(s.whatsAppNumber, message)
		}
		return result, nil
	}

	order.Status = domain.OrderStatusSent
	cleared := true
	if err := s.carts.ClearCart(ctx, cartID); err != nil {
		cleared = false
		s.logger(ctx, "order.cart_clear_failed", map[string]any{
			"orderID": order.ID,
			"cartID":  cartID,
			"error":   err.Error(),
		})
	}
	s.logger(ctx, "order.placed", map[string]any{
		"orderID": order.ID,
		"cartID":  cartID,
		"total":   order.Total,
	})
	return PlaceOrderResult{
		Order:        order,
		WhatsAppLink: WhatsAppLink(s.whatsAppNumber, message),
		CartCleared:  cleared,
	}, nil
}

// locate asks the locator for a position under a bounded deadline. A miss is
// not an error; orders go out without coordinates.
func (s *orderService) locate(ctx context.Context) *domain.Location {
	locateCtx, cancel := context.WithTimeout(ctx, s.locateTimeout)
	defer cancel()

	loc, err := s.locator.Locate(locateCtx)
	if err != nil {
		s.logger(ctx, "order.locate_failed", map[string]any{"error": err.Error()})
		return nil
	}
	return &loc
}

func (s *orderService) acquire(cartID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[cartID]; busy {
		return false
	}
	s.inFlight[cartID] = struct{}{}
	return true
}

func (s *orderService) release(cartID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, cartID)
}

func normaliseCustomer(c domain.CustomerInfo) domain.CustomerInfo {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Notes = strings.TrimSpace(c.Notes)
	return c
}
