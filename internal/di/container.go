package di

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lechic-cafe/api/internal/platform/config"
	"github.com/lechic-cafe/api/internal/platform/kvstore"
	"github.com/lechic-cafe/api/internal/platform/observability"
	"github.com/lechic-cafe/api/internal/relay"
	"github.com/lechic-cafe/api/internal/renderer"
	"github.com/lechic-cafe/api/internal/repositories"
	kvrepo "github.com/lechic-cafe/api/internal/repositories/kv"
	"github.com/lechic-cafe/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Cart   services.CartService
	Orders services.OrderService
}

// Container wires storage, services and the renderer for runtime use.
type Container struct {
	Config   config.Config
	Store    *kvstore.Store
	Carts    repositories.CartRepository
	Services Services
	Renderer *renderer.Renderer
}

// ContainerDeps carries optional overrides for tests.
type ContainerDeps struct {
	Logger *zap.Logger
	Clock  func() time.Time
	Relay  services.OrderRelay
	Store  *kvstore.Store
}

// NewContainer assembles the runtime dependency graph from configuration.
func NewContainer(ctx context.Context, cfg config.Config, deps ContainerDeps) (*Container, error) {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	events := observability.EventLogger(logger)

	store := deps.Store
	if store == nil {
		opened, err := kvstore.Open(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		store = opened
	}

	cartRepo, err := kvrepo.NewCartRepository(store, cfg.Storage.SnapshotPrefix)
	if err != nil {
		return nil, err
	}

	cartSvc, err := services.NewCartService(services.CartServiceDeps{
		Repository: cartRepo,
		Clock:      clock,
		Currency:   cfg.Cafe.Currency,
		Logger:     events,
	})
	if err != nil {
		return nil, err
	}

	orderRelay := deps.Relay
	if orderRelay == nil {
		client, err := relay.NewClient(relay.ClientConfig{
			BaseURL: cfg.Relay.BaseURL,
			Email:   cfg.Cafe.RelayEmail,
			Timeout: cfg.Relay.Timeout,
			Logger:  events,
			Clock:   clock,
		})
		if err != nil {
			return nil, err
		}
		orderRelay = client
	}

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Carts: cartSvc,
		Relay: orderRelay,
		Builder: services.MessageBuilder{
			CafeName:      cfg.Cafe.Name,
			PickupAddress: cfg.Cafe.Address,
		},
		LocateTimeout:    cfg.Orders.LocateTimeout,
		WhatsAppNumber:   cfg.Cafe.WhatsAppNumber,
		RelayEmail:       cfg.Cafe.RelayEmail,
		FallbackWhatsApp: cfg.Orders.FallbackWhatsApp,
		Clock:            clock,
		Logger:           events,
	})
	if err != nil {
		return nil, err
	}

	return &Container{
		Config: cfg,
		Store:  store,
		Carts:  cartRepo,
		Services: Services{
			Cart:   cartSvc,
			Orders: orderSvc,
		},
		Renderer: renderer.New(),
	}, nil
}

// Close releases held resources, currently the snapshot store.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Store == nil {
		return nil
	}
	err := c.Store.Close()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
