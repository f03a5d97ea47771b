// Package app builds the storefront object graph from configuration. Both
// the daemon and the CLI start here.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/everrest"
	"storefront/internal/handler"
	"storefront/internal/localstore"
	"storefront/internal/middleware"
	"storefront/internal/normalize"
	"storefront/internal/reconcile"
	"storefront/internal/session"
	"storefront/internal/transport"
)

// requestTimeout bounds each call to the shop API.
const requestTimeout = 15 * time.Second

// App holds the services built from one Config.
type App struct {
	Config   *config.Config
	Client   *everrest.Client
	Catalog  *catalog.Service
	Cart     *reconcile.Service
	Sessions *session.Manager

	slots  localstore.Slots
	closer io.Closer
	logger *slog.Logger
}

// New wires the shop API client, the slot store and the services.
// Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	slots, closer, err := OpenSlots(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", cfg.Store.StorageBackend, err)
	}

	client, err := everrest.New(everrest.Config{
		BaseURL: cfg.Store.APIURL,
		Transport: transport.New(transport.Options{
			BrowserTLS: cfg.Store.BrowserTLS,
		}),
		Timeout:           requestTimeout,
		RequestsPerSecond: cfg.Store.RequestRate,
		Logger:            logger,
	})
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, fmt.Errorf("creating shop API client: %w", err)
	}

	ns := cfg.Store.Namespace
	carts := localstore.NewCartStore(slots, ns, logger)
	sessionStore := localstore.NewSessionStore(slots, ns, logger)

	normalizer := normalize.New(normalize.Options{
		Origin:           client.BaseURL(),
		BrokenImageHosts: cfg.Store.BrokenImageHosts,
	})

	var catalogOpts []catalog.Option
	if cfg.Store.PageSize > 0 {
		catalogOpts = append(catalogOpts, catalog.WithPageSize(cfg.Store.PageSize))
	}

	return &App{
		Config:   cfg,
		Client:   client,
		Catalog:  catalog.New(client, normalizer, logger, catalogOpts...),
		Cart:     reconcile.New(carts, client, sessionStore, logger, reconcile.WithTaxRate(cfg.Store.Tax())),
		Sessions: session.NewManager(client, sessionStore, logger),
		slots:    slots,
		closer:   closer,
		logger:   logger,
	}, nil
}

// Handler returns the daemon's HTTP handler with the middleware chain
// applied.
func (a *App) Handler() http.Handler {
	h := handler.New(a.Catalog, a.Cart, a.Sessions, a.logger)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Recovery must be outermost to catch panics from logging middleware
	return middleware.Chain(
		middleware.Recovery(a.logger),
		middleware.RequestID(),
		middleware.Logging(a.logger),
		middleware.CORS(middleware.DefaultCORSConfig(a.Config.Store.CORSOrigins)),
	)(mux)
}

// Close releases the slot store.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// OpenSlots opens the slot backend named by cfg. The closer is nil for
// backends that hold no resources.
func OpenSlots(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (localstore.Slots, io.Closer, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return localstore.NewMemorySlots(), nil, nil
	case config.BackendRedis:
		slots, err := localstore.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return slots, slots, nil
	case config.BackendFile, "":
		if cfg.StateFile == "" {
			return nil, nil, errors.New("state file path is empty")
		}
		return localstore.NewFileSlots(cfg.StateFile, logger), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
