// Package server boots the application: configuration, storage backends,
// the catalog cache, the service graph and the HTTP listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alenadem/stonecart/app/controllers"
	"github.com/alenadem/stonecart/app/repositories"
	"github.com/alenadem/stonecart/app/routes"
	"github.com/alenadem/stonecart/app/services"
	"github.com/alenadem/stonecart/config"
	"github.com/alenadem/stonecart/pkg/cache"
	"github.com/alenadem/stonecart/pkg/database"
	"github.com/alenadem/stonecart/pkg/logger"
	"github.com/alenadem/stonecart/pkg/metrics"
	"github.com/alenadem/stonecart/pkg/middleware"
	"github.com/alenadem/stonecart/pkg/migration"
	"github.com/alenadem/stonecart/pkg/reqid"
	"github.com/alenadem/stonecart/pkg/router"
	"github.com/alenadem/stonecart/pkg/storage"
)

// Start boots everything and serves until SIGINT/SIGTERM.
func Start() error {
	if err := config.Load(); err != nil {
		return err
	}

	setupLogSink()

	if err := database.Connect(); err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	if err := migration.New(database.DB).Run(); err != nil {
		return err
	}

	// Redis and S3 are optional: a warning, never a boot failure.
	if err := cache.Connect(); err != nil {
		logger.Warn("server: redis unavailable, read-through cache disabled", "err", err)
	}
	storage.Connect()

	handler, catalogCache, err := buildApp()
	if err != nil {
		return err
	}
	logger.Info("server: catalog cache ready", "products", catalogCache.Len())

	addr := ":" + config.AppPort()
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server: listening", "addr", addr, "env", config.AppEnv())
		fmt.Printf("stonecart running on %s\n", addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		logger.Info("server: shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

// buildApp wires repositories, services, controllers and routes.
func buildApp() (http.Handler, *services.CatalogCache, error) {
	catalogRepo := repositories.NewCatalogRepository(database.DB)
	orderRepo := repositories.NewOrderRepository(database.DB)

	catalogCache := services.NewCatalogCache()
	if err := catalogCache.Load(catalogRepo); err != nil {
		return nil, nil, err
	}

	cart := services.NewCart(catalogCache, config.CartTTL())
	checkout := services.NewCheckout(
		cart, catalogCache, catalogRepo, orderRepo,
		config.PayCurrency(), config.RemoveOnZero(),
	)
	browse := services.NewBrowse(catalogCache)
	admin := services.NewAdmin(catalogCache, cart, catalogRepo)

	// Checkout state and browse position die with the cart.
	cart.OnPurge(checkout.PurgeUser)
	cart.OnPurge(browse.PurgeUser)

	r := router.New()
	r.Use(
		middleware.Recovery,
		reqid.Middleware(),
		middleware.Logger,
		metrics.Middleware(),
		middleware.RateLimit(120, time.Minute),
	)

	routes.RegisterAPI(r, routes.Controllers{
		Catalog:  controllers.NewCatalogController(catalogCache, browse),
		Cart:     controllers.NewCartController(cart),
		Checkout: controllers.NewCheckoutController(checkout),
		Payment:  controllers.NewPaymentController(checkout),
		Admin:    controllers.NewAdminController(admin),
	})

	return r.Handler(), catalogCache, nil
}

// setupLogSink attaches the async Mongo handler next to the console handler
// when LOG_MONGO_URI is configured.
func setupLogSink() {
	uri := config.LogMongoURI()
	if uri == "" {
		return
	}

	mh, err := logger.NewMongoHandler(uri, config.LogMongoDB(), "logs")
	if err != nil {
		logger.Warn("server: mongo log sink unavailable", "err", err)
		return
	}
	logger.SetHandler(logger.NewMultiHandler(logger.L.Handler(), mh))
	logger.Info("server: mongo log sink attached", "db", config.LogMongoDB())
}
