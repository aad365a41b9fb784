package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/insecurazon/ins-webserver/internal/config"
	"github.com/insecurazon/ins-webserver/internal/handlers"
	"github.com/insecurazon/ins-webserver/internal/proxy"
	"github.com/insecurazon/ins-webserver/internal/repository"
	"github.com/insecurazon/ins-webserver/internal/router"
	"github.com/insecurazon/ins-webserver/internal/service"
	"github.com/insecurazon/ins-webserver/internal/static"
	"github.com/insecurazon/ins-webserver/pkg/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "ins-webserver",
		Short: "Storefront web server: product API, gateway proxy and SPA assets",
		Long: `ins-webserver serves the storefront single-page application, answers the
product API from the product service (falling back to a built-in catalog when it
is unavailable) and forwards every other /api request to the API gateway.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server (default)",
			RunE:  runServe,
		},
		newCatalogCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration from .env, CONFIG_FILE and environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting web server",
		"version", version,
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"product_source", cfg.Products.Source,
		"static_root", cfg.Static.Root,
		"trust_proxy_headers", cfg.Server.TrustProxyHeaders,
		"log_level", cfg.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	primary, closeSource, err := openProductSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	productService := service.NewProductService(primary, repository.NewInMemoryProductRepository(), cfg.Products.Timeout, log)

	// Fill the catalog ahead of the first request
	go func() {
		state := productService.Warm(ctx)
		log.Info("catalog warmed",
			"products", state.Products,
			"categories", state.Categories,
			"using_fallback", state.UsingFallback,
		)
	}()

	gateway, err := proxy.New(cfg.Proxy.GatewayURL, router.APIPrefix, cfg.Proxy.Timeout, log)
	if err != nil {
		return err
	}

	handler := router.New(router.Options{
		Products:          handlers.NewProductHandler(productService, log).Routes(router.MockPrefixes...),
		Proxy:             gateway,
		Static:            static.NewServer(cfg.Static.Root, log),
		Health:            handlers.NewHealthHandler(productService, version, log),
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
		Logger:            log,
	})

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server failed to start", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// openProductSource connects the configured upstream catalog. The returned
// close func is always safe to call.
func openProductSource(ctx context.Context, cfg *config.Config) (repository.ProductRepository, func(), error) {
	switch cfg.Products.Source {
	case config.SourceMongo:
		repo, err := repository.NewMongoProductRepository(ctx, cfg.Products.MongoURI, cfg.Products.MongoDatabase, cfg.Products.Timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open mongo product source: %w", err)
		}
		return repo, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Products.Timeout)
			defer cancel()
			if err := repo.Close(closeCtx); err != nil {
				slog.Warn("failed to disconnect from mongo", "error", err)
			}
		}, nil
	default:
		return repository.NewHTTPProductRepository(cfg.Products.ServiceURL, cfg.Products.Timeout), func() {}, nil
	}
}
