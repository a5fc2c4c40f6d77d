package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lixing-Zhang/restaurant-pos/internal/auth"
	"github.com/Lixing-Zhang/restaurant-pos/internal/catalog"
	"github.com/Lixing-Zhang/restaurant-pos/internal/config"
	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/Lixing-Zhang/restaurant-pos/internal/notify"
	"github.com/Lixing-Zhang/restaurant-pos/internal/repository"
	"github.com/Lixing-Zhang/restaurant-pos/internal/service"
	"github.com/Lixing-Zhang/restaurant-pos/internal/session"
	"github.com/Lixing-Zhang/restaurant-pos/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const (
	changeBuffer  = 256
	sweepInterval = time.Minute
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting restaurant pos server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"store", cfg.Store.Driver,
		"broker", cfg.Broker.Driver,
		"log_level", cfg.LogLevel,
	)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer store.Close()

	// Change notifications reach sessions through the hub. With RabbitMQ,
	// services publish to the exchange and every instance relays it back.
	hub := notify.NewHub(log)
	var publisher notify.Publisher = hub
	var rabbit *notify.RabbitMQ
	if cfg.Broker.Driver == config.BrokerRabbitMQ {
		rabbit, err = notify.DialRabbitMQ(cfg.Broker.URL, cfg.Broker.Exchange, log)
		if err != nil {
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}
		defer rabbit.Close()
		publisher = rabbit
	}

	// Initialize services
	authService := auth.NewService(store.Users(), cfg.Auth.BcryptCost, log)
	tableService := service.NewTableService(store.Tables(), publisher, log)
	menuService := service.NewMenuService(store.Menu(), publisher, log)
	orderService := service.NewOrderService(store.Orders(), store.Menu(), publisher, log)
	userService := service.NewUserService(store.Users(), publisher, log)
	analyticsService := service.NewAnalyticsService(store.Tables(), store.Orders())

	if err := bootstrapAdmin(ctx, authService, cfg.Auth, log); err != nil {
		return err
	}

	menuLoader := catalog.NewLoader()
	if err := seedMenu(ctx, menuLoader, menuService, cfg.Menu, log); err != nil {
		return err
	}

	sessions := session.NewManager(session.Collaborators{
		Auth:      authService,
		Tables:    tableService,
		Menu:      menuService,
		Orders:    orderService,
		Users:     userService,
		Analytics: analyticsService,
	}, log)

	router := newRouter(cfg, log, routeDeps{
		store:    store,
		sessions: sessions,
		menu:     menuService,
		seed:     menuLoader,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	changes, unsubscribe := hub.Subscribe(changeBuffer)
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sessions.Run(gctx, changes)
	})

	g.Go(func() error {
		idle := time.Duration(cfg.Auth.SessionIdleMinutes) * time.Minute
		return sessions.RunSweeper(gctx, sweepInterval, idle)
	})

	if rabbit != nil {
		g.Go(func() error {
			return rabbit.Relay(gctx, hub)
		})
	}

	// Wait for a signal or a failed component, then shut down the server
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openStore connects the configured store and applies migrations
func openStore(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (repository.Store, error) {
	if cfg.Driver != config.StorePostgres {
		log.Info("using in-memory store")
		return repository.NewMemoryStore(), nil
	}

	pg, err := repository.NewPostgresStore(ctx, cfg.DatabaseURL, cfg.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if cfg.Migrate {
		log.Info("applying database migrations...")
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}
	return pg, nil
}

// bootstrapAdmin makes sure the configured admin account exists
func bootstrapAdmin(ctx context.Context, authService *auth.Service, cfg config.AuthConfig, log *slog.Logger) error {
	if cfg.AdminPassword == "" {
		log.Warn("ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}

	cred := models.Credential{Username: cfg.AdminUsername, Password: cfg.AdminPassword}
	if err := authService.EnsureUser(ctx, cred, models.RoleAdmin); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	log.Info("admin account ready", "username", cfg.AdminUsername)
	return nil
}

// seedMenu imports menu items from the configured CSV sources
func seedMenu(ctx context.Context, loader *catalog.Loader, menuService *service.MenuService, cfg config.MenuConfig, log *slog.Logger) error {
	if len(cfg.SeedFiles) == 0 && len(cfg.SeedURLs) == 0 {
		return nil
	}

	log.Info("loading menu seed data...")
	if len(cfg.SeedFiles) > 0 {
		if err := loader.LoadFromFiles(ctx, cfg.SeedFiles); err != nil {
			return fmt.Errorf("load menu files: %w", err)
		}
	}
	if len(cfg.SeedURLs) > 0 {
		if err := loader.LoadFromURLs(ctx, cfg.SeedURLs); err != nil {
			return fmt.Errorf("load menu urls: %w", err)
		}
	}

	if err := menuService.Import(ctx, loader.Items()); err != nil {
		return fmt.Errorf("import menu: %w", err)
	}

	stats := loader.GetStats()
	log.Info("menu seed data loaded",
		"total_sources", stats["total_sources"],
		"total_items", stats["total_items"],
	)
	return nil
}
