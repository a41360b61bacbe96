package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/gearhouse/autoparts-backend/api/controllers"
	"github.com/gearhouse/autoparts-backend/api/middleware"
	"github.com/gearhouse/autoparts-backend/api/routes"
	"github.com/gearhouse/autoparts-backend/internal/analytics"
	authsvc "github.com/gearhouse/autoparts-backend/internal/auth"
	cartsvc "github.com/gearhouse/autoparts-backend/internal/cart"
	"github.com/gearhouse/autoparts-backend/internal/catalog"
	"github.com/gearhouse/autoparts-backend/internal/identity"
	"github.com/gearhouse/autoparts-backend/internal/memberships"
	"github.com/gearhouse/autoparts-backend/internal/notifications"
	"github.com/gearhouse/autoparts-backend/internal/orders"
	"github.com/gearhouse/autoparts-backend/internal/promotions"
	"github.com/gearhouse/autoparts-backend/internal/sessions"
	syncsvc "github.com/gearhouse/autoparts-backend/internal/sync"
	"github.com/gearhouse/autoparts-backend/internal/users"
	"github.com/gearhouse/autoparts-backend/pkg/config"
	"github.com/gearhouse/autoparts-backend/pkg/db"
	"github.com/gearhouse/autoparts-backend/pkg/logger"
	"github.com/gearhouse/autoparts-backend/pkg/metrics"
	"github.com/gearhouse/autoparts-backend/pkg/migrate"
	"github.com/gearhouse/autoparts-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)
	broadcastMetrics := metrics.NewBroadcastMetrics(prometheus.DefaultRegisterer)

	hub := syncsvc.NewHub(logg, broadcastMetrics, redisClient)
	go hub.Run(ctx)
	broadcaster := syncsvc.NewBroadcaster(redisClient, hub, broadcastMetrics, logg)

	gormDB := dbClient.DB()

	userRepo := users.NewRepository(gormDB)
	userService, err := users.NewService(userRepo)
	if err != nil {
		fatal(logg, ctx, "users service", err)
	}

	sessionService, err := sessions.NewService(sessions.NewRepository(gormDB), cfg.Session.TTL, time.Now)
	if err != nil {
		fatal(logg, ctx, "sessions service", err)
	}

	membershipsRepo := memberships.NewRepository(gormDB)
	resolver, err := memberships.NewResolver(membershipsRepo, cfg.Access.PrimaryOwnerEmail)
	if err != nil {
		fatal(logg, ctx, "role resolver", err)
	}

	identityClient, err := identity.NewClient(cfg.Identity.BaseURL, identity.WithTimeout(cfg.Identity.Timeout))
	if err != nil {
		fatal(logg, ctx, "identity client", err)
	}

	authService, err := authsvc.NewService(identityClient, userService, sessionService, resolver)
	if err != nil {
		fatal(logg, ctx, "auth service", err)
	}

	catalogRepo := catalog.NewRepository(gormDB)
	catalogSource := catalog.NewSource(catalogRepo)
	catalogService, err := catalog.NewService(catalogRepo, broadcaster)
	if err != nil {
		fatal(logg, ctx, "catalog service", err)
	}

	promotionsRepo := promotions.NewRepository(gormDB)
	promotionsSource := promotions.NewSource(promotionsRepo)
	promotionsService, err := promotions.NewService(promotionsRepo, broadcaster)
	if err != nil {
		fatal(logg, ctx, "promotions service", err)
	}

	cartService, err := cartsvc.NewService(cartsvc.NewRepository(gormDB), catalogSource, promotionsSource)
	if err != nil {
		fatal(logg, ctx, "cart service", err)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		fatal(logg, ctx, "notifications service", err)
	}

	membershipsService, err := memberships.NewService(membershipsRepo, sessionService, userRepo, catalogSource, notificationsService, logg)
	if err != nil {
		fatal(logg, ctx, "memberships service", err)
	}

	ordersService, err := orders.NewService(orders.NewRepository(gormDB), cartService, catalogSource, notificationsService, broadcaster, logg)
	if err != nil {
		fatal(logg, ctx, "orders service", err)
	}

	analyticsService, err := analytics.NewService(analytics.NewRepository(gormDB))
	if err != nil {
		fatal(logg, ctx, "analytics service", err)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, redisClient, logg)

	router := routes.NewRouter(cfg, logg, routes.Services{
		Auth:          authService,
		Catalog:       catalogService,
		Cart:          cartService,
		Memberships:   membershipsService,
		Promotions:    promotionsService,
		Notifications: notificationsService,
		Orders:        ordersService,
		Analytics:     analyticsService,
		SyncReporter:  syncsvc.NewReporter(gormDB),
		SyncHub:       hub,
		RateLimiter:   rateLimiter,
		HTTPMetrics:   httpMetrics,
		Readiness:     []controllers.Pinger{dbClient, redisClient},
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(startCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	logg.Info(startCtx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := multierr.Combine(
		server.Shutdown(shutdownCtx),
		redisClient.Close(),
		dbClient.Close(),
	)
	if errs != nil {
		logg.Error(startCtx, "shutdown finished with errors", errs)
		os.Exit(1)
	}
	logg.Info(startCtx, "shutdown complete")
}

func fatal(logg *logger.Logger, ctx context.Context, what string, err error) {
	logg.Error(ctx, "failed to build "+what, err)
	os.Exit(1)
}
