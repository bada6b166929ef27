package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/modelado-pao/internal/domain/auth"
	"github.com/xenking/modelado-pao/internal/domain/coupon"
	"github.com/xenking/modelado-pao/internal/domain/order"
	"github.com/xenking/modelado-pao/internal/domain/product"
	"github.com/xenking/modelado-pao/internal/events"
	"github.com/xenking/modelado-pao/internal/handler"
	"github.com/xenking/modelado-pao/internal/storage/postgres"
	"github.com/xenking/modelado-pao/internal/storage/rediscache"
	"github.com/xenking/modelado-pao/pkg/health"
	"github.com/xenking/modelado-pao/pkg/httpmiddleware"
)

const serviceName = "pao-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Repositories.
	productRepo := postgres.NewProductRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	apikeyRepo := postgres.NewAPIKeyRepository(pool)

	// Optional product cache.
	var (
		products    product.Repository = productRepo
		invalidator product.Invalidator
	)
	if cfg.Redis.Addr != "" {
		opts, err := redisOptions(cfg.Redis)
		if err != nil {
			return errors.Wrap(err, "redis options")
		}
		rdb := redis.NewUniversalClient(opts)
		defer func() { _ = rdb.Close() }()

		cache := rediscache.NewProductCache(productRepo, rdb, cfg.Redis.ProductTTL)
		products, invalidator = cache, cache
		healthSvc.AddReadinessCheck("redis", 2*time.Second, health.PingCheck(cache), health.Optional())
		lg.Info("Product cache enabled", zap.Duration("ttl", cfg.Redis.ProductTTL))
	}

	// Optional order events.
	var publisher order.EventPublisher = events.Nop{}
	if cfg.Kafka.Brokers != "" {
		k, err := events.NewKafka(events.KafkaConfig{
			Brokers:  cfg.Kafka.Brokers,
			Topic:    cfg.Kafka.Topic,
			ClientID: serviceName,
		}, lg.Named("kafka"))
		if err != nil {
			return errors.Wrap(err, "create kafka publisher")
		}
		defer k.Close()
		publisher = k
		lg.Info("Order events enabled", zap.String("topic", cfg.Kafka.Topic))
	}

	// Domain services.
	resolver := coupon.NewResolver(couponRepo)
	orderService, err := order.NewService(
		order.NewPricer(productRepo, resolver),
		orderRepo,
		order.WithPublisher(publisher),
		order.WithTracerProvider(m.TracerProvider()),
		order.WithMeterProvider(m.MeterProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	h := handler.New(handler.Config{ImageBaseURL: cfg.ImageBaseURL}, handler.Deps{
		Products:     products,
		ProductAdmin: product.NewAdmin(productRepo, invalidator),
		Orders:       orderService,
		Coupons:      resolver,
		CouponAdmin:  coupon.NewAdmin(couponRepo),
		Auth:         auth.NewAuthenticator(apikeyRepo, []byte(cfg.APIKeyPepper)),
	})

	// Router: health endpoints + API routes on one server.
	mux := chi.NewRouter()
	mux.NotFound(handler.NotFound)
	mux.MethodNotAllowed(handler.MethodNotAllowed)
	mux.Get("/livez", healthSvc.LiveEndpoint)
	mux.Get("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)
	routeFinder := httpmiddleware.MakeRouteFinder(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", handler.HeaderAPIKey},
				ExposeHeaders:    []string{httpmiddleware.HeaderRequestID},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument(serviceName, routeFinder, m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// redisOptions accepts either host:port or a redis:// URL.
func redisOptions(cfg RedisConfig) (*redis.UniversalOptions, error) {
	if strings.HasPrefix(cfg.Addr, "redis://") || strings.HasPrefix(cfg.Addr, "rediss://") {
		o, err := redis.ParseURL(cfg.Addr)
		if err != nil {
			return nil, errors.Wrap(err, "parse redis url")
		}
		return &redis.UniversalOptions{
			Addrs:     []string{o.Addr},
			Username:  o.Username,
			Password:  o.Password,
			DB:        o.DB,
			TLSConfig: o.TLSConfig,
		}, nil
	}
	return &redis.UniversalOptions{
		Addrs:    []string{cfg.Addr},
		Password: cfg.Password,
	}, nil
}
