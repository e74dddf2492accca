package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/fjod/foodclub/internal/admin"
	"github.com/fjod/foodclub/internal/cache"
	"github.com/fjod/foodclub/internal/catalog"
	"github.com/fjod/foodclub/internal/checkout"
	"github.com/fjod/foodclub/internal/config"
	"github.com/fjod/foodclub/internal/gateway"
	h "github.com/fjod/foodclub/internal/http"
	"github.com/fjod/foodclub/internal/logger"
	"github.com/fjod/foodclub/internal/publisher"
	"github.com/fjod/foodclub/internal/restapi"
	"github.com/fjod/foodclub/internal/session"
	"github.com/fjod/foodclub/internal/signup"
	"github.com/fjod/foodclub/internal/telemetry"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "storefront",
		Usage:   "shopper and admin backend for the food club ordering site",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "port", Usage: "HTTP port (overrides HTTP_PORT)"},
					&cli.StringFlag{Name: "api-base-url", Usage: "restaurant API base URL (overrides API_BASE_URL)"},
					&cli.StringFlag{Name: "log-level", Usage: "log level (overrides LOG_LEVEL)"},
				},
				Action: serve,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("storefront stopped")
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if v := c.String("port"); v != "" {
		cfg.HTTPPort = v
	}
	if v := c.String("api-base-url"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel, cfg.LogJSON)
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg.ServiceName, version, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.WithError(err).Warn("tracer shutdown failed")
		}
	}()

	api, err := restapi.New(cfg.APIBaseURL, restapi.Options{
		Timeout:            cfg.UpstreamTimeout,
		BreakerMaxFailures: cfg.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.BreakerOpenTimeout,
	}, log)
	if err != nil {
		return err
	}

	menuCache, adminCache, closeCache, err := newCaches(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	// the outbox outlives the signal context so requests draining during
	// shutdown can still report their outcome
	notifier, runNotifier := newNotifier(cfg, log)
	notifierCtx, stopNotifier := context.WithCancel(context.WithoutCancel(ctx))
	defer stopNotifier()
	notifierDone := make(chan struct{})
	go func() {
		defer close(notifierDone)
		runNotifier(notifierCtx)
	}()

	menu := catalog.NewService(api, menuCache, log)
	adminSvc := admin.NewService(api, adminCache, menu, log)
	sessions := session.NewManager(gateway.NewClient(api, log), session.Options{
		IdleTTL:       cfg.SessionIdleTTL,
		SweepInterval: cfg.SessionSweep,
		WidgetTimeout: cfg.WidgetTimeout,
		Notifier:      notifier,
		Logger:        log,
	})
	defer sessions.Close()

	router := h.NewRouter(h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		CookieSecure:       cfg.CookieSecure,
	}, h.Handlers{
		Menu:     h.NewMenuHandler(menu, cfg.RequestTimeout, log),
		Cart:     h.NewCartHandler(sessions, menu, cfg.RequestTimeout, log),
		Checkout: h.NewCheckoutHandler(sessions, cfg.RequestTimeout, log),
		Signup:   h.NewSignupHandler(signup.NewService(api, log), cfg.RequestTimeout, log),
		Admin:    h.NewAdminHandler(adminSvc, cfg.RequestTimeout, log),
		Auth:     adminSvc,
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	grpcServer, healthSrv, lis, err := newHealthServer(cfg.GRPCHealthPort)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		log.WithField("port", cfg.HTTPPort).Info("storefront listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- errors.Wrap(err, "http server error")
		}
	}()
	go func() {
		log.WithField("port", cfg.GRPCHealthPort).Info("grpc health listening")
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- errors.Wrap(err, "grpc health server error")
		}
	}()

	// Graceful shutdown
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down server...")
	case runErr = <-errCh:
		log.WithError(runErr).Error("server failed, shutting down")
	}
	stop()

	healthSrv.Shutdown()
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	grpcServer.GracefulStop()
	stopNotifier()
	<-notifierDone

	log.Info("server exited")
	return runErr
}

func newCaches(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (cache.MenuCache, cache.AdminSessionCache, func(), error) {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, using in-process caches")
		mc := cache.NewMemoryCache(cfg.MenuCacheTTL, cfg.AdminSessionTTL)
		return mc, mc, func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, nil, nil, errors.Wrap(err, "redis connection failed")
	}
	log.WithField("addr", cfg.RedisAddr).Info("redis ping succeeded")

	rc := cache.NewRedisCache(redisClient, cfg.MenuCacheTTL, cfg.AdminSessionTTL)
	return rc, rc, func() { _ = redisClient.Close() }, nil
}

func newNotifier(cfg *config.Config, log logrus.FieldLogger) (checkout.Notifier, func(context.Context)) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info("KAFKA_BROKERS not set, checkout events are not published")
		return nil, func(context.Context) {}
	}
	outbox := publisher.NewKafkaOutbox(cfg.KafkaBrokers, cfg.KafkaTopic, publisher.Options{}, log)
	log.WithField("topic", cfg.KafkaTopic).Info("publishing checkout events to kafka")
	return outbox, outbox.Run
}

func newHealthServer(port string) (*grpc.Server, *health.Server, net.Listener, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "failed to listen on %s", port)
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("storefront", grpc_health_v1.HealthCheckResponse_SERVING)

	// Enable reflection for grpcurl/grpcui
	reflection.Register(grpcServer)
	return grpcServer, healthSrv, lis, nil
}
