package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kajal19803/dairyfrontend/internal/backend"
	"github.com/kajal19803/dairyfrontend/internal/checkout"
	"github.com/kajal19803/dairyfrontend/internal/events"
	h "github.com/kajal19803/dairyfrontend/internal/http"
	"github.com/kajal19803/dairyfrontend/internal/session"
	"github.com/kajal19803/dairyfrontend/internal/storage"
	"github.com/kajal19803/dairyfrontend/internal/support"
	"github.com/kajal19803/dairyfrontend/pkg/circuitbreaker"
	"github.com/kajal19803/dairyfrontend/pkg/config"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storefront HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	store, err := storage.Open(openCtx, storage.Options{
		Driver:        cfg.Storage.Driver,
		RedisAddr:     cfg.Storage.RedisAddr,
		RedisPassword: cfg.Storage.RedisPassword,
		RedisDB:       cfg.Storage.RedisDB,
		RedisTTL:      cfg.Storage.RedisTTL,
		MongoURI:      cfg.Storage.MongoURI,
		MongoDatabase: cfg.Storage.MongoDatabase,
		SQLDSN:        cfg.Storage.SQLDSN,
	})
	cancel()
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	defer store.Close()
	log.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	client := backend.New(backendConfig(cfg), log.Named("backend"))
	checkoutSvc := checkout.NewService(client, store, cfg.HTTP.PublicURL, log.Named("checkout"))
	registry := session.NewRegistry(store, client, support.Options{
		CallTimeout: cfg.Support.CallTimeout,
		ReplyDelay:  cfg.Support.ReplyDelay,
	}, log.Named("session"))

	router := h.NewRouter(h.RouterConfig{
		Profiles:           registry,
		Catalog:            client,
		Checkout:           checkoutSvc,
		Logger:             log.Named("http"),
		RequestTimeout:     cfg.HTTP.RequestTimeout,
		MaxRequestBodySize: cfg.HTTP.MaxRequestBodySize,
		MaxImageSize:       cfg.HTTP.MaxImageSize,
	})

	srv := &http.Server{
		Addr:        ":" + cfg.HTTP.Port,
		Handler:     otelhttp.NewHandler(router, "storefront"),
		ReadTimeout: 10 * time.Second,
		// chat turns wait on the backend
		WriteTimeout: cfg.HTTP.RequestTimeout + cfg.Support.CallTimeout,
		IdleTimeout:  60 * time.Second,
	}

	lis, err := net.Listen("tcp", ":"+cfg.Ops.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on ops port: %w", err)
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	reflection.Register(grpcServer)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("storefront starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info("ops server starting", zap.String("addr", lis.Addr().String()))
		healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		return registry.Run(gctx, cfg.Session.IdleTimeout)
	})

	if len(cfg.Kafka.Brokers) > 0 {
		instanceID := cfg.Kafka.InstanceID
		if instanceID == "" {
			if instanceID, err = os.Hostname(); err != nil {
				return fmt.Errorf("failed to resolve kafka instance id: %w", err)
			}
		}
		consumer := events.NewConsumer(registry, checkoutSvc, events.Config{
			Brokers:    cfg.Kafka.Brokers,
			Topic:      cfg.Kafka.Topic,
			GroupID:    cfg.Kafka.GroupID,
			InstanceID: instanceID,
		}, log.Named("events"))
		g.Go(func() error {
			defer consumer.Close()
			return consumer.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down storefront")
		healthSrv.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		grpcServer.GracefulStop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("storefront stopped")
	return nil
}

func backendConfig(cfg *config.Config) backend.Config {
	return backend.Config{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   cfg.Backend.Timeout,
		RateLimit: cfg.Backend.RateLimit,
		RateBurst: cfg.Backend.RateBurst,
		Breaker: circuitbreaker.Settings{
			Name:             "backend",
			MaxRequests:      cfg.Backend.Breaker.MaxRequests,
			Interval:         cfg.Backend.Breaker.Interval,
			Timeout:          cfg.Backend.Breaker.Timeout,
			FailureThreshold: cfg.Backend.Breaker.FailureThreshold,
		},
	}
}

