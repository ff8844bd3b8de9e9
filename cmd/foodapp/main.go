// Command foodapp serves the food ordering API: authentication, restaurant
// browsing, the order lifecycle and live order events.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MikeMC777/foodapp/internal/auth"
	"github.com/MikeMC777/foodapp/internal/config"
	"github.com/MikeMC777/foodapp/internal/db"
	"github.com/MikeMC777/foodapp/internal/notify"
	"github.com/MikeMC777/foodapp/internal/order"
	"github.com/MikeMC777/foodapp/internal/restaurant"
	"github.com/MikeMC777/foodapp/internal/telemetry"
	"github.com/MikeMC777/foodapp/internal/user"
)

// @title                      Food Ordering API
// @version                    1.0
// @description                Restaurants, menus and the order lifecycle.
// @BasePath                   /api
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                Bearer token; x-auth-token is accepted too.
func main() {
	if err := run(); err != nil {
		log.Fatalf("[main] %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Printf("[otel] shutdown: %v", err)
		}
	}()

	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	userRepo := user.NewPGRepo(pool)
	restaurantRepo := restaurant.NewPGRepo(pool)

	hub := notify.NewHub(notify.DefaultBuffer)
	var notifier order.Notifier = hub
	if cfg.AMQPURL != "" {
		pub, err := notify.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer pub.Close()
		notifier = notify.Fanout{hub, pub}
	}

	a := &app{
		users:       user.NewService(userRepo, tokens),
		restaurants: restaurant.NewService(restaurantRepo),
		orders:      order.NewService(order.NewPGRepo(pool), order.NewExt(restaurantRepo, userRepo), notifier),
		hub:         hub,
		tokens:      tokens,
		ping:        pool.Ping,
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(a, cfg.CORSOrigin),
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end on shutdown so open event streams close.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	healthSrv := health.NewServer()
	grpcSrv := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[http] listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		log.Printf("[grpc] health listening on %s", cfg.GRPCHealthAddr)
		return grpcSrv.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("[main] shutting down")
		healthSrv.Shutdown()
		grpcSrv.GracefulStop()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
