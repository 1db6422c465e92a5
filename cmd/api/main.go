package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pizzaria-orders/internal/config"
	"pizzaria-orders/internal/httpx"
	kafkax "pizzaria-orders/internal/kafka"
	"pizzaria-orders/internal/orders"
	"pizzaria-orders/internal/postgres"
	"pizzaria-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", cfg.ServiceName)

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer for the lifecycle stream
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderLifecycle, 1024)
	prod.Start(ctx)

	// Service & handler
	svc := orders.NewService(orders.NewRepo(db), prod, logger, cfg.ServiceName)
	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Service: svc,
		Redis:   rdb,
		Log:     logger,
	}
	oh.Register(router, httpx.RequireAuth(cfg.APIToken))

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()
	cancel()
	prod.WaitClosed()
}
