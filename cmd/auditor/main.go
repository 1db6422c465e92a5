package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pizzaria-orders/internal/auditor"
	"pizzaria-orders/internal/config"
	kafkax "pizzaria-orders/internal/kafka"
	"pizzaria-orders/internal/orders"
	"pizzaria-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", cfg.ServiceName+"-auditor")

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &auditor.Service{
		Redis:       rdb,
		Log:         logger,
		ServiceName: cfg.ServiceName + "-auditor",
	}

	group := getenv("AUDITOR_GROUP", "order-auditor")
	workers := mustAtoi(os.Getenv("AUDITOR_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderLifecycle, workers)

	go func() {
		log.Printf("auditor consumer started: group=%s topic=%s workers=%d", group, orders.TopicOrderLifecycle, workers)
		if err := cons.Start(ctx, svc.HandleEvent); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
