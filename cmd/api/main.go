package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/anasol/cafe-orders/internal/clock"
	"github.com/anasol/cafe-orders/internal/config"
	"github.com/anasol/cafe-orders/internal/httpx"
	"github.com/anasol/cafe-orders/internal/identity"
	"github.com/anasol/cafe-orders/internal/inventory"
	kafkax "github.com/anasol/cafe-orders/internal/kafka"
	"github.com/anasol/cafe-orders/internal/orders"
	"github.com/anasol/cafe-orders/internal/postgres"
	"github.com/anasol/cafe-orders/internal/redisx"
	"github.com/anasol/cafe-orders/migrations"
)

func main() {
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	if err := migrations.Apply(ctx, db); err != nil {
		log.Fatal("migrations", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pPlaced := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024, log)
	pPlaced.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024, log)
	pStatus.Start(ctx)

	// Core wiring
	repo := orders.NewRepo(db)
	svc := orders.NewService(repo, &inventory.Ledger{Pool: db}, clock.NewSystem(), log,
		orders.WithPublisher(&orders.KafkaPublisher{
			Placed:  pPlaced,
			Status:  pStatus,
			Service: cfg.ServiceName,
		}))

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Service:  svc,
		Users:    identity.NewDirectory(db),
		Products: repo,
		Redis:    rdb,
		Log:      log,
	}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	// closing the inboxes lets both flush goroutines drain and exit; cancel
	// must not race them or the inbox would be closed twice
	pPlaced.Close()
	pStatus.Close()
	pPlaced.WaitClosed()
	pStatus.WaitClosed()
}
