package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LaZyMugen/shopnexa-sub000/internal/config"
	"github.com/LaZyMugen/shopnexa-sub000/internal/httpx"
	"github.com/LaZyMugen/shopnexa-sub000/internal/kafkax"
	"github.com/LaZyMugen/shopnexa-sub000/internal/orders"
	"github.com/LaZyMugen/shopnexa-sub000/internal/postgres"
	"github.com/LaZyMugen/shopnexa-sub000/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	createdProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	createdProd.Start(ctx)
	statusProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStatusChanged, 1024)
	statusProd.Start(ctx)

	catalogStore := &postgres.CatalogStore{DB: db}
	svc := &orders.Service{
		Store:        &postgres.OrderStore{DB: db},
		Catalog:      catalogStore,
		CreatedSink:  createdProd,
		StatusSink:   statusProd,
		Cache:        &redisx.StatusCache{R: rdb},
		Log:          log,
		ProducerName: cfg.ServiceName,
	}

	router := httpx.NewRouter()
	(&httpx.OrdersHandler{Svc: svc, Log: log}).Register(router)
	(&httpx.StockHandler{Catalog: catalogStore, Log: log}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
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
	createdProd.Close() // close inboxes so loops flush and exit
	statusProd.Close()
	createdProd.WaitClosed()
	statusProd.WaitClosed()
}
