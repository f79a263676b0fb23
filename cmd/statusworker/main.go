// statusworker keeps the redis order-status cache warm by consuming
// order events. Delivery is at-least-once; a redis dedup key filters
// replays.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/LaZyMugen/shopnexa-sub000/internal/config"
	"github.com/LaZyMugen/shopnexa-sub000/internal/kafkax"
	"github.com/LaZyMugen/shopnexa-sub000/internal/orders"
	"github.com/LaZyMugen/shopnexa-sub000/internal/redisx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type worker struct {
	Redis *redis.Client
	Cache *redisx.StatusCache
	Log   *zap.Logger
}

func (w *worker) handle(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := kafkax.UnwrapEnvelope(m.Value, &env); err != nil {
		return err
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, "statusworker", env.EventID)
	if exists, _ := redisx.Exists(ctx, w.Redis, dkey); exists {
		return nil
	}
	_ = w.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		w.Cache.SetStatus(ctx, p.OrderID, orders.StatusPending)
		w.Log.Info("status cached", zap.String("order_id", p.OrderID), zap.String("status", string(orders.StatusPending)))
	case orders.EventStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.StatusChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		w.Cache.SetStatus(ctx, p.OrderID, p.NewStatus)
		w.Log.Info("status cached", zap.String("order_id", p.OrderID), zap.String("status", string(p.NewStatus)))
	}
	return nil
}

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

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	w := &worker{Redis: rdb, Cache: &redisx.StatusCache{R: rdb}, Log: log}

	group := getenv("STATUSWORKER_GROUP", "statusworker")
	workers := mustAtoi(os.Getenv("STATUSWORKER_WORKERS"), 4)

	g, gctx := errgroup.WithContext(ctx)
	for _, topic := range []string{orders.TopicOrderCreated, orders.TopicStatusChanged} {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topic, workers, log)
		log.Info("consumer started", zap.String("group", group), zap.String("topic", topic), zap.Int("workers", workers))
		g.Go(func() error { return cons.Start(gctx, w.handle) })
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info("shutting down")
		cancel()
	case <-gctx.Done():
	}
	if err := g.Wait(); err != nil {
		log.Error("consumer exit", zap.Error(err))
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
