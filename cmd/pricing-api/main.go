// README: Entry point; loads config, wires services, starts the HTTP server and the trip event consumer.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc"

	"mobility-pricing/internal/config"
	httptransport "mobility-pricing/internal/http"
	"mobility-pricing/internal/idempotency"
	"mobility-pricing/internal/infra"
	"mobility-pricing/internal/logger"
	"mobility-pricing/internal/messaging"
	"mobility-pricing/internal/modules/discountrule"
	"mobility-pricing/internal/modules/network"
	"mobility-pricing/internal/modules/pricing"
	"mobility-pricing/internal/modules/usersummary"
	"mobility-pricing/internal/pubsub"
	"mobility-pricing/internal/pubsub/memory"
	"mobility-pricing/internal/pubsub/rabbitmq"
	"mobility-pricing/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		lg.Fatalw("postgres init", "error", err)
	}
	defer dbPool.Close()
	if err := infra.Migrate(ctx, dbPool, migrations.FS); err != nil {
		lg.Fatalw("apply migrations", "error", err)
	}

	broker, err := newBroker(cfg, lg)
	if err != nil {
		lg.Fatalw("broker init", "driver", cfg.Broker.Driver, "error", err)
	}
	defer func() { _ = broker.Close() }()

	ruleStore := discountrule.NewStore(dbPool)
	ruleSvc := discountrule.NewService(ruleStore)

	networkSvc := network.NewService(network.NewStore(dbPool))

	summaryClient := usersummary.NewClient(usersummary.ClientConfig{
		BaseURL:  cfg.UserService.BaseURL,
		Timeout:  cfg.UserService.Timeout,
		RetryMax: cfg.UserService.RetryMax,
	}, lg)

	publisher := messaging.NewTripPricedPublisher(broker, messaging.PublisherConfig{
		Topic:           cfg.RabbitMQ.PricedKey,
		Retry:           cfg.Publish.Mode == config.PublishAtLeastOnce,
		MaxRetries:      uint64(cfg.Publish.MaxRetries),
		InitialInterval: cfg.Publish.InitialInterval,
	}, lg)

	pricingSvc := pricing.NewService(pricing.Deps{
		Summaries:       summaryClient,
		Rules:           ruleSvc,
		Audit:           pricing.NewStore(dbPool),
		Publisher:       publisher,
		DefaultDailyCap: decimal.RequireFromString(cfg.Pricing.DefaultDailyCap),
		Logger:          lg,
	})

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Pricing: pricingSvc,
		Rules:   ruleSvc,
		Network: networkSvc,
		Logger:  lg,
	})
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	var wg conc.WaitGroup
	if cfg.Consumer.Enabled {
		var guard messaging.Guard
		if cfg.Idempotency.Enabled {
			redisClient := infra.NewRedis(cfg.Redis.Addr)
			defer func() { _ = redisClient.Close() }()
			guard = idempotency.NewGuard(redisClient, cfg.Idempotency.TTL)
		}
		consumer := messaging.NewTripEventConsumer(broker, pricingSvc, guard, messaging.ConsumerConfig{
			Topic:       cfg.RabbitMQ.CompletedKey,
			Concurrency: cfg.Consumer.Concurrency,
		}, lg)
		wg.Go(func() {
			if err := consumer.Run(ctx); err != nil {
				lg.Errorw("trip event consumer stopped", "error", err)
				stop()
			}
		})
	}

	wg.Go(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Warnw("http shutdown", "error", err)
		}
	})

	lg.Infow("pricing api listening", "addr", cfg.HTTP.Addr, "broker", cfg.Broker.Driver, "publish_mode", cfg.Publish.Mode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Errorw("http server", "error", err)
		stop()
	}
	wg.Wait()
	lg.Infow("pricing api stopped")
}

func newBroker(cfg config.Config, lg *logger.Logger) (pubsub.PubSub, error) {
	if cfg.Broker.Driver == config.BrokerMemory {
		return memory.NewPubSub(), nil
	}
	conn, err := infra.NewRabbitMQ(cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}
	ps, err := rabbitmq.NewPubSub(conn, rabbitmq.Config{
		Exchange: cfg.RabbitMQ.Exchange,
		Queue:    cfg.RabbitMQ.Queue,
		Prefetch: cfg.RabbitMQ.Prefetch,
	}, lg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &closingPubSub{PubSub: ps, conn: conn}, nil
}

// closingPubSub closes the amqp connection after its channels.
type closingPubSub struct {
	pubsub.PubSub
	conn interface{ Close() error }
}

func (c *closingPubSub) Close() error {
	err := c.PubSub.Close()
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
