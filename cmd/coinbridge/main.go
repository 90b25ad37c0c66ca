package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinbridge/internal/application"
	"coinbridge/internal/config"
	"coinbridge/internal/infrastructure/blockstore"
	"coinbridge/internal/infrastructure/chainrest"
	"coinbridge/internal/infrastructure/kafka"
	"coinbridge/internal/infrastructure/logging"
	"coinbridge/internal/infrastructure/telemetry"
	"coinbridge/internal/interfaces/httpapi"
	"coinbridge/internal/streaming"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	rotating, err := logging.Init(logging.Config{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		log.Fatalf("logging error: %v", err)
	}
	if rotating != nil {
		defer rotating.Close()
	}

	network, err := config.ResolveNetwork(cfg)
	if err != nil {
		log.Fatalf("network error: %v", err)
	}

	shutdownTracing, err := telemetry.InitTracer(context.Background(), "coinbridge", cfg.OtelEndpoint)
	if err != nil {
		log.Printf("tracing init error: %v", err)
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				log.Printf("tracing shutdown error: %v", err)
			}
		}()
	}

	node, err := chainrest.NewClient(chainrest.Config{
		BaseURL: cfg.NodeURL,
		Timeout: cfg.NodeTimeout,
	})
	if err != nil {
		log.Fatalf("node client error: %v", err)
	}

	baseStore, err := blockstore.NewStore(blockstore.Config{
		Driver: cfg.BlockDBDriver,
		DSN:    cfg.BlockDBDSN,
	})
	if err != nil {
		log.Fatalf("block store error: %v", err)
	}
	defer baseStore.Close()

	var store application.BlockStore = baseStore
	var pinger httpapi.Pinger = baseStore
	if cachedStore, err := blockstore.NewCachedStore(baseStore, blockstore.CacheConfig{
		Addr: cfg.RedisAddr,
		TTL:  24 * time.Hour,
	}); err != nil {
		log.Printf("redis block cache disabled: %v", err)
	} else if cachedStore != nil {
		store = cachedStore
		pinger = cachedStore
	}

	blocks, err := application.NewBlockResolver(node, store)
	if err != nil {
		log.Fatalf("block resolver error: %v", err)
	}
	cache, err := application.NewCurrencyCache(network)
	if err != nil {
		log.Fatalf("currency cache error: %v", err)
	}

	metrics := httpapi.NewMetrics()

	var audit application.AuditPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:     cfg.KafkaBrokers,
			TopicPrefix: cfg.KafkaTopicPrefix,
		})
		if err != nil {
			log.Fatalf("kafka producer error: %v", err)
		}
		defer producer.Close()
		audit = meteredAudit{producer: producer, metrics: metrics}
	}

	service, err := application.NewBalanceService(network, node, blocks, cache, audit)
	if err != nil {
		log.Fatalf("balance service error: %v", err)
	}

	httpServer, err := httpapi.NewServer(network, service, node, pinger, metrics, httpapi.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	})
	if err != nil {
		log.Fatalf("http server error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("coinbridge listening",
		"addr", cfg.HTTPAddr,
		"blockchain", network.Blockchain,
		"network", network.Name,
		"node", cfg.NodeURL,
	)
	if err := httpServer.ListenAndServe(ctx, cfg.HTTPAddr); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("http server error: %v", err)
	}
}

// meteredAudit counts publish failures without letting them reach the
// request path.
type meteredAudit struct {
	producer *kafka.Producer
	metrics  *httpapi.Metrics
}

func (a meteredAudit) PublishQuery(ctx context.Context, event streaming.QueryEvent) error {
	if err := a.producer.PublishQuery(ctx, event); err != nil {
		a.metrics.IncAuditPublishErr()
		return err
	}
	return nil
}
