package di

import (
	"context"
	"fmt"
	"time"

	"tradehits/internal/domain/repository"
	domsvc "tradehits/internal/domain/service"
	mid "tradehits/internal/middleware"
	internalrepo "tradehits/internal/repository"
	"tradehits/internal/service/feed"
	"tradehits/internal/services/analytics"
	"tradehits/internal/services/engine"
	"tradehits/internal/usecase"
	pkgch "tradehits/pkg/clickhouse"
	"tradehits/pkg/config"
	pkgkafka "tradehits/pkg/kafka"
	applogger "tradehits/pkg/logger"
	"tradehits/pkg/metrics"
	pkgqueue "tradehits/pkg/queue"
	"tradehits/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the shared structured logger.
func ProvideLogger() *applogger.Logger {
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	return l
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const snapshotDDL = `CREATE TABLE IF NOT EXISTS %s (
        ts DateTime, symbol String, tf String,
        close Float64, vol Float64,
        rsi Float64, macd Float64, macd_signal Float64, macd_hist Float64,
        ema_fast Float64, ema_slow Float64,
        growth_score Float64, pivot_low UInt8, pivot_high UInt8,
        sma_200 Float64, vwap Float64
    ) ENGINE=MergeTree ORDER BY (symbol, ts)`

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS tradehits",
		fmt.Sprintf(snapshotDDL, "tradehits.ind_snapshots_1d"),
		fmt.Sprintf(snapshotDDL, "tradehits.ind_snapshots_1h"),
		fmt.Sprintf(snapshotDDL, "tradehits.ind_snapshots_5m"),
		`CREATE TABLE IF NOT EXISTS tradehits.crossover_events (
            ts DateTime, symbol String, signal_type String,
            magnitude Float64, confidence Float64
        ) ENGINE=MergeTree ORDER BY (symbol, ts)`,
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSnapshotStorage creates ClickHouse storage repository.
func ProvideSnapshotStorage(chClient *pkgch.Client) repository.Storage {
	return internalrepo.NewClickHouseStorage(chClient.DB())
}

// ProvideSnapshotPublisher creates Kafka publisher repository.
func ProvideSnapshotPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	crossoverTopic := cfg.Kafka.CrossoverTopic
	if crossoverTopic == "" {
		crossoverTopic = cfg.Kafka.Topic + ".crossovers"
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic, crossoverTopic)
}

// ProvideSnapshotStore creates the read-side snapshot store.
func ProvideSnapshotStore(chClient *pkgch.Client, l *applogger.Logger) repository.SnapshotStore {
	store := internalrepo.NewCHSnapshotStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideDetector creates the shared crossover detector.
func ProvideDetector() *engine.Detector {
	return engine.NewDetector()
}

// ProvideSentimentProvider selects the sentiment backend from config.
func ProvideSentimentProvider(cfg *config.Config) domsvc.SentimentProvider {
	if cfg.Sentiment.ServiceURL != "" {
		return analytics.NewHTTPSentimentProvider(cfg)
	}
	return analytics.NeutralSentimentProvider{}
}

// ProvideKafkaSnapshotsHandler registers handler for the snapshots topic.
func ProvideKafkaSnapshotsHandler(
	store repository.Storage,
	pub repository.Publisher,
	detector *engine.Detector,
	sentiment domsvc.SentimentProvider,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.KafkaSnapshotsHandler {
	return usecase.NewKafkaSnapshotsHandler(cfg.Kafka.Topic, store, pub, detector, sentiment, metrics)
}

// ProvideFeedStream creates the indicator feed WebSocket stream.
func ProvideFeedStream(cfg *config.Config) repository.SnapshotStream {
	return feed.New(
		cfg.Feed.APIKey,
		cfg.Feed.WebSocketURL,
		cfg.Feed.Symbols,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
	)
}

// ProvideSnapshotProcessor creates snapshot processor use case.
func ProvideSnapshotProcessor(
	pub repository.Publisher,
	store repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.SnapshotProcessor {
	return usecase.NewSnapshotProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideSnapshotCollector creates snapshot collector use case.
func ProvideSnapshotCollector(
	stream repository.SnapshotStream,
	processor *usecase.SnapshotProcessor,
	metrics repository.Metrics,
) *usecase.SnapshotCollector {
	// Build middleware pipeline between WebSocket and the backend
	pipe := mid.NewRealtimePipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewSnapshotCollector(stream, processor, metrics, pipe)
}

// ProvideSignalEngine creates the per-timeframe scorer.
func ProvideSignalEngine(store repository.SnapshotStore) *usecase.SignalEngine {
	return usecase.NewSignalEngine(store)
}

// ProvideFusedUseCase creates the fusion use case.
func ProvideFusedUseCase(eng *usecase.SignalEngine) *usecase.FusedSignalsUseCase {
	return usecase.NewFusedSignalsUseCase(eng)
}

// ProvideUniverse builds the ranked symbol universe from config.
func ProvideUniverse(cfg *config.Config) []usecase.UniverseEntry {
	out := make([]usecase.UniverseEntry, 0, len(cfg.Engine.Universe))
	for _, u := range cfg.Engine.Universe {
		out = append(out, usecase.UniverseEntry{Symbol: u.Symbol, AssetType: u.AssetType})
	}
	return out
}

// ProvideRefresher creates the opportunity refresher.
func ProvideRefresher(
	fused *usecase.FusedSignalsUseCase,
	store repository.SnapshotStore,
	metrics repository.Metrics,
	l *applogger.Logger,
	universe []usecase.UniverseEntry,
	cfg *config.Config,
) *usecase.OpportunityRefresher {
	return usecase.NewOpportunityRefresher(
		fused,
		store,
		metrics,
		l,
		universe,
		cfg.Engine.RefreshWorkers,
		cfg.Engine.RefreshInterval,
	)
}

// ProvideRefreshQueue creates the Redis refresh job queue, or nil if disabled.
func ProvideRefreshQueue(cfg *config.Config, l *applogger.Logger, refresher *usecase.OpportunityRefresher) *pkgqueue.RedisQueue {
	if !cfg.Engine.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Engine.Redis.Addr,
		Password: cfg.Engine.Redis.Password,
		DB:       cfg.Engine.Redis.DB,
	})
	return pkgqueue.NewRedisConsumer(l,
		&pkgqueue.QueueConfig{Workers: 2, RetryLimit: 3, RetryDelay: 10 * time.Second},
		client,
		[]pkgqueue.Job{usecase.NewRefreshJob(refresher)},
		pkgqueue.WithKeyPrefix("tradehits:queue"),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.SnapshotCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSnapshotsHandler,
	chClient *pkgch.Client,
	storage repository.Storage,
	refresher *usecase.OpportunityRefresher,
	queue *pkgqueue.RedisQueue,
) *server.App {
	// Attach hook to consumer: example NoopHook for now; can be replaced via config
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, collector, consumer, kh, chClient)
	app.SetStorage(storage)
	app.SetRefresher(refresher)
	app.SetQueue(queue)
	// attach snapshot processor to app for closing resources via collector
	if collector != nil {
		app.SnapProc = collector.Processor()
	}
	return app
}
