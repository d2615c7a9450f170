package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"PairScout/internal/domain/repository"
	domservice "PairScout/internal/domain/service"
	"PairScout/internal/handler/api"
	mid "PairScout/internal/middleware"
	internalrepo "PairScout/internal/repository"
	"PairScout/internal/service/binance"
	icache "PairScout/internal/service/cache"
	"PairScout/internal/service/notify"
	"PairScout/internal/service/ratelimit"
	"PairScout/internal/services/quant"
	"PairScout/internal/usecase"
	pkgcache "PairScout/pkg/cache"
	pkgch "PairScout/pkg/clickhouse"
	"PairScout/pkg/config"
	xhttp "PairScout/pkg/http"
	pkgkafka "PairScout/pkg/kafka"
	"PairScout/pkg/logger"
	"PairScout/pkg/metrics"
	pkgqueue "PairScout/pkg/queue"
	"PairScout/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	l, err := logger.New(&logger.Config{Level: "info", Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client and initializes the
// schema: raw ticks, candle rollups fed by materialized views, and closed
// trade history.
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.md_ticks_raw (
            ts DateTime64(3), symbol LowCardinality(String), price Float64, volume Float64,
            source LowCardinality(String), event_id String, seq UInt64
        ) ENGINE = ReplacingMergeTree(seq)
        PARTITION BY toYYYYMMDD(ts) ORDER BY (symbol, ts, event_id) TTL toDateTime(ts) + INTERVAL 30 DAY`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.md_candles_1m (
            bucket DateTime, symbol LowCardinality(String),
            open Float64, high Float64, low Float64, close Float64, vol Float64
        ) ENGINE = ReplacingMergeTree ORDER BY (symbol, bucket) TTL bucket + INTERVAL 90 DAY`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.md_candles_1h (
            bucket DateTime, symbol LowCardinality(String),
            open Float64, high Float64, low Float64, close Float64, vol Float64
        ) ENGINE = ReplacingMergeTree ORDER BY (symbol, bucket)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.md_candles_1d (
            bucket DateTime, symbol LowCardinality(String),
            open Float64, high Float64, low Float64, close Float64, vol Float64
        ) ENGINE = ReplacingMergeTree ORDER BY (symbol, bucket)`, db),
		fmt.Sprintf(`CREATE MATERIALIZED VIEW IF NOT EXISTS %s.mv_candles_1m TO %s.md_candles_1m AS
            SELECT toStartOfMinute(ts) AS bucket, symbol,
                argMin(price, ts) AS open, max(price) AS high, min(price) AS low,
                argMax(price, ts) AS close, sum(volume) AS vol
            FROM %s.md_ticks_raw GROUP BY bucket, symbol`, db, db, db),
		fmt.Sprintf(`CREATE MATERIALIZED VIEW IF NOT EXISTS %s.mv_candles_1h TO %s.md_candles_1h AS
            SELECT toStartOfHour(bucket) AS bucket, symbol,
                argMin(open, bucket) AS open, max(high) AS high, min(low) AS low,
                argMax(close, bucket) AS close, sum(vol) AS vol
            FROM %s.md_candles_1m GROUP BY bucket, symbol`, db, db, db),
		fmt.Sprintf(`CREATE MATERIALIZED VIEW IF NOT EXISTS %s.mv_candles_1d TO %s.md_candles_1d AS
            SELECT toStartOfDay(bucket) AS bucket, symbol,
                argMin(open, bucket) AS open, max(high) AS high, min(low) AS low,
                argMax(close, bucket) AS close, sum(vol) AS vol
            FROM %s.md_candles_1h GROUP BY bucket, symbol`, db, db, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.trade_history (
            trade_key String, pair_key String, asset1 String, asset2 String,
            direction LowCardinality(String), entry_at DateTime, exit_at DateTime,
            entry_z Float64, exit_z Float64, pnl_pct Float64,
            exit_reason LowCardinality(String), duration_days Float64
        ) ENGINE = MergeTree ORDER BY (pair_key, exit_at)`, db),
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

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisClient creates the shared Redis connection.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideStateStore creates the Redis-backed scanner/lifecycle state store.
func ProvideStateStore(cli *redis.Client) repository.StateStore {
	return internalrepo.NewRedisStateStore(cli)
}

// ProvideHistoryStore creates ClickHouse trade history storage.
func ProvideHistoryStore(chClient *pkgch.Client) repository.HistoryStore {
	return internalrepo.NewCHHistoryStore(chClient)
}

// ProvideFeatureStore creates the ClickHouse candle reader.
func ProvideFeatureStore(chClient *pkgch.Client, l *logger.Logger) repository.FeatureStore {
	store := internalrepo.NewCHFeatureStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideTickStorage creates ClickHouse tick storage.
func ProvideTickStorage(chClient *pkgch.Client, cfg *config.Config) repository.TickStorage {
	return internalrepo.NewClickHouseTickStorage(chClient.DB(), cfg.ClickHouse.Database+".md_ticks_raw")
}

// ProvideTickPublisher creates Kafka publisher repository.
func ProvideTickPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideTradeEvents creates the trade lifecycle event publisher. Without a
// configured topic events are dropped.
func ProvideTradeEvents(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if cfg.Kafka.TradeEventsTopic == "" {
		return internalrepo.NoopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.TradeEventsTopic)
}

// ProvideKafkaTicksHandler registers handler for the ticks topic.
func ProvideKafkaTicksHandler(store repository.TickStorage, m repository.Metrics, cfg *config.Config) *usecase.KafkaTicksHandler {
	return usecase.NewKafkaTicksHandler(cfg.Kafka.Topic, store, m)
}

// ProvideBinanceStream creates the Binance trade WebSocket stream.
func ProvideBinanceStream(cfg *config.Config) repository.MarketStream {
	return binance.NewStream(
		cfg.Binance.WebSocketURL,
		cfg.Binance.Symbols,
		cfg.Binance.ReconnectDelay,
		cfg.Binance.PingInterval,
	)
}

// ProvideMarketData creates the Binance REST client used for candle backfill
// and universe discovery. Universe snapshots go through a layered cache:
// in-process for the hot path, Redis so restarts and replicas share one
// ticker fetch per TTL window.
func ProvideMarketData(cfg *config.Config, cli *redis.Client, l *logger.Logger) domservice.MarketData {
	httpClient := xhttp.NewClient(xhttp.WithTimeout(20 * time.Second))
	snapshots := pkgcache.NewLayeredCache(
		pkgcache.NewRedisCacheFrom(cli, "pairscout:md"),
		pkgcache.WithLayeredMemorySize(256),
		pkgcache.WithLayeredMemoryTTL(time.Minute),
	)
	return binance.NewRestClient(httpClient, ratelimit.New(), snapshots, binance.RestConfig{
		BaseURL:        cfg.Binance.RESTBaseURL,
		QuoteAsset:     cfg.Binance.QuoteAsset,
		MinQuoteVolume: cfg.Binance.MinQuoteVolume,
		MaxUniverse:    cfg.Binance.MaxUniverse,
		Sectors:        cfg.Binance.Sectors,
		RequestDelay:   cfg.Binance.RequestDelay,
	}, l)
}

// ProvideNotifyQueue creates and starts the Redis-backed notification queue.
// The delivery job pushes dequeued messages to Telegram, or a logging no-op
// when Telegram is disabled.
func ProvideNotifyQueue(cfg *config.Config, l *logger.Logger, cli *redis.Client) (*pkgqueue.RedisQueue, error) {
	var sink domservice.Notifier
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, l)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		sink = tg
	} else {
		sink = notify.NewNoop(l)
	}

	q := pkgqueue.NewRedisQueue(l, &pkgqueue.QueueConfig{
		Workers:    1,
		QueueSize:  100,
		RetryLimit: 3,
		RetryDelay: 5 * time.Second,
	}, cli, pkgqueue.ModeProducerConsumer, pkgqueue.WithKeyPrefix("pairscout"))
	q.RegisterJob(notify.NewDeliveryJob(sink))
	if err := q.Start(); err != nil {
		return nil, fmt.Errorf("notify queue: %w", err)
	}
	return q, nil
}

// ProvideNotifier wraps the queue so cycle summaries never block on delivery.
func ProvideNotifier(q *pkgqueue.RedisQueue) domservice.Notifier {
	return notify.NewQueued(q)
}

// convictionWeights maps YAML conviction settings onto the scorer weights,
// falling back to the tuned defaults when the section is absent.
func convictionWeights(c config.ConvictionConfig) quant.ConvictionWeights {
	if c.Correlation == 0 && c.RSquared == 0 && c.HalfLife == 0 && c.Hurst == 0 {
		return quant.DefaultConvictionWeights()
	}
	return quant.ConvictionWeights{
		Correlation:   c.Correlation,
		RSquared:      c.RSquared,
		HalfLife:      c.HalfLife,
		Hurst:         c.Hurst,
		Cointegration: c.Cointegration,
		BetaDrift:     c.BetaDrift,
		HalfLifeCap:   c.HalfLifeCap,
		DriftCap:      c.DriftCap,
	}
}

func divergenceConfig(c config.DivergenceConfig) quant.DivergenceConfig {
	if len(c.Thresholds) == 0 {
		return quant.DefaultDivergenceConfig()
	}
	return quant.DivergenceConfig{
		Thresholds:       c.Thresholds,
		RevertFraction:   c.RevertFraction,
		MinEvents:        c.MinEvents,
		MinReversionRate: c.MinReversionRate,
		LooseEvents:      c.LooseEvents,
		LooseRate:        c.LooseRate,
		FloorThreshold:   c.FloorThreshold,
	}
}

// ProvidePairAnalyzer creates the pair analysis use case.
func ProvidePairAnalyzer(
	market domservice.MarketData,
	store repository.FeatureStore,
	cfg *config.Config,
	l *logger.Logger,
) *usecase.PairAnalyzer {
	return usecase.NewPairAnalyzer(
		market,
		store,
		cfg.Scanner,
		convictionWeights(cfg.Conviction),
		divergenceConfig(cfg.Divergence),
		l,
	)
}

// ProvidePairScanner creates the scan cycle use case.
func ProvidePairScanner(
	analyzer *usecase.PairAnalyzer,
	market domservice.MarketData,
	state repository.StateStore,
	m repository.Metrics,
	cfg *config.Config,
	l *logger.Logger,
) *usecase.PairScanner {
	return usecase.NewPairScanner(analyzer, market, state, m, cfg.Scanner, l)
}

// ProvideLifecycle creates the trade lifecycle use case.
func ProvideLifecycle(
	analyzer *usecase.PairAnalyzer,
	state repository.StateStore,
	history repository.HistoryStore,
	m repository.Metrics,
	events repository.EventPublisher,
	cfg *config.Config,
	l *logger.Logger,
) *usecase.Lifecycle {
	lc := usecase.NewLifecycle(analyzer, state, history, m, cfg.Scanner, cfg.Lifecycle, l)
	lc.SetEventPublisher(events)
	return lc
}

// ProvideScheduler creates the background cycle scheduler.
func ProvideScheduler(
	scanner *usecase.PairScanner,
	lifecycle *usecase.Lifecycle,
	state repository.StateStore,
	notifier domservice.Notifier,
	m repository.Metrics,
	cfg *config.Config,
	l *logger.Logger,
) *usecase.Scheduler {
	return usecase.NewScheduler(scanner, lifecycle, state, notifier, m, cfg.Scanner, cfg.Lifecycle, l)
}

// ProvideCandlesUseCase creates the candle retrieval use case.
func ProvideCandlesUseCase(store repository.FeatureStore) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(store)
}

// ProvideTickProcessor creates the tick processor use case.
func ProvideTickProcessor(
	pub repository.Publisher,
	store repository.TickStorage,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.TickProcessor {
	return usecase.NewTickProcessor(
		pub,
		store,
		m,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideTickCollector creates the tick collector use case.
func ProvideTickCollector(
	stream repository.MarketStream,
	processor *usecase.TickProcessor,
	m repository.Metrics,
) *usecase.TickCollector {
	// Build middleware pipeline between WebSocket and the backend
	pipe := mid.NewRealtimePipeline(processor, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewTickCollector(stream, processor, m, pipe)
}

// ProvidePairsHandler creates the HTTP handler for the pairs API.
func ProvidePairsHandler(
	l *logger.Logger,
	analyzer *usecase.PairAnalyzer,
	scheduler *usecase.Scheduler,
	candles *usecase.CandlesUseCase,
	state repository.StateStore,
	history repository.HistoryStore,
	cli *redis.Client,
) *api.PairsEchoHandler {
	h := api.NewPairsEchoHandler(l, analyzer, scheduler, candles, state, history)
	h.SetCache(icache.NewRedisCacheWith(cli))
	return h
}

// logPublisher adapts the Kafka producer to the log collector's sink.
type logPublisher struct {
	producer *pkgkafka.Producer
}

func (p logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	producer *pkgkafka.Producer,
	kh *usecase.KafkaTicksHandler,
	chClient *pkgch.Client,
	scheduler *usecase.Scheduler,
	handler *api.PairsEchoHandler,
	notifyQueue *pkgqueue.RedisQueue,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NewHookChain(
			pkgkafka.NewLoggingHook(l, time.Second),
		))
	}
	if cfg.Kafka.LogsTopic != "" && producer != nil {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      logPublisher{producer: producer},
		})
	}
	app := server.New(cfg, collector, consumer, kh, chClient, scheduler)
	app.SetHTTPHandler(handler)
	app.SetNotifyQueue(notifyQueue)
	app.SetLogger(l)
	if collector != nil {
		app.TickProc = collector.Processor()
	}
	return app
}
