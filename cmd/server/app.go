package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"idgraph/internal/directory"
	"idgraph/internal/ipintel"
	jwttoken "idgraph/internal/jwt_token"
	"idgraph/internal/platform/config"
	"idgraph/internal/platform/kafka"
	platformmetrics "idgraph/internal/platform/metrics"
	"idgraph/internal/platform/postgres"
	redisclient "idgraph/internal/platform/redis"
	"idgraph/internal/provenance/publisher"
	provmemory "idgraph/internal/provenance/store/memory"
	provpostgres "idgraph/internal/provenance/store/postgres"
	"idgraph/internal/resolution/handler"
	"idgraph/internal/resolution/matcher"
	"idgraph/internal/resolution/metrics"
	"idgraph/internal/resolution/service"
	"idgraph/internal/resolution/signals"
	"idgraph/internal/resolution/store"
	httptransport "idgraph/internal/transport/http"
	id "idgraph/pkg/domain"
	"idgraph/pkg/platform/retry"
)

type visitorStore interface {
	service.VisitorStore
	matcher.VisitorIndex
}

type intelStore interface {
	matcher.IPIntel
	Put(ctx context.Context, key, domain string) error
}

// app is the wired service. Background loops run until the serve context
// ends; closers run in reverse order.
type app struct {
	router     http.Handler
	background []func(ctx context.Context) error
	closers    []func()

	// memDirectory is set in memory mode only.
	memDirectory *directory.InMemoryStore
	companyCache companyInvalidator
	intel        intelStore
	logger       *slog.Logger
}

// companyInvalidator drops cached company-by-domain lookups, including
// negative entries left by a previous run against the same Redis.
type companyInvalidator interface {
	Invalidate(ctx context.Context, tenantID id.TenantID, domain string) error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg config.Config, log *slog.Logger) (_ *app, err error) {
	a := &app{logger: log}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	reg := prometheus.DefaultRegisterer
	resMetrics := metrics.New(reg)
	httpMetrics := platformmetrics.New(reg)

	retryCfg := retry.Config{
		MaxAttempts:    cfg.Resolution.RetryAttempts,
		InitialBackoff: cfg.Resolution.RetryInitialBackoff,
		MaxBackoff:     cfg.Resolution.RetryMaxBackoff,
		Multiplier:     2,
		JitterFraction: 0.2,
		OnRetry:        retry.LogRetries(log, "resolution_store"),
	}

	var checks []httptransport.HealthCheck

	// Redis is optional: it backs the directory cache and IP intel.
	rc, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	var rdb *goredis.Client
	if rc != nil {
		rdb = rc.Client
		a.closers = append(a.closers, func() { _ = rc.Close() })
		checks = append(checks, httptransport.HealthCheck{Name: "redis", Check: rc.Health})
		a.intel = ipintel.NewRedisStore(rdb, ipintel.WithHashKey(cfg.Redis.IPIntelKey))
	} else {
		a.intel = ipintel.NewInMemoryStore()
	}

	sink, err := buildSink(ctx, cfg.Kafka, log, a, &checks)
	if err != nil {
		return nil, err
	}

	var (
		visitors     visitorStore
		provenance   service.ProvenanceReader
		dirStore     directory.Store
		resolverOpts []service.Option
	)
	switch cfg.Storage {
	case config.StoragePostgres:
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		checks = append(checks, httptransport.HealthCheck{Name: "postgres", Check: db.PingContext})

		prov := provpostgres.New(db)
		provenance = prov
		visitors = store.NewPostgres(db, prov)
		dirStore = directory.NewPostgres(db)
		a.background = append(a.background, relayLoop(db, sink, cfg.Kafka, log, resMetrics))

	default:
		prov := provmemory.NewInMemoryStore()
		provenance = prov
		visitors = store.NewInMemoryStore(prov)
		a.memDirectory = directory.NewInMemoryStore()
		dirStore = a.memDirectory

		pub := publisher.NewPublisher(sink,
			publisher.WithLogger(log),
			publisher.WithMetrics(resMetrics),
			publisher.WithAsyncBuffer(cfg.Kafka.PublishBuffer),
		)
		a.closers = append(a.closers, pub.Close)
		resolverOpts = append(resolverOpts, service.WithPublisher(pub))
	}

	dir := directory.NewCachedStore(dirStore, rdb, cfg.Redis.DirectoryCacheTTL,
		directory.WithCacheLogger(log),
		directory.WithCacheMetrics(resMetrics),
		directory.WithNegativeTTL(cfg.Redis.NegativeCacheTTL),
	)
	a.companyCache = dir

	m := matcher.New(dir, visitors,
		matcher.WithIPIntel(a.intel),
		matcher.WithLogger(log),
		matcher.WithMetrics(resMetrics),
		matcher.WithRetry(retryCfg),
	)

	resolverOpts = append(resolverOpts,
		service.WithLogger(log),
		service.WithMetrics(resMetrics),
		service.WithRetry(retryCfg),
		service.WithThreshold(cfg.Resolution.Threshold),
		service.WithExtractor(signals.Extractor{DropBots: cfg.Resolution.DropBots}),
		service.WithHistoryLimits(cfg.Resolution.HistoryDefault, cfg.Resolution.HistoryMax),
	)
	resolver, err := service.New(visitors, provenance, m, dir, resolverOpts...)
	if err != nil {
		return nil, fmt.Errorf("build resolver: %w", err)
	}

	validator := jwttoken.NewJWTServiceAdapter(jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer))
	a.router = httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Metrics:        httpMetrics,
		Gatherer:       prometheus.DefaultGatherer,
		Validator:      validator,
		RequestTimeout: cfg.Server.RequestTimeout,
		Checks:         checks,
	}, handler.New(resolver, log))
	return a, nil
}

// buildSink returns a Kafka sink when brokers are configured and a log sink
// otherwise.
func buildSink(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger, a *app, checks *[]httptransport.HealthCheck) (publisher.Sink, error) {
	if len(cfg.Brokers) == 0 {
		log.InfoContext(ctx, "no kafka brokers configured; provenance entries will be logged")
		return publisher.LogSink{Logger: log}, nil
	}
	kc, err := kafka.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, kc.Close)
	if err := publisher.EnsureTopic(ctx, kc.Admin, cfg.Topic, cfg.Partitions, cfg.ReplicationFactor); err != nil {
		return nil, err
	}
	*checks = append(*checks, httptransport.HealthCheck{Name: "kafka", Check: kc.Health})
	return publisher.NewKafkaSink(kc.Client, cfg.Topic), nil
}

func relayLoop(db *sql.DB, sink publisher.Sink, cfg config.KafkaConfig, log *slog.Logger, m *metrics.Metrics) func(context.Context) error {
	relay := publisher.NewRelay(db, sink,
		publisher.WithRelayLogger(log),
		publisher.WithRelayMetrics(m),
		publisher.WithBatchSize(cfg.RelayBatchSize),
		publisher.WithPollInterval(cfg.RelayPollInterval),
		publisher.WithMaxAttempts(cfg.RelayMaxAttempts),
	)
	return relay.Run
}
