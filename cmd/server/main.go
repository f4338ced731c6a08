package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	accounthandler "recordhub/internal/account/handler"
	"recordhub/internal/account/reference"
	accountservice "recordhub/internal/account/service"
	accountstore "recordhub/internal/account/store"
	certhandler "recordhub/internal/certificate/handler"
	certservice "recordhub/internal/certificate/service"
	"recordhub/internal/certificate/signature"
	certstore "recordhub/internal/certificate/store"
	"recordhub/internal/certificate/trust"
	"recordhub/internal/certificate/verification"
	"recordhub/internal/idgen"
	"recordhub/internal/persister"
	"recordhub/internal/pii"
	"recordhub/internal/platform/config"
	"recordhub/internal/platform/database"
	"recordhub/internal/platform/health"
	"recordhub/internal/platform/httpserver"
	"recordhub/internal/platform/kafka"
	"recordhub/internal/platform/kafka/producer"
	"recordhub/internal/platform/logger"
	"recordhub/internal/platform/metrics"
	redisclient "recordhub/internal/platform/redis"
	"recordhub/internal/search"
	"recordhub/migrations"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("recordhub stopped with error", "error", err)
		os.Exit(1)
	}
}

// producerCloser is the producer surface main needs beyond publishing.
type producerCloser interface {
	persister.Producer
	Health(ctx context.Context) error
	Close() error
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	checks := health.New()

	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close() //nolint:errcheck // shutdown
	checks.RegisterCheck("database", pool.Health)

	if cfg.Database.RunMigrations {
		if err := database.Migrate(pool.DB(), migrations.FS); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		log.Info("database migrations applied")
	}

	bus, err := newProducer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer bus.Close() //nolint:errcheck // flushes on shutdown
	checks.RegisterCheck("kafka", bus.Health)
	publisher := persister.New(bus, persister.WithLogger(log), persister.WithMetrics(m))

	codec, err := newCodec(cfg.PII, log)
	if err != nil {
		return err
	}
	ids := idgen.NewUUIDGenerator()

	var issuers trust.Registry = trust.NewPrefixRegistry(cfg.Certificate.TrustedPrefixes...)
	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close() //nolint:errcheck // shutdown
		checks.RegisterCheck("redis", rdb.Health)
		issuers = trust.NewCachedRegistry(issuers, rdb.Client, cfg.Certificate.TrustCacheTTL, trust.WithLogger(log))
	}

	accounts := accountservice.New(
		accountstore.NewPostgres(pool.DB(), accountstore.WithLogger(log), accountstore.WithMetrics(m)),
		publisher,
		ids,
		accountservice.Config{
			Limits:      limits(cfg.Account.Search),
			CreateTopic: cfg.Account.CreateTopic,
			UpdateTopic: cfg.Account.UpdateTopic,
		},
		accountservice.WithLogger(log),
		accountservice.WithCodec(codec),
		accountservice.WithReferenceValidator(newReferenceValidator(cfg.Account.References)),
	)

	engine := verification.NewEngine(signature.DigestVerifier{}, issuers,
		verification.WithDefaultContext(cfg.Certificate.DefaultContext),
		verification.WithLogger(log),
		verification.WithMetrics(m),
	)
	certificates := certservice.New(
		certstore.NewPostgres(pool.DB(), certstore.WithLogger(log), certstore.WithMetrics(m)),
		engine,
		signature.DigestSigner{},
		publisher,
		ids,
		certservice.Config{
			Limits:          limits(cfg.Certificate.Search),
			MaxPerRequest:   cfg.Certificate.MaxPerRequest,
			DefaultContext:  cfg.Certificate.DefaultContext,
			ProofType:       cfg.Certificate.ProofType,
			ProofPurpose:    cfg.Certificate.ProofPurpose,
			VerificationKey: cfg.Certificate.VerificationKey,
			CreateTopic:     cfg.Certificate.CreateTopic,
			UpdateTopic:     cfg.Certificate.UpdateTopic,
			RevokeTopic:     cfg.Certificate.RevokeTopic,
		},
		certservice.WithLogger(log),
	)

	router := newRouter(reg,
		checks,
		accounthandler.New(accounts, log),
		certhandler.New(certificates, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting recordhub", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down recordhub")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newProducer(ctx context.Context, cfg config.Server, log *slog.Logger) (producerCloser, error) {
	if cfg.Kafka.Brokers == "" {
		log.Warn("kafka brokers not configured, writes will be dropped")
		return producer.NewNoopProducer(log), nil
	}
	if cfg.Kafka.EnsureTopics {
		if err := kafka.EnsureTopics(ctx, cfg.Kafka, cfg.Topics()...); err != nil {
			return nil, fmt.Errorf("ensure kafka topics: %w", err)
		}
	}
	p, err := producer.New(cfg.Kafka, log)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return p, nil
}

func newCodec(cfg config.PIIConfig, log *slog.Logger) (pii.Codec, error) {
	if cfg.Key == "" {
		log.Warn("pii encryption key not configured, account numbers are stored as given")
		return pii.Passthrough{}, nil
	}
	codec, err := pii.NewAEADCodec(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("configure pii codec: %w", err)
	}
	return codec, nil
}

func limits(l config.PageLimits) search.Limits {
	return search.Limits{
		DefaultOffset: l.DefaultOffset,
		DefaultLimit:  l.DefaultLimit,
		MaxLimit:      l.MaxLimit,
	}
}

func newReferenceValidator(cfg config.ReferenceConfig) accountservice.ReferenceValidator {
	if !cfg.Enabled() {
		return reference.Noop{}
	}
	return reference.NewHTTPValidator(reference.Config{
		IndividualSearchURL:   cfg.IndividualURL(),
		OrganisationSearchURL: cfg.OrganisationURL(),
		Timeout:               cfg.Timeout,
	})
}
