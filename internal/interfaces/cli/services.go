package cli

import (
	"context"
	stdliberrors "errors"
	"net/http"
	"time"

	"github.com/turtacn/CaseIntel/internal/application/backfill"
	"github.com/turtacn/CaseIntel/internal/application/scoring"
	"github.com/turtacn/CaseIntel/internal/application/statistics"
	"github.com/turtacn/CaseIntel/internal/config"
	"github.com/turtacn/CaseIntel/internal/domain/analytics"
	"github.com/turtacn/CaseIntel/internal/domain/entity"
	"github.com/turtacn/CaseIntel/internal/domain/litigation"
	"github.com/turtacn/CaseIntel/internal/infrastructure/database/postgres"
	"github.com/turtacn/CaseIntel/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/CaseIntel/internal/infrastructure/database/redis"
	"github.com/turtacn/CaseIntel/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/CaseIntel/internal/intelligence/common"
	"github.com/turtacn/CaseIntel/internal/intelligence/entity_extractor"
	"github.com/turtacn/CaseIntel/internal/intelligence/outcome_classifier"
	opshttp "github.com/turtacn/CaseIntel/internal/interfaces/http"
	"github.com/turtacn/CaseIntel/internal/interfaces/http/handlers"
	ctypes "github.com/turtacn/CaseIntel/pkg/types/common"
)

// Services holds the stores and sinks a pipeline command runs against.
// Optional members may be nil.
type Services struct {
	Cases     litigation.CaseReader
	Entities  entity.Repository
	Stats     analytics.StatisticsRepository
	Analytics analytics.AnalyticsRepository
	Results   analytics.ResultWriter

	Publisher  analytics.EventPublisher
	Checkpoint common.Checkpointer
	Locker     common.Locker
	AI         outcome_classifier.Classifier
	Metrics    *prometheus.PipelineMetrics
	Collector  prometheus.MetricsCollector
	Clock      ctypes.Clock

	// Checks back the ops readiness probe.
	Checks []handlers.HealthChecker

	closers []func() error
}

// OnClose registers fn to run when the services are closed.  Closers run in
// reverse registration order.
func (s *Services) OnClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Close releases every registered resource.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return stdliberrors.Join(errs...)
}

func (s *Services) stageMetrics() common.StageMetrics {
	if s.Metrics == nil {
		return common.NopMetrics()
	}
	return s.Metrics
}

// ServiceFactory builds the Services for one command invocation.
type ServiceFactory func(ctx context.Context, cc *CLIContext) (*Services, error)

// DefaultServiceFactory connects to PostgreSQL and, when configured, Redis,
// Kafka, the AI classifier and the metrics registry.
func DefaultServiceFactory(_ context.Context, cc *CLIContext) (*Services, error) {
	cfg, log := cc.Config, cc.Logger
	svc := &Services{}

	conn, err := postgres.NewConnection(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	svc.OnClose(conn.Close)
	svc.Checks = append(svc.Checks, handlers.NamedCheck("postgres", conn.HealthCheck))
	svc.Cases = repositories.NewPostgresCaseReader(conn, log)
	svc.Entities = repositories.NewPostgresEntityRepo(conn, log)
	svc.Stats = repositories.NewPostgresStatisticsRepo(conn, log)
	svc.Analytics = repositories.NewPostgresAnalyticsRepo(conn, log)
	svc.Results = repositories.NewPostgresResultWriter(conn, log)

	if cfg.Redis.Addr != "" {
		rc, err := redis.NewClient(cfg.Redis, log)
		if err != nil {
			_ = svc.Close()
			return nil, err
		}
		svc.OnClose(rc.Close)
		svc.Checks = append(svc.Checks, handlers.NamedCheck("redis", rc.Ping))
		svc.Locker = redis.NewLockFactory(rc, log)
		svc.Checkpoint = redis.NewCheckpointStore(rc, cfg.Pipeline.Backfill.CheckpointTTL, log)
	} else {
		log.Warn("redis not configured; checkpoints and entity locks disabled")
	}

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka, log)
		if err != nil {
			_ = svc.Close()
			return nil, err
		}
		svc.OnClose(producer.Close)
		svc.Publisher = producer
	}

	if ai := cfg.Pipeline.Classification.AI; ai.Enabled {
		clf, err := outcome_classifier.NewOpenAIClassifier(ai, log)
		if err != nil {
			_ = svc.Close()
			return nil, err
		}
		svc.AI = clf
	}

	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:   cfg.Metrics.Namespace,
			ConstLabels: map[string]string{"version": Version},
		}, log)
		if err != nil {
			_ = svc.Close()
			return nil, err
		}
		svc.Collector = collector
		svc.Metrics = prometheus.NewPipelineMetrics(collector)
	}
	return svc, nil
}

// newExtractor builds the extraction stage over svc.
func newExtractor(cfg *config.Config, svc *Services, log logging.Logger) *entity_extractor.Extractor {
	opts := []entity_extractor.Option{
		entity_extractor.WithLogger(log),
		entity_extractor.WithMetrics(svc.stageMetrics()),
		entity_extractor.WithRetryPolicy(common.PolicyFromConfig(cfg.Pipeline.Backfill)),
	}
	if svc.Checkpoint != nil {
		opts = append(opts, entity_extractor.WithCheckpointer(svc.Checkpoint))
	}
	if svc.Clock != nil {
		opts = append(opts, entity_extractor.WithClock(svc.Clock))
	}
	return entity_extractor.NewExtractor(cfg.Pipeline.Extraction, svc.Cases, svc.Entities, opts...)
}

// newDriver builds the aggregate, score and backfill stages over svc.
func newDriver(cfg *config.Config, svc *Services, log logging.Logger) (*backfill.Driver, error) {
	p := cfg.Pipeline
	metrics := svc.stageMetrics()
	retry := common.PolicyFromConfig(p.Backfill)

	resolver := outcome_classifier.NewResolver(
		outcome_classifier.NewRuleClassifier(p.Classification), svc.AI, metrics, log)
	agg, err := statistics.NewAggregator(statistics.Deps{
		Cases:    svc.Cases,
		Stats:    svc.Stats,
		Resolver: resolver,
		Subjects: statistics.NewSubjectMatcher(p.Scoring.SubjectKeywords),
		Retry:    retry,
		Metrics:  metrics,
		Clock:    svc.Clock,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}
	model, err := scoring.NewModel(p.Scoring)
	if err != nil {
		return nil, err
	}
	return backfill.NewDriver(p.Backfill, p.Extraction.PageSize, backfill.Deps{
		Entities:   svc.Entities,
		Aggregator: agg,
		Scorer:     scoring.NewScorer(model, svc.Analytics, metrics, svc.Clock, log),
		Stats:      svc.Stats,
		Results:    svc.Results,
		Publisher:  svc.Publisher,
		Checkpoint: svc.Checkpoint,
		Locker:     svc.Locker,
		Metrics:    metrics,
		Clock:      svc.Clock,
		Logger:     log,
	})
}

// startOps serves probes and /metrics on cc.OpsAddr for the duration of a
// run.  The returned stop function is a no-op when no address is set.
func startOps(cc *CLIContext, svc *Services, command string) (func(), error) {
	if cc.OpsAddr == "" {
		return func() {}, nil
	}
	started := time.Now()
	health := handlers.NewHealthHandler(Version, svc.Checks...).WithProgress(func() any {
		return map[string]string{
			"command": command,
			"elapsed": time.Since(started).Truncate(time.Second).String(),
		}
	})
	var metrics http.Handler
	if svc.Collector != nil {
		metrics = svc.Collector.Handler()
	}
	srv := opshttp.NewServer(cc.OpsAddr, health, metrics, cc.Logger)
	if err := srv.Start(); err != nil {
		return nil, err
	}
	return func() {
		if err := srv.Stop(context.Background()); err != nil {
			cc.Logger.Warn("stopping ops server failed", logging.Err(err))
		}
	}, nil
}

// finishMetrics records the run summary and pushes the registry when a
// Pushgateway is configured.  Push failures are logged only.
func finishMetrics(ctx context.Context, cfg *config.Config, svc *Services, stage string, succeeded, failed, skipped int, log logging.Logger) {
	if svc.Metrics == nil {
		return
	}
	svc.Metrics.RunFinished(stage, succeeded, failed, skipped)
	if cfg.Metrics.PushgatewayURL == "" || svc.Collector == nil {
		return
	}
	if err := svc.Collector.Push(context.WithoutCancel(ctx), cfg.Metrics.PushgatewayURL, cfg.Metrics.JobName); err != nil {
		log.Warn("metrics push failed", logging.Err(err))
	}
}

//Personal.AI order the ending
