// Package backfill drives the aggregation and scoring stages over a set of
// entities.  Work is partitioned strictly by entity id: each unit recomputes
// one entity's statistics and analytics and stores both in one transaction.
package backfill

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/CaseIntel/internal/application/scoring"
	"github.com/turtacn/CaseIntel/internal/application/statistics"
	"github.com/turtacn/CaseIntel/internal/config"
	"github.com/turtacn/CaseIntel/internal/domain/analytics"
	"github.com/turtacn/CaseIntel/internal/domain/entity"
	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CaseIntel/internal/intelligence/common"
	"github.com/turtacn/CaseIntel/pkg/errors"
	ctypes "github.com/turtacn/CaseIntel/pkg/types/common"
)

// ============================================================================
// Options and report
// ============================================================================

// Stage selects which part of the pipeline a run executes.
type Stage string

const (
	// StageAll aggregates and scores, storing both records together.
	StageAll Stage = "all"
	// StageAggregate only recomputes case statistics.
	StageAggregate Stage = "aggregate"
	// StageScore rescores the stored statistics.
	StageScore Stage = "score"
)

// ParseStage validates s.  Empty means StageAll.
func ParseStage(s string) (Stage, error) {
	switch Stage(s) {
	case "", StageAll:
		return StageAll, nil
	case StageAggregate, StageScore:
		return Stage(s), nil
	}
	return "", errors.InvalidParam("unknown stage").WithDetail(s)
}

// Options controls one backfill run.
type Options struct {
	// Category restricts a full run to one entity category; empty means all.
	Category entity.Category
	// EntityIDs runs exactly these entities instead of listing by category.
	EntityIDs []string
	Stage     Stage
	// Workers overrides the configured worker count when positive.
	Workers int
	// DryRun computes everything and writes nothing.
	DryRun bool
	// Resume continues after the last checkpointed entity id.
	Resume bool
}

// UnitResult is the outcome of one entity.
type UnitResult struct {
	EntityID  string              `json:"entity_id"`
	Status    common.UnitStatus   `json:"status"`
	Error     string              `json:"error,omitempty"`
	Total     int                 `json:"total_cases"`
	RiskScore float64             `json:"risk_score"`
	RiskLevel analytics.RiskLevel `json:"risk_level,omitempty"`
	Elapsed   time.Duration       `json:"elapsed"`
}

// Report summarises a run.  Every listed entity appears in Results, or is
// counted in NotStarted when the run was cancelled before reaching it.
// Entities on pages not yet listed at cancellation are not counted.
type Report struct {
	RunID      string        `json:"run_id"`
	Stage      Stage         `json:"stage"`
	DryRun     bool          `json:"dry_run"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	NotStarted int           `json:"not_started"`
	Results    []UnitResult  `json:"results"`
	Elapsed    time.Duration `json:"elapsed"`
}

// HasFailures reports whether any unit failed or timed out.
func (r *Report) HasFailures() bool { return r.Failed > 0 }

func (r *Report) add(res UnitResult) {
	r.Results = append(r.Results, res)
	switch res.Status {
	case common.UnitSucceeded:
		r.Succeeded++
	case common.UnitSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
}

// CheckpointName returns the checkpoint key of a full run over category.
func CheckpointName(category entity.Category) string {
	if category == "" {
		return "backfill:all"
	}
	return "backfill:" + string(category)
}

// ============================================================================
// Driver
// ============================================================================

// Deps carries the collaborators of a Driver.  Entities, Aggregator, Scorer,
// Stats and Results are required.  The Scorer writes the score stage.
type Deps struct {
	Entities   entity.Repository
	Aggregator *statistics.Aggregator
	Scorer     *scoring.Scorer
	Stats      analytics.StatisticsRepository
	Results    analytics.ResultWriter
	Publisher  analytics.EventPublisher
	Checkpoint common.Checkpointer
	Locker     common.Locker
	Metrics    common.StageMetrics
	Clock      ctypes.Clock
	Logger     logging.Logger
}

// Driver runs backfill units over entities.
type Driver struct {
	cfg        config.BackfillConfig
	pageSize   int
	entities   entity.Repository
	aggregator *statistics.Aggregator
	scorer     *scoring.Scorer
	stats      analytics.StatisticsRepository
	results    analytics.ResultWriter
	publisher  analytics.EventPublisher
	checkpoint common.Checkpointer
	locker     common.Locker
	metrics    common.StageMetrics
	retry      common.RetryPolicy
	clock      ctypes.Clock
	log        logging.Logger
}

// NewDriver validates d and returns a Driver.
func NewDriver(cfg config.BackfillConfig, pageSize int, d Deps) (*Driver, error) {
	if d.Entities == nil || d.Aggregator == nil || d.Scorer == nil ||
		d.Stats == nil || d.Results == nil {
		return nil, errors.InvalidParam("backfill driver requires entity, statistics and analytics stores")
	}
	if d.Publisher == nil {
		d.Publisher = analytics.NopPublisher{}
	}
	if d.Checkpoint == nil {
		d.Checkpoint = common.NopCheckpointer{}
	}
	if d.Locker == nil {
		d.Locker = common.NopLocker{}
	}
	if d.Metrics == nil {
		d.Metrics = common.NopMetrics()
	}
	if d.Clock == nil {
		d.Clock = ctypes.SystemClock{}
	}
	if d.Logger == nil {
		d.Logger = logging.NewNopLogger()
	}
	if pageSize <= 0 {
		pageSize = config.DefaultPageSize
	}
	if cfg.Workers < 1 {
		cfg.Workers = config.DefaultWorkers
	}
	if cfg.UnitTimeout <= 0 {
		cfg.UnitTimeout = config.DefaultUnitTimeout
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = config.DefaultLockTTL
	}
	return &Driver{
		cfg:        cfg,
		pageSize:   pageSize,
		entities:   d.Entities,
		aggregator: d.Aggregator,
		scorer:     d.Scorer,
		stats:      d.Stats,
		results:    d.Results,
		publisher:  d.Publisher,
		checkpoint: d.Checkpoint,
		locker:     d.Locker,
		metrics:    d.Metrics,
		retry:      common.PolicyFromConfig(cfg),
		clock:      d.Clock,
		log:        d.Logger.With(logging.Stage(common.StageBackfill)),
	}, nil
}

// Run processes the entities selected by opts.  Unit failures never abort
// the run; they are recorded in the report.  Run returns an error only when
// the entity list cannot be read or ctx is cancelled, and in both cases the
// report covers every unit that finished.  On cancellation the units in
// flight complete and no new unit starts.
func (d *Driver) Run(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()
	stage, err := ParseStage(string(opts.Stage))
	if err != nil {
		return nil, err
	}
	workers := d.cfg.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	report := &Report{RunID: uuid.NewString(), Stage: stage, DryRun: opts.DryRun}
	log := d.log.With(logging.RunID(report.RunID), logging.String("stage_mode", string(stage)),
		logging.Bool("dry_run", opts.DryRun))

	explicit := len(opts.EntityIDs) > 0
	name := CheckpointName(opts.Category)
	var after string
	if !explicit && opts.Resume {
		pos, ok, err := d.checkpoint.Load(ctx, name)
		if err != nil {
			return report, errors.Wrap(err, errors.ErrCodeCheckpointFailed, "load backfill checkpoint")
		}
		if ok {
			after = pos
			log.Info("resuming backfill", logging.String("after_entity_id", after))
		}
	}

	var (
		mu  sync.Mutex
		g   errgroup.Group
		wm  = newWatermark()
		sem = make(chan struct{}, workers)
	)

	save := func(pos string) {
		if explicit || opts.DryRun {
			return
		}
		if err := d.checkpoint.Save(context.WithoutCancel(ctx), name, pos); err != nil {
			log.Warn("checkpoint save failed", logging.String("position", pos), logging.Err(err))
		}
	}

	// schedule starts one unit per id, at most workers at a time.  It stops
	// at the first id that finds ctx cancelled.
	schedule := func(ids []string) bool {
		for i, id := range ids {
			select {
			case <-ctx.Done():
				report.NotStarted += len(ids) - i
				return false
			case sem <- struct{}{}:
			}
			if ctx.Err() != nil {
				<-sem
				report.NotStarted += len(ids) - i
				return false
			}
			wm.add(id)
			id := id
			g.Go(func() error {
				defer func() { <-sem }()
				res := d.runUnit(ctx, id, stage, opts.DryRun, report.RunID)
				mu.Lock()
				report.add(res)
				mu.Unlock()
				wm.finish(id, save)
				return nil
			})
		}
		return true
	}

	completed := true
	var listErr error
	if explicit {
		completed = schedule(dedupe(opts.EntityIDs))
	} else {
		for completed {
			var page []string
			_, listErr = common.Retry(ctx, d.retry, d.retryHook(log), func(ctx context.Context) error {
				var err error
				page, err = d.entities.ListIDs(ctx, entity.ListFilter{
					Category: opts.Category, AfterID: after, Limit: d.pageSize, ActiveOnly: true,
				})
				return err
			})
			if listErr != nil || len(page) == 0 {
				break
			}
			completed = schedule(page)
			after = page[len(page)-1]
			if len(page) < d.pageSize {
				break
			}
		}
	}
	_ = g.Wait()

	sort.Slice(report.Results, func(i, j int) bool { return report.Results[i].EntityID < report.Results[j].EntityID })
	report.Elapsed = time.Since(start)

	if listErr != nil && ctx.Err() == nil {
		log.Error("entity listing failed", logging.Err(listErr))
		return report, errors.Wrap(listErr, "", "list entities for backfill")
	}
	if !completed || ctx.Err() != nil {
		log.Warn("backfill cancelled", logging.Int("not_started", report.NotStarted))
		return report, ctx.Err()
	}
	if !explicit && !opts.DryRun {
		if err := d.checkpoint.Clear(ctx, name); err != nil {
			log.Warn("checkpoint clear failed", logging.Err(err))
		}
	}
	log.Info("backfill finished",
		logging.Int("succeeded", report.Succeeded),
		logging.Int("failed", report.Failed),
		logging.Int("skipped", report.Skipped),
		logging.Duration("elapsed", report.Elapsed))
	return report, nil
}

// ============================================================================
// Unit
// ============================================================================

// runUnit processes one entity.  The unit runs on a context detached from
// the run's cancellation and bounded by UnitTimeout.
func (d *Driver) runUnit(parent context.Context, id string, stage Stage, dryRun bool, runID string) UnitResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), d.cfg.UnitTimeout)
	defer cancel()
	log := d.log.With(logging.RunID(runID), logging.EntityID(id))

	res := UnitResult{EntityID: id}
	var (
		st *analytics.CaseStatistics
		a  *analytics.Analytics
	)
	_, err := common.Retry(ctx, d.retry, d.retryHook(log), func(ctx context.Context) error {
		var err error
		st, a, err = d.process(ctx, id, stage, dryRun)
		return err
	})

	res.Elapsed = time.Since(start)
	res.Status = common.ClassifyError(err)
	d.metrics.UnitProcessed(common.StageBackfill, res.Status, res.Elapsed)
	if err != nil {
		res.Error = err.Error()
		if res.Status == common.UnitSkipped {
			log.Warn("entity skipped", logging.Err(err))
		} else {
			log.Error("entity failed", logging.String("status", res.Status.String()), logging.Err(err))
		}
		return res
	}

	if st != nil {
		res.Total = st.TotalCases
	}
	if a != nil {
		res.RiskScore = a.RiskScore
		res.RiskLevel = a.RiskLevel
	}
	if !dryRun && a != nil {
		d.publish(ctx, log, runID, st, a)
	}
	log.Info("entity processed",
		logging.Int("total_cases", res.Total),
		logging.Float64("risk_score", res.RiskScore),
		logging.Duration("elapsed", res.Elapsed))
	return res
}

// process runs one attempt of a unit under the entity lock.
func (d *Driver) process(ctx context.Context, id string, stage Stage, dryRun bool) (*analytics.CaseStatistics, *analytics.Analytics, error) {
	lock, err := d.locker.Acquire(ctx, "entity:"+id, d.cfg.LockTTL)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			d.log.Warn("entity lock release failed", logging.EntityID(id), logging.Err(err))
		}
	}()

	switch stage {
	case StageScore:
		st, err := d.stats.GetByEntityID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		var a *analytics.Analytics
		if dryRun {
			a, err = d.scorer.Compute(st)
		} else {
			a, err = d.scorer.Score(ctx, st)
		}
		if err != nil {
			return nil, nil, err
		}
		return st, a, nil
	}

	e, err := d.entities.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if stage == StageAggregate && !dryRun {
		st, err := d.aggregator.Aggregate(ctx, e)
		if err != nil {
			return nil, nil, err
		}
		return st, nil, nil
	}
	st, err := d.aggregator.Compute(ctx, e)
	if err != nil {
		return nil, nil, err
	}
	if stage == StageAggregate {
		return st, nil, nil
	}

	a, err := d.scorer.Compute(st)
	if err != nil {
		return nil, nil, err
	}
	if !dryRun {
		if err := d.results.SaveResults(ctx, st, a); err != nil {
			return nil, nil, err
		}
	}
	return st, a, nil
}

// publish emits the change event.  A publish failure does not fail the unit
// because the records are already committed.
func (d *Driver) publish(ctx context.Context, log logging.Logger, runID string, st *analytics.CaseStatistics, a *analytics.Analytics) {
	ev := &analytics.UpdatedEvent{
		EventID:    uuid.NewString(),
		EventType:  analytics.EventTypeUpdated,
		RunID:      runID,
		EntityID:   a.EntityID,
		Category:   a.Category,
		RiskScore:  a.RiskScore,
		RiskLevel:  a.RiskLevel,
		OccurredAt: d.clock.Now(),
	}
	if st != nil {
		ev.TotalCases = st.TotalCases
		ev.CaseOutcome = st.CaseOutcome
	}
	if err := d.publisher.PublishUpdated(ctx, ev); err != nil {
		log.Warn("analytics event not published",
			logging.Err(errors.Wrap(err, errors.ErrCodeEventPublishFailed, "publish analytics event")))
	}
}

func (d *Driver) retryHook(log logging.Logger) common.RetryHook {
	return func(attempt int, err error, delay time.Duration) {
		d.metrics.Retried(common.StageBackfill)
		log.Warn("retrying after transient failure",
			logging.Int("attempt", attempt), logging.Duration("delay", delay), logging.Err(err))
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

//Personal.AI order the ending
