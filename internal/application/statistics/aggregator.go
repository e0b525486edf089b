// Package statistics links cases to entities and aggregates per-entity case
// statistics: outcome counts, monetary totals and subject counts.
package statistics

import (
	"context"
	"time"

	"github.com/turtacn/CaseIntel/internal/config"
	"github.com/turtacn/CaseIntel/internal/domain/analytics"
	"github.com/turtacn/CaseIntel/internal/domain/entity"
	"github.com/turtacn/CaseIntel/internal/domain/litigation"
	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CaseIntel/internal/intelligence/common"
	"github.com/turtacn/CaseIntel/internal/intelligence/outcome_classifier"
	"github.com/turtacn/CaseIntel/pkg/errors"
	ctypes "github.com/turtacn/CaseIntel/pkg/types/common"
)

// ============================================================================
// Dependencies
// ============================================================================

// Deps carries the collaborators of an Aggregator.  Cases, Stats and
// Resolver are required.
type Deps struct {
	Cases    litigation.CaseReader
	Stats    analytics.StatisticsRepository
	Resolver *outcome_classifier.Resolver
	Subjects *SubjectMatcher
	Retry    common.RetryPolicy
	Metrics  common.StageMetrics
	Clock    ctypes.Clock
	Logger   logging.Logger
}

// Aggregator computes CaseStatistics for one entity at a time.  It holds no
// per-entity state, so one Aggregator may serve several workers.
type Aggregator struct {
	cases    litigation.CaseReader
	stats    analytics.StatisticsRepository
	resolver *outcome_classifier.Resolver
	subjects *SubjectMatcher
	retry    common.RetryPolicy
	metrics  common.StageMetrics
	clock    ctypes.Clock
	log      logging.Logger
}

// NewAggregator validates d and returns an Aggregator.
func NewAggregator(d Deps) (*Aggregator, error) {
	if d.Cases == nil || d.Stats == nil || d.Resolver == nil {
		return nil, errors.InvalidParam("aggregator requires cases, statistics repository and resolver")
	}
	if d.Subjects == nil {
		d.Subjects = NewSubjectMatcher(config.DefaultSubjectKeywords)
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
	return &Aggregator{
		cases:    d.Cases,
		stats:    d.Stats,
		resolver: d.Resolver,
		subjects: d.Subjects,
		retry:    d.Retry,
		metrics:  d.Metrics,
		clock:    d.Clock,
		log:      d.Logger.With(logging.Stage(common.StageAggregate)),
	}, nil
}

// ============================================================================
// Compute
// ============================================================================

// LinkedCases returns the cases that mention e by canonical name or alias,
// ordered by id.  The repository search is re-checked in memory so that a
// looser database match never inflates the counts.
func (a *Aggregator) LinkedCases(ctx context.Context, e *entity.Entity) ([]*litigation.CaseRecord, error) {
	names := e.Names()
	var found []*litigation.CaseRecord
	_, err := common.Retry(ctx, a.retry, a.retryHook(), func(ctx context.Context) error {
		var findErr error
		found, findErr = a.cases.FindByNames(ctx, names)
		return findErr
	})
	if err != nil {
		return nil, errors.Wrap(err, "", "find linked cases").WithDetail(e.ID)
	}
	seen := make(map[int64]bool, len(found))
	out := found[:0]
	for _, c := range found {
		if seen[c.ID] || !litigation.Mentions(c, names) {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out, nil
}

// Compute builds the statistics of e without writing them.  Zero linked
// cases yield an all-zero record with outcome N/A.
func (a *Aggregator) Compute(ctx context.Context, e *entity.Entity) (*analytics.CaseStatistics, error) {
	linked, err := a.LinkedCases(ctx, e)
	if err != nil {
		return nil, err
	}
	names := e.Names()
	log := a.log.With(logging.EntityID(e.ID), logging.Category(string(e.Category)))

	st := analytics.NewCaseStatistics(e.ID, e.Category)
	for _, c := range linked {
		side := litigation.SideOf(c, names)
		res := a.resolver.Resolve(ctx, c, side, names)
		st.Record(res.Outcome)
		if res.Source == common.SourceAI {
			st.AIClassified++
		}

		amount, ok, err := c.Amount()
		switch {
		case err != nil:
			log.Warn("skipping unparseable amount", logging.CaseID(c.ID), logging.Err(err))
		case ok:
			st.RecordAmount(amount)
		}
		st.RecordSubject(a.subjects.Match(c))
	}
	st.Finalize()
	st.UpdatedAt = a.clock.Now()

	if err := st.Validate(); err != nil {
		return nil, err
	}
	log.Debug("statistics computed",
		logging.Int("total_cases", st.TotalCases),
		logging.String("case_outcome", string(st.CaseOutcome)))
	return st, nil
}

// Aggregate computes and stores the statistics of e.  The write is attempted
// once; callers that want retries wrap the whole unit.
func (a *Aggregator) Aggregate(ctx context.Context, e *entity.Entity) (*analytics.CaseStatistics, error) {
	start := time.Now()
	st, err := a.Compute(ctx, e)
	if err == nil {
		if err = a.stats.Upsert(ctx, st); err != nil {
			err = errors.Wrap(err, "", "store case statistics").WithDetail(e.ID)
		}
	}
	a.metrics.UnitProcessed(common.StageAggregate, common.ClassifyError(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (a *Aggregator) retryHook() common.RetryHook {
	return func(attempt int, err error, delay time.Duration) {
		a.metrics.Retried(common.StageAggregate)
		a.log.Warn("retrying after transient failure",
			logging.Int("attempt", attempt), logging.Duration("delay", delay), logging.Err(err))
	}
}

//Personal.AI order the ending
