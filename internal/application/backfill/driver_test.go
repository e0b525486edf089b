package backfill

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CaseIntel/internal/application/scoring"
	"github.com/turtacn/CaseIntel/internal/application/statistics"
	"github.com/turtacn/CaseIntel/internal/config"
	"github.com/turtacn/CaseIntel/internal/domain/analytics"
	"github.com/turtacn/CaseIntel/internal/domain/entity"
	"github.com/turtacn/CaseIntel/internal/domain/litigation"
	"github.com/turtacn/CaseIntel/internal/intelligence/common"
	"github.com/turtacn/CaseIntel/internal/intelligence/outcome_classifier"
	"github.com/turtacn/CaseIntel/internal/testutil"
	"github.com/turtacn/CaseIntel/pkg/errors"
	ctypes "github.com/turtacn/CaseIntel/pkg/types/common"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newEntity(t *testing.T, id string, c entity.Category, name string, aliases ...string) *entity.Entity {
	t.Helper()
	e, err := entity.NewEntity(c, name, now)
	require.NoError(t, err)
	e.ID = id
	for _, a := range aliases {
		e.AddAlias(a, now)
	}
	return e
}

func corpus() *testutil.CaseStore {
	return testutil.NewCaseStore(
		&litigation.CaseRecord{
			ID:          1,
			Title:       "GCB Bank Ltd v. Kwame Mensah",
			Plaintiffs:  "GCB Bank Ltd",
			Defendants:  "Kwame Mensah",
			Judgement:   "Judgment for the plaintiff.",
			AreaOfLaw:   "Banking",
			Summary:     "Recovery of a loan.",
			ClaimAmount: "GH¢ 250,000.00",
		},
		&litigation.CaseRecord{
			ID:          2,
			Title:       "Kwame Mensah v. GCB Bank",
			Plaintiffs:  "Kwame Mensah",
			Defendants:  "GCB Bank",
			Judgement:   "The suit is dismissed.",
			Summary:     "Claim for wrongful dismissal.",
			ClaimAmount: "several thousand",
		},
		&litigation.CaseRecord{
			ID:         3,
			Title:      "Ama Owusu v. Star Assurance Company Limited",
			Plaintiffs: "Ama Owusu",
			Defendants: "Star Assurance Company Limited",
			Judgement:  "Appeal allowed.",
		},
	)
}

type fixture struct {
	cases       *testutil.CaseStore
	entities    *testutil.EntityStore
	results     *testutil.ResultStore
	events      *testutil.RecordingPublisher
	checkpoints *testutil.CheckpointStore
	locker      *testutil.MemoryLocker
	clock       *ctypes.FixedClock
	log         *testutil.MockLogger
	driver      *Driver
}

type fixtureOpts struct {
	cfg      config.BackfillConfig
	pageSize int
	writer   func(analytics.ResultWriter) analytics.ResultWriter
	extra    []*entity.Entity
	metrics  common.StageMetrics
}

func newFixture(t *testing.T, o fixtureOpts) *fixture {
	t.Helper()
	seed := append([]*entity.Entity{
		newEntity(t, "ent-01", entity.CategoryBank, "GCB Bank", "GCB Bank Ltd"),
		newEntity(t, "ent-02", entity.CategoryInsurance, "Star Assurance Company Limited"),
		newEntity(t, "ent-03", entity.CategoryPerson, "Kwame Mensah"),
		newEntity(t, "ent-04", entity.CategoryBank, "Ecobank"),
	}, o.extra...)

	f := &fixture{
		cases:       corpus(),
		entities:    testutil.NewEntityStore(seed...),
		results:     testutil.NewResultStore(),
		events:      &testutil.RecordingPublisher{},
		checkpoints: testutil.NewCheckpointStore(),
		locker:      testutil.NewMemoryLocker(),
		clock:       ctypes.NewFixedClock(now),
		log:         testutil.NewMockLogger(),
	}

	cfg := o.cfg
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = time.Millisecond
	cfg.BackoffMultiplier = 1
	if cfg.UnitTimeout == 0 {
		cfg.UnitTimeout = 5 * time.Second
	}

	pipeline := config.Default().Pipeline
	retry := common.PolicyFromConfig(cfg)
	agg, err := statistics.NewAggregator(statistics.Deps{
		Cases:    f.cases,
		Stats:    f.results.Stats,
		Resolver: outcome_classifier.NewResolver(outcome_classifier.NewRuleClassifier(pipeline.Classification), nil, nil, nil),
		Subjects: statistics.NewSubjectMatcher(pipeline.Scoring.SubjectKeywords),
		Retry:    retry,
		Metrics:  o.metrics,
		Clock:    f.clock,
	})
	require.NoError(t, err)
	model, err := scoring.NewModel(pipeline.Scoring)
	require.NoError(t, err)

	var writer analytics.ResultWriter = f.results
	if o.writer != nil {
		writer = o.writer(f.results)
	}
	f.driver, err = NewDriver(cfg, o.pageSize, Deps{
		Entities:   f.entities,
		Aggregator: agg,
		Scorer:     scoring.NewScorer(model, f.results.Analytics, o.metrics, f.clock, nil),
		Stats:      f.results.Stats,
		Results:    writer,
		Publisher:  f.events,
		Checkpoint: f.checkpoints,
		Locker:     f.locker,
		Metrics:    o.metrics,
		Clock:      f.clock,
		Logger:     f.log,
	})
	require.NoError(t, err)
	return f
}

func resultIDs(r *Report) []string {
	ids := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		ids = append(ids, res.EntityID)
	}
	return ids
}

// failingWriter fails SaveResults for selected entities.
type failingWriter struct {
	analytics.ResultWriter
	fail map[string]error
}

func (w failingWriter) SaveResults(ctx context.Context, st *analytics.CaseStatistics, a *analytics.Analytics) error {
	if err := w.fail[st.EntityID]; err != nil {
		return err
	}
	return w.ResultWriter.SaveResults(ctx, st, a)
}

// blockingWriter waits for the unit deadline.
type blockingWriter struct{}

func (blockingWriter) SaveResults(ctx context.Context, _ *analytics.CaseStatistics, _ *analytics.Analytics) error {
	<-ctx.Done()
	return ctx.Err()
}

// unitRecorder counts finished units per stage and status.
type unitRecorder struct {
	common.StageMetrics
	mu    sync.Mutex
	units map[string]int
}

func newUnitRecorder() *unitRecorder {
	return &unitRecorder{StageMetrics: common.NopMetrics(), units: map[string]int{}}
}

func (r *unitRecorder) UnitProcessed(stage string, status common.UnitStatus, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[stage+"/"+status.String()]++
}

func (r *unitRecorder) count(stage string, status common.UnitStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.units[stage+"/"+status.String()]
}

// ---------------------------------------------------------------------------

func TestNewDriver_RequiresStores(t *testing.T) {
	_, err := NewDriver(config.BackfillConfig{}, 0, Deps{})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestParseStage(t *testing.T) {
	s, err := ParseStage("")
	require.NoError(t, err)
	assert.Equal(t, StageAll, s)
	s, err = ParseStage("score")
	require.NoError(t, err)
	assert.Equal(t, StageScore, s)
	_, err = ParseStage("extract")
	assert.Error(t, err)
}

func TestDriver_Run_GCBBankScenario(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	report, err := f.driver.Run(ctx, Options{Category: entity.CategoryBank})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	assert.False(t, report.HasFailures())
	assert.Equal(t, []string{"ent-01", "ent-04"}, resultIDs(report))

	st, err := f.results.Stats.GetByEntityID(ctx, "ent-01")
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalCases)
	assert.Equal(t, 1, st.FavorableCases)
	assert.Equal(t, 1, st.UnfavorableCases)
	assert.Equal(t, analytics.OutcomeFavorable, st.CaseOutcome)

	a, err := f.results.Analytics.GetByEntityID(ctx, "ent-01")
	require.NoError(t, err)
	assert.Equal(t, 35.57, a.RiskScore)
	assert.Contains(t, []analytics.RiskLevel{analytics.RiskLow, analytics.RiskMedium}, a.RiskLevel)
	assert.Equal(t, analytics.RiskMedium, a.RiskLevel)
	assert.Equal(t, 50.0, a.SuccessRate)
	assert.Equal(t, analytics.FinancialMedium, a.FinancialRiskLevel)
	assert.Equal(t, "Banking and Finance", a.PrimarySubjectMatter)

	empty, err := f.results.Stats.GetByEntityID(ctx, "ent-04")
	require.NoError(t, err)
	assert.Equal(t, analytics.OutcomeNA, empty.CaseOutcome)
	ea, err := f.results.Analytics.GetByEntityID(ctx, "ent-04")
	require.NoError(t, err)
	assert.Equal(t, 0.0, ea.RiskScore)
	assert.Equal(t, analytics.SubjectGeneral, ea.PrimarySubjectMatter)

	assert.Equal(t, 2, f.results.Stats.Len(), "other categories untouched")

	events := f.events.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "ent-01", events[0].EntityID)
	assert.Equal(t, analytics.EventTypeUpdated, events[0].EventType)
	assert.Equal(t, report.RunID, events[0].RunID)
	assert.Equal(t, 2, events[0].TotalCases)
	assert.Equal(t, a.RiskLevel, events[0].RiskLevel)

	assert.Equal(t, []string{"ent-01", "ent-04"}, f.checkpoints.Saves[CheckpointName(entity.CategoryBank)])
	_, ok, _ := f.checkpoints.Load(ctx, CheckpointName(entity.CategoryBank))
	assert.False(t, ok, "checkpoint cleared after a complete run")
	assert.False(t, f.locker.Held("entity:ent-01"))
}

func TestDriver_Run_SingleEntityLeavesOthersIdentical(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	_, err := f.driver.Run(ctx, Options{})
	require.NoError(t, err)

	snapshot := func(id string) string {
		st, err := f.results.Stats.GetByEntityID(ctx, id)
		require.NoError(t, err)
		a, err := f.results.Analytics.GetByEntityID(ctx, id)
		require.NoError(t, err)
		b, err := json.Marshal([]interface{}{st, a})
		require.NoError(t, err)
		return string(b)
	}
	before := map[string]string{}
	for _, id := range []string{"ent-01", "ent-02", "ent-03", "ent-04"} {
		before[id] = snapshot(id)
	}

	f.cases.Add(&litigation.CaseRecord{
		ID:         4,
		Title:      "GCB Bank v. Kofi Asante",
		Plaintiffs: "GCB Bank",
		Defendants: "Kofi Asante",
		Judgement:  "Judgment for the plaintiff.",
	})
	f.clock.Advance(time.Hour)
	report, err := f.driver.Run(ctx, Options{EntityIDs: []string{"ent-01"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ent-01"}, resultIDs(report))
	assert.Equal(t, 3, report.Results[0].Total)

	for _, id := range []string{"ent-02", "ent-03", "ent-04"} {
		assert.Equal(t, before[id], snapshot(id), id)
	}
	assert.NotEqual(t, before["ent-01"], snapshot("ent-01"))
	st, err := f.results.Stats.GetByEntityID(ctx, "ent-01")
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalCases)
	assert.Equal(t, 2, st.FavorableCases)
	assert.Equal(t, 4, f.results.Stats.Len())
	assert.Len(t, f.checkpoints.Saves[CheckpointName("")], 4, "explicit runs do not checkpoint")
}

func TestDriver_Run_RetriesTransientFailures(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.results.Fail = testutil.FailTimes("results.Save", 1, errors.New(errors.ErrCodeDatabaseError, "serialization failure"))

	report, err := f.driver.Run(context.Background(), Options{EntityIDs: []string{"ent-01"}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 2, f.results.Count("results.Save"))
	assert.Equal(t, 1, f.log.Count("warn", "retrying after transient failure"))
	assert.Equal(t, 2, f.locker.Acquired, "lock is taken per attempt")
	assert.False(t, f.locker.Held("entity:ent-01"))
}

func TestDriver_Run_FailuresAndSkipsDoNotStopTheBatch(t *testing.T) {
	f := newFixture(t, fixtureOpts{writer: func(w analytics.ResultWriter) analytics.ResultWriter {
		return failingWriter{ResultWriter: w, fail: map[string]error{
			"ent-02": errors.Invariant("entity ent-02: broken counts"),
			"ent-03": errors.New(errors.ErrCodeMalformedText, "unreadable judgement"),
		}}
	}})
	ctx := context.Background()

	report, err := f.driver.Run(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Skipped)
	assert.True(t, report.HasFailures())

	require.Len(t, report.Results, 4)
	assert.Equal(t, common.UnitFailed, report.Results[1].Status)
	assert.Contains(t, report.Results[1].Error, string(errors.ErrCodeInvariantViolation))
	assert.Equal(t, common.UnitSkipped, report.Results[2].Status)

	assert.Equal(t, 1, f.log.Count("error", "entity failed"))
	assert.Equal(t, 1, f.log.Count("warn", "entity skipped"))
	assert.Equal(t, 2, f.results.Analytics.Len())
	assert.Equal(t, []string{"ent-01", "ent-02", "ent-03", "ent-04"}, f.checkpoints.Saves[CheckpointName("")])
}

func TestDriver_Run_UnknownEntityFails(t *testing.T) {
	f := newFixture(t, fixtureOpts{})

	report, err := f.driver.Run(context.Background(), Options{EntityIDs: []string{"missing", "ent-01", "ent-01"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ent-01", "missing"}, resultIDs(report))
	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, report.Results[1].Error, string(errors.ErrCodeEntityNotFound))
}

func TestDriver_Run_UnitTimeout(t *testing.T) {
	f := newFixture(t, fixtureOpts{
		cfg:    config.BackfillConfig{UnitTimeout: 20 * time.Millisecond},
		writer: func(analytics.ResultWriter) analytics.ResultWriter { return blockingWriter{} },
	})

	report, err := f.driver.Run(context.Background(), Options{EntityIDs: []string{"ent-04"}})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, common.UnitTimeout, report.Results[0].Status)
	assert.True(t, report.HasFailures())
}

func TestDriver_Run_DryRunWritesNothing(t *testing.T) {
	f := newFixture(t, fixtureOpts{})

	report, err := f.driver.Run(context.Background(), Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 4, report.Succeeded)
	assert.True(t, report.DryRun)
	assert.Equal(t, 35.57, report.Results[0].RiskScore)
	assert.Equal(t, 2, report.Results[0].Total)

	assert.Zero(t, f.results.Stats.Len())
	assert.Zero(t, f.results.Analytics.Len())
	assert.Empty(t, f.events.Events())
	assert.Empty(t, f.checkpoints.Saves)
}

func TestDriver_Run_StagesSeparately(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	report, err := f.driver.Run(ctx, Options{Stage: StageScore, EntityIDs: []string{"ent-01"}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed, "scoring needs stored statistics")

	report, err = f.driver.Run(ctx, Options{Stage: StageAggregate})
	require.NoError(t, err)
	assert.Equal(t, 4, report.Succeeded)
	assert.Equal(t, 4, f.results.Stats.Len())
	assert.Zero(t, f.results.Analytics.Len())
	assert.Empty(t, f.events.Events())

	report, err = f.driver.Run(ctx, Options{Stage: StageScore})
	require.NoError(t, err)
	assert.Equal(t, 4, report.Succeeded)
	assert.Equal(t, 4, f.results.Analytics.Len())
	assert.Len(t, f.events.Events(), 4)

	a, err := f.results.Analytics.GetByEntityID(ctx, "ent-01")
	require.NoError(t, err)
	assert.Equal(t, 35.57, a.RiskScore)
}

func TestDriver_Run_StagesReportTheirOwnUnits(t *testing.T) {
	rec := newUnitRecorder()
	f := newFixture(t, fixtureOpts{metrics: rec})
	ctx := context.Background()

	_, err := f.driver.Run(ctx, Options{Stage: StageAggregate, EntityIDs: []string{"ent-01", "ent-04"}})
	require.NoError(t, err)
	assert.Equal(t, 2, rec.count(common.StageAggregate, common.UnitSucceeded))
	assert.Zero(t, rec.count(common.StageScore, common.UnitSucceeded))

	f.results.Analytics.Fail = testutil.FailTimes("analytics.Upsert", 1, errors.New(errors.ErrCodeDatabaseError, "connection reset"))
	report, err := f.driver.Run(ctx, Options{Stage: StageScore, EntityIDs: []string{"ent-01"}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 2, f.results.Analytics.Count("analytics.Upsert"), "the unit loop retries the write")
	assert.Equal(t, 1, rec.count(common.StageScore, common.UnitSucceeded))
	assert.Equal(t, 1, rec.count(common.StageScore, common.UnitFailed))
	assert.Equal(t, 3, rec.count(common.StageBackfill, common.UnitSucceeded))

	_, err = f.driver.Run(ctx, Options{Stage: StageScore, EntityIDs: []string{"ent-04"}, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.count(common.StageScore, common.UnitSucceeded), "dry runs only compute")
}

func TestDriver_Run_Resume(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()
	require.NoError(t, f.checkpoints.Save(ctx, CheckpointName(""), "ent-02"))

	report, err := f.driver.Run(ctx, Options{Resume: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"ent-03", "ent-04"}, resultIDs(report))

	report, err = f.driver.Run(ctx, Options{Resume: true})
	require.NoError(t, err)
	assert.Len(t, report.Results, 4, "a finished run clears its checkpoint")
}

func TestDriver_Run_CancelStopsAfterCurrentUnit(t *testing.T) {
	f := newFixture(t, fixtureOpts{pageSize: 2})
	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once
	f.events.Fail = func(string) error {
		once.Do(cancel)
		return nil
	}

	report, err := f.driver.Run(ctx, Options{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"ent-01"}, resultIDs(report))
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.NotStarted)
	assert.True(t, f.log.HasMessage("warn", "backfill cancelled"))

	pos, ok, _ := f.checkpoints.Load(context.Background(), CheckpointName(""))
	require.True(t, ok)
	assert.Equal(t, "ent-01", pos)

	report, err = f.driver.Run(context.Background(), Options{Resume: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"ent-02", "ent-03", "ent-04"}, resultIDs(report))
}

func TestDriver_Run_ParallelWorkers(t *testing.T) {
	var extra []*entity.Entity
	for i := 5; i <= 16; i++ {
		extra = append(extra, newEntity(t, fmt.Sprintf("ent-%02d", i), entity.CategoryPerson, fmt.Sprintf("Person Number %02d", i)))
	}
	f := newFixture(t, fixtureOpts{cfg: config.BackfillConfig{Workers: 4}, pageSize: 5, extra: extra})

	report, err := f.driver.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 16, report.Succeeded)
	assert.Equal(t, 16, f.locker.Acquired)
	assert.LessOrEqual(t, f.locker.MaxHeld, 4)
	assert.True(t, sort.StringsAreSorted(resultIDs(report)))

	saves := f.checkpoints.Saves[CheckpointName("")]
	require.NotEmpty(t, saves)
	assert.True(t, sort.StringsAreSorted(saves), "watermark only moves forward")
	assert.Equal(t, "ent-16", saves[len(saves)-1])
}

func TestWatermark(t *testing.T) {
	w := newWatermark()
	var saved []string
	save := func(pos string) { saved = append(saved, pos) }

	for _, id := range []string{"a", "b", "c", "d"} {
		w.add(id)
	}
	w.finish("b", save)
	assert.Empty(t, saved)
	w.finish("a", save)
	assert.Equal(t, []string{"b"}, saved)
	w.finish("d", save)
	w.finish("c", save)
	assert.Equal(t, []string{"b", "d"}, saved)
}

//Personal.AI order the ending
