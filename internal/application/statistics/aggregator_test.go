package statistics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func gcbBank(t *testing.T) *entity.Entity {
	t.Helper()
	e, err := entity.NewEntity(entity.CategoryBank, "GCB Bank", now)
	require.NoError(t, err)
	require.True(t, e.AddAlias("GCB Bank Ltd", now))
	return e
}

func gcbCorpus() *testutil.CaseStore {
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
			ID:        3,
			Title:     "Ama Owusu v. Star Assurance Company Limited",
			Judgement: "Appeal allowed.",
		},
	)
}

func newAggregator(t *testing.T, cases litigation.CaseReader, stats analytics.StatisticsRepository, log *testutil.MockLogger) *Aggregator {
	t.Helper()
	cfg := config.Default().Pipeline
	a, err := NewAggregator(Deps{
		Cases:    cases,
		Stats:    stats,
		Resolver: outcome_classifier.NewResolver(outcome_classifier.NewRuleClassifier(cfg.Classification), nil, nil, nil),
		Subjects: NewSubjectMatcher(cfg.Scoring.SubjectKeywords),
		Retry:    common.RetryPolicy{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 1},
		Clock:    ctypes.NewFixedClock(now),
		Logger:   log,
	})
	require.NoError(t, err)
	return a
}

func TestNewAggregator_RequiresDeps(t *testing.T) {
	_, err := NewAggregator(Deps{})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestAggregator_Compute_GCB(t *testing.T) {
	log := testutil.NewMockLogger()
	a := newAggregator(t, gcbCorpus(), testutil.NewStatisticsStore(), log)

	st, err := a.Compute(context.Background(), gcbBank(t))
	require.NoError(t, err)

	assert.Equal(t, 2, st.TotalCases)
	assert.Equal(t, 2, st.ResolvedCases)
	assert.Equal(t, 0, st.UnresolvedCases)
	assert.Equal(t, 1, st.FavorableCases)
	assert.Equal(t, 1, st.UnfavorableCases)
	assert.Equal(t, analytics.OutcomeFavorable, st.CaseOutcome)
	assert.Equal(t, 250_000.0, st.TotalAmount)
	assert.Equal(t, 1, st.AmountCases)
	assert.Equal(t, map[string]int{"Banking and Finance": 1, "Employment": 1}, st.SubjectCounts)
	assert.Equal(t, now, st.UpdatedAt)

	assert.True(t, log.HasMessage("warn", "skipping unparseable amount"))
}

type looseReader struct {
	*testutil.CaseStore
}

// FindByNames returns the whole corpus, twice.
func (l looseReader) FindByNames(ctx context.Context, _ []string) ([]*litigation.CaseRecord, error) {
	all, err := l.Scan(ctx, ctypes.PageRequest{Limit: 100})
	return append(all, all...), err
}

func TestAggregator_LinkedCases_RechecksAndDedupes(t *testing.T) {
	a := newAggregator(t, looseReader{gcbCorpus()}, testutil.NewStatisticsStore(), testutil.NewMockLogger())

	linked, err := a.LinkedCases(context.Background(), gcbBank(t))
	require.NoError(t, err)
	require.Len(t, linked, 2)
	assert.Equal(t, int64(1), linked[0].ID)
	assert.Equal(t, int64(2), linked[1].ID)
}

func TestAggregator_Aggregate_ZeroCases(t *testing.T) {
	stats := testutil.NewStatisticsStore()
	a := newAggregator(t, gcbCorpus(), stats, testutil.NewMockLogger())
	e, err := entity.NewEntity(entity.CategoryPerson, "Yaw Boateng", now)
	require.NoError(t, err)

	st, err := a.Aggregate(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, 0, st.TotalCases)
	assert.Equal(t, analytics.OutcomeNA, st.CaseOutcome)

	stored, err := stats.GetByEntityID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, analytics.OutcomeNA, stored.CaseOutcome)
	assert.Empty(t, stored.SubjectCounts)
}

func TestAggregator_Aggregate_WritesOnce(t *testing.T) {
	stats := testutil.NewStatisticsStore()
	stats.Fail = testutil.FailTimes("statistics.Upsert", 1, errors.New(errors.ErrCodeDatabaseError, "deadlock detected"))
	a := newAggregator(t, gcbCorpus(), stats, testutil.NewMockLogger())

	_, err := a.Aggregate(context.Background(), gcbBank(t))
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.Equal(t, 1, stats.Count("statistics.Upsert"))
	assert.Equal(t, 0, stats.Len())

	_, err = a.Aggregate(context.Background(), gcbBank(t))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Len())
}

func TestSubjectMatcher(t *testing.T) {
	m := NewSubjectMatcher(map[string][]string{
		"Land":     {"land", "lease"},
		"Contract": {"contract"},
		"Empty":    {" "},
	})
	assert.Equal(t, "Land", m.Match(&litigation.CaseRecord{Summary: "Dispute over a lease of land and a contract."}))
	assert.Equal(t, "Contract", m.Match(&litigation.CaseRecord{Headnotes: "Contract; land"}), "ties go alphabetically")
	assert.Equal(t, "Family Law", m.Match(&litigation.CaseRecord{AreaOfLaw: " Family  Law "}))
	assert.Equal(t, "", m.Match(&litigation.CaseRecord{Title: "A v B"}))
}

//Personal.AI order the ending
