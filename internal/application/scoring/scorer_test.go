package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CaseIntel/internal/config"
	"github.com/turtacn/CaseIntel/internal/domain/analytics"
	"github.com/turtacn/CaseIntel/internal/domain/entity"
	"github.com/turtacn/CaseIntel/internal/intelligence/common"
	"github.com/turtacn/CaseIntel/internal/testutil"
	"github.com/turtacn/CaseIntel/pkg/errors"
	ctypes "github.com/turtacn/CaseIntel/pkg/types/common"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func defaultModel(t *testing.T) *Model {
	t.Helper()
	m, err := NewModel(config.Default().Pipeline.Scoring)
	require.NoError(t, err)
	return m
}

// stats builds a finalized record from outcome counts.
func stats(fav, unfav, mixed, unresolved int) *analytics.CaseStatistics {
	st := analytics.NewCaseStatistics("ent-1", entity.CategoryBank)
	for i := 0; i < fav; i++ {
		st.Record(analytics.OutcomeFavorable)
	}
	for i := 0; i < unfav; i++ {
		st.Record(analytics.OutcomeUnfavorable)
	}
	for i := 0; i < mixed; i++ {
		st.Record(analytics.OutcomeMixed)
	}
	for i := 0; i < unresolved; i++ {
		st.Record(analytics.OutcomeUnresolved)
	}
	st.Finalize()
	return st
}

func TestNewModel_InvalidConfig(t *testing.T) {
	cfg := config.Default().Pipeline.Scoring
	cfg.FinancialHigh = cfg.FinancialMedium
	_, err := NewModel(cfg)
	assert.True(t, errors.IsCode(err, errors.ErrCodeScoringConfigInvalid))
}

func TestModel_RiskScore(t *testing.T) {
	m := defaultModel(t)

	t.Run("no cases", func(t *testing.T) {
		assert.Equal(t, 0.0, m.RiskScore(stats(0, 0, 0, 0)))
	})

	t.Run("half unfavorable, low volume", func(t *testing.T) {
		// 0.4*50 + 10*log10(3)
		assert.Equal(t, 24.77, m.RiskScore(stats(1, 1, 0, 0)))
	})

	t.Run("with monetary exposure", func(t *testing.T) {
		st := stats(1, 1, 0, 0)
		st.RecordAmount(250_000)
		// 24.77 + 2*log10(250001)
		assert.Equal(t, 35.57, m.RiskScore(st))
	})

	t.Run("all unresolved", func(t *testing.T) {
		// 0.3*100 + 10*log10(5)
		assert.Equal(t, 36.99, m.RiskScore(stats(0, 0, 0, 4)))
	})

	t.Run("caps apply", func(t *testing.T) {
		st := stats(0, 50, 0, 50)
		st.RecordAmount(1e12)
		// 0.3*50 + 0.4*100 + 15 + 15
		assert.Equal(t, 85.0, m.RiskScore(st))
	})

	t.Run("clamped to 100", func(t *testing.T) {
		cfg := config.Default().Pipeline.Scoring
		cfg.WeightUnresolved = 1
		cfg.WeightUnfavorable = 1
		hot, err := NewModel(cfg)
		require.NoError(t, err)
		st := stats(0, 1, 0, 50)
		assert.Equal(t, 100.0, hot.RiskScore(st))
	})
}

func TestModel_RiskFactors(t *testing.T) {
	m := defaultModel(t)

	assert.Empty(t, m.RiskFactors(stats(1, 1, 0, 0)), "ratios at the threshold do not trigger")

	st := stats(0, 6, 4, 10)
	st.RecordAmount(1_500_000)
	st.RecordAmount(500_000)
	assert.Equal(t, []string{
		analytics.FactorUnresolved,
		analytics.FactorUnfavorable,
		analytics.FactorMixed,
		analytics.FactorVolume,
		analytics.FactorExposure,
	}, m.RiskFactors(st))

	assert.NotNil(t, m.RiskFactors(stats(0, 0, 0, 0)))
}

func TestModel_FinancialRisk(t *testing.T) {
	m := defaultModel(t)
	tests := []struct {
		name    string
		amounts []float64
		want    analytics.FinancialRiskLevel
	}{
		{"no amounts", nil, analytics.FinancialNone},
		{"low", []float64{50_000}, analytics.FinancialLow},
		{"medium", []float64{250_000}, analytics.FinancialMedium},
		{"high by total, small average", []float64{400_000, 400_000, 400_000}, analytics.FinancialHigh},
		{"high promoted by average", []float64{2_000_000}, analytics.FinancialCritical},
		{"critical stays critical", []float64{20_000_000}, analytics.FinancialCritical},
		{"zero amount still counts", []float64{0}, analytics.FinancialLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := stats(len(tt.amounts), 0, 0, 0)
			for _, a := range tt.amounts {
				st.RecordAmount(a)
			}
			assert.Equal(t, tt.want, m.FinancialRisk(st))
		})
	}
}

func TestPrimarySubject(t *testing.T) {
	assert.Equal(t, analytics.SubjectGeneral, PrimarySubject(nil))
	assert.Equal(t, analytics.SubjectGeneral, PrimarySubject(map[string]int{"Land": 0}))
	assert.Equal(t, "Land", PrimarySubject(map[string]int{"Land": 3, "Contract": 1}))
	assert.Equal(t, "Contract", PrimarySubject(map[string]int{"Land": 2, "Contract": 2, "Tort": 1}))
}

func TestModel_Evaluate(t *testing.T) {
	m := defaultModel(t)

	t.Run("GCB scenario", func(t *testing.T) {
		st := stats(1, 1, 0, 0)
		st.SubjectCounts = map[string]int{"Banking and Finance": 1, "Employment": 1}
		a, err := m.Evaluate(st, now)
		require.NoError(t, err)
		assert.Equal(t, "ent-1", a.EntityID)
		assert.Equal(t, entity.CategoryBank, a.Category)
		assert.Equal(t, 24.77, a.RiskScore)
		assert.Equal(t, analytics.RiskLow, a.RiskLevel)
		assert.Equal(t, 50.0, a.SuccessRate)
		assert.Equal(t, "Banking and Finance", a.PrimarySubjectMatter)
		assert.Equal(t, analytics.FinancialNone, a.FinancialRiskLevel)
		assert.Zero(t, a.AverageMonetaryAmount)
		assert.Equal(t, now, a.LastUpdated)
	})

	t.Run("success rate over resolved cases only", func(t *testing.T) {
		a, err := m.Evaluate(stats(1, 1, 1, 5), now)
		require.NoError(t, err)
		assert.Equal(t, 33.33, a.SuccessRate)
	})

	t.Run("no resolved cases", func(t *testing.T) {
		a, err := m.Evaluate(stats(0, 0, 0, 2), now)
		require.NoError(t, err)
		assert.Zero(t, a.SuccessRate)
	})

	t.Run("average amount", func(t *testing.T) {
		st := stats(3, 0, 0, 0)
		st.RecordAmount(100)
		st.RecordAmount(200.5)
		a, err := m.Evaluate(st, now)
		require.NoError(t, err)
		assert.Equal(t, 300.5, a.TotalMonetaryAmount)
		assert.Equal(t, 150.25, a.AverageMonetaryAmount)
	})

	t.Run("broken statistics rejected", func(t *testing.T) {
		st := stats(1, 0, 0, 0)
		st.FavorableCases = 2
		_, err := m.Evaluate(st, now)
		assert.True(t, errors.IsInvariant(err))
	})
}

// unitRecorder keeps the stage and status of every finished unit.
type unitRecorder struct {
	common.StageMetrics
	units []string
}

func (r *unitRecorder) UnitProcessed(stage string, status common.UnitStatus, _ time.Duration) {
	r.units = append(r.units, stage+"/"+status.String())
}

func TestScorer_Score(t *testing.T) {
	repo := testutil.NewAnalyticsStore()
	rec := &unitRecorder{StageMetrics: common.NopMetrics()}
	s := NewScorer(defaultModel(t), repo, rec, ctypes.NewFixedClock(now), testutil.NewMockLogger())

	a, err := s.Score(context.Background(), stats(1, 1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, analytics.RiskLow, a.RiskLevel)
	assert.Equal(t, 1, repo.Count("analytics.Upsert"))
	assert.Equal(t, []string{common.StageScore + "/" + common.UnitSucceeded.String()}, rec.units)

	stored, err := repo.GetByEntityID(context.Background(), "ent-1")
	require.NoError(t, err)
	assert.Equal(t, a.RiskScore, stored.RiskScore)
}

func TestScorer_Score_WriteFailure(t *testing.T) {
	repo := testutil.NewAnalyticsStore()
	repo.Fail = testutil.FailTimes("analytics.Upsert", 1, errors.New(errors.ErrCodeDatabaseError, "connection reset"))
	rec := &unitRecorder{StageMetrics: common.NopMetrics()}
	s := NewScorer(defaultModel(t), repo, rec, nil, nil)

	_, err := s.Score(context.Background(), stats(1, 0, 0, 0))
	require.Error(t, err)
	assert.Equal(t, 1, repo.Count("analytics.Upsert"), "the write is not retried here")
	assert.Equal(t, 0, repo.Len())
	require.Len(t, rec.units, 1)
	assert.NotEqual(t, common.StageScore+"/"+common.UnitSucceeded.String(), rec.units[0])

	_, err = s.Score(context.Background(), stats(1, 0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Len())
}

//Personal.AI order the ending
