// Package scoring turns case statistics into risk analytics: a bounded risk
// score with its level, human-readable risk factors, financial exposure,
// success rate and primary subject matter.
package scoring

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/turtacn/CaseIntel/internal/config"
	"github.com/turtacn/CaseIntel/internal/domain/analytics"
	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CaseIntel/internal/intelligence/common"
	"github.com/turtacn/CaseIntel/pkg/errors"
	ctypes "github.com/turtacn/CaseIntel/pkg/types/common"
)

// ============================================================================
// Pure scoring
// ============================================================================

// Model evaluates the scoring formula with fixed constants.
type Model struct {
	cfg config.ScoringConfig
}

// NewModel validates cfg and returns a Model.
func NewModel(cfg config.ScoringConfig) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScoringConfigInvalid, "invalid scoring configuration")
	}
	return &Model{cfg: cfg}, nil
}

// ratio returns num/den, or 0 when den is 0.
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RiskScore returns
//
//	clamp(0, 100, Wu*unresolved/total*100 + Wf*unfavorable/resolved*100
//	              + min(VolumeCap, VolumeScale*log10(1+total))
//	              + min(MonetaryCap, MonetaryScale*log10(1+totalAmount)))
//
// rounded to two decimals.
func (m *Model) RiskScore(st *analytics.CaseStatistics) float64 {
	c := m.cfg
	score := c.WeightUnresolved*ratio(st.UnresolvedCases, st.TotalCases)*100 +
		c.WeightUnfavorable*ratio(st.UnfavorableCases, st.ResolvedCases)*100 +
		math.Min(c.VolumeCap, c.VolumeScale*math.Log10(1+float64(st.TotalCases))) +
		math.Min(c.MonetaryCap, c.MonetaryScale*math.Log10(1+math.Max(0, st.TotalAmount)))
	return round2(math.Max(0, math.Min(100, score)))
}

// RiskFactors lists the factors whose conditions hold, in fixed order.
func (m *Model) RiskFactors(st *analytics.CaseStatistics) []string {
	c := m.cfg
	factors := []string{}
	if ratio(st.UnresolvedCases, st.TotalCases) > c.UnresolvedFactorRatio {
		factors = append(factors, analytics.FactorUnresolved)
	}
	if ratio(st.UnfavorableCases, st.ResolvedCases) > c.UnfavorableFactorRatio {
		factors = append(factors, analytics.FactorUnfavorable)
	}
	if ratio(st.MixedCases, st.ResolvedCases) > c.MixedFactorRatio {
		factors = append(factors, analytics.FactorMixed)
	}
	if st.TotalCases >= c.VolumeFactorCount {
		factors = append(factors, analytics.FactorVolume)
	}
	if st.AmountCases > 0 && st.TotalAmount >= c.HighExposure {
		factors = append(factors, analytics.FactorExposure)
	}
	return factors
}

// FinancialRisk buckets the total amount, promoting one level when the
// average amount reaches AveragePromotion.  No amounts yields None.
func (m *Model) FinancialRisk(st *analytics.CaseStatistics) analytics.FinancialRiskLevel {
	if st.AmountCases == 0 {
		return analytics.FinancialNone
	}
	c := m.cfg
	var level analytics.FinancialRiskLevel
	switch total := st.TotalAmount; {
	case total < c.FinancialMedium:
		level = analytics.FinancialLow
	case total < c.FinancialHigh:
		level = analytics.FinancialMedium
	case total < c.FinancialCrit:
		level = analytics.FinancialHigh
	default:
		level = analytics.FinancialCritical
	}
	if st.TotalAmount/float64(st.AmountCases) >= c.AveragePromotion {
		level = level.Promote()
	}
	return level
}

// PrimarySubject returns the most frequent subject, alphabetically first on
// ties, or SubjectGeneral when there is none.
func PrimarySubject(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for k, n := range counts {
		if n > 0 && k != "" {
			names = append(names, k)
		}
	}
	if len(names) == 0 {
		return analytics.SubjectGeneral
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names[0]
}

// Evaluate derives the full Analytics record from st.
func (m *Model) Evaluate(st *analytics.CaseStatistics, now time.Time) (*analytics.Analytics, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	score := m.RiskScore(st)
	a := &analytics.Analytics{
		EntityID:             st.EntityID,
		Category:             st.Category,
		RiskScore:            score,
		RiskLevel:            analytics.RiskLevelFor(score),
		RiskFactors:          m.RiskFactors(st),
		TotalMonetaryAmount:  round2(st.TotalAmount),
		FinancialRiskLevel:   m.FinancialRisk(st),
		PrimarySubjectMatter: PrimarySubject(st.SubjectCounts),
		SuccessRate:          round2(ratio(st.FavorableCases, st.ResolvedCases) * 100),
		LastUpdated:          now,
	}
	if st.AmountCases > 0 {
		a.AverageMonetaryAmount = round2(st.TotalAmount / float64(st.AmountCases))
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// ============================================================================
// Scorer
// ============================================================================

// Scorer evaluates the Model and stores the result.
type Scorer struct {
	model   *Model
	repo    analytics.AnalyticsRepository
	metrics common.StageMetrics
	clock   ctypes.Clock
	log     logging.Logger
}

// NewScorer returns a Scorer.  metrics, clock and log may be nil.
func NewScorer(model *Model, repo analytics.AnalyticsRepository, metrics common.StageMetrics, clock ctypes.Clock, log logging.Logger) *Scorer {
	if metrics == nil {
		metrics = common.NopMetrics()
	}
	if clock == nil {
		clock = ctypes.SystemClock{}
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Scorer{model: model, repo: repo, metrics: metrics, clock: clock, log: log.With(logging.Stage(common.StageScore))}
}

// Compute evaluates st without writing.
func (s *Scorer) Compute(st *analytics.CaseStatistics) (*analytics.Analytics, error) {
	return s.model.Evaluate(st, s.clock.Now())
}

// Score evaluates st and upserts the result once.
func (s *Scorer) Score(ctx context.Context, st *analytics.CaseStatistics) (*analytics.Analytics, error) {
	start := time.Now()
	a, err := s.Compute(st)
	if err == nil {
		if err = s.repo.Upsert(ctx, a); err != nil {
			err = errors.Wrap(err, "", "store analytics").WithDetail(st.EntityID)
		}
	}
	s.metrics.UnitProcessed(common.StageScore, common.ClassifyError(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	s.log.Debug("analytics scored", logging.EntityID(a.EntityID),
		logging.Float64("risk_score", a.RiskScore), logging.String("risk_level", string(a.RiskLevel)))
	return a, nil
}

//Personal.AI order the ending
