package repositories

import (
	"context"
	"database/sql"
	stdliberrors "errors"

	"github.com/lib/pq"

	"github.com/turtacn/CaseIntel/internal/domain/analytics"
	"github.com/turtacn/CaseIntel/internal/domain/entity"
	"github.com/turtacn/CaseIntel/internal/infrastructure/database/postgres"
	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CaseIntel/pkg/errors"
)

const analyticsColumns = `entity_id, category, risk_score, risk_level, risk_factors,
	total_monetary_amount, average_monetary_amount, financial_risk_level,
	primary_subject_matter, success_rate, last_updated`

type postgresAnalyticsRepo struct {
	log      logging.Logger
	executor queryExecutor
}

// NewPostgresAnalyticsRepo returns an analytics.AnalyticsRepository backed by
// the entity_analytics table.
func NewPostgresAnalyticsRepo(conn *postgres.Connection, log logging.Logger) analytics.AnalyticsRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresAnalyticsRepo{log: log, executor: conn.DB()}
}

func (r *postgresAnalyticsRepo) Upsert(ctx context.Context, a *analytics.Analytics) error {
	if err := a.Validate(); err != nil {
		return err
	}
	factors := a.RiskFactors
	if factors == nil {
		factors = []string{}
	}
	query := `
		INSERT INTO entity_analytics (` + analyticsColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (entity_id) DO UPDATE SET
			category = EXCLUDED.category,
			risk_score = EXCLUDED.risk_score,
			risk_level = EXCLUDED.risk_level,
			risk_factors = EXCLUDED.risk_factors,
			total_monetary_amount = EXCLUDED.total_monetary_amount,
			average_monetary_amount = EXCLUDED.average_monetary_amount,
			financial_risk_level = EXCLUDED.financial_risk_level,
			primary_subject_matter = EXCLUDED.primary_subject_matter,
			success_rate = EXCLUDED.success_rate,
			last_updated = EXCLUDED.last_updated
	`
	_, err := r.executor.ExecContext(ctx, query,
		a.EntityID, string(a.Category), a.RiskScore, string(a.RiskLevel), pq.Array(factors),
		a.TotalMonetaryAmount, a.AverageMonetaryAmount, string(a.FinancialRiskLevel),
		a.PrimarySubjectMatter, a.SuccessRate, a.LastUpdated,
	)
	if err != nil {
		return postgres.MapError(err, "failed to upsert entity analytics")
	}
	return nil
}

func (r *postgresAnalyticsRepo) GetByEntityID(ctx context.Context, entityID string) (*analytics.Analytics, error) {
	query := `SELECT ` + analyticsColumns + ` FROM entity_analytics WHERE entity_id = $1`
	var (
		a         analytics.Analytics
		category  string
		level     string
		financial string
		factors   pq.StringArray
	)
	err := r.executor.QueryRowContext(ctx, query, entityID).Scan(
		&a.EntityID, &category, &a.RiskScore, &level, &factors,
		&a.TotalMonetaryAmount, &a.AverageMonetaryAmount, &financial,
		&a.PrimarySubjectMatter, &a.SuccessRate, &a.LastUpdated,
	)
	if err != nil {
		if stdliberrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeAnalyticsNotFound, "entity analytics not found").WithDetail(entityID)
		}
		return nil, postgres.MapError(err, "failed to get entity analytics")
	}
	a.Category = entity.Category(category)
	a.RiskLevel = analytics.RiskLevel(level)
	a.FinancialRiskLevel = analytics.FinancialRiskLevel(financial)
	a.RiskFactors = []string(factors)
	if a.RiskFactors == nil {
		a.RiskFactors = []string{}
	}
	return &a, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Combined write
// ─────────────────────────────────────────────────────────────────────────────

type postgresResultWriter struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewPostgresResultWriter returns an analytics.ResultWriter that stores both
// records of an entity in one transaction.
func NewPostgresResultWriter(conn *postgres.Connection, log logging.Logger) analytics.ResultWriter {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresResultWriter{conn: conn, log: log}
}

func (w *postgresResultWriter) SaveResults(ctx context.Context, s *analytics.CaseStatistics, a *analytics.Analytics) error {
	if s.EntityID != a.EntityID {
		return errors.Invariant("statistics for %s paired with analytics for %s", s.EntityID, a.EntityID)
	}
	return w.conn.WithTx(ctx, func(tx *sql.Tx) error {
		stats := &postgresStatisticsRepo{log: w.log, executor: tx}
		if err := stats.Upsert(ctx, s); err != nil {
			return err
		}
		scores := &postgresAnalyticsRepo{log: w.log, executor: tx}
		return scores.Upsert(ctx, a)
	})
}

//Personal.AI order the ending
