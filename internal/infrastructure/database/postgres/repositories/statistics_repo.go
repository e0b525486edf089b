package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	stdliberrors "errors"

	"github.com/turtacn/CaseIntel/internal/domain/analytics"
	"github.com/turtacn/CaseIntel/internal/domain/entity"
	"github.com/turtacn/CaseIntel/internal/infrastructure/database/postgres"
	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CaseIntel/pkg/errors"
)

const statisticsColumns = `entity_id, category, total_cases, resolved_cases, unresolved_cases,
	favorable_cases, unfavorable_cases, mixed_cases, case_outcome, total_amount, amount_cases,
	subject_counts, ai_classified, updated_at`

type postgresStatisticsRepo struct {
	log      logging.Logger
	executor queryExecutor
}

// NewPostgresStatisticsRepo returns an analytics.StatisticsRepository backed
// by the case_statistics table.
func NewPostgresStatisticsRepo(conn *postgres.Connection, log logging.Logger) analytics.StatisticsRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresStatisticsRepo{log: log, executor: conn.DB()}
}

// Upsert replaces the entity's row.  Records that break the count identities
// are rejected before reaching the database.
func (r *postgresStatisticsRepo) Upsert(ctx context.Context, s *analytics.CaseStatistics) error {
	if err := s.Validate(); err != nil {
		return err
	}
	counts := s.SubjectCounts
	if counts == nil {
		counts = map[string]int{}
	}
	subjects, err := json.Marshal(counts)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encode subject counts")
	}
	query := `
		INSERT INTO case_statistics (` + statisticsColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (entity_id) DO UPDATE SET
			category = EXCLUDED.category,
			total_cases = EXCLUDED.total_cases,
			resolved_cases = EXCLUDED.resolved_cases,
			unresolved_cases = EXCLUDED.unresolved_cases,
			favorable_cases = EXCLUDED.favorable_cases,
			unfavorable_cases = EXCLUDED.unfavorable_cases,
			mixed_cases = EXCLUDED.mixed_cases,
			case_outcome = EXCLUDED.case_outcome,
			total_amount = EXCLUDED.total_amount,
			amount_cases = EXCLUDED.amount_cases,
			subject_counts = EXCLUDED.subject_counts,
			ai_classified = EXCLUDED.ai_classified,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.executor.ExecContext(ctx, query,
		s.EntityID, string(s.Category), s.TotalCases, s.ResolvedCases, s.UnresolvedCases,
		s.FavorableCases, s.UnfavorableCases, s.MixedCases, string(s.CaseOutcome),
		s.TotalAmount, s.AmountCases, subjects, s.AIClassified, s.UpdatedAt,
	)
	if err != nil {
		return postgres.MapError(err, "failed to upsert case statistics")
	}
	return nil
}

func (r *postgresStatisticsRepo) GetByEntityID(ctx context.Context, entityID string) (*analytics.CaseStatistics, error) {
	query := `SELECT ` + statisticsColumns + ` FROM case_statistics WHERE entity_id = $1`
	var (
		s        analytics.CaseStatistics
		category string
		outcome  string
		subjects []byte
	)
	err := r.executor.QueryRowContext(ctx, query, entityID).Scan(
		&s.EntityID, &category, &s.TotalCases, &s.ResolvedCases, &s.UnresolvedCases,
		&s.FavorableCases, &s.UnfavorableCases, &s.MixedCases, &outcome,
		&s.TotalAmount, &s.AmountCases, &subjects, &s.AIClassified, &s.UpdatedAt,
	)
	if err != nil {
		if stdliberrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeStatisticsNotFound, "case statistics not found").WithDetail(entityID)
		}
		return nil, postgres.MapError(err, "failed to get case statistics")
	}
	s.Category = entity.Category(category)
	s.CaseOutcome = analytics.Outcome(outcome)
	s.SubjectCounts = map[string]int{}
	if len(subjects) > 0 {
		if err := json.Unmarshal(subjects, &s.SubjectCounts); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decode subject counts").WithDetail(entityID)
		}
	}
	return &s, nil
}

//Personal.AI order the ending
