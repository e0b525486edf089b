//go:build integration

// Package postgres_test runs the schema migrations and repositories against
// a disposable PostgreSQL container.
package postgres_test

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/CaseIntel/internal/config"
	"github.com/turtacn/CaseIntel/internal/domain/analytics"
	"github.com/turtacn/CaseIntel/internal/domain/entity"
	"github.com/turtacn/CaseIntel/internal/infrastructure/database/postgres"
	"github.com/turtacn/CaseIntel/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CaseIntel/pkg/errors"
)

var migrationsDir = filepath.Join("..", "..", "..", "..", "migrations")

// ─────────────────────────────────────────────────────────────────────────────
// Test environment setup
// ─────────────────────────────────────────────────────────────────────────────

func startPostgres(t *testing.T) *postgres.Connection {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("caseintel_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	conn, err := postgres.NewConnection(config.DatabaseConfig{
		Host:     host,
		Port:     portNum,
		User:     "test",
		Password: "test",
		DBName:   "caseintel_test",
	}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// ─────────────────────────────────────────────────────────────────────────────
// Migrations
// ─────────────────────────────────────────────────────────────────────────────

func TestMigrations_UpStatusDown(t *testing.T) {
	conn := startPostgres(t)

	version, dirty, err := conn.MigrationStatus(migrationsDir)
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	require.NoError(t, conn.RunMigrations(migrationsDir))
	require.NoError(t, conn.RunMigrations(migrationsDir), "second run is a no-op")

	version, dirty, err = conn.MigrationStatus(migrationsDir)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	require.NoError(t, conn.RollbackMigrations(migrationsDir, 1))
	err = conn.RollbackMigrations(migrationsDir, 1)
	assert.Error(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Repositories
// ─────────────────────────────────────────────────────────────────────────────

func TestRepositories_GCBBank(t *testing.T) {
	conn := startPostgres(t)
	require.NoError(t, conn.RunMigrations(migrationsDir))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	_, err := conn.DB().ExecContext(ctx, `
		INSERT INTO cases (id, title, plaintiffs, defendants, judgement, area_of_law, award_amount) VALUES
		(1, 'GCB Bank Ltd v Mensah', 'GCB Bank Ltd', 'Kwame Mensah', 'Judgment for the plaintiff.', 'Banking', 'GH¢ 250,000.00'),
		(2, 'Boateng v GCB Bank', 'Ama Boateng', 'GCB Bank', 'The suit is dismissed.', 'Employment', ''),
		(3, 'Star Assurance v Owusu', 'Star Assurance', 'Owusu', 'Appeal allowed.', 'Insurance', '')`)
	require.NoError(t, err)

	entities := repositories.NewPostgresEntityRepo(conn, nil)
	gcb, err := entity.NewEntity(entity.CategoryBank, "GCB Bank", now)
	require.NoError(t, err)
	gcb.AddAlias("GCB Bank Ltd", now)
	require.NoError(t, entities.Create(ctx, gcb))

	dup, err := entity.NewEntity(entity.CategoryBank, "GCB Bank", now)
	require.NoError(t, err)
	assert.True(t, errors.IsCode(entities.Create(ctx, dup), errors.ErrCodeEntityAlreadyExists))

	got, err := entities.GetByID(ctx, gcb.ID)
	require.NoError(t, err)
	assert.True(t, got.Aliases.Contains("gcb bank ltd"))

	cases, err := repositories.NewPostgresCaseReader(conn, nil).FindByNames(ctx, gcb.Names())
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, int64(1), cases[0].ID)

	st := analytics.NewCaseStatistics(gcb.ID, gcb.Category)
	st.Record(analytics.OutcomeFavorable)
	st.Record(analytics.OutcomeUnfavorable)
	st.RecordAmount(250000)
	st.Finalize()
	st.UpdatedAt = now
	a := &analytics.Analytics{
		EntityID: gcb.ID, Category: gcb.Category, RiskScore: 35.57, RiskLevel: analytics.RiskMedium,
		RiskFactors: []string{}, TotalMonetaryAmount: 250000, AverageMonetaryAmount: 250000,
		FinancialRiskLevel: analytics.FinancialMedium, PrimarySubjectMatter: "Banking and Finance",
		SuccessRate: 50, LastUpdated: now,
	}
	require.NoError(t, repositories.NewPostgresResultWriter(conn, nil).SaveResults(ctx, st, a))

	storedStats, err := repositories.NewPostgresStatisticsRepo(conn, nil).GetByEntityID(ctx, gcb.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, storedStats.TotalCases)
	assert.InDelta(t, 250000, storedStats.TotalAmount, 0.001)

	storedAnalytics, err := repositories.NewPostgresAnalyticsRepo(conn, nil).GetByEntityID(ctx, gcb.ID)
	require.NoError(t, err)
	assert.Equal(t, analytics.RiskMedium, storedAnalytics.RiskLevel)
	assert.InDelta(t, 35.57, storedAnalytics.RiskScore, 0.001)
}

//Personal.AI order the ending
