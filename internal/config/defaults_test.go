package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/turtacn/CaseIntel/internal/config"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	assert.Equal(t, config.DefaultDBHost, cfg.Database.Host)
	assert.Equal(t, config.DefaultDBPort, cfg.Database.Port)
	assert.Equal(t, config.DefaultKafkaTopic, cfg.Kafka.Topic)
	assert.Equal(t, config.DefaultLogLevel, cfg.Log.Level)

	s := cfg.Pipeline.Scoring
	assert.Equal(t, 0.30, s.WeightUnresolved)
	assert.Equal(t, 0.40, s.WeightUnfavorable)
	assert.Equal(t, 10.0, s.VolumeScale)
	assert.Equal(t, 15.0, s.VolumeCap)
	assert.Equal(t, 2.0, s.MonetaryScale)
	assert.Equal(t, 15.0, s.MonetaryCap)
	assert.Equal(t, 100_000.0, s.FinancialMedium)
	assert.Equal(t, 1_000_000.0, s.FinancialHigh)
	assert.Equal(t, 10_000_000.0, s.FinancialCrit)
	assert.NotEmpty(t, s.SubjectKeywords)

	e := cfg.Pipeline.Extraction
	assert.Contains(t, e.BankSuffixes, "Bank (Ghana) Limited")
	assert.Contains(t, e.InsuranceSuffixes, "Assurance Company Limited")
	assert.Contains(t, e.Blacklist, "Attorney General")
	assert.ElementsMatch(t, []string{"person", "bank", "insurance", "company"}, e.Categories)

	assert.Equal(t, 1, cfg.Pipeline.Backfill.Workers)
	assert.Equal(t, 3, cfg.Pipeline.Backfill.MaxRetries)
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Host = "db.internal"
	cfg.Pipeline.Scoring.WeightUnfavorable = 0.55
	cfg.Pipeline.Extraction.BankSuffixes = []string{"Bank"}
	cfg.Pipeline.Backfill.Workers = 8

	config.ApplyDefaults(cfg)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 0.55, cfg.Pipeline.Scoring.WeightUnfavorable)
	assert.Equal(t, []string{"Bank"}, cfg.Pipeline.Extraction.BankSuffixes)
	assert.Equal(t, 8, cfg.Pipeline.Backfill.Workers)
}

func TestApplyDefaults_DoesNotAliasPackageLists(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.Extraction.BankSuffixes[0] = "changed"
	assert.Equal(t, "Bank", config.DefaultBankSuffixes[0])
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { config.ApplyDefaults(nil) })
}
