package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultDBHost         = "localhost"
	DefaultDBPort         = 5432
	DefaultDBUser         = "caseintel"
	DefaultDBName         = "caseintel"
	DefaultDBMaxOpenConns = 20
	DefaultMigrationPath  = "migrations"

	DefaultRedisKeyPrefix = "caseintel:"

	DefaultKafkaTopic = "entity.analytics.updated"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "caseintel"
	DefaultMetricsJobName   = "caseintel_backfill"

	DefaultAIModel      = "gpt-4o-mini"
	DefaultAITimeout    = 15 * time.Second
	DefaultAIRatePerSec = 2.0
	DefaultAIBurst      = 4
	DefaultAICacheTTL   = 24 * time.Hour

	DefaultMinNameLength = 4
	DefaultPageSize      = 500

	DefaultWorkers           = 1
	DefaultMaxRetries        = 3
	DefaultInitialBackoff    = 200 * time.Millisecond
	DefaultMaxBackoff        = 10 * time.Second
	DefaultBackoffMultiplier = 2.0
	DefaultUnitTimeout       = 2 * time.Minute
	DefaultLockTTL           = 5 * time.Minute
	DefaultCheckpointTTL     = 7 * 24 * time.Hour
)

// Scoring defaults.
const (
	DefaultWeightUnresolved       = 0.30
	DefaultWeightUnfavorable      = 0.40
	DefaultVolumeScale            = 10.0
	DefaultVolumeCap              = 15.0
	DefaultMonetaryScale          = 2.0
	DefaultMonetaryCap            = 15.0
	DefaultUnresolvedFactorRatio  = 0.3
	DefaultUnfavorableFactorRatio = 0.5
	DefaultMixedFactorRatio       = 0.3
	DefaultVolumeFactorCount      = 10
	DefaultHighExposure           = 1_000_000.0
	DefaultFinancialMedium        = 100_000.0
	DefaultFinancialHigh          = 1_000_000.0
	DefaultFinancialCritical      = 10_000_000.0
	DefaultAveragePromotion       = 1_000_000.0
)

// Default word lists.  Suffixes are matched longest first by the extractor, so
// order here is irrelevant.
var (
	DefaultCategories = []string{"person", "bank", "insurance", "company"}

	DefaultBankSuffixes = []string{
		"Bank", "Bank Ltd", "Bank Limited", "Bank (Ghana) Limited",
		"Bank Ghana Limited", "Bank PLC",
	}
	DefaultInsuranceSuffixes = []string{
		"Insurance", "Assurance", "Insurance Company Limited",
		"Insurance Co. Ltd", "Assurance Company Limited",
	}
	DefaultCompanySuffixes = []string{
		"Limited", "Ltd", "Company Limited", "Enterprise", "Ventures", "PLC",
	}
	DefaultHonorifics = []string{
		"Mr", "Mrs", "Ms", "Miss", "Dr", "Prof", "Hon", "Rev", "Sir",
		"Alhaji", "Hajia", "Nana", "Togbe", "Justice", "Madam", "Esq",
	}
	DefaultStopWords = []string{
		"The", "And", "Of", "In", "On", "At", "For", "By", "With", "Vs", "V",
		"Between", "Plaintiff", "Plaintiffs", "Defendant", "Defendants",
		"Appellant", "Appellants", "Respondent", "Respondents", "Applicant",
		"Judgment", "Ruling", "Held", "Counsel", "Coram", "Suit", "No",
	}
	DefaultBlacklist = []string{
		"The Republic", "Republic", "Supreme Court", "Court of Appeal",
		"High Court", "Circuit Court", "District Court", "Commercial Court",
		"Attorney General", "Attorney-General", "Chief Justice",
		"Bank of Ghana", "Registrar General", "Lands Commission",
	}

	DefaultFavorableMarkers = []string{
		"appeal allowed", "appeal is allowed", "granted", "succeeds",
	}
	DefaultUnfavorableMarkers = []string{
		"dismissed", "appeal dismissed", "struck out", "fails",
	}
	DefaultMixedMarkers = []string{
		"allowed in part", "partially", "dismissed in part", "succeeds in part",
	}
	DefaultPlaintiffMarkers = []string{
		"judgment for the plaintiff", "judgment entered for the plaintiff",
		"in favour of the plaintiff",
	}
	DefaultDefendantMarkers = []string{
		"judgment for the defendant", "judgment entered for the defendant",
		"in favour of the defendant",
	}

	DefaultSubjectKeywords = map[string][]string{
		"Banking and Finance": {"loan", "mortgage", "overdraft", "guarantee", "credit facility"},
		"Contract":            {"breach of contract", "contract", "agreement"},
		"Employment":          {"wrongful dismissal", "termination of employment", "employment", "labour"},
		"Insurance":           {"insurance policy", "indemnity", "insured", "premium"},
		"Land":                {"land", "title to", "possession", "lease"},
		"Tort":                {"negligence", "defamation", "trespass", "damages for injury"},
		"Criminal":            {"prosecution", "accused", "conviction", "sentence"},
	}
)

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills every zero-value field in cfg.  Explicitly configured
// values are left unchanged.  A numeric setting cannot be configured as zero
// where its default is non-zero.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.User == "" {
		cfg.Database.User = DefaultDBUser
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = DefaultDBMaxOpenConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = cfg.Database.MaxOpenConns / 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = DefaultMigrationPath
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}

	// ── Log / Metrics ─────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.JobName == "" {
		cfg.Metrics.JobName = DefaultMetricsJobName
	}

	applyExtractionDefaults(&cfg.Pipeline.Extraction)
	applyClassificationDefaults(&cfg.Pipeline.Classification)
	applyScoringDefaults(&cfg.Pipeline.Scoring)
	applyBackfillDefaults(&cfg.Pipeline.Backfill)
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func applyExtractionDefaults(e *ExtractionConfig) {
	if e.MinNameLength == 0 {
		e.MinNameLength = DefaultMinNameLength
	}
	if e.PageSize == 0 {
		e.PageSize = DefaultPageSize
	}
	if len(e.Categories) == 0 {
		e.Categories = copyStrings(DefaultCategories)
	}
	if len(e.StopWords) == 0 {
		e.StopWords = copyStrings(DefaultStopWords)
	}
	if len(e.Honorifics) == 0 {
		e.Honorifics = copyStrings(DefaultHonorifics)
	}
	if len(e.Blacklist) == 0 {
		e.Blacklist = copyStrings(DefaultBlacklist)
	}
	if len(e.BankSuffixes) == 0 {
		e.BankSuffixes = copyStrings(DefaultBankSuffixes)
	}
	if len(e.InsuranceSuffixes) == 0 {
		e.InsuranceSuffixes = copyStrings(DefaultInsuranceSuffixes)
	}
	if len(e.CompanySuffixes) == 0 {
		e.CompanySuffixes = copyStrings(DefaultCompanySuffixes)
	}
}

func applyClassificationDefaults(c *ClassificationConfig) {
	if len(c.FavorableMarkers) == 0 {
		c.FavorableMarkers = copyStrings(DefaultFavorableMarkers)
	}
	if len(c.UnfavorableMarkers) == 0 {
		c.UnfavorableMarkers = copyStrings(DefaultUnfavorableMarkers)
	}
	if len(c.MixedMarkers) == 0 {
		c.MixedMarkers = copyStrings(DefaultMixedMarkers)
	}
	if len(c.PlaintiffMarkers) == 0 {
		c.PlaintiffMarkers = copyStrings(DefaultPlaintiffMarkers)
	}
	if len(c.DefendantMarkers) == 0 {
		c.DefendantMarkers = copyStrings(DefaultDefendantMarkers)
	}
	if c.AI.Model == "" {
		c.AI.Model = DefaultAIModel
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = DefaultAITimeout
	}
	if c.AI.RatePerSec == 0 {
		c.AI.RatePerSec = DefaultAIRatePerSec
	}
	if c.AI.Burst == 0 {
		c.AI.Burst = DefaultAIBurst
	}
	if c.AI.CacheTTL == 0 {
		c.AI.CacheTTL = DefaultAICacheTTL
	}
}

func applyScoringDefaults(s *ScoringConfig) {
	setFloat(&s.WeightUnresolved, DefaultWeightUnresolved)
	setFloat(&s.WeightUnfavorable, DefaultWeightUnfavorable)
	setFloat(&s.VolumeScale, DefaultVolumeScale)
	setFloat(&s.VolumeCap, DefaultVolumeCap)
	setFloat(&s.MonetaryScale, DefaultMonetaryScale)
	setFloat(&s.MonetaryCap, DefaultMonetaryCap)
	setFloat(&s.UnresolvedFactorRatio, DefaultUnresolvedFactorRatio)
	setFloat(&s.UnfavorableFactorRatio, DefaultUnfavorableFactorRatio)
	setFloat(&s.MixedFactorRatio, DefaultMixedFactorRatio)
	setFloat(&s.HighExposure, DefaultHighExposure)
	setFloat(&s.FinancialMedium, DefaultFinancialMedium)
	setFloat(&s.FinancialHigh, DefaultFinancialHigh)
	setFloat(&s.FinancialCrit, DefaultFinancialCritical)
	setFloat(&s.AveragePromotion, DefaultAveragePromotion)
	if s.VolumeFactorCount == 0 {
		s.VolumeFactorCount = DefaultVolumeFactorCount
	}
	if len(s.SubjectKeywords) == 0 {
		s.SubjectKeywords = make(map[string][]string, len(DefaultSubjectKeywords))
		for k, v := range DefaultSubjectKeywords {
			s.SubjectKeywords[k] = copyStrings(v)
		}
	}
}

func applyBackfillDefaults(b *BackfillConfig) {
	if b.Workers == 0 {
		b.Workers = DefaultWorkers
	}
	if b.MaxRetries == 0 {
		b.MaxRetries = DefaultMaxRetries
	}
	if b.InitialBackoff == 0 {
		b.InitialBackoff = DefaultInitialBackoff
	}
	if b.MaxBackoff == 0 {
		b.MaxBackoff = DefaultMaxBackoff
	}
	setFloat(&b.BackoffMultiplier, DefaultBackoffMultiplier)
	if b.UnitTimeout == 0 {
		b.UnitTimeout = DefaultUnitTimeout
	}
	if b.LockTTL == 0 {
		b.LockTTL = DefaultLockTTL
	}
	if b.CheckpointTTL == 0 {
		b.CheckpointTTL = DefaultCheckpointTTL
	}
}

func setFloat(dst *float64, def float64) {
	if *dst == 0 {
		*dst = def
	}
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

//Personal.AI order the ending
