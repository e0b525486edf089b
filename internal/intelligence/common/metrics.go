package common

import "time"

// StageMetrics is the instrumentation surface the pipeline stages report to.
// The Prometheus implementation lives in
// internal/infrastructure/monitoring/prometheus.
type StageMetrics interface {
	// UnitProcessed records one case or entity unit with its final status.
	UnitProcessed(stage string, status UnitStatus, elapsed time.Duration)
	// EntityCreated counts a newly created entity.
	EntityCreated(category string)
	// AliasAdded counts a newly recorded alias.
	AliasAdded(category string)
	// Classified counts one outcome label by source: rule, ai or fallback.
	Classified(source string)
	// Retried counts one retry of a transient failure.
	Retried(stage string)
}

type nopMetrics struct{}

func (nopMetrics) UnitProcessed(string, UnitStatus, time.Duration) {}
func (nopMetrics) EntityCreated(string)                            {}
func (nopMetrics) AliasAdded(string)                               {}
func (nopMetrics) Classified(string)                               {}
func (nopMetrics) Retried(string)                                  {}

// NopMetrics returns a StageMetrics that records nothing.
func NopMetrics() StageMetrics { return nopMetrics{} }

// Stage names used in logs and metric labels.
const (
	StageExtract   = "extract"
	StageAggregate = "aggregate"
	StageScore     = "score"
	StageBackfill  = "backfill"
)

// Classification sources.
const (
	SourceRule     = "rule"
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

//Personal.AI order the ending
