package prometheus

import (
	"time"

	"github.com/turtacn/CaseIntel/internal/intelligence/common"
)

// PipelineMetrics holds the pipeline's metric families and implements
// common.StageMetrics.
type PipelineMetrics struct {
	UnitsTotal      CounterVec
	UnitDuration    HistogramVec
	Classifications CounterVec
	EntitiesCreated CounterVec
	AliasesAdded    CounterVec
	RetriesTotal    CounterVec

	LastRunUnits     GaugeVec
	LastRunTimestamp GaugeVec
}

var _ common.StageMetrics = (*PipelineMetrics)(nil)

// NewPipelineMetrics registers the pipeline families on c.
func NewPipelineMetrics(c MetricsCollector) *PipelineMetrics {
	return &PipelineMetrics{
		UnitsTotal: c.RegisterCounter("units_total",
			"Units processed per stage by final status.", "stage", "status"),
		UnitDuration: c.RegisterHistogram("unit_duration_seconds",
			"Wall time spent on one unit including retries.", nil, "stage"),
		Classifications: c.RegisterCounter("classifications_total",
			"Case outcome labels by the classifier that produced them.", "source"),
		EntitiesCreated: c.RegisterCounter("entities_created_total",
			"Entities created by extraction.", "category"),
		AliasesAdded: c.RegisterCounter("aliases_added_total",
			"Aliases recorded on existing entities.", "category"),
		RetriesTotal: c.RegisterCounter("retries_total",
			"Retries of transient failures.", "stage"),
		LastRunUnits: c.RegisterGauge("last_run_units",
			"Unit counts of the most recent run by status.", "stage", "status"),
		LastRunTimestamp: c.RegisterGauge("last_run_timestamp_seconds",
			"Unix time the most recent run finished.", "stage"),
	}
}

func (m *PipelineMetrics) UnitProcessed(stage string, status common.UnitStatus, elapsed time.Duration) {
	m.UnitsTotal.WithLabelValues(stage, status.String()).Inc()
	m.UnitDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (m *PipelineMetrics) EntityCreated(category string) {
	m.EntitiesCreated.WithLabelValues(category).Inc()
}

func (m *PipelineMetrics) AliasAdded(category string) {
	m.AliasesAdded.WithLabelValues(category).Inc()
}

func (m *PipelineMetrics) Classified(source string) {
	m.Classifications.WithLabelValues(source).Inc()
}

func (m *PipelineMetrics) Retried(stage string) {
	m.RetriesTotal.WithLabelValues(stage).Inc()
}

// RunFinished records the summary of a completed run.
func (m *PipelineMetrics) RunFinished(stage string, succeeded, failed, skipped int) {
	m.LastRunUnits.WithLabelValues(stage, common.UnitSucceeded.String()).Set(float64(succeeded))
	m.LastRunUnits.WithLabelValues(stage, common.UnitFailed.String()).Set(float64(failed))
	m.LastRunUnits.WithLabelValues(stage, common.UnitSkipped.String()).Set(float64(skipped))
	m.LastRunTimestamp.WithLabelValues(stage).SetToCurrentTime()
}

//Personal.AI order the ending
