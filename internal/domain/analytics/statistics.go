// Package analytics holds the derived per-entity records: case statistics and
// risk analytics.  Both are owned by the pipeline and fully overwritten on
// every run.
package analytics

import (
	"context"
	"time"

	"github.com/turtacn/CaseIntel/internal/domain/entity"
	"github.com/turtacn/CaseIntel/pkg/errors"
)

// CaseStatistics summarises the cases linked to one entity.
type CaseStatistics struct {
	EntityID         string          `json:"entity_id"`
	Category         entity.Category `json:"category"`
	TotalCases       int             `json:"total_cases"`
	ResolvedCases    int             `json:"resolved_cases"`
	UnresolvedCases  int             `json:"unresolved_cases"`
	FavorableCases   int             `json:"favorable_cases"`
	UnfavorableCases int             `json:"unfavorable_cases"`
	MixedCases       int             `json:"mixed_cases"`
	CaseOutcome      Outcome         `json:"case_outcome"`

	// TotalAmount sums the parsed monetary values of AmountCases cases.
	TotalAmount float64 `json:"total_amount"`
	AmountCases int     `json:"amount_cases"`

	// SubjectCounts counts linked cases per area of law.
	SubjectCounts map[string]int `json:"subject_counts"`

	// AIClassified counts cases whose label came from the AI classifier.
	AIClassified int `json:"ai_classified"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewCaseStatistics returns an all-zero record for e with outcome N/A.
func NewCaseStatistics(entityID string, category entity.Category) *CaseStatistics {
	return &CaseStatistics{
		EntityID:      entityID,
		Category:      category,
		CaseOutcome:   OutcomeNA,
		SubjectCounts: map[string]int{},
	}
}

// Record counts one case outcome.
func (s *CaseStatistics) Record(o Outcome) {
	s.TotalCases++
	switch o {
	case OutcomeFavorable:
		s.FavorableCases++
		s.ResolvedCases++
	case OutcomeUnfavorable:
		s.UnfavorableCases++
		s.ResolvedCases++
	case OutcomeMixed:
		s.MixedCases++
		s.ResolvedCases++
	default:
		s.UnresolvedCases++
	}
}

// RecordAmount adds a parsed monetary value.
func (s *CaseStatistics) RecordAmount(v float64) {
	s.TotalAmount += v
	s.AmountCases++
}

// RecordSubject counts one case for subject.
func (s *CaseStatistics) RecordSubject(subject string) {
	if subject == "" {
		return
	}
	if s.SubjectCounts == nil {
		s.SubjectCounts = map[string]int{}
	}
	s.SubjectCounts[subject]++
}

// Finalize sets CaseOutcome to the plurality outcome.  Ties break
// favorable > unfavorable > mixed > unresolved; no cases yields N/A.
func (s *CaseStatistics) Finalize() {
	if s.TotalCases == 0 {
		s.CaseOutcome = OutcomeNA
		return
	}
	counts := map[Outcome]int{
		OutcomeFavorable:   s.FavorableCases,
		OutcomeUnfavorable: s.UnfavorableCases,
		OutcomeMixed:       s.MixedCases,
		OutcomeUnresolved:  s.UnresolvedCases,
	}
	best := OutcomeUnresolved
	for _, o := range []Outcome{OutcomeFavorable, OutcomeUnfavorable, OutcomeMixed, OutcomeUnresolved} {
		if counts[o] > counts[best] || (counts[o] == counts[best] && outcomeRank[o] < outcomeRank[best]) {
			best = o
		}
	}
	s.CaseOutcome = best
}

// Validate checks the counting invariants.  Violations carry
// ErrCodeInvariantViolation.
func (s *CaseStatistics) Validate() error {
	if s.EntityID == "" {
		return errors.NewValidation("statistics entity id cannot be empty")
	}
	if s.TotalCases != s.ResolvedCases+s.UnresolvedCases {
		return errors.Invariant("entity %s: total %d != resolved %d + unresolved %d",
			s.EntityID, s.TotalCases, s.ResolvedCases, s.UnresolvedCases)
	}
	if s.ResolvedCases != s.FavorableCases+s.UnfavorableCases+s.MixedCases {
		return errors.Invariant("entity %s: resolved %d != favorable %d + unfavorable %d + mixed %d",
			s.EntityID, s.ResolvedCases, s.FavorableCases, s.UnfavorableCases, s.MixedCases)
	}
	if s.TotalCases == 0 && s.CaseOutcome != OutcomeNA {
		return errors.Invariant("entity %s: outcome %q with zero cases", s.EntityID, s.CaseOutcome)
	}
	if s.TotalCases > 0 && !s.CaseOutcome.IsValid() {
		return errors.Invariant("entity %s: invalid outcome %q", s.EntityID, s.CaseOutcome)
	}
	if s.AmountCases > s.TotalCases || s.TotalAmount < 0 {
		return errors.Invariant("entity %s: amount over %d cases exceeds %d linked cases",
			s.EntityID, s.AmountCases, s.TotalCases)
	}
	return nil
}

// StatisticsRepository persists CaseStatistics keyed by entity id.
type StatisticsRepository interface {
	// Upsert overwrites the record for s.EntityID in one transaction.
	Upsert(ctx context.Context, s *CaseStatistics) error
	GetByEntityID(ctx context.Context, entityID string) (*CaseStatistics, error)
}

//Personal.AI order the ending
