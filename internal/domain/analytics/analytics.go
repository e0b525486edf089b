package analytics

import (
	"context"
	"time"

	"github.com/turtacn/CaseIntel/internal/domain/entity"
	"github.com/turtacn/CaseIntel/pkg/errors"
)

// RiskLevel buckets a risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// RiskLevelFor maps a score in [0,100] to its level: [0,25) Low, [25,50)
// Medium, [50,75) High, [75,100] Critical.
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score < 25:
		return RiskLow
	case score < 50:
		return RiskMedium
	case score < 75:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// FinancialRiskLevel buckets monetary exposure.
type FinancialRiskLevel string

const (
	FinancialNone     FinancialRiskLevel = "None"
	FinancialLow      FinancialRiskLevel = "Low"
	FinancialMedium   FinancialRiskLevel = "Medium"
	FinancialHigh     FinancialRiskLevel = "High"
	FinancialCritical FinancialRiskLevel = "Critical"
)

var financialOrder = []FinancialRiskLevel{FinancialLow, FinancialMedium, FinancialHigh, FinancialCritical}

// Promote returns the next level up, capped at Critical.  None stays None.
func (f FinancialRiskLevel) Promote() FinancialRiskLevel {
	for i, l := range financialOrder {
		if l == f && i+1 < len(financialOrder) {
			return financialOrder[i+1]
		}
	}
	return f
}

// Risk factor descriptions, in emission order.
const (
	FactorUnresolved  = "High number of unresolved cases"
	FactorUnfavorable = "Majority of resolved cases decided unfavorably"
	FactorMixed       = "Significant share of mixed outcomes"
	FactorVolume      = "High litigation volume"
	FactorExposure    = "Significant monetary exposure"
)

// SubjectGeneral is the primary subject when no keyword matched.
const SubjectGeneral = "General"

// Analytics is the derived risk view of one entity.
type Analytics struct {
	EntityID              string             `json:"entity_id"`
	Category              entity.Category    `json:"category"`
	RiskScore             float64            `json:"risk_score"`
	RiskLevel             RiskLevel          `json:"risk_level"`
	RiskFactors           []string           `json:"risk_factors"`
	TotalMonetaryAmount   float64            `json:"total_monetary_amount"`
	AverageMonetaryAmount float64            `json:"average_monetary_amount"`
	FinancialRiskLevel    FinancialRiskLevel `json:"financial_risk_level"`
	PrimarySubjectMatter  string             `json:"primary_subject_matter"`
	SuccessRate           float64            `json:"success_rate"`
	LastUpdated           time.Time          `json:"last_updated"`
}

// Validate checks the range invariants.
func (a *Analytics) Validate() error {
	if a.EntityID == "" {
		return errors.NewValidation("analytics entity id cannot be empty")
	}
	if a.RiskScore < 0 || a.RiskScore > 100 {
		return errors.Invariant("entity %s: risk score %.2f outside [0,100]", a.EntityID, a.RiskScore)
	}
	if a.RiskLevel != RiskLevelFor(a.RiskScore) {
		return errors.Invariant("entity %s: risk level %s does not match score %.2f", a.EntityID, a.RiskLevel, a.RiskScore)
	}
	if a.SuccessRate < 0 || a.SuccessRate > 100 {
		return errors.Invariant("entity %s: success rate %.2f outside [0,100]", a.EntityID, a.SuccessRate)
	}
	return nil
}

// AnalyticsRepository persists Analytics keyed by entity id.
type AnalyticsRepository interface {
	// Upsert overwrites the record for a.EntityID in one transaction.
	Upsert(ctx context.Context, a *Analytics) error
	GetByEntityID(ctx context.Context, entityID string) (*Analytics, error)
}

//Personal.AI order the ending
