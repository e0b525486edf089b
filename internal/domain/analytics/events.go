package analytics

import (
	"context"
	"time"

	"github.com/turtacn/CaseIntel/internal/domain/entity"
)

// EventTypeUpdated is the type of the event emitted after an entity's
// statistics and analytics are committed.
const EventTypeUpdated = "entity.analytics.updated"

// UpdatedEvent notifies downstream consumers that an entity's derived records
// changed.  It carries a summary; consumers read the full records by id.
type UpdatedEvent struct {
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	RunID       string          `json:"run_id"`
	EntityID    string          `json:"entity_id"`
	Category    entity.Category `json:"category"`
	TotalCases  int             `json:"total_cases"`
	CaseOutcome Outcome         `json:"case_outcome"`
	RiskScore   float64         `json:"risk_score"`
	RiskLevel   RiskLevel       `json:"risk_level"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// EventPublisher emits UpdatedEvents.
type EventPublisher interface {
	PublishUpdated(ctx context.Context, ev *UpdatedEvent) error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) PublishUpdated(context.Context, *UpdatedEvent) error { return nil }

// ResultWriter stores an entity's statistics and analytics together in one
// transaction.  Either both records are replaced or neither is.
type ResultWriter interface {
	SaveResults(ctx context.Context, s *CaseStatistics, a *Analytics) error
}

//Personal.AI order the ending
