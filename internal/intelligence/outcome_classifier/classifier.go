// Package outcome_classifier decides whether a linked case went for or
// against an entity.  A keyword RuleClassifier always produces a label; an
// optional AI Classifier may override it and falls back to the rule label on
// any error.
package outcome_classifier

import (
	"context"
	"time"

	"github.com/turtacn/CaseIntel/internal/domain/analytics"
	"github.com/turtacn/CaseIntel/internal/domain/litigation"
	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CaseIntel/internal/intelligence/common"
	"github.com/turtacn/CaseIntel/pkg/errors"
)

// ---------------------------------------------------------------------------
// AI collaborator contract
// ---------------------------------------------------------------------------

// Request asks for the outcome of Case from EntityName's point of view.
type Request struct {
	Case       *litigation.CaseRecord
	EntityName string
	Side       litigation.Side
}

// Classification is the collaborator's answer.
type Classification struct {
	Outcome    analytics.Outcome `json:"outcome"`
	Confidence float64           `json:"confidence"`
	Rationale  string            `json:"rationale,omitempty"`
}

// Classifier is an optional, best-effort outcome collaborator.
type Classifier interface {
	Classify(ctx context.Context, req Request) (Classification, error)
}

// ErrDisabled is returned by the no-op classifier.
var ErrDisabled = errors.New(errors.ErrCodeFeatureDisabled, "AI classifier disabled")

// NopClassifier never classifies anything.
type NopClassifier struct{}

func (NopClassifier) Classify(context.Context, Request) (Classification, error) {
	return Classification{}, ErrDisabled
}

// ---------------------------------------------------------------------------
// Resolver
// ---------------------------------------------------------------------------

// Resolver combines the rule classifier with an optional AI override.
type Resolver struct {
	rules   *RuleClassifier
	ai      Classifier
	metrics common.StageMetrics
	log     logging.Logger
}

// NewResolver returns a Resolver.  ai may be nil; metrics and log default to
// no-ops when nil.
func NewResolver(rules *RuleClassifier, ai Classifier, metrics common.StageMetrics, log logging.Logger) *Resolver {
	if ai == nil {
		ai = NopClassifier{}
	}
	if metrics == nil {
		metrics = common.NopMetrics()
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Resolver{rules: rules, ai: ai, metrics: metrics, log: log}
}

// Result is a resolved outcome and where it came from.
type Result struct {
	Outcome analytics.Outcome
	Source  string
	Rule    Verdict
}

// Resolve labels c for the entity known by names.  The AI label replaces the
// rule label only when it is a valid per-case outcome; every AI failure is
// logged and falls back.
func (r *Resolver) Resolve(ctx context.Context, c *litigation.CaseRecord, side litigation.Side, names []string) Result {
	verdict := r.rules.Explain(c, side, names)
	res := Result{Outcome: verdict.Outcome, Source: common.SourceRule, Rule: verdict}
	if _, off := r.ai.(NopClassifier); off {
		r.metrics.Classified(res.Source)
		return res
	}

	name := ""
	if len(names) > 0 {
		name = names[0]
	}
	start := time.Now()
	cls, err := r.ai.Classify(ctx, Request{Case: c, EntityName: name, Side: side})
	switch {
	case err != nil:
		r.log.Warn("AI classification failed, using rule label",
			logging.CaseID(c.ID), logging.String("rule_outcome", string(verdict.Outcome)),
			logging.Duration("elapsed", time.Since(start)), logging.Err(err))
		res.Source = common.SourceFallback
	case !cls.Outcome.IsValid():
		r.log.Warn("AI classification malformed, using rule label",
			logging.CaseID(c.ID), logging.String("ai_outcome", string(cls.Outcome)))
		res.Source = common.SourceFallback
	default:
		if cls.Outcome != verdict.Outcome {
			r.log.Debug("AI overrides rule label", logging.CaseID(c.ID),
				logging.String("rule_outcome", string(verdict.Outcome)),
				logging.String("ai_outcome", string(cls.Outcome)),
				logging.Float64("confidence", cls.Confidence))
		}
		res.Outcome = cls.Outcome
		res.Source = common.SourceAI
	}
	r.metrics.Classified(res.Source)
	return res
}

//Personal.AI order the ending
