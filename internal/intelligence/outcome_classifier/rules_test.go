package outcome_classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/CaseIntel/internal/config"
	"github.com/turtacn/CaseIntel/internal/domain/analytics"
	"github.com/turtacn/CaseIntel/internal/domain/litigation"
)

func defaultRules() *RuleClassifier {
	return NewRuleClassifier(config.Default().Pipeline.Classification)
}

func TestRuleClassifier_Classify(t *testing.T) {
	r := defaultRules()
	names := []string{"GCB Bank Ltd."}

	tests := []struct {
		name string
		c    litigation.CaseRecord
		side litigation.Side
		want analytics.Outcome
	}{
		{"appeal allowed", litigation.CaseRecord{Judgement: "Appeal allowed."}, litigation.SidePlaintiff, analytics.OutcomeFavorable},
		{"dismissed", litigation.CaseRecord{Judgement: "The suit is dismissed."}, litigation.SidePlaintiff, analytics.OutcomeUnfavorable},
		{"mixed marker wins", litigation.CaseRecord{Judgement: "The appeal is allowed in part."}, litigation.SidePlaintiff, analytics.OutcomeMixed},
		{"conflicting markers", litigation.CaseRecord{Conclusion: "The claim succeeds but the counterclaim is dismissed."}, litigation.SidePlaintiff, analytics.OutcomeMixed},
		{"plaintiff marker for plaintiff", litigation.CaseRecord{Judgement: "Judgment for the plaintiff."}, litigation.SidePlaintiff, analytics.OutcomeFavorable},
		{"plaintiff marker for defendant", litigation.CaseRecord{Judgement: "Judgment for the plaintiff."}, litigation.SideDefendant, analytics.OutcomeUnfavorable},
		{"plaintiff marker unknown side", litigation.CaseRecord{Judgement: "Judgment for the plaintiff."}, litigation.SideUnknown, analytics.OutcomeFavorable},
		{"defendant marker British spelling", litigation.CaseRecord{Judgement: "Judgement entered for the Defendant."}, litigation.SideDefendant, analytics.OutcomeFavorable},
		{"in favour of entity", litigation.CaseRecord{Judgement: "Judgment is entered in favor of GCB Bank Ltd. with costs"}, litigation.SideUnknown, analytics.OutcomeFavorable},
		{"generic marker not mirrored", litigation.CaseRecord{Judgement: "Appeal dismissed."}, litigation.SideDefendant, analytics.OutcomeUnfavorable},
		{"summary fallback", litigation.CaseRecord{Summary: "The appeal was dismissed."}, litigation.SidePlaintiff, analytics.OutcomeUnfavorable},
		{"no markers", litigation.CaseRecord{Judgement: "Adjourned sine die."}, litigation.SidePlaintiff, analytics.OutcomeUnresolved},
		{"whole words only", litigation.CaseRecord{Judgement: "The grantee appeared in person."}, litigation.SidePlaintiff, analytics.OutcomeUnresolved},
		{"empty", litigation.CaseRecord{}, litigation.SidePlaintiff, analytics.OutcomeUnresolved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.c
			assert.Equal(t, tt.want, r.Classify(&c, tt.side, names))
		})
	}
}

func TestRuleClassifier_ExplainMarkers(t *testing.T) {
	v := defaultRules().Explain(&litigation.CaseRecord{Judgement: "Appeal dismissed."}, litigation.SidePlaintiff, nil)
	assert.Equal(t, analytics.OutcomeUnfavorable, v.Outcome)
	assert.ElementsMatch(t, []string{"dismissed", "appeal dismissed"}, v.Markers)
}

func TestRuleClassifier_CustomMarkers(t *testing.T) {
	cfg := config.Default().Pipeline.Classification
	cfg.FavorableMarkers = []string{"Claim Upheld"}
	r := NewRuleClassifier(cfg)

	assert.Equal(t, analytics.OutcomeFavorable,
		r.Classify(&litigation.CaseRecord{Judgement: "claim upheld; costs to the plaintiff"}, litigation.SidePlaintiff, nil))
	assert.Equal(t, analytics.OutcomeUnresolved,
		r.Classify(&litigation.CaseRecord{Judgement: "Appeal allowed."}, litigation.SidePlaintiff, nil))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "judgment in favour of mensahs estate", normalizeText("JUDGEMENT, in favor of Mensah's   Estate."))
	assert.Equal(t, "", normalizeText(" ... "))
}

//Personal.AI order the ending
