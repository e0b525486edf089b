package outcome_classifier

import (
	"strings"
	"unicode"

	"github.com/turtacn/CaseIntel/internal/config"
	"github.com/turtacn/CaseIntel/internal/domain/analytics"
	"github.com/turtacn/CaseIntel/internal/domain/litigation"
)

// Verdict is a rule label together with the markers that produced it.
type Verdict struct {
	Outcome analytics.Outcome `json:"outcome"`
	Markers []string          `json:"markers,omitempty"`
}

// RuleClassifier labels a case from one entity's point of view by scanning
// the judgement and conclusion for marker phrases.
//
// Precedence: a mixed marker wins outright; favorable and unfavorable markers
// firing together also yield mixed; no marker yields unresolved.  Plaintiff
// and defendant judgment markers are read relative to the entity's side.
// Generic markers such as "dismissed" are read literally.
type RuleClassifier struct {
	favorable   []string
	unfavorable []string
	mixed       []string
	plaintiff   []string
	defendant   []string
}

// NewRuleClassifier builds a RuleClassifier from cfg.  Marker phrases are
// normalised the same way as case text.
func NewRuleClassifier(cfg config.ClassificationConfig) *RuleClassifier {
	return &RuleClassifier{
		favorable:   normalizeAll(cfg.FavorableMarkers),
		unfavorable: normalizeAll(cfg.UnfavorableMarkers),
		mixed:       normalizeAll(cfg.MixedMarkers),
		plaintiff:   normalizeAll(cfg.PlaintiffMarkers),
		defendant:   normalizeAll(cfg.DefendantMarkers),
	}
}

// Classify returns the outcome of c for the entity known by names, sitting on
// side.
func (r *RuleClassifier) Classify(c *litigation.CaseRecord, side litigation.Side, names []string) analytics.Outcome {
	return r.Explain(c, side, names).Outcome
}

// Explain is Classify plus the markers that fired.
func (r *RuleClassifier) Explain(c *litigation.CaseRecord, side litigation.Side, names []string) Verdict {
	text := normalizeText(c.OutcomeText())
	if text == "" {
		return Verdict{Outcome: analytics.OutcomeUnresolved}
	}
	padded := " " + text + " "

	if hits := matchAll(padded, r.mixed); len(hits) > 0 {
		return Verdict{Outcome: analytics.OutcomeMixed, Markers: hits}
	}

	var fav, unfav []string
	fav = append(fav, matchAll(padded, r.favorable)...)
	unfav = append(unfav, matchAll(padded, r.unfavorable)...)

	forPlaintiff := matchAll(padded, r.plaintiff)
	forDefendant := matchAll(padded, r.defendant)
	if side == litigation.SideDefendant {
		fav = append(fav, forDefendant...)
		unfav = append(unfav, forPlaintiff...)
	} else {
		fav = append(fav, forPlaintiff...)
		unfav = append(unfav, forDefendant...)
	}

	for _, n := range normalizeAll(names) {
		marker := "in favour of " + n
		if strings.Contains(padded, " "+marker+" ") {
			fav = append(fav, marker)
		}
	}

	switch {
	case len(fav) > 0 && len(unfav) > 0:
		return Verdict{Outcome: analytics.OutcomeMixed, Markers: append(fav, unfav...)}
	case len(fav) > 0:
		return Verdict{Outcome: analytics.OutcomeFavorable, Markers: fav}
	case len(unfav) > 0:
		return Verdict{Outcome: analytics.OutcomeUnfavorable, Markers: unfav}
	}
	return Verdict{Outcome: analytics.OutcomeUnresolved}
}

// matchAll returns the markers found in padded as whole words.
func matchAll(padded string, markers []string) []string {
	var out []string
	for _, m := range markers {
		if strings.Contains(padded, " "+m+" ") {
			out = append(out, m)
		}
	}
	return out
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := normalizeText(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// spelling folds common variants so markers match either spelling.
var spelling = strings.NewReplacer(
	"judgement", "judgment",
	"in favor of", "in favour of",
	"favourable", "favorable",
)

// normalizeText lower-cases s, turns punctuation into spaces and collapses
// whitespace.  Apostrophes are dropped.
func normalizeText(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r == '\'' || r == '’':
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}
	return spelling.Replace(strings.Join(strings.Fields(sb.String()), " "))
}

//Personal.AI order the ending
