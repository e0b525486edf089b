package analytics

// Outcome is the result of one case from one entity's point of view.
type Outcome string

const (
	OutcomeFavorable   Outcome = "favorable"
	OutcomeUnfavorable Outcome = "unfavorable"
	OutcomeMixed       Outcome = "mixed"
	OutcomeUnresolved  Outcome = "unresolved"

	// OutcomeNA is the overall label of an entity with no linked cases.
	OutcomeNA Outcome = "N/A"
)

// outcomeRank orders outcomes for plurality tie-breaks; lower wins.
var outcomeRank = map[Outcome]int{
	OutcomeFavorable:   0,
	OutcomeUnfavorable: 1,
	OutcomeMixed:       2,
	OutcomeUnresolved:  3,
}

// IsValid reports whether o is a per-case outcome.
func (o Outcome) IsValid() bool {
	_, ok := outcomeRank[o]
	return ok
}

// IsResolved reports whether o is determinate.
func (o Outcome) IsResolved() bool {
	return o == OutcomeFavorable || o == OutcomeUnfavorable || o == OutcomeMixed
}

// ParseOutcome maps free-form labels (including WON/LOST) to an Outcome.
// Unknown labels yield ok=false.
func ParseOutcome(s string) (Outcome, bool) {
	switch s {
	case "favorable", "favourable", "FAVORABLE", "WON", "won", "win":
		return OutcomeFavorable, true
	case "unfavorable", "unfavourable", "UNFAVORABLE", "LOST", "lost", "loss":
		return OutcomeUnfavorable, true
	case "mixed", "MIXED", "partial", "PARTIAL":
		return OutcomeMixed, true
	case "unresolved", "UNRESOLVED", "pending", "PENDING":
		return OutcomeUnresolved, true
	}
	return "", false
}

//Personal.AI order the ending
