package litigation

import "strings"

// Side is the role an entity plays in a case.
type Side int

const (
	SideUnknown Side = iota
	SidePlaintiff
	SideDefendant
)

func (s Side) String() string {
	switch s {
	case SidePlaintiff:
		return "plaintiff"
	case SideDefendant:
		return "defendant"
	}
	return "unknown"
}

// containsFold reports whether text contains any non-blank name, ignoring case.
func containsFold(text string, lowerNames []string) bool {
	if text == "" {
		return false
	}
	lt := strings.ToLower(text)
	for _, n := range lowerNames {
		if n != "" && strings.Contains(lt, n) {
			return true
		}
	}
	return false
}

func lowerAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Mentions reports whether any of names occurs in a party or body field of c.
func Mentions(c *CaseRecord, names []string) bool {
	lower := lowerAll(names)
	for _, f := range c.TextFields() {
		if containsFold(f.Text, lower) {
			return true
		}
	}
	return false
}

// SideOf reports which side of c the entity known by names is on.  Defendant
// wins when a name appears in both party fields.
func SideOf(c *CaseRecord, names []string) Side {
	lower := lowerAll(names)
	switch {
	case containsFold(c.Defendants, lower):
		return SideDefendant
	case containsFold(c.Plaintiffs, lower):
		return SidePlaintiff
	}
	// Fall back to the "X v Y" title convention.
	lt := strings.ToLower(c.Title)
	if idx := titleSplit(lt); idx > 0 {
		if containsFold(lt[idx:], lower) {
			return SideDefendant
		}
		if containsFold(lt[:idx], lower) {
			return SidePlaintiff
		}
	}
	return SideUnknown
}

// titleSplit returns the index of the versus separator in a lower-cased
// title, or -1.
func titleSplit(lt string) int {
	for _, sep := range []string{" vs. ", " vs ", " v. ", " v "} {
		if i := strings.Index(lt, sep); i > 0 {
			return i
		}
	}
	return -1
}

//Personal.AI order the ending
