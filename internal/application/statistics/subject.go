package statistics

import (
	"sort"
	"strings"
	"unicode"

	"github.com/turtacn/CaseIntel/internal/domain/litigation"
)

// SubjectMatcher assigns a case to one area of law by keyword.
type SubjectMatcher struct {
	subjects []subjectKeywords
}

type subjectKeywords struct {
	name     string
	keywords []string
}

// NewSubjectMatcher builds a matcher from subject -> keywords.
func NewSubjectMatcher(keywords map[string][]string) *SubjectMatcher {
	m := &SubjectMatcher{}
	for name, kws := range keywords {
		sk := subjectKeywords{name: name}
		for _, k := range kws {
			if k = normalizeWords(k); k != "" {
				sk.keywords = append(sk.keywords, k)
			}
		}
		if len(sk.keywords) > 0 {
			m.subjects = append(m.subjects, sk)
		}
	}
	sort.Slice(m.subjects, func(i, j int) bool { return m.subjects[i].name < m.subjects[j].name })
	return m
}

// Match returns the subject with the most keyword hits in the case's area of
// law, headnotes, title and summary.  Ties go to the alphabetically first
// subject.  With no hits the trimmed AreaOfLaw is returned as-is, and ""
// when that is blank too.
func (m *SubjectMatcher) Match(c *litigation.CaseRecord) string {
	text := " " + normalizeWords(c.SubjectText()) + " "
	best, bestHits := "", 0
	for _, s := range m.subjects {
		hits := 0
		for _, k := range s.keywords {
			hits += strings.Count(text, " "+k+" ")
		}
		if hits > bestHits {
			best, bestHits = s.name, hits
		}
	}
	if best != "" {
		return best
	}
	return strings.Join(strings.Fields(c.AreaOfLaw), " ")
}

func normalizeWords(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

//Personal.AI order the ending
