package entity_extractor

import (
	"sort"
	"strings"

	"github.com/turtacn/CaseIntel/internal/config"
	"github.com/turtacn/CaseIntel/internal/domain/entity"
)

// Mention is one entity name found in a case field.
type Mention struct {
	Category entity.Category `json:"category"`
	Surface  string          `json:"surface"`
	Key      string          `json:"key"`
	Field    string          `json:"field"`
	Start    int             `json:"start"`
	End      int             `json:"end"`
}

// suffix is an organisation suffix split into lower-case tokens.
type suffix struct {
	category entity.Category
	tokens   []string
}

// Person names are runs of this many capitalised tokens.
const (
	minPersonTokens = 2
	maxPersonTokens = 5
)

// connectors may appear inside an organisation name between capitalised words.
var connectors = map[string]bool{"&": true, "of": true}

// abbreviations keep a run going across a trailing period.
var abbreviations = map[string]bool{
	"co": true, "ltd": true, "inc": true, "corp": true, "plc": true, "bros": true,
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true, "hon": true,
	"rev": true, "st": true, "jnr": true, "snr": true, "jr": true, "sr": true,
}

// Matcher recognises bank, insurance, company and person names in free text.
// It is immutable after construction and safe for concurrent use.
type Matcher struct {
	minLen     int
	suffixes   []suffix
	orgTokens  map[string]bool
	honorifics map[string]bool
	stopWords  map[string]bool
	blacklist  []string
	enabled    map[entity.Category]bool
}

// NewMatcher builds a Matcher from the extraction settings.
func NewMatcher(cfg config.ExtractionConfig) *Matcher {
	m := &Matcher{
		minLen:     cfg.MinNameLength,
		orgTokens:  map[string]bool{},
		honorifics: lowerSet(cfg.Honorifics),
		stopWords:  lowerSet(cfg.StopWords),
		enabled:    map[entity.Category]bool{},
	}
	for _, c := range cfg.Categories {
		m.enabled[entity.Category(c)] = true
	}
	if len(cfg.Categories) == 0 {
		for _, c := range entity.AllCategories {
			m.enabled[c] = true
		}
	}
	add := func(cat entity.Category, list []string) {
		for _, s := range list {
			toks := suffixTokens(s)
			if len(toks) == 0 {
				continue
			}
			m.suffixes = append(m.suffixes, suffix{category: cat, tokens: toks})
			for _, t := range toks {
				m.orgTokens[t] = true
			}
		}
	}
	add(entity.CategoryBank, cfg.BankSuffixes)
	add(entity.CategoryInsurance, cfg.InsuranceSuffixes)
	add(entity.CategoryCompany, cfg.CompanySuffixes)
	// Longest suffix first; for equal length banks beat insurers beat companies.
	sort.SliceStable(m.suffixes, func(i, j int) bool {
		return len(m.suffixes[i].tokens) > len(m.suffixes[j].tokens)
	})
	for _, b := range cfg.Blacklist {
		if k := entity.NormalizeKey(b); k != "" {
			m.blacklist = append(m.blacklist, k)
		}
	}
	return m
}

func lowerSet(words []string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[strings.ToLower(strings.TrimSuffix(strings.TrimSpace(w), "."))] = true
	}
	return out
}

// suffixTokens splits "Bank (Ghana) Limited" into [bank ghana limited].
func suffixTokens(s string) []string {
	var out []string
	for _, t := range tokenise(s) {
		out = append(out, t.lower)
	}
	return out
}

// Match returns every mention in text, in order of appearance.  Overlapping
// organisation and person readings of one run are never both returned.
func (m *Matcher) Match(field, text string) []Mention {
	var mentions []Mention
	for _, run := range m.runs(tokenise(text)) {
		mentions = append(mentions, m.matchRun(field, text, run)...)
	}
	return mentions
}

// runs groups tokens into maximal runs of capitalised words.  Stop words,
// lower-case words and run-breaking punctuation end a run; connectors are
// kept only between capitalised words.
func (m *Matcher) runs(tokens []token) [][]token {
	var (
		out [][]token
		cur []token
	)
	flush := func() {
		// drop trailing connectors
		for len(cur) > 0 && connectors[cur[len(cur)-1].lower] {
			cur = cur[:len(cur)-1]
		}
		if len(cur) > 0 {
			out = append(out, cur)
		}
		cur = nil
	}
	for i, t := range tokens {
		if t.breakBefore {
			flush()
		}
		switch {
		case !t.isWord():
			flush()
			continue
		case connectors[t.lower]:
			if len(cur) == 0 || i+1 >= len(tokens) || !tokens[i+1].capitalised() {
				flush()
				continue
			}
			cur = append(cur, t)
		case m.stopWords[t.lower] && !m.orgTokens[t.lower]:
			flush()
			continue
		case t.capitalised():
			cur = append(cur, t)
		default:
			flush()
			continue
		}
		if t.breakAfter || (t.endWithDot && !abbreviations[t.lower] && !m.honorifics[t.lower] && !t.isInitial()) {
			flush()
		}
	}
	flush()
	return out
}

// matchRun extracts organisations greedily (longest suffix match that ends
// furthest right), then treats a suffix-free remainder as a possible person.
func (m *Matcher) matchRun(field, text string, run []token) []Mention {
	var out []Mention
	i := 0
	for i < len(run) {
		// skip leading connectors and honorifics
		for i < len(run) && (connectors[run[i].lower] || m.honorifics[run[i].lower]) {
			i++
		}
		if i >= len(run) {
			break
		}
		end, cat := -1, entity.Category("")
		for j := len(run) - 1; j > i; j-- {
			if c, n, ok := m.suffixAt(run, j); ok && j-n+1 > i {
				end, cat = j, c
				break
			}
		}
		if end < 0 {
			if p, ok := m.person(field, text, run[i:]); ok {
				out = append(out, p)
			}
			break
		}
		if mention, ok := m.organisation(field, text, run[i:end+1], cat); ok {
			out = append(out, mention)
		}
		i = end + 1
	}
	return out
}

// suffixAt returns the first configured suffix whose tokens end at run[j].
func (m *Matcher) suffixAt(run []token, j int) (entity.Category, int, bool) {
	for _, s := range m.suffixes {
		n := len(s.tokens)
		if j-n+1 < 0 {
			continue
		}
		ok := true
		for k := 0; k < n; k++ {
			if run[j-n+1+k].lower != s.tokens[k] {
				ok = false
				break
			}
		}
		if ok {
			return s.category, n, true
		}
	}
	return "", 0, false
}

func (m *Matcher) organisation(field, text string, toks []token, cat entity.Category) (Mention, bool) {
	// A company name that names itself a bank or insurer is classified as such.
	if cat == entity.CategoryCompany {
		for _, t := range toks {
			switch t.lower {
			case "bank":
				cat = entity.CategoryBank
			case "insurance", "assurance":
				cat = entity.CategoryInsurance
			}
		}
	}
	return m.mention(field, text, toks, cat)
}

func (m *Matcher) person(field, text string, toks []token) (Mention, bool) {
	if len(toks) < minPersonTokens || len(toks) > maxPersonTokens {
		return Mention{}, false
	}
	for _, t := range toks {
		if m.orgTokens[t.lower] || connectors[t.lower] || !t.capitalised() {
			return Mention{}, false
		}
	}
	// Two initials are not a name.
	words := 0
	for _, t := range toks {
		if !t.isInitial() {
			words++
		}
	}
	if words < minPersonTokens {
		return Mention{}, false
	}
	return m.mention(field, text, toks, entity.CategoryPerson)
}

func (m *Matcher) mention(field, text string, toks []token, cat entity.Category) (Mention, bool) {
	if !m.enabled[cat] {
		return Mention{}, false
	}
	start, end := toks[0].start, toks[len(toks)-1].end
	// keep a closing parenthesis that belongs to the name, e.g. "(Ghana)"
	if end < len(text) && text[end] == ')' && strings.Contains(text[start:end], "(") {
		end++
	}
	surface := entity.CleanSurface(text[start:end])
	key := entity.NormalizeKey(surface)
	if len([]rune(surface)) < m.minLen || key == "" || m.blacklisted(key, cat == entity.CategoryPerson) {
		return Mention{}, false
	}
	return Mention{Category: cat, Surface: surface, Key: key, Field: field, Start: start, End: end}, true
}

// blacklisted reports whether key is a blacklisted phrase.  Person keys are
// also rejected when they contain one as whole words, so "Republic Kwame
// Mensah" is dropped while "Barclays Bank of Ghana" is kept.
func (m *Matcher) blacklisted(key string, contains bool) bool {
	padded := " " + key + " "
	for _, b := range m.blacklist {
		if key == b || (contains && strings.Contains(padded, " "+b+" ")) {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
