package entity

import (
	"encoding/json"
	"strings"
)

// AliasSet is an ordered set of alternate names.  Order is discovery order;
// membership and equality are case-insensitive.
type AliasSet struct {
	items []string
}

// NewAliasSet builds a set from names, skipping blanks and duplicates.
func NewAliasSet(names ...string) AliasSet {
	var s AliasSet
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add appends name unless it is blank or already present.  It reports whether
// the set changed.
func (s *AliasSet) Add(name string) bool {
	name = CleanSurface(name)
	if name == "" || s.Contains(name) {
		return false
	}
	s.items = append(s.items, name)
	return true
}

// Contains reports whether name is in the set, ignoring case.
func (s AliasSet) Contains(name string) bool {
	name = CleanSurface(name)
	for _, it := range s.items {
		if strings.EqualFold(it, name) {
			return true
		}
	}
	return false
}

// Values returns a copy of the aliases in discovery order.
func (s AliasSet) Values() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of aliases.
func (s AliasSet) Len() int { return len(s.items) }

// MarshalJSON encodes the set as a JSON array.
func (s AliasSet) MarshalJSON() ([]byte, error) {
	if s.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.items)
}

// UnmarshalJSON decodes a JSON array, dropping duplicates.
func (s *AliasSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = NewAliasSet(names...)
	return nil
}

//Personal.AI order the ending
