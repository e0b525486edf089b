// Package entity models the legal entities (people, banks, insurers and
// companies) discovered in case text, together with the alias and
// normalisation rules that decide when two names denote the same entity.
package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/turtacn/CaseIntel/pkg/errors"
	"github.com/turtacn/CaseIntel/pkg/types/common"
)

// MaxNameLength bounds canonical names and aliases.
const MaxNameLength = 256

// Entity is a Person, Bank, InsuranceCompany or Company record.
type Entity struct {
	ID            string            `json:"id"`
	Category      Category          `json:"category"`
	CanonicalName string            `json:"canonical_name"`
	NormalizedKey string            `json:"normalized_key"`
	Aliases       AliasSet          `json:"aliases"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	Active        bool              `json:"active"`
	Verified      bool              `json:"verified"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewEntity creates an active, unverified entity named name.
func NewEntity(category Category, name string, now time.Time) (*Entity, error) {
	if !category.IsValid() {
		return nil, errors.New(errors.ErrCodeCategoryUnsupported, "unsupported entity category").WithDetail(string(category))
	}
	name = CleanSurface(name)
	key := NormalizeKey(name)
	if key == "" {
		return nil, errors.New(errors.ErrCodeEntityNameInvalid, "entity name is empty after normalisation").WithDetail(name)
	}
	if len(name) > MaxNameLength {
		return nil, errors.New(errors.ErrCodeEntityNameInvalid, "entity name too long").WithDetail(truncate(name, 32) + "...")
	}
	return &Entity{
		ID:            string(common.NewID()),
		Category:      category,
		CanonicalName: name,
		NormalizedKey: key,
		Attributes:    map[string]string{},
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Validate checks the structural invariants of e.
func (e *Entity) Validate() error {
	if e.ID == "" {
		return errors.NewValidation("entity id cannot be empty")
	}
	if !e.Category.IsValid() {
		return errors.NewValidation("invalid category: " + string(e.Category))
	}
	if e.CanonicalName == "" {
		return errors.NewValidation("canonical name cannot be empty")
	}
	if e.NormalizedKey != NormalizeKey(e.CanonicalName) {
		return errors.Invariant("normalized key %q does not match canonical name %q", e.NormalizedKey, e.CanonicalName)
	}
	return nil
}

// Names returns the canonical name followed by the aliases.
func (e *Entity) Names() []string {
	return append([]string{e.CanonicalName}, e.Aliases.Values()...)
}

// AddAlias records a new surface variant.  It returns false when the variant
// equals the canonical name or an existing alias, ignoring case.
func (e *Entity) AddAlias(name string, now time.Time) bool {
	name = CleanSurface(name)
	if name == "" || strings.EqualFold(name, e.CanonicalName) {
		return false
	}
	if !e.Aliases.Add(name) {
		return false
	}
	e.UpdatedAt = now
	return true
}

// SetAttribute sets k=v if v is non-empty and k is not already set.
func (e *Entity) SetAttribute(k, v string) bool {
	if v == "" {
		return false
	}
	if e.Attributes == nil {
		e.Attributes = map[string]string{}
	}
	if _, ok := e.Attributes[k]; ok {
		return false
	}
	e.Attributes[k] = v
	return true
}

// Clone returns a deep copy of e.
func (e *Entity) Clone() *Entity {
	c := *e
	c.Aliases = NewAliasSet(e.Aliases.Values()...)
	if e.Attributes != nil {
		c.Attributes = make(map[string]string, len(e.Attributes))
		for k, v := range e.Attributes {
			c.Attributes[k] = v
		}
	}
	return &c
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

//Personal.AI order the ending
