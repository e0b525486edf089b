package entity

import (
	"strings"

	"github.com/turtacn/CaseIntel/pkg/errors"
)

// Category identifies the kind of legal entity.
type Category string

const (
	CategoryPerson    Category = "person"
	CategoryBank      Category = "bank"
	CategoryInsurance Category = "insurance"
	CategoryCompany   Category = "company"
)

// AllCategories lists every category in extraction order.  Banks and insurers
// are resolved before companies so that a generic "Limited" suffix never wins
// over a more specific one.
var AllCategories = []Category{CategoryBank, CategoryInsurance, CategoryCompany, CategoryPerson}

// ParseCategory accepts the canonical names plus a few common spellings.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "person", "people", "persons":
		return CategoryPerson, nil
	case "bank", "banks":
		return CategoryBank, nil
	case "insurance", "insurance_company", "insurer", "insurers":
		return CategoryInsurance, nil
	case "company", "companies":
		return CategoryCompany, nil
	}
	return "", errors.New(errors.ErrCodeCategoryUnsupported, "unsupported entity category").WithDetail(s)
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryPerson, CategoryBank, CategoryInsurance, CategoryCompany:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

// Attribute keys by category.
const (
	AttrOccupation = "occupation"
	AttrCity       = "city"
	AttrBankType   = "bank_type"
	AttrCountry    = "country"
)

//Personal.AI order the ending
