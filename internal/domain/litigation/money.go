package litigation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/turtacn/CaseIntel/pkg/errors"
)

var (
	// currencyPrefix strips a leading currency marker: GH¢, GHC, GHS, ¢, $,
	// USD, £, €, NGN, N.
	currencyPrefix = regexp.MustCompile(`(?i)^\s*(gh\s*¢|gh¢|ghc|ghs|cedis?|usd|us\$|ngn|¢|\$|£|€)\s*`)
	amountPattern  = regexp.MustCompile(`(?i)^([0-9][0-9,]*(?:\.[0-9]+)?)\s*(k|thousand|m|mn|million|bn|b|billion)?\s*(cedis?|ghs|ghc|dollars?)?\.?$`)
)

// MaxAmount is the largest single amount accepted; monetary columns are
// NUMERIC(20,2).
const MaxAmount = 1e17

var multipliers = map[string]float64{
	"":         1,
	"k":        1e3,
	"thousand": 1e3,
	"m":        1e6,
	"mn":       1e6,
	"million":  1e6,
	"b":        1e9,
	"bn":       1e9,
	"billion":  1e9,
}

// ParseAmount parses a monetary field such as "GH¢ 1,250,000.00",
// "GHS 50,000" or "$2.5m".  A blank field yields ok=false and no error; any
// other unparseable value, or one above MaxAmount, is an
// ErrCodeUnparseableAmount error.  The currency is discarded.
func ParseAmount(raw string) (amount float64, ok bool, err error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" || strings.EqualFold(s, "n/a") || strings.EqualFold(s, "nil") {
		return 0, false, nil
	}
	s = currencyPrefix.ReplaceAllString(s, "")
	m := amountPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false, errors.New(errors.ErrCodeUnparseableAmount, "unparseable monetary amount").WithDetail(raw)
	}
	n, perr := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if perr != nil {
		return 0, false, errors.Wrap(perr, errors.ErrCodeUnparseableAmount, "unparseable monetary amount").WithDetail(raw)
	}
	amount = n * multipliers[strings.ToLower(m[2])]
	if amount > MaxAmount {
		return 0, false, errors.New(errors.ErrCodeUnparseableAmount, "monetary amount out of range").WithDetail(raw)
	}
	return amount, true, nil
}

// Amount returns the monetary value of c: the award when present, otherwise
// the claim.
func (c *CaseRecord) Amount() (float64, bool, error) {
	if strings.TrimSpace(c.AwardAmount) != "" {
		return ParseAmount(c.AwardAmount)
	}
	return ParseAmount(c.ClaimAmount)
}

//Personal.AI order the ending
