package entity

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// legalSuffixTokens are dropped from the end of a normalised name.
var legalSuffixTokens = map[string]bool{
	"limited":      true,
	"ltd":          true,
	"plc":          true,
	"company":      true,
	"co":           true,
	"incorporated": true,
	"inc":          true,
}

// NormalizeKey maps a surface name to the key used for identity:
//
//  1. Unicode NFC, then case folding.
//  2. "&" becomes "and".
//  3. Apostrophes are removed; other punctuation and symbols become spaces.
//  4. Whitespace is collapsed.
//  5. Trailing legal suffix tokens (limited, ltd, plc, company, co,
//     incorporated, inc) are dropped while at least one token remains.
//
// "Access Bank (Ghana) Limited" and "ACCESS BANK GHANA LTD." both map to
// "access bank ghana".
func NormalizeKey(name string) string {
	// A Caser is stateful, so one is built per call.
	s := cases.Fold().String(norm.NFC.String(name))
	s = strings.ReplaceAll(s, "&", " and ")

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\'' || r == '’' || r == '`':
			// dropped: "Barclay's" -> "barclays"
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}

	tokens := strings.Fields(sb.String())
	for len(tokens) > 1 && legalSuffixTokens[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// CleanSurface trims a surface form and collapses inner whitespace without
// changing case or punctuation.  Aliases are stored in this form.
func CleanSurface(name string) string {
	return strings.Join(strings.Fields(norm.NFC.String(name)), " ")
}

//Personal.AI order the ending
