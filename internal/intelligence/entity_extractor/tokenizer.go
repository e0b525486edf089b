package entity_extractor

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// token is one whitespace-delimited word with its surrounding punctuation
// removed.  start/end are byte offsets of the core word in the field text.
type token struct {
	text  string // core word as written, e.g. "Co", "Ghana", "Date-Bah"
	lower string // lower-cased core word
	start int
	end   int

	// endWithDot is true when the core word was followed by a period.
	endWithDot bool
	// breakAfter is true when punctuation after the word ends a name run.
	breakAfter bool
	// breakBefore is true when punctuation before the word starts a new run.
	breakBefore bool
}

// capitalised reports whether the word starts with an upper-case letter.
func (t token) capitalised() bool {
	r, _ := utf8.DecodeRuneInString(t.text)
	return unicode.IsUpper(r)
}

func (t token) isWord() bool {
	for _, r := range t.text {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return t.text == "&"
}

// isInitial reports whether the token is a single capital letter, as in "K.".
func (t token) isInitial() bool {
	return utf8.RuneCountInString(t.text) == 1 && t.capitalised()
}

// leading and trailing punctuation handled by tokenise.
const (
	openers    = "(\"'[“‘"
	closers    = ")\"']”’"
	runBreaks  = ",;:!?"
	allTrimmed = openers + closers + runBreaks + "."
)

// tokenise splits text into tokens.  Parentheses and quotes are trimmed
// without breaking a run; commas, semicolons, colons and sentence periods
// break it.  Whether a trailing period is a sentence end is decided later by
// the matcher, since it depends on the abbreviation list.
func tokenise(text string) []token {
	var out []token
	i := 0
	for i < len(text) {
		// skip whitespace
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}
		j := i
		for j < len(text) {
			r, size = utf8.DecodeRuneInString(text[j:])
			if unicode.IsSpace(r) {
				break
			}
			j += size
		}
		chunk := text[i:j]
		coreStart := i + len(chunk) - len(strings.TrimLeft(chunk, allTrimmed))
		core := strings.TrimRight(text[coreStart:j], allTrimmed)
		coreEnd := coreStart + len(core)
		if core != "" {
			lead := text[i:coreStart]
			trail := text[coreEnd:j]
			t := token{
				text:        core,
				lower:       strings.ToLower(core),
				start:       coreStart,
				end:         coreEnd,
				endWithDot:  strings.HasPrefix(trail, "."),
				breakAfter:  strings.ContainsAny(trail, runBreaks),
				breakBefore: strings.ContainsAny(lead, runBreaks),
			}
			out = append(out, t)
		}
		i = j
	}
	return out
}

//Personal.AI order the ending
