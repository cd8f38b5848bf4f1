// Package codes parses option code lists out of free text and checks which
// codes a flattened document contains.
package codes

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// CodeLength is the fixed length of codes in WERS and VOCI lists
const CodeLength = 5

var listCode = regexp.MustCompile(fmt.Sprintf(`[A-Z0-9]{%d}`, CodeLength))

// Set is an unordered collection of codes
type Set map[string]struct{}

// NewSet builds a set from codes, dropping duplicates
func NewSet(codes ...string) Set {
	s := make(Set, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether code is in the set. A nil set is empty.
func (s Set) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Sorted returns the codes in lexical order
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Parse returns every non-overlapping run of five upper-case letters or
// digits in text, in order and with duplicates kept. Separators are
// irrelevant: newline, comma and space separated lists all parse, and a
// longer token yields its leading five characters.
func Parse(text string) []string {
	return listCode.FindAllString(text, -1)
}

// Match returns the candidates that occur in text. The test is a
// case-sensitive substring check, so a code also matches inside a longer
// token.
func Match(text string, candidates []string) Set {
	found := make(Set)
	for c := range NewSet(candidates...) {
		if c != "" && strings.Contains(text, c) {
			found[c] = struct{}{}
		}
	}
	return found
}
