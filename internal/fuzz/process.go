// Package fuzz: string similarity signals on a 0..100 scale and the hybrid place-name scorer
//
// Background: the signals follow the fuzzywuzzy conventions (difflib SequenceMatcher backend) so that
// ranking stays comparable with the original tuning: code point based lengths, half-even rounding.
// Constraint: every function is pure; nothing here holds state between calls.
package fuzz

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

// FullProcess: normalises a string before token based comparison
// Non word characters become spaces, the result is lowercased and trimmed. With forceASCII the
// Latin-1 range U+0080..U+00FF is dropped first (so "Pähkinä" compares as "phkin"); runes above it
// such as š or ŋ are kept.
func FullProcess(s string, forceASCII bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if forceASCII && r > unicode.MaxASCII && r <= unicode.MaxLatin1 {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(strings.ToLower(b.String()))
}

func symbols(rs []rune) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

// sequenceRatio is difflib's 2*M/T over code points; 1.0 when both sides are empty.
func sequenceRatio(a, b string) float64 {
	return difflib.NewMatcher(symbols([]rune(a)), symbols([]rune(b))).Ratio()
}

func intr(v float64) int { return int(math.RoundToEven(v)) }

func sortedTokens(s string) []string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return tokens
}
