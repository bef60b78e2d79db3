package fuzz

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Empty string convention shared by every signal:
// identical inputs (both empty included) score 100; otherwise an input that is empty, or becomes
// empty after the signal's own pre-processing, scores 0.

// Ratio: whole string similarity
func Ratio(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}
	if s1 == "" || s2 == "" {
		return 0
	}
	return intr(100 * sequenceRatio(s1, s2))
}

// PartialRatio: best match of the shorter string against an equally long window of the longer one
// Windows are anchored on the matching blocks of the two strings; a near-exact window short-circuits.
func PartialRatio(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}
	if s1 == "" || s2 == "" {
		return 0
	}
	shorter, longer := []rune(s1), []rune(s2)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	short := symbols(shorter)
	long := symbols(longer)
	m := difflib.NewMatcher(short, long)
	best := 0.0
	for _, blk := range m.GetMatchingBlocks() {
		start := blk.B - blk.A
		if start < 0 {
			start = 0
		}
		end := start + len(short)
		if end > len(long) {
			end = len(long)
		}
		r := difflib.NewMatcher(short, long[start:end]).Ratio()
		if r > 0.995 {
			return 100
		}
		if r > best {
			best = r
		}
	}
	return intr(100 * best)
}

func processAndSort(s string, forceASCII, process bool) string {
	if process {
		s = FullProcess(s, forceASCII)
	}
	return strings.TrimSpace(strings.Join(sortedTokens(s), " "))
}

func tokenSort(s1, s2 string, partial, forceASCII, process bool) int {
	a := processAndSort(s1, forceASCII, process)
	b := processAndSort(s2, forceASCII, process)
	if partial {
		return PartialRatio(a, b)
	}
	return Ratio(a, b)
}

func tokenSet(s1, s2 string, partial, forceASCII, process bool) int {
	if s1 == s2 {
		return 100
	}
	p1, p2 := s1, s2
	if process {
		p1 = FullProcess(s1, forceASCII)
		p2 = FullProcess(s2, forceASCII)
	}
	if p1 == "" || p2 == "" {
		return 0
	}
	t1 := tokenSetOf(p1)
	t2 := tokenSetOf(p2)
	var sect, only1, only2 []string
	for tok := range t1 {
		if _, ok := t2[tok]; ok {
			sect = append(sect, tok)
		} else {
			only1 = append(only1, tok)
		}
	}
	for tok := range t2 {
		if _, ok := t1[tok]; !ok {
			only2 = append(only2, tok)
		}
	}
	sorted := func(ts []string) string { return strings.Join(sortedTokens(strings.Join(ts, " ")), " ") }
	base := sorted(sect)
	combined1 := strings.TrimSpace(base + " " + sorted(only1))
	combined2 := strings.TrimSpace(base + " " + sorted(only2))
	base = strings.TrimSpace(base)

	score := Ratio
	if partial {
		score = PartialRatio
	}
	return max(score(base, combined1), score(base, combined2), score(combined1, combined2))
}

func tokenSetOf(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		out[tok] = struct{}{}
	}
	return out
}

// TokenSortRatio: Ratio over the alphabetically sorted tokens of both strings.
func TokenSortRatio(s1, s2 string) int { return tokenSort(s1, s2, false, true, true) }

// TokenSetRatio: order and duplicate insensitive token overlap
// The shared tokens are compared against each side's "shared + remainder" string, so extra or missing
// words cost little.
func TokenSetRatio(s1, s2 string) int { return tokenSet(s1, s2, false, true, true) }

// PartialTokenSetRatio is TokenSetRatio scored with PartialRatio.
func PartialTokenSetRatio(s1, s2 string) int { return tokenSet(s1, s2, true, true, true) }

const (
	unbaseScale        = 0.95
	partialScale       = 0.90
	farPartialScale    = 0.6
	partialLengthRatio = 1.5
	farPartialLenRatio = 8
)

// WRatio: weighted composite of the other signals
// Strings of similar length are compared whole and token wise; once one side is 1.5x longer the
// partial variants take over, scaled down further when the lengths differ by more than 8x.
func WRatio(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}
	p1 := FullProcess(s1, true)
	p2 := FullProcess(s2, true)
	if p1 == "" || p2 == "" {
		return 0
	}
	l1, l2 := float64(len([]rune(p1))), float64(len([]rune(p2)))
	lenRatio := max(l1, l2) / min(l1, l2)

	base := float64(Ratio(p1, p2))
	if lenRatio < partialLengthRatio {
		tsor := float64(tokenSort(p1, p2, false, true, false)) * unbaseScale
		tser := float64(tokenSet(p1, p2, false, true, false)) * unbaseScale
		return intr(max(base, tsor, tser))
	}
	scale := partialScale
	if lenRatio > farPartialLenRatio {
		scale = farPartialScale
	}
	partial := float64(PartialRatio(p1, p2)) * scale
	ptsor := float64(tokenSort(p1, p2, true, true, false)) * unbaseScale * scale
	ptser := float64(tokenSet(p1, p2, true, true, false)) * unbaseScale * scale
	return intr(max(base, partial, ptsor, ptser))
}
