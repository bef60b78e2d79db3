package search

import (
	"place-search/internal/fuzz"
	"place-search/internal/gazetteer"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultCandidateLimit bounds how many top scored candidates fuzzy matching keeps per column before the
// threshold applies.
const DefaultCandidateLimit = 100

// Projector turns a grid coordinate into (lon, lat); nil values mean unavailable.
type Projector interface {
	Project(x, y float64) (lon, lat *float64)
}

// Matcher runs the individual strategies against one table view.
type Matcher struct {
	projector Projector
	languages map[string]string
	limit     int
	scorer    fuzz.Scorer
}

// MatcherOption customises a Matcher.
type MatcherOption func(*Matcher)

// WithCandidateLimit sets the fuzzy candidate cap; n <= 0 removes the cap.
func WithCandidateLimit(n int) MatcherOption { return func(m *Matcher) { m.limit = n } }

// WithLanguages sets the column → language tag mapping.
func WithLanguages(tags map[string]string) MatcherOption {
	return func(m *Matcher) {
		m.languages = make(map[string]string, len(tags))
		for k, v := range tags {
			m.languages[k] = v
		}
	}
}

// WithScorer replaces the fuzzy scorer.
func WithScorer(s fuzz.Scorer) MatcherOption { return func(m *Matcher) { m.scorer = s } }

// DefaultLanguages tags the Finnish and Swedish name columns.
var DefaultLanguages = map[string]string{
	"nimi_suomi":  "suomi",
	"nimi_ruotsi": "ruotsi",
}

func NewMatcher(p Projector, opts ...MatcherOption) *Matcher {
	m := &Matcher{projector: p, languages: DefaultLanguages, limit: DefaultCandidateLimit, scorer: fuzz.HybridScore}
	for _, o := range opts {
		o(m)
	}
	return m
}

// FuzzyMatch: rows of column scoring at least threshold against query, best first
// Query and candidates go through fuzz.FullProcess before scoring. Candidates are ranked by score
// (ties keep table order), cut to the candidate limit, then filtered by threshold.
// An unknown column gives an empty result.
func (m *Matcher) FuzzyMatch(t *gazetteer.Table, column, query string, threshold float64) []MatchResult {
	out := []MatchResult{}
	if t == nil || !t.HasColumn(column) {
		return out
	}
	type candidate struct {
		rec   gazetteer.Record
		name  string
		score float64
	}
	q := fuzz.FullProcess(query, false)
	var cands []candidate
	for _, rec := range t.Records() {
		v, ok := rec.Value(column)
		if !ok {
			continue
		}
		cands = append(cands, candidate{rec: rec, name: v, score: m.scorer(q, fuzz.FullProcess(v, false))})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	if m.limit > 0 && len(cands) > m.limit {
		cands = cands[:m.limit]
	}
	for _, c := range cands {
		if c.score < threshold {
			break
		}
		r := m.result(c.rec, column, c.name)
		s := round1(c.score)
		r.Score = &s
		out = append(out, r)
	}
	return out
}

// PrefixMatch: rows whose lowercased column value starts with the lowercased query, in table order
// Precondition: query is non-empty.
func (m *Matcher) PrefixMatch(t *gazetteer.Table, column, query string) []MatchResult {
	return m.scan(t, column, query, strings.HasPrefix)
}

// SubstringMatch: rows whose lowercased column value contains the lowercased query, in table order
// Precondition: query is non-empty.
func (m *Matcher) SubstringMatch(t *gazetteer.Table, column, query string) []MatchResult {
	return m.scan(t, column, query, strings.Contains)
}

func (m *Matcher) scan(t *gazetteer.Table, column, query string, match func(s, sub string) bool) []MatchResult {
	out := []MatchResult{}
	if t == nil || !t.HasColumn(column) {
		return out
	}
	// a Caser keeps state and is not shared between goroutines
	lower := cases.Lower(language.Und)
	q := lower.String(query)
	for _, rec := range t.Records() {
		v, ok := rec.Value(column)
		if !ok {
			continue
		}
		if match(lower.String(v), q) {
			out = append(out, m.result(rec, column, v))
		}
	}
	return out
}

// result resolves municipality and coordinates from rec itself, never from a position in a view.
func (m *Matcher) result(rec gazetteer.Record, column, name string) MatchResult {
	r := MatchResult{
		Row:          rec.Row,
		Name:         name,
		Municipality: rec.Municipality,
		Language:     m.languages[column],
		Column:       column,
	}
	if m.projector != nil {
		r.Lon, r.Lat = m.projector.Project(rec.X, rec.Y)
	}
	return r
}

// round1 rounds to one decimal on the exact binary value with ties to even, as Python's round(v, 1).
func round1(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	return r
}
