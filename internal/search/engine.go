package search

import (
	"context"
	"errors"
	"fmt"
	"place-search/internal/gazetteer"
	"strings"
)

// DefaultThreshold is the fuzzy score cut-off used when a request does not give one.
const DefaultThreshold = 80.0

// ValidationError reports a request the caller has to fix; no strategy has run.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Request is one search as received from the caller.
type Request struct {
	Query          string
	Columns        []string
	Strategies     []Strategy
	Municipalities []string // empty: no region filter
	Threshold      float64
}

// Engine: request validation, region filter and strategy dispatch over one immutable table
// Constraint: holds no per-request state; one Engine serves all requests concurrently.
type Engine struct {
	table   *gazetteer.Table
	matcher *Matcher
	columns []string
}

// NewEngine builds the engine. columns lists the name columns offered for searching; when empty every
// schema column is offered.
func NewEngine(t *gazetteer.Table, m *Matcher, columns []string) *Engine {
	if len(columns) == 0 {
		columns = t.Columns()
	}
	return &Engine{table: t, matcher: m, columns: append([]string(nil), columns...)}
}

func (e *Engine) Table() *gazetteer.Table { return e.table }

// Columns returns the searchable name columns.
func (e *Engine) Columns() []string { return append([]string(nil), e.columns...) }

// Municipalities returns the distinct municipalities available for the region filter.
func (e *Engine) Municipalities() []string { return e.table.Municipalities() }

// Validate checks req against the table schema.
func (e *Engine) Validate(req Request) error {
	if strings.TrimSpace(req.Query) == "" {
		return &ValidationError{Msg: "search query cannot be empty"}
	}
	if len(req.Columns) == 0 {
		return &ValidationError{Msg: "no search columns selected"}
	}
	if len(req.Strategies) == 0 {
		return &ValidationError{Msg: "no search methods selected"}
	}
	var invalid []string
	for _, c := range req.Columns {
		if !e.table.HasColumn(c) {
			invalid = append(invalid, c)
		}
	}
	if len(invalid) > 0 {
		return &ValidationError{Msg: "invalid column(s): " + strings.Join(invalid, ", ")}
	}
	for _, s := range req.Strategies {
		if _, ok := strategyNames[s]; !ok {
			return &ValidationError{Msg: fmt.Sprintf("invalid search method: %d", int(s))}
		}
	}
	if req.Threshold < 0 || req.Threshold > 100 {
		return &ValidationError{Msg: fmt.Sprintf("threshold must be between 0 and 100, got %g", req.Threshold)}
	}
	return nil
}

// Search: validates req, then runs each requested strategy over each requested column
// Groups follow strategy execution order (Fuzzy, Prefix, Substring); inside a group results follow the
// column order of the request, then the strategy's own ordering. A failure inside a strategy is
// returned as an error instead of crashing the caller.
func (e *Engine) Search(ctx context.Context, req Request) (rs *ResultSet, err error) {
	if err := e.Validate(req); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			rs, err = nil, fmt.Errorf("search: internal failure: %v", r)
		}
	}()

	want := make(map[Strategy]bool, len(req.Strategies))
	for _, s := range req.Strategies {
		want[s] = true
	}
	view := e.table.Filter(req.Municipalities)
	rs = &ResultSet{}
	for _, s := range Strategies {
		if want[s] {
			rs.group(s)
		}
	}
	for _, col := range req.Columns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, s := range Strategies {
			if !want[s] {
				continue
			}
			g := rs.group(s)
			switch s {
			case Fuzzy:
				g.Results = append(g.Results, e.matcher.FuzzyMatch(view, col, req.Query, req.Threshold)...)
			case Prefix:
				g.Results = append(g.Results, e.matcher.PrefixMatch(view, col, req.Query)...)
			case Substring:
				g.Results = append(g.Results, e.matcher.SubstringMatch(view, col, req.Query)...)
			}
		}
	}
	return rs, nil
}
