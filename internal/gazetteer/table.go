// Package gazetteer: read-only in-memory place-name table
// Background: the table is loaded once at start and shared by every request without locking.
// Constraint: nothing mutates a Table or its Records after construction; Filter builds a new view.
package gazetteer

import (
	"math"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Roles names the columns with a fixed meaning in the source.
type Roles struct {
	Municipality string
	X            string
	Y            string
}

// DefaultRoles matches the Helsinki/Vantaa place-name export.
var DefaultRoles = Roles{Municipality: "kunta", X: "x", Y: "y"}

// Record is one gazetteer row.
// Row is the position in the originally loaded table and stays the record's identity in every
// filtered view; per-row lookups must go through the Record, never through a view position.
type Record struct {
	Row          int
	Fields       map[string]string // non-null cells by column name
	Municipality string
	X            float64 // NaN when absent
	Y            float64 // NaN when absent
}

// NewRecord resolves the role columns of fields; fields holds non-null cells only.
func NewRecord(row int, fields map[string]string, roles Roles) Record {
	return Record{
		Row:          row,
		Fields:       fields,
		Municipality: fields[roles.Municipality],
		X:            parseCoord(fields[roles.X]),
		Y:            parseCoord(fields[roles.Y]),
	}
}

// Value returns the cell of column; ok is false for a null cell.
func (r Record) Value(column string) (string, bool) {
	v, ok := r.Fields[column]
	return v, ok
}

// HasCoords reports whether both grid coordinates are present.
func (r Record) HasCoords() bool { return !math.IsNaN(r.X) && !math.IsNaN(r.Y) }

// Table is an ordered, immutable set of Records with the source schema.
type Table struct {
	columns []string
	known   map[string]struct{}
	roles   Roles
	records []Record
}

// NewTable: builds a table; records are used as given (Row must already be set)
func NewTable(columns []string, roles Roles, records []Record) *Table {
	known := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		known[c] = struct{}{}
	}
	return &Table{columns: append([]string(nil), columns...), known: known, roles: roles, records: records}
}

// Columns returns the schema in source order.
func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

// HasColumn reports whether name is part of the schema.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.known[name]
	return ok
}

func (t *Table) Roles() Roles { return t.roles }

func (t *Table) Len() int { return len(t.records) }

// Records exposes the rows in table order. Callers must treat the slice and the Fields maps as read-only.
func (t *Table) Records() []Record { return t.records }

// Filter: view restricted to the given municipalities; empty means the table itself
// Records keep their original Row.
func (t *Table) Filter(municipalities []string) *Table {
	if len(municipalities) == 0 {
		return t
	}
	want := make(map[string]struct{}, len(municipalities))
	for _, m := range municipalities {
		want[m] = struct{}{}
	}
	var out []Record
	for _, r := range t.records {
		if _, ok := want[r.Municipality]; ok {
			out = append(out, r)
		}
	}
	return &Table{columns: t.columns, known: t.known, roles: t.roles, records: out}
}

// Municipalities: distinct non-empty municipality values in Finnish collation order
func (t *Table) Municipalities() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.records {
		if r.Municipality == "" {
			continue
		}
		if _, ok := seen[r.Municipality]; ok {
			continue
		}
		seen[r.Municipality] = struct{}{}
		out = append(out, r.Municipality)
	}
	// a Collator is not safe for concurrent use
	collate.New(language.Finnish).SortStrings(out)
	return out
}
