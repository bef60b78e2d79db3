package search

import (
	"bytes"
	"encoding/json"
)

// MatchResult is one matching gazetteer row.
type MatchResult struct {
	Row          int      `json:"row"`
	Name         string   `json:"name"`
	Municipality string   `json:"municipality"`
	Score        *float64 `json:"score,omitempty"` // fuzzy only
	Language     string   `json:"language,omitempty"`
	Lon          *float64 `json:"lon"`
	Lat          *float64 `json:"lat"`
	Column       string   `json:"column"`
}

// Group holds the results of one strategy across all searched columns.
type Group struct {
	Strategy Strategy
	Results  []MatchResult
}

// ResultSet: results keyed by strategy, in execution order
// Constraint: encodes as a JSON object whose keys keep the group order.
type ResultSet struct {
	Groups []Group
}

// Get returns the results of s, nil when s was not requested.
func (rs *ResultSet) Get(s Strategy) []MatchResult {
	for _, g := range rs.Groups {
		if g.Strategy == s {
			return g.Results
		}
	}
	return nil
}

// Total counts results over all groups.
func (rs *ResultSet) Total() int {
	n := 0
	for _, g := range rs.Groups {
		n += len(g.Results)
	}
	return n
}

func (rs *ResultSet) group(s Strategy) *Group {
	for i := range rs.Groups {
		if rs.Groups[i].Strategy == s {
			return &rs.Groups[i]
		}
	}
	rs.Groups = append(rs.Groups, Group{Strategy: s, Results: []MatchResult{}})
	return &rs.Groups[len(rs.Groups)-1]
}

func (rs ResultSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range rs.Groups {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(g.Strategy.String())
		if err != nil {
			return nil, err
		}
		results := g.Results
		if results == nil {
			results = []MatchResult{}
		}
		v, err := json.Marshal(results)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
