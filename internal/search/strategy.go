// Package search: fuzzy, prefix and substring matching over the gazetteer table
package search

import (
	"fmt"
	"strings"
)

// Strategy selects a matching method.
type Strategy int

const (
	Fuzzy Strategy = iota
	Prefix
	Substring
)

// Strategies lists every strategy in execution order.
var Strategies = []Strategy{Fuzzy, Prefix, Substring}

// display names used by the search form and as result keys
var strategyNames = map[Strategy]string{
	Fuzzy:     "Sumea",
	Prefix:    "Alkaa merkkijonolla",
	Substring: "Sisältää merkkijonon",
}

var strategyAliases = map[string]Strategy{
	"fuzzy":      Fuzzy,
	"prefix":     Prefix,
	"startswith": Prefix,
	"substring":  Substring,
	"contains":   Substring,
}

func (s Strategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy accepts a display name or an English alias (case-insensitive).
func ParseStrategy(name string) (Strategy, error) {
	name = strings.TrimSpace(name)
	for s, n := range strategyNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	if s, ok := strategyAliases[strings.ToLower(name)]; ok {
		return s, nil
	}
	return 0, fmt.Errorf("unknown search method: %q", name)
}
