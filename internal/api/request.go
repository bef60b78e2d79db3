package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"place-search/internal/search"
	"strconv"
	"strings"
)

const maxBodyBytes = 1 << 20

// jsonSearch is the JSON form of a search request.
type jsonSearch struct {
	Query          string   `json:"query"`
	Methods        []string `json:"methods"`
	Columns        []string `json:"columns"`
	Municipalities []string `json:"municipalities"`
	Threshold      *float64 `json:"threshold"`
	ShowMap        bool     `json:"show_map"`
}

// badRequest is a decoding failure reported to the client as 400.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

// decodeSearch: builds a search.Request from a form post or a JSON body
// Form fields: search_query, search_method*, search_column*, kunta*, threshold, show_map=on.
// A missing or empty threshold takes defThreshold.
func decodeSearch(r *http.Request, defThreshold float64) (search.Request, bool, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("content-type"))
	if ct == "application/json" {
		return decodeJSON(r, defThreshold)
	}
	return decodeForm(r, defThreshold)
}

func decodeJSON(r *http.Request, defThreshold float64) (search.Request, bool, error) {
	var in jsonSearch
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		return search.Request{}, false, &badRequest{msg: "invalid json body"}
	}
	strategies, err := parseStrategies(in.Methods)
	if err != nil {
		return search.Request{}, false, err
	}
	th := defThreshold
	if in.Threshold != nil {
		th = *in.Threshold
	}
	return search.Request{
		Query:          in.Query,
		Columns:        in.Columns,
		Strategies:     strategies,
		Municipalities: in.Municipalities,
		Threshold:      th,
	}, in.ShowMap, nil
}

func decodeForm(r *http.Request, defThreshold float64) (search.Request, bool, error) {
	if err := r.ParseForm(); err != nil {
		return search.Request{}, false, &badRequest{msg: "invalid form body"}
	}
	f := r.Form
	strategies, err := parseStrategies(f["search_method"])
	if err != nil {
		return search.Request{}, false, err
	}
	th := defThreshold
	if s := strings.TrimSpace(f.Get("threshold")); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return search.Request{}, false, &badRequest{msg: fmt.Sprintf("invalid threshold: %q", s)}
		}
		th = v
	}
	return search.Request{
		Query:          f.Get("search_query"),
		Columns:        f["search_column"],
		Strategies:     strategies,
		Municipalities: nonEmpty(f["kunta"]),
		Threshold:      th,
	}, f.Get("show_map") == "on", nil
}

func parseStrategies(names []string) ([]search.Strategy, error) {
	var out []search.Strategy
	for _, n := range names {
		s, err := search.ParseStrategy(n)
		if err != nil {
			return nil, &badRequest{msg: err.Error()}
		}
		out = append(out, s)
	}
	return out, nil
}

func nonEmpty(vs []string) []string {
	var out []string
	for _, v := range vs {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
