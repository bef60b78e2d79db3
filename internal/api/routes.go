// Package api: HTTP routes of the place search service, mounted by cmd/main.go under API_BASE
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"place-search/internal/logger"
	"place-search/internal/metrics"
	"place-search/internal/nearby"
	"place-search/internal/search"
	"place-search/internal/store"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StatsStore is the part of store.Store the handlers use.
type StatsStore interface {
	IncrStats(ctx context.Context, empty bool) error
	RecordRecent(ctx context.Context, query string) error
	GetTotals(ctx context.Context) (*store.Totals, error)
	TopQueries(ctx context.Context, hours, limit int) ([]store.QueryCount, error)
}

// Locator approximates a visitor position from the client address.
type Locator interface {
	Locate(ip string) (lat, lon float64, ok bool)
}

// Deps: everything the routes need; only Engine is required
type Deps struct {
	Engine           *search.Engine
	DefaultThreshold float64
	Cache            ResultCache     // optional
	Stats            StatsStore      // optional
	Dedupe           Deduper         // optional, guards RecordRecent
	Nearby           *nearby.Service // optional
	Locator          Locator         // optional, /nearest without coordinates
	Logger           *slog.Logger
}

// statsTimeout bounds the best-effort statistics writes of one search.
const statsTimeout = 500 * time.Millisecond

// BuildRoutes returns the API router; paths are relative to the mount point.
// Constraint: request ids come from chi middleware.RequestID installed by the caller around the whole server.
func BuildRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logger.L()
	}
	h := &handlers{Deps: d}
	r := chi.NewRouter()
	r.Use(h.recoverJSON)

	r.Get("/healthz", h.healthz)
	r.Get("/options", h.options)
	r.Post("/search", h.search)
	r.Get("/stats", h.stats)
	r.Get("/nearest", h.nearest)
	r.Handle("/metrics", metrics.Handler())
	return r
}

type handlers struct {
	Deps
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// recoverJSON: a panicking handler answers 500 with the generic error body; the stack goes to the log
func (h *handlers) recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.Logger.Error("handler_panic", "path", r.URL.Path, "panic", rec, "stack", string(debug.Stack()), "req_id", middleware.GetReqID(r.Context()))
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("content-type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

type optionsResponse struct {
	Columns          []string `json:"columns"`
	Municipalities   []string `json:"municipalities"`
	Strategies       []string `json:"strategies"`
	DefaultThreshold float64  `json:"default_threshold"`
}

// options: the data the search form is rendered from
func (h *handlers) options(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(search.Strategies))
	for _, s := range search.Strategies {
		names = append(names, s.String())
	}
	writeJSON(w, http.StatusOK, optionsResponse{
		Columns:          h.Engine.Columns(),
		Municipalities:   h.Engine.Municipalities(),
		Strategies:       names,
		DefaultThreshold: h.DefaultThreshold,
	})
}

type searchResponse struct {
	Results json.RawMessage `json:"results"`
	ShowMap bool            `json:"show_map"`
}

// search: decode, validate, then serve from the cache or run the engine
// Constraint: cache and statistics failures are logged and never change the response.
func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	metrics.SearchRequestsTotal.Inc()
	defer func() { metrics.SearchDurationMs.Observe(float64(time.Since(start).Milliseconds())) }()
	ctx := r.Context()

	req, showMap, err := decodeSearch(r, h.DefaultThreshold)
	if err != nil {
		metrics.ValidationErrorsTotal.Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Engine.Validate(req); err != nil {
		metrics.ValidationErrorsTotal.Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := CacheKey(req)
	if h.Cache != nil {
		if b, ok := h.Cache.Get(ctx, key); ok {
			if counts, ok := groupCounts(b); ok {
				metrics.CacheHitsTotal.Inc()
				h.Logger.Debug("cache_hit", "key", key)
				h.observe(ctx, r, req.Query, counts)
				writeJSON(w, http.StatusOK, searchResponse{Results: b, ShowMap: showMap})
				return
			}
			h.Logger.Warn("cache_entry_invalid", "key", key)
		}
		metrics.CacheMissesTotal.Inc()
	}

	rs, err := h.Engine.Search(ctx, req)
	if err != nil {
		if search.IsValidation(err) {
			metrics.ValidationErrorsTotal.Inc()
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, context.Canceled) {
			h.Logger.Debug("search_canceled", "req_id", middleware.GetReqID(ctx))
			return
		}
		metrics.InternalErrorsTotal.Inc()
		h.Logger.Error("search_error", "err", err, "req_id", middleware.GetReqID(ctx))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	b, err := json.Marshal(rs)
	if err != nil {
		metrics.InternalErrorsTotal.Inc()
		h.Logger.Error("search_encode_error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	counts := make(map[string]int, len(rs.Groups))
	for _, g := range rs.Groups {
		counts[g.Strategy.String()] = len(g.Results)
	}
	if h.Cache != nil {
		h.Cache.Set(ctx, key, b)
	}
	h.observe(ctx, r, req.Query, counts)
	h.Logger.Debug("search_done", "query", req.Query, "results", rs.Total(), "duration_ms", time.Since(start).Milliseconds())
	writeJSON(w, http.StatusOK, searchResponse{Results: b, ShowMap: showMap})
}

// groupCounts reads the per-strategy result counts back from an encoded ResultSet.
func groupCounts(b []byte) (map[string]int, bool) {
	var groups map[string][]json.RawMessage
	if err := json.Unmarshal(b, &groups); err != nil || groups == nil {
		return nil, false
	}
	counts := make(map[string]int, len(groups))
	for name, results := range groups {
		counts[name] = len(results)
	}
	return counts, true
}

// observe: result metrics and statistics of one answered search, cached or not
func (h *handlers) observe(ctx context.Context, r *http.Request, query string, counts map[string]int) {
	total := 0
	for name, n := range counts {
		metrics.StrategyResultsTotal.WithLabelValues(name).Add(float64(n))
		total += n
	}
	if total == 0 {
		metrics.EmptyResultsTotal.Inc()
	}
	h.record(ctx, r, query, total == 0)
}

// record writes search statistics when a stats store is configured.
func (h *handlers) record(ctx context.Context, r *http.Request, query string, empty bool) {
	if h.Stats == nil {
		return
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statsTimeout)
	defer cancel()
	if err := h.Stats.IncrStats(sctx, empty); err != nil {
		h.Logger.Warn("stats_incr_error", "err", err)
	}
	if h.Dedupe != nil && !h.Dedupe.FirstSeen(sctx, []byte(visitorIP(r)+"\x00"+store.NormalizeQuery(query))) {
		return
	}
	if err := h.Stats.RecordRecent(sctx, query); err != nil {
		h.Logger.Warn("stats_recent_error", "err", err)
	}
}

type statsResponse struct {
	*store.Totals
	Top []store.QueryCount `json:"top"`
}

// stats: running counters plus the most searched queries of the last day; 404 without a stats store
func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	if h.Stats == nil {
		writeError(w, http.StatusNotFound, "statistics disabled")
		return
	}
	t, err := h.Stats.GetTotals(r.Context())
	if err != nil {
		h.Logger.Error("stats_error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	top, err := h.Stats.TopQueries(r.Context(), 24, 10)
	if err != nil {
		h.Logger.Warn("stats_top_error", "err", err)
		top = []store.QueryCount{}
	}
	writeJSON(w, http.StatusOK, statsResponse{Totals: t, Top: top})
}

type nearestResponse struct {
	Results []nearby.Hit `json:"results"`
	Origin  origin       `json:"origin"`
}

type origin struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Source string  `json:"source"` // query | geoip
}

// nearest: GET ?lat=&lon=[&k=][&radius_km=] → places closest to the point
// Without lat and lon the point is the visitor's GeoIP position when a Locator is configured.
func (h *handlers) nearest(w http.ResponseWriter, r *http.Request) {
	if h.Nearby == nil {
		writeError(w, http.StatusNotFound, "nearest lookup disabled")
		return
	}
	start := time.Now()
	metrics.NearestRequestsTotal.Inc()
	defer func() { metrics.NearestDurationMs.Observe(float64(time.Since(start).Milliseconds())) }()

	q := r.URL.Query()
	from := origin{Source: "query"}
	if !q.Has("lat") && !q.Has("lon") && h.Locator != nil {
		ip := visitorIP(r)
		lat, lon, ok := h.Locator.Locate(ip)
		if !ok {
			h.Logger.Debug("geoip_miss", "ip", ip)
			writeError(w, http.StatusBadRequest, "lat and lon are required: visitor position unknown")
			return
		}
		from = origin{Lat: lat, Lon: lon, Source: "geoip"}
	} else {
		lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
		lon, err2 := strconv.ParseFloat(q.Get("lon"), 64)
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, "lat and lon are required numbers")
			return
		}
		from.Lat, from.Lon = lat, lon
	}
	k := 0
	if s := q.Get("k"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid k")
			return
		}
		k = n
	}
	radius := 0.0
	if s := q.Get("radius_km"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid radius_km")
			return
		}
		radius = f
	}
	hits, err := h.Nearby.Query(from.Lat, from.Lon, k, radius)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, nearestResponse{Results: hits, Origin: from})
}
