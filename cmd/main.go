// Server entry point: reads configuration, loads the gazetteer, wires optional backends and serves HTTP
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"place-search/internal/api"
	"place-search/internal/config"
	"place-search/internal/gazetteer"
	"place-search/internal/geoip"
	"place-search/internal/logger"
	"place-search/internal/metrics"
	"place-search/internal/middleware"
	"place-search/internal/migrate"
	"place-search/internal/nearby"
	"place-search/internal/projection"
	"place-search/internal/search"
	"place-search/internal/store"
	"place-search/internal/utils"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg := config.Load()
	l := logger.Setup()
	l.Debug("config_loaded", "addr", cfg.Addr, "api_base", cfg.APIBase, "source", cfg.Source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.NeedsPostgres() {
		var err error
		db, err = utils.ConnectPostgres(ctx, cfg)
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := migrate.EnsureSchema(ctx, db); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		}
		l.Info("db_ready")
	}

	roles := gazetteer.Roles{Municipality: cfg.MunicipalityCol, X: cfg.XCol, Y: cfg.YCol}
	tbl, err := loadTable(ctx, cfg, roles, db)
	if err != nil {
		l.Error("table_load_error", "source", cfg.Source, "err", err)
		os.Exit(1)
	}
	metrics.TableRecords.Set(float64(tbl.Len()))
	l.Info("table_load_ok", "records", tbl.Len(), "columns", len(tbl.Columns()))

	proj := projection.NewTM35FIN()
	matcher := search.NewMatcher(proj,
		search.WithCandidateLimit(cfg.CandidateLimit),
		search.WithLanguages(cfg.LanguageTags),
	)
	engine := search.NewEngine(tbl, matcher, cfg.NameColumns)
	ix := nearby.Build(tbl, proj, cfg.NameColumns, cfg.LanguageTags)
	l.Info("nearby_index_ready", "places", ix.Len())

	deps := api.Deps{
		Engine:           engine,
		DefaultThreshold: cfg.Threshold,
		Nearby:           nearby.NewService(ix, cfg.NearestRadiusKm, cfg.NearestCacheTTL),
		Logger:           l,
	}
	if rc := utils.OpenRedis(cfg); rc != nil {
		if err := utils.PingRedis(ctx, rc); err != nil {
			// the client reconnects on its own; cache misses until then
			l.Warn("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
		defer rc.Close()
		deps.Cache = api.NewRedisCache(rc, cfg.CacheTTL)
		deps.Dedupe = api.NewRedisBloom(rc, 10*time.Minute)
	} else {
		l.Info("redis_disabled")
	}
	if cfg.StatsEnabled {
		deps.Stats = store.AttachDB(db)
	}

	if cfg.GeoIPDB != "" {
		if gr, err := geoip.Open(cfg.GeoIPDB); err != nil {
			// /nearest keeps working for callers that send coordinates
			l.Warn("geoip_open_error", "err", err)
		} else {
			defer gr.Close()
			deps.Locator = gr
			l.Info("geoip_ready", "path", cfg.GeoIPDB)
		}
	}

	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(cfg, l, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if cfg.TLSEnable {
			if err := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "place-search.local"); err != nil {
				errCh <- err
				return
			}
			l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath)
			errCh <- s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
			return
		}
		l.Info("listening", "addr", cfg.Addr)
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("server_error", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		l.Info("shutdown_begin")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(sctx); err != nil {
			l.Error("shutdown_error", "err", err)
		}
		l.Info("shutdown_done")
	}
}

// newHandler: API under cfg.APIBase, /config.js and the static UI, wrapped in request id, access log and
// the optional rate limit
// Constraint: RequestID is outermost so the access log and the API handlers see the same id.
func newHandler(cfg config.Config, l *slog.Logger, deps api.Deps) http.Handler {
	r := chi.NewRouter()
	r.Mount(cfg.APIBase, api.BuildRoutes(deps))
	// exposes the API base to the UI so the bundle never hardcodes it
	r.Get("/config.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + cfg.APIBase + "'\n"))
	})
	r.Handle("/*", http.FileServer(http.Dir(cfg.UIDist)))

	handler := logger.AccessMiddleware(l)(r)
	handler = chimw.RequestID(handler)
	return middleware.Wrap(handler, cfg.RateLimitEnabled, cfg.RateLimitQPS)
}

// loadTable reads the gazetteer from the configured source.
func loadTable(ctx context.Context, cfg config.Config, roles gazetteer.Roles, db *sql.DB) (*gazetteer.Table, error) {
	switch cfg.Source {
	case "csv":
		return gazetteer.LoadCSV(cfg.CSVPath, roles)
	case "postgres":
		return store.AttachDB(db).LoadGazetteer(ctx, roles)
	}
	return nil, fmt.Errorf("unknown GAZETTEER_SOURCE %q", cfg.Source)
}
