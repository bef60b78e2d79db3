// Package config: process configuration read from the environment, with .env files loaded first
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server and the import tool read at start.
type Config struct {
	Addr    string
	APIBase string
	UIDist  string

	Source          string // csv | postgres
	CSVPath         string
	NameColumns     []string
	MunicipalityCol string
	XCol            string
	YCol            string
	LanguageTags    map[string]string

	Threshold      float64
	CandidateLimit int

	RedisEnabled bool
	RedisHost    string
	RedisPort    string
	RedisPass    string
	RedisDB      int
	CacheTTL     time.Duration

	StatsEnabled   bool
	PGHost         string
	PGPort         string
	PGUser         string
	PGPassword     string
	PGDB           string
	PGSSLMode      string
	PGMaxOpenConns int
	PGMaxIdleConns int

	RateLimitEnabled bool
	RateLimitQPS     int

	TLSEnable   bool
	TLSCertPath string
	TLSKeyPath  string

	NearestRadiusKm float64
	NearestCacheTTL time.Duration
	GeoIPDB         string // City mmdb; empty disables visitor positioning
}

// LoadEnvFiles loads .env and data/env/.env; missing files are ignored and existing variables win.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
}

// Load: .env files, then the environment
func Load() Config {
	LoadEnvFiles()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	return Config{
		Addr:    str("ADDR", ":8080"),
		APIBase: apiBase(str("API_BASE", "/api")),
		UIDist:  str("UI_DIST", filepath.Join("ui", "dist")),

		Source:          strings.ToLower(str("GAZETTEER_SOURCE", "csv")),
		CSVPath:         str("GAZETTEER_CSV", "hgin_ja_vantaan_nimet_7_8_25.csv"),
		NameColumns:     list("NAME_COLUMNS", []string{"nimi_suomi", "nimi_ruotsi"}),
		MunicipalityCol: str("MUNICIPALITY_COLUMN", "kunta"),
		XCol:            str("X_COLUMN", "x"),
		YCol:            str("Y_COLUMN", "y"),
		LanguageTags:    pairs("LANGUAGE_TAGS", map[string]string{"nimi_suomi": "suomi", "nimi_ruotsi": "ruotsi"}),

		Threshold:      float("FUZZY_THRESHOLD", 80),
		CandidateLimit: integer("FUZZY_CANDIDATE_LIMIT", 100),

		RedisEnabled: boolean("REDIS_ENABLED", false),
		RedisHost:    str("REDIS_HOST", "127.0.0.1"),
		RedisPort:    str("REDIS_PORT", "6379"),
		RedisPass:    os.Getenv("REDIS_PASS"),
		RedisDB:      integer("REDIS_DB", 0),
		CacheTTL:     time.Duration(integer("SEARCH_CACHE_TTL_S", 600)) * time.Second,

		StatsEnabled:   boolean("STATS_ENABLED", false),
		PGHost:         str("PG_HOST", "localhost"),
		PGPort:         str("PG_PORT", "5432"),
		PGUser:         str("PG_USER", "postgres"),
		PGPassword:     os.Getenv("PG_PASSWORD"),
		PGDB:           str("PG_DB", "placesearch"),
		PGSSLMode:      str("PG_SSLMODE", "disable"),
		PGMaxOpenConns: integer("PG_MAX_OPEN_CONNS", 20),
		PGMaxIdleConns: integer("PG_MAX_IDLE_CONNS", 10),

		RateLimitEnabled: boolean("RATE_LIMIT_ENABLED", false),
		RateLimitQPS:     integer("RATE_LIMIT_QPS", 200),

		TLSEnable:   boolean("TLS_ENABLE", false),
		TLSCertPath: str("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt")),
		TLSKeyPath:  str("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key")),

		NearestRadiusKm: float("NEAREST_RADIUS_KM", 5),
		NearestCacheTTL: time.Duration(integer("NEAREST_CACHE_TTL_S", 3600)) * time.Second,
		GeoIPDB:         os.Getenv("GEOIP_DB"),
	}
}

// PostgresDSN builds a postgres:// URL from the PG_* settings.
func (c Config) PostgresDSN() string {
	dsn := "postgres://" + c.PGUser
	if c.PGPassword != "" {
		dsn += ":" + c.PGPassword
	}
	return dsn + "@" + c.PGHost + ":" + c.PGPort + "/" + c.PGDB + "?sslmode=" + c.PGSSLMode
}

// RedisAddr returns host:port.
func (c Config) RedisAddr() string { return c.RedisHost + ":" + c.RedisPort }

// NeedsPostgres reports whether any enabled component talks to Postgres.
func (c Config) NeedsPostgres() bool { return c.StatsEnabled || c.Source == "postgres" }

// apiBase: leading slash, no trailing slash, never the root
func apiBase(v string) string {
	v = "/" + strings.Trim(v, "/")
	if v == "/" {
		return "/api"
	}
	return v
}

func str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// integer: unparseable or negative values fall back to def
func integer(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func float(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

func boolean(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

func list(key string, def []string) []string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// pairs parses "a=b,c=d"; malformed entries are skipped.
func pairs(key string, def map[string]string) map[string]string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	out := map[string]string{}
	for _, p := range strings.Split(v, ",") {
		k, val, ok := strings.Cut(p, "=")
		k, val = strings.TrimSpace(k), strings.TrimSpace(val)
		if !ok || k == "" {
			continue
		}
		out[k] = val
	}
	return out
}
