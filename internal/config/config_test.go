package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"ADDR", "API_BASE", "NAME_COLUMNS", "LANGUAGE_TAGS", "FUZZY_THRESHOLD", "REDIS_ENABLED", "TLS_ENABLE", "GAZETTEER_SOURCE", "STATS_ENABLED", "GEOIP_DB"} {
		t.Setenv(k, "")
	}

	c := FromEnv()

	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, "/api", c.APIBase)
	assert.Equal(t, "csv", c.Source)
	assert.Equal(t, []string{"nimi_suomi", "nimi_ruotsi"}, c.NameColumns)
	assert.Equal(t, map[string]string{"nimi_suomi": "suomi", "nimi_ruotsi": "ruotsi"}, c.LanguageTags)
	assert.Equal(t, 80.0, c.Threshold)
	assert.False(t, c.RedisEnabled)
	assert.False(t, c.TLSEnable)
	assert.False(t, c.NeedsPostgres())
	assert.Empty(t, c.GeoIPDB)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("API_BASE", "/v1/")
	t.Setenv("NAME_COLUMNS", " nimi_suomi , ,nimi_saame")
	t.Setenv("LANGUAGE_TAGS", "nimi_saame=saame,broken, =x")
	t.Setenv("FUZZY_THRESHOLD", "72.5")
	t.Setenv("FUZZY_CANDIDATE_LIMIT", "-3")
	t.Setenv("SEARCH_CACHE_TTL_S", "30")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("GAZETTEER_SOURCE", "Postgres")
	t.Setenv("GEOIP_DB", "data/GeoLite2-City.mmdb")

	c := FromEnv()

	assert.Equal(t, "/v1", c.APIBase)
	assert.Equal(t, []string{"nimi_suomi", "nimi_saame"}, c.NameColumns)
	assert.Equal(t, map[string]string{"nimi_saame": "saame"}, c.LanguageTags)
	assert.Equal(t, 72.5, c.Threshold)
	assert.Equal(t, 100, c.CandidateLimit, "negative falls back to default")
	assert.Equal(t, 30*time.Second, c.CacheTTL)
	assert.True(t, c.RedisEnabled)
	assert.True(t, c.NeedsPostgres())
	assert.Equal(t, "data/GeoLite2-City.mmdb", c.GeoIPDB)
}

func TestAPIBase(t *testing.T) {
	assert.Equal(t, "/api", apiBase("/"))
	assert.Equal(t, "/v2/api", apiBase("v2/api/"))
}

func TestPostgresDSN(t *testing.T) {
	c := Config{PGUser: "u", PGHost: "db", PGPort: "5433", PGDB: "places", PGSSLMode: "require"}
	assert.Equal(t, "postgres://u@db:5433/places?sslmode=require", c.PostgresDSN())

	c.PGPassword = "secret"
	assert.Equal(t, "postgres://u:secret@db:5433/places?sslmode=require", c.PostgresDSN())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GAZETTEER_CSV=from_dotenv.csv\n"), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	// godotenv never overrides an existing variable; start from unset
	t.Setenv("GAZETTEER_CSV", "")
	require.NoError(t, os.Unsetenv("GAZETTEER_CSV"))

	c := Load()

	assert.Equal(t, "from_dotenv.csv", c.CSVPath)
}
