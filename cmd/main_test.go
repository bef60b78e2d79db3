package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"place-search/internal/api"
	"place-search/internal/config"
	"place-search/internal/gazetteer"
	"place-search/internal/logger"
	"place-search/internal/projection"
	"place-search/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `nimi_suomi,nimi_ruotsi,kunta,x,y
Kallio,Berghäll,Helsinki,386000,6675000
`

func testServer(t *testing.T, engine *search.Engine) (http.Handler, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := logger.New(&buf, slog.LevelDebug, "json")
	cfg := config.Config{APIBase: "/api", UIDist: t.TempDir()}
	return newHandler(cfg, l, api.Deps{Engine: engine, DefaultThreshold: 80, Logger: l}), &buf
}

func logEntries(t *testing.T, buf *bytes.Buffer) map[string]map[string]any {
	t.Helper()
	out := map[string]map[string]any{}
	sc := bufio.NewScanner(buf)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var e map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		out[e["msg"].(string)] = e
	}
	return out
}

func TestNewHandler_AccessLogCarriesRequestID(t *testing.T) {
	tbl, err := gazetteer.ReadCSV(strings.NewReader(sample), gazetteer.DefaultRoles)
	require.NoError(t, err)
	h, buf := testServer(t, search.NewEngine(tbl, search.NewMatcher(projection.NewTM35FIN()), nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	access := logEntries(t, buf)["http_access"]
	require.NotNil(t, access)
	assert.Equal(t, "/api/healthz", access["path"])
	assert.NotEmpty(t, access["req_id"])
}

func TestNewHandler_SameRequestIDInsideTheAPI(t *testing.T) {
	// a nil engine makes /options panic inside the API router
	h, buf := testServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/options", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	entries := logEntries(t, buf)
	require.NotNil(t, entries["handler_panic"])
	require.NotNil(t, entries["http_access"])
	assert.NotEmpty(t, entries["http_access"]["req_id"])
	assert.Equal(t, entries["http_access"]["req_id"], entries["handler_panic"]["req_id"])
}

func TestNewHandler_ConfigJS(t *testing.T) {
	h, _ := testServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/config.js", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "window.__API_BASE__='/api'\n", rec.Body.String())
}
