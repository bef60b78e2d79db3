package store

import (
	"context"
	"database/sql"
	"math"
	"os"
	"strings"
	"testing"

	"place-search/internal/gazetteer"
	"place-search/internal/migrate"
	"place-search/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "kallio", NormalizeQuery("  Kallio "))
	assert.Equal(t, "itä pasila", NormalizeQuery("Itä \t PASILA"))
	assert.Equal(t, "", NormalizeQuery("   "))
	assert.Equal(t, maxQueryLen, len([]rune(NormalizeQuery(strings.Repeat("ä", 500)))))
}

func TestIncrStats_ReportsFailure(t *testing.T) {
	db, err := utils.OpenPostgres("postgres://u@127.0.0.1:1/none?sslmode=disable&connect_timeout=1", 1, 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	err = AttachDB(db).IncrStats(context.Background(), true)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "stats total")
}

// openTestDB connects to PG_TEST_DSN; the test is skipped when it is unset.
func openTestDB(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}
	db, err := utils.OpenPostgres(dsn, 4, 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrate.EnsureSchema(context.Background(), db))
	require.NoError(t, migrate.EnsureSchema(context.Background(), db), "schema bootstrap is repeatable")
	return AttachDB(db), db
}

func TestStats_Postgres(t *testing.T) {
	st, _ := openTestDB(t)
	ctx := context.Background()

	before, err := st.GetTotals(ctx)
	require.NoError(t, err)
	require.NoError(t, st.IncrStats(ctx, false))
	require.NoError(t, st.IncrStats(ctx, true))
	after, err := st.GetTotals(ctx)
	require.NoError(t, err)

	assert.Equal(t, before.Total+2, after.Total)
	assert.Equal(t, before.Today+2, after.Today)
	assert.Equal(t, before.Empty+1, after.Empty)
}

func TestRecentQueries_Postgres(t *testing.T) {
	st, db := openTestDB(t)
	ctx := context.Background()
	_, err := db.ExecContext(ctx, "DELETE FROM _search_recent_queries")
	require.NoError(t, err)

	for _, q := range []string{"Kallio", "kallio ", "Malmi", "", "KALLIO"} {
		require.NoError(t, st.RecordRecent(ctx, q))
	}
	top, err := st.TopQueries(ctx, 1, 5)
	require.NoError(t, err)

	require.Len(t, top, 2)
	assert.Equal(t, QueryCount{Query: "kallio", Searches: 3}, top[0])
	assert.Equal(t, QueryCount{Query: "malmi", Searches: 1}, top[1])
}

func TestGazetteerRoundTrip_Postgres(t *testing.T) {
	st, _ := openTestDB(t)
	ctx := context.Background()
	cols := []string{"nimi_suomi", "nimi_ruotsi", "kunta", "x", "y"}
	roles := gazetteer.DefaultRoles
	src := gazetteer.NewTable(cols, roles, []gazetteer.Record{
		gazetteer.NewRecord(0, map[string]string{"nimi_suomi": "Kallio", "nimi_ruotsi": "Berghäll", "kunta": "Helsinki", "x": "386000", "y": "6675000"}, roles),
		gazetteer.NewRecord(1, map[string]string{"nimi_ruotsi": "Brunnsparken", "kunta": "Helsinki"}, roles),
	})

	require.NoError(t, st.ReplaceGazetteer(ctx, src))
	got, err := st.LoadGazetteer(ctx, roles)
	require.NoError(t, err)

	assert.Equal(t, cols, got.Columns())
	require.Equal(t, 2, got.Len())
	r0, r1 := got.Records()[0], got.Records()[1]
	assert.Equal(t, "Berghäll", r0.Fields["nimi_ruotsi"])
	assert.Equal(t, 386000.0, r0.X)
	assert.Equal(t, 1, r1.Row)
	_, ok := r1.Value("nimi_suomi")
	assert.False(t, ok, "null cell stays null")
	assert.True(t, math.IsNaN(r1.Y))
}
