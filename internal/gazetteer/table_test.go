package gazetteer

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "\ufeffnimi_suomi,nimi_ruotsi,kunta,x,y\n" +
	"Kallio,Berghäll,Helsinki,386000,6675000\n" +
	"Hakaniemi,Hagnäs,Helsinki,386500,6674000\n" +
	"Tikkurila,Dickursby,Vantaa,391000,6688000\n" +
	"Puisto,,Vantaa,,\n" +
	"Tuntematon,Okänd,Helsinki,abc,6670000\n"

func TestReadCSV(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(sample), DefaultRoles)
	require.NoError(t, err)

	assert.Equal(t, []string{"nimi_suomi", "nimi_ruotsi", "kunta", "x", "y"}, tbl.Columns())
	require.Equal(t, 5, tbl.Len())

	recs := tbl.Records()
	assert.Equal(t, 0, recs[0].Row)
	assert.Equal(t, "Helsinki", recs[0].Municipality)
	assert.Equal(t, 386000.0, recs[0].X)
	assert.True(t, recs[0].HasCoords())

	_, ok := recs[3].Value("nimi_ruotsi")
	assert.False(t, ok, "empty cell is null")
	assert.True(t, math.IsNaN(recs[3].X))
	assert.False(t, recs[3].HasCoords())

	assert.True(t, math.IsNaN(recs[4].X), "unparseable coordinate is missing")
	assert.Equal(t, 6670000.0, recs[4].Y)
	assert.Equal(t, 4, recs[4].Row)
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), DefaultRoles)
	assert.ErrorContains(t, err, "no header")

	_, err = ReadCSV(strings.NewReader("nimi_suomi,x,y\nKallio,1,2\n"), DefaultRoles)
	assert.ErrorContains(t, err, "missing required column: kunta")

	_, err = ReadCSV(strings.NewReader("kunta,x,y,x\n"), DefaultRoles)
	assert.ErrorContains(t, err, "duplicate column")
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("nimi_suomi,kunta,x,y\n"), DefaultRoles)
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.True(t, tbl.HasColumn("nimi_suomi"))
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	tbl, err := LoadCSV(path, DefaultRoles)
	require.NoError(t, err)
	assert.Equal(t, 5, tbl.Len())

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), DefaultRoles)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.csv")
}

func TestFilter_KeepsRowIdentity(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(sample), DefaultRoles)
	require.NoError(t, err)

	v := tbl.Filter([]string{"Vantaa"})
	require.Equal(t, 2, v.Len())
	assert.Equal(t, 2, v.Records()[0].Row)
	assert.Equal(t, 3, v.Records()[1].Row)
	assert.True(t, v.HasColumn("nimi_ruotsi"))

	assert.Same(t, tbl, tbl.Filter(nil))
	assert.Equal(t, 0, tbl.Filter([]string{"Espoo"}).Len())
	assert.Equal(t, 5, tbl.Len(), "source table untouched")
}

func TestMunicipalities_FinnishOrder(t *testing.T) {
	recs := []Record{
		{Row: 0, Municipality: "Ähtäri"},
		{Row: 1, Municipality: "Åland"},
		{Row: 2, Municipality: "Vantaa"},
		{Row: 3, Municipality: "espoo"},
		{Row: 4, Municipality: "Helsinki"},
		{Row: 5, Municipality: "Vantaa"},
		{Row: 6, Municipality: ""},
	}
	tbl := NewTable([]string{"kunta", "x", "y"}, DefaultRoles, recs)

	assert.Equal(t, []string{"espoo", "Helsinki", "Vantaa", "Åland", "Ähtäri"}, tbl.Municipalities())
}
