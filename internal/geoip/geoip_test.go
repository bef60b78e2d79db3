package geoip

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "GeoLite2-City.mmdb"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open geoip db")
}

func TestOpen_NotAnMMDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.mmdb")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a maxmind database"), 0o644))

	_, err := Open(path)

	assert.Error(t, err)
}

// GEOIP_TEST_DB points at a real City database; lookups are skipped without it.
func TestLocate(t *testing.T) {
	path := os.Getenv("GEOIP_TEST_DB")
	if path == "" {
		t.Skip("GEOIP_TEST_DB not set")
	}
	r, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	_, _, ok := r.Locate("not-an-ip")
	assert.False(t, ok)

	_, _, ok = r.Locate("127.0.0.1")
	assert.False(t, ok, "loopback has no City record")

	lat, lon, ok := r.Locate("8.8.8.8")
	require.True(t, ok)
	assert.InDelta(t, 0, lat, 90)
	assert.InDelta(t, 0, lon, 180)
}
