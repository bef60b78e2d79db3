package utils

import (
	"context"
	"crypto/tls"
	"os"
	"path/filepath"
	"testing"

	"place-search/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSelfSignedCert(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "certs", "server.crt")
	key := filepath.Join(dir, "keys", "server.key")

	require.NoError(t, EnsureSelfSignedCert(cert, key, "place-search.local"))
	_, err := tls.LoadX509KeyPair(cert, key)
	require.NoError(t, err)

	before, err := os.ReadFile(cert)
	require.NoError(t, err)
	require.NoError(t, EnsureSelfSignedCert(cert, key, "other"))
	after, err := os.ReadFile(cert)
	require.NoError(t, err)
	assert.Equal(t, before, after, "existing pair is kept")
}

func TestOpenRedis_Disabled(t *testing.T) {
	assert.Nil(t, OpenRedis(config.Config{RedisEnabled: false}))
	assert.Error(t, PingRedis(context.Background(), nil))
}

func TestOpenPostgres_NoDial(t *testing.T) {
	db, err := OpenPostgres("postgres://u@127.0.0.1:1/none?sslmode=disable", 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, db.Stats().MaxOpenConnections)
	require.NoError(t, db.Close())
}
