package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithoutFileUsesEnv(t *testing.T) {
	t.Setenv("PEER_TIMEOUT", "750ms")

	v, err := Load(t.TempDir(), "missing")
	require.NoError(t, err)

	SetDefaults(v, map[string]interface{}{"peer.timeout": "3s", "server.port": 8083})
	require.NoError(t, BindEnvs(v, map[string]string{"peer.timeout": "PEER_TIMEOUT"}))

	assert.Equal(t, "750ms", v.GetDuration("peer.timeout").String())
	assert.Equal(t, 8083, v.GetInt("server.port"))
}

func TestLoadReadsYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("pubsub:\n  driver: redis\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	v, err := Load(dir, "config")
	require.NoError(t, err)
	assert.Equal(t, "redis", v.GetString("pubsub.driver"))
}
