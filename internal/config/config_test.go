package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/OrderDrop/internal/apperr"
)

var keys = []string{
	EnvConfigFile, EnvAPIBase, "ORDERDROP_ADDRESS", "ORDERDROP_MAX_FILE_BYTES", "ORDERDROP_TICK",
	"ORDERDROP_NOTIFY_TTL", "ORDERDROP_HTTP_TIMEOUT", "ORDERDROP_ENCODE_WORKERS", "ORDERDROP_LOG_LEVEL",
	"ORDERDROP_LOG_FORMAT", "ORDERDROP_S3_ENDPOINT", "ORDERDROP_S3_ACCESS_KEY", "ORDERDROP_S3_SECRET_KEY",
	"ORDERDROP_S3_REGION", "ORDERDROP_S3_USE_SSL",
}

// clearEnv blanks every key for the test; readEnv treats "" as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadRequiresAPIBase(t *testing.T) {
	clearEnv(t)
	_, err := Load("")
	require.Error(t, err)
	assert.True(t, apperr.IsConfiguration(err))
	assert.Equal(t, "ORDERDROP_API_BASE is missing. Set it in your configuration.", err.Error())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIBase, " https://script.example/exec ")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://script.example/exec", cfg.APIBase)
	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, int64(10<<20), cfg.MaxFileBytes)
	assert.Equal(t, time.Second, cfg.Tick)
	assert.Equal(t, 3*time.Second, cfg.NotifyTTL)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 4, cfg.EncodeWorkers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.S3.Enabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIBase, "https://script.example/exec")
	t.Setenv("ORDERDROP_TICK", "250ms")
	t.Setenv("ORDERDROP_ENCODE_WORKERS", "-3")
	t.Setenv("ORDERDROP_MAX_FILE_BYTES", "not-a-number")
	t.Setenv("ORDERDROP_LOG_FORMAT", "JSON")
	t.Setenv("ORDERDROP_S3_ENDPOINT", "minio:9000")
	t.Setenv("ORDERDROP_S3_USE_SSL", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Tick)
	assert.Equal(t, 4, cfg.EncodeWorkers)
	assert.Equal(t, int64(10<<20), cfg.MaxFileBytes)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.S3.Enabled())
	assert.True(t, cfg.S3.UseSSL)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "orderdrop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
apiBase: https://file.example/exec
address: ":9090"
tick: 2s
notifyTTL: 5s
encodeWorkers: 8
log:
  level: debug
s3:
  endpoint: scanner.local:9000
  region: ap-south-1
`), 0o600))
	t.Setenv("ORDERDROP_ADDRESS", ":7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example/exec", cfg.APIBase)
	assert.Equal(t, ":7070", cfg.Address)
	assert.Equal(t, 2*time.Second, cfg.Tick)
	assert.Equal(t, 5*time.Second, cfg.NotifyTTL)
	assert.Equal(t, 8, cfg.EncodeWorkers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "scanner.local:9000", cfg.S3.Endpoint)
	assert.Equal(t, "ap-south-1", cfg.S3.Region)
}

func TestLoadFileFromEnvVariable(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apiBase: https://env-file.example\n"), 0o600))
	t.Setenv(EnvConfigFile, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://env-file.example", cfg.APIBase)
}

func TestLoadBadFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apiBase: [unterminated"), 0o600))
	_, err = Load(path)
	require.Error(t, err)
	assert.True(t, apperr.IsConfiguration(err))
}

func TestLoadOverridesWin(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIBase, "https://env.example")

	cfg, err := Load("", func(c *Config) {
		c.APIBase = "https://flag.example"
		c.Tick = 0
	})
	require.NoError(t, err)
	assert.Equal(t, "https://flag.example", cfg.APIBase)
	assert.Equal(t, time.Second, cfg.Tick)
}
