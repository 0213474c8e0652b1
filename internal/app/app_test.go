package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/OrderDrop/internal/apperr"
	"github.com/dharsanguruparan/OrderDrop/internal/config"
	"github.com/dharsanguruparan/OrderDrop/internal/logger"
	"github.com/dharsanguruparan/OrderDrop/internal/s3storage"
)

func TestNewRequiresAPIBase(t *testing.T) {
	_, err := New(config.Defaults(), logger.Discard())
	require.Error(t, err)
	assert.True(t, apperr.IsConfiguration(err))
}

func TestCandidates(t *testing.T) {
	cfg := config.Defaults()
	cfg.APIBase = "http://127.0.0.1:1/exec"
	a, err := New(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	assert.Nil(t, a.Scanner)

	path := filepath.Join(t.TempDir(), "so.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	got, err := a.Candidates(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "so.pdf", got[0].Name)

	_, err = a.Candidates(context.Background(), []string{"s3://scans/so.pdf"})
	assert.ErrorIs(t, err, s3storage.ErrNotConfigured)

	_, err = a.Candidates(context.Background(), []string{filepath.Join(t.TempDir(), "nope.pdf")})
	assert.Error(t, err)
}

func TestScannerWiredWhenConfigured(t *testing.T) {
	cfg := config.Defaults()
	cfg.APIBase = "http://127.0.0.1:1/exec"
	cfg.S3 = config.S3Config{Endpoint: "127.0.0.1:9000", Region: "us-east-1"}
	a, err := New(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	assert.NotNil(t, a.Scanner)
	assert.NotNil(t, a.Server())
}
