package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/boswecw/cortex/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_LoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	c, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, c.DataDir)
	assert.Equal(t, int64(config.DefaultMaxFileSize), c.EffectiveMaxFileSize())
	assert.Empty(t, c.ExcludePatterns)

	db, err := c.DBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, config.DefaultDBName), db)
}

func TestConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	size := int64(1024)

	c := &config.Config{
		DataDir:         dir,
		MaxFileSize:     &size,
		ExcludePatterns: []string{"**/*.log", "tmp/**"},
	}
	require.NoError(t, c.Save())

	loaded, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), loaded.EffectiveMaxFileSize())
	assert.Equal(t, []string{"**/*.log", "tmp/**"}, loaded.ExcludePatterns)
}

func TestConfig_ValidateBounds(t *testing.T) {
	bad := int64(0)
	c := &config.Config{MaxFileSize: &bad}
	assert.ErrorIs(t, c.Validate(), config.ErrInvalidValue)

	huge := int64(config.MaxMaxFileSize + 1)
	c = &config.Config{MaxFileSize: &huge}
	assert.ErrorIs(t, c.Validate(), config.ErrInvalidValue)
}

func TestConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("max_file_size: [nope"), 0o644))

	_, err := config.Load(dir)
	assert.Error(t, err)
}
