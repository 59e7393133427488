package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("CHAPTERCUT_CONFIG", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.MaxChapters)
	assert.Equal(t, 3600, cfg.MaxDurationSec)
	assert.Equal(t, 500, cfg.MaxFileSizeMB)
	assert.Equal(t, 60, cfg.FallbackWindowSec)
	assert.Equal(t, int64(2<<30), cfg.CacheLimitBytes)
	assert.Equal(t, filepath.Join(cfg.DataDir, "cache"), cfg.CacheDir)
	assert.DirExists(t, cfg.CacheDir)
	assert.DirExists(t, cfg.OutputDir)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("MAX_CHAPTERS", "5")
	t.Setenv("MAX_DURATION_SEC", "120")
	t.Setenv("FALLBACK_WINDOW_SEC", "30")
	t.Setenv("CACHE_LIMIT", "1024")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxChapters)
	assert.Equal(t, 120, cfg.MaxDurationSec)
	assert.Equal(t, 30, cfg.FallbackWindowSec)
	assert.Equal(t, int64(1024), cfg.CacheLimitBytes)
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chaptercut.yaml")
	yml := "max_chapters: 7\nmax_file_size_mb: 100\nlisten_addr: \":9000\"\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	t.Setenv("DATA_DIR", dir)
	t.Setenv("CHAPTERCUT_CONFIG", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxChapters)
	assert.Equal(t, 100, cfg.MaxFileSizeMB)
	assert.Equal(t, ":9000", cfg.ListenAddr)
}

func TestLoadConfig_EnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chaptercut.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_chapters: 7\n"), 0o644))

	t.Setenv("DATA_DIR", dir)
	t.Setenv("CHAPTERCUT_CONFIG", path)
	t.Setenv("MAX_CHAPTERS", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxChapters)
}

func TestLoadConfig_RejectsBadValues(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("MAX_DURATION_SEC", "-1")

	_, err := LoadConfig()
	assert.Error(t, err)
}
