package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndCleanup(t *testing.T) {
	data := t.TempDir()
	s, err := New(data)
	require.NoError(t, err)
	assert.DirExists(t, s.Dir)
	assert.NotEmpty(t, s.ID)

	other, err := New(data)
	require.NoError(t, err)
	assert.NotEqual(t, s.Dir, other.Dir)

	s.Cleanup()
	assert.NoDirExists(t, s.Dir)
	assert.DirExists(t, other.Dir)
}

func TestSweepStale(t *testing.T) {
	data := t.TempDir()
	stale := filepath.Join(data, "tmp", "stale-run")
	fresh := filepath.Join(data, "tmp", "fresh-run")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	require.NoError(t, os.MkdirAll(fresh, 0o755))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	removed, err := SweepStale(data, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoDirExists(t, stale)
	assert.DirExists(t, fresh)
}

func TestSweepStale_MissingRoot(t *testing.T) {
	removed, err := SweepStale(t.TempDir(), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestCleanFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Intro", "Intro"},
		{"slashes and colons", `AC/DC: Live`, "AC_DC_ Live"},
		{"url stripped", "Watch https://example.com/x now", "Watch now"},
		{"quotes dropped", `The "Best" Part`, "The Best Part"},
		{"parens kept", "Song (Remix)", "Song (Remix)"},
		{"brackets replaced", "Track [HD]", "Track _HD_"},
		{"collapse spaces", "a    b\tc", "a b c"},
		{"only a url becomes fallback", "https://example.com/watch", "chapter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanFilename(tt.in))
		})
	}
}
