package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"private", errors.New("ERROR: Private video. Sign in if you've been granted access"), ErrPrivate},
		{"unavailable", errors.New("ERROR: Video unavailable"), ErrUnavailable},
		{"removed", errors.New("ERROR: This video has been removed by the uploader"), ErrUnavailable},
		{"bad url", errors.New("ERROR: 'watch?v=' is not a valid URL"), ErrInvalidReference},
		{"timeout text", errors.New("urlopen error timed out"), ErrTimeout},
		{"deadline", context.DeadlineExceeded, ErrTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify(tt.in), tt.want)
		})
	}

	plain := errors.New("something else broke")
	assert.Equal(t, plain, classify(plain))
	assert.NoError(t, classify(nil))
}

func TestValidateRef(t *testing.T) {
	assert.NoError(t, validateRef("https://www.youtube.com/watch?v=abc123"))
	assert.NoError(t, validateRef("http://youtu.be/abc123"))

	for _, bad := range []string{"", "watch?v=abc", "ftp://example.com/x", "not a url at all"} {
		err := validateRef(bad)
		assert.ErrorIs(t, err, ErrInvalidReference, "ref %q", bad)
	}
}

func TestFindDownloaded(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "source")

	_, err := findDownloaded(base)
	assert.Error(t, err)

	// .part files are in-flight downloads, never results
	require.NoError(t, os.WriteFile(base+".mp4.part", nil, 0o644))
	_, err = findDownloaded(base)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(base+".webm", nil, 0o644))
	got, err := findDownloaded(base)
	require.NoError(t, err)
	assert.Equal(t, base+".webm", got)

	// preferred extension wins once present
	require.NoError(t, os.WriteFile(base+".mp4", nil, 0o644))
	got, err = findDownloaded(base)
	require.NoError(t, err)
	assert.Equal(t, base+".mp4", got)
}
