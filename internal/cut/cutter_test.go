package cut

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutplane/chaptercut/internal/chapters"
	"github.com/cutplane/chaptercut/internal/progress"
)

type call struct {
	name string
	args []string
}

// fakeRunner records invocations and fabricates the output file on the
// final pass.
func fakeRunner(calls *[]call, failAudio bool) func(context.Context, string, []string, io.Writer) error {
	return func(_ context.Context, name string, args []string, logw io.Writer) error {
		*calls = append(*calls, call{name: name, args: args})
		dst := args[len(args)-1]
		if strings.Contains(dst, ".audio.m4a") {
			if failAudio {
				return errors.New("Stream map 'a' matches no streams")
			}
			return os.WriteFile(dst, []byte("aac"), 0o644)
		}
		return os.WriteFile(dst, []byte("mp4"), 0o644)
	}
}

func TestCut_TwoPassPipeline(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.mp4")

	var calls []call
	c := New("ffmpeg")
	c.run = fakeRunner(&calls, false)

	var log bytes.Buffer
	r := chapters.Range{StartSec: 60, EndSec: 200}
	require.NoError(t, c.Cut(context.Background(), "src.mp4", dst, r, &log))

	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].args, "-ss")
	assert.Contains(t, calls[0].args, "60")
	assert.Contains(t, calls[0].args, "200")
	assert.Contains(t, calls[0].args, "-vn")
	assert.Contains(t, calls[1].args, "libx264")
	assert.Equal(t, dst, calls[1].args[len(calls[1].args)-1])
	assert.FileExists(t, dst)

	// audio temp is cleaned up
	assert.NoFileExists(t, dst+".audio.m4a")

	out := log.String()
	audioIdx := strings.Index(out, "Writing audio track")
	videoIdx := strings.Index(out, "Writing video data")
	assert.Greater(t, audioIdx, strings.Index(out, "Building video structure"))
	assert.Greater(t, videoIdx, audioIdx)
}

func TestCut_FallsBackToVideoOnlyWhenAudioFails(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.mp4")

	var calls []call
	c := New("")
	c.run = fakeRunner(&calls, true)

	var log bytes.Buffer
	r := chapters.Range{StartSec: 0, EndSec: 30}
	require.NoError(t, c.Cut(context.Background(), "src.mp4", dst, r, &log))

	require.Len(t, calls, 2)
	assert.Contains(t, calls[1].args, "-an")
	assert.NotContains(t, calls[1].args, "-map")
}

func TestCut_VideoPassFailureIsReturned(t *testing.T) {
	var calls []call
	c := New("ffmpeg")
	c.run = func(_ context.Context, name string, args []string, logw io.Writer) error {
		calls = append(calls, call{name: name, args: args})
		if strings.Contains(args[len(args)-1], ".audio.m4a") {
			return os.WriteFile(args[len(args)-1], nil, 0o644)
		}
		return errors.New("encoder blew up")
	}

	dst := filepath.Join(t.TempDir(), "out.mp4")
	err := c.Cut(context.Background(), "src.mp4", dst, chapters.Range{StartSec: 0, EndSec: 10}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoder blew up")
}

func TestCut_RejectsEmptyRange(t *testing.T) {
	c := New("ffmpeg")
	err := c.Cut(context.Background(), "src.mp4", "out.mp4", chapters.Range{StartSec: 10, EndSec: 10}, io.Discard)
	assert.Error(t, err)
}

func TestCut_DrivesProgressEstimator(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.mp4")

	var calls []call
	c := New("ffmpeg")
	c.run = fakeRunner(&calls, false)

	var pcts []float64
	est := progress.NewEstimator(progress.DefaultBase, func(pct float64, _ string) {
		pcts = append(pcts, pct)
	})
	lw := progress.NewLineWriter(est)

	r := chapters.Range{StartSec: 0, EndSec: 45}
	require.NoError(t, c.Cut(context.Background(), "src.mp4", dst, r, lw))
	lw.Flush()

	require.NotEmpty(t, pcts)
	for i := 1; i < len(pcts); i++ {
		assert.GreaterOrEqual(t, pcts[i], pcts[i-1])
	}
	assert.Equal(t, progress.StageComplete, est.Stage())
	assert.Equal(t, float64(progress.DefaultBase+10), pcts[len(pcts)-1])
}
