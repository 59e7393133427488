// Package cut trims one extraction range out of a local media file with
// ffmpeg. The work runs in two passes, audio then video, and narrates itself
// onto the provided log writer; ffmpeg's own stderr is passed through too.
// A progress estimator sitting on that writer turns the narration into
// percent updates.
package cut

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/cutplane/chaptercut/internal/chapters"
)

type Cutter struct {
	FFmpegPath string

	// run is swappable so tests do not need an ffmpeg binary
	run func(ctx context.Context, name string, args []string, logw io.Writer) error
}

func New(ffmpegPath string) *Cutter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Cutter{FFmpegPath: ffmpegPath, run: runCmd}
}

func runCmd(ctx context.Context, name string, args []string, logw io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = logw
	cmd.Stderr = logw
	return cmd.Run()
}

// Cut extracts r from src into dst. Failure is scoped to this one chapter;
// batch callers keep going with the rest.
func (c *Cutter) Cut(ctx context.Context, src, dst string, r chapters.Range, logw io.Writer) error {
	if r.EndSec <= r.StartSec {
		return fmt.Errorf("cut %s: empty range %d-%d", src, r.StartSec, r.EndSec)
	}
	start := strconv.Itoa(r.StartSec)
	end := strconv.Itoa(r.EndSec)

	fmt.Fprintln(logw, "Building video structure")

	audioTmp := dst + ".audio.m4a"
	defer os.Remove(audioTmp)

	fmt.Fprintln(logw, "Writing audio track")
	haveAudio := true
	err := c.run(ctx, c.FFmpegPath, []string{
		"-y", "-hide_banner",
		"-ss", start, "-to", end,
		"-i", src,
		"-vn", "-c:a", "aac",
		audioTmp,
	}, logw)
	if err != nil {
		// sources without an audio stream still get their video cut
		haveAudio = false
		fmt.Fprintf(logw, "no audio track extracted: %v\n", err)
	}
	fmt.Fprintln(logw, "Done.")

	fmt.Fprintln(logw, "Writing video data")
	args := []string{
		"-y", "-hide_banner",
		"-ss", start, "-to", end,
		"-i", src,
	}
	if haveAudio {
		args = append(args,
			"-i", audioTmp,
			"-map", "0:v:0", "-map", "1:a:0",
			"-c:a", "copy",
		)
	} else {
		args = append(args, "-an")
	}
	args = append(args,
		"-c:v", "libx264", "-preset", "veryfast",
		"-movflags", "+faststart",
		dst,
	)
	if err := c.run(ctx, c.FFmpegPath, args, logw); err != nil {
		return fmt.Errorf("cut %s [%d-%ds]: %w", src, r.StartSec, r.EndSec, err)
	}
	fmt.Fprintln(logw, "Done.")

	if _, err := os.Stat(dst); err != nil {
		return fmt.Errorf("cut %s: no output produced: %w", src, err)
	}
	return nil
}
