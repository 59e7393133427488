package media

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	ytdlp "github.com/lrstanley/go-ytdlp"
)

// VideoInfo is the slice of yt-dlp metadata the extractor cares about.
type VideoInfo struct {
	ID          string
	Title       string
	Uploader    string
	Description string
	DurationSec int
	IsLive      bool
	WebpageURL  string
}

// Client wraps yt-dlp for metadata and media acquisition.
type Client struct {
	Format        string
	MaxFileSizeMB int
	Timeout       time.Duration
}

func NewClient(format string, maxFileSizeMB int) *Client {
	return &Client{
		Format:        format,
		MaxFileSizeMB: maxFileSizeMB,
		Timeout:       2 * time.Minute,
	}
}

var installOnce sync.Once

func ensureInstalled(ctx context.Context) {
	installOnce.Do(func() {
		// availability issues surface on the first Run call anyway
		ytdlp.MustInstall(ctx, nil)
	})
}

// helpers to safely read pointer fields with defaults
func s(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func f(ptr *float64) float64 {
	if ptr == nil {
		return 0
	}
	return *ptr
}

func b(ptr *bool) bool {
	if ptr == nil {
		return false
	}
	return *ptr
}

// GetInfo fetches title, description and duration without downloading media.
// Failures come back classified: ErrPrivate, ErrUnavailable, ErrTimeout or
// ErrInvalidReference.
func (c *Client) GetInfo(ctx context.Context, ref string) (*VideoInfo, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	ensureInstalled(ctx)

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	cmd := ytdlp.New().
		SkipDownload().
		NoWarnings().
		NoCheckCertificates().
		NoPlaylist().
		DumpJSON()

	res, err := cmd.Run(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", classify(err))
	}
	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("parse yt-dlp json: %w", err)
	}
	if len(infos) == 0 || infos[0] == nil {
		return nil, fmt.Errorf("fetch metadata: %w", ErrUnavailable)
	}
	ext := infos[0]

	return &VideoInfo{
		ID:          ext.ID,
		Title:       s(ext.Title),
		Uploader:    s(ext.Uploader),
		Description: s(ext.Description),
		DurationSec: int(f(ext.Duration)),
		IsLive:      b(ext.IsLive),
		WebpageURL:  s(ext.WebpageURL),
	}, nil
}

// DownloadOptions hint at what part of the media is wanted. yt-dlp is free
// to ignore the range and hand back the full file.
type DownloadOptions struct {
	StartSec int
	EndSec   int // 0 = no range hint
	Progress func(percent float64, message string)
}

// Download fetches media for ref into dir and returns the local path.
// When a range hint is present only that section is requested, which is much
// faster for a single chapter. Size caps abort oversized downloads.
func (c *Client) Download(ctx context.Context, ref, dir string, opts DownloadOptions) (string, error) {
	if err := validateRef(ref); err != nil {
		return "", err
	}
	ensureInstalled(ctx)

	outBase := filepath.Join(dir, "source")
	clearStaleDownloads(outBase)

	cmd := ytdlp.New().
		Format(c.Format).
		Output(outBase + ".%(ext)s").
		NoCheckCertificates().
		NoPlaylist()

	if c.MaxFileSizeMB > 0 {
		cmd = cmd.MaxFileSize(fmt.Sprintf("%dM", c.MaxFileSizeMB))
	}
	if opts.EndSec > opts.StartSec {
		cmd = cmd.DownloadSections(fmt.Sprintf("*%d-%d", opts.StartSec, opts.EndSec))
	}
	if opts.Progress != nil {
		cmd = cmd.ProgressFunc(500*time.Millisecond, func(u ytdlp.ProgressUpdate) {
			if u.Status != ytdlp.ProgressStatusDownloading {
				return
			}
			pct := u.Percent()
			opts.Progress(pct, fmt.Sprintf("Downloading: %.1f%%", pct))
		})
	}

	if _, err := cmd.Run(ctx, ref); err != nil {
		return "", fmt.Errorf("%w: %s", ErrDownloadFailed, classify(err))
	}

	path, err := findDownloaded(outBase)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrDownloadFailed, err)
	}
	return path, nil
}

// findDownloaded locates the file yt-dlp produced; the extension depends on
// what format the site served.
func findDownloaded(outBase string) (string, error) {
	for _, ext := range []string{"mp4", "webm", "mkv", "avi", "flv"} {
		p := outBase + "." + ext
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	matches, _ := filepath.Glob(outBase + ".*")
	for _, m := range matches {
		if !strings.HasSuffix(m, ".part") {
			return m, nil
		}
	}
	return "", fmt.Errorf("no output file found at %s.*", outBase)
}

func clearStaleDownloads(outBase string) {
	matches, _ := filepath.Glob(outBase + ".*")
	for _, m := range matches {
		_ = os.Remove(m)
	}
}

func validateRef(ref string) error {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}
	return nil
}
