// Package extractor sequences the whole pipeline: fetch metadata, mine the
// description for chapters, resolve boundaries, download, cut each chapter
// and narrate progress. It owns no interesting logic itself; the pieces do.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cutplane/chaptercut/internal/cache"
	"github.com/cutplane/chaptercut/internal/chapters"
	"github.com/cutplane/chaptercut/internal/config"
	"github.com/cutplane/chaptercut/internal/media"
	"github.com/cutplane/chaptercut/internal/probe"
	"github.com/cutplane/chaptercut/internal/progress"
	"github.com/cutplane/chaptercut/internal/repository"
	"github.com/cutplane/chaptercut/internal/session"
)

// ErrNoChapters means the description held no recoverable markers. It is a
// supported terminal state: the caller can still offer a full download.
var ErrNoChapters = errors.New("no chapters found in description")

type MetadataFetcher interface {
	GetInfo(ctx context.Context, ref string) (*media.VideoInfo, error)
}

type Downloader interface {
	Download(ctx context.Context, ref, dir string, opts media.DownloadOptions) (string, error)
}

type Prober interface {
	Probe(path string) (*probe.MediaInfo, error)
}

// ProberFunc adapts a plain probe function.
type ProberFunc func(path string) (*probe.MediaInfo, error)

func (f ProberFunc) Probe(path string) (*probe.MediaInfo, error) { return f(path) }

type SegmentCutter interface {
	Cut(ctx context.Context, src, dst string, r chapters.Range, logw io.Writer) error
}

type Extractor struct {
	cfg    *config.Config
	meta   MetadataFetcher
	dl     Downloader
	prober Prober
	cutter SegmentCutter
	cache  *cache.FileCache // nil disables caching
	repo   *repository.Repo // nil disables job history
}

func New(cfg *config.Config, meta MetadataFetcher, dl Downloader, pr Prober, ct SegmentCutter, fc *cache.FileCache, repo *repository.Repo) *Extractor {
	return &Extractor{cfg: cfg, meta: meta, dl: dl, prober: pr, cutter: ct, cache: fc, repo: repo}
}

// Analysis is what one look at a video yields: its metadata and whatever
// chapter list the description gave up.
type Analysis struct {
	Info     *media.VideoInfo
	Chapters chapters.List
}

// Analyze fetches metadata and runs the extraction engine over the
// description. An empty chapter list is a normal outcome, not an error;
// live and over-long videos are refused here before any download happens.
func (e *Extractor) Analyze(ctx context.Context, ref string) (*Analysis, error) {
	info, err := e.meta.GetInfo(ctx, ref)
	if err != nil {
		return nil, err
	}
	if info.IsLive {
		return nil, fmt.Errorf("%q: %w", info.Title, media.ErrLive)
	}
	if e.cfg.MaxDurationSec > 0 && info.DurationSec > e.cfg.MaxDurationSec {
		return nil, fmt.Errorf("%q is %ds long (limit %ds): %w",
			info.Title, info.DurationSec, e.cfg.MaxDurationSec, media.ErrTooLong)
	}

	list := chapters.Extract(info.Description, chapters.Options{
		MaxChapters: e.cfg.MaxChapters,
		MaxLines:    e.cfg.MaxDescriptionLines,
	})
	slog.Info("analyzed video", "id", info.ID, "title", info.Title, "chapters", len(list))
	return &Analysis{Info: info, Chapters: list}, nil
}

// ChapterResult is the per-marker outcome of a batch extraction.
type ChapterResult struct {
	Index      int
	Marker     chapters.Marker
	OutputPath string
	Err        error
}

type Result struct {
	Info    *media.VideoInfo
	JobID   int64
	Results []ChapterResult
}

// Succeeded counts the chapters that produced output.
func (r *Result) Succeeded() int {
	n := 0
	for _, c := range r.Results {
		if c.Err == nil {
			n++
		}
	}
	return n
}

// ExtractChapters runs the full pipeline for the selected markers. One bad
// chapter never sinks the batch: its failure lands in its ChapterResult and
// the rest proceed. Pipeline-level failures (metadata, download) abort.
func (e *Extractor) ExtractChapters(ctx context.Context, ref string, sel chapters.Selection, onProgress progress.Sink) (*Result, error) {
	report := func(pct float64, msg string) {
		if onProgress != nil {
			onProgress(pct, msg)
		}
	}

	report(5, "Fetching video information...")
	analysis, err := e.Analyze(ctx, ref)
	if err != nil {
		return nil, err
	}
	info := analysis.Info
	if len(analysis.Chapters) == 0 {
		return nil, fmt.Errorf("%q: %w", info.Title, ErrNoChapters)
	}
	report(15, fmt.Sprintf("Found %d chapters", len(analysis.Chapters)))

	ranges, skipped := chapters.Resolve(analysis.Chapters, sel, chapters.ResolveOptions{
		FallbackWindowSec: e.cfg.FallbackWindowSec,
		MaxSegmentSec:     e.cfg.MaxSegmentSec,
		MediaDurationSec:  info.DurationSec,
	})
	report(30, fmt.Sprintf("Resolved %d extraction ranges", len(ranges)))

	res := &Result{Info: info}
	for _, sk := range skipped {
		res.Results = append(res.Results, ChapterResult{
			Index:  sk.MarkerIndex,
			Marker: markerAt(analysis.Chapters, sk.MarkerIndex),
			Err:    sk.Err,
		})
	}
	if len(ranges) == 0 {
		return res, nil
	}

	sess, err := session.New(e.cfg.DataDir)
	if err != nil {
		return nil, err
	}
	defer sess.Cleanup()

	if e.repo != nil {
		res.JobID, err = e.repo.CreateJob(ctx, info.ID, info.Title, len(ranges), e.cfg.OutputDir)
		if err != nil {
			slog.Error("record job", "err", err)
		}
	}

	// a single chapter can be fetched as a section, which is far cheaper
	var offset int
	dlOpts := media.DownloadOptions{
		Progress: func(pct float64, msg string) {
			report(45+pct/100*15, msg)
		},
	}
	if len(ranges) == 1 {
		dlOpts.StartSec = ranges[0].StartSec
		dlOpts.EndSec = ranges[0].EndSec
		offset = ranges[0].StartSec
	}
	report(45, "Downloading media...")
	src, err := e.fetchMedia(ctx, ref, sess.Dir, dlOpts)
	if err != nil {
		e.finishJob(ctx, res.JobID, repository.JobStatusFailed)
		return nil, err
	}
	report(60, "Download complete")

	var mediaDur float64
	if mi, err := e.prober.Probe(src); err != nil {
		slog.Warn("probe failed, trusting metadata duration", "path", src, "err", err)
		mediaDur = float64(info.DurationSec - offset)
	} else {
		mediaDur = mi.DurationSec
		// the downloader is free to ignore the range hint; a file much
		// longer than the requested section is the full media
		if offset > 0 && mediaDur > float64(ranges[0].DurationSec()+5) {
			offset = 0
		}
	}

	total := len(ranges)
	for i, r := range ranges {
		marker := markerAt(analysis.Chapters, r.MarkerIndex)
		outName := fmt.Sprintf("%02d_%s.mp4", r.MarkerIndex+1, session.CleanFilename(marker.Title))
		outPath := filepath.Join(e.cfg.OutputDir, outName)

		cr := ChapterResult{Index: r.MarkerIndex, Marker: marker, OutputPath: outPath}
		cr.Err = e.cutOne(ctx, src, outPath, r, offset, mediaDur, chapterSink(report, i, total, marker.Title))
		if cr.Err != nil {
			cr.OutputPath = ""
			slog.Error("chapter extraction failed", "index", r.MarkerIndex, "title", marker.Title, "err", cr.Err)
		}
		res.Results = append(res.Results, cr)
	}

	report(95, "Cleaning up...")
	e.finishJob(ctx, res.JobID, jobStatus(res))
	report(100, fmt.Sprintf("Extracted %d/%d chapters", res.Succeeded(), total))
	return res, nil
}

// cutOne rebases a range onto the downloaded file (which may itself be a
// section), clamps it to the probed duration and hands it to the cutter
// with a fresh progress estimator.
func (e *Extractor) cutOne(ctx context.Context, src, dst string, r chapters.Range, offset int, mediaDur float64, sink progress.Sink) error {
	local := chapters.Range{
		StartSec:    r.StartSec - offset,
		EndSec:      r.EndSec - offset,
		MarkerIndex: r.MarkerIndex,
	}
	if mediaDur > 0 && float64(local.EndSec) > mediaDur {
		local.EndSec = int(mediaDur)
	}
	if local.StartSec >= local.EndSec {
		return fmt.Errorf("range %d-%ds collapsed against media duration %.0fs", r.StartSec, r.EndSec, mediaDur)
	}

	est := progress.NewEstimator(progress.DefaultBase, sink)
	lw := progress.NewLineWriter(est)
	defer lw.Flush()
	return e.cutter.Cut(ctx, src, dst, local, lw)
}

// fetchMedia consults the cache before asking the downloader, and stores
// fresh downloads for next time.
func (e *Extractor) fetchMedia(ctx context.Context, ref, dir string, opts media.DownloadOptions) (string, error) {
	if e.cache == nil {
		return e.dl.Download(ctx, ref, dir, opts)
	}
	hash := e.cache.HashKey(cache.Key(ref, opts.StartSec, opts.EndSec))
	if p, ok := e.cache.Get(ctx, hash); ok {
		slog.Info("cache hit", "ref", ref)
		return p, nil
	}
	p, err := e.dl.Download(ctx, ref, dir, opts)
	if err != nil {
		return "", err
	}
	cached, err := e.cache.Put(ctx, hash, p)
	if err != nil {
		slog.Warn("cache store failed, using session copy", "err", err)
		return p, nil
	}
	return cached, nil
}

// DownloadFull fetches the entire video into the output directory, the path
// offered when a description yields no chapters.
func (e *Extractor) DownloadFull(ctx context.Context, ref string, onProgress progress.Sink) (string, error) {
	report := func(pct float64, msg string) {
		if onProgress != nil {
			onProgress(pct, msg)
		}
	}

	report(5, "Fetching video information...")
	analysis, err := e.Analyze(ctx, ref)
	if err != nil {
		return "", err
	}

	sess, err := session.New(e.cfg.DataDir)
	if err != nil {
		return "", err
	}
	defer sess.Cleanup()

	report(25, "Downloading complete video...")
	src, err := e.fetchMedia(ctx, ref, sess.Dir, media.DownloadOptions{
		Progress: func(pct float64, msg string) {
			report(25+pct/100*60, msg)
		},
	})
	if err != nil {
		return "", err
	}

	dst := filepath.Join(e.cfg.OutputDir, session.CleanFilename(analysis.Info.Title)+".mp4")
	report(90, "Saving complete video...")
	if err := copyFile(src, dst); err != nil {
		return "", err
	}
	report(100, "Complete video saved")
	return dst, nil
}

func (e *Extractor) finishJob(ctx context.Context, id int64, status string) {
	if e.repo == nil || id == 0 {
		return
	}
	if err := e.repo.FinishJob(ctx, id, status); err != nil {
		slog.Error("finish job", "id", id, "err", err)
	}
}

func jobStatus(res *Result) string {
	ok := res.Succeeded()
	switch {
	case ok == len(res.Results):
		return repository.JobStatusDone
	case ok > 0:
		return repository.JobStatusPartial
	default:
		return repository.JobStatusFailed
	}
}

// chapterSink maps one chapter's encode progress (base..base+10) into this
// batch's slice of the overall 60..85 band.
func chapterSink(report progress.Sink, index, total int, title string) progress.Sink {
	return func(pct float64, msg string) {
		frac := (pct - progress.DefaultBase) / 10
		overall := 60 + (float64(index)+frac)/float64(total)*25
		report(overall, fmt.Sprintf("Chapter %d/%d: %s - %s", index+1, total, title, msg))
	}
}

func markerAt(list chapters.List, i int) chapters.Marker {
	if i >= 0 && i < len(list) {
		return list[i]
	}
	return chapters.Marker{}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
