// Package server is the thin HTTP front-end. Handlers validate input, call
// the extraction pipeline and translate its errors into status codes; all of
// the interesting work happens elsewhere.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cutplane/chaptercut/internal/chapters"
	"github.com/cutplane/chaptercut/internal/extractor"
	"github.com/cutplane/chaptercut/internal/media"
	"github.com/cutplane/chaptercut/internal/progress"
	"github.com/cutplane/chaptercut/internal/repository"
	"github.com/cutplane/chaptercut/internal/timecode"
)

// Pipeline is the slice of the extractor the handlers need.
type Pipeline interface {
	Analyze(ctx context.Context, ref string) (*extractor.Analysis, error)
	ExtractChapters(ctx context.Context, ref string, sel chapters.Selection, onProgress progress.Sink) (*extractor.Result, error)
}

type Server struct {
	pipeline Pipeline
	repo     *repository.Repo // nil disables /api/jobs
	router   *chi.Mux
}

func New(pipeline Pipeline, repo *repository.Repo) *Server {
	s := &Server{pipeline: pipeline, repo: repo, router: chi.NewRouter()}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/extract", s.handleExtract)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleGetJob)
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeRequest struct {
	URL string `json:"url"`
}

type chapterJSON struct {
	Index   int    `json:"index"`
	Time    string `json:"time"`
	Seconds int    `json:"seconds"`
	Title   string `json:"title"`
}

type analyzeResponse struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Uploader    string        `json:"uploader,omitempty"`
	DurationSec int           `json:"duration_seconds"`
	Chapters    []chapterJSON `json:"chapters"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "missing or malformed url")
		return
	}

	a, err := s.pipeline.Analyze(r.Context(), req.URL)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	resp := analyzeResponse{
		ID:          a.Info.ID,
		Title:       a.Info.Title,
		Uploader:    a.Info.Uploader,
		DurationSec: a.Info.DurationSec,
		Chapters:    make([]chapterJSON, 0, len(a.Chapters)),
	}
	for i, m := range a.Chapters {
		resp.Chapters = append(resp.Chapters, chapterJSON{
			Index:   i,
			Time:    timecode.Format(m.Time.Seconds()),
			Seconds: m.Time.Seconds(),
			Title:   m.Title,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type extractRequest struct {
	URL string `json:"url"`
	// Selection: "all" (default), "first", or a zero-based chapter index.
	All     bool `json:"all"`
	First   bool `json:"first"`
	Chapter *int `json:"chapter"`
}

func (req *extractRequest) selection() chapters.Selection {
	switch {
	case req.Chapter != nil:
		return chapters.SelectIndex(*req.Chapter)
	case req.First:
		return chapters.SelectFirst()
	default:
		return chapters.SelectAll()
	}
}

type extractChapterJSON struct {
	Index      int    `json:"index"`
	Title      string `json:"title"`
	OutputPath string `json:"output_path,omitempty"`
	Error      string `json:"error,omitempty"`
}

type extractResponse struct {
	JobID     int64                `json:"job_id,omitempty"`
	Title     string               `json:"title"`
	Succeeded int                  `json:"succeeded"`
	Total     int                  `json:"total"`
	Chapters  []extractChapterJSON `json:"chapters"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "missing or malformed url")
		return
	}

	res, err := s.pipeline.ExtractChapters(r.Context(), req.URL, req.selection(), func(pct float64, msg string) {
		slog.Debug("extract progress", "url", req.URL, "pct", pct, "msg", msg)
	})
	if err != nil {
		writePipelineError(w, err)
		return
	}

	resp := extractResponse{
		JobID:     res.JobID,
		Title:     res.Info.Title,
		Succeeded: res.Succeeded(),
		Total:     len(res.Results),
		Chapters:  make([]extractChapterJSON, 0, len(res.Results)),
	}
	for _, cr := range res.Results {
		cj := extractChapterJSON{Index: cr.Index, Title: cr.Marker.Title, OutputPath: cr.OutputPath}
		if cr.Err != nil {
			cj.Error = cr.Err.Error()
		}
		resp.Chapters = append(resp.Chapters, cj)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusNotFound, "job history disabled")
		return
	}
	jobs, err := s.repo.ListJobs(r.Context(), 50)
	if err != nil {
		slog.Error("list jobs", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusNotFound, "job history disabled")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed job id")
		return
	}
	job, err := s.repo.GetJob(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type envelope struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Data: data}); err != nil {
		slog.Error("encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Error: msg}); err != nil {
		slog.Error("encode error response", "err", err)
	}
}

// writePipelineError maps classified pipeline errors onto status codes.
func writePipelineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, media.ErrInvalidReference):
		status = http.StatusBadRequest
	case errors.Is(err, media.ErrPrivate):
		status = http.StatusForbidden
	case errors.Is(err, media.ErrUnavailable):
		status = http.StatusNotFound
	case errors.Is(err, media.ErrLive),
		errors.Is(err, media.ErrTooLong),
		errors.Is(err, extractor.ErrNoChapters):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, media.ErrTimeout):
		status = http.StatusGatewayTimeout
	}
	writeError(w, status, err.Error())
}
