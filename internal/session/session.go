// Package session owns the temp-file lifecycle around one extraction run.
// Every run gets its own directory so concurrent users never collide, and
// directories left behind by crashed runs are swept on a TTL.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Session struct {
	ID  string
	Dir string
}

// New creates a working directory under dataDir/tmp for one extraction run.
func New(dataDir string) (*Session, error) {
	id := uuid.NewString()
	dir := filepath.Join(dataDir, "tmp", id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &Session{ID: id, Dir: dir}, nil
}

// Cleanup removes the session's working directory and everything in it.
func (s *Session) Cleanup() {
	_ = os.RemoveAll(s.Dir)
}

// SweepStale removes session directories older than ttl, catching dirs
// orphaned by crashed or abandoned runs. Returns how many were removed.
func SweepStale(dataDir string, ttl time.Duration) (int, error) {
	root := filepath.Join(dataDir, "tmp")
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := time.Now().Add(-ttl)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.RemoveAll(filepath.Join(root, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

var (
	invalidFilenameRe = regexp.MustCompile(`[<>:"/\\|?*]`)
	urlRe             = regexp.MustCompile(`https?://\S+`)
	spacesRe          = regexp.MustCompile(`\s+`)
	quotesRe          = regexp.MustCompile("[\"'`,]")
	bracketsRe        = regexp.MustCompile(`[{}\[\];]`)
)

// CleanFilename makes a chapter title safe as a filename on every platform
// chaptercut runs on, Windows included. Parentheses survive since music
// uploads lean on them for remix and feature credits.
func CleanFilename(title string) string {
	cleaned := urlRe.ReplaceAllString(title, "")
	cleaned = quotesRe.ReplaceAllString(cleaned, "")
	cleaned = invalidFilenameRe.ReplaceAllString(cleaned, "_")
	cleaned = bracketsRe.ReplaceAllString(cleaned, "_")
	cleaned = strings.TrimSpace(spacesRe.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		cleaned = "chapter"
	}
	return cleaned
}
