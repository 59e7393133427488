package media

import (
	"context"
	"errors"
	"strings"
)

// Classified collaborator failures. Callers branch with errors.Is; everything
// unrecognized stays a plain wrapped error.
var (
	ErrUnavailable      = errors.New("video unavailable")
	ErrPrivate          = errors.New("video is private")
	ErrTimeout          = errors.New("metadata fetch timed out")
	ErrInvalidReference = errors.New("not a valid video reference")
	ErrDownloadFailed   = errors.New("download failed")
	ErrTooLong          = errors.New("video exceeds the duration limit")
	ErrLive             = errors.New("live streams cannot be extracted")
)

// classify maps yt-dlp failures onto the sentinel taxonomy by inspecting the
// tool's message text, since exit codes do not distinguish the cases.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "private video"):
		return ErrPrivate
	case strings.Contains(msg, "video unavailable"),
		strings.Contains(msg, "this video is not available"),
		strings.Contains(msg, "removed by the uploader"):
		return ErrUnavailable
	case strings.Contains(msg, "is not a valid url"),
		strings.Contains(msg, "unsupported url"):
		return ErrInvalidReference
	case strings.Contains(msg, "timed out"), strings.Contains(msg, "timeout"):
		return ErrTimeout
	}
	return err
}
