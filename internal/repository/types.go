package repository

import "database/sql"

type Repo struct {
	db *sql.DB
}

// JobStatus values stored in the jobs table.
const (
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
	JobStatusPartial = "partial" // some chapters extracted, some failed
)

// Job is one extraction run: which video, how many chapters were found, and
// how it ended. Rows outlive sessions so earlier output can be listed again.
type Job struct {
	ID           int64  `json:"id"`
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	ChapterCount int    `json:"chapter_count"`
	Status       string `json:"status"`
	OutputDir    string `json:"output_dir"`
	CreatedAt    int64  `json:"created_at"`
}
