package repository

import (
	"context"
	"database/sql"
	"time"
)

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) CreateJob(ctx context.Context, videoID, title string, chapterCount int, outputDir string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO jobs(video_id, title, chapter_count, status, output_dir, created_at) VALUES (?,?,?,?,?,?)`,
		videoID, title, chapterCount, JobStatusRunning, outputDir, time.Now().Unix(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) FinishJob(ctx context.Context, id int64, status string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE jobs SET status=? WHERE id=?`, status, id)
	return err
}

func (r *Repo) GetJob(ctx context.Context, id int64) (*Job, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, video_id, title, chapter_count, status, output_dir, created_at FROM jobs WHERE id=?`, id)
	var j Job
	if err := row.Scan(&j.ID, &j.VideoID, &j.Title, &j.ChapterCount, &j.Status, &j.OutputDir, &j.CreatedAt); err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repo) ListJobs(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, video_id, title, chapter_count, status, output_dir, created_at FROM jobs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.VideoID, &j.Title, &j.ChapterCount, &j.Status, &j.OutputDir, &j.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *Repo) CacheTouch(ctx context.Context, hash string, size int64, created bool) error {
	now := time.Now().Unix()
	if created {
		_, err := r.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO file_cache(hash,bytes,accessed_at,created_at) VALUES (?,?,?,COALESCE((SELECT created_at FROM file_cache WHERE hash=?),?))`,
			hash, size, now, hash, now)
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE file_cache SET accessed_at=? WHERE hash=?`, now, hash)
	return err
}

func (r *Repo) CacheRemove(ctx context.Context, hash string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM file_cache WHERE hash=?`, hash)
	return err
}

func (r *Repo) CacheTotalBytes(ctx context.Context) (int64, error) {
	row := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(bytes),0) FROM file_cache`)
	var v int64
	if err := row.Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

func (r *Repo) CacheOldest(ctx context.Context) (string, error) {
	row := r.db.QueryRowContext(ctx, `SELECT hash FROM file_cache ORDER BY accessed_at ASC LIMIT 1`)
	var hash string
	if err := row.Scan(&hash); err != nil {
		return "", err
	}
	return hash, nil
}
