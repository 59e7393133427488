package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutplane/chaptercut/internal/config"
)

func testRepo(t *testing.T) *Repo {
	t.Helper()
	cfg := &config.Config{DataDir: t.TempDir()}
	db, err := OpenDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepo(db)
}

func TestJobs_Lifecycle(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	id, err := r.CreateJob(ctx, "abc123", "Cooking Stream", 5, filepath.Join("out", "abc123"))
	require.NoError(t, err)
	require.NotZero(t, id)

	j, err := r.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "abc123", j.VideoID)
	assert.Equal(t, "Cooking Stream", j.Title)
	assert.Equal(t, 5, j.ChapterCount)
	assert.Equal(t, JobStatusRunning, j.Status)

	require.NoError(t, r.FinishJob(ctx, id, JobStatusPartial))
	j, err = r.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPartial, j.Status)
}

func TestJobs_ListNewestFirst(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	first, err := r.CreateJob(ctx, "vid1", "One", 1, "")
	require.NoError(t, err)
	second, err := r.CreateJob(ctx, "vid2", "Two", 2, "")
	require.NoError(t, err)

	jobs, err := r.ListJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, second, jobs[0].ID)
	assert.Equal(t, first, jobs[1].ID)
}

func TestCache_Accounting(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CacheTouch(ctx, "aaa", 100, true))
	require.NoError(t, r.CacheTouch(ctx, "bbb", 250, true))

	total, err := r.CacheTotalBytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(350), total)

	oldest, err := r.CacheOldest(ctx)
	require.NoError(t, err)
	assert.Contains(t, []string{"aaa", "bbb"}, oldest)

	require.NoError(t, r.CacheRemove(ctx, "aaa"))
	total, err = r.CacheTotalBytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(250), total)
}

func TestCache_EmptyOldest(t *testing.T) {
	r := testRepo(t)
	_, err := r.CacheOldest(context.Background())
	assert.Error(t, err)
}
