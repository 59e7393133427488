// Package cache keeps downloaded media on disk so repeated extractions of
// the same video (or the same segment) skip the download. Byte accounting
// and LRU order live in sqlite; the bytes live as flat files under CacheDir.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cutplane/chaptercut/internal/config"
	"github.com/cutplane/chaptercut/internal/repository"
)

type FileCache struct {
	cfg  *config.Config
	repo *repository.Repo
	mu   sync.Mutex
}

func NewFileCache(cfg *config.Config, repo *repository.Repo) *FileCache {
	return &FileCache{cfg: cfg, repo: repo}
}

// Key identifies one downloaded artifact: the source reference plus the
// requested range, since a segment download and a full download of the same
// video are different files.
func Key(ref string, startSec, endSec int) string {
	return fmt.Sprintf("%s#%d-%d", ref, startSec, endSec)
}

func (c *FileCache) HashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func (c *FileCache) PathFor(hash string) string {
	return filepath.Join(c.cfg.CacheDir, hash)
}

// Get returns the cached path for hash if the file still exists, refreshing
// its LRU position. A row without a file is stale bookkeeping and is dropped.
func (c *FileCache) Get(ctx context.Context, hash string) (string, bool) {
	p := c.PathFor(hash)
	if _, err := os.Stat(p); err == nil {
		_ = c.repo.CacheTouch(ctx, hash, 0, false)
		return p, true
	}
	_ = c.repo.CacheRemove(ctx, hash)
	return "", false
}

// Put moves a finished download into the cache and records it. Empty files
// are discarded rather than cached.
func (c *FileCache) Put(ctx context.Context, hash, srcPath string) (string, error) {
	info, err := os.Stat(srcPath)
	if err != nil {
		return "", err
	}
	if info.Size() == 0 {
		_ = os.Remove(srcPath)
		return "", fmt.Errorf("refusing to cache empty file %s", srcPath)
	}
	final := c.PathFor(hash)
	if err := os.Rename(srcPath, final); err != nil {
		// source may sit on another filesystem (session tmp dir)
		if err := copyFile(srcPath, final); err != nil {
			return "", err
		}
		_ = os.Remove(srcPath)
	}
	_ = c.repo.CacheTouch(ctx, hash, info.Size(), true)
	if err := c.evictIfNeeded(ctx); err != nil {
		return "", err
	}
	return final, nil
}

func (c *FileCache) evictIfNeeded(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	total, err := c.repo.CacheTotalBytes(ctx)
	if err != nil {
		return err
	}
	for total > c.cfg.CacheLimitBytes {
		oldest, err := c.repo.CacheOldest(ctx)
		if err != nil {
			return err
		}
		_ = os.Remove(c.PathFor(oldest))
		_ = c.repo.CacheRemove(ctx, oldest)
		total, err = c.repo.CacheTotalBytes(ctx)
		if err != nil {
			return err
		}
	}
	return nil
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
