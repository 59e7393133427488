package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func atoiDefault(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func mustAtoi64(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// LoadConfig builds configuration from an optional YAML file
// (CHAPTERCUT_CONFIG) with environment variables taking precedence.
// Directories are created on load.
func LoadConfig() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CHAPTERCUT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(cfg.DataDir, "cache")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(cfg.DataDir, "segments")
	}
	if cfg.MaxDurationSec <= 0 {
		return nil, ErrConfig("max_duration_sec must be positive")
	}
	if cfg.FallbackWindowSec <= 0 {
		return nil, ErrConfig("fallback_window_sec must be positive")
	}

	_ = os.MkdirAll(cfg.DataDir, 0o755)
	_ = os.MkdirAll(cfg.CacheDir, 0o755)
	_ = os.MkdirAll(filepath.Join(cfg.CacheDir, "tmp"), 0o755)
	_ = os.MkdirAll(cfg.OutputDir, 0o755)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		DataDir:             "./data",
		CacheLimitBytes:     2 << 30, // 2GB
		MaxChapters:         20,
		MaxDescriptionLines: 500,
		MaxDurationSec:      3600,
		MaxFileSizeMB:       500,
		FallbackWindowSec:   60,
		MaxSegmentSec:       0,
		FFmpegPath:          "ffmpeg",
		DownloadFormat:      "best[height<=480]/worst",
		ListenAddr:          ":8490",
		SessionTTLMin:       60,
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("CACHE_LIMIT"); v != "" {
		cfg.CacheLimitBytes = mustAtoi64(v)
	}
	cfg.MaxChapters = atoiDefault(getenv("MAX_CHAPTERS", ""), cfg.MaxChapters)
	cfg.MaxDescriptionLines = atoiDefault(getenv("MAX_DESCRIPTION_LINES", ""), cfg.MaxDescriptionLines)
	cfg.MaxDurationSec = atoiDefault(getenv("MAX_DURATION_SEC", ""), cfg.MaxDurationSec)
	cfg.MaxFileSizeMB = atoiDefault(getenv("MAX_FILE_SIZE_MB", ""), cfg.MaxFileSizeMB)
	cfg.FallbackWindowSec = atoiDefault(getenv("FALLBACK_WINDOW_SEC", ""), cfg.FallbackWindowSec)
	cfg.MaxSegmentSec = atoiDefault(getenv("MAX_SEGMENT_SEC", ""), cfg.MaxSegmentSec)
	cfg.SessionTTLMin = atoiDefault(getenv("SESSION_TTL_MIN", ""), cfg.SessionTTLMin)
	if v := os.Getenv("FFMPEG_PATH"); v != "" {
		cfg.FFmpegPath = v
	}
	if v := os.Getenv("DOWNLOAD_FORMAT"); v != "" {
		cfg.DownloadFormat = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
