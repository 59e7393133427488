package config

type Config struct {
	DataDir         string `yaml:"data_dir"`
	CacheDir        string `yaml:"cache_dir"`
	OutputDir       string `yaml:"output_dir"`
	CacheLimitBytes int64  `yaml:"cache_limit_bytes"`

	// extraction limits for public deployments
	MaxChapters         int `yaml:"max_chapters"`
	MaxDescriptionLines int `yaml:"max_description_lines"`
	MaxDurationSec      int `yaml:"max_duration_sec"`
	MaxFileSizeMB       int `yaml:"max_file_size_mb"`

	// boundary resolution
	FallbackWindowSec int `yaml:"fallback_window_sec"`
	MaxSegmentSec     int `yaml:"max_segment_sec"`

	// collaborators
	FFmpegPath     string `yaml:"ffmpeg_path"`
	DownloadFormat string `yaml:"download_format"`

	// serve mode
	ListenAddr string `yaml:"listen_addr"`

	// stale session sweep
	SessionTTLMin int `yaml:"session_ttl_min"`
}
