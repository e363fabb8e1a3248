package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DownloadDir string `toml:"download_dir"`
	StateDir    string `toml:"state_dir"`
	LogDir      string `toml:"log_dir"`
}

// Archive describes the remote zip archive and how its entries map to classes.
type Archive struct {
	URL                   string `toml:"url"`
	Extension             string `toml:"extension"`
	MinPathSegments       int    `toml:"min_path_segments"`
	LabelSource           string `toml:"label_source"`
	LabelSeparator        string `toml:"label_separator"`
	LabelTokenFromEnd     int    `toml:"label_token_from_end"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Split is a named partition with a per-class file count.
type Split struct {
	Name  string `toml:"name"`
	Count int    `toml:"count"`
}

// Dataset controls class selection and split allocation.
type Dataset struct {
	NumClasses    int     `toml:"num_classes"`
	FilesPerClass int     `toml:"files_per_class"`
	Seed          int64   `toml:"seed"`
	Splits        []Split `toml:"splits"`
}

// Sampler contains frame sampling parameters.
type Sampler struct {
	NFrames        int  `toml:"n_frames"`
	Height         int  `toml:"height"`
	Width          int  `toml:"width"`
	FrameStep      int  `toml:"frame_step"`
	BatchSize      int  `toml:"batch_size"`
	SkipUnreadable bool `toml:"skip_unreadable"`
}

// FFmpeg names the external media binaries.
type FFmpeg struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for clipset.
//
// Configuration sections by subsystem:
//   - Paths: dataset, state (manifest) and log directories
//   - Archive: remote zip location and class labeling convention
//   - Dataset: class count, per-class limits, seed and split sizes
//   - Sampler: frame count, output size, stride and batching
//   - FFmpeg: decoder binaries
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Archive Archive `toml:"archive"`
	Dataset Dataset `toml:"dataset"`
	Sampler Sampler `toml:"sampler"`
	FFmpeg  FFmpeg  `toml:"ffmpeg"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clipset/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// Splits configured in the file replace the defaults rather than merging.
		cfg.Dataset.Splits = nil
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/clipset/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clipset.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The download
// directory is deliberately left alone: split directories are created by the
// builder and their existence is meaningful.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SplitDir returns the directory a named split is materialized into.
func (c *Config) SplitDir(name string) string {
	return filepath.Join(c.Paths.DownloadDir, name)
}

// ManifestPath returns the SQLite manifest location.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.Paths.StateDir, "manifest.db")
}

// RequestTimeout returns the per-request HTTP timeout for archive access.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Archive.RequestTimeoutSeconds) * time.Second
}

// FFmpegBinary returns the ffmpeg executable used for frame decoding.
func (c *Config) FFmpegBinary() string {
	if v := strings.TrimSpace(c.FFmpeg.FFmpegBinary); v != "" {
		return v
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	if v := strings.TrimSpace(c.FFmpeg.FFprobeBinary); v != "" {
		return v
	}
	return defaultFFprobeBinary
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
