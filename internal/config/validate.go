package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validateSampler(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateArchiveURL reports whether an archive URL has been configured. It is
// separate from Validate because only the index and build commands need one.
func (c *Config) ValidateArchiveURL() error {
	if c.Archive.URL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/clipset/config.toml"
		}
		return fmt.Errorf("archive.url is required. Set CLIPSET_ARCHIVE_URL or edit %s (create with 'clipset config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateArchive() error {
	if c.Archive.URL != "" {
		parsed, err := url.Parse(c.Archive.URL)
		if err != nil {
			return fmt.Errorf("archive.url: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("archive.url must use http or https, got %q", parsed.Scheme)
		}
	}
	if c.Archive.MinPathSegments < 0 {
		return errors.New("archive.min_path_segments must be >= 0")
	}
	switch c.Archive.LabelSource {
	case LabelSourceToken:
		if c.Archive.LabelTokenFromEnd < 1 {
			return errors.New("archive.label_token_from_end must be >= 1")
		}
	case LabelSourceParentDir:
	default:
		return fmt.Errorf("archive.label_source: unsupported value %q (want %q or %q)", c.Archive.LabelSource, LabelSourceToken, LabelSourceParentDir)
	}
	return nil
}

func (c *Config) validateDataset() error {
	if c.Dataset.NumClasses < 1 {
		return errors.New("dataset.num_classes must be positive")
	}
	if c.Dataset.FilesPerClass < 0 {
		return errors.New("dataset.files_per_class must be >= 0")
	}
	seen := make(map[string]struct{}, len(c.Dataset.Splits))
	for i, split := range c.Dataset.Splits {
		if split.Name == "" {
			return fmt.Errorf("dataset.splits[%d].name must be set", i)
		}
		if split.Name != filepath.Base(split.Name) || strings.HasPrefix(split.Name, ".") {
			return fmt.Errorf("dataset.splits[%d].name %q must be a plain directory name", i, split.Name)
		}
		if _, dup := seen[split.Name]; dup {
			return fmt.Errorf("dataset.splits: duplicate split %q", split.Name)
		}
		seen[split.Name] = struct{}{}
		if split.Count < 0 {
			return fmt.Errorf("dataset.splits[%d].count must be >= 0", i)
		}
	}
	return nil
}

func (c *Config) validateSampler() error {
	if c.Sampler.NFrames < 1 {
		return errors.New("sampler.n_frames must be positive")
	}
	if c.Sampler.Height < 1 || c.Sampler.Width < 1 {
		return errors.New("sampler.height and sampler.width must be positive")
	}
	if c.Sampler.FrameStep < 1 {
		return errors.New("sampler.frame_step must be positive")
	}
	if c.Sampler.BatchSize < 1 {
		return errors.New("sampler.batch_size must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
