package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeArchive()
	c.normalizeDataset()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		c.Paths.DownloadDir = defaultDownloadDir
	}
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeArchive() {
	c.Archive.URL = strings.TrimSpace(c.Archive.URL)
	if c.Archive.URL == "" {
		if value, ok := os.LookupEnv("CLIPSET_ARCHIVE_URL"); ok {
			c.Archive.URL = strings.TrimSpace(value)
		}
	}
	ext := strings.ToLower(strings.TrimSpace(c.Archive.Extension))
	if ext == "" {
		ext = defaultArchiveExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Archive.Extension = ext
	c.Archive.LabelSource = strings.ToLower(strings.TrimSpace(c.Archive.LabelSource))
	if c.Archive.LabelSource == "" {
		c.Archive.LabelSource = defaultLabelSource
	}
	if c.Archive.LabelSeparator == "" {
		c.Archive.LabelSeparator = defaultLabelSeparator
	}
	if c.Archive.RequestTimeoutSeconds <= 0 {
		c.Archive.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
}

func (c *Config) normalizeDataset() {
	if len(c.Dataset.Splits) == 0 {
		c.Dataset.Splits = DefaultSplits()
	}
	for i := range c.Dataset.Splits {
		c.Dataset.Splits[i].Name = strings.TrimSpace(c.Dataset.Splits[i].Name)
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
