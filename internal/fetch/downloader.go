package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"clipset/internal/catalog"
	"clipset/internal/faults"
	"clipset/internal/fileutil"
	"clipset/internal/logging"
	"clipset/internal/remotezip"
)

const component = "fetch"

// Extractor is the part of *remotezip.Archive the downloader needs.
type Extractor interface {
	Lookup(name string) (remotezip.Entry, bool)
	Extract(ctx context.Context, name, destDir string) (string, error)
}

// Result summarizes one Download call.
type Result struct {
	Files []string
	Bytes int64
}

// Downloader extracts archive members into class directories.
type Downloader struct {
	labeler  catalog.Labeler
	logger   *slog.Logger
	progress io.Writer
}

// DownloaderOption customizes a Downloader.
type DownloaderOption func(*Downloader)

// WithDownloadLogger attaches a logger.
func WithDownloadLogger(logger *slog.Logger) DownloaderOption {
	return func(d *Downloader) {
		d.logger = logging.NewComponentLogger(logger, component)
	}
}

// WithProgress renders a progress bar to w. A nil writer disables it.
func WithProgress(w io.Writer) DownloaderOption {
	return func(d *Downloader) {
		d.progress = w
	}
}

// NewDownloader returns a downloader that files entries under the class
// reported by labeler.
func NewDownloader(labeler catalog.Labeler, opts ...DownloaderOption) *Downloader {
	d := &Downloader{labeler: labeler, logger: logging.NewComponentLogger(nil, component)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download extracts entries into targetDir/<class>/<basename>. It stops at
// the first failure; files extracted before it are kept.
func (d *Downloader) Download(ctx context.Context, src Extractor, entries []string, targetDir string) (Result, error) {
	var result Result
	if d.labeler == nil {
		return result, faults.Wrap(faults.ErrConfiguration, component, "download", "no labeler configured", nil)
	}
	logger := logging.WithContext(ctx, d.logger)
	bar := d.newBar(len(entries), filepath.Base(targetDir))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, faults.Wrap(faults.ErrExtraction, component, "download", entry, err)
		}
		class, ok := d.labeler.Label(entry)
		if !ok {
			return result, faults.Wrap(faults.ErrExtraction, component, "label", entry, faults.ErrValidation)
		}
		final, err := d.extractOne(ctx, src, entry, filepath.Join(targetDir, class))
		if err != nil {
			return result, err
		}
		result.Files = append(result.Files, final)
		if info, ok := src.Lookup(entry); ok {
			result.Bytes += int64(info.UncompressedSize)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
		logger.Debug("entry extracted",
			logging.String(logging.FieldEntry, entry),
			logging.String(logging.FieldClass, class),
			logging.String(logging.FieldPath, final),
		)
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return result, nil
}

// extractOne writes entry below classDir with its archive path, then moves
// it up to classDir/<basename> and prunes the emptied scratch directories.
func (d *Downloader) extractOne(ctx context.Context, src Extractor, entry, classDir string) (string, error) {
	extracted, err := src.Extract(ctx, entry, classDir)
	if err != nil {
		if errors.Is(err, faults.ErrExtraction) {
			return "", err
		}
		return "", faults.Wrap(faults.ErrExtraction, component, "extract", entry, err)
	}
	final := filepath.Join(classDir, path.Base(entry))
	if extracted == final {
		return final, nil
	}
	if err := fileutil.MoveFile(extracted, final); err != nil {
		_ = os.Remove(extracted)
		fileutil.PruneEmptyDirs(filepath.Dir(extracted), classDir)
		return "", faults.Wrap(faults.ErrExtraction, component, "move", fmt.Sprintf("%s to %s", extracted, final), err)
	}
	fileutil.PruneEmptyDirs(filepath.Dir(extracted), classDir)
	return final, nil
}

func (d *Downloader) newBar(total int, description string) *progressbar.ProgressBar {
	if d.progress == nil || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(d.progress),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}
