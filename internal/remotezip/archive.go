package remotezip

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"clipset/internal/faults"
	"clipset/internal/logging"
)

const component = "remotezip"

// Entry describes one member of a remote archive.
type Entry struct {
	Name             string
	CompressedSize   uint64
	UncompressedSize uint64
	Modified         time.Time
}

// Archive is an opened remote zip. Methods must not be called concurrently.
type Archive struct {
	url    string
	size   int64
	reader *zip.Reader
	ra     *rangeReaderAt
	files  map[string]*zip.File
	logger *slog.Logger
}

type options struct {
	client      *http.Client
	logger      *slog.Logger
	blockSize   int64
	cacheBlocks int
}

// Option customizes Open.
type Option func(*options)

// WithHTTPClient overrides the client used for range requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.client = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithBlockSize sets the size of each cached range request.
func WithBlockSize(size int64) Option {
	return func(o *options) {
		o.blockSize = size
	}
}

// WithCacheBlocks sets how many blocks are kept in memory.
func WithCacheBlocks(n int) Option {
	return func(o *options) {
		o.cacheBlocks = n
	}
}

// Open checks url for range support and reads the zip central directory.
func Open(ctx context.Context, url string, opts ...Option) (*Archive, error) {
	cfg := options{client: &http.Client{Timeout: 2 * time.Minute}}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := logging.NewComponentLogger(cfg.logger, component)

	url = strings.TrimSpace(url)
	if url == "" {
		return nil, faults.Wrap(faults.ErrArchiveUnavailable, component, "open", "archive url is empty", nil)
	}

	size, err := fetchSize(ctx, cfg.client, url)
	if err != nil {
		return nil, faults.Wrap(faults.ErrArchiveUnavailable, component, "size", url, err)
	}

	ra := newRangeReaderAt(cfg.client, url, size, cfg.blockSize, cfg.cacheBlocks)
	restore := ra.bind(ctx)
	reader, err := zip.NewReader(ra, size)
	restore()
	if err != nil {
		return nil, faults.Wrap(faults.ErrArchiveUnavailable, component, "read directory", url, err)
	}

	files := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		files[f.Name] = f
	}

	logger.Info("archive opened",
		logging.String("url", url),
		logging.String("size", humanize.Bytes(uint64(size))),
		logging.Int("entries", len(reader.File)),
		logging.Int("range_requests", ra.Requests()),
	)

	return &Archive{url: url, size: size, reader: reader, ra: ra, files: files, logger: logger}, nil
}

// URL returns the archive location.
func (a *Archive) URL() string { return a.url }

// Size returns the archive size in bytes.
func (a *Archive) Size() int64 { return a.size }

// Requests returns the number of range requests issued so far.
func (a *Archive) Requests() int { return a.ra.Requests() }

// Entries lists the archive members in central directory order, excluding
// directory placeholders.
func (a *Archive) Entries() []Entry {
	entries := make([]Entry, 0, len(a.reader.File))
	for _, f := range a.reader.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		entries = append(entries, Entry{
			Name:             f.Name,
			CompressedSize:   f.CompressedSize64,
			UncompressedSize: f.UncompressedSize64,
			Modified:         f.Modified,
		})
	}
	return entries
}

// Names returns the member names in central directory order.
func (a *Archive) Names() []string {
	entries := a.Entries()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Lookup returns the entry for name.
func (a *Archive) Lookup(name string) (Entry, bool) {
	f, ok := a.files[name]
	if !ok {
		return Entry{}, false
	}
	return Entry{Name: f.Name, CompressedSize: f.CompressedSize64, UncompressedSize: f.UncompressedSize64, Modified: f.Modified}, true
}

// Extract writes the named member beneath destDir, preserving its archive
// path, and returns the local path. Partially written files are removed.
func (a *Archive) Extract(ctx context.Context, name, destDir string) (string, error) {
	f, ok := a.files[name]
	if !ok {
		return "", faults.Wrap(faults.ErrExtraction, component, "extract", "entry not in archive: "+name, faults.ErrNotFound)
	}
	target, err := safeJoin(destDir, name)
	if err != nil {
		return "", faults.Wrap(faults.ErrExtraction, component, "extract", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", faults.Wrap(faults.ErrExtraction, component, "extract", "create parent directory", err)
	}

	restore := a.ra.bind(ctx)
	defer restore()

	if err := writeMember(f, target); err != nil {
		_ = os.Remove(target)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", faults.Wrap(faults.ErrExtraction, component, "extract", name, errors.Join(ctxErr, err))
		}
		return "", faults.Wrap(faults.ErrExtraction, component, "extract", name, err)
	}
	a.logger.Debug("entry extracted",
		logging.String(logging.FieldEntry, name),
		logging.String(logging.FieldPath, target),
		logging.String("size", humanize.Bytes(f.UncompressedSize64)),
	)
	return target, nil
}

func writeMember(f *zip.File, target string) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open member: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("copy member: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}

// safeJoin resolves an archive member path beneath root and rejects names that
// would escape it.
func safeJoin(root, name string) (string, error) {
	slashed := strings.ReplaceAll(name, "\\", "/")
	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return "", fmt.Errorf("unsafe entry name %q", name)
		}
	}
	rel := strings.TrimPrefix(path.Clean("/"+slashed), "/")
	if rel == "" {
		return "", fmt.Errorf("unsafe entry name %q", name)
	}
	return filepath.Join(root, filepath.FromSlash(rel)), nil
}

// ListEntries opens url and returns its member names.
func ListEntries(ctx context.Context, url string, opts ...Option) ([]string, error) {
	archive, err := Open(ctx, url, opts...)
	if err != nil {
		return nil, err
	}
	return archive.Names(), nil
}

// FilterMedia keeps names ending in ext (case-insensitive) that have at least
// minSegments slash-separated path segments. An empty ext keeps every file.
// Order is preserved.
func FilterMedia(names []string, ext string, minSegments int) []string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if strings.HasSuffix(name, "/") {
			continue
		}
		if minSegments > 0 && len(strings.Split(name, "/")) < minSegments {
			continue
		}
		if ext == "" || strings.EqualFold(path.Ext(name), ext) {
			out = append(out, name)
		}
	}
	return out
}
