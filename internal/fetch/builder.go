package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"

	"clipset/internal/catalog"
	"clipset/internal/config"
	"clipset/internal/faults"
	"clipset/internal/logging"
	"clipset/internal/manifest"
	"clipset/internal/preflight"
	"clipset/internal/remotezip"
)

// LockFileName is created in the download directory while a build runs.
const LockFileName = ".clipset.lock"

// Request describes one build.
type Request struct {
	URL        string
	NumClasses int
	// FilesPerClass caps every class before allocation; 0 keeps all files.
	FilesPerClass int
	Seed          int64
	Splits        []catalog.SplitRequest
}

// RequestFromConfig builds a Request from the [archive] and [dataset] sections.
func RequestFromConfig(cfg *config.Config) Request {
	splits := make([]catalog.SplitRequest, 0, len(cfg.Dataset.Splits))
	for _, s := range cfg.Dataset.Splits {
		splits = append(splits, catalog.SplitRequest{Name: s.Name, Count: s.Count})
	}
	return Request{
		URL:           cfg.Archive.URL,
		NumClasses:    cfg.Dataset.NumClasses,
		FilesPerClass: cfg.Dataset.FilesPerClass,
		Seed:          cfg.Dataset.Seed,
		Splits:        splits,
	}
}

// Builder downloads the splits of a dataset.
type Builder struct {
	cfg       *config.Config
	store     *manifest.Store
	base      *slog.Logger
	logger    *slog.Logger
	client    *http.Client
	progress  io.Writer
	freeSpace func(path string, need uint64) error
}

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithHTTPClient overrides the client used for archive requests.
func WithHTTPClient(client *http.Client) BuilderOption {
	return func(b *Builder) {
		if client != nil {
			b.client = client
		}
	}
}

// WithBuildProgress renders per-split progress bars to w.
func WithBuildProgress(w io.Writer) BuilderOption {
	return func(b *Builder) {
		b.progress = w
	}
}

// NewBuilder returns a builder. store may be nil, in which case nothing is
// recorded.
func NewBuilder(cfg *config.Config, store *manifest.Store, logger *slog.Logger, opts ...BuilderOption) *Builder {
	b := &Builder{
		cfg:       cfg,
		store:     store,
		base:      logger,
		logger:    logging.NewComponentLogger(logger, component),
		client:    &http.Client{Timeout: cfg.RequestTimeout()},
		freeSpace: preflight.EnsureFreeSpace,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build lists the archive, allocates splits and downloads every split whose
// directory is missing. It returns split name to split directory for every
// requested split, skipped or not.
func (b *Builder) Build(ctx context.Context, req Request) (map[string]string, error) {
	if req.URL == "" {
		return nil, faults.Wrap(faults.ErrConfiguration, component, "build", "archive url is empty", nil)
	}
	labeler, err := catalog.NewLabeler(b.cfg.Archive.LabelSource, b.cfg.Archive.LabelSeparator, b.cfg.Archive.LabelTokenFromEnd)
	if err != nil {
		return nil, err
	}

	downloadDir := b.cfg.Paths.DownloadDir
	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download directory: %w", err)
	}
	lock := flock.New(filepath.Join(downloadDir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire build lock: %w", err)
	}
	if !ok {
		return nil, faults.Wrap(faults.ErrConfiguration, component, "lock", "another build is using "+downloadDir, nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			b.logger.Warn("failed to release build lock", logging.Error(err))
		}
	}()

	var run *manifest.Run
	if b.store != nil {
		// The lock is held, so any run still marked running was killed.
		if n, err := b.store.AbandonRunning(ctx); err != nil {
			return nil, fmt.Errorf("close interrupted runs: %w", err)
		} else if n > 0 {
			logging.WarnWithContext(b.logger, "previous build was interrupted", "interrupted_build",
				logging.Int64("runs", n),
				logging.String(logging.FieldImpact, "its splits may be truncated; see clipset stats"),
			)
		}
		run, err = b.store.BeginRun(ctx, req.URL, req.Seed, req.NumClasses)
		if err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
		ctx = faults.WithRunID(ctx, run.ID)
	}

	started := time.Now()
	dirs, err := b.build(ctx, req, labeler)
	if run != nil {
		if finishErr := b.store.FinishRun(context.WithoutCancel(ctx), run.ID, err); finishErr != nil {
			b.logger.Warn("failed to finish run record", logging.Error(finishErr))
		}
	}
	if err != nil {
		return nil, err
	}
	logging.WithContext(ctx, b.logger).Info("build complete",
		logging.Int("splits", len(dirs)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return dirs, nil
}

func (b *Builder) build(ctx context.Context, req Request, labeler catalog.Labeler) (map[string]string, error) {
	logger := logging.WithContext(ctx, b.logger)

	archive, err := remotezip.Open(ctx, req.URL, remotezip.WithHTTPClient(b.client), remotezip.WithLogger(logging.WithContext(ctx, b.base)))
	if err != nil {
		return nil, err
	}
	names := remotezip.FilterMedia(archive.Names(), b.cfg.Archive.Extension, b.cfg.Archive.MinPathSegments)
	index, err := catalog.GroupByClass(names, labeler)
	if err != nil {
		return nil, err
	}
	numClasses := req.NumClasses
	if numClasses <= 0 {
		numClasses = -1
	}
	index = index.Limit(numClasses)
	if req.FilesPerClass > 0 {
		index = catalog.SelectSubset(index, index.Classes(), req.FilesPerClass)
	}
	logger.Info("archive indexed",
		logging.Int("entries", len(names)),
		logging.Int("classes", index.Len()),
		logging.Int("unlabeled", index.Skipped()),
	)

	rng := rand.New(rand.NewPCG(uint64(req.Seed), uint64(req.Seed)))
	plans, err := catalog.AllocateSplits(index, req.Splits, rng)
	if err != nil {
		return nil, err
	}

	downloader := NewDownloader(labeler, WithDownloadLogger(b.base), WithProgress(b.progress))
	dirs := make(map[string]string, len(plans))
	for _, plan := range plans {
		dir := b.cfg.SplitDir(plan.Name)
		dirs[plan.Name] = dir
		if err := b.materialize(faults.WithSplit(ctx, plan.Name), archive, downloader, plan, dir); err != nil {
			return nil, err
		}
	}
	return dirs, nil
}

func (b *Builder) materialize(ctx context.Context, archive *remotezip.Archive, downloader *Downloader, plan catalog.SplitPlan, dir string) error {
	logger := logging.WithContext(ctx, b.logger)
	runID, _ := faults.RunIDFromContext(ctx)

	var plannedBytes uint64
	for _, name := range plan.Files {
		if entry, ok := archive.Lookup(name); ok {
			plannedBytes += entry.UncompressedSize
		}
	}
	rec := manifest.SplitRecord{
		RunID:            runID,
		Split:            plan.Name,
		Directory:        dir,
		Requested:        plan.Requested,
		Planned:          len(plan.Files),
		PlannedBytes:     int64(plannedBytes),
		ShortfallClasses: len(plan.Shortfalls()),
	}
	for _, short := range plan.Shortfalls() {
		logging.WarnWithContext(logger, "class has fewer files than requested", "split_shortfall",
			logging.String(logging.FieldClass, short.Class),
			logging.Int("got", short.Got),
			logging.Int("want", short.Want),
			logging.String(logging.FieldImpact, "split is smaller for this class"),
		)
	}

	if _, err := os.Stat(dir); err == nil {
		logger.Info("split directory exists, skipping", logging.String(logging.FieldPath, dir))
		rec.Status = manifest.SplitSkipped
		return b.record(ctx, rec)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat split directory: %w", err)
	}

	if err := b.freeSpace(b.cfg.Paths.DownloadDir, plannedBytes); err != nil {
		return err
	}

	var recID int64
	if b.store != nil {
		stored, err := b.store.RecordSplit(ctx, rec)
		if err != nil {
			return fmt.Errorf("record split: %w", err)
		}
		recID = stored.ID
	}

	logger.Info("downloading split",
		logging.Int("files", len(plan.Files)),
		logging.String("size", humanize.Bytes(plannedBytes)),
	)
	result, err := downloader.Download(ctx, archive, plan.Files, dir)
	if b.store != nil {
		status := manifest.SplitComplete
		if err != nil {
			status = manifest.SplitFailed
		}
		if updErr := b.store.UpdateSplit(context.WithoutCancel(ctx), recID, status, len(result.Files), err); updErr != nil {
			logger.Warn("failed to update split record", logging.Error(updErr))
		}
	}
	if err != nil {
		return err
	}
	logger.Info("split downloaded",
		logging.Int("files", len(result.Files)),
		logging.String("size", humanize.Bytes(uint64(result.Bytes))),
	)
	return nil
}

func (b *Builder) record(ctx context.Context, rec manifest.SplitRecord) error {
	if b.store == nil {
		return nil
	}
	if _, err := b.store.RecordSplit(ctx, rec); err != nil {
		return fmt.Errorf("record split: %w", err)
	}
	return nil
}
