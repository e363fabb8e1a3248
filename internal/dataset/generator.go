package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipset/internal/faults"
	"clipset/internal/logging"
	"clipset/internal/video"
)

// FrameSampler draws a frame sequence from one video. *video.Sampler
// satisfies it.
type FrameSampler interface {
	Sample(ctx context.Context, path string, opts video.Options) (*video.FrameSequence, error)
}

// Sample is one labeled frame sequence.
type Sample struct {
	Frames *video.FrameSequence
	Label  int
	Class  string
	Path   string
}

// Descriptor describes one split. It is not modified by Open, so a single
// descriptor can be opened once per epoch.
type Descriptor struct {
	// Dir holds one subdirectory per class.
	Dir string
	// Ext is the video file extension, with or without the leading dot.
	Ext     string
	Options video.Options

	// Training enables a fresh shuffle of the file order on every Open.
	Training bool

	Classes *ClassNameIndex
	Sampler FrameSampler

	// Rand drives the training shuffle. A clock-seeded source is used
	// when nil.
	Rand *rand.Rand

	// SkipUnreadable drops videos that cannot be opened instead of
	// failing the iteration.
	SkipUnreadable bool

	Logger *slog.Logger
}

// Files lists the split's videos: files directly inside each class
// directory whose extension matches Ext without regard to case. Hidden
// class directories and hidden files are ignored, as ScanClassNames does.
// Paths are sorted by class and then by name.
func (d Descriptor) Files() ([]string, error) {
	ext := strings.TrimSpace(d.Ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	classes, err := ScanClassNames(d.Dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, class := range classes {
		entries, err := os.ReadDir(filepath.Join(d.Dir, class))
		if err != nil {
			return nil, fmt.Errorf("scan class %s: %w", class, err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || strings.HasPrefix(name, ".") {
				continue
			}
			if ext != "" && !strings.EqualFold(filepath.Ext(name), ext) {
				continue
			}
			paths = append(paths, filepath.Join(d.Dir, class, name))
		}
	}
	return paths, nil
}

// Open scans the split and returns a cold iterator over it.
func (d Descriptor) Open(ctx context.Context) (*Iterator, error) {
	if err := d.Options.Validate(); err != nil {
		return nil, err
	}
	if d.Sampler == nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "dataset", "open", "no frame sampler configured", nil)
	}
	if d.Classes == nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "dataset", "open", "no class index configured", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paths, err := d.Files()
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(paths))
	for i, path := range paths {
		class := filepath.Base(filepath.Dir(path))
		id, ok := d.Classes.ID(class)
		if !ok {
			return nil, faults.Wrap(faults.ErrValidation, "dataset", "open",
				fmt.Sprintf("class %q of %s is not in the class index", class, path), nil)
		}
		labels[i] = id
	}

	if d.Training {
		rng := d.Rand
		if rng == nil {
			seed := uint64(time.Now().UnixNano())
			rng = rand.New(rand.NewPCG(seed, seed>>1))
		}
		rng.Shuffle(len(paths), func(i, j int) {
			paths[i], paths[j] = paths[j], paths[i]
			labels[i], labels[j] = labels[j], labels[i]
		})
	}

	return &Iterator{
		ctx:    ctx,
		desc:   d,
		paths:  paths,
		labels: labels,
		logger: logging.NewComponentLogger(d.Logger, "dataset"),
	}, nil
}

// All iterates the split once. Iteration stops after the first error.
func (d Descriptor) All(ctx context.Context) iter.Seq2[Sample, error] {
	return func(yield func(Sample, error) bool) {
		it, err := d.Open(ctx)
		if err != nil {
			yield(Sample{}, err)
			return
		}
		for {
			sample, err := it.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(sample, err) || err != nil {
				return
			}
		}
	}
}

// Iterator yields samples lazily. It is not safe for concurrent use.
type Iterator struct {
	ctx     context.Context
	desc    Descriptor
	paths   []string
	labels  []int
	pos     int
	skipped int
	logger  *slog.Logger
}

// Len is the number of files the iterator was opened with.
func (it *Iterator) Len() int { return len(it.paths) }

// Skipped counts videos dropped under SkipUnreadable.
func (it *Iterator) Skipped() int { return it.skipped }

// Next samples the next video. It returns io.EOF when the split is
// exhausted.
func (it *Iterator) Next() (Sample, error) {
	for it.pos < len(it.paths) {
		if err := it.ctx.Err(); err != nil {
			return Sample{}, err
		}
		path, label := it.paths[it.pos], it.labels[it.pos]
		it.pos++

		seq, err := it.desc.Sampler.Sample(it.ctx, path, it.desc.Options)
		if err != nil {
			if it.desc.SkipUnreadable && errors.Is(err, faults.ErrVideoOpen) {
				it.skipped++
				logging.WarnWithContext(it.logger, "skipping unreadable video", "unreadable_video",
					logging.String(logging.FieldPath, path),
					logging.String(logging.FieldImpact, "sample and label dropped from this epoch"),
					logging.Error(err),
				)
				continue
			}
			return Sample{}, err
		}
		return Sample{
			Frames: seq,
			Label:  label,
			Class:  it.desc.Classes.Name(label),
			Path:   path,
		}, nil
	}
	return Sample{}, io.EOF
}
