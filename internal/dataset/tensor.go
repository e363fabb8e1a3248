package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"clipset/internal/video"
)

// TensorDataset batches a split for gomlx training loops. It follows the
// gomlx train.Dataset contract: Yield returns io.EOF at the end of an epoch
// and Reset starts the next one.
type TensorDataset struct {
	name      string
	ctx       context.Context
	desc      Descriptor
	batchSize int
	prefetch  int

	mu     sync.Mutex
	src    Source
	closer func()
	done   bool
}

// NewTensorDataset wraps desc. With prefetch > 0 sampling runs ahead of the
// training loop on a worker goroutine holding up to prefetch samples.
func NewTensorDataset(ctx context.Context, name string, desc Descriptor, batchSize, prefetch int) (*TensorDataset, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	return &TensorDataset{
		name:      name,
		ctx:       ctx,
		desc:      desc,
		batchSize: batchSize,
		prefetch:  prefetch,
	}, nil
}

func (d *TensorDataset) Name() string { return d.name }

// Yield returns inputs shaped (batch, n_frames, height, width, 3) float32
// and labels shaped (batch,) int32. The last batch of an epoch may be
// smaller than the batch size.
func (d *TensorDataset) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done {
		return nil, nil, nil, io.EOF
	}
	if d.src == nil {
		if err := d.open(); err != nil {
			return nil, nil, nil, err
		}
	}

	batch := make([]Sample, 0, d.batchSize)
	for len(batch) < d.batchSize {
		sample, err := d.src.Next()
		if errors.Is(err, io.EOF) {
			d.done = true
			break
		}
		if err != nil {
			return nil, nil, nil, err
		}
		batch = append(batch, sample)
	}
	if len(batch) == 0 {
		return nil, nil, nil, io.EOF
	}
	in, lab := stackBatch(batch, d.desc.Options)
	return d.name, []*tensors.Tensor{in}, []*tensors.Tensor{lab}, nil
}

// Reset ends the current epoch. The next Yield reopens the split, which
// reshuffles it in training mode.
func (d *TensorDataset) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.release()
	d.done = false
}

// Close releases the prefetch worker, if any.
func (d *TensorDataset) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.release()
}

func (d *TensorDataset) open() error {
	it, err := d.desc.Open(d.ctx)
	if err != nil {
		return err
	}
	if d.prefetch > 0 {
		p := Prefetch(d.ctx, it, d.prefetch)
		d.src = p
		d.closer = p.Close
		return nil
	}
	d.src = it
	return nil
}

func (d *TensorDataset) release() {
	if d.closer != nil {
		d.closer()
	}
	d.src = nil
	d.closer = nil
}

func stackBatch(batch []Sample, opts video.Options) (*tensors.Tensor, *tensors.Tensor) {
	frameValues := opts.NFrames * opts.Height * opts.Width * video.Channels
	inputs := make([]float32, 0, len(batch)*frameValues)
	labels := make([]int32, len(batch))
	for i, sample := range batch {
		inputs = append(inputs, sample.Frames.Data...)
		labels[i] = int32(sample.Label)
	}
	in := tensors.FromFlatDataAndDimensions(inputs, len(batch), opts.NFrames, opts.Height, opts.Width, video.Channels)
	lab := tensors.FromFlatDataAndDimensions(labels, len(batch))
	return in, lab
}
