package dataset

import (
	"context"
	"io"
	"sync"
)

// Source yields samples until io.EOF. *Iterator and *Prefetcher satisfy it.
type Source interface {
	Next() (Sample, error)
}

// skipCounter is implemented by sources that drop unreadable videos.
type skipCounter interface {
	Skipped() int
}

type prefetched struct {
	sample  Sample
	err     error
	skipped int
}

// Prefetcher samples ahead of the consumer on one worker goroutine.
type Prefetcher struct {
	items  chan prefetched
	cancel context.CancelFunc
	done   chan struct{}
	once    sync.Once
	err     error
	skipped int
}

// Prefetch starts a worker that pulls from src into a buffer of the given
// size. The worker owns src until it stops; it stops after the first error
// (including io.EOF), on Close, or when ctx is cancelled.
func Prefetch(ctx context.Context, src Source, buffer int) *Prefetcher {
	if buffer < 1 {
		buffer = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	p := &Prefetcher{
		items:  make(chan prefetched, buffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go p.run(ctx, src)
	return p
}

func (p *Prefetcher) run(ctx context.Context, src Source) {
	defer close(p.done)
	defer close(p.items)
	for {
		if ctx.Err() != nil {
			return
		}
		sample, err := src.Next()
		item := prefetched{sample: sample, err: err}
		if sc, ok := src.(skipCounter); ok {
			item.skipped = sc.Skipped()
		}
		select {
		case p.items <- item:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// Next returns the next prefetched sample. After the stream ends every call
// returns the same terminal error.
func (p *Prefetcher) Next() (Sample, error) {
	if p.err != nil {
		return Sample{}, p.err
	}
	item, ok := <-p.items
	if !ok {
		p.err = io.EOF
		return Sample{}, p.err
	}
	p.skipped = item.skipped
	if item.err != nil {
		p.err = item.err
	}
	return item.sample, item.err
}

// Skipped reports how many videos the source dropped up to the last sample
// returned by Next. Samples decoded ahead but not yet consumed are not
// counted, so reading it never races with the worker.
func (p *Prefetcher) Skipped() int { return p.skipped }

// Close stops the worker and waits for it to exit.
func (p *Prefetcher) Close() {
	p.once.Do(func() {
		p.cancel()
		for range p.items {
		}
		<-p.done
	})
}
