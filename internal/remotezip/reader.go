package remotezip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
)

const (
	defaultBlockSize   = 1 << 20
	defaultCacheBlocks = 8
	userAgent          = "clipset/remotezip"
)

// errNoRangeSupport is returned when the server ignores Range headers.
var errNoRangeSupport = errors.New("server does not support range requests")

// rangeReaderAt implements io.ReaderAt over HTTP range requests. It is safe
// for use by one goroutine at a time; the mutex only guards the block cache
// and bound context.
type rangeReaderAt struct {
	client    *http.Client
	url       string
	size      int64
	blockSize int64

	mu       sync.Mutex
	ctx      context.Context
	blocks   map[int64][]byte
	order    []int64
	maxCache int
	requests int
}

func newRangeReaderAt(client *http.Client, url string, size int64, blockSize int64, cacheBlocks int) *rangeReaderAt {
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	if cacheBlocks <= 0 {
		cacheBlocks = defaultCacheBlocks
	}
	return &rangeReaderAt{
		client:    client,
		url:       url,
		size:      size,
		blockSize: blockSize,
		ctx:       context.Background(),
		blocks:    make(map[int64][]byte, cacheBlocks),
		maxCache:  cacheBlocks,
	}
}

// bind routes subsequent requests through ctx and returns a function that
// restores the previous context.
func (r *rangeReaderAt) bind(ctx context.Context) func() {
	r.mu.Lock()
	prev := r.ctx
	r.ctx = ctx
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.ctx = prev
		r.mu.Unlock()
	}
}

// Requests reports how many range requests have been issued.
func (r *rangeReaderAt) Requests() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests
}

func (r *rangeReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("remotezip: negative offset %d", off)
	}
	if off >= r.size {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) && off < r.size {
		blockStart := (off / r.blockSize) * r.blockSize
		block, err := r.block(blockStart)
		if err != nil {
			return n, err
		}
		copied := copy(p[n:], block[off-blockStart:])
		n += copied
		off += int64(copied)
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (r *rangeReaderAt) block(start int64) ([]byte, error) {
	r.mu.Lock()
	if data, ok := r.blocks[start]; ok {
		r.touch(start)
		r.mu.Unlock()
		return data, nil
	}
	ctx := r.ctx
	r.mu.Unlock()

	end := min(start+r.blockSize, r.size) - 1
	data, err := r.fetch(ctx, start, end)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blocks[start]; ok {
		r.touch(start)
		return data, nil
	}
	if len(r.order) >= r.maxCache {
		evict := r.order[0]
		r.order = r.order[1:]
		delete(r.blocks, evict)
	}
	r.blocks[start] = data
	r.order = append(r.order, start)
	return data, nil
}

// touch moves start to the most recently used end of the eviction order.
// The caller holds r.mu.
func (r *rangeReaderAt) touch(start int64) {
	if i := slices.Index(r.order, start); i >= 0 {
		r.order = append(slices.Delete(r.order, i, i+1), start)
	}
}

func (r *rangeReaderAt) fetch(ctx context.Context, start, end int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))
	req.Header.Set("User-Agent", userAgent)

	r.mu.Lock()
	r.requests++
	r.mu.Unlock()

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("range request %d-%d: unexpected status %s", start, end, resp.Status)
	}
	want := end - start + 1
	data := make([]byte, want)
	if _, err := io.ReadFull(resp.Body, data); err != nil {
		return nil, fmt.Errorf("range request %d-%d: %w", start, end, err)
	}
	return data, nil
}

// fetchSize asks for the first byte of the resource and derives the total
// size from the Content-Range header.
func fetchSize(ctx context.Context, client *http.Client, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Range", "bytes=0-0")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))

	switch resp.StatusCode {
	case http.StatusPartialContent:
	case http.StatusOK:
		return 0, errNoRangeSupport
	default:
		return 0, fmt.Errorf("archive size: unexpected status %s", resp.Status)
	}
	return parseContentRangeTotal(resp.Header.Get("Content-Range"))
}

// parseContentRangeTotal extracts the complete length from a header of the
// form "bytes 0-0/12345".
func parseContentRangeTotal(header string) (int64, error) {
	header = strings.TrimSpace(header)
	_, total, found := strings.Cut(header, "/")
	if !found || total == "*" {
		return 0, fmt.Errorf("archive size: unusable Content-Range %q", header)
	}
	size, err := strconv.ParseInt(strings.TrimSpace(total), 10, 64)
	if err != nil || size <= 0 {
		return 0, fmt.Errorf("archive size: invalid size in Content-Range %q", header)
	}
	return size, nil
}
