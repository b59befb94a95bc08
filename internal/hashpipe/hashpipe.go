// Package hashpipe produces a file's hash stream: the ascending sequence of
// (offset, digest) pairs used by the delta computer. The local case drives
// internal/pool with one task per block and reorders completions with a
// min-heap, following the ordered-consumption idiom the teacher applies to
// its own scan-then-dispatch pipeline (internal/engine.Scanner feeding
// internal/engine.WorkerPool). The remote case issues one HTTP request and
// decodes the wire format straight off the response body.
package hashpipe

import (
	"container/heap"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiffcopy/pdiffcopy/internal/digest"
	"github.com/pdiffcopy/pdiffcopy/internal/pdiffcopyerr"
	"github.com/pdiffcopy/pdiffcopy/internal/pool"
	"github.com/pdiffcopy/pdiffcopy/internal/wire"
)

// Block describes one fixed-offset window of a file.
type Block struct {
	Offset int64
	Length int64
}

// Blocks partitions [0, size) into blockSize-wide windows, the last one
// possibly shorter.
func Blocks(size int64, blockSize int64) []Block {
	if blockSize <= 0 {
		blockSize = 1
	}
	var blocks []Block
	for offset := int64(0); offset < size; offset += blockSize {
		length := blockSize
		if offset+length > size {
			length = size - offset
		}
		blocks = append(blocks, Block{Offset: offset, Length: length})
	}
	return blocks
}

// heap of pending records, ordered by ascending offset.
type recordHeap []wire.Record

func (h recordHeap) Len() int            { return len(h) }
func (h recordHeap) Less(i, j int) bool  { return h[i].Offset < h[j].Offset }
func (h recordHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *recordHeap) Push(x interface{}) { *h = append(*h, x.(wire.Record)) }
func (h *recordHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Local computes the hash stream of path over blocks using method, with up
// to concurrency workers, and sends each record to emit in strictly
// ascending offset order. emit is called synchronously from Local's
// goroutine; it must not block indefinitely.
func Local(ctx context.Context, path string, blocks []Block, method digest.Method, concurrency int, emit func(wire.Record) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := pool.Run(ctx, concurrency, blocks, func(_ context.Context, _ int, b Block) (wire.Record, error) {
		d, err := digest.HashBlock(path, b.Offset, b.Length, method)
		if err != nil {
			return wire.Record{}, err
		}
		return wire.Record{Offset: b.Offset, Digest: d}, nil
	})

	h := &recordHeap{}
	heap.Init(h)
	next := 0

	for r := range results {
		if r.Err != nil {
			cancel()
			drain(results)
			return fmt.Errorf("hash block: %w", r.Err)
		}
		heap.Push(h, r.Value)
		for h.Len() > 0 && (*h)[0].Offset == blocks[next].Offset {
			rec := heap.Pop(h).(wire.Record)
			if err := emit(rec); err != nil {
				cancel()
				drain(results)
				return err
			}
			next++
		}
	}

	if next != len(blocks) {
		return fmt.Errorf("hash pipeline emitted %d of %d blocks: %w", next, len(blocks), pdiffcopyerr.ProtocolError)
	}
	return nil
}

func drain(results <-chan pool.Result[wire.Record]) {
	for range results {
	}
}

// chanStream adapts a channel-fed producer goroutine to the delta.Stream
// interface, giving Local's callback-based output a lazy, single-pass
// Next() surface without materializing the whole hash stream in memory.
type chanStream struct {
	records chan wire.Record
	errc    chan error
	err     error
	done    bool
}

// LocalStream starts hashing path in the background and returns a
// delta.Stream that yields records as they become available in ascending
// order. The background goroutine is torn down once Next returns a
// terminal error or the stream is fully drained; callers that abandon the
// stream early must cancel ctx to release it.
func LocalStream(ctx context.Context, path string, blocks []Block, method digest.Method, concurrency int) *chanStream {
	s := &chanStream{
		records: make(chan wire.Record),
		errc:    make(chan error, 1),
	}
	go func() {
		defer close(s.records)
		err := Local(ctx, path, blocks, method, concurrency, func(r wire.Record) error {
			select {
			case s.records <- r:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		s.errc <- err
	}()
	return s
}

func (s *chanStream) Next() (wire.Record, error) {
	if s.done {
		return wire.Record{}, io.EOF
	}
	r, ok := <-s.records
	if !ok {
		s.done = true
		if err := <-s.errc; err != nil {
			return wire.Record{}, err
		}
		return wire.Record{}, io.EOF
	}
	return r, nil
}

// RemoteStream issues one GET request to url and returns a wire.RecordReader
// over the response body, plus the response itself so the caller can close
// it once the stream has been fully consumed.
func RemoteStream(ctx context.Context, client *http.Client, url string, digestLen int) (*wire.RecordReader, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build hash request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("hash request %s: %w", url, wrapNetwork(err))
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, nil, fmt.Errorf("%s: %w", url, pdiffcopyerr.NotFound)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, nil, fmt.Errorf("hash request %s: status %d: %w", url, resp.StatusCode, pdiffcopyerr.ProtocolError)
	}
	return wire.NewRecordReader(resp.Body, digestLen), resp, nil
}

// remoteAdapter lets a *wire.RecordReader satisfy the delta.Stream
// interface, which expects io.EOF rather than any other sentinel to signal
// the end of the stream.
type remoteAdapter struct {
	rr *wire.RecordReader
}

// NewRemoteStreamAdapter wraps rr for use as a delta.Stream.
func NewRemoteStreamAdapter(rr *wire.RecordReader) *remoteAdapter {
	return &remoteAdapter{rr: rr}
}

func (a *remoteAdapter) Next() (wire.Record, error) {
	return a.rr.Next()
}

// localStream adapts an in-memory slice of records (produced by Local) to
// the delta.Stream interface.
type localStream struct {
	records []wire.Record
	i       int
}

// NewLocalStream builds a delta.Stream over a pre-computed slice of
// ascending records.
func NewLocalStream(records []wire.Record) *localStream {
	return &localStream{records: records}
}

func (s *localStream) Next() (wire.Record, error) {
	if s.i >= len(s.records) {
		return wire.Record{}, io.EOF
	}
	r := s.records[s.i]
	s.i++
	return r, nil
}

func wrapNetwork(err error) error {
	return fmt.Errorf("%w: %v", pdiffcopyerr.NetworkError, err)
}
