// Package client drives the per-transfer state machine: INIT → DESCRIBE →
// HASHING → DELTA → (dry_run ? REPORT : TRANSFER) → DONE/FAIL. It is the Go
// counterpart of the original implementation's Client.synchronize /
// synchronize_once, adapted to the teacher's explicit-context,
// explicit-error style in cmd/beam/main.go rather than the original's
// exception-driven control flow.
package client

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/pdiffcopy/pdiffcopy/internal/blockio"
	"github.com/pdiffcopy/pdiffcopy/internal/delta"
	"github.com/pdiffcopy/pdiffcopy/internal/digest"
	"github.com/pdiffcopy/pdiffcopy/internal/hashpipe"
	"github.com/pdiffcopy/pdiffcopy/internal/location"
	"github.com/pdiffcopy/pdiffcopy/internal/pdiffcopyerr"
	"github.com/pdiffcopy/pdiffcopy/internal/progress"
	"github.com/pdiffcopy/pdiffcopy/internal/wire"
	"github.com/pdiffcopy/pdiffcopy/internal/xfer"
)

// Options configures one synchronize run.
type Options struct {
	Source      location.Location
	Target      location.Location
	BlockSize   int64
	HashMethod  digest.Method
	WholeFile   bool
	Concurrency int
	DryRun      bool
	BWLimitBps  int64 // 0 disables bandwidth limiting
	AutoResize  bool  // create/resize the remote side to match the local size before the size check
	HTTPClient  *http.Client
}

// Result summarizes a completed or failed run.
type Result struct {
	BytesTotal int64
	DiffBlocks int
	AllBlocks  int
	Similarity float64
	Err        error
}

// Synchronize runs the full state machine and reports progress through sink.
// It returns the first error encountered, classified per internal/pdiffcopyerr.
func Synchronize(ctx context.Context, opts Options, sink progress.Sink) (Result, error) {
	if sink == nil {
		sink = progress.SinkFunc(func(progress.Event) {})
	}

	if err := validateEndpoints(opts); err != nil {
		sink.Handle(progress.Event{Type: progress.Failed, Err: err})
		return Result{Err: err}, err
	}

	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	if opts.AutoResize {
		if err := autoResize(ctx, client, opts); err != nil {
			sink.Handle(progress.Event{Type: progress.Failed, Err: err})
			return Result{Err: err}, err
		}
	}

	sink.Handle(progress.Event{Type: progress.DescribeStarted})
	sourceSize, err := describe(ctx, client, opts.Source)
	if err != nil {
		sink.Handle(progress.Event{Type: progress.Failed, Err: err})
		return Result{Err: err}, err
	}
	targetSize, err := describe(ctx, client, opts.Target)
	if err != nil {
		sink.Handle(progress.Event{Type: progress.Failed, Err: err})
		return Result{Err: err}, err
	}
	if sourceSize != targetSize {
		err := fmt.Errorf("source size %d != target size %d: %w", sourceSize, targetSize, pdiffcopyerr.SizeMismatch)
		sink.Handle(progress.Event{Type: progress.Failed, Err: err})
		return Result{Err: err}, err
	}
	size := sourceSize
	sink.Handle(progress.Event{Type: progress.DescribeDone, BytesTotal: size})

	blocks := hashpipe.Blocks(size, opts.BlockSize)
	var diff []delta.Range

	if opts.WholeFile {
		diff = delta.WholeFile(size, opts.BlockSize)
	} else {
		sink.Handle(progress.Event{Type: progress.HashingStarted, BlocksTotal: int64(len(blocks))})
		diff, err = computeDiff(ctx, client, opts, blocks, size)
		if err != nil {
			sink.Handle(progress.Event{Type: progress.Failed, Err: err})
			return Result{Err: err}, err
		}
		sink.Handle(progress.Event{Type: progress.HashingDone, BlocksTotal: int64(len(blocks))})
	}

	similarity := progress.Similarity(len(diff), len(blocks))
	sink.Handle(progress.Event{
		Type:        progress.DeltaComputed,
		DiffBlocks:  len(diff),
		BlocksTotal: int64(len(blocks)),
		Similarity:  similarity,
	})

	result := Result{BytesTotal: size, DiffBlocks: len(diff), AllBlocks: len(blocks), Similarity: similarity}

	if opts.DryRun {
		sink.Handle(progress.Event{Type: progress.Done, Similarity: similarity})
		return result, nil
	}

	sink.Handle(progress.Event{Type: progress.TransferStarted})
	if err := transfer(ctx, client, opts, diff, sink); err != nil {
		sink.Handle(progress.Event{Type: progress.Failed, Err: err})
		result.Err = err
		return result, err
	}
	sink.Handle(progress.Event{Type: progress.Done, Similarity: similarity})
	return result, nil
}

func validateEndpoints(opts Options) error {
	if opts.Source.IsRemote() == opts.Target.IsRemote() {
		return fmt.Errorf("exactly one of source and target must be remote: %w", pdiffcopyerr.ProtocolError)
	}
	if !digest.Valid(opts.HashMethod) {
		return fmt.Errorf("%q: %w", opts.HashMethod, pdiffcopyerr.UnknownHash)
	}
	return nil
}

func autoResize(ctx context.Context, client *http.Client, opts Options) error {
	if !opts.Target.IsRemote() {
		return nil
	}
	localSize, err := blockio.Size(opts.Source.Path)
	if err != nil {
		return err
	}
	url := wire.ResizeURL("http", opts.Target.Host, opts.Target.Port, opts.Target.Path, localSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", pdiffcopyerr.NetworkError, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("resize status %d: %w", resp.StatusCode, pdiffcopyerr.ProtocolError)
	}
	return nil
}

func describe(ctx context.Context, client *http.Client, loc location.Location) (int64, error) {
	if !loc.IsRemote() {
		return blockio.Size(loc.Path)
	}

	url := wire.InfoURL("http", loc.Host, loc.Port, loc.Path)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", pdiffcopyerr.NetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("%s: %w", loc, pdiffcopyerr.NotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("describe %s: status %d: %w", loc, resp.StatusCode, pdiffcopyerr.ProtocolError)
	}

	size := resp.ContentLength
	if h := resp.Header.Get("X-File-Size"); h != "" {
		if n, err := parseInt64(h); err == nil {
			size = n
		}
	}
	return size, nil
}

func parseInt64(s string) (int64, error) {
	var n int64
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

func computeDiff(ctx context.Context, client *http.Client, opts Options, blocks []hashpipe.Block, size int64) ([]delta.Range, error) {
	digestLen := digest.Len(opts.HashMethod)

	localLoc, remoteLoc := opts.Source, opts.Target
	if opts.Source.IsRemote() {
		localLoc, remoteLoc = opts.Target, opts.Source
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	localStream := hashpipe.LocalStream(ctx, localLoc.Path, blocks, opts.HashMethod, opts.Concurrency)

	remoteURL := wire.HashesURL("http", remoteLoc.Host, remoteLoc.Port, remoteLoc.Path, opts.BlockSize, string(opts.HashMethod), opts.Concurrency)
	remoteReader, resp, err := hashpipe.RemoteStream(ctx, client, remoteURL, digestLen)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var local, remote delta.Stream = localStream, hashpipe.NewRemoteStreamAdapter(remoteReader)
	if opts.Source.IsRemote() {
		local, remote = remote, local
	}

	return delta.Compute(local, remote, size, opts.BlockSize)
}

func transfer(ctx context.Context, client *http.Client, opts Options, diff []delta.Range, sink progress.Sink) error {
	direction := xfer.Pull
	remoteLoc := opts.Source
	localLoc := opts.Target
	if opts.Target.IsRemote() {
		direction = xfer.Push
		remoteLoc = opts.Target
		localLoc = opts.Source
	}

	var limiter *rate.Limiter
	if opts.BWLimitBps > 0 {
		burst := 1 << 20
		if opts.BWLimitBps < int64(burst) {
			burst = int(opts.BWLimitBps)
		}
		limiter = rate.NewLimiter(rate.Limit(opts.BWLimitBps), burst)
	}

	return xfer.Run(ctx, xfer.Config{
		Direction:   direction,
		Concurrency: opts.Concurrency,
		Limiter:     limiter,
		Client:      client,
		LocalPath:   localLoc.Path,
		RemoteBase:  wire.BlockBaseURL("http", remoteLoc.Host, remoteLoc.Port, remoteLoc.Path),
		OnProgress: func(p xfer.Progress) {
			sink.Handle(progress.Event{Type: progress.TransferProgress, BytesTransferred: p.BytesTransferred, BytesTotal: p.BytesTotal})
		},
	}, diff)
}
