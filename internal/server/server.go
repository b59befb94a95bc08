// Package server implements the HTTP surface a pdiffcopy process exposes
// when run without SOURCE/TARGET (listening on the --listen address):
// describe, stream-hashes, read/write-block, and resize
// over any file path reachable from the process. Route handling follows
// net/http directly rather than a third-party router — the teacher's own
// multiplexed wire protocol (internal/transport/proto) solves a much larger
// framing problem than the four routes here need, and no router in the
// example pack earns its place over four fixed paths. Structured logging
// with a per-request correlation ID follows the slog attribute style used
// throughout the teacher's cmd/beam/main.go.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pdiffcopy/pdiffcopy/internal/blockio"
	"github.com/pdiffcopy/pdiffcopy/internal/digest"
	"github.com/pdiffcopy/pdiffcopy/internal/hashpipe"
	"github.com/pdiffcopy/pdiffcopy/internal/pdiffcopyerr"
	"github.com/pdiffcopy/pdiffcopy/internal/wire"
)

// Config controls server behavior.
type Config struct {
	Addr        string
	Concurrency int
	Logger      *slog.Logger
}

// Server exposes the pdiffcopy HTTP protocol over the local filesystem.
type Server struct {
	cfg Config
	mux *http.ServeMux
}

// New builds a Server ready to be handed to http.Serve or run via ListenAndServe.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	s := &Server{cfg: cfg, mux: http.NewServeMux()}
	s.mux.HandleFunc("/", s.handleFile)
	return s
}

// Handler returns the server's routing table as an http.Handler, without
// the logging middleware, so callers embedding it (tests, or a process
// that wants its own access logging) can wrap it however they like.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled
// or a fatal error occurs.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpSrv := &http.Server{Addr: s.cfg.Addr, Handler: s.withLogging(s.mux)}

	errc := make(chan error, 1)
	go func() {
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.New().String()
		s.cfg.Logger.LogAttrs(r.Context(), slog.LevelInfo, "request",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("query", r.URL.RawQuery),
		)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")
	path := r.URL.Path

	switch action {
	case wire.ActionInfo:
		s.handleInfo(w, r, path)
	case wire.ActionHashes:
		s.handleHashes(w, r, path)
	case wire.ActionBlock:
		switch r.Method {
		case http.MethodGet:
			s.handleReadBlock(w, r, path)
		case http.MethodPut, http.MethodPost:
			s.handleWriteBlock(w, r, path)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	case wire.ActionResize:
		if r.Method != http.MethodPut && r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.handleResize(w, r, path)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
	}
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request, path string) {
	size, err := blockio.Size(path)
	if err != nil {
		if errors.Is(err, pdiffcopyerr.NotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("X-File-Size", strconv.FormatInt(size, 10))
	w.Header().Set("Content-Type", "text/plain")
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	fmt.Fprintf(w, "%d\n", size)
}

func (s *Server) handleHashes(w http.ResponseWriter, r *http.Request, path string) {
	blockSize, err := strconv.ParseInt(r.URL.Query().Get("block_size"), 10, 64)
	if err != nil || blockSize <= 0 {
		http.Error(w, "invalid block_size", http.StatusBadRequest)
		return
	}
	method := digest.Method(r.URL.Query().Get("method"))
	if method == "" {
		method = digest.Default
	}
	if !digest.Valid(method) {
		http.Error(w, "unknown hash method", http.StatusBadRequest)
		return
	}
	concurrency := s.cfg.Concurrency
	if c, err := strconv.Atoi(r.URL.Query().Get("concurrency")); err == nil && c > 0 {
		concurrency = c
	}

	size, err := blockio.Size(path)
	if err != nil {
		if errors.Is(err, pdiffcopyerr.NotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	flusher, canFlush := w.(http.Flusher)

	digestLen := digest.Len(method)
	blocks := hashpipe.Blocks(size, blockSize)
	err = hashpipe.Local(r.Context(), path, blocks, method, concurrency, func(rec wire.Record) error {
		if werr := wire.WriteRecord(w, rec, digestLen); werr != nil {
			return werr
		}
		if canFlush {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		s.cfg.Logger.Error("hash stream failed", "path", path, "err", err)
	}
}

func (s *Server) handleReadBlock(w http.ResponseWriter, r *http.Request, path string) {
	offset, err1 := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)
	length, err2 := strconv.ParseInt(r.URL.Query().Get("length"), 10, 64)
	if err1 != nil || err2 != nil || offset < 0 || length < 0 {
		http.Error(w, "invalid offset/length", http.StatusBadRequest)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if offset > fi.Size() {
		http.Error(w, "range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	}

	data, err := blockio.ReadWindow(f, offset, length)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleWriteBlock(w http.ResponseWriter, r *http.Request, path string) {
	offset, err := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)
	if err != nil || offset < 0 {
		http.Error(w, "invalid offset", http.StatusBadRequest)
		return
	}

	data, err := readAll(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f, err := blockio.OpenForBlockIO(path, true)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	if err := blockio.WriteWindow(f, offset, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request, path string) {
	size, err := strconv.ParseInt(r.URL.Query().Get("size"), 10, 64)
	if err != nil || size < 0 {
		http.Error(w, "invalid size", http.StatusBadRequest)
		return
	}
	if err := blockio.Resize(path, size); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func readAll(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}
