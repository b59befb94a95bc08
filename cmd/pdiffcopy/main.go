package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiffcopy/pdiffcopy/internal/client"
	"github.com/pdiffcopy/pdiffcopy/internal/config"
	"github.com/pdiffcopy/pdiffcopy/internal/digest"
	"github.com/pdiffcopy/pdiffcopy/internal/location"
	"github.com/pdiffcopy/pdiffcopy/internal/pdiffcopyerr"
	"github.com/pdiffcopy/pdiffcopy/internal/progress"
	"github.com/pdiffcopy/pdiffcopy/internal/server"
	"github.com/pdiffcopy/pdiffcopy/internal/ui"
	"github.com/pdiffcopy/pdiffcopy/internal/ui/tui"
)

var version = "dev"

func main() {
	os.Exit(run())
}

//nolint:gocyclo // mirrors the teacher's single-RunE CLI entry point
func run() int {
	var (
		blockSize   int64
		hashMethod  string
		wholeFile   bool
		concurrency int
		dryRun      bool
		listen      string
		verbose     bool
		quiet       bool
		tuiFlag     bool
		autoResize  bool
		bwLimitStr  string
		logFile     string
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:   "pdiffcopy [flags] [SOURCE] [TARGET]",
		Short: "Parallel block-diff file synchronization over HTTP",
		Args: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				return nil
			}
			if len(args) == 1 {
				return fmt.Errorf("need both SOURCE and TARGET, or neither to start a server")
			}
			return cobra.MaximumNArgs(2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "pdiffcopy %s\n", version)
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config", "error", err)
			}
			applyConfigDefaults(cmd, cfg.Defaults, &blockSize, &hashMethod, &concurrency, &bwLimitStr, &listen)

			logLevel := slog.LevelWarn
			switch {
			case verbose:
				logLevel = slog.LevelDebug
			case !quiet:
				logLevel = slog.LevelInfo
			}
			textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
			var logHandler slog.Handler = textHandler
			if logFile != "" {
				lf, err := os.Create(logFile)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer lf.Close()
				jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug})
				logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
			}
			logger := slog.New(logHandler)
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if len(args) == 0 {
				return runServer(ctx, listen, concurrency, logger)
			}
			return runClient(ctx, args[0], args[1], clientFlags{
				blockSize:   blockSize,
				hashMethod:  hashMethod,
				wholeFile:   wholeFile,
				concurrency: concurrency,
				dryRun:      dryRun,
				autoResize:  autoResize,
				bwLimitStr:  bwLimitStr,
				quiet:       quiet,
				tui:         tuiFlag,
			})
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	rootCmd.Flags().Int64Var(&blockSize, "block-size", 1<<20, "block size in bytes")
	rootCmd.Flags().StringVar(&hashMethod, "hash-method", string(digest.Default), "content digest algorithm (sha1, sha256, blake3, xxhash)")
	rootCmd.Flags().BoolVar(&wholeFile, "whole-file", false, "skip hashing, transfer every block unconditionally")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 4, "maximum in-flight hash or block operations per side")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute and report the diff without transferring")
	rootCmd.Flags().StringVar(&listen, "listen", ":9876", "address to listen on when run with no SOURCE/TARGET")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output except errors")
	rootCmd.Flags().BoolVar(&tuiFlag, "tui", false, "full-screen live progress view (Bubble Tea)")
	rootCmd.Flags().BoolVar(&autoResize, "auto-resize", false, "create or resize the remote target to match the source size before transfer")
	rootCmd.Flags().StringVar(&bwLimitStr, "bwlimit", "", "bandwidth limit in bytes/sec (e.g. 10485760)")
	rootCmd.Flags().StringVar(&logFile, "log", "", "write structured JSON log to FILE in addition to stderr")

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*exitError); ok {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func runServer(ctx context.Context, listen string, concurrency int, logger *slog.Logger) error {
	srv := server.New(server.Config{Addr: listen, Concurrency: concurrency, Logger: logger})
	logger.Info("listening", "addr", listen)
	if err := srv.ListenAndServe(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

type clientFlags struct {
	blockSize   int64
	hashMethod  string
	wholeFile   bool
	concurrency int
	dryRun      bool
	autoResize  bool
	bwLimitStr  string
	quiet       bool
	tui         bool
}

func runClient(ctx context.Context, rawSource, rawTarget string, f clientFlags) error {
	srcLoc, err := location.Parse(rawSource)
	if err != nil {
		return fmt.Errorf("parse source: %w", err)
	}
	dstLoc, err := location.Parse(rawTarget)
	if err != nil {
		return fmt.Errorf("parse target: %w", err)
	}

	var bwLimit int64
	if f.bwLimitStr != "" {
		if _, err := fmt.Sscanf(f.bwLimitStr, "%d", &bwLimit); err != nil {
			return fmt.Errorf("invalid --bwlimit: %w", err)
		}
	}

	events := make(chan progress.Event, 256)
	sink := progress.SinkFunc(func(ev progress.Event) { events <- ev })

	isTTY := ui.IsTTY(os.Stderr.Fd())
	var presenter interface {
		Run(<-chan progress.Event) error
		Summary() string
	}
	if f.tui && isTTY {
		presenter = tui.NewPresenter()
	} else {
		presenter = ui.NewPresenter(ui.Config{
			Writer:    os.Stdout,
			ErrWriter: os.Stderr,
			Quiet:     f.quiet,
			IsTTY:     isTTY,
		})
	}

	presenterDone := make(chan error, 1)
	go func() {
		presenterDone <- presenter.Run(events)
	}()

	_, syncErr := client.Synchronize(ctx, client.Options{
		Source:      srcLoc,
		Target:      dstLoc,
		BlockSize:   f.blockSize,
		HashMethod:  digest.Method(f.hashMethod),
		WholeFile:   f.wholeFile,
		Concurrency: f.concurrency,
		DryRun:      f.dryRun,
		BWLimitBps:  bwLimit,
		AutoResize:  f.autoResize,
	}, sink)
	close(events)
	<-presenterDone

	if !f.quiet {
		if summary := presenter.Summary(); summary != "" {
			fmt.Fprintln(os.Stderr, summary)
		}
	}

	if syncErr != nil {
		slog.Error("synchronize failed", "error", syncErr)
		return &exitError{code: pdiffcopyerr.ExitCode(syncErr)}
	}
	return nil
}

func applyConfigDefaults(
	cmd *cobra.Command,
	defaults config.DefaultsConfig,
	blockSize *int64,
	hashMethod *string,
	concurrency *int,
	bwLimitStr *string,
	listen *string,
) {
	if !cmd.Flags().Changed("block-size") && defaults.BlockSize != nil {
		*blockSize = *defaults.BlockSize
	}
	if !cmd.Flags().Changed("hash-method") && defaults.HashMethod != nil {
		*hashMethod = *defaults.HashMethod
	}
	if !cmd.Flags().Changed("concurrency") && defaults.Concurrency != nil {
		*concurrency = *defaults.Concurrency
	}
	if !cmd.Flags().Changed("bwlimit") && defaults.BWLimit != nil {
		*bwLimitStr = fmt.Sprintf("%d", *defaults.BWLimit)
	}
	if !cmd.Flags().Changed("listen") && defaults.Listen != nil {
		*listen = *defaults.Listen
	}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
