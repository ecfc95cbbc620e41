package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/VirgileFritsch/nilearn/internal/config"
	"github.com/VirgileFritsch/nilearn/internal/fetch"
	"github.com/VirgileFritsch/nilearn/internal/progress"
	"github.com/VirgileFritsch/nilearn/internal/runlog"
)

func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)

	configPath := fs.String("config", "", "Path to YAML config file")
	cache := fs.String("cache", "", "Cache bucket URL (file:// or s3://)")
	dataset := fs.String("dataset", "", "Dataset name (see 'nilearn datasets')")
	subjects := fs.Int("subjects", 0, "Number of subjects to fetch")
	workers := fs.Int("workers", 0, "Number of parallel download workers")
	verbosity := fs.Int("verbosity", -1, "Progress verbosity: 0 silent, 1 summary, 2 detailed")
	resume := fs.Bool("resume", false, "Resume interrupted downloads from partial cache objects")
	runLog := fs.String("runlog", "", "Path to the run log database")
	source := fs.String("source", "", "Override the dataset base URL (alternate mirror)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: nilearn fetch [options]

Download the selected subjects of a dataset release into the cache
bucket. Files already in the cache are skipped, so re-running after an
interruption only downloads what's missing.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitInvalidArgs
		}
		cfg = loaded
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	cfg = cfg.Merge(config.Config{
		Cache:    *cache,
		Dataset:  *dataset,
		Subjects: *subjects,
		Workers:  *workers,
		Resume:   *resume,
		RunLog:   *runLog,
	})
	if *verbosity >= 0 {
		cfg.Verbosity = *verbosity
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fs.Usage()
		return ExitInvalidArgs
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[nilearn] Received interrupt, shutting down...")
		cancel()
	}()

	return fetchDataset(ctx, cfg, *source)
}

func fetchDataset(ctx context.Context, cfg config.Config, source string) int {
	ds, err := fetch.Lookup(cfg.Dataset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	if source != "" {
		ds.BaseURL = source
	}

	bucket, err := blob.OpenBucket(ctx, cfg.Cache)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening cache: %v\n", err)
		return ExitStorageError
	}
	defer bucket.Close()

	var (
		log   *runlog.DB
		runID string
	)
	if cfg.RunLog != "" {
		log, err = runlog.Open(cfg.RunLog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening run log: %v\n", err)
			return ExitStorageError
		}
		defer log.Close()

		r := &runlog.Run{
			Command: "fetch",
			Dataset: cfg.Dataset,
			Workers: cfg.Workers,
		}
		if err := log.Start(ctx, r); err != nil {
			fmt.Fprintf(os.Stderr, "Error recording run: %v\n", err)
			return ExitStorageError
		}
		runID = r.ID
	}

	fmt.Fprintf(os.Stderr, "[nilearn] Fetching %s: %d subjects, %d workers\n",
		cfg.Dataset, cfg.Subjects, cfg.Workers)

	result, fetchErr := fetch.Fetch(ctx, bucket, ds, fetch.Options{
		Subjects:  cfg.Subjects,
		Workers:   cfg.Workers,
		Resume:    cfg.Resume,
		Verbosity: progress.Verbosity(cfg.Verbosity),
		Output:    os.Stderr,
		Client: fetch.ClientOptions{
			RetryAttempts:   cfg.Retry.Attempts,
			RetryBackoff:    cfg.Retry.Backoff,
			RetryMaxBackoff: cfg.Retry.MaxBackoff,
		},
	})

	if log != nil {
		steps := 0
		errMsg := ""
		if result != nil {
			steps = result.Fetched
		}
		if fetchErr != nil {
			errMsg = fetchErr.Error()
		}
		if err := log.Finish(ctx, runID, steps, errMsg); err != nil {
			fmt.Fprintf(os.Stderr, "Error recording run: %v\n", err)
		}
	}

	if fetchErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", fetchErr)
		if errors.Is(fetchErr, fetch.ErrNotFound) || errors.Is(fetchErr, fetch.ErrForbidden) {
			return ExitSourceNotAccess
		}
		return ExitGeneralError
	}

	fmt.Fprintf(os.Stderr, "[nilearn] Fetched %d files (%d already cached) into %s\n",
		result.Fetched, result.Skipped, cfg.Cache)
	return ExitSuccess
}

func runDatasets(args []string) int {
	fs := flag.NewFlagSet("datasets", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: nilearn datasets\n\nList the datasets the catalog knows about.")
	}
	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	for _, name := range fetch.Names() {
		ds, err := fetch.Lookup(name)
		if err != nil {
			continue
		}
		fmt.Printf("%-24s %d subjects  %s\n", ds.Name, ds.MaxSubjects, ds.BaseURL)
	}
	return ExitSuccess
}
