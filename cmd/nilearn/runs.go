package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/VirgileFritsch/nilearn/internal/runlog"
)

func runRuns(args []string) int {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)

	runLog := fs.String("runlog", "", "Path to the run log database (required)")
	limit := fs.Int("limit", 20, "Maximum number of runs to show")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: nilearn runs [options]

List past tracked runs, newest first.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	path := *runLog
	if path == "" {
		path = os.Getenv("NILEARN_RUN_LOG")
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "Error: -runlog is required (or set NILEARN_RUN_LOG)")
		fs.Usage()
		return ExitInvalidArgs
	}

	db, err := runlog.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}
	defer db.Close()

	runs, err := db.List(context.Background(), *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return ExitSuccess
	}

	fmt.Printf("%-36s  %-7s  %-20s  %-6s  %-8s  %-19s  %s\n",
		"ID", "COMMAND", "DATASET", "STEPS", "STATUS", "STARTED", "DURATION")
	for _, r := range runs {
		duration := "-"
		if !r.FinishedAt.IsZero() {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		fmt.Printf("%-36s  %-7s  %-20s  %-6d  %-8s  %-19s  %s\n",
			r.ID, r.Command, r.Dataset, r.Steps, r.Status,
			r.StartedAt.Format("2006-01-02 15:04:05"), duration)
	}
	return ExitSuccess
}
