// Package progress tracks long-running procedures and prints their
// progress to a diagnostic stream.
//
// A Tracker is created with the number of milestones the procedure is
// expected to reach (iterations of an algorithm, subjects in a batch,
// files to download). Each call to Advance moves the tracker one step
// and rewrites a fixed-width status line with the completion percentage
// and an estimate of the remaining time.
//
// # Usage
//
//	tracker := progress.New(len(files), progress.Options{
//	    Verbosity: progress.Detailed,
//	})
//
//	for _, f := range files {
//	    process(f)
//	    tracker.Advance(f)
//	}
//
// It is up to the caller to ensure that Advance is called exactly as
// many times as the step count given at creation; the tracker does not
// enforce it.
//
// # Output Format
//
//	(42.00% completed, 116 secs remaining)
//
// Lines are padded to 80 columns and carriage-return terminated while
// the procedure is in flight; the final expected step ends the line
// with a newline.
//
// For concurrent workers, wrap a Tracker with Share: updates are then
// applied one at a time by a single owning goroutine. With many workers
// and a fine step count the serialization itself becomes the
// bottleneck, so prefer a coarse discretization when sharing.
package progress
