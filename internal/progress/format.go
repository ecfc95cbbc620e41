package progress

import (
	"fmt"
	"time"
)

// Snapshot is an immutable view of a tracker's state, handed to a
// Formatter for rendering. Formatting never sees the tracker itself.
type Snapshot struct {
	// Percent is the completion percentage, in [0, 100] plus at most
	// one step of overshoot.
	Percent float64

	// Remaining is the estimated time until completion. Before the
	// first update it holds a large sentinel rather than an estimate.
	Remaining time.Duration

	// Annotation is the caller-supplied free text for this update, if
	// any.
	Annotation string
}

// Formatter renders a snapshot into the bare status text. The tracker
// owns padding and line termination.
type Formatter func(Snapshot) string

// DefaultFormatter renders the standard status line:
//
//	(42.00% completed, 116 secs remaining)
func DefaultFormatter(s Snapshot) string {
	return fmt.Sprintf("(%.2f%% completed, %d secs remaining)",
		s.Percent, int64(s.Remaining.Seconds()))
}
