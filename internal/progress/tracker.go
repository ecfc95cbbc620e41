package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Width is the fixed width, in characters, of every emitted line.
const Width = 80

// Verbosity controls how much a tracker prints.
type Verbosity int

const (
	// Silent disables all output.
	Silent Verbosity = iota

	// Summary prints the overall status line only.
	Summary

	// Detailed additionally prints caller-supplied annotations before
	// the status line.
	Detailed
)

// Tracker is the uniform interface over the active and disabled
// progress variants. Calling code never branches on verbosity: it
// holds a Tracker and calls Advance unconditionally.
type Tracker interface {
	// Advance moves the tracker one step forward and emits the current
	// status. The annotation is optional ("" for none) and is only
	// shown at the Detailed verbosity.
	Advance(annotation string)
}

// Options configures a tracker.
type Options struct {
	// Output is where status lines are written.
	// Default: os.Stderr
	Output io.Writer

	// Verbosity selects the output tier. The zero value is Silent, so
	// New with a zero Options returns the disabled variant.
	Verbosity Verbosity

	// Formatter renders a status snapshot into the bare status text.
	// Default: DefaultFormatter.
	Formatter Formatter
}

// Discard is a Tracker that ignores all updates.
var Discard Tracker = noop{}

// noop is the disabled variant. It satisfies Tracker and does nothing.
type noop struct{}

func (noop) Advance(string) {}

// initialRemaining is the sentinel shown before the first update, when
// no estimate exists yet.
const initialRemaining = time.Duration(1<<31-1) * time.Second

// Bar is the active tracker variant.
//
// The percentage only ever increases, by a fixed step of 100/nSteps per
// Advance call. If the caller advances past the expected step count the
// percentage runs past 100; that is tolerated, not corrected.
type Bar struct {
	out      io.Writer
	format   Formatter
	detailed bool

	step      int
	total     int
	stepSize  float64
	percent   float64
	remaining time.Duration
	start     time.Time
	now       func() time.Time
}

// New creates a tracker for a procedure with nSteps milestones.
//
// When nSteps <= 1 or the verbosity is Silent there is nothing worth
// tracking and the disabled variant is returned. Otherwise the start
// time is captured and an initial 0% line is emitted immediately.
func New(nSteps int, opts Options) Tracker {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.Formatter == nil {
		opts.Formatter = DefaultFormatter
	}

	if nSteps <= 1 || opts.Verbosity == Silent {
		return noop{}
	}

	b := &Bar{
		out:       opts.Output,
		format:    opts.Formatter,
		detailed:  opts.Verbosity == Detailed,
		total:     nSteps,
		stepSize:  100 / float64(nSteps),
		remaining: initialRemaining,
		now:       time.Now,
	}
	b.start = b.now()
	b.emit("")
	return b
}

// Advance moves the bar one step and rewrites the status line.
func (b *Bar) Advance(annotation string) {
	b.step++
	b.percent += b.stepSize
	b.remaining = b.estimateRemaining()
	b.emit(annotation)
}

// estimateRemaining extrapolates the total run time from the elapsed
// time and the fraction completed. The percentage has already been
// incremented when this runs, so the denominator is never zero after
// the first step; the guard covers a bar that was never advanced.
func (b *Bar) estimateRemaining() time.Duration {
	if b.percent <= 0 {
		return initialRemaining
	}
	elapsed := b.now().Sub(b.start)
	total := time.Duration(100 / b.percent * float64(elapsed))
	remaining := total - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// emit writes the optional annotation line and the status line. The
// tracker is diagnostic only: a panicking formatter or a failing writer
// must never abort the tracked procedure, so both are swallowed here.
func (b *Bar) emit(annotation string) {
	defer func() {
		_ = recover()
	}()

	if annotation != "" && b.detailed {
		fmt.Fprint(b.out, fit(annotation, true))
	}

	line := b.format(Snapshot{
		Percent:    b.percent,
		Remaining:  b.remaining,
		Annotation: annotation,
	})
	terminator := "\r"
	if b.step >= b.total {
		// Final expected step: leave the line on screen.
		terminator = "\n"
	}
	fmt.Fprint(b.out, fit(line, false), terminator)
}

// fit pads or truncates s to exactly Width characters.
func fit(s string, leftJustify bool) string {
	if len(s) > Width {
		return s[:Width]
	}
	padding := strings.Repeat(" ", Width-len(s))
	if leftJustify {
		return s + padding
	}
	return padding + s
}
