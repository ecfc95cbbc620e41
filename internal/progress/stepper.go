package progress

import (
	"fmt"
	"io"
	"os"
	"time"
)

// epsilonPercent floors the completion percentage in the remaining-time
// division so that an update at step 0 cannot divide by zero.
const epsilonPercent = 1e-6

// StepperOptions configures a Stepper.
type StepperOptions struct {
	// Job identifies the worker in the emitted line.
	Job int

	// TotalSteps is the number of items the job will process.
	TotalSteps int

	// Cadence is the sampling stride: only every Cadence-th update is
	// rendered, plus the final one. Default: 1 (every update).
	Cadence int

	// Output is where status lines are written.
	// Default: os.Stderr
	Output io.Writer
}

// Stepper is the cadence-sampled tracker variant. Unlike Bar it holds
// no running percentage: the caller passes the absolute step index and
// the percentage is computed from it directly, so updates may be
// skipped or repeated without drift.
type Stepper struct {
	job     int
	total   int
	cadence int
	out     io.Writer
	start   time.Time
	now     func() time.Time
}

// NewStepper creates a cadence-sampled tracker for a single job.
func NewStepper(opts StepperOptions) *Stepper {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.Cadence <= 0 {
		opts.Cadence = 1
	}
	if opts.TotalSteps <= 0 {
		opts.TotalSteps = 1
	}

	s := &Stepper{
		job:     opts.Job,
		total:   opts.TotalSteps,
		cadence: opts.Cadence,
		out:     opts.Output,
		now:     time.Now,
	}
	s.start = s.now()
	return s
}

// Update reports that the job has processed step items out of the
// total. Only every cadence-th step is rendered; the final step is
// always rendered and ends the line with a newline.
func (s *Stepper) Update(step int, message string) {
	if step%s.cadence != 0 && step != s.total {
		return
	}

	percent := 100 * float64(step) / float64(s.total)
	denom := percent
	if denom < epsilonPercent {
		denom = epsilonPercent
	}
	elapsed := s.now().Sub(s.start)
	remaining := time.Duration((100/denom - 1) * float64(elapsed))
	if remaining < 0 {
		remaining = 0
	}

	s.emit(step, percent, remaining, message)
}

func (s *Stepper) emit(step int, percent float64, remaining time.Duration, message string) {
	defer func() {
		_ = recover()
	}()

	line := fmt.Sprintf("Job #%d, processed %d/%d voxels (%.2f%%, %d secs remaining). %s",
		s.job, step, s.total, percent, int64(remaining.Seconds()), message)
	terminator := "\r"
	if step >= s.total {
		terminator = "\n"
	}
	fmt.Fprint(s.out, fit(line, true), terminator)
}
