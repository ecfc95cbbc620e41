package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/VirgileFritsch/nilearn/internal/progress"
)

// Task processes item index and returns an annotation for the progress
// stream (typically the item's name).
type Task func(ctx context.Context, index int) (annotation string, err error)

// Options configures a batch run.
type Options struct {
	// Workers is the number of parallel workers.
	// Default: 4
	Workers int

	// MaxConsecutiveFailures is the number of consecutive task failures
	// before the circuit breaker trips and cancels the remaining work.
	// Default: 10
	MaxConsecutiveFailures int

	// Progress receives one Advance per finished task. When more than
	// one worker runs it must be safe for concurrent use (wrap with
	// progress.Share). Default: progress.Discard.
	Progress progress.Tracker
}

// TaskError records a single failed task.
type TaskError struct {
	Index int
	Err   error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d: %v", e.Index, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// CircuitBreakerError is returned when too many tasks fail in a row.
// Use errors.As to extract it and inspect Failed for details.
type CircuitBreakerError struct {
	ConsecutiveFailures int
	Failed              []*TaskError
}

func (e *CircuitBreakerError) Error() string {
	return fmt.Sprintf("circuit breaker tripped: %d consecutive failures", e.ConsecutiveFailures)
}

// Run executes n tasks over a pool of workers and waits for them all.
//
// Every finished task, successful or not, advances the progress
// tracker, so the percentage reflects work attempted rather than work
// that succeeded. Individual failures are collected and returned
// joined; only the circuit breaker or a cancelled context stops the
// batch early.
func Run(ctx context.Context, n int, task Task, opts Options) error {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxConsecutiveFailures <= 0 {
		opts.MaxConsecutiveFailures = 10
	}
	if opts.Progress == nil {
		opts.Progress = progress.Discard
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu                  sync.Mutex
		consecutiveFailures int
		failed              []*TaskError
		tripped             bool
	)

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				annotation, err := runTask(runCtx, task, index)
				opts.Progress.Advance(annotation)

				mu.Lock()
				if err != nil {
					consecutiveFailures++
					failed = append(failed, &TaskError{Index: index, Err: err})
					if consecutiveFailures >= opts.MaxConsecutiveFailures {
						tripped = true
						cancel()
					}
				} else {
					consecutiveFailures = 0
				}
				stop := tripped
				mu.Unlock()

				if stop {
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case jobs <- i:
			case <-runCtx.Done():
				return
			}
		}
	}()

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()

	if tripped {
		return &CircuitBreakerError{
			ConsecutiveFailures: consecutiveFailures,
			Failed:              failed,
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(failed) > 0 {
		errs := make([]error, len(failed))
		for i, fe := range failed {
			errs[i] = fe
		}
		return errors.Join(errs...)
	}
	return nil
}

// runTask invokes the task, converting a panic into an error so one
// bad item cannot take down the batch.
func runTask(ctx context.Context, task Task, index int) (annotation string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task(ctx, index)
}
