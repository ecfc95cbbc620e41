package progress

import "sync"

// Shared serializes Advance calls from concurrent workers onto one
// underlying tracker. A single owning goroutine holds the tracker and
// applies updates received over an unbuffered channel, so at most one
// update is in flight at a time and none are lost. The interleaving of
// updates across workers is whatever order they arrive in; nothing ties
// a worker's annotation to a particular percentage.
type Shared struct {
	updates chan string
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// Share wraps t in a serializing service and starts its owning
// goroutine. The caller must Close the result after all workers have
// finished advancing.
func Share(t Tracker) *Shared {
	s := &Shared{
		updates: make(chan string),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.loop(t)
	return s
}

func (s *Shared) loop(t Tracker) {
	defer close(s.done)
	for {
		select {
		case annotation := <-s.updates:
			t.Advance(annotation)
		case <-s.stop:
			return
		}
	}
}

// Advance blocks until the owning goroutine accepts the update.
// After Close it becomes a no-op.
func (s *Shared) Advance(annotation string) {
	select {
	case s.updates <- annotation:
	case <-s.stop:
	}
}

// Close stops the service and waits for the owning goroutine to exit.
// Advance calls must not be concurrent with Close; updates fully sent
// before Close are guaranteed to have been applied.
func (s *Shared) Close() {
	s.once.Do(func() {
		close(s.stop)
	})
	<-s.done
}
