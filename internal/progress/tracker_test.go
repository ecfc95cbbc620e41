package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

// newTestBar creates an active bar writing to buf with a controllable
// clock starting at a fixed instant.
func newTestBar(t *testing.T, nSteps int, verbosity Verbosity, buf *bytes.Buffer) (*Bar, *time.Time) {
	t.Helper()

	tracker := New(nSteps, Options{Output: buf, Verbosity: verbosity})
	bar, ok := tracker.(*Bar)
	if !ok {
		t.Fatalf("New(%d) returned %T, want *Bar", nSteps, tracker)
	}

	clock := time.Date(2014, 6, 1, 12, 0, 0, 0, time.UTC)
	bar.start = clock
	bar.now = func() time.Time { return clock }
	return bar, &clock
}

func TestNewEmitsInitialLine(t *testing.T) {
	var buf bytes.Buffer
	New(10, Options{Output: &buf, Verbosity: Summary})

	out := buf.String()
	if len(out) != Width+1 {
		t.Fatalf("initial line length = %d, want %d", len(out), Width+1)
	}
	if !strings.HasSuffix(out, "\r") {
		t.Errorf("initial line not carriage-return terminated: %q", out)
	}
	if !strings.Contains(out, "(0.00% completed") {
		t.Errorf("initial line missing 0%% status: %q", out)
	}
}

func TestAdvanceReachesFull(t *testing.T) {
	var buf bytes.Buffer
	bar, clock := newTestBar(t, 10, Summary, &buf)

	for i := 0; i < 10; i++ {
		*clock = clock.Add(time.Second)
		bar.Advance("")
	}

	if bar.percent != 100 {
		t.Errorf("percent after 10 advances = %v, want 100", bar.percent)
	}

	out := buf.String()
	// Initial line plus 10 updates, each Width chars plus terminator.
	if len(out) != 11*(Width+1) {
		t.Errorf("output length = %d, want %d", len(out), 11*(Width+1))
	}
	if strings.Count(out, "\r") != 10 {
		t.Errorf("carriage returns = %d, want 10", strings.Count(out, "\r"))
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("final line not newline terminated")
	}
	if strings.Count(out, "\n") != 1 {
		t.Errorf("newlines = %d, want 1", strings.Count(out, "\n"))
	}
}

func TestAdvanceMonotonic(t *testing.T) {
	var buf bytes.Buffer
	bar, clock := newTestBar(t, 7, Summary, &buf)

	prev := bar.percent
	for i := 0; i < 12; i++ { // deliberately past the expected count
		*clock = clock.Add(100 * time.Millisecond)
		bar.Advance("")
		if bar.percent < prev {
			t.Fatalf("percent decreased: %v -> %v", prev, bar.percent)
		}
		prev = bar.percent
	}
}

func TestRemainingEstimateNonNegative(t *testing.T) {
	var buf bytes.Buffer
	bar, clock := newTestBar(t, 4, Summary, &buf)

	for i := 0; i < 6; i++ {
		*clock = clock.Add(3 * time.Second)
		bar.Advance("")
		if bar.remaining < 0 {
			t.Fatalf("remaining estimate negative after step %d: %v", i+1, bar.remaining)
		}
	}
}

func TestRemainingEstimateValue(t *testing.T) {
	var buf bytes.Buffer
	bar, clock := newTestBar(t, 4, Summary, &buf)

	// One of four steps done after 10 seconds: 30 seconds left.
	*clock = clock.Add(10 * time.Second)
	bar.Advance("")
	if got, want := bar.remaining, 30*time.Second; got != want {
		t.Errorf("remaining after first quarter = %v, want %v", got, want)
	}
}

func TestDisabledVariants(t *testing.T) {
	var buf bytes.Buffer

	for _, tt := range []struct {
		name    string
		tracker Tracker
	}{
		{"single step", New(1, Options{Output: &buf, Verbosity: Summary})},
		{"zero steps", New(0, Options{Output: &buf, Verbosity: Detailed})},
		{"silent", New(100, Options{Output: &buf, Verbosity: Silent})},
		{"discard", Discard},
	} {
		for i := 0; i < 50; i++ {
			tt.tracker.Advance("noise")
		}
		if buf.Len() != 0 {
			t.Errorf("%s: produced %d bytes of output, want none", tt.name, buf.Len())
		}
	}
}

func TestAnnotationTiers(t *testing.T) {
	var detailed, summary bytes.Buffer

	bar, _ := newTestBar(t, 5, Detailed, &detailed)
	bar.Advance("subject OAS1_0001")
	if !strings.Contains(detailed.String(), "subject OAS1_0001") {
		t.Error("Detailed verbosity dropped the annotation")
	}

	bar, _ = newTestBar(t, 5, Summary, &summary)
	bar.Advance("subject OAS1_0001")
	if strings.Contains(summary.String(), "subject OAS1_0001") {
		t.Error("Summary verbosity printed the annotation")
	}
}

func TestAnnotationLeftJustified(t *testing.T) {
	var buf bytes.Buffer
	bar, _ := newTestBar(t, 5, Detailed, &buf)
	buf.Reset() // drop the initial line

	bar.Advance("worker 3")

	out := buf.String()
	if !strings.HasPrefix(out, "worker 3 ") {
		t.Errorf("annotation not left-justified: %q", out)
	}
	// Annotation box plus status line plus terminator.
	if len(out) != 2*Width+1 {
		t.Errorf("output length = %d, want %d", len(out), 2*Width+1)
	}
}

func TestLinesFitWidth(t *testing.T) {
	var buf bytes.Buffer
	longStatus := strings.Repeat("x", 3*Width)
	longAnnotation := strings.Repeat("a", 3*Width)

	tracker := New(5, Options{
		Output:    &buf,
		Verbosity: Detailed,
		Formatter: func(Snapshot) string { return longStatus },
	})
	tracker.Advance(longAnnotation)

	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\r\n"), "\r") {
		// The annotation and status boxes are written back to back.
		if len(line)%Width != 0 {
			t.Errorf("emitted chunk length %d not a multiple of %d: %q", len(line), Width, line)
		}
	}
	if strings.Contains(buf.String(), strings.Repeat("x", Width+1)) {
		t.Error("status line not truncated to width")
	}
	if strings.Contains(buf.String(), strings.Repeat("a", Width+1)) {
		t.Error("annotation not truncated to width")
	}
}

func TestRenderFailureIsolated(t *testing.T) {
	var buf bytes.Buffer
	tracker := New(5, Options{
		Output:    &buf,
		Verbosity: Summary,
		Formatter: func(Snapshot) string { panic("formatter bug") },
	})

	// A broken formatter must not take down the tracked procedure.
	tracker.Advance("")
	tracker.Advance("")
}

func TestCustomFormatterSnapshot(t *testing.T) {
	var buf bytes.Buffer
	var got Snapshot

	tracker := New(4, Options{
		Output:    &buf,
		Verbosity: Detailed,
		Formatter: func(s Snapshot) string {
			got = s
			return "status"
		},
	})
	bar := tracker.(*Bar)
	bar.start = time.Now()

	bar.Advance("note")

	if got.Percent != 25 {
		t.Errorf("snapshot percent = %v, want 25", got.Percent)
	}
	if got.Annotation != "note" {
		t.Errorf("snapshot annotation = %q, want %q", got.Annotation, "note")
	}
	if got.Remaining < 0 {
		t.Errorf("snapshot remaining negative: %v", got.Remaining)
	}
}
