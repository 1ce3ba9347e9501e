package profiler

import (
	"testing"
	"time"
)

func TestTickReportsAfterInterval(t *testing.T) {
	p := NewProfiler(WithInterval(time.Second), WithMemStats(false))
	start := time.Unix(1000, 0)
	p.Reset(start)

	frames := []struct {
		at       time.Duration
		rendered bool
	}{
		{at: 100 * time.Millisecond, rendered: true},
		{at: 300 * time.Millisecond, rendered: false},
		{at: 400 * time.Millisecond, rendered: true},
	}
	for _, f := range frames {
		if p.TickAt(start.Add(f.at), f.rendered) {
			t.Fatalf("reported early at %v", f.at)
		}
	}
	if !p.TickAt(start.Add(time.Second), true) {
		t.Fatal("expected a report once the interval elapsed")
	}

	s := p.Stats()
	if s.WindowFrames != 4 {
		t.Fatalf("window frames = %d, want 4", s.WindowFrames)
	}
	if s.FPS != 4 {
		t.Fatalf("fps = %v, want 4", s.FPS)
	}
	if s.WindowSkipped != 1 || s.TotalSkipped != 1 {
		t.Fatalf("skipped = %d/%d, want 1/1", s.WindowSkipped, s.TotalSkipped)
	}
	if s.MinFrame != 100*time.Millisecond {
		t.Fatalf("min frame = %v, want 100ms", s.MinFrame)
	}
	if s.MaxFrame != 600*time.Millisecond {
		t.Fatalf("max frame = %v, want 600ms", s.MaxFrame)
	}
	if s.AvgFrame != 250*time.Millisecond {
		t.Fatalf("avg frame = %v, want 250ms", s.AvgFrame)
	}
}

func TestTickStartsNewWindow(t *testing.T) {
	p := NewProfiler(WithInterval(500*time.Millisecond), WithMemStats(false))
	start := time.Unix(0, 0)
	p.Reset(start)

	p.TickAt(start.Add(500*time.Millisecond), true)
	if p.TickAt(start.Add(600*time.Millisecond), true) {
		t.Fatal("a fresh window should not report immediately")
	}
	if !p.TickAt(start.Add(time.Second), true) {
		t.Fatal("expected the second window to report")
	}
	s := p.Stats()
	if s.WindowFrames != 2 || s.TotalFrames != 3 {
		t.Fatalf("frames = %d window / %d total, want 2/3", s.WindowFrames, s.TotalFrames)
	}
}
