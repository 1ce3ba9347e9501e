package timeline

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-spin/common"
)

func TestChannelConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  ChannelConfig
		ok   bool
	}{
		{"defaults", NewChannelConfig(1000), true},
		{"finite", NewChannelConfig(1000, WithRepeat(3)), true},
		{"zero repeat", NewChannelConfig(1000, WithRepeat(0)), true},
		{"zero duration", NewChannelConfig(0), false},
		{"negative duration", NewChannelConfig(-5), false},
		{"infinite duration", NewChannelConfig(math.Inf(1)), false},
		{"zero rate", NewChannelConfig(1000, WithRate(0)), false},
		{"negative rate", NewChannelConfig(1000, WithRate(-1)), false},
		{"bad repeat", NewChannelConfig(1000, WithRepeat(-2)), false},
		{"zero value", ChannelConfig{DurationMs: 1000}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := NewTimeline()
			_, err := tl.AddChannel(tt.cfg)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, common.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestChannelWrapsExactlyAfterOneDuration(t *testing.T) {
	tl := NewTimeline(WithAutoPlay())
	h, err := tl.AddChannel(NewChannelConfig(2000))
	if err != nil {
		t.Fatal(err)
	}

	tl.Advance(2000)
	c := tl.Channel(h)
	if c.Phase() != 0 {
		t.Fatalf("phase after one duration = %v, want 0", c.Phase())
	}
	if c.CompletedCycles() != 1 {
		t.Fatalf("completed = %d, want 1", c.CompletedCycles())
	}
}

func TestAdvanceZeroIsIdempotent(t *testing.T) {
	tl := NewTimeline(WithAutoPlay())
	h, _ := tl.AddChannel(NewChannelConfig(1000))
	track, _ := NewCycleTrack(1000, common.TwoPi)

	var calls int
	a, err := Attach(tl, h, track, func(float64) { calls++ })
	if err != nil {
		t.Fatal(err)
	}

	tl.Advance(333)
	before := a.Value()
	phase := tl.Channel(h).Phase()
	seen := calls

	tl.Advance(0)
	tl.Advance(-10)

	if a.Value() != before || tl.Channel(h).Phase() != phase {
		t.Fatalf("Advance(0) changed state: value %v -> %v", before, a.Value())
	}
	if calls != seen {
		t.Fatalf("consumer invoked on a zero advance")
	}
}

func TestFiniteChannelFinishes(t *testing.T) {
	tests := []struct {
		repeat   int
		duration float64
		rate     float64
	}{
		{1, 1000, 1},
		{3, 500, 1},
		{2, 1000, 2},
	}

	for _, tt := range tests {
		tl := NewTimeline(WithAutoPlay())
		h, _ := tl.AddChannel(NewChannelConfig(tt.duration, WithRepeat(tt.repeat), WithRate(tt.rate)))
		track, _ := NewScalarTrack([]Keyframe[float64]{{0, 0}, {tt.duration, 10}})
		a, _ := Attach(tl, h, track, nil)

		total := float64(tt.repeat) * tt.duration / tt.rate
		tl.Advance(total + 1)

		c := tl.Channel(h)
		if !c.Finished() || !tl.Finished() {
			t.Fatalf("repeat=%d: channel not finished after %v ms", tt.repeat, total+1)
		}
		if c.Phase() != 1 || a.Value() != 10 {
			t.Fatalf("repeat=%d: expected end of final cycle, phase %v value %v", tt.repeat, c.Phase(), a.Value())
		}

		// further advances are no-ops
		elapsed := c.ElapsedMs()
		tl.Advance(12345)
		if c.ElapsedMs() != elapsed || c.CompletedCycles() != tt.repeat {
			t.Fatalf("repeat=%d: finished channel kept advancing", tt.repeat)
		}
	}
}

func TestInfiniteChannelNeverFinishes(t *testing.T) {
	tl := NewTimeline(WithAutoPlay())
	h, _ := tl.AddChannel(NewChannelConfig(100))
	for i := 0; i < 1000; i++ {
		tl.Advance(16.6)
	}
	c := tl.Channel(h)
	if c.Finished() || tl.Finished() {
		t.Fatal("infinite channel reported finished")
	}
	if p := c.Phase(); p < 0 || p >= 1 {
		t.Fatalf("phase %v outside [0, 1)", p)
	}
}

func TestTrackAtHalfDuration(t *testing.T) {
	tl := NewTimeline(WithAutoPlay())
	h, _ := tl.AddChannel(NewChannelConfig(2000))
	track, _ := NewScalarTrack([]Keyframe[float64]{{0, 0}, {2000, common.TwoPi}})

	var got float64
	if _, err := Attach(tl, h, track, func(v float64) { got = v }); err != nil {
		t.Fatal(err)
	}

	tl.Advance(1000)
	if math.Abs(got-math.Pi) > 1e-9 {
		t.Fatalf("value at 1000ms = %v, want pi", got)
	}
}

func TestTwoChannelRates(t *testing.T) {
	tests := []struct {
		name string
		y    ChannelConfig
	}{
		{"scaled rate", NewChannelConfig(2000, WithRate(0.7))},
		{"stretched duration", NewChannelConfig(2000 / 0.7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := NewTimeline(WithAutoPlay())
			x, _ := tl.AddChannel(NewChannelConfig(2000))
			y, _ := tl.AddChannel(tt.y)

			tl.Advance(2000)

			if p := tl.Channel(x).Phase(); p != 0 {
				t.Errorf("X phase = %v, want 0", p)
			}
			if p := tl.Channel(y).Phase(); math.Abs(p-0.7) > 1e-9 {
				t.Errorf("Y phase = %v, want 0.7", p)
			}
		})
	}
}

func TestTimelineDeterministic(t *testing.T) {
	deltas := []float64{16.6, 16.7, 33.1, 0, 8.2, 1000.4, 16.6, 3.3}

	run := func() []float64 {
		tl := NewTimeline(WithAutoPlay())
		h1, _ := tl.AddChannel(NewChannelConfig(1234))
		h2, _ := tl.AddChannel(NewChannelConfig(777, WithRate(1.3)))
		t1, _ := NewCycleTrack(1234, common.TwoPi)
		t2, _ := NewCycleTrack(777, common.TwoPi)

		var out []float64
		Attach(tl, h1, t1, func(v float64) { out = append(out, v) })
		Attach(tl, h2, t2, func(v float64) { out = append(out, v) })
		for _, d := range deltas {
			tl.Advance(d)
		}
		return out
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("different sample counts: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			t.Fatalf("sample %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestPlayPauseStop(t *testing.T) {
	tl := NewTimeline()
	h, _ := tl.AddChannel(NewChannelConfig(1000))
	track, _ := NewCycleTrack(1000, 1)

	var got float64
	Attach(tl, h, track, func(v float64) { got = v })

	tl.Advance(100)
	if tl.ElapsedMs() != 0 || got != 0 {
		t.Fatal("stopped timeline advanced")
	}

	tl.Play()
	tl.Advance(250)
	if tl.State() != StatePlaying || math.Abs(got-0.25) > eps {
		t.Fatalf("after play: state %v value %v", tl.State(), got)
	}

	tl.Pause()
	tl.Advance(250)
	if tl.State() != StatePaused || math.Abs(got-0.25) > eps {
		t.Fatalf("after pause: state %v value %v", tl.State(), got)
	}

	tl.Play()
	tl.Advance(250)
	if math.Abs(got-0.5) > eps || tl.ElapsedMs() != 500 {
		t.Fatalf("after resume: value %v elapsed %v", got, tl.ElapsedMs())
	}

	tl.Stop()
	if tl.State() != StateStopped || got != 0 || tl.Channel(h).ElapsedMs() != 0 || tl.ElapsedMs() != 0 {
		t.Fatalf("after stop: state %v value %v", tl.State(), got)
	}
}

func TestAttachUnknownHandle(t *testing.T) {
	tl := NewTimeline()
	track, _ := NewCycleTrack(1000, 1)
	if _, err := Attach(tl, ChannelHandle(3), track, nil); !errors.Is(err, common.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if tl.Channel(ChannelHandle(-1)) != nil {
		t.Fatal("expected nil channel for invalid handle")
	}
}

func TestAttachmentAccessors(t *testing.T) {
	tl := NewTimeline(WithAutoPlay())
	h, _ := tl.AddChannel(NewChannelConfig(300))
	track, _ := NewScalarTrack([]Keyframe[float64]{{0, 0}, {100, 10}, {300, 30}})
	a, _ := Attach(tl, h, track, nil)

	tl.Advance(200)
	if a.StartValue() != 10 || a.EndValue() != 30 || math.Abs(a.Factor()-0.5) > eps || math.Abs(a.Value()-20) > eps {
		t.Fatalf("accessors = (%v, %v, %v, %v)", a.StartValue(), a.EndValue(), a.Factor(), a.Value())
	}
}

func TestConsumerCanCallTimeline(t *testing.T) {
	tl := NewTimeline(WithAutoPlay())
	h, _ := tl.AddChannel(NewChannelConfig(1000))
	track, _ := NewCycleTrack(1000, 1)

	type seen struct {
		state PlayState
		phase float64
		value float64
	}
	var calls []seen
	_, err := Attach(tl, h, track, func(v float64) {
		calls = append(calls, seen{state: tl.State(), phase: tl.Channel(h).Phase(), value: v})
	})
	if err != nil {
		t.Fatal(err)
	}

	tl.Advance(250)
	tl.Stop()

	want := []seen{
		{state: StatePlaying, phase: 0, value: 0},
		{state: StatePlaying, phase: 0.25, value: 0.25},
		{state: StateStopped, phase: 0, value: 0},
	}
	if len(calls) != len(want) {
		t.Fatalf("consumer calls = %+v, want %+v", calls, want)
	}
	for i := range want {
		if calls[i].state != want[i].state || math.Abs(calls[i].phase-want[i].phase) > 1e-9 || math.Abs(calls[i].value-want[i].value) > 1e-9 {
			t.Errorf("call %d = %+v, want %+v", i, calls[i], want[i])
		}
	}
}

func TestConsumerCanPauseTimeline(t *testing.T) {
	tl := NewTimeline(WithAutoPlay())
	h, _ := tl.AddChannel(NewChannelConfig(1000))
	track, _ := NewCycleTrack(1000, 1)

	if _, err := Attach(tl, h, track, func(v float64) {
		if v >= 0.5 {
			tl.Pause()
		}
	}); err != nil {
		t.Fatal(err)
	}

	tl.Advance(500)
	if tl.State() != StatePaused {
		t.Fatalf("state = %s, want paused", tl.State())
	}
	tl.Advance(100)
	if p := tl.Channel(h).Phase(); math.Abs(p-0.5) > 1e-9 {
		t.Fatalf("phase = %v, want 0.5 after pausing", p)
	}
}

func TestZeroRepeatFinishedOnAdd(t *testing.T) {
	tl := NewTimeline(WithAutoPlay())
	h, err := tl.AddChannel(NewChannelConfig(1000, WithRepeat(0)))
	if err != nil {
		t.Fatal(err)
	}

	c := tl.Channel(h)
	if !c.Finished() || c.Phase() != 0 || c.CompletedCycles() != 0 {
		t.Fatalf("finished = %v, phase = %v, cycles = %d, want finished at phase 0", c.Finished(), c.Phase(), c.CompletedCycles())
	}
	if !tl.Finished() {
		t.Fatal("timeline with only a zero-repeat channel should be finished")
	}

	tl.Advance(400)
	if !c.Finished() || c.Phase() != 0 || c.ElapsedMs() != 0 {
		t.Fatalf("advance moved a zero-repeat channel: phase = %v, elapsed = %v", c.Phase(), c.ElapsedMs())
	}
}
