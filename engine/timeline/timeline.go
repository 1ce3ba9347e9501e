package timeline

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-spin/common"
)

// PlayState is the playback state of a Timeline.
type PlayState int

const (
	StateStopped PlayState = iota
	StatePlaying
	StatePaused
)

func (s PlayState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return fmt.Sprintf("PlayState(%d)", int(s))
	}
}

// ChannelHandle identifies a channel registered on a Timeline.
type ChannelHandle int

// timeline is the implementation of the Timeline interface.
type timeline struct {
	label     string
	state     PlayState
	channels  []*channel
	elapsedMs float64

	mu *sync.Mutex
}

// Timeline owns a set of channels and advances them together from the host's frame deltas.
// Channels are advanced in registration order and evaluation is fully deterministic: the same
// sequence of deltas always yields the same values.
type Timeline interface {
	// AddChannel registers a new channel.
	//
	// Parameters:
	//   - config: the channel configuration
	//
	// Returns:
	//   - ChannelHandle: the handle used to attach tracks to the channel
	//   - error: a common.ErrConfiguration error if the config is invalid
	AddChannel(config ChannelConfig) (ChannelHandle, error)

	// Channel returns the read-only view of a registered channel.
	//
	// Parameters:
	//   - handle: the channel handle
	//
	// Returns:
	//   - Channel: the channel, or nil if the handle is unknown
	Channel(handle ChannelHandle) Channel

	// ChannelCount returns the number of registered channels.
	ChannelCount() int

	// Play starts or resumes playback.
	Play()

	// Pause halts playback, keeping the current time.
	Pause()

	// Stop halts playback and resets every channel to time zero. Attached consumers receive the
	// values at time zero.
	Stop()

	// State returns the current playback state.
	State() PlayState

	// Advance feeds a frame delta to every channel. It does nothing unless the timeline is
	// playing. Non-positive deltas are ignored.
	//
	// Parameters:
	//   - deltaMs: the wall-clock time since the previous frame in milliseconds
	Advance(deltaMs float64)

	// ElapsedMs returns the total delta accepted while playing since the last Stop.
	ElapsedMs() float64

	// Finished reports whether the timeline has at least one finite channel and every finite
	// channel has finished. Infinite channels are ignored.
	Finished() bool

	attach(handle ChannelHandle, s sampler) error
}

var _ Timeline = &timeline{}

// NewTimeline creates a stopped timeline with no channels.
//
// Parameters:
//   - options: variadic list of TimelineBuilderOption functions to configure the timeline
//
// Returns:
//   - Timeline: the new timeline
func NewTimeline(options ...TimelineBuilderOption) Timeline {
	t := &timeline{
		state: StateStopped,
		mu:    &sync.Mutex{},
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// Attach binds a track to a channel. The track is sampled immediately at the channel's current
// local time and again on every advance, with each value passed to consumer. Consumers run after
// the timeline lock is released and may call back into the timeline.
//
// Parameters:
//   - tl: the timeline owning the channel
//   - handle: the channel handle returned by AddChannel
//   - track: the keyframe track to sample
//   - consumer: receives every sampled value, may be nil
//
// Returns:
//   - *Attachment[T]: the attachment, exposing the bracket and factor of the last sample
//   - error: a common.ErrConfiguration error if the handle is unknown or the track is nil
func Attach[T any](tl Timeline, handle ChannelHandle, track KeyframeTrack[T], consumer func(T)) (*Attachment[T], error) {
	if track == nil {
		return nil, fmt.Errorf("%w: cannot attach a nil track", common.ErrConfiguration)
	}
	a := &Attachment[T]{track: track, consumer: consumer}
	if err := tl.attach(handle, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (t *timeline) AddChannel(config ChannelConfig) (ChannelHandle, error) {
	if err := config.Validate(); err != nil {
		return -1, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.channels = append(t.channels, newChannel(config))
	handle := ChannelHandle(len(t.channels) - 1)
	common.Logger().Debug("[Timeline] channel added",
		"timeline", t.label, "channel", config.Label, "handle", int(handle),
		"durationMs", config.DurationMs, "repeat", config.RepeatCount, "rate", config.Rate)
	return handle, nil
}

func (t *timeline) Channel(handle ChannelHandle) Channel {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.lookup(handle)
	if !ok {
		return nil
	}
	return c
}

func (t *timeline) ChannelCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.channels)
}

func (t *timeline) Play() {
	t.setState(StatePlaying)
}

func (t *timeline) Pause() {
	t.mu.Lock()
	playing := t.state == StatePlaying
	t.mu.Unlock()

	if playing {
		t.setState(StatePaused)
	}
}

func (t *timeline) Stop() {
	var deliveries []func()
	t.mu.Lock()
	for _, c := range t.channels {
		deliveries = c.reset(deliveries)
	}
	t.elapsedMs = 0
	t.mu.Unlock()

	t.setState(StateStopped)
	deliver(deliveries)
}

func (t *timeline) State() PlayState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *timeline) Advance(deltaMs float64) {
	t.mu.Lock()
	if t.state != StatePlaying || !(deltaMs > 0) {
		t.mu.Unlock()
		return
	}

	t.elapsedMs += deltaMs
	var deliveries []func()
	for _, c := range t.channels {
		deliveries = c.advance(deltaMs, deliveries)
	}
	t.mu.Unlock()

	deliver(deliveries)
}

func (t *timeline) ElapsedMs() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsedMs
}

func (t *timeline) Finished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	finite := 0
	for _, c := range t.channels {
		if c.config.RepeatCount == Infinite {
			continue
		}
		finite++
		if !c.finished {
			return false
		}
	}
	return finite > 0
}

func (t *timeline) attach(handle ChannelHandle, s sampler) error {
	t.mu.Lock()
	c, ok := t.lookup(handle)
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: unknown channel handle %d", common.ErrConfiguration, int(handle))
	}
	d := c.attach(s)
	t.mu.Unlock()

	if d != nil {
		d()
	}
	return nil
}

func (t *timeline) lookup(handle ChannelHandle) (*channel, bool) {
	if handle < 0 || int(handle) >= len(t.channels) {
		return nil, false
	}
	return t.channels[handle], true
}

func (t *timeline) setState(next PlayState) {
	t.mu.Lock()
	prev := t.state
	t.state = next
	t.mu.Unlock()

	if prev != next {
		common.Logger().Debug("[Timeline] state changed", "timeline", t.label, "from", prev.String(), "to", next.String())
	}
}
