package timeline

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-spin/common"
)

// Infinite is the RepeatCount of a channel that never finishes.
const Infinite = -1

// ChannelConfig describes a timeline channel. Use NewChannelConfig for the defaults
// (rate 1, infinite repeat).
type ChannelConfig struct {
	// Label is used in log output only.
	Label string
	// DurationMs is the length of one cycle. Must be > 0.
	DurationMs float64
	// RepeatCount is the number of cycles to play, or Infinite.
	RepeatCount int
	// Rate multiplies every delta fed to the channel. Must be > 0.
	Rate float64
}

// ChannelConfigOption is a function that configures a ChannelConfig built by NewChannelConfig.
type ChannelConfigOption func(*ChannelConfig)

// NewChannelConfig creates a config for an infinitely repeating channel at rate 1.
//
// Parameters:
//   - durationMs: the cycle length in milliseconds
//   - options: variadic list of ChannelConfigOption functions
//
// Returns:
//   - ChannelConfig: the config
func NewChannelConfig(durationMs float64, options ...ChannelConfigOption) ChannelConfig {
	cfg := ChannelConfig{
		DurationMs:  durationMs,
		RepeatCount: Infinite,
		Rate:        1,
	}
	for _, opt := range options {
		opt(&cfg)
	}
	return cfg
}

// WithRepeat sets the number of cycles the channel plays before finishing.
func WithRepeat(count int) ChannelConfigOption {
	return func(c *ChannelConfig) {
		c.RepeatCount = count
	}
}

// WithRate sets the playback rate multiplier.
func WithRate(rate float64) ChannelConfigOption {
	return func(c *ChannelConfig) {
		c.Rate = rate
	}
}

// WithLabel sets the channel label.
func WithLabel(label string) ChannelConfigOption {
	return func(c *ChannelConfig) {
		c.Label = label
	}
}

// Validate reports whether the config describes a playable channel.
//
// Returns:
//   - error: a common.ErrConfiguration error describing the first invalid field
func (c ChannelConfig) Validate() error {
	if !(c.DurationMs > 0) || math.IsInf(c.DurationMs, 0) {
		return fmt.Errorf("%w: channel %q duration must be a positive finite number, got %v", common.ErrConfiguration, c.Label, c.DurationMs)
	}
	if c.RepeatCount < 0 && c.RepeatCount != Infinite {
		return fmt.Errorf("%w: channel %q repeat count must be >= 0 or infinite, got %d", common.ErrConfiguration, c.Label, c.RepeatCount)
	}
	if !(c.Rate > 0) || math.IsInf(c.Rate, 0) {
		return fmt.Errorf("%w: channel %q rate must be a positive finite number, got %v", common.ErrConfiguration, c.Label, c.Rate)
	}
	return nil
}

// Channel is the read-only view of a timeline channel.
type Channel interface {
	// Config returns the channel's configuration.
	Config() ChannelConfig

	// ElapsedMs returns the total channel-local time accumulated, after rate scaling.
	ElapsedMs() float64

	// LocalMs returns the position inside the current cycle in milliseconds.
	LocalMs() float64

	// CompletedCycles returns the number of full cycles played.
	CompletedCycles() int

	// Phase returns LocalMs / DurationMs. It is in [0, 1) while the channel is active and 1 once
	// a finite channel has finished.
	Phase() float64

	// Finished reports whether a finite channel has played all of its cycles.
	Finished() bool
}

// sampler is an attached track that re-evaluates at a new local time. sample runs under the
// timeline lock and returns the consumer call for the new value, or nil when there is no consumer.
type sampler interface {
	sample(localMs float64) func()
}

// channel is the implementation of the Channel interface.
type channel struct {
	config      ChannelConfig
	elapsedMs   float64
	localMs     float64
	completed   int
	finished    bool
	attachments []sampler
}

var _ Channel = &channel{}

func newChannel(cfg ChannelConfig) *channel {
	c := &channel{config: cfg}
	c.reset(nil)
	return c
}

func (c *channel) Config() ChannelConfig {
	return c.config
}

func (c *channel) ElapsedMs() float64 {
	return c.elapsedMs
}

func (c *channel) LocalMs() float64 {
	return c.localMs
}

func (c *channel) CompletedCycles() int {
	return c.completed
}

func (c *channel) Phase() float64 {
	return c.localMs / c.config.DurationMs
}

func (c *channel) Finished() bool {
	return c.finished
}

// advance moves the channel forward by deltaMs of timeline time and appends the pending consumer
// calls to deliveries. Non-positive deltas and advances on a finished channel change nothing.
func (c *channel) advance(deltaMs float64, deliveries []func()) []func() {
	if c.finished || !(deltaMs > 0) {
		return deliveries
	}

	c.elapsedMs += deltaMs * c.config.Rate
	cycles := math.Floor(c.elapsedMs / c.config.DurationMs)

	if c.config.RepeatCount != Infinite && cycles >= float64(c.config.RepeatCount) {
		c.complete()
	} else {
		c.completed = int(cycles)
		c.localMs = math.Mod(c.elapsedMs, c.config.DurationMs)
	}

	return c.sampleAll(deliveries)
}

// complete clamps the channel to the end of its final cycle.
func (c *channel) complete() {
	c.completed = c.config.RepeatCount
	c.elapsedMs = float64(c.config.RepeatCount) * c.config.DurationMs
	c.localMs = c.config.DurationMs
	c.finished = true
}

// reset returns the channel to time zero. A channel with a repeat count of zero has no cycles to
// play and is finished immediately, at local time zero.
func (c *channel) reset(deliveries []func()) []func() {
	c.elapsedMs = 0
	c.localMs = 0
	c.completed = 0
	c.finished = c.config.RepeatCount == 0
	return c.sampleAll(deliveries)
}

func (c *channel) attach(s sampler) func() {
	c.attachments = append(c.attachments, s)
	return s.sample(c.localMs)
}

func (c *channel) sampleAll(deliveries []func()) []func() {
	for _, s := range c.attachments {
		if d := s.sample(c.localMs); d != nil {
			deliveries = append(deliveries, d)
		}
	}
	return deliveries
}

func deliver(deliveries []func()) {
	for _, d := range deliveries {
		d()
	}
}

// Attachment binds a KeyframeTrack to a channel. It is re-sampled whenever the channel advances
// and forwards the interpolated value to its consumer.
type Attachment[T any] struct {
	track    KeyframeTrack[T]
	consumer func(T)
	current  Sample[T]
}

// StartValue returns the value of the keyframe at or before the channel's local time.
func (a *Attachment[T]) StartValue() T {
	return a.current.Start
}

// EndValue returns the value of the keyframe at or after the channel's local time.
func (a *Attachment[T]) EndValue() T {
	return a.current.End
}

// Factor returns the eased interpolation factor between StartValue and EndValue.
func (a *Attachment[T]) Factor() float64 {
	return a.current.Factor
}

// Value returns the most recently interpolated value.
func (a *Attachment[T]) Value() T {
	return a.current.Value
}

// Track returns the attached track.
func (a *Attachment[T]) Track() KeyframeTrack[T] {
	return a.track
}

func (a *Attachment[T]) sample(localMs float64) func() {
	a.current = a.track.Sample(localMs)
	if a.consumer == nil {
		return nil
	}
	v := a.current.Value
	return func() { a.consumer(v) }
}
