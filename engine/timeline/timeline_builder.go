package timeline

// TimelineBuilderOption is a function that configures a Timeline during construction.
type TimelineBuilderOption func(*timeline)

// WithTimelineLabel sets the label used in log output.
//
// Parameters:
//   - label: the timeline label
//
// Returns:
//   - TimelineBuilderOption: a function that applies the label option
func WithTimelineLabel(label string) TimelineBuilderOption {
	return func(t *timeline) {
		t.label = label
	}
}

// WithAutoPlay starts the timeline in the playing state.
//
// Returns:
//   - TimelineBuilderOption: a function that applies the autoplay option
func WithAutoPlay() TimelineBuilderOption {
	return func(t *timeline) {
		t.state = StatePlaying
	}
}
