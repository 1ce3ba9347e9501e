package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/Carmen-Shannon/oxy-spin/engine/animator"
	"github.com/Carmen-Shannon/oxy-spin/engine/light"
	"github.com/Carmen-Shannon/oxy-spin/engine/mesh"
	"github.com/Carmen-Shannon/oxy-spin/engine/timeline"
	"gopkg.in/yaml.v3"
)

// Mesh kinds understood by MeshConfig.Kind.
const (
	MeshTetrahedron = "tetrahedron"
	MeshIcosphere   = "icosphere"
)

// SceneConfig describes one demo scene: the mesh, a fixed camera and light, the rotation
// channels and how the result is drawn.
//
// Configuration file example:
//
//	name: icosphere
//	mesh: {kind: icosphere, subdivisions: 2, radius: 1}
//	rotationOrder: xy
//	channels:
//	  - {axis: x, durationMs: 4000, repeat: infinite}
//	  - {axis: y, durationMs: 4000, rate: 0.7}
type SceneConfig struct {
	// Name identifies the scene in logs.
	Name string `yaml:"name"`

	// Mesh selects the generated geometry.
	Mesh MeshConfig `yaml:"mesh"`

	// Camera is the fixed viewpoint.
	Camera CameraConfig `yaml:"camera"`

	// Light is the static point light.
	Light LightConfig `yaml:"light"`

	// RotationOrder is "y" or "xy". Empty means "y".
	RotationOrder string `yaml:"rotationOrder"`

	// RadiansPerCycle is the angle one cycle sweeps for channels that do not set their own. Omitted means 2π.
	RadiansPerCycle *float64 `yaml:"radiansPerCycle"`

	// ModelViewProjection uploads a precomputed MVP matrix and draws with the MVP shader variant.
	ModelViewProjection bool `yaml:"modelViewProjection"`

	// ClearColor is a "#rrggbb" background colour.
	ClearColor string `yaml:"clearColor"`

	// AutoPlay starts the timeline as soon as the mesh is uploaded.
	AutoPlay bool `yaml:"autoPlay"`

	// Channels drive the rotation angles, one axis each.
	Channels []ChannelSpec `yaml:"channels"`
}

// MeshConfig selects a procedural mesh.
type MeshConfig struct {
	Kind         string  `yaml:"kind"`
	Size         float32 `yaml:"size"`
	Subdivisions int     `yaml:"subdivisions"`
	Radius       float32 `yaml:"radius"`
}

// CameraConfig is the fixed camera. Zero values take the camera package defaults.
type CameraConfig struct {
	Eye    []float32 `yaml:"eye"`
	Target []float32 `yaml:"target"`
	Up     []float32 `yaml:"up"`
	FovDeg float32   `yaml:"fovDeg"`
	Near   float32   `yaml:"near"`
	Far    float32   `yaml:"far"`
}

// LightConfig is the static point light. Zero values take the light package defaults.
type LightConfig struct {
	Position  []float32 `yaml:"position"`
	Color     string    `yaml:"color"`
	Intensity float32   `yaml:"intensity"`
}

// ChannelSpec is one timeline channel and the rotation track attached to it.
type ChannelSpec struct {
	// Label names the channel in logs. Defaults to "rotate-<axis>".
	Label string `yaml:"label"`

	// Axis is "y", or "x" under the "xy" rotation order.
	Axis string `yaml:"axis"`

	// DurationMs is the length of one cycle in channel time.
	DurationMs float64 `yaml:"durationMs"`

	// Repeat is the number of cycles, or "infinite". Omitted means infinite.
	Repeat *Repeat `yaml:"repeat"`

	// Rate scales timeline time into channel time. Omitted means 1.
	Rate *float64 `yaml:"rate"`

	// Easing names the easing applied between keyframes. Empty means linear.
	Easing string `yaml:"easing"`

	// RadiansPerCycle is the angle swept by one cycle when Keyframes is empty. Omitted means the
	// scene's RadiansPerCycle.
	RadiansPerCycle *float64 `yaml:"radiansPerCycle"`

	// Keyframes overrides the default single-sweep track.
	Keyframes []KeyframeSpec `yaml:"keyframes"`
}

// KeyframeSpec is one (time, angle) pair of a custom rotation track.
type KeyframeSpec struct {
	TimeMs  float64 `yaml:"timeMs"`
	Radians float64 `yaml:"radians"`
}

// Repeat is a channel repeat count that also accepts the word "infinite".
type Repeat int

// UnmarshalYAML decodes an integer or the scalar "infinite".
func (r *Repeat) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && strings.EqualFold(strings.TrimSpace(value.Value), "infinite") {
		*r = Repeat(timeline.Infinite)
		return nil
	}
	var n int
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("repeat must be a non-negative integer or \"infinite\": %w", err)
	}
	if n < 0 {
		return fmt.Errorf("repeat must be a non-negative integer or \"infinite\", got %d", n)
	}
	*r = Repeat(n)
	return nil
}

// MarshalYAML encodes the infinite repeat count as "infinite".
func (r Repeat) MarshalYAML() (any, error) {
	if int(r) == timeline.Infinite {
		return "infinite", nil
	}
	return int(r), nil
}

// Load reads and validates a YAML scene configuration file.
//
// Parameters:
//   - path: the configuration file path
//
// Returns:
//   - *SceneConfig: the parsed configuration
//   - error: a common.ErrConfiguration error if the file cannot be read, parsed or validated
func Load(path string) (*SceneConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read scene config: %w", common.ErrConfiguration, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML scene configuration.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - *SceneConfig: the parsed configuration
//   - error: a common.ErrConfiguration error if the document is malformed or invalid
func Parse(data []byte) (*SceneConfig, error) {
	var cfg SceneConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse scene config: %w", common.ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c *SceneConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks every field that can be checked without building the scene. All problems are
// reported together.
//
// Returns:
//   - error: a common.ErrConfiguration error listing every problem, or nil
func (c *SceneConfig) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch c.Mesh.Kind {
	case MeshTetrahedron:
		if c.Mesh.Size < 0 {
			add("mesh size must not be negative, got %v", c.Mesh.Size)
		}
	case MeshIcosphere:
		if c.Mesh.Subdivisions < 0 || c.Mesh.Subdivisions > mesh.MaxIcosphereSubdivisions {
			add("icosphere subdivisions must be in [0, %d], got %d", mesh.MaxIcosphereSubdivisions, c.Mesh.Subdivisions)
		}
		if c.Mesh.Radius < 0 {
			add("mesh radius must not be negative, got %v", c.Mesh.Radius)
		}
	default:
		add("unknown mesh kind %q", c.Mesh.Kind)
	}

	for name, v := range map[string][]float32{
		"camera.eye":     c.Camera.Eye,
		"camera.target":  c.Camera.Target,
		"camera.up":      c.Camera.Up,
		"light.position": c.Light.Position,
	} {
		if v != nil && len(v) != 3 {
			add("%s must have 3 components, got %d", name, len(v))
		}
	}
	if c.Camera.FovDeg < 0 || c.Camera.FovDeg >= 180 {
		add("camera.fovDeg must be in (0, 180), got %v", c.Camera.FovDeg)
	}
	if c.Light.Intensity < 0 {
		add("light.intensity must not be negative, got %v", c.Light.Intensity)
	}
	if c.Light.Color != "" {
		if _, err := light.ColorFromHex(c.Light.Color); err != nil {
			errs = append(errs, err)
		}
	}
	if c.ClearColor != "" {
		if _, err := light.ColorFromHex(c.ClearColor); err != nil {
			errs = append(errs, err)
		}
	}

	order, orderErr := c.rotationOrder()
	if orderErr != nil {
		errs = append(errs, orderErr)
	}
	if c.RadiansPerCycle != nil && !positiveFinite(*c.RadiansPerCycle) {
		add("radiansPerCycle must be positive, got %v", *c.RadiansPerCycle)
	}

	if len(c.Channels) == 0 {
		add("at least one channel is required")
	}
	seen := make(map[animator.Axis]bool)
	for i, ch := range c.Channels {
		axis, err := parseAxis(ch.Axis)
		if err != nil {
			add("channel %d: %v", i, err)
		} else if seen[axis] {
			add("channel %d: axis %q is already driven", i, ch.Axis)
		} else if orderErr == nil && !order.Uses(axis) {
			add("channel %d: axis %q is not used by rotation order %q", i, ch.Axis, order)
		} else {
			seen[axis] = true
		}
		if err := ch.channelConfig().Validate(); err != nil {
			add("channel %d: %v", i, err)
		}
		if _, err := timeline.EasingByName(ch.Easing); err != nil {
			add("channel %d: %v", i, err)
		}
		if ch.RadiansPerCycle != nil && !positiveFinite(*ch.RadiansPerCycle) {
			add("channel %d: radiansPerCycle must be positive, got %v", i, *ch.RadiansPerCycle)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: invalid scene config %q: %w", common.ErrConfiguration, c.Name, errors.Join(errs...))
}

func (c *SceneConfig) rotationOrder() (animator.RotationOrder, error) {
	switch strings.ToLower(c.RotationOrder) {
	case "", "y":
		return animator.RotationY, nil
	case "xy":
		return animator.RotationXY, nil
	default:
		return 0, fmt.Errorf("unknown rotation order %q", c.RotationOrder)
	}
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func parseAxis(s string) (animator.Axis, error) {
	switch strings.ToLower(s) {
	case "x":
		return animator.AxisX, nil
	case "y":
		return animator.AxisY, nil
	case "z":
		return animator.AxisZ, nil
	default:
		return 0, fmt.Errorf("unknown axis %q", s)
	}
}

func (ch ChannelSpec) channelConfig() timeline.ChannelConfig {
	label := ch.Label
	if label == "" {
		label = "rotate-" + strings.ToLower(ch.Axis)
	}
	opts := []timeline.ChannelConfigOption{timeline.WithLabel(label)}
	if ch.Repeat != nil {
		opts = append(opts, timeline.WithRepeat(int(*ch.Repeat)))
	}
	if ch.Rate != nil {
		opts = append(opts, timeline.WithRate(*ch.Rate))
	}
	return timeline.NewChannelConfig(ch.DurationMs, opts...)
}

func (ch ChannelSpec) track(defaultRadians float64) (timeline.KeyframeTrack[float64], error) {
	easing, err := timeline.EasingByName(ch.Easing)
	if err != nil {
		return nil, err
	}
	if len(ch.Keyframes) > 0 {
		keys := make([]timeline.Keyframe[float64], len(ch.Keyframes))
		for i, k := range ch.Keyframes {
			keys[i] = timeline.Keyframe[float64]{TimeMs: k.TimeMs, Value: k.Radians}
		}
		return timeline.NewScalarTrack(keys, timeline.WithEasing(easing))
	}
	radians := defaultRadians
	if ch.RadiansPerCycle != nil {
		radians = *ch.RadiansPerCycle
	}
	return timeline.NewCycleTrack(ch.DurationMs, radians, timeline.WithEasing(easing))
}
