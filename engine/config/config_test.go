package config

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/Carmen-Shannon/oxy-spin/engine/animator"
	"github.com/Carmen-Shannon/oxy-spin/engine/renderer"
	"github.com/Carmen-Shannon/oxy-spin/engine/renderer/uniform"
	"github.com/Carmen-Shannon/oxy-spin/engine/scene"
	"github.com/Carmen-Shannon/oxy-spin/engine/timeline"
)

const sampleYAML = `
name: sample
mesh:
  kind: icosphere
  subdivisions: 1
camera:
  eye: [0, 0, 5]
  fovDeg: 60
light:
  position: [1, 2, 3]
  color: "#ff8000"
rotationOrder: xy
clearColor: "#000000"
channels:
  - axis: x
    durationMs: 2000
    repeat: infinite
  - axis: y
    label: slow-y
    durationMs: 1000
    repeat: 3
    rate: 0.5
    easing: in-out-quad
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Name != "sample" || cfg.Mesh.Kind != MeshIcosphere || cfg.Mesh.Subdivisions != 1 {
		t.Fatalf("unexpected header: %+v", cfg)
	}
	if len(cfg.Channels) != 2 {
		t.Fatalf("channels = %d, want 2", len(cfg.Channels))
	}

	x := cfg.Channels[0].channelConfig()
	if x.RepeatCount != timeline.Infinite || x.Rate != 1 || x.Label != "rotate-x" {
		t.Fatalf("x channel = %+v", x)
	}
	y := cfg.Channels[1].channelConfig()
	if y.RepeatCount != 3 || y.Rate != 0.5 || y.Label != "slow-y" || y.DurationMs != 1000 {
		t.Fatalf("y channel = %+v", y)
	}
}

func TestRepeatOmittedIsInfinite(t *testing.T) {
	cfg, err := Parse([]byte("mesh: {kind: tetrahedron}\nchannels: [{axis: y, durationMs: 500}]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Channels[0].channelConfig().RepeatCount; got != timeline.Infinite {
		t.Fatalf("repeat = %d, want Infinite", got)
	}
}

func TestRepeatMarshal(t *testing.T) {
	inf := Repeat(timeline.Infinite)
	cfg := &SceneConfig{
		Mesh:     MeshConfig{Kind: MeshTetrahedron},
		Channels: []ChannelSpec{{Axis: "y", DurationMs: 100, Repeat: &inf}},
	}
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "repeat: infinite") {
		t.Fatalf("marshalled config does not spell out infinite:\n%s", data)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if int(*back.Channels[0].Repeat) != timeline.Infinite {
		t.Fatalf("repeat = %d after round trip", *back.Channels[0].Repeat)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{
			name:    "malformed",
			yaml:    "channels: [",
			wantMsg: "parse",
		},
		{
			name:    "unknown mesh",
			yaml:    "mesh: {kind: cube}\nchannels: [{axis: y, durationMs: 1}]",
			wantMsg: "unknown mesh kind",
		},
		{
			name:    "no channels",
			yaml:    "mesh: {kind: tetrahedron}",
			wantMsg: "at least one channel",
		},
		{
			name:    "zero duration",
			yaml:    "mesh: {kind: tetrahedron}\nchannels: [{axis: y, durationMs: 0}]",
			wantMsg: "channel 0",
		},
		{
			name:    "zero rate",
			yaml:    "mesh: {kind: tetrahedron}\nchannels: [{axis: y, durationMs: 10, rate: 0}]",
			wantMsg: "channel 0",
		},
		{
			name:    "negative repeat",
			yaml:    "mesh: {kind: tetrahedron}\nchannels: [{axis: y, durationMs: 10, repeat: -2}]",
			wantMsg: "repeat",
		},
		{
			name:    "word repeat",
			yaml:    "mesh: {kind: tetrahedron}\nchannels: [{axis: y, durationMs: 10, repeat: forever}]",
			wantMsg: "repeat",
		},
		{
			name:    "duplicate axis",
			yaml:    "mesh: {kind: tetrahedron}\nchannels: [{axis: y, durationMs: 10}, {axis: y, durationMs: 20}]",
			wantMsg: "already driven",
		},
		{
			name:    "unknown axis",
			yaml:    "mesh: {kind: tetrahedron}\nchannels: [{axis: w, durationMs: 10}]",
			wantMsg: "unknown axis",
		},
		{
			name:    "unknown easing",
			yaml:    "mesh: {kind: tetrahedron}\nchannels: [{axis: y, durationMs: 10, easing: bounce}]",
			wantMsg: "bounce",
		},
		{
			name:    "bad color",
			yaml:    "mesh: {kind: tetrahedron}\nlight: {color: red}\nchannels: [{axis: y, durationMs: 10}]",
			wantMsg: "red",
		},
		{
			name:    "short eye",
			yaml:    "mesh: {kind: tetrahedron}\ncamera: {eye: [0, 4]}\nchannels: [{axis: y, durationMs: 10}]",
			wantMsg: "camera.eye",
		},
		{
			name:    "rotation order",
			yaml:    "mesh: {kind: tetrahedron}\nrotationOrder: zyx\nchannels: [{axis: y, durationMs: 10}]",
			wantMsg: "rotation order",
		},
		{
			name:    "x axis under y order",
			yaml:    "mesh: {kind: tetrahedron}\nrotationOrder: y\nchannels: [{axis: x, durationMs: 10}]",
			wantMsg: "not used by rotation order",
		},
		{
			name:    "x axis under default order",
			yaml:    "mesh: {kind: tetrahedron}\nchannels: [{axis: x, durationMs: 10}]",
			wantMsg: "not used by rotation order",
		},
		{
			name:    "z axis under xy order",
			yaml:    "mesh: {kind: tetrahedron}\nrotationOrder: xy\nchannels: [{axis: z, durationMs: 10}]",
			wantMsg: "not used by rotation order",
		},
		{
			name:    "z axis under y order",
			yaml:    "mesh: {kind: tetrahedron}\nrotationOrder: y\nchannels: [{axis: z, durationMs: 10}]",
			wantMsg: "not used by rotation order",
		},
		{
			name:    "scene radians per cycle",
			yaml:    "mesh: {kind: tetrahedron}\nradiansPerCycle: -1\nchannels: [{axis: y, durationMs: 10}]",
			wantMsg: "radiansPerCycle",
		},
		{
			name:    "too many subdivisions",
			yaml:    "mesh: {kind: icosphere, subdivisions: 99}\nchannels: [{axis: y, durationMs: 10}]",
			wantMsg: "subdivisions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, common.ErrConfiguration) {
				t.Fatalf("err = %v, want ErrConfiguration", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("err = %q, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "sample" {
		t.Fatalf("name = %q, want sample", cfg.Name)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, common.ErrConfiguration) {
		t.Fatalf("missing file err = %v, want ErrConfiguration", err)
	}
}

func TestPresets(t *testing.T) {
	names := PresetNames()
	if len(names) != 2 || names[0] != "icosphere" || names[1] != "tetrahedron" {
		t.Fatalf("preset names = %v", names)
	}
	for _, name := range names {
		cfg, err := Preset(name)
		if err != nil {
			t.Fatal(err)
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("preset %s: %v", name, err)
		}
	}

	a, _ := Preset("tetrahedron")
	a.Channels[0].DurationMs = 1
	b, _ := Preset("tetrahedron")
	if b.Channels[0].DurationMs != 4000 {
		t.Fatal("presets must be independent copies")
	}

	if _, err := Preset("dodecahedron"); !errors.Is(err, common.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func loadScene(t *testing.T, s scene.Scene) {
	t.Helper()
	if err := s.Initialize(); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Await(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Render(0, 1); err != nil {
		t.Fatal(err)
	}
}

func TestBuildTetrahedronPreset(t *testing.T) {
	cfg, _ := Preset("tetrahedron")
	backend := renderer.NewHeadlessBackend()
	s, err := Build(cfg, backend)
	if err != nil {
		t.Fatal(err)
	}
	loadScene(t, s)

	if s.State() != scene.StateRunning {
		t.Fatalf("state = %s, want running", s.State())
	}
	if s.Animator().RotationOrder() != animator.RotationY {
		t.Fatalf("rotation order = %s, want y", s.Animator().RotationOrder())
	}
	if s.Renderer().Layout() != uniform.DiffuseLayout {
		t.Fatal("tetrahedron preset should use the diffuse layout")
	}
	if err := s.Render(1000, 1); err != nil {
		t.Fatal(err)
	}
	if got := s.Animator().Rotation(animator.AxisY); math.Abs(got-math.Pi/2) > 1e-9 {
		t.Fatalf("rotation after a quarter cycle = %v, want pi/2", got)
	}

	// the clear colour comes from the preset's hex string
	want := renderer.Color{R: 26.0 / 255, G: 26.0 / 255, B: 26.0 / 255, A: 1}
	got := backend.LastClear()
	if math.Abs(got.R-want.R) > 1e-9 || math.Abs(got.G-want.G) > 1e-9 || math.Abs(got.B-want.B) > 1e-9 || got.A != 1 {
		t.Fatalf("clear = %+v, want %+v", got, want)
	}
}

func TestBuildIcospherePreset(t *testing.T) {
	cfg, _ := Preset("icosphere")
	backend := renderer.NewHeadlessBackend()
	s, err := Build(cfg, backend)
	if err != nil {
		t.Fatal(err)
	}
	loadScene(t, s)

	if s.Timeline().ChannelCount() != 2 {
		t.Fatalf("channels = %d, want 2", s.Timeline().ChannelCount())
	}
	if !s.Animator().HasMVP() || s.Renderer().Layout() != uniform.DiffuseMVPLayout {
		t.Fatal("icosphere preset should upload the MVP matrix")
	}

	if err := s.Render(2000, 1); err != nil {
		t.Fatal(err)
	}
	x := s.Timeline().Channel(0)
	y := s.Timeline().Channel(1)
	if math.Abs(x.Phase()-0.5) > 1e-9 {
		t.Fatalf("x phase = %v, want 0.5", x.Phase())
	}
	if math.Abs(y.Phase()-0.35) > 1e-9 {
		t.Fatalf("y phase = %v, want 0.35", y.Phase())
	}
	if got := s.Animator().Rotation(animator.AxisX); math.Abs(got-math.Pi) > 1e-9 {
		t.Fatalf("x rotation = %v, want pi", got)
	}
}

func TestBuildSceneRadiansPerCycle(t *testing.T) {
	cfg, err := Parse([]byte(`
mesh: {kind: tetrahedron}
rotationOrder: xy
radiansPerCycle: 3.141592653589793
autoPlay: true
channels:
  - {axis: y, durationMs: 1000}
  - {axis: x, durationMs: 1000, radiansPerCycle: 1}
`))
	if err != nil {
		t.Fatal(err)
	}
	s, err := Build(cfg, renderer.NewHeadlessBackend())
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Animator().RadiansPerCycle(); got != math.Pi {
		t.Fatalf("animator radians per cycle = %v, want pi", got)
	}
	loadScene(t, s)
	if err := s.Render(500, 1); err != nil {
		t.Fatal(err)
	}

	// y falls back to the scene value, x keeps its own
	if got := s.Animator().Rotation(animator.AxisY); math.Abs(got-math.Pi/2) > 1e-9 {
		t.Fatalf("y rotation after half a cycle = %v, want pi/2", got)
	}
	if got := s.Animator().Rotation(animator.AxisX); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("x rotation after half a cycle = %v, want 0.5", got)
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	if _, err := Build(nil, renderer.NewHeadlessBackend()); !errors.Is(err, common.ErrConfiguration) {
		t.Fatalf("nil config err = %v, want ErrConfiguration", err)
	}
	cfg, _ := Preset("tetrahedron")
	cfg.Channels = nil
	if _, err := Build(cfg, renderer.NewHeadlessBackend()); !errors.Is(err, common.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}
