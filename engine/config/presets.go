package config

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-spin/common"
)

// presets are the built-in demo scenes keyed by name.
var presets = map[string]func() *SceneConfig{
	"tetrahedron": func() *SceneConfig {
		return &SceneConfig{
			Name:          "tetrahedron",
			Mesh:          MeshConfig{Kind: MeshTetrahedron, Size: 1},
			Camera:        CameraConfig{Eye: []float32{0, 0, 4}},
			Light:         LightConfig{Position: []float32{2, 2, 2}, Color: "#ffffff", Intensity: 1},
			RotationOrder: "y",
			ClearColor:    "#1a1a1a",
			AutoPlay:      true,
			Channels: []ChannelSpec{
				{Axis: "y", DurationMs: 4000},
			},
		}
	},
	"icosphere": func() *SceneConfig {
		rate := 0.7
		return &SceneConfig{
			Name:                "icosphere",
			Mesh:                MeshConfig{Kind: MeshIcosphere, Subdivisions: 2, Radius: 1},
			Camera:              CameraConfig{Eye: []float32{0, 0, 4}},
			Light:               LightConfig{Position: []float32{2, 2, 2}, Color: "#ffe6cc", Intensity: 1},
			RotationOrder:       "xy",
			ModelViewProjection: true,
			ClearColor:          "#101820",
			AutoPlay:            true,
			Channels: []ChannelSpec{
				{Axis: "x", DurationMs: 4000},
				{Axis: "y", DurationMs: 4000, Rate: &rate, Easing: "in-out-sine"},
			},
		}
	},
}

// Preset returns a fresh copy of a built-in demo scene.
//
// Parameters:
//   - name: the preset name, one of PresetNames()
//
// Returns:
//   - *SceneConfig: the configuration, safe to modify
//   - error: a common.ErrConfiguration error for an unknown name
func Preset(name string) (*SceneConfig, error) {
	fn, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown preset %q (available: %v)", common.ErrConfiguration, name, PresetNames())
	}
	return fn(), nil
}

// PresetNames returns the built-in preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
