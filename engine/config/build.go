package config

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/Carmen-Shannon/oxy-spin/engine/animator"
	"github.com/Carmen-Shannon/oxy-spin/engine/light"
	"github.com/Carmen-Shannon/oxy-spin/engine/mesh"
	"github.com/Carmen-Shannon/oxy-spin/engine/renderer"
	"github.com/Carmen-Shannon/oxy-spin/engine/renderer/uniform"
	"github.com/Carmen-Shannon/oxy-spin/engine/scene"
	"github.com/Carmen-Shannon/oxy-spin/engine/timeline"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultLightPosition is the world-space light position used when a configuration omits one.
var DefaultLightPosition = mgl32.Vec3{2, 2, 2}

// Build assembles a scene from the configuration: the animator with its camera and light, a
// timeline with one channel and rotation track per configured axis, a scene renderer over
// backend, and a mesh factory for the configured geometry. The returned scene is uninitialized.
//
// Parameters:
//   - cfg: the scene configuration
//   - backend: the graphics backend the scene renders through
//   - options: additional scene options applied after the configured ones
//
// Returns:
//   - scene.Scene: the assembled scene
//   - error: a common.ErrConfiguration error if the configuration is invalid
func Build(cfg *SceneConfig, backend renderer.GraphicsBackend, options ...scene.SceneBuilderOption) (scene.Scene, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil scene config", common.ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a, err := buildAnimator(cfg)
	if err != nil {
		return nil, err
	}

	tl := timeline.NewTimeline(timeline.WithTimelineLabel(cfg.Name))
	for i, ch := range cfg.Channels {
		axis, _ := parseAxis(ch.Axis)
		h, err := tl.AddChannel(ch.channelConfig())
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		track, err := ch.track(a.RadiansPerCycle())
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		if _, err := timeline.Attach(tl, h, track, a.RotationConsumer(axis)); err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
	}

	rendererOpts := []renderer.SceneRendererBuilderOption{}
	if cfg.ModelViewProjection {
		rendererOpts = append(rendererOpts, renderer.WithLayout(uniform.DiffuseMVPLayout))
	}
	if cfg.ClearColor != "" {
		c, err := colorful.Hex(cfg.ClearColor)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid clear color %q: %v", common.ErrConfiguration, cfg.ClearColor, err)
		}
		rendererOpts = append(rendererOpts, renderer.WithClearColor(renderer.Color{R: c.R, G: c.G, B: c.B, A: 1}))
	}
	r := renderer.NewSceneRenderer(backend, rendererOpts...)

	sceneOpts := []scene.SceneBuilderOption{scene.WithName(cfg.Name)}
	if cfg.AutoPlay {
		sceneOpts = append(sceneOpts, scene.WithAutoPlay())
	}
	sceneOpts = append(sceneOpts, options...)

	return scene.NewScene(r, a, tl, cfg.MeshFactory(), sceneOpts...)
}

// MeshFactory returns a generator for the configured mesh. Zero sizes take the generator defaults.
func (c *SceneConfig) MeshFactory() scene.MeshFactory {
	m := c.Mesh
	return func() (mesh.MeshSource, error) {
		switch m.Kind {
		case MeshTetrahedron:
			return mesh.NewTetrahedron(common.Coalesce(m.Size, 1))
		case MeshIcosphere:
			return mesh.NewIcosphere(m.Subdivisions, common.Coalesce(m.Radius, 1))
		default:
			return nil, fmt.Errorf("%w: unknown mesh kind %q", common.ErrConfiguration, m.Kind)
		}
	}
}

func buildAnimator(cfg *SceneConfig) (animator.TransformAnimator, error) {
	order, err := cfg.rotationOrder()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrConfiguration, err)
	}

	opts := []animator.AnimatorBuilderOption{animator.WithRotationOrder(order)}
	if cfg.RadiansPerCycle != nil {
		opts = append(opts, animator.WithRadiansPerCycle(*cfg.RadiansPerCycle))
	}
	if cfg.ModelViewProjection {
		opts = append(opts, animator.WithModelViewProjection())
	}
	if cfg.Camera.Eye != nil {
		opts = append(opts, animator.WithEye(vec3(cfg.Camera.Eye)))
	}
	if cfg.Camera.Target != nil {
		opts = append(opts, animator.WithTarget(vec3(cfg.Camera.Target)))
	}
	if cfg.Camera.Up != nil {
		opts = append(opts, animator.WithUp(vec3(cfg.Camera.Up)))
	}
	if cfg.Camera.FovDeg > 0 {
		opts = append(opts, animator.WithFovY(mgl32.DegToRad(cfg.Camera.FovDeg)))
	}
	if cfg.Camera.Near > 0 || cfg.Camera.Far > 0 {
		opts = append(opts, animator.WithClipPlanes(common.Coalesce(cfg.Camera.Near, 0.1), common.Coalesce(cfg.Camera.Far, 100)))
	}

	lightPos := DefaultLightPosition
	if cfg.Light.Position != nil {
		lightPos = vec3(cfg.Light.Position)
	}
	lightOpts := []light.LightBuilderOption{light.WithPosition(lightPos)}
	if cfg.Light.Color != "" {
		c, err := light.ColorFromHex(cfg.Light.Color)
		if err != nil {
			return nil, err
		}
		lightOpts = append(lightOpts, light.WithColor(c[0], c[1], c[2]))
	}
	if cfg.Light.Intensity > 0 {
		lightOpts = append(lightOpts, light.WithIntensity(cfg.Light.Intensity))
	}
	opts = append(opts, animator.WithLight(light.NewLight(lightOpts...)))

	return animator.NewTransformAnimator(opts...)
}

func vec3(v []float32) mgl32.Vec3 {
	return mgl32.Vec3{v[0], v[1], v[2]}
}
