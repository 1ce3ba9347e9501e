package light

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-spin/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithPosition is an option builder that sets the world-space position of the light.
//
// Parameters:
//   - p: the light position
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a lightImpl
func WithPosition(p mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = p
	}
}

// WithColor is an option builder that sets the RGB color of the light.
//
// Parameters:
//   - r: the red color component
//   - g: the green color component
//   - b: the blue color component
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor(r, g, b float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = mgl32.Vec3{r, g, b}
	}
}

// WithIntensity is an option builder that sets the scalar intensity multiplier.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - LightBuilderOption: a function that applies the intensity option to a lightImpl
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = intensity
	}
}

// ColorFromHex parses a "#rrggbb" string into an RGB triple in [0, 1].
//
// Parameters:
//   - hex: the color string
//
// Returns:
//   - mgl32.Vec3: the color
//   - error: a common.ErrConfiguration error if the string is not a valid hex color
func ColorFromHex(hex string) (mgl32.Vec3, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return mgl32.Vec3{}, fmt.Errorf("%w: invalid color %q: %v", common.ErrConfiguration, hex, err)
	}
	return mgl32.Vec3{float32(c.R), float32(c.G), float32(c.B)}, nil
}
