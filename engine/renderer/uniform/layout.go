package uniform

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-spin/common"
)

// Field names shared by the diffuse shaders.
const (
	FieldModelView     = "modelView"
	FieldProjection    = "projection"
	FieldLightPosition = "lightPosition"
	FieldLightColor    = "lightColor"
	FieldMVP           = "mvp"
)

// wgslTypeLayout holds the size and alignment of a WGSL type together with its float shape.
// Matrices are stored as column vectors, each padded to the column stride.
type wgslTypeLayout struct {
	size    uint64
	align   uint64
	columns int
	rows    int
}

// wgslFloatLayoutMap maps the f32-based WGSL types a uniform field may use to their layout.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var wgslFloatLayoutMap = map[string]wgslTypeLayout{
	"f32": {4, 4, 1, 1},

	"vec2<f32>": {8, 8, 1, 2},
	"vec2f":     {8, 8, 1, 2},
	"vec3<f32>": {12, 16, 1, 3},
	"vec3f":     {12, 16, 1, 3},
	"vec4<f32>": {16, 16, 1, 4},
	"vec4f":     {16, 16, 1, 4},

	// matCxR<f32>: C columns of vecR<f32>, stride = roundUp(align(vecR), size(vecR))
	"mat2x2<f32>": {16, 8, 2, 2},
	"mat2x2f":     {16, 8, 2, 2},
	"mat3x3<f32>": {48, 16, 3, 3},
	"mat3x3f":     {48, 16, 3, 3},
	"mat4x4<f32>": {64, 16, 4, 4},
	"mat4x4f":     {64, 16, 4, 4},
}

// roundUpAlign rounds value up to the next multiple of alignment (power of two).
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// Field is one named member of a uniform struct.
type Field struct {
	Name   string
	Type   string
	Offset uint64
}

// Floats returns the number of float32 values the field expects.
func (f Field) Floats() int {
	l := wgslFloatLayoutMap[f.Type]
	return l.columns * l.rows
}

// Size returns the field's byte size.
func (f Field) Size() uint64 {
	return wgslFloatLayoutMap[f.Type].size
}

// Layout describes the byte layout of a uniform buffer as a set of named fields. It is validated
// once at construction and immutable afterwards.
type Layout struct {
	fields []Field
	byName map[string]int
	size   uint64
}

// NewLayout validates the given fields and builds a Layout. Field order does not matter.
//
// Parameters:
//   - fields: the uniform fields
//
// Returns:
//   - *Layout: the validated layout
//   - error: a common.ErrConfiguration error for an empty or duplicate name, an unknown type, a
//     misaligned offset or overlapping fields
func NewLayout(fields ...Field) (*Layout, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: uniform layout has no fields", common.ErrConfiguration)
	}

	l := &Layout{
		fields: make([]Field, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	copy(l.fields, fields)
	sort.SliceStable(l.fields, func(i, j int) bool { return l.fields[i].Offset < l.fields[j].Offset })

	var end uint64
	for i, f := range l.fields {
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("%w: uniform field at offset %d has no name", common.ErrConfiguration, f.Offset)
		}
		if _, dup := l.byName[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate uniform field %q", common.ErrConfiguration, f.Name)
		}
		tl, ok := wgslFloatLayoutMap[f.Type]
		if !ok {
			return nil, fmt.Errorf("%w: uniform field %q has unsupported type %q", common.ErrConfiguration, f.Name, f.Type)
		}
		if f.Offset%tl.align != 0 {
			return nil, fmt.Errorf("%w: uniform field %q offset %d is not %d-byte aligned", common.ErrConfiguration, f.Name, f.Offset, tl.align)
		}
		if i > 0 && f.Offset < end {
			return nil, fmt.Errorf("%w: uniform field %q at offset %d overlaps %q", common.ErrConfiguration, f.Name, f.Offset, l.fields[i-1].Name)
		}
		end = f.Offset + tl.size
		l.byName[f.Name] = i
	}
	l.size = roundUpAlign(16, end)
	return l, nil
}

// MustLayout is NewLayout for layouts known at compile time. It panics on an invalid layout.
func MustLayout(fields ...Field) *Layout {
	l, err := NewLayout(fields...)
	if err != nil {
		panic(err)
	}
	return l
}

// Size returns the buffer size in bytes, rounded up to a multiple of 16.
func (l *Layout) Size() uint64 {
	return l.size
}

// Fields returns the fields ordered by offset.
func (l *Layout) Fields() []Field {
	out := make([]Field, len(l.fields))
	copy(out, l.fields)
	return out
}

// Field looks up a field by name.
//
// Parameters:
//   - name: the field name
//
// Returns:
//   - Field: the field
//   - bool: true if the layout has a field with that name
func (l *Layout) Field(name string) (Field, bool) {
	i, ok := l.byName[name]
	if !ok {
		return Field{}, false
	}
	return l.fields[i], true
}

// Has reports whether the layout has a field with the given name.
func (l *Layout) Has(name string) bool {
	_, ok := l.byName[name]
	return ok
}

// Encode serializes values for one field into the bytes of a partial buffer write. Matrix
// values are column-major; columns are padded to the WGSL column stride.
//
// Parameters:
//   - name: the field name
//   - values: the float values, exactly Field.Floats() of them
//
// Returns:
//   - uint64: the byte offset of the field in the buffer
//   - []byte: the encoded bytes, Field.Size() long
//   - error: a common.ErrConfiguration error for an unknown field or a wrong value count
func (l *Layout) Encode(name string, values []float32) (uint64, []byte, error) {
	f, ok := l.Field(name)
	if !ok {
		return 0, nil, fmt.Errorf("%w: uniform layout has no field %q", common.ErrConfiguration, name)
	}
	tl := wgslFloatLayoutMap[f.Type]
	if len(values) != tl.columns*tl.rows {
		return 0, nil, fmt.Errorf("%w: uniform field %q expects %d floats, got %d", common.ErrConfiguration, name, tl.columns*tl.rows, len(values))
	}

	buf := make([]byte, tl.size)
	stride := tl.size / uint64(tl.columns)
	for c := 0; c < tl.columns; c++ {
		for r := 0; r < tl.rows; r++ {
			off := uint64(c)*stride + uint64(r)*4
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(values[c*tl.rows+r]))
		}
	}
	return f.Offset, buf, nil
}

// EncodeAll serializes a full buffer. Fields missing from values are left zeroed.
//
// Parameters:
//   - values: field values keyed by field name
//
// Returns:
//   - []byte: the encoded buffer, Size() long
//   - error: a common.ErrConfiguration error if any value cannot be encoded
func (l *Layout) EncodeAll(values map[string][]float32) ([]byte, error) {
	buf := make([]byte, l.size)
	for name, v := range values {
		off, data, err := l.Encode(name, v)
		if err != nil {
			return nil, err
		}
		copy(buf[off:], data)
	}
	return buf, nil
}

// DiffuseLayout is the uniform layout of the diffuse shader that multiplies projection and
// model-view in the vertex stage.
var DiffuseLayout = MustLayout(
	Field{Name: FieldModelView, Type: "mat4x4<f32>", Offset: 0},
	Field{Name: FieldProjection, Type: "mat4x4<f32>", Offset: 64},
	Field{Name: FieldLightPosition, Type: "vec3<f32>", Offset: 128},
	Field{Name: FieldLightColor, Type: "vec3<f32>", Offset: 144},
)

// DiffuseMVPLayout extends DiffuseLayout with a precomputed model-view-projection matrix.
var DiffuseMVPLayout = MustLayout(
	Field{Name: FieldModelView, Type: "mat4x4<f32>", Offset: 0},
	Field{Name: FieldProjection, Type: "mat4x4<f32>", Offset: 64},
	Field{Name: FieldLightPosition, Type: "vec3<f32>", Offset: 128},
	Field{Name: FieldLightColor, Type: "vec3<f32>", Offset: 144},
	Field{Name: FieldMVP, Type: "mat4x4<f32>", Offset: 160},
)
