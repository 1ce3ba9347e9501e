package uniform

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-spin/common"
)

func TestNewLayoutValidation(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
		ok     bool
	}{
		{"empty", nil, false},
		{"single f32", []Field{{"a", "f32", 0}}, true},
		{"unnamed", []Field{{"", "f32", 0}}, false},
		{"unknown type", []Field{{"a", "vec5<f32>", 0}}, false},
		{"misaligned vec3", []Field{{"a", "vec3<f32>", 4}}, false},
		{"misaligned mat4", []Field{{"a", "mat4x4<f32>", 8}}, false},
		{"duplicate", []Field{{"a", "f32", 0}, {"a", "f32", 4}}, false},
		{"overlap", []Field{{"m", "mat4x4<f32>", 0}, {"v", "vec4<f32>", 48}}, false},
		{"scalar packed after vec3", []Field{{"v", "vec3<f32>", 0}, {"s", "f32", 12}}, true},
		{"unordered input", []Field{{"b", "vec4<f32>", 16}, {"a", "vec4<f32>", 0}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLayout(tt.fields...)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, common.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestStandardLayoutSizes(t *testing.T) {
	if got := DiffuseLayout.Size(); got != 160 {
		t.Errorf("DiffuseLayout.Size() = %d, want 160", got)
	}
	if got := DiffuseMVPLayout.Size(); got != 224 {
		t.Errorf("DiffuseMVPLayout.Size() = %d, want 224", got)
	}
	if DiffuseLayout.Has(FieldMVP) || !DiffuseMVPLayout.Has(FieldMVP) {
		t.Error("MVP field presence is wrong")
	}
}

func TestEncodeVec3(t *testing.T) {
	off, data, err := DiffuseLayout.Encode(FieldLightColor, []float32{1, 0.5, 0.25})
	if err != nil {
		t.Fatal(err)
	}
	if off != 144 || len(data) != 12 {
		t.Fatalf("Encode = offset %d len %d, want 144 and 12", off, len(data))
	}
	want := []float32{1, 0.5, 0.25}
	for i, w := range want {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])); got != w {
			t.Errorf("component %d = %v, want %v", i, got, w)
		}
	}
}

func TestEncodeMat3PadsColumns(t *testing.T) {
	l := MustLayout(Field{"m", "mat3x3<f32>", 0})
	_, data, err := l.Encode("m", []float32{1, 2, 3, 4, 5, 6, 7, 8, 9})
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 48 {
		t.Fatalf("len = %d, want 48", len(data))
	}
	// second column starts at byte 16
	if got := math.Float32frombits(binary.LittleEndian.Uint32(data[16:])); got != 4 {
		t.Fatalf("column 1 row 0 = %v, want 4", got)
	}
	if pad := binary.LittleEndian.Uint32(data[12:]); pad != 0 {
		t.Fatalf("padding = %d, want 0", pad)
	}
}

func TestEncodeErrors(t *testing.T) {
	if _, _, err := DiffuseLayout.Encode("missing", []float32{1}); !errors.Is(err, common.ErrConfiguration) {
		t.Errorf("unknown field: got %v", err)
	}
	if _, _, err := DiffuseLayout.Encode(FieldModelView, []float32{1, 2, 3}); !errors.Is(err, common.ErrConfiguration) {
		t.Errorf("wrong count: got %v", err)
	}
}

func TestEncodeAll(t *testing.T) {
	ident := []float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	buf, err := DiffuseMVPLayout.EncodeAll(map[string][]float32{
		FieldMVP:        ident,
		FieldLightColor: {1, 1, 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if uint64(len(buf)) != DiffuseMVPLayout.Size() {
		t.Fatalf("len = %d", len(buf))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[160:])); got != 1 {
		t.Fatalf("mvp[0] = %v, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(buf[0:]); got != 0 {
		t.Fatalf("unset model-view not zero: %v", got)
	}
}
