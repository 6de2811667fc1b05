package nif

import (
	"encoding/binary"
	"errors"
	stdmath "math"
	"testing"

	"github.com/chewxy/math32"
)

func TestUpdateTangentSpace(t *testing.T) {
	shape := createTestTriShape()
	if shape.HasTangentSpace() {
		t.Fatalf("fresh shape must not report tangent space")
	}
	if err := shape.UpdateTangentSpace(); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !shape.HasTangentSpace() {
		t.Errorf("tangent space not detected after update")
	}

	ed, ok := shape.FindExtraData(TangentSpaceName, KindBinaryExtraData).(*BinaryExtraData)
	if !ok {
		t.Fatalf("tangent extra data block missing")
	}
	n := len(shape.GeomData().Geom().Vertices)
	if want := n * 2 * 12; len(ed.Data) != want {
		t.Fatalf("payload size %d, want %d", len(ed.Data), want)
	}

	// the quad maps u to +x and v to +y with normal +z, so the first
	// tangent is the x axis
	tx := stdmath.Float32frombits(binary.LittleEndian.Uint32(ed.Data[0:4]))
	ty := stdmath.Float32frombits(binary.LittleEndian.Uint32(ed.Data[4:8]))
	tz := stdmath.Float32frombits(binary.LittleEndian.Uint32(ed.Data[8:12]))
	if math32.Abs(tx-1) > 1e-5 || math32.Abs(ty) > 1e-5 || math32.Abs(tz) > 1e-5 {
		t.Errorf("first tangent = (%v,%v,%v), want (1,0,0)", tx, ty, tz)
	}
}

func TestUpdateTangentSpaceReplacesInPlace(t *testing.T) {
	shape := createTestTriShape()
	if err := shape.UpdateTangentSpace(); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := shape.UpdateTangentSpace(); err != nil {
		t.Fatalf("second update: %v", err)
	}
	count := 0
	for _, ed := range shape.ExtraData {
		if ed.Kind() == KindBinaryExtraData {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected one tangent block, got %d", count)
	}
}

func TestUpdateTangentSpaceMissingBasis(t *testing.T) {
	shape := createTestTriShape()
	shape.GeomData().Geom().Normals = nil
	if err := shape.UpdateTangentSpace(); !errors.Is(err, ErrNoTangentBasis) {
		t.Errorf("expected ErrNoTangentBasis, got %v", err)
	}
}
