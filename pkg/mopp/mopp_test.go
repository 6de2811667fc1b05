package mopp

import (
	"errors"
	"testing"

	"github.com/niflab/nifopt/pkg/math"
)

func cubeVerts() []math.Vec3 {
	return []math.Vec3{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1},
		{X: 0, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1},
	}
}

func TestUpdateOriginScale(t *testing.T) {
	os := UpdateOriginScale(cubeVerts())
	want := math.Vec3{X: -0.1, Y: -0.1, Z: -0.1}
	if os.Origin != want {
		t.Errorf("Origin = %v, want %v", os.Origin, want)
	}
	wantScale := float32(256*256*254) / 1.2
	if os.Scale < wantScale*0.999 || os.Scale > wantScale*1.001 {
		t.Errorf("Scale = %v, want ~%v", os.Scale, wantScale)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	verts := cubeVerts()
	os := UpdateOriginScale(verts)

	// 100 triangles crosses the compact-leaf cycle boundary (32)
	for _, n := range []int{1, 2, 31, 32, 33, 100} {
		code, err := Encode(verts, os, n)
		if err != nil {
			t.Fatalf("Encode(%d) failed: %v", n, err)
		}
		res, err := Decode(code, 0, 0)
		if err != nil {
			t.Fatalf("Decode of Encode(%d) failed: %v", n, err)
		}
		if len(res.Triangles) != n {
			t.Fatalf("Encode(%d) decodes to %d triangles", n, len(res.Triangles))
		}
		seen := make(map[int]bool)
		for _, tri := range res.Triangles {
			if tri < 0 || tri >= n {
				t.Errorf("Encode(%d): triangle index %d out of range", n, tri)
			}
			if seen[tri] {
				t.Errorf("Encode(%d): duplicate triangle index %d", n, tri)
			}
			seen[tri] = true
		}
		// full byte coverage
		covered := make(map[int]bool, len(res.Offsets))
		for _, off := range res.Offsets {
			covered[off] = true
		}
		for i := range code {
			if !covered[i] {
				t.Errorf("Encode(%d): byte %d never consumed", n, i)
			}
		}
	}
}

func TestEncodeRejectsBadInput(t *testing.T) {
	verts := cubeVerts()
	os := UpdateOriginScale(verts)

	if _, err := Encode(verts, os, 0); !errors.Is(err, ErrNoTriangles) {
		t.Errorf("Encode with 0 triangles: err = %v, want ErrNoTriangles", err)
	}

	// origin far above the vertices quantizes negative
	bad := os
	bad.Origin = math.Vec3{X: 1000, Y: 1000, Z: 1000}
	if _, err := Encode(verts, bad, 4); !errors.Is(err, ErrInvalidOrigin) {
		t.Errorf("Encode with bad origin: err = %v, want ErrInvalidOrigin", err)
	}

	// tiny scale quantizes outside [0,255]
	bad = os
	bad.Scale = os.Scale * 1000
	if _, err := Encode(verts, bad, 4); !errors.Is(err, ErrInvalidScale) {
		t.Errorf("Encode with bad scale: err = %v, want ErrInvalidScale", err)
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	code := []byte{opBoundZ, 0, 10, 0xFF, 1, 2, 3}
	_, err := Decode(code, 0, 0)
	if !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("err = %v, want ErrUnknownOpcode", err)
	}
	// the error carries the offending offset
	if got := err.Error(); got == "" || !contains(got, "offset 3") {
		t.Errorf("error %q does not report offset 3", got)
	}
}

func TestDecodeTruncated(t *testing.T) {
	code := []byte{opBoundZ, 0} // bound needs 2 operand bytes
	if _, err := Decode(code, 0, 0); !errors.Is(err, ErrTruncated) {
		t.Errorf("err = %v, want ErrTruncated", err)
	}
}

func TestDecodeNestedBranches(t *testing.T) {
	// three nested then branches ending in leaves; every recognized
	// branch family appears
	code := []byte{
		opTestX, 5, 5, 13, // branch 1: then at 4, else at 17
		0x20, 7, 9, // branch 2 (one operand): then at 7, else at 16
		0x23, 1, 1, 0, 0, 0, 1, // branch 3 (short): then at 14, else at 15
		0x30, // leaf 0 (branch 3 then)
		0x31, // leaf 1 (branch 3 else)
		0x32, // leaf 2 (branch 2 else)
		0x33, // leaf 3 (branch 1 else)
	}
	res, err := Decode(code, 0, 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []int{0, 1, 2, 3}
	if len(res.Triangles) != len(want) {
		t.Fatalf("Triangles = %v, want %v", res.Triangles, want)
	}
	for i, tri := range want {
		if res.Triangles[i] != tri {
			t.Errorf("Triangles[%d] = %d, want %d", i, res.Triangles[i], tri)
		}
	}
}

func TestDecodeOffsetOpcodes(t *testing.T) {
	code := []byte{
		opOffsetByte, 5, // offset += 5
		opOffsetShort, 1, 2, // offset += 258
		opLeafByte, 10, // triangle 10 + 263
	}
	res, err := Decode(code, 0, 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(res.Triangles) != 1 || res.Triangles[0] != 273 {
		t.Errorf("Triangles = %v, want [273]", res.Triangles)
	}

	// absolute form overrides the accumulator
	code = []byte{
		opOffsetByte, 5,
		opOffsetAbs, 0, 0, 1, 0, // offset = 256
		0x30, // triangle 0 + 256
	}
	res, err = Decode(code, 0, 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(res.Triangles) != 1 || res.Triangles[0] != 256 {
		t.Errorf("Triangles = %v, want [256]", res.Triangles)
	}
}

func TestDecodeJumps(t *testing.T) {
	code := []byte{
		opJumpByte, 2, // skip next two bytes
		0xFF, 0xFF, // never decoded
		opJumpShort, 0, 1, // skip one byte
		0xFF,
		0x51, 1, 0, // triangle 256
	}
	res, err := Decode(code, 0, 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(res.Triangles) != 1 || res.Triangles[0] != 256 {
		t.Errorf("Triangles = %v, want [256]", res.Triangles)
	}
}

func TestDecodeDepthGuard(t *testing.T) {
	// deeply nested then branches: each 0x20 branch recurses into
	// another branch immediately
	var code []byte
	for i := 0; i < maxDepth+8; i++ {
		code = append(code, 0x20, 0, 3)
	}
	code = append(code, 0x30)
	if _, err := Decode(code, 0, 0); !errors.Is(err, ErrTooDeep) {
		t.Errorf("err = %v, want ErrTooDeep", err)
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
