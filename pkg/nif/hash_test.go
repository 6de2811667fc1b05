package nif

import (
	"bytes"
	"testing"

	"github.com/niflab/nifopt/pkg/math"
)

func createTestGeomData(verts []math.Vec3) *TriShapeData {
	d := &TriShapeData{}
	d.Vertices = verts
	return d
}

func TestVertexHashesPrecision(t *testing.T) {
	// differ in the 7th decimal: identical at 3 digits, distinct at 6
	a := createTestGeomData([]math.Vec3{{X: 0.1234564}})
	b := createTestGeomData([]math.Vec3{{X: 0.1234566}})

	coarse := Precision{Vertex: 3, Normal: 3, UV: 5, VCol: 3}
	ha := VertexHashes(&a.GeomData, coarse)
	hb := VertexHashes(&b.GeomData, coarse)
	if ha[0] != hb[0] {
		t.Errorf("expected equal hashes at precision 3: %x vs %x", ha[0], hb[0])
	}

	fine := Precision{Vertex: 6, Normal: 6, UV: 6, VCol: 6}
	ha = VertexHashes(&a.GeomData, fine)
	hb = VertexHashes(&b.GeomData, fine)
	if ha[0] == hb[0] {
		t.Errorf("expected distinct hashes at precision 6, both %x", ha[0])
	}
}

func TestVertexHashesAttributes(t *testing.T) {
	p := DefaultPrecision()
	plain := createTestGeomData([]math.Vec3{{X: 1}, {X: 1}})
	h := VertexHashes(&plain.GeomData, p)
	if h[0] != h[1] {
		t.Fatalf("identical vertices must collide: %x vs %x", h[0], h[1])
	}

	// same position, different normal: must not collide
	shaded := createTestGeomData([]math.Vec3{{X: 1}, {X: 1}})
	shaded.Normals = []math.Vec3{{Z: 1}, {X: 1}}
	h = VertexHashes(&shaded.GeomData, p)
	if h[0] == h[1] {
		t.Errorf("vertices with distinct normals must not collide")
	}
}

func TestPointHashes(t *testing.T) {
	h := PointHashes([]math.Vec3{{X: 1.0004}, {X: 0.9996}, {X: 2}}, 3)
	if h[0] != h[1] {
		t.Errorf("points within rounding distance must collide")
	}
	if h[0] == h[2] {
		t.Errorf("distinct points must not collide")
	}
}

func TestTriangleHashesIgnoreWinding(t *testing.T) {
	tris := []PackedTriangle{
		{Triangle: Triangle{0, 1, 2}},
		{Triangle: Triangle{2, 0, 1}},
		{Triangle: Triangle{0, 2, 1}},
		{Triangle: Triangle{0, 1, 3}},
	}
	h := TriangleHashes(tris)
	if h[0] != h[1] || h[0] != h[2] {
		t.Errorf("rotated/reversed triangles must collide: %x %x %x", h[0], h[1], h[2])
	}
	if h[0] == h[3] {
		t.Errorf("different triangles must not collide")
	}
}

func createTestMaterial(name string) *MaterialProperty {
	return &MaterialProperty{
		ObjectNET: ObjectNET{Name: name},
		Diffuse:   Color3{R: 1, G: 0.5, B: 0.25},
		Alpha:     1,
	}
}

func TestBranchDigestIgnoresOrdinaryNames(t *testing.T) {
	p := DefaultPrecision()
	a := BranchDigest(createTestMaterial("Stone01"), p)
	b := BranchDigest(createTestMaterial("Stone02"), p)
	if !bytes.Equal(a, b) {
		t.Errorf("material name must not affect the digest")
	}
}

func TestBranchDigestKeepsReservedNames(t *testing.T) {
	p := DefaultPrecision()
	plain := BranchDigest(createTestMaterial("Stone01"), p)
	env := BranchDigest(createTestMaterial("EnvMap2"), p)
	if bytes.Equal(plain, env) {
		t.Errorf("reserved material name must keep the digest distinct")
	}
	// reserved name comparison is case-insensitive
	env2 := BranchDigest(createTestMaterial("envmap2"), p)
	if !bytes.Equal(env, env2) {
		t.Errorf("reserved names must match case-insensitively")
	}
}

func TestBranchDigestCycle(t *testing.T) {
	a := &TimeController{}
	b := &TimeController{}
	a.Next = b
	b.Next = a

	// must terminate and be deterministic
	p := DefaultPrecision()
	d1 := BranchDigest(a, p)
	d2 := BranchDigest(a, p)
	if !bytes.Equal(d1, d2) {
		t.Errorf("cyclic digest must be deterministic")
	}
	if len(d1) == 0 {
		t.Errorf("cyclic digest must not be empty")
	}
}

func TestBranchHashOnEqualDigests(t *testing.T) {
	p := DefaultPrecision()
	a := BranchDigest(createTestMaterial("A"), p)
	b := BranchDigest(createTestMaterial("B"), p)
	if BranchHash(a) != BranchHash(b) {
		t.Errorf("equal digests must hash equally")
	}
}
