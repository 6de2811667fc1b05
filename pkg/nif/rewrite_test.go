package nif

import (
	"testing"

	"github.com/niflab/nifopt/pkg/math"
	"github.com/niflab/nifopt/pkg/remap"
)

func TestRemapVertices(t *testing.T) {
	d := &TriShapeData{}
	d.Vertices = []math.Vec3{{X: 0}, {X: 1}, {X: 0}, {X: 2}} // 2 duplicates 0
	d.Normals = []math.Vec3{{Z: 1}, {Z: 1}, {Z: 1}, {Z: 1}}
	d.UVSets = [][]math.Vec2{{{X: 0}, {X: 0.5}, {X: 0}, {X: 1}}}
	d.Triangles = []Triangle{{0, 1, 2}, {1, 2, 3}}

	m := remap.Build(VertexHashes(&d.GeomData, DefaultPrecision()))
	if m.NewCount() != 3 {
		t.Fatalf("expected 3 unique vertices, got %d", m.NewCount())
	}

	warnings := RemapVertices(d, m)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(d.Vertices) != 3 || len(d.Normals) != 3 || len(d.UVSets[0]) != 3 {
		t.Fatalf("vertex arrays not compacted: %d verts", len(d.Vertices))
	}
	want := []Triangle{{0, 1, 0}, {1, 0, 2}}
	for i, tri := range d.Triangles {
		if tri != want[i] {
			t.Errorf("triangle %d = %v, want %v", i, tri, want[i])
		}
	}
}

func TestRemapVerticesCorruptStrip(t *testing.T) {
	d := &TriStripsData{}
	d.Vertices = []math.Vec3{{X: 0}, {X: 1}, {X: 2}}
	d.Strips = [][]uint16{{0, 1, 9, 2}} // index 9 out of range

	m := remap.Build(VertexHashes(&d.GeomData, DefaultPrecision()))
	warnings := RemapVertices(d, m)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	if got := d.Strips[0][2]; got != d.Strips[0][1] {
		t.Errorf("corrupt index replaced by %d, want previous neighbor %d", got, d.Strips[0][1])
	}
}

func TestRemapSkinWeights(t *testing.T) {
	skin := &SkinInstance{Data: &SkinData{BoneList: []BoneData{
		{VertexWeights: []VertexWeight{{Index: 0, Weight: 1}, {Index: 2, Weight: 0.5}}},
		{VertexWeights: []VertexWeight{{Index: 1, Weight: 1}, {Index: 2, Weight: 0.5}, {Index: 3, Weight: 1}}},
	}}}
	old := skin.VertexWeights(4)

	// vertex 2 collapses onto vertex 0
	m := remap.Build([]uint64{10, 20, 10, 30})
	RemapSkinWeights(skin, m, old)

	bone0 := skin.Data.BoneList[0].VertexWeights
	if len(bone0) != 1 || bone0[0].Index != 0 || bone0[0].Weight != 1 {
		t.Errorf("bone 0 weights = %v", bone0)
	}
	bone1 := skin.Data.BoneList[1].VertexWeights
	if len(bone1) != 2 {
		t.Fatalf("bone 1 weights = %v", bone1)
	}
	if bone1[0].Index != 1 || bone1[1].Index != 2 {
		t.Errorf("bone 1 indices = %v, want vertices 1 and 2", bone1)
	}
}

func TestRemapMorphs(t *testing.T) {
	md := &MorphData{
		NumVertices: 4,
		Morphs: []Morph{{
			Name:    "Base",
			Vectors: []math.Vec3{{X: 0}, {X: 1}, {X: 2}, {X: 3}},
		}},
	}
	m := remap.Build([]uint64{10, 20, 10, 30})
	RemapMorphs(md, m)
	if md.NumVertices != 3 {
		t.Fatalf("num vertices = %d, want 3", md.NumVertices)
	}
	got := md.Morphs[0].Vectors
	if len(got) != 3 || got[0].X != 0 || got[1].X != 1 || got[2].X != 3 {
		t.Errorf("morph vectors = %v", got)
	}
}

func TestFixSubShapeCounts(t *testing.T) {
	shape := &PackedTriShape{SubShapes: []SubShape{
		{NumVertices: 2},
		{NumVertices: 2},
	}}
	// old vertex 2 (first of the second sub-shape) collapsed onto 0
	m := remap.Build([]uint64{10, 20, 10, 30})
	FixSubShapeCounts(shape, m)
	if shape.SubShapes[0].NumVertices != 2 || shape.SubShapes[1].NumVertices != 1 {
		t.Errorf("sub-shape counts = %d,%d, want 2,1",
			shape.SubShapes[0].NumVertices, shape.SubShapes[1].NumVertices)
	}
}

func TestFixSubShapeCountsSingle(t *testing.T) {
	shape := &PackedTriShape{SubShapes: []SubShape{{NumVertices: 4}}}
	m := remap.Build([]uint64{10, 20, 10, 30})
	FixSubShapeCounts(shape, m)
	if shape.SubShapes[0].NumVertices != 3 {
		t.Errorf("count = %d, want 3", shape.SubShapes[0].NumVertices)
	}
}
