package spells

import (
	"testing"

	"github.com/niflab/nifopt/pkg/math"
	"github.com/niflab/nifopt/pkg/nif"
)

func TestOptimizeGeometryDedup(t *testing.T) {
	shape := createTestQuad("quad")
	d := shape.Data.(*nif.TriShapeData)
	// vertex 4 duplicates vertex 0
	d.Vertices = append(d.Vertices, d.Vertices[0])
	d.Normals = append(d.Normals, d.Normals[0])
	d.UVSets[0] = append(d.UVSets[0], d.UVSets[0][0])
	d.Triangles = append(d.Triangles, nif.Triangle{4, 1, 2})
	g, _ := createTestSceneGraph(shape)

	if !OptimizeGeometry(g, DefaultOptions(), nil) {
		t.Fatalf("expected changes")
	}
	if len(d.Vertices) != 4 {
		t.Errorf("vertices = %d, want 4", len(d.Vertices))
	}
	if d.Triangles[2] != (nif.Triangle{0, 1, 2}) {
		t.Errorf("triangle not repointed: %v", d.Triangles[2])
	}
	if OptimizeGeometry(g, DefaultOptions(), nil) {
		t.Errorf("second run must be a no-op")
	}
}

func TestOptimizeGeometryDetachesDegenerate(t *testing.T) {
	shape := createTestQuad("empty")
	d := shape.Data.(*nif.TriShapeData)
	d.Vertices = d.Vertices[:2]
	d.Triangles = nil
	g, root := createTestSceneGraph(shape)

	if !OptimizeGeometry(g, DefaultOptions(), nil) {
		t.Fatalf("expected changes")
	}
	if len(root.Children) != 0 {
		t.Errorf("degenerate shape still attached")
	}
}

func TestOptimizeGeometryStripsToShape(t *testing.T) {
	// a single short strip is cheaper as plain triangles
	sd := &nif.TriStripsData{}
	sd.Vertices = []math.Vec3{{X: 0}, {X: 1}, {Y: 1}, {X: 1, Y: 1}}
	sd.Normals = []math.Vec3{{Z: 1}, {Z: 1}, {Z: 1}, {Z: 1}}
	sd.UVSets = [][]math.Vec2{{{X: 0}, {X: 1}, {Y: 1}, {X: 1, Y: 1}}}
	sd.Strips = [][]uint16{{0, 1, 2, 3}}
	strips := &nif.TriStrips{}
	strips.Name = "short"
	strips.Data = sd
	g, root := createTestSceneGraph(strips)

	if !OptimizeGeometry(g, DefaultOptions(), nil) {
		t.Fatalf("expected changes")
	}
	conv, ok := root.Children[0].(*nif.TriShape)
	if !ok {
		t.Fatalf("expected conversion to TriShape, got %T", root.Children[0])
	}
	if conv.GeomData().NumTriangles() != 2 {
		t.Errorf("triangles = %d, want 2", conv.GeomData().NumTriangles())
	}
	if conv.Name != "short" {
		t.Errorf("name = %q", conv.Name)
	}
	if OptimizeGeometry(g, DefaultOptions(), nil) {
		t.Errorf("second run must be a no-op")
	}
}

func TestOptimizeGeometryKeepsLongStrips(t *testing.T) {
	// one long band: 12 triangles in a single strip of length 14
	sd := &nif.TriStripsData{}
	var strip []uint16
	for i := 0; i < 14; i++ {
		sd.Vertices = append(sd.Vertices, math.Vec3{X: float32(i / 2), Y: float32(i % 2)})
		strip = append(strip, uint16(i))
	}
	sd.Strips = [][]uint16{strip}
	strips := &nif.TriStrips{}
	strips.Name = "band"
	strips.Data = sd
	g, root := createTestSceneGraph(strips)

	OptimizeGeometry(g, DefaultOptions(), nil)
	if _, ok := root.Children[0].(*nif.TriStrips); !ok {
		t.Fatalf("long strip converted away: %T", root.Children[0])
	}
}

func TestOptimizeGeometryRemapsMorphs(t *testing.T) {
	shape := createTestQuad("morphed")
	d := shape.Data.(*nif.TriShapeData)
	d.Vertices = append(d.Vertices, d.Vertices[0])
	d.Normals = append(d.Normals, d.Normals[0])
	d.UVSets[0] = append(d.UVSets[0], d.UVSets[0][0])

	md := &nif.MorphData{
		NumVertices: 5,
		Morphs: []nif.Morph{{
			Name:    "Base",
			Vectors: []math.Vec3{{X: 0}, {X: 1}, {X: 2}, {X: 3}, {X: 4}},
		}},
	}
	shape.Ctrl = &nif.GeomMorpherController{Data: md}

	g, _ := createTestSceneGraph(shape)
	if !OptimizeGeometry(g, DefaultOptions(), nil) {
		t.Fatalf("expected changes")
	}
	if md.NumVertices != 4 || len(md.Morphs[0].Vectors) != 4 {
		t.Errorf("morph not remapped: %d vertices, %d vectors",
			md.NumVertices, len(md.Morphs[0].Vectors))
	}
}
