package spells

import (
	"testing"

	"github.com/niflab/nifopt/pkg/math"
	"github.com/niflab/nifopt/pkg/nif"
)

func createTestMaterial(name string) *nif.MaterialProperty {
	return &nif.MaterialProperty{
		ObjectNET: nif.ObjectNET{Name: name},
		Diffuse:   nif.Color3{R: 1, G: 0.5, B: 0.25},
		Alpha:     1,
	}
}

// createTestQuad builds a two-triangle quad shape with normals and a
// UV set.
func createTestQuad(name string) *nif.TriShape {
	d := &nif.TriShapeData{}
	d.Vertices = []math.Vec3{{X: 0}, {X: 1}, {Y: 1}, {X: 1, Y: 1}}
	d.Normals = []math.Vec3{{Z: 1}, {Z: 1}, {Z: 1}, {Z: 1}}
	d.UVSets = [][]math.Vec2{{{X: 0}, {X: 1}, {Y: 1}, {X: 1, Y: 1}}}
	d.Triangles = []nif.Triangle{{0, 1, 2}, {2, 1, 3}}
	s := &nif.TriShape{}
	s.Name = name
	s.Data = d
	return s
}

func createTestSceneGraph(shapes ...nif.Block) (*nif.Graph, *nif.Node) {
	root := &nif.Node{}
	root.Name = "Scene Root"
	root.Children = append(root.Children, shapes...)
	return &nif.Graph{Roots: []nif.Block{root}}, root
}

func TestCleanRefLists(t *testing.T) {
	shape := createTestQuad("quad")
	mat := createTestMaterial("stone")
	shape.Properties = []nif.Block{mat, nil, mat}
	g, root := createTestSceneGraph(shape, nil, shape)
	g.Roots = append(g.Roots, nil, g.Roots[0])

	if !CleanRefLists(g, nil) {
		t.Fatalf("expected changes")
	}
	if len(g.Roots) != 1 {
		t.Errorf("root list = %d entries, want 1", len(g.Roots))
	}
	if len(root.Children) != 1 {
		t.Errorf("children = %d entries, want 1", len(root.Children))
	}
	if len(shape.Properties) != 1 {
		t.Errorf("properties = %d entries, want 1", len(shape.Properties))
	}
	if CleanRefLists(g, nil) {
		t.Errorf("second run must be a no-op")
	}
}

func TestCleanRefListsEmitterSkip(t *testing.T) {
	shape := createTestQuad("quad")
	g, root := createTestSceneGraph(shape, shape)
	root.ExtraData = []nif.Block{&nif.PSysMeshEmitter{EmitterMeshes: []nif.Block{shape}}}

	if CleanRefLists(g, nil) {
		t.Fatalf("emitter document must not be touched")
	}
	if len(root.Children) != 2 {
		t.Errorf("children = %d entries, want untouched 2", len(root.Children))
	}
}

func TestMergeDuplicates(t *testing.T) {
	s1 := createTestQuad("a")
	s1.Properties = []nif.Block{createTestMaterial("stone01")}
	s2 := createTestQuad("b")
	s2.Properties = []nif.Block{createTestMaterial("stone02")}
	g, _ := createTestSceneGraph(s1, s2)

	if !MergeDuplicates(g, nif.DefaultPrecision(), nil) {
		t.Fatalf("expected changes")
	}
	if s1.Properties[0] != s2.Properties[0] {
		t.Errorf("equal materials not merged")
	}
	// the shared quad payloads are interchangeable too
	if s1.Data != s2.Data {
		t.Errorf("equal geometry payloads not merged")
	}
	if MergeDuplicates(g, nif.DefaultPrecision(), nil) {
		t.Errorf("second run must be a no-op")
	}
}

func TestMergeDuplicatesControllerExclusion(t *testing.T) {
	s1 := createTestQuad("a")
	m1 := createTestMaterial("stone")
	m1.Ctrl = &nif.TimeController{}
	s1.Properties = []nif.Block{m1}
	s2 := createTestQuad("b")
	m2 := createTestMaterial("stone")
	m2.Ctrl = &nif.TimeController{}
	s2.Properties = []nif.Block{m2}
	g, _ := createTestSceneGraph(s1, s2)

	MergeDuplicates(g, nif.DefaultPrecision(), nil)
	if s1.Properties[0] == s2.Properties[0] {
		t.Errorf("controller-bearing materials must not merge")
	}
}

func TestMergeDuplicatesShaderExclusion(t *testing.T) {
	s1 := createTestQuad("a")
	s1.Properties = []nif.Block{&nif.ShaderProperty{ShaderFlags: 3}}
	s2 := createTestQuad("b")
	s2.Properties = []nif.Block{&nif.ShaderProperty{ShaderFlags: 3}}
	g, _ := createTestSceneGraph(s1, s2)

	MergeDuplicates(g, nif.DefaultPrecision(), nil)
	if s1.Properties[0] == s2.Properties[0] {
		t.Errorf("shader properties must never merge")
	}
}

func TestMergeDuplicatesEmitterSkip(t *testing.T) {
	s1 := createTestQuad("a")
	s1.Properties = []nif.Block{createTestMaterial("stone")}
	s2 := createTestQuad("b")
	s2.Properties = []nif.Block{createTestMaterial("stone")}
	g, root := createTestSceneGraph(s1, s2)
	root.ExtraData = []nif.Block{&nif.PSysMeshEmitter{}}

	if MergeDuplicates(g, nif.DefaultPrecision(), nil) {
		t.Fatalf("emitter document must not be touched")
	}
	if s1.Properties[0] == s2.Properties[0] {
		t.Errorf("materials merged despite emitter")
	}
}

func TestFixTexturePaths(t *testing.T) {
	tex := &nif.SourceTexture{FileName: "textures\nif\rock.dds"}
	prop := &nif.TexturingProperty{Textures: []nif.TexDesc{{Source: tex}}}
	shape := createTestQuad("quad")
	shape.Properties = []nif.Block{prop}
	g, _ := createTestSceneGraph(shape)

	if !FixTexturePaths(g, nil) {
		t.Fatalf("expected changes")
	}
	if tex.FileName != `textures\nif\rock.dds` {
		t.Errorf("path = %q", tex.FileName)
	}
	if FixTexturePaths(g, nil) {
		t.Errorf("second run must be a no-op")
	}
}

func TestClampMaterialAlpha(t *testing.T) {
	mat := createTestMaterial("stone")
	mat.Alpha = 1.5
	shape := createTestQuad("quad")
	shape.Properties = []nif.Block{mat}
	g, _ := createTestSceneGraph(shape)

	if !ClampMaterialAlpha(g, nil) {
		t.Fatalf("expected changes")
	}
	if mat.Alpha != 1 {
		t.Errorf("alpha = %v, want 1", mat.Alpha)
	}

	mat.Alpha = -0.25
	ClampMaterialAlpha(g, nil)
	if mat.Alpha != 0 {
		t.Errorf("alpha = %v, want 0", mat.Alpha)
	}
}

func TestDelUnusedRoots(t *testing.T) {
	shape := createTestQuad("quad")
	g, _ := createTestSceneGraph(shape)
	// the shape is reachable from the first root: its root entry is
	// redundant
	g.Roots = append(g.Roots, shape)

	if !DelUnusedRoots(g, nil) {
		t.Fatalf("expected changes")
	}
	if len(g.Roots) != 1 {
		t.Errorf("roots = %d, want 1", len(g.Roots))
	}
}
