package spells

import (
	"go.uber.org/zap"

	"github.com/niflab/nifopt/pkg/mopp"
	"github.com/niflab/nifopt/pkg/nif"
	"github.com/niflab/nifopt/pkg/remap"
)

// addedMoppMagic are engine bytes written on every tree this tool
// adds to a shape that shipped without one.
var addedMoppMagic = [8]byte{160, 13, 75, 1, 192, 207, 144, 11}

// staticLayer is the collision layer of non-moving scenery; only
// static shapes get a bounding tree added.
const staticLayer = 1

// OptimizeCollisionGeometry deduplicates the vertices and triangles
// of packed collision shapes, replaces eight-corner boxes with box
// primitives, and rebuilds (or adds) the bounding tree bytecode.
func OptimizeCollisionGeometry(g *nif.Graph, opts Options, log *zap.Logger) bool {
	return Cast(g, &optimizeCollision{log: orNop(log), opts: opts})
}

type optimizeCollision struct {
	Base
	log  *zap.Logger
	opts Options
}

func (s *optimizeCollision) Name() string { return "optimize-collision-geometry" }

func (s *optimizeCollision) BranchInspect(b nif.Block) bool {
	return b.Kind() == nif.KindRigidBody
}

func (s *optimizeCollision) BranchEntry(g *nif.Graph, b nif.Block) (bool, bool) {
	body := b.(*nif.RigidBody)
	switch shape := body.Shape.(type) {
	case *nif.MoppShape:
		packed := shape.PackedShape()
		if packed == nil {
			return false, false
		}
		changed := s.compactPacked(packed)
		if box := nif.DetectBoxShape(packed, nif.BoxDetectTolerance); box != nil {
			if err := g.ReplaceGlobalNode(shape, box); err != nil {
				s.log.Warn("cannot replace collision box", zap.Error(err))
				return false, changed
			}
			s.log.Info("replaced packed collision shape by a box")
			return false, true
		}
		if changed {
			if err := s.encodeMopp(shape, packed); err != nil {
				s.log.Warn("cannot rebuild bounding tree", zap.Error(err))
			}
		}
		return false, changed

	case *nif.PackedTriShape:
		if shape.Data == nil {
			return false, false
		}
		changed := s.compactPacked(shape)
		if box := nif.DetectBoxShape(shape, nif.BoxDetectTolerance); box != nil {
			if err := g.ReplaceGlobalNode(shape, box); err != nil {
				s.log.Warn("cannot replace collision box", zap.Error(err))
				return false, changed
			}
			s.log.Info("replaced packed collision shape by a box")
			return false, true
		}
		if !allStatic(shape.SubShapes) {
			return false, changed
		}
		// static packed shape without a bounding tree: add one
		wrap := &nif.MoppShape{
			Shape:        shape,
			UnknownBytes: addedMoppMagic,
			UnknownFloat: 1.0,
		}
		if len(shape.SubShapes) > 0 {
			wrap.Material = shape.SubShapes[0].Material
		}
		if err := s.encodeMopp(wrap, shape); err != nil {
			s.log.Warn("cannot build bounding tree", zap.Error(err))
			return false, changed
		}
		body.Shape = wrap
		s.log.Info("added bounding tree to static packed shape",
			zap.Int("triangles", len(shape.Data.Triangles)))
		return false, true
	}
	return false, false
}

// compactPacked removes duplicate vertices and triangles from a
// packed shape, keeping the sub-shape vertex counts consistent.
func (s *optimizeCollision) compactPacked(shape *nif.PackedTriShape) bool {
	data := shape.Data
	changed := false

	m := remap.Build(nif.PointHashes(data.Vertices, s.opts.CollisionPrecision))
	if m.NewCount() < len(data.Vertices) {
		newVerts := data.Vertices[:0:0]
		for _, old := range m.NewToOld {
			newVerts = append(newVerts, data.Vertices[old])
		}
		s.log.Info("removed duplicate collision vertices",
			zap.Int("before", len(data.Vertices)), zap.Int("after", m.NewCount()))
		data.Vertices = newVerts
		for i := range data.Triangles {
			for c := 0; c < 3; c++ {
				data.Triangles[i].Triangle[c] = uint16(m.OldToNew[data.Triangles[i].Triangle[c]])
			}
		}
		nif.FixSubShapeCounts(shape, m)
		changed = true
	}

	tm := remap.Build(nif.TriangleHashes(data.Triangles))
	if tm.NewCount() < len(data.Triangles) {
		newTris := make([]nif.PackedTriangle, 0, tm.NewCount())
		for _, old := range tm.NewToOld {
			newTris = append(newTris, data.Triangles[old])
		}
		s.log.Info("removed duplicate collision triangles",
			zap.Int("before", len(data.Triangles)), zap.Int("after", tm.NewCount()))
		data.Triangles = newTris
		changed = true
	}
	return changed
}

// encodeMopp recomputes origin, scale, and bytecode from the packed
// shape's current vertices.
func (s *optimizeCollision) encodeMopp(m *nif.MoppShape, shape *nif.PackedTriShape) error {
	os := mopp.UpdateOriginScale(shape.Data.Vertices)
	code, err := mopp.Encode(shape.Data.Vertices, os, len(shape.Data.Triangles))
	if err != nil {
		return err
	}
	m.Origin = os.Origin
	m.Scale = os.Scale
	m.Code = code
	return nil
}

func allStatic(subs []nif.SubShape) bool {
	if len(subs) == 0 {
		return false
	}
	for _, ss := range subs {
		if ss.Layer != staticLayer {
			return false
		}
	}
	return true
}
