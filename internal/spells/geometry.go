package spells

import (
	"go.uber.org/zap"

	"github.com/niflab/nifopt/pkg/nif"
	"github.com/niflab/nifopt/pkg/remap"
	"github.com/niflab/nifopt/pkg/tristrip"
)

// OptimizeGeometry deduplicates vertices, picks the cheaper triangle
// representation per shape, and rebuilds the dependent skin, morph,
// and tangent data. Degenerate shapes (fewer than three vertices or
// no triangles) are detached from the document.
func OptimizeGeometry(g *nif.Graph, opts Options, log *zap.Logger) bool {
	return Cast(g, &optimizeGeometry{log: orNop(log), opts: opts})
}

type optimizeGeometry struct {
	Base
	log  *zap.Logger
	opts Options
}

func (s *optimizeGeometry) Name() string { return "optimize-geometry" }

func (s *optimizeGeometry) BranchInspect(b nif.Block) bool {
	switch b.Kind() {
	case nif.KindTriShape, nif.KindTriStrips:
		return true
	}
	return false
}

func (s *optimizeGeometry) BranchEntry(g *nif.Graph, b nif.Block) (bool, bool) {
	geo := geometryOf(b)
	data := geo.GeomData()
	if data == nil {
		return false, false
	}
	gd := data.Geom()
	name := geo.Name

	if len(gd.Vertices) < 3 || data.NumTriangles() == 0 {
		if err := g.ReplaceGlobalNode(b, nil); err != nil {
			s.log.Warn("cannot detach degenerate geometry",
				zap.String("name", name), zap.Error(err))
			return false, false
		}
		s.log.Info("removed degenerate geometry", zap.String("name", name))
		return false, true
	}

	changed := false
	m := remap.Build(nif.VertexHashes(gd, s.opts.Precision))
	if m.NewCount() < len(gd.Vertices) {
		before := len(gd.Vertices)
		var oldWeights [][]nif.VertexWeight
		if geo.Skin != nil {
			oldWeights = geo.Skin.VertexWeights(before)
		}
		for _, w := range nif.RemapVertices(data, m) {
			s.log.Warn(w, zap.String("name", name))
		}
		nif.RemapSkinWeights(geo.Skin, m, oldWeights)
		if md := morphDataOf(geo); md != nil {
			nif.RemapMorphs(md, m)
		}
		gd.UpdateCenterRadius()
		changed = true
		s.log.Info("removed duplicate vertices", zap.String("name", name),
			zap.Int("before", before), zap.Int("after", m.NewCount()))
	}

	tris := data.GetTriangles()
	if len(tris) > s.opts.MaxTriangles {
		s.log.Warn("triangle count exceeds stripification limit, keeping representation",
			zap.String("name", name), zap.Int("triangles", len(tris)))
	} else {
		var err error
		geo, changed, err = s.updateRepresentation(g, b, geo, tris, changed)
		if err != nil {
			s.log.Warn("cannot convert representation",
				zap.String("name", name), zap.Error(err))
		}
	}

	if geo.Skin != nil && (changed || geo.Skin.CurrentPartition() == nil) {
		stripify := geo.GeomData().Kind() == nif.KindTriStripsData
		if err := geo.UpdateSkinPartition(
			s.opts.BonesPerPartition, s.opts.BonesPerVertex, stripify); err != nil {
			s.log.Warn("cannot rebuild skin partition",
				zap.String("name", name), zap.Error(err))
		} else {
			changed = true
		}
	}

	// tangents depend on the final triangle and UV state
	if changed && geo.HasTangentSpace() {
		if err := geo.UpdateTangentSpace(); err != nil {
			s.log.Warn("cannot rebuild tangent space",
				zap.String("name", name), zap.Error(err))
		}
	}
	return false, changed
}

// updateRepresentation picks strips or plain triangles by the
// length-weighted average strip length and converts the shape when it
// is on the wrong side of the cutoff. Returns the live geometry.
func (s *optimizeGeometry) updateRepresentation(g *nif.Graph, b nif.Block,
	geo *nif.Geometry, tris []nif.Triangle, remapped bool) (*nif.Geometry, bool, error) {

	strips := tristrip.Stripify(rawTriangles(tris))
	avg := weightedStripLength(strips)
	name := geo.Name

	switch t := b.(type) {
	case *nif.TriShape:
		if avg < s.opts.StripCutoff {
			return geo, remapped, nil
		}
		conv, err := t.ToTriStrips()
		if err != nil {
			return geo, remapped, err
		}
		if err := g.ReplaceGlobalNode(b, conv); err != nil {
			return geo, remapped, err
		}
		s.stitch(conv.GeomData().(*nif.TriStripsData))
		s.log.Info("converted triangles to strips", zap.String("name", name),
			zap.Float32("average strip length", avg))
		return &conv.Geometry, true, nil

	case *nif.TriStrips:
		sd := t.GeomData().(*nif.TriStripsData)
		if avg < s.opts.StripCutoff {
			conv, err := t.ToTriShape()
			if err != nil {
				return geo, remapped, err
			}
			if err := g.ReplaceGlobalNode(b, conv); err != nil {
				return geo, remapped, err
			}
			s.log.Info("converted strips to triangles", zap.String("name", name),
				zap.Float32("average strip length", avg))
			return &conv.Geometry, true, nil
		}
		if remapped {
			sd.Strips = strips
		}
		changed := s.stitch(sd) || remapped
		return geo, changed, nil
	}
	return geo, remapped, nil
}

// stitch joins a multi-strip payload into a single strip when enabled.
func (s *optimizeGeometry) stitch(sd *nif.TriStripsData) bool {
	if !s.opts.Stitch || len(sd.Strips) <= 1 {
		return false
	}
	sd.Strips = [][]uint16{tristrip.Stitch(sd.Strips)}
	return true
}

func geometryOf(b nif.Block) *nif.Geometry {
	switch t := b.(type) {
	case *nif.TriShape:
		return &t.Geometry
	case *nif.TriStrips:
		return &t.Geometry
	}
	return nil
}

// morphDataOf finds the morph targets on the shape's controller chain.
func morphDataOf(geo *nif.Geometry) *nif.MorphData {
	b := geo.Ctrl
	for b != nil {
		if mc, ok := b.(*nif.GeomMorpherController); ok {
			return mc.Data
		}
		cb, ok := b.(nif.ControllerBlock)
		if !ok {
			return nil
		}
		b = cb.Controller().Next
	}
	return nil
}

func rawTriangles(tris []nif.Triangle) [][3]uint16 {
	out := make([][3]uint16, len(tris))
	for i, t := range tris {
		out[i] = [3]uint16(t)
	}
	return out
}

// weightedStripLength averages strip lengths weighted by length, so a
// few long strips are not drowned out by leftover short ones.
func weightedStripLength(strips [][]uint16) float32 {
	sum, sq := 0, 0
	for _, s := range strips {
		sum += len(s)
		sq += len(s) * len(s)
	}
	if sum == 0 {
		return 0
	}
	return float32(sq) / float32(sum)
}
