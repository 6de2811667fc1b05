package nif

import (
	"errors"
	"sort"

	"github.com/niflab/nifopt/pkg/tristrip"
)

// Skinning errors.
var (
	ErrNoSkin         = errors.New("geometry has no skin instance")
	ErrNoGeometryData = errors.New("geometry has no data block")
)

// UpdateSkinPartition rebuilds the per-bone partitioning of a skinned
// geometry from its current weight tables and triangle set. Triangles
// are grouped greedily in order; a partition is closed when admitting
// the next triangle would exceed maxBonesPerPartition. Per-vertex
// influences are trimmed to the maxBonesPerVertex largest weights and
// renormalized.
func (g *Geometry) UpdateSkinPartition(maxBonesPerPartition, maxBonesPerVertex int, stripify bool) error {
	if g.Skin == nil || g.Skin.Data == nil {
		return ErrNoSkin
	}
	data := g.GeomData()
	if data == nil {
		return ErrNoGeometryData
	}
	numVerts := data.Geom().NumVertices()
	weights := g.Skin.VertexWeights(numVerts)

	// trim influences
	for i := range weights {
		w := weights[i]
		if len(w) <= maxBonesPerVertex {
			continue
		}
		sort.SliceStable(w, func(a, b int) bool { return w[a].Weight > w[b].Weight })
		w = w[:maxBonesPerVertex]
		var total float32
		for _, vw := range w {
			total += vw.Weight
		}
		if total > 0 {
			for j := range w {
				w[j].Weight /= total
			}
		}
		weights[i] = w
	}

	type part struct {
		bones map[uint16]bool
		tris  []Triangle
	}
	var parts []*part
	var cur *part
	for _, tri := range data.GetTriangles() {
		triBones := make(map[uint16]bool)
		for _, vi := range tri {
			for _, vw := range weights[vi] {
				triBones[vw.Index] = true
			}
		}
		if cur != nil {
			grown := len(cur.bones)
			for b := range triBones {
				if !cur.bones[b] {
					grown++
				}
			}
			if grown > maxBonesPerPartition {
				cur = nil
			}
		}
		if cur == nil {
			cur = &part{bones: make(map[uint16]bool)}
			parts = append(parts, cur)
		}
		for b := range triBones {
			cur.bones[b] = true
		}
		cur.tris = append(cur.tris, tri)
	}

	partition := &SkinPartition{}
	for _, p := range parts {
		bones := make([]uint16, 0, len(p.bones))
		for b := range p.bones {
			bones = append(bones, b)
		}
		sort.Slice(bones, func(a, b int) bool { return bones[a] < bones[b] })
		boneSlot := make(map[uint16]int, len(bones))
		for i, b := range bones {
			boneSlot[b] = i
		}

		// local vertex numbering in first-use order
		vertSlot := make(map[uint16]int)
		var verts []uint16
		local := make([]Triangle, len(p.tris))
		for ti, tri := range p.tris {
			for c := 0; c < 3; c++ {
				v := tri[c]
				slot, ok := vertSlot[v]
				if !ok {
					slot = len(verts)
					vertSlot[v] = slot
					verts = append(verts, v)
				}
				local[ti][c] = uint16(slot)
			}
		}

		pw := make([][]float32, len(verts))
		for i, v := range verts {
			pw[i] = make([]float32, len(bones))
			for _, vw := range weights[v] {
				pw[i][boneSlot[vw.Index]] = vw.Weight
			}
		}

		out := Partition{
			Bones:    bones,
			Vertices: verts,
			Weights:  pw,
		}
		if stripify {
			out.Strips = tristrip.Stripify(toRaw(local))
		} else {
			out.Triangles = local
		}
		partition.Partitions = append(partition.Partitions, out)
	}

	// store in whichever slot the file used; default to the instance
	if g.Skin.Partition == nil && g.Skin.Data.Partition != nil {
		g.Skin.Data.Partition = partition
	} else {
		g.Skin.Partition = partition
	}
	return nil
}
