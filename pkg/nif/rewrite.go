package nif

import (
	"fmt"
	"sort"

	"github.com/niflab/nifopt/pkg/math"
	"github.com/niflab/nifopt/pkg/remap"
)

// RemapVertices rewrites a geometry payload under a vertex index map:
// every per-vertex array is compacted through the representative old
// indices and every triangle/strip index is re-pointed through the
// old-to-new map. Corrupt strip indices are clamped to a neighboring
// valid index and reported as warnings: the file stays usable.
func RemapVertices(data TriBasedData, m remap.Map) []string {
	g := data.Geom()
	newCount := m.NewCount()

	g.Vertices = compactVec3(g.Vertices, m.NewToOld)
	if len(g.Normals) > 0 {
		g.Normals = compactVec3(g.Normals, m.NewToOld)
	}
	for j, uvset := range g.UVSets {
		newSet := make([]math.Vec2, newCount)
		for i, old := range m.NewToOld {
			if old < len(uvset) {
				newSet[i] = uvset[old]
			}
		}
		g.UVSets[j] = newSet
	}
	if len(g.VertexColors) > 0 {
		newColors := make([]math.Color4, newCount)
		for i, old := range m.NewToOld {
			if old < len(g.VertexColors) {
				newColors[i] = g.VertexColors[old]
			}
		}
		g.VertexColors = newColors
	}

	var warnings []string
	switch d := data.(type) {
	case *TriShapeData:
		for i := range d.Triangles {
			for c := 0; c < 3; c++ {
				d.Triangles[i][c] = uint16(m.OldToNew[d.Triangles[i][c]])
			}
		}
	case *TriStripsData:
		for si, strip := range d.Strips {
			for i, v := range strip {
				if int(v) >= len(m.OldToNew) {
					warnings = append(warnings, fmt.Sprintf(
						"corrupt geometry: bad vertex index %d in strip %d; "+
							"replacing by a valid neighbor which may modify the shape", v, si))
					if i > 0 {
						strip[i] = strip[i-1]
					} else if len(strip) > 1 && int(strip[i+1]) < len(m.OldToNew) {
						strip[i] = uint16(m.OldToNew[strip[i+1]])
					} else {
						strip[i] = 0
					}
					continue
				}
				strip[i] = uint16(m.OldToNew[v])
			}
		}
	}
	return warnings
}

func compactVec3(src []math.Vec3, newToOld []int) []math.Vec3 {
	out := make([]math.Vec3, len(newToOld))
	for i, old := range newToOld {
		if old < len(src) {
			out[i] = src[old]
		}
	}
	return out
}

// RemapSkinWeights rebuilds the per-bone weight tables after a vertex
// remap. oldWeights is the per-vertex weight list captured before the
// rewrite (see SkinInstance.VertexWeights).
func RemapSkinWeights(skin *SkinInstance, m remap.Map, oldWeights [][]VertexWeight) {
	if skin == nil || skin.Data == nil {
		return
	}
	newWeights := make([][]VertexWeight, m.NewCount())
	for i, old := range m.NewToOld {
		if old < len(oldWeights) {
			newWeights[i] = oldWeights[old]
		}
	}
	for bone := range skin.Data.BoneList {
		var w []VertexWeight
		for i, weightList := range newWeights {
			for _, vw := range weightList {
				if int(vw.Index) == bone {
					w = append(w, VertexWeight{Index: uint16(i), Weight: vw.Weight})
				}
			}
		}
		skin.Data.BoneList[bone].VertexWeights = w
	}
}

// RemapMorphs re-indexes every morph target's vector array the same
// way vertex positions were compacted.
func RemapMorphs(md *MorphData, m remap.Map) {
	if md == nil {
		return
	}
	for mi := range md.Morphs {
		md.Morphs[mi].Vectors = compactVec3(md.Morphs[mi].Vectors, m.NewToOld)
	}
	md.NumVertices = m.NewCount()
}

// FixSubShapeCounts recomputes the per-sub-shape vertex counts of a
// packed collision shape after a vertex remap. Sub-shapes partition
// the old vertex array into contiguous ranges; the new count of each
// is the number of surviving vertices whose representative old index
// falls inside its old range.
func FixSubShapeCounts(shape *PackedTriShape, m remap.Map) {
	if len(shape.SubShapes) == 1 {
		shape.SubShapes[0].NumVertices = m.NewCount()
		return
	}
	sorted := make([]int, len(m.NewToOld))
	copy(sorted, m.NewToOld)
	sort.Ints(sorted)

	oldMaxIndex := -1
	newI := 0
	for si := range shape.SubShapes {
		oldMaxIndex += shape.SubShapes[si].NumVertices
		count := 0
		for newI < len(sorted) && sorted[newI] <= oldMaxIndex {
			count++
			newI++
		}
		shape.SubShapes[si].NumVertices = count
	}
}
