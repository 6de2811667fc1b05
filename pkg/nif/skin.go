package nif

import "fmt"

// VertexWeight binds one vertex to a bone with a blend weight.
type VertexWeight struct {
	Index  uint16
	Weight float32
}

// BoneData is the per-bone half of a skin: the vertices this bone
// influences.
type BoneData struct {
	VertexWeights []VertexWeight
}

// SkinData holds the per-bone weight tables of a skinned geometry.
type SkinData struct {
	BoneList []BoneData
	// Partition is the pre-1.x layout slot for the skin partition;
	// newer files keep it on the skin instance instead.
	Partition *SkinPartition
}

func (d *SkinData) Kind() Kind { return KindSkinData }

func (d *SkinData) Refs() []Block {
	if d.Partition != nil {
		return []Block{d.Partition}
	}
	return nil
}

func (d *SkinData) ReplaceLink(old, new Block) error {
	if d.Partition != nil && Block(d.Partition) == old {
		switch p := new.(type) {
		case nil:
			d.Partition = nil
		case *SkinPartition:
			d.Partition = p
		default:
			return fmt.Errorf("%s skin partition: %w", new.Kind(), ErrBadReplacement)
		}
	}
	return nil
}

// Partition groups a subset of a skinned mesh under a bounded bone
// set for rendering.
type Partition struct {
	Bones     []uint16   // bone indices into the skin instance bone list
	Vertices  []uint16   // vertex indices into the geometry
	Triangles []Triangle // indices into Vertices (local)
	Strips    [][]uint16 // indices into Vertices (local), when stripified
	// Weights[i] are the per-bone weights of Vertices[i], one per
	// entry of Bones.
	Weights [][]float32
}

// SkinPartition splits a skinned mesh into renderable partitions.
type SkinPartition struct {
	Partitions []Partition
}

func (p *SkinPartition) Kind() Kind                       { return KindSkinPartition }
func (p *SkinPartition) Refs() []Block                    { return nil }
func (p *SkinPartition) ReplaceLink(old, new Block) error { return nil }

// SkinInstance binds a geometry to a skeleton: bone back-pointers
// plus the weight tables and partition.
type SkinInstance struct {
	Data         *SkinData
	Partition    *SkinPartition
	SkeletonRoot *Node   // back-pointer, excluded from traversal
	Bones        []*Node // back-pointers, excluded from traversal
}

func (s *SkinInstance) Kind() Kind { return KindSkinInstance }

func (s *SkinInstance) Refs() []Block {
	var refs []Block
	if s.Data != nil {
		refs = append(refs, s.Data)
	}
	if s.Partition != nil {
		refs = append(refs, s.Partition)
	}
	return refs
}

func (s *SkinInstance) ReplaceLink(old, new Block) error {
	if s.Data != nil && Block(s.Data) == old {
		switch d := new.(type) {
		case nil:
			s.Data = nil
		case *SkinData:
			s.Data = d
		default:
			return fmt.Errorf("%s skin data: %w", new.Kind(), ErrBadReplacement)
		}
	}
	if s.Partition != nil && Block(s.Partition) == old {
		switch p := new.(type) {
		case nil:
			s.Partition = nil
		case *SkinPartition:
			s.Partition = p
		default:
			return fmt.Errorf("%s skin partition: %w", new.Kind(), ErrBadReplacement)
		}
	}
	if s.SkeletonRoot != nil && Block(s.SkeletonRoot) == old {
		switch n := new.(type) {
		case nil:
			s.SkeletonRoot = nil
		case *Node:
			s.SkeletonRoot = n
		default:
			return fmt.Errorf("%s skeleton root: %w", new.Kind(), ErrBadReplacement)
		}
	}
	for i := 0; i < len(s.Bones); i++ {
		if Block(s.Bones[i]) != old {
			continue
		}
		switch n := new.(type) {
		case nil:
			s.Bones = append(s.Bones[:i], s.Bones[i+1:]...)
			i--
		case *Node:
			s.Bones[i] = n
		default:
			return fmt.Errorf("%s bone: %w", new.Kind(), ErrBadReplacement)
		}
	}
	return nil
}

// CurrentPartition returns the partition in effect, preferring the
// instance slot over the legacy data slot.
func (s *SkinInstance) CurrentPartition() *SkinPartition {
	if s.Partition != nil {
		return s.Partition
	}
	if s.Data != nil {
		return s.Data.Partition
	}
	return nil
}

// VertexWeights inverts the per-bone weight tables into a per-vertex
// list of (bone, weight) pairs.
func (s *SkinInstance) VertexWeights(numVertices int) [][]VertexWeight {
	out := make([][]VertexWeight, numVertices)
	if s.Data == nil {
		return out
	}
	for bone, bd := range s.Data.BoneList {
		for _, vw := range bd.VertexWeights {
			if int(vw.Index) >= numVertices {
				continue
			}
			out[vw.Index] = append(out[vw.Index],
				VertexWeight{Index: uint16(bone), Weight: vw.Weight})
		}
	}
	return out
}
