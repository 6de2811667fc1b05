package nif

import (
	stdmath "math"
	"sort"
	"strings"

	"github.com/chewxy/math32"
	"github.com/niflab/nifopt/pkg/math"
)

// Precision sets the order-of-magnitude rounding applied per vertex
// attribute before hashing. Two values equal after rounding to the
// given number of decimal digits hash identically.
type Precision struct {
	Vertex int
	Normal int
	UV     int
	VCol   int
}

// DefaultPrecision returns the hashing precisions used by the
// geometry optimizer.
func DefaultPrecision() Precision {
	return Precision{Vertex: 3, Normal: 3, UV: 5, VCol: 3}
}

// quantize rounds v to digits decimal digits and returns the scaled
// integer representation used for hashing.
func quantize(v float32, digits int) int64 {
	scale := math32.Pow(10, float32(digits))
	return int64(math32.Round(v * scale))
}

// fnv64 is an incremental FNV-1a hash over integer streams.
type fnv64 uint64

const fnvOffset fnv64 = 14695981039346656037
const fnvPrime fnv64 = 1099511628211

func (h fnv64) int64(v int64) fnv64 {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		h = (h ^ fnv64(u&0xff)) * fnvPrime
		u >>= 8
	}
	return h
}

func (h fnv64) vec3(v math.Vec3, digits int) fnv64 {
	h = h.int64(quantize(v.X, digits))
	h = h.int64(quantize(v.Y, digits))
	return h.int64(quantize(v.Z, digits))
}

// VertexHashes computes one key per vertex, combining the position,
// normal, every UV coordinate, and color, each rounded to its
// attribute precision. Vertices equal up to floating-point noise
// below the precision collapse onto one key.
func VertexHashes(d *GeomData, p Precision) []uint64 {
	out := make([]uint64, len(d.Vertices))
	for i := range d.Vertices {
		h := fnvOffset
		h = h.vec3(d.Vertices[i], p.Vertex)
		if len(d.Normals) > i {
			h = h.vec3(d.Normals[i], p.Normal)
		}
		for _, uvset := range d.UVSets {
			if len(uvset) > i {
				h = h.int64(quantize(uvset[i].X, p.UV))
				h = h.int64(quantize(uvset[i].Y, p.UV))
			}
		}
		if len(d.VertexColors) > i {
			c := d.VertexColors[i]
			h = h.int64(quantize(c.R, p.VCol))
			h = h.int64(quantize(c.G, p.VCol))
			h = h.int64(quantize(c.B, p.VCol))
			h = h.int64(quantize(c.A, p.VCol))
		}
		out[i] = uint64(h)
	}
	return out
}

// PointHashes computes position-only keys, used for collision
// vertices which carry no attributes.
func PointHashes(verts []math.Vec3, digits int) []uint64 {
	out := make([]uint64, len(verts))
	for i, v := range verts {
		out[i] = uint64(fnvOffset.vec3(v, digits))
	}
	return out
}

// TriangleHashes computes one key per triangle over the unordered set
// of its vertex indices. Winding is deliberately ignored: it matters
// for rendering but not for duplicate detection.
func TriangleHashes(tris []PackedTriangle) []uint64 {
	out := make([]uint64, len(tris))
	for i, t := range tris {
		idx := []int{int(t.Triangle[0]), int(t.Triangle[1]), int(t.Triangle[2])}
		sort.Ints(idx)
		h := fnvOffset
		for _, v := range idx {
			h = h.int64(int64(v))
		}
		out[i] = uint64(h)
	}
	return out
}

// specialNames are material names that carry engine meaning; a
// material named one of these must keep its name distinct under
// branch hashing instead of merging with a same-valued material.
var specialNames = map[string]bool{
	"envmap2":    true,
	"envmap":     true,
	"skin":       true,
	"hair":       true,
	"dynalpha":   true,
	"hidesecret": true,
	"lava":       true,
}

// hashSpecialName returns the name to include in a branch digest, or
// "" when names are ignored for this block.
func hashSpecialName(b Block) string {
	mat, ok := b.(*MaterialProperty)
	if !ok {
		return ""
	}
	lower := strings.ToLower(mat.Name)
	if specialNames[lower] {
		return lower
	}
	return ""
}

// BranchDigest serializes a block subtree into a canonical byte
// string under the duplicate-detection policy: block names are
// ignored (except reserved material names), back-pointer fields are
// skipped, and already-visited blocks are encoded by visit index so
// cyclic references terminate deterministically. Two subtrees with
// equal digests are structurally interchangeable candidates.
func BranchDigest(b Block, p Precision) []byte {
	d := &digest{p: p, visited: make(map[Block]int)}
	d.block(b)
	return d.buf
}

// BranchHash condenses a branch digest to a 64-bit key for map
// lookup. Callers confirm candidate equality on the full digest.
func BranchHash(digest []byte) uint64 {
	h := fnvOffset
	for _, c := range digest {
		h = (h ^ fnv64(c)) * fnvPrime
	}
	return uint64(h)
}

type digest struct {
	p       Precision
	buf     []byte
	visited map[Block]int
}

func (d *digest) u8(v uint8)   { d.buf = append(d.buf, v) }
func (d *digest) u16(v uint16) { d.buf = append(d.buf, byte(v), byte(v>>8)) }
func (d *digest) u32(v uint32) {
	d.buf = append(d.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
func (d *digest) i64(v int64) {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		d.buf = append(d.buf, byte(u))
		u >>= 8
	}
}
func (d *digest) f32(v float32) { d.u32(stdmath.Float32bits(v)) }
func (d *digest) qf(v float32, digits int) {
	d.i64(quantize(v, digits))
}
func (d *digest) str(s string) {
	d.u32(uint32(len(s)))
	d.buf = append(d.buf, s...)
}
func (d *digest) vec3(v math.Vec3, digits int) {
	d.qf(v.X, digits)
	d.qf(v.Y, digits)
	d.qf(v.Z, digits)
}

func (d *digest) block(b Block) {
	if b == nil {
		d.u8(0xFF)
		return
	}
	if idx, ok := d.visited[b]; ok {
		// already hashed in this subtree: reference by visit index
		d.u8(0xFE)
		d.u32(uint32(idx))
		return
	}
	d.visited[b] = len(d.visited)
	d.u8(uint8(b.Kind()))
	if name := hashSpecialName(b); name != "" {
		d.str(name)
	}

	switch t := b.(type) {
	case *Node:
		d.avObject(&t.AVObject)
		d.blockList(t.Children)
		d.blockList(t.Effects)
	case *TriShape:
		d.geometry(&t.Geometry)
	case *TriStrips:
		d.geometry(&t.Geometry)
	case *TriShapeData:
		d.geomData(&t.GeomData)
		d.u32(uint32(len(t.Triangles)))
		for _, tri := range t.Triangles {
			d.u16(tri[0])
			d.u16(tri[1])
			d.u16(tri[2])
		}
	case *TriStripsData:
		d.geomData(&t.GeomData)
		d.u32(uint32(len(t.Strips)))
		for _, strip := range t.Strips {
			d.u32(uint32(len(strip)))
			for _, v := range strip {
				d.u16(v)
			}
		}
	case *MaterialProperty:
		d.objectNET(&t.ObjectNET)
		for _, c := range []Color3{t.Ambient, t.Diffuse, t.Specular, t.Emissive} {
			d.f32(c.R)
			d.f32(c.G)
			d.f32(c.B)
		}
		d.f32(t.Glossiness)
		d.f32(t.Alpha)
	case *TexturingProperty:
		d.objectNET(&t.ObjectNET)
		d.u32(t.ApplyMode)
		d.u32(uint32(len(t.Textures)))
		for _, tex := range t.Textures {
			if tex.Source == nil {
				d.u8(0xFF)
			} else {
				d.block(tex.Source)
			}
			d.u32(tex.UVSet)
			d.u32(tex.ClampMode)
			d.u32(tex.FilterMode)
		}
	case *AlphaProperty:
		d.objectNET(&t.ObjectNET)
		d.u16(t.BlendFlags)
		d.u8(t.Threshold)
	case *ShaderProperty:
		d.objectNET(&t.ObjectNET)
		d.u32(t.ShaderFlags)
	case *SourceTexture:
		d.objectNET(&t.ObjectNET)
		d.str(t.FileName)
		d.u32(t.PixelLayout)
		d.u32(t.UseMipmaps)
	case *TimeController:
		d.controller(&t.ControllerBase)
		d.block(t.Data)
	case *GeomMorpherController:
		d.controller(&t.ControllerBase)
		if t.Data == nil {
			d.u8(0xFF)
		} else {
			d.block(t.Data)
		}
	case *MorphData:
		d.u32(uint32(t.NumVertices))
		d.u32(uint32(len(t.Morphs)))
		for _, m := range t.Morphs {
			d.u32(uint32(len(m.Vectors)))
			for _, v := range m.Vectors {
				d.vec3(v, d.p.Vertex)
			}
		}
	case *SkinInstance:
		// skins bind to specific skeleton instances; digest the
		// structure but never the bone pointers
		d.u32(uint32(len(t.Bones)))
		if t.Data == nil {
			d.u8(0xFF)
		} else {
			d.block(t.Data)
		}
	case *SkinData:
		d.u32(uint32(len(t.BoneList)))
		for _, bd := range t.BoneList {
			d.u32(uint32(len(bd.VertexWeights)))
			for _, vw := range bd.VertexWeights {
				d.u16(vw.Index)
				d.f32(vw.Weight)
			}
		}
	case *SkinPartition:
		d.u32(uint32(len(t.Partitions)))
	case *BinaryExtraData:
		d.u32(uint32(len(t.Data)))
		d.buf = append(d.buf, t.Data...)
	case *TextKeyExtraData:
		d.u32(uint32(len(t.TextKeys)))
		for _, k := range t.TextKeys {
			d.f32(k.Time)
			d.str(k.Value)
		}
	case *KeyframeData:
		d.u32(t.RotationType)
		d.u32(uint32(len(t.QuaternionKeys)))
		for _, k := range t.QuaternionKeys {
			d.f32(k.Time)
			d.f32(k.Value.X)
			d.f32(k.Value.Y)
			d.f32(k.Value.Z)
			d.f32(k.Value.W)
		}
		for axis := 0; axis < 3; axis++ {
			d.floatKeys(t.XYZRotations[axis])
		}
		d.u32(uint32(len(t.Translations)))
		for _, k := range t.Translations {
			d.f32(k.Time)
			d.vec3(k.Value, d.p.Vertex)
		}
		d.floatKeys(t.Scales)
	case *AVObjectPalette:
		d.u32(uint32(len(t.Objects)))
		for _, e := range t.Objects {
			d.str(e.Name)
		}
	case *PSysMeshEmitter:
		d.objectNET(&t.ObjectNET)
		d.u32(uint32(len(t.EmitterMeshes)))
	case *CollisionObject:
		d.u16(t.Flags)
		d.block(t.Body)
	case *RigidBody:
		d.u8(t.Layer)
		d.f32(t.Mass)
		d.block(t.Shape)
	case *MoppShape:
		d.u32(t.Material)
		d.vec3(t.Origin, d.p.Vertex)
		d.f32(t.Scale)
		d.u32(uint32(len(t.Code)))
		d.buf = append(d.buf, t.Code...)
		d.block(t.Shape)
	case *PackedTriShape:
		d.u32(uint32(len(t.SubShapes)))
		for _, ss := range t.SubShapes {
			d.u8(ss.Layer)
			d.u32(ss.Material)
			d.u32(uint32(ss.NumVertices))
		}
		if t.Data == nil {
			d.u8(0xFF)
		} else {
			d.block(t.Data)
		}
	case *PackedTriData:
		d.u32(uint32(len(t.Vertices)))
		for _, v := range t.Vertices {
			d.vec3(v, d.p.Vertex)
		}
		d.u32(uint32(len(t.Triangles)))
		for _, tri := range t.Triangles {
			d.u16(tri.Triangle[0])
			d.u16(tri.Triangle[1])
			d.u16(tri.Triangle[2])
			d.vec3(tri.Normal, d.p.Normal)
		}
	case *BoxShape:
		d.vec3(t.Dimensions, d.p.Vertex)
		d.f32(t.MinimumSize)
		d.u32(t.Material)
		d.f32(t.Radius)
	case *ConvexTransformShape:
		d.u32(t.Material)
		for _, v := range t.Transform {
			d.f32(v)
		}
		d.block(t.Shape)
	}
}

func (d *digest) floatKeys(keys []FloatKey) {
	d.u32(uint32(len(keys)))
	for _, k := range keys {
		d.f32(k.Time)
		d.f32(k.Value)
	}
}

func (d *digest) blockList(list []Block) {
	d.u32(uint32(len(list)))
	for _, b := range list {
		d.block(b)
	}
}

func (d *digest) objectNET(o *ObjectNET) {
	// name deliberately excluded; reserved material names are
	// handled by hashSpecialName
	d.blockList(o.ExtraData)
	d.block(o.Ctrl)
}

func (d *digest) avObject(a *AVObject) {
	d.objectNET(&a.ObjectNET)
	d.u16(a.Flags)
	d.vec3(a.Translation, d.p.Vertex)
	for _, v := range a.Rotation {
		d.f32(v)
	}
	d.f32(a.Scale)
	d.blockList(a.Properties)
	d.block(a.Collision)
}

func (d *digest) geometry(g *Geometry) {
	d.avObject(&g.AVObject)
	d.block(g.Data)
	if g.Skin == nil {
		d.u8(0xFF)
	} else {
		d.block(g.Skin)
	}
}

func (d *digest) geomData(g *GeomData) {
	d.u8(g.KeepFlags)
	d.u8(g.CompressFlags)
	d.u16(g.ConsistencyFlags)
	d.u16(g.TangentFlags)
	d.vec3(g.Center, d.p.Vertex)
	d.qf(g.Radius, d.p.Vertex)
	d.u32(uint32(len(g.Vertices)))
	for _, v := range g.Vertices {
		d.vec3(v, d.p.Vertex)
	}
	d.u32(uint32(len(g.Normals)))
	for _, v := range g.Normals {
		d.vec3(v, d.p.Normal)
	}
	d.u32(uint32(len(g.UVSets)))
	for _, uvset := range g.UVSets {
		d.u32(uint32(len(uvset)))
		for _, uv := range uvset {
			d.qf(uv.X, d.p.UV)
			d.qf(uv.Y, d.p.UV)
		}
	}
	d.u32(uint32(len(g.VertexColors)))
	for _, c := range g.VertexColors {
		d.qf(c.R, d.p.VCol)
		d.qf(c.G, d.p.VCol)
		d.qf(c.B, d.p.VCol)
		d.qf(c.A, d.p.VCol)
	}
}

// controller digests the shared controller core; the target is a
// back-pointer and is excluded.
func (d *digest) controller(c *ControllerBase) {
	d.f32(c.Frequency)
	d.f32(c.Phase)
	d.f32(c.StartTime)
	d.f32(c.StopTime)
	d.block(c.Next)
}
