package nif

import "github.com/niflab/nifopt/pkg/math"

// CollisionObject attaches a physics body to a scene object.
type CollisionObject struct {
	Target Block // scene object (back-pointer)
	Body   Block // *RigidBody
	Flags  uint16
}

func (c *CollisionObject) Kind() Kind { return KindCollisionObject }

func (c *CollisionObject) Refs() []Block {
	if c.Body != nil {
		return []Block{c.Body}
	}
	return nil
}

func (c *CollisionObject) ReplaceLink(old, new Block) error {
	if c.Target == old {
		c.Target = new
	}
	if c.Body == old {
		c.Body = new
	}
	return nil
}

// RigidBody is a physics body wrapping a collision shape.
type RigidBody struct {
	Shape Block
	Layer uint8
	Mass  float32
}

func (b *RigidBody) Kind() Kind { return KindRigidBody }

func (b *RigidBody) Refs() []Block {
	if b.Shape != nil {
		return []Block{b.Shape}
	}
	return nil
}

func (b *RigidBody) ReplaceLink(old, new Block) error {
	if b.Shape == old {
		b.Shape = new
	}
	return nil
}

// MoppShape wraps a packed triangle shape with MOPP bytecode for fast
// collision queries. Origin and Scale quantize shape vertices into
// the bytecode's 8-bit grid.
type MoppShape struct {
	Shape        Block // *PackedTriShape
	Material     uint32
	UnknownBytes [8]byte
	UnknownFloat float32
	Origin       math.Vec3
	Scale        float32
	Code         []byte
}

func (m *MoppShape) Kind() Kind { return KindMoppShape }

func (m *MoppShape) Refs() []Block {
	if m.Shape != nil {
		return []Block{m.Shape}
	}
	return nil
}

func (m *MoppShape) ReplaceLink(old, new Block) error {
	if m.Shape == old {
		m.Shape = new
	}
	return nil
}

// PackedShape returns the wrapped shape when it is a packed triangle
// shape with data attached, or nil.
func (m *MoppShape) PackedShape() *PackedTriShape {
	shape, ok := m.Shape.(*PackedTriShape)
	if !ok || shape.Data == nil {
		return nil
	}
	return shape
}

// SubShape is one material region of a packed triangle shape. Its
// vertex count addresses a contiguous range of the shared vertex
// array.
type SubShape struct {
	Layer       uint8
	Material    uint32
	NumVertices int
}

// PackedTriShape is a havok-packed triangle soup split into material
// sub-shapes.
type PackedTriShape struct {
	SubShapes []SubShape
	Data      *PackedTriData
}

func (s *PackedTriShape) Kind() Kind { return KindPackedTriShape }

func (s *PackedTriShape) Refs() []Block {
	if s.Data != nil {
		return []Block{s.Data}
	}
	return nil
}

func (s *PackedTriShape) ReplaceLink(old, new Block) error {
	if s.Data != nil && Block(s.Data) == old {
		switch d := new.(type) {
		case nil:
			s.Data = nil
		case *PackedTriData:
			s.Data = d
		default:
			return ErrBadReplacement
		}
	}
	return nil
}

// PackedTriangle is a collision triangle with its face normal and
// welding info.
type PackedTriangle struct {
	Triangle Triangle
	Normal   math.Vec3
	Welding  uint16
}

// PackedTriData is the vertex/triangle payload of a packed shape.
type PackedTriData struct {
	Vertices  []math.Vec3
	Triangles []PackedTriangle
}

func (d *PackedTriData) Kind() Kind                       { return KindPackedTriData }
func (d *PackedTriData) Refs() []Block                    { return nil }
func (d *PackedTriData) ReplaceLink(old, new Block) error { return nil }

// BoxShape is an oriented box collision primitive. The unknown byte
// values are engine magic observed in shipped assets.
type BoxShape struct {
	Dimensions   math.Vec3
	MinimumSize  float32
	Material     uint32
	Radius       float32
	UnknownBytes [8]byte
}

func (b *BoxShape) Kind() Kind                       { return KindBoxShape }
func (b *BoxShape) Refs() []Block                    { return nil }
func (b *BoxShape) ReplaceLink(old, new Block) error { return nil }

// ConvexTransformShape positions a child shape with a 4x4 transform.
type ConvexTransformShape struct {
	Shape     Block
	Material  uint32
	Transform [16]float32 // column-major, translation in 12..14
}

func (t *ConvexTransformShape) Kind() Kind { return KindConvexTransformShape }

func (t *ConvexTransformShape) Refs() []Block {
	if t.Shape != nil {
		return []Block{t.Shape}
	}
	return nil
}

func (t *ConvexTransformShape) ReplaceLink(old, new Block) error {
	if t.Shape == old {
		t.Shape = new
	}
	return nil
}
