package nif

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/niflab/nifopt/pkg/math"
)

// BoxDetectTolerance is the maximum accumulated deviation from a
// perfect box accepted by DetectBoxShape. The value matches the
// consuming engine's observed assets; do not re-derive it.
const BoxDetectTolerance = 1e-6

// boxShapeMagic are engine bytes observed on every shipped box shape.
var boxShapeMagic = [8]byte{0x6b, 0xee, 0x43, 0x40, 0x3a, 0xef, 0x8e, 0x3e}

// DetectBoxShape checks whether a packed collision shape is an
// axis-aligned box (8 vertices on the corners of a cuboid within
// tolerance). If so it returns an equivalent box primitive, wrapped
// in a transform shape when the box is not centered on the origin;
// otherwise nil.
func DetectBoxShape(shape *PackedTriShape, tolerance float32) Block {
	if shape.Data == nil || len(shape.Data.Vertices) != 8 {
		return nil
	}
	verts := make([]math.Vec3, 8)
	copy(verts, shape.Data.Vertices)
	sort.Slice(verts, func(i, j int) bool {
		a, b := verts[i], verts[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})

	lo, hi := verts[0], verts[0]
	for _, v := range verts[1:] {
		lo = lo.Min(v)
		hi = hi.Max(v)
	}
	size := hi.Sub(lo)
	if size.X == 0 || size.Y == 0 || size.Z == 0 {
		return nil
	}

	// sorted corners of a unit box, in the same lexicographic order
	unitBox := [8]math.Vec3{
		{X: 0, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 1}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 1},
		{X: 1, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 1},
	}
	var nonBoxiness float32
	for i, v := range verts {
		scaled := math.Vec3{
			X: (v.X - lo.X) / size.X,
			Y: (v.Y - lo.Y) / size.Y,
			Z: (v.Z - lo.Z) / size.Z,
		}
		diff := scaled.Sub(unitBox[i])
		nonBoxiness += math32.Abs(diff.X) + math32.Abs(diff.Y) + math32.Abs(diff.Z)
	}
	if nonBoxiness > tolerance {
		return nil
	}

	var material uint32
	if len(shape.SubShapes) > 0 {
		material = shape.SubShapes[0].Material
	}
	minSize := size.X
	if size.Y < minSize {
		minSize = size.Y
	}
	if size.Z < minSize {
		minSize = size.Z
	}
	box := &BoxShape{
		Dimensions:   size.Scale(0.5),
		MinimumSize:  minSize,
		Material:     material,
		Radius:       0.1,
		UnknownBytes: boxShapeMagic,
	}

	mid := lo.Add(size.Scale(0.5))
	if math32.Abs(mid.X)+math32.Abs(mid.Y)+math32.Abs(mid.Z) < tolerance {
		return box
	}
	tf := &ConvexTransformShape{
		Shape:    box,
		Material: material,
	}
	// identity rotation, translation in the last column
	tf.Transform[0] = 1
	tf.Transform[5] = 1
	tf.Transform[10] = 1
	tf.Transform[15] = 1
	tf.Transform[12] = mid.X
	tf.Transform[13] = mid.Y
	tf.Transform[14] = mid.Z
	return tf
}
