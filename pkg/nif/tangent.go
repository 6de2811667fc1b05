package nif

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/niflab/nifopt/pkg/math"
)

// TangentSpaceName is the extra data name under which baked tangent
// space vectors are stored.
const TangentSpaceName = "Tangent space (binormal & tangent vectors)"

// ErrNoTangentBasis is returned when tangent space cannot be derived
// because the geometry lacks normals or a UV set.
var ErrNoTangentBasis = errors.New("geometry has no normals or uv set for tangent space")

// HasTangentSpace reports whether the block carries baked tangent
// space data, either as a named extra data block or flagged in the
// UV set count word.
func (g *Geometry) HasTangentSpace() bool {
	if g.FindExtraData(TangentSpaceName, KindBinaryExtraData) != nil {
		return true
	}
	if data := g.GeomData(); data != nil && data.Geom().TangentFlags&0xF000 != 0 {
		return true
	}
	return false
}

// UpdateTangentSpace recomputes per-vertex tangents and binormals
// from the final triangle, normal, and first-UV-set state, and stores
// them in the tangent space extra data block (created when absent).
// Must run after every other geometry mutation: the result depends on
// final triangle and UV state.
func (g *Geometry) UpdateTangentSpace() error {
	data := g.GeomData()
	if data == nil {
		return ErrNoTangentBasis
	}
	geom := data.Geom()
	if len(geom.Normals) == 0 || len(geom.UVSets) == 0 {
		return ErrNoTangentBasis
	}
	uv := geom.UVSets[0]
	n := len(geom.Vertices)

	tangents := make([]math.Vec3, n)
	binormals := make([]math.Vec3, n)
	for _, tri := range data.GetTriangles() {
		i0, i1, i2 := int(tri[0]), int(tri[1]), int(tri[2])
		if i0 >= n || i1 >= n || i2 >= n || i0 >= len(uv) || i1 >= len(uv) || i2 >= len(uv) {
			continue
		}
		e1 := geom.Vertices[i1].Sub(geom.Vertices[i0])
		e2 := geom.Vertices[i2].Sub(geom.Vertices[i0])
		du1 := uv[i1].Sub(uv[i0])
		du2 := uv[i2].Sub(uv[i0])

		det := du1.X*du2.Y - du2.X*du1.Y
		if det == 0 {
			continue
		}
		r := 1 / det
		tan := e1.Scale(du2.Y * r).Sub(e2.Scale(du1.Y * r))
		bin := e2.Scale(du1.X * r).Sub(e1.Scale(du2.X * r))
		for _, i := range []int{i0, i1, i2} {
			tangents[i] = tangents[i].Add(tan)
			binormals[i] = binormals[i].Add(bin)
		}
	}

	// Gram-Schmidt against the vertex normal
	for i := 0; i < n; i++ {
		norm := geom.Normals[i]
		t := tangents[i].Sub(norm.Scale(norm.Dot(tangents[i]))).Normalize()
		if t == (math.Vec3{}) {
			// degenerate basis: pick any vector orthogonal to the normal
			t = norm.Cross(math.Vec3{Z: 1})
			if t == (math.Vec3{}) {
				t = math.Vec3{X: 1}
			}
			t = t.Normalize()
		}
		b := norm.Cross(t).Normalize()
		tangents[i] = t
		binormals[i] = b
	}

	buf := new(bytes.Buffer)
	for _, v := range tangents {
		binary.Write(buf, binary.LittleEndian, v)
	}
	for _, v := range binormals {
		binary.Write(buf, binary.LittleEndian, v)
	}

	if ed, ok := g.FindExtraData(TangentSpaceName, KindBinaryExtraData).(*BinaryExtraData); ok && ed != nil {
		ed.Data = buf.Bytes()
		return nil
	}
	g.ExtraData = append(g.ExtraData, &BinaryExtraData{
		ObjectNET: ObjectNET{Name: TangentSpaceName},
		Data:      buf.Bytes(),
	})
	return nil
}
