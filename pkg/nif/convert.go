package nif

import (
	"github.com/jinzhu/copier"
	"github.com/niflab/nifopt/pkg/tristrip"
)

// ToTriStrips returns an interchangeable strip representation of a
// triangle shape. The geometry payload is deep-copied so the original
// block is left untouched; the caller is expected to replace the
// original graph-wide. Reference fields stay shared: properties,
// controllers, and the skin keep pointing at the same blocks.
func (s *TriShape) ToTriStrips() (*TriStrips, error) {
	strips := &TriStrips{Geometry: Geometry{
		AVObject: s.AVObject,
		Skin:     s.Skin,
	}}
	old := s.GeomData().(*TriShapeData)
	data := &TriStripsData{}
	if err := copier.CopyWithOption(&data.GeomData, &old.GeomData,
		copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	data.Strips = tristrip.Stripify(toRaw(old.Triangles))
	strips.Data = data
	return strips, nil
}

// ToTriShape returns an interchangeable plain-triangle representation
// of a strip shape.
func (s *TriStrips) ToTriShape() (*TriShape, error) {
	shape := &TriShape{Geometry: Geometry{
		AVObject: s.AVObject,
		Skin:     s.Skin,
	}}
	old := s.GeomData().(*TriStripsData)
	data := &TriShapeData{}
	if err := copier.CopyWithOption(&data.GeomData, &old.GeomData,
		copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	data.Triangles = fromRaw(tristrip.Triangulate(old.Strips))
	shape.Data = data
	return shape, nil
}

// SetTriangles replaces a strip payload's strips with a fresh
// stripification of the given triangles.
func (d *TriStripsData) SetTriangles(tris []Triangle) {
	d.Strips = tristrip.Stripify(toRaw(tris))
}

func toRaw(tris []Triangle) [][3]uint16 {
	out := make([][3]uint16, len(tris))
	for i, t := range tris {
		out[i] = [3]uint16(t)
	}
	return out
}

func fromRaw(tris [][3]uint16) []Triangle {
	out := make([]Triangle, len(tris))
	for i, t := range tris {
		out[i] = Triangle(t)
	}
	return out
}
