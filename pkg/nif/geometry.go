package nif

import "github.com/niflab/nifopt/pkg/math"

// Triangle is an index triple into a vertex array.
type Triangle [3]uint16

// GeomData is the shared payload of triangle-based geometry data
// blocks: per-vertex arrays plus bounding state. Every optional array,
// when present, has exactly len(Vertices) elements.
type GeomData struct {
	Vertices     []math.Vec3
	Normals      []math.Vec3
	UVSets       [][]math.Vec2
	VertexColors []math.Color4
	Center       math.Vec3
	Radius       float32

	KeepFlags        uint8
	CompressFlags    uint8
	ConsistencyFlags uint16
	// TangentFlags holds the high bits of the UV set count word that
	// mark baked tangent space data.
	TangentFlags uint16
}

// Geom returns the shared geometry payload.
func (d *GeomData) Geom() *GeomData { return d }

// NumVertices returns the vertex count.
func (d *GeomData) NumVertices() int { return len(d.Vertices) }

// UpdateCenterRadius recomputes the bounding sphere from the vertices.
func (d *GeomData) UpdateCenterRadius() {
	if len(d.Vertices) == 0 {
		d.Center = math.Vec3{}
		d.Radius = 0
		return
	}
	lo, hi := d.Vertices[0], d.Vertices[0]
	for _, v := range d.Vertices[1:] {
		lo = lo.Min(v)
		hi = hi.Max(v)
	}
	d.Center = lo.Add(hi).Scale(0.5)
	var r float32
	for _, v := range d.Vertices {
		if dist := v.Distance(d.Center); dist > r {
			r = dist
		}
	}
	d.Radius = r
}

// TriBasedData is the interface of triangle-based geometry payload
// blocks (independent triangles or strips).
type TriBasedData interface {
	Block
	Geom() *GeomData
	// GetTriangles returns the triangle list, unpacking strips.
	GetTriangles() []Triangle
	// NumTriangles returns the triangle count without unpacking.
	NumTriangles() int
}

// TriShapeData holds geometry as an independent triangle list.
type TriShapeData struct {
	GeomData
	Triangles []Triangle
}

func (d *TriShapeData) Kind() Kind                       { return KindTriShapeData }
func (d *TriShapeData) Refs() []Block                    { return nil }
func (d *TriShapeData) ReplaceLink(old, new Block) error { return nil }

func (d *TriShapeData) GetTriangles() []Triangle {
	out := make([]Triangle, len(d.Triangles))
	copy(out, d.Triangles)
	return out
}

func (d *TriShapeData) NumTriangles() int { return len(d.Triangles) }

// TriStripsData holds geometry as triangle strips.
type TriStripsData struct {
	GeomData
	Strips [][]uint16
}

func (d *TriStripsData) Kind() Kind                       { return KindTriStripsData }
func (d *TriStripsData) Refs() []Block                    { return nil }
func (d *TriStripsData) ReplaceLink(old, new Block) error { return nil }

// GetTriangles unpacks the strips into an independent triangle list,
// dropping degenerate triangles.
func (d *TriStripsData) GetTriangles() []Triangle {
	var out []Triangle
	for _, strip := range d.Strips {
		for i := 0; i+2 < len(strip); i++ {
			a, b, c := strip[i], strip[i+1], strip[i+2]
			if a == b || b == c || a == c {
				continue
			}
			if i%2 == 0 {
				out = append(out, Triangle{a, b, c})
			} else {
				out = append(out, Triangle{a, c, b})
			}
		}
	}
	return out
}

func (d *TriStripsData) NumTriangles() int {
	n := 0
	for _, strip := range d.Strips {
		for i := 0; i+2 < len(strip); i++ {
			a, b, c := strip[i], strip[i+1], strip[i+2]
			if a == b || b == c || a == c {
				continue
			}
			n++
		}
	}
	return n
}

// StripLengths returns the length of each strip.
func (d *TriStripsData) StripLengths() []int {
	out := make([]int, len(d.Strips))
	for i, s := range d.Strips {
		out[i] = len(s)
	}
	return out
}

// AverageStripLength returns the strip length average weighted toward
// long strips (sum of squares over sum). Short-strip representations
// are not worth their per-strip overhead.
func (d *TriStripsData) AverageStripLength() float32 {
	sum, sq := 0, 0
	for _, s := range d.Strips {
		sum += len(s)
		sq += len(s) * len(s)
	}
	if sum == 0 {
		return 0
	}
	return float32(sq) / float32(sum)
}
