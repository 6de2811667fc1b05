// Package tristrip converts between independent triangle lists and
// triangle strips. The stripifier is greedy and deterministic: strips
// grow from triangles in input order, so repeated runs over the same
// mesh produce identical strips.
package tristrip

// edge is a directed vertex pair.
type edge struct {
	from, to uint16
}

// Stripify converts a triangle list into strips. Every input triangle
// appears in exactly one strip window; winding is preserved through
// strip parity.
func Stripify(tris [][3]uint16) [][]uint16 {
	// directed edge -> triangles containing it, with the opposing vertex
	type cont struct {
		tri   int
		third uint16
	}
	edges := make(map[edge][]cont, len(tris)*3)
	for i, t := range tris {
		edges[edge{t[0], t[1]}] = append(edges[edge{t[0], t[1]}], cont{i, t[2]})
		edges[edge{t[1], t[2]}] = append(edges[edge{t[1], t[2]}], cont{i, t[0]})
		edges[edge{t[2], t[0]}] = append(edges[edge{t[2], t[0]}], cont{i, t[1]})
	}

	used := make([]bool, len(tris))
	var strips [][]uint16
	for i, t := range tris {
		if used[i] {
			continue
		}
		used[i] = true
		strip := []uint16{t[0], t[1], t[2]}
		y, z := t[1], t[2]
		// parity of the next triangle's window start
		for k := 1; ; k++ {
			var want edge
			if k%2 == 1 {
				// odd windows are wound (y, w, z): they contain
				// the directed edge z->y
				want = edge{z, y}
			} else {
				want = edge{y, z}
			}
			next := -1
			var w uint16
			for _, c := range edges[want] {
				if !used[c.tri] {
					next = c.tri
					w = c.third
					break
				}
			}
			if next < 0 {
				break
			}
			used[next] = true
			strip = append(strip, w)
			y, z = z, w
		}
		strips = append(strips, strip)
	}
	return strips
}

// Triangulate unpacks strips into an independent triangle list,
// skipping degenerate windows (repeated vertices).
func Triangulate(strips [][]uint16) [][3]uint16 {
	var out [][3]uint16
	for _, strip := range strips {
		for i := 0; i+2 < len(strip); i++ {
			a, b, c := strip[i], strip[i+1], strip[i+2]
			if a == b || b == c || a == c {
				continue
			}
			if i%2 == 0 {
				out = append(out, [3]uint16{a, b, c})
			} else {
				out = append(out, [3]uint16{a, c, b})
			}
		}
	}
	return out
}

// Stitch joins strips into a single strip using degenerate triangles,
// inserting an extra repeat where needed to keep winding parity.
func Stitch(strips [][]uint16) []uint16 {
	var out []uint16
	for _, s := range strips {
		if len(s) == 0 {
			continue
		}
		if len(out) == 0 {
			out = append(out, s...)
			continue
		}
		out = append(out, out[len(out)-1], s[0])
		if len(out)%2 == 1 {
			out = append(out, s[0])
		}
		out = append(out, s...)
	}
	return out
}

// TriangleCount returns the number of non-degenerate triangles the
// strips unpack to.
func TriangleCount(strips [][]uint16) int {
	n := 0
	for _, strip := range strips {
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
