package mopp

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/niflab/nifopt/pkg/math"
)

// Encode emits a trivial, unbalanced MOPP tree covering triangleCount
// triangles over the given vertex set: one bound per axis, then a
// linear chain of single-leaf branches. Every triangle is reachable
// but no spatial partitioning is done; callers needing real query
// performance must substitute their own encoder behind the same
// bytes-out contract.
func Encode(verts []math.Vec3, os OriginScale, triangleCount int) ([]byte, error) {
	if triangleCount <= 0 {
		return nil, ErrNoTriangles
	}
	if os.Scale <= 0 {
		return nil, fmt.Errorf("scale %g: %w", os.Scale, ErrInvalidScale)
	}

	// quantization step per 16-bit grid unit
	q := 256 * 256 / os.Scale

	var hi math.Vec3
	for i, v := range verts {
		if i == 0 {
			hi = v
		} else {
			hi = hi.Max(v)
		}
	}
	maxX := int(math32.Ceil((hi.X + 0.1 - os.Origin.X) / q))
	maxY := int(math32.Ceil((hi.Y + 0.1 - os.Origin.Y) / q))
	maxZ := int(math32.Ceil((hi.Z + 0.1 - os.Origin.Z) / q))
	if maxX < 0 || maxY < 0 || maxZ < 0 {
		return nil, fmt.Errorf("bounds (%d,%d,%d): %w", maxX, maxY, maxZ, ErrInvalidOrigin)
	}
	if maxX > 255 || maxY > 255 || maxZ > 255 {
		return nil, fmt.Errorf("bounds (%d,%d,%d): %w", maxX, maxY, maxZ, ErrInvalidScale)
	}

	code := make([]byte, 0, 9+5*triangleCount)
	code = append(code,
		opBoundZ, 0, byte(maxZ),
		opBoundY, 0, byte(maxY),
		opBoundX, 0, byte(maxX))

	// chain of branches whose then side is a compact leaf and whose
	// else side is the rest of the chain; compact leaves cycle
	// through 0x30..0x4F with an offset bump between cycles
	leaf := byte(opLeafFirst)
	for t := 0; t < triangleCount-1; t++ {
		code = append(code, opTestZ, byte(maxZ), 0, 1, leaf)
		leaf++
		if leaf == opLeafLast+1 {
			code = append(code, opOffsetByte, opLeafLast+1-opLeafFirst)
			leaf = opLeafFirst
		}
	}
	code = append(code, leaf)
	return code, nil
}
