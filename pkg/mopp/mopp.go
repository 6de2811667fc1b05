// Package mopp decodes and encodes MOPP collision bytecode.
//
// A MOPP blob is an instruction stream describing a binary tree over
// axis-aligned bounds whose leaves are triangle indices into a packed
// triangle shape. The opcode byte values are reverse engineered from
// the consuming engine and are load-bearing: do not re-derive them.
package mopp

import (
	"errors"
	"fmt"

	"github.com/niflab/nifopt/pkg/math"
)

// Opcode byte values. Bounds and branch test codes are per axis; leaf
// codes 0x30..0x4F carry the triangle index in the low bits.
const (
	opJumpByte    = 0x05
	opJumpShort   = 0x06
	opOffsetByte  = 0x09
	opOffsetShort = 0x0A
	opOffsetAbs   = 0x0B
	opTestX       = 0x10
	opTestY       = 0x11
	opTestZ       = 0x12
	opBoundX      = 0x26
	opBoundY      = 0x27
	opBoundZ      = 0x28
	opLeafFirst   = 0x30
	opLeafLast    = 0x4F
	opLeafByte    = 0x50
	opLeafShort   = 0x51
	opLeafShortB  = 0x53
)

// maxDepth bounds branch recursion against malicious or corrupt
// bytecode. Real trees are O(log triangles) deep.
const maxDepth = 256

// Codec errors.
var (
	ErrUnknownOpcode = errors.New("unknown mopp opcode")
	ErrTruncated     = errors.New("truncated mopp data")
	ErrTooDeep       = errors.New("mopp tree exceeds maximum depth")
	ErrInvalidOrigin = errors.New("cannot build mopp with invalid origin")
	ErrInvalidScale  = errors.New("cannot build mopp with invalid scale")
	ErrNoTriangles   = errors.New("cannot build mopp without triangles")
)

// Result of decoding a MOPP instruction stream.
type Result struct {
	// Offsets lists every byte offset consumed, in visit order.
	// Coverage checks compare it against the blob length.
	Offsets []int
	// Triangles lists every triangle index the tree resolves to,
	// in visit order (then branch before else branch).
	Triangles []int
}

// Decode interprets the instruction stream starting at start with the
// given initial triangle offset accumulator (normally 0). It returns
// the byte offsets consumed and the triangle indices reachable from
// that entry point. An opcode outside the recognized set is an error
// carrying the offending offset and the bytes that follow it.
func Decode(code []byte, start, triOffset int) (*Result, error) {
	res := &Result{}
	if err := decode(code, start, triOffset, 0, res); err != nil {
		return nil, err
	}
	return res, nil
}

func decode(code []byte, start, triOffset, depth int, res *Result) error {
	if depth > maxDepth {
		return fmt.Errorf("offset %d: %w", start, ErrTooDeep)
	}
	i := start
	for i < len(code) {
		op := code[i]
		switch {
		case op == opOffsetByte:
			if err := need(code, i, 2); err != nil {
				return err
			}
			triOffset += int(code[i+1])
			res.consume(i, 2)
			i += 2

		case op == opOffsetShort:
			if err := need(code, i, 3); err != nil {
				return err
			}
			triOffset += int(code[i+1])*256 + int(code[i+2])
			res.consume(i, 3)
			i += 3

		case op == opOffsetAbs:
			// operands 1 and 2 are opaque engine state; 3 and 4
			// set the offset absolutely
			if err := need(code, i, 5); err != nil {
				return err
			}
			triOffset = int(code[i+3])*256 + int(code[i+4])
			res.consume(i, 5)
			i += 5

		case op >= opLeafFirst && op <= opLeafLast:
			res.consume(i, 1)
			res.Triangles = append(res.Triangles, int(op-opLeafFirst)+triOffset)
			return nil

		case op == opLeafByte:
			if err := need(code, i, 2); err != nil {
				return err
			}
			res.consume(i, 2)
			res.Triangles = append(res.Triangles, int(code[i+1])+triOffset)
			return nil

		case op == opLeafShort:
			if err := need(code, i, 3); err != nil {
				return err
			}
			res.consume(i, 3)
			res.Triangles = append(res.Triangles, int(code[i+1])*256+int(code[i+2])+triOffset)
			return nil

		case op == opLeafShortB:
			if err := need(code, i, 5); err != nil {
				return err
			}
			res.consume(i, 5)
			res.Triangles = append(res.Triangles, int(code[i+3])*256+int(code[i+4])+triOffset)
			return nil

		case op == opJumpByte:
			if err := need(code, i, 2); err != nil {
				return err
			}
			res.consume(i, 2)
			i += 2 + int(code[i+1])

		case op == opJumpShort:
			if err := need(code, i, 3); err != nil {
				return err
			}
			res.consume(i, 3)
			i += 3 + int(code[i+1])*256 + int(code[i+2])

		case (op >= 0x10 && op <= 0x1A) || op == 0x1C:
			// branch with two operands and a byte displacement:
			// then branch follows the operands, else branch at
			// the displacement
			if err := need(code, i, 4); err != nil {
				return err
			}
			res.consume(i, 4)
			if err := decode(code, i+4, triOffset, depth+1, res); err != nil {
				return err
			}
			// else branch continues in this frame so linear
			// chains do not count against the depth guard
			i += 4 + int(code[i+3])

		case op >= 0x20 && op <= 0x22:
			// branch with one operand and a byte displacement
			if err := need(code, i, 3); err != nil {
				return err
			}
			res.consume(i, 3)
			if err := decode(code, i+3, triOffset, depth+1, res); err != nil {
				return err
			}
			i += 3 + int(code[i+2])

		case op >= 0x23 && op <= 0x25:
			// branch with two operands and two short displacements
			if err := need(code, i, 7); err != nil {
				return err
			}
			res.consume(i, 7)
			jump1 := int(code[i+3])*256 + int(code[i+4])
			jump2 := int(code[i+5])*256 + int(code[i+6])
			if err := decode(code, i+7+jump1, triOffset, depth+1, res); err != nil {
				return err
			}
			i += 7 + jump2

		case op >= opBoundX && op <= opBoundZ:
			if err := need(code, i, 3); err != nil {
				return err
			}
			res.consume(i, 3)
			i += 3

		case op >= 0x01 && op <= 0x04:
			// combined bound over all axes
			if err := need(code, i, 4); err != nil {
				return err
			}
			res.consume(i, 4)
			i += 4

		default:
			return fmt.Errorf("offset %d: %w 0x%02X (following bytes % X)",
				i, ErrUnknownOpcode, op, following(code, i))
		}
	}
	return nil
}

// consume records n consecutive byte offsets starting at i.
func (r *Result) consume(i, n int) {
	for j := 0; j < n; j++ {
		r.Offsets = append(r.Offsets, i+j)
	}
}

// need checks that n bytes starting at i are available.
func need(code []byte, i, n int) error {
	if i+n > len(code) {
		return fmt.Errorf("offset %d: %w (need %d bytes, have %d)",
			i, ErrTruncated, n, len(code)-i)
	}
	return nil
}

// following returns up to 9 bytes after offset i for diagnostics.
func following(code []byte, i int) []byte {
	end := i + 10
	if end > len(code) {
		end = len(code)
	}
	if i+1 >= end {
		return nil
	}
	return code[i+1 : end]
}

// OriginScale is the quantization state of a MOPP blob: vertex v maps
// to grid coordinate (v - Origin) * Scale / 65536 per axis.
type OriginScale struct {
	Origin math.Vec3
	Scale  float32
}

// UpdateOriginScale computes the origin and scale for a vertex set:
// origin is the minimum corner less 0.1 per axis, and scale fits the
// largest extent into an 8-bit grid with headroom.
func UpdateOriginScale(verts []math.Vec3) OriginScale {
	if len(verts) == 0 {
		return OriginScale{Scale: 1}
	}
	lo, hi := verts[0], verts[0]
	for _, v := range verts[1:] {
		lo = lo.Min(v)
		hi = hi.Max(v)
	}
	extent := hi.Sub(lo)
	maxExtent := extent.X
	if extent.Y > maxExtent {
		maxExtent = extent.Y
	}
	if extent.Z > maxExtent {
		maxExtent = extent.Z
	}
	return OriginScale{
		Origin: lo.Sub(math.Vec3{X: 0.1, Y: 0.1, Z: 0.1}),
		Scale:  (256 * 256 * 254) / (0.2 + maxExtent),
	}
}
