package math

import "github.com/chewxy/math32"

// Vec4 is a 4D vector.
type Vec4 struct {
	X, Y, Z, W float32
}

// Length returns the magnitude.
func (v Vec4) Length() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z + v.W*v.W)
}

// Color4 is an RGBA color with float32 channels.
type Color4 struct {
	R, G, B, A float32
}

// Quat is a rotation quaternion.
type Quat struct {
	X, Y, Z, W float32
}

// Dot returns the quaternion dot product.
func (q Quat) Dot(other Quat) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Normalize returns a unit quaternion.
func (q Quat) Normalize() Quat {
	l := math32.Sqrt(q.Dot(q))
	if l == 0 {
		return Quat{W: 1}
	}
	return Quat{q.X / l, q.Y / l, q.Z / l, q.W / l}
}
