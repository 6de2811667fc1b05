package nif

import "github.com/niflab/nifopt/pkg/math"

// Rotation key encodings.
const (
	// RotationXYZ stores rotations as three per-axis float tracks
	// instead of quaternion keys.
	RotationXYZ uint32 = 4
)

// FloatKey is a timed scalar animation key.
type FloatKey struct {
	Time  float32
	Value float32
}

// Vec3Key is a timed vector animation key (translations).
type Vec3Key struct {
	Time  float32
	Value math.Vec3
}

// QuatKey is a timed rotation key.
type QuatKey struct {
	Time  float32
	Value math.Quat
}

// KeyframeData holds the animation tracks of a transform controller.
type KeyframeData struct {
	RotationType   uint32
	QuaternionKeys []QuatKey
	XYZRotations   [3][]FloatKey
	Translations   []Vec3Key
	Scales         []FloatKey
}

func (d *KeyframeData) Kind() Kind                       { return KindKeyframeData }
func (d *KeyframeData) Refs() []Block                    { return nil }
func (d *KeyframeData) ReplaceLink(old, new Block) error { return nil }
