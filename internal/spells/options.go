package spells

import "github.com/niflab/nifopt/pkg/nif"

// Options tunes the optimizer passes.
type Options struct {
	// Precision sets the per-attribute rounding used for vertex and
	// branch hashing.
	Precision nif.Precision
	// CollisionPrecision is the rounding for collision vertices,
	// which carry no attributes.
	CollisionPrecision int
	// StripCutoff is the minimum length-weighted average strip length
	// worth keeping a strips representation for.
	StripCutoff float32
	// Stitch joins a kept strips representation into one strip with
	// degenerate triangles.
	Stitch bool
	// Significance is the number of decimal digits compared when
	// pruning animation keys.
	Significance int
	// MaxTriangles caps stripification; larger meshes are left as
	// plain triangles with a warning.
	MaxTriangles int
	// BonesPerPartition and BonesPerVertex bound the rebuilt skin
	// partition.
	BonesPerPartition int
	BonesPerVertex    int
}

// DefaultOptions returns the tuning used by the standard pipeline.
func DefaultOptions() Options {
	return Options{
		Precision:          nif.DefaultPrecision(),
		CollisionPrecision: 3,
		StripCutoff:        10,
		Stitch:             true,
		Significance:       4,
		MaxTriangles:       32000,
		BonesPerPartition:  18,
		BonesPerVertex:     4,
	}
}
