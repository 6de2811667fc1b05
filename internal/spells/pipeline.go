package spells

import (
	"go.uber.org/zap"

	"github.com/niflab/nifopt/pkg/nif"
)

// Optimize runs the full pass sequence over one document. Repairs run
// first so later hashes see canonical values, merging runs before the
// geometry passes so shared data is rewritten once, and animation
// pruning runs last on whatever survived.
func Optimize(g *nif.Graph, opts Options, log *zap.Logger) bool {
	log = orNop(log)
	changed := false
	changed = FixTexturePaths(g, log) || changed
	changed = ClampMaterialAlpha(g, log) || changed
	changed = CleanRefLists(g, log) || changed
	changed = DelUnusedRoots(g, log) || changed
	changed = MergeDuplicates(g, opts.Precision, log) || changed
	changed = OptimizeGeometry(g, opts, log) || changed
	changed = OptimizeCollisionGeometry(g, opts, log) || changed
	changed = DelUnusedBones(g, log) || changed
	changed = OptimizeAnimationKeys(g, opts.Significance, log) || changed
	return changed
}
