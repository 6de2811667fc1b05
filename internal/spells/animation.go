package spells

import (
	"go.uber.org/zap"

	"github.com/chewxy/math32"
	"github.com/niflab/nifopt/pkg/nif"
)

// OptimizeAnimationKeys removes interior animation keys whose value,
// rounded to the significance digits, equals both neighbors. The
// first key of a track is always kept, and a two-key track collapses
// to one when both keys are equal.
func OptimizeAnimationKeys(g *nif.Graph, significance int, log *zap.Logger) bool {
	return Cast(g, &optimizeAnim{log: orNop(log), digits: significance})
}

type optimizeAnim struct {
	Base
	log    *zap.Logger
	digits int
}

func (s *optimizeAnim) Name() string { return "optimize-animation-keys" }

func (s *optimizeAnim) BranchInspect(b nif.Block) bool {
	switch b.Kind() {
	case nif.KindKeyframeData, nif.KindTextKeyExtraData:
		return true
	}
	return false
}

func (s *optimizeAnim) BranchEntry(g *nif.Graph, b nif.Block) (bool, bool) {
	changed := false
	switch t := b.(type) {
	case *nif.KeyframeData:
		removed := 0
		t.QuaternionKeys, removed = pruneKeys(t.QuaternionKeys, s.quatEqual, removed)
		for axis := 0; axis < 3; axis++ {
			t.XYZRotations[axis], removed = pruneKeys(t.XYZRotations[axis], s.floatEqual, removed)
		}
		t.Translations, removed = pruneKeys(t.Translations, s.vec3Equal, removed)
		t.Scales, removed = pruneKeys(t.Scales, s.floatEqual, removed)
		if removed > 0 {
			s.log.Info("pruned animation keys", zap.Int("removed", removed))
			changed = true
		}
	case *nif.TextKeyExtraData:
		removed := 0
		t.TextKeys, removed = pruneKeys(t.TextKeys,
			func(a, b nif.TextKey) bool { return a.Value == b.Value }, removed)
		if removed > 0 {
			s.log.Info("pruned text keys", zap.Int("removed", removed))
			changed = true
		}
	}
	return false, changed
}

func (s *optimizeAnim) round(v float32) int64 {
	return int64(math32.Round(v * math32.Pow(10, float32(s.digits))))
}

func (s *optimizeAnim) floatEqual(a, b nif.FloatKey) bool {
	return s.round(a.Value) == s.round(b.Value)
}

func (s *optimizeAnim) vec3Equal(a, b nif.Vec3Key) bool {
	return s.round(a.Value.X) == s.round(b.Value.X) &&
		s.round(a.Value.Y) == s.round(b.Value.Y) &&
		s.round(a.Value.Z) == s.round(b.Value.Z)
}

func (s *optimizeAnim) quatEqual(a, b nif.QuatKey) bool {
	return s.round(a.Value.X) == s.round(b.Value.X) &&
		s.round(a.Value.Y) == s.round(b.Value.Y) &&
		s.round(a.Value.Z) == s.round(b.Value.Z) &&
		s.round(a.Value.W) == s.round(b.Value.W)
}

// pruneKeys removes interior keys equal to both neighbors, then
// collapses a two-key constant track to its first key. The removed
// count accumulates across calls.
func pruneKeys[K any](keys []K, equal func(a, b K) bool, removed int) ([]K, int) {
	if len(keys) < 2 {
		return keys, removed
	}
	out := keys[:0:0]
	out = append(out, keys[0])
	for i := 1; i < len(keys)-1; i++ {
		if equal(keys[i], out[len(out)-1]) && equal(keys[i], keys[i+1]) {
			removed++
			continue
		}
		out = append(out, keys[i])
	}
	out = append(out, keys[len(keys)-1])
	if len(out) == 2 && equal(out[0], out[1]) {
		out = out[:1]
		removed++
	}
	return out, removed
}
