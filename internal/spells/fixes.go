package spells

import (
	"strings"

	"go.uber.org/zap"

	"github.com/niflab/nifopt/pkg/nif"
)

// FixTexturePaths repairs source texture paths whose backslash
// escapes were interpreted by a broken exporter: a raw newline was
// once `\n` and a raw carriage return `\r`.
func FixTexturePaths(g *nif.Graph, log *zap.Logger) bool {
	return Cast(g, &fixTexturePaths{log: orNop(log)})
}

type fixTexturePaths struct {
	Base
	log *zap.Logger
}

func (s *fixTexturePaths) Name() string { return "fix-texture-paths" }

func (s *fixTexturePaths) BranchInspect(b nif.Block) bool {
	return b.Kind() == nif.KindSourceTexture
}

func (s *fixTexturePaths) BranchEntry(g *nif.Graph, b nif.Block) (bool, bool) {
	tex := b.(*nif.SourceTexture)
	fixed := strings.ReplaceAll(tex.FileName, "\n", `\n`)
	fixed = strings.ReplaceAll(fixed, "\r", `\r`)
	if fixed == tex.FileName {
		return false, false
	}
	s.log.Info("fixed texture path", zap.String("path", fixed))
	tex.FileName = fixed
	return false, true
}

// ClampMaterialAlpha forces material alpha into [0,1]; out-of-range
// values render differently across engines.
func ClampMaterialAlpha(g *nif.Graph, log *zap.Logger) bool {
	return Cast(g, &clampAlpha{log: orNop(log)})
}

type clampAlpha struct {
	Base
	log *zap.Logger
}

func (s *clampAlpha) Name() string { return "clamp-material-alpha" }

func (s *clampAlpha) BranchInspect(b nif.Block) bool {
	return b.Kind() == nif.KindMaterialProperty
}

func (s *clampAlpha) BranchEntry(g *nif.Graph, b nif.Block) (bool, bool) {
	mat := b.(*nif.MaterialProperty)
	clamped := mat.Alpha
	if clamped < 0 {
		clamped = 0
	} else if clamped > 1 {
		clamped = 1
	}
	if clamped == mat.Alpha {
		return false, false
	}
	s.log.Info("clamped material alpha", zap.String("name", mat.Name),
		zap.Float32("from", mat.Alpha), zap.Float32("to", clamped))
	mat.Alpha = clamped
	return false, true
}

// DelUnusedRoots drops root list entries that are already reachable
// from an earlier root; keeping them listed twice bloats the document
// for no effect.
func DelUnusedRoots(g *nif.Graph, log *zap.Logger) bool {
	log = orNop(log)
	reachable := make(map[nif.Block]bool)
	out := g.Roots[:0:0]
	changed := false
	for _, root := range g.Roots {
		if root == nil || reachable[root] {
			changed = true
			continue
		}
		out = append(out, root)
		sub := nif.Graph{Roots: []nif.Block{root}}
		for _, b := range sub.Blocks() {
			reachable[b] = true
		}
	}
	if changed {
		log.Info("removed redundant roots",
			zap.Int("before", len(g.Roots)), zap.Int("after", len(out)))
		g.Roots = out
	}
	return changed
}
