package spells

import (
	"go.uber.org/zap"

	"github.com/niflab/nifopt/pkg/nif"
)

// CleanRefLists drops nil and duplicate entries from every reference
// list: roots, children, effects, properties, and extra data. Skipped
// when the document hosts a mesh emitter, whose behavior depends on
// list identity.
func CleanRefLists(g *nif.Graph, log *zap.Logger) bool {
	return Cast(g, &cleanRefLists{log: orNop(log)})
}

type cleanRefLists struct {
	Base
	log *zap.Logger
}

func (s *cleanRefLists) Name() string { return "clean-reference-lists" }

func (s *cleanRefLists) DataInspect(g *nif.Graph) bool {
	if g.HasBlockType(nif.KindPSysMeshEmitter) {
		s.log.Info("mesh emitter present, skipping reference list cleanup")
		return false
	}
	return true
}

func (s *cleanRefLists) DataEntry(g *nif.Graph) bool {
	roots, changed := cleanList(g.Roots)
	if changed {
		s.log.Debug("cleaned root list",
			zap.Int("before", len(g.Roots)), zap.Int("after", len(roots)))
		g.Roots = roots
	}
	return changed
}

func (s *cleanRefLists) BranchEntry(g *nif.Graph, b nif.Block) (bool, bool) {
	changed := false
	if named, ok := b.(nif.NamedBlock); ok {
		net := named.Net()
		if list, ch := cleanList(net.ExtraData); ch {
			net.ExtraData = list
			changed = true
		}
	}
	if av, ok := b.(nif.AVBlock); ok {
		obj := av.AV()
		if list, ch := cleanList(obj.Properties); ch {
			obj.Properties = list
			changed = true
		}
	}
	if node, ok := b.(*nif.Node); ok {
		if list, ch := cleanList(node.Children); ch {
			node.Children = list
			changed = true
		}
		if list, ch := cleanList(node.Effects); ch {
			node.Effects = list
			changed = true
		}
	}
	if changed {
		s.log.Debug("cleaned reference lists", zap.Stringer("kind", b.Kind()))
	}
	return true, changed
}

// cleanList removes nil entries and keeps the first occurrence of
// each block.
func cleanList(list []nif.Block) ([]nif.Block, bool) {
	seen := make(map[nif.Block]bool, len(list))
	out := make([]nif.Block, 0, len(list))
	for _, b := range list {
		if b == nil || seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	if len(out) == len(list) {
		return list, false
	}
	return out, true
}
