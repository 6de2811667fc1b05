// Package spells implements the optimizer passes. Each spell walks
// the block graph once and applies one transformation; the pipeline
// in Optimize chains them in a safe order.
package spells

import (
	"go.uber.org/zap"

	"github.com/niflab/nifopt/pkg/nif"
)

// Spell is one pass over a document.
type Spell interface {
	Name() string
	// DataInspect decides whether the spell applies to the document
	// at all; false skips the whole cast.
	DataInspect(g *nif.Graph) bool
	// DataEntry runs once before traversal, for document-level work
	// such as the root list. Returns whether it changed the graph.
	DataEntry(g *nif.Graph) bool
	// BranchInspect gates BranchEntry per block. A false still
	// descends into the block's references.
	BranchInspect(b nif.Block) bool
	// BranchEntry visits one block. recurse prunes the subtree when
	// false; changed reports graph mutation.
	BranchEntry(g *nif.Graph, b nif.Block) (recurse, changed bool)
}

// Base provides no-op defaults for spells that only need a subset of
// the hooks.
type Base struct{}

func (Base) DataInspect(*nif.Graph) bool  { return true }
func (Base) DataEntry(*nif.Graph) bool    { return false }
func (Base) BranchInspect(nif.Block) bool { return true }

// Cast runs a spell over the graph and reports whether it changed
// anything. Traversal order is root order then depth-first reference
// order; each block is visited once. Reference lists are snapshotted
// before each visit, so a spell may mutate the graph (including
// globally replacing the block being visited) without corrupting the
// walk.
func Cast(g *nif.Graph, s Spell) bool {
	if !s.DataInspect(g) {
		return false
	}
	changed := s.DataEntry(g)
	visited := make(map[nif.Block]bool)
	var walk func(b nif.Block)
	walk = func(b nif.Block) {
		if b == nil || visited[b] {
			return
		}
		visited[b] = true
		refs := b.Refs()
		if s.BranchInspect(b) {
			recurse, ch := s.BranchEntry(g, b)
			if ch {
				changed = true
			}
			if !recurse {
				return
			}
		}
		for _, ref := range refs {
			walk(ref)
		}
	}
	roots := make([]nif.Block, len(g.Roots))
	copy(roots, g.Roots)
	for _, root := range roots {
		walk(root)
	}
	return changed
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
