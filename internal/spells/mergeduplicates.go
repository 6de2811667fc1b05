package spells

import (
	"bytes"

	"go.uber.org/zap"

	"github.com/niflab/nifopt/pkg/nif"
)

// MergeDuplicates collapses interchangeable branches onto their first
// occurrence: every reference to a duplicate, including controller
// targets, is repointed at the survivor. Properties with an attached
// controller and shader properties are never merged, and a mesh
// emitter disables the spell for the whole document.
func MergeDuplicates(g *nif.Graph, p nif.Precision, log *zap.Logger) bool {
	return Cast(g, &mergeDuplicates{
		log:    orNop(log),
		p:      p,
		byHash: make(map[uint64][]mergeCandidate),
	})
}

type mergeCandidate struct {
	block  nif.Block
	digest []byte
}

type mergeDuplicates struct {
	Base
	log    *zap.Logger
	p      nif.Precision
	byHash map[uint64][]mergeCandidate
}

func (s *mergeDuplicates) Name() string { return "merge-duplicate-branches" }

func (s *mergeDuplicates) DataInspect(g *nif.Graph) bool {
	if g.HasBlockType(nif.KindPSysMeshEmitter) {
		s.log.Info("mesh emitter present, skipping duplicate merging")
		return false
	}
	return true
}

// mergeable reports whether a block may stand in for an equal one.
func mergeable(b nif.Block) bool {
	switch t := b.(type) {
	case *nif.ShaderProperty:
		// shader state is per-instance even when structurally equal
		return false
	case *nif.MaterialProperty:
		return t.Ctrl == nil
	case *nif.TexturingProperty:
		return t.Ctrl == nil
	case *nif.AlphaProperty:
		return t.Ctrl == nil
	case *nif.SourceTexture:
		return t.Ctrl == nil
	case *nif.TriShapeData, *nif.TriStripsData, *nif.KeyframeData:
		return true
	}
	return false
}

func (s *mergeDuplicates) BranchInspect(b nif.Block) bool { return mergeable(b) }

func (s *mergeDuplicates) BranchEntry(g *nif.Graph, b nif.Block) (bool, bool) {
	digest := nif.BranchDigest(b, s.p)
	h := nif.BranchHash(digest)
	for _, c := range s.byHash[h] {
		if !bytes.Equal(c.digest, digest) {
			continue
		}
		if err := g.ReplaceGlobalNode(b, c.block); err != nil {
			s.log.Warn("cannot merge branch",
				zap.Stringer("kind", b.Kind()), zap.Error(err))
			return false, false
		}
		s.log.Debug("merged duplicate branch", zap.Stringer("kind", b.Kind()))
		return false, true
	}
	s.byHash[h] = append(s.byHash[h], mergeCandidate{block: b, digest: digest})
	return true, false
}
