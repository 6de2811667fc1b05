package spells

import (
	"go.uber.org/zap"

	"github.com/niflab/nifopt/pkg/nif"
)

// DelUnusedBones detaches leaf nodes that no skin instance uses as a
// bone or skeleton root. Removal repeats until stable: deleting a
// leaf can turn its parent into one.
func DelUnusedBones(g *nif.Graph, log *zap.Logger) bool {
	log = orNop(log)
	if !g.HasBlockType(nif.KindSkinInstance) {
		return false
	}

	changed := false
	for {
		used := usedBones(g)
		removed := false
		for _, b := range g.Blocks() {
			node, ok := b.(*nif.Node)
			if !ok || used[node] || !leafNode(node) || isRoot(g, node) {
				continue
			}
			if err := g.ReplaceGlobalNode(node, nil); err != nil {
				log.Warn("cannot detach unused bone",
					zap.String("name", node.Name), zap.Error(err))
				continue
			}
			log.Info("removed unused bone", zap.String("name", node.Name))
			removed = true
			changed = true
		}
		if !removed {
			return changed
		}
	}
}

// usedBones collects every node a skin instance points at.
func usedBones(g *nif.Graph) map[*nif.Node]bool {
	used := make(map[*nif.Node]bool)
	for _, b := range g.Blocks() {
		skin, ok := b.(*nif.SkinInstance)
		if !ok {
			continue
		}
		if skin.SkeletonRoot != nil {
			used[skin.SkeletonRoot] = true
		}
		for _, bone := range skin.Bones {
			if bone != nil {
				used[bone] = true
			}
		}
	}
	return used
}

// leafNode reports whether a node carries nothing the scene needs.
func leafNode(n *nif.Node) bool {
	return len(n.Children) == 0 && len(n.Effects) == 0 && n.Collision == nil
}

func isRoot(g *nif.Graph, b nif.Block) bool {
	for _, root := range g.Roots {
		if root == b {
			return true
		}
	}
	return false
}
