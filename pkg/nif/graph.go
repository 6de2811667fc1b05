package nif

// Graph is a whole document: the root set plus everything reachable
// from it. All mutation helpers operate on the live graph; the
// optimizer is single-threaded and callers must not mutate the graph
// concurrently.
type Graph struct {
	Roots []Block
}

// Blocks enumerates every reachable block exactly once, in root order
// then depth-first child (forward reference) order. The order is
// stable across calls on an unchanged graph; spell determinism
// depends on it.
func (g *Graph) Blocks() []Block {
	var out []Block
	seen := make(map[Block]bool)
	var walk func(b Block)
	walk = func(b Block) {
		if b == nil || seen[b] {
			return
		}
		seen[b] = true
		out = append(out, b)
		for _, ref := range b.Refs() {
			walk(ref)
		}
	}
	for _, root := range g.Roots {
		walk(root)
	}
	return out
}

// HasBlockType reports whether any reachable block has the kind.
func (g *Graph) HasBlockType(k Kind) bool {
	for _, b := range g.Blocks() {
		if b.Kind() == k {
			return true
		}
	}
	return false
}

// ReplaceGlobalNode repoints every reference to old anywhere in the
// reachable graph (including the root list and back-pointer fields)
// to new; a nil new removes list entries and clears single-target
// fields. The reachable set is snapshotted before any rewrite so the
// walk is unaffected by the mutation itself.
func (g *Graph) ReplaceGlobalNode(old, new Block) error {
	blocks := g.Blocks()
	for _, b := range blocks {
		if b == old {
			continue
		}
		if err := b.ReplaceLink(old, new); err != nil {
			return err
		}
	}
	g.Roots = replaceBlockList(g.Roots, old, new)
	return nil
}
