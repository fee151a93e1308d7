package ttt

import "sort"

// Discriminator finalization. Temporary discriminators come straight out of
// counterexample suffixes and can be arbitrarily long; finalization replaces
// each block of temporary nodes, top down, with final discriminators of the
// form a·d where a is a single symbol and d is the discriminator of an
// already-final node. This keeps every final discriminator within one symbol
// of a shorter final one, bounding tree depth by the number of states.

// finalizeBlocks finalizes as far as currently possible. Blocks are
// attacked lowest-first (deepest apex first); after every successful split
// the open transitions it produced are closed before the next block is
// considered. A block whose states' successors all lead back into temporary
// territory cannot be split yet; it is left temporary and picked up again
// after the next refinement adds more states.
func (l *Learner) finalizeBlocks() error {
	for {
		roots := l.tree.BlockRoots()
		if len(roots) == 0 {
			return nil
		}
		sort.Slice(roots, func(i, j int) bool {
			return l.tree.depth(roots[i]) > l.tree.depth(roots[j])
		})
		progress := false
		for _, apex := range roots {
			ok, err := l.finalizeBlock(apex)
			if err != nil {
				return err
			}
			if ok {
				if err := l.closeOpenTransitions(); err != nil {
					return err
				}
				progress = true
				break
			}
		}
		if !progress {
			return nil
		}
	}
}

// finalizeBlock tries to replace the apex of one block with a final
// discriminator. Returns false when no symbol yields a non-trivial split
// through a final node; the block must then wait for another block to be
// finalized first.
func (l *Learner) finalizeBlock(apex NodeID) (bool, error) {
	leaves := l.tree.leavesUnder(apex)
	states := make([]StateID, len(leaves))
	for i, leaf := range leaves {
		s := l.tree.StateOf(leaf)
		if s == NoState {
			return false, invariantf("finalize", "block leaf %d has no state", leaf)
		}
		states[i] = s
	}

	symbol, lca, found := l.findSplitter(states)
	if !found {
		return false, nil
	}

	// The side each state takes under the new discriminator a·d is exactly
	// the side its a-successor takes under d, which the tree already knows;
	// no membership queries are needed for the assignment.
	assign := make(map[StateID]bool, len(states))
	for _, q := range states {
		succ, err := l.successorNode(q, symbol)
		if err != nil {
			return false, err
		}
		side, err := l.tree.childSide(lca, succ)
		if err != nil {
			return false, err
		}
		assign[q] = side
	}

	newDisc := Word{l.alphabet.Symbol(symbol)}.Concat(l.tree.Discriminator(lca))
	if err := l.realizeSplit(apex, newDisc, assign); err != nil {
		return false, err
	}
	return true, nil
}

// findSplitter looks for the replacement discriminator of a block with the
// given states: the symbol whose successors' lowest common ancestor is a
// final inner node. Among admissible symbols the one with the shortest
// resulting discriminator wins; ties go to alphabet order.
func (l *Learner) findSplitter(states []StateID) (symbol int, lca NodeID, found bool) {
	bestLen := -1
	for i := 0; i < l.alphabet.Size(); i++ {
		nodes := make([]NodeID, len(states))
		ok := true
		for j, q := range states {
			n, err := l.successorNode(q, i)
			if err != nil {
				ok = false
				break
			}
			nodes[j] = n
		}
		if !ok {
			continue
		}
		anc := l.tree.LCA(nodes)
		if l.tree.IsLeaf(anc) || l.tree.IsTemporary(anc) {
			continue
		}
		length := 1 + l.tree.Discriminator(anc).Len()
		if bestLen == -1 || length < bestLen {
			bestLen = length
			symbol, lca, found = i, anc, true
		}
	}
	return symbol, lca, found
}

// successorNode returns the discrimination tree node currently standing for
// the endpoint of q's transition on the given symbol: the leaf of the target
// state for a tree transition, the target node otherwise.
func (l *Learner) successorNode(q StateID, symbol int) (NodeID, error) {
	tid := l.h.TransitionOf(q, symbol)
	t := &l.h.transitions[tid]
	if t.tree {
		return l.h.Leaf(t.targetState), nil
	}
	return t.targetNode, nil
}

// childSide reports which child of ancestor the subtree containing n hangs
// off.
func (tr *Tree) childSide(ancestor, n NodeID) (bool, error) {
	cur := n
	for tr.nodes[cur].parent != ancestor {
		cur = tr.nodes[cur].parent
		if cur == NoNode {
			return false, invariantf("finalize", "node %d not under %d", n, ancestor)
		}
	}
	return tr.nodes[ancestor].children[1] == cur, nil
}

// realizeSplit rewrites the block rooted at apex: the apex becomes final
// with the new discriminator, and the temporary structure below it is
// projected onto each side, dropping inner nodes that no longer split
// anything. Leaf handles survive; abandoned inner nodes are left in the
// arena. All transitions parked on the block's leaves are reopened from the
// apex, since the discriminators along their sift paths changed.
func (l *Learner) realizeSplit(apex NodeID, newDisc Word, assign map[StateID]bool) error {
	oldDisc := l.tree.nodes[apex].discriminator
	oldChildren := l.tree.nodes[apex].children
	leaves := l.tree.leavesUnder(apex)

	var extract func(n NodeID, side bool) NodeID
	extract = func(n NodeID, side bool) NodeID {
		if l.tree.nodes[n].kind == leafNode {
			if assign[l.tree.nodes[n].state] == side {
				return n
			}
			return NoNode
		}
		// Copy the child handles first: the recursive calls below may grow
		// the arena.
		children := l.tree.nodes[n].children
		c0 := extract(children[0], side)
		c1 := extract(children[1], side)
		switch {
		case c0 == NoNode:
			return c1
		case c1 == NoNode:
			return c0
		default:
			m := l.tree.alloc(node{
				kind:          innerNode,
				parent:        NoNode,
				state:         NoState,
				discriminator: l.tree.nodes[n].discriminator,
				temporary:     true,
				children:      [2]NodeID{c0, c1},
			})
			l.tree.nodes[c0].parent = m
			l.tree.nodes[c1].parent = m
			return m
		}
	}

	combine := func(side bool) NodeID {
		c0 := extract(oldChildren[0], side)
		c1 := extract(oldChildren[1], side)
		switch {
		case c0 == NoNode:
			return c1
		case c1 == NoNode:
			return c0
		default:
			m := l.tree.alloc(node{
				kind:          innerNode,
				parent:        NoNode,
				state:         NoState,
				discriminator: oldDisc,
				temporary:     true,
				children:      [2]NodeID{c0, c1},
			})
			l.tree.nodes[c0].parent = m
			l.tree.nodes[c1].parent = m
			return m
		}
	}

	side0 := combine(false)
	side1 := combine(true)
	if side0 == NoNode || side1 == NoNode {
		return invariantf("finalize", "splitter %q does not split block %d", newDisc.String(), apex)
	}

	n := &l.tree.nodes[apex]
	n.discriminator = newDisc
	n.temporary = false
	n.children = [2]NodeID{side0, side1}
	l.tree.nodes[side0].parent = apex
	l.tree.nodes[side1].parent = apex

	for _, leaf := range leaves {
		incoming := l.tree.nodes[leaf].incoming
		ids := make([]TransitionID, 0, len(incoming))
		for tid := range incoming {
			ids = append(ids, tid)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, tid := range ids {
			l.h.setTargetNode(l.tree, tid, apex)
			l.h.enqueueOpen(tid)
		}
	}
	return nil
}
