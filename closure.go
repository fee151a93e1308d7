package ttt

// closeOpenTransitions drains the open-transition queue to fixpoint. Each
// popped transition is sifted from its current target node down to a leaf:
//
//   - leaf already has a state: the transition is resolved. It stays
//     non-tree, parked at the leaf; the state's tree transition slot was
//     taken by whichever edge materialized it.
//   - leaf has no state: a fresh state is materialized with the
//     transition's access sequence, the transition becomes its tree
//     transition, and the new state's own transitions are enqueued.
//
// Terminates because every materialization consumes a leaf and leaves are
// only created by splits, which do not run here.
func (l *Learner) closeOpenTransitions() error {
	for {
		tid, ok := l.h.popOpen()
		if !ok {
			return nil
		}
		if l.h.transitions[tid].tree {
			// Stale queue entry from before promotion.
			continue
		}
		target := l.h.transitions[tid].targetNode
		if l.tree.IsLeaf(target) && l.tree.StateOf(target) != NoState {
			// Already resolved; a duplicate enqueue.
			continue
		}
		aseq := l.h.transitions[tid].aseq
		leaf := l.tree.Sift(target, aseq, l.teacher)
		l.h.setTargetNode(l.tree, tid, leaf)

		if l.tree.StateOf(leaf) != NoState {
			continue
		}

		// AddState may grow the transition arena; all handles stay valid,
		// only Go pointers into it would not.
		s := l.h.AddState(l.tree, aseq)
		if err := l.tree.link(leaf, s); err != nil {
			return err
		}
		l.h.states[s].leaf = leaf
		if l.tree.signatureAccepts(leaf) {
			if err := l.h.MakeFinal(s); err != nil {
				return err
			}
		}
		l.h.promoteToTree(l.tree, tid, s)
	}
}
