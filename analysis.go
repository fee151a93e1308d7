package ttt

import (
	"fmt"
	"sort"
)

// RSMode selects how counterexample analysis searches for the divergence
// index.
type RSMode int

const (
	// RSEager is the binary search over the prefix-substitution predicate,
	// O(log n) membership queries per counterexample.
	RSEager RSMode = iota
	// RSLinear scans the counterexample left to right. Fallback mode,
	// O(n) membership queries.
	RSLinear
)

// alphaEval memoizes the Rivest–Schapire predicate for one counterexample:
//
//	alpha(i) = IsMember(accessSequence(run(w[:i])) ++ w[i:])
//
// i.e. the first i symbols of w are swapped for the access sequence of the
// state they reach in the hypothesis.
type alphaEval struct {
	learner *Learner
	cx      Word
	memo    map[int]bool
}

func (e *alphaEval) at(i int) (bool, error) {
	if v, ok := e.memo[i]; ok {
		return v, nil
	}
	q, err := e.learner.h.Run(e.learner.tree, e.cx.Prefix(i))
	if err != nil {
		return false, err
	}
	v := e.learner.teacher.IsMember(e.learner.h.AccessSequence(q).Concat(e.cx.Suffix(i)))
	e.memo[i] = v
	return v, nil
}

// analyze finds the index i in [0, n-1] where alpha flips: alpha(i) !=
// alpha(i+1). The counterexample then decomposes as u = cx[:i], a = cx[i],
// v = cx[i+1:], and the transition run(u) --a--> must be split by
// discriminator v.
//
// Returns ErrNotCounterexample when alpha(0) == alpha(n), i.e. the word does
// not actually separate hypothesis and target.
func (l *Learner) analyze(cx Word) (int, error) {
	n := cx.Len()
	eval := &alphaEval{learner: l, cx: cx, memo: make(map[int]bool, 8)}

	a0, err := eval.at(0)
	if err != nil {
		return 0, err
	}
	an, err := eval.at(n)
	if err != nil {
		return 0, err
	}
	if a0 == an {
		return 0, fmt.Errorf("%w (word %q)", ErrNotCounterexample, cx.String())
	}

	if l.opts.rsMode == RSLinear {
		for i := 0; i < n; i++ {
			ai, err := eval.at(i)
			if err != nil {
				return 0, err
			}
			next, err := eval.at(i + 1)
			if err != nil {
				return 0, err
			}
			if ai != next {
				return i, nil
			}
		}
		return 0, &OracleError{Word: cx, Message: "alpha endpoints differ but no adjacent flip found"}
	}

	// Eager binary search. Invariant: the flip lies in [lo, hi]. At each
	// probe both alpha(mid) and alpha(mid+1) are computed; if they already
	// differ the search is done, otherwise their shared value tells which
	// half still contains the flip.
	lo, hi := 0, n-1
	for lo <= hi {
		mid := (lo + hi) / 2
		am, err := eval.at(mid)
		if err != nil {
			return 0, err
		}
		am1, err := eval.at(mid + 1)
		if err != nil {
			return 0, err
		}
		if am != am1 {
			return mid, nil
		}
		if am == a0 {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return 0, &OracleError{Word: cx, Message: "alpha endpoints differ but binary search found no flip"}
}

// splitOn applies one RS decomposition step for counterexample cx at flip
// index i: the leaf targeted by the diverging transition is split with the
// temporary discriminator v = cx[i+1:], the old state is re-placed into the
// matching child, and every transition that targeted the leaf is reopened.
func (l *Learner) splitOn(cx Word, i int) error {
	u, label, v := cx.Prefix(i), cx.At(i), cx.Suffix(i+1)
	if v.Len() == 0 {
		// A flip at the last position would mean the teacher disagrees
		// with an answer already burned into the leaf signatures.
		return &OracleError{Word: cx, Message: "divergence on the empty suffix"}
	}
	q, err := l.h.Run(l.tree, u)
	if err != nil {
		return err
	}
	tid := l.h.TransitionOf(q, l.alphabet.Index(label))
	t := &l.h.transitions[tid]
	if t.tree {
		// A tree transition's endpoint has exactly the transition's access
		// sequence; alpha cannot flip across it.
		return invariantf("rs-split", "diverging transition %q is a tree transition", t.aseq.String())
	}
	leaf := t.targetNode
	if !l.tree.IsLeaf(leaf) {
		return invariantf("rs-split", "diverging transition targets inner node; hypothesis not closed")
	}
	old := l.tree.StateOf(leaf)
	if old == NoState {
		return invariantf("rs-split", "diverging transition targets unmaterialized leaf")
	}

	c0, c1 := l.tree.SplitLeaf(leaf, v)
	side := l.teacher.IsMember(l.h.AccessSequence(old).Concat(v))
	child := c0
	if side {
		child = c1
	}
	if err := l.tree.link(child, old); err != nil {
		return err
	}
	l.h.states[old].leaf = child

	// Everything that targeted the leaf now targets an inner node and must
	// re-sift; one of these edges will land in the empty child and
	// materialize the new state. Sorted so the closure order (and with it
	// the membership query transcript) does not depend on map iteration.
	ids := make([]TransitionID, 0, len(l.tree.nodes[leaf].incoming))
	for in := range l.tree.nodes[leaf].incoming {
		ids = append(ids, in)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	for _, in := range ids {
		l.h.enqueueOpen(in)
	}
	return nil
}
