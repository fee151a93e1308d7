package ttt

import (
	"context"
	"fmt"
)

type options struct {
	rsMode          RSMode
	finalize        bool
	cacheSize       int
	maxEquivalence  int
	maxMembership   int
	invariantChecks bool
}

// Option configures a Learner.
type Option func(*options)

// WithRSMode selects the counterexample search strategy.
func WithRSMode(mode RSMode) Option {
	return func(o *options) { o.rsMode = mode }
}

// WithFinalization enables or disables discriminator finalization after
// each counterexample. On by default; turning it off leaves temporary
// discriminators in the tree, which still learns correctly but can make
// sift paths long.
func WithFinalization(enabled bool) Option {
	return func(o *options) { o.finalize = enabled }
}

// WithQueryCache bounds the membership memo; zero or negative means
// unbounded (the default).
func WithQueryCache(maxEntries int) Option {
	return func(o *options) { o.cacheSize = maxEntries }
}

// WithMaxEquivalenceQueries aborts learning with ErrQueryBudget after the
// given number of equivalence queries. Zero means unlimited.
func WithMaxEquivalenceQueries(n int) Option {
	return func(o *options) { o.maxEquivalence = n }
}

// WithMaxMembershipQueries aborts learning with ErrQueryBudget once more
// than n membership queries reached the wrapped teacher. Zero means
// unlimited. The budget is checked between refinement steps, so a step in
// flight may overshoot it by a bounded amount.
func WithMaxMembershipQueries(n int) Option {
	return func(o *options) { o.maxMembership = n }
}

// WithInvariantChecks runs CheckInvariants at every stable point. Meant for
// tests; it issues extra membership queries (served from the cache).
func WithInvariantChecks(enabled bool) Option {
	return func(o *options) { o.invariantChecks = enabled }
}

// Learner runs the TTT algorithm: it owns the discrimination tree and the
// hypothesis, and drives them against a teacher until an equivalence query
// comes back clean. Not safe for concurrent use; snapshot via
// Hypothesis().ToDFA for read-only parallel consumers.
type Learner struct {
	alphabet *Alphabet
	teacher  *CacheTeacher
	tree     *Tree
	h        *Hypothesis
	opts     options

	initialized bool
}

// NewLearner builds a learner over the alphabet, asking the given teacher.
// The teacher is wrapped in a membership cache; pass WithQueryCache to bound
// it.
func NewLearner(alphabet *Alphabet, teacher Teacher, opts ...Option) *Learner {
	o := options{finalize: true}
	for _, opt := range opts {
		opt(&o)
	}
	return &Learner{
		alphabet: alphabet,
		teacher:  NewCacheTeacherSize(teacher, o.cacheSize),
		opts:     o,
	}
}

// Hypothesis returns the current hypothesis. Nil before the first Learn
// call.
func (l *Learner) Hypothesis() *Hypothesis {
	return l.h
}

// Tree returns the discrimination tree. Nil before the first Learn call.
func (l *Learner) Tree() *Tree {
	return l.tree
}

// Stats returns the query counters of the wrapped teacher.
func (l *Learner) Stats() QueryStats {
	return l.teacher.Stats()
}

func (l *Learner) initialize() error {
	l.tree = NewTree()
	l.h = NewHypothesis(l.alphabet)
	q0 := l.h.AddState(l.tree, Epsilon)
	accepts := l.teacher.IsMember(Epsilon)
	leaf := l.tree.Child(l.tree.Root(), accepts)
	if err := l.tree.link(leaf, q0); err != nil {
		return err
	}
	l.h.states[q0].leaf = leaf
	if accepts {
		if err := l.h.MakeFinal(q0); err != nil {
			return err
		}
	}
	l.initialized = true
	return nil
}

func (l *Learner) overBudget() bool {
	return l.opts.maxMembership > 0 && l.teacher.Stats().MembershipQueries > l.opts.maxMembership
}

// Learn runs the main loop: close the hypothesis, ask for equivalence,
// decompose the counterexample, split, close, finalize, repeat. It returns
// the learned DFA once the teacher agrees.
//
// Cancellation is honored at equivalence-query boundaries only; a
// refinement step in progress always runs to completion so the engine is
// never left mid-mutation.
func (l *Learner) Learn(ctx context.Context) (*DFA, error) {
	if !l.initialized {
		if err := l.initialize(); err != nil {
			return nil, err
		}
	}
	if err := l.closeOpenTransitions(); err != nil {
		return nil, err
	}

	equivalenceQueries := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if l.overBudget() {
			return nil, fmt.Errorf("learning aborted: %w", ErrQueryBudget)
		}
		if l.opts.invariantChecks {
			if err := l.CheckInvariants(); err != nil {
				return nil, err
			}
		}

		dfa, err := l.h.ToDFA(l.tree)
		if err != nil {
			return nil, err
		}
		cx, found := l.teacher.IsEquivalent(dfa)
		if !found {
			return dfa, nil
		}
		if !l.alphabet.Contains(cx) {
			return nil, &OracleError{Word: cx, Message: "counterexample uses symbols outside the alphabet"}
		}
		equivalenceQueries++
		if l.opts.maxEquivalence > 0 && equivalenceQueries > l.opts.maxEquivalence {
			return nil, fmt.Errorf("equivalence query limit reached: %w", ErrQueryBudget)
		}

		if err := l.refineWith(cx); err != nil {
			return nil, err
		}
	}
}

// refineWith works one counterexample off completely: as long as the
// hypothesis still disagrees with the teacher on cx, another RS split is
// applied. Reusing the counterexample this way keeps the number of
// equivalence queries at one per distinct counterexample the teacher had to
// produce.
func (l *Learner) refineWith(cx Word) error {
	member := l.teacher.IsMember(cx)
	for {
		got, err := l.h.Evaluate(l.tree, cx)
		if err != nil {
			return err
		}
		if got == member {
			return nil
		}
		if l.overBudget() {
			return fmt.Errorf("refinement aborted: %w", ErrQueryBudget)
		}

		i, err := l.analyze(cx)
		if err != nil {
			return err
		}
		if err := l.splitOn(cx, i); err != nil {
			return err
		}
		if err := l.closeOpenTransitions(); err != nil {
			return err
		}
		if l.opts.finalize {
			if err := l.finalizeBlocks(); err != nil {
				return err
			}
		}
	}
}

// CheckInvariants verifies the invariants of a stable engine: spanning
// tree, access sequence consistency, open-set bookkeeping, and signature
// agreement. Intended to be called between equivalence queries.
func (l *Learner) CheckInvariants() error {
	if l.h == nil {
		return nil
	}

	// Spanning tree: every non-start state has exactly one tree transition
	// pointing at it, and following tree transitions from the start reaches
	// every state.
	treeCount := 0
	for tid := range l.h.transitions {
		if l.h.transitions[tid].tree {
			treeCount++
		}
	}
	if treeCount != len(l.h.states)-1 {
		return invariantf("spanning-tree", "%d tree transitions for %d states", treeCount, len(l.h.states))
	}
	reached := map[StateID]struct{}{l.h.start: {}}
	stack := []StateID{l.h.start}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, tid := range l.h.states[s].transitions {
			t := &l.h.transitions[tid]
			if !t.tree {
				continue
			}
			if _, ok := reached[t.targetState]; !ok {
				reached[t.targetState] = struct{}{}
				stack = append(stack, t.targetState)
			}
		}
	}
	if len(reached) != len(l.h.states) {
		return invariantf("spanning-tree", "tree transitions reach %d of %d states", len(reached), len(l.h.states))
	}

	// Access sequences: running each state's access sequence lands on it.
	for s := range l.h.states {
		got, err := l.h.Run(l.tree, l.h.states[s].aseq)
		if err != nil {
			return invariantf("access-sequence", "state %d: %v", s, err)
		}
		if got != StateID(s) {
			return invariantf("access-sequence", "running %q reached state %d, want %d",
				l.h.states[s].aseq.String(), got, s)
		}
	}

	// Open-set bookkeeping: non-tree transitions are registered with their
	// target node, and an unresolved target means the transition is queued.
	queued := make(map[TransitionID]struct{}, len(l.h.open))
	for _, tid := range l.h.open {
		queued[tid] = struct{}{}
	}
	for tid := range l.h.transitions {
		t := &l.h.transitions[tid]
		if t.tree {
			continue
		}
		if _, ok := l.tree.nodes[t.targetNode].incoming[TransitionID(tid)]; !ok {
			return invariantf("open-set", "transition %q missing from incoming set of node %d",
				t.aseq.String(), t.targetNode)
		}
		resolved := l.tree.IsLeaf(t.targetNode) && l.tree.StateOf(t.targetNode) != NoState
		if !resolved {
			if _, ok := queued[TransitionID(tid)]; !ok {
				return invariantf("open-set", "unresolved transition %q not queued", t.aseq.String())
			}
		}
	}

	// Signature agreement: the teacher stands behind every (discriminator,
	// outcome) pair on the path of every state's leaf.
	for s := range l.h.states {
		leaf := l.h.states[s].leaf
		if leaf == NoNode || l.tree.StateOf(leaf) != StateID(s) {
			return invariantf("leaf-link", "state %d and leaf %d disagree", s, leaf)
		}
		for _, entry := range l.tree.Signature(leaf) {
			w := l.h.states[s].aseq.Concat(entry.Discriminator)
			if l.teacher.IsMember(w) != entry.Outcome {
				return invariantf("signature", "teacher disagrees with signature of state %d on %q",
					s, w.String())
			}
		}
	}

	return nil
}

// Finalized reports whether the discrimination tree is free of temporary
// discriminators. This holds once the counterexamples driving a block's
// states apart have been fully worked off; a block that cannot be split yet
// may keep the tree temporary across an equivalence query.
func (l *Learner) Finalized() bool {
	return l.tree != nil && !l.tree.HasTemporary()
}
