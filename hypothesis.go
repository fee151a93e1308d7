package ttt

import "github.com/bits-and-blooms/bitset"

// transition is one outgoing edge of a hypothesis state. The owning state
// and symbol are implicit in where the transition is stored; they are kept
// here as well for error reporting and invariant checks.
//
// A transition is either a tree transition (part of the spanning tree,
// pointing at the state it created) or a non-tree transition (pointing at a
// discrimination tree node). The flag flips from non-tree to tree at most
// once, when closure materializes the target state.
type transition struct {
	owner  StateID
	symbol int
	aseq   Word

	tree        bool
	targetState StateID // valid when tree
	targetNode  NodeID  // valid when !tree
}

// state is one hypothesis state.
type state struct {
	aseq        Word
	transitions []TransitionID // one per alphabet symbol, dense order
	leaf        NodeID
	// the unique tree transition targeting this state; NoTransition for the
	// start state.
	incomingTree TransitionID
}

// Hypothesis is the automaton under construction. States and transitions
// live in arenas addressed by StateID/TransitionID; the discrimination tree
// is owned by the learner and passed into the methods that need it.
type Hypothesis struct {
	alphabet    *Alphabet
	states      []state
	transitions []transition
	start       StateID
	finals      *bitset.BitSet

	// open holds the non-tree transitions whose target node still needs
	// sifting (it is an inner node, or a leaf without a state). Non-tree
	// transitions whose target is a materialized leaf are resolved and not
	// listed here.
	open []TransitionID
}

// NewHypothesis allocates an empty hypothesis over the alphabet. The start
// state is created by the learner via AddState; until then the hypothesis
// has no states.
func NewHypothesis(alphabet *Alphabet) *Hypothesis {
	return &Hypothesis{
		alphabet: alphabet,
		start:    NoState,
		finals:   bitset.New(4),
	}
}

// NumStates returns the number of states created so far.
func (h *Hypothesis) NumStates() int {
	return len(h.states)
}

// Start returns the start state.
func (h *Hypothesis) Start() StateID {
	return h.start
}

// AccessSequence returns the access sequence of state s.
func (h *Hypothesis) AccessSequence(s StateID) Word {
	return h.states[s].aseq
}

// Leaf returns the discrimination tree leaf representing state s.
func (h *Hypothesis) Leaf(s StateID) NodeID {
	return h.states[s].leaf
}

// TransitionOf returns the outgoing transition of s for the given dense
// symbol index.
func (h *Hypothesis) TransitionOf(s StateID, symbol int) TransitionID {
	return h.states[s].transitions[symbol]
}

// AddState allocates a fresh state with the given access sequence. All of
// its transitions start out non-tree, targeting the tree root, and are
// enqueued as open. The first state created becomes the start state.
func (h *Hypothesis) AddState(tr *Tree, aseq Word) StateID {
	s := StateID(len(h.states))
	k := h.alphabet.Size()
	st := state{
		aseq:         aseq,
		transitions:  make([]TransitionID, k),
		leaf:         NoNode,
		incomingTree: NoTransition,
	}
	for i := 0; i < k; i++ {
		tid := TransitionID(len(h.transitions))
		h.transitions = append(h.transitions, transition{
			owner:       s,
			symbol:      i,
			aseq:        aseq.Append(h.alphabet.Symbol(i)),
			targetState: NoState,
			targetNode:  tr.Root(),
		})
		tr.addIncoming(tr.Root(), tid)
		st.transitions[i] = tid
		h.open = append(h.open, tid)
	}
	h.states = append(h.states, st)
	if h.start == NoState {
		h.start = s
	}
	return s
}

// MakeFinal marks state s as accepting.
func (h *Hypothesis) MakeFinal(s StateID) error {
	if s < 0 || int(s) >= len(h.states) {
		return ErrUnknownState
	}
	h.finals.Set(uint(s))
	return nil
}

// IsFinal reports whether s is accepting.
func (h *Hypothesis) IsFinal(s StateID) bool {
	return h.finals.Test(uint(s))
}

// targetOf resolves the state a transition leads to. A tree transition
// resolves to its target state; a non-tree transition resolves to the state
// of the leaf it targets. ok is false while the target node is still inner
// or its leaf has no state.
func (h *Hypothesis) targetOf(tr *Tree, tid TransitionID) (StateID, bool) {
	t := &h.transitions[tid]
	if t.tree {
		return t.targetState, true
	}
	if !tr.IsLeaf(t.targetNode) {
		return NoState, false
	}
	s := tr.StateOf(t.targetNode)
	if s == NoState {
		return NoState, false
	}
	return s, true
}

// Run walks w through the hypothesis following resolved transitions only.
// It returns ErrOpenTransition if the path crosses a transition whose target
// has not been resolved to a state; close the hypothesis first or use
// RunReading.
func (h *Hypothesis) Run(tr *Tree, w Word) (StateID, error) {
	cur := h.start
	for _, label := range w {
		i := h.alphabet.Index(label)
		if i < 0 {
			return NoState, invariantf("run", "symbol %q not in alphabet", label)
		}
		next, ok := h.targetOf(tr, h.states[cur].transitions[i])
		if !ok {
			return NoState, ErrOpenTransition
		}
		cur = next
	}
	return cur, nil
}

// RunReading walks w through the hypothesis, soft-sifting unresolved
// transitions on the way: when the walk meets a transition still pointing at
// an inner node, the target is sifted down to a leaf (issuing membership
// queries) and the transition's pointer is advanced. Sifting advances the
// pointer only; it never closes the transition — closure stays the job of
// the closing loop, and the driver always closes before deterministic runs.
func (h *Hypothesis) RunReading(tr *Tree, w Word, teacher Teacher) (StateID, error) {
	cur := h.start
	for _, label := range w {
		i := h.alphabet.Index(label)
		if i < 0 {
			return NoState, invariantf("run", "symbol %q not in alphabet", label)
		}
		tid := h.states[cur].transitions[i]
		t := &h.transitions[tid]
		if !t.tree && !tr.IsLeaf(t.targetNode) {
			leaf := tr.Sift(t.targetNode, t.aseq, teacher)
			h.setTargetNode(tr, tid, leaf)
		}
		next, ok := h.targetOf(tr, tid)
		if !ok {
			// The sift reached a leaf that has no state yet; only closure
			// can materialize it.
			return NoState, ErrOpenTransition
		}
		cur = next
	}
	return cur, nil
}

// Evaluate reports whether the hypothesis accepts w, following resolved
// transitions only.
func (h *Hypothesis) Evaluate(tr *Tree, w Word) (bool, error) {
	s, err := h.Run(tr, w)
	if err != nil {
		return false, err
	}
	return h.IsFinal(s), nil
}

// EvaluateReading is Evaluate on top of RunReading.
func (h *Hypothesis) EvaluateReading(tr *Tree, w Word, teacher Teacher) (bool, error) {
	s, err := h.RunReading(tr, w, teacher)
	if err != nil {
		return false, err
	}
	return h.IsFinal(s), nil
}

// setTargetNode advances a non-tree transition to a new target node, keeping
// the incoming registrations in sync.
func (h *Hypothesis) setTargetNode(tr *Tree, tid TransitionID, n NodeID) {
	t := &h.transitions[tid]
	if t.targetNode == n {
		return
	}
	tr.removeIncoming(t.targetNode, tid)
	t.targetNode = n
	tr.addIncoming(n, tid)
}

// promoteToTree turns a non-tree transition into the tree transition of
// state s. The caller guarantees s has no tree transition yet.
func (h *Hypothesis) promoteToTree(tr *Tree, tid TransitionID, s StateID) {
	t := &h.transitions[tid]
	tr.removeIncoming(t.targetNode, tid)
	t.tree = true
	t.targetState = s
	t.targetNode = NoNode
	h.states[s].incomingTree = tid
}

func (h *Hypothesis) enqueueOpen(tid TransitionID) {
	h.open = append(h.open, tid)
}

func (h *Hypothesis) popOpen() (TransitionID, bool) {
	if len(h.open) == 0 {
		return NoTransition, false
	}
	tid := h.open[0]
	h.open = h.open[1:]
	return tid, true
}

// OpenCount returns the number of transitions waiting in the open queue.
func (h *Hypothesis) OpenCount() int {
	return len(h.open)
}

// ToDFA snapshots the hypothesis into a standalone DFA. The hypothesis must
// be closed: every transition resolvable to a state. State 0 of the snapshot
// is the start state; the remaining IDs follow breadth-first discovery
// order, which makes snapshots of equal hypotheses byte-identical.
func (h *Hypothesis) ToDFA(tr *Tree) (*DFA, error) {
	if h.start == NoState {
		return nil, invariantf("to-dfa", "hypothesis has no states")
	}
	k := h.alphabet.Size()
	ids := make(map[StateID]int, len(h.states))
	order := make([]StateID, 0, len(h.states))
	ids[h.start] = 0
	order = append(order, h.start)
	for at := 0; at < len(order); at++ {
		s := order[at]
		for i := 0; i < k; i++ {
			target, ok := h.targetOf(tr, h.states[s].transitions[i])
			if !ok {
				return nil, ErrOpenTransition
			}
			if _, seen := ids[target]; !seen {
				ids[target] = len(order)
				order = append(order, target)
			}
		}
	}
	d := NewDFA(h.alphabet, len(order))
	for at, s := range order {
		if h.IsFinal(s) {
			d.SetAccept(at, true)
		}
		for i := 0; i < k; i++ {
			target, _ := h.targetOf(tr, h.states[s].transitions[i])
			d.SetTransition(at, i, ids[target])
		}
	}
	return d, nil
}
