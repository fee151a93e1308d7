package ttt

import (
	"github.com/bits-and-blooms/bitset"
)

// DFA is a plain deterministic finite automaton: dense integer states, a
// flat transition table and a bitset of accepting states. State 0 is always
// the start state. A missing transition is stored as -1; Complete adds a
// sink so the table becomes total.
//
// This is the export format of the learner and the input format for
// DFA-backed teachers.
type DFA struct {
	alphabet  *Alphabet
	numStates int
	// table[k*state+symbol] holds the destination state, -1 if missing.
	table  []int
	accept *bitset.BitSet
}

// NewDFA allocates a DFA with the given number of states and no
// transitions.
func NewDFA(alphabet *Alphabet, numStates int) *DFA {
	k := alphabet.Size()
	table := make([]int, numStates*k)
	for i := range table {
		table[i] = -1
	}
	return &DFA{
		alphabet:  alphabet,
		numStates: numStates,
		table:     table,
		accept:    bitset.New(uint(numStates)),
	}
}

func (d *DFA) Alphabet() *Alphabet {
	return d.alphabet
}

// NumStates returns the number of states.
func (d *DFA) NumStates() int {
	return d.numStates
}

// CreateState appends a fresh state and returns its ID.
func (d *DFA) CreateState() int {
	s := d.numStates
	d.numStates++
	d.table = grow(d.table, d.numStates*d.alphabet.Size(), -1)
	return s
}

// SetAccept sets or clears the accept flag of a state.
func (d *DFA) SetAccept(state int, accept bool) {
	d.accept.SetTo(uint(state), accept)
}

// IsAccept reports whether state is an accept state.
func (d *DFA) IsAccept(state int) bool {
	return d.accept.Test(uint(state))
}

// SetTransition sets the destination for (state, symbol index).
func (d *DFA) SetTransition(state, symbol, dest int) {
	d.table[state*d.alphabet.Size()+symbol] = dest
}

// StepIndex performs one transition on a dense symbol index. Returns -1 if
// no transition exists.
func (d *DFA) StepIndex(state, symbol int) int {
	return d.table[state*d.alphabet.Size()+symbol]
}

// Step performs one transition on a symbol. Returns -1 for labels outside
// the alphabet or missing transitions.
func (d *DFA) Step(state int, label rune) int {
	i := d.alphabet.Index(label)
	if i < 0 {
		return -1
	}
	return d.StepIndex(state, i)
}

// Accepts runs w from the start state. A missing transition rejects.
func (d *DFA) Accepts(w Word) bool {
	if d.numStates == 0 {
		return false
	}
	state := 0
	for _, label := range w {
		state = d.Step(state, label)
		if state == -1 {
			return false
		}
	}
	return d.IsAccept(state)
}

// Run returns whether the automaton accepts the given string.
func Run(d *DFA, s string) bool {
	return d.Accepts(ParseWord(s))
}

// Complete returns a DFA with a total transition table, adding a sink state
// if any transition is missing. If the table is already total the receiver
// is returned unchanged.
func (d *DFA) Complete() *DFA {
	missing := false
	for _, dest := range d.table {
		if dest == -1 {
			missing = true
			break
		}
	}
	if !missing && d.numStates > 0 {
		return d
	}
	out := NewDFA(d.alphabet, d.numStates)
	copy(out.table, d.table)
	out.accept = d.accept.Clone()
	sink := out.CreateState()
	for i := range out.table {
		if out.table[i] == -1 {
			out.table[i] = sink
		}
	}
	return out
}

// reachable returns a copy containing only the states reachable from the
// start, renumbered in breadth-first symbol order.
func (d *DFA) reachable() *DFA {
	if d.numStates == 0 {
		return d
	}
	k := d.alphabet.Size()
	ids := make([]int, d.numStates)
	for i := range ids {
		ids[i] = -1
	}
	order := []int{0}
	ids[0] = 0
	for at := 0; at < len(order); at++ {
		s := order[at]
		for i := 0; i < k; i++ {
			dest := d.StepIndex(s, i)
			if dest != -1 && ids[dest] == -1 {
				ids[dest] = len(order)
				order = append(order, dest)
			}
		}
	}
	out := NewDFA(d.alphabet, len(order))
	for at, s := range order {
		out.SetAccept(at, d.IsAccept(s))
		for i := 0; i < k; i++ {
			dest := d.StepIndex(s, i)
			if dest != -1 {
				out.SetTransition(at, i, ids[dest])
			}
		}
	}
	return out
}

// Minimize returns the canonical minimal DFA for the same language, using
// Hopcroft partition refinement over the completed, trimmed automaton.
// States of the result are numbered in breadth-first symbol order from the
// start, so two Minimize results for the same language are identical.
func (d *DFA) Minimize() *DFA {
	a := d.reachable().Complete()
	n := a.numStates
	if n == 0 {
		return a
	}
	k := a.alphabet.Size()

	// Initial partition: accepting vs non-accepting.
	blockOf := make([]int, n)
	var blocks [][]int
	var acc, non []int
	for s := 0; s < n; s++ {
		if a.IsAccept(s) {
			acc = append(acc, s)
		} else {
			non = append(non, s)
		}
	}
	for _, b := range [][]int{acc, non} {
		if len(b) == 0 {
			continue
		}
		for _, s := range b {
			blockOf[s] = len(blocks)
		}
		blocks = append(blocks, b)
	}

	work := make([]int, len(blocks))
	for i := range work {
		work[i] = i
	}

	inA := make([]bool, n)
	inX := make([]bool, n)
	for len(work) > 0 {
		idx := work[0]
		work = work[1:]
		// Copy the splitter: block idx itself may be split below.
		splitter := append([]int(nil), blocks[idx]...)
		for _, s := range splitter {
			inA[s] = true
		}
		for c := 0; c < k; c++ {
			// X = preimage of block idx under symbol c.
			var x []int
			for s := 0; s < n; s++ {
				if inA[a.StepIndex(s, c)] {
					x = append(x, s)
					inX[s] = true
				}
			}
			// Refine every block crossed by X.
			touched := map[int]struct{}{}
			for _, s := range x {
				touched[blockOf[s]] = struct{}{}
			}
			for bi := range touched {
				var inter, diff []int
				for _, s := range blocks[bi] {
					if inX[s] {
						inter = append(inter, s)
					} else {
						diff = append(diff, s)
					}
				}
				if len(inter) == 0 || len(diff) == 0 {
					continue
				}
				blocks[bi] = inter
				ni := len(blocks)
				blocks = append(blocks, diff)
				for _, s := range diff {
					blockOf[s] = ni
				}
				// Hopcroft: a block still waiting in the worklist needs both
				// halves queued; otherwise the smaller half suffices.
				pending := false
				for _, w := range work {
					if w == bi {
						pending = true
						break
					}
				}
				if !pending && len(inter) < len(diff) {
					work = append(work, bi)
				} else {
					work = append(work, ni)
				}
			}
			for _, s := range x {
				inX[s] = false
			}
		}
		for _, s := range splitter {
			inA[s] = false
		}
	}

	out := NewDFA(a.alphabet, len(blocks))
	for bi, b := range blocks {
		out.SetAccept(bi, a.IsAccept(b[0]))
		for c := 0; c < k; c++ {
			out.SetTransition(bi, c, blockOf[a.StepIndex(b[0], c)])
		}
	}
	// blockOf[0] holds the start block; rotate it to ID 0 via the
	// canonical renumbering.
	if blockOf[0] != 0 {
		out = renumberFromStart(out, blockOf[0])
	}
	return out.reachable()
}

// renumberFromStart swaps the given state into position 0.
func renumberFromStart(d *DFA, start int) *DFA {
	perm := make([]int, d.numStates)
	for i := range perm {
		perm[i] = i
	}
	perm[0], perm[start] = start, 0
	k := d.alphabet.Size()
	out := NewDFA(d.alphabet, d.numStates)
	inv := make([]int, d.numStates)
	for to, from := range perm {
		inv[from] = to
	}
	for to, from := range perm {
		out.SetAccept(to, d.IsAccept(from))
		for c := 0; c < k; c++ {
			out.SetTransition(to, c, inv[d.StepIndex(from, c)])
		}
	}
	return out
}

type statePair struct {
	a, b int
}

// FindSeparating searches for the shortest word on which a and b disagree.
// It walks the synchronized product breadth-first, so the answer (and the
// whole search order) is deterministic. Returns (nil, false) when the two
// automata are equivalent.
func FindSeparating(a, b *DFA) (Word, bool) {
	ca := a.Complete()
	cb := b.Complete()
	k := ca.alphabet.Size()

	type visit struct {
		prev   statePair
		symbol int
	}
	start := statePair{0, 0}
	seen := map[statePair]visit{start: {prev: statePair{-1, -1}}}
	queue := []statePair{start}

	build := func(p statePair) Word {
		var labels []rune
		for seen[p].prev.a != -1 {
			labels = append(labels, ca.alphabet.Symbol(seen[p].symbol))
			p = seen[p].prev
		}
		w := make(Word, len(labels))
		for i := range labels {
			w[i] = labels[len(labels)-1-i]
		}
		return w
	}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if ca.IsAccept(p.a) != cb.IsAccept(p.b) {
			return build(p), true
		}
		for c := 0; c < k; c++ {
			next := statePair{ca.StepIndex(p.a, c), cb.StepIndex(p.b, c)}
			if _, ok := seen[next]; !ok {
				seen[next] = visit{prev: p, symbol: c}
				queue = append(queue, next)
			}
		}
	}
	return nil, false
}

// Equivalent reports whether a and b accept the same language.
func Equivalent(a, b *DFA) bool {
	_, found := FindSeparating(a, b)
	return !found
}

// Isomorphic reports whether two DFAs are identical up to state renaming.
// Both sides are expected to be deterministic and trimmed (e.g. outputs of
// Minimize).
func (d *DFA) Isomorphic(other *DFA) bool {
	if d.numStates != other.numStates || d.alphabet.Size() != other.alphabet.Size() {
		return false
	}
	if d.numStates == 0 {
		return true
	}
	k := d.alphabet.Size()
	mapping := make([]int, d.numStates)
	for i := range mapping {
		mapping[i] = -1
	}
	mapping[0] = 0
	queue := []int{0}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		o := mapping[s]
		if d.IsAccept(s) != other.IsAccept(o) {
			return false
		}
		for c := 0; c < k; c++ {
			ds, do := d.StepIndex(s, c), other.StepIndex(o, c)
			if (ds == -1) != (do == -1) {
				return false
			}
			if ds == -1 {
				continue
			}
			if mapping[ds] == -1 {
				mapping[ds] = do
				queue = append(queue, ds)
			} else if mapping[ds] != do {
				return false
			}
		}
	}
	return true
}

func grow(s []int, size int, fill int) []int {
	for len(s) < size {
		s = append(s, fill)
	}
	return s
}
