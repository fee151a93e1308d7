package ttt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddState(t *testing.T) {
	alphabet := MustAlphabet("ab")
	tr := NewTree()
	h := NewHypothesis(alphabet)

	q0 := h.AddState(tr, Epsilon)
	assert.Equal(t, q0, h.Start())
	assert.Equal(t, 1, h.NumStates())
	assert.Equal(t, alphabet.Size(), h.OpenCount())

	// Fresh transitions point at the root and are registered there.
	for i := 0; i < alphabet.Size(); i++ {
		tid := h.TransitionOf(q0, i)
		tran := &h.transitions[tid]
		assert.False(t, tran.tree)
		assert.Equal(t, tr.Root(), tran.targetNode)
		_, ok := tr.nodes[tr.Root()].incoming[tid]
		assert.True(t, ok)
	}

	q1 := h.AddState(tr, ParseWord("a"))
	assert.Equal(t, q0, h.Start())
	assert.Equal(t, "aa", h.transitions[h.TransitionOf(q1, 0)].aseq.String())
	assert.Equal(t, "ab", h.transitions[h.TransitionOf(q1, 1)].aseq.String())
}

func TestMakeFinal(t *testing.T) {
	alphabet := MustAlphabet("ab")
	tr := NewTree()
	h := NewHypothesis(alphabet)
	q0 := h.AddState(tr, Epsilon)

	require.Nil(t, h.MakeFinal(q0))
	assert.True(t, h.IsFinal(q0))
	assert.ErrorIs(t, h.MakeFinal(StateID(7)), ErrUnknownState)
}

func TestRunRequiresClosure(t *testing.T) {
	alphabet := MustAlphabet("ab")
	tr := NewTree()
	h := NewHypothesis(alphabet)
	h.AddState(tr, Epsilon)

	_, err := h.Run(tr, ParseWord("a"))
	assert.ErrorIs(t, err, ErrOpenTransition)

	// The empty word never crosses a transition.
	s, err := h.Run(tr, Epsilon)
	require.Nil(t, err)
	assert.Equal(t, h.Start(), s)
}

func TestRunReadingAgreesWithRun(t *testing.T) {
	// Parity of 'a'. Drive the hypothesis through a learner so it is
	// closed, then check deterministic and reading runs agree.
	alphabet := MustAlphabet("ab")
	target, err := NewParityDFA(alphabet, 'a')
	require.Nil(t, err)
	learner := NewLearner(alphabet, NewDFATeacher(target))
	_, err = learner.Learn(context.Background())
	require.Nil(t, err)

	h, tr := learner.Hypothesis(), learner.Tree()
	for _, input := range []string{"", "a", "ab", "ba", "bab", "aab"} {
		got, err := h.Evaluate(tr, ParseWord(input))
		require.Nil(t, err)
		reading, err := h.EvaluateReading(tr, ParseWord(input), learner.teacher)
		require.Nil(t, err)
		assert.Equal(t, got, reading, "input %q", input)
		assert.Equal(t, target.Accepts(ParseWord(input)), got, "input %q", input)
	}
}

func TestToDFA(t *testing.T) {
	alphabet := MustAlphabet("ab")
	target, err := NewParityDFA(alphabet, 'a')
	require.Nil(t, err)
	learner := NewLearner(alphabet, NewDFATeacher(target))
	dfa, err := learner.Learn(context.Background())
	require.Nil(t, err)

	assert.Equal(t, 2, dfa.NumStates())
	assert.False(t, dfa.IsAccept(0))
	assert.True(t, dfa.IsAccept(1))
	assert.Equal(t, 1, dfa.Step(0, 'a'))
	assert.Equal(t, 0, dfa.Step(0, 'b'))
	assert.Equal(t, 0, dfa.Step(1, 'a'))
	assert.Equal(t, 1, dfa.Step(1, 'b'))
}
