package ttt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// funcTeacher answers membership from a predicate; equivalence always
// agrees. Handy for driving tree operations directly.
type funcTeacher struct {
	member func(Word) bool
}

func (f funcTeacher) IsMember(w Word) bool {
	return f.member(w)
}

func (f funcTeacher) IsEquivalent(*DFA) (Word, bool) {
	return nil, false
}

func TestTreeRoot(t *testing.T) {
	tr := NewTree()
	root := tr.Root()
	assert.False(t, tr.IsLeaf(root))
	assert.False(t, tr.IsTemporary(root))
	assert.Equal(t, 0, tr.Discriminator(root).Len())
	assert.True(t, tr.IsLeaf(tr.Child(root, false)))
	assert.True(t, tr.IsLeaf(tr.Child(root, true)))
}

func TestTreeSift(t *testing.T) {
	// Language: words containing an 'a'.
	teacher := funcTeacher{member: func(w Word) bool {
		for _, r := range w {
			if r == 'a' {
				return true
			}
		}
		return false
	}}
	tr := NewTree()

	leaf := tr.Sift(tr.Root(), ParseWord("xa"), teacher)
	assert.Equal(t, tr.Child(tr.Root(), true), leaf)

	leaf = tr.Sift(tr.Root(), ParseWord("xx"), teacher)
	assert.Equal(t, tr.Child(tr.Root(), false), leaf)

	// Sifting from a leaf is a no-op.
	assert.Equal(t, leaf, tr.Sift(leaf, ParseWord("xx"), teacher))
}

func TestSplitLeafKeepsHandle(t *testing.T) {
	tr := NewTree()
	leaf := tr.Child(tr.Root(), false)
	c0, c1 := tr.SplitLeaf(leaf, ParseWord("ab"))

	assert.False(t, tr.IsLeaf(leaf))
	assert.True(t, tr.IsTemporary(leaf))
	assert.Equal(t, "ab", tr.Discriminator(leaf).String())
	assert.Equal(t, c0, tr.Child(leaf, false))
	assert.Equal(t, c1, tr.Child(leaf, true))
	assert.Equal(t, leaf, tr.Parent(c0))
	assert.Equal(t, leaf, tr.Parent(c1))
}

func TestSignature(t *testing.T) {
	tr := NewTree()
	leaf := tr.Child(tr.Root(), false)
	c0, c1 := tr.SplitLeaf(leaf, ParseWord("ab"))

	sig := tr.Signature(c1)
	require.Len(t, sig, 2)
	assert.Equal(t, "ab", sig[0].Discriminator.String())
	assert.True(t, sig[0].Outcome)
	assert.Equal(t, "", sig[1].Discriminator.String())
	assert.False(t, sig[1].Outcome)

	assert.False(t, tr.signatureAccepts(c0))
	assert.True(t, tr.signatureAccepts(tr.Child(tr.Root(), true)))
}

func TestLCA(t *testing.T) {
	tr := NewTree()
	left := tr.Child(tr.Root(), false)
	right := tr.Child(tr.Root(), true)
	c0, c1 := tr.SplitLeaf(left, ParseWord("a"))

	assert.Equal(t, left, tr.LCA([]NodeID{c0, c1}))
	assert.Equal(t, tr.Root(), tr.LCA([]NodeID{c0, right}))
	assert.Equal(t, c0, tr.LCA([]NodeID{c0}))
	assert.Equal(t, NoNode, tr.LCA(nil))
}

func TestBlockRoots(t *testing.T) {
	tr := NewTree()
	left := tr.Child(tr.Root(), false)
	c0, _ := tr.SplitLeaf(left, ParseWord("aa"))
	tr.SplitLeaf(c0, ParseWord("b"))

	// left and its child c0 are both temporary: one block rooted at left.
	roots := tr.BlockRoots()
	require.Len(t, roots, 1)
	assert.Equal(t, left, roots[0])

	leaves := tr.leavesUnder(left)
	assert.Len(t, leaves, 3)
}

func TestLinkRejectsRelink(t *testing.T) {
	tr := NewTree()
	leaf := tr.Child(tr.Root(), false)
	require.Nil(t, tr.link(leaf, 0))
	assert.Nil(t, tr.link(leaf, 0))

	err := tr.link(leaf, 1)
	assert.ErrorIs(t, err, ErrInvariant)
}
