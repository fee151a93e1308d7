package ttt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheTeacher(t *testing.T) {
	alphabet := MustAlphabet("ab")
	target, err := NewParityDFA(alphabet, 'a')
	require.Nil(t, err)

	t.Run("memoizesMembership", func(t *testing.T) {
		cache := NewCacheTeacher(NewDFATeacher(target))
		assert.True(t, cache.IsMember(ParseWord("a")))
		assert.True(t, cache.IsMember(ParseWord("a")))
		assert.False(t, cache.IsMember(ParseWord("aa")))

		stats := cache.Stats()
		assert.Equal(t, 2, stats.MembershipQueries)
		assert.Equal(t, 1, stats.CacheHits)
	})

	t.Run("boundedCacheStopsInserting", func(t *testing.T) {
		cache := NewCacheTeacherSize(NewDFATeacher(target), 1)
		cache.IsMember(ParseWord("a"))
		cache.IsMember(ParseWord("b"))
		cache.IsMember(ParseWord("b"))

		stats := cache.Stats()
		// "b" was not cached: asked twice, only "a" hits.
		assert.Equal(t, 3, stats.MembershipQueries)
		cache.IsMember(ParseWord("a"))
		assert.Equal(t, 1, cache.Stats().CacheHits)
	})

	t.Run("countsEquivalence", func(t *testing.T) {
		cache := NewCacheTeacher(NewDFATeacher(target))
		_, found := cache.IsEquivalent(target)
		assert.False(t, found)
		assert.Equal(t, 1, cache.Stats().EquivalenceQueries)
	})
}
