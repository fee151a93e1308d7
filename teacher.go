package ttt

// Teacher is the minimally adequate teacher the learner interrogates.
//
// IsMember answers whether a word belongs to the target language. Answers
// must be stable: asking the same word twice must give the same answer.
//
// IsEquivalent compares the hypothesis against the target. It returns
// (cx, true) with a word on which hypothesis and target disagree, or
// (nil, false) when they agree on all words. Equivalence answers need not be
// idempotent; membership answers must be.
type Teacher interface {
	IsMember(w Word) bool
	IsEquivalent(hypothesis *DFA) (Word, bool)
}

// QueryStats counts the traffic a teacher has seen.
type QueryStats struct {
	MembershipQueries  int
	EquivalenceQueries int
	CacheHits          int
}

// CacheTeacher wraps a Teacher with a membership memo and query counters.
// Memoizing is sound because membership answers are required to be stable;
// it has no semantic effect, only fewer calls to the wrapped oracle.
//
// maxEntries bounds the memo; zero or negative means unbounded. When the
// bound is reached new answers simply stop being cached.
type CacheTeacher struct {
	inner      Teacher
	memo       map[string]bool
	maxEntries int
	stats      QueryStats
}

// NewCacheTeacher wraps inner with an unbounded membership cache.
func NewCacheTeacher(inner Teacher) *CacheTeacher {
	return NewCacheTeacherSize(inner, 0)
}

// NewCacheTeacherSize wraps inner with a cache holding at most maxEntries
// answers (zero or negative for unbounded).
func NewCacheTeacherSize(inner Teacher, maxEntries int) *CacheTeacher {
	return &CacheTeacher{
		inner:      inner,
		memo:       make(map[string]bool),
		maxEntries: maxEntries,
	}
}

func (c *CacheTeacher) IsMember(w Word) bool {
	key := w.String()
	if answer, ok := c.memo[key]; ok {
		c.stats.CacheHits++
		return answer
	}
	c.stats.MembershipQueries++
	answer := c.inner.IsMember(w)
	if c.maxEntries <= 0 || len(c.memo) < c.maxEntries {
		c.memo[key] = answer
	}
	return answer
}

func (c *CacheTeacher) IsEquivalent(hypothesis *DFA) (Word, bool) {
	c.stats.EquivalenceQueries++
	return c.inner.IsEquivalent(hypothesis)
}

// Stats returns the counters accumulated so far.
func (c *CacheTeacher) Stats() QueryStats {
	return c.stats
}
