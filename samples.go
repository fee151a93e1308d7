package ttt

import "fmt"

// Constructors for concrete target languages, used by tests and the demo
// command. All of them return complete automata.

// NewEmptyDFA returns the automaton accepting no words.
func NewEmptyDFA(alphabet *Alphabet) *DFA {
	d := NewDFA(alphabet, 1)
	for i := 0; i < alphabet.Size(); i++ {
		d.SetTransition(0, i, 0)
	}
	return d
}

// NewUniversalDFA returns the automaton accepting every word.
func NewUniversalDFA(alphabet *Alphabet) *DFA {
	d := NewEmptyDFA(alphabet)
	d.SetAccept(0, true)
	return d
}

// NewModCountDFA accepts words in which the counted symbol occurs exactly
// residue modulo mod times. Other symbols self-loop.
func NewModCountDFA(alphabet *Alphabet, counted rune, mod, residue int) (*DFA, error) {
	ci := alphabet.Index(counted)
	if ci < 0 {
		return nil, fmt.Errorf("counted symbol %q not in alphabet", counted)
	}
	if mod < 1 || residue < 0 || residue >= mod {
		return nil, fmt.Errorf("invalid modulus %d / residue %d", mod, residue)
	}
	d := NewDFA(alphabet, mod)
	for s := 0; s < mod; s++ {
		for i := 0; i < alphabet.Size(); i++ {
			if i == ci {
				d.SetTransition(s, i, (s+1)%mod)
			} else {
				d.SetTransition(s, i, s)
			}
		}
	}
	d.SetAccept(residue, true)
	return d, nil
}

// NewParityDFA accepts words with an odd number of the given symbol.
func NewParityDFA(alphabet *Alphabet, counted rune) (*DFA, error) {
	return NewModCountDFA(alphabet, counted, 2, 1)
}

// NewSuffixDFA accepts words ending in the given pattern. States track the
// longest suffix of the input read so far that is a prefix of the pattern.
func NewSuffixDFA(alphabet *Alphabet, pattern Word) (*DFA, error) {
	if !alphabet.Contains(pattern) {
		return nil, fmt.Errorf("pattern %q uses symbols outside the alphabet", pattern.String())
	}
	m := pattern.Len()
	d := NewDFA(alphabet, m+1)
	for s := 0; s <= m; s++ {
		for i := 0; i < alphabet.Size(); i++ {
			d.SetTransition(s, i, patternStep(pattern, s, alphabet.Symbol(i), m))
		}
	}
	d.SetAccept(m, true)
	return d, nil
}

// NewContainsDFA accepts words containing the given pattern as a factor.
// Identical to the suffix automaton except the full match is absorbing.
func NewContainsDFA(alphabet *Alphabet, pattern Word) (*DFA, error) {
	d, err := NewSuffixDFA(alphabet, pattern)
	if err != nil {
		return nil, err
	}
	m := pattern.Len()
	for i := 0; i < alphabet.Size(); i++ {
		d.SetTransition(m, i, m)
	}
	return d, nil
}

// patternStep computes the longest k such that the first s symbols of the
// pattern extended by label end in the first k pattern symbols.
func patternStep(pattern Word, s int, label rune, m int) int {
	extended := pattern.Prefix(s).Append(label)
	for k := min(extended.Len(), m); k > 0; k-- {
		match := true
		for j := 0; j < k; j++ {
			if extended[extended.Len()-k+j] != pattern[j] {
				match = false
				break
			}
		}
		if match {
			return k
		}
	}
	return 0
}
