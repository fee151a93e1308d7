package ttt

import (
	"errors"
	"fmt"
)

var (
	// ErrInvariant marks internal invariant violations. The hypothesis must
	// be discarded after one of these escapes.
	ErrInvariant = errors.New("invariant violation")

	// ErrOracle marks teacher contract violations: the oracle returned
	// answers that contradict each other or the hypothesis.
	ErrOracle = errors.New("oracle contract violation")

	// ErrOpenTransition is returned by Run when the walk meets a transition
	// whose target has not been resolved to a state yet. Close the
	// hypothesis first, or use RunReading.
	ErrOpenTransition = errors.New("open transition on run path")

	// ErrUnknownState is returned when a state handle does not belong to
	// the hypothesis.
	ErrUnknownState = errors.New("unknown state")

	// ErrNotCounterexample is returned by counterexample analysis when the
	// supplied word is not actually a counterexample.
	ErrNotCounterexample = errors.New("word is not a counterexample")

	// ErrQueryBudget is returned when a configured membership or equivalence
	// query budget is exhausted. The current hypothesis is still usable as a
	// snapshot.
	ErrQueryBudget = errors.New("query budget exhausted")
)

// InvariantError carries which invariant broke and the evidence. It wraps
// ErrInvariant.
type InvariantError struct {
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: %s", ErrInvariant, e.Invariant)
	}
	return fmt.Sprintf("%v: %s: %s", ErrInvariant, e.Invariant, e.Detail)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariant
}

func invariantf(name, format string, args ...any) error {
	return &InvariantError{Invariant: name, Detail: fmt.Sprintf(format, args...)}
}

// OracleError records contradictory teacher evidence: two words (or two
// observations of the same word) whose answers cannot both be right. It
// wraps ErrOracle.
type OracleError struct {
	Word    Word
	Other   Word
	Message string
}

func (e *OracleError) Error() string {
	if e.Other != nil {
		return fmt.Sprintf("%v: %s (words %q, %q)", ErrOracle, e.Message, e.Word.String(), e.Other.String())
	}
	return fmt.Sprintf("%v: %s (word %q)", ErrOracle, e.Message, e.Word.String())
}

func (e *OracleError) Unwrap() error {
	return ErrOracle
}
