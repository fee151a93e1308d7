// Command ttt learns one of the built-in sample languages from a DFA-backed
// teacher and prints the result.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	ttt "github.com/shetkarneeraj/TTT"
)

var (
	flagAlphabet string
	flagTarget   string
	flagDot      bool
	flagLinear   bool
)

func main() {
	root := &cobra.Command{
		Use:   "ttt",
		Short: "TTT active automaton learning",
	}

	learn := &cobra.Command{
		Use:   "learn",
		Short: "Learn a built-in sample language and print the inferred DFA",
		RunE:  runLearn,
	}
	learn.Flags().StringVar(&flagAlphabet, "alphabet", "ab", "input alphabet, one symbol per rune")
	learn.Flags().StringVar(&flagTarget, "target", "parity",
		"target language: empty | universal | parity | mod4 | ends-ab | contains-aba")
	learn.Flags().BoolVar(&flagDot, "dot", false, "print the learned DFA in Graphviz DOT format")
	learn.Flags().BoolVar(&flagLinear, "linear", false, "use linear counterexample analysis instead of binary search")
	root.AddCommand(learn)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildTarget(alphabet *ttt.Alphabet, name string) (*ttt.DFA, error) {
	switch name {
	case "empty":
		return ttt.NewEmptyDFA(alphabet), nil
	case "universal":
		return ttt.NewUniversalDFA(alphabet), nil
	case "parity":
		return ttt.NewParityDFA(alphabet, alphabet.Symbol(0))
	case "mod4":
		return ttt.NewModCountDFA(alphabet, alphabet.Symbol(0), 4, 3)
	case "ends-ab":
		return ttt.NewSuffixDFA(alphabet, ttt.ParseWord("ab"))
	case "contains-aba":
		return ttt.NewContainsDFA(alphabet, ttt.ParseWord("aba"))
	default:
		return nil, fmt.Errorf("unknown target language %q", name)
	}
}

func runLearn(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	alphabet, err := ttt.NewAlphabet([]rune(flagAlphabet)...)
	if err != nil {
		return err
	}
	target, err := buildTarget(alphabet, flagTarget)
	if err != nil {
		return err
	}

	opts := []ttt.Option{}
	if flagLinear {
		opts = append(opts, ttt.WithRSMode(ttt.RSLinear))
	}
	learner := ttt.NewLearner(alphabet, ttt.NewDFATeacher(target), opts...)

	logger.Info("learning", "target", flagTarget, "alphabet", flagAlphabet)
	dfa, err := learner.Learn(context.Background())
	if err != nil {
		return err
	}

	stats := learner.Stats()
	logger.Info("done",
		"states", dfa.NumStates(),
		"membership_queries", stats.MembershipQueries,
		"equivalence_queries", stats.EquivalenceQueries,
		"cache_hits", stats.CacheHits,
	)

	if flagDot {
		fmt.Print(dfa.Dot())
		return nil
	}
	printTable(dfa)
	return nil
}

func printTable(d *ttt.DFA) {
	alphabet := d.Alphabet()
	fmt.Print("state")
	for i := 0; i < alphabet.Size(); i++ {
		fmt.Printf("\t%c", alphabet.Symbol(i))
	}
	fmt.Println("\taccept")
	for s := 0; s < d.NumStates(); s++ {
		fmt.Printf("q%d", s)
		for i := 0; i < alphabet.Size(); i++ {
			fmt.Printf("\tq%d", d.StepIndex(s, i))
		}
		fmt.Printf("\t%v\n", d.IsAccept(s))
	}
}
