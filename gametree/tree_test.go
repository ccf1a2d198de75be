package gametree

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/iammadab/prune/search"
)

func TestParse(t *testing.T) {
	is := is.New(t)
	n, err := Parse("5:[[3 12], x+-2 #  =]")
	is.NoErr(err)
	is.Equal(n.Eval, search.Score(5))
	is.Equal(len(n.Children), 4)
	is.Equal(n.Children[0].Children[1].Eval, search.Score(12))
	is.Equal(n.Children[1].Tactic, search.Capture|search.Check)
	is.Equal(n.Children[1].Eval, search.Score(-2))
	is.Equal(n.Children[2].Outcome, search.Checkmate)
	is.Equal(n.Children[3].Outcome, search.Draw)
	is.Equal(n.Size(), 7)
}

func TestParseErrors(t *testing.T) {
	is := is.New(t)
	for _, s := range []string{"", "[1 2", "1 2", "[a]", "3:", "99999999999", "600000"} {
		_, err := Parse(s)
		is.True(errors.Is(err, ErrSyntax))
	}
}

func TestFormatRoundTrip(t *testing.T) {
	is := is.New(t)
	for _, s := range []string{"7", "[[3 12] [2 4]]", "5:[x-1 +^# =]", "[x-100:[x-800] -10]"} {
		n, err := Parse(s)
		is.NoErr(err)
		is.Equal(Format(n), s)
	}
}

func TestApplyUndo(t *testing.T) {
	is := is.New(t)
	n, err := Parse("[[3 12] [2 x4]]")
	is.NoErr(err)
	tr := New(n)
	is.Equal(tr.LegalMoves(), []Move{0, 1})
	tr.Apply(1)
	is.Equal(tr.Ply(), 1)
	is.Equal(tr.Classify(1), search.Capture)
	is.Equal(tr.Classify(0), search.Quiet)
	tr.Apply(1)
	is.Equal(Evaluator.Evaluate(tr), search.Score(4))
	is.Equal(tr.String(), "root/#1/#1")
	is.Equal(len(tr.LegalMoves()), 0)
	tr.Undo()
	tr.Undo()
	is.Equal(tr.Ply(), 0)
	is.Equal(tr.Applies(), 2)
	is.Equal(tr.String(), "root")
}

func TestTerminalHasNoMoves(t *testing.T) {
	is := is.New(t)
	mated := Mated()
	mated.Children = []*Node{Leaf(1)}
	tr := New(mated)
	is.Equal(tr.Outcome(), search.Checkmate)
	is.Equal(len(tr.LegalMoves()), 0)
}

func TestIllegalMovePanics(t *testing.T) {
	is := is.New(t)
	defer func() {
		is.True(recover() != nil)
	}()
	New(Leaf(0)).Apply(0)
}

func TestUndoAtRootPanics(t *testing.T) {
	is := is.New(t)
	defer func() {
		is.True(recover() != nil)
	}()
	New(Leaf(0)).Undo()
}

func TestReversed(t *testing.T) {
	is := is.New(t)
	n, err := Parse("[[3 12] [2 4]]")
	is.NoErr(err)
	r := n.Reversed()
	is.Equal(Format(r), "[[4 2] [12 3]]")
	// The original is untouched.
	is.Equal(Format(n), "[[3 12] [2 4]]")
}

func TestRandomIsDeterministic(t *testing.T) {
	is := is.New(t)
	cfg := DefaultRandomConfig(3)
	a := Format(Random(NewRNG(42), cfg))
	b := Format(Random(NewRNG(42), cfg))
	c := Format(Random(NewRNG(43), cfg))
	is.Equal(a, b)
	is.True(a != c)
}

func TestRandomRespectsShape(t *testing.T) {
	is := is.New(t)
	cfg := DefaultRandomConfig(2)
	cfg.NoisyTail = 0
	for seed := uint64(0); seed < 50; seed++ {
		n := Random(NewRNG(seed), cfg)
		is.True(height(n) <= 2)
		is.True(len(n.Children) <= cfg.Branching)
		is.Equal(n.Outcome, search.Ongoing)
	}
}

func height(n *Node) int {
	h := 0
	for _, c := range n.Children {
		h = max(h, height(c)+1)
	}
	return h
}
