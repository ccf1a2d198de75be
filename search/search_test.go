package search_test

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"

	"github.com/iammadab/prune/gametree"
	"github.com/iammadab/prune/search"
)

type (
	tree   = *gametree.Tree
	move   = gametree.Move
	result = search.Result[move]
)

func strategy(t *testing.T, algorithm string, opts search.Options) search.Strategy[tree, move] {
	s, err := search.New[tree, move](algorithm, gametree.Evaluator, opts)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func mustParse(t *testing.T, s string) *gametree.Node {
	n, err := gametree.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

// both searches root with each strategy and checks that the position
// was left untouched.
func both(t *testing.T, root *gametree.Node, depth int, opts search.Options) (mm, ab result) {
	is := is.New(t)
	for _, algo := range search.Algorithms() {
		tr := gametree.New(root)
		res := strategy(t, algo, opts).Search(context.Background(), tr, depth)
		is.Equal(tr.Ply(), 0)
		if algo == search.AlgorithmMinimax {
			mm = res
		} else {
			ab = res
		}
	}
	return mm, ab
}

func TestPruningScenario(t *testing.T) {
	is := is.New(t)
	root := mustParse(t, "[[3 12] [2 4]]")
	mm, ab := both(t, root, 2, search.DefaultOptions())

	is.Equal(mm.BestMove, move(0))
	is.Equal(mm.Score, search.Score(3))
	is.Equal(mm.Nodes, uint64(7))

	is.Equal(ab.BestMove, move(0))
	is.Equal(ab.Score, search.Score(3))
	// The second reply to the second move is never looked at.
	is.Equal(ab.Nodes, uint64(6))
	is.Equal(ab.Stats.Cutoffs, uint64(1))
	is.True(!ab.Aborted)
}

func TestPruningScenarioThreePly(t *testing.T) {
	is := is.New(t)
	// Leaves score for the side to move at ply 3, the root's opponent.
	root := mustParse(t, "[[[1 2] [3 4]] [[5 6] [7 8]]]")
	mm, ab := both(t, root, 3, search.DefaultOptions())

	is.Equal(mm.BestMove, move(0))
	is.Equal(mm.Score, search.Score(-3))
	is.Equal(mm.Nodes, uint64(15))

	is.Equal(ab.BestMove, move(0))
	is.Equal(ab.Score, search.Score(-3))
	// The first reply to the second move already refutes it, so its
	// second reply and both leaves below it are skipped.
	is.Equal(ab.Nodes, uint64(12))
	is.Equal(ab.Stats.Cutoffs, uint64(1))
	is.Equal(ab.Root[1].Bound, search.Upper)
}

func TestCandidates(t *testing.T) {
	is := is.New(t)
	root := mustParse(t, "[[3 12] [2 4]]")
	mm, ab := both(t, root, 2, search.DefaultOptions())

	exact, unresolved := mm.Candidates()
	is.Equal(exact, []move{0})
	is.Equal(len(unresolved), 0)

	// Alpha-beta only proves the second move is no better.
	exact, unresolved = ab.Candidates()
	is.Equal(exact, []move{0})
	is.Equal(unresolved, []move{1})
	is.Equal(ab.Root[1].Bound, search.Upper)
}

func TestFirstBestMoveWins(t *testing.T) {
	is := is.New(t)
	root := mustParse(t, "[5 -3 -3 1]")
	mm, ab := both(t, root, 1, search.DefaultOptions())
	is.Equal(mm.BestMove, move(1))
	is.Equal(ab.BestMove, move(1))
	is.Equal(mm.Score, search.Score(3))
	is.Equal(ab.Score, search.Score(3))

	exact, _ := mm.Candidates()
	is.Equal(exact, []move{1, 2})
}

func TestOneMoveMate(t *testing.T) {
	is := is.New(t)
	root := mustParse(t, "[0 # 0]")
	mm, ab := both(t, root, 1, search.DefaultOptions())

	for _, res := range []result{mm, ab} {
		is.Equal(res.BestMove, move(1))
		is.Equal(res.Score, -search.MatedScore(1))
		is.Equal(search.MateDistance(res.Score), 1)
	}
	is.Equal(mm.Nodes, uint64(4))
	// The mate can't be beaten, so the last move is skipped.
	is.Equal(ab.Nodes, uint64(3))
}

func TestShorterMatePreferred(t *testing.T) {
	is := is.New(t)
	root := mustParse(t, "[[[#]] #]")
	mm, ab := both(t, root, 3, search.DefaultOptions())
	for _, res := range []result{mm, ab} {
		is.Equal(res.BestMove, move(1))
		is.Equal(search.MateDistance(res.Score), 1)
		is.Equal(res.Root[0].Move, move(0))
	}
	is.Equal(mm.Root[0].Score, search.MateScore-3)
}

func TestMateFurtherDown(t *testing.T) {
	is := is.New(t)
	root := mustParse(t, "[[[#]] -5]")
	mm, ab := both(t, root, 3, search.DefaultOptions())
	for _, res := range []result{mm, ab} {
		is.Equal(res.BestMove, move(0))
		is.Equal(res.Score, search.MateScore-3)
	}
}

func TestTerminalRoot(t *testing.T) {
	is := is.New(t)
	type tc struct {
		tree  string
		score search.Score
	}
	cases := []tc{
		{"#", search.MatedScore(0)},
		{"=", search.DrawScore},
		// No legal moves and no mate: stalemate.
		{"7", search.DrawScore},
	}
	for _, c := range cases {
		mm, ab := both(t, mustParse(t, c.tree), 2, search.DefaultOptions())
		for _, res := range []result{mm, ab} {
			is.True(!res.HasBestMove)
			is.Equal(res.Score, c.score)
			is.Equal(res.Nodes, uint64(1))
			is.Equal(res.Stats.TerminalNodes, uint64(1))
		}
	}
}

func TestDrawInTree(t *testing.T) {
	is := is.New(t)
	// Taking the draw beats a losing line.
	root := mustParse(t, "[[-40] =]")
	mm, ab := both(t, root, 2, search.DefaultOptions())
	for _, res := range []result{mm, ab} {
		is.Equal(res.BestMove, move(1))
		is.Equal(res.Score, search.DrawScore)
	}
}

func TestDepthZero(t *testing.T) {
	is := is.New(t)
	// A quiet position is just its static value.
	mm, ab := both(t, mustParse(t, "17"), 0, search.DefaultOptions())
	for _, res := range []result{mm, ab} {
		is.True(!res.HasBestMove)
		is.Equal(res.Score, search.Score(17))
		is.Equal(res.Nodes, uint64(1))
	}

	// Quiescence plays out the capture below the root.
	root := mustParse(t, "0:[x-50 30]")
	mm, ab = both(t, root, 0, search.DefaultOptions())
	for _, res := range []result{mm, ab} {
		is.True(!res.HasBestMove)
		is.Equal(res.Score, search.Score(50))
		is.Equal(res.Nodes, uint64(2))
	}
}

func TestHorizon(t *testing.T) {
	is := is.New(t)
	// Move 0 wins a pawn but walks into a queen recapture.
	root := mustParse(t, "[x-100:[x-800] -10]")

	mm, ab := both(t, root, 1, search.DefaultOptions())
	for _, res := range []result{mm, ab} {
		is.Equal(res.BestMove, move(1))
		is.Equal(res.Score, search.Score(10))
	}

	opts := search.DefaultOptions()
	opts.QuiescenceLimit = 0
	mm, ab = both(t, root, 1, opts)
	for _, res := range []result{mm, ab} {
		is.Equal(res.BestMove, move(0))
		is.Equal(res.Score, search.Score(100))
		is.Equal(res.Stats.QuiescenceCutoffs, uint64(1))
	}
}

func TestQuiescenceLimit(t *testing.T) {
	is := is.New(t)
	// A long chain of captures; each side loses on capturing.
	root := mustParse(t, "0:[x0:[x0:[x0:[x0:[x-900]]]]]")
	opts := search.DefaultOptions()
	for limit := 0; limit <= 6; limit++ {
		opts.QuiescenceLimit = limit
		mm, ab := both(t, root, 0, opts)
		is.Equal(mm.Score, ab.Score)
		is.True(mm.Stats.SelDepth <= limit)
	}
}

func TestAgreesWithMinimax(t *testing.T) {
	for seed := uint64(1); seed <= 150; seed++ {
		for depth := 0; depth <= 4; depth++ {
			t.Run(fmt.Sprintf("seed=%d/depth=%d", seed, depth), func(t *testing.T) {
				is := is.New(t)
				root := gametree.Random(gametree.NewRNG(seed), gametree.DefaultRandomConfig(depth))
				mm, ab := both(t, root, depth, search.DefaultOptions())
				is.Equal(mm.Score, ab.Score)
				is.Equal(mm.HasBestMove, ab.HasBestMove)
				is.Equal(mm.BestMove, ab.BestMove)
				is.True(ab.Nodes <= mm.Nodes)
				is.True(ab.Stats.SelDepth <= mm.Stats.SelDepth)
			})
		}
	}
}

func TestMoveOrderDoesNotChangeScore(t *testing.T) {
	is := is.New(t)
	for seed := uint64(500); seed < 600; seed++ {
		root := gametree.Random(gametree.NewRNG(seed), gametree.DefaultRandomConfig(3))
		mm, ab := both(t, root, 3, search.DefaultOptions())
		rmm, rab := both(t, root.Reversed(), 3, search.DefaultOptions())
		is.Equal(mm.Score, rmm.Score)
		is.Equal(ab.Score, rab.Score)
		is.Equal(mm.Score, ab.Score)
	}
}

// uniformTree builds a tree of the given depth and branching whose leaves
// carry distinct values.
func uniformTree(rng *frand.RNG, branching, depth int) *gametree.Node {
	leaves := 1
	for i := 0; i < depth; i++ {
		leaves *= branching
	}
	vals := make([]search.Score, leaves)
	for i := range vals {
		vals[i] = search.Score(i + 1)
	}
	for i := len(vals) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		vals[i], vals[j] = vals[j], vals[i]
	}
	var build func(depth int) *gametree.Node
	build = func(depth int) *gametree.Node {
		if depth == 0 {
			v := vals[0]
			vals = vals[1:]
			return gametree.Leaf(v)
		}
		n := gametree.Branch(0)
		for i := 0; i < branching; i++ {
			n.Children = append(n.Children, build(depth-1))
		}
		return n
	}
	return build(depth)
}

// negamax is the exact value of n for its side to move.
func negamax(n *gametree.Node) search.Score {
	if len(n.Children) == 0 {
		return n.Eval
	}
	best := -search.Infinity
	for _, c := range n.Children {
		best = max(best, -negamax(c))
	}
	return best
}

// ordered copies n with every node's children sorted best-first for the
// side to move there, or worst-first.
func ordered(n *gametree.Node, bestFirst bool) *gametree.Node {
	cp := *n
	cp.Children = make([]*gametree.Node, len(n.Children))
	for i, c := range n.Children {
		cp.Children[i] = ordered(c, bestFirst)
	}
	slices.SortFunc(cp.Children, func(a, b *gametree.Node) int {
		// the mover gains what the child loses
		d := cmp.Compare(negamax(a), negamax(b))
		if !bestFirst {
			d = -d
		}
		return d
	})
	return &cp
}

func TestBetterOrderingVisitsFewerNodes(t *testing.T) {
	rng := gametree.NewRNG(77)
	for branching := 2; branching <= 4; branching++ {
		for depth := 1; depth <= 4; depth++ {
			for i := 0; i < 20; i++ {
				t.Run(fmt.Sprintf("b=%d/d=%d/%d", branching, depth, i), func(t *testing.T) {
					is := is.New(t)
					root := uniformTree(rng, branching, depth)
					ab := strategy(t, search.AlgorithmAlphaBeta, search.DefaultOptions())
					best := ab.Search(context.Background(), gametree.New(ordered(root, true)), depth)
					worst := ab.Search(context.Background(), gametree.New(ordered(root, false)), depth)
					is.Equal(best.Score, worst.Score)
					is.Equal(best.Score, negamax(root))
					is.True(best.Nodes <= worst.Nodes)
				})
			}
		}
	}
}

func TestCancelledBeforeStart(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := mustParse(t, "4:[[1 2] [3 4]]")
	for _, algo := range search.Algorithms() {
		tr := gametree.New(root)
		res := strategy(t, algo, search.DefaultOptions()).Search(ctx, tr, 2)
		is.True(res.Aborted)
		is.True(res.HasBestMove)
		is.Equal(res.BestMove, move(0))
		is.Equal(res.Score, search.Score(4))
		is.Equal(res.Nodes, uint64(1))
		is.Equal(len(res.Root), 0)
		is.Equal(tr.Ply(), 0)
		is.Equal(tr.Applies(), 0)
	}
}

func TestCancelledDepthZero(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, algo := range search.Algorithms() {
		tr := gametree.New(mustParse(t, "9:[x-50]"))
		res := strategy(t, algo, search.DefaultOptions()).Search(ctx, tr, 0)
		is.True(res.Aborted)
		is.Equal(res.Score, search.Score(9))
	}
}

func TestCancelledMidSearch(t *testing.T) {
	is := is.New(t)
	opts := search.DefaultOptions()
	opts.StopInterval = 1

	for seed := uint64(1); seed <= 20; seed++ {
		root := gametree.Random(gametree.NewRNG(seed), gametree.DefaultRandomConfig(4))
		for _, algo := range search.Algorithms() {
			ctx, cancel := context.WithCancel(context.Background())
			evals := 0
			eval := search.EvaluatorFunc[tree](func(tr tree) search.Score {
				evals++
				if evals == 10 {
					cancel()
				}
				return gametree.Evaluator(tr)
			})
			s, err := search.New[tree, move](algo, eval, opts)
			is.NoErr(err)

			tr := gametree.New(root)
			res := s.Search(ctx, tr, 4)
			cancel()
			is.Equal(tr.Ply(), 0)
			if !res.Aborted {
				continue
			}
			if len(tr.LegalMoves()) == 0 {
				is.True(!res.HasBestMove)
				continue
			}
			is.True(res.HasBestMove)
			is.True(int(res.BestMove) < len(root.Children))
			for _, rs := range res.Root {
				is.True(rs.Score >= -search.Infinity && rs.Score <= search.Infinity)
			}
		}
	}
}

func TestDepthOutOfRangePanics(t *testing.T) {
	for _, depth := range []int{-1, search.MaxPly + 1} {
		t.Run(fmt.Sprint(depth), func(t *testing.T) {
			is := is.New(t)
			defer func() {
				is.True(recover() != nil)
			}()
			strategy(t, search.AlgorithmAlphaBeta, search.DefaultOptions()).
				Search(context.Background(), gametree.New(gametree.Leaf(0)), depth)
		})
	}
}

func TestNew(t *testing.T) {
	is := is.New(t)
	s, err := search.New[tree, move]("AlphaBeta", gametree.Evaluator, search.DefaultOptions())
	is.NoErr(err)
	is.Equal(s.Name(), search.AlgorithmAlphaBeta)

	s, err = search.New[tree, move]("minimax", gametree.Evaluator, search.DefaultOptions())
	is.NoErr(err)
	is.Equal(s.Name(), search.AlgorithmMinimax)

	_, err = search.New[tree, move]("negascout", gametree.Evaluator, search.DefaultOptions())
	is.True(errors.Is(err, search.ErrUnknownAlgorithm))
}

func TestStrategyReusable(t *testing.T) {
	is := is.New(t)
	s := strategy(t, search.AlgorithmAlphaBeta, search.DefaultOptions())
	root := mustParse(t, "[[3 12] [2 4]]")
	first := s.Search(context.Background(), gametree.New(root), 2)
	second := s.Search(context.Background(), gametree.New(root), 2)
	is.Equal(first.Nodes, second.Nodes)
	is.Equal(first.Stats, second.Stats)
}

func TestProgress(t *testing.T) {
	is := is.New(t)
	var progress atomic.Uint64
	opts := search.DefaultOptions()
	opts.StopInterval = 2
	opts.Progress = &progress
	root := gametree.Random(gametree.NewRNG(7), gametree.DefaultRandomConfig(3))
	res := strategy(t, search.AlgorithmMinimax, opts).Search(context.Background(), gametree.New(root), 3)
	is.Equal(progress.Load(), res.Nodes)
}
