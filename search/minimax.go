package search

import "context"

// Minimax is the exhaustive negamax search: every branch is collapsed
// to its true value down to the nominal depth, with quiescence search
// settling the frontier. It is the reference AlphaBeta must agree with.
type Minimax[P Position[M], M comparable] struct {
	eval Evaluator[P]
	opts Options
}

func NewMinimax[P Position[M], M comparable](eval Evaluator[P], opts Options) *Minimax[P, M] {
	return &Minimax[P, M]{eval: eval, opts: opts}
}

func (mm *Minimax[P, M]) Name() string {
	return AlgorithmMinimax
}

func (mm *Minimax[P, M]) Search(ctx context.Context, pos P, depth int) Result[M] {
	s := newSearcher[P, M](ctx, mm.eval, mm.opts)
	return s.root(pos, depth, false, func(pos P, depth, ply int, _, _ Score) Score {
		return s.minimax(pos, depth, ply)
	})
}

func (s *searcher[P, M]) minimax(pos P, depth, ply int) Score {
	if depth == 0 {
		return s.quiesce(pos, -Infinity, Infinity, ply, 0)
	}
	if s.visit(ply) {
		return 0
	}
	if o := pos.Outcome(); o != Ongoing {
		return s.terminal(o, ply)
	}
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return s.terminal(Ongoing, ply)
	}

	best := -Infinity
	for _, m := range moves {
		pos.Apply(m)
		score := -s.minimax(pos, depth-1, ply+1)
		pos.Undo()
		if s.stopped {
			return best
		}
		if score > best {
			best = score
		}
	}
	return best
}
