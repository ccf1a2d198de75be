package search

import "context"

// thanks Wikipedia:
/*
function negamax(node, depth, α, β, color) is
    if depth = 0 or node is a terminal node then
        return color × the heuristic value of node

    childNodes := generateMoves(node)
    value := −∞
    foreach child in childNodes do
        value := max(value, −negamax(child, depth − 1, −β, −α, −color))
        α := max(α, value)
        if α ≥ β then
            break (* cut-off *)
    return value
**/

// AlphaBeta is negamax with alpha-beta pruning. It picks the same root
// move with the same root score as Minimax and visits at most as many
// nodes. Scores below the root are fail-soft: a node that cuts off
// reports a bound, not its exact value.
type AlphaBeta[P Position[M], M comparable] struct {
	eval Evaluator[P]
	opts Options
}

func NewAlphaBeta[P Position[M], M comparable](eval Evaluator[P], opts Options) *AlphaBeta[P, M] {
	return &AlphaBeta[P, M]{eval: eval, opts: opts}
}

func (ab *AlphaBeta[P, M]) Name() string {
	return AlgorithmAlphaBeta
}

func (ab *AlphaBeta[P, M]) Search(ctx context.Context, pos P, depth int) Result[M] {
	s := newSearcher[P, M](ctx, ab.eval, ab.opts)
	return s.root(pos, depth, true, s.alphaBeta)
}

// mateWindow narrows (α, β) to the scores reachable at ply: the mover
// can't be mated sooner than now and can't mate sooner than next ply.
func mateWindow(α, β Score, ply int) (Score, Score) {
	if floor := MatedScore(ply); α < floor {
		α = floor
	}
	if ceil := -MatedScore(ply + 1); β > ceil {
		β = ceil
	}
	return α, β
}

func (s *searcher[P, M]) alphaBeta(pos P, depth, ply int, α, β Score) Score {
	checkWindow(α, β, ply)
	if depth == 0 {
		return s.quiesce(pos, α, β, ply, 0)
	}
	if s.visit(ply) {
		return α
	}
	if o := pos.Outcome(); o != Ongoing {
		return s.terminal(o, ply)
	}
	α, β = mateWindow(α, β, ply)
	if α >= β {
		return α
	}
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return s.terminal(Ongoing, ply)
	}

	best := -Infinity
	for _, m := range moves {
		pos.Apply(m)
		score := -s.alphaBeta(pos, depth-1, ply+1, -β, -α)
		pos.Undo()
		if s.stopped {
			return best
		}
		if score > best {
			best = score
		}
		α = max(α, best)
		if α >= β {
			s.stats.Cutoffs++
			break // beta cut-off
		}
	}
	return best
}
