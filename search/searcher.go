package search

import (
	"context"
	"fmt"
)

// searcher is the per-call state of one search. It is never shared
// between calls, so a Strategy value can be reused sequentially.
type searcher[P Position[M], M comparable] struct {
	ctx     context.Context
	eval    Evaluator[P]
	opts    Options
	stats   Stats
	stopped bool
}

func newSearcher[P Position[M], M comparable](ctx context.Context, eval Evaluator[P], opts Options) *searcher[P, M] {
	if opts.StopInterval == 0 {
		opts.StopInterval = 1
	}
	if opts.QuiescenceLimit < 0 {
		opts.QuiescenceLimit = 0
	}
	return &searcher[P, M]{ctx: ctx, eval: eval, opts: opts}
}

// visit accounts for one node at ply and polls the context every
// StopInterval nodes. It returns true once the search has to unwind.
func (s *searcher[P, M]) visit(ply int) bool {
	if s.stopped {
		return true
	}
	s.stats.Nodes++
	if ply > s.stats.SelDepth {
		s.stats.SelDepth = ply
	}
	if ply == 0 || s.stats.Nodes%s.opts.StopInterval == 0 {
		if s.opts.Progress != nil {
			s.opts.Progress.Store(s.stats.Nodes)
		}
		if s.ctx.Err() != nil {
			s.stopped = true
		}
	}
	return s.stopped
}

func (s *searcher[P, M]) terminal(o Outcome, ply int) Score {
	s.stats.TerminalNodes++
	return terminalScore(o, ply)
}

func checkWindow(alpha, beta Score, ply int) {
	if alpha >= beta {
		panic(fmt.Sprintf("search: malformed window (%d, %d) at ply %d", alpha, beta, ply))
	}
}

func checkDepth(depth int) {
	if depth < 0 || depth > MaxPly {
		panic(fmt.Sprintf("search: depth %d out of range [0, %d]", depth, MaxPly))
	}
}

// child searches the subtree below a root move. alpha and beta are the
// root's window; minimax ignores them.
type child[P any] func(pos P, depth, ply int, alpha, beta Score) Score

// root runs the shared root loop. Both strategies keep the first move
// that reaches the best score, so their choices agree whenever their
// scores do.
func (s *searcher[P, M]) root(pos P, depth int, pruning bool, search child[P]) Result[M] {
	checkDepth(depth)
	if depth == 0 {
		score := s.quiesce(pos, -Infinity, Infinity, 0, 0)
		if s.stopped {
			score = s.eval.Evaluate(pos)
		}
		return s.result(Result[M]{Score: score})
	}

	s.visit(0)
	if o := pos.Outcome(); o != Ongoing {
		return s.result(Result[M]{Score: s.terminal(o, 0)})
	}
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return s.result(Result[M]{Score: s.terminal(Ongoing, 0)})
	}

	alpha, beta := -Infinity, Infinity
	if pruning {
		alpha, beta = mateWindow(alpha, beta, 0)
	}
	res := Result[M]{Score: -Infinity}
	for _, m := range moves {
		if s.stopped {
			break
		}
		pos.Apply(m)
		score := -search(pos, depth-1, 1, -beta, -alpha)
		pos.Undo()
		if s.stopped {
			// This subtree was cut short; its score means nothing.
			break
		}

		bound := Exact
		if pruning {
			if score <= alpha {
				bound = Upper
			} else if score >= beta {
				bound = Lower
			}
		}
		res.Root = append(res.Root, RootScore[M]{Move: m, Score: score, Bound: bound})
		if score > res.Score {
			res.Score = score
			res.BestMove = m
			res.HasBestMove = true
		}
		if pruning {
			if score > alpha {
				alpha = score
			}
			if alpha >= beta {
				s.stats.Cutoffs++
				break
			}
		}
	}
	if !res.HasBestMove {
		// Stopped before any root move finished.
		res.BestMove = moves[0]
		res.HasBestMove = true
		res.Score = s.eval.Evaluate(pos)
	}
	return s.result(res)
}

func (s *searcher[P, M]) result(res Result[M]) Result[M] {
	if s.opts.Progress != nil {
		s.opts.Progress.Store(s.stats.Nodes)
	}
	res.Stats = s.stats
	res.Nodes = s.stats.Nodes
	res.Aborted = s.stopped
	return res
}
