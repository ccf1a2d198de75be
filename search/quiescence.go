package search

import "github.com/samber/lo"

// quiesce extends the search below the nominal depth through noisy moves
// only, until the position is quiet. The mover may always stand pat on
// the static evaluation instead of playing a tactical move, so the
// result is clamped into [alpha, beta] unless the position is terminal.
func (s *searcher[P, M]) quiesce(pos P, alpha, beta Score, ply, qply int) Score {
	checkWindow(alpha, beta, ply)
	if s.visit(ply) {
		return alpha
	}
	s.stats.QuiescenceNodes++

	// Only the rules decide terminality here: a position without noisy
	// moves is simply quiet.
	if o := pos.Outcome(); o != Ongoing {
		return s.terminal(o, ply)
	}

	standPat := s.eval.Evaluate(pos)
	if standPat >= beta {
		s.stats.StandPatCuts++
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}

	noisy := lo.Filter(pos.LegalMoves(), func(m M, _ int) bool {
		return pos.Classify(m).Noisy()
	})
	if len(noisy) == 0 {
		return alpha
	}
	if qply >= s.opts.QuiescenceLimit {
		s.stats.QuiescenceCutoffs++
		return alpha
	}

	for _, m := range noisy {
		pos.Apply(m)
		score := -s.quiesce(pos, -beta, -alpha, ply+1, qply+1)
		pos.Undo()
		if s.stopped {
			return alpha
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}
	return alpha
}
