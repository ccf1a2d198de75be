package search

// MatedScore is the score of a side that is mated ply plies below the
// root.
func MatedScore(ply int) Score {
	return -(MateScore - Score(ply))
}

// IsMate reports whether s encodes a forced mate for either side.
func IsMate(s Score) bool {
	return s >= MateScore-MaxPly || s <= -(MateScore-MaxPly)
}

// MateDistance returns the number of plies until mate encoded in s:
// positive when the mover mates, negative when the mover is mated and
// zero when s is not a mate score.
func MateDistance(s Score) int {
	switch {
	case s >= MateScore-MaxPly:
		return int(MateScore - s)
	case s <= -(MateScore - MaxPly):
		return -int(MateScore + s)
	}
	return 0
}

// ParentScore converts the score of a search rooted at a child position
// into a score for the parent, one ply up: the perspective flips and a
// mate gets one ply further away.
func ParentScore(child Score) Score {
	s := -child
	switch {
	case s >= MateScore-MaxPly:
		s--
	case s <= -(MateScore - MaxPly):
		s++
	}
	return s
}

// terminalScore scores a position that has no moves to play. Minimax,
// alpha-beta and quiescence all end up here so their mate and draw
// values agree.
func terminalScore(o Outcome, ply int) Score {
	if o == Checkmate {
		return MatedScore(ply)
	}
	// A position without legal moves that the rules don't call mate is
	// stalemate.
	return DrawScore
}
