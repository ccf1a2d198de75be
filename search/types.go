package search

// Score is a position value from the perspective of the side to move at
// the node being scored. Higher is better for the mover.
type Score int32

const (
	// Infinity bounds every score the search can produce. It is the
	// initial window of a root search.
	Infinity Score = 1 << 20
	// MateScore is the magnitude of a mate delivered at the root. Each
	// ply between the root and the mated position shaves one off it, so
	// that shorter mates always compare better than longer ones.
	MateScore Score = 1 << 19
	// MaxPly is the deepest ply whose mate score is still recognised as
	// a mate. Static evaluations must stay inside ±(MateScore-MaxPly).
	MaxPly = 1024
	// DrawScore is the value of stalemate and every other drawn outcome.
	DrawScore Score = 0
)

// Tactic is a set of flags describing what a move does. A move with any
// flag set is noisy and takes part in quiescence search.
type Tactic uint8

const (
	Capture Tactic = 1 << iota
	Check
	Promotion

	Quiet Tactic = 0
)

func (t Tactic) Noisy() bool {
	return t != Quiet
}

func (t Tactic) String() string {
	if t == Quiet {
		return "quiet"
	}
	s := ""
	for _, f := range []struct {
		flag Tactic
		name string
	}{{Capture, "capture"}, {Check, "check"}, {Promotion, "promotion"}} {
		if t&f.flag == 0 {
			continue
		}
		if s != "" {
			s += "+"
		}
		s += f.name
	}
	return s
}

// Outcome is the rules' verdict on a position.
type Outcome int

const (
	Ongoing Outcome = iota
	// Checkmate means the side to move has been mated.
	Checkmate
	// Draw covers stalemate and every rule-based draw.
	Draw
)

func (o Outcome) String() string {
	switch o {
	case Ongoing:
		return "ongoing"
	case Checkmate:
		return "checkmate"
	case Draw:
		return "draw"
	}
	return "unknown"
}

// Position is the game state the search walks. Moves are applied in
// place; every Apply is paired with exactly one Undo before the caller
// returns, restoring the exact prior state.
type Position[M comparable] interface {
	// LegalMoves lists the legal moves in a stable order. The search
	// explores them in this order and breaks ties in its favour.
	LegalMoves() []M
	Apply(m M)
	Undo()
	Outcome() Outcome
	// Classify reports the tactical nature of a legal move of the
	// current position.
	Classify(m M) Tactic
}

// Evaluator scores a position from the perspective of the side to move.
type Evaluator[P any] interface {
	Evaluate(pos P) Score
}

// EvaluatorFunc lets a plain function serve as an Evaluator.
type EvaluatorFunc[P any] func(pos P) Score

func (f EvaluatorFunc[P]) Evaluate(pos P) Score {
	return f(pos)
}

// Bound tells how a reported score relates to the true minimax value.
type Bound uint8

const (
	Exact Bound = iota
	// Lower means the true value is at least the score.
	Lower
	// Upper means the true value is at most the score.
	Upper
)

func (b Bound) String() string {
	switch b {
	case Exact:
		return "exact"
	case Lower:
		return "lower"
	case Upper:
		return "upper"
	}
	return "unknown"
}
