package search

import "fmt"

// Stats counts what a single search did. Nodes includes the
// quiescence nodes.
type Stats struct {
	Nodes             uint64 // #nodes visited (tree + quiescence)
	QuiescenceNodes   uint64 // #nodes visited in quiescence
	TerminalNodes     uint64 // #mate/draw nodes
	Cutoffs           uint64 // #tree nodes that stopped early on alpha >= beta
	StandPatCuts      uint64 // #quiescence nodes that failed high on stand-pat
	QuiescenceCutoffs uint64 // #quiescence nodes that hit QuiescenceLimit
	SelDepth          int    // deepest ply reached
}

func (s Stats) String() string {
	return fmt.Sprintf("nodes: %d qnodes: %d terminal: %d cuts: %d pat-cuts: %d q-limit: %d seldepth: %d",
		s.Nodes, s.QuiescenceNodes, s.TerminalNodes, s.Cutoffs, s.StandPatCuts,
		s.QuiescenceCutoffs, s.SelDepth)
}

// RootScore is the outcome of searching one root move.
type RootScore[M comparable] struct {
	Move  M
	Score Score
	Bound Bound
}

// Result is what a search hands back to its caller.
type Result[M comparable] struct {
	// BestMove is only meaningful when HasBestMove is set. It is unset
	// for a terminal root and for a depth-zero search.
	BestMove    M
	HasBestMove bool
	Score       Score
	Nodes       uint64
	Stats       Stats
	// Root holds every root move whose subtree was searched to
	// completion, in search order.
	Root []RootScore[M]
	// Aborted is set when the context was cancelled before the search
	// finished. The result is the best one found up to that point. If Root
	// is empty no root move finished: BestMove is the first legal move and
	// Score is only the static evaluation of the root.
	Aborted bool
}

// Candidates returns the best move together with every other root move
// whose exact score equals the best score, and separately the root moves
// whose bound ties the best score without proving it. The latter need a
// re-search before they count as ties.
func (r Result[M]) Candidates() (exact []M, unresolved []M) {
	if !r.HasBestMove {
		return nil, nil
	}
	for _, rs := range r.Root {
		if rs.Score != r.Score {
			continue
		}
		if rs.Move == r.BestMove || rs.Bound == Exact {
			exact = append(exact, rs.Move)
		} else {
			unresolved = append(unresolved, rs.Move)
		}
	}
	return exact, unresolved
}
