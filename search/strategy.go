package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

// Strategy is a game-tree search. Minimax and AlphaBeta share this
// contract and differ only in how much of the tree they visit.
type Strategy[P Position[M], M comparable] interface {
	Search(ctx context.Context, pos P, depth int) Result[M]
	Name() string
}

const (
	AlgorithmMinimax   = "minimax"
	AlgorithmAlphaBeta = "alphabeta"

	DefaultQuiescenceLimit = 32
	DefaultStopInterval    = 1024
)

var ErrUnknownAlgorithm = errors.New("unknown search algorithm")

// Options tune a strategy. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	// QuiescenceLimit caps how many noisy plies quiescence search may
	// chain below the nominal depth. Zero evaluates the frontier
	// statically.
	QuiescenceLimit int
	// StopInterval is how many nodes pass between two polls of the
	// search context.
	StopInterval uint64
	// Progress, if set, receives the running node count at every poll so
	// other goroutines can watch a search in flight.
	Progress *atomic.Uint64
}

func DefaultOptions() Options {
	return Options{
		QuiescenceLimit: DefaultQuiescenceLimit,
		StopInterval:    DefaultStopInterval,
	}
}

// Algorithms lists the names New accepts.
func Algorithms() []string {
	return []string{AlgorithmMinimax, AlgorithmAlphaBeta}
}

// New builds the strategy named by algorithm.
func New[P Position[M], M comparable](algorithm string, eval Evaluator[P], opts Options) (Strategy[P, M], error) {
	switch strings.ToLower(algorithm) {
	case AlgorithmMinimax:
		return NewMinimax[P, M](eval, opts), nil
	case AlgorithmAlphaBeta:
		return NewAlphaBeta[P, M](eval, opts), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
}
