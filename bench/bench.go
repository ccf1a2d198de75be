// Package bench measures how well the search strategies solve forced
// mate puzzles.
package bench

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/iammadab/prune/engine"
	"github.com/iammadab/prune/search"
)

// Attempt is the solver's result on one puzzle.
type Attempt struct {
	Puzzle  Puzzle
	Solved  bool
	Nodes   uint64
	Elapsed time.Duration
	// Played is the first wrong move, if any.
	Played string
	// Invalid is set when the puzzle itself could not be played through.
	Invalid error
}

// Config sets up a bench run.
type Config struct {
	Settings engine.Settings
	// Depth is the search depth per move; zero uses 2*mate-1 plies, the
	// least depth that can see the mate.
	Depth   int
	Threads int
	// MoveTime caps each search; zero means no cap. Capped searches deepen
	// one ply at a time up to Depth.
	MoveTime time.Duration
}

func (c Config) depthFor(p Puzzle) int {
	if c.Depth > 0 {
		return c.Depth
	}
	return max(1, 2*p.Mate-1)
}

// Solve plays through p with e. The engine must find every one of the
// solver's moves; on the last move any mate is accepted, as lichess does.
func Solve(ctx context.Context, e *engine.Engine, p Puzzle, depth int, moveTime time.Duration) (Attempt, error) {
	tstart := time.Now()
	a, err := solve(ctx, e, p, depth, moveTime)
	a.Elapsed = time.Since(tstart)
	return a, err
}

func solve(ctx context.Context, e *engine.Engine, p Puzzle, depth int, moveTime time.Duration) (Attempt, error) {
	a := Attempt{Puzzle: p}
	if err := e.SetPosition(p.FEN, p.Moves[:1]); err != nil {
		return a, fmt.Errorf("puzzle %s: %w", p.ID, err)
	}
	for i := 1; i < len(p.Moves); i++ {
		expected := p.Moves[i]
		if i%2 == 0 {
			if err := e.Play(expected); err != nil {
				return a, fmt.Errorf("puzzle %s: %w", p.ID, err)
			}
			continue
		}
		rep, err := timedSearch(ctx, e, depth, moveTime)
		if err != nil {
			return a, err
		}
		a.Nodes += rep.Nodes
		played := rep.Move()
		if played == expected {
			if err := e.Play(expected); err != nil {
				return a, fmt.Errorf("puzzle %s: %w", p.ID, err)
			}
			continue
		}
		if i == len(p.Moves)-1 && mates(e, played) {
			break
		}
		a.Played = played
		return a, ctx.Err()
	}
	a.Solved = true
	return a, nil
}

// timedSearch searches to depth. Under a time cap it deepens instead, so
// the cap cuts off a deeper iteration rather than the only one.
func timedSearch(ctx context.Context, e *engine.Engine, depth int, moveTime time.Duration) (engine.Report, error) {
	if moveTime <= 0 {
		return e.Search(ctx, depth)
	}
	ctx, cancel := context.WithTimeout(ctx, moveTime)
	defer cancel()
	return e.Deepen(ctx, depth)
}

func mates(e *engine.Engine, move string) bool {
	pos := e.Position().Clone()
	if err := pos.Play(move); err != nil {
		return false
	}
	return pos.Outcome() == search.Checkmate
}

// Run solves every puzzle with each algorithm and aggregates the results.
func Run(ctx context.Context, cfg Config, algorithms []string, puzzles []Puzzle) (*Report, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	rep := &Report{Depth: cfg.Depth, Threads: threads}
	for _, algo := range algorithms {
		settings := cfg.Settings
		settings.Algorithm = algo
		attempts, err := runAlgorithm(ctx, cfg, settings, threads, puzzles)
		if err != nil {
			return nil, err
		}
		er := summarize(algo, attempts)
		log.Info().Str("algorithm", algo).
			Int("solved", er.Total.Solved).
			Int("total", er.Total.Puzzles).
			Float64("seconds", er.Total.Seconds).
			Msg("bench-algorithm-done")
		rep.Engines = append(rep.Engines, er)
	}
	return rep, nil
}

func runAlgorithm(ctx context.Context, cfg Config, settings engine.Settings, threads int, puzzles []Puzzle) ([]Attempt, error) {
	attempts := make([]Attempt, len(puzzles))
	jobs := make(chan int)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for i := range puzzles {
			select {
			case jobs <- i:
			case <-ctx.Done():
				log.Info().Msg("got stop signal, exiting soon...")
				return ctx.Err()
			}
		}
		return nil
	})

	for t := 0; t < threads; t++ {
		g.Go(func() error {
			e, err := engine.New(settings)
			if err != nil {
				return err
			}
			for i := range jobs {
				p := puzzles[i]
				a, err := Solve(ctx, e, p, cfg.depthFor(p), cfg.MoveTime)
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if err != nil {
					log.Warn().Err(err).Str("puzzle", p.ID).Msg("skipping-puzzle")
					a.Invalid = err
				}
				log.Debug().Str("puzzle", p.ID).Int("mate", p.Mate).
					Bool("solved", a.Solved).Str("played", a.Played).
					Uint64("nodes", a.Nodes).Msg("puzzle-done")
				attempts[i] = a
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return attempts, nil
}

func mateCounts(attempts []Attempt) []int {
	mates := lo.Uniq(lo.Map(attempts, func(a Attempt, _ int) int {
		return a.Puzzle.Mate
	}))
	slices.Sort(mates)
	return mates
}
