// Package engine turns the search core into a playing engine: it owns
// the current game, chooses the search strategy from configuration and
// picks a move from the search result.
package engine

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/iammadab/prune/chess"
	"github.com/iammadab/prune/config"
	"github.com/iammadab/prune/search"
)

var ErrNoPosition = errors.New("no position set")

type Strategy = search.Strategy[*chess.Position, chess.Move]

// Settings choose the strategy and the move-selection policy.
type Settings struct {
	Algorithm       string
	Evaluator       string
	QuiescenceLimit int
	StopInterval    uint64
	RandomTies      bool
	Seed            uint64
}

func DefaultSettings() Settings {
	return Settings{
		Algorithm:       search.AlgorithmAlphaBeta,
		Evaluator:       chess.EvaluatorMaterial,
		QuiescenceLimit: search.DefaultQuiescenceLimit,
		StopInterval:    search.DefaultStopInterval,
	}
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Algorithm:       cfg.GetString(config.ConfigAlgorithm),
		Evaluator:       cfg.GetString(config.ConfigEvaluator),
		QuiescenceLimit: cfg.GetInt(config.ConfigQuiescenceLimit),
		StopInterval:    cfg.GetUint64(config.ConfigStopInterval),
		RandomTies:      cfg.GetBool(config.ConfigRandomTies),
		Seed:            cfg.GetUint64(config.ConfigRngSeed),
	}
}

// Engine is not safe for concurrent use; callers serialize commands and
// searches.
type Engine struct {
	settings Settings
	strategy Strategy
	eval     search.Evaluator[*chess.Position]
	progress atomic.Uint64
	pos      *chess.Position
	rng      *frand.RNG
}

func New(s Settings) (*Engine, error) {
	e := &Engine{pos: chess.Startpos()}
	if err := e.Configure(s); err != nil {
		return nil, err
	}
	return e, nil
}

// Configure rebuilds the strategy. It is the only place a strategy is
// chosen; searches never switch algorithms.
func (e *Engine) Configure(s Settings) error {
	eval, err := chess.EvaluatorByName(s.Evaluator)
	if err != nil {
		return err
	}
	opts := search.Options{
		QuiescenceLimit: s.QuiescenceLimit,
		StopInterval:    s.StopInterval,
		Progress:        &e.progress,
	}
	strategy, err := search.New[*chess.Position, chess.Move](s.Algorithm, eval, opts)
	if err != nil {
		return err
	}
	reseed := e.rng == nil || s.Seed != e.settings.Seed
	e.settings, e.strategy, e.eval = s, strategy, eval
	if reseed {
		e.Reseed()
	}
	log.Debug().
		Str("algorithm", strategy.Name()).
		Str("evaluator", s.Evaluator).
		Int("quiescence-limit", s.QuiescenceLimit).
		Bool("random-ties", s.RandomTies).
		Uint64("seed", s.Seed).
		Msg("engine-configured")
	return nil
}

func (e *Engine) Settings() Settings {
	return e.settings
}

func (e *Engine) StrategyName() string {
	return e.strategy.Name()
}

func (e *Engine) Evaluate() search.Score {
	return e.eval.Evaluate(e.pos)
}

// Reseed restarts the tie-break generator from the configured seed, so
// the same seed replays the same choices.
func (e *Engine) Reseed() {
	key := make([]byte, 32)
	binary.LittleEndian.PutUint64(key, e.settings.Seed)
	e.rng = frand.NewCustom(key, 1024, 12)
}

// NewGame resets to the starting position.
func (e *Engine) NewGame() {
	e.pos = chess.Startpos()
	e.Reseed()
}

// SetPosition loads fen (the starting position when empty) and plays
// moves on it. On error the previous position is kept.
func (e *Engine) SetPosition(fen string, moves []string) error {
	var pos *chess.Position
	if fen == "" {
		pos = chess.Startpos()
	} else {
		var err error
		pos, err = chess.FromFEN(fen)
		if err != nil {
			return err
		}
	}
	for _, m := range moves {
		if err := pos.Play(m); err != nil {
			return err
		}
	}
	e.pos = pos
	return nil
}

// Play plays moves on the current position.
func (e *Engine) Play(moves ...string) error {
	if e.pos == nil {
		return ErrNoPosition
	}
	pos := e.pos.Clone()
	for _, m := range moves {
		if err := pos.Play(m); err != nil {
			return err
		}
	}
	e.pos = pos
	return nil
}

func (e *Engine) Position() *chess.Position {
	return e.pos
}

// Report is the engine's answer to one search request.
type Report struct {
	search.Result[chess.Move]
	Depth int
	// Ties are the root moves proven to share the best score; the chosen
	// move is one of them.
	Ties    []chess.Move
	Elapsed time.Duration
}

// Move returns the chosen move in UCI notation, or the null move.
func (r Report) Move() string {
	if !r.HasBestMove {
		return chess.NullMove
	}
	return r.BestMove.String()
}

// Search searches the current position to depth and picks a move. A
// cancelled ctx stops the search early; the report is still usable.
func (e *Engine) Search(ctx context.Context, depth int) (Report, error) {
	if e.pos == nil {
		return Report{}, ErrNoPosition
	}
	if depth < 1 || depth > search.MaxPly {
		return Report{}, fmt.Errorf("depth %d out of range [1, %d]", depth, search.MaxPly)
	}
	pos := e.pos.Clone()
	tstart := time.Now()
	e.progress.Store(0)

	var res search.Result[chess.Move]
	g := &errgroup.Group{}
	done := make(chan bool)

	g.Go(func() error {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		var lastNodes uint64
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				nodes := e.progress.Load()
				log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
				lastNodes = nodes
			}
		}
	})

	g.Go(func() error {
		defer close(done)
		res = e.strategy.Search(ctx, pos, depth)
		return nil
	})

	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	rep := Report{Result: res, Depth: depth}
	if res.HasBestMove {
		rep.Ties = []chess.Move{res.BestMove}
		if e.settings.RandomTies && !res.Aborted {
			rep.Ties = e.ties(ctx, pos, depth, res)
			rep.BestMove = rep.Ties[e.rng.Intn(len(rep.Ties))]
		}
	}
	rep.Elapsed = time.Since(tstart)

	log.Info().
		Str("algorithm", e.strategy.Name()).
		Int("depth", depth).
		Str("best", rep.Move()).
		Int32("score", int32(rep.Score)).
		Uint64("nodes", rep.Nodes).
		Int("seldepth", rep.Stats.SelDepth).
		Int("ties", len(rep.Ties)).
		Bool("aborted", rep.Aborted).
		Float64("time-elapsed-sec", rep.Elapsed.Seconds()).
		Msg("search-done")
	return rep, nil
}

// Deepen searches depth 1, 2, ... up to maxDepth until ctx is done and
// returns the report of the deepest search that finished. Nodes and
// Elapsed cover every iteration. A proven mate ends the loop early since
// no deeper search can improve on it. Only when depth 1 itself is cut short
// is the returned report aborted.
func (e *Engine) Deepen(ctx context.Context, maxDepth int) (Report, error) {
	if maxDepth < 1 || maxDepth > search.MaxPly {
		return Report{}, fmt.Errorf("depth %d out of range [1, %d]", maxDepth, search.MaxPly)
	}
	tstart := time.Now()
	var best Report
	var nodes uint64
	for depth := 1; depth <= maxDepth; depth++ {
		rep, err := e.Search(ctx, depth)
		if err != nil {
			return Report{}, err
		}
		nodes += rep.Nodes
		if rep.Aborted && depth > 1 {
			break
		}
		best = rep
		if rep.Aborted || !rep.HasBestMove || search.IsMate(rep.Score) {
			break
		}
	}
	best.Nodes = nodes
	best.Elapsed = time.Since(tstart)
	log.Debug().Int("depth", best.Depth).Str("best", best.Move()).
		Uint64("nodes", nodes).Msg("deepening-done")
	return best, nil
}

// ties collects every root move whose exact score equals the best one.
// Moves that were only bounded at the best score are searched again on
// their own to settle whether they really tie.
func (e *Engine) ties(ctx context.Context, pos *chess.Position, depth int, res search.Result[chess.Move]) []chess.Move {
	exact, unresolved := res.Candidates()
	for _, m := range unresolved {
		pos.Apply(m)
		child := e.strategy.Search(ctx, pos, depth-1)
		pos.Undo()
		if child.Aborted {
			break
		}
		if search.ParentScore(child.Score) == res.Score {
			exact = append(exact, m)
		}
		log.Debug().Str("move", m.String()).
			Int32("score", int32(search.ParentScore(child.Score))).
			Msg("tie-re-search")
	}
	return exact
}
