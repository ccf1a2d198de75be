// Package uci drives an engine over the Universal Chess Interface: one
// command per input line, replies on the output writer.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	notnil "github.com/notnil/chess"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/iammadab/prune/chess"
	"github.com/iammadab/prune/engine"
	"github.com/iammadab/prune/search"
)

const (
	EngineName   = "prune"
	EngineAuthor = "madab"

	// InfiniteDepth caps the deepening of "go infinite" and of clock-only
	// searches; they end on stop, when their time runs out or on a mate.
	InfiniteDepth = 64
	MaxDepth      = InfiniteDepth
)

var errMalformed = errors.New("malformed command")

// Driver reads UCI commands and answers them. Searches run in the
// background so that stop and isready are served while one is running.
type Driver struct {
	engine *engine.Engine
	depth  int

	outMu sync.Mutex
	out   io.Writer

	cancel   context.CancelFunc
	done     chan struct{}
	quitting bool
}

// NewDriver wraps e. depth is used by a bare "go".
func NewDriver(e *engine.Engine, depth int, out io.Writer) *Driver {
	return &Driver{engine: e, depth: depth, out: out}
}

// Loop processes commands from in until quit or end of input. At end of
// input a running search is allowed to finish.
func (d *Driver) Loop(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		d.processCommand(ctx, sc.Text())
		if d.quitting {
			break
		}
	}
	d.wait()
	return sc.Err()
}

func (d *Driver) println(a ...any) {
	d.outMu.Lock()
	defer d.outMu.Unlock()
	fmt.Fprintln(d.out, a...)
}

func (d *Driver) errout(err error) {
	d.println("info string", err.Error())
}

func (d *Driver) processCommand(ctx context.Context, line string) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return
	}
	log.Debug().Str("cmd", line).Msg("uci-command")

	switch strings.ToLower(tokens[0]) {
	case "isready":
		d.println("readyok")
		return
	case "stop":
		d.stop()
		return
	case "quit":
		d.stop()
		d.quitting = true
		return
	}

	// Everything else changes engine state, which a running search owns.
	d.wait()

	var err error
	switch strings.ToLower(tokens[0]) {
	case "uci":
		d.handshake()
	case "ucinewgame":
		d.engine.NewGame()
	case "setoption":
		err = d.setOption(tokens[1:])
	case "position":
		err = d.position(tokens[1:])
	case "go":
		err = d.goCommand(ctx, tokens[1:])
	case "d":
		d.println(d.engine.Position().Draw())
		d.println("Fen:", d.engine.Position().FEN())
		d.println("Key:", fmt.Sprintf("%016x", d.engine.Position().Key()))
	default:
		err = fmt.Errorf("unknown command: %s", line)
	}
	if err != nil {
		d.errout(err)
	}
}

func (d *Driver) handshake() {
	s := d.engine.Settings()
	d.println("id name", EngineName)
	d.println("id author", EngineAuthor)
	d.println(fmt.Sprintf("option name Algorithm type combo default %s %s",
		s.Algorithm, comboVars(search.Algorithms())))
	d.println(fmt.Sprintf("option name Evaluator type combo default %s %s",
		s.Evaluator, comboVars(chess.Evaluators())))
	d.println(fmt.Sprintf("option name Depth type spin default %d min 1 max %d", d.depth, MaxDepth))
	d.println(fmt.Sprintf("option name QuiescenceLimit type spin default %d min 0 max %d",
		s.QuiescenceLimit, search.MaxPly/2))
	d.println(fmt.Sprintf("option name RandomTies type check default %t", s.RandomTies))
	d.println(fmt.Sprintf("option name Seed type string default %d", s.Seed))
	d.println("uciok")
}

func comboVars(names []string) string {
	return strings.Join(lo.Map(names, func(n string, _ int) string {
		return "var " + n
	}), " ")
}

func (d *Driver) setOption(args []string) error {
	vi := lo.IndexOf(args, "value")
	if len(args) < 2 || args[0] != "name" || vi < 2 || vi == len(args)-1 {
		return fmt.Errorf("%w: setoption name <id> value <x>", errMalformed)
	}
	name := strings.ToLower(strings.Join(args[1:vi], " "))
	value := strings.Join(args[vi+1:], " ")

	s := d.engine.Settings()
	switch name {
	case "algorithm":
		s.Algorithm = strings.ToLower(value)
	case "evaluator":
		s.Evaluator = strings.ToLower(value)
	case "depth":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > MaxDepth {
			return fmt.Errorf("depth must be an integer in [1, %d]: %s", MaxDepth, value)
		}
		d.depth = n
		return nil
	case "quiescencelimit":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > search.MaxPly/2 {
			return fmt.Errorf("quiescence limit must be an integer in [0, %d]: %s", search.MaxPly/2, value)
		}
		s.QuiescenceLimit = n
	case "randomties":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("random ties must be true or false: %s", value)
		}
		s.RandomTies = b
	case "seed":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("seed must be an unsigned integer: %s", value)
		}
		s.Seed = n
	default:
		return fmt.Errorf("unknown option: %s", name)
	}
	return d.engine.Configure(s)
}

func (d *Driver) position(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: position startpos|fen <fen> [moves ...]", errMalformed)
	}
	mi := lo.IndexOf(args, "moves")
	var fen, moves []string
	if mi >= 0 {
		fen, moves = args[:mi], args[mi+1:]
	} else {
		fen = args
	}
	switch strings.ToLower(fen[0]) {
	case "startpos":
		if len(fen) != 1 {
			return fmt.Errorf("%w: unexpected %q after startpos", errMalformed, fen[1])
		}
		return d.engine.SetPosition("", moves)
	case "fen":
		return d.engine.SetPosition(strings.Join(fen[1:], " "), moves)
	}
	return fmt.Errorf("%w: unknown position subcommand %s", errMalformed, fen[0])
}

// goParams are the parsed arguments of a go command.
type goParams struct {
	depth    int
	movetime time.Duration
	infinite bool
	wtime    time.Duration
	btime    time.Duration
	winc     time.Duration
	binc     time.Duration
}

func parseGo(args []string, defaultDepth int) (goParams, error) {
	p := goParams{}
	for i := 0; i < len(args); i++ {
		key := strings.ToLower(args[i])
		if key == "infinite" {
			p.infinite = true
			continue
		}
		if i+1 >= len(args) {
			return p, fmt.Errorf("%w: go %s needs a value", errMalformed, key)
		}
		i++
		n, err := strconv.Atoi(args[i])
		if err != nil || n < 0 {
			return p, fmt.Errorf("%w: go %s %s", errMalformed, key, args[i])
		}
		ms := time.Duration(n) * time.Millisecond
		switch key {
		case "depth":
			if n < 1 || n > MaxDepth {
				return p, fmt.Errorf("depth %d out of range [1, %d]", n, MaxDepth)
			}
			p.depth = n
		case "movetime":
			p.movetime = ms
		case "wtime":
			p.wtime = ms
		case "btime":
			p.btime = ms
		case "winc":
			p.winc = ms
		case "binc":
			p.binc = ms
		case "movestogo", "nodes", "mate":
			// accepted and ignored
		default:
			return p, fmt.Errorf("%w: unknown go option %s", errMalformed, key)
		}
	}
	if p.depth == 0 {
		if p.timed() {
			p.depth = InfiniteDepth
		} else {
			p.depth = defaultDepth
		}
	}
	return p, nil
}

// timed reports whether the search runs against a clock or until "stop",
// in which case the depth is deepened one ply at a time.
func (p goParams) timed() bool {
	return p.infinite || p.movetime > 0 || p.wtime > 0 || p.btime > 0
}

// budget is the time the search may use: movetime when given, otherwise a
// sixteenth of the mover's clock, otherwise its increment. Zero means no
// limit.
func (p goParams) budget(turn notnil.Color) time.Duration {
	if p.infinite {
		return 0
	}
	if p.movetime > 0 {
		return p.movetime
	}
	clock, inc := p.wtime, p.winc
	if turn == notnil.Black {
		clock, inc = p.btime, p.binc
	}
	if t := (clock / 16).Truncate(time.Millisecond); t > 0 {
		return t
	}
	return inc
}

func (d *Driver) goCommand(ctx context.Context, args []string) error {
	p, err := parseGo(args, d.depth)
	if err != nil {
		return err
	}
	var cancel context.CancelFunc
	if b := p.budget(d.engine.Position().Turn()); b > 0 {
		ctx, cancel = context.WithTimeout(ctx, b)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	done := make(chan struct{})
	d.cancel, d.done = cancel, done

	go func() {
		defer close(done)
		defer cancel()
		searchFn := d.engine.Search
		if p.timed() {
			searchFn = d.engine.Deepen
		}
		rep, err := searchFn(ctx, p.depth)
		if err != nil {
			d.errout(err)
			d.println("bestmove", chess.NullMove)
			return
		}
		d.println(infoLine(rep))
		d.println("bestmove", rep.Move())
	}()
	return nil
}

// infoLine renders a report as a UCI info line. The score is left out
// when the search was stopped before any root move was searched.
func infoLine(rep engine.Report) string {
	parts := []string{
		"info depth", strconv.Itoa(rep.Depth),
		"seldepth", strconv.Itoa(rep.Stats.SelDepth),
	}
	if !rep.Aborted || len(rep.Root) > 0 {
		parts = append(parts, "score", scoreString(rep.Score))
	}
	parts = append(parts,
		"nodes", strconv.FormatUint(rep.Nodes, 10),
		"time", strconv.FormatInt(rep.Elapsed.Milliseconds(), 10),
	)
	if rep.HasBestMove {
		parts = append(parts, "pv", rep.Move())
	}
	return strings.Join(parts, " ")
}

// scoreString renders s as "cp N" or "mate N", with mate distances in
// full moves and negative when the mover is mated.
func scoreString(s search.Score) string {
	if !search.IsMate(s) {
		return "cp " + strconv.Itoa(int(s))
	}
	plies := search.MateDistance(s)
	if plies > 0 {
		return "mate " + strconv.Itoa((plies+1)/2)
	}
	return "mate " + strconv.Itoa(plies/2)
}

func (d *Driver) stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wait()
}

func (d *Driver) wait() {
	if d.done != nil {
		<-d.done
		d.done, d.cancel = nil, nil
	}
}
