package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/iammadab/prune/chess"
	"github.com/iammadab/prune/config"
	"github.com/iammadab/prune/engine"
	"github.com/iammadab/prune/gametree"
	"github.com/iammadab/prune/search"
)

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) DurationDefault(key string, defaultD time.Duration) (time.Duration, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultD, nil
	}
	return time.ParseDuration(v[0])
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (sc *ShellController) position(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: position startpos|fen <fen> [moves ...]")
	}
	args := cmd.args
	moves := []string{}
	if mi := lo.IndexOf(args, "moves"); mi >= 0 {
		args, moves = args[:mi], args[mi+1:]
	}
	var fen string
	switch args[0] {
	case "startpos":
	case "fen":
		fen = strings.Join(args[1:], " ")
	default:
		return nil, fmt.Errorf("unknown position %s", args[0])
	}
	if err := sc.engine.SetPosition(fen, moves); err != nil {
		return nil, err
	}
	return msg(sc.engine.Position().Draw()), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: play <move> [move ...]")
	}
	if err := sc.engine.Play(cmd.args...); err != nil {
		return nil, err
	}
	return msg(sc.engine.Position().Draw()), nil
}

func (sc *ShellController) moves(cmd *shellcmd) (*Response, error) {
	pos := sc.engine.Position()
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return msg("no legal moves (" + pos.Outcome().String() + ")"), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d moves in search order\n", len(moves))
	for i, m := range moves {
		fmt.Fprintf(&sb, "%3d: %-6s %s\n", i+1, m, pos.Classify(m))
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

func (sc *ShellController) goSearch(cmd *shellcmd) (*Response, error) {
	depth, err := cmd.options.IntDefault("depth", sc.depth)
	if err != nil {
		return nil, err
	}
	maxtime, err := cmd.options.DurationDefault("maxtime", 0)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	searchFn := sc.engine.Search
	if maxtime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, maxtime)
		defer cancel()
		searchFn = sc.engine.Deepen
	}
	rep, err := searchFn(ctx, depth)
	if err != nil {
		return nil, err
	}
	return msg(reportText(sc.engine.StrategyName(), rep)), nil
}

func reportText(algo string, rep engine.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s depth %d: best %s score %s\n", algo, rep.Depth, rep.Move(), scoreText(rep.Score))
	fmt.Fprintf(&sb, "%s\n", rep.Stats)
	if len(rep.Ties) > 1 {
		fmt.Fprintf(&sb, "ties: %s\n", strings.Join(lo.Map(rep.Ties, func(m chess.Move, _ int) string {
			return m.String()
		}), " "))
	}
	if rep.Aborted {
		sb.WriteString("search was stopped early\n")
	}
	fmt.Fprintf(&sb, "time: %s", rep.Elapsed.Round(time.Millisecond))
	return sb.String()
}

func scoreText(s search.Score) string {
	d := search.MateDistance(s)
	switch {
	case d > 0:
		return fmt.Sprintf("mate in %d plies", d)
	case d < 0 || s == search.MatedScore(0):
		return fmt.Sprintf("mated in %d plies", -d)
	}
	return strconv.Itoa(int(s))
}

func (sc *ShellController) algo(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(fmt.Sprintf("%s (available: %s)", sc.engine.StrategyName(),
			strings.Join(search.Algorithms(), ", "))), nil
	}
	s := sc.engine.Settings()
	s.Algorithm = cmd.args[0]
	if err := sc.engine.Configure(s); err != nil {
		return nil, err
	}
	return msg("algorithm set to " + sc.engine.StrategyName()), nil
}

func (sc *ShellController) eval(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) > 0 {
		s := sc.engine.Settings()
		s.Evaluator = cmd.args[0]
		if err := sc.engine.Configure(s); err != nil {
			return nil, err
		}
	}
	return msg(fmt.Sprintf("%s: %d", sc.engine.Settings().Evaluator, sc.engine.Evaluate())), nil
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	s := sc.engine.Settings()
	if len(cmd.args) == 0 {
		return msg(fmt.Sprintf("%s: %s\n%s: %s\n%s: %d\n%s: %d\n%s: %d\n%s: %t\n%s: %d",
			config.ConfigAlgorithm, s.Algorithm,
			config.ConfigEvaluator, s.Evaluator,
			config.ConfigDepth, sc.depth,
			config.ConfigQuiescenceLimit, s.QuiescenceLimit,
			config.ConfigStopInterval, s.StopInterval,
			config.ConfigRandomTies, s.RandomTies,
			config.ConfigRngSeed, s.Seed)), nil
	}
	if len(cmd.args) != 2 {
		return nil, errors.New("usage: set <option> <value>")
	}
	opt, val := cmd.args[0], cmd.args[1]
	var err error
	switch opt {
	case config.ConfigAlgorithm:
		s.Algorithm = val
	case config.ConfigEvaluator:
		s.Evaluator = val
	case config.ConfigDepth:
		var n int
		n, err = strconv.Atoi(val)
		if err == nil && (n < 1 || n > search.MaxPly) {
			err = fmt.Errorf("depth %d out of range [1, %d]", n, search.MaxPly)
		}
		if err != nil {
			return nil, err
		}
		sc.depth = n
		return msg("set depth to " + val), nil
	case config.ConfigQuiescenceLimit:
		s.QuiescenceLimit, err = strconv.Atoi(val)
	case config.ConfigStopInterval:
		s.StopInterval, err = strconv.ParseUint(val, 10, 64)
	case config.ConfigRandomTies:
		s.RandomTies, err = strconv.ParseBool(val)
	case config.ConfigRngSeed:
		s.Seed, err = strconv.ParseUint(val, 10, 64)
	default:
		return nil, fmt.Errorf("unknown option %s", opt)
	}
	if err != nil {
		return nil, err
	}
	if err := sc.engine.Configure(s); err != nil {
		return nil, err
	}
	return msg("set " + opt + " to " + val), nil
}

// tree searches a game tree written in the gametree notation with every
// algorithm, side by side, so their node counts can be compared.
func (sc *ShellController) tree(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New(`usage: tree "<tree>" [-depth N] [-qlimit N]`)
	}
	root, err := gametree.Parse(strings.Join(cmd.args, " "))
	if err != nil {
		return nil, err
	}
	depth, err := cmd.options.IntDefault("depth", 0)
	if err != nil {
		return nil, err
	}
	if depth == 0 {
		depth = treeHeight(root)
	}
	opts := search.DefaultOptions()
	opts.QuiescenceLimit, err = cmd.options.IntDefault("qlimit", opts.QuiescenceLimit)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d nodes), depth %d\n", gametree.Format(root), root.Size(), depth)
	for _, name := range search.Algorithms() {
		s, err := search.New[*gametree.Tree, gametree.Move](name, gametree.Evaluator, opts)
		if err != nil {
			return nil, err
		}
		res := s.Search(context.Background(), gametree.New(root), depth)
		best := "-"
		if res.HasBestMove {
			best = res.BestMove.String()
		}
		fmt.Fprintf(&sb, "%-9s best %-3s score %-6s %s\n", name, best, scoreText(res.Score), res.Stats)
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

func treeHeight(n *gametree.Node) int {
	h := 0
	for _, c := range n.Children {
		h = max(h, treeHeight(c)+1)
	}
	return h
}
