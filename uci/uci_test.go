package uci

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	notnil "github.com/notnil/chess"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iammadab/prune/engine"
	"github.com/iammadab/prune/search"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

const mateInOne = "2kr1b1r/p1p2pp1/2pqb3/7p/3N2n1/2NPB3/PPP2PPP/R2Q1RK1 w - - 2 13"

func newDriver(t *testing.T) (*Driver, *engine.Engine, *bytes.Buffer) {
	s := engine.DefaultSettings()
	s.QuiescenceLimit = 4
	e, err := engine.New(s)
	require.NoError(t, err)
	out := &bytes.Buffer{}
	return NewDriver(e, 2, out), e, out
}

func run(t *testing.T, d *Driver, script ...string) {
	in := strings.NewReader(strings.Join(script, "\n") + "\n")
	require.NoError(t, d.Loop(context.Background(), in))
}

func lines(out *bytes.Buffer) []string {
	return strings.Split(strings.TrimSpace(out.String()), "\n")
}

func TestHandshake(t *testing.T) {
	d, _, out := newDriver(t)
	run(t, d, "uci", "isready", "quit")
	got := lines(out)
	assert.Equal(t, "id name prune", got[0])
	assert.Equal(t, "id author madab", got[1])
	assert.Contains(t, got, "option name Algorithm type combo default alphabeta var minimax var alphabeta")
	assert.Contains(t, got, "option name Depth type spin default 2 min 1 max 64")
	assert.Contains(t, got, "option name RandomTies type check default false")
	assert.Equal(t, "uciok", got[len(got)-2])
	assert.Equal(t, "readyok", got[len(got)-1])
}

func TestQuitStopsReading(t *testing.T) {
	d, _, out := newDriver(t)
	run(t, d, "quit", "isready")
	assert.Empty(t, out.String())
}

func TestInvalidFEN(t *testing.T) {
	d, e, out := newDriver(t)
	run(t, d, "position startpos moves e2e4", "position fen 8/8/8/8/8/8/8/8 w - - 0 1")
	assert.Equal(t, "info string invalid FEN: missing white king", strings.TrimSpace(out.String()))
	// the previous position survives
	assert.Equal(t, notnil.Black, e.Position().Turn())
}

func TestPositionErrors(t *testing.T) {
	d, _, out := newDriver(t)
	run(t, d,
		"position",
		"position startpos e2e4",
		"position somewhere",
		"position startpos moves e2e5",
	)
	got := lines(out)
	require.Len(t, got, 4)
	for _, l := range got {
		assert.True(t, strings.HasPrefix(l, "info string "), l)
	}
	assert.Contains(t, got[3], "e2e5")
}

func TestGoFindsMate(t *testing.T) {
	d, _, out := newDriver(t)
	run(t, d, "position fen "+mateInOne+" moves d4e6", "go depth 1")
	got := lines(out)
	require.Len(t, got, 2)
	assert.True(t, strings.HasPrefix(got[0], "info depth 1 "), got[0])
	assert.Contains(t, got[0], "score mate 1")
	assert.Contains(t, got[0], "pv d6h2")
	assert.Equal(t, "bestmove d6h2", got[1])
}

func TestGoWithoutMoves(t *testing.T) {
	d, _, out := newDriver(t)
	run(t, d, "position startpos moves f2f3 e7e5 g2g4 d8h4", "go")
	got := lines(out)
	require.Len(t, got, 2)
	assert.Contains(t, got[0], "score mate 0")
	assert.NotContains(t, got[0], " pv ")
	assert.Equal(t, "bestmove 0000", got[1])
}

func TestStopInfinite(t *testing.T) {
	d, e, out := newDriver(t)
	run(t, d, "go infinite", "stop", "isready")
	got := lines(out)
	require.Len(t, got, 3)
	assert.True(t, strings.HasPrefix(got[1], "bestmove "), got[1])
	assert.NoError(t, e.Position().Clone().Play(strings.TrimPrefix(got[1], "bestmove ")))
	assert.Equal(t, "readyok", got[2])
}

// Ra8 mates, but the capture on d1 is ordered first.
const backRank = "6k1/5ppp/8/8/8/8/8/R2n2K1 w - - 0 1"

func TestMovetimeFindsMate(t *testing.T) {
	d, _, out := newDriver(t)
	start := time.Now()
	run(t, d, "position fen "+backRank, "go movetime 5000")
	// the mate ends the deepening long before the time is up
	assert.Less(t, time.Since(start), 4*time.Second)
	got := lines(out)
	require.Len(t, got, 2)
	assert.True(t, strings.HasPrefix(got[0], "info depth 1 "), got[0])
	assert.Contains(t, got[0], "score mate 1")
	assert.Equal(t, "bestmove a1a8", got[1])
}

func TestClockFindsMate(t *testing.T) {
	d, _, out := newDriver(t)
	run(t, d, "position fen "+backRank, "go wtime 60000 btime 60000 winc 1000 binc 1000")
	got := lines(out)
	require.Len(t, got, 2)
	assert.Contains(t, got[0], "score mate 1")
	assert.Equal(t, "bestmove a1a8", got[1])
}

func TestMovetimeDeepens(t *testing.T) {
	d, e, out := newDriver(t)
	run(t, d, "go movetime 300")
	got := lines(out)
	require.Len(t, got, 2)
	assert.NotContains(t, got[0], "info depth 64 ")
	assert.Contains(t, got[0], " score cp ")
	move := strings.TrimPrefix(got[1], "bestmove ")
	assert.NoError(t, e.Position().Clone().Play(move))
}

func TestInfoLineWithoutSearchedMoves(t *testing.T) {
	rep := engine.Report{Depth: 1}
	rep.Aborted = true
	rep.Score = 35
	assert.NotContains(t, infoLine(rep), "score")

	rep.Aborted = false
	assert.Contains(t, infoLine(rep), "score cp 35")
}

func TestSetOption(t *testing.T) {
	d, e, out := newDriver(t)
	run(t, d,
		"setoption name Algorithm value minimax",
		"setoption name Evaluator value pst",
		"setoption name QuiescenceLimit value 1",
		"setoption name RandomTies value true",
		"setoption name Seed value 42",
		"setoption name Depth value 3",
	)
	assert.Empty(t, out.String())
	assert.Equal(t, search.AlgorithmMinimax, e.StrategyName())
	s := e.Settings()
	assert.Equal(t, "pst", s.Evaluator)
	assert.Equal(t, 1, s.QuiescenceLimit)
	assert.True(t, s.RandomTies)
	assert.Equal(t, uint64(42), s.Seed)
	assert.Equal(t, 3, d.depth)
}

func TestSetOptionErrors(t *testing.T) {
	d, e, out := newDriver(t)
	run(t, d,
		"setoption name Algorithm value mcts",
		"setoption name Depth value 0",
		"setoption name Depth value x",
		"setoption name Contempt value 10",
		"setoption Depth 3",
		"setoption name RandomTies value maybe",
	)
	got := lines(out)
	require.Len(t, got, 6)
	for _, l := range got {
		assert.True(t, strings.HasPrefix(l, "info string "), l)
	}
	assert.Equal(t, search.AlgorithmAlphaBeta, e.StrategyName())
	assert.Equal(t, 2, d.depth)
}

func TestSeededTiesReplay(t *testing.T) {
	play := func() string {
		d, _, out := newDriver(t)
		run(t, d,
			"setoption name RandomTies value true",
			"setoption name Seed value 9",
			"ucinewgame",
			"position startpos",
			"go depth 1",
		)
		got := lines(out)
		return got[len(got)-1]
	}
	assert.Equal(t, play(), play())
}

func TestUnknownCommand(t *testing.T) {
	d, _, out := newDriver(t)
	run(t, d, "", "   ", "xyzzy 3")
	assert.Equal(t, "info string unknown command: xyzzy 3", strings.TrimSpace(out.String()))
}

func TestDisplay(t *testing.T) {
	d, _, out := newDriver(t)
	run(t, d, "d")
	assert.Contains(t, out.String(), "Fen: rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	assert.Contains(t, out.String(), "Key: ")
}

func TestParseGo(t *testing.T) {
	p, err := parseGo(nil, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, p.depth)

	assert.False(t, p.timed())

	p, err = parseGo([]string{"depth", "7", "movetime", "100"}, 4)
	require.NoError(t, err)
	assert.Equal(t, 7, p.depth)
	assert.True(t, p.timed())
	assert.Equal(t, 100*time.Millisecond, p.movetime)

	p, err = parseGo([]string{"wtime", "1600", "btime", "3200", "winc", "10", "binc", "20", "movestogo", "30"}, 4)
	require.NoError(t, err)
	assert.Equal(t, InfiniteDepth, p.depth)
	assert.Equal(t, 100*time.Millisecond, p.budget(notnil.White))
	assert.Equal(t, 200*time.Millisecond, p.budget(notnil.Black))

	p, err = parseGo([]string{"wtime", "10", "winc", "30"}, 4)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Millisecond, p.budget(notnil.White))

	p, err = parseGo([]string{"infinite", "movetime", "5"}, 4)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), p.budget(notnil.White))

	for _, args := range [][]string{{"depth"}, {"depth", "0"}, {"depth", "x"}, {"depth", "65"}, {"ponder", "1"}, {"movetime", "-1"}} {
		_, err := parseGo(args, 4)
		assert.Error(t, err, args)
	}
}

func TestScoreString(t *testing.T) {
	assert.Equal(t, "cp 0", scoreString(0))
	assert.Equal(t, "cp -120", scoreString(-120))
	assert.Equal(t, "mate 1", scoreString(search.MateScore-1))
	assert.Equal(t, "mate 2", scoreString(search.MateScore-3))
	assert.Equal(t, "mate 0", scoreString(search.MatedScore(0)))
	assert.Equal(t, "mate -1", scoreString(search.MatedScore(2)))
	assert.Equal(t, "mate -2", scoreString(search.MatedScore(4)))
}
