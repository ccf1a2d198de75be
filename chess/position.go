// Package chess adapts github.com/notnil/chess to the search package:
// a Position that applies and undoes moves in place, the rules' verdict
// on it, and static evaluators.
package chess

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	notnil "github.com/notnil/chess"

	"github.com/iammadab/prune/search"
	"github.com/iammadab/prune/zobrist"
)

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrInvalidFEN  = errors.New("invalid FEN")
	ErrIllegalMove = errors.New("illegal move")
)

var keys = sync.OnceValue(func() *zobrist.Zobrist {
	z := &zobrist.Zobrist{}
	z.Initialize()
	return z
})

// frame is one position along the game and search path. Frames are
// never modified once pushed, so positions can share them.
type frame struct {
	pos      *notnil.Position
	key      uint64
	halfmove int
	valid    []*notnil.Move
	moves    []Move
}

func newFrame(pos *notnil.Position) *frame {
	f := &frame{pos: pos, key: keys().Hash(pos)}
	if fields := strings.Fields(pos.String()); len(fields) > 4 {
		f.halfmove, _ = strconv.Atoi(fields[4])
	}
	f.valid = slices.Clone(pos.ValidMoves())
	board := pos.Board()
	slices.SortFunc(f.valid, func(a, b *notnil.Move) int {
		if d := orderScore(board, b) - orderScore(board, a); d != 0 {
			return d
		}
		return cmp.Or(
			cmp.Compare(a.S1(), b.S1()),
			cmp.Compare(a.S2(), b.S2()),
			cmp.Compare(a.Promo(), b.Promo()),
		)
	})
	f.moves = make([]Move, len(f.valid))
	for i, m := range f.valid {
		f.moves[i] = fromNotnil(m)
	}
	return f
}

// Position is a chess game state. Apply pushes a successor and Undo pops
// it; every position reached since the FEN was loaded is kept so the
// repetition rule can see the whole game.
type Position struct {
	frames []*frame
}

// FromFEN loads a position. Besides the FEN grammar, each side must have
// exactly one king.
func FromFEN(fen string) (*Position, error) {
	fen = strings.TrimSpace(fen)
	fields := strings.Fields(fen)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidFEN)
	}
	for _, k := range []struct {
		c     string
		color string
	}{{"K", "white"}, {"k", "black"}} {
		switch n := strings.Count(fields[0], k.c); {
		case n == 0:
			return nil, fmt.Errorf("%w: missing %s king", ErrInvalidFEN, k.color)
		case n > 1:
			return nil, fmt.Errorf("%w: %d %s kings", ErrInvalidFEN, n, k.color)
		}
	}
	opt, err := notnil.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	pos := notnil.NewGame(opt).Position()
	return &Position{frames: []*frame{newFrame(pos)}}, nil
}

func Startpos() *Position {
	p, err := FromFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Position) top() *frame {
	return p.frames[len(p.frames)-1]
}

// Clone returns a position with the same history that can be mutated
// independently.
func (p *Position) Clone() *Position {
	return &Position{frames: slices.Clone(p.frames)}
}

func (p *Position) LegalMoves() []Move {
	return slices.Clone(p.top().moves)
}

func (p *Position) lookup(m Move) *notnil.Move {
	f := p.top()
	if i := slices.Index(f.moves, m); i >= 0 {
		return f.valid[i]
	}
	return nil
}

// Apply plays a legal move. Playing an illegal move is a programming
// error; use Play for moves from outside.
func (p *Position) Apply(m Move) {
	nm := p.lookup(m)
	if nm == nil {
		panic(fmt.Sprintf("chess: %v is not legal in %s", m, p.FEN()))
	}
	p.frames = append(p.frames, newFrame(p.top().pos.Update(nm)))
}

// Play parses and plays a UCI move, rejecting illegal ones.
func (p *Position) Play(uci string) error {
	m, err := ParseMove(uci)
	if err != nil {
		return err
	}
	if p.lookup(m) == nil {
		return fmt.Errorf("%w: %s in %s", ErrIllegalMove, uci, p.FEN())
	}
	p.Apply(m)
	return nil
}

func (p *Position) Undo() {
	if len(p.frames) == 1 {
		panic("chess: undo past the loaded position")
	}
	p.frames = p.frames[:len(p.frames)-1]
}

// Ply counts the moves played since the position was loaded.
func (p *Position) Ply() int {
	return len(p.frames) - 1
}

func (p *Position) Outcome() search.Outcome {
	f := p.top()
	switch f.pos.Status() {
	case notnil.Checkmate:
		return search.Checkmate
	case notnil.Stalemate:
		return search.Draw
	}
	if f.halfmove >= 100 || p.repetitions() >= 3 || insufficientMaterial(f.pos.Board()) {
		return search.Draw
	}
	return search.Ongoing
}

// repetitions counts how often the current position has occurred since
// the last capture or pawn move.
func (p *Position) repetitions() int {
	cur := p.top()
	n := 0
	for i := len(p.frames) - 1; i >= 0 && len(p.frames)-1-i <= cur.halfmove; i-- {
		if p.frames[i].key == cur.key {
			n++
		}
	}
	return n
}

func insufficientMaterial(b *notnil.Board) bool {
	var minors, bishops []notnil.Square
	for sq, pc := range b.SquareMap() {
		switch pc.Type() {
		case notnil.King, notnil.NoPieceType:
		case notnil.Bishop:
			bishops = append(bishops, sq)
			minors = append(minors, sq)
		case notnil.Knight:
			minors = append(minors, sq)
		default:
			return false
		}
	}
	if len(minors) <= 1 {
		return true
	}
	if len(bishops) != len(minors) {
		return false
	}
	// Only bishops left, all on one colour.
	shade := func(sq notnil.Square) int { return (int(sq)%8 + int(sq)/8) % 2 }
	for _, sq := range bishops[1:] {
		if shade(sq) != shade(bishops[0]) {
			return false
		}
	}
	return true
}

func (p *Position) Classify(m Move) search.Tactic {
	nm := p.lookup(m)
	if nm == nil {
		return search.Quiet
	}
	t := search.Quiet
	if nm.HasTag(notnil.Capture) || nm.HasTag(notnil.EnPassant) {
		t |= search.Capture
	}
	if nm.HasTag(notnil.Check) {
		t |= search.Check
	}
	if nm.Promo() != notnil.NoPieceType {
		t |= search.Promotion
	}
	return t
}

func (p *Position) FEN() string {
	return p.top().pos.String()
}

func (p *Position) String() string {
	return p.FEN()
}

func (p *Position) Turn() notnil.Color {
	return p.top().pos.Turn()
}

func (p *Position) Board() *notnil.Board {
	return p.top().pos.Board()
}

// Key is the Zobrist key of the current position.
func (p *Position) Key() uint64 {
	return p.top().key
}

// Draw renders the board as text, white at the bottom.
func (p *Position) Draw() string {
	return p.top().pos.Board().Draw()
}
