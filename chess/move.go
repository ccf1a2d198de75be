package chess

import (
	"fmt"
	"strings"

	notnil "github.com/notnil/chess"
)

// Move is a chess move in coordinate form, comparable and cheap to copy.
type Move struct {
	From  notnil.Square
	To    notnil.Square
	Promo notnil.PieceType
}

// NullMove is what the UCI protocol prints when there is no move.
const NullMove = "0000"

var promoChars = map[notnil.PieceType]byte{
	notnil.Queen:  'q',
	notnil.Rook:   'r',
	notnil.Bishop: 'b',
	notnil.Knight: 'n',
}

func fromNotnil(m *notnil.Move) Move {
	return Move{From: m.S1(), To: m.S2(), Promo: m.Promo()}
}

func squareName(sq notnil.Square) string {
	return string([]byte{'a' + byte(int(sq)%8), '1' + byte(int(sq)/8)})
}

func parseSquare(s string) (notnil.Square, bool) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return 0, false
	}
	return notnil.Square(int(s[0]-'a') + int(s[1]-'1')*8), true
}

// String renders m in UCI long algebraic notation, e.g. e7e8q.
func (m Move) String() string {
	s := squareName(m.From) + squareName(m.To)
	if c, ok := promoChars[m.Promo]; ok {
		s += string(c)
	}
	return s
}

// ParseMove reads a move in UCI notation. It checks the syntax only;
// legality depends on a position.
func ParseMove(s string) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrIllegalMove, s)
	}
	from, ok1 := parseSquare(s[0:2])
	to, ok2 := parseSquare(s[2:4])
	if !ok1 || !ok2 || from == to {
		return Move{}, fmt.Errorf("%w: %q", ErrIllegalMove, s)
	}
	m := Move{From: from, To: to, Promo: notnil.NoPieceType}
	if len(s) == 5 {
		for pt, c := range promoChars {
			if c == s[4] {
				m.Promo = pt
			}
		}
		if m.Promo == notnil.NoPieceType {
			return Move{}, fmt.Errorf("%w: bad promotion in %q", ErrIllegalMove, s)
		}
	}
	return m, nil
}
