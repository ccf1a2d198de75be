package chess

import (
	"errors"
	"fmt"
	"strings"

	notnil "github.com/notnil/chess"

	"github.com/iammadab/prune/search"
)

const (
	EvaluatorMaterial    = "material"
	EvaluatorPieceSquare = "pst"
)

var ErrUnknownEvaluator = errors.New("unknown evaluator")

var pieceValues = map[notnil.PieceType]search.Score{
	notnil.Pawn:   100,
	notnil.Knight: 320,
	notnil.Bishop: 330,
	notnil.Rook:   500,
	notnil.Queen:  900,
}

// Values are from White's POV with rank 8 on the first row. Black reads
// the same tables mirrored.

var pawnTable = [64]search.Score{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightTable = [64]search.Score{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopTable = [64]search.Score{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookTable = [64]search.Score{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

var kingMidgameTable = [64]search.Score{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

var kingEndgameTable = [64]search.Score{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

// Queen table is the bishop and rook tables added together.
var queenTable [64]search.Score

func init() {
	for i := range queenTable {
		queenTable[i] = rookTable[i] + bishopTable[i]
	}
}

// non-king material below which kings head for the centre
const endgameMaterial = 2600

// tableIndex maps a square to its table entry for the given colour.
func tableIndex(sq notnil.Square, c notnil.Color) int {
	file, rank := int(sq)%8, int(sq)/8
	if c == notnil.White {
		rank = 7 - rank
	}
	return rank*8 + file
}

func relative(white search.Score, turn notnil.Color) search.Score {
	if turn == notnil.White {
		return white
	}
	return -white
}

// Material counts piece values for the side to move minus the opponent's.
var Material = search.EvaluatorFunc[*Position](func(p *Position) search.Score {
	score := search.Score(0)
	for _, pc := range p.Board().SquareMap() {
		v := pieceValues[pc.Type()]
		if pc.Color() == notnil.White {
			score += v
		} else {
			score -= v
		}
	}
	return relative(score, p.Turn())
})

// PieceSquare adds piece-square bonuses to material.
var PieceSquare = search.EvaluatorFunc[*Position](func(p *Position) search.Score {
	squares := p.Board().SquareMap()
	material := search.Score(0)
	for _, pc := range squares {
		material += pieceValues[pc.Type()]
	}
	endgame := material < endgameMaterial

	score := search.Score(0)
	for sq, pc := range squares {
		if pc == notnil.NoPiece {
			continue
		}
		i := tableIndex(sq, pc.Color())
		v := pieceValues[pc.Type()]
		switch pc.Type() {
		case notnil.Pawn:
			v += pawnTable[i]
		case notnil.Knight:
			v += knightTable[i]
		case notnil.Bishop:
			v += bishopTable[i]
		case notnil.Rook:
			v += rookTable[i]
		case notnil.Queen:
			v += queenTable[i]
		case notnil.King:
			if endgame {
				v += kingEndgameTable[i]
			} else {
				v += kingMidgameTable[i]
			}
		}
		if pc.Color() == notnil.White {
			score += v
		} else {
			score -= v
		}
	}
	return relative(score, p.Turn())
})

// EvaluatorByName returns the evaluator registered under name.
func EvaluatorByName(name string) (search.Evaluator[*Position], error) {
	switch strings.ToLower(name) {
	case EvaluatorMaterial:
		return Material, nil
	case EvaluatorPieceSquare:
		return PieceSquare, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvaluator, name)
}

func Evaluators() []string {
	return []string{EvaluatorMaterial, EvaluatorPieceSquare}
}

var orderValues = map[notnil.PieceType]int{
	notnil.Pawn:   1,
	notnil.Knight: 3,
	notnil.Bishop: 3,
	notnil.Rook:   5,
	notnil.Queen:  9,
	notnil.King:   100,
}

// orderScore ranks captures by most valuable victim, least valuable
// attacker, then promotions, ahead of quiet moves.
func orderScore(b *notnil.Board, m *notnil.Move) int {
	score := 0
	if victim := b.Piece(m.S2()); victim != notnil.NoPiece {
		score += orderValues[victim.Type()]*10 - orderValues[b.Piece(m.S1()).Type()] + 100
	} else if m.HasTag(notnil.EnPassant) {
		score += 100
	}
	if m.Promo() != notnil.NoPieceType {
		score += 50 + orderValues[m.Promo()]
	}
	return score
}
