package zobrist

import (
	"strings"

	"github.com/notnil/chess"
	"lukechampine.com/frand"
)

const bignum = 1<<63 - 2

// generate a zobrist hash for a chess position.
// https://en.wikipedia.org/wiki/Zobrist_hashing
type Zobrist struct {
	blackToMove uint64

	pieceTable  [12][64]uint64
	castleTable [4]uint64
	epTable     [8]uint64
}

// castling rights in FEN order
const castleFlags = "KQkq"

func (z *Zobrist) Initialize() {
	for i := range z.pieceTable {
		for j := range z.pieceTable[i] {
			z.pieceTable[i][j] = frand.Uint64n(bignum) + 1
		}
	}
	for i := range z.castleTable {
		z.castleTable[i] = frand.Uint64n(bignum) + 1
	}
	for i := range z.epTable {
		z.epTable[i] = frand.Uint64n(bignum) + 1
	}
	z.blackToMove = frand.Uint64n(bignum) + 1
}

func pieceIndex(p chess.Piece) int {
	return (int(p.Color())-1)*6 + int(p.Type()) - 1
}

// Hash keys everything that makes two positions the same for the
// repetition rule: placement, side to move, castling rights and the en
// passant file.
func (z *Zobrist) Hash(pos *chess.Position) uint64 {
	key := uint64(0)
	for sq, p := range pos.Board().SquareMap() {
		if p == chess.NoPiece {
			continue
		}
		key ^= z.pieceTable[pieceIndex(p)][sq]
	}
	if pos.Turn() == chess.Black {
		key ^= z.blackToMove
	}

	// FEN: placement turn castling ep halfmove fullmove
	fields := strings.Fields(pos.String())
	if len(fields) > 2 {
		for i, c := range castleFlags {
			if strings.ContainsRune(fields[2], c) {
				key ^= z.castleTable[i]
			}
		}
	}
	if len(fields) > 3 && len(fields[3]) == 2 {
		if f := int(fields[3][0] - 'a'); f >= 0 && f < 8 {
			key ^= z.epTable[f]
		}
	}
	return key
}
