package bench

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Puzzle is one row of a lichess puzzle export. The first move is the
// opponent's; the solver answers every second move after it.
type Puzzle struct {
	ID     string
	FEN    string
	Moves  []string
	Mate   int
	Rating int
	Themes []string
}

var ErrBadRow = errors.New("bad puzzle row")

// MatePath is where the puzzles for mate-in-n live under dir.
func MatePath(dir string, mate int) string {
	return filepath.Join(dir, fmt.Sprintf("mateIn%d.csv", mate))
}

// ParseRow reads PuzzleId, FEN, Moves and, when present, Rating and
// Themes from a CSV record.
func ParseRow(rec []string, mate int) (Puzzle, error) {
	if len(rec) < 3 {
		return Puzzle{}, fmt.Errorf("%w: expected at least 3 fields, got %d", ErrBadRow, len(rec))
	}
	p := Puzzle{
		ID:    rec[0],
		FEN:   strings.TrimSpace(rec[1]),
		Moves: strings.Fields(rec[2]),
		Mate:  mate,
	}
	if len(p.Moves) == 0 {
		return Puzzle{}, fmt.Errorf("%w: %s has no moves", ErrBadRow, p.ID)
	}
	if len(rec) > 3 && rec[3] != "" {
		r, err := strconv.Atoi(rec[3])
		if err != nil {
			return Puzzle{}, fmt.Errorf("%w: %s rating %q", ErrBadRow, p.ID, rec[3])
		}
		p.Rating = r
	}
	if len(rec) > 7 {
		p.Themes = strings.Fields(rec[7])
	}
	return p, nil
}

// ReadPuzzles reads every row of r. A leading header row is skipped.
func ReadPuzzles(r io.Reader, mate int) ([]Puzzle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	var puzzles []Puzzle
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if line == 1 && rec[0] == "PuzzleId" {
			continue
		}
		p, err := ParseRow(rec, mate)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		puzzles = append(puzzles, p)
	}
	return puzzles, nil
}

// LoadMate reads the mate-in-n file under dir.
func LoadMate(dir string, mate int) ([]Puzzle, error) {
	path := MatePath(dir, mate)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	puzzles, err := ReadPuzzles(f, mate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return puzzles, nil
}
