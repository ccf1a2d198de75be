package gametree

import (
	"encoding/binary"

	"lukechampine.com/frand"

	"github.com/iammadab/prune/search"
)

// NewRNG returns a deterministic generator for the given seed.
func NewRNG(seed uint64) *frand.RNG {
	key := make([]byte, 32)
	binary.LittleEndian.PutUint64(key, seed)
	return frand.NewCustom(key, 1024, 12)
}

// RandomConfig shapes the trees Random builds.
type RandomConfig struct {
	Depth     int // plies below the root
	Branching int // maximum moves per node; at least one
	// MaxEval bounds static values to [-MaxEval, MaxEval].
	MaxEval int
	// Percent chances, per node, of a noisy move into it, of it being
	// terminal, and of it having no modelled moves even above Depth.
	NoisyPct    int
	TerminalPct int
	LeafPct     int
	// NoisyTail is how many extra plies of noisy-only moves may hang
	// below the nominal leaves, for quiescence to find.
	NoisyTail int
}

func DefaultRandomConfig(depth int) RandomConfig {
	return RandomConfig{
		Depth:       depth,
		Branching:   4,
		MaxEval:     100,
		NoisyPct:    30,
		TerminalPct: 8,
		LeafPct:     10,
		NoisyTail:   2,
	}
}

// Random builds a tree whose shape and values are drawn from rng. The
// same seed always yields the same tree.
func Random(rng *frand.RNG, cfg RandomConfig) *Node {
	if cfg.Branching < 1 {
		cfg.Branching = 1
	}
	return randomNode(rng, cfg, 0, false)
}

func randomNode(rng *frand.RNG, cfg RandomConfig, ply int, tail bool) *Node {
	n := Leaf(search.Score(rng.Intn(2*cfg.MaxEval+1) - cfg.MaxEval))
	if ply > 0 && chance(rng, cfg.TerminalPct) {
		if rng.Intn(2) == 0 {
			n = Mated()
		} else {
			n = Drawn()
		}
		return n
	}
	if ply >= cfg.Depth+cfg.NoisyTail {
		return n
	}
	if ply >= cfg.Depth {
		tail = true
	}
	if ply > 0 && chance(rng, cfg.LeafPct) {
		return n
	}
	for i := rng.Intn(cfg.Branching) + 1; i > 0; i-- {
		c := randomNode(rng, cfg, ply+1, tail)
		if tail || chance(rng, cfg.NoisyPct) {
			c.Via(randomTactic(rng))
		}
		n.Children = append(n.Children, c)
	}
	if tail && rng.Intn(2) == 0 {
		// Leave some tail positions quiet.
		n.Children = nil
	}
	return n
}

func chance(rng *frand.RNG, pct int) bool {
	return pct > 0 && rng.Intn(100) < pct
}

func randomTactic(rng *frand.RNG) search.Tactic {
	return search.Tactic(rng.Intn(7) + 1)
}
