package bench

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iammadab/prune/stats"
)

// Confidence is the level of the reported solve-rate intervals, in
// percent.
const Confidence = 95.0

type Report struct {
	Depth   int            `yaml:"depth"`
	Threads int            `yaml:"threads"`
	Engines []EngineReport `yaml:"engines"`
}

type EngineReport struct {
	Algorithm string       `yaml:"algorithm"`
	Mates     []MateReport `yaml:"mates"`
	Total     MateReport   `yaml:"total"`
}

// MateReport summarizes the attempts on one group of puzzles. Mate is
// zero for the total over every group.
type MateReport struct {
	Mate      int     `yaml:"mate,omitempty"`
	Puzzles   int     `yaml:"puzzles"`
	Solved    int     `yaml:"solved"`
	Invalid   int     `yaml:"invalid,omitempty"`
	SolveRate float64 `yaml:"solve_rate"`
	RateLow   float64 `yaml:"solve_rate_low"`
	RateHigh  float64 `yaml:"solve_rate_high"`
	NodesMean float64 `yaml:"nodes_mean"`
	NodesSd   float64 `yaml:"nodes_stdev"`
	NodesMax  uint64  `yaml:"nodes_max"`
	Seconds   float64 `yaml:"seconds"`
}

func summarize(algo string, attempts []Attempt) EngineReport {
	er := EngineReport{Algorithm: algo}
	for _, mate := range mateCounts(attempts) {
		var group []Attempt
		for _, a := range attempts {
			if a.Puzzle.Mate == mate {
				group = append(group, a)
			}
		}
		mr := summarizeGroup(group)
		mr.Mate = mate
		er.Mates = append(er.Mates, mr)
	}
	er.Total = summarizeGroup(attempts)
	return er
}

func summarizeGroup(attempts []Attempt) MateReport {
	var rate stats.Proportion
	var nodes stats.Running
	mr := MateReport{Puzzles: len(attempts)}
	for _, a := range attempts {
		mr.Seconds += a.Elapsed.Seconds()
		if a.Invalid != nil {
			mr.Invalid++
			continue
		}
		rate.Push(a.Solved)
		nodes.Push(float64(a.Nodes))
	}
	mr.Solved = rate.Hits
	mr.SolveRate = rate.Rate()
	mr.RateLow, mr.RateHigh = rate.Wilson(Confidence)
	mr.NodesMean = nodes.Mean()
	mr.NodesSd = nodes.Stdev()
	mr.NodesMax = uint64(nodes.Max())
	return mr
}

func (r *Report) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}

// String renders the report for a terminal.
func (r *Report) String() string {
	var sb strings.Builder
	for _, er := range r.Engines {
		fmt.Fprintf(&sb, "engine: %s\n", er.Algorithm)
		for _, mr := range er.Mates {
			fmt.Fprintf(&sb, "mate %d: %s\n", mr.Mate, mr.line())
		}
		fmt.Fprintf(&sb, "total: %s\n", er.Total.line())
	}
	return sb.String()
}

func (mr MateReport) line() string {
	s := fmt.Sprintf("solved %d/%d (%.2f%%, %.0f%% CI %.2f-%.2f%%) nodes %.0f±%.0f in %.2fs",
		mr.Solved, mr.Puzzles-mr.Invalid, 100*mr.SolveRate, Confidence,
		100*mr.RateLow, 100*mr.RateHigh, mr.NodesMean, mr.NodesSd, mr.Seconds)
	if mr.Invalid > 0 {
		s += fmt.Sprintf(", %d invalid", mr.Invalid)
	}
	return s
}
