package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/iammadab/prune/bench"
	"github.com/iammadab/prune/config"
	"github.com/iammadab/prune/engine"
	"github.com/iammadab/prune/search"
)

const (
	flagMate       = "mate"
	flagPuzzleDir  = "puzzle-dir"
	flagFixedDepth = "fixed-depth"
	flagThreads    = "threads"
	flagMoveTime   = "movetime"
	flagOutput     = "output"
	flagAlgorithms = "algorithms"
)

func benchFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("bench", pflag.ContinueOnError)
	fs.IntSlice(flagMate, []int{1, 2, 3, 4, 5}, "mate-in-n puzzle files to run")
	fs.String(flagPuzzleDir, "bench/puzzles", "directory holding mateIn<n>.csv files")
	fs.Int(flagFixedDepth, 0, "search every move to this depth; 0 means 2*mate-1")
	fs.Int(flagThreads, 0, "puzzles solved in parallel; 0 means one per CPU")
	fs.Duration(flagMoveTime, 0, "cap on each search")
	fs.String(flagOutput, "", "write the YAML report here")
	fs.StringSlice(flagAlgorithms, []string{search.AlgorithmAlphaBeta, search.AlgorithmMinimax}, "algorithms to compare")
	return fs
}

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()

	cfg := config.New()
	if err := cfg.Load(os.Args[1:], benchFlags()); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("bad arguments")
	}
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		// per-search summaries would drown the bench output
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	var puzzles []bench.Puzzle
	for _, mate := range cfg.GetIntSlice(flagMate) {
		p, err := bench.LoadMate(cfg.GetString(flagPuzzleDir), mate)
		if errors.Is(err, os.ErrNotExist) {
			log.Warn().Int("mate", mate).Msg("no puzzle file, skipping")
			continue
		}
		if err != nil {
			log.Fatal().Err(err).Msg("loading puzzles")
		}
		fmt.Printf("%s: %d puzzles\n", bench.MatePath(cfg.GetString(flagPuzzleDir), mate), len(p))
		puzzles = append(puzzles, p...)
	}
	fmt.Printf("total puzzles: %d\n", len(puzzles))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bcfg := bench.Config{
		Settings: engine.SettingsFromConfig(cfg),
		Depth:    cfg.GetInt(flagFixedDepth),
		Threads:  cfg.GetInt(flagThreads),
		MoveTime: cfg.GetDuration(flagMoveTime),
	}
	rep, err := bench.Run(ctx, bcfg, cfg.GetStringSlice(flagAlgorithms), puzzles)
	if err != nil {
		log.Fatal().Err(err).Msg("bench failed")
	}
	fmt.Print(rep.String())

	if path := cfg.GetString(flagOutput); path != "" {
		out, err := rep.YAML()
		if err != nil {
			log.Fatal().Err(err).Msg("encoding report")
		}
		if err := os.WriteFile(path, out, 0o644); err != nil {
			log.Fatal().Err(err).Msg("writing report")
		}
		fmt.Printf("report written to %s\n", path)
	}
}
