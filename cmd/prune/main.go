package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/iammadab/prune/config"
	"github.com/iammadab/prune/engine"
	"github.com/iammadab/prune/shell"
	"github.com/iammadab/prune/uci"
)

var (
	GitVersion string
)

func setupLogging(debug bool) {
	// stdout carries the protocol, so logs go to stderr.
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	logger.Debug().Msg("Debug logging is on")
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.New()
	if err := cfg.Load(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	setupLogging(cfg.GetBool(config.ConfigDebug))
	log.Debug().Str("version", GitVersion).Msgf("loaded config: %v", cfg.SanitizedSettings())

	if path := cfg.GetString(config.ConfigCPUProfile); path != "" {
		f, err := os.Create(path)
		if err != nil {
			log.Error().Err(err).Msg("could not create CPU profile")
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Error().Err(err).Msg("could not start CPU profile")
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	e, err := engine.New(engine.SettingsFromConfig(cfg))
	if err != nil {
		log.Error().Err(err).Msg("bad engine settings")
		return 2
	}

	if cfg.GetBool(config.ConfigShell) {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		sc := shell.NewShellController(cfg, e)
		go sc.Loop(sig)
		<-sig
		log.Info().Msg("got quit signal...")
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	d := uci.NewDriver(e, cfg.GetInt(config.ConfigDepth), os.Stdout)
	if err := d.Loop(ctx, os.Stdin); err != nil {
		log.Error().Err(err).Msg("reading commands")
		return 1
	}
	return 0
}
