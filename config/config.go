package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigAlgorithm       = "algorithm"
	ConfigEvaluator       = "evaluator"
	ConfigDepth           = "depth"
	ConfigQuiescenceLimit = "quiescence-limit"
	ConfigStopInterval    = "stop-interval"
	ConfigRandomTies      = "random-ties"
	ConfigRngSeed         = "rng-seed"
	ConfigDebug           = "debug"
	ConfigCPUProfile      = "cpu-profile"
	ConfigShell           = "shell"
	ConfigFile            = "config"
)

// Config is the layered engine configuration: defaults, then an optional
// YAML file, then PRUNE_* environment variables, then flags.
type Config struct {
	*viper.Viper
}

func New() *Config {
	c := &Config{viper.New()}
	c.SetDefault(ConfigAlgorithm, "alphabeta")
	c.SetDefault(ConfigEvaluator, "material")
	c.SetDefault(ConfigDepth, 4)
	c.SetDefault(ConfigQuiescenceLimit, 32)
	c.SetDefault(ConfigStopInterval, 1024)
	c.SetDefault(ConfigRandomTies, false)
	c.SetDefault(ConfigRngSeed, 0)
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigCPUProfile, "")
	c.SetDefault(ConfigShell, false)
	return c
}

func flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("prune", pflag.ContinueOnError)
	fs.String(ConfigAlgorithm, "alphabeta", "search algorithm: minimax or alphabeta")
	fs.String(ConfigEvaluator, "material", "static evaluator: material or pst")
	fs.Int(ConfigDepth, 4, "default search depth in plies")
	fs.Int(ConfigQuiescenceLimit, 32, "maximum noisy plies below the nominal depth")
	fs.Uint64(ConfigStopInterval, 1024, "nodes between checks for a stop request")
	fs.Bool(ConfigRandomTies, false, "pick randomly among equally good moves")
	fs.Uint64(ConfigRngSeed, 0, "seed for the tie-break generator")
	fs.Bool(ConfigDebug, false, "debug logging")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	fs.Bool(ConfigShell, false, "start the interactive shell instead of UCI")
	fs.String(ConfigFile, "", "YAML config file")
	return fs
}

// Load parses args and layers the file and environment on top of the
// defaults. Flags in extra are parsed and bound along with the engine's
// own, for binaries that take more options.
func (c *Config) Load(args []string, extra ...*pflag.FlagSet) error {
	fs := flagSet()
	for _, e := range extra {
		fs.AddFlagSet(e)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	c.SetEnvPrefix("prune")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if path := c.GetString(ConfigFile); path != "" {
		c.SetConfigFile(path)
		c.SetConfigType("yaml")
		if err := c.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	return nil
}

// SanitizedSettings renders the settings for logging.
func (c *Config) SanitizedSettings() string {
	return fmt.Sprintf("%v", c.AllSettings())
}
