package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"

	"github.com/iammadab/prune/chess"
	"github.com/iammadab/prune/config"
	"github.com/iammadab/prune/search"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string // Available options for this command (e.g., "-depth")
	Args    []string // Possible argument values (for non-option arguments)
}

var commandMetadata = map[string]CommandMetadata{
	"go":       {Options: []string{"-depth", "-maxtime"}},
	"tree":     {Options: []string{"-depth", "-qlimit"}},
	"position": {Args: []string{"startpos", "fen", "moves"}},
	"algo":     {Args: search.Algorithms()},
	"eval":     {Args: chess.Evaluators()},
	"help":     {Args: []string{"go", "set", "tree"}},
	"set": {
		Args: []string{
			config.ConfigAlgorithm, config.ConfigEvaluator, config.ConfigDepth,
			config.ConfigQuiescenceLimit, config.ConfigStopInterval,
			config.ConfigRandomTies, config.ConfigRngSeed,
		},
	},
}

var commandNames = []string{
	"help", "new", "position", "play", "d", "moves", "go", "algo", "eval",
	"set", "tree", "exit",
}

var boolValues = []string{"true", "false"}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		// an open quote; fall back to simple space splitting
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		switch {
		case cmdName == "set" && lastCompleteField == config.ConfigAlgorithm:
			completions = search.Algorithms()
		case cmdName == "set" && lastCompleteField == config.ConfigEvaluator:
			completions = chess.Evaluators()
		case cmdName == "set" && lastCompleteField == config.ConfigRandomTies:
			completions = boolValues
		case cmdName == "play" || (cmdName == "position" && lo.Contains(fields, "moves")):
			// Only the moves of the current position; later moves in the
			// same line are not played yet.
			completions = lo.Map(c.sc.engine.Position().LegalMoves(), func(m chess.Move, _ int) string {
				return m.String()
			})
		}

		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			// Return only the part that needs to be added
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
