// Package shell is an interactive front end to the engine: load
// positions, search them, inspect moves and try the search on hand-built
// game trees.
package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/iammadab/prune/config"
	"github.com/iammadab/prune/engine"
)

var (
	errNoData            = errors.New("no data in line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errQuit              = errors.New("quit requested")
)

type ShellController struct {
	l *readline.Instance

	cfg    *config.Config
	engine *engine.Engine
	depth  int
}

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

// NewShellController builds a controller with a readline prompt.
func NewShellController(cfg *config.Config, e *engine.Engine) *ShellController {
	sc := newController(cfg, e)
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mprune>\033[0m ",
		HistoryFile:     "/tmp/prune_readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		AutoComplete:        NewShellCompleter(sc),
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	return sc
}

func newController(cfg *config.Config, e *engine.Engine) *ShellController {
	return &ShellController{cfg: cfg, engine: e, depth: cfg.GetInt(config.ConfigDepth)}
}

// extractFields splits a line into a command, its positional arguments
// and its -key value options. Quoting follows shell rules, so a FEN can
// be passed as one argument.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := &shellcmd{cmd: fields[0], options: CmdOptions{}}
	for i := 1; i < len(fields); i++ {
		f := fields[i]
		if strings.HasPrefix(f, "-") && len(f) > 1 && !isNumber(f) {
			if i == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			key := f[1:]
			cmd.options[key] = append(cmd.options[key], fields[i+1])
			i++
			continue
		}
		cmd.args = append(cmd.args, f)
	}
	return cmd, nil
}

func isNumber(s string) bool {
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.l)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// execute runs one command line and returns what should be shown.
func (sc *ShellController) execute(line string) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "help":
		return sc.help(cmd)
	case "new":
		sc.engine.NewGame()
		return msg(sc.engine.Position().Draw()), nil
	case "position":
		return sc.position(cmd)
	case "play":
		return sc.play(cmd)
	case "d", "s":
		return msg(sc.engine.Position().Draw()), nil
	case "moves":
		return sc.moves(cmd)
	case "go":
		return sc.goSearch(cmd)
	case "algo":
		return sc.algo(cmd)
	case "eval":
		return sc.eval(cmd)
	case "set":
		return sc.set(cmd)
	case "tree":
		return sc.tree(cmd)
	case "exit", "bye", "quit":
		return nil, errQuit
	}
	log.Debug().Msgf("you said: %q", line)
	return nil, fmt.Errorf("unknown command %s; try help", cmd.cmd)
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		resp, err := sc.execute(line)
		if errors.Is(err, errQuit) {
			sig <- syscall.SIGINT
			break
		}
		if err != nil {
			sc.showError(err)
			continue
		}
		if resp != nil && resp.message != "" {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msg("exiting-readline-loop")
}
