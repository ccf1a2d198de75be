package gametree

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/iammadab/prune/search"
)

var ErrSyntax = errors.New("gametree: syntax error")

// Parse reads a tree written in a compact bracket notation:
//
//	leaf    12        static value, side to move's perspective
//	mate    #         side to move is mated
//	draw    =         drawn by rule
//	branch  [a b c]   moves lead to a, b and c in order
//	value   5:[a b]   branch with its own static value (default 0)
//
// Nodes may be prefixed by the flags of the move leading into them:
// x (capture), + (check), ^ (promotion). For example
// "[[3 12] [2 x4]]" is a two-ply tree whose last move is a capture.
func Parse(s string) (*Node, error) {
	p := &parser{src: []rune(s)}
	n, err := p.node()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("trailing input")
	}
	return n, nil
}

type parser struct {
	src []rune
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (unicode.IsSpace(p.src[p.pos]) || p.src[p.pos] == ',') {
		p.pos++
	}
}

func (p *parser) peek() rune {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) node() (*Node, error) {
	p.skipSpace()
	var tactic search.Tactic
flags:
	for {
		switch p.peek() {
		case 'x':
			tactic |= search.Capture
		case '+':
			tactic |= search.Check
		case '^':
			tactic |= search.Promotion
		default:
			break flags
		}
		p.pos++
	}

	var n *Node
	switch r := p.peek(); {
	case r == '#':
		p.pos++
		n = Mated()
	case r == '=':
		p.pos++
		n = Drawn()
	case r == '[':
		children, err := p.children()
		if err != nil {
			return nil, err
		}
		n = Branch(0, children...)
	case r == '-' || unicode.IsDigit(r):
		v, err := p.number()
		if err != nil {
			return nil, err
		}
		if p.peek() == ':' {
			p.pos++
			if p.peek() != '[' {
				return nil, p.errorf("expected '[' after %d:", v)
			}
			children, err := p.children()
			if err != nil {
				return nil, err
			}
			n = Branch(v, children...)
		} else {
			n = Leaf(v)
		}
	case r == 0:
		return nil, p.errorf("unexpected end of input")
	default:
		return nil, p.errorf("unexpected %q", r)
	}
	return n.Via(tactic), nil
}

func (p *parser) children() ([]*Node, error) {
	p.pos++ // [
	var children []*Node
	for {
		p.skipSpace()
		if p.peek() == ']' {
			p.pos++
			return children, nil
		}
		if p.peek() == 0 {
			return nil, p.errorf("unclosed '['")
		}
		c, err := p.node()
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
}

func (p *parser) number() (search.Score, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	for unicode.IsDigit(p.peek()) {
		p.pos++
	}
	lit := string(p.src[start:p.pos])
	v, err := strconv.ParseInt(lit, 10, 32)
	if err != nil {
		return 0, p.errorf("bad number %q", lit)
	}
	if limit := int64(search.MateScore - search.MaxPly); v >= limit || v <= -limit {
		return 0, p.errorf("value %d outside the evaluation range", v)
	}
	return search.Score(v), nil
}

// Format writes n back in the notation Parse reads.
func Format(n *Node) string {
	var sb strings.Builder
	format(&sb, n)
	return sb.String()
}

func format(sb *strings.Builder, n *Node) {
	if n.Tactic&search.Capture != 0 {
		sb.WriteByte('x')
	}
	if n.Tactic&search.Check != 0 {
		sb.WriteByte('+')
	}
	if n.Tactic&search.Promotion != 0 {
		sb.WriteByte('^')
	}
	switch {
	case n.Outcome == search.Checkmate:
		sb.WriteByte('#')
	case n.Outcome == search.Draw:
		sb.WriteByte('=')
	case len(n.Children) == 0:
		sb.WriteString(strconv.Itoa(int(n.Eval)))
	default:
		if n.Eval != 0 {
			sb.WriteString(strconv.Itoa(int(n.Eval)))
			sb.WriteByte(':')
		}
		sb.WriteByte('[')
		for i, c := range n.Children {
			if i > 0 {
				sb.WriteByte(' ')
			}
			format(sb, c)
		}
		sb.WriteByte(']')
	}
}
