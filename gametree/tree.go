// Package gametree provides explicit, hand-built game trees that satisfy
// search.Position. They make the shape and leaf values of a search fully
// known, which is what scenario tests and the shell's tree command need.
package gametree

import (
	"fmt"
	"strings"

	"github.com/iammadab/prune/search"
)

// Node is one position of the tree. Eval is the static evaluation from
// the perspective of the side to move at this node; Tactic describes the
// move that leads into it.
type Node struct {
	Label    string
	Eval     search.Score
	Tactic   search.Tactic
	Outcome  search.Outcome
	Children []*Node
}

// Leaf is a position with a static value and no modelled moves.
func Leaf(eval search.Score) *Node {
	return &Node{Eval: eval}
}

// Branch is a position whose moves lead to children, in order.
func Branch(eval search.Score, children ...*Node) *Node {
	return &Node{Eval: eval, Children: children}
}

// Mated is a position in which the side to move has been mated.
func Mated() *Node {
	return &Node{Outcome: search.Checkmate}
}

// Drawn is a position the rules call drawn.
func Drawn() *Node {
	return &Node{Outcome: search.Draw}
}

// Via marks the move into n with the given tactical flags.
func (n *Node) Via(t search.Tactic) *Node {
	n.Tactic = t
	return n
}

func (n *Node) Named(label string) *Node {
	n.Label = label
	return n
}

// Size counts the nodes of the subtree rooted at n.
func (n *Node) Size() int {
	size := 1
	for _, c := range n.Children {
		size += c.Size()
	}
	return size
}

// Reversed returns a deep copy of n with every node's children in
// reverse order.
func (n *Node) Reversed() *Node {
	cp := *n
	cp.Children = make([]*Node, len(n.Children))
	for i, c := range n.Children {
		cp.Children[len(n.Children)-1-i] = c.Reversed()
	}
	return &cp
}

// Move is the index of a child of the current node.
type Move int

func (m Move) String() string {
	return fmt.Sprintf("#%d", int(m))
}

// Tree walks a Node hierarchy. Apply descends to a child and Undo climbs
// back, so the tree behaves like a position mutated in place.
type Tree struct {
	root    *Node
	path    []*Node
	applies int
}

func New(root *Node) *Tree {
	return &Tree{root: root, path: []*Node{root}}
}

func (t *Tree) Current() *Node {
	return t.path[len(t.path)-1]
}

// Ply is the distance of the current node from the root.
func (t *Tree) Ply() int {
	return len(t.path) - 1
}

// Applies counts every Apply since the tree was created.
func (t *Tree) Applies() int {
	return t.applies
}

func (t *Tree) LegalMoves() []Move {
	n := t.Current()
	if n.Outcome != search.Ongoing {
		return nil
	}
	moves := make([]Move, len(n.Children))
	for i := range n.Children {
		moves[i] = Move(i)
	}
	return moves
}

func (t *Tree) Apply(m Move) {
	n := t.Current()
	if int(m) < 0 || int(m) >= len(n.Children) {
		panic(fmt.Sprintf("gametree: move %v is not legal at %q", m, t.String()))
	}
	t.path = append(t.path, n.Children[m])
	t.applies++
}

func (t *Tree) Undo() {
	if len(t.path) == 1 {
		panic("gametree: undo at root")
	}
	t.path = t.path[:len(t.path)-1]
}

func (t *Tree) Outcome() search.Outcome {
	return t.Current().Outcome
}

func (t *Tree) Classify(m Move) search.Tactic {
	return t.Current().Children[m].Tactic
}

// String names the current node by the labels (or indexes) along the
// path from the root.
func (t *Tree) String() string {
	parts := []string{"root"}
	for i := 1; i < len(t.path); i++ {
		n := t.path[i]
		if n.Label != "" {
			parts = append(parts, n.Label)
			continue
		}
		for j, c := range t.path[i-1].Children {
			if c == n {
				parts = append(parts, Move(j).String())
				break
			}
		}
	}
	return strings.Join(parts, "/")
}

// Evaluator reads the static value stored in the current node.
var Evaluator = search.EvaluatorFunc[*Tree](func(t *Tree) search.Score {
	return t.Current().Eval
})
