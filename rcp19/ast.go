package rcp19

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Node is a node of a parsed expression tree.
type Node interface {
	String() string
}

// Literal is a constant: a number (json.Number), a string, or a boolean.
type Literal struct {
	Value any
}

// Field reads a key of the current document, or of the previous document
// when Last is set.
type Field struct {
	Name string
	Last bool
}

// Special is a dot-delimited special operand such as .NOW. or .EMPTY.
// Name is stored upper-case without the dots.
type Special struct {
	Name string
}

// List is a parenthesised, comma-separated list of expressions.
type List struct {
	Items []Node
}

// Unary applies .NOT. or arithmetic negation to its operand.
type Unary struct {
	Operand Node
	Op      TokenType
}

// Binary applies an infix operator.
type Binary struct {
	Left  Node
	Right Node
	Op    TokenType
}

// Call invokes a named function. Name is stored upper-case.
type Call struct {
	Name string
	Args []Node
}

func (n *Literal) String() string {
	switch v := n.Value.(type) {
	case string:
		return strconv.Quote(v)
	case json.Number:
		return v.String()
	case bool:
		if v {
			return ".TRUE."
		}
		return ".FALSE."
	default:
		return ".EMPTY."
	}
}

func (n *Field) String() string {
	if n.Last {
		return "LAST " + n.Name
	}
	return n.Name
}

func (n *Special) String() string {
	return "." + n.Name + "."
}

func (n *List) String() string {
	return "(" + joinNodes(n.Items) + ")"
}

func (n *Unary) String() string {
	if n.Op == TokenNot {
		return ".NOT. " + n.Operand.String()
	}
	return "-" + n.Operand.String()
}

func (n *Binary) String() string {
	return "(" + n.Left.String() + " " + n.Op.String() + " " + n.Right.String() + ")"
}

func (n *Call) String() string {
	return n.Name + "(" + joinNodes(n.Args) + ")"
}

func joinNodes(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}
