package rcp19

import (
	"encoding/json"
	"strings"
)

// MaxDepth bounds the nesting of parenthesised expressions, function
// arguments and unary operators, so hostile input cannot exhaust the stack.
const MaxDepth = 256

// Expression is a parsed RCP19 expression. It holds no evaluation state and
// may be evaluated any number of times.
type Expression struct {
	root   Node
	source string
}

// Root returns the root node of the expression tree.
func (e *Expression) Root() Node {
	return e.root
}

// Source returns the text the expression was parsed from.
func (e *Expression) Source() string {
	return e.source
}

func (e *Expression) String() string {
	return e.root.String()
}

// Parse parses src into an Expression. Errors are *SyntaxError.
func Parse(src string) (*Expression, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, newSyntaxError(tok.Pos, "unexpected %s after end of expression", describe(tok))
	}
	return &Expression{root: root, source: src}, nil
}

// MustParse is like Parse but panics if the expression cannot be parsed.
func MustParse(src string) *Expression {
	expr, err := Parse(src)
	if err != nil {
		panic("rcp19: Parse(" + src + "): " + err.Error())
	}
	return expr
}

type parser struct {
	tokens []Token
	pos    int
	depth  int
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(tt TokenType) (Token, error) {
	tok := p.next()
	if tok.Type != tt {
		return tok, newSyntaxError(tok.Pos, "expected %s but found %s", tt, describe(tok))
	}
	return tok, nil
}

func (p *parser) enter(pos int) error {
	p.depth++
	if p.depth > MaxDepth {
		return newSyntaxError(pos, "expression nested too deeply")
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) parseExpression() (Node, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (Node, error) {
	return p.parseLeftAssoc(p.parseAnd, TokenOr)
}

func (p *parser) parseAnd() (Node, error) {
	return p.parseLeftAssoc(p.parseNot, TokenAnd)
}

func (p *parser) parseNot() (Node, error) {
	tok := p.peek()
	if tok.Type != TokenNot {
		return p.parseComparison()
	}
	p.next()
	if err := p.enter(tok.Pos); err != nil {
		return nil, err
	}
	defer p.leave()
	operand, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return &Unary{Op: TokenNot, Operand: operand}, nil
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	switch op := p.peek().Type; op {
	case TokenEqual, TokenNotEqual, TokenLess, TokenLessEqual,
		TokenGreater, TokenGreaterEqual, TokenContains, TokenIn:
		p.next()
		right, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		return &Binary{Op: op, Left: left, Right: right}, nil
	default:
		return left, nil
	}
}

func (p *parser) parseSum() (Node, error) {
	return p.parseLeftAssoc(p.parseProduct, TokenPlus, TokenMinus, TokenConcat)
}

func (p *parser) parseProduct() (Node, error) {
	return p.parseLeftAssoc(p.parseUnary, TokenMult, TokenDiv, TokenMod)
}

func (p *parser) parseLeftAssoc(operand func() (Node, error), ops ...TokenType) (Node, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().Type
		if !containsType(ops, op) {
			return left, nil
		}
		p.next()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Node, error) {
	tok := p.peek()
	if tok.Type != TokenMinus {
		return p.parseAtom()
	}
	p.next()
	if num := p.peek(); num.Type == TokenNumber {
		p.next()
		return &Literal{Value: json.Number("-" + num.Value)}, nil
	}
	if err := p.enter(tok.Pos); err != nil {
		return nil, err
	}
	defer p.leave()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &Unary{Op: TokenMinus, Operand: operand}, nil
}

func (p *parser) parseAtom() (Node, error) {
	tok := p.next()
	switch tok.Type {
	case TokenNumber:
		return &Literal{Value: json.Number(tok.Value)}, nil
	case TokenString, TokenDate:
		return &Literal{Value: tok.Value}, nil
	case TokenSpecial:
		switch tok.Value {
		case "TRUE":
			return &Literal{Value: true}, nil
		case "FALSE":
			return &Literal{Value: false}, nil
		case "EMPTY":
			return &Literal{Value: nil}, nil
		}
		return &Special{Name: tok.Value}, nil
	case TokenParenOpen:
		return p.parseGroup(tok)
	case TokenBracketOpen:
		field, err := p.parseField(p.next())
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenBracketClose); err != nil {
			return nil, err
		}
		return field, nil
	case TokenName:
		if p.peek().Type == TokenParenOpen {
			return p.parseCall(tok)
		}
		return p.parseField(tok)
	case TokenEOF:
		return nil, newSyntaxError(tok.Pos, "unexpected end of expression")
	default:
		return nil, newSyntaxError(tok.Pos, "unexpected %s", describe(tok))
	}
}

// parseGroup handles `(exp)`, `()` and `(exp, exp, ...)` after the opening
// parenthesis has been consumed.
func (p *parser) parseGroup(open Token) (Node, error) {
	if err := p.enter(open.Pos); err != nil {
		return nil, err
	}
	defer p.leave()

	if p.peek().Type == TokenParenClose {
		p.next()
		return &List{}, nil
	}
	items, err := p.parseExpressionList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return &List{Items: items}, nil
}

func (p *parser) parseCall(name Token) (Node, error) {
	open := p.next()
	if err := p.enter(open.Pos); err != nil {
		return nil, err
	}
	defer p.leave()

	call := &Call{Name: strings.ToUpper(name.Value)}
	if p.peek().Type == TokenParenClose {
		p.next()
		return call, nil
	}
	args, err := p.parseExpressionList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	call.Args = args
	return call, nil
}

func (p *parser) parseExpressionList() ([]Node, error) {
	var items []Node
	for {
		item, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.peek().Type != TokenComma {
			return items, nil
		}
		p.next()
	}
}

// parseField handles `Name` and `LAST Name`, with tok already consumed.
func (p *parser) parseField(tok Token) (Node, error) {
	if tok.Type != TokenName {
		return nil, newSyntaxError(tok.Pos, "expected field name but found %s", describe(tok))
	}
	if strings.EqualFold(tok.Value, "LAST") && p.peek().Type == TokenName {
		name := p.next()
		return &Field{Name: name.Value, Last: true}, nil
	}
	return &Field{Name: tok.Value}, nil
}

func containsType(types []TokenType, tt TokenType) bool {
	for _, t := range types {
		if t == tt {
			return true
		}
	}
	return false
}

func describe(tok Token) string {
	switch tok.Type {
	case TokenEOF:
		return "end of expression"
	case TokenName:
		return "name " + tok.Value
	case TokenNumber:
		return "number " + tok.Value
	case TokenString:
		return "string literal"
	case TokenDate:
		return "date literal"
	case TokenSpecial:
		return "." + tok.Value + "."
	default:
		return "'" + tok.Type.String() + "'"
	}
}
