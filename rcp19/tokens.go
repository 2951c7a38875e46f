package rcp19

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota

	// Literals
	TokenNumber  // 123, 4.5
	TokenString  // "hello" or 'hello'
	TokenName    // ListPrice, LAST
	TokenDate    // #2024-01-31# or #2024-01-31T10:00:00Z#
	TokenSpecial // .NOW., .TODAY., .EMPTY., ...

	// Grouping symbols
	TokenParenOpen    // (
	TokenParenClose   // )
	TokenBracketOpen  // [
	TokenBracketClose // ]
	TokenComma        // ,

	// Arithmetic operators
	TokenPlus   // +
	TokenMinus  // -
	TokenMult   // *
	TokenDiv    // /
	TokenMod    // .MOD.
	TokenConcat // ||

	// Comparison operators
	TokenEqual        // =
	TokenNotEqual     // !=
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=
	TokenContains     // .CONTAINS.
	TokenIn           // .IN.

	// Logical operators
	TokenOr  // .OR.
	TokenAnd // .AND.
	TokenNot // .NOT.
)

// dotOperators maps the dot-delimited keyword operators to their token types.
// Every other dot-delimited word is a special operand.
var dotOperators = map[string]TokenType{
	"OR":       TokenOr,
	"AND":      TokenAnd,
	"NOT":      TokenNot,
	"MOD":      TokenMod,
	"CONTAINS": TokenContains,
	"IN":       TokenIn,
}

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenNumber:
		return "(number)"
	case TokenString:
		return "(string)"
	case TokenName:
		return "(name)"
	case TokenDate:
		return "(date)"
	case TokenSpecial:
		return "(special)"
	case TokenParenOpen:
		return "("
	case TokenParenClose:
		return ")"
	case TokenBracketOpen:
		return "["
	case TokenBracketClose:
		return "]"
	case TokenComma:
		return ","
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenMult:
		return "*"
	case TokenDiv:
		return "/"
	case TokenMod:
		return ".MOD."
	case TokenConcat:
		return "||"
	case TokenEqual:
		return "="
	case TokenNotEqual:
		return "!="
	case TokenLess:
		return "<"
	case TokenLessEqual:
		return "<="
	case TokenGreater:
		return ">"
	case TokenGreaterEqual:
		return ">="
	case TokenContains:
		return ".CONTAINS."
	case TokenIn:
		return ".IN."
	case TokenOr:
		return ".OR."
	case TokenAnd:
		return ".AND."
	case TokenNot:
		return ".NOT."
	default:
		return "(unknown)"
	}
}

// Token is a lexical token of an RCP19 expression.
type Token struct {
	Type  TokenType
	Value string
	Pos   int // byte offset of the token start
}
