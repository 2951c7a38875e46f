package rcp19

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const eof = -1

// Lexer converts an RCP19 expression into a sequence of tokens.
type Lexer struct {
	input   string
	start   int // start of the current token
	current int // current position in input
	width   int // width of the last rune read
}

// NewLexer creates a new lexer over input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Next returns the next token. Once the input is exhausted every call
// returns TokenEOF.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()
	l.start = l.current

	ch := l.nextRune()
	switch {
	case ch == eof:
		return l.token(TokenEOF, ""), nil
	case ch == '(':
		return l.token(TokenParenOpen, "("), nil
	case ch == ')':
		return l.token(TokenParenClose, ")"), nil
	case ch == '[':
		return l.token(TokenBracketOpen, "["), nil
	case ch == ']':
		return l.token(TokenBracketClose, "]"), nil
	case ch == ',':
		return l.token(TokenComma, ","), nil
	case ch == '+':
		return l.token(TokenPlus, "+"), nil
	case ch == '-':
		return l.token(TokenMinus, "-"), nil
	case ch == '*':
		return l.token(TokenMult, "*"), nil
	case ch == '/':
		return l.token(TokenDiv, "/"), nil
	case ch == '=':
		return l.token(TokenEqual, "="), nil
	case ch == '!':
		if l.accept('=') {
			return l.token(TokenNotEqual, "!="), nil
		}
		return Token{}, l.errorf("unexpected character '!'")
	case ch == '<':
		if l.accept('=') {
			return l.token(TokenLessEqual, "<="), nil
		}
		return l.token(TokenLess, "<"), nil
	case ch == '>':
		if l.accept('=') {
			return l.token(TokenGreaterEqual, ">="), nil
		}
		return l.token(TokenGreater, ">"), nil
	case ch == '|':
		if l.accept('|') {
			return l.token(TokenConcat, "||"), nil
		}
		return Token{}, l.errorf("unexpected character '|'")
	case ch == '"' || ch == '\'':
		return l.scanString(ch)
	case ch == '#':
		return l.scanDate()
	case ch == '.':
		return l.scanDotWord()
	case ch >= '0' && ch <= '9':
		l.backup()
		return l.scanNumber()
	case isNameStart(ch):
		l.backup()
		return l.scanName(), nil
	default:
		return Token{}, l.errorf("unexpected character %q", ch)
	}
}

// Tokenize returns every token of input, terminated by TokenEOF.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) scanString(quote rune) (Token, error) {
	var sb strings.Builder
	for {
		ch := l.nextRune()
		switch ch {
		case eof:
			return Token{}, &SyntaxError{Pos: l.start, Msg: "string literal not terminated"}
		case quote:
			return l.token(TokenString, sb.String()), nil
		case '\\':
			esc := l.nextRune()
			switch esc {
			case '\\', '"', '\'':
				sb.WriteRune(esc)
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case eof:
				return Token{}, &SyntaxError{Pos: l.start, Msg: "string literal not terminated"}
			default:
				return Token{}, l.errorf("unsupported escape sequence \\%c", esc)
			}
		default:
			sb.WriteRune(ch)
		}
	}
}

func (l *Lexer) scanDate() (Token, error) {
	end := strings.IndexByte(l.input[l.current:], '#')
	if end < 0 {
		return Token{}, &SyntaxError{Pos: l.start, Msg: "date literal not terminated"}
	}
	body := l.input[l.current : l.current+end]
	l.current += end + 1
	if body == "" {
		return Token{}, &SyntaxError{Pos: l.start, Msg: "empty date literal"}
	}
	return l.token(TokenDate, body), nil
}

// scanDotWord reads `.WORD.` after the leading dot has been consumed.
func (l *Lexer) scanDotWord() (Token, error) {
	wordStart := l.current
	for {
		ch := l.nextRune()
		if ch == '.' {
			break
		}
		if ch == eof || !(unicode.IsLetter(ch) || ch == '_') {
			return Token{}, &SyntaxError{Pos: l.start, Msg: "malformed dot operator"}
		}
	}
	word := strings.ToUpper(l.input[wordStart : l.current-1])
	if word == "" {
		return Token{}, &SyntaxError{Pos: l.start, Msg: "malformed dot operator"}
	}
	if tt, ok := dotOperators[word]; ok {
		return l.token(tt, "."+word+"."), nil
	}
	return l.token(TokenSpecial, word), nil
}

func (l *Lexer) scanNumber() (Token, error) {
	l.acceptRun("0123456789")
	// A dot not followed by a digit starts a dot operator, as in `5.MOD.2`.
	if l.peek() == '.' && l.current+1 < len(l.input) && isDigit(rune(l.input[l.current+1])) {
		l.nextRune()
		l.acceptRun("0123456789")
	}
	if isNameStart(l.peek()) {
		l.nextRune()
		return Token{}, l.errorf("malformed number")
	}
	return l.token(TokenNumber, l.input[l.start:l.current]), nil
}

func (l *Lexer) scanName() Token {
	for {
		ch := l.nextRune()
		if ch == eof || !(isNameStart(ch) || isDigit(ch)) {
			l.backup()
			break
		}
	}
	return l.token(TokenName, l.input[l.start:l.current])
}

func (l *Lexer) skipWhitespace() {
	for {
		ch := l.nextRune()
		if ch == eof {
			return
		}
		if !unicode.IsSpace(ch) {
			l.backup()
			return
		}
	}
}

func (l *Lexer) nextRune() rune {
	if l.current >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) peek() rune {
	r := l.nextRune()
	l.backup()
	return r
}

func (l *Lexer) accept(r rune) bool {
	if l.nextRune() == r {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptRun(valid string) {
	for {
		ch := l.nextRune()
		if ch == eof || !strings.ContainsRune(valid, ch) {
			l.backup()
			return
		}
	}
}

func (l *Lexer) token(tt TokenType, value string) Token {
	return Token{Type: tt, Value: value, Pos: l.start}
}

func (l *Lexer) errorf(format string, args ...any) error {
	return newSyntaxError(l.start, format, args...)
}

func isNameStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
