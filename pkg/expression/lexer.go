package expression

import (
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenInt
	tokenString
	tokenBool
	tokenIdent
	tokenOp
	tokenLParen
	tokenRParen
)

type token struct {
	kind  tokenKind
	text  string
	value interface{}
	pos   int
}

// twoCharOps must be checked before the single-character ones.
var twoCharOps = []string{"==", "!=", "<=", ">=", "&&", "||"}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '.' || c == '-'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// tokenize splits expr into tokens, always ending with a tokenEOF.
func tokenize(expr string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "(", pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokenRParen, text: ")", pos: i})
			i++
		case c == '"' || c == '\'':
			end := strings.IndexByte(expr[i+1:], c)
			if end < 0 {
				return nil, &ParseError{Expr: expr, Pos: i, Message: "unterminated string"}
			}
			s := expr[i+1 : i+1+end]
			tokens = append(tokens, token{kind: tokenString, text: s, value: s, pos: i})
			i += end + 2
		case isDigit(c):
			start := i
			for i < len(expr) && isDigit(expr[i]) {
				i++
			}
			n, err := strconv.ParseInt(expr[start:i], 10, 64)
			if err != nil {
				return nil, &ParseError{Expr: expr, Pos: start, Message: err.Error()}
			}
			tokens = append(tokens, token{kind: tokenInt, text: expr[start:i], value: n, pos: start})
		case isIdentStart(c):
			start := i
			for i < len(expr) && isIdentPart(expr[i]) {
				i++
			}
			text := expr[start:i]
			switch text {
			case "true":
				tokens = append(tokens, token{kind: tokenBool, text: text, value: true, pos: start})
			case "false":
				tokens = append(tokens, token{kind: tokenBool, text: text, value: false, pos: start})
			default:
				tokens = append(tokens, token{kind: tokenIdent, text: text, pos: start})
			}
		default:
			matched := false
			for _, op := range twoCharOps {
				if strings.HasPrefix(expr[i:], op) {
					tokens = append(tokens, token{kind: tokenOp, text: op, pos: i})
					i += len(op)
					matched = true
					break
				}
			}
			if matched {
				continue
			}
			if c == '<' || c == '>' || c == '!' {
				tokens = append(tokens, token{kind: tokenOp, text: string(c), pos: i})
				i++
				continue
			}
			return nil, &ParseError{Expr: expr, Pos: i, Message: "unexpected character " + strconv.QuoteRune(rune(c))}
		}
	}
	tokens = append(tokens, token{kind: tokenEOF, pos: len(expr)})
	return tokens, nil
}
