package expression

import "fmt"

// Node is a parsed expression.
type Node interface {
	eval(ctx *evalContext) (interface{}, error)
	String() string
}

type literal struct {
	value interface{}
}

type identifier struct {
	name string
}

type not struct {
	operand Node
}

type binary struct {
	op    string
	left  Node
	right Node
}

func (n *literal) String() string {
	if s, ok := n.value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", n.value)
}

func (n *identifier) String() string { return n.name }
func (n *not) String() string        { return "!" + n.operand.String() }
func (n *binary) String() string {
	return fmt.Sprintf("(%s %s %s)", n.left, n.op, n.right)
}

type parser struct {
	expr   string
	tokens []token
	pos    int
}

// Parse parses expr into a Node. Errors are of type *ParseError.
func Parse(expr string) (Node, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{expr: expr, tokens: tokens}
	if p.peek().kind == tokenEOF {
		return nil, p.errorf("empty expression")
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, p.errorf("unexpected %q", tok.text)
	}
	return n, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &ParseError{Expr: p.expr, Pos: p.peek().pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) isOp(ops ...string) bool {
	tok := p.peek()
	if tok.kind != tokenOp {
		return false
	}
	for _, op := range ops {
		if tok.text == op {
			return true
		}
	}
	return false
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isOp("||") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &binary{op: "||", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.isOp("&&") {
		p.next()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &binary{op: "&&", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("==", "!=", "<", ">", "<=", ">=") {
		op := p.next().text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binary{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.isOp("!") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &not{operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.peek()
	switch tok.kind {
	case tokenInt, tokenString, tokenBool:
		p.next()
		return &literal{value: tok.value}, nil
	case tokenIdent:
		p.next()
		return &identifier{name: tok.text}, nil
	case tokenLParen:
		p.next()
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokenRParen {
			return nil, p.errorf("expected )")
		}
		p.next()
		return n, nil
	case tokenEOF:
		return nil, p.errorf("unexpected end of expression")
	default:
		return nil, p.errorf("unexpected %q", tok.text)
	}
}
