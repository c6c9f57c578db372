package calculator

import (
	"strconv"
	"strings"
)

// Recursive descent over the usual precedence ladder:
//
//	expression = term { ("+"|"-") term } ;
//	term       = power { ("*"|"/"|"%") power } ;
//	power      = unary [ ("^"|"**") power ] ;
//	unary      = [ "-" | "+" ] factor ;
//	factor     = number | ident | ident "(" expression ")" | "(" expression ")" ;
//
// ident resolves to a registered constant, a registered function when
// followed by "(", or otherwise a variable bound at evaluation time.

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	val  float64
	pos  int
}

type parser struct {
	src    string
	calc   *Calculator
	tokens []token
	pos    int
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentChar(b byte) bool {
	return b == '_' || isDigit(b) ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func (p *parser) scan() error {
	src := p.src
	i := 0
	for i < len(src) {
		b := src[i]
		switch {
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			i++
		case isDigit(b) || b == '.':
			start := i
			for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
				i++
			}
			// scientific notation, 1e-6 or 2.5E+3
			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				j := i + 1
				if j < len(src) && (src[j] == '+' || src[j] == '-') {
					j++
				}
				if j < len(src) && isDigit(src[j]) {
					i = j
					for i < len(src) && isDigit(src[i]) {
						i++
					}
				}
			}
			text := src[start:i]
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return evalErr(src, start, "bad number %q", text)
			}
			p.tokens = append(p.tokens, token{tokNumber, text, v, start})
		case isIdentChar(b):
			start := i
			for i < len(src) && isIdentChar(src[i]) {
				i++
			}
			p.tokens = append(p.tokens, token{tokIdent, src[start:i], 0, start})
		case b == '(':
			p.tokens = append(p.tokens, token{tokLParen, "(", 0, i})
			i++
		case b == ')':
			p.tokens = append(p.tokens, token{tokRParen, ")", 0, i})
			i++
		case strings.IndexByte("+-*/%^", b) >= 0:
			if b == '*' && i+1 < len(src) && src[i+1] == '*' {
				p.tokens = append(p.tokens, token{tokOp, "**", 0, i})
				i += 2
				break
			}
			p.tokens = append(p.tokens, token{tokOp, string(b), 0, i})
			i++
		default:
			return evalErr(src, i, "unexpected character %q", string(b))
		}
	}
	return nil
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *parser) parseExpression() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: t.text, pos: t.pos, lhs: left, rhs: right}
	}
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOp || (t.text != "*" && t.text != "/" && t.text != "%") {
			return left, nil
		}
		p.pos++
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: t.text, pos: t.pos, lhs: left, rhs: right}
	}
}

func (p *parser) parsePower() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	t, ok := p.peek()
	if !ok || t.kind != tokOp || (t.text != "^" && t.text != "**") {
		return left, nil
	}
	p.pos++
	// right associative
	right, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	return &binaryNode{op: "^", pos: t.pos, lhs: left, rhs: right}, nil
}

func (p *parser) parseUnary() (node, error) {
	t, ok := p.peek()
	if ok && t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.pos++
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if t.text == "-" {
			return &negNode{inner: inner}, nil
		}
		return inner, nil
	}
	return p.parseFactor()
}

func (p *parser) parseFactor() (node, error) {
	t, ok := p.next()
	if !ok {
		return nil, evalErr(p.src, len(p.src), "unexpected end of expression")
	}
	switch t.kind {
	case tokNumber:
		return &numberNode{val: t.val}, nil
	case tokLParen:
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return inner, nil
	case tokIdent:
		if nx, ok := p.peek(); ok && nx.kind == tokLParen {
			fn, ok := p.calc.functions[t.text]
			if !ok {
				return nil, evalErr(p.src, t.pos, "unknown function %q", t.text)
			}
			p.pos++
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRParen); err != nil {
				return nil, err
			}
			return &callNode{name: t.text, pos: t.pos, fn: fn, arg: arg}, nil
		}
		if v, ok := p.calc.constants[t.text]; ok {
			return &numberNode{val: v}, nil
		}
		return &varNode{name: t.text, pos: t.pos}, nil
	default:
		return nil, evalErr(p.src, t.pos, "unexpected %q", t.text)
	}
}

func (p *parser) expect(kind tokenKind) error {
	t, ok := p.next()
	if !ok {
		return evalErr(p.src, len(p.src), "unexpected end of expression")
	}
	if t.kind != kind {
		return evalErr(p.src, t.pos, "unexpected %q", t.text)
	}
	return nil
}
