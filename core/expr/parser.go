package expr

import (
	"fmt"

	"github.com/asaidimu/go-sieve/core/filter"
)

// Parse turns a validated expression string into an AST. The precondition is
// that the string already produced an Accepted verdict, but the parser does
// not rely on it: anything outside the grammar is a *ParseError on its own.
// The parser performs no evaluation and resolves no names against records;
// it builds a pure syntax tree.
func Parse(input string) (Node, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenEOF {
		return nil, p.errorf("unexpected %s after expression", p.peek().kind)
	}
	return node, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) accept(kind tokenKind) bool {
	if p.peek().kind == kind {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.peek()
	if t.kind != kind {
		return token{}, p.errorf("expected %s, found %s", kind, t.kind)
	}
	p.pos++
	return t, nil
}

func (p *parser) errorf(format string, args ...any) *ParseError {
	return &ParseError{Pos: p.peek().pos, Message: fmt.Sprintf(format, args...)}
}

// parseOr handles the lowest-precedence production: and-chains joined by or.
func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept(tokenOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.accept(tokenAnd) {
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parsePrimary() (Node, error) {
	if p.accept(tokenLParen) {
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen); err != nil {
			return nil, err
		}
		return node, nil
	}
	return p.parsePredicate()
}

// parsePredicate handles the leaf productions: a comparison of a field (or
// size(field)) against a literal, or a string predicate against a quoted
// string. No other production exists.
func (p *parser) parsePredicate() (Node, error) {
	field, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	t := p.next()
	switch t.kind {
	case tokenEq, tokenNeq, tokenLt, tokenLte, tokenGt, tokenGte:
		literal, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return &Compare{Field: field, Op: comparisonOperator(t.kind), Value: literal}, nil

	case tokenContains, tokenStartsWith, tokenEndsWith:
		if field.Size {
			return nil, &ParseError{Pos: t.pos, Message: "string predicates cannot apply to size()"}
		}
		value, err := p.expect(tokenString)
		if err != nil {
			return nil, err
		}
		return &StringPred{Field: field.Name, Pred: stringPredicate(t.kind), Value: value.text}, nil

	default:
		return nil, &ParseError{Pos: t.pos, Message: fmt.Sprintf("expected comparison or string predicate, found %s", t.kind)}
	}
}

func (p *parser) parseOperand() (FieldRef, error) {
	if p.accept(tokenSize) {
		if _, err := p.expect(tokenLParen); err != nil {
			return FieldRef{}, err
		}
		name, err := p.expect(tokenIdent)
		if err != nil {
			return FieldRef{}, err
		}
		if _, err := p.expect(tokenRParen); err != nil {
			return FieldRef{}, err
		}
		return FieldRef{Name: name.text, Size: true}, nil
	}
	name, err := p.expect(tokenIdent)
	if err != nil {
		return FieldRef{}, err
	}
	return FieldRef{Name: name.text}, nil
}

func (p *parser) parseLiteral() (Literal, error) {
	t := p.next()
	switch t.kind {
	case tokenNumber:
		return Literal{Value: t.num}, nil
	case tokenString:
		return Literal{Value: t.text}, nil
	case tokenTrue:
		return Literal{Value: true}, nil
	case tokenFalse:
		return Literal{Value: false}, nil
	default:
		return Literal{}, &ParseError{Pos: t.pos, Message: fmt.Sprintf("expected literal, found %s", t.kind)}
	}
}

func comparisonOperator(kind tokenKind) filter.Operator {
	switch kind {
	case tokenEq:
		return filter.OperatorEq
	case tokenNeq:
		return filter.OperatorNeq
	case tokenLt:
		return filter.OperatorLt
	case tokenLte:
		return filter.OperatorLte
	case tokenGt:
		return filter.OperatorGt
	case tokenGte:
		return filter.OperatorGte
	default:
		return ""
	}
}

func stringPredicate(kind tokenKind) filter.Operator {
	switch kind {
	case tokenContains:
		return filter.OperatorContains
	case tokenStartsWith:
		return filter.OperatorStartsWith
	case tokenEndsWith:
		return filter.OperatorEndsWith
	default:
		return ""
	}
}
