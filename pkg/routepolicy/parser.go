package routepolicy

import (
	"fmt"
	"strconv"

	"mercator-hq/relay/pkg/mpl/ast"
)

// parser is a small recursive-descent parser over the token stream,
// producing an *ast.ConditionNode directly so evaluation (eval.go) and
// the node inspection helpers already shaped by pkg/mpl
// (IsSimple/IsLogical/IsFunction) apply unchanged.
type parser struct {
	toks []token
	pos  int
}

// Parse compiles expr into an *ast.ConditionNode.
func Parse(expr string) (*ast.ConditionNode, error) {
	toks, err := lex(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("routepolicy: unexpected trailing token %q", p.peek().text)
	}
	return node, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) parseOr() (*ast.ConditionNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []*ast.ConditionNode{left}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return &ast.ConditionNode{Type: ast.ConditionTypeAny, Children: children}, nil
}

func (p *parser) parseAnd() (*ast.ConditionNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	children := []*ast.ConditionNode{left}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return &ast.ConditionNode{Type: ast.ConditionTypeAll, Children: children}, nil
}

func (p *parser) parseUnary() (*ast.ConditionNode, error) {
	if p.peek().kind == tokNot {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.ConditionNode{Type: ast.ConditionTypeNot, Children: []*ast.ConditionNode{inner}}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*ast.ConditionNode, error) {
	if p.peek().kind == tokLParen {
		p.next()
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, fmt.Errorf("routepolicy: expected ')', got %q", p.peek().text)
		}
		p.next()
		return node, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (*ast.ConditionNode, error) {
	field := p.next()
	if field.kind != tokIdent {
		return nil, fmt.Errorf("routepolicy: expected field name, got %q", field.text)
	}
	opTok := p.next()
	if opTok.kind != tokOp {
		return nil, fmt.Errorf("routepolicy: expected comparison operator after %q, got %q", field.text, opTok.text)
	}

	if opTok.text == "in" || opTok.text == "not_in" {
		values, err := p.parseArray()
		if err != nil {
			return nil, err
		}
		op := ast.OperatorIn
		if opTok.text == "not_in" {
			op = ast.OperatorNotIn
		}
		return &ast.ConditionNode{
			Type:     ast.ConditionTypeSimple,
			Field:    field.text,
			Operator: op,
			Value:    &ast.ValueNode{Type: ast.ValueTypeArray, Value: values},
		}, nil
	}

	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return &ast.ConditionNode{
		Type:     ast.ConditionTypeSimple,
		Field:    field.text,
		Operator: ast.Operator(opTok.text),
		Value:    value,
	}, nil
}

func (p *parser) parseArray() ([]interface{}, error) {
	if p.peek().kind != tokLBracket {
		return nil, fmt.Errorf("routepolicy: expected '[' to start array, got %q", p.peek().text)
	}
	p.next()
	var out []interface{}
	for p.peek().kind != tokRBracket {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out = append(out, v.Value)
		if p.peek().kind == tokComma {
			p.next()
			continue
		}
		break
	}
	if p.peek().kind != tokRBracket {
		return nil, fmt.Errorf("routepolicy: expected ']' to end array, got %q", p.peek().text)
	}
	p.next()
	return out, nil
}

func (p *parser) parseValue() (*ast.ValueNode, error) {
	t := p.next()
	switch t.kind {
	case tokString:
		return &ast.ValueNode{Type: ast.ValueTypeString, Value: t.text}, nil
	case tokNumber:
		n, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("routepolicy: invalid number literal %q: %w", t.text, err)
		}
		return &ast.ValueNode{Type: ast.ValueTypeNumber, Value: n}, nil
	case tokIdent:
		switch t.text {
		case "true":
			return &ast.ValueNode{Type: ast.ValueTypeBoolean, Value: true}, nil
		case "false":
			return &ast.ValueNode{Type: ast.ValueTypeBoolean, Value: false}, nil
		}
		return nil, fmt.Errorf("routepolicy: unquoted bareword %q is not a valid value literal", t.text)
	default:
		return nil, fmt.Errorf("routepolicy: expected a value literal, got %q", t.text)
	}
}
