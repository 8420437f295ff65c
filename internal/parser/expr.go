package parser

import (
	"github.com/hdltools/rtlbridge/internal/ir"
)

// Precedence, loosest first: & (concatenation) < and/or/xor/nand/nor <
// relational < + - < * / < not/negate < primary. Relational operators
// do not associate.
func (p *Parser) parseExpression() (ir.Expression, error) {
	left, err := p.parseLogical()
	if err != nil {
		return nil, err
	}
	if !p.check(TokenAmp) {
		return left, nil
	}
	concat := &ir.Concat{Parts: []ir.Expression{left}, Line: left.SourceLine()}
	for p.match(TokenAmp) {
		part, err := p.parseLogical()
		if err != nil {
			return nil, err
		}
		concat.Parts = append(concat.Parts, part)
	}
	return concat, nil
}

func (p *Parser) parseLogical() (ir.Expression, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		var op ir.BinaryOp
		switch p.peek().Kind {
		case TokenAnd:
			op = ir.OpAnd
		case TokenOr:
			op = ir.OpOr
		case TokenXor:
			op = ir.OpXor
		case TokenNand:
			op = ir.OpNand
		case TokenNor:
			op = ir.OpNor
		default:
			return left, nil
		}
		tok := p.advance()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = &ir.Binary{Op: op, LHS: left, RHS: right, Line: tok.Line}
	}
}

func (p *Parser) parseRelational() (ir.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	var op ir.BinaryOp
	switch p.peek().Kind {
	case TokenEq:
		op = ir.OpEq
	case TokenNeq:
		op = ir.OpNe
	case TokenLess:
		op = ir.OpLt
	case TokenLessEq:
		op = ir.OpLe
	case TokenGreater:
		op = ir.OpGt
	case TokenGreaterEq:
		op = ir.OpGe
	default:
		return left, nil
	}
	tok := p.advance()
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &ir.Binary{Op: op, LHS: left, RHS: right, Line: tok.Line}, nil
}

func (p *Parser) parseAdditive() (ir.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op ir.BinaryOp
		switch p.peek().Kind {
		case TokenPlus:
			op = ir.OpAdd
		case TokenMinus:
			op = ir.OpSub
		default:
			return left, nil
		}
		tok := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ir.Binary{Op: op, LHS: left, RHS: right, Line: tok.Line}
	}
}

func (p *Parser) parseMultiplicative() (ir.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op ir.BinaryOp
		switch p.peek().Kind {
		case TokenStar:
			op = ir.OpMul
		case TokenSlash:
			op = ir.OpDiv
		default:
			return left, nil
		}
		tok := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ir.Binary{Op: op, LHS: left, RHS: right, Line: tok.Line}
	}
}

func (p *Parser) parseUnary() (ir.Expression, error) {
	switch p.peek().Kind {
	case TokenNot:
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ir.Unary{Op: ir.OpNot, Operand: operand, Line: tok.Line}, nil
	case TokenMinus:
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ir.Unary{Op: ir.OpNeg, Operand: operand, Line: tok.Line}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ir.Expression, error) {
	tok := p.peek()
	switch tok.Kind {
	case TokenBitLit:
		p.advance()
		return &ir.Literal{Kind: ir.LitBit, Value: tok.Text, Line: tok.Line}, nil
	case TokenHexLit:
		p.advance()
		return &ir.Literal{Kind: ir.LitHex, Value: tok.Text, Line: tok.Line}, nil
	case TokenStringLit:
		p.advance()
		for i := 0; i < len(tok.Text); i++ {
			if tok.Text[i] != '0' && tok.Text[i] != '1' {
				return nil, errorAt(tok.Line, "vector literal %q contains a non-binary digit", tok.Text)
			}
		}
		if len(tok.Text) == 0 {
			return nil, errorAt(tok.Line, "empty vector literal")
		}
		return &ir.Literal{Kind: ir.LitBinary, Value: tok.Text, Line: tok.Line}, nil
	case TokenIntLit:
		p.advance()
		return &ir.Literal{Kind: ir.LitDecimal, Value: tok.Text, Line: tok.Line}, nil
	case TokenIdent:
		p.advance()
		if !p.check(TokenLeftParen) {
			return &ir.Ident{Name: tok.Text, Line: tok.Line}, nil
		}
		p.advance()
		call := &ir.Call{Name: tok.Text, Line: tok.Line}
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if !p.match(TokenComma) {
				break
			}
		}
		if _, err := p.expect(TokenRightParen, "')' closing the argument list"); err != nil {
			return nil, err
		}
		return call, nil
	case TokenLeftParen:
		p.advance()
		if p.match(TokenOthers) {
			if _, err := p.expect(TokenArrow, "'=>' after 'others'"); err != nil {
				return nil, err
			}
			fill, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenRightParen, "')' closing the aggregate"); err != nil {
				return nil, err
			}
			return &ir.Aggregate{Fill: fill, Line: tok.Line}, nil
		}
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen, "')' closing the expression"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return nil, errorAt(tok.Line, "expected an expression, found %q", tok.Text)
}
