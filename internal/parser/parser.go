package parser

import (
	"strings"

	"github.com/hdltools/rtlbridge/internal/ir"
)

// Parser consumes a token stream and builds the design tree. Name
// checking runs as a final pass so error lines point at uses, not at
// wherever the stream happens to stop.
type Parser struct {
	source string
	tokens []Token
	pos    int
}

// Parse reads one design file: an entity and at most one architecture
// bound to it. Context clauses are skipped; constructs outside the
// translatable subset fail with a ParseError naming the construct.
func Parse(source string) (*ir.DesignFile, error) {
	tokens, err := NewLexer(source).Tokenize()
	if err != nil {
		return nil, err
	}
	p := &Parser{source: source, tokens: tokens}
	return p.parseDesignFile()
}

func (p *Parser) parseDesignFile() (*ir.DesignFile, error) {
	if err := p.skipContextClauses(); err != nil {
		return nil, err
	}
	if p.check(TokenPackage) {
		return nil, unsupported(p.peek().Line, "package declaration")
	}
	entity, err := p.parseEntity()
	if err != nil {
		return nil, err
	}
	file := &ir.DesignFile{Entity: *entity}

	if err := p.skipContextClauses(); err != nil {
		return nil, err
	}
	if p.check(TokenArchitecture) {
		arch, err := p.parseArchitecture()
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(arch.EntityName, entity.Name) {
			return nil, errorAt(arch.Line, "architecture %q is bound to entity %q, file declares %q",
				arch.Name, arch.EntityName, entity.Name)
		}
		file.Arch = arch
	}

	if err := p.skipContextClauses(); err != nil {
		return nil, err
	}
	if !p.check(TokenEOF) {
		return nil, errorAt(p.peek().Line, "expected end of file, found %q", p.peek().Text)
	}
	if err := p.checkNames(file); err != nil {
		return nil, err
	}
	return file, nil
}

func (p *Parser) skipContextClauses() error {
	for p.check(TokenLibrary) || p.check(TokenUse) {
		line := p.peek().Line
		for !p.check(TokenSemicolon) {
			if p.check(TokenEOF) {
				return errorAt(line, "unterminated context clause")
			}
			p.advance()
		}
		p.advance()
	}
	return nil
}

func (p *Parser) parseEntity() (*ir.Entity, error) {
	start, err := p.expect(TokenEntity, "entity declaration")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent("entity name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenIs, "'is' after entity name"); err != nil {
		return nil, err
	}
	if p.check(TokenGeneric) {
		return nil, unsupported(p.peek().Line, "generic clause")
	}

	entity := &ir.Entity{Name: name.Text, Line: start.Line}
	if p.match(TokenPort) {
		if _, err := p.expect(TokenLeftParen, "'(' after 'port'"); err != nil {
			return nil, err
		}
		ports, err := p.parsePortList()
		if err != nil {
			return nil, err
		}
		entity.Ports = ports
		if _, err := p.expect(TokenSemicolon, "';' after port clause"); err != nil {
			return nil, err
		}
	}
	if err := p.parseEndClause(TokenEntity, entity.Name); err != nil {
		return nil, err
	}
	return entity, nil
}

func (p *Parser) parsePortList() ([]ir.Port, error) {
	var ports []ir.Port
	for {
		names, err := p.parseNameList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColon, "':' after port name"); err != nil {
			return nil, err
		}
		dir, err := p.parseDirection()
		if err != nil {
			return nil, err
		}
		typ, err := p.parseType(nil)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			ports = append(ports, ir.Port{Name: n.Text, Dir: dir, Type: typ, Line: n.Line})
		}
		if p.match(TokenSemicolon) {
			if p.match(TokenRightParen) {
				return ports, nil
			}
			continue
		}
		if _, err := p.expect(TokenRightParen, "')' closing the port list"); err != nil {
			return nil, err
		}
		return ports, nil
	}
}

func (p *Parser) parseNameList() ([]Token, error) {
	first, err := p.expectIdent("name")
	if err != nil {
		return nil, err
	}
	names := []Token{first}
	for p.match(TokenComma) {
		next, err := p.expectIdent("name after ','")
		if err != nil {
			return nil, err
		}
		names = append(names, next)
	}
	return names, nil
}

func (p *Parser) parseDirection() (ir.Direction, error) {
	tok := p.advance()
	if dir, ok := ir.ParseDirection(strings.ToLower(tok.Text)); ok {
		return dir, nil
	}
	return 0, errorAt(tok.Line, "expected port direction, found %q", tok.Text)
}

// parseType resolves a type mark. enums holds the architecture's
// declared enum types; it is nil in an entity port list.
func (p *Parser) parseType(enums map[string]ir.EnumType) (ir.Type, error) {
	tok, err := p.expectIdent("type name")
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(tok.Text) {
	case "std_logic", "std_ulogic", "bit":
		return ir.BitType{}, nil
	case "std_logic_vector":
		return p.parseVectorRange(tok.Line, false)
	case "unsigned":
		return p.parseVectorRange(tok.Line, false)
	case "signed":
		return p.parseVectorRange(tok.Line, true)
	case "integer":
		return ir.IntegerType{}, nil
	case "natural":
		return ir.IntegerType{Natural: true}, nil
	}
	if enums != nil {
		if et, ok := enums[strings.ToLower(tok.Text)]; ok {
			return et, nil
		}
	}
	return nil, errorAt(tok.Line, "unknown type %q", tok.Text)
}

func (p *Parser) parseVectorRange(line int, signed bool) (ir.Type, error) {
	if _, err := p.expect(TokenLeftParen, "'(' opening a range"); err != nil {
		return nil, err
	}
	left, err := p.parseRangeBound()
	if err != nil {
		return nil, err
	}
	descending := false
	switch {
	case p.match(TokenDownto):
		descending = true
	case p.match(TokenTo):
	default:
		return nil, errorAt(p.peek().Line, "expected 'downto' or 'to' in range, found %q", p.peek().Text)
	}
	right, err := p.parseRangeBound()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRightParen, "')' closing a range"); err != nil {
		return nil, err
	}
	high, low := left, right
	if !descending {
		high, low = right, left
	}
	if low > high {
		return nil, errorAt(line, "empty range %d to %d", left, right)
	}
	return ir.VectorType{High: high, Low: low, Signed: signed}, nil
}

func (p *Parser) parseRangeBound() (uint32, error) {
	tok, err := p.expect(TokenIntLit, "integer range bound")
	if err != nil {
		return 0, err
	}
	var n uint32
	for i := 0; i < len(tok.Text); i++ {
		n = n*10 + uint32(tok.Text[i]-'0')
	}
	return n, nil
}

func (p *Parser) parseArchitecture() (*ir.Architecture, error) {
	start, err := p.expect(TokenArchitecture, "architecture body")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent("architecture name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenOf, "'of' after architecture name"); err != nil {
		return nil, err
	}
	entityName, err := p.expectIdent("entity name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenIs, "'is' after entity name"); err != nil {
		return nil, err
	}

	arch := &ir.Architecture{Name: name.Text, EntityName: entityName.Text, Line: start.Line}
	enums := map[string]ir.EnumType{}
	for !p.check(TokenBegin) {
		switch {
		case p.check(TokenSignal):
			sigs, err := p.parseSignalDecl(enums)
			if err != nil {
				return nil, err
			}
			arch.Signals = append(arch.Signals, sigs...)
		case p.check(TokenType):
			et, err := p.parseEnumDecl()
			if err != nil {
				return nil, err
			}
			enums[strings.ToLower(et.Name)] = et
			arch.Enums = append(arch.Enums, et)
		case p.check(TokenComponent):
			return nil, unsupported(p.peek().Line, "component declaration")
		case p.check(TokenEOF):
			return nil, errorAt(p.peek().Line, "unterminated architecture body")
		default:
			return nil, errorAt(p.peek().Line, "unexpected %q in architecture declarations", p.peek().Text)
		}
	}
	p.advance() // begin

	for !p.check(TokenEnd) {
		if p.check(TokenEOF) {
			return nil, errorAt(p.peek().Line, "unterminated architecture body")
		}
		stmt, err := p.parseConcurrent(enums)
		if err != nil {
			return nil, err
		}
		arch.Concurrent = append(arch.Concurrent, stmt)
	}
	if err := p.parseEndClause(TokenArchitecture, arch.Name); err != nil {
		return nil, err
	}
	return arch, nil
}

func (p *Parser) parseSignalDecl(enums map[string]ir.EnumType) ([]ir.Signal, error) {
	p.advance() // signal
	names, err := p.parseNameList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenColon, "':' after signal name"); err != nil {
		return nil, err
	}
	typ, err := p.parseType(enums)
	if err != nil {
		return nil, err
	}
	var init ir.Expression
	if p.match(TokenColonEq) {
		init, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokenSemicolon, "';' after signal declaration"); err != nil {
		return nil, err
	}
	sigs := make([]ir.Signal, 0, len(names))
	for _, n := range names {
		sigs = append(sigs, ir.Signal{Name: n.Text, Type: typ, Init: init, Line: n.Line})
	}
	return sigs, nil
}

func (p *Parser) parseEnumDecl() (ir.EnumType, error) {
	p.advance() // type
	name, err := p.expectIdent("type name")
	if err != nil {
		return ir.EnumType{}, err
	}
	if _, err := p.expect(TokenIs, "'is' after type name"); err != nil {
		return ir.EnumType{}, err
	}
	if _, err := p.expect(TokenLeftParen, "'(' opening an enumeration"); err != nil {
		return ir.EnumType{}, err
	}
	lits, err := p.parseNameList()
	if err != nil {
		return ir.EnumType{}, err
	}
	if _, err := p.expect(TokenRightParen, "')' closing an enumeration"); err != nil {
		return ir.EnumType{}, err
	}
	if _, err := p.expect(TokenSemicolon, "';' after type declaration"); err != nil {
		return ir.EnumType{}, err
	}
	et := ir.EnumType{Name: name.Text, Literals: make([]string, len(lits))}
	for i, l := range lits {
		et.Literals[i] = l.Text
	}
	return et, nil
}

func (p *Parser) parseConcurrent(enums map[string]ir.EnumType) (ir.ConcurrentStatement, error) {
	switch {
	case p.check(TokenWith):
		return p.captureRaw("selected signal assignment")
	case p.check(TokenProcess):
		return p.parseProcess("")
	case p.check(TokenIdent):
		if p.peekAt(1).Kind == TokenColon {
			label := p.advance()
			p.advance() // colon
			if p.check(TokenProcess) {
				return p.parseProcess(label.Text)
			}
			if p.generateAhead() {
				return nil, unsupported(label.Line, "generate statement")
			}
			return nil, unsupported(label.Line, "component instantiation")
		}
		return p.parseContinuousAssign()
	}
	return nil, errorAt(p.peek().Line, "unexpected %q in architecture statements", p.peek().Text)
}

// generateAhead reports whether a 'generate' keyword appears before
// the statement's terminating semicolon, distinguishing generate
// statements from component instantiations after a label.
func (p *Parser) generateAhead() bool {
	for i := p.pos; i < len(p.tokens); i++ {
		switch p.tokens[i].Kind {
		case TokenGenerate:
			return true
		case TokenSemicolon, TokenEOF:
			return false
		}
	}
	return false
}

// captureRaw consumes one statement through its semicolon and keeps
// the verbatim source slice for degraded emission.
func (p *Parser) captureRaw(construct string) (ir.ConcurrentStatement, error) {
	start := p.peek()
	for !p.check(TokenSemicolon) {
		if p.check(TokenEOF) {
			return nil, errorAt(start.Line, "unterminated %s", construct)
		}
		p.advance()
	}
	end := p.advance()
	return &ir.RawConcurrent{
		Construct: construct,
		Text:      p.source[start.Offset : end.Offset+1],
		Line:      start.Line,
	}, nil
}

func (p *Parser) parseContinuousAssign() (ir.ConcurrentStatement, error) {
	target := p.advance()
	if _, err := p.expect(TokenLessEq, "'<=' in signal assignment"); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.match(TokenWhen) {
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenElse, "'else' in conditional assignment"); err != nil {
			return nil, err
		}
		other, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.check(TokenWhen) {
			return nil, unsupported(p.peek().Line, "chained conditional assignment")
		}
		value = &ir.Select{Cond: cond, Then: value, Else: other, Line: target.Line}
	}
	if _, err := p.expect(TokenSemicolon, "';' after signal assignment"); err != nil {
		return nil, err
	}
	return &ir.ContinuousAssign{Target: target.Text, Value: value, Line: target.Line}, nil
}

func (p *Parser) parseProcess(label string) (*ir.Process, error) {
	start := p.advance() // process
	if !p.check(TokenLeftParen) {
		return nil, errorAt(start.Line, "process requires a sensitivity list")
	}
	p.advance()
	names, err := p.parseNameList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRightParen, "')' closing the sensitivity list"); err != nil {
		return nil, err
	}
	p.match(TokenIs)
	if _, err := p.expect(TokenBegin, "'begin' opening the process body"); err != nil {
		return nil, err
	}
	body, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenEnd, "'end process'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenProcess, "'process' after 'end'"); err != nil {
		return nil, err
	}
	if p.check(TokenIdent) {
		p.advance()
	}
	if _, err := p.expect(TokenSemicolon, "';' after 'end process'"); err != nil {
		return nil, err
	}
	proc := &ir.Process{Label: label, Body: body, Line: start.Line}
	proc.Sensitivity = make([]string, len(names))
	for i, n := range names {
		proc.Sensitivity[i] = n.Text
	}
	return proc, nil
}

// parseStatements reads sequential statements until a terminator
// ('end', 'elsif', 'else', 'when') without consuming it.
func (p *Parser) parseStatements() ([]ir.Statement, error) {
	var stmts []ir.Statement
	for {
		switch p.peek().Kind {
		case TokenEnd, TokenElsif, TokenElse, TokenWhen:
			return stmts, nil
		case TokenEOF:
			return nil, errorAt(p.peek().Line, "unterminated statement block")
		case TokenIf:
			s, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s)
		case TokenCase:
			s, err := p.parseCase()
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s)
		case TokenIdent:
			s, err := p.parseSequentialAssign()
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s)
		default:
			return nil, errorAt(p.peek().Line, "unexpected %q in process body", p.peek().Text)
		}
	}
}

func (p *Parser) parseSequentialAssign() (ir.Statement, error) {
	target := p.advance()
	blocking := false
	switch {
	case p.match(TokenLessEq):
	case p.match(TokenColonEq):
		blocking = true
	default:
		return nil, errorAt(p.peek().Line, "expected '<=' or ':=' in assignment, found %q", p.peek().Text)
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenSemicolon, "';' after assignment"); err != nil {
		return nil, err
	}
	return &ir.Assign{Target: target.Text, Value: value, Blocking: blocking, Line: target.Line}, nil
}

func (p *Parser) parseIf() (ir.Statement, error) {
	start := p.advance() // if
	stmt := &ir.If{Line: start.Line}
	for {
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenThen, "'then' after condition"); err != nil {
			return nil, err
		}
		body, err := p.parseStatements()
		if err != nil {
			return nil, err
		}
		stmt.Branches = append(stmt.Branches, ir.CondBlock{Cond: cond, Body: body})
		if !p.match(TokenElsif) {
			break
		}
	}
	if p.match(TokenElse) {
		body, err := p.parseStatements()
		if err != nil {
			return nil, err
		}
		stmt.Else = body
	}
	if _, err := p.expect(TokenEnd, "'end if'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenIf, "'if' after 'end'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenSemicolon, "';' after 'end if'"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseCase() (ir.Statement, error) {
	start := p.advance() // case
	selector, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenIs, "'is' after case selector"); err != nil {
		return nil, err
	}
	stmt := &ir.Case{Selector: selector, Line: start.Line}
	for p.match(TokenWhen) {
		if p.match(TokenOthers) {
			if _, err := p.expect(TokenArrow, "'=>' after 'others'"); err != nil {
				return nil, err
			}
			body, err := p.parseStatements()
			if err != nil {
				return nil, err
			}
			stmt.Default = body
			stmt.HasDefault = true
			if p.check(TokenWhen) {
				return nil, errorAt(p.peek().Line, "'others' must be the last case alternative")
			}
			break
		}
		arm := ir.CaseArm{}
		for {
			pat, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			arm.Patterns = append(arm.Patterns, pat)
			if !p.match(TokenBar) {
				break
			}
		}
		if _, err := p.expect(TokenArrow, "'=>' after case pattern"); err != nil {
			return nil, err
		}
		body, err := p.parseStatements()
		if err != nil {
			return nil, err
		}
		arm.Body = body
		stmt.Arms = append(stmt.Arms, arm)
	}
	if len(stmt.Arms) == 0 && !stmt.HasDefault {
		return nil, errorAt(start.Line, "case statement has no alternatives")
	}
	if _, err := p.expect(TokenEnd, "'end case'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenCase, "'case' after 'end'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenSemicolon, "';' after 'end case'"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseEndClause(unit TokenKind, name string) error {
	if _, err := p.expect(TokenEnd, "'end'"); err != nil {
		return err
	}
	p.match(unit)
	if p.check(TokenIdent) {
		got := p.advance()
		if !strings.EqualFold(got.Text, name) {
			return errorAt(got.Line, "'end %s' does not match %q", got.Text, name)
		}
	}
	_, err := p.expect(TokenSemicolon, "';' after 'end'")
	return err
}

func (p *Parser) peek() Token { return p.tokens[p.pos] }
func (p *Parser) peekAt(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind TokenKind) bool { return p.peek().Kind == kind }

func (p *Parser) match(kind TokenKind) bool {
	if !p.check(kind) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(kind TokenKind, what string) (Token, error) {
	if !p.check(kind) {
		return Token{}, errorAt(p.peek().Line, "expected %s, found %q", what, p.peek().Text)
	}
	return p.advance(), nil
}

func (p *Parser) expectIdent(what string) (Token, error) {
	return p.expect(TokenIdent, what)
}
