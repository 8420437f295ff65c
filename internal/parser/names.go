package parser

import (
	"strings"

	"github.com/hdltools/rtlbridge/internal/ir"
)

// nameTable tracks declared names case-insensitively.
type nameTable struct {
	signals map[string]bool // ports and signals
	enums   map[string]bool // enum literals
}

func (t *nameTable) signal(name string) bool { return t.signals[strings.ToLower(name)] }
func (t *nameTable) known(name string) bool {
	return t.signal(name) || t.enums[strings.ToLower(name)]
}

// checkNames validates declarations and references after the tree is
// built: no duplicate names, every identifier resolves to a port,
// signal, or enum literal, and every call targets a builtin.
func (p *Parser) checkNames(file *ir.DesignFile) error {
	table := &nameTable{signals: map[string]bool{}, enums: map[string]bool{}}
	for _, port := range file.Entity.Ports {
		key := strings.ToLower(port.Name)
		if table.signals[key] {
			return errorAt(port.Line, "duplicate port name %q", port.Name)
		}
		table.signals[key] = true
	}
	if file.Arch == nil {
		return nil
	}
	for _, et := range file.Arch.Enums {
		for _, lit := range et.Literals {
			key := strings.ToLower(lit)
			if table.enums[key] || table.signals[key] {
				return errorAt(file.Arch.Line, "duplicate enumeration literal %q", lit)
			}
			table.enums[key] = true
		}
	}
	for _, sig := range file.Arch.Signals {
		key := strings.ToLower(sig.Name)
		if table.signals[key] || table.enums[key] {
			return errorAt(sig.Line, "duplicate signal name %q", sig.Name)
		}
		table.signals[key] = true
	}

	for _, sig := range file.Arch.Signals {
		if sig.Init != nil {
			if err := checkExpr(sig.Init, table); err != nil {
				return err
			}
		}
	}
	for _, stmt := range file.Arch.Concurrent {
		switch s := stmt.(type) {
		case *ir.ContinuousAssign:
			if !table.signal(s.Target) {
				return errorAt(s.Line, "assignment to undeclared signal %q", s.Target)
			}
			if err := checkExpr(s.Value, table); err != nil {
				return err
			}
		case *ir.Process:
			for _, member := range s.Sensitivity {
				if !table.signal(member) {
					return errorAt(s.Line, "sensitivity list names undeclared signal %q", member)
				}
			}
			if err := checkStmts(s.Body, table); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkStmts(stmts []ir.Statement, table *nameTable) error {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ir.Assign:
			if !table.signal(s.Target) {
				return errorAt(s.Line, "assignment to undeclared signal %q", s.Target)
			}
			if err := checkExpr(s.Value, table); err != nil {
				return err
			}
		case *ir.If:
			for _, br := range s.Branches {
				if err := checkExpr(br.Cond, table); err != nil {
					return err
				}
				if err := checkStmts(br.Body, table); err != nil {
					return err
				}
			}
			if err := checkStmts(s.Else, table); err != nil {
				return err
			}
		case *ir.Case:
			if err := checkExpr(s.Selector, table); err != nil {
				return err
			}
			for _, arm := range s.Arms {
				for _, pat := range arm.Patterns {
					if err := checkExpr(pat, table); err != nil {
						return err
					}
				}
				if err := checkStmts(arm.Body, table); err != nil {
					return err
				}
			}
			if err := checkStmts(s.Default, table); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkExpr(expr ir.Expression, table *nameTable) error {
	switch e := expr.(type) {
	case *ir.Ident:
		if !table.known(e.Name) {
			return errorAt(e.Line, "undeclared identifier %q", e.Name)
		}
	case *ir.Call:
		if !ir.IsBuiltin(strings.ToLower(e.Name)) {
			if table.signal(e.Name) {
				return unsupported(e.Line, "indexed name")
			}
			return errorAt(e.Line, "call to unknown function %q", e.Name)
		}
		for _, arg := range e.Args {
			if err := checkExpr(arg, table); err != nil {
				return err
			}
		}
	case *ir.Binary:
		if err := checkExpr(e.LHS, table); err != nil {
			return err
		}
		return checkExpr(e.RHS, table)
	case *ir.Unary:
		return checkExpr(e.Operand, table)
	case *ir.Aggregate:
		return checkExpr(e.Fill, table)
	case *ir.Concat:
		for _, part := range e.Parts {
			if err := checkExpr(part, table); err != nil {
				return err
			}
		}
	case *ir.Select:
		if err := checkExpr(e.Cond, table); err != nil {
			return err
		}
		if err := checkExpr(e.Then, table); err != nil {
			return err
		}
		return checkExpr(e.Else, table)
	}
	return nil
}
