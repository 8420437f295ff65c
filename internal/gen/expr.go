package gen

import (
	"fmt"
	"strings"

	"github.com/hdltools/rtlbridge/internal/ir"
)

var binaryOps = map[ir.BinaryOp]string{
	ir.OpAdd: "+",
	ir.OpSub: "-",
	ir.OpMul: "*",
	ir.OpDiv: "/",
	ir.OpEq:  "==",
	ir.OpNe:  "!=",
	ir.OpLt:  "<",
	ir.OpLe:  "<=",
	ir.OpGt:  ">",
	ir.OpGe:  ">=",
	ir.OpAnd: "&",
	ir.OpOr:  "|",
	ir.OpXor: "^",
}

func (w *writer) exprString(expr ir.Expression) string {
	switch e := expr.(type) {
	case *ir.Ident:
		return e.Name
	case *ir.Literal:
		return literalString(e)
	case *ir.Binary:
		lhs, rhs := w.operand(e.LHS), w.operand(e.RHS)
		switch e.Op {
		case ir.OpNand:
			return fmt.Sprintf("~(%s & %s)", lhs, rhs)
		case ir.OpNor:
			return fmt.Sprintf("~(%s | %s)", lhs, rhs)
		}
		return fmt.Sprintf("%s %s %s", lhs, binaryOps[e.Op], rhs)
	case *ir.Unary:
		if e.Op == ir.OpNeg {
			return "-" + w.operand(e.Operand)
		}
		return "~" + w.operand(e.Operand)
	case *ir.Call:
		return w.callString(e)
	case *ir.Aggregate:
		return w.fillString(e, w.res.Widths[e])
	case *ir.Concat:
		parts := make([]string, len(e.Parts))
		for i, part := range e.Parts {
			parts[i] = w.exprString(part)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *ir.Select:
		return fmt.Sprintf("%s ? %s : %s",
			w.operand(e.Cond), w.operand(e.Then), w.operand(e.Else))
	}
	return ""
}

// operand parenthesizes compound subexpressions so the output never
// depends on the reader knowing the target dialect's precedence.
// Conversion calls are unwrapped first: an elided cast around a binary
// expression still needs the parentheses.
func (w *writer) operand(expr ir.Expression) string {
	e := unwrapConversions(expr)
	s := w.exprString(e)
	switch e.(type) {
	case *ir.Binary, *ir.Select:
		return "(" + s + ")"
	}
	return s
}

func unwrapConversions(expr ir.Expression) ir.Expression {
	for {
		call, ok := expr.(*ir.Call)
		if !ok || !ir.Conversions[strings.ToLower(call.Name)] || len(call.Args) == 0 {
			return expr
		}
		expr = call.Args[0]
	}
}

// callString elides conversion calls: the cast only changes the
// signedness view, so the argument is emitted alone. to_unsigned and
// to_signed drop their explicit size argument the same way.
func (w *writer) callString(call *ir.Call) string {
	if ir.Conversions[strings.ToLower(call.Name)] && len(call.Args) >= 1 {
		return w.exprString(call.Args[0])
	}
	args := make([]string, len(call.Args))
	for i, arg := range call.Args {
		args[i] = w.exprString(arg)
	}
	return fmt.Sprintf("%s(%s)", call.Name, strings.Join(args, ", "))
}

func literalString(lit *ir.Literal) string {
	switch lit.Kind {
	case ir.LitBit:
		return "1'b" + lit.Value
	case ir.LitHex:
		return fmt.Sprintf("%d'h%s", 4*len(lit.Value), strings.ToUpper(lit.Value))
	case ir.LitBinary:
		return fmt.Sprintf("%d'b%s", len(lit.Value), lit.Value)
	}
	return lit.Value
}
