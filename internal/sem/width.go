package sem

import (
	"strings"

	"github.com/hdltools/rtlbridge/internal/ir"
)

// exprWidth infers the width of an expression and memoizes it in the
// resolution. Zero means "adapts to context": decimal literals and
// aggregate fills size themselves to their target.
func (r *Resolution) exprWidth(expr ir.Expression) uint32 {
	if w, ok := r.Widths[expr]; ok {
		return w
	}
	w := r.computeWidth(expr)
	r.Widths[expr] = w
	return w
}

func (r *Resolution) computeWidth(expr ir.Expression) uint32 {
	switch e := expr.(type) {
	case *ir.Ident:
		key := strings.ToLower(e.Name)
		if t, ok := r.Types[key]; ok {
			return ir.WidthOf(t)
		}
		if et, ok := r.EnumLiterals[key]; ok {
			return ir.WidthOf(et)
		}
		return 0
	case *ir.Literal:
		switch e.Kind {
		case ir.LitBit:
			return 1
		case ir.LitHex:
			return 4 * uint32(len(e.Value))
		case ir.LitBinary:
			return uint32(len(e.Value))
		}
		return 0 // decimal adapts
	case *ir.Binary:
		switch e.Op {
		case ir.OpEq, ir.OpNe, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe:
			return 1
		}
		// add/sub keep the wider operand's width, no carry widening
		return maxWidth(r.exprWidth(e.LHS), r.exprWidth(e.RHS))
	case *ir.Unary:
		return r.exprWidth(e.Operand)
	case *ir.Call:
		return r.callWidth(e)
	case *ir.Aggregate:
		return 0 // fills the target
	case *ir.Concat:
		var sum uint32
		for _, part := range e.Parts {
			sum += r.exprWidth(part)
		}
		return sum
	case *ir.Select:
		return maxWidth(r.exprWidth(e.Then), r.exprWidth(e.Else))
	}
	return 0
}

// callWidth handles conversion calls: the result keeps the argument's
// width and only flips the signedness view. to_unsigned/to_signed take
// an explicit size as their second argument.
func (r *Resolution) callWidth(call *ir.Call) uint32 {
	name := strings.ToLower(call.Name)
	if ir.EdgePredicates[name] {
		return 1
	}
	if (name == "to_unsigned" || name == "to_signed") && len(call.Args) == 2 {
		if lit, ok := call.Args[1].(*ir.Literal); ok && lit.Kind == ir.LitDecimal {
			return decimalValue(lit.Value)
		}
	}
	if len(call.Args) >= 1 {
		return r.exprWidth(call.Args[0])
	}
	return 0
}

func decimalValue(text string) uint32 {
	var n uint32
	for i := 0; i < len(text); i++ {
		n = n*10 + uint32(text[i]-'0')
	}
	return n
}

func maxWidth(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
