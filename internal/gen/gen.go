package gen

import (
	"fmt"
	"strings"

	"github.com/hdltools/rtlbridge/internal/ir"
	"github.com/hdltools/rtlbridge/internal/sem"
)

const indentUnit = "    "

// Generate renders the resolved design in the given dialect. The
// output is deterministic: the same resolution and dialect always
// yield byte-identical text.
func Generate(res *sem.Resolution, d Dialect) string {
	w := &writer{res: res, prof: profiles[d]}
	w.emitModule()
	return w.sb.String()
}

type writer struct {
	sb    strings.Builder
	res   *sem.Resolution
	prof  profile
	depth int
}

func (w *writer) line(format string, args ...any) {
	for i := 0; i < w.depth; i++ {
		w.sb.WriteString(indentUnit)
	}
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteByte('\n')
}

func (w *writer) blank() {
	w.sb.WriteByte('\n')
}

func (w *writer) emitModule() {
	entity := w.res.File.Entity
	if len(entity.Ports) == 0 {
		w.line("module %s;", entity.Name)
	} else {
		w.line("module %s (", entity.Name)
		w.depth++
		for i, port := range entity.Ports {
			sep := ","
			if i == len(entity.Ports)-1 {
				sep = ""
			}
			w.line("%s%s", w.portDecl(port), sep)
		}
		w.depth--
		w.line(");")
	}

	arch := w.res.File.Arch
	if arch != nil {
		w.depth++
		if w.prof.realEnums {
			for _, et := range arch.Enums {
				w.blank()
				w.emitTypedef(et)
			}
		}
		if len(arch.Signals) > 0 {
			w.blank()
			for _, sig := range arch.Signals {
				w.emitSignal(sig)
			}
		}
		for _, stmt := range arch.Concurrent {
			w.blank()
			w.emitConcurrent(stmt)
		}
		w.depth--
	}

	w.blank()
	w.line("endmodule")
}

func (w *writer) portDecl(port ir.Port) string {
	dir := "input"
	switch port.Dir {
	case ir.DirOut, ir.DirBuffer:
		dir = "output"
	case ir.DirInOut:
		dir = "inout"
	}
	net := w.prof.wireKeyword
	if port.Dir != ir.DirIn && w.res.StorageOf(port.Name) == sem.StorageReg {
		net = w.prof.regKeyword
	}
	return fmt.Sprintf("%s %s%s %s", dir, net, rangeSuffix(port.Type), port.Name)
}

// rangeSuffix renders the packed range of a type, with a leading
// space, or nothing for single-bit types.
func rangeSuffix(t ir.Type) string {
	v, ok := ir.Canonical(t).(ir.VectorType)
	if !ok {
		if et, ok := ir.Canonical(t).(ir.EnumType); ok {
			return fmt.Sprintf(" [%d:0]", ir.WidthOf(et)-1)
		}
		return ""
	}
	prefix := ""
	if v.Signed {
		prefix = " signed"
	}
	return fmt.Sprintf("%s [%d:%d]", prefix, v.High, v.Low)
}

func (w *writer) emitTypedef(et ir.EnumType) {
	w.line("typedef enum logic [%d:0] {", ir.WidthOf(et)-1)
	w.depth++
	for i, lit := range et.Literals {
		sep := ","
		if i == len(et.Literals)-1 {
			sep = ""
		}
		w.line("%s = %d%s", lit, i, sep)
	}
	w.depth--
	w.line("} %s;", et.Name)
}

func (w *writer) emitSignal(sig ir.Signal) {
	net := w.prof.wireKeyword
	if w.res.StorageOf(sig.Name) == sem.StorageReg {
		net = w.prof.regKeyword
	}
	init := ""
	if sig.Init != nil {
		init = " = " + w.valueString(sig.Type, sig.Init)
	}
	if et, ok := sig.Type.(ir.EnumType); ok {
		if w.prof.realEnums {
			w.line("%s %s%s;", et.Name, sig.Name, init)
		} else {
			w.line("%s [%d:0] %s%s; // enum %s", net, ir.WidthOf(et)-1, sig.Name, init, et.Name)
		}
		return
	}
	w.line("%s%s %s%s;", net, rangeSuffix(sig.Type), sig.Name, init)
}

func (w *writer) emitConcurrent(stmt ir.ConcurrentStatement) {
	switch s := stmt.(type) {
	case *ir.Process:
		w.emitProcess(s)
	case *ir.ContinuousAssign:
		w.line("assign %s = %s;%s", s.Target, w.targetValue(s.Target, s.Value), w.mismatchComment(s.Target, s.Value))
	case *ir.RawConcurrent:
		w.line("// UNSUPPORTED: %s", s.Construct)
		for _, raw := range strings.Split(s.Text, "\n") {
			w.line("// %s", strings.TrimRight(raw, " \t\r"))
		}
	}
}

func (w *writer) emitProcess(proc *ir.Process) {
	info := w.res.Processes[proc]
	if info.Kind == sem.Combinational {
		w.line("%s begin", w.prof.combHeader)
		w.depth++
		w.emitStatements(proc.Body, true)
		w.depth--
		w.line("end")
		return
	}

	events := edgeEvent(info.Clock, info.ClockEdge == sem.EdgeFalling)
	if info.ResetKind == sem.ResetAsync {
		events += " or " + edgeEvent(info.Reset, !info.ResetActiveHigh)
	}
	w.line("%s @(%s) begin", w.prof.seqKeyword, events)
	w.depth++

	top := proc.Body[0].(*ir.If)
	if info.ResetKind == sem.ResetAsync {
		// reset branch first, clocked branch as the plain else
		w.line("if (%s) begin", w.exprString(top.Branches[0].Cond))
		w.depth++
		w.emitStatements(top.Branches[0].Body, false)
		w.depth--
		w.line("end else begin")
		w.depth++
		w.emitStatements(top.Branches[1].Body, false)
		w.depth--
		w.line("end")
	} else {
		// the edge test moved into the event list, emit its body
		w.emitStatements(top.Branches[0].Body, false)
	}

	w.depth--
	w.line("end")
}

func edgeEvent(signal string, falling bool) string {
	if falling {
		return "negedge " + signal
	}
	return "posedge " + signal
}

func (w *writer) emitStatements(stmts []ir.Statement, blocking bool) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ir.Assign:
			op := "<="
			if blocking || s.Blocking {
				op = "="
			}
			w.line("%s %s %s;%s", s.Target, op, w.targetValue(s.Target, s.Value), w.mismatchComment(s.Target, s.Value))
		case *ir.If:
			w.emitIf(s, blocking)
		case *ir.Case:
			w.emitCase(s, blocking)
		}
	}
}

func (w *writer) emitIf(s *ir.If, blocking bool) {
	for i, br := range s.Branches {
		if i == 0 {
			w.line("if (%s) begin", w.exprString(br.Cond))
		} else {
			w.line("end else if (%s) begin", w.exprString(br.Cond))
		}
		w.depth++
		w.emitStatements(br.Body, blocking)
		w.depth--
	}
	if len(s.Else) > 0 {
		w.line("end else begin")
		w.depth++
		w.emitStatements(s.Else, blocking)
		w.depth--
	}
	w.line("end")
}

func (w *writer) emitCase(s *ir.Case, blocking bool) {
	keyword := "case"
	if w.prof.uniqueCase && w.disjointArms(s) {
		keyword = "unique case"
	}
	w.line("%s (%s)", keyword, w.exprString(s.Selector))
	w.depth++
	for _, arm := range s.Arms {
		patterns := make([]string, len(arm.Patterns))
		for i, p := range arm.Patterns {
			patterns[i] = w.exprString(p)
		}
		w.line("%s: begin", strings.Join(patterns, ", "))
		w.depth++
		w.emitStatements(arm.Body, blocking)
		w.depth--
		w.line("end")
	}
	if s.HasDefault {
		w.line("default: begin")
		w.depth++
		w.emitStatements(s.Default, blocking)
		w.depth--
		w.line("end")
	}
	w.depth--
	w.line("endcase")
}

// disjointArms reports whether every arm pattern is a distinct
// literal or enum literal, making the arms provably exclusive.
func (w *writer) disjointArms(s *ir.Case) bool {
	seen := map[string]bool{}
	for _, arm := range s.Arms {
		for _, p := range arm.Patterns {
			var key string
			switch e := p.(type) {
			case *ir.Literal:
				key = fmt.Sprintf("%d:%s", e.Kind, e.Value)
			case *ir.Ident:
				if _, ok := w.res.EnumOf(e.Name); !ok {
					return false
				}
				key = "enum:" + strings.ToLower(e.Name)
			default:
				return false
			}
			if seen[key] {
				return false
			}
			seen[key] = true
		}
	}
	return true
}

// targetValue renders an assignment source, sizing aggregate fills to
// the target's declared width.
func (w *writer) targetValue(target string, value ir.Expression) string {
	if agg, ok := value.(*ir.Aggregate); ok {
		if t, ok := w.res.TypeOf(target); ok {
			return w.fillString(agg, ir.WidthOf(t))
		}
	}
	return w.exprString(value)
}

func (w *writer) valueString(t ir.Type, value ir.Expression) string {
	if agg, ok := value.(*ir.Aggregate); ok {
		return w.fillString(agg, ir.WidthOf(t))
	}
	return w.exprString(value)
}

func (w *writer) fillString(agg *ir.Aggregate, width uint32) string {
	bit := "0"
	if lit, ok := agg.Fill.(*ir.Literal); ok && lit.Kind == ir.LitBit {
		bit = lit.Value
	}
	if w.prof.packedZero {
		return "'" + bit
	}
	if width == 0 {
		width = 1
	}
	return fmt.Sprintf("%d'b%s", width, strings.Repeat(bit, int(width)))
}

func (w *writer) mismatchComment(target string, value ir.Expression) string {
	exprW := w.res.Widths[value]
	t, ok := w.res.TypeOf(target)
	if !ok || exprW == 0 {
		return ""
	}
	targetW := ir.WidthOf(t)
	if targetW == 0 || targetW == exprW {
		return ""
	}
	return fmt.Sprintf(" // width mismatch: target %d, expr %d", targetW, exprW)
}
