package sem

import (
	"strings"

	"github.com/hdltools/rtlbridge/internal/ir"
)

// ProcessKind is the resolved evaluation model of a process.
type ProcessKind uint8

const (
	Combinational ProcessKind = iota
	Sequential
)

func (k ProcessKind) String() string {
	if k == Sequential {
		return "sequential"
	}
	return "combinational"
}

// ResetKind distinguishes how a sequential process resets.
type ResetKind uint8

const (
	ResetNone ResetKind = iota
	ResetSync
	ResetAsync
)

func (k ResetKind) String() string {
	switch k {
	case ResetSync:
		return "sync"
	case ResetAsync:
		return "async"
	}
	return "none"
}

// Edge is the clock transition a sequential process triggers on.
type Edge uint8

const (
	EdgeRising Edge = iota
	EdgeFalling
)

// ProcessInfo is the classification result for one process. Clock and
// reset fields are meaningful only when Kind is Sequential.
type ProcessInfo struct {
	Kind            ProcessKind
	Clock           string
	ClockEdge       Edge
	Reset           string
	ResetKind       ResetKind
	ResetActiveHigh bool
}

// ClassifyProcess maps a sensitivity set and body to a ProcessInfo.
// A process is sequential iff an edge predicate on a sensitivity
// member appears in the body. Recognized sequential shapes:
//
//	(clk, rst): if rst = <bit> then ... elsif <edge>(clk) then ...
//	            asynchronous reset, active level from the literal
//	(clk):      if <edge>(clk) then [if rst = <bit> then ... else ...] ...
//	            synchronous reset when the first clocked statement is
//	            a bit-literal test with an else branch, otherwise no
//	            reset
//
// An edge predicate that fits neither shape is a fatal
// AmbiguousResetShape condition.
func ClassifyProcess(sensitivity []string, body []ir.Statement) (ProcessInfo, error) {
	edges := collectEdgeCalls(body)
	if len(edges) == 0 {
		return ProcessInfo{Kind: Combinational}, nil
	}

	line := edges[0].Line
	members := map[string]bool{}
	for _, m := range sensitivity {
		members[strings.ToLower(m)] = true
	}
	for _, e := range edges {
		if !members[strings.ToLower(e.Signal)] {
			return ProcessInfo{}, &AnalysisError{
				Rule: RuleAmbiguousReset, Line: e.Line,
				Message: "edge predicate on " + e.Signal + ", which is not in the sensitivity list",
			}
		}
	}
	if len(edges) > 1 || len(body) != 1 {
		return ProcessInfo{}, &AnalysisError{
			Rule: RuleAmbiguousReset, Line: line,
			Message: "sequential process body must be a single if statement with one clock edge",
		}
	}
	top, ok := body[0].(*ir.If)
	if !ok {
		return ProcessInfo{}, &AnalysisError{
			Rule: RuleAmbiguousReset, Line: line,
			Message: "sequential process body must be a single if statement",
		}
	}

	switch len(sensitivity) {
	case 1:
		return classifySoleClock(sensitivity[0], top, line)
	case 2:
		return classifyAsyncReset(sensitivity, edges[0], top, line)
	}
	return ProcessInfo{}, &AnalysisError{
		Rule: RuleAmbiguousReset, Line: line,
		Message: "sequential sensitivity list must have one or two members",
	}
}

func classifySoleClock(clock string, top *ir.If, line int) (ProcessInfo, error) {
	edge, ok := edgeCond(top.Branches[0].Cond)
	if !ok || len(top.Branches) != 1 || len(top.Else) != 0 {
		return ProcessInfo{}, &AnalysisError{
			Rule: RuleAmbiguousReset, Line: line,
			Message: "sole-clock process must be guarded by a single edge test",
		}
	}
	info := ProcessInfo{Kind: Sequential, Clock: clock, ClockEdge: edge.Edge, ResetKind: ResetNone}

	clocked := top.Branches[0].Body
	if len(clocked) == 1 {
		if inner, ok := clocked[0].(*ir.If); ok && len(inner.Else) > 0 {
			if name, high, ok := resetCond(inner.Branches[0].Cond); ok {
				info.ResetKind = ResetSync
				info.Reset = name
				info.ResetActiveHigh = high
			}
		}
	}
	return info, nil
}

func classifyAsyncReset(sensitivity []string, edge edgeCall, top *ir.If, line int) (ProcessInfo, error) {
	reset := sensitivity[0]
	if strings.EqualFold(reset, edge.Signal) {
		reset = sensitivity[1]
	}
	name, high, ok := resetCond(top.Branches[0].Cond)
	if !ok || !strings.EqualFold(name, reset) {
		return ProcessInfo{}, &AnalysisError{
			Rule: RuleAmbiguousReset, Line: line,
			Message: "two-member sensitivity list requires the first if branch to test the reset member against a bit literal",
		}
	}
	if len(top.Branches) != 2 || len(top.Else) != 0 {
		return ProcessInfo{}, &AnalysisError{
			Rule: RuleAmbiguousReset, Line: line,
			Message: "asynchronous reset shape requires exactly a reset branch and a clock-edge elsif",
		}
	}
	clockEdge, ok := edgeCond(top.Branches[1].Cond)
	if !ok {
		return ProcessInfo{}, &AnalysisError{
			Rule: RuleAmbiguousReset, Line: line,
			Message: "asynchronous reset shape requires the second branch to be the clock edge test",
		}
	}
	return ProcessInfo{
		Kind:            Sequential,
		Clock:           clockEdge.Signal,
		ClockEdge:       clockEdge.Edge,
		Reset:           name,
		ResetKind:       ResetAsync,
		ResetActiveHigh: high,
	}, nil
}

type edgeCall struct {
	Signal string
	Edge   Edge
	Line   int
}

// edgeCond matches rising_edge(sig) or falling_edge(sig).
func edgeCond(cond ir.Expression) (edgeCall, bool) {
	call, ok := cond.(*ir.Call)
	if !ok || !ir.EdgePredicates[strings.ToLower(call.Name)] || len(call.Args) != 1 {
		return edgeCall{}, false
	}
	arg, ok := call.Args[0].(*ir.Ident)
	if !ok {
		return edgeCall{}, false
	}
	edge := EdgeRising
	if strings.EqualFold(call.Name, "falling_edge") {
		edge = EdgeFalling
	}
	return edgeCall{Signal: arg.Name, Edge: edge, Line: call.Line}, true
}

// resetCond matches "name = '0'" or "name = '1'", returning the name
// and whether the asserted level is high.
func resetCond(cond ir.Expression) (string, bool, bool) {
	bin, ok := cond.(*ir.Binary)
	if !ok || bin.Op != ir.OpEq {
		return "", false, false
	}
	ident, ok := bin.LHS.(*ir.Ident)
	if !ok {
		return "", false, false
	}
	lit, ok := bin.RHS.(*ir.Literal)
	if !ok || lit.Kind != ir.LitBit {
		return "", false, false
	}
	return ident.Name, lit.Value == "1", true
}

func collectEdgeCalls(stmts []ir.Statement) []edgeCall {
	var calls []edgeCall
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ir.Assign:
			calls = append(calls, edgeCallsInExpr(s.Value)...)
		case *ir.If:
			for _, br := range s.Branches {
				calls = append(calls, edgeCallsInExpr(br.Cond)...)
				calls = append(calls, collectEdgeCalls(br.Body)...)
			}
			calls = append(calls, collectEdgeCalls(s.Else)...)
		case *ir.Case:
			calls = append(calls, edgeCallsInExpr(s.Selector)...)
			for _, arm := range s.Arms {
				calls = append(calls, collectEdgeCalls(arm.Body)...)
			}
			calls = append(calls, collectEdgeCalls(s.Default)...)
		}
	}
	return calls
}

func edgeCallsInExpr(expr ir.Expression) []edgeCall {
	var calls []edgeCall
	walkExpr(expr, func(e ir.Expression) {
		if ec, ok := edgeCond(e); ok {
			calls = append(calls, ec)
		}
	})
	return calls
}

func walkExpr(expr ir.Expression, visit func(ir.Expression)) {
	if expr == nil {
		return
	}
	visit(expr)
	switch e := expr.(type) {
	case *ir.Binary:
		walkExpr(e.LHS, visit)
		walkExpr(e.RHS, visit)
	case *ir.Unary:
		walkExpr(e.Operand, visit)
	case *ir.Call:
		for _, arg := range e.Args {
			walkExpr(arg, visit)
		}
	case *ir.Aggregate:
		walkExpr(e.Fill, visit)
	case *ir.Concat:
		for _, part := range e.Parts {
			walkExpr(part, visit)
		}
	case *ir.Select:
		walkExpr(e.Cond, visit)
		walkExpr(e.Then, visit)
		walkExpr(e.Else, visit)
	}
}
