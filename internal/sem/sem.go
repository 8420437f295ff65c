package sem

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hdltools/rtlbridge/internal/ir"
)

// StorageClass is the declared-net category a signal needs in the
// target dialects.
type StorageClass uint8

const (
	StorageWire StorageClass = iota
	StorageReg
)

// Resolution is the side table produced by Resolve. It is keyed by
// node identity (process pointer, folded signal name, expression
// pointer); the design tree itself is never mutated, so one
// resolution can feed both generators.
type Resolution struct {
	File         *ir.DesignFile
	Processes    map[*ir.Process]ProcessInfo
	Storage      map[string]StorageClass
	Types        map[string]ir.Type
	EnumLiterals map[string]ir.EnumType
	Widths       map[ir.Expression]uint32
	Diagnostics  []Diagnostic
}

// TypeOf returns the declared type of a port or signal.
func (r *Resolution) TypeOf(name string) (ir.Type, bool) {
	t, ok := r.Types[strings.ToLower(name)]
	return t, ok
}

// StorageOf returns the storage class of a port or signal. Names that
// are never written by a process are wires.
func (r *Resolution) StorageOf(name string) StorageClass {
	return r.Storage[strings.ToLower(name)]
}

// EnumOf returns the enum type a literal belongs to.
func (r *Resolution) EnumOf(literal string) (ir.EnumType, bool) {
	et, ok := r.EnumLiterals[strings.ToLower(literal)]
	return et, ok
}

// Resolver resolves parsed designs. StrictWidth escalates the
// width-mismatch diagnostic to a fatal error.
type Resolver struct {
	StrictWidth bool
}

// Resolve runs the default resolver.
func Resolve(file *ir.DesignFile) (*Resolution, error) {
	return (&Resolver{}).Resolve(file)
}

// Resolve classifies every process, assigns storage classes, infers
// expression widths, and collects diagnostics. It fails on
// conflicting drivers, ambiguous reset shapes, and, in strict mode,
// width mismatches.
func (rv *Resolver) Resolve(file *ir.DesignFile) (*Resolution, error) {
	res := &Resolution{
		File:         file,
		Processes:    map[*ir.Process]ProcessInfo{},
		Storage:      map[string]StorageClass{},
		Types:        map[string]ir.Type{},
		EnumLiterals: map[string]ir.EnumType{},
		Widths:       map[ir.Expression]uint32{},
	}
	for _, port := range file.Entity.Ports {
		res.Types[strings.ToLower(port.Name)] = port.Type
	}
	if file.Arch == nil {
		return res, nil
	}
	for _, et := range file.Arch.Enums {
		for _, lit := range et.Literals {
			res.EnumLiterals[strings.ToLower(lit)] = et
		}
	}
	for _, sig := range file.Arch.Signals {
		res.Types[strings.ToLower(sig.Name)] = sig.Type
	}

	drivers := map[string]driver{}
	for _, stmt := range file.Arch.Concurrent {
		switch s := stmt.(type) {
		case *ir.Process:
			info, err := ClassifyProcess(s.Sensitivity, s.Body)
			if err != nil {
				return nil, err
			}
			res.Processes[s] = info
			if info.Kind == Combinational {
				res.checkSensitivity(s)
			}
			kind := driverComb
			if info.Kind == Sequential {
				kind = driverSeq
			}
			if err := res.recordWriters(s.Body, kind, drivers); err != nil {
				return nil, err
			}
			if err := rv.checkStatementWidths(res, s.Body); err != nil {
				return nil, err
			}
		case *ir.ContinuousAssign:
			if err := recordDriver(drivers, s.Target, driverCont, s.Line); err != nil {
				return nil, err
			}
			if err := rv.checkAssignWidth(res, s.Target, s.Value, s.Line); err != nil {
				return nil, err
			}
		}
	}
	for _, sig := range file.Arch.Signals {
		if sig.Init != nil {
			if err := rv.checkAssignWidth(res, sig.Name, sig.Init, sig.Line); err != nil {
				return nil, err
			}
		}
	}

	// Only sequential writers need persistent storage. Signals written
	// by combinational processes or continuous assignments stay wires.
	for name, d := range drivers {
		if d.kind == driverSeq {
			res.Storage[name] = StorageReg
		}
	}
	return res, nil
}

type driverKind uint8

const (
	driverComb driverKind = iota + 1
	driverSeq
	driverCont
)

func (k driverKind) String() string {
	switch k {
	case driverSeq:
		return "a sequential process"
	case driverComb:
		return "a combinational process"
	}
	return "a continuous assignment"
}

type driver struct {
	kind driverKind
	line int
}

func recordDriver(drivers map[string]driver, target string, kind driverKind, line int) error {
	key := strings.ToLower(target)
	if prev, ok := drivers[key]; ok && prev.kind != kind {
		return &AnalysisError{
			Rule: RuleConflictingDrivers, Line: line,
			Message: fmt.Sprintf("%s is driven by %s (line %d) and %s", target, prev.kind, prev.line, kind),
		}
	}
	drivers[key] = driver{kind: kind, line: line}
	return nil
}

func (r *Resolution) recordWriters(stmts []ir.Statement, kind driverKind, drivers map[string]driver) error {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ir.Assign:
			if err := recordDriver(drivers, s.Target, kind, s.Line); err != nil {
				return err
			}
		case *ir.If:
			for _, br := range s.Branches {
				if err := r.recordWriters(br.Body, kind, drivers); err != nil {
					return err
				}
			}
			if err := r.recordWriters(s.Else, kind, drivers); err != nil {
				return err
			}
		case *ir.Case:
			for _, arm := range s.Arms {
				if err := r.recordWriters(arm.Body, kind, drivers); err != nil {
					return err
				}
			}
			if err := r.recordWriters(s.Default, kind, drivers); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkSensitivity flags drift between a combinational process's
// sensitivity set and the signals its body reads.
func (r *Resolution) checkSensitivity(proc *ir.Process) {
	listed := map[string]bool{}
	for _, m := range proc.Sensitivity {
		listed[strings.ToLower(m)] = true
	}
	read := map[string]bool{}
	collectReads(proc.Body, read)

	var missing, extra []string
	for name := range read {
		if !listed[name] && !r.isEnumLiteral(name) {
			missing = append(missing, name)
		}
	}
	for _, m := range proc.Sensitivity {
		if !read[strings.ToLower(m)] {
			extra = append(extra, m)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	for _, name := range missing {
		r.Diagnostics = append(r.Diagnostics, Diagnostic{
			Rule: RuleMixedSensitivity, Severity: SeverityWarning, Line: proc.Line,
			Message: fmt.Sprintf("process reads %s but does not list it in the sensitivity set", name),
		})
	}
	for _, name := range extra {
		r.Diagnostics = append(r.Diagnostics, Diagnostic{
			Rule: RuleMixedSensitivity, Severity: SeverityWarning, Line: proc.Line,
			Message: fmt.Sprintf("sensitivity set lists %s but the process never reads it", name),
		})
	}
}

func (r *Resolution) isEnumLiteral(name string) bool {
	_, ok := r.EnumLiterals[strings.ToLower(name)]
	return ok
}

func collectReads(stmts []ir.Statement, read map[string]bool) {
	addIdents := func(e ir.Expression) {
		walkExpr(e, func(x ir.Expression) {
			if id, ok := x.(*ir.Ident); ok {
				read[strings.ToLower(id.Name)] = true
			}
		})
	}
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ir.Assign:
			addIdents(s.Value)
		case *ir.If:
			for _, br := range s.Branches {
				addIdents(br.Cond)
				collectReads(br.Body, read)
			}
			collectReads(s.Else, read)
		case *ir.Case:
			addIdents(s.Selector)
			for _, arm := range s.Arms {
				collectReads(arm.Body, read)
			}
			collectReads(s.Default, read)
		}
	}
}

func (rv *Resolver) checkStatementWidths(res *Resolution, stmts []ir.Statement) error {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ir.Assign:
			if err := rv.checkAssignWidth(res, s.Target, s.Value, s.Line); err != nil {
				return err
			}
		case *ir.If:
			for _, br := range s.Branches {
				res.exprWidth(br.Cond)
				if err := rv.checkStatementWidths(res, br.Body); err != nil {
					return err
				}
			}
			if err := rv.checkStatementWidths(res, s.Else); err != nil {
				return err
			}
		case *ir.Case:
			res.exprWidth(s.Selector)
			for _, arm := range s.Arms {
				if err := rv.checkStatementWidths(res, arm.Body); err != nil {
					return err
				}
			}
			if err := rv.checkStatementWidths(res, s.Default); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkAssignWidth compares the target's declared width against the
// source expression's inferred width. Zero-width expressions adapt to
// the target and never mismatch.
func (rv *Resolver) checkAssignWidth(res *Resolution, target string, value ir.Expression, line int) error {
	exprW := res.exprWidth(value)
	t, ok := res.TypeOf(target)
	if !ok || exprW == 0 {
		return nil
	}
	targetW := ir.WidthOf(t)
	if targetW == 0 || targetW == exprW {
		return nil
	}
	msg := fmt.Sprintf("assignment to %s: target %d, expr %d", target, targetW, exprW)
	if rv.StrictWidth {
		return &AnalysisError{Rule: RuleWidthMismatch, Line: line, Message: msg}
	}
	res.Diagnostics = append(res.Diagnostics, Diagnostic{
		Rule: RuleWidthMismatch, Severity: SeverityWarning, Line: line, Message: msg,
	})
	return nil
}
