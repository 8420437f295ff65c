package core

import (
	"fmt"
	"strings"

	"github.com/hdltools/rtlbridge/internal/ir"
	"github.com/hdltools/rtlbridge/internal/sem"
)

// Analyze renders a human-readable structural report for a compiled
// unit: entity, ports, signals, and every process with its resolved
// kind. The report is deterministic and stable across runs.
func Analyze(u *Unit) string {
	var b strings.Builder
	entity := u.File.Entity
	fmt.Fprintf(&b, "entity %s (%d ports)\n", entity.Name, len(entity.Ports))
	for _, port := range entity.Ports {
		fmt.Fprintf(&b, "  %-12s %-6s %s\n", port.Name, port.Dir, typeString(port.Type))
	}

	arch := u.File.Arch
	if arch == nil {
		b.WriteString("no architecture\n")
		return b.String()
	}
	fmt.Fprintf(&b, "architecture %s\n", arch.Name)
	for _, et := range arch.Enums {
		fmt.Fprintf(&b, "  type %s: %s\n", et.Name, strings.Join(et.Literals, ", "))
	}
	for _, sig := range arch.Signals {
		storage := "wire"
		if u.Resolution.StorageOf(sig.Name) == sem.StorageReg {
			storage = "reg"
		}
		fmt.Fprintf(&b, "  signal %s: %s, %s\n", sig.Name, typeString(sig.Type), storage)
	}

	for _, stmt := range arch.Concurrent {
		switch s := stmt.(type) {
		case *ir.Process:
			b.WriteString("  " + processSummary(s, u.Resolution.Processes[s]) + "\n")
		case *ir.ContinuousAssign:
			fmt.Fprintf(&b, "  assign %s (line %d)\n", s.Target, s.Line)
		case *ir.RawConcurrent:
			fmt.Fprintf(&b, "  unsupported %s (line %d)\n", s.Construct, s.Line)
		}
	}

	for _, d := range u.Diagnostics {
		fmt.Fprintf(&b, "  diagnostic: %s\n", d)
	}
	return b.String()
}

func processSummary(proc *ir.Process, info sem.ProcessInfo) string {
	name := proc.Label
	if name == "" {
		name = fmt.Sprintf("process at line %d", proc.Line)
	}
	if info.Kind == sem.Combinational {
		return fmt.Sprintf("%s: combinational, sensitive to (%s)",
			name, strings.Join(proc.Sensitivity, ", "))
	}
	desc := fmt.Sprintf("%s: sequential, clock %s", name, info.Clock)
	if info.ClockEdge == sem.EdgeFalling {
		desc += " (falling)"
	}
	if info.ResetKind != sem.ResetNone {
		level := "high"
		if !info.ResetActiveHigh {
			level = "low"
		}
		desc += fmt.Sprintf(", %s reset %s active %s", info.ResetKind, info.Reset, level)
	}
	return desc
}

func typeString(t ir.Type) string {
	switch tt := t.(type) {
	case ir.BitType:
		return "bit"
	case ir.VectorType:
		kind := "vector"
		if tt.Signed {
			kind = "signed vector"
		}
		return fmt.Sprintf("%s [%d:%d]", kind, tt.High, tt.Low)
	case ir.IntegerType:
		if tt.Natural {
			return "natural"
		}
		return "integer"
	case ir.EnumType:
		return tt.Name
	}
	return "unknown"
}
