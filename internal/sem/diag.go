// Package sem resolves a parsed design: expression widths, process
// classification, and storage classes, recorded in a side table
// without mutating the tree.
package sem

import "fmt"

// Rule identifiers shared by diagnostics, fatal errors, and the batch
// policy gate.
const (
	RuleWidthMismatch      = "width-mismatch"
	RuleMixedSensitivity   = "mixed-sensitivity"
	RuleConflictingDrivers = "conflicting-drivers"
	RuleAmbiguousReset     = "ambiguous-reset"
)

// Severity of a diagnostic.
type Severity uint8

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is a non-fatal finding attached to the resolution.
type Diagnostic struct {
	Rule     string
	Severity Severity
	Line     int
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %s [%s]", d.Line, d.Severity, d.Message, d.Rule)
}

// AnalysisError is a fatal semantic error.
type AnalysisError struct {
	Rule    string
	Line    int
	Message string
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("line %d: %s [%s]", e.Line, e.Message, e.Rule)
}
