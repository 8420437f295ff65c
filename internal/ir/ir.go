// Package ir defines the dialect-neutral intermediate representation
// for RTL translation.
//
// A DesignFile is produced once by the parser for a single source file
// and is immutable afterwards. The resolver attaches computed facts
// (widths, process kinds, storage classes) in a side table so the same
// tree can feed both output dialects without re-resolution.
package ir

// Direction is a port direction.
type Direction uint8

const (
	DirIn Direction = iota
	DirOut
	DirInOut
	// DirBuffer maps to an output in both target dialects.
	DirBuffer
)

// ParseDirection recognizes a source-language port mode.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "in":
		return DirIn, true
	case "out":
		return DirOut, true
	case "inout":
		return DirInOut, true
	case "buffer":
		return DirBuffer, true
	}
	return DirIn, false
}

func (d Direction) String() string {
	switch d {
	case DirIn:
		return "in"
	case DirOut:
		return "out"
	case DirInOut:
		return "inout"
	case DirBuffer:
		return "buffer"
	}
	return "unknown"
}

// Type is the tagged variant for port and signal types.
type Type interface {
	typeKind()
}

// BitType is a single-bit logic value (std_logic, bit, boolean).
type BitType struct{}

func (BitType) typeKind() {}

// VectorType is a constrained bit vector. Width = High - Low + 1;
// bit order is preserved from the source ("high downto low").
type VectorType struct {
	High   uint32
	Low    uint32
	Signed bool
}

func (VectorType) typeKind() {}

// Width returns the number of bits in the vector.
func (v VectorType) Width() uint32 {
	return v.High - v.Low + 1
}

// IntegerType is a source-level integer or natural. It is canonicalized
// to a 32-bit vector for generation; Natural drops the sign.
type IntegerType struct {
	Natural bool
}

func (IntegerType) typeKind() {}

// EnumType is a user-declared enumerated type
// ("type state_t is (IDLE, RUN, DONE);"). Encodings are assigned in
// declaration order starting at zero.
type EnumType struct {
	Name     string
	Literals []string
}

func (EnumType) typeKind() {}

// Canonical rewrites IntegerType to its generation form. Other types
// pass through unchanged.
func Canonical(t Type) Type {
	if it, ok := t.(IntegerType); ok {
		return VectorType{High: 31, Low: 0, Signed: !it.Natural}
	}
	return t
}

// WidthOf returns the bit width a value of type t occupies in the
// target dialects.
func WidthOf(t Type) uint32 {
	switch tt := Canonical(t).(type) {
	case BitType:
		return 1
	case VectorType:
		return tt.Width()
	case EnumType:
		return enumWidth(len(tt.Literals))
	}
	return 0
}

// enumWidth is the narrowest vector that can hold n encodings.
func enumWidth(n int) uint32 {
	if n <= 2 {
		return 1
	}
	var w uint32 = 1
	for c := 2; c < n; c *= 2 {
		w++
	}
	return w
}

// Port is a typed, directional entity port.
type Port struct {
	Name string
	Dir  Direction
	Type Type
	Line int
}

// Entity is the interface declaration of a module: a name and an
// ordered port list. Immutable once parsed.
type Entity struct {
	Name  string
	Ports []Port
	Line  int
}

// Signal is an architecture-internal signal declaration with an
// optional initial value.
type Signal struct {
	Name string
	Type Type
	Init Expression
	Line int
}

// Architecture is the implementation body bound to an entity by name.
// It owns the internal signals, enum type declarations, and the
// ordered concurrent statements.
type Architecture struct {
	Name       string
	EntityName string
	Enums      []EnumType
	Signals    []Signal
	Concurrent []ConcurrentStatement
	Line       int
}

// DesignFile is the parse result for one source file: one entity and
// at most one matching architecture.
type DesignFile struct {
	Entity Entity
	Arch   *Architecture
}

// ConcurrentStatement is the tagged variant for architecture-body
// statements.
type ConcurrentStatement interface {
	concurrentStmt()
}

// Process is a sequential block re-evaluated when a sensitivity-set
// member changes. Sensitivity order is irrelevant to semantics but
// preserved for output fidelity.
type Process struct {
	Label       string
	Sensitivity []string
	Body        []Statement
	Line        int
}

func (*Process) concurrentStmt() {}

// ContinuousAssign is a concurrent signal assignment outside any
// process.
type ContinuousAssign struct {
	Target string
	Value  Expression
	Line   int
}

func (*ContinuousAssign) concurrentStmt() {}

// RawConcurrent carries a recoverable-but-unsupported construct
// verbatim (e.g. a selected signal assignment). Generation degrades it
// to a marked comment block instead of failing the file.
type RawConcurrent struct {
	Construct string
	Text      string
	Line      int
}

func (*RawConcurrent) concurrentStmt() {}

// EdgePredicates are the recognized edge-detection builtins.
var EdgePredicates = map[string]bool{
	"rising_edge":  true,
	"falling_edge": true,
}

// Conversions are the recognized type-conversion builtins. A
// conversion call keeps its argument's width and only changes the
// signedness view, so both generators elide it.
var Conversions = map[string]bool{
	"std_logic_vector": true,
	"unsigned":         true,
	"signed":           true,
	"to_unsigned":      true,
	"to_signed":        true,
	"to_integer":       true,
}

// IsBuiltin reports whether name is a recognized predicate or
// conversion, and therefore callable without a declaration.
func IsBuiltin(name string) bool {
	return EdgePredicates[name] || Conversions[name]
}
