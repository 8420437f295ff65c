package ir

// Expression is the tagged variant for value expressions.
type Expression interface {
	exprKind()
	// SourceLine is the line the expression starts on, for diagnostics.
	SourceLine() int
}

// Ident references a declared port, signal, or enum literal by name.
type Ident struct {
	Name string
	Line int
}

func (*Ident) exprKind()         {}
func (e *Ident) SourceLine() int { return e.Line }

// LiteralKind discriminates literal spellings.
type LiteralKind uint8

const (
	// LitBit is a single-quoted bit: '0' or '1'.
	LitBit LiteralKind = iota
	// LitHex is a hex vector: x"AF".
	LitHex
	// LitBinary is a double-quoted 0/1 string used as a vector value.
	LitBinary
	// LitDecimal is a plain decimal number.
	LitDecimal
)

// Literal is a constant value. Value holds the digits without quote
// characters or the x prefix.
type Literal struct {
	Kind  LiteralKind
	Value string
	Line  int
}

func (*Literal) exprKind()         {}
func (e *Literal) SourceLine() int { return e.Line }

// BinaryOp is a binary operator.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpXor
	OpNand
	OpNor
)

// Binary applies a binary operator.
type Binary struct {
	Op   BinaryOp
	LHS  Expression
	RHS  Expression
	Line int
}

func (*Binary) exprKind()         {}
func (e *Binary) SourceLine() int { return e.Line }

// UnaryOp is a unary operator.
type UnaryOp uint8

const (
	OpNot UnaryOp = iota
	OpNeg
)

// Unary applies a unary operator.
type Unary struct {
	Op      UnaryOp
	Operand Expression
	Line    int
}

func (*Unary) exprKind()         {}
func (e *Unary) SourceLine() int { return e.Line }

// Call is a named call: an edge predicate or a type conversion.
type Call struct {
	Name string
	Args []Expression
	Line int
}

func (*Call) exprKind()         {}
func (e *Call) SourceLine() int { return e.Line }

// Aggregate is the "(others => fill)" pattern: every bit of the
// target takes the fill value.
type Aggregate struct {
	Fill Expression
	Line int
}

func (*Aggregate) exprKind()         {}
func (e *Aggregate) SourceLine() int { return e.Line }

// Concat joins parts left to right; result width is the sum of part
// widths.
type Concat struct {
	Parts []Expression
	Line  int
}

func (*Concat) exprKind()         {}
func (e *Concat) SourceLine() int { return e.Line }

// Select is the conditional form of a continuous assignment
// ("value when cond else other"). It only appears as the value of a
// ContinuousAssign.
type Select struct {
	Cond Expression
	Then Expression
	Else Expression
	Line int
}

func (*Select) exprKind()         {}
func (e *Select) SourceLine() int { return e.Line }
