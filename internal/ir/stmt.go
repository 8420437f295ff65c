package ir

// Statement is the tagged variant for sequential statements inside a
// process body.
type Statement interface {
	stmtKind()
}

// Assign writes an expression to a named target. Blocking records the
// source spelling; non-blocking is the signal-assignment form.
type Assign struct {
	Target   string
	Value    Expression
	Blocking bool
	Line     int
}

func (*Assign) stmtKind() {}

// CondBlock is one condition/body pair of an If chain.
type CondBlock struct {
	Cond Expression
	Body []Statement
}

// If is an if/elsif chain with an optional trailing else.
type If struct {
	Branches []CondBlock
	Else     []Statement
	Line     int
}

func (*If) stmtKind() {}

// CaseArm matches one or more literal patterns against the selector.
type CaseArm struct {
	Patterns []Expression
	Body     []Statement
}

// Case dispatches on a selector. Arms keep source order; the "others"
// arm becomes Default.
type Case struct {
	Selector   Expression
	Arms       []CaseArm
	Default    []Statement
	HasDefault bool
	Line       int
}

func (*Case) stmtKind() {}
