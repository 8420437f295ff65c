package parser

import "fmt"

// ParseError is a fatal source error. When Construct is set the error
// marks a construct outside the translatable subset rather than
// malformed syntax.
type ParseError struct {
	Line      int
	Message   string
	Construct string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func unsupported(line int, construct string) *ParseError {
	return &ParseError{
		Line:      line,
		Message:   fmt.Sprintf("unsupported construct: %s", construct),
		Construct: construct,
	}
}

func errorAt(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Message: fmt.Sprintf(format, args...)}
}
