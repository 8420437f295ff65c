// Package core ties the pipeline together: parse, resolve, generate.
// It performs no I/O; the CLI, batch runner, and protocol server all
// sit on top of it.
package core

import (
	"fmt"

	"github.com/hdltools/rtlbridge/internal/gen"
	"github.com/hdltools/rtlbridge/internal/ir"
	"github.com/hdltools/rtlbridge/internal/parser"
	"github.com/hdltools/rtlbridge/internal/sem"
)

// Dialect selects the output language.
type Dialect = gen.Dialect

const (
	Legacy = gen.Legacy
	Strict = gen.Strict
)

// ParseDialect maps a configuration string to a dialect. The empty
// string defaults to strict.
func ParseDialect(s string) (Dialect, error) {
	switch s {
	case "", "strict":
		return Strict, nil
	case "legacy":
		return Legacy, nil
	}
	return Strict, fmt.Errorf("unknown dialect %q (want legacy or strict)", s)
}

// Options tune a compilation.
type Options struct {
	// StrictWidth turns the width-mismatch diagnostic into a fatal
	// error.
	StrictWidth bool
}

// Unit is one compiled source file: the design tree, its resolution
// side table, and the diagnostics collected along the way.
type Unit struct {
	File        *ir.DesignFile
	Resolution  *sem.Resolution
	Diagnostics []sem.Diagnostic
}

// ParseAndLower parses and resolves a single source file with default
// options.
func ParseAndLower(source string) (*Unit, error) {
	return ParseAndLowerWith(source, Options{})
}

// ParseAndLowerWith parses and resolves a single source file.
func ParseAndLowerWith(source string, opts Options) (*Unit, error) {
	file, err := parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	rv := &sem.Resolver{StrictWidth: opts.StrictWidth}
	res, err := rv.Resolve(file)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	return &Unit{File: file, Resolution: res, Diagnostics: res.Diagnostics}, nil
}

// Generate renders a compiled unit in the given dialect.
func Generate(u *Unit, d Dialect) string {
	return gen.Generate(u.Resolution, d)
}

// Transpile is the single-file fast path: source text in, output text
// and diagnostics out.
func Transpile(source string, d Dialect, opts Options) (string, []sem.Diagnostic, error) {
	u, err := ParseAndLowerWith(source, opts)
	if err != nil {
		return "", nil, err
	}
	return Generate(u, d), u.Diagnostics, nil
}
