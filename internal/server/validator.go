package server

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSource string

// validator checks request payloads against the embedded CUE schema
// before they reach a handler. A malformed request fails here with a
// field-level error instead of surfacing as a zero-value compile.
type validator struct {
	ctx    *cue.Context
	schema cue.Value
}

func newValidator() (*validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}
	return &validator{ctx: ctx, schema: schema}, nil
}

// validate unifies jsonBytes with the named schema definition.
func (v *validator) validate(def string, jsonBytes []byte) error {
	if len(jsonBytes) == 0 {
		jsonBytes = []byte("{}")
	}
	dataValue := v.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return fmt.Errorf("compiling params: %w", dataValue.Err())
	}
	defValue := v.schema.LookupPath(cue.ParsePath(def))
	if defValue.Err() != nil {
		return fmt.Errorf("looking up %s: %w", def, defValue.Err())
	}
	// Concrete checking makes missing required fields an error, not
	// just wrong types and unknown fields.
	unified := defValue.Unify(dataValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}
