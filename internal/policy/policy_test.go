package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func gateInput() Input {
	return Input{
		Dialect: "strict",
		Rules:   map[string]string{},
		Files: []FileReport{
			{
				File:   "rtl/adder.vhd",
				Status: "ok",
				Diagnostics: []Diagnostic{
					{Rule: "width-mismatch", Severity: "warning", Line: 12, Message: "assignment to y: target 8, expr 4"},
				},
			},
			{
				File:   "rtl/broken.vhd",
				Status: "error",
				Error:  "line 3: expected 'is' after entity name",
			},
		},
	}
}

func TestGateDefaultSeverities(t *testing.T) {
	engine, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := engine.Evaluate(context.Background(), gateInput())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if result.Summary.TotalViolations != 2 {
		t.Fatalf("total = %d, want 2: %+v", result.Summary.TotalViolations, result.Violations)
	}
	if result.Summary.Errors != 1 || result.Summary.Warnings != 1 {
		t.Fatalf("summary = %+v, want 1 error (compile failure) and 1 warning", result.Summary)
	}
	if !result.Failed() {
		t.Fatal("a compile failure should fail the gate")
	}

	var sawMismatch, sawFailure bool
	for _, v := range result.Violations {
		switch v.Rule {
		case "width-mismatch":
			sawMismatch = true
			if v.Severity != "warning" || v.File != "rtl/adder.vhd" || v.Line != 12 {
				t.Fatalf("width-mismatch violation = %+v", v)
			}
		case "compile-failure":
			sawFailure = true
			if v.Severity != "error" || v.File != "rtl/broken.vhd" {
				t.Fatalf("compile-failure violation = %+v", v)
			}
		}
	}
	if !sawMismatch || !sawFailure {
		t.Fatalf("violations = %+v", result.Violations)
	}
}

func TestGateSeverityOverrides(t *testing.T) {
	engine, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	input := gateInput()
	input.Files = input.Files[:1] // drop the failing file
	input.Rules = map[string]string{"width-mismatch": "error"}

	result, err := engine.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Summary.Errors != 1 {
		t.Fatalf("escalated rule should count as error: %+v", result.Summary)
	}

	input.Rules = map[string]string{"width-mismatch": "off"}
	result, err = engine.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Summary.TotalViolations != 0 {
		t.Fatalf("off rule should produce no violations: %+v", result.Violations)
	}
	if result.Failed() {
		t.Fatal("clean run must pass the gate")
	}
}

func TestGateExtraPolicyDir(t *testing.T) {
	dir := t.TempDir()
	extra := `package rtl.gate

import rego.v1

all_violations contains v if {
	some f in input.files
	count(f.diagnostics) > 3
	v := {
		"rule": "too-many-diagnostics",
		"severity": "error",
		"file": f.file,
		"line": 0,
		"message": "file exceeds the diagnostic budget",
	}
}
`
	if err := os.WriteFile(filepath.Join(dir, "budget.rego"), []byte(extra), 0o644); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	engine, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	input := Input{
		Dialect: "legacy",
		Rules:   map[string]string{"mixed-sensitivity": "off"},
		Files: []FileReport{{
			File:   "rtl/noisy.vhd",
			Status: "ok",
			Diagnostics: []Diagnostic{
				{Rule: "mixed-sensitivity", Line: 1},
				{Rule: "mixed-sensitivity", Line: 2},
				{Rule: "mixed-sensitivity", Line: 3},
				{Rule: "mixed-sensitivity", Line: 4},
			},
		}},
	}
	result, err := engine.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(result.Violations) != 1 || result.Violations[0].Rule != "too-many-diagnostics" {
		t.Fatalf("violations = %+v, want only the budget rule", result.Violations)
	}
}
