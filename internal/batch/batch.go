// Package batch compiles whole source trees: bounded-parallel runs
// with a stable report, a rego gate hook, and a filesystem watcher
// for rebuild-on-save workflows.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hdltools/rtlbridge/internal/config"
	"github.com/hdltools/rtlbridge/internal/core"
	"github.com/hdltools/rtlbridge/internal/policy"
)

// FileResult is the outcome for one input file.
type FileResult struct {
	Path        string           `json:"path"`
	Output      string           `json:"output,omitempty"`
	Entity      string           `json:"entity,omitempty"`
	Status      string           `json:"status"` // "ok" or "error"
	Error       string           `json:"error,omitempty"`
	Diagnostics []FileDiagnostic `json:"diagnostics,omitempty"`
}

// FileDiagnostic is a compiler diagnostic in report form.
type FileDiagnostic struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Line     int    `json:"line"`
	Message  string `json:"message"`
}

// Report is the result of one batch run. Files are ordered by path so
// two runs over the same tree produce comparable reports.
type Report struct {
	RunID     string       `json:"run_id"`
	Root      string       `json:"root"`
	Dialect   string       `json:"dialect"`
	Files     []FileResult `json:"files"`
	Converted int          `json:"converted"`
	Failed    int          `json:"failed"`
}

// Run compiles every source file under root selected by cfg. One
// failing file does not stop the run; failures are recorded in the
// report.
func Run(ctx context.Context, root string, cfg *config.Config) (*Report, error) {
	dialect, err := core.ParseDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	files, err := cfg.ResolveSources(root)
	if err != nil {
		return nil, fmt.Errorf("resolving sources: %w", err)
	}

	report := &Report{
		RunID:   uuid.NewString(),
		Root:    root,
		Dialect: dialect.String(),
		Files:   make([]FileResult, len(files)),
	}

	g, ctx := errgroup.WithContext(ctx)
	limit := cfg.Batch.MaxParallelFiles
	if limit <= 0 {
		limit = 4
	}
	g.SetLimit(limit)

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			report.Files[i] = compileFile(path, root, dialect, cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, fr := range report.Files {
		if fr.Status == "ok" {
			report.Converted++
		} else {
			report.Failed++
		}
	}
	return report, nil
}

// compileFile transpiles one file and writes the output next to the
// input, or under cfg.Output.Dir when set.
func compileFile(path, root string, dialect core.Dialect, cfg *config.Config) FileResult {
	result := FileResult{Path: path}

	source, err := os.ReadFile(path)
	if err != nil {
		result.Status = "error"
		result.Error = err.Error()
		return result
	}

	unit, err := core.ParseAndLowerWith(string(source), core.Options{StrictWidth: cfg.StrictWidth})
	if err != nil {
		result.Status = "error"
		result.Error = err.Error()
		return result
	}
	result.Entity = unit.File.Entity.Name
	for _, d := range unit.Diagnostics {
		result.Diagnostics = append(result.Diagnostics, FileDiagnostic{
			Rule:     d.Rule,
			Severity: d.Severity.String(),
			Line:     d.Line,
			Message:  d.Message,
		})
	}

	out := core.Generate(unit, dialect)
	outPath := outputPath(path, root, dialect, cfg.Output.Dir)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		result.Status = "error"
		result.Error = err.Error()
		return result
	}
	if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
		result.Status = "error"
		result.Error = err.Error()
		return result
	}
	result.Output = outPath
	result.Status = "ok"
	return result
}

func outputPath(input, root string, dialect core.Dialect, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + dialect.Extension()
	if outDir == "" {
		return filepath.Join(filepath.Dir(input), base)
	}
	// Mirror the layout under root so same-named files from different
	// subdirectories do not collide in the output dir.
	rel, err := filepath.Rel(root, filepath.Dir(input))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Join(outDir, base)
	}
	return filepath.Join(outDir, rel, base)
}

// Gate evaluates the configured rego policies against a report.
func Gate(ctx context.Context, report *Report, cfg *config.Config) (*policy.Result, error) {
	engine, err := policy.New(cfg.Policy.Dir)
	if err != nil {
		return nil, err
	}
	return engine.Evaluate(ctx, policyInput(report, cfg))
}

func policyInput(report *Report, cfg *config.Config) policy.Input {
	input := policy.Input{
		Dialect: report.Dialect,
		Rules:   cfg.Policy.Rules,
		Files:   make([]policy.FileReport, 0, len(report.Files)),
	}
	for _, fr := range report.Files {
		pf := policy.FileReport{File: fr.Path, Status: fr.Status, Error: fr.Error}
		for _, d := range fr.Diagnostics {
			pf.Diagnostics = append(pf.Diagnostics, policy.Diagnostic{
				Rule:     d.Rule,
				Severity: d.Severity,
				Line:     d.Line,
				Message:  d.Message,
			})
		}
		input.Files = append(input.Files, pf)
	}
	return input
}
